package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/events"
	"github.com/phrazzld/wordwise-srs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminderStore struct {
	learners []store.DueLearner
	err      error
	gotNow   time.Time
}

func (f *fakeReminderStore) ListDueLearners(_ context.Context, now time.Time) ([]store.DueLearner, error) {
	f.gotNow = now
	return f.learners, f.err
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()
	fake := &fakeReminderStore{learners: []store.DueLearner{
		{UserID: first, DueCount: 4},
		{UserID: second, DueCount: 1},
	}}

	recorder := &events.Recorder{}
	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(recorder)

	s := NewScheduler(fake, emitter, config.ReminderConfig{Enabled: true, IntervalMinutes: 30}, nil)
	s.SetClock(func() time.Time { return now })

	sent, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, now, fake.gotNow)

	got := recorder.Events()
	require.Len(t, got, 2)
	assert.Equal(t, events.TypeReviewsDue, got[0].Type)
	assert.Equal(t, first, got[0].UserID)

	var payload events.ReviewsDuePayload
	require.NoError(t, got[0].UnmarshalPayload(&payload))
	assert.Equal(t, 4, payload.DueCount)
	assert.Equal(t, second, got[1].UserID)
}

func TestRunOnceErrors(t *testing.T) {
	boom := errors.New("database unavailable")
	s := NewScheduler(&fakeReminderStore{err: boom}, events.NewInMemoryEventEmitter(nil),
		config.ReminderConfig{Enabled: true}, nil)

	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)

	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(events.HandlerFunc(func(context.Context, *events.Event) error {
		return errors.New("push gateway down")
	}))
	s = NewScheduler(&fakeReminderStore{learners: []store.DueLearner{{UserID: uuid.New(), DueCount: 1}}},
		emitter, config.ReminderConfig{Enabled: true}, nil)

	sent, err := s.RunOnce(context.Background())
	require.NoError(t, err, "delivery failures are logged, not returned")
	assert.Zero(t, sent)
}

func TestStartStop(t *testing.T) {
	emitter := events.NewInMemoryEventEmitter(nil)

	disabled := NewScheduler(&fakeReminderStore{}, emitter, config.ReminderConfig{Enabled: false}, nil)
	require.NoError(t, disabled.Start(context.Background()))
	assert.False(t, disabled.Running())
	disabled.Stop()

	s := NewScheduler(&fakeReminderStore{}, emitter, config.ReminderConfig{Enabled: true, IntervalMinutes: 0}, nil)
	assert.Equal(t, DefaultInterval, s.interval)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	assert.Len(t, s.scheduler.Jobs(), 1)

	s.Stop()
	assert.False(t, s.Running())
}

func TestNewSchedulerPanicsOnNilDependencies(t *testing.T) {
	emitter := events.NewInMemoryEventEmitter(nil)
	assert.Panics(t, func() { NewScheduler(nil, emitter, config.ReminderConfig{}, nil) })
	assert.Panics(t, func() { NewScheduler(&fakeReminderStore{}, nil, config.ReminderConfig{}, nil) })
}
