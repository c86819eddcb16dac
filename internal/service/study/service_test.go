package study_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/domain/srs"
	"github.com/phrazzld/wordwise-srs/internal/events"
	"github.com/phrazzld/wordwise-srs/internal/platform/migrations"
	"github.com/phrazzld/wordwise-srs/internal/platform/sqlite"
	"github.com/phrazzld/wordwise-srs/internal/service/activity"
	"github.com/phrazzld/wordwise-srs/internal/service/lifecycle"
	"github.com/phrazzld/wordwise-srs/internal/service/stats"
	"github.com/phrazzld/wordwise-srs/internal/service/study"
	"github.com/phrazzld/wordwise-srs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *sql.DB
	svc      study.Service
	store    *sqlite.ProfileStore
	recorder *events.Recorder

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) advanceDays(n int) {
	f.advance(time.Duration(n) * 24 * time.Hour)
}

func newFixture(t *testing.T, limits activity.Limits) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runner, err := migrations.NewRunner(db, migrations.DriverSQLite, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))

	f := &fixture{
		db:       db,
		store:    sqlite.NewProfileStore(db, nil),
		recorder: &events.Recorder{},
		now:      day0,
	}

	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(f.recorder)

	f.svc = study.NewService(
		db,
		f.store,
		lifecycle.NewManager(srs.NewDefaultService()),
		activity.NewTracker(limits),
		stats.NewAggregator(0, 0),
		emitter,
		nil,
		study.WithClock(f.clock),
		study.WithRandom(srs.FixedRandom(0.5)),
	)
	return f
}

func onboard(t *testing.T, f *fixture, userID uuid.UUID, persona string) {
	t.Helper()
	_, err := f.svc.SetPreferences(context.Background(), userID, study.Preferences{Persona: persona})
	require.NoError(t, err)
}

func TestLearnWordRequiresPersona(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()

	_, err := f.svc.LearnWord(ctx, userID, "w-1")
	require.ErrorIs(t, err, domain.ErrPersonaNotSet)
	assert.True(t, study.IsExpected(err))

	_, err = f.store.Load(ctx, userID)
	assert.ErrorIs(t, err, store.ErrProfileNotFound, "rejected actions persist nothing")
	assert.Empty(t, f.recorder.Events())

	p, err := f.svc.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, p.UserID)
	assert.False(t, p.Persona.IsSet())
}

func TestSetPreferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()

	p, err := f.svc.SetPreferences(ctx, userID, study.Preferences{Persona: "Casual", TimeZone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaCasual, p.Persona)

	stored, err := f.store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaCasual, stored.Persona)
	assert.Equal(t, "Europe/Berlin", stored.TimeZone)

	// Empty fields keep their values
	p, err = f.svc.SetPreferences(ctx, userID, study.Preferences{Persona: "serious"})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaSerious, p.Persona)
	assert.Equal(t, "Europe/Berlin", p.TimeZone)

	_, err = f.svc.SetPreferences(ctx, userID, study.Preferences{Persona: "hardcore"})
	assert.ErrorIs(t, err, domain.ErrInvalidPersona)

	_, err = f.svc.SetPreferences(ctx, userID, study.Preferences{TimeZone: "Mars/Base"})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeZone)

	_, err = f.svc.SetPreferences(ctx, uuid.Nil, study.Preferences{Persona: "casual"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLearnWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()
	onboard(t, f, userID, "casual")

	res, err := f.svc.LearnWord(ctx, userID, "w-abandon")
	require.NoError(t, err)
	assert.Equal(t, 19, res.RemainingToday)
	assert.Equal(t, domain.CardStateLearning, res.Card.State)
	assert.True(t, res.Card.NextDueAt.Equal(day0.AddDate(0, 0, 1)))

	stored, err := f.store.Load(ctx, userID)
	require.NoError(t, err)
	require.Contains(t, stored.Cards, domain.WordID("w-abandon"))
	assert.Equal(t, 1, stored.TotalWordsStudied)
	assert.Equal(t, 1, stored.WordsInReview)
	assert.Equal(t, 1, stored.Streak)
	assert.Equal(t, domain.Date("2026-03-14"), stored.LastStudyDate)
	assert.Equal(t, 1, stored.ActivityOn("2026-03-14").NewWordsStudied)

	assert.Equal(t, []string{events.TypeWordLearned}, f.recorder.Types())
	var payload events.WordLearnedPayload
	require.NoError(t, f.recorder.Events()[0].UnmarshalPayload(&payload))
	assert.Equal(t, domain.WordID("w-abandon"), payload.WordID)
	assert.Equal(t, userID, f.recorder.Events()[0].UserID)

	_, err = f.svc.LearnWord(ctx, userID, "w-abandon")
	assert.ErrorIs(t, err, domain.ErrAlreadyStudied)
	assert.Len(t, f.recorder.Events(), 1)

	studied, err := f.svc.StudiedWords(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []domain.WordID{"w-abandon"}, studied)
}

func TestLearnWordDailyLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, activity.Limits{domain.PersonaBeginner: 2})
	userID := uuid.New()
	onboard(t, f, userID, "beginner")

	_, err := f.svc.LearnWord(ctx, userID, "w-1")
	require.NoError(t, err)
	res, err := f.svc.LearnWord(ctx, userID, "w-2")
	require.NoError(t, err)
	assert.Zero(t, res.RemainingToday)

	_, err = f.svc.LearnWord(ctx, userID, "w-3")
	require.ErrorIs(t, err, study.ErrDailyLimitReached)

	f.advanceDays(1)
	_, err = f.svc.LearnWord(ctx, userID, "w-3")
	require.NoError(t, err, "the cap resets on the next day")

	p, err := f.svc.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Streak)
	assert.Equal(t, 3, p.TotalWordsStudied)
}

func TestLearnWordUsesLearnerTimeZone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()

	_, err := f.svc.SetPreferences(ctx, userID, study.Preferences{Persona: "serious", TimeZone: "Asia/Tokyo"})
	require.NoError(t, err)

	f.advance(11 * time.Hour) // 20:00 UTC is 05:00 the next day in Tokyo
	_, err = f.svc.LearnWord(ctx, userID, "w-1")
	require.NoError(t, err)

	p, err := f.store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.Date("2026-03-15"), p.LastStudyDate)
	assert.NotNil(t, p.ActivityOn("2026-03-15"))
}

func TestReviewWordToMastery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()
	onboard(t, f, userID, "casual")

	_, err := f.svc.LearnWord(ctx, userID, "w-1")
	require.NoError(t, err)

	steps := []struct {
		advanceDays  int
		wantInterval int
		wantPromoted bool
	}{
		{advanceDays: 1, wantInterval: 1},
		{advanceDays: 1, wantInterval: 6},
		{advanceDays: 6, wantInterval: 15},
		{advanceDays: 15, wantInterval: 38, wantPromoted: true},
	}

	for i, step := range steps {
		f.advanceDays(step.advanceDays)
		due, err := f.svc.DueReviews(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []domain.WordID{"w-1"}, due, "step %d", i)

		res, err := f.svc.ReviewWord(ctx, userID, "w-1", domain.RatingGood)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.wantInterval, res.Card.IntervalDays, "step %d", i)
		assert.Equal(t, step.wantPromoted, res.Promoted, "step %d", i)
	}

	p, err := f.store.Load(ctx, userID)
	require.NoError(t, err)
	card := p.Cards["w-1"]
	assert.Equal(t, domain.CardStateReview, card.State)
	assert.Equal(t, 4, card.Repetitions)
	assert.Equal(t, 4, card.ReviewCount)
	assert.InDelta(t, 2.5, card.EaseFactor, 1e-9)
	assert.Equal(t, 0, p.WordsInReview)
	assert.Equal(t, 1, p.WordsMastered)
	assert.Equal(t, 1, p.Streak, "a six day gap restarts the streak")
	assert.Equal(t, 3, p.LongestStreak)

	assert.Equal(t, []string{events.TypeWordLearned, events.TypeCardMastered}, f.recorder.Types())

	summary, err := f.svc.Stats(ctx, userID, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Studied)
	assert.Equal(t, 99, summary.NewWords)
	assert.Equal(t, 1, summary.ReviewWords)
	assert.Equal(t, 1, summary.MasteredWords)
	assert.Equal(t, 0, summary.DueToday)
	assert.Equal(t, 1, summary.TodayReviews)
	assert.InDelta(t, 1.0, summary.TodayAccuracy, 1e-9)
}

func TestReviewWordLeech(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()
	onboard(t, f, userID, "casual")

	_, err := f.svc.LearnWord(ctx, userID, "w-stubborn")
	require.NoError(t, err)

	for i := 1; i <= domain.LeechThreshold+1; i++ {
		f.advanceDays(1)
		res, err := f.svc.ReviewWord(ctx, userID, "w-stubborn", domain.RatingAgain)
		require.NoError(t, err)
		assert.Equal(t, i == domain.LeechThreshold, res.BecameLeech, "review %d", i)
		assert.Equal(t, 1, res.Card.IntervalDays)
	}

	leeches, err := f.svc.Leeches(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []domain.WordID{"w-stubborn"}, leeches)

	assert.Equal(t,
		[]string{events.TypeWordLearned, events.TypeLeechDetected},
		f.recorder.Types(),
		"leech event fires once")

	p, err := f.svc.Profile(ctx, userID)
	require.NoError(t, err)
	today := p.ActivityOn(domain.DateOf(f.clock(), time.UTC))
	require.NotNil(t, today)
	assert.Equal(t, 1, today.ReviewsCompleted)
	assert.Zero(t, today.CorrectReviews)
}

func TestReviewWordErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()
	onboard(t, f, userID, "casual")

	_, err := f.svc.ReviewWord(ctx, userID, "w-unknown", domain.RatingGood)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.LearnWord(ctx, userID, "w-1")
	require.NoError(t, err)

	_, err = f.svc.ReviewWord(ctx, userID, "w-1", domain.Rating(7))
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	p, err := f.store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, p.Cards["w-1"].ReviewCount, "failed reviews leave the card untouched")
}

func TestPostponeWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()
	onboard(t, f, userID, "casual")

	_, err := f.svc.LearnWord(ctx, userID, "w-1")
	require.NoError(t, err)

	_, err = f.svc.PostponeWord(ctx, userID, "w-1", 0)
	assert.ErrorIs(t, err, srs.ErrInvalidDays)

	_, err = f.svc.PostponeWord(ctx, userID, "w-missing", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	card, err := f.svc.PostponeWord(ctx, userID, "w-1", 3)
	require.NoError(t, err)
	assert.True(t, card.NextDueAt.Equal(day0.AddDate(0, 0, 4)))

	f.advanceDays(10)
	card, err = f.svc.PostponeWord(ctx, userID, "w-1", 2)
	require.NoError(t, err)
	assert.True(t, card.NextDueAt.Equal(f.clock().AddDate(0, 0, 2)), "overdue cards count from now")

	stored, err := f.store.Load(ctx, userID)
	require.NoError(t, err)
	assert.True(t, stored.Cards["w-1"].NextDueAt.Equal(card.NextDueAt))
}

func TestReadOperationsForUnknownLearner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()

	due, err := f.svc.DueReviews(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, due)

	studied, err := f.svc.StudiedWords(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, studied)

	summary, err := f.svc.Stats(ctx, userID, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, summary.NewWords)
	assert.Equal(t, 40, summary.ForecastThisMonth)

	_, err = f.svc.Stats(ctx, userID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConcurrentLearnWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	userID := uuid.New()
	onboard(t, f, userID, "serious")

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.LearnWord(ctx, userID, domain.WordID(fmt.Sprintf("w-%02d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	p, err := f.store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, p.Cards, 12)
	assert.Equal(t, 12, p.TotalWordsStudied)
	assert.Equal(t, 12, p.ActivityOn("2026-03-14").NewWordsStudied)
}

type failingProfiles struct {
	store.ProfileStore
	err error
}

func (s failingProfiles) WithTx(tx *sql.Tx) store.ProfileStore {
	return failingProfiles{ProfileStore: s.ProfileStore.WithTx(tx), err: s.err}
}

func (s failingProfiles) SaveCard(context.Context, uuid.UUID, *domain.CardRecord) error {
	return s.err
}

func TestStoreFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	base := newFixture(t, nil)
	userID := uuid.New()
	onboard(t, base, userID, "casual")

	boom := errors.New("disk full")
	recorder := &events.Recorder{}
	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(recorder)

	svc := study.NewService(
		base.db,
		failingProfiles{ProfileStore: base.store, err: boom},
		lifecycle.NewManager(srs.NewDefaultService()),
		activity.NewTracker(nil),
		stats.NewAggregator(0, 0),
		emitter,
		nil,
		study.WithClock(base.clock),
	)

	_, err := svc.LearnWord(ctx, userID, "w-1")
	require.ErrorIs(t, err, boom)

	var serviceErr *study.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "learn_word", serviceErr.Operation)
	assert.False(t, study.IsExpected(err))

	p, err := base.store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, p.TotalWordsStudied, "profile update was rolled back")
	assert.Empty(t, recorder.Events(), "no events for rolled back actions")
}
