package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTask implements the Task interface for testing
type mockTask struct {
	id     uuid.UUID
	execFn func(ctx context.Context) error
}

func (m *mockTask) ID() uuid.UUID { return m.id }

func (m *mockTask) Type() string { return "mock" }

func (m *mockTask) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockTask(fn func(ctx context.Context) error) *mockTask {
	return &mockTask{id: uuid.New(), execFn: fn}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRunner(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 5, QueueSize: 3}, setupTestLogger())
	assert.Equal(t, 5, r.workerCount)
	assert.Equal(t, 3, cap(r.tasks))

	r = NewRunner(RunnerConfig{WorkerCount: -2}, nil)
	assert.Equal(t, 1, r.workerCount)
	assert.Equal(t, DefaultQueueSize, cap(r.tasks))

	def := DefaultRunnerConfig()
	assert.Equal(t, 2, def.WorkerCount)
	assert.Equal(t, DefaultQueueSize, def.QueueSize)
}

func TestRunnerProcessesTasks(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 3, QueueSize: 50}, setupTestLogger())
	require.NoError(t, r.Start())

	var count atomic.Int32
	for i := 0; i < 20; i++ {
		require.NoError(t, r.Submit(newMockTask(func(context.Context) error {
			count.Add(1)
			return nil
		})))
	}

	r.Stop()
	assert.Equal(t, int32(20), count.Load(), "Stop drains queued tasks")
}

func TestRunnerTaskContextCarriesLogger(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())
	require.NoError(t, r.Start())

	var got *slog.Logger
	require.NoError(t, r.Submit(newMockTask(func(ctx context.Context) error {
		got = logger.FromContext(ctx)
		return nil
	})))
	r.Stop()

	require.NotNil(t, got)
	assert.NotSame(t, slog.Default(), got)
}

func TestRunnerErrorHandler(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 2, QueueSize: 10}, setupTestLogger())

	var mu sync.Mutex
	var failed []error
	r.SetErrorHandler(func(_ Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, err)
	})
	require.NoError(t, r.Start())

	boom := errors.New("boom")
	require.NoError(t, r.Submit(newMockTask(func(context.Context) error { return boom })))
	require.NoError(t, r.Submit(newMockTask(func(context.Context) error { panic("kaboom") })))
	require.NoError(t, r.Submit(newMockTask(nil)))
	r.Stop()

	require.Len(t, failed, 2)
	var sawBoom, sawPanic bool
	for _, err := range failed {
		if errors.Is(err, boom) {
			sawBoom = true
		}
		if err.Error() == "task panicked: kaboom" {
			sawPanic = true
		}
	}
	assert.True(t, sawBoom)
	assert.True(t, sawPanic)
}

func TestRunnerQueueFull(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())

	// Not started, so nothing drains the queue
	require.NoError(t, r.Submit(newMockTask(nil)))
	err := r.Submit(newMockTask(nil))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, r.Pending())

	r.Stop()
	assert.Equal(t, 0, r.Pending(), "Stop runs leftover tasks even without workers")
}

func TestRunnerLifecycle(t *testing.T) {
	r := NewRunner(DefaultRunnerConfig(), setupTestLogger())
	require.NoError(t, r.Start())
	assert.ErrorIs(t, r.Start(), ErrAlreadyStarted)

	done := make(chan struct{})
	go func() {
		r.Stop()
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	assert.ErrorIs(t, r.Submit(newMockTask(nil)), ErrRunnerStopped)
	assert.ErrorIs(t, r.Start(), ErrRunnerStopped)
}
