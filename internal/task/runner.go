package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
)

// Common errors returned by the Runner
var (
	ErrQueueFull      = errors.New("task queue is full")
	ErrRunnerStopped  = errors.New("task runner is stopped")
	ErrAlreadyStarted = errors.New("task runner already started")
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// QueueSize determines the buffer size of the in-memory queue.
	// If zero or negative, defaults to DefaultQueueSize.
	QueueSize int
}

// DefaultQueueSize is used when RunnerConfig.QueueSize is unset.
const DefaultQueueSize = 256

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 2,
		QueueSize:   DefaultQueueSize,
	}
}

// Runner manages a pool of worker goroutines that process tasks from a
// buffered queue. Stop drains the queue before returning.
type Runner struct {
	tasks chan Task

	mu      sync.RWMutex
	started bool
	stopped bool

	workerCount int
	wg          sync.WaitGroup
	logger      *slog.Logger

	// errHandler is called when a task fails; the default only logs
	errHandler func(task Task, err error)
}

var _ Submitter = (*Runner)(nil)

// NewRunner creates a Runner. Workers do not run until Start is called.
func NewRunner(config RunnerConfig, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "task_runner"))

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		log.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", workerCount))
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	r := &Runner{
		tasks:       make(chan Task, queueSize),
		workerCount: workerCount,
		logger:      log,
	}
	r.errHandler = func(task Task, err error) {
		r.logger.Error("task execution failed",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			slog.String("error", err.Error()))
	}
	return r
}

// SetErrorHandler replaces the handler called when a task fails.
func (r *Runner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Start launches the workers.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.logger.Info("task runner started",
		slog.Int("worker_count", r.workerCount),
		slog.Int("queue_capacity", cap(r.tasks)))
	return nil
}

// Submit adds a task to the queue for processing.
func (r *Runner) Submit(task Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrRunnerStopped
	}

	select {
	case r.tasks <- task:
		r.logger.Debug("task enqueued",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			slog.Int("queue_len", len(r.tasks)))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(r.tasks))
	}
}

// Stop closes the queue and waits for the workers to finish every task
// already queued. It is safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.tasks)
	started := r.started
	r.mu.Unlock()

	if !started {
		// No workers will drain the queue; run what is left inline.
		for task := range r.tasks {
			r.processTask(task, -1)
		}
	}

	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// Pending returns the number of queued tasks not yet picked up.
func (r *Runner) Pending() int {
	return len(r.tasks)
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	for task := range r.tasks {
		r.processTask(task, id)
	}
}

func (r *Runner) processTask(task Task, workerID int) {
	log := r.logger.With(
		slog.Int("worker_id", workerID),
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()))
	ctx := logger.WithLogger(context.Background(), log)

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("task panicked: %v", p)
			}
		}()
		return task.Execute(ctx)
	}()

	if err != nil {
		r.errHandler(task, err)
		return
	}
	log.Debug("task completed")
}
