// Package reminder periodically finds learners with reviews waiting and
// publishes a reviews.due event for each of them.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/events"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/phrazzld/wordwise-srs/internal/store"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = time.Hour

// Scheduler runs the due-review check on a fixed interval.
type Scheduler struct {
	reminders store.ReminderStore
	emitter   events.EventEmitter
	enabled   bool
	interval  time.Duration
	clock     func() time.Time
	scheduler *gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler. If logger is nil, a default logger will be used.
func NewScheduler(
	reminders store.ReminderStore,
	emitter events.EventEmitter,
	cfg config.ReminderConfig,
	logger *slog.Logger,
) *Scheduler {
	if reminders == nil {
		panic("reminders cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Scheduler{
		reminders: reminders,
		emitter:   emitter,
		enabled:   cfg.Enabled,
		interval:  interval,
		clock:     time.Now,
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger.With(slog.String("component", "reminder_scheduler")),
	}
}

// SetClock replaces time.Now.
func (s *Scheduler) SetClock(now func() time.Time) {
	if now != nil {
		s.clock = now
	}
}

// Start schedules the check and returns immediately. The first check runs
// one interval after Start. It does nothing when reminders are disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("review reminders disabled")
		return nil
	}

	_, err := s.scheduler.
		Every(int(s.interval / time.Minute)).Minutes().
		WaitForSchedule().
		SingletonMode().
		Do(func() {
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("reminder check failed", slog.String("error", err.Error()))
			}
		})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("review reminders started", slog.Duration("interval", s.interval))
	return nil
}

// Running reports whether the scheduler has been started and not stopped.
func (s *Scheduler) Running() bool {
	return s.scheduler.IsRunning()
}

// Stop cancels the scheduled check. A check in progress runs to completion.
func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
		s.logger.Info("review reminders stopped")
	}
}

// RunOnce emits a reviews.due event for every learner with cards due now
// and returns how many were emitted. A failing handler does not stop the
// remaining learners from being notified.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock()

	learners, err := s.reminders.ListDueLearners(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due learners: %w", err)
	}

	sent := 0
	for _, learner := range learners {
		event, err := events.NewEvent(events.TypeReviewsDue, learner.UserID,
			events.ReviewsDuePayload{DueCount: learner.DueCount}, now)
		if err != nil {
			return sent, fmt.Errorf("failed to build reminder event: %w", err)
		}

		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Warn("failed to deliver review reminder",
				slog.String("user_id", learner.UserID.String()),
				slog.String("error", err.Error()))
			continue
		}
		sent++
	}

	log.Debug("reminder check finished",
		slog.Int("due_learners", len(learners)),
		slog.Int("reminders_sent", sent))

	return sent, nil
}
