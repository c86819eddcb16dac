package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/domain/srs"
	"github.com/phrazzld/wordwise-srs/internal/events"
	"github.com/phrazzld/wordwise-srs/internal/platform/database"
	"github.com/phrazzld/wordwise-srs/internal/reminder"
	"github.com/phrazzld/wordwise-srs/internal/service/activity"
	"github.com/phrazzld/wordwise-srs/internal/service/auth"
	"github.com/phrazzld/wordwise-srs/internal/service/lifecycle"
	"github.com/phrazzld/wordwise-srs/internal/service/stats"
	"github.com/phrazzld/wordwise-srs/internal/service/study"
	"github.com/phrazzld/wordwise-srs/internal/task"
)

// application holds the shared dependencies of the server so they can be
// torn down together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	store        database.Store
	jwtService   auth.JWTService
	studyService study.Service
	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.Runner
	reminders    *reminder.Scheduler
}

// newApplication wires every service on top of an open database.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.store, err = database.NewStore(db, cfg.Database.Driver, logger)
	if err != nil {
		return nil, err
	}

	defaultLoc, err := domain.LoadLocation(cfg.Study.DefaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid default time zone: %w", err)
	}

	limits, err := personaLimits(cfg.Study.PersonaLimits)
	if err != nil {
		return nil, err
	}

	app.taskRunner = task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Events.Workers,
		QueueSize:   cfg.Events.QueueSize,
	}, logger)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(
		task.NewAsyncHandler(events.NewLoggingHandler(logger), app.taskRunner, logger))

	app.studyService = study.NewService(
		db,
		app.store,
		lifecycle.NewManager(srs.NewServiceWithParams(srsParams(cfg.SRS))),
		activity.NewTracker(limits),
		stats.NewAggregator(cfg.Study.ForecastFallbackPerDay, cfg.Study.ForecastDays),
		app.eventEmitter,
		logger,
		study.WithDefaultLocation(defaultLoc),
	)

	app.reminders = reminder.NewScheduler(app.store, app.eventEmitter, cfg.Reminder, logger)

	logger.Info("application initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes),
		slog.String("default_time_zone", defaultLoc.String()))
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	if err := app.reminders.Start(ctx); err != nil {
		app.cleanup()
		return err
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work and closes the database.
func (app *application) cleanup() {
	if app.reminders != nil {
		app.reminders.Stop()
	}

	// Deliver queued events before the process exits
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}

// personaLimits converts the configured caps, keyed by persona name.
func personaLimits(raw map[string]int) (activity.Limits, error) {
	limits := make(activity.Limits, len(raw))
	for name, limit := range raw {
		persona, err := domain.ParsePersona(name)
		if err != nil {
			return nil, fmt.Errorf("invalid persona limit: %w", err)
		}
		limits[persona] = limit
	}
	return limits, nil
}

// srsParams maps scheduler settings onto srs.Params. A jitter fraction of
// zero turns jitter off.
func srsParams(cfg config.SRSConfig) *srs.Params {
	return srs.NewParams(srs.ParamsConfig{
		InitialEaseFactor:      cfg.InitialEaseFactor,
		MinEaseFactor:          cfg.MinEaseFactor,
		HardIntervalMultiplier: cfg.HardIntervalMultiplier,
		EasyBonus:              cfg.EasyBonus,
		JitterFraction:         cfg.JitterFraction,
		DisableJitter:          cfg.JitterFraction == 0,
	})
}
