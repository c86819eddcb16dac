// Package database opens the configured backend and returns the matching
// store implementation.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/platform/migrations"
	"github.com/phrazzld/wordwise-srs/internal/platform/postgres"
	"github.com/phrazzld/wordwise-srs/internal/platform/sqlite"
	"github.com/phrazzld/wordwise-srs/internal/store"
)

// Store is everything the application needs from a backend.
type Store interface {
	store.ProfileStore
	store.ReminderStore
}

var (
	_ Store = (*postgres.ProfileStore)(nil)
	_ Store = (*sqlite.ProfileStore)(nil)
)

// Open connects to the database described by cfg and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case migrations.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("database connection established",
			slog.String("driver", cfg.Driver),
			slog.String("dsn", MaskURL(cfg.URL)))
		return db, nil

	case migrations.DriverPostgres:
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		logger.Info("database connection established",
			slog.String("driver", cfg.Driver),
			slog.String("url", MaskURL(cfg.URL)))
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewStore returns the store implementation for driver.
func NewStore(db *sql.DB, driver string, logger *slog.Logger) (Store, error) {
	switch driver {
	case migrations.DriverSQLite:
		return sqlite.NewProfileStore(db, logger), nil
	case migrations.DriverPostgres:
		return postgres.NewProfileStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate applies every pending migration for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) error {
	runner, err := migrations.NewRunner(db, driver, logger)
	if err != nil {
		return err
	}
	return runner.Up(ctx)
}

// MaskURL hides the password of a database URL for logging. Plain file
// paths are returned unchanged.
func MaskURL(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if parsed.User == nil {
		return dbURL
	}
	if _, hasPassword := parsed.User.Password(); hasPassword {
		parsed.User = url.UserPassword(parsed.User.Username(), "****")
	}
	return parsed.String()
}
