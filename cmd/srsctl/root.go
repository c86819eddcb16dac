package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/platform/database"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "srsctl",
		Short:         "Operate a wordwise-srs deployment",
		Long:          `srsctl runs migrations, issues API tokens, exports learner data and inspects the review scheduler.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config file (default: ./config.yaml if present)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newTokenCmd(opts),
		newSimulateCmd(),
		newExportCmd(opts),
		newRemindCmd(opts),
	)
	return cmd
}

// loadConfig reads .env and the config file, and logs to the command's
// stderr.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// backend is an open database with its store.
type backend struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *sql.DB
	store database.Store
}

func (b *backend) Close() {
	_ = b.db.Close()
}

// openBackend loads the configuration and opens the configured database.
func (o *rootOptions) openBackend(ctx context.Context, cmd *cobra.Command) (*backend, error) {
	cfg, log, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	s, err := database.NewStore(db, cfg.Database.Driver, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &backend{cfg: cfg, log: log, db: db, store: s}, nil
}
