package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/export"
	"github.com/phrazzld/wordwise-srs/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		userID  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a learner's cards and study history to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userID, err)
			}

			b, err := opts.openBackend(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			profile, err := b.store.Load(cmd.Context(), id)
			if errors.Is(err, store.ErrProfileNotFound) {
				return fmt.Errorf("learner %s has no study data", id)
			}
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}

			if err := export.WriteWorkbook(f, profile, time.Now()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", outPath, err)
			}

			b.log.Info("learner exported",
				slog.String("user_id", id.String()),
				slog.Int("cards", len(profile.Cards)),
				slog.String("path", outPath))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cards to %s\n", len(profile.Cards), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "learner UUID")
	cmd.Flags().StringVar(&outPath, "out", "learner.xlsx", "output file")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
