package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/wordwise-srs/internal/events"
	"github.com/phrazzld/wordwise-srs/internal/reminder"
	"github.com/spf13/cobra"
)

func newRemindCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the due-review reminder check once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := opts.openBackend(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			out := cmd.OutOrStdout()
			emitter := events.NewInMemoryEventEmitter(b.log)
			emitter.RegisterHandler(events.NewLoggingHandler(b.log))
			emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.Event) error {
				var payload events.ReviewsDuePayload
				if err := e.UnmarshalPayload(&payload); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "%s\t%d due\n", e.UserID, payload.DueCount)
				return err
			}))

			sent, err := reminder.NewScheduler(b.store, emitter, b.cfg.Reminder, b.log).RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%d learners reminded\n", sent)
			return nil
		},
	}
}
