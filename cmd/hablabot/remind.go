package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/hablabot/internal/config"
	"github.com/at-ishikawa/hablabot/internal/reminder"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

func newRemindCommand() *cobra.Command {
	var once bool

	command := &cobra.Command{
		Use:   "remind",
		Short: "Print a reminder whenever words are due for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVocabularyStores(cmd, func(cfg *config.Config, manager *vocabulary.Manager, _ *stores) error {
				notifier := reminder.WriterNotifier{Writer: cmd.OutOrStdout()}
				scheduler := reminder.New(manager, notifier, time.Duration(cfg.Reminder.EveryMinutes)*time.Minute)
				if once {
					result, err := scheduler.Check(cmd.Context())
					if err != nil {
						return fmt.Errorf("scheduler.Check() > %w", err)
					}
					if result.Due == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No words due for review.")
					}
					return nil
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				if err := scheduler.Start(ctx); err != nil {
					return fmt.Errorf("scheduler.Start() > %w", err)
				}
				defer scheduler.Stop()
				<-ctx.Done()
				return nil
			})
		},
	}
	command.Flags().BoolVar(&once, "once", false, "Check once and exit")
	return command
}
