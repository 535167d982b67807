package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	debug      bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "hablabot",
		Short:        "Practice Spanish conversation with spaced repetition vocabulary",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(debug)
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				slog.Default().Warn("failed to load .env", "error", err)
			}
		},
	}

	flags := rootCommand.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is ./config.yaml or $HOME/.config/hablabot/config.yaml)")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCommand.AddCommand(newVocabCommand())
	rootCommand.AddCommand(newSessionCommand())
	rootCommand.AddCommand(newRemindCommand())
	rootCommand.AddCommand(newSyncCommand())
	return rootCommand
}

func setupLogger(debugMode bool) {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     level,
			AddSource: debugMode,
		})),
	)
}
