package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/hablabot/internal/config"
	"github.com/at-ishikawa/hablabot/internal/datasync"
)

func newSyncCommand() *cobra.Command {
	var (
		destination config.StorageConfig
		opts        datasync.Options
	)

	command := &cobra.Command{
		Use:   "sync",
		Short: "Copy the vocabulary and sessions into another storage backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			switch destination.Backend {
			case "yaml", "sqlite", "mysql":
			default:
				return fmt.Errorf("--to must be yaml, sqlite or mysql, got %q", destination.Backend)
			}
			if destination.Backend == "yaml" && destination.Directory == "" {
				return errors.New("--directory is required with --to yaml")
			}
			if destination.Backend == "sqlite" && destination.SQLitePath == "" {
				destination.SQLitePath = cfg.Storage.SQLitePath
			}
			if sameStorage(destination, cfg.Storage) {
				return errors.New("the destination is the configured storage")
			}

			from, err := openStores(ctx, cfg.Storage, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				_ = from.close()
			}()
			to, err := openStores(ctx, destination, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				_ = to.close()
			}()

			result, err := datasync.NewSyncer(cmd.OutOrStdout()).Sync(ctx,
				datasync.Backend{Items: from.items, Sessions: from.sessions},
				datasync.Backend{Items: to.items, Sessions: to.sessions},
				opts,
			)
			if err != nil {
				return fmt.Errorf("syncer.Sync() > %w", err)
			}

			prefix := ""
			if opts.DryRun {
				prefix = "[dry run] "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%svocabulary: %d new, %d updated, %d skipped; sessions: %d new, %d updated, %d skipped\n",
				prefix,
				result.Vocabulary.New, result.Vocabulary.Updated, result.Vocabulary.Skipped,
				result.Sessions.New, result.Sessions.Updated, result.Sessions.Skipped,
			)
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVar(&destination.Backend, "to", "", "Destination backend: yaml, sqlite or mysql")
	flags.StringVar(&destination.Directory, "directory", "", "Destination directory with --to yaml")
	flags.StringVar(&destination.SQLitePath, "sqlite-path", "", "Destination database file with --to sqlite (default from the config)")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Show what would be copied without writing")
	flags.BoolVar(&opts.UpdateExisting, "update-existing", false, "Overwrite records that already exist in the destination")
	_ = command.MarkFlagRequired("to")
	return command
}

func sameStorage(a, b config.StorageConfig) bool {
	if a.Backend != b.Backend {
		return false
	}
	switch a.Backend {
	case "yaml":
		return filepath.Clean(a.Directory) == filepath.Clean(b.Directory)
	case "sqlite":
		return filepath.Clean(a.SQLitePath) == filepath.Clean(b.SQLitePath)
	default:
		return true
	}
}
