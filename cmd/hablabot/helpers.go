package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/hablabot/internal/config"
	"github.com/at-ishikawa/hablabot/internal/database"
	"github.com/at-ishikawa/hablabot/internal/inference/openai"
	"github.com/at-ishikawa/hablabot/internal/session"
	"github.com/at-ishikawa/hablabot/internal/storage"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// stores holds the item and session stores of the configured backend.
type stores struct {
	items    storage.Store[vocabulary.Item]
	sessions storage.Store[session.Record]
	close    func() error
}

func openStores(ctx context.Context, cfg config.StorageConfig, dbConfig config.DatabaseConfig) (*stores, error) {
	switch cfg.Backend {
	case "mysql", "sqlite":
		db, err := openDatabase(cfg, dbConfig)
		if err != nil {
			return nil, fmt.Errorf("open %s database > %w", cfg.Backend, err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		return &stores{
			items:    storage.NewSQLStore[vocabulary.Item](db, storage.KindVocabulary),
			sessions: storage.NewSQLStore[session.Record](db, storage.KindSessions),
			close:    db.Close,
		}, nil
	default:
		return &stores{
			items:    storage.NewYAMLStore[vocabulary.Item](cfg.Directory, storage.KindVocabulary),
			sessions: storage.NewYAMLStore[session.Record](cfg.Directory, storage.KindSessions),
			close:    func() error { return nil },
		}, nil
	}
}

func openDatabase(cfg config.StorageConfig, dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Backend == "mysql" {
		return database.Open(dbConfig)
	}
	return database.OpenSQLite(cfg.SQLitePath)
}

// openVocabulary opens the stores and loads the vocabulary list. The caller closes the stores.
func openVocabulary(ctx context.Context, cfg *config.Config) (*vocabulary.Manager, *stores, error) {
	s, err := openStores(ctx, cfg.Storage, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	manager := vocabulary.NewManager(s.items)
	if err := manager.Load(ctx); err != nil {
		_ = s.close()
		return nil, nil, fmt.Errorf("manager.Load() > %w", err)
	}
	return manager, s, nil
}

func newOpenAIClient(cfg config.OpenAIConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	return openai.NewClient(cfg.APIKey, cfg.Model, cfg.MaxRetries,
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithDefaults(cfg.Temperature, cfg.MaxTokens),
	), nil
}

// withVocabularyStores loads the configuration and vocabulary and runs fn with them.
func withVocabularyStores(cmd *cobra.Command, fn func(cfg *config.Config, manager *vocabulary.Manager, s *stores) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager, s, err := openVocabulary(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			slog.Default().Warn("failed to close the store", "error", err)
		}
	}()
	return fn(cfg, manager, s)
}

func withVocabulary(cmd *cobra.Command, fn func(manager *vocabulary.Manager) error) error {
	return withVocabularyStores(cmd, func(_ *config.Config, manager *vocabulary.Manager, _ *stores) error {
		return fn(manager)
	})
}
