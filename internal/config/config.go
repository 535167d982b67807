package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Learning LearningConfig `mapstructure:"learning"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=yaml mysql sqlite"`
	Directory  string `mapstructure:"directory" validate:"required_if=Backend yaml"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model" validate:"required"`
	BaseURL     string  `mapstructure:"base_url" validate:"required,url"`
	MaxRetries  uint    `mapstructure:"max_retries" validate:"max=10"`
	Temperature float64 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"min=1"`
}

type LearningConfig struct {
	SessionLengthMinutes int    `mapstructure:"session_length_minutes" validate:"min=5,max=60"`
	NewWordsPerSession   int    `mapstructure:"new_words_per_session" validate:"min=1,max=20"`
	DifficultyLevel      string `mapstructure:"difficulty_level" validate:"oneof=beginner intermediate advanced mixed"`
	Scenario             string `mapstructure:"scenario" validate:"required"`
	// SuccessConfidence is the lowest speech or self-rated confidence counted as a successful use.
	SuccessConfidence float64 `mapstructure:"success_confidence" validate:"min=0,max=1"`
	// PromptTemplate overrides the embedded system prompt template when set.
	PromptTemplate string `mapstructure:"prompt_template" validate:"omitempty,file"`
}

type ReminderConfig struct {
	EveryMinutes int `mapstructure:"every_minutes" validate:"min=1"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/hablabot")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("storage.backend", "yaml")
	v.SetDefault("storage.directory", filepath.Join("data"))
	v.SetDefault("storage.sqlite_path", filepath.Join("data", "hablabot.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "hablabot")
	v.SetDefault("database.username", "user")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.max_retries", 3)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("learning.session_length_minutes", 15)
	v.SetDefault("learning.new_words_per_session", 5)
	v.SetDefault("learning.difficulty_level", "beginner")
	v.SetDefault("learning.scenario", "general")
	v.SetDefault("learning.success_confidence", 0.7)
	v.SetDefault("reminder.every_minutes", 60)

	// Bind OpenAI config to environment variables only (not from config file)
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.model", "OPENAI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_MODEL environment variable: %w", err)
	}

	// Bind database password to environment variable
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
