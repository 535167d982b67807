package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/hablabot/internal/testutil"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		wantLevel slog.Level
	}{
		{
			name:      "debug mode enabled",
			debugMode: true,
			wantLevel: slog.LevelDebug,
		},
		{
			name:      "debug mode disabled",
			debugMode: false,
			wantLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLogger(tt.debugMode)
			logger := slog.Default()
			assert.NotNil(t, logger)
			assert.Equal(t, tt.wantLevel <= slog.LevelDebug, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()

	assert.Equal(t, "hablabot", cmd.Use)
	assert.True(t, cmd.HasSubCommands())
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"vocab", "session", "remind", "sync"})
}

// useConfig points the commands at the config file until the test ends.
func useConfig(t *testing.T, cfgPath string) {
	t.Helper()
	oldConfigFile := configFile
	configFile = cfgPath
	t.Cleanup(func() { configFile = oldConfigFile })
}

func setupTestConfigFile(t *testing.T) string {
	t.Helper()
	cfgPath := testutil.SetupTestConfig(t, t.TempDir())
	useConfig(t, cfgPath)
	return cfgPath
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func loadTestVocabulary(t *testing.T) *vocabulary.Manager {
	t.Helper()
	cfg, err := loadConfig()
	require.NoError(t, err)
	manager, s, err := openVocabulary(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, s.close())
	return manager
}

func findItem(t *testing.T, spanish string) vocabulary.Item {
	t.Helper()
	for _, item := range loadTestVocabulary(t).All() {
		if item.Spanish == spanish {
			return item
		}
	}
	require.Failf(t, "item not found", "spanish: %s", spanish)
	return vocabulary.Item{}
}

func addWord(t *testing.T, args ...string) {
	t.Helper()
	_, err := execute(t, newVocabCommand(), "", append([]string{"add"}, args...)...)
	require.NoError(t, err)
}
