// Package testutil provides shared test helpers for creating config files and vocabulary fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a config file that keeps every record in YAML files under tmpDir/data.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	configContent := fmt.Sprintf(`storage:
  backend: yaml
  directory: %s
learning:
  session_length_minutes: 15
  new_words_per_session: 5
  difficulty_level: mixed
  scenario: restaurant
reminder:
  every_minutes: 60
`, dataDir)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey creates a config file with a fake OpenAI API key and the given base URL,
// for tests that talk to a local server.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir, baseURL string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte(fmt.Sprintf("openai:\n  api_key: fake-key-for-testing\n  model: gpt-4o-mini\n  base_url: %s\n  max_retries: 0\n", baseURL))...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}

// SetupBrokenConfig creates a config file that cannot be parsed.
func SetupBrokenConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	cfgPath := filepath.Join(tmpDir, "broken.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage: [[[\n"), 0644))
	return cfgPath
}

// CreateVocabularyCSV writes an import file with a header row and one line per record.
func CreateVocabularyCSV(t *testing.T, dir, name string, header []string, records ...[]string) string {
	t.Helper()

	lines := []string{strings.Join(header, ",")}
	for _, record := range records {
		lines = append(lines, strings.Join(record, ","))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}
