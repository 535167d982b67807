package assets

import (
	"bytes"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSystemPrompt(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	restaurant, ok := catalog.Scenario("restaurant")
	require.True(t, ok)
	beginner, ok := catalog.Level("Beginner")
	require.True(t, ok)

	tests := []struct {
		name         string
		templatePath string
		data         SystemPrompt

		wantContains    []string
		wantNotContains []string
	}{
		{
			name:         "uses filesystem template when available",
			templatePath: writeTemplate(t, `Custom: {{ range .TargetWords }}{{ .Spanish }} {{ end }}`),
			data:         SystemPrompt{TargetWords: []PromptWord{{Spanish: "hola", English: "hello"}}},
			wantContains: []string{"Custom: hola"},
		},
		{
			name:         "uses embedded template when file doesn't exist",
			templatePath: "/non/existent/invalid.txt.go.tmpl",
			data: SystemPrompt{
				Scenario:    &restaurant,
				Level:       &beginner,
				TargetWords: []PromptWord{{Spanish: "la cuenta", English: "the bill"}},
			},
			wantContains: []string{
				"Eres María",
				"ESCENARIO: Restaurante",
				"VOCABULARIO CLAVE: menú, plato",
				"NIVEL: Principiante",
				"- la cuenta: the bill",
			},
		},
		{
			name:         "falls back when the filesystem template is broken",
			templatePath: writeTemplate(t, `{{ if }}`),
			data:         SystemPrompt{},
			wantContains: []string{"Eres María"},
			wantNotContains: []string{
				"ESCENARIO",
				"NIVEL",
				"VOCABULARIO OBJETIVO",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSystemPrompt(&buf, tt.templatePath, tt.data))

			got := buf.String()
			for _, want := range tt.wantContains {
				assert.Contains(t, got, want)
			}
			for _, notWant := range tt.wantNotContains {
				assert.NotContains(t, got, notWant)
			}
		})
	}
}

func writeTemplate(t *testing.T, content string) string {
	t.Helper()

	templatePath := filepath.Join(t.TempDir(), "custom.txt.go.tmpl")
	require.NoError(t, os.WriteFile(templatePath, []byte(content), 0644))
	return templatePath
}

func TestCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	rnd := rand.New(rand.NewPCG(1, 2))

	assert.Contains(t, catalog.ScenarioNames(), "emergency")
	for name, scenario := range catalog.Scenarios {
		assert.NotEmpty(t, scenario.Title, name)
		assert.NotEmpty(t, scenario.Starters[catalog.DefaultLevel], name)
	}

	restaurant := catalog.Scenarios["restaurant"]
	assert.Contains(t, restaurant.Starters["advanced"], catalog.Starter("restaurant", "advanced", rnd))
	// unknown names fall back to the default scenario and level
	assert.Contains(t, restaurant.Starters["beginner"], catalog.Starter("space station", "expert", rnd))

	nudge, err := catalog.Nudge(PromptWord{Spanish: "propina", English: "tip"}, rnd)
	require.NoError(t, err)
	assert.Contains(t, nudge, `"propina"`)
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name: "minimal catalog",
			data: `default_scenario: cafe
scenarios:
  cafe:
    title: Café
`,
		},
		{
			name:    "broken yaml",
			data:    "scenarios: [",
			wantErr: true,
		},
		{
			name:    "broken nudge template",
			data:    "nudges: ['{{ .Spanish '",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCatalog([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "¡Hola! ¿Cómo estás?", got.Starter("cafe", "beginner", rand.New(rand.NewPCG(1, 2))))

			nudge, err := got.Nudge(PromptWord{Spanish: "café"}, rand.New(rand.NewPCG(1, 2)))
			require.NoError(t, err)
			assert.Empty(t, nudge)
		})
	}
}
