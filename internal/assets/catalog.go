package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yml
var embeddedCatalog []byte

// Scenario is a role-play setting for a conversation.
type Scenario struct {
	Title      string              `yaml:"title"`
	Setting    string              `yaml:"setting"`
	Vocabulary []string            `yaml:"vocabulary"`
	Goals      []string            `yaml:"goals"`
	Opening    string              `yaml:"opening"`
	Starters   map[string][]string `yaml:"starters"`
}

// Level adjusts the tutor's language to the learner.
type Level struct {
	Title    string   `yaml:"title"`
	Guidance []string `yaml:"guidance"`
}

// Catalog is the set of scenarios, levels and vocabulary nudges the tutor knows.
type Catalog struct {
	DefaultScenario string              `yaml:"default_scenario"`
	DefaultLevel    string              `yaml:"default_level"`
	Scenarios       map[string]Scenario `yaml:"scenarios"`
	Levels          map[string]Level    `yaml:"levels"`
	Nudges          []string            `yaml:"nudges"`

	nudges []*template.Template
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("yaml.Decode(catalog) > %w", err)
	}
	for i, nudge := range catalog.Nudges {
		tmpl, err := template.New(fmt.Sprintf("nudge-%d", i)).Parse(nudge)
		if err != nil {
			return nil, fmt.Errorf("template.Parse(%q) > %w", nudge, err)
		}
		catalog.nudges = append(catalog.nudges, tmpl)
	}
	return &catalog, nil
}

// Scenario returns the scenario with the name, ignoring case.
func (c *Catalog) Scenario(name string) (Scenario, bool) {
	scenario, ok := c.Scenarios[strings.ToLower(strings.TrimSpace(name))]
	return scenario, ok
}

// Level returns the level with the name, ignoring case.
func (c *Catalog) Level(name string) (Level, bool) {
	level, ok := c.Levels[strings.ToLower(strings.TrimSpace(name))]
	return level, ok
}

// ScenarioNames returns the names of every scenario.
func (c *Catalog) ScenarioNames() []string {
	names := make([]string, 0, len(c.Scenarios))
	for name := range c.Scenarios {
		names = append(names, name)
	}
	return names
}

// Starter picks an opening line. Unknown scenarios and levels fall back to the defaults.
func (c *Catalog) Starter(scenario, level string, rnd *rand.Rand) string {
	s, ok := c.Scenario(scenario)
	if !ok {
		s = c.Scenarios[c.DefaultScenario]
	}
	starters := s.Starters[strings.ToLower(strings.TrimSpace(level))]
	if len(starters) == 0 {
		starters = s.Starters[c.DefaultLevel]
	}
	if len(starters) == 0 {
		return "¡Hola! ¿Cómo estás?"
	}
	return starters[rnd.IntN(len(starters))]
}

// Nudge renders a hint inviting the learner to use a word. It returns "" when there are no nudges.
func (c *Catalog) Nudge(word PromptWord, rnd *rand.Rand) (string, error) {
	if len(c.nudges) == 0 {
		return "", nil
	}
	var b strings.Builder
	if err := c.nudges[rnd.IntN(len(c.nudges))].Execute(&b, word); err != nil {
		return "", fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return b.String(), nil
}
