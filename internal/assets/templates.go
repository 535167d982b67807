// Package assets holds the embedded prompt template and scenario catalog of the tutor.
package assets

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/system-prompt.txt.go.tmpl
var fallbackSystemPromptTemplate string

const systemPromptTemplateName = "system-prompt.txt.go.tmpl"

// PromptWord is a target word listed in the system prompt.
type PromptWord struct {
	Spanish string
	English string
}

// SystemPrompt is the data of the system prompt template. Nil sections are left out.
type SystemPrompt struct {
	Scenario    *Scenario
	Level       *Level
	TargetWords []PromptWord
}

func ParseSystemPromptTemplate(templatePath string) (*template.Template, error) {
	return parseTemplateWithFallback(templatePath, systemPromptTemplateName, fallbackSystemPromptTemplate)
}

// WriteSystemPrompt renders the template at templatePath, or the embedded one when the path is empty or unreadable.
func WriteSystemPrompt(output io.Writer, templatePath string, data SystemPrompt) error {
	tmpl, err := ParseSystemPromptTemplate(templatePath)
	if err != nil {
		return fmt.Errorf("ParseSystemPromptTemplate() > %w", err)
	}
	if err := tmpl.Execute(output, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

func parseTemplateWithFallback(templatePath string, fallbackName string, fallbackTemplate string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	// First, try to read from the filesystem
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	// Fall back to embedded assets
	tmpl, err := template.New(fallbackName).
		Funcs(funcMap).
		Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}

	return tmpl, nil
}
