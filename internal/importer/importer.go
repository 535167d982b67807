// Package importer reads and writes vocabulary files. The first row names the columns:
// spanish, english, phonetic, difficulty, category, examples and tags.
// Only spanish and english are required and unknown columns are ignored.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrEmptyFile         = errors.New("file has no header row")
)

// Columns is the header written on export, in order.
var Columns = []string{"spanish", "english", "phonetic", "difficulty", "category", "examples", "tags"}

// FormatFromPath detects the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadFile reads every row of a CSV or Excel file. Excel files are read from their first sheet.
func ReadFile(path string) ([]vocabulary.Row, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if format == FormatXLSX {
		return ReadXLSX(file, "")
	}
	return ReadCSV(file)
}

// WriteFile writes the rows in the format of the file extension.
func WriteFile(path string, rows []vocabulary.Row) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if format == FormatXLSX {
		return WriteXLSX(file, rows)
	}
	return WriteCSV(file, rows)
}

// parseRecords maps the records under the header row to import rows. Blank records are skipped.
func parseRecords(records [][]string) ([]vocabulary.Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	index := make(map[string]int)
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	for _, required := range []string{"spanish", "english"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]vocabulary.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, vocabulary.Row{
			Spanish:    cell(record, "spanish"),
			English:    cell(record, "english"),
			Phonetic:   cell(record, "phonetic"),
			Difficulty: cell(record, "difficulty"),
			Category:   cell(record, "category"),
			Examples:   cell(record, "examples"),
			Tags:       cell(record, "tags"),
		})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func toRecord(row vocabulary.Row) []string {
	return []string{row.Spanish, row.English, row.Phonetic, row.Difficulty, row.Category, row.Examples, row.Tags}
}
