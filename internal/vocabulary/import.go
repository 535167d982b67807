package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Row is one record of an import file. Only Spanish and English are required.
type Row struct {
	Spanish    string
	English    string
	Phonetic   string
	Difficulty string
	Category   string
	// Examples is a semicolon-separated list.
	Examples string
	// Tags is a comma-separated list.
	Tags string
}

// RowError describes a row that was not imported. Row is 1-based.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

// ImportReport summarizes an import. A rejected row never aborts the batch.
type ImportReport struct {
	Imported []Item
	Errors   []RowError
}

func (r ImportReport) ImportedCount() int {
	return len(r.Imported)
}

func (r ImportReport) ErrorCount() int {
	return len(r.Errors)
}

// ImportBatch adds every valid row and records the reason each other row was skipped.
func (m *Manager) ImportBatch(ctx context.Context, rows []Row) ImportReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	var report ImportReport
	for i, row := range rows {
		rowNumber := i + 1

		item, err := m.add(ctx, row.toDraft())
		if err == nil {
			report.Imported = append(report.Imported, item)
			continue
		}
		report.Errors = append(report.Errors, RowError{
			Row:    rowNumber,
			Reason: importFailureReason(row, err),
		})
	}

	slog.Default().Info("imported vocabulary",
		"imported", report.ImportedCount(),
		"errors", report.ErrorCount(),
	)
	return report
}

// toDraft converts a row into a draft. A difficulty that is not a number is left unset
// and falls back to the default level.
func (row Row) toDraft() Draft {
	difficulty := 0
	if s := strings.TrimSpace(row.Difficulty); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil {
			slog.Default().Debug("ignored a non-numeric difficulty", "spanish", row.Spanish, "difficulty", s)
		}
		difficulty = d
	}

	return Draft{
		Spanish:    row.Spanish,
		English:    row.English,
		Phonetic:   row.Phonetic,
		Difficulty: difficulty,
		Category:   row.Category,
		Examples:   strings.Split(row.Examples, ";"),
		Tags:       strings.Split(row.Tags, ","),
	}
}

func importFailureReason(row Row, err error) string {
	switch {
	case strings.TrimSpace(row.Spanish) == "" || strings.TrimSpace(row.English) == "":
		return "Missing Spanish or English translation"
	case errors.Is(err, ErrDuplicateWord):
		return fmt.Sprintf("%q already exists", strings.TrimSpace(row.Spanish))
	default:
		return err.Error()
	}
}

// ExportRows converts every item into an import row, so an export can be imported again.
func (m *Manager) ExportRows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]Row, 0, len(m.items))
	for _, item := range m.items {
		rows = append(rows, Row{
			Spanish:    item.Spanish,
			English:    item.English,
			Phonetic:   item.Phonetic,
			Difficulty: strconv.Itoa(item.Difficulty),
			Category:   item.Category,
			Examples:   strings.Join(item.Examples, ";"),
			Tags:       strings.Join(item.Tags, ","),
		})
	}
	return rows
}
