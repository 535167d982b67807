package importer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

// DefaultSheet is the sheet of a new workbook, which exports are written to.
const DefaultSheet = "Sheet1"

// ReadXLSX reads rows from an Excel workbook. An empty sheet name reads the first sheet.
func ReadXLSX(r io.Reader, sheet string) ([]vocabulary.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excelize.OpenReader() > %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Default().Warn("failed to close workbook", "error", err)
		}
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("f.GetRows(%s) > %w", sheet, err)
	}
	return parseRecords(records)
}

// WriteXLSX writes the header and rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []vocabulary.Row) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	records := make([][]string, 0, len(rows)+1)
	records = append(records, Columns)
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("excelize.CoordinatesToCellName() > %w", err)
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &record); err != nil {
			return fmt.Errorf("f.SetSheetRow(%s) > %w", cell, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("f.Write() > %w", err)
	}
	return nil
}
