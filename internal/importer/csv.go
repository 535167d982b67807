package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

// ReadCSV reads rows from CSV text with a header row.
func ReadCSV(r io.Reader) ([]vocabulary.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reader.ReadAll() > %w", err)
	}
	return parseRecords(records)
}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []vocabulary.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("writer.Write() > %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(toRecord(row)); err != nil {
			return fmt.Errorf("writer.Write() > %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("writer.Flush() > %w", err)
	}
	return nil
}
