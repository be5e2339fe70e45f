package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a Dataset as RFC 4180 CSV. Cells that a spreadsheet
// would evaluate as a formula are prefixed with a quote.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType is the media type of rendered files.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Render writes the header row followed by one line per row. Title and notes
// are omitted so the file stays machine readable.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		record := data.Record(row)
		for i := range record {
			record[i] = neutralize(record[i])
		}
		records = append(records, record)
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("csv: write: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralize(cell string) string {
	if cell == "" {
		return cell
	}
	switch cell[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + cell
	}
	return cell
}
