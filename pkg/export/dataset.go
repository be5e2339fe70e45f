// Package export renders tabular report datasets into downloadable files.
package export

import "fmt"

// Dataset defines tabular export content. Notes are free text lines such as
// totals, rendered after the table where the format allows it.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	Notes   []string
}

// Validate reports whether the dataset can be rendered.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	seen := make(map[string]struct{}, len(d.Headers))
	for _, h := range d.Headers {
		if _, dup := seen[h]; dup {
			return fmt.Errorf("duplicate header %q", h)
		}
		seen[h] = struct{}{}
	}
	return nil
}

// Record returns the row values in header order.
func (d Dataset) Record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}
