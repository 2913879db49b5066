// Package csvio decodes bulk-upload CSV files into raw transaction rows.
// Decoding is header-driven: the first record names the columns and the
// expected Date/Description/Category/Amount headers are matched
// case-insensitively. Row-level dirt is not this package's business; only a
// batch that cannot be read at all is an error.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/ingest"
)

var ErrMissingHeader = errors.New("missing required column")

// ReadRows decodes the whole input into CsvRow values, one per data record.
// Date and Amount columns are required; Description and Category are
// optional. Records shorter than the header are padded with blanks.
func ReadRows(r io.Reader) ([]ingest.CsvRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := headerIndex(header)
	for _, required := range []string{"date", "amount"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, required)
		}
	}

	var rows []ingest.CsvRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, ingest.CsvRow{
			Date:        field(rec, col, "date"),
			Description: field(rec, col, "description"),
			Category:    field(rec, col, "category"),
			Amount:      field(rec, col, "amount"),
		})
	}
	return rows, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}
