package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"dumpstats/internal/table"
)

// ReadCSV reads a CSV file with a header row. Every non-empty cell is a
// String value; empty cells are Null. If params name columns, only those
// are kept, and a named column missing from the header is an error.
func ReadCSV(path string, params table.Params) (*table.Table, error) {
	cols, err := columnsParam(params)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %s: missing header row", path)
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	if cols == nil {
		cols = header
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = -1
		for j, h := range header {
			if h == c {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("reading %s: no column %q", path, c)
		}
	}

	t := table.New(cols...)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		row := make([]table.Value, len(cols))
		for i, j := range idx {
			if j < len(record) && record[j] != "" {
				row[i] = table.String(record[j])
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
