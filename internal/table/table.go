// Package table holds the in-memory representation of a parsed source file.
package table

import (
	"fmt"
	"slices"
)

// Params are the read parameters passed to a ReadFunc.
// They are part of the cache key, so values must be JSON-serializable.
type Params map[string]any

// ReadFunc parses the file at path into a Table.
type ReadFunc func(path string, params Params) (*Table, error)

// Table is a column-named set of rows. Rows are never mutated after a read;
// operations such as Select and Concat return new tables.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	return t.Index(name) >= 0
}

// Append adds a row. The row must have one value per column.
func (t *Table) Append(row ...Value) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]Value, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("no column %q", name)
	}
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Select returns a new table containing only the named columns that exist,
// in the given order. Columns missing from t are skipped.
func (t *Table) Select(names ...string) *Table {
	var idx []int
	var cols []string
	for _, n := range names {
		if i := t.Index(n); i >= 0 && !slices.Contains(cols, n) {
			idx = append(idx, i)
			cols = append(cols, n)
		}
	}

	out := &Table{Columns: cols, Rows: make([][]Value, len(t.Rows))}
	for r, row := range t.Rows {
		nr := make([]Value, len(idx))
		for j, i := range idx {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row []Value) bool) *Table {
	out := &Table{Columns: slices.Clone(t.Columns)}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Concat stacks tables vertically. The result has the union of all columns
// in order of first appearance; cells absent from a source table are Null.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	for _, t := range tables {
		for _, c := range t.Columns {
			if !slices.Contains(out.Columns, c) {
				out.Columns = append(out.Columns, c)
			}
		}
	}

	for _, t := range tables {
		pos := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			pos[i] = out.Index(c)
		}
		for _, row := range t.Rows {
			nr := make([]Value, len(out.Columns))
			for i, v := range row {
				nr[pos[i]] = v
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}
