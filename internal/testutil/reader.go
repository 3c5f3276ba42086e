package testutil

import (
	"sync"

	"dumpstats/internal/table"
)

// CountingReader wraps a table.ReadFunc and counts how often it is called.
type CountingReader struct {
	mu    sync.Mutex
	read  table.ReadFunc
	calls map[string]int
}

// NewCountingReader wraps read.
func NewCountingReader(read table.ReadFunc) *CountingReader {
	return &CountingReader{read: read, calls: make(map[string]int)}
}

// Read has the table.ReadFunc signature.
func (c *CountingReader) Read(path string, params table.Params) (*table.Table, error) {
	c.mu.Lock()
	c.calls[path]++
	c.mu.Unlock()
	return c.read(path, params)
}

// Calls returns how often path was read.
func (c *CountingReader) Calls(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[path]
}

// Total returns the number of reads over all paths.
func (c *CountingReader) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

// StaticReader returns a ReadFunc that always yields a copy of t.
func StaticReader(t *table.Table) table.ReadFunc {
	return func(string, table.Params) (*table.Table, error) {
		out := table.New(t.Columns...)
		for _, row := range t.Rows {
			out.Rows = append(out.Rows, append([]table.Value(nil), row...))
		}
		return out, nil
	}
}
