package stats

import "dumpstats/internal/table"

// SourceCache memoizes expensive parse-from-disk work.
// Fetch returns the table read by read(path, params), calling read only when
// no persisted result exists for the (absolute path, params) pair.
type SourceCache interface {
	Fetch(read table.ReadFunc, path string, params table.Params) (*table.Table, error)
}

// PassthroughCache is a SourceCache that never caches. Useful for one-off
// runs and tests that do not care about persistence.
type PassthroughCache struct{}

func (PassthroughCache) Fetch(read table.ReadFunc, path string, params table.Params) (*table.Table, error) {
	return read(path, params)
}
