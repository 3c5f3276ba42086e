// Package source parses the files of a chat-export dump into tables.
package source

import (
	"fmt"

	"dumpstats/internal/table"
)

// ParamColumns names the read parameter holding the columns to keep.
const ParamColumns = "columns"

// Columns builds read parameters that keep only the given columns.
func Columns(cols ...string) table.Params {
	return table.Params{ParamColumns: cols}
}

// columnsParam extracts the column list from params.
// A missing parameter means "keep every column".
func columnsParam(params table.Params) ([]string, error) {
	raw, ok := params[ParamColumns]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		cols := make([]string, len(v))
		for i, c := range v {
			s, ok := c.(string)
			if !ok {
				return nil, fmt.Errorf("column %d is %T, want string", i, c)
			}
			cols[i] = s
		}
		return cols, nil
	default:
		return nil, fmt.Errorf("%s parameter is %T, want []string", ParamColumns, raw)
	}
}
