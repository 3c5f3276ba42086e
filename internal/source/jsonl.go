package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"

	"dumpstats/internal/table"
)

// maxLineSize bounds a single JSON record. Activity records are small, but
// some event types carry long user-agent strings.
const maxLineSize = 4 * 1024 * 1024

// ReadJSONLines reads a file of newline-delimited JSON objects.
// Columns are the union of keys in order of first appearance (keys within a
// record are taken in sorted order). If params name columns, only those are
// kept; a named column that never appears is still present, all Null.
// Strings stay strings: timestamps are parsed later by the normalizer.
func ReadJSONLines(path string, params table.Params) (*table.Table, error) {
	want, err := columnsParam(params)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []map[string]table.Value
	var seen []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rec := make(map[string]table.Value, len(obj))
		for _, k := range keys {
			if want != nil && !slices.Contains(want, k) {
				continue
			}
			if !slices.Contains(seen, k) {
				seen = append(seen, k)
			}
			v, err := jsonValue(obj[k])
			if err != nil {
				return nil, fmt.Errorf("%s:%d: field %q: %w", path, line, k, err)
			}
			rec[k] = v
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cols := seen
	if want != nil {
		cols = want
	}

	t := table.New(cols...)
	t.Rows = make([][]table.Value, len(records))
	for r, rec := range records {
		row := make([]table.Value, len(cols))
		for i, c := range cols {
			row[i] = rec[c]
		}
		t.Rows[r] = row
	}
	return t, nil
}

// jsonValue converts a decoded JSON value into a table.Value.
// Integral numbers become Int; nested objects and arrays are kept as
// their compact JSON text.
func jsonValue(v any) (table.Value, error) {
	switch x := v.(type) {
	case nil:
		return table.Null(), nil
	case string:
		return table.String(x), nil
	case bool:
		return table.Bool(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return table.Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return table.Value{}, err
		}
		return table.Float(f), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return table.Value{}, err
		}
		return table.String(string(b)), nil
	}
}
