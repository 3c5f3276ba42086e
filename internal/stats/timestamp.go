package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"dumpstats/internal/table"
)

// ErrUnparseableTimestamp is returned for raw values that do not encode an instant.
var ErrUnparseableTimestamp = errors.New("unparseable timestamp")

// Layouts accepted for string timestamps, tried in order. Layouts without
// an offset are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp converts one raw timestamp value into a UTC instant.
//   - Int (and integral Float) values are milliseconds since the Unix epoch.
//   - String values are stripped of wrapping quotes and parsed; an explicit
//     offset is honored, a bare timestamp is UTC.
//   - Time values are returned in UTC.
//
// Any other value yields an error wrapping ErrUnparseableTimestamp.
func ParseTimestamp(v table.Value) (time.Time, error) {
	switch v.Kind {
	case table.KindInt:
		return time.UnixMilli(v.Int).UTC(), nil
	case table.KindFloat:
		if v.Float != math.Trunc(v.Float) || math.IsInf(v.Float, 0) {
			return time.Time{}, fmt.Errorf("%w: non-integral epoch %v", ErrUnparseableTimestamp, v.Float)
		}
		return time.UnixMilli(int64(v.Float)).UTC(), nil
	case table.KindString:
		return parseTimestampString(v.Str)
	case table.KindTime:
		return v.Time.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s of kind %s", ErrUnparseableTimestamp, v, v.Kind)
	}
}

func parseTimestampString(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q of kind string", ErrUnparseableTimestamp, s)
}

// NormalizeColumn parses every value of a timestamp column.
// It returns the parsed instants together with the row indexes they came
// from. Unparseable values are logged and skipped.
func NormalizeColumn(values []table.Value, logger Logger) ([]time.Time, []int) {
	instants := make([]time.Time, 0, len(values))
	rows := make([]int, 0, len(values))
	for i, v := range values {
		t, err := ParseTimestamp(v)
		if err != nil {
			logger.Warn("dropping row with unparseable timestamp", "row", i, "value", v.String(), "kind", v.Kind.String())
			continue
		}
		instants = append(instants, t)
		rows = append(rows, i)
	}
	return instants, rows
}
