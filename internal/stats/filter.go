package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dumpstats/internal/table"
)

var (
	// ErrInvalidDate is returned for date arguments that cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrEmptyRange is returned when a date range selects nothing.
	ErrEmptyRange = errors.New("date range selects no data")
)

var dateLayouts = []string{"2006/01/02", "2006-01-02", "2006/1/2"}

// DateFilter restricts rows to a calendar-date window and optionally
// removes a run of days inside it. Zero times mean "unbounded".
// Dates are interpreted in the display location.
type DateFilter struct {
	Start      time.Time // first day kept, from midnight
	End        time.Time // last day kept, through 23:59:59
	RemoveFrom time.Time // first removed day
	RemoveTo   time.Time // last removed day
}

// Range is the span of timestamps that survived filtering.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseDate parses a year/month/day date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (want year/month/day)", ErrInvalidDate, s)
}

// ParseDateFilter builds a DateFilter from CLI arguments. remove is either
// a single date or "date-date".
func ParseDateFilter(start, end, remove string, loc *time.Location) (DateFilter, error) {
	var f DateFilter
	var err error

	if start != "" {
		if f.Start, err = ParseDate(start, loc); err != nil {
			return DateFilter{}, fmt.Errorf("start: %w", err)
		}
	}
	if end != "" {
		if f.End, err = ParseDate(end, loc); err != nil {
			return DateFilter{}, fmt.Errorf("end: %w", err)
		}
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return DateFilter{}, fmt.Errorf("%w: end %s is before start %s", ErrEmptyRange, end, start)
	}

	if remove != "" {
		if f.RemoveFrom, f.RemoveTo, err = parseDateRange(remove, loc); err != nil {
			return DateFilter{}, fmt.Errorf("remove: %w", err)
		}
	}

	return f, nil
}

// parseDateRange parses "date" or "date-date". ISO dates contain dashes
// themselves, so every dash is tried as the separator.
func parseDateRange(s string, loc *time.Location) (from, to time.Time, err error) {
	if d, err := ParseDate(s, loc); err == nil {
		return d, d, nil
	}
	for i := strings.IndexByte(s, '-'); i >= 0; {
		from, errFrom := ParseDate(s[:i], loc)
		to, errTo := ParseDate(s[i+1:], loc)
		if errFrom == nil && errTo == nil {
			if to.Before(from) {
				from, to = to, from
			}
			return from, to, nil
		}
		next := strings.IndexByte(s[i+1:], '-')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q (want date or date-date)", ErrInvalidDate, s)
}

// IsZero reports whether the filter keeps everything.
func (f DateFilter) IsZero() bool {
	return f.Start.IsZero() && f.End.IsZero() && f.RemoveFrom.IsZero()
}

// Keep reports whether the localized instant t passes the filter.
func (f DateFilter) Keep(t time.Time) bool {
	if !f.Start.IsZero() && t.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !t.Before(f.End.AddDate(0, 0, 1)) {
		return false
	}
	if !f.RemoveFrom.IsZero() {
		day := Day.Floor(t)
		if !day.Before(wallDay(f.RemoveFrom, t.Location())) && !day.After(wallDay(f.RemoveTo, t.Location())) {
			return false
		}
	}
	return true
}

// wallDay re-expresses a date's midnight in loc.
func wallDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// Apply returns the rows of t whose timestamp column passes the filter,
// along with the span of the kept timestamps. Rows with unparseable
// timestamps are dropped. If nothing remains, ErrEmptyRange is returned.
func (f DateFilter) Apply(t *table.Table, col string, loc *Localizer, logger Logger) (*table.Table, Range, error) {
	values, err := t.Column(col)
	if err != nil {
		return nil, Range{}, fmt.Errorf("filtering by %s: %w", col, err)
	}

	instants, rows := NormalizeColumn(values, logger)
	instants = loc.Localize(instants)

	out := table.New(t.Columns...)
	var r Range
	for i, ts := range instants {
		if !f.Keep(ts) {
			continue
		}
		out.Rows = append(out.Rows, t.Rows[rows[i]])
		if r.From.IsZero() || ts.Before(r.From) {
			r.From = ts
		}
		if r.To.IsZero() || ts.After(r.To) {
			r.To = ts
		}
	}

	if out.Len() == 0 {
		return nil, Range{}, fmt.Errorf("%w (%d rows before filtering)", ErrEmptyRange, t.Len())
	}
	return out, r, nil
}
