package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type granularityKind uint8

const (
	kindResample granularityKind = iota
	kindHourOfDay
	kindDayOfWeek
)

// Granularity selects how instants are grouped into buckets.
// Calendar granularities (Day, Hour, Week, Resample) produce a bucket per
// period between the observed min and max. Fixed-domain granularities
// (HourOfDay, DayOfWeek) always produce 24 or 7 buckets.
type Granularity struct {
	kind  granularityKind
	width time.Duration
	name  string
}

var (
	Hour      = Granularity{kind: kindResample, width: time.Hour, name: "hour"}
	Day       = Granularity{kind: kindResample, width: 24 * time.Hour, name: "day"}
	Week      = Granularity{kind: kindResample, width: 7 * 24 * time.Hour, name: "week"}
	HourOfDay = Granularity{kind: kindHourOfDay, name: "hour-of-day"}
	DayOfWeek = Granularity{kind: kindDayOfWeek, name: "day-of-week"}
)

// Resample returns a calendar granularity of arbitrary positive width.
// Widths under a day are laid out from each local midnight; the last
// bucket of a day is cut short when the width does not divide it. Longer
// widths count whole wall-clock days from Monday 1970-01-05, so weeks
// start on Mondays.
func Resample(width time.Duration) (Granularity, error) {
	if width <= 0 {
		return Granularity{}, fmt.Errorf("resample width must be positive, got %s", width)
	}
	switch width {
	case Hour.width:
		return Hour, nil
	case Day.width:
		return Day, nil
	case Week.width:
		return Week, nil
	}
	return Granularity{kind: kindResample, width: width, name: width.String()}, nil
}

// ParseGranularity accepts "hour"/"H", "day"/"D", "week"/"W",
// "hour-of-day", "day-of-week", a Go duration ("6h", "90m") or a whole
// number of days ("3d").
func ParseGranularity(s string) (Granularity, error) {
	switch strings.TrimSpace(s) {
	case "hour", "H", "h":
		return Hour, nil
	case "day", "D":
		return Day, nil
	case "week", "W", "w":
		return Week, nil
	case "hour-of-day":
		return HourOfDay, nil
	case "day-of-week":
		return DayOfWeek, nil
	}

	if n, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(n)
		if err != nil {
			return Granularity{}, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		return Resample(time.Duration(days) * 24 * time.Hour)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return Granularity{}, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	return Resample(d)
}

// String returns the granularity name.
func (g Granularity) String() string {
	return g.name
}

// Width returns the bucket width of a calendar granularity, 0 otherwise.
func (g Granularity) Width() time.Duration {
	return g.width
}

// IsCalendar reports whether buckets are periods of time rather than a
// fixed enumerable domain.
func (g Granularity) IsCalendar() bool {
	return g.kind == kindResample
}

// domainSize returns the number of buckets of a fixed-domain granularity.
func (g Granularity) domainSize() int {
	switch g.kind {
	case kindHourOfDay:
		return 24
	case kindDayOfWeek:
		return 7
	default:
		return 0
	}
}

// slot returns the fixed-domain bucket of t, in t's own location.
// Weekdays are numbered Monday=0 through Sunday=6.
func (g Granularity) slot(t time.Time) int {
	if g.kind == kindHourOfDay {
		return t.Hour()
	}
	return (int(t.Weekday()) + 6) % 7
}

// resampleOrigin anchors calendar buckets of a day or longer: a Monday midnight.
var resampleOrigin = time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC)

// wall maps t to a UTC instant with the same wall-clock reading.
func wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// unwall is the inverse of wall for the given location.
func unwall(w time.Time, loc *time.Location) time.Time {
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), loc)
}

// floorWall returns the wall-clock start of the bucket containing t,
// counting whole widths from resampleOrigin.
func (g Granularity) floorWall(t time.Time) time.Time {
	d := wall(t).Sub(resampleOrigin)
	q := d / g.width
	if d%g.width < 0 {
		q--
	}
	return resampleOrigin.Add(q * g.width)
}

// subDay reports whether buckets are shorter than a day. Those are laid
// out in elapsed time from each local midnight, so a DST change shortens
// or lengthens the day by whole buckets instead of producing wall times
// that do not exist or exist twice.
func (g Granularity) subDay() bool {
	return g.width < 24*time.Hour
}

// midnight returns the first instant of t's local day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Floor returns the start of the calendar bucket containing t, in t's location.
func (g Granularity) Floor(t time.Time) time.Time {
	if g.subDay() {
		m := midnight(t)
		if m.After(t) {
			m = m.AddDate(0, 0, -1)
		}
		return m.Add(t.Sub(m) / g.width * g.width)
	}
	return unwall(g.floorWall(t), t.Location())
}

// next returns the start of the bucket following the one starting at b.
// The result is always after b.
func (g Granularity) next(b time.Time) time.Time {
	if g.subDay() {
		n := b.Add(g.width)
		if m := midnight(b).AddDate(0, 0, 1); m.After(b) && m.Before(n) {
			n = m
		}
		return n
	}
	w := g.floorWall(b)
	for {
		w = w.Add(g.width)
		if n := unwall(w, b.Location()); n.After(b) {
			return n
		}
	}
}
