package stats

import (
	"fmt"
	"sort"
	"time"

	"dumpstats/internal/table"
)

// Count groups instants into buckets of granularity g and returns a dense
// series. Calendar series span the bucket of the earliest instant through
// the bucket of the latest; an empty input yields an empty series.
// Fixed-domain series always hold every slot, zero-filled.
func Count(instants []time.Time, g Granularity) Series {
	if !g.IsCalendar() {
		return countSlots(instants, g)
	}
	if len(instants) == 0 {
		return Series{Granularity: g}
	}

	lo, hi := instants[0], instants[0]
	for _, t := range instants[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	return CountRange(instants, g, lo, hi)
}

// CountRange is Count over an explicit domain: every bucket from the one
// containing lo through the one containing hi appears exactly once, in
// increasing order. Bucket starts are expressed in lo's location.
// Instants outside the domain are not counted.
func CountRange(instants []time.Time, g Granularity, lo, hi time.Time) Series {
	if !g.IsCalendar() {
		return countSlots(instants, g)
	}
	if hi.Before(lo) {
		return Series{Granularity: g}
	}

	var starts []time.Time
	b := g.Floor(lo)
	for !b.After(hi) {
		starts = append(starts, b)
		b = g.next(b)
	}
	end := b

	counts := make([]int, len(starts))
	for _, t := range instants {
		if t.Before(starts[0]) || !t.Before(end) {
			continue
		}
		i := sort.Search(len(starts), func(i int) bool { return starts[i].After(t) }) - 1
		counts[i]++
	}

	points := make([]Point, len(starts))
	for i, s := range starts {
		points[i] = Point{Bucket: Bucket{Start: s}, Count: counts[i]}
	}
	return Series{Granularity: g, Points: points}
}

func countSlots(instants []time.Time, g Granularity) Series {
	points := make([]Point, g.domainSize())
	for i := range points {
		points[i].Bucket.Slot = i
	}
	for _, t := range instants {
		points[g.slot(t)].Count++
	}
	return Series{Granularity: g, Points: points}
}

// CountColumn counts the rows of t by the timestamp column col.
// Every other column is dropped first; unparseable timestamps are logged
// and excluded; instants are localized before bucketing.
func CountColumn(t *table.Table, col string, g Granularity, loc *Localizer, logger Logger) (Series, error) {
	values, err := t.Select(col).Column(col)
	if err != nil {
		return Series{}, fmt.Errorf("counting by %s: %w", col, err)
	}
	instants, _ := NormalizeColumn(values, logger)
	return Count(loc.Localize(instants), g), nil
}
