package stats

import (
	"fmt"
	"time"

	"dumpstats/internal/table"
)

// Display labels for the public/private visibility column.
const (
	LabelPrivate = "Private"
	LabelPublic  = "Public"
)

// SplitByCategory partitions the rows of t by the distinct values of catCol
// and counts each partition by timeCol at granularity g.
//
// Every series in the result shares the bucket domain of the whole table,
// so the series can be stacked against each other. Rows with unparseable
// timestamps are excluded from every series. Rows whose category is null
// or empty are dropped.
func SplitByCategory(t *table.Table, timeCol, catCol string, g Granularity, loc *Localizer, logger Logger) (CategorySeriesMap, error) {
	slim := t.Select(timeCol, catCol)
	if !slim.HasColumn(timeCol) {
		return nil, fmt.Errorf("splitting by %s: no column %q", catCol, timeCol)
	}
	if !slim.HasColumn(catCol) {
		return nil, fmt.Errorf("splitting by %s: no column %q", catCol, catCol)
	}

	times, _ := slim.Column(timeCol)
	cats, _ := slim.Column(catCol)

	instants, rows := NormalizeColumn(times, logger)
	instants = loc.Localize(instants)

	partitions := map[string][]time.Time{}
	var lo, hi time.Time
	dropped := 0
	for i, t := range instants {
		if i == 0 || t.Before(lo) {
			lo = t
		}
		if i == 0 || t.After(hi) {
			hi = t
		}

		key := cats[rows[i]].Key()
		if key == "" {
			dropped++
			continue
		}
		partitions[key] = append(partitions[key], t)
	}
	if dropped > 0 {
		logger.Debug("dropped rows without category", "column", catCol, "rows", dropped)
	}

	out := make(CategorySeriesMap, len(partitions))
	for key, part := range partitions {
		out[key] = CountRange(part, g, lo, hi)
	}

	logger.Debug("split finished", "column", catCol, "categories", len(out))
	return out, nil
}

// RelabelVisibility renames the "true" and "false" keys of a split on the
// private/public flag to LabelPrivate and LabelPublic.
func RelabelVisibility(m CategorySeriesMap) {
	if s, ok := m["true"]; ok {
		delete(m, "true")
		m[LabelPrivate] = s
	}
	if s, ok := m["false"]; ok {
		delete(m, "false")
		m[LabelPublic] = s
	}
}

// RenameKeys replaces keys found in lookup with their display names.
// If two ids share a display name their series are summed.
func RenameKeys(m CategorySeriesMap, lookup map[string]string) {
	for id, name := range lookup {
		s, ok := m[id]
		if !ok || id == name {
			continue
		}
		delete(m, id)
		if existing, ok := m[name]; ok {
			s = addSeries(existing, s)
		}
		m[name] = s
	}
}

// addSeries sums two series that share a domain.
func addSeries(a, b Series) Series {
	out := Series{Granularity: a.Granularity, Points: make([]Point, len(a.Points))}
	copy(out.Points, a.Points)
	for i := range out.Points {
		if i < len(b.Points) {
			out.Points[i].Count += b.Points[i].Count
		}
	}
	return out
}
