package stats

import (
	"fmt"
	"time"
)

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Bucket is a grouping key. Calendar buckets set Start; fixed-domain
// buckets set Slot (hour 0-23, or weekday Monday=0 through Sunday=6).
type Bucket struct {
	Start time.Time
	Slot  int
}

// Point is one (bucket, count) pair of a Series.
type Point struct {
	Bucket Bucket
	Count  int
}

// Series is a dense, ascending sequence of bucket counts.
type Series struct {
	Granularity Granularity
	Points      []Point
}

// CategorySeriesMap maps a category value to its own Series.
// All series in one map share the same bucket domain.
type CategorySeriesMap map[string]Series

// Len returns the number of buckets.
func (s Series) Len() int {
	return len(s.Points)
}

// Total returns the sum of all counts.
func (s Series) Total() int {
	total := 0
	for _, p := range s.Points {
		total += p.Count
	}
	return total
}

// Counts returns the counts in bucket order.
func (s Series) Counts() []int {
	out := make([]int, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Count
	}
	return out
}

// Starts returns the bucket start times of a calendar series.
func (s Series) Starts() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Bucket.Start
	}
	return out
}

// Label renders the bucket of point i for display.
func (s Series) Label(i int) string {
	b := s.Points[i].Bucket
	switch s.Granularity.kind {
	case kindHourOfDay:
		return fmt.Sprintf("%d:00", b.Slot)
	case kindDayOfWeek:
		return weekdayNames[b.Slot]
	}
	if s.Granularity.width%(24*time.Hour) == 0 {
		return b.Start.Format("2006-01-02")
	}
	return b.Start.Format("2006-01-02 15:04")
}
