package stats

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptySeries is returned when an operation needs at least one bucket.
var ErrEmptySeries = errors.New("series has no buckets")

// Heatmap is an hour-of-day by calendar-day matrix of counts.
// Rows[h][d] is the count for hour h of Days[d].
type Heatmap struct {
	Days []time.Time
	Rows [24][]int
}

// BuildHeatmap reshapes an hourly series into a Heatmap. The series is
// padded with zeros from midnight of its first day through 23:00 of its
// last day, then cut into one 24-hour column per day.
func BuildHeatmap(hourly Series) (*Heatmap, error) {
	if hourly.Granularity.kind != kindResample || hourly.Granularity.width != time.Hour {
		return nil, fmt.Errorf("heatmap needs an hourly series, got %s", hourly.Granularity)
	}
	if len(hourly.Points) == 0 {
		return nil, ErrEmptySeries
	}

	byHour := make(map[time.Time]int, len(hourly.Points))
	for _, p := range hourly.Points {
		byHour[Hour.floorWall(p.Bucket.Start)] += p.Count
	}

	loc := hourly.Points[0].Bucket.Start.Location()
	firstDay := Day.floorWall(hourly.Points[0].Bucket.Start)
	lastDay := Day.floorWall(hourly.Points[len(hourly.Points)-1].Bucket.Start)
	days := int(lastDay.Sub(firstDay)/Day.width) + 1

	hm := &Heatmap{Days: make([]time.Time, days)}
	for h := range hm.Rows {
		hm.Rows[h] = make([]int, days)
	}

	for d := 0; d < days; d++ {
		day := firstDay.Add(time.Duration(d) * Day.width)
		hm.Days[d] = unwall(day, loc)
		for h := 0; h < 24; h++ {
			hm.Rows[h][d] = byHour[day.Add(time.Duration(h)*time.Hour)]
		}
	}
	return hm, nil
}

// Total returns the sum of all cells.
func (h *Heatmap) Total() int {
	total := 0
	for _, row := range h.Rows {
		for _, c := range row {
			total += c
		}
	}
	return total
}
