package stats_test

import (
	"testing"
	"time"

	"dumpstats/internal/stats"
	"dumpstats/internal/table"
	"dumpstats/internal/testutil"
)

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func timestampTable(ts ...string) *table.Table {
	tb := table.New("timestamp", "other")
	for _, s := range ts {
		tb.Append(table.String(s), table.Int(1))
	}
	return tb
}

func TestCount_Daily(t *testing.T) {
	tb := timestampTable("2021-01-01T00:10:00Z", "2021-01-01T23:50:00Z", "2021-01-03T12:00:00Z")

	s, err := stats.CountColumn(tb, "timestamp", stats.Day, stats.UTCLocalizer(), stats.NewNopLogger())
	if err != nil {
		t.Fatalf("CountColumn() error = %v", err)
	}

	wantDays := []string{"2021-01-01", "2021-01-02", "2021-01-03"}
	wantCounts := []int{2, 0, 1}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for i := range wantDays {
		if s.Label(i) != wantDays[i] || s.Points[i].Count != wantCounts[i] {
			t.Errorf("point %d = (%s, %d), want (%s, %d)", i, s.Label(i), s.Points[i].Count, wantDays[i], wantCounts[i])
		}
	}
}

func TestCount_HourOfDay(t *testing.T) {
	instants := []time.Time{
		utc("2021-01-01T03:05:00Z"),
		utc("2021-01-05T03:59:00Z"),
		utc("2021-02-11T09:30:00Z"),
	}

	s := stats.Count(instants, stats.HourOfDay)

	if s.Len() != 24 {
		t.Fatalf("Len() = %d, want 24", s.Len())
	}
	for h, p := range s.Points {
		want := 0
		switch h {
		case 3:
			want = 2
		case 9:
			want = 1
		}
		if p.Bucket.Slot != h || p.Count != want {
			t.Errorf("bucket %d = slot %d count %d, want count %d", h, p.Bucket.Slot, p.Count, want)
		}
	}
	if s.Label(9) != "9:00" {
		t.Errorf("Label(9) = %q", s.Label(9))
	}
}

func TestCount_DayOfWeek(t *testing.T) {
	// 2021-01-04 is a Monday, 2021-01-10 a Sunday.
	s := stats.Count([]time.Time{utc("2021-01-04T12:00:00Z"), utc("2021-01-10T12:00:00Z")}, stats.DayOfWeek)

	if s.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", s.Len())
	}
	if s.Points[0].Count != 1 || s.Points[6].Count != 1 || s.Total() != 2 {
		t.Errorf("counts = %v", s.Counts())
	}
	if s.Label(0) != "Monday" || s.Label(6) != "Sunday" {
		t.Errorf("labels = %q, %q", s.Label(0), s.Label(6))
	}
}

func TestCount_Empty(t *testing.T) {
	tests := []struct {
		name string
		g    stats.Granularity
		want int
	}{
		{name: "day", g: stats.Day, want: 0},
		{name: "hour", g: stats.Hour, want: 0},
		{name: "hour of day", g: stats.HourOfDay, want: 24},
		{name: "day of week", g: stats.DayOfWeek, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stats.Count(nil, tt.g)
			if s.Len() != tt.want || s.Total() != 0 {
				t.Errorf("Count(nil) = %d buckets, total %d; want %d, 0", s.Len(), s.Total(), tt.want)
			}
		})
	}
}

func TestCount_DensityAndConservation(t *testing.T) {
	instants := []time.Time{
		utc("2021-03-01T00:00:00Z"),
		utc("2021-03-01T05:59:59Z"),
		utc("2021-03-04T17:30:00Z"),
		utc("2021-03-09T23:00:00Z"),
		utc("2021-02-27T08:00:00Z"),
	}
	six, err := stats.Resample(6 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	for _, g := range []stats.Granularity{stats.Hour, six, stats.Day, stats.Week, stats.HourOfDay, stats.DayOfWeek} {
		t.Run(g.String(), func(t *testing.T) {
			s := stats.Count(instants, g)

			if s.Total() != len(instants) {
				t.Errorf("Total() = %d, want %d", s.Total(), len(instants))
			}
			if !g.IsCalendar() {
				return
			}

			first := g.Floor(utc("2021-02-27T08:00:00Z"))
			last := g.Floor(utc("2021-03-09T23:00:00Z"))
			if !s.Points[0].Bucket.Start.Equal(first) || !s.Points[s.Len()-1].Bucket.Start.Equal(last) {
				t.Errorf("domain = %v..%v, want %v..%v", s.Points[0].Bucket.Start, s.Points[s.Len()-1].Bucket.Start, first, last)
			}
			for i := 1; i < s.Len(); i++ {
				if gap := s.Points[i].Bucket.Start.Sub(s.Points[i-1].Bucket.Start); gap != g.Width() {
					t.Fatalf("gap between buckets %d and %d = %v, want %v", i-1, i, gap, g.Width())
				}
			}
		})
	}
}

func TestCount_WeekStartsMonday(t *testing.T) {
	// Sunday 2021-01-03 belongs to the week of Monday 2020-12-28.
	s := stats.Count([]time.Time{utc("2021-01-03T12:00:00Z"), utc("2021-01-04T00:00:00Z")}, stats.Week)

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if got := s.Points[0].Bucket.Start; !got.Equal(utc("2020-12-28T00:00:00Z")) {
		t.Errorf("first week = %v, want 2020-12-28", got)
	}
}

func TestCount_DaysAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("no tzdata")
	}
	// Clocks move forward on 2021-03-14.
	instants := []time.Time{
		time.Date(2021, 3, 13, 12, 0, 0, 0, ny),
		time.Date(2021, 3, 15, 12, 0, 0, 0, ny),
	}

	s := stats.Count(instants, stats.Day)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for i, p := range s.Points {
		if h, m := p.Bucket.Start.Hour(), p.Bucket.Start.Minute(); h != 0 || m != 0 {
			t.Errorf("bucket %d starts at %v, want local midnight", i, p.Bucket.Start)
		}
	}
	if s.Label(1) != "2021-03-14" {
		t.Errorf("Label(1) = %q", s.Label(1))
	}
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("no tzdata")
	}
	return ny
}

func assertIncreasing(t *testing.T, s stats.Series) {
	t.Helper()
	for i := 1; i < s.Len(); i++ {
		if !s.Points[i].Bucket.Start.After(s.Points[i-1].Bucket.Start) {
			t.Fatalf("bucket %d (%v) does not follow bucket %d (%v)", i, s.Points[i].Bucket.Start, i-1, s.Points[i-1].Bucket.Start)
		}
	}
}

func TestCount_SubDayAcrossDST(t *testing.T) {
	ny := newYork(t)
	ten, err := stats.Resample(10 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		instants   []string
		g          stats.Granularity
		wantStarts []string
		wantCounts []int
	}{
		{
			// 01:30 EST, then 03:30 EDT; 02:00 local never happens.
			name:       "spring forward hourly",
			instants:   []string{"2021-03-14T06:30:00Z", "2021-03-14T07:30:00Z"},
			g:          stats.Hour,
			wantStarts: []string{"2021-03-14T06:00:00Z", "2021-03-14T07:00:00Z"},
			wantCounts: []int{1, 1},
		},
		{
			// 01:30 EDT, then 01:30 EST; 01:00 local happens twice.
			name:       "fall back hourly",
			instants:   []string{"2021-11-07T05:30:00Z", "2021-11-07T06:30:00Z"},
			g:          stats.Hour,
			wantStarts: []string{"2021-11-07T05:00:00Z", "2021-11-07T06:00:00Z"},
			wantCounts: []int{1, 1},
		},
		{
			// 01:50 EDT, then 01:10 EST: the later instant reads earlier.
			name:       "fall back ten minutes",
			instants:   []string{"2021-11-07T05:50:00Z", "2021-11-07T06:10:00Z"},
			g:          ten,
			wantStarts: []string{"2021-11-07T05:50:00Z", "2021-11-07T06:00:00Z", "2021-11-07T06:10:00Z"},
			wantCounts: []int{1, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instants := make([]time.Time, len(tt.instants))
			for i, s := range tt.instants {
				instants[i] = utc(s).In(ny)
			}

			s := stats.Count(instants, tt.g)

			assertIncreasing(t, s)
			if s.Len() != len(tt.wantStarts) {
				t.Fatalf("Len() = %d, want %d", s.Len(), len(tt.wantStarts))
			}
			for i, p := range s.Points {
				if !p.Bucket.Start.Equal(utc(tt.wantStarts[i])) || p.Count != tt.wantCounts[i] {
					t.Errorf("bucket %d = %v (%d), want %s (%d)", i, p.Bucket.Start, p.Count, tt.wantStarts[i], tt.wantCounts[i])
				}
			}
		})
	}
}

func TestCountRange_MixedLocations(t *testing.T) {
	ny := newYork(t)
	lo := utc("2021-01-01T12:00:00Z")        // 12:00 on the UTC wall
	hi := utc("2021-01-01T14:30:00Z").In(ny) // later, but 09:30 on the local wall

	s := stats.CountRange([]time.Time{lo, hi}, stats.Hour, lo, hi)

	assertIncreasing(t, s)
	if s.Len() != 3 || s.Total() != 2 {
		t.Fatalf("Len() = %d Total() = %d, want 3 and 2", s.Len(), s.Total())
	}
	if loc := s.Points[0].Bucket.Start.Location(); loc != time.UTC {
		t.Errorf("bucket location = %v, want UTC", loc)
	}

	if s := stats.CountRange([]time.Time{lo}, stats.Hour, hi, lo); s.Len() != 0 {
		t.Errorf("reversed range Len() = %d, want 0", s.Len())
	}
}

func TestCountColumn_SkipsUnparseable(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	tb := timestampTable("2021-01-01T00:10:00Z", "garbage", "2021-01-01T08:00:00Z")

	s, err := stats.CountColumn(tb, "timestamp", stats.Day, stats.UTCLocalizer(), logger)
	if err != nil {
		t.Fatalf("CountColumn() error = %v", err)
	}
	if s.Total() != 2 {
		t.Errorf("Total() = %d, want 2", s.Total())
	}
	if logger.Warnings() != 1 {
		t.Errorf("Warnings() = %d, want 1", logger.Warnings())
	}

	if _, err := stats.CountColumn(tb, "missing", stats.Day, stats.UTCLocalizer(), logger); err == nil {
		t.Error("CountColumn() expected error for missing column")
	}
}

func TestCountColumn_Localized(t *testing.T) {
	tb := timestampTable("2021-01-01T03:00:00Z")
	loc := stats.NewLocalizer("America/New_York", stats.NewNopLogger())
	if !loc.Resolved() {
		t.Skip("no tzdata")
	}

	s, err := stats.CountColumn(tb, "timestamp", stats.Day, loc, stats.NewNopLogger())
	if err != nil {
		t.Fatalf("CountColumn() error = %v", err)
	}
	if s.Label(0) != "2020-12-31" {
		t.Errorf("Label(0) = %q, want the local day", s.Label(0))
	}
}
