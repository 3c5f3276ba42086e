package stats_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"dumpstats/internal/stats"
	"dumpstats/internal/testutil"
)

func TestLocalizer(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	loc := stats.NewLocalizer("America/New_York", logger)

	if !loc.Resolved() {
		t.Fatal("Resolved() = false")
	}
	in := []time.Time{time.Date(2021, 1, 1, 3, 0, 0, 0, time.UTC)}
	out := loc.Localize(in)
	if out[0].Hour() != 22 || out[0].Day() != 31 {
		t.Errorf("Localize() = %v, want 2020-12-31 22:00 local", out[0])
	}
	if !out[0].Equal(in[0]) {
		t.Error("Localize() changed the instant")
	}
	if logger.Warnings() != 0 {
		t.Errorf("Warnings() = %d, want 0", logger.Warnings())
	}
}

func TestLocalizer_Fallback(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	loc := stats.NewLocalizer("Not/AZone", logger)

	in := []time.Time{
		time.Date(2021, 1, 1, 0, 10, 0, 0, time.UTC),
		time.Date(2021, 1, 3, 12, 0, 0, 0, time.UTC),
	}
	for range 3 {
		out := loc.Localize(in)
		for i := range in {
			if out[i] != in[i] {
				t.Errorf("Localize()[%d] = %v, want %v unchanged", i, out[i], in[i])
			}
		}
	}

	if loc.Resolved() {
		t.Error("Resolved() = true")
	}
	if loc.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", loc.Location())
	}
	if logger.Warnings() != 1 {
		t.Errorf("Warnings() = %d, want exactly 1\n%s", logger.Warnings(), logger)
	}
}

func TestLocalizer_Environment(t *testing.T) {
	tests := []struct {
		name         string
		tz           string
		wantName     string
		wantResolved bool
		wantWarnings int
	}{
		{name: "named zone", tz: "America/New_York", wantName: "America/New_York", wantResolved: true},
		{name: "leading colon", tz: ":Europe/Berlin", wantName: "Europe/Berlin", wantResolved: true},
		{name: "empty means UTC", tz: "", wantName: "UTC", wantResolved: true},
		{name: "unknown zone", tz: "Bogus/Zone", wantName: "Bogus/Zone", wantWarnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TZ", tt.tz)
			logger := testutil.NewRecordingLogger()

			loc := stats.NewLocalizer("", logger)

			if loc.Name() != tt.wantName || loc.Resolved() != tt.wantResolved {
				t.Errorf("NewLocalizer() = %q resolved=%v, want %q resolved=%v", loc.Name(), loc.Resolved(), tt.wantName, tt.wantResolved)
			}
			if logger.Warnings() != tt.wantWarnings {
				t.Errorf("Warnings() = %d, want %d\n%s", logger.Warnings(), tt.wantWarnings, logger)
			}
		})
	}
}

func TestLocalizer_ConfiguredZoneWinsOverEnvironment(t *testing.T) {
	t.Setenv("TZ", "Bogus/Zone")
	logger := testutil.NewRecordingLogger()

	loc := stats.NewLocalizer("Asia/Tokyo", logger)

	if loc.Name() != "Asia/Tokyo" || !loc.Resolved() || logger.Warnings() != 0 {
		t.Errorf("NewLocalizer() = %q resolved=%v warnings=%d", loc.Name(), loc.Resolved(), logger.Warnings())
	}
}
