package stats

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Localizer converts UTC instants into the display timezone.
// The zone is resolved once, when the Localizer is created, and is
// read-only afterwards.
type Localizer struct {
	name string
	loc  *time.Location
}

// NewLocalizer resolves the named zone. An empty name means the zone in
// $TZ, or the system zone when $TZ is unset. If the zone cannot be
// resolved a single warning is logged and the Localizer falls back to
// leaving instants in UTC.
func NewLocalizer(name string, logger Logger) *Localizer {
	if name == "" {
		tz, ok := os.LookupEnv("TZ")
		tz = strings.TrimPrefix(tz, ":")
		if !ok || filepath.IsAbs(tz) {
			return &Localizer{name: time.Local.String(), loc: time.Local}
		}
		if tz == "" {
			return UTCLocalizer()
		}
		name = tz
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("timezone could not be resolved, using UTC", "timezone", name, "error", err)
		return &Localizer{name: name}
	}
	return &Localizer{name: name, loc: loc}
}

// UTCLocalizer returns a Localizer that keeps instants in UTC.
func UTCLocalizer() *Localizer {
	return &Localizer{name: "UTC", loc: time.UTC}
}

// Resolved reports whether the zone name was resolved.
func (l *Localizer) Resolved() bool {
	return l.loc != nil
}

// Name returns the zone name as given.
func (l *Localizer) Name() string {
	return l.name
}

// Location returns the display location, UTC if the zone was not resolved.
func (l *Localizer) Location() *time.Location {
	if l.loc == nil {
		return time.UTC
	}
	return l.loc
}

// Localize returns the instants expressed in the display zone.
// When the zone was not resolved the input slice is returned unchanged.
func (l *Localizer) Localize(instants []time.Time) []time.Time {
	if l.loc == nil {
		return instants
	}
	out := make([]time.Time, len(instants))
	for i, t := range instants {
		out[i] = t.In(l.loc)
	}
	return out
}

// In expresses a single instant in the display zone.
func (l *Localizer) In(t time.Time) time.Time {
	if l.loc == nil {
		return t
	}
	return t.In(l.loc)
}
