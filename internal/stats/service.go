package stats

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dumpstats/internal/source"
	"dumpstats/internal/table"
)

// Column names used by the chat-export dump.
const (
	ColTimestamp        = "timestamp"
	ColMessageTimestamp = "Timestamp"
	ColMessageContents  = "Contents"
	ColPrivate          = "private"
	ColGuildID          = "guild_id"
)

// DefaultColumns are the activity attributes tracked when none are configured.
var DefaultColumns = []string{"city", "ip", "os", "release_channel", "guild_id", "event_type", "private"}

// ErrNoFiles is returned when a dump directory holds nothing to aggregate.
var ErrNoFiles = errors.New("no matching files")

// Service is the orchestration layer that loads dump files through the
// source cache and turns them into series for the CLI.
type Service struct {
	cache   SourceCache
	finder  DumpFinder
	loc     *Localizer
	logger  Logger
	runs    RunStore
	workers int
}

// NewService creates a Service. workers bounds the per-column fan-out of
// CategorySeries; values below 1 mean runtime.NumCPU().
func NewService(cache SourceCache, finder DumpFinder, loc *Localizer, logger Logger, runs RunStore, workers int) *Service {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Service{
		cache:   cache,
		finder:  finder,
		loc:     loc,
		logger:  logger,
		runs:    runs,
		workers: workers,
	}
}

// Localizer returns the display-zone localizer the service buckets in.
func (s *Service) Localizer() *Localizer {
	return s.loc
}

// Servers reads the guild id to display name index of the dump.
func (s *Service) Servers(root string) (map[string]string, error) {
	return source.ReadServerIndex(s.finder.ServerIndex(root))
}

// loadFiles reads every file through the cache, keeping only cols, and
// concatenates the results.
func (s *Service) loadFiles(read table.ReadFunc, files []string, cols []string) (*table.Table, error) {
	tables := make([]*table.Table, 0, len(files))
	for _, f := range files {
		t, err := s.cache.Fetch(read, f, source.Columns(cols...))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
		tables = append(tables, t.Select(cols...))
		s.logger.Debug("file loaded", "path", f, "rows", t.Len())
	}
	return table.Concat(tables...), nil
}

// loadActivityType loads every file of one event type.
func (s *Service) loadActivityType(root, eventType string, cols []string) (*table.Table, error) {
	files, err := s.finder.ActivityFiles(root, eventType)
	if err != nil {
		return nil, fmt.Errorf("finding %s files: %w", eventType, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("activity/%s: %w", eventType, ErrNoFiles)
	}
	return s.loadFiles(source.ReadJSONLines, files, cols)
}

// CountActivity returns one series of event counts per event type.
func (s *Service) CountActivity(root string, g Granularity) (map[string]Series, error) {
	types, err := s.finder.ActivityTypes(root)
	if err != nil {
		return nil, fmt.Errorf("listing activity types: %w", err)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("activity: %w", ErrNoFiles)
	}

	out := make(map[string]Series, len(types))
	for _, et := range types {
		t, err := s.loadActivityType(root, et, []string{ColTimestamp})
		if err != nil {
			return nil, err
		}
		series, err := CountColumn(t, ColTimestamp, g, s.loc, s.logger)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", et, err)
		}
		out[et] = series
		s.logger.Info("activity counted", "event_type", et, "events", series.Total())
	}
	return out, nil
}

// CategorySeries splits every activity event by each tracked column.
// All event types are concatenated first so values are compared across
// types. Columns are split concurrently. The private column is relabeled
// Private/Public and guild ids are replaced by the names in servers.
func (s *Service) CategorySeries(root string, cols []string, g Granularity, servers map[string]string) (map[string]CategorySeriesMap, error) {
	if len(cols) == 0 {
		cols = DefaultColumns
	}

	types, err := s.finder.ActivityTypes(root)
	if err != nil {
		return nil, fmt.Errorf("listing activity types: %w", err)
	}

	var files []string
	for _, et := range types {
		f, err := s.finder.ActivityFiles(root, et)
		if err != nil {
			return nil, fmt.Errorf("finding %s files: %w", et, err)
		}
		files = append(files, f...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("activity: %w", ErrNoFiles)
	}

	keep := append([]string{ColTimestamp}, cols...)
	all, err := s.loadFiles(source.ReadJSONLines, files, keep)
	if err != nil {
		return nil, err
	}
	s.logger.Info("activity loaded", "files", len(files), "rows", all.Len())

	results := make([]CategorySeriesMap, len(cols))
	eg := new(errgroup.Group)
	eg.SetLimit(s.workers)
	for i, col := range cols {
		part := all.Select(ColTimestamp, col)
		eg.Go(func() error {
			m, err := SplitByCategory(part, ColTimestamp, col, g, s.loc, s.logger)
			if err != nil {
				return err
			}
			results[i] = m
			s.logger.Debug("column series finished", "column", col)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("splitting activity: %w", err)
	}

	out := make(map[string]CategorySeriesMap, len(cols))
	for i, col := range cols {
		out[col] = results[i]
	}
	if m, ok := out[ColPrivate]; ok {
		RelabelVisibility(m)
	}
	if m, ok := out[ColGuildID]; ok && len(servers) > 0 {
		RenameKeys(m, servers)
	}
	return out, nil
}

// ActivityHeatmap builds the hour-by-day heatmap of analytics events,
// falling back to the reporting events of older dumps.
func (s *Service) ActivityHeatmap(root string) (*Heatmap, error) {
	t, err := s.loadActivityType(root, "analytics", []string{ColTimestamp})
	if errors.Is(err, ErrNoFiles) {
		t, err = s.loadActivityType(root, "reporting", []string{ColTimestamp})
	}
	if err != nil {
		return nil, err
	}

	hourly, err := CountColumn(t, ColTimestamp, Hour, s.loc, s.logger)
	if err != nil {
		return nil, err
	}
	return BuildHeatmap(hourly)
}
