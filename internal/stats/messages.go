package stats

import (
	"fmt"

	"dumpstats/internal/source"
	"dumpstats/internal/table"
)

// LoadMessages reads every channel's messages table, keeping only the
// timestamp and contents columns, and applies the date filter.
func (s *Service) LoadMessages(root string, filter DateFilter) (*table.Table, Range, error) {
	files, err := s.finder.MessageFiles(root)
	if err != nil {
		return nil, Range{}, fmt.Errorf("finding message files: %w", err)
	}
	if len(files) == 0 {
		return nil, Range{}, fmt.Errorf("%s is not a readable dump: messages: %w", root, ErrNoFiles)
	}

	t, err := s.loadFiles(source.ReadCSV, files, []string{ColMessageTimestamp, ColMessageContents})
	if err != nil {
		return nil, Range{}, err
	}
	s.logger.Info("messages loaded", "channels", len(files), "rows", t.Len())

	filtered, r, err := filter.Apply(t, ColMessageTimestamp, s.loc, s.logger)
	if err != nil {
		return nil, Range{}, fmt.Errorf("filtering messages: %w", err)
	}
	return filtered, r, nil
}

// CountMessages counts a messages table at granularity g.
func (s *Service) CountMessages(t *table.Table, g Granularity) (Series, error) {
	return CountColumn(t, ColMessageTimestamp, g, s.loc, s.logger)
}

// RankWords counts the words of a messages table.
func (s *Service) RankWords(t *table.Table) ([]WordCount, error) {
	contents, err := t.Column(ColMessageContents)
	if err != nil {
		return nil, fmt.Errorf("ranking words: %w", err)
	}
	return CountWords(contents), nil
}

// MessageSummary is the messages table counted three ways.
type MessageSummary struct {
	Range      Range
	Total      int
	Series     Series // at the requested granularity
	PerHour    Series // hour of day
	PerWeekday Series // day of week
}

// SummarizeMessages counts a filtered messages table at g, per hour of
// day and per day of week.
func (s *Service) SummarizeMessages(t *table.Table, r Range, g Granularity) (*MessageSummary, error) {
	series, err := s.CountMessages(t, g)
	if err != nil {
		return nil, err
	}
	perHour, err := s.CountMessages(t, HourOfDay)
	if err != nil {
		return nil, err
	}
	perWeekday, err := s.CountMessages(t, DayOfWeek)
	if err != nil {
		return nil, err
	}
	return &MessageSummary{
		Range:      r,
		Total:      series.Total(),
		Series:     series,
		PerHour:    perHour,
		PerWeekday: perWeekday,
	}, nil
}
