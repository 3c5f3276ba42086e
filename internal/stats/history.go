package stats

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded CLI invocation.
type Run struct {
	ID         int64
	RunID      string
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
}

// RunStore persists the run history.
type RunStore interface {
	CreateRun(runID, operation, parameters string, startedAt time.Time) (*Run, error)
	FinishRun(id int64, status string, finishedAt time.Time) error
	ListRuns(limit int) ([]*Run, error)
}

// GetHistory returns the most recent runs, newest first.
func (s *Service) GetHistory(limit int) ([]*Run, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("no run store configured")
	}
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
