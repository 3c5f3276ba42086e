package testutil

import (
	"fmt"
	"sync"
)

// LogRecord is one message captured by RecordingLogger.
type LogRecord struct {
	Level string
	Msg   string
	Args  []any
}

// RecordingLogger captures log calls so tests can assert on warnings.
// Safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	records []LogRecord
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, LogRecord{Level: level, Msg: msg, Args: args})
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }

// Records returns a copy of everything logged at level. An empty level
// returns all records.
func (l *RecordingLogger) Records(level string) []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogRecord
	for _, r := range l.records {
		if level == "" || r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Warnings returns the number of warnings logged.
func (l *RecordingLogger) Warnings() int {
	return len(l.Records("WARN"))
}

// String renders the records for test failure messages.
func (l *RecordingLogger) String() string {
	var s string
	for _, r := range l.Records("") {
		s += fmt.Sprintf("%s %s %v\n", r.Level, r.Msg, r.Args)
	}
	return s
}
