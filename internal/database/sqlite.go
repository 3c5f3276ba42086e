package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dumpstats/internal/cache"
	"dumpstats/internal/database/migrations"
	"dumpstats/internal/stats"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase holds the cache index and the run history.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path and migrates it to the
// latest schema. path can be a file path or ":memory:".
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	if err := migrations.Check(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking schema of %s: %w", path, err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and SQLite has
	// a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Cache index

const entryColumns = `seq, digest, key, artifact, row_count, size, compressed, encrypted, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*cache.Entry, error) {
	var e cache.Entry
	if err := row.Scan(&e.Seq, &e.Digest, &e.Key, &e.Artifact, &e.Rows, &e.Size, &e.Compressed, &e.Encrypted, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteDatabase) Lookup(digest string) (*cache.Entry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM cache_entries WHERE digest = ?`, digest)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("looking up cache entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteDatabase) Put(e cache.Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET
			seq = excluded.seq,
			key = excluded.key,
			artifact = excluded.artifact,
			row_count = excluded.row_count,
			size = excluded.size,
			compressed = excluded.compressed,
			encrypted = excluded.encrypted,
			created_at = excluded.created_at`,
		e.Seq, e.Digest, e.Key, e.Artifact, e.Rows, e.Size, e.Compressed, e.Encrypted, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) NextSeq() (int64, error) {
	var next int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(seq) + 1, 0) FROM cache_entries`).Scan(&next); err != nil {
		return 0, fmt.Errorf("reading next sequence: %w", err)
	}
	return next, nil
}

func (s *SQLiteDatabase) List() ([]*cache.Entry, error) {
	rows, err := s.db.Query(`SELECT ` + entryColumns + ` FROM cache_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	var out []*cache.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	return out, nil
}

func (s *SQLiteDatabase) Delete(digest string) error {
	if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE digest = ?`, digest); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// Run history

func (s *SQLiteDatabase) CreateRun(runID, operation, parameters string, startedAt time.Time) (*stats.Run, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (run_id, operation, parameters, started_at, status)
		VALUES (?, ?, ?, ?, ?)`,
		runID, operation, parameters, startedAt.UTC(), "running")
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}
	return &stats.Run{
		ID:         id,
		RunID:      runID,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     "running",
	}, nil
}

func (s *SQLiteDatabase) FinishRun(id int64, status string, finishedAt time.Time) error {
	res, err := s.db.Exec(`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`, status, finishedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing run: no run with id %d", id)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit below 1 returns
// every run.
func (s *SQLiteDatabase) ListRuns(limit int) ([]*stats.Run, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, run_id, operation, parameters, started_at, finished_at, status
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*stats.Run
	for rows.Next() {
		var r stats.Run
		if err := rows.Scan(&r.ID, &r.RunID, &r.Operation, &r.Parameters, &r.StartedAt, &r.FinishedAt, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return out, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var (
	_ cache.Index    = (*SQLiteDatabase)(nil)
	_ stats.RunStore = (*SQLiteDatabase)(nil)
)
