package database

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dumpstats/internal/cache"
)

// newTestDB creates a new migrated in-memory database.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testEntry(seq int64, digest string) cache.Entry {
	return cache.Entry{
		Seq:        seq,
		Digest:     digest,
		Key:        `{"params":{},"path":"/dump/` + digest + `"}`,
		Artifact:   cache.ArtifactName(seq),
		Rows:       10,
		Size:       512,
		Compressed: true,
		CreatedAt:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestSQLiteDatabase_Lookup(t *testing.T) {
	t.Run("returns nil when entry not found", func(t *testing.T) {
		db := newTestDB(t)

		e, err := db.Lookup("missing")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if e != nil {
			t.Errorf("Lookup() = %+v, want nil", e)
		}
	})

	t.Run("finds stored entry", func(t *testing.T) {
		db := newTestDB(t)
		want := testEntry(0, "abc")

		if err := db.Put(want); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, err := db.Lookup("abc")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if got == nil {
			t.Fatal("Lookup() returned nil, want entry")
		}
		if got.Seq != want.Seq || got.Key != want.Key || got.Artifact != want.Artifact {
			t.Errorf("Lookup() = %+v, want %+v", got, want)
		}
		if got.Rows != 10 || got.Size != 512 || !got.Compressed || got.Encrypted {
			t.Errorf("Lookup() = %+v, want rows=10 size=512 compressed", got)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}
	})
}

func TestSQLiteDatabase_Put_Upsert(t *testing.T) {
	db := newTestDB(t)

	if err := db.Put(testEntry(3, "abc")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	updated := testEntry(3, "abc")
	updated.Rows = 99
	updated.Encrypted = true
	if err := db.Put(updated); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	entries, err := db.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(List()) = %d, want 1", len(entries))
	}
	if entries[0].Rows != 99 || !entries[0].Encrypted {
		t.Errorf("entry = %+v, want updated row", entries[0])
	}
}

func TestSQLiteDatabase_NextSeq(t *testing.T) {
	db := newTestDB(t)

	next, err := db.NextSeq()
	if err != nil {
		t.Fatalf("NextSeq() error = %v", err)
	}
	if next != 0 {
		t.Errorf("NextSeq() on empty index = %d, want 0", next)
	}

	for _, e := range []cache.Entry{testEntry(0, "a"), testEntry(1, "b"), testEntry(2, "c")} {
		if err := db.Put(e); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	if err := db.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// A count would give 2 here and collide with "c".
	next, err = db.NextSeq()
	if err != nil {
		t.Fatalf("NextSeq() error = %v", err)
	}
	if next != 3 {
		t.Errorf("NextSeq() = %d, want 3", next)
	}
}

func TestSQLiteDatabase_ListAndDelete(t *testing.T) {
	db := newTestDB(t)

	for _, e := range []cache.Entry{testEntry(2, "c"), testEntry(0, "a"), testEntry(1, "b")} {
		if err := db.Put(e); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	entries, err := db.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var digests []string
	for _, e := range entries {
		digests = append(digests, e.Digest)
	}
	if got := len(digests); got != 3 || digests[0] != "a" || digests[2] != "c" {
		t.Errorf("List() digests = %v, want [a b c]", digests)
	}

	if err := db.Delete("b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := db.Delete("not-there"); err != nil {
		t.Errorf("Delete() of missing digest error = %v", err)
	}

	entries, err = db.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(List()) = %d, want 2", len(entries))
	}
}

func TestSQLiteDatabase_Runs(t *testing.T) {
	db := newTestDB(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	first, err := db.CreateRun("id-1", "words", "/dump", start)
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	second, err := db.CreateRun("id-2", "heatmap", "/dump", start.Add(time.Minute))
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("run IDs %d, %d not increasing", first.ID, second.ID)
	}

	if err := db.FinishRun(first.ID, "success", start.Add(2*time.Second)); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(ListRuns()) = %d, want 2", len(runs))
	}

	// Newest first.
	if runs[0].RunID != "id-2" || runs[0].Status != "running" || runs[0].FinishedAt.Valid {
		t.Errorf("runs[0] = %+v, want unfinished id-2", runs[0])
	}
	if runs[1].Operation != "words" || runs[1].Status != "success" {
		t.Errorf("runs[1] = %+v, want finished words run", runs[1])
	}
	if !runs[1].FinishedAt.Valid || !runs[1].FinishedAt.Time.Equal(start.Add(2*time.Second)) {
		t.Errorf("runs[1].FinishedAt = %v", runs[1].FinishedAt)
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(ListRuns(1)) = %d, want 1", len(limited))
	}

	if err := db.FinishRun(999, "error", start); err == nil {
		t.Error("FinishRun() of unknown id expected error")
	}
}

func TestNewSQLiteDatabase_Persistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), IndexFileName)

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	if err := db.Put(testEntry(0, "abc")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	db.Close()

	reopened, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("reopening error = %v", err)
	}
	defer reopened.Close()

	e, err := reopened.Lookup("abc")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if e == nil {
		t.Error("entry lost after reopening")
	}
}

func TestNewSQLiteDatabase_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), IndexFileName)
	if err := os.WriteFile(path, bytes.Repeat([]byte("not a database\n"), 300), 0644); err != nil {
		t.Fatal(err)
	}

	db, err := NewSQLiteDatabase(path)
	if err == nil {
		db.Close()
		t.Fatal("NewSQLiteDatabase() expected error for corrupt index")
	}
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newTestDB(t)
	if err := db.Put(testEntry(0, "abc")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	backup, err := NewSQLiteDatabase(dest)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	if e, err := backup.Lookup("abc"); err != nil || e == nil {
		t.Errorf("backup Lookup() = %v, %v; want entry", e, err)
	}
}
