package cache

import "time"

// Entry is one row of the cache index: a parsed table persisted as an
// artifact.
type Entry struct {
	Seq        int64
	Digest     string // SHA-256 hex of Key
	Key        string
	Artifact   string
	Rows       int
	Size       int64
	Compressed bool
	Encrypted  bool
	CreatedAt  time.Time
}

// Index maps cache keys to artifacts.
type Index interface {
	// Lookup returns the entry for digest, or nil if there is none.
	Lookup(digest string) (*Entry, error)

	// Put inserts or replaces the entry for e.Digest.
	Put(e Entry) error

	// NextSeq returns a sequence number no existing entry uses.
	NextSeq() (int64, error)

	// List returns all entries ordered by sequence.
	List() ([]*Entry, error)

	// Delete removes the entry for digest if present.
	Delete(digest string) error
}
