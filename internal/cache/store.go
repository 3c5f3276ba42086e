package cache

import "io"

// ArtifactStore holds the persisted table artifacts of the cache.
type ArtifactStore interface {
	// Put stores an artifact under name, replacing any previous one.
	// size is the number of bytes that will be read from r.
	Put(name string, r io.Reader, size int64) error

	// Get retrieves the artifact and writes it to w.
	// Returns an error wrapping ErrArtifactNotFound if it does not exist.
	Get(name string, w io.Writer) error

	// Exists reports whether the artifact is present.
	Exists(name string) (bool, error)

	// Remove deletes the artifact. Removing a missing artifact is not an error.
	Remove(name string) error

	// List returns the names of all stored artifacts.
	List() ([]string, error)
}
