package cache

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"dumpstats/internal/stats"
	"dumpstats/internal/table"
)

// SourceCache persists parsed tables so a dump file is only parsed once
// per (path, params) pair.
//
// A SourceCache is safe for concurrent use by goroutines of one process.
// Two processes sharing a cache directory are not supported.
type SourceCache struct {
	mu       sync.Mutex
	index    Index
	store    ArtifactStore
	cipher   Cipher
	compress bool
	clock    stats.Clock
	logger   stats.Logger
}

// NewSourceCache creates a cache over index and store. cipher may be nil,
// in which case artifacts are stored unencrypted.
func NewSourceCache(index Index, store ArtifactStore, cipher Cipher, compress bool, clock stats.Clock, logger stats.Logger) *SourceCache {
	return &SourceCache{
		index:    index,
		store:    store,
		cipher:   cipher,
		compress: compress,
		clock:    clock,
		logger:   logger,
	}
}

// Fetch returns the table for (path, params), calling read only when no
// usable artifact exists. On a miss the artifact is written before the
// index row, so an interrupted write leaves an orphan artifact rather than
// an index row pointing at nothing.
func (c *SourceCache) Fetch(read table.ReadFunc, path string, params table.Params) (*table.Table, error) {
	key, digest, err := Key(path, params)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.index.Lookup(digest)
	if err != nil {
		return nil, fmt.Errorf("reading cache index: %w", err)
	}

	if entry != nil {
		t, err := c.load(entry)
		if err == nil {
			c.logger.Debug("cache hit", "path", path, "artifact", entry.Artifact)
			return t, nil
		}
		if !errors.Is(err, ErrArtifactNotFound) && !errors.Is(err, errUnreadable) {
			return nil, err
		}
		c.logger.Warn("cache entry unusable, regenerating", "path", path, "artifact", entry.Artifact, "error", err)
	}

	t, err := read(path, params)
	if err != nil {
		return nil, err
	}

	if err := c.save(key, digest, entry, t); err != nil {
		return nil, err
	}
	return t, nil
}

// errUnreadable marks an artifact that exists but cannot be used with the
// current configuration.
var errUnreadable = errors.New("artifact unreadable")

func (c *SourceCache) load(e *Entry) (*table.Table, error) {
	if e.Encrypted && c.cipher == nil {
		return nil, fmt.Errorf("%w: %s is encrypted and no key is configured", errUnreadable, e.Artifact)
	}

	var buf bytes.Buffer
	if err := c.store.Get(e.Artifact, &buf); err != nil {
		return nil, err
	}

	var cipher Cipher
	if e.Encrypted {
		cipher = c.cipher
	}
	t, err := decodeTable(buf.Bytes(), e.Compressed, cipher)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errUnreadable, e.Artifact, err)
	}
	return t, nil
}

// save writes t as an artifact and points the index at it. A previous
// entry keeps its artifact name; new entries get the next sequence number.
func (c *SourceCache) save(key, digest string, prev *Entry, t *table.Table) error {
	data, err := encodeTable(t, c.compress, c.cipher)
	if err != nil {
		return err
	}

	e := Entry{
		Digest:     digest,
		Key:        key,
		Rows:       t.Len(),
		Size:       int64(len(data)),
		Compressed: c.compress,
		Encrypted:  c.cipher != nil,
		CreatedAt:  c.clock.Now(),
	}
	if prev != nil {
		e.Seq = prev.Seq
		e.Artifact = prev.Artifact
	} else {
		seq, err := c.index.NextSeq()
		if err != nil {
			return fmt.Errorf("reading cache index: %w", err)
		}
		e.Seq = seq
		e.Artifact = ArtifactName(seq)
	}

	if err := c.store.Put(e.Artifact, bytes.NewReader(data), e.Size); err != nil {
		return fmt.Errorf("writing artifact %s: %w", e.Artifact, err)
	}
	if err := c.index.Put(e); err != nil {
		return fmt.Errorf("updating cache index: %w", err)
	}

	c.logger.Debug("cache stored", "artifact", e.Artifact, "rows", e.Rows, "bytes", e.Size)
	return nil
}

// ArtifactName returns the artifact file name for a sequence number.
func ArtifactName(seq int64) string {
	return strconv.FormatInt(seq, 10) + artifactExt
}

// Entries lists the index entries.
func (c *SourceCache) Entries() ([]*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.index.List()
	if err != nil {
		return nil, fmt.Errorf("reading cache index: %w", err)
	}
	return entries, nil
}

// PruneResult reports what Prune removed.
type PruneResult struct {
	DanglingEntries int
	OrphanArtifacts int
}

// Prune deletes index entries whose artifact is missing and artifacts that
// no entry references.
func (c *SourceCache) Prune() (PruneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res PruneResult
	entries, err := c.index.List()
	if err != nil {
		return res, fmt.Errorf("reading cache index: %w", err)
	}

	referenced := make(map[string]bool, len(entries))
	for _, e := range entries {
		ok, err := c.store.Exists(e.Artifact)
		if err != nil {
			return res, err
		}
		if !ok {
			if err := c.index.Delete(e.Digest); err != nil {
				return res, fmt.Errorf("deleting index entry: %w", err)
			}
			res.DanglingEntries++
			continue
		}
		referenced[e.Artifact] = true
	}

	names, err := c.store.List()
	if err != nil {
		return res, err
	}
	for _, name := range names {
		if referenced[name] {
			continue
		}
		if err := c.store.Remove(name); err != nil {
			return res, err
		}
		res.OrphanArtifacts++
	}

	c.logger.Info("cache pruned", "dangling", res.DanglingEntries, "orphans", res.OrphanArtifacts)
	return res, nil
}

// Clear removes every entry and artifact. It returns the number of
// entries removed.
func (c *SourceCache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.index.List()
	if err != nil {
		return 0, fmt.Errorf("reading cache index: %w", err)
	}
	for _, e := range entries {
		if err := c.index.Delete(e.Digest); err != nil {
			return 0, fmt.Errorf("deleting index entry: %w", err)
		}
	}

	names, err := c.store.List()
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		if err := c.store.Remove(name); err != nil {
			return 0, err
		}
	}

	c.logger.Info("cache cleared", "entries", len(entries))
	return len(entries), nil
}

var _ stats.SourceCache = (*SourceCache)(nil)
