package cache

import (
	"fmt"
	"path/filepath"

	"dumpstats/internal/config"
)

// NewStoreFromConfig creates the ArtifactStore matching the cache config type.
// A sqlite cache keeps its artifacts next to the index, under <dir>/tables.
func NewStoreFromConfig(cfg config.CacheConfig) (ArtifactStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("sqlite cache requires dir to be set")
		}
		store, err := NewFileSystemStore(filepath.Join(cfg.Dir, "tables"))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
