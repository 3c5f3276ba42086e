package database

import (
	"fmt"
	"os"
	"path/filepath"

	"dumpstats/internal/config"
)

// IndexFileName is the name of the index database inside the cache directory.
const IndexFileName = "index.db"

// NewDatabaseFromConfig creates the index database for the cache config type.
// A sqlite cache keeps the database at <dir>/index.db, creating dir if needed.
func NewDatabaseFromConfig(cfg config.CacheConfig) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for sqlite cache")
		}
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.Dir, IndexFileName))
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
