// Package migrations holds the schema of the cache index and run history
// and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var schemaFiles embed.FS

var (
	// ErrUnversioned means the index has never been migrated.
	ErrUnversioned = errors.New("cache index has no schema version")
	// ErrDirty means a previous migration stopped part way.
	ErrDirty = errors.New("cache index schema is dirty")
	// ErrVersionMismatch means the index and the binary disagree on the schema.
	ErrVersionMismatch = errors.New("cache index schema version mismatch")
)

// Up brings the index schema to the latest version. An index that is
// already current is left alone.
func Up(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}
	// m is not closed: that would close db, which the caller owns.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating cache index: %w", err)
	}
	return nil
}

// Check returns nil when the index is clean and at the version embedded
// in this binary.
func Check(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}

	have, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return ErrUnversioned
	case err != nil:
		return fmt.Errorf("reading cache index version: %w", err)
	case dirty:
		return fmt.Errorf("%w at version %d", ErrDirty, have)
	}

	want, err := Latest()
	if err != nil {
		return err
	}
	if have != want {
		return fmt.Errorf("%w: index at %d, binary expects %d", ErrVersionMismatch, have, want)
	}
	return nil
}

// Latest returns the newest schema version embedded in the binary.
func Latest() (uint, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading embedded schema: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no schema files: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("walking schema versions after %d: %w", v, err)
		}
		v = next
	}
}

func open(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}
	drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("wrapping cache index for migration: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing cache index migration: %w", err)
	}
	return m, nil
}
