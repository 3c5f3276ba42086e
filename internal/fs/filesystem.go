package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dumpstats/internal/stats"
)

// IgnoreFileName is the per-dump ignore file, read from the dump root.
const IgnoreFileName = ".dumpstatsignore"

// OSDumpFinder locates dump files on the real filesystem:
//
//	<root>/
//	  messages/<channel>/messages.csv
//	  activity/<type>/*.json
//	  servers/index.json
//
// Paths matching the configured ignore patterns, or the patterns in the
// dump's own .dumpstatsignore, are skipped.
type OSDumpFinder struct {
	patterns []string
}

// NewOSDumpFinder creates a finder applying the given ignore patterns.
func NewOSDumpFinder(ignore []string) *OSDumpFinder {
	return &OSDumpFinder{patterns: ignore}
}

// matcher combines the configured patterns with the dump's ignore file.
func (f *OSDumpFinder) matcher(root string) (*IgnoreMatcher, error) {
	if err := checkDir(root); err != nil {
		return nil, err
	}
	local, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(f.patterns)+len(local))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, f.patterns...)
	patterns = append(patterns, local...)
	return NewIgnoreMatcher(patterns), nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat dump: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("dump is not a directory: %s", path)
	}
	return nil
}

// subdirs returns the names of the non-ignored directories in root/rel.
// A missing directory yields no names.
func subdirs(root, rel string, m *IgnoreMatcher) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || m.Match(filepath.Join(rel, e.Name()), true) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// MessageFiles returns every messages/<channel>/messages.csv under root.
func (f *OSDumpFinder) MessageFiles(root string) ([]string, error) {
	m, err := f.matcher(root)
	if err != nil {
		return nil, err
	}

	channels, err := subdirs(root, "messages", m)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, ch := range channels {
		rel := filepath.Join("messages", ch, "messages.csv")
		if m.Match(rel, false) {
			continue
		}
		info, err := os.Stat(filepath.Join(root, rel))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(root, rel))
	}
	return paths, nil
}

// ActivityTypes returns the event-type directory names under root/activity.
func (f *OSDumpFinder) ActivityTypes(root string) ([]string, error) {
	m, err := f.matcher(root)
	if err != nil {
		return nil, err
	}
	return subdirs(root, "activity", m)
}

// ActivityFiles returns the JSON-lines files of one event type.
func (f *OSDumpFinder) ActivityFiles(root, eventType string) ([]string, error) {
	m, err := f.matcher(root)
	if err != nil {
		return nil, err
	}

	rel := filepath.Join("activity", eventType)
	entries, err := os.ReadDir(filepath.Join(root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if m.Match(filepath.Join(rel, e.Name()), false) {
			continue
		}
		paths = append(paths, filepath.Join(root, rel, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ServerIndex returns the path of servers/index.json under root.
func (f *OSDumpFinder) ServerIndex(root string) string {
	return filepath.Join(root, "servers", "index.json")
}

var _ stats.DumpFinder = (*OSDumpFinder)(nil)
