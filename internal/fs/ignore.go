package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultIgnorePatterns hide the ignore file itself from discovery.
var defaultIgnorePatterns = []string{IgnoreFileName}

// rule is one line of an ignore list.
type rule struct {
	glob    string
	path    bool // glob contains '/' and is matched against the dump-relative path
	negate  bool // a leading '!' re-includes what earlier rules excluded
	dirOnly bool // a trailing '/' restricts the rule to directories
}

// IgnoreMatcher decides which parts of a dump are skipped.
// Rules are applied in order and the last matching rule wins, so a dump
// can exclude every channel and then re-include one:
//
//	messages/*/
//	!messages/c123/
//
// Rules without '/' match a base name anywhere in the dump.
type IgnoreMatcher struct {
	rules []rule
}

// NewIgnoreMatcher parses ignore lines. Blank lines and '#' comments are
// skipped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r rule
		if rest, ok := strings.CutPrefix(line, "!"); ok {
			r.negate = true
			line = rest
		}
		if rest, ok := strings.CutSuffix(line, "/"); ok {
			r.dirOnly = true
			line = rest
		}
		line = strings.TrimPrefix(line, "/")
		if line == "" {
			continue
		}
		r.glob = line
		r.path = strings.Contains(line, "/")
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether rel, a path relative to the dump root, is ignored.
// isDir tells directory-only rules whether they apply.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	if rel == "" {
		return false
	}
	slashed := filepath.ToSlash(rel)
	base := filepath.Base(rel)

	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		subject := base
		if r.path {
			subject = slashed
		}
		// filepath.Match only fails on malformed globs, which never match.
		if ok, err := filepath.Match(r.glob, subject); err == nil && ok {
			ignored = !r.negate
		}
	}
	return ignored
}

// ParseIgnoreFile returns the raw lines of an ignore file, or nil when the
// dump has none.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
