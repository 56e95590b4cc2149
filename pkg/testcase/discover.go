package testcase

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".shortest":    true,
}

// Matcher selects test files by glob pattern on slash separated paths
// relative to the discovery root.
type Matcher struct {
	patterns []glob.Glob
}

// NewMatcher compiles patterns. At least one pattern is required.
func NewMatcher(patterns ...string) (*Matcher, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("at least one pattern is required")
	}
	m := &Matcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// Match reports whether rel matches any pattern.
func (m *Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(rel)), "./")
	for _, g := range m.patterns {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Discover loads every test file under root matching pattern, sorted by
// path. A pattern naming an exact file is honored as is.
func Discover(root, pattern string) ([]*File, error) {
	matcher, err := NewMatcher(pattern)
	if err != nil {
		return nil, err
	}

	var rels []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.Match(rel) {
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(rels)
	files := make([]*File, 0, len(rels))
	for _, rel := range rels {
		file, err := Load(root, rel)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
