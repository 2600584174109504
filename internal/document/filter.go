package document

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/sectionspy/internal/errors"
)

// Filter selects section keys by glob pattern, for example "api-*" or
// "{intro,usage}".
type Filter struct {
	patterns []string
	globs    []glob.Glob
}

// NewFilter compiles patterns. An empty list matches every key.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", errors.ErrInvalidPattern, p, err)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Match reports whether key matches any pattern.
func (f *Filter) Match(key string) bool {
	if f == nil || len(f.globs) == 0 {
		return true
	}
	for _, g := range f.globs {
		if g.Match(key) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	return f.patterns
}
