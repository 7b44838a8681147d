// Package ignore implements the crawl pipeline's noise-directory
// exclusion: a fixed list of directory basenames (.git, node_modules,
// and similar) rather than arbitrary .gitignore parsing.
package ignore

import "sync"

// Matcher decides whether a directory basename should be excluded from
// enumeration.
type Matcher struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// New builds a Matcher from a set of directory basenames to exclude.
func New(names []string) *Matcher {
	m := &Matcher{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		m.names[n] = struct{}{}
	}
	return m
}

// MatchDir reports whether a directory with this basename should be
// excluded from the crawl, along with everything beneath it.
func (m *Matcher) MatchDir(basename string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, excluded := m.names[basename]
	return excluded
}

// Add appends a basename to the exclusion set at runtime; it is safe to
// call while a crawl is matching against the set.
func (m *Matcher) Add(basename string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[basename] = struct{}{}
}

// IsHidden reports whether name is a dot-hidden entry, the crawl
// pipeline's mandatory (non-configurable) skip rule.
func IsHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
