// Package cloudsync tracks which enumerated paths are cloud
// placeholders: filesystem entries whose bytes are not locally
// materialized. The set has one writer (the crawl pipeline) and many
// readers (a GUI shell, in the deployment this core is embedded in),
// so updates need to be observable without tearing, which an atomic
// pointer swap of an immutable set gives for free. The emptiness of a
// regular file is the only cross-platform placeholder signal available
// without a vendor-specific cloud-sync SDK, so detection here is
// best-effort.
package cloudsync

import (
	"io/fs"
	"sync/atomic"
)

// Set is an immutable snapshot of paths currently known to be cloud
// placeholders.
type Set map[string]struct{}

// Tracker holds the current placeholder Set behind an atomic pointer so
// readers never observe a torn map.
type Tracker struct {
	set atomic.Pointer[Set]
}

// NewTracker returns a Tracker starting from an empty set.
func NewTracker() *Tracker {
	t := &Tracker{}
	empty := Set{}
	t.set.Store(&empty)
	return t
}

// Snapshot returns the current placeholder set. Safe for concurrent use.
func (t *Tracker) Snapshot() Set {
	return *t.set.Load()
}

// Mark adds or removes path from the tracked placeholder set.
func (t *Tracker) Mark(path string, isPlaceholder bool) {
	for {
		old := t.set.Load()
		next := make(Set, len(*old)+1)
		for p := range *old {
			if p != path {
				next[p] = struct{}{}
			}
		}
		if isPlaceholder {
			next[path] = struct{}{}
		}
		if t.set.CompareAndSwap(old, &next) {
			return
		}
	}
}

// IsPlaceholder is a best-effort, platform-agnostic heuristic: a
// zero-byte regular file is treated as a possible placeholder candidate
// for the caller to confirm by attempting a read. There is no portable
// stdlib API for vendor-specific cloud-sync placeholder bits (iCloud,
// OneDrive, Google Drive File Stream); a deployment embedding this core
// on a specific OS may replace this with a platform-specific check.
func IsPlaceholder(info fs.FileInfo) bool {
	return info.Mode().IsRegular() && info.Size() == 0
}
