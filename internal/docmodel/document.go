// Package docmodel defines the document schema shared by every component
// that touches the index: the crawl pipeline produces documents, the
// index store persists them, the dedup cache fingerprints them, and the
// query planner returns hits shaped like them.
package docmodel

import "strings"

// ContentSeparator joins the head and tail slices produced by the content
// sampler. It is a private-use-area rune rather than the literal "..."
// ellipsis so that no legal query token can contain it. The indexer's
// name tokenizer also opens a term-position gap at each occurrence, so
// a phrase query can never straddle the boundary between sampled head
// and tail.
const ContentSeparator = "\n\n"

// Scope selects which fields a query searches.
type Scope int

const (
	ScopeName Scope = iota
	ScopeContent
	ScopeBoth
)

func (s Scope) String() string {
	switch s {
	case ScopeName:
		return "name"
	case ScopeContent:
		return "content"
	case ScopeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseScope parses the wire representation of a Scope ("name", "content",
// "both") used by the daemon's JSON-RPC API.
func ParseScope(s string) (Scope, bool) {
	switch strings.ToLower(s) {
	case "name":
		return ScopeName, true
	case "content":
		return ScopeContent, true
	case "both", "":
		return ScopeBoth, true
	default:
		return 0, false
	}
}

// Bucket is a recency class derived from a file's age at crawl time.
// It is never persisted; it exists only to drive crawl scheduling
//.
type Bucket int

const (
	Bucket90d Bucket = iota
	Bucket180d
	Bucket365d
	BucketOlder
)

func (b Bucket) String() string {
	switch b {
	case Bucket90d:
		return "<=90d"
	case Bucket180d:
		return "<=180d"
	case Bucket365d:
		return "<=365d"
	case BucketOlder:
		return "older"
	default:
		return "unknown"
	}
}

// InitialPhaseBuckets is the set of buckets the initial crawl phase
// processes. BackgroundPhaseBuckets covers the rest, in order.
var (
	InitialPhaseBuckets    = []Bucket{Bucket90d}
	BackgroundPhaseBuckets = []Bucket{Bucket180d, Bucket365d, BucketOlder}
)

// BucketFor classifies age (now - mtime) into a recency bucket.
func BucketFor(ageDays float64) Bucket {
	switch {
	case ageDays <= 90:
		return Bucket90d
	case ageDays <= 180:
		return Bucket180d
	case ageDays <= 365:
		return Bucket365d
	default:
		return BucketOlder
	}
}

// Meta is the identity/dedup-relevant metadata for a file, matching the
// `meta` struct exchanged over the daemon's JSON-RPC API.
type Meta struct {
	Path    string
	Name    string
	Ext     string
	MtimeS  int64
	Size    uint64
	Inode   uint64
	Dev     uint64
	IsCloud bool // cloud placeholder: no local content yet
}

// Document is one indexed file.
type Document struct {
	Path    string
	Name    string
	Ext     string
	Content string // optional; empty means "no content indexed"
	MtimeS  int64
	Size    uint64
	Inode   uint64
	Dev     uint64
}

// Hit is a single search result.
type Hit struct {
	Path   string
	Name   string
	MtimeS int64
	Size   uint64
	Score  float32
}

// NormalizedName lower-cases name for name_raw indexing/prefix matching.
func NormalizedName(name string) string {
	return strings.ToLower(name)
}

// NormalizedExt lower-cases and strips the leading dot, if any.
func NormalizedExt(ext string) string {
	ext = strings.ToLower(ext)
	return strings.TrimPrefix(ext, ".")
}
