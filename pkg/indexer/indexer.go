// Package indexer exposes the write half of the core API as a typed,
// thread-safe Go interface for a GUI shell or any other embedder to
// call directly: context-first method contracts, an explicit Stats
// snapshot, and an idempotent Close.
package indexer

import (
	"context"
	"fmt"

	"github.com/DrDavidL/my-search-buddy/internal/dedup"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/indexstore"
)

// Stats is a snapshot of index size.
type Stats struct {
	DocumentCount uint64
}

// Indexer is the write-side facade over the index store and dedup
// cache.
type Indexer struct {
	store *indexstore.Store
	dedup *dedup.Cache
}

// New wraps an opened store and dedup cache as an Indexer.
func New(store *indexstore.Store, dedupCache *dedup.Cache) *Indexer {
	return &Indexer{store: store, dedup: dedupCache}
}

// InitIndex idempotently opens or creates the on-disk index at
// directory.
func InitIndex(directory string) (*Indexer, error) {
	store, err := indexstore.Open(directory)
	if err != nil {
		return nil, fmt.Errorf("init_index failed: %w", err)
	}
	dedupPath := ""
	if directory != "" {
		dedupPath = directory + ".dedup.db"
	}
	dedupCache, err := dedup.Open(dedupPath)
	if err != nil {
		return nil, fmt.Errorf("init_index dedup cache failed: %w", err)
	}
	if err := dedupCache.RebuildFromIndex(context.Background(), store); err != nil {
		return nil, fmt.Errorf("init_index dedup rebuild failed: %w", err)
	}
	return New(store, dedupCache), nil
}

// ShouldReindex reports whether meta's mtime/size differ from what
// the dedup cache last recorded for its path.
func (ix *Indexer) ShouldReindex(meta docmodel.Meta) bool {
	return ix.dedup.NeedsReindex(meta.Path, meta.MtimeS, meta.Size)
}

// AddOrUpdate stages a write for meta, replacing any prior document
// at the same path.
func (ix *Indexer) AddOrUpdate(ctx context.Context, meta docmodel.Meta, content string) error {
	doc := &docmodel.Document{
		Path:    meta.Path,
		Name:    meta.Name,
		Ext:     docmodel.NormalizedExt(meta.Ext),
		Content: content,
		MtimeS:  meta.MtimeS,
		Size:    meta.Size,
		Inode:   meta.Inode,
		Dev:     meta.Dev,
	}
	return ix.store.AddOrReplace(ctx, doc)
}

// CommitAndRefresh flushes staged writes and updates the dedup cache
// for everything that was staged through AddOrUpdate since the last
// commit.
func (ix *Indexer) CommitAndRefresh(ctx context.Context, committed []docmodel.Meta) error {
	if err := ix.store.Commit(ctx); err != nil {
		return err
	}
	for _, m := range committed {
		if err := ix.dedup.Record(m.Path, m.MtimeS, m.Size); err != nil {
			return fmt.Errorf("failed to record dedup fingerprint for %s: %w", m.Path, err)
		}
	}
	return nil
}

// Reset closes the reader and writer, deletes the on-disk index and
// dedup cache, then reinitializes both empty.
func (ix *Indexer) Reset() error {
	if err := ix.store.Reset(); err != nil {
		return err
	}
	return ix.dedup.Reset()
}

// Stats returns a snapshot of index size.
func (ix *Indexer) Stats() (Stats, error) {
	count, err := ix.store.DocCount()
	if err != nil {
		return Stats{}, err
	}
	return Stats{DocumentCount: count}, nil
}

// Close releases the index and dedup cache. Idempotent.
func (ix *Indexer) Close() error {
	dedupErr := ix.dedup.Close()
	storeErr := ix.store.Close()
	if storeErr != nil {
		return storeErr
	}
	return dedupErr
}

// Store exposes the underlying index store for components (the crawl
// pipeline, the query planner) that need direct access.
func (ix *Indexer) Store() *indexstore.Store { return ix.store }

// Dedup exposes the underlying dedup cache for the crawl pipeline.
func (ix *Indexer) Dedup() *dedup.Cache { return ix.dedup }
