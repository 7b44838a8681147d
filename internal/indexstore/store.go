// Package indexstore implements the on-disk inverted index, its
// filename+content document schema, and segment commit/refresh over a
// Bleve v2 index with corruption detection and custom analyzer
// registration.
package indexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"golang.org/x/sync/semaphore"

	"github.com/DrDavidL/my-search-buddy/internal/apperrors"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
)

// DefaultMaxBatchDocs bounds the number of staged-but-uncommitted
// documents held in memory.
const DefaultMaxBatchDocs = 5000

// bleveDoc is the wire shape indexed into bleve; field names must match
// buildIndexMapping's field mappings exactly.
type bleveDoc struct {
	NameTok     string `json:"name_tok"`
	NameRaw     string `json:"name_raw"`
	Ext         string `json:"ext"`
	Content     string `json:"content"`
	Mtime       int64  `json:"mtime"`
	Size        uint64 `json:"size"`
	Inode       uint64 `json:"inode"`
	Dev         uint64 `json:"dev"`
	NameDisplay string `json:"name_display"`
	PathDisplay string `json:"path_display"`
}

// Store is the on-disk inverted index over documents.
type Store struct {
	mu      sync.RWMutex
	index   bleve.Index
	path    string
	closed  bool
	batchMu sync.Mutex
	pending map[string]*docmodel.Document
	sem     *semaphore.Weighted
	maxDocs int64
}

// Open implements init(path): opens or creates an index at path. On a
// corrupt or absent index, an empty one is created. Idempotent across
// restarts.
func Open(path string) (*Store, error) {
	return OpenWithBudget(path, DefaultMaxBatchDocs)
}

// OpenWithBudget is Open with an explicit write-buffer document budget.
func OpenWithBudget(path string, maxBatchDocs int64) (*Store, error) {
	im, err := buildIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to build index mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create index parent directory: %w", mkErr)
		}
		if corruptErr := validateIndexIntegrity(path); corruptErr != nil {
			slog.Warn("index_corrupted", slog.String("path", path), slog.String("error", corruptErr.Error()))
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, apperrors.IndexCorruption("indexstore.Open", path, rmErr)
			}
			slog.Info("index_cleared", slog.String("path", path), slog.String("reason", "corruption detected at open"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, im)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("index_open_failed", slog.String("path", path), slog.String("error", err.Error()))
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, apperrors.IndexCorruption("indexstore.Open", path, rmErr)
			}
			idx, err = bleve.New(path, im)
		}
	}
	if err != nil {
		return nil, apperrors.IndexCorruption("indexstore.Open", path, err)
	}

	return &Store{
		index:   idx,
		path:    path,
		pending: make(map[string]*docmodel.Document),
		sem:     semaphore.NewWeighted(maxBatchDocs),
		maxDocs: maxBatchDocs,
	}, nil
}

// validateIndexIntegrity checks a Bleve index for corruption before
// opening it, so a truncated index_meta.json surfaces as a clean
// IndexCorruption error instead of a confusing panic deep in Bleve.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected end of JSON") ||
		strings.Contains(s, "error parsing mapping JSON") ||
		strings.Contains(s, "failed to load segment") ||
		strings.Contains(s, "error opening bolt") ||
		strings.Contains(s, "no such file or directory") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// AddOrReplace stages a write superseding any prior document at the
// same path. Not visible until Commit returns. Blocks via a weighted
// semaphore once the write buffer's heap budget is exhausted, so a
// crawl outrunning Commit naturally backs off.
func (s *Store) AddOrReplace(ctx context.Context, doc *docmodel.Document) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("index is closed")
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	s.batchMu.Lock()
	if _, replacing := s.pending[doc.Path]; replacing {
		s.sem.Release(1) // replacing an already-staged path doesn't grow the batch
	}
	s.pending[doc.Path] = doc
	s.batchMu.Unlock()
	return nil
}

// PendingCount reports the number of staged, uncommitted documents.
func (s *Store) PendingCount() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.pending)
}

// Commit flushes staged writes into an on-disk segment and refreshes
// the reader so subsequent Search calls observe them. Either succeeds
// atomically or leaves the prior visible state unchanged.
func (s *Store) Commit(ctx context.Context) error {
	s.batchMu.Lock()
	docs := s.pending
	s.pending = make(map[string]*docmodel.Document)
	s.batchMu.Unlock()

	if len(docs) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.requeue(docs)
		return fmt.Errorf("index is closed")
	}

	batch := s.index.NewBatch()
	for path, doc := range docs {
		bd := toBleveDoc(doc)
		if err := batch.Index(path, bd); err != nil {
			s.requeue(docs)
			return fmt.Errorf("failed to stage document %s: %w", path, err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		// Staged documents remain available for the next attempt
		//.
		s.requeue(docs)
		return fmt.Errorf("commit failed: %w", err)
	}

	s.sem.Release(int64(len(docs)))
	return nil
}

func (s *Store) requeue(docs map[string]*docmodel.Document) {
	s.batchMu.Lock()
	for path, doc := range docs {
		if _, exists := s.pending[path]; !exists {
			s.pending[path] = doc
		}
	}
	s.batchMu.Unlock()
}

func toBleveDoc(doc *docmodel.Document) bleveDoc {
	nameRaw := docmodel.NormalizedName(doc.Name)
	ext := docmodel.NormalizedExt(doc.Ext)
	return bleveDoc{
		NameTok:     doc.Name,
		NameRaw:     nameRaw,
		Ext:         ext,
		Content:     doc.Content,
		Mtime:       doc.MtimeS,
		Size:        doc.Size,
		Inode:       doc.Inode,
		Dev:         doc.Dev,
		NameDisplay: doc.Name,
		PathDisplay: doc.Path,
	}
}

// Reset closes the reader, deletes the on-disk index, and reinitializes
// an empty one in place.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		_ = s.index.Close()
	}
	s.batchMu.Lock()
	s.pending = make(map[string]*docmodel.Document)
	s.batchMu.Unlock()
	s.sem = semaphore.NewWeighted(s.maxDocs)

	if s.path != "" {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("failed to remove index directory: %w", err)
		}
	}

	im, err := buildIndexMapping()
	if err != nil {
		return fmt.Errorf("failed to rebuild index mapping: %w", err)
	}

	var idx bleve.Index
	if s.path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("failed to recreate index parent directory: %w", err)
		}
		idx, err = bleve.New(s.path, im)
	}
	if err != nil {
		return fmt.Errorf("failed to reinitialize index: %w", err)
	}

	s.index = idx
	s.closed = false
	return nil
}

// Close closes the index. Safe to call multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}

// Bleve exposes the underlying bleve.Index for the query planner, which
// owns query construction and needs direct access to
// build bleve.Query trees. Search never blocks writes: bleve readers
// are multi-reader/single-writer snapshots.
func (s *Store) Bleve() bleve.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// WalkStoredMeta calls fn with the stored path, mtime, and size of
// every committed document, paging through the index without loading
// content. Used by the dedup cache to rebuild its fingerprint table
// from an index that survived while the cache did not.
func (s *Store) WalkStoredMeta(ctx context.Context, fn func(path string, mtimeS int64, size uint64) error) error {
	idx := s.Bleve()
	if idx == nil {
		return fmt.Errorf("index is closed")
	}

	const pageSize = 1000
	from := 0
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), pageSize, from, false)
		req.Fields = []string{FieldMtime, FieldSize}
		result, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to walk stored metadata: %w", err)
		}
		if len(result.Hits) == 0 {
			return nil
		}
		for _, h := range result.Hits {
			var mtime int64
			var size uint64
			if v, ok := h.Fields[FieldMtime]; ok {
				if f, ok := v.(float64); ok {
					mtime = int64(f)
				}
			}
			if v, ok := h.Fields[FieldSize]; ok {
				if f, ok := v.(float64); ok {
					size = uint64(f)
				}
			}
			if err := fn(h.ID, mtime, size); err != nil {
				return err
			}
		}
		from += len(result.Hits)
		if uint64(from) >= result.Total {
			return nil
		}
	}
}

// DocCount returns the number of committed, visible documents.
func (s *Store) DocCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, fmt.Errorf("index is closed")
	}
	return s.index.DocCount()
}
