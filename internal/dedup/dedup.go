// Package dedup implements the two-tier dedup cache: an in-process LRU
// front for hot lookups over a SQLite-backed table that survives
// restarts.
package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/DrDavidL/my-search-buddy/internal/indexstore"
)

// DefaultLRUSize bounds the in-process front cache.
const DefaultLRUSize = 100_000

// Fingerprint is the (mtime, size) pair recorded per path at last
// successful index. A path needs reindexing when either differs.
type Fingerprint struct {
	MtimeS int64
	Size   uint64
}

// Cache answers "does this path need reindexing" without a bleve lookup
// on the hot path.
type Cache struct {
	mu   sync.Mutex
	db   *sql.DB
	lru  *lru.Cache[string, Fingerprint]
	path string
}

// Open opens or creates the dedup cache at path. If path is empty, the
// cache is in-memory only (no persistence across restarts).
func Open(path string) (*Cache, error) {
	front, err := lru.New[string, Fingerprint](DefaultLRUSize)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate dedup lru: %w", err)
	}

	c := &Cache{lru: front, path: path}

	if path == "" {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to open in-memory dedup db: %w", err)
		}
		c.db = db
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create dedup cache directory: %w", err)
		}
		if err := validateIntegrity(path); err != nil {
			slog.Warn("dedup_cache_corrupted", slog.String("path", path), slog.String("error", err.Error()))
			_ = os.Remove(path)
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("dedup_cache_cleared", slog.String("path", path))
		}
		dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open dedup db: %w", err)
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		c.db = db
	}

	if _, err := c.db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize dedup schema: %w", err)
	}
	return c, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS fingerprints (
	path   TEXT PRIMARY KEY,
	mtime  INTEGER NOT NULL,
	size   INTEGER NOT NULL
);
`

func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NeedsReindex reports whether path must be re-read and re-sampled: the
// path is unknown, or its recorded (mtime, size) no longer matches.
// Fails open on any lookup error.
func (c *Cache) NeedsReindex(path string, mtimeS int64, size uint64) bool {
	want := Fingerprint{MtimeS: mtimeS, Size: size}

	if fp, ok := c.lru.Get(path); ok {
		return fp != want
	}

	fp, ok, err := c.lookupDB(path)
	if err != nil {
		slog.Warn("dedup_lookup_failed", slog.String("path", path), slog.String("error", err.Error()))
		return true
	}
	if !ok {
		return true
	}
	c.lru.Add(path, fp)
	return fp != want
}

func (c *Cache) lookupDB(path string) (Fingerprint, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var fp Fingerprint
	err := c.db.QueryRow(`SELECT mtime, size FROM fingerprints WHERE path = ?`, path).Scan(&fp.MtimeS, &fp.Size)
	if err == sql.ErrNoRows {
		return Fingerprint{}, false, nil
	}
	if err != nil {
		return Fingerprint{}, false, err
	}
	return fp, true, nil
}

// Record marks path as freshly indexed at (mtimeS, size), updating both
// tiers. Called after a successful commit, never before.
func (c *Cache) Record(path string, mtimeS int64, size uint64) error {
	fp := Fingerprint{MtimeS: mtimeS, Size: size}
	c.mu.Lock()
	_, err := c.db.Exec(`INSERT INTO fingerprints (path, mtime, size) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, size = excluded.size`,
		path, fp.MtimeS, fp.Size)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to record fingerprint for %s: %w", path, err)
	}
	c.lru.Add(path, fp)
	return nil
}

// Forget removes path from both tiers. The crawl pipeline does not call
// it.
func (c *Cache) Forget(path string) error {
	c.mu.Lock()
	_, err := c.db.Exec(`DELETE FROM fingerprints WHERE path = ?`, path)
	c.mu.Unlock()
	c.lru.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to forget %s: %w", path, err)
	}
	return nil
}

// Reset drops every recorded fingerprint, used by a full reindex.
func (c *Cache) Reset() error {
	c.mu.Lock()
	_, err := c.db.Exec(`DELETE FROM fingerprints`)
	c.mu.Unlock()
	c.lru.Purge()
	if err != nil {
		return fmt.Errorf("failed to reset dedup cache: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Count reports how many fingerprints are recorded.
func (c *Cache) Count() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM fingerprints`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count fingerprints: %w", err)
	}
	return n, nil
}

// RebuildFromIndex repopulates an empty fingerprint table by reading
// back the stored mtime/size of every document already committed to
// store. A no-op if the table already has entries, so it is safe to
// call unconditionally at startup: the common case (a dedup database
// that survived alongside its index) does nothing.
func (c *Cache) RebuildFromIndex(ctx context.Context, store *indexstore.Store) error {
	count, err := c.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rebuilt := 0
	err = store.WalkStoredMeta(ctx, func(path string, mtimeS int64, size uint64) error {
		rebuilt++
		return c.Record(path, mtimeS, size)
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild dedup cache from index: %w", err)
	}
	if rebuilt > 0 {
		slog.Info("dedup_rebuilt_from_index", slog.Int("count", rebuilt))
	}
	return nil
}
