// Package statedb persists crawl progress across restarts: per-root
// resume markers for full-mode crawls, the last completed timestamp,
// and the scheduled-window toggle, backed by a small SQLite key-value
// and table schema.
package statedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the persisted sidecar state for the crawl pipeline.
type DB struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS bucket_progress (
	root_path         TEXT NOT NULL,
	phase             TEXT NOT NULL,
	next_bucket_index INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (root_path, phase)
);
CREATE TABLE IF NOT EXISTS crawl_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const (
	keyLastCompletedAt      = "last_completed_at"
	keyScheduleWindowEnable = "schedule_window_enabled"
)

// Open opens or creates the state database at path. An empty path opens
// an in-memory database (used by tests and one-shot CLI invocations
// that don't need cross-process resume).
func Open(path string) (*DB, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create statedb directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open statedb: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize statedb schema: %w", err)
	}
	return &DB{db: db}, nil
}

// NextBucketIndex returns the index into the phase's ordered bucket list
// that root should resume at for a full-mode crawl. ok is false if root
// has no recorded progress for phase, meaning it should start at index 0.
// phase and bucket index are tracked together because the initial and
// background phases enumerate different-length bucket lists: an index
// recorded for one phase is meaningless for the other.
func (d *DB) NextBucketIndex(root, phase string) (index int, ok bool, err error) {
	row := d.db.QueryRow(`SELECT next_bucket_index FROM bucket_progress WHERE root_path = ? AND phase = ?`, root, phase)
	err = row.Scan(&index)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read bucket progress for %s/%s: %w", root, phase, err)
	}
	return index, true, nil
}

// SetNextBucketIndex records that root has finished processing the
// bucket at index-1 within phase and should resume at index on the next
// interrupted-then-resumed full-mode crawl.
func (d *DB) SetNextBucketIndex(root, phase string, index int) error {
	_, err := d.db.Exec(`INSERT INTO bucket_progress (root_path, phase, next_bucket_index) VALUES (?, ?, ?)
		ON CONFLICT(root_path, phase) DO UPDATE SET next_bucket_index = excluded.next_bucket_index`,
		root, phase, index)
	if err != nil {
		return fmt.Errorf("failed to set bucket progress for %s/%s: %w", root, phase, err)
	}
	return nil
}

// ResetBuckets clears all recorded per-root bucket progress, starting a
// fresh crawl generation (used by ResetAndStart and by a full-mode crawl
// that completes both phases without interruption).
func (d *DB) ResetBuckets() error {
	if _, err := d.db.Exec(`DELETE FROM bucket_progress`); err != nil {
		return fmt.Errorf("failed to reset bucket progress: %w", err)
	}
	return nil
}

// SetLastCompletedAt records the unix-second timestamp of the most
// recent full crawl completion, surfaced to callers via the progress
// broadcaster's last_completed_at field.
func (d *DB) SetLastCompletedAt(unixSeconds int64) error {
	return d.setMeta(keyLastCompletedAt, fmt.Sprintf("%d", unixSeconds))
}

// LastCompletedAt returns the last recorded completion timestamp, or ok
// false if a crawl has never completed.
func (d *DB) LastCompletedAt() (unixSeconds int64, ok bool, err error) {
	v, present, err := d.getMeta(keyLastCompletedAt)
	if err != nil || !present {
		return 0, false, err
	}
	if _, err := fmt.Sscanf(v, "%d", &unixSeconds); err != nil {
		return 0, false, fmt.Errorf("corrupt last_completed_at value: %w", err)
	}
	return unixSeconds, true, nil
}

// SetScheduleWindowEnabled persists the config toggle controlling
// whether the 02:00-04:00 scheduled full crawl fires.
func (d *DB) SetScheduleWindowEnabled(enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return d.setMeta(keyScheduleWindowEnable, v)
}

// ScheduleWindowEnabled reads the persisted toggle, defaulting to true
// if never set.
func (d *DB) ScheduleWindowEnabled() (bool, error) {
	v, present, err := d.getMeta(keyScheduleWindowEnable)
	if err != nil {
		return false, err
	}
	if !present {
		return true, nil
	}
	return v == "1", nil
}

func (d *DB) setMeta(key, value string) error {
	_, err := d.db.Exec(`INSERT INTO crawl_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (d *DB) getMeta(key string) (value string, ok bool, err error) {
	row := d.db.QueryRow(`SELECT value FROM crawl_meta WHERE key = ?`, key)
	err = row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
