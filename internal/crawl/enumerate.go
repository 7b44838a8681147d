package crawl

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/DrDavidL/my-search-buddy/internal/apperrors"
	"github.com/DrDavidL/my-search-buddy/internal/cloudsync"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/ignore"
)

// fileEntry is one enumerated filesystem entry, bucketed by recency.
type fileEntry struct {
	path    string
	name    string
	ext     string
	size    uint64
	mtimeS  int64
	inode   uint64
	dev     uint64
	bucket  docmodel.Bucket
	isCloud bool
}

// sortRoots orders roots so that any root whose last
// path component is "Documents" sorts first, remaining ties break
// lexicographically.
func sortRoots(roots []string) []string {
	out := make([]string, len(roots))
	copy(out, roots)
	sort.SliceStable(out, func(i, j int) bool {
		iDocs := filepath.Base(out[i]) == "Documents"
		jDocs := filepath.Base(out[j]) == "Documents"
		if iDocs != jDocs {
			return iDocs
		}
		return out[i] < out[j]
	})
	return out
}

// enumerateRoot walks root depth-first, skipping hidden entries and
// configured noise directories, never following symlinks. capEntries
// bounds the number of entries visited; 0 means unbounded. Entries are grouped by recency bucket, preserving enumeration
// order within each bucket.
func enumerateRoot(root string, capEntries int, noise *ignore.Matcher, cloud *cloudsync.Tracker, now time.Time) (map[docmodel.Bucket][]fileEntry, error) {
	buckets := make(map[docmodel.Bucket][]fileEntry)
	visited := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Enumeration errors for a root abort that root only:
			// returning the error here propagates up to the caller,
			// which treats it as PermanentIO for this root.
			return apperrors.PermanentIO("crawl.enumerateRoot", path, err)
		}

		name := d.Name()
		if path != root && ignore.IsHidden(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && noise.MatchDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if capEntries > 0 && visited >= capEntries {
			return filepath.SkipAll
		}
		visited++

		info, err := d.Info()
		if err != nil {
			logAppError(apperrors.TransientIO("crawl.enumerateRoot", path, err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isPlaceholder := cloudsync.IsPlaceholder(info)
		cloud.Mark(path, isPlaceholder)

		ext := ""
		if dot := strings.LastIndexByte(name, '.'); dot > 0 && dot < len(name)-1 {
			ext = name[dot+1:]
		}

		ageDays := now.Sub(info.ModTime()).Hours() / 24
		bucket := docmodel.BucketFor(ageDays)
		inode, dev := statInodeDev(info)

		entry := fileEntry{
			path:    path,
			name:    name,
			ext:     ext,
			size:    uint64(info.Size()),
			mtimeS:  info.ModTime().Unix(),
			inode:   inode,
			dev:     dev,
			bucket:  bucket,
			isCloud: isPlaceholder,
		}
		buckets[bucket] = append(buckets[bucket], entry)
		return nil
	})

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return buckets, err
	}
	return buckets, nil
}
