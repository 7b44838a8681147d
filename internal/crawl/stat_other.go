//go:build !unix

package crawl

import "io/fs"

// statInodeDev has no portable equivalent outside unix; callers treat 0
// as "unknown" per the on-disk schema's contract.
func statInodeDev(info fs.FileInfo) (inode, dev uint64) {
	return 0, 0
}
