//go:build unix

package crawl

import (
	"io/fs"
	"syscall"
)

// statInodeDev extracts the inode and device numbers from the OS-specific
// stat structure underlying info, following the same platform metadata
// extraction the reference scanner performs on unix.
func statInodeDev(info fs.FileInfo) (inode, dev uint64) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0
	}
	return uint64(st.Ino), uint64(st.Dev)
}
