//go:build unix

package crawl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatInodeDev_UnixFile_ReportsNonZeroInode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)

	inode, dev := statInodeDev(info)
	require.NotZero(t, inode)
	require.NotZero(t, dev)
}
