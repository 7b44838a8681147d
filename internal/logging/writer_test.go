package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriter_WritesAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.log")
	w, err := NewRotatingWriter(path, 10, 3)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("line one\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("line two\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestRotatingWriter_RotatesWhenOverSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.log")
	// maxSizeMB=0 combined with a nonzero write always exceeds the size
	// budget, forcing rotation on the very next write.
	w, err := NewRotatingWriter(path, 0, 3)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	rotated := path + ".1"
	_, statErr := os.Stat(rotated)
	assert.NoError(t, statErr, "expected rotated file to exist at %s", rotated)
}

func TestRotatingWriter_PrunesBeyondMaxFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.log")
	w, err := NewRotatingWriter(path, 0, 1)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 4; i++ {
		_, err := w.Write([]byte(strings.Repeat("x", 10) + "\n"))
		require.NoError(t, err)
	}

	entries, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), 1)
}

func TestRotatingWriter_CloseIsIdempotentEnough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.log")
	w, err := NewRotatingWriter(path, 10, 3)
	require.NoError(t, err)

	require.NoError(t, w.Close())
}
