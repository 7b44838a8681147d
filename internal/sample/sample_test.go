package sample

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrDavidL/my-search-buddy/internal/config"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
)

func writeTempFile(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestSample_OversizedFile_Skipped(t *testing.T) {
	f := writeTempFile(t, strings.Repeat("a", 100))
	policy := config.DefaultSampling()
	policy.MaxBytes = 10

	res, err := Sample(f, 100, policy)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Content)
}

func TestSample_SmallFile_ReadsInFull(t *testing.T) {
	content := "package main\n\nfunc main() {}\n"
	f := writeTempFile(t, content)
	policy := config.DefaultSampling()

	res, err := Sample(f, int64(len(content)), policy)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, content, res.Content)
}

func TestSample_LargeFile_ProducesHeadAndTail(t *testing.T) {
	head := strings.Repeat("h", 5000)
	middle := strings.Repeat("m", 500000)
	tail := strings.Repeat("t", 5000)
	content := head + middle + tail
	f := writeTempFile(t, content)

	policy := config.DefaultSampling()
	policy.SmallFileThreshold = 1000

	res, err := Sample(f, int64(len(content)), policy)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.True(t, strings.HasPrefix(res.Content, "hhhh"))
	assert.True(t, strings.HasSuffix(res.Content, "tttt"))
	assert.Contains(t, res.Content, docmodel.ContentSeparator)
	assert.NotContains(t, res.Content, "mmmm")
}

func TestSample_BinaryHead_Skipped(t *testing.T) {
	binary := make([]byte, 20000)
	for i := range binary {
		binary[i] = 0
	}
	f := writeTempFile(t, string(binary))
	policy := config.DefaultSampling()
	policy.SmallFileThreshold = 100

	res, err := Sample(f, int64(len(binary)), policy)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestSample_SmallFile_HonorsConfiguredSniffBytes(t *testing.T) {
	// A NUL byte placed past a narrow configured sniff window must not
	// cause the file to be skipped: the full-read path has to sniff with
	// the caller's SniffBytes, not a fixed default window.
	content := strings.Repeat("a", 5000) + "\x00" + strings.Repeat("b", 100)
	f := writeTempFile(t, content)
	policy := config.DefaultSampling()
	policy.SniffBytes = 100

	res, err := Sample(f, int64(len(content)), policy)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Contains(t, res.Content, "aaaa")
}

func TestSample_ZeroCoverageFraction_ReadsInFull(t *testing.T) {
	content := strings.Repeat("x", 2000)
	f := writeTempFile(t, content)
	policy := config.DefaultSampling()
	policy.CoverageFraction = 0

	res, err := Sample(f, int64(len(content)), policy)
	require.NoError(t, err)
	assert.Equal(t, content, res.Content)
}

func TestSample_InvalidUTF8_DecodedWithReplacement(t *testing.T) {
	content := []byte("hello \xff\xfe world")
	path := filepath.Join(t.TempDir(), "bad-utf8.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	policy := config.DefaultSampling()
	res, err := Sample(f, int64(len(content)), policy)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Contains(t, res.Content, "hello")
	assert.Contains(t, res.Content, "world")
}
