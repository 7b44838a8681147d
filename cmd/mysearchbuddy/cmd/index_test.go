package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_CrawlsAndSearchFindsFile(t *testing.T) {
	setIsolatedDataDir(t)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("a reminder about widgets"), 0o644))

	indexCmd := NewRootCmd()
	buf := new(bytes.Buffer)
	indexCmd.SetOut(buf)
	indexCmd.SetErr(buf)
	indexCmd.SetArgs([]string{"index", "--no-tui", src})
	require.NoError(t, indexCmd.Execute())

	searchCmd := NewRootCmd()
	sbuf := new(bytes.Buffer)
	searchCmd.SetOut(sbuf)
	searchCmd.SetErr(sbuf)
	searchCmd.SetArgs([]string{"search", "widgets"})
	require.NoError(t, searchCmd.Execute())

	assert.Contains(t, sbuf.String(), "notes.txt")
}

func TestIndexCmd_HasFullFlag(t *testing.T) {
	cmd := NewRootCmd()
	indexCmd, _, err := cmd.Find([]string{"index"})
	require.NoError(t, err)
	assert.NotNil(t, indexCmd.Flags().Lookup("full"))
}
