package indexstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AddOrReplaceThenCommit_MakesDocSearchable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &docmodel.Document{
		Path:    "/home/u/Documents/report.txt",
		Name:    "report.txt",
		Ext:     "txt",
		Content: "quarterly earnings summary",
		MtimeS:  1000,
		Size:    42,
	}
	require.NoError(t, s.AddOrReplace(ctx, doc))
	require.NoError(t, s.Commit(ctx))

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestStore_AddOrReplace_SamePathReplacesPriorDocument(t *testing.T) {
	// An update for the same path replaces the prior document rather
	// than duplicating it.
	s := newTestStore(t)
	ctx := context.Background()

	path := "/home/u/notes.md"
	require.NoError(t, s.AddOrReplace(ctx, &docmodel.Document{Path: path, Name: "notes.md", Ext: "md", Content: "draft one"}))
	require.NoError(t, s.AddOrReplace(ctx, &docmodel.Document{Path: path, Name: "notes.md", Ext: "md", Content: "draft two"}))
	assert.Equal(t, 1, s.PendingCount())

	require.NoError(t, s.Commit(ctx))
	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestStore_CommitWithNoPending_IsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Commit(context.Background()))
	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestStore_Reset_ClearsAllDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddOrReplace(ctx, &docmodel.Document{Path: "/a", Name: "a.txt", Ext: "txt"}))
	require.NoError(t, s.Commit(ctx))

	require.NoError(t, s.Reset())

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestStore_AddOrReplaceAfterClose_Errors(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	err := s.AddOrReplace(context.Background(), &docmodel.Document{Path: "/a", Name: "a"})
	assert.Error(t, err)
}

func TestIsCorruptionError(t *testing.T) {
	assert.False(t, isCorruptionError(nil))
	assert.True(t, isCorruptionError(errString("unexpected end of JSON input")))
	assert.True(t, isCorruptionError(errString("failed to load segment 3")))
	assert.False(t, isCorruptionError(errString("permission denied")))
}

type errString string

func (e errString) Error() string { return string(e) }
