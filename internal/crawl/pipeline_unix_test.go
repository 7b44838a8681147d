//go:build unix

package crawl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrDavidL/my-search-buddy/internal/indexstore"
	"github.com/DrDavidL/my-search-buddy/internal/progress"
)

func TestPipeline_UnixCrawl_PopulatesInodeAndDev(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	p, store := newTestPipeline(t)
	require.NoError(t, p.Start(context.Background(), []string{dir}, ModeFull, progress.PhaseInitial, false))

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 10, 0, false)
	req.Fields = []string{indexstore.FieldInode, indexstore.FieldDev}
	result, err := store.Bleve().Search(req)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)

	inode, _ := result.Hits[0].Fields[indexstore.FieldInode].(float64)
	dev, _ := result.Hits[0].Fields[indexstore.FieldDev].(float64)
	assert.NotZero(t, inode, "a real file on a unix filesystem has a nonzero inode")
	assert.NotZero(t, dev)
}
