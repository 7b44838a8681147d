package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/indexstore"
)

func newTestPlanner(t *testing.T, docs ...*docmodel.Document) (*Planner, *indexstore.Store) {
	t.Helper()
	store, err := indexstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, d := range docs {
		require.NoError(t, store.AddOrReplace(ctx, d))
	}
	require.NoError(t, store.Commit(ctx))

	return New(store), store
}

// For query "readme" over README.md, readme-archive.txt, and a
// body-only hit, README.md ranks first, readme-archive.txt second, the
// body-only hit last.
func TestPlanner_RankingOrder_NameMatchesOutrankContentMatches(t *testing.T) {
	p, _ := newTestPlanner(t,
		&docmodel.Document{Path: "/x/README.md", Name: "README.md", Ext: "md"},
		&docmodel.Document{Path: "/x/readme-archive.txt", Name: "readme-archive.txt", Ext: "txt"},
		&docmodel.Document{Path: "/x/notes.txt", Name: "notes.txt", Ext: "txt", Content: "see readme here"},
	)

	hits, err := p.Search(context.Background(), Request{Query: "readme", Scope: docmodel.ScopeBoth, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "/x/README.md", hits[0].Path)
	assert.Equal(t, "/x/readme-archive.txt", hits[1].Path)
	assert.Equal(t, "/x/notes.txt", hits[2].Path)
}

// ext:pdf budget matches only the PDF, not the DOCX, even though both
// are relevant by name.
func TestPlanner_ExtFilter_MatchesOnlyDeclaredExtension(t *testing.T) {
	p, _ := newTestPlanner(t,
		&docmodel.Document{Path: "/x/q3-budget.pdf", Name: "q3-budget.pdf", Ext: "pdf", Content: "fiscal"},
		&docmodel.Document{Path: "/x/budget.docx", Name: "budget.docx", Ext: "docx"},
	)

	hits, err := p.Search(context.Background(), Request{Query: "ext:pdf budget", Scope: docmodel.ScopeBoth, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/x/q3-budget.pdf", hits[0].Path)
}

// Every returned hit's path matches the supplied glob.
func TestPlanner_GlobPostFilter_MatchesSuppliedGlob(t *testing.T) {
	p, _ := newTestPlanner(t,
		&docmodel.Document{Path: "/x/drafts/notes.txt", Name: "notes.txt", Ext: "txt", Content: "plan"},
		&docmodel.Document{Path: "/x/final/notes.txt", Name: "notes.txt", Ext: "txt", Content: "plan"},
	)

	hits, err := p.Search(context.Background(), Request{Query: "plan", Scope: docmodel.ScopeContent, Glob: "/*/drafts/*", Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/x/drafts/notes.txt", hits[0].Path)
}

func TestPlanner_ScopeName_DoesNotMatchContentOnly(t *testing.T) {
	p, _ := newTestPlanner(t,
		&docmodel.Document{Path: "/x/a.txt", Name: "a.txt", Ext: "txt", Content: "quarterly"},
	)
	hits, err := p.Search(context.Background(), Request{Query: "quarterly", Scope: docmodel.ScopeName, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPlanner_EmptyQuery_ReturnsNoHits(t *testing.T) {
	p, _ := newTestPlanner(t, &docmodel.Document{Path: "/x/a.txt", Name: "a.txt", Ext: "txt"})
	hits, err := p.Search(context.Background(), Request{Query: "   ", Scope: docmodel.ScopeBoth, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPlanner_PhraseQuery_DoesNotStraddleSamplingGap(t *testing.T) {
	content := "the quarterly report ends here" + docmodel.ContentSeparator + "begins the next section abruptly"
	p, _ := newTestPlanner(t,
		&docmodel.Document{Path: "/x/a.txt", Name: "a.txt", Ext: "txt", Content: content},
	)

	hits, err := p.Search(context.Background(), Request{Query: `"here begins"`, Scope: docmodel.ScopeContent, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hits, "phrase spanning the sampled head/tail join must not match")

	hits, err = p.Search(context.Background(), Request{Query: `"ends here"`, Scope: docmodel.ScopeContent, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, hits, 1, "phrase wholly inside the sampled head must still match")
}

func TestPlanner_SortByMtime(t *testing.T) {
	p, _ := newTestPlanner(t,
		&docmodel.Document{Path: "/x/old.txt", Name: "old.txt", Ext: "txt", Content: "plan", MtimeS: 100},
		&docmodel.Document{Path: "/x/new.txt", Name: "new.txt", Ext: "txt", Content: "plan", MtimeS: 200},
	)
	hits, err := p.Search(context.Background(), Request{Query: "plan", Scope: docmodel.ScopeContent, Limit: 10, SortByMtime: true})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "/x/new.txt", hits[0].Path)
}
