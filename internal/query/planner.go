package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/blevesearch/bleve/v2"
	bleveSearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/indexstore"
)

// Boost weights: name_raw prefix ~= 4x name_tok term ~= 10x content term.
const (
	boostNameRawPrefix = 10.0
	boostNameTok       = 2.5
	boostContent       = 1.0
)

// Request is the input surface of a query.
type Request struct {
	Query       string
	Scope       docmodel.Scope
	Glob        string
	Limit       int
	SortByMtime bool
}

// Planner translates Requests into bleve queries against a Store and
// assembles ranked, tie-broken, glob-filtered results.
type Planner struct {
	store *indexstore.Store
}

// New builds a Planner over an opened index store.
func New(store *indexstore.Store) *Planner {
	return &Planner{store: store}
}

// Search executes req and returns up to req.Limit hits.
func (p *Planner) Search(ctx context.Context, req Request) ([]docmodel.Hit, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	clauses := Parse(req.Query)
	bq, err := buildQuery(clauses, req.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if bq == nil {
		return []docmodel.Hit{}, nil
	}

	// Overfetch before the glob post-filter so filtering doesn't starve
	// the requested limit.
	fetchSize := limit
	if req.Glob != "" {
		fetchSize = limit * 4
		if fetchSize < 100 {
			fetchSize = 100
		}
	}

	searchReq := bleve.NewSearchRequest(bq)
	searchReq.Size = fetchSize
	searchReq.Fields = []string{
		indexstore.FieldMtime,
		indexstore.FieldSize,
		"name_display",
		"path_display",
	}

	idx := p.store.Bleve()
	if idx == nil {
		return nil, fmt.Errorf("index is closed")
	}
	result, err := idx.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]docmodel.Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hit := hitFromBleve(h)
		if req.Glob != "" {
			matched, err := doublestar.Match(req.Glob, hit.Path)
			// The glob's grammar treats the filename portion as
			// case-insensitive; doublestar is
			// case-sensitive, so also try the lower-cased path.
			if err == nil && !matched {
				matched, err = doublestar.Match(strings.ToLower(req.Glob), strings.ToLower(hit.Path))
			}
			if err != nil || !matched {
				continue
			}
		}
		hits = append(hits, hit)
	}

	sortHits(hits, req.SortByMtime)

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func hitFromBleve(h *bleveSearch.DocumentMatch) docmodel.Hit {
	var mtime int64
	var size uint64
	name := ""
	path := h.ID
	if v, ok := h.Fields[indexstore.FieldMtime]; ok {
		if f, ok := v.(float64); ok {
			mtime = int64(f)
		}
	}
	if v, ok := h.Fields[indexstore.FieldSize]; ok {
		if f, ok := v.(float64); ok {
			size = uint64(f)
		}
	}
	if v, ok := h.Fields["name_display"].(string); ok {
		name = v
	}
	if v, ok := h.Fields["path_display"].(string); ok && v != "" {
		path = v
	}
	return docmodel.Hit{
		Path:   path,
		Name:   name,
		MtimeS: mtime,
		Size:   size,
		Score:  float32(h.Score),
	}
}

// sortHits applies the result assembly tie-break (score desc, mtime
// desc, path asc), or, when requested, a stable re-sort by mtime
// descending.
func sortHits(hits []docmodel.Hit, byMtime bool) {
	if byMtime {
		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].MtimeS > hits[j].MtimeS
		})
		return
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].MtimeS != hits[j].MtimeS {
			return hits[i].MtimeS > hits[j].MtimeS
		}
		return hits[i].Path < hits[j].Path
	})
}

// buildQuery translates parsed clauses into a bleve query tree: AND
// clauses become conjuncts, OR-joined clauses become disjuncts within
// their run, ext: clauses become term filters on the untokenized ext
// field.
func buildQuery(clauses []Clause, scope docmodel.Scope) (query.Query, error) {
	if len(clauses) == 0 {
		return nil, nil
	}

	var mustClauses []query.Query
	var orGroup []query.Query

	flushOrGroup := func() {
		if len(orGroup) == 0 {
			return
		}
		if len(orGroup) == 1 {
			mustClauses = append(mustClauses, orGroup[0])
		} else {
			mustClauses = append(mustClauses, bleve.NewDisjunctionQuery(orGroup...))
		}
		orGroup = nil
	}

	for _, c := range clauses {
		var q query.Query
		switch c.Kind {
		case ClauseExt:
			extQ := bleve.NewTermQuery(strings.ToLower(c.Text))
			extQ.SetField(indexstore.FieldExt)
			q = extQ
		case ClausePhrase:
			q = phraseScopeQuery(c.Text, scope)
		case ClauseTerm:
			q = termScopeQuery(c.Text, scope)
		}
		if q == nil {
			continue
		}

		if c.Combinator == CombinatorOr && len(orGroup) > 0 {
			orGroup = append(orGroup, q)
		} else {
			flushOrGroup()
			orGroup = append(orGroup, q)
		}
	}
	flushOrGroup()

	if len(mustClauses) == 0 {
		return nil, nil
	}
	if len(mustClauses) == 1 {
		return mustClauses[0], nil
	}
	return bleve.NewConjunctionQuery(mustClauses...), nil
}

// termScopeQuery expands a free term into the scope-dependent
// disjunction of name/content field queries.
func termScopeQuery(term string, scope docmodel.Scope) query.Query {
	term = strings.ToLower(term)
	var disjuncts []query.Query

	if scope == docmodel.ScopeName || scope == docmodel.ScopeBoth {
		prefixQ := bleve.NewPrefixQuery(term)
		prefixQ.SetField(indexstore.FieldNameRaw)
		prefixQ.SetBoost(boostNameRawPrefix)
		disjuncts = append(disjuncts, prefixQ)

		nameTokQ := bleve.NewTermQuery(term)
		nameTokQ.SetField(indexstore.FieldNameTok)
		nameTokQ.SetBoost(boostNameTok)
		disjuncts = append(disjuncts, nameTokQ)
	}

	if scope == docmodel.ScopeContent || scope == docmodel.ScopeBoth {
		contentQ := bleve.NewTermQuery(term)
		contentQ.SetField(indexstore.FieldContent)
		contentQ.SetBoost(boostContent)
		disjuncts = append(disjuncts, contentQ)
	}

	if len(disjuncts) == 1 {
		return disjuncts[0]
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}

// phraseScopeQuery expands a quoted phrase the same way, using phrase
// queries on the tokenized fields only (name_tok, content); name_raw
// has no meaningful phrase semantics since it is a single untokenized
// term.
func phraseScopeQuery(phrase string, scope docmodel.Scope) query.Query {
	terms := strings.Fields(strings.ToLower(phrase))
	if len(terms) == 0 {
		return nil
	}

	var disjuncts []query.Query
	if scope == docmodel.ScopeName || scope == docmodel.ScopeBoth {
		nameQ := bleve.NewMatchPhraseQuery(strings.Join(terms, " "))
		nameQ.SetField(indexstore.FieldNameTok)
		nameQ.SetBoost(boostNameTok)
		disjuncts = append(disjuncts, nameQ)
	}
	if scope == docmodel.ScopeContent || scope == docmodel.ScopeBoth {
		contentQ := bleve.NewMatchPhraseQuery(strings.Join(terms, " "))
		contentQ.SetField(indexstore.FieldContent)
		contentQ.SetBoost(boostContent)
		disjuncts = append(disjuncts, contentQ)
	}

	if len(disjuncts) == 1 {
		return disjuncts[0]
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}
