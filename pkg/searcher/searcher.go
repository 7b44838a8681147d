// Package searcher exposes the read half of the core API surface:
// search and free_results, wrapping the query planner. This domain's
// ranking model has no semantic leg, so there is no vector fusion step.
package searcher

import (
	"context"
	"time"

	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/query"
	"github.com/DrDavidL/my-search-buddy/internal/telemetry"
)

// Query is the wire shape of a search request.
type Query struct {
	Q     string
	Glob  string
	Scope docmodel.Scope
	Limit int32
}

// Results is the wire shape of a search response.
type Results struct {
	Hits []docmodel.Hit
}

// Searcher wraps a query.Planner as the read-side facade, recording
// every search's latency and result count so the sub-150ms p95 search
// target is a checkable claim rather than an aspiration.
type Searcher struct {
	planner  *query.Planner
	recorder *telemetry.Recorder
}

// New wraps an already-constructed query planner.
func New(planner *query.Planner) *Searcher {
	return &Searcher{planner: planner, recorder: telemetry.NewRecorder()}
}

// Search runs q against the underlying planner.
func (s *Searcher) Search(ctx context.Context, q Query) (Results, error) {
	start := time.Now()
	hits, err := s.planner.Search(ctx, query.Request{
		Query: q.Q,
		Scope: q.Scope,
		Glob:  q.Glob,
		Limit: int(q.Limit),
	})
	if err != nil {
		return Results{}, err
	}
	s.recorder.Record(q.Q, len(hits), time.Since(start), start)
	return Results{Hits: hits}, nil
}

// Telemetry returns the latency/zero-result snapshot for searches run
// through this Searcher.
func (s *Searcher) Telemetry() telemetry.Snapshot {
	return s.recorder.Snapshot()
}

// FreeResults is a no-op: Go's garbage collector reclaims Results
// automatically. It exists so callers translating from a
// reference-counted host language have a symmetric call to make.
func FreeResults(_ Results) {}
