// Package cmd provides the CLI commands for my-search-buddy.
package cmd

import (
	"fmt"

	"github.com/DrDavidL/my-search-buddy/internal/config"
	"github.com/DrDavidL/my-search-buddy/internal/crawl"
	"github.com/DrDavidL/my-search-buddy/internal/idxlock"
	"github.com/DrDavidL/my-search-buddy/internal/ignore"
	"github.com/DrDavidL/my-search-buddy/internal/query"
	"github.com/DrDavidL/my-search-buddy/internal/statedb"
	"github.com/DrDavidL/my-search-buddy/pkg/indexer"
	"github.com/DrDavidL/my-search-buddy/pkg/searcher"
)

// app bundles the components a local (non-daemon) command needs: the
// index/dedup/state stores opened once, wired into a Pipeline, Indexer
// and Searcher the way the daemon wires its own Backend.
type app struct {
	cfg      *config.Config
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	pipeline *crawl.Pipeline
	state    *statedb.DB
	lock     *idxlock.Lock
}

// openApp loads configuration for root and opens the on-disk index,
// dedup cache, and state database backing every local command.
func openApp(root string) (*app, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	ix, err := indexer.InitIndex(cfg.IndexDir)
	if err != nil {
		return nil, err
	}

	state, err := statedb.Open(cfg.IndexDir + ".state.db")
	if err != nil {
		_ = ix.Close()
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	lock := idxlock.New(cfg.DataDir)

	noise := ignore.New(cfg.ExcludeNoiseDirs)
	pipeline := crawl.New(ix.Store(), ix.Dedup(), state, cfg.Sampling, cfg.Crawl, noise, lock)

	planner := query.New(ix.Store())
	s := searcher.New(planner)

	return &app{cfg: cfg, indexer: ix, searcher: s, pipeline: pipeline, state: state, lock: lock}, nil
}

// Close releases everything openApp opened.
func (a *app) Close() error {
	stateErr := a.state.Close()
	if err := a.indexer.Close(); err != nil {
		return err
	}
	return stateErr
}
