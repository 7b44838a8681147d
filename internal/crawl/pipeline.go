// Package crawl implements the crawl pipeline: the ingest loop that
// enumerates roots, buckets files by recency, drives the dedup cache,
// content sampler, and index store, and manages phasing, cancellation,
// and commit cadence.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/DrDavidL/my-search-buddy/internal/apperrors"
	"github.com/DrDavidL/my-search-buddy/internal/cloudsync"
	"github.com/DrDavidL/my-search-buddy/internal/config"
	"github.com/DrDavidL/my-search-buddy/internal/dedup"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/idxlock"
	"github.com/DrDavidL/my-search-buddy/internal/ignore"
	"github.com/DrDavidL/my-search-buddy/internal/indexstore"
	"github.com/DrDavidL/my-search-buddy/internal/progress"
	"github.com/DrDavidL/my-search-buddy/internal/sample"
	"github.com/DrDavidL/my-search-buddy/internal/statedb"
)

// ErrAlreadyRunning is returned by Start when a crawl is already in
// progress; the crawl worker slot serializes initial and background
// phases).
var ErrAlreadyRunning = errors.New("crawl already running")

// AutoIncrementalSuppressed is returned by RequestIncrementalIfNeeded
// when the 60s rate limit (or an in-progress crawl) suppresses a new
// auto-triggered incremental crawl.
var AutoIncrementalSuppressed = errors.New("auto-incremental suppressed: rate limited or already running")

// Pipeline drives the crawl ingest loop.
type Pipeline struct {
	store    *indexstore.Store
	dedup    *dedup.Cache
	state    *statedb.DB
	sampling config.SamplingConfig
	crawlCfg config.CrawlConfig
	noise    *ignore.Matcher
	lock     *idxlock.Lock
	prog     *progress.Broadcaster
	cloud    *cloudsync.Tracker

	mu                     sync.Mutex
	running                bool
	cancelFn               context.CancelFunc
	lastIncrementalAttempt time.Time

	winMu         sync.Mutex
	scheduleTimer *time.Timer
}

// New builds a Pipeline over an already-opened store, dedup cache, and
// state database.
func New(store *indexstore.Store, dedupCache *dedup.Cache, state *statedb.DB, sampling config.SamplingConfig, crawlCfg config.CrawlConfig, noise *ignore.Matcher, lock *idxlock.Lock) *Pipeline {
	return &Pipeline{
		store:    store,
		dedup:    dedupCache,
		state:    state,
		sampling: sampling,
		crawlCfg: crawlCfg,
		noise:    noise,
		lock:     lock,
		prog:     progress.New(),
		cloud:    cloudsync.NewTracker(),
	}
}

// Progress returns the observable state broadcaster.
func (p *Pipeline) Progress() *progress.Broadcaster { return p.prog }

// CloudPlaceholders returns the shared observable cloud-placeholder set.
func (p *Pipeline) CloudPlaceholders() *cloudsync.Tracker { return p.cloud }

// IsRunning reports whether a crawl is currently in progress.
func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins a crawl over roots. Blocks until the crawl (and any
// auto-chained background phase) finishes, is cancelled, or errors;
// callers wanting a non-blocking start should invoke Start in their own
// goroutine and observe Progress().
func (p *Pipeline) Start(ctx context.Context, roots []string, mode Mode, phase progress.Phase, scheduled bool) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.running = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.cancelFn = nil
		p.mu.Unlock()
	}()

	return p.runPhaseChain(runCtx, roots, mode, phase)
}

// Cancel cooperatively halts the current crawl. Safe to call when no
// crawl is running.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	cancel := p.cancelFn
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ResetAndStart wipes the index and dedup cache, then starts a full
// initial-phase crawl.
func (p *Pipeline) ResetAndStart(ctx context.Context, roots []string) error {
	if err := p.store.Reset(); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	if err := p.dedup.Reset(); err != nil {
		return fmt.Errorf("failed to reset dedup cache: %w", err)
	}
	if err := p.state.ResetBuckets(); err != nil {
		return fmt.Errorf("failed to reset bucket progress: %w", err)
	}
	return p.Start(ctx, roots, ModeFull, progress.PhaseInitial, false)
}

// RequestIncrementalIfNeeded auto-triggers an incremental crawl unless
// one ran in the last auto_incremental_min_interval_s seconds or is
// already in progress.
func (p *Pipeline) RequestIncrementalIfNeeded(ctx context.Context, roots []string) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return AutoIncrementalSuppressed
	}
	minInterval := time.Duration(p.crawlCfg.AutoIncrementalMinInterval) * time.Second
	if !p.lastIncrementalAttempt.IsZero() && time.Since(p.lastIncrementalAttempt) < minInterval {
		p.mu.Unlock()
		return AutoIncrementalSuppressed
	}
	p.lastIncrementalAttempt = time.Now()
	p.mu.Unlock()

	return p.Start(ctx, roots, ModeIncremental, progress.PhaseInitial, false)
}

// runPhaseChain runs phase, and if it completes successfully (not
// cancelled) and phase was initial, auto-chains into background with
// the same roots and mode.
func (p *Pipeline) runPhaseChain(ctx context.Context, roots []string, mode Mode, phase progress.Phase) error {
	completed, err := p.runPhase(ctx, roots, mode, phase)
	if err != nil {
		return err
	}
	if completed && phase == progress.PhaseInitial {
		completed, err = p.runPhase(ctx, roots, mode, progress.PhaseBackground)
		if err != nil {
			return err
		}
	}
	if completed {
		if mode == ModeFull {
			if err := p.state.ResetBuckets(); err != nil {
				slog.Warn("failed to clear bucket progress after full crawl", slog.String("error", err.Error()))
			}
		}
		now := time.Now()
		if err := p.state.SetLastCompletedAt(now.Unix()); err != nil {
			slog.Warn("failed to record last_completed_at", slog.String("error", err.Error()))
		}
		p.prog.Set(progress.State{IsRunning: false, Phase: progress.PhaseIdle, StatusText: "idle", LastCompletedAt: now})
	}
	return nil
}

func (p *Pipeline) bucketsFor(phase progress.Phase) []docmodel.Bucket {
	if phase == progress.PhaseInitial {
		return docmodel.InitialPhaseBuckets
	}
	return docmodel.BackgroundPhaseBuckets
}

// runPhase runs one phase (initial or background) to completion or
// cancellation, returning completed=true only if it ran to the end
// without cancellation.
func (p *Pipeline) runPhase(ctx context.Context, roots []string, mode Mode, phase progress.Phase) (bool, error) {
	var sinceCutoff int64
	haveSince := false
	if mode == ModeIncremental {
		if ts, ok, err := p.state.LastCompletedAt(); err == nil && ok {
			sinceCutoff = ts
			haveSince = true
		}
	}

	ordered := sortRoots(roots)
	buckets := p.bucketsFor(phase)
	enumCap := 0
	if phase == progress.PhaseInitial {
		enumCap = p.crawlCfg.InitialPhaseEnumerationCap
	}

	filesIndexed := 0
	commitInterval := time.Duration(p.crawlCfg.InitialCommitIntervalS) * time.Second
	commitBatch := p.crawlCfg.InitialCommitBatch
	if phase == progress.PhaseBackground {
		commitInterval = time.Duration(p.crawlCfg.BackgroundCommitIntervalS) * time.Second
		commitBatch = 0 // background commits only on interval, full write buffer, or bucket boundary
	}

	pendingFP := make(map[string]dedup.Fingerprint)
	lastCommit := time.Now()
	sinceLastCommit := 0

	p.prog.Set(progress.State{IsRunning: true, Phase: phase, StatusText: fmt.Sprintf("%s crawl starting", mode)})

	now := time.Now()
	for bIdx, bucket := range buckets {
		for _, root := range ordered {
			select {
			case <-ctx.Done():
				return p.finishCancelled(ctx, pendingFP, filesIndexed)
			default:
			}

			if mode == ModeFull {
				if idx, ok, err := p.state.NextBucketIndex(root, string(phase)); err == nil && ok && idx > bIdx {
					// This root already finished this bucket in a prior,
					// interrupted run of this phase; skip straight to
					// wherever it left off.
					continue
				}
			}

			byBucket, err := enumerateRoot(root, enumCap, p.noise, p.cloud, now)
			if err != nil {
				var appErr *apperrors.Error
				if !errors.As(err, &appErr) {
					appErr = apperrors.PermanentIO("crawl.runPhase", root, err)
				}
				logAppError(appErr)
				continue
			}

			for _, entry := range byBucket[bucket] {
				select {
				case <-ctx.Done():
					return p.finishCancelled(ctx, pendingFP, filesIndexed)
				default:
				}

				handled, err := p.handleEntry(ctx, entry, haveSince, sinceCutoff, pendingFP)
				if err != nil {
					var appErr *apperrors.Error
					if !errors.As(err, &appErr) {
						appErr = apperrors.TransientIO("crawl.handleEntry", entry.path, err)
					}
					logAppError(appErr)
					continue
				}
				if handled {
					filesIndexed++
					sinceLastCommit++
				}

				dueByTime := time.Since(lastCommit) >= commitInterval
				dueByBatch := commitBatch > 0 && sinceLastCommit >= commitBatch
				// A full write buffer blocks the next AddOrReplace until a
				// commit drains it, and only this loop commits.
				dueByBuffer := p.store.PendingCount() >= indexstore.DefaultMaxBatchDocs
				if dueByTime || dueByBatch || dueByBuffer {
					if err := p.commit(ctx, pendingFP); err != nil {
						slog.Warn("commit_failed", slog.String("error", err.Error()))
					} else {
						sinceLastCommit = 0
						lastCommit = time.Now()
					}
					p.prog.Set(progress.State{IsRunning: true, Phase: phase, StatusText: "indexing", FilesIndexed: filesIndexed})
				}
			}

			if mode == ModeFull {
				if err := p.state.SetNextBucketIndex(root, string(phase), bIdx+1); err != nil {
					slog.Warn("failed to persist bucket progress", slog.String("root", root), slog.String("error", err.Error()))
				}
			}
		}

		// Every bucket ends with an unconditional commit.
		if err := p.commit(ctx, pendingFP); err != nil {
			slog.Warn("bucket_commit_failed", slog.String("bucket", bucket.String()), slog.String("error", err.Error()))
		}
		p.prog.Set(progress.State{IsRunning: true, Phase: phase, StatusText: fmt.Sprintf("completed bucket %s", bucket), FilesIndexed: filesIndexed})
	}

	return true, nil
}

func (p *Pipeline) finishCancelled(ctx context.Context, pendingFP map[string]dedup.Fingerprint, filesIndexed int) (bool, error) {
	p.prog.Set(progress.State{IsRunning: true, Phase: progress.PhaseCancelling, StatusText: "cancelling", FilesIndexed: filesIndexed})
	// Best-effort final commit.
	commitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.commit(commitCtx, pendingFP); err != nil {
		slog.Warn("cancellation_commit_failed", slog.String("error", err.Error()))
	}
	p.prog.Set(progress.State{IsRunning: false, Phase: progress.PhaseIdle, StatusText: "cancelled", FilesIndexed: filesIndexed})
	return false, nil
}

// handleEntry runs the per-file dedup, sample, and index steps.
func (p *Pipeline) handleEntry(ctx context.Context, entry fileEntry, haveSince bool, sinceCutoff int64, pendingFP map[string]dedup.Fingerprint) (bool, error) {
	// Step 1: since cutoff.
	if haveSince && entry.mtimeS <= sinceCutoff {
		return false, nil
	}

	// Step 2 already applied during enumeration (cloud tracker updated).

	// Step 3: zero-size non-placeholder files are skipped.
	if entry.size == 0 && !entry.isCloud {
		return false, nil
	}

	// Step 4: dedup check.
	if !p.dedup.NeedsReindex(entry.path, entry.mtimeS, entry.size) {
		return false, nil
	}

	// Step 5: sample content for non-placeholders.
	var content string
	if !entry.isCloud {
		f, err := os.Open(entry.path)
		if err != nil {
			return false, fmt.Errorf("open %s: %w", entry.path, err)
		}
		result, sampleErr := sample.Sample(f, int64(entry.size), p.sampling)
		closeErr := f.Close()
		if sampleErr != nil {
			return false, fmt.Errorf("sample %s: %w", entry.path, sampleErr)
		}
		if closeErr != nil {
			slog.Debug("close_failed", slog.String("path", entry.path), slog.String("error", closeErr.Error()))
		}
		if !result.Skipped {
			content = result.Content
		}
	}

	// Step 6: submit to the index store.
	doc := &docmodel.Document{
		Path:    entry.path,
		Name:    entry.name,
		Ext:     docmodel.NormalizedExt(entry.ext),
		Content: content,
		MtimeS:  entry.mtimeS,
		Size:    entry.size,
		Inode:   entry.inode,
		Dev:     entry.dev,
	}
	if err := p.store.AddOrReplace(ctx, doc); err != nil {
		return false, fmt.Errorf("stage %s: %w", entry.path, err)
	}
	pendingFP[entry.path] = dedup.Fingerprint{MtimeS: entry.mtimeS, Size: entry.size}
	return true, nil
}

// commit flushes the store's staged batch, then, only on success,
// records dedup fingerprints for everything just committed (dedup must
// never mark a path clean before its document is durably visible).
func (p *Pipeline) commit(ctx context.Context, pendingFP map[string]dedup.Fingerprint) error {
	if len(pendingFP) == 0 {
		return p.store.Commit(ctx)
	}
	if err := p.store.Commit(ctx); err != nil {
		return err
	}
	for path, fp := range pendingFP {
		if err := p.dedup.Record(path, fp.MtimeS, fp.Size); err != nil {
			slog.Warn("dedup_record_failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		delete(pendingFP, path)
	}
	return nil
}
