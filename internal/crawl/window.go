package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/DrDavidL/my-search-buddy/internal/progress"
)

const (
	windowStartHour = 2
	windowEndHour   = 4
)

// InWindow reports whether t's local time falls in the 02:00-04:00
// scheduled window.
func InWindow(t time.Time) bool {
	h := t.Local().Hour()
	return h >= windowStartHour && h < windowEndHour
}

// nextWindowStart computes the next local 02:00 at or after t.
func nextWindowStart(t time.Time) time.Time {
	t = t.Local()
	next := time.Date(t.Year(), t.Month(), t.Day(), windowStartHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunScheduledIncremental runs an incremental crawl immediately if
// called inside the 02:00-04:00 window, or arms a single-shot timer for
// the next window start otherwise. The timer
// is owned by the pipeline, independent of the crawl worker's own
// lifecycle, and is cleared by CancelScheduledWindow or by a
// subsequent call to this method.
func (p *Pipeline) RunScheduledIncremental(ctx context.Context, roots []string, enabled bool) {
	if !enabled {
		p.CancelScheduledWindow()
		return
	}

	now := time.Now()
	if InWindow(now) {
		if err := p.Start(ctx, roots, ModeIncremental, progress.PhaseInitial, true); err != nil {
			slog.Debug("scheduled_incremental_skipped", slog.String("error", err.Error()))
		}
		return
	}

	p.winMu.Lock()
	defer p.winMu.Unlock()
	if p.scheduleTimer != nil {
		p.scheduleTimer.Stop()
	}
	delay := time.Until(nextWindowStart(now))
	p.scheduleTimer = time.AfterFunc(delay, func() {
		if err := p.Start(ctx, roots, ModeIncremental, progress.PhaseInitial, true); err != nil {
			slog.Debug("scheduled_incremental_skipped", slog.String("error", err.Error()))
		}
	})
}

// CancelScheduledWindow clears any armed single-shot window timer.
func (p *Pipeline) CancelScheduledWindow() {
	p.winMu.Lock()
	defer p.winMu.Unlock()
	if p.scheduleTimer != nil {
		p.scheduleTimer.Stop()
		p.scheduleTimer = nil
	}
}
