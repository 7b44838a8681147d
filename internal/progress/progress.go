// Package progress implements the observable crawl state: a single
// current-state record that callers can poll or subscribe to for
// pushed updates. The subscribe channel exists because both the CLI's
// progress display and the daemon's status surface need push updates
// rather than only polling.
package progress

import (
	"sync"
	"time"
)

// Phase identifies which part of the crawl pipeline is currently active.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInitial    Phase = "initial"
	PhaseBackground Phase = "background"
	PhaseCancelling Phase = "cancelling"
)

// State is an immutable snapshot of crawl progress.
type State struct {
	IsRunning       bool      `json:"is_running"`
	Phase           Phase     `json:"phase"`
	StatusText      string    `json:"status_text"`
	FilesIndexed    int       `json:"files_indexed"`
	FilesEnumerated int       `json:"files_enumerated"`
	LastCompletedAt time.Time `json:"last_completed_at,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// Broadcaster holds the current crawl State and fans updates out to any
// number of subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	state       State
	subscribers map[chan State]struct{}
}

// New creates a Broadcaster in the idle state.
func New() *Broadcaster {
	return &Broadcaster{
		state:       State{Phase: PhaseIdle},
		subscribers: make(map[chan State]struct{}),
	}
}

// Snapshot returns the current state.
func (b *Broadcaster) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Set replaces the current state and notifies subscribers. Subscribers
// that aren't ready to receive are skipped for this update rather than
// blocking the crawl.
func (b *Broadcaster) Set(s State) {
	b.mu.Lock()
	b.state = s
	subs := make([]chan State, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribe registers a channel that receives every future Set call.
// The returned func unsubscribes and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}
