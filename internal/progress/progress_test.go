package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_InitialStateIsIdle(t *testing.T) {
	b := New()
	assert.Equal(t, PhaseIdle, b.Snapshot().Phase)
	assert.False(t, b.Snapshot().IsRunning)
}

func TestBroadcaster_SetUpdatesSnapshot(t *testing.T) {
	b := New()
	b.Set(State{IsRunning: true, Phase: PhaseInitial, FilesIndexed: 5})
	got := b.Snapshot()
	assert.True(t, got.IsRunning)
	assert.Equal(t, PhaseInitial, got.Phase)
	assert.Equal(t, 5, got.FilesIndexed)
}

func TestBroadcaster_SubscribeReceivesUpdates(t *testing.T) {
	b := New()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Set(State{IsRunning: true, Phase: PhaseBackground})

	select {
	case s := <-ch:
		assert.Equal(t, PhaseBackground, s.Phase)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroadcaster_SetDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := New()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	// Fill the subscriber's buffer without draining it.
	for i := 0; i < 20; i++ {
		b.Set(State{FilesIndexed: i})
	}
	require.NotNil(t, ch)
}
