package statedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDB_UnknownRoot_NotOK(t *testing.T) {
	d := newTestDB(t)
	_, ok, err := d.NextBucketIndex("/home/u", "initial")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_SetAndReadNextBucketIndex(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.SetNextBucketIndex("/home/u", "background", 2))
	idx, ok, err := d.NextBucketIndex("/home/u", "background")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestDB_NextBucketIndex_ScopedPerPhase(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.SetNextBucketIndex("/home/u", "initial", 1))
	idx, ok, err := d.NextBucketIndex("/home/u", "background")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok, err = d.NextBucketIndex("/home/u", "initial")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestDB_NextBucketIndex_ScopedPerRoot(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.SetNextBucketIndex("/home/a", "background", 3))
	_, ok, err := d.NextBucketIndex("/home/b", "background")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_SetNextBucketIndex_Overwrites(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.SetNextBucketIndex("/home/u", "background", 1))
	require.NoError(t, d.SetNextBucketIndex("/home/u", "background", 2))
	idx, ok, err := d.NextBucketIndex("/home/u", "background")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestDB_ResetBuckets(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.SetNextBucketIndex("/home/u", "background", 3))
	require.NoError(t, d.ResetBuckets())
	_, ok, err := d.NextBucketIndex("/home/u", "background")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_LastCompletedAt_DefaultsToNotOK(t *testing.T) {
	d := newTestDB(t)
	_, ok, err := d.LastCompletedAt()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_SetAndReadLastCompletedAt(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.SetLastCompletedAt(1700000000))
	ts, ok, err := d.LastCompletedAt()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), ts)
}

func TestDB_ScheduleWindowEnabled_DefaultsTrue(t *testing.T) {
	d := newTestDB(t)
	enabled, err := d.ScheduleWindowEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestDB_ScheduleWindowEnabled_RoundTrips(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.SetScheduleWindowEnabled(false))
	enabled, err := d.ScheduleWindowEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}
