// ABOUTME: Tests for HealthStore two-phase key rotation.
// ABOUTME: Covers snapshotting, rotating state, scheduled completion, Stop.

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStore_InitialSnapshot(t *testing.T) {
	s := NewHealthStore("sim-hsm", []string{"key-1", "key-2"}, time.Second, time.Hour)

	snap := s.Get()
	assert.True(t, snap.Healthy)
	assert.Equal(t, 2, snap.KeysActive)
	assert.Equal(t, "sim-hsm", snap.Provider)
	require.Len(t, snap.Keys, 2)
	assert.Equal(t, KeyActive, snap.Keys[0].State)
	assert.True(t, snap.NextRotation.After(time.Now()))
}

func TestHealthStore_RotateUnknownKey(t *testing.T) {
	s := NewHealthStore("sim-hsm", []string{"key-1"}, time.Second, time.Hour)

	err := s.Rotate("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestHealthStore_RotateIsTwoPhase(t *testing.T) {
	s := NewHealthStore("sim-hsm", []string{"key-1", "key-2"}, 50*time.Millisecond, time.Hour)
	before := s.Get().Keys[0].LastRotated

	require.NoError(t, s.Rotate("key-1"))

	// Immediately after: key-1 is rotating, provider unhealthy.
	snap := s.Get()
	assert.False(t, snap.Healthy)
	assert.Equal(t, 1, snap.KeysActive)
	assert.Equal(t, KeyRotating, snap.Keys[0].State)

	// Rotate must not block for the delay; the completion is scheduled.
	assert.Eventually(t, func() bool {
		return s.Get().Healthy
	}, time.Second, 10*time.Millisecond)

	snap = s.Get()
	assert.Equal(t, 2, snap.KeysActive)
	assert.True(t, snap.Keys[0].LastRotated.After(before), "validity timestamps must refresh")
}

func TestHealthStore_DoubleRotateReschedules(t *testing.T) {
	s := NewHealthStore("sim-hsm", []string{"key-1"}, 50*time.Millisecond, time.Hour)

	require.NoError(t, s.Rotate("key-1"))
	require.NoError(t, s.Rotate("key-1"))

	assert.Eventually(t, func() bool {
		return s.Get().Healthy
	}, time.Second, 10*time.Millisecond)
}

func TestHealthStore_StopCancelsPendingRotation(t *testing.T) {
	s := NewHealthStore("sim-hsm", []string{"key-1"}, 20*time.Millisecond, time.Hour)

	require.NoError(t, s.Rotate("key-1"))
	s.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, KeyRotating, s.Get().Keys[0].State, "no transition after Stop")
}

func TestHealthStore_KeyIDs(t *testing.T) {
	s := NewHealthStore("sim-hsm", []string{"b", "a"}, time.Second, time.Hour)
	assert.Equal(t, []string{"b", "a"}, s.KeyIDs())
}
