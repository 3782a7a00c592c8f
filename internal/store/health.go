// ABOUTME: HealthStore tracks signing-key health for the attestation provider.
// ABOUTME: Rotate is two-phase: rotating now, active after a scheduled delay.

package store

import (
	"errors"
	"sync"
	"time"
)

// ErrKeyNotFound indicates the referenced signing key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// KeyState is the lifecycle state of one signing key.
type KeyState string

const (
	KeyActive   KeyState = "active"
	KeyRotating KeyState = "rotating"
)

// KeyStatus is a point-in-time view of one signing key.
type KeyStatus struct {
	ID           string    `json:"id"`
	State        KeyState  `json:"state"`
	LastRotated  time.Time `json:"lastRotated"`
	NextRotation time.Time `json:"nextRotation"`
}

// HealthSnapshot is a point-in-time view of provider health.
type HealthSnapshot struct {
	Healthy      bool        `json:"healthy"`
	KeysActive   int         `json:"keysActive"`
	LastRotated  time.Time   `json:"lastRotated"`
	NextRotation time.Time   `json:"nextRotation"`
	Provider     string      `json:"provider"`
	Keys         []KeyStatus `json:"keys"`
}

// HealthStore owns signing-key health state. Rotation is the one
// genuinely two-phase transition in the gateway: Rotate marks the key
// rotating immediately and schedules the flip back to active as a
// continuation, never a blocking sleep.
type HealthStore struct {
	mu       sync.Mutex
	provider string
	keys     map[string]*keyRecord
	order    []string
	delay    time.Duration
	period   time.Duration
	timers   map[string]*time.Timer
	stopped  bool
}

type keyRecord struct {
	state        KeyState
	lastRotated  time.Time
	nextRotation time.Time
}

// NewHealthStore creates a store tracking the given key ids, all
// initially active. delay is how long a rotation stays in the rotating
// state; period is the advertised interval until the next rotation.
func NewHealthStore(provider string, keyIDs []string, delay, period time.Duration) *HealthStore {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	if period <= 0 {
		period = 24 * time.Hour
	}
	now := time.Now()
	s := &HealthStore{
		provider: provider,
		keys:     make(map[string]*keyRecord, len(keyIDs)),
		order:    append([]string(nil), keyIDs...),
		delay:    delay,
		period:   period,
		timers:   make(map[string]*time.Timer),
	}
	for _, id := range keyIDs {
		s.keys[id] = &keyRecord{
			state:        KeyActive,
			lastRotated:  now,
			nextRotation: now.Add(period),
		}
	}
	return s
}

// Get returns the current health snapshot. The provider is healthy when
// every key is active.
func (s *HealthStore) Get() HealthSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := HealthSnapshot{
		Healthy:  true,
		Provider: s.provider,
		Keys:     make([]KeyStatus, 0, len(s.order)),
	}
	for _, id := range s.order {
		k := s.keys[id]
		if k.state == KeyActive {
			snap.KeysActive++
		} else {
			snap.Healthy = false
		}
		if k.lastRotated.After(snap.LastRotated) {
			snap.LastRotated = k.lastRotated
		}
		if snap.NextRotation.IsZero() || k.nextRotation.Before(snap.NextRotation) {
			snap.NextRotation = k.nextRotation
		}
		snap.Keys = append(snap.Keys, KeyStatus{
			ID:           id,
			State:        k.state,
			LastRotated:  k.lastRotated,
			NextRotation: k.nextRotation,
		})
	}
	return snap
}

// Rotate marks the key rotating immediately and schedules the
// transition back to active after the configured delay, refreshing its
// validity timestamps. Rotating an already-rotating key just reschedules
// the completion.
func (s *HealthStore) Rotate(keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[keyID]
	if !ok {
		return ErrKeyNotFound
	}
	if s.stopped {
		return nil
	}

	k.state = KeyRotating
	if t, ok := s.timers[keyID]; ok {
		t.Stop()
	}
	s.timers[keyID] = time.AfterFunc(s.delay, func() {
		s.completeRotation(keyID)
	})
	return nil
}

// completeRotation is the scheduled continuation of Rotate.
func (s *HealthStore) completeRotation(keyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	k, ok := s.keys[keyID]
	if !ok {
		return
	}
	now := time.Now()
	k.state = KeyActive
	k.lastRotated = now
	k.nextRotation = now.Add(s.period)
	delete(s.timers, keyID)
}

// Stop cancels any in-flight rotation continuations. The store remains
// readable but no further state transitions occur.
func (s *HealthStore) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// KeyIDs returns the tracked key ids in registration order.
func (s *HealthStore) KeyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
