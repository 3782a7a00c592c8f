// ABOUTME: Per-connection session: event channel, cancellation group,
// ABOUTME: command rate limiter. Owned exclusively by the Manager.

package broadcast

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Session is the bundle of scheduled work tied to one live connection.
// It exists from Connect until Close; nothing may hold one past Close.
type Session struct {
	id      string
	events  chan Event
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	onClose func()
}

// ID returns the connection id assigned at Connect.
func (s *Session) ID() string {
	return s.id
}

// Events is the channel the transport drains. It is closed exactly once
// when the session closes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when the session's cancellation group fires.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// send delivers an event without blocking. Returns false if the session
// is closed or the client is too slow to drain its buffer; slow
// consumers lose events rather than stalling the broadcaster.
func (s *Session) send(ev Event) bool {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false
	}
	// Hold the read lock across the send so Close cannot close the
	// channel underneath us.
	select {
	case s.events <- ev:
		s.mu.RUnlock()
		return true
	default:
		s.mu.RUnlock()
		return false
	}
}

// Close tears the session down: cancels every schedule in its
// cancellation group, closes the event channel, and unregisters from
// the manager. Safe to call more than once; double-close is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	close(s.events)
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// allowCommand applies the per-session command rate limit.
func (s *Session) allowCommand() bool {
	return s.limiter.Allow()
}
