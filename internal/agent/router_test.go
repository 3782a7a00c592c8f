// ABOUTME: Tests for the message Router.
// ABOUTME: Covers unknown agents, reply packaging, and non-blocking dispatch.

package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures enqueued actions without executing anything.
type recordingSink struct {
	mu      sync.Mutex
	actions []Action
	agents  []string
}

func (s *recordingSink) Enqueue(agentID string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = append(s.agents, agentID)
	s.actions = append(s.actions, action)
}

func (s *recordingSink) snapshot() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.actions...)
}

// hangingSink blocks forever inside the effect, but Enqueue itself
// returns immediately, mirroring the production dispatcher.
type hangingSink struct {
	started chan struct{}
}

func (s *hangingSink) Enqueue(string, Action) {
	go func() {
		close(s.started)
		select {} // effect never completes
	}()
}

func newTestRouter(t *testing.T, sink ActionSink) *Router {
	t.Helper()
	r, err := DefaultRegistry(Deps{Market: &fakeMarket{}, News: &fakeNews{}}, nil)
	require.NoError(t, err)
	return NewRouter(r, sink, nil)
}

func TestRouter_UnknownAgentDispatchesNothing(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(t, sink)

	msg, err := router.ProcessMessage(t.Context(), "no-such-agent", "hello")
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.Nil(t, msg)
	assert.Empty(t, sink.snapshot())
}

func TestRouter_PackagesAgentReply(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(t, sink)

	before := time.Now()
	msg, err := router.ProcessMessage(t.Context(), "risk-analyst", "Analyze my risk score")
	require.NoError(t, err)

	assert.Equal(t, RoleAgent, msg.Role)
	assert.Contains(t, msg.Content, "risk score")
	assert.False(t, msg.Timestamp.Before(before))
	require.Len(t, msg.Actions, 1)
	assert.Equal(t, ActionAnalyzeRisk, msg.Actions[0].Type)
}

func TestRouter_ActionsReachSinkBeforeReturn(t *testing.T) {
	sink := &recordingSink{}
	router := newTestRouter(t, sink)

	_, err := router.ProcessMessage(t.Context(), "market-bot", "buy 100 senior")
	require.NoError(t, err)

	got := sink.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, ActionExecuteTrade, got[0].Type)
}

func TestRouter_ReplyIndependentOfHangingDispatch(t *testing.T) {
	sink := &hangingSink{started: make(chan struct{})}
	router := newTestRouter(t, sink)

	done := make(chan struct{})
	go func() {
		defer close(done)
		msg, err := router.ProcessMessage(context.Background(), "risk-analyst", "analyze my score")
		assert.NoError(t, err)
		assert.NotNil(t, msg)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reply blocked on a hanging action effect")
	}

	select {
	case <-sink.started:
	case <-time.After(time.Second):
		t.Fatal("action was never handed to the sink")
	}
}
