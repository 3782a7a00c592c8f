// ABOUTME: Tests for the agent Registry.
// ABOUTME: Covers registration, duplicate ids, lookup, listing, builtins.

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	desc Descriptor
}

func (s *stubHandler) Descriptor() Descriptor { return s.desc }
func (s *stubHandler) Process(context.Context, string) (string, []Action, error) {
	return "ok", nil, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)
	h := &stubHandler{desc: Descriptor{ID: "stub", DisplayName: "Stub"}}

	require.NoError(t, r.Register(h))

	got, err := r.Get("stub")
	require.NoError(t, err)
	assert.Same(t, Handler(h), got)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry(nil)
	h := &stubHandler{desc: Descriptor{ID: "stub"}}

	require.NoError(t, r.Register(h))
	err := r.Register(h)
	assert.ErrorIs(t, err, ErrAgentAlreadyRegistered)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&stubHandler{desc: Descriptor{ID: "zeta"}}))
	require.NoError(t, r.Register(&stubHandler{desc: Descriptor{ID: "alpha"}}))

	got := r.List()
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].ID)
	assert.Equal(t, "zeta", got[1].ID)
}

func TestDefaultRegistry_HasFiveVariants(t *testing.T) {
	r, err := DefaultRegistry(Deps{Market: &fakeMarket{}, News: &fakeNews{}}, nil)
	require.NoError(t, err)

	ids := make([]string, 0, 5)
	for _, d := range r.List() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{
		"confidential-compute",
		"identity-agent",
		"market-bot",
		"research-agent",
		"risk-analyst",
	}, ids)
}

func TestDefaultRegistry_CallersNeverBranchOnVariant(t *testing.T) {
	r, err := DefaultRegistry(Deps{Market: &fakeMarket{}, News: &fakeNews{}}, nil)
	require.NoError(t, err)

	// Every variant satisfies the same contract through the interface.
	for _, d := range r.List() {
		h, err := r.Get(d.ID)
		require.NoError(t, err)

		reply, _, err := h.Process(t.Context(), "hello")
		require.NoError(t, err)
		assert.NotEmpty(t, reply)
	}
}

func TestDefaultRegistry_FailsOnBrokenDeps(t *testing.T) {
	// A registry whose market feed errors still constructs; handlers
	// degrade at Process time instead.
	r, err := DefaultRegistry(Deps{Market: &fakeMarket{err: errors.New("down")}, News: &fakeNews{}}, nil)
	require.NoError(t, err)

	h, err := r.Get("market-bot")
	require.NoError(t, err)

	reply, _, err := h.Process(t.Context(), "what is the price?")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}
