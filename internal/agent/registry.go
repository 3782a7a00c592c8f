// ABOUTME: Thread-safe registry of agent handler variants keyed by agent id.
// ABOUTME: Populated once at startup; lookups drive all message routing.

package agent

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// ErrAgentAlreadyRegistered indicates a handler with the same id exists.
var ErrAgentAlreadyRegistered = errors.New("agent already registered")

// ErrAgentNotFound indicates the specified agent was not found.
var ErrAgentNotFound = errors.New("agent not found")

// Registry holds the fixed set of agent handlers. It is populated at
// process start and read-only afterwards, but registration is guarded
// so tests can build isolated instances freely.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty Registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register adds a handler keyed by its descriptor id.
// Returns ErrAgentAlreadyRegistered on duplicate ids.
func (r *Registry) Register(h Handler) error {
	desc := h.Descriptor()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[desc.ID]; exists {
		return ErrAgentAlreadyRegistered
	}
	r.handlers[desc.ID] = h

	r.logger.Info("agent registered",
		"agent_id", desc.ID,
		"name", desc.DisplayName,
		"tags", desc.Tags,
		"total_agents", len(r.handlers),
	)
	return nil
}

// Get retrieves a handler by agent id.
// Returns ErrAgentNotFound if no handler is registered under the id.
func (r *Registry) Get(agentID string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[agentID]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return h, nil
}

// List returns the descriptors of all registered agents, sorted by id.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Deps carries the read-only collaborators the builtin variants consult.
type Deps struct {
	Market MarketData
	News   NewsFetcher
}

// DefaultRegistry builds a registry with the five builtin variants.
func DefaultRegistry(deps Deps, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(logger)
	builtins := []Handler{
		NewRiskAnalyst(),
		NewMarketBot(deps.Market),
		NewResearchAgent(deps.News),
		NewConfidentialComputeAgent(),
		NewIdentityAgent(),
	}
	for _, h := range builtins {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}
