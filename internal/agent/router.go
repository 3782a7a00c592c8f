// ABOUTME: Router is the single entry point for user messages to agents.
// ABOUTME: Resolves the handler, packages the reply, fans actions out async.

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ActionSink receives actions for asynchronous execution. Enqueue must
// not block on the effect: failures are the sink's to log, never the
// router's to surface.
type ActionSink interface {
	Enqueue(agentID string, action Action)
}

// Router dispatches user text to the registered handler and schedules
// the resulting actions without waiting on them.
type Router struct {
	registry *Registry
	sink     ActionSink
	logger   *slog.Logger
}

// NewRouter creates a Router. Pass nil logger for default.
func NewRouter(registry *Registry, sink ActionSink, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		sink:     sink,
		logger:   logger,
	}
}

// ProcessMessage resolves the agent, invokes it, and returns the agent
// reply stamped with the current time. Unknown agent ids fail
// synchronously with ErrAgentNotFound and dispatch nothing. Actions are
// handed to the sink before returning, but the reply never blocks on
// their execution.
func (r *Router) ProcessMessage(ctx context.Context, agentID, text string) (*Message, error) {
	handler, err := r.registry.Get(agentID)
	if err != nil {
		return nil, fmt.Errorf("routing message to %q: %w", agentID, err)
	}

	reply, actions, err := handler.Process(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", agentID, err)
	}

	msg := &Message{
		Role:      RoleAgent,
		Content:   reply,
		Timestamp: time.Now(),
		Actions:   actions,
	}

	for _, action := range actions {
		r.logger.Debug("scheduling action",
			"agent_id", agentID,
			"action", action.Type.String(),
		)
		r.sink.Enqueue(agentID, action)
	}

	return msg, nil
}
