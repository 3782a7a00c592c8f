// ABOUTME: Core agent types: descriptors, messages, and the closed action set.
// ABOUTME: Defines the Handler contract implemented by every agent variant.

package agent

import (
	"context"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ActionType is the closed set of side effects an agent may request.
// The dispatcher switches exhaustively over these; adding a kind is a
// compile-time-checked change.
type ActionType int

const (
	ActionAnalyzeRisk ActionType = iota
	ActionPredictPrice
	ActionAlertUser
	ActionExecuteTrade
	ActionAttestIdentity
)

// String returns the wire name of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionAnalyzeRisk:
		return "analyze-risk"
	case ActionPredictPrice:
		return "predict-price"
	case ActionAlertUser:
		return "alert-user"
	case ActionExecuteTrade:
		return "execute-trade"
	case ActionAttestIdentity:
		return "attest-identity"
	default:
		return "unknown"
	}
}

// Action is a structured side-effect request emitted by a handler.
// It is consumed exactly once by the dispatcher, then discarded.
type Action struct {
	Type    ActionType
	Payload map[string]any
}

// Message is one turn of a conversation. Actions is only populated on
// agent-authored messages.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Actions   []Action  `json:"-"`
}

// Descriptor is the immutable identity of an agent variant. Created
// once at process start, never mutated.
type Descriptor struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Persona     string   `json:"persona"`
	Tags        []string `json:"tags,omitempty"`
}

// Handler is one stateless agent variant. Process maps the user's text
// to a reply and the actions to apply. Handlers are deterministic in
// their inputs except where they consult a read-only collaborator; they
// must not touch shared stores.
type Handler interface {
	Descriptor() Descriptor
	Process(ctx context.Context, text string) (reply string, actions []Action, err error)
}
