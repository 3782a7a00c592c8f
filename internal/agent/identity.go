// ABOUTME: Identity agent variant: credential verification conversations.
// ABOUTME: Identity/verify intents emit a credential-tagged AttestIdentity action.

package agent

import "context"

// IdentityAgent handles identity verification requests.
type IdentityAgent struct {
	desc Descriptor
}

// NewIdentityAgent creates the builtin identity variant.
func NewIdentityAgent() *IdentityAgent {
	return &IdentityAgent{
		desc: Descriptor{
			ID:          "identity-agent",
			DisplayName: "Identity Agent",
			Persona:     "Credential verifier for marketplace participants.",
			Tags:        []string{"identity", "kyc"},
		},
	}
}

func (a *IdentityAgent) Descriptor() Descriptor { return a.desc }

func (a *IdentityAgent) Process(_ context.Context, text string) (string, []Action, error) {
	switch {
	case containsAny(text, "identity", "verify", "verification", "kyc", "credential"):
		reply := "Starting identity verification. Your credential will be " +
			"checked and the attestation recorded against your wallet."
		return reply, []Action{{
			Type: ActionAttestIdentity,
			Payload: map[string]any{
				"method": "zk-credential",
				"scope":  "marketplace-participant",
			},
		}}, nil

	case containsAny(text, "status", "progress"):
		return "Verification status is attached to your wallet profile; any " +
			"completed attestation shows up there within a minute.", nil, nil

	default:
		return "I'm the identity agent. I can verify your identity and attest " +
			"the result for the marketplace.", nil, nil
	}
}
