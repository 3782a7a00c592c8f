// ABOUTME: Confidential-compute agent variant: enclave scoring conversations.
// ABOUTME: Attestation/proof intents emit a hardware-tagged AttestIdentity action.

package agent

import "context"

// ConfidentialComputeAgent explains and requests enclave-backed scoring
// runs. Attestation requests it raises are tagged as hardware
// attestation, distinguishing them from credential-based identity
// checks.
type ConfidentialComputeAgent struct {
	desc Descriptor
}

// NewConfidentialComputeAgent creates the builtin confidential-compute variant.
func NewConfidentialComputeAgent() *ConfidentialComputeAgent {
	return &ConfidentialComputeAgent{
		desc: Descriptor{
			ID:          "confidential-compute",
			DisplayName: "Confidential Compute Agent",
			Persona:     "TEE operator for private credit scoring jobs.",
			Tags:        []string{"tee", "attestation", "privacy"},
		},
	}
}

func (a *ConfidentialComputeAgent) Descriptor() Descriptor { return a.desc }

func (a *ConfidentialComputeAgent) Process(_ context.Context, text string) (string, []Action, error) {
	switch {
	case containsAny(text, "attest", "proof", "prove", "enclave", "tee", "verify"):
		reply := "Generating a hardware attestation for the enclave that runs " +
			"your scoring jobs. The attestation quote binds the enclave " +
			"measurement to this session."
		return reply, []Action{{
			Type: ActionAttestIdentity,
			Payload: map[string]any{
				"method":  "hardware-attestation",
				"enclave": "score-enclave-1",
			},
		}}, nil

	case containsAny(text, "private", "confidential", "secure"):
		return "Your raw financial data never leaves the enclave. Only the " +
			"score and its attestation are released. Ask me for an attestation " +
			"proof if you want to verify the enclave yourself.", nil, nil

	default:
		return "I'm the confidential compute agent. I run scoring jobs inside " +
			"a TEE and can produce attestation proofs for them.", nil, nil
	}
}
