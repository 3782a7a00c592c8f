// ABOUTME: Risk analyst agent variant: credit risk scoring conversations.
// ABOUTME: Risk/score/analyze intents emit an AnalyzeRisk action.

package agent

import "context"

// RiskAnalyst answers credit-risk questions and requests risk analyses.
type RiskAnalyst struct {
	desc Descriptor
}

// NewRiskAnalyst creates the builtin risk analyst variant.
func NewRiskAnalyst() *RiskAnalyst {
	return &RiskAnalyst{
		desc: Descriptor{
			ID:          "risk-analyst",
			DisplayName: "Risk Analyst",
			Persona:     "Quantitative credit analyst for tranche default risk.",
			Tags:        []string{"risk", "scoring", "credit"},
		},
	}
}

func (a *RiskAnalyst) Descriptor() Descriptor { return a.desc }

// Process routes on intent keywords. Any reasonable phrasing that asks
// about risk, scores, or analysis produces an AnalyzeRisk action.
func (a *RiskAnalyst) Process(_ context.Context, text string) (string, []Action, error) {
	switch {
	case containsAny(text, "risk", "score", "analyze", "analyse"):
		reply := "Running a fresh risk score analysis for your portfolio. " +
			"Your current risk score is computed from repayment history, pool " +
			"concentration, and tranche exposure; I'll confirm once the updated " +
			"risk score is attested."
		return reply, []Action{{
			Type: ActionAnalyzeRisk,
			Payload: map[string]any{
				"model":   "tranche-default-v2",
				"request": text,
			},
		}}, nil

	case containsAny(text, "improve", "better", "lower"):
		return "The fastest way to improve your standing is consistent " +
			"on-time repayment and diversifying out of the equity tranche. " +
			"Ask me to analyze your risk score for a concrete breakdown.", nil, nil

	default:
		return "I'm the risk analyst. I can analyze your risk score, explain " +
			"what drives it, and suggest how to improve it.", nil, nil
	}
}
