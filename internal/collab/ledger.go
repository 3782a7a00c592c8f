// ABOUTME: Simulated ledger collaborator for trade execution.
// ABOUTME: Produces fake transaction references with plausible latency.

package collab

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// TradeReceipt is the ledger's acknowledgement of an executed trade.
type TradeReceipt struct {
	TxRef      string    `json:"txRef"`
	Tranche    string    `json:"tranche"`
	Amount     float64   `json:"amount"`
	ExecutedAt time.Time `json:"executedAt"`
}

// SimLedger simulates the ledger-effecting trade call. No real chain is
// involved; the receipt carries a random transaction reference.
type SimLedger struct {
	latency time.Duration
}

// NewSimLedger creates a simulated ledger with the given call latency.
func NewSimLedger(latency time.Duration) *SimLedger {
	return &SimLedger{latency: latency}
}

// ExecuteTrade simulates settling a trade on the ledger.
// Honors context cancellation during the simulated settlement delay.
func (l *SimLedger) ExecuteTrade(ctx context.Context, tranche string, amount float64) (TradeReceipt, error) {
	if tranche == "" {
		return TradeReceipt{}, fmt.Errorf("executing trade: tranche is required")
	}
	if amount <= 0 {
		return TradeReceipt{}, fmt.Errorf("executing trade: amount must be positive, got %v", amount)
	}

	if l.latency > 0 {
		select {
		case <-time.After(l.latency):
		case <-ctx.Done():
			return TradeReceipt{}, ctx.Err()
		}
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return TradeReceipt{}, fmt.Errorf("generating tx ref: %w", err)
	}

	return TradeReceipt{
		TxRef:      "0x" + hex.EncodeToString(buf),
		Tranche:    tranche,
		Amount:     amount,
		ExecutedAt: time.Now(),
	}, nil
}
