// ABOUTME: Executes agent actions as isolated, fire-and-forget side effects.
// ABOUTME: Failures are logged at the boundary and never reach sibling actions.

// Package dispatch executes the side effects agents request.
//
// The dispatcher consumes each Action exactly once. Enqueue spawns the
// effect and returns immediately; failures land in the log. Dispatch is
// the awaited form used internally and by tests.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/credolabs/credo-gateway/internal/agent"
	"github.com/credolabs/credo-gateway/internal/collab"
	"github.com/credolabs/credo-gateway/internal/metrics"
	"github.com/credolabs/credo-gateway/internal/store"
)

// defaultTradeAmount replaces a missing trade amount. Never zero.
const defaultTradeAmount = 1000.0

// Ledger is the external ledger-effecting trade call.
type Ledger interface {
	ExecuteTrade(ctx context.Context, tranche string, amount float64) (collab.TradeReceipt, error)
}

// Notifier is the two-channel notification collaborator. Each channel
// reports its own outcome; the dispatcher treats both as best-effort.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, body string) error
	NotifyOps(ctx context.Context, title, body string) error
}

// Dispatcher executes the closed set of action effects.
type Dispatcher struct {
	alerts   *store.AlertStore
	ledger   Ledger
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	wg sync.WaitGroup
}

// New creates a Dispatcher. Pass nil logger for default.
func New(alerts *store.AlertStore, ledger Ledger, notifier Notifier, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Dispatcher{
		alerts:   alerts,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger.With("component", "dispatcher"),
		metrics:  m,
	}
}

// Enqueue spawns the action's effect and returns immediately. Errors
// are captured by the dispatcher's logging sink; the caller never sees
// them. Implements agent.ActionSink.
func (d *Dispatcher) Enqueue(agentID string, action agent.Action) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// Background context: the effect outlives the request that
		// raised it.
		_ = d.Dispatch(context.Background(), agentID, action)
	}()
}

// Dispatch executes one action's effect and waits for it. Any failure
// is logged with the offending agent id and action type before being
// returned; fire-and-forget callers lose it to the log.
func (d *Dispatcher) Dispatch(ctx context.Context, agentID string, action agent.Action) error {
	err := d.execute(ctx, agentID, action)
	if err != nil {
		d.metrics.DispatchFailures.WithLabelValues(action.Type.String()).Inc()
		d.logger.Error("action dispatch failed",
			"agent_id", agentID,
			"action", action.Type.String(),
			"error", err,
		)
		return err
	}
	d.metrics.ActionsDispatched.WithLabelValues(action.Type.String()).Inc()
	return nil
}

// execute switches exhaustively over the closed action set.
func (d *Dispatcher) execute(ctx context.Context, agentID string, action agent.Action) error {
	switch action.Type {
	case agent.ActionAlertUser:
		return d.alertUser(ctx, agentID, action.Payload)
	case agent.ActionExecuteTrade:
		return d.executeTrade(ctx, agentID, action.Payload)
	case agent.ActionAttestIdentity:
		d.logger.Info("attestation recorded",
			"agent_id", agentID,
			"method", payloadString(action.Payload, "method"),
		)
		return nil
	case agent.ActionAnalyzeRisk:
		d.logger.Info("risk analysis requested",
			"agent_id", agentID,
			"model", payloadString(action.Payload, "model"),
		)
		return nil
	case agent.ActionPredictPrice:
		d.logger.Info("price prediction requested",
			"agent_id", agentID,
			"horizon", payloadString(action.Payload, "horizon"),
		)
		return nil
	default:
		// Unknown kinds are logged, not failed: an old client talking
		// to a newer agent set should degrade quietly.
		d.logger.Warn("unknown action type",
			"agent_id", agentID,
			"action", action.Type.String(),
		)
		return nil
	}
}

// alertUser records the alert and pushes it through both notification
// channels concurrently. Each channel is best-effort: one failing never
// blocks or fails the other.
func (d *Dispatcher) alertUser(ctx context.Context, agentID string, payload map[string]any) error {
	title := payloadString(payload, "title")
	if title == "" {
		title = "Notification from " + agentID
	}
	body := payloadString(payload, "message")
	userID := payloadString(payload, "wallet", "userId")

	d.alerts.Create(store.CreateAlert{
		Title:    title,
		Message:  body,
		Severity: severityOrDefault(payloadString(payload, "severity")),
		Category: categoryOrDefault(payloadString(payload, "category")),
	})

	var wg sync.WaitGroup
	var userErr, opsErr error
	wg.Go(func() {
		userErr = d.notifier.NotifyUser(ctx, userID, title, body)
	})
	wg.Go(func() {
		opsErr = d.notifier.NotifyOps(ctx, title, body)
	})
	wg.Wait()

	if userErr != nil {
		userErr = fmt.Errorf("direct channel: %w", userErr)
	}
	if opsErr != nil {
		opsErr = fmt.Errorf("ops channel: %w", opsErr)
	}
	return errors.Join(userErr, opsErr)
}

// executeTrade invokes the ledger and then notifies best-effort.
func (d *Dispatcher) executeTrade(ctx context.Context, agentID string, payload map[string]any) error {
	tranche := payloadString(payload, "tranche")
	if tranche == "" {
		tranche = "senior"
	}
	amount := payloadFloat(payload, "amount")
	if amount <= 0 {
		amount = defaultTradeAmount
	}

	receipt, err := d.ledger.ExecuteTrade(ctx, tranche, amount)
	if err != nil {
		return fmt.Errorf("executing trade for %q: %w", agentID, err)
	}

	d.logger.Info("trade executed",
		"agent_id", agentID,
		"tranche", receipt.Tranche,
		"amount", receipt.Amount,
		"tx_ref", receipt.TxRef,
	)

	// Result notification is best-effort; the trade already settled.
	title := "Trade settled"
	body := fmt.Sprintf("%.0f units of %s tranche (tx %s)", receipt.Amount, receipt.Tranche, receipt.TxRef)
	if err := d.notifier.NotifyOps(ctx, title, body); err != nil {
		d.logger.Warn("trade notification failed", "agent_id", agentID, "error", err)
	}
	return nil
}

// Wait blocks until all enqueued effects have finished. Used by
// shutdown and tests; production callers never await dispatches.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func payloadString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func payloadFloat(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func severityOrDefault(s string) store.Severity {
	switch store.Severity(s) {
	case store.SeverityWarning, store.SeverityCritical, store.SeverityInfo:
		return store.Severity(s)
	default:
		return store.SeverityInfo
	}
}

func categoryOrDefault(c string) store.Category {
	switch store.Category(c) {
	case store.CategorySecurity, store.CategoryPerformance, store.CategoryCompliance, store.CategorySystem:
		return store.Category(c)
	default:
		return store.CategorySystem
	}
}
