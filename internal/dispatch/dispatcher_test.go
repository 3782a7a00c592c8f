// ABOUTME: Tests for the action dispatcher covering the full action set.
// ABOUTME: Fakes stand in for the ledger and notification channels.

package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credolabs/credo-gateway/internal/agent"
	"github.com/credolabs/credo-gateway/internal/collab"
	"github.com/credolabs/credo-gateway/internal/store"
)

type fakeLedger struct {
	mu      sync.Mutex
	calls   []collab.TradeReceipt
	failure error
}

func (f *fakeLedger) ExecuteTrade(_ context.Context, tranche string, amount float64) (collab.TradeReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return collab.TradeReceipt{}, f.failure
	}
	r := collab.TradeReceipt{TxRef: "0xtest", Tranche: tranche, Amount: amount, ExecutedAt: time.Now()}
	f.calls = append(f.calls, r)
	return r, nil
}

func (f *fakeLedger) trades() []collab.TradeReceipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]collab.TradeReceipt(nil), f.calls...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	user     []string
	ops      []string
	userErr  error
	opsErr   error
	userWait time.Duration
}

func (f *fakeNotifier) NotifyUser(_ context.Context, userID, title, _ string) error {
	if f.userWait > 0 {
		time.Sleep(f.userWait)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return f.userErr
	}
	f.user = append(f.user, userID+":"+title)
	return nil
}

func (f *fakeNotifier) NotifyOps(_ context.Context, title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opsErr != nil {
		return f.opsErr
	}
	f.ops = append(f.ops, title)
	return nil
}

func (f *fakeNotifier) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.user), len(f.ops)
}

func newTestDispatcher(ledger *fakeLedger, notifier *fakeNotifier) (*Dispatcher, *store.AlertStore) {
	alerts := store.NewAlertStore(100)
	return New(alerts, ledger, notifier, nil, nil), alerts
}

func TestDispatcher_AlertUserCreatesAlertAndNotifiesBothChannels(t *testing.T) {
	notifier := &fakeNotifier{}
	d, alerts := newTestDispatcher(&fakeLedger{}, notifier)

	err := d.Dispatch(t.Context(), "risk-analyst", agent.Action{
		Type: agent.ActionAlertUser,
		Payload: map[string]any{
			"title":    "Collateral drift",
			"message":  "Senior tranche moved past threshold",
			"severity": "warning",
			"category": "performance",
		},
	})
	require.NoError(t, err)

	listed := alerts.List(store.ListFilter{})
	require.Len(t, listed, 1)
	assert.Equal(t, "Collateral drift", listed[0].Title)
	assert.Equal(t, store.SeverityWarning, listed[0].Severity)
	assert.Equal(t, store.CategoryPerformance, listed[0].Category)

	userN, opsN := notifier.counts()
	assert.Equal(t, 1, userN)
	assert.Equal(t, 1, opsN)
}

func TestDispatcher_AlertUserOneChannelFailingDoesNotBlockTheOther(t *testing.T) {
	notifier := &fakeNotifier{userErr: errors.New("push gateway down")}
	d, alerts := newTestDispatcher(&fakeLedger{}, notifier)

	err := d.Dispatch(t.Context(), "market-bot", agent.Action{
		Type:    agent.ActionAlertUser,
		Payload: map[string]any{"title": "Yield update"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct channel")

	// Alert was still recorded and the ops channel still delivered.
	assert.Len(t, alerts.List(store.ListFilter{}), 1)
	_, opsN := notifier.counts()
	assert.Equal(t, 1, opsN)
}

func TestDispatcher_AlertUserDefaultsSeverityAndCategory(t *testing.T) {
	d, alerts := newTestDispatcher(&fakeLedger{}, &fakeNotifier{})

	err := d.Dispatch(t.Context(), "market-bot", agent.Action{
		Type:    agent.ActionAlertUser,
		Payload: map[string]any{"severity": "apocalyptic", "category": "vibes"},
	})
	require.NoError(t, err)

	listed := alerts.List(store.ListFilter{})
	require.Len(t, listed, 1)
	assert.Equal(t, store.SeverityInfo, listed[0].Severity)
	assert.Equal(t, store.CategorySystem, listed[0].Category)
	assert.Contains(t, listed[0].Title, "market-bot")
}

func TestDispatcher_ExecuteTradeDefaultsAmount(t *testing.T) {
	ledger := &fakeLedger{}
	d, _ := newTestDispatcher(ledger, &fakeNotifier{})

	err := d.Dispatch(t.Context(), "market-bot", agent.Action{
		Type:    agent.ActionExecuteTrade,
		Payload: map[string]any{"tranche": "junior"},
	})
	require.NoError(t, err)

	trades := ledger.trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "junior", trades[0].Tranche)
	assert.Equal(t, defaultTradeAmount, trades[0].Amount)
}

func TestDispatcher_ExecuteTradeLedgerFailureSurfacesToAwaitingCaller(t *testing.T) {
	ledger := &fakeLedger{failure: errors.New("ledger offline")}
	d, _ := newTestDispatcher(ledger, &fakeNotifier{})

	err := d.Dispatch(t.Context(), "market-bot", agent.Action{
		Type:    agent.ActionExecuteTrade,
		Payload: map[string]any{"amount": 250.0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger offline")
}

func TestDispatcher_ExecuteTradeNotificationFailureIsBestEffort(t *testing.T) {
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{opsErr: errors.New("smtp timeout")}
	d, _ := newTestDispatcher(ledger, notifier)

	err := d.Dispatch(t.Context(), "market-bot", agent.Action{
		Type:    agent.ActionExecuteTrade,
		Payload: map[string]any{"amount": 500.0},
	})
	require.NoError(t, err)
	assert.Len(t, ledger.trades(), 1)
}

func TestDispatcher_AuditOnlyActionsSucceedWithoutCollaborators(t *testing.T) {
	d, alerts := newTestDispatcher(&fakeLedger{}, &fakeNotifier{})

	for _, typ := range []agent.ActionType{
		agent.ActionAnalyzeRisk,
		agent.ActionPredictPrice,
		agent.ActionAttestIdentity,
	} {
		err := d.Dispatch(t.Context(), "risk-analyst", agent.Action{Type: typ})
		require.NoError(t, err, "action %s", typ)
	}
	assert.Empty(t, alerts.List(store.ListFilter{}))
}

func TestDispatcher_UnknownActionTypeIsLoggedNotFailed(t *testing.T) {
	d, _ := newTestDispatcher(&fakeLedger{}, &fakeNotifier{})

	err := d.Dispatch(t.Context(), "risk-analyst", agent.Action{Type: agent.ActionType(99)})
	assert.NoError(t, err)
}

func TestDispatcher_EnqueueRunsEffectAsynchronously(t *testing.T) {
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{userWait: 20 * time.Millisecond}
	d, alerts := newTestDispatcher(ledger, notifier)

	start := time.Now()
	d.Enqueue("market-bot", agent.Action{
		Type:    agent.ActionAlertUser,
		Payload: map[string]any{"title": "slow channel"},
	})
	assert.Less(t, time.Since(start), 10*time.Millisecond, "Enqueue must not wait for the effect")

	d.Wait()
	assert.Len(t, alerts.List(store.ListFilter{}), 1)
}

func TestDispatcher_EnqueueSwallowsErrors(t *testing.T) {
	ledger := &fakeLedger{failure: errors.New("ledger offline")}
	d, _ := newTestDispatcher(ledger, &fakeNotifier{})

	// Must not panic or surface anywhere; the failure goes to the log.
	d.Enqueue("market-bot", agent.Action{Type: agent.ActionExecuteTrade})
	d.Wait()
}
