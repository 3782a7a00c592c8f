// ABOUTME: Event and command types for the realtime broadcast layer.
// ABOUTME: Event names are part of the client wire contract.

package broadcast

import (
	"time"

	"github.com/credolabs/credo-gateway/internal/collab"
	"github.com/credolabs/credo-gateway/internal/store"
)

// Server-to-client event names. Clients key their handlers on these
// strings, so they are frozen.
const (
	EventMarketSnapshot  = "market-snapshot"
	EventTranchePrice    = "tranche-price"
	EventHealthSnapshot  = "health-snapshot"
	EventHealthUpdate    = "health-update"
	EventAlertsSnapshot  = "alerts-snapshot"
	EventNewAlert        = "new-alert"
	EventJobStarted      = "job-started"
	EventJobResult       = "job-result"
	EventJobError        = "job-error"
	EventAlertAcked      = "alert-acknowledged"
	EventCommandRejected = "command-error"
)

// Client-to-server command names.
const (
	CommandRunJob           = "run-job"
	CommandAcknowledgeAlert = "acknowledge-alert"
	CommandRefreshPrices    = "refresh-prices"
	CommandRefreshHealth    = "refresh-health"
)

// Event is one server-to-client message. Data is JSON-marshaled by the
// transport layer.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Command is one client-originated request on a live connection.
type Command struct {
	Name      string `json:"command"`
	DataRef   string `json:"dataRef,omitempty"`
	Framework string `json:"framework,omitempty"`
	AlertID   string `json:"alertId,omitempty"`
}

// PricesPayload carries a price snapshot for market-snapshot and
// tranche-price events.
type PricesPayload struct {
	Timestamp time.Time           `json:"timestamp"`
	Prices    store.PriceSnapshot `json:"prices"`
}

// AlertsPayload is the one-shot alert backlog sent on connect.
type AlertsPayload struct {
	Alerts              []store.Alert `json:"alerts"`
	UnacknowledgedCount int           `json:"unacknowledgedCount"`
}

// JobStartedPayload announces a confidential job accepted for execution.
type JobStartedPayload struct {
	JobRef    string    `json:"jobRef"`
	Timestamp time.Time `json:"timestamp"`
}

// JobErrorPayload reports a failed confidential job.
type JobErrorPayload struct {
	JobRef string `json:"jobRef"`
	Error  string `json:"error"`
}

// AckPayload confirms (or denies) an alert acknowledgement.
type AckPayload struct {
	AlertID string `json:"alertId"`
	Success bool   `json:"success"`
}

// ErrorPayload reports a rejected command. The connection stays open.
type ErrorPayload struct {
	Command string `json:"command"`
	Error   string `json:"error"`
}

func marketEvent(name string, snap store.PriceSnapshot) Event {
	return Event{Name: name, Data: PricesPayload{Timestamp: snap.Timestamp, Prices: snap}}
}

func healthEvent(name string, snap store.HealthSnapshot) Event {
	return Event{Name: name, Data: snap}
}

func jobResultEvent(result collab.JobResult) Event {
	return Event{Name: EventJobResult, Data: result}
}
