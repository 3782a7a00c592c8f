// ABOUTME: Prometheus collectors for the gateway's realtime core.
// ABOUTME: Tracks sessions, dispatched actions, alerts, and broadcast volume.

// Package metrics defines the gateway's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the gateway's collectors. Construct with New; every
// component receives the same instance.
type Metrics struct {
	LiveSessions      prometheus.Gauge
	ActionsDispatched *prometheus.CounterVec
	DispatchFailures  *prometheus.CounterVec
	AlertsCreated     *prometheus.CounterVec
	EventsBroadcast   *prometheus.CounterVec
	Commands          *prometheus.CounterVec
}

// New registers the gateway collectors on reg. A nil reg registers on a
// private throwaway registry, which keeps call sites nil-check free in
// tests.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		LiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credo_live_sessions",
			Help: "Number of client sessions currently in the Live state.",
		}),
		ActionsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_actions_dispatched_total",
			Help: "Agent actions executed by the dispatcher, by action type.",
		}, []string{"type"}),
		DispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_dispatch_failures_total",
			Help: "Action dispatches that failed at the effect boundary.",
		}, []string{"type"}),
		AlertsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_alerts_created_total",
			Help: "Alerts created in the alert log, by severity.",
		}, []string{"severity"}),
		EventsBroadcast: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_events_broadcast_total",
			Help: "Events emitted to client sessions, by event name.",
		}, []string{"event"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_commands_total",
			Help: "Client commands handled, by command name.",
		}, []string{"command"}),
	}
}
