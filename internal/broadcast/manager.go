// ABOUTME: Connection manager for the realtime layer: session registry,
// ABOUTME: per-connection broadcast schedules, client command routing.

// Package broadcast owns the set of live client connections. Each
// connection gets a Session with exactly three periodic schedules (price
// tick, health tick, random-alert generator) that are created on connect
// and torn down as a unit on disconnect. New alerts, whatever their
// origin, fan out to every live session.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/credolabs/credo-gateway/internal/collab"
	"github.com/credolabs/credo-gateway/internal/metrics"
	"github.com/credolabs/credo-gateway/internal/store"
)

// ErrManagerClosed is returned by Connect after the manager shut down.
var ErrManagerClosed = errors.New("broadcast: manager is closed")

// ErrSessionClosed is returned for commands against a closed session.
var ErrSessionClosed = errors.New("broadcast: session is closed")

// JobRunner executes confidential scoring jobs.
type JobRunner interface {
	Run(ctx context.Context, spec collab.JobSpec) (collab.JobResult, error)
}

// Options tune the per-connection schedules and buffers. Zero values
// fall back to the defaults below.
type Options struct {
	PriceInterval    time.Duration // tranche-price tick period
	HealthInterval   time.Duration // health-update tick period
	AlertInterval    time.Duration // random-alert generator period
	AlertProbability float64       // chance a generator interval fires, 0..1
	SnapshotLimit    int           // alerts included in the connect snapshot
	EventBuffer      int           // per-session event channel depth
	CommandRate      rate.Limit    // sustained commands/sec per session
	CommandBurst     int
	Seed             int64 // rng seed, 0 means time-based
}

func (o Options) withDefaults() Options {
	if o.PriceInterval <= 0 {
		o.PriceInterval = 5 * time.Second
	}
	if o.HealthInterval <= 0 {
		o.HealthInterval = 15 * time.Second
	}
	if o.AlertInterval <= 0 {
		o.AlertInterval = 45 * time.Second
	}
	if o.AlertProbability <= 0 {
		o.AlertProbability = 0.3
	}
	if o.SnapshotLimit <= 0 {
		o.SnapshotLimit = 20
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	if o.CommandRate <= 0 {
		o.CommandRate = 5
	}
	if o.CommandBurst <= 0 {
		o.CommandBurst = 10
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// Manager owns every live Session. It is the only component allowed to
// create or close sessions.
type Manager struct {
	prices *store.PriceStore
	health *store.HealthStore
	alerts *store.AlertStore
	jobs   JobRunner

	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	rngMu sync.Mutex
	rng   *rand.Rand

	schedules atomic.Int64
}

// NewManager wires the manager to the stores and the job runner. It
// registers itself as the alert store's creation hook, making it the
// single fan-out path for new alerts.
func NewManager(prices *store.PriceStore, health *store.HealthStore, alerts *store.AlertStore, jobs JobRunner, m *metrics.Metrics, logger *slog.Logger, opts Options) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	opts = opts.withDefaults()

	mgr := &Manager{
		prices:   prices,
		health:   health,
		alerts:   alerts,
		jobs:     jobs,
		opts:     opts,
		logger:   logger.With("component", "broadcast"),
		metrics:  m,
		sessions: make(map[string]*Session),
		rng:      rand.New(rand.NewSource(opts.Seed)),
	}
	alerts.SetOnCreate(mgr.fanoutAlert)
	return mgr
}

// Connect creates a Live session: it sends the one-shot snapshots
// synchronously, then starts the three periodic schedules. The initial
// snapshots are always in the channel before any tick fires.
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	session := &Session{
		id:      uuid.New().String(),
		events:  make(chan Event, m.opts.EventBuffer),
		limiter: rate.NewLimiter(m.opts.CommandRate, m.opts.CommandBurst),
		ctx:     sessCtx,
		cancel:  cancel,
	}
	session.onClose = func() { m.remove(session.id) }
	m.sessions[session.id] = session
	m.mu.Unlock()

	m.metrics.LiveSessions.Inc()

	m.emit(session, marketEvent(EventMarketSnapshot, m.prices.Get()))
	m.emit(session, healthEvent(EventHealthSnapshot, m.health.Get()))
	m.emit(session, m.alertsSnapshot())

	m.startSchedule(session, m.opts.PriceInterval, m.priceTick)
	m.startSchedule(session, m.opts.HealthInterval, m.healthTick)
	m.startSchedule(session, m.opts.AlertInterval, m.randomAlertTick)

	m.logger.Info("client connected", "connection_id", session.id)
	return session, nil
}

// Get looks up a live session by connection id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// SessionCount reports the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ScheduleCount reports the number of running periodic schedules. It is
// always three times the number of live sessions once Connect returns.
func (m *Manager) ScheduleCount() int64 {
	return m.schedules.Load()
}

// Close tears down every session and stops accepting new ones.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.metrics.LiveSessions.Dec()
		m.logger.Info("client disconnected", "connection_id", id)
	}
}

// startSchedule runs fn every interval until the session's cancellation
// group fires. Cancellation is external: the ticker goroutine observes
// ctx.Done ahead of the next tick, so no new tick starts after Close.
func (m *Manager) startSchedule(session *Session, interval time.Duration, fn func(*Session)) {
	m.schedules.Add(1)
	go func() {
		defer m.schedules.Add(-1)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-session.ctx.Done():
				return
			case <-ticker.C:
				fn(session)
			}
		}
	}()
}

func (m *Manager) priceTick(session *Session) {
	m.emit(session, marketEvent(EventTranchePrice, m.prices.Tick()))
}

func (m *Manager) healthTick(session *Session) {
	m.emit(session, healthEvent(EventHealthUpdate, m.health.Get()))
}

// randomAlertTick fires a synthetic alert with configured probability
// each interval. The alert goes through the store, so it reaches every
// session via the creation hook, not just this one.
func (m *Manager) randomAlertTick(*Session) {
	m.rngMu.Lock()
	roll := m.rng.Float64()
	pick := m.rng.Intn(len(syntheticAlerts))
	m.rngMu.Unlock()

	if roll >= m.opts.AlertProbability {
		return
	}
	m.alerts.Create(syntheticAlerts[pick])
}

// syntheticAlerts is the pool the random generator draws from.
var syntheticAlerts = []store.CreateAlert{
	{Title: "Unusual trading volume detected", Message: "Junior tranche volume 3x above trailing average", Severity: store.SeverityWarning, Category: store.CategoryPerformance},
	{Title: "Oracle price deviation", Message: "Feed disagreement exceeded 50bps for one interval", Severity: store.SeverityWarning, Category: store.CategorySystem},
	{Title: "KYC review queue growing", Message: "Pending identity verifications above threshold", Severity: store.SeverityInfo, Category: store.CategoryCompliance},
	{Title: "Enclave attestation renewed", Message: "Scoring enclave re-attested successfully", Severity: store.SeverityInfo, Category: store.CategorySecurity},
}

// fanoutAlert delivers a freshly created alert to every live session.
// Registered as the AlertStore creation hook, so every alert origin
// passes through here.
func (m *Manager) fanoutAlert(a store.Alert) {
	m.metrics.AlertsCreated.WithLabelValues(string(a.Severity)).Inc()

	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	for _, s := range open {
		m.emit(s, Event{Name: EventNewAlert, Data: a})
	}
}

// emit sends one event to one session, dropping it if the session is
// closed or its buffer is full.
func (m *Manager) emit(session *Session, ev Event) {
	if session.send(ev) {
		m.metrics.EventsBroadcast.WithLabelValues(ev.Name).Inc()
		return
	}
	if !session.isClosed() {
		m.logger.Warn("event dropped, slow consumer",
			"connection_id", session.id, "event", ev.Name)
	}
}

// HandleCommand routes one client command on a live session. Malformed
// or unknown commands produce a command-error event; the connection
// stays open. Only a closed session is an error to the caller.
func (m *Manager) HandleCommand(ctx context.Context, session *Session, cmd Command) error {
	if session.isClosed() {
		return ErrSessionClosed
	}
	m.metrics.Commands.WithLabelValues(cmd.Name).Inc()

	if !session.allowCommand() {
		m.rejectCommand(session, cmd.Name, "rate limit exceeded")
		return nil
	}

	switch cmd.Name {
	case CommandRunJob:
		m.runJob(session, cmd)
	case CommandAcknowledgeAlert:
		m.acknowledgeAlert(session, cmd.AlertID)
	case CommandRefreshPrices:
		m.emit(session, marketEvent(EventMarketSnapshot, m.prices.Get()))
	case CommandRefreshHealth:
		m.emit(session, healthEvent(EventHealthSnapshot, m.health.Get()))
	default:
		m.rejectCommand(session, cmd.Name, fmt.Sprintf("unknown command %q", cmd.Name))
	}
	return nil
}

// runJob emits job-started immediately, then runs the job scoped to the
// session's cancellation group and emits exactly one of job-result or
// job-error. A successful job also records an alert.
func (m *Manager) runJob(session *Session, cmd Command) {
	if cmd.DataRef == "" {
		m.rejectCommand(session, cmd.Name, "dataRef is required")
		return
	}

	jobRef := uuid.New().String()
	m.emit(session, Event{Name: EventJobStarted, Data: JobStartedPayload{
		JobRef:    jobRef,
		Timestamp: time.Now(),
	}})

	go func() {
		result, err := m.jobs.Run(session.ctx, collab.JobSpec{
			JobRef:    jobRef,
			DataRef:   cmd.DataRef,
			Framework: cmd.Framework,
		})
		if err != nil {
			m.logger.Warn("confidential job failed",
				"connection_id", session.id, "job_ref", jobRef, "error", err)
			m.emit(session, Event{Name: EventJobError, Data: JobErrorPayload{
				JobRef: jobRef,
				Error:  err.Error(),
			}})
			return
		}

		m.emit(session, jobResultEvent(result))
		m.alerts.Create(store.CreateAlert{
			Title:    "Credit score computed",
			Message:  fmt.Sprintf("Job %s scored %d (%s)", result.JobRef, result.Score, result.Tier),
			Severity: store.SeverityInfo,
			Category: store.CategorySecurity,
		})
	}()
}

func (m *Manager) acknowledgeAlert(session *Session, alertID string) {
	if alertID == "" {
		m.rejectCommand(session, CommandAcknowledgeAlert, "alertId is required")
		return
	}
	_, err := m.alerts.Acknowledge(alertID)
	m.emit(session, Event{Name: EventAlertAcked, Data: AckPayload{
		AlertID: alertID,
		Success: err == nil,
	}})
}

func (m *Manager) rejectCommand(session *Session, command, reason string) {
	m.emit(session, Event{Name: EventCommandRejected, Data: ErrorPayload{
		Command: command,
		Error:   reason,
	}})
}

func (m *Manager) alertsSnapshot() Event {
	return Event{Name: EventAlertsSnapshot, Data: AlertsPayload{
		Alerts:              m.alerts.List(store.ListFilter{Limit: m.opts.SnapshotLimit}),
		UnacknowledgedCount: m.alerts.UnacknowledgedCount(),
	}}
}
