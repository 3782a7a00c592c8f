// ABOUTME: Gateway wiring: stores, agents, dispatcher, broadcast manager,
// ABOUTME: HTTP server lifecycle and scheduled key rotation.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/credolabs/credo-gateway/internal/agent"
	"github.com/credolabs/credo-gateway/internal/broadcast"
	"github.com/credolabs/credo-gateway/internal/collab"
	"github.com/credolabs/credo-gateway/internal/config"
	"github.com/credolabs/credo-gateway/internal/dispatch"
	"github.com/credolabs/credo-gateway/internal/metrics"
	"github.com/credolabs/credo-gateway/internal/store"
)

// Gateway owns every long-lived component and the HTTP server that
// exposes them.
type Gateway struct {
	config *config.Config
	logger *slog.Logger

	prices *store.PriceStore
	health *store.HealthStore
	alerts *store.AlertStore

	registry    *agent.Registry
	router      *agent.Router
	dispatcher  *dispatch.Dispatcher
	broadcaster *broadcast.Manager
	notifier    *collab.SimNotifier

	metrics    *metrics.Metrics
	promReg    *prometheus.Registry
	rotation   *cron.Cron
	rotateNext atomic.Uint64

	httpServer *http.Server
}

// New creates a Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(promReg)

	prices := store.NewPriceStore(store.PriceSnapshot{})
	healthStore := store.NewHealthStore(cfg.Health.Provider, cfg.Health.Keys, cfg.Health.RotationDelay, cfg.Health.RotationPeriod)
	alerts := store.NewAlertStore(cfg.Alerts.Capacity)

	ledger := collab.NewSimLedger(cfg.Collab.TradeLatency)
	enclave := collab.NewSimEnclave(cfg.Collab.JobLatency)
	notifier := collab.NewSimNotifier(logger)

	registry, err := agent.DefaultRegistry(agent.Deps{
		Market: collab.NewPriceFeed(prices),
		News:   collab.NewStaticNews(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("building agent registry: %w", err)
	}

	dispatcher := dispatch.New(alerts, ledger, notifier, m, logger)
	router := agent.NewRouter(registry, dispatcher, logger)

	broadcaster := broadcast.NewManager(prices, healthStore, alerts, enclave, m, logger, broadcast.Options{
		PriceInterval:    cfg.Broadcast.PriceInterval,
		HealthInterval:   cfg.Broadcast.HealthInterval,
		AlertInterval:    cfg.Broadcast.AlertInterval,
		AlertProbability: cfg.Broadcast.AlertProbability,
		SnapshotLimit:    cfg.Broadcast.SnapshotLimit,
		EventBuffer:      cfg.Broadcast.EventBuffer,
		CommandRate:      rate.Limit(cfg.Broadcast.CommandRate),
		CommandBurst:     cfg.Broadcast.CommandBurst,
	})

	gw := &Gateway{
		config:      cfg,
		logger:      logger.With("component", "gateway"),
		prices:      prices,
		health:      healthStore,
		alerts:      alerts,
		registry:    registry,
		router:      router,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		notifier:    notifier,
		metrics:     m,
		promReg:     promReg,
	}

	if cfg.Health.RotationSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Health.RotationSchedule, gw.rotateNextKey); err != nil {
			return nil, fmt.Errorf("parsing health.rotation_schedule: %w", err)
		}
		gw.rotation = c
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /health/ready", gw.handleReady)
	mux.HandleFunc("GET /stream", gw.handleStream)
	mux.HandleFunc("POST /command", gw.handleCommand)
	mux.HandleFunc("GET /api/agents", gw.handleListAgents)
	mux.HandleFunc("POST /api/agents/{id}/message", gw.handleSendMessage)
	mux.HandleFunc("GET /api/alerts", gw.handleListAlerts)
	mux.HandleFunc("POST /api/alerts/{id}/ack", gw.handleAcknowledgeAlert)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// rotateNextKey rotates the tracked keys round-robin. Invoked by the
// cron schedule.
func (g *Gateway) rotateNextKey() {
	keys := g.health.KeyIDs()
	if len(keys) == 0 {
		return
	}
	next := keys[int(g.rotateNext.Add(1)-1)%len(keys)]
	if err := g.health.Rotate(next); err != nil {
		g.logger.Warn("scheduled key rotation skipped", "key_id", next, "error", err)
		return
	}
	g.logger.Info("scheduled key rotation started", "key_id", next)
}

// Run starts the gateway and blocks until the context is canceled or
// the server fails. Returns nil on graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	if g.rotation != nil {
		g.rotation.Start()
	}

	grp, grpCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	grp.Go(func() error {
		<-grpCtx.Done()
		g.logger.Info("context canceled, initiating shutdown")

		// Fresh context: the run context is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return g.Shutdown(shutdownCtx)
	})

	return grp.Wait()
}

// Shutdown stops the HTTP server, the broadcast sessions, the rotation
// schedule, and waits for in-flight dispatches.
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.httpServer.Shutdown(ctx)

	if g.rotation != nil {
		g.rotation.Stop()
	}
	g.broadcaster.Close()
	g.dispatcher.Wait()
	g.health.Stop()

	if err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}
