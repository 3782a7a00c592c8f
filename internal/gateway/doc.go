// Package gateway wires the credo-gateway components together and
// exposes them over HTTP.
//
// # Architecture
//
//	Gateway
//	    prices / health / alerts   in-memory stores
//	    registry + router          agent message routing
//	    dispatcher                 async action side effects
//	    broadcaster                per-connection realtime sessions
//	    httpServer                 API, SSE stream, metrics
//
// # Endpoints
//
//   - GET  /stream                     SSE event stream, one session per request
//   - POST /command                    client commands for a connection id
//   - GET  /api/agents                 registered agent descriptors
//   - POST /api/agents/{id}/message    route a message to an agent
//   - GET  /api/alerts                 filterable alert log
//   - POST /api/alerts/{id}/ack        acknowledge an alert
//   - GET  /health, /health/ready      liveness and readiness
//   - GET  /metrics                    Prometheus metrics (when enabled)
//
// # Lifecycle
//
// New builds the component graph from a config.Config. Run blocks until
// the context is canceled, then shuts the HTTP server, broadcast
// sessions, and scheduled key rotation down gracefully:
//
//	gw, err := gateway.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := gw.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package gateway
