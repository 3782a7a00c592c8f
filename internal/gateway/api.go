// ABOUTME: HTTP handlers: SSE event stream, client commands, agent
// ABOUTME: messaging, and alert listing/acknowledgement.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/credolabs/credo-gateway/internal/agent"
	"github.com/credolabs/credo-gateway/internal/broadcast"
	"github.com/credolabs/credo-gateway/internal/store"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the agent registry is populated.
func (g *Gateway) handleReady(w http.ResponseWriter, _ *http.Request) {
	agents := g.registry.List()
	if len(agents) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no agents registered"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d agents)", len(agents))
}

// handleStream opens one broadcast session per request and streams its
// events as SSE until the client disconnects.
func (g *Gateway) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	session, err := g.broadcaster.Connect(r.Context())
	if err != nil {
		g.sendJSONError(w, http.StatusServiceUnavailable, "gateway is shutting down")
		return
	}
	defer session.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// The connection id is the handle for POST /command.
	fmt.Fprintf(w, "event: connected\ndata: {\"connectionId\": %q}\n\n", session.ID())
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-session.Done():
			return

		case <-heartbeat.C:
			// SSE comment as heartbeat to detect dead connections
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()

		case ev, ok := <-session.Events():
			if !ok {
				return
			}
			g.writeSSEEvent(w, ev)
			flusher.Flush()
		}
	}
}

func (g *Gateway) writeSSEEvent(w http.ResponseWriter, ev broadcast.Event) {
	dataJSON, err := json.Marshal(ev.Data)
	if err != nil {
		g.logger.Error("failed to marshal SSE data", "event", ev.Name, "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", ev.Name)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// commandRequest is the POST /command body: a connection id plus the
// command fields.
type commandRequest struct {
	ConnectionID string `json:"connectionId"`
	broadcast.Command
}

func (g *Gateway) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ConnectionID == "" {
		g.sendJSONError(w, http.StatusBadRequest, "connectionId is required")
		return
	}

	session, ok := g.broadcaster.Get(req.ConnectionID)
	if !ok {
		g.sendJSONError(w, http.StatusNotFound, "unknown connection id")
		return
	}

	if err := g.broadcaster.HandleCommand(r.Context(), session, req.Command); err != nil {
		g.sendJSONError(w, http.StatusGone, "connection is closed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

func (g *Gateway) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"agents": g.registry.List()})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// handleSendMessage routes one user message to the addressed agent and
// returns its reply. Side-effecting actions run asynchronously and do
// not delay the response.
func (g *Gateway) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("id")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		g.sendJSONError(w, http.StatusBadRequest, "content is required")
		return
	}

	reply, err := g.router.ProcessMessage(r.Context(), agentID, req.Content)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			g.sendJSONError(w, http.StatusNotFound, fmt.Sprintf("agent %q not found", agentID))
			return
		}
		g.logger.Error("message processing failed", "agent_id", agentID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "message processing failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func (g *Gateway) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Severity: store.Severity(r.URL.Query().Get("severity")),
		Category: store.Category(r.URL.Query().Get("category")),
	}
	if v := r.URL.Query().Get("acknowledged"); v != "" {
		acked, err := strconv.ParseBool(v)
		if err != nil {
			g.sendJSONError(w, http.StatusBadRequest, "acknowledged must be true or false")
			return
		}
		filter.Acknowledged = &acked
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			g.sendJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"alerts":              g.alerts.List(filter),
		"unacknowledgedCount": g.alerts.UnacknowledgedCount(),
	})
}

func (g *Gateway) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alertID := r.PathValue("id")

	updated, err := g.alerts.Acknowledge(alertID)
	if err != nil {
		if errors.Is(err, store.ErrAlertNotFound) {
			g.sendJSONError(w, http.StatusNotFound, fmt.Sprintf("alert %q not found", alertID))
			return
		}
		g.sendJSONError(w, http.StatusInternalServerError, "acknowledge failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"alert": updated, "success": true})
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
