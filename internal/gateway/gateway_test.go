// ABOUTME: Tests for gateway wiring and the HTTP surface.
// ABOUTME: Exercises handlers via httptest against a fully wired Gateway.

package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credolabs/credo-gateway/internal/config"
	"github.com/credolabs/credo-gateway/internal/store"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Broadcast.PriceInterval = time.Hour
	cfg.Broadcast.HealthInterval = time.Hour
	cfg.Broadcast.AlertInterval = time.Hour
	cfg.Health.RotationSchedule = ""
	cfg.Collab.TradeLatency = 0
	cfg.Collab.JobLatency = 0
	return cfg
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw, err := New(testConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = gw.Shutdown(ctx)
	})
	return gw
}

func doRequest(gw *Gateway, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	gw.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestGateway_HealthEndpoints(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(gw, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agents")
}

func TestGateway_ListAgents(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodGet, "/api/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Agents []struct {
			ID string `json:"id"`
		} `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	ids := make([]string, 0, len(resp.Agents))
	for _, a := range resp.Agents {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "risk-analyst")
	assert.Contains(t, ids, "market-bot")
	assert.Contains(t, ids, "research-agent")
	assert.Contains(t, ids, "confidential-compute")
	assert.Contains(t, ids, "identity-agent")
}

func TestGateway_SendMessageReturnsAgentReply(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodPost, "/api/agents/market-bot/message",
		map[string]string{"content": "what is the current yield?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Contains(t, strings.ToLower(reply.Content), "yield")
}

func TestGateway_SendMessageUnknownAgent(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodPost, "/api/agents/nobody/message",
		map[string]string{"content": "hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "nobody")
}

func TestGateway_SendMessageValidation(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodPost, "/api/agents/market-bot/message",
		map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGateway_AlertsListAndAcknowledge(t *testing.T) {
	gw := newTestGateway(t)
	created := gw.alerts.Create(store.CreateAlert{
		Title:    "test alert",
		Severity: store.SeverityWarning,
		Category: store.CategorySystem,
	})

	rec := doRequest(gw, http.MethodGet, "/api/alerts?severity=warning", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Alerts              []store.Alert `json:"alerts"`
		UnacknowledgedCount int           `json:"unacknowledgedCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Alerts, 1)
	assert.Equal(t, 1, listResp.UnacknowledgedCount)

	rec = doRequest(gw, http.MethodPost, "/api/alerts/"+created.ID+"/ack", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(gw, http.MethodPost, "/api/alerts/alert-9999/ack", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGateway_AlertsListRejectsBadQuery(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodGet, "/api/alerts?acknowledged=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(gw, http.MethodGet, "/api/alerts?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGateway_CommandRequiresKnownConnection(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodPost, "/command",
		map[string]string{"connectionId": "no-such-id", "command": "refresh-prices"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(gw, http.MethodPost, "/command", map[string]string{"command": "refresh-prices"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGateway_CommandReachesLiveSession(t *testing.T) {
	gw := newTestGateway(t)

	session, err := gw.broadcaster.Connect(t.Context())
	require.NoError(t, err)

	rec := doRequest(gw, http.MethodPost, "/command",
		map[string]string{"connectionId": session.ID(), "command": "refresh-prices"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGateway_StreamDeliversSnapshotsAndCleansUp(t *testing.T) {
	gw := newTestGateway(t)

	srv := httptest.NewServer(gw.httpServer.Handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var seen []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			seen = append(seen, after)
		}
		if len(seen) >= 4 { // connected + the three snapshots
			break
		}
	}

	assert.Equal(t, []string{"connected", "market-snapshot", "health-snapshot", "alerts-snapshot"}, seen)
	assert.Equal(t, 1, gw.broadcaster.SessionCount())

	cancel()
	assert.Eventually(t, func() bool { return gw.broadcaster.SessionCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestGateway_MetricsEndpoint(t *testing.T) {
	gw := newTestGateway(t)

	rec := doRequest(gw, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "credo_live_sessions")
}

func TestGateway_RotateNextKeyRoundRobin(t *testing.T) {
	cfg := testConfig()
	cfg.Health.RotationDelay = time.Millisecond
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw, err := New(cfg, logger)
	require.NoError(t, err)
	defer gw.health.Stop()

	before := gw.health.Get().LastRotated
	gw.rotateNextKey()

	assert.Eventually(t, func() bool {
		return gw.health.Get().LastRotated.After(before)
	}, 2*time.Second, 10*time.Millisecond)
}
