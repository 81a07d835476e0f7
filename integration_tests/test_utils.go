//go:build integration
// +build integration

package integration_tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/server"
)

// TestServerConfig contains configuration for test server setup
type TestServerConfig struct {
	ReadinessTimeout    time.Duration
	HealthCheckInterval time.Duration
}

// DefaultTestConfig returns a default test configuration
func DefaultTestConfig() *TestServerConfig {
	return &TestServerConfig{
		ReadinessTimeout:    10 * time.Second,
		HealthCheckInterval: 50 * time.Millisecond,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Clients   int       `json:"clients"`
	Timestamp time.Time `json:"timestamp"`
}

// freePort reserves and releases a loopback port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// WaitForServerReadiness polls the health endpoint until the server reports
// healthy or the timeout elapses.
func WaitForServerReadiness(ctx context.Context, baseURL string, config *TestServerConfig) (*HealthResponse, error) {
	if config == nil {
		config = DefaultTestConfig()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, config.ReadinessTimeout)
	defer cancel()

	ticker := time.NewTicker(config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeoutCtx.Done():
			return nil, fmt.Errorf("server readiness timeout after %v", config.ReadinessTimeout)
		case <-ticker.C:
			health, err := checkServerHealth(timeoutCtx, baseURL)
			if err != nil {
				continue
			}
			if health.Status == "healthy" {
				return health, nil
			}
		}
	}
}

func checkServerHealth(ctx context.Context, baseURL string) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}

// dialWebSocket connects to the live reload endpoint as a same-origin page.
func dialWebSocket(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(baseURL, "http")+"/ws", &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{baseURL}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// waitForMessage reads messages until one of the given type arrives.
func waitForMessage(t *testing.T, conn *websocket.Conn, messageType string, timeout time.Duration) server.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		var msg server.Message
		require.NoError(t, wsjson.Read(ctx, conn, &msg), "waiting for %s message", messageType)
		if msg.Type == messageType {
			return msg
		}
	}
}
