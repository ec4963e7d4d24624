package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/electron/internal/target"
	"github.com/GriffinCanCode/AgentOS/electron/internal/transport"
)

func newTarget(t *testing.T) *httptest.Server {
	t.Helper()
	srv := target.NewServer(config.Default().Target, nil, false)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		ts.Close()
	})
	return ts
}

func newClient(url string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.RetryCount = 0
	return New(cfg)
}

func TestHealth(t *testing.T) {
	ts := newTarget(t)
	assert.NoError(t, newClient(ts.URL).Health(context.Background()))
}

func TestHealthError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	err := newClient(ts.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSessions(t *testing.T) {
	ts := newTarget(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c := newClient(ts.URL)

	sessions, err := c.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	header := http.Header{}
	tracing.InjectTraceContext(tracing.WithTraceID(ctx, "trace-admin"), header)
	ws, err := transport.DialWebSocket(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer ws.Close()

	// A round trip guarantees the session is registered.
	require.NoError(t, ws.Send(ctx, &protocol.Message{ID: 1, Method: "initialize", Params: []byte(`{}`)}))
	for {
		msg, err := ws.Receive()
		require.NoError(t, err)
		if msg.IsResponse() {
			break
		}
	}

	sessions, err = c.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "trace-admin", sessions[0].TraceID)
	assert.NotEmpty(t, sessions[0].ID)
	assert.Empty(t, sessions[0].Applications)
}

func TestMetrics(t *testing.T) {
	ts := newTarget(t)
	c := newClient(ts.URL)
	require.NoError(t, c.Health(context.Background()))

	body, err := c.Metrics(context.Background())
	require.NoError(t, err)
	assert.Contains(t, body, "/healthz")
}
