package target

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/electron/internal/transport"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(config.Default().Target, nil, false)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		ts.Close()
	})
	return srv, ts
}

func TestServerHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, transport.WaitReady(context.Background(), ts.URL+"/healthz", transport.ReadyOptions{Attempts: 1}))
}

func TestServerWebSocketSession(t *testing.T) {
	_, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ws, err := transport.DialWebSocket(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.Send(ctx, &protocol.Message{ID: 1, GUID: "", Method: "initialize", Params: []byte(`{}`)}))

	create, err := ws.Receive()
	require.NoError(t, err)
	assert.Equal(t, protocol.MethodCreate, create.Method)

	resp, err := ws.Receive()
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ID)
	assert.Nil(t, resp.Error)
}

func TestServerMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/healthz")
}

func TestServerSessions(t *testing.T) {
	srv, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ws, err := transport.DialWebSocket(ctx, url, http.Header{"X-Trace-ID": []string{"trace-9"}})
	require.NoError(t, err)

	require.NoError(t, ws.Send(ctx, &protocol.Message{ID: 1, Method: "initialize", Params: []byte(`{}`)}))
	for {
		msg, err := ws.Receive()
		require.NoError(t, err)
		if msg.IsResponse() {
			break
		}
	}

	sessions := srv.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "trace-9", sessions[0].TraceID)

	ws.Close()
	require.Eventually(t, func() bool { return len(srv.Sessions()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestServerCORS(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/sessions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.local")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}
