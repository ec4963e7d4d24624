package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/electron/internal/target"
	"github.com/GriffinCanCode/AgentOS/electron/internal/transport"
)

const demoExecutable = "/opt/demo/demo"

type harness struct {
	conn    *Connection
	session *target.Session
	stop    context.CancelFunc
}

// connect attaches a connection to an in-process target session.
func connect(t *testing.T, opts target.Options, connOpts ...Option) *harness {
	t.Helper()
	local, remote := transport.Pipe()
	session := target.NewSession(remote, opts)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		defer close(served)
		session.Serve(ctx)
	}()

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer connectCancel()
	conn, err := Connect(connectCtx, local, connOpts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-served
	})
	return &harness{conn: conn, session: session, stop: cancel}
}

func (h *harness) launch(t *testing.T, options ...LaunchOptions) *ElectronApplication {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	app, err := h.conn.Electron().Launch(ctx, demoExecutable, options...)
	require.NoError(t, err)
	return app
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func manualWindows() target.Options {
	return target.Options{ManualWindows: true, ScriptTimeout: time.Second}
}
