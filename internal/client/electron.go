package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// LaunchOptions configures Electron.Launch.
type LaunchOptions struct {
	// Args are passed to the executable.
	Args []string
	// Cwd is the working directory of the application.
	Cwd string
	// Env replaces the application environment when non-empty.
	Env map[string]string
	// Timeout bounds the launch on the target side. Nil uses the target default.
	Timeout *time.Duration
	// Logger receives controller-side logs for the application. It is never
	// sent to the target.
	Logger *zap.Logger
}

func (o LaunchOptions) params(executablePath string) map[string]interface{} {
	params := map[string]interface{}{"executablePath": executablePath}
	if len(o.Args) > 0 {
		params["args"] = o.Args
	}
	if o.Cwd != "" {
		params["cwd"] = o.Cwd
	}
	if len(o.Env) > 0 {
		params["env"] = o.Env
	}
	if o.Timeout != nil {
		params["timeout"] = float64(o.Timeout.Milliseconds())
	}
	return params
}

// Electron launches applications.
type Electron struct {
	RemoteObject
}

func newElectron(c *Connection, parent *RemoteObject, guid string, iface *protocol.Interface, initializer map[string]interface{}) *Electron {
	e := &Electron{}
	e.init(c, e, parent, protocol.TypeElectron, guid, iface, initializer)
	return e
}

// Launch starts the application at executablePath and returns it once the
// target reports the launch complete.
func (e *Electron) Launch(ctx context.Context, executablePath string, options ...LaunchOptions) (*ElectronApplication, error) {
	var opts LaunchOptions
	if len(options) > 0 {
		opts = options[0]
	}

	start := time.Now()
	res, err := e.Call(ctx, "launch", opts.params(executablePath))
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", executablePath, err)
	}
	app, ok := res["electronApplication"].(*ElectronApplication)
	if !ok {
		return nil, fmt.Errorf("launch returned %T, want *ElectronApplication", res["electronApplication"])
	}

	if opts.Logger != nil {
		app.setLogger(logging.Wrap(opts.Logger).ForObject(app.typ, app.guid))
	}
	app.markRunning()
	app.log().Info("application launched", zap.String("executable", executablePath), logging.Elapsed(start))
	return app, nil
}
