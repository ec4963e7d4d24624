package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// AppState is the lifecycle state of an ElectronApplication.
type AppState int

const (
	AppLaunching AppState = iota
	AppRunning
	AppClosed
)

// String returns the string representation of the state
func (s AppState) String() string {
	switch s {
	case AppLaunching:
		return "launching"
	case AppRunning:
		return "running"
	case AppClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// WaitForEventOptions configures ElectronApplication.WaitForEvent.
type WaitForEventOptions struct {
	// Timeout overrides the default. Zero disables the timeout.
	Timeout *time.Duration
	// Predicate filters occurrences; rejected ones keep the wait armed.
	Predicate func(payload interface{}) bool
}

// FirstWindowOptions configures ElectronApplication.FirstWindow.
type FirstWindowOptions struct {
	Timeout *time.Duration
}

// ElectronApplication is a launched application and its windows.
type ElectronApplication struct {
	RemoteObject

	context  *BrowserContext
	timeouts *TimeoutSettings

	mu        sync.Mutex
	state     AppState
	windows   []*Page
	windowSet map[string]struct{}
	appLogger *logging.Logger // Launch option; nil uses the object logger
}

func newElectronApplication(c *Connection, parent *RemoteObject, guid string, iface *protocol.Interface, initializer map[string]interface{}) *ElectronApplication {
	app := &ElectronApplication{
		timeouts:  NewTimeoutSettings(c.defaultTimeout),
		state:     AppLaunching,
		windowSet: make(map[string]struct{}),
	}
	app.init(c, app, parent, protocol.TypeElectronApplication, guid, iface, initializer)
	app.context, _ = initializer["context"].(*BrowserContext)

	app.channel.On(protocol.EventWindow, func(payload interface{}) {
		page, ok := pageFromPayload(payload)
		if !ok {
			app.logger.Warn("push without a page", logging.Event(protocol.EventWindow))
			return
		}
		if app.addWindow(page) {
			app.Emit(protocol.EventWindow, page)
		}
	})
	app.channel.On(protocol.EventClose, func(interface{}) {
		app.markClosed()
	})
	app.addDisposeHook(app.markClosed)
	return app
}

func (a *ElectronApplication) addWindow(page *Page) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.windowSet[page.guid]; seen {
		return false
	}
	a.windowSet[page.guid] = struct{}{}
	a.windows = append(a.windows, page)
	return true
}

func (a *ElectronApplication) markRunning() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == AppLaunching {
		a.state = AppRunning
	}
}

func (a *ElectronApplication) markClosed() {
	a.mu.Lock()
	if a.state == AppClosed {
		a.mu.Unlock()
		return
	}
	a.state = AppClosed
	a.mu.Unlock()

	a.log().Info("application closed")
	a.Emit(protocol.EventClose, nil)
}

func (a *ElectronApplication) setLogger(logger *logging.Logger) {
	a.mu.Lock()
	a.appLogger = logger
	a.mu.Unlock()
}

func (a *ElectronApplication) log() *logging.Logger {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.appLogger != nil {
		return a.appLogger
	}
	return a.logger
}

// State returns the lifecycle state.
func (a *ElectronApplication) State() AppState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Context returns the browser context holding the windows.
func (a *ElectronApplication) Context() *BrowserContext {
	return a.context
}

// SetDefaultTimeout changes the timeout of later waits. Zero disables it.
func (a *ElectronApplication) SetDefaultTimeout(d time.Duration) {
	a.timeouts.SetDefault(d)
}

// Windows returns a snapshot of the known windows in arrival order.
func (a *ElectronApplication) Windows() []*Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Page, len(a.windows))
	copy(out, a.windows)
	return out
}

// FirstWindow returns the first window, waiting for it if none arrived yet.
func (a *ElectronApplication) FirstWindow(ctx context.Context, options ...FirstWindowOptions) (*Page, error) {
	var opts FirstWindowOptions
	if len(options) > 0 {
		opts = options[0]
	}

	// The window handler appends under mu before emitting, so checking and
	// arming under mu cannot miss a push.
	a.mu.Lock()
	if len(a.windows) > 0 {
		first := a.windows[0]
		a.mu.Unlock()
		return first, nil
	}
	if a.state == AppClosed {
		a.mu.Unlock()
		return nil, ErrTargetClosed
	}
	w := a.newWaiter(protocol.EventWindow, opts.Timeout)
	w.Arm(a, protocol.EventWindow, nil)
	a.mu.Unlock()

	v, err := w.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

// WaitForEvent waits for the next event that satisfies the predicate. Unless
// the awaited event is close itself, the application closing aborts the wait
// with ErrTargetClosed.
func (a *ElectronApplication) WaitForEvent(ctx context.Context, event string, options ...WaitForEventOptions) (interface{}, error) {
	var opts WaitForEventOptions
	if len(options) > 0 {
		opts = options[0]
	}

	a.mu.Lock()
	if a.state == AppClosed {
		a.mu.Unlock()
		if event == protocol.EventClose {
			return nil, nil
		}
		return nil, ErrTargetClosed
	}
	w := a.newWaiter(event, opts.Timeout)
	w.Arm(a, event, opts.Predicate)
	a.mu.Unlock()

	return w.Wait(ctx)
}

// newWaiter arms the timeout and the close abort. Called with mu held.
func (a *ElectronApplication) newWaiter(event string, override *time.Duration) *Waiter {
	timeout := a.timeouts.Timeout(override)
	w := NewWaiter(event).WithMetrics(a.conn.metrics)
	w.RejectOnTimeout(timeout, &TimeoutError{Event: event, Timeout: timeout})
	if event != protocol.EventClose {
		w.RejectOnEvent(a, protocol.EventClose, ErrTargetClosed)
	}
	return w
}

// call fails fast once the application closed.
func (a *ElectronApplication) call(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	if a.State() == AppClosed {
		return nil, fmt.Errorf("%s.%s: %w", a.typ, method, ErrTargetClosed)
	}
	return a.Call(ctx, method, params)
}

// NewBrowserWindow opens a window with the given BrowserWindow options.
func (a *ElectronApplication) NewBrowserWindow(ctx context.Context, options interface{}) (*Page, error) {
	arg, err := serializeArgument(options)
	if err != nil {
		return nil, err
	}
	res, err := a.call(ctx, "newBrowserWindow", map[string]interface{}{"arg": arg})
	if err != nil {
		return nil, err
	}
	page, ok := res["page"].(*Page)
	if !ok {
		return nil, fmt.Errorf("newBrowserWindow returned %T, want *Page", res["page"])
	}
	return page, nil
}

// Evaluate runs expression in the application's main scripting context and
// returns the result by value. A function expression receives the
// application object and arg.
func (a *ElectronApplication) Evaluate(ctx context.Context, expression string, arg ...interface{}) (interface{}, error) {
	return evaluate(ctx, a.call, expression, arg)
}

// EvaluateHandle is Evaluate returning the result as a handle that stays
// in the target.
func (a *ElectronApplication) EvaluateHandle(ctx context.Context, expression string, arg ...interface{}) (*JSHandle, error) {
	return evaluateHandle(ctx, a.call, expression, arg)
}

// Close asks the target to quit and waits for the close push.
func (a *ElectronApplication) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.state == AppClosed {
		a.mu.Unlock()
		return nil
	}
	w := NewWaiter(protocol.EventClose).WithMetrics(a.conn.metrics)
	w.Arm(a, protocol.EventClose, nil)
	a.mu.Unlock()

	if _, err := a.Call(ctx, "close", nil); err != nil {
		w.Dispose()
		if a.State() == AppClosed {
			return nil
		}
		return err
	}
	_, err := w.Wait(ctx)
	return err
}
