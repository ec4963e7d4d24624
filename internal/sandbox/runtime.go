package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Runtime wraps a goja VM. All access to the VM goes through the runtime
// lock; goja values must not be used outside it.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex
	bound  map[string]goja.Value

	console   []LogEntry
	consoleMu sync.Mutex

	closed bool
}

// New creates a runtime with a locked-down global scope.
func New(config Config) (*Runtime, error) {
	r := &Runtime{
		vm:     goja.New(),
		config: config,
		bound:  make(map[string]goja.Value),
	}
	if config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(config.MaxCallStack)
	}
	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Bind builds a value with the VM and exposes it as a global and as a
// receiver name.
func (r *Runtime) Bind(name string, build func(vm *goja.Runtime) goja.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	v := build(r.vm)
	r.bound[name] = v
	return r.vm.Set(name, v)
}

// Evaluate runs req and returns the raw result. Use Serialize, Preview or
// Property to inspect it.
func (r *Runtime) Evaluate(ctx context.Context, req Request) (goja.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	stop := r.watch(ctx)
	defer stop()

	if !req.IsFunction {
		v, err := r.vm.RunString(req.Expression)
		if err != nil {
			return nil, r.convertError(err)
		}
		return r.settle(v)
	}

	fnValue, err := r.vm.RunString("(" + req.Expression + "\n)")
	if err != nil {
		return nil, r.convertError(err)
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFunction, fnValue.String())
	}

	receiver := req.This
	if req.Receiver != "" {
		receiver, ok = r.bound[req.Receiver]
		if !ok {
			return nil, fmt.Errorf("unknown receiver %q", req.Receiver)
		}
	}
	if receiver == nil {
		receiver = goja.Undefined()
	}

	arg, err := r.fromSerialized(req.Arg.Value, req.Handles)
	if err != nil {
		return nil, err
	}

	v, err := fn(goja.Undefined(), receiver, arg)
	if err != nil {
		return nil, r.convertError(err)
	}
	return r.settle(v)
}

// watch interrupts the VM on timeout or cancellation. The returned func
// must run before the VM is used again.
func (r *Runtime) watch(ctx context.Context) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	var timer *time.Timer
	var timeout <-chan time.Time
	if r.config.Timeout > 0 {
		timer = time.NewTimer(r.config.Timeout)
		timeout = timer.C
	}

	go func() {
		defer close(exited)
		select {
		case <-timeout:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	return func() {
		close(done)
		<-exited
		if timer != nil {
			timer.Stop()
		}
		r.vm.ClearInterrupt()
	}
}

// settle unwraps a promise that resolved during the call.
func (r *Runtime) settle(v goja.Value) (goja.Value, error) {
	if v == nil {
		return goja.Undefined(), nil
	}
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return v, nil
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result(), nil
	case goja.PromiseStateRejected:
		return nil, r.errorFromValue(p.Result())
	default:
		return nil, ErrPendingPromise
	}
}

func (r *Runtime) convertError(err error) error {
	switch e := err.(type) {
	case *goja.Exception:
		se := r.errorFromValue(e.Value())
		if se.Stack == "" {
			se.Stack = e.String()
		}
		return se
	case *goja.InterruptedError:
		return &ScriptError{Name: "InterruptedError", Message: fmt.Sprint(e.Value())}
	default:
		return &ScriptError{Name: "SyntaxError", Message: err.Error()}
	}
}

func (r *Runtime) errorFromValue(v goja.Value) *ScriptError {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return &ScriptError{Name: "Error", Message: valueString(v)}
	}
	return &ScriptError{
		Name:    valueString(obj.Get("name")),
		Message: valueString(obj.Get("message")),
		Stack:   valueString(obj.Get("stack")),
	}
}

func valueString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}
	return nil
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// DrainConsole returns and clears captured console output.
func (r *Runtime) DrainConsole() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	out := r.console
	r.console = nil
	return out
}

// Close releases the VM. Later calls fail with ErrClosed.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.vm = nil
	r.bound = nil
	return nil
}
