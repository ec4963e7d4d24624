package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// DefaultTimeout applies to event waits when nothing else is configured.
const DefaultTimeout = 30 * time.Second

// Transport moves messages between the controller and the target.
// Receive is only called from the dispatch goroutine.
type Transport interface {
	Send(ctx context.Context, msg *protocol.Message) error
	Receive() (*protocol.Message, error)
	Close() error
}

type callback struct {
	typ    string
	method string
	fields protocol.Fields
	result map[string]interface{}
	err    error
	done   chan struct{}
}

// Connection owns a transport, the GUID registry and the dispatch goroutine.
type Connection struct {
	id             string
	transport      Transport
	logger         *logging.Logger
	metrics        *monitoring.Metrics
	breaker        *resilience.Breaker
	limiter        *rate.Limiter
	defaultTimeout time.Duration

	mu        sync.Mutex
	objects   map[string]Object   // Protected by mu
	retired   map[string]struct{} // Disposed guids; protected by mu
	callbacks map[int]*callback // Protected by mu
	lastID    int
	closed    bool
	closeErr  error

	root      *Root
	electron  *Electron
	startOnce sync.Once
	done      chan struct{}
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(c *Connection) { c.metrics = metrics }
}

// WithBreaker guards transport sends with a circuit breaker.
func WithBreaker(breaker *resilience.Breaker) Option {
	return func(c *Connection) { c.breaker = breaker }
}

// WithRateLimit throttles outgoing calls. A zero limit disables throttling.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Connection) {
		if limit > 0 {
			c.limiter = rate.NewLimiter(limit, burst)
		}
	}
}

// WithDefaultTimeout sets the event-wait timeout of new applications.
// Zero disables the timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Connection) { c.defaultTimeout = d }
}

// NewConnection creates a connection with a root object. Call Start to begin
// dispatching.
func NewConnection(transport Transport, opts ...Option) *Connection {
	c := &Connection{
		id:             uuid.NewString(),
		transport:      transport,
		logger:         logging.NewNop(),
		defaultTimeout: DefaultTimeout,
		objects:        make(map[string]Object),
		retired:        make(map[string]struct{}),
		callbacks:      make(map[int]*callback),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("connection").With(zap.String("connection", c.id))
	c.root = newRoot(c)
	return c
}

// Connect starts a connection and initializes the session.
func Connect(ctx context.Context, transport Transport, opts ...Option) (*Connection, error) {
	c := NewConnection(transport, opts...)
	c.Start()

	electron, err := c.root.initialize(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize session: %w", err)
	}
	c.electron = electron
	c.logger.Info("session initialized", logging.GUID(electron.GUID()))
	return c, nil
}

// ID returns the connection id used in logs.
func (c *Connection) ID() string { return c.id }

// Root returns the root object.
func (c *Connection) Root() *Root { return c.root }

// Electron returns the launcher obtained by Connect.
func (c *Connection) Electron() *Electron { return c.electron }

// Start launches the dispatch goroutine. Calling it twice is a no-op.
func (c *Connection) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

// Done is closed once the dispatch goroutine exits.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Err returns why the connection closed, or nil while it is open.
func (c *Connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// Close closes the transport and waits for the dispatch goroutine to drain.
func (c *Connection) Close() error {
	err := c.transport.Close()
	c.startOnce.Do(func() {
		c.shutdown(ErrConnectionClosed)
		close(c.done)
	})
	<-c.done
	return err
}

// Lookup returns the proxy registered for guid.
func (c *Connection) Lookup(guid string) (Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[guid]
	return obj, ok
}

// known reports whether guid is registered or was disposed earlier on this
// connection. Guids are never reused.
func (c *Connection) known(guid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[guid]; ok {
		return true
	}
	_, ok := c.retired[guid]
	return ok
}

func (c *Connection) resolve(ref protocol.ObjectRef) (interface{}, error) {
	obj, ok := c.Lookup(ref.GUID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, ref.GUID)
	}
	return obj, nil
}

func (c *Connection) register(obj Object) {
	c.mu.Lock()
	c.objects[obj.GUID()] = obj
	c.mu.Unlock()
	c.metrics.ObjectCreated()
}

func (c *Connection) unregister(guid string) {
	c.mu.Lock()
	_, ok := c.objects[guid]
	if ok {
		delete(c.objects, guid)
		c.retired[guid] = struct{}{}
	}
	c.mu.Unlock()
	if ok {
		c.metrics.ObjectDisposed()
	}
}

func (c *Connection) call(ctx context.Context, o *RemoteObject, method string, params map[string]interface{}) (map[string]interface{}, error) {
	m, err := o.iface.Method(method)
	if err != nil {
		return nil, err
	}
	raw, err := m.Params.Encode(params)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", o.typ, method, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s.%s: %w", o.typ, method, ErrDisposed)
	}
	c.lastID++
	id := c.lastID
	cb := &callback{typ: o.typ, method: method, fields: m.Result, done: make(chan struct{})}
	c.callbacks[id] = cb
	c.mu.Unlock()

	timer := monitoring.NewCallTimer(c.metrics, o.typ, method)
	msg := &protocol.Message{ID: id, GUID: o.guid, Method: method, Params: raw}
	o.logger.Debug("call", logging.Method(method), zap.Int("id", id))

	if err := c.send(ctx, msg); err != nil {
		c.dropCallback(id)
		callErr := &RemoteCallError{Type: o.typ, Method: method, Message: err.Error(), cause: err}
		timer.Stop(callErr)
		return nil, callErr
	}

	select {
	case <-cb.done:
		timer.Stop(cb.err)
		if cb.err != nil {
			return nil, cb.err
		}
		return cb.result, nil
	case <-ctx.Done():
		c.dropCallback(id)
		timer.Stop(ctx.Err())
		return nil, ctx.Err()
	}
}

func (c *Connection) send(ctx context.Context, msg *protocol.Message) error {
	if c.breaker == nil {
		return c.transport.Send(ctx, msg)
	}
	return c.breaker.Do(func() error {
		return c.transport.Send(ctx, msg)
	})
}

func (c *Connection) dropCallback(id int) {
	c.mu.Lock()
	delete(c.callbacks, id)
	c.mu.Unlock()
}

func (c *Connection) run() {
	defer close(c.done)
	for {
		msg, err := c.transport.Receive()
		if err != nil {
			c.shutdown(err)
			return
		}
		c.dispatch(msg)
	}
}

func (c *Connection) dispatch(msg *protocol.Message) {
	if msg.IsResponse() {
		c.settleCallback(msg)
		return
	}

	obj, ok := c.Lookup(msg.GUID)
	if !ok {
		c.logger.Warn("push for unknown object", logging.GUID(msg.GUID), logging.Event(msg.Method))
		return
	}
	o := obj.remote()

	switch msg.Method {
	case protocol.MethodCreate:
		var params protocol.CreateParams
		if err := protocol.Unmarshal(msg.Params, &params); err != nil {
			c.logger.Error("malformed __create__", logging.GUID(msg.GUID), zap.Error(err))
			return
		}
		if _, err := c.createObject(o, params); err != nil {
			c.logger.Error("create object", logging.GUID(params.GUID), zap.String("type", params.Type), zap.Error(err))
		}
	case protocol.MethodDispose:
		o.dispose()
	default:
		event, ok := o.iface.Event(msg.Method)
		if !ok {
			o.logger.Warn("push not in schema", logging.Event(msg.Method))
			return
		}
		params, err := event.Params.Decode(msg.Params, c.resolve)
		if err != nil {
			o.logger.Error("malformed push", logging.Event(msg.Method), zap.Error(err))
			return
		}
		c.metrics.RecordPush(o.typ, msg.Method)
		o.channel.Emit(msg.Method, params)
	}
}

func (c *Connection) settleCallback(msg *protocol.Message) {
	c.mu.Lock()
	cb, ok := c.callbacks[msg.ID]
	delete(c.callbacks, msg.ID)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("response without pending call", zap.Int("id", msg.ID))
		return
	}

	if msg.Error != nil {
		cb.err = &RemoteCallError{
			Type:    cb.typ,
			Method:  cb.method,
			Name:    msg.Error.Name,
			Message: msg.Error.Message,
			Stack:   msg.Error.Stack,
		}
	} else {
		// Decoded here so GUIDs resolve against the registry as of this response.
		result, err := cb.fields.Decode(msg.Result, c.resolve)
		if err != nil {
			cb.err = &RemoteCallError{Type: cb.typ, Method: cb.method, Message: err.Error(), cause: err}
		}
		cb.result = result
	}
	close(cb.done)
}

// shutdown fails pending calls and disposes the object tree.
func (c *Connection) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if cause == nil || errors.Is(cause, ErrConnectionClosed) {
		c.closeErr = ErrConnectionClosed
	} else {
		c.closeErr = fmt.Errorf("%w: %v", ErrConnectionClosed, cause)
	}
	pending := c.callbacks
	c.callbacks = make(map[int]*callback)
	c.mu.Unlock()

	for _, cb := range pending {
		cb.err = c.closeErr
		close(cb.done)
	}
	c.root.dispose()
	c.logger.Info("connection closed", zap.Error(cause))
}
