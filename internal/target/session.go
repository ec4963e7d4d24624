package target

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/electron/internal/sandbox"
	"github.com/GriffinCanCode/AgentOS/electron/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/electron/internal/transport"
)

const sendTimeout = 5 * time.Second

// Options configures a Session.
type Options struct {
	// WindowDelay is how long a launched application takes to open its
	// first window.
	WindowDelay time.Duration
	// ManualWindows disables the first window; tests open windows with
	// OpenWindow instead.
	ManualWindows bool
	// ScriptTimeout bounds a single evaluation. Zero disables it.
	ScriptTimeout time.Duration
	Logger        *logging.Logger
	Metrics       *monitoring.Metrics
}

// DefaultOptions returns options matching the default target config.
func DefaultOptions() Options {
	return Options{
		WindowDelay:   100 * time.Millisecond,
		ScriptTimeout: 5 * time.Second,
	}
}

// Session serves one controller.
type Session struct {
	id        string
	transport transport.Transport
	opts      Options
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	ids       *id.Generator

	mu       sync.Mutex
	ctx      context.Context
	objects  map[string]*object // Protected by mu
	root     *object
	electron *object
	apps     []*application
	closed   bool
}

// NewSession creates a session on t. Call Serve to start it.
func NewSession(t transport.Transport, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	root := &object{guid: "", typ: protocol.TypeRoot, children: map[string]*object{}}
	ids := id.NewGenerator()
	sessionID := ids.Generate().String()
	return &Session{
		id:        sessionID,
		transport: t,
		opts:      opts,
		logger:    logger.Named("session").With(zap.String("session", sessionID)),
		metrics:   opts.Metrics,
		ids:       ids,
		ctx:       context.Background(),
		objects:   map[string]*object{"": root},
		root:      root,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Serve handles requests until the transport closes or ctx is cancelled.
// A closed transport is a normal end and returns nil.
func (s *Session) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.TargetSessions.Inc()
		defer s.metrics.TargetSessions.Dec()
	}
	go func() {
		<-ctx.Done()
		s.transport.Close()
	}()
	defer s.shutdown()

	s.logger.Info("session started")
	for {
		msg, err := s.transport.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		if msg.IsResponse() || msg.ID == 0 {
			s.logger.Warn("ignoring message without request id", logging.GUID(msg.GUID), logging.Method(msg.Method))
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, app := range s.apps {
		if app.windowTimer != nil {
			app.windowTimer.Stop()
		}
		app.runtime.Close()
	}
	s.logger.Info("session ended", zap.Int("applications", len(s.apps)))
}

func (s *Session) handle(msg *protocol.Message) {
	start := time.Now()

	s.mu.Lock()
	result, err := s.invoke(msg)
	resp := &protocol.Message{ID: msg.ID}
	if err != nil {
		resp.Error = errorPayload(err)
		s.logger.Debug("call failed", logging.GUID(msg.GUID), logging.Method(msg.Method), zap.Error(err))
	} else {
		resp.Result = result
	}
	s.send(resp)
	s.mu.Unlock()

	s.logger.Debug("call", logging.GUID(msg.GUID), logging.Method(msg.Method), logging.Elapsed(start))
}

func (s *Session) invoke(msg *protocol.Message) (json.RawMessage, error) {
	obj, ok := s.objects[msg.GUID]
	if !ok {
		return nil, fmt.Errorf("target object %q was disposed or never existed", msg.GUID)
	}
	iface, err := protocol.Lookup(obj.typ)
	if err != nil {
		return nil, err
	}
	m, err := iface.Method(msg.Method)
	if err != nil {
		return nil, err
	}
	params, err := m.Params.Decode(msg.Params, s.resolve)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", obj.typ, msg.Method, err)
	}

	result, err := s.call(obj, msg.Method, params)
	if err != nil {
		return nil, err
	}
	return m.Result.Encode(result)
}

func (s *Session) resolve(ref protocol.ObjectRef) (interface{}, error) {
	obj, ok := s.objects[ref.GUID]
	if !ok {
		return nil, fmt.Errorf("unknown object %q", ref.GUID)
	}
	return obj, nil
}

// send writes msg. Called with mu held.
func (s *Session) send(msg *protocol.Message) {
	if s.closed {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, sendTimeout)
	defer cancel()
	if err := s.transport.Send(ctx, msg); err != nil {
		s.logger.Warn("send failed", logging.GUID(msg.GUID), logging.Method(msg.Method), zap.Error(err))
	}
}

// create registers a new object under parent and announces it.
func (s *Session) create(parent *object, typ string, initializer map[string]interface{}, app *application) (*object, error) {
	iface, err := protocol.Lookup(typ)
	if err != nil {
		return nil, err
	}
	raw, err := iface.Initializer.Encode(initializer)
	if err != nil {
		return nil, fmt.Errorf("initializer of %s: %w", typ, err)
	}
	guid := s.ids.GUID(typ).String()
	params, err := protocol.Marshal(protocol.CreateParams{Type: typ, GUID: guid, Initializer: raw})
	if err != nil {
		return nil, err
	}

	obj := &object{
		guid:     guid,
		typ:      typ,
		parent:   parent,
		children: map[string]*object{},
		app:      app,
	}
	parent.children[obj.guid] = obj
	s.objects[obj.guid] = obj

	s.send(&protocol.Message{GUID: parent.guid, Method: protocol.MethodCreate, Params: params})
	return obj, nil
}

// emit pushes an event checked against the object's schema.
func (s *Session) emit(obj *object, event string, params map[string]interface{}) {
	iface, err := protocol.Lookup(obj.typ)
	if err != nil {
		s.logger.Error("emit on unknown type", logging.GUID(obj.guid), zap.Error(err))
		return
	}
	e, ok := iface.Event(event)
	if !ok {
		s.logger.Error("event not in schema", logging.GUID(obj.guid), logging.Event(event))
		return
	}
	raw, err := e.Params.Encode(params)
	if err != nil {
		s.logger.Error("encode event", logging.GUID(obj.guid), logging.Event(event), zap.Error(err))
		return
	}
	s.send(&protocol.Message{GUID: obj.guid, Method: event, Params: raw})
}

// dispose drops obj and its subtree and announces it. The controller
// disposes children recursively, so only obj is announced.
func (s *Session) dispose(obj *object) {
	if _, ok := s.objects[obj.guid]; !ok {
		return
	}
	s.forget(obj)
	if obj.parent != nil {
		delete(obj.parent.children, obj.guid)
	}
	s.send(&protocol.Message{GUID: obj.guid, Method: protocol.MethodDispose, Params: json.RawMessage(`{}`)})
}

func (s *Session) forget(obj *object) {
	for _, child := range obj.children {
		s.forget(child)
	}
	obj.children = map[string]*object{}
	delete(s.objects, obj.guid)
}

func errorPayload(err error) *protocol.ErrorPayload {
	var scriptErr *sandbox.ScriptError
	if errors.As(err, &scriptErr) {
		return &protocol.ErrorPayload{Name: scriptErr.Name, Message: scriptErr.Message, Stack: scriptErr.Stack}
	}
	return &protocol.ErrorPayload{Name: "Error", Message: err.Error()}
}
