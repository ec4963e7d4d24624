package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// Object is a local proxy of a remote object.
type Object interface {
	protocol.Referencer
	GUID() string
	Type() string
	remote() *RemoteObject
}

// RemoteObject is the state shared by every proxy: identity, position in the
// ownership tree, the connection used for calls and two emitters. The
// embedded EventEmitter carries public events; channel carries raw pushes
// decoded by the schema and is consumed by the concrete type.
type RemoteObject struct {
	EventEmitter

	conn        *Connection
	self        Object
	guid        string
	typ         string
	iface       *protocol.Interface
	initializer map[string]interface{}
	channel     EventEmitter
	logger      *logging.Logger

	mu        sync.Mutex
	parent    *RemoteObject
	children  map[string]Object
	disposed  bool
	onDispose []func()
}

func (o *RemoteObject) init(conn *Connection, self Object, parent *RemoteObject, typ, guid string, iface *protocol.Interface, initializer map[string]interface{}) {
	o.conn = conn
	o.self = self
	o.guid = guid
	o.typ = typ
	o.iface = iface
	o.initializer = initializer
	o.parent = parent
	o.children = make(map[string]Object)
	o.logger = conn.logger.ForObject(typ, guid)

	if parent != nil {
		parent.mu.Lock()
		parent.children[guid] = self
		parent.mu.Unlock()
	}
	conn.register(self)
}

// GUID returns the wire identifier.
func (o *RemoteObject) GUID() string { return o.guid }

// Type returns the object type tag.
func (o *RemoteObject) Type() string { return o.typ }

// Ref returns the wire reference to this object.
func (o *RemoteObject) Ref() protocol.ObjectRef { return protocol.ObjectRef{GUID: o.guid} }

func (o *RemoteObject) remote() *RemoteObject { return o }

// Parent returns the owning object, or nil for the root.
func (o *RemoteObject) Parent() Object {
	if o.parent == nil {
		return nil
	}
	return o.parent.self
}

// Children returns the objects currently owned by this one.
func (o *RemoteObject) Children() []Object {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Object, 0, len(o.children))
	for _, child := range o.children {
		out = append(out, child)
	}
	return out
}

// IsDisposed reports whether the object was disposed.
func (o *RemoteObject) IsDisposed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disposed
}

// Call sends method to the target and waits for the matched response.
// params and the result are checked against the type's schema.
func (o *RemoteObject) Call(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	if o.IsDisposed() {
		return nil, fmt.Errorf("%s.%s: %w", o.typ, method, ErrDisposed)
	}
	return o.conn.call(ctx, o, method, params)
}

func (o *RemoteObject) addDisposeHook(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onDispose = append(o.onDispose, fn)
}

// dispose tears down the subtree rooted at o. Runs on the dispatch goroutine.
func (o *RemoteObject) dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	children := make([]Object, 0, len(o.children))
	for _, child := range o.children {
		children = append(children, child)
	}
	o.children = map[string]Object{}
	hooks := o.onDispose
	o.onDispose = nil
	o.mu.Unlock()

	for _, child := range children {
		child.remote().dispose()
	}

	if o.parent != nil {
		o.parent.mu.Lock()
		delete(o.parent.children, o.guid)
		o.parent.mu.Unlock()
	}
	o.conn.unregister(o.guid)

	for _, hook := range hooks {
		hook()
	}
	o.channel.RemoveAllListeners()
	o.logger.Debug("disposed")
}

func (o *RemoteObject) initString(name string) string {
	s, _ := o.initializer[name].(string)
	return s
}
