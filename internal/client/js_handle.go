package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// JSHandle references a value living in the target's scripting context.
type JSHandle struct {
	RemoteObject

	previewMu sync.RWMutex
	preview   string
}

func newJSHandle(c *Connection, parent *RemoteObject, guid string, iface *protocol.Interface, initializer map[string]interface{}) *JSHandle {
	h := &JSHandle{}
	h.init(c, h, parent, protocol.TypeJSHandle, guid, iface, initializer)
	h.preview = h.initString("preview")

	h.channel.On(protocol.EventPreviewUpdated, func(payload interface{}) {
		params := payload.(map[string]interface{})
		h.previewMu.Lock()
		h.preview, _ = params["preview"].(string)
		h.previewMu.Unlock()
	})
	return h
}

// String returns the target's preview of the value.
func (h *JSHandle) String() string {
	h.previewMu.RLock()
	defer h.previewMu.RUnlock()
	return h.preview
}

// Evaluate calls expression with the handle's value as its first parameter.
func (h *JSHandle) Evaluate(ctx context.Context, expression string, arg ...interface{}) (interface{}, error) {
	return evaluate(ctx, h.Call, expression, arg)
}

// EvaluateHandle is Evaluate returning the result as a handle.
func (h *JSHandle) EvaluateHandle(ctx context.Context, expression string, arg ...interface{}) (*JSHandle, error) {
	return evaluateHandle(ctx, h.Call, expression, arg)
}

// GetProperty returns a handle to one property of the value.
func (h *JSHandle) GetProperty(ctx context.Context, name string) (*JSHandle, error) {
	res, err := h.Call(ctx, "getProperty", map[string]interface{}{"name": name})
	if err != nil {
		return nil, err
	}
	prop, ok := res["handle"].(*JSHandle)
	if !ok {
		return nil, fmt.Errorf("getProperty returned %T, want *JSHandle", res["handle"])
	}
	return prop, nil
}

// JSONValue copies the value into the controller.
func (h *JSHandle) JSONValue(ctx context.Context) (interface{}, error) {
	res, err := h.Call(ctx, "jsonValue", nil)
	if err != nil {
		return nil, err
	}
	return parseResult(res["value"].(protocol.SerializedValue))
}

// Dispose releases the value in the target.
func (h *JSHandle) Dispose(ctx context.Context) error {
	if h.IsDisposed() {
		return nil
	}
	_, err := h.Call(ctx, "dispose", nil)
	return err
}
