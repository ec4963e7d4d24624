package target

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/electron/internal/transport"
)

// controller drives a session with raw protocol messages.
type controller struct {
	t      *testing.T
	end    *transport.PipeEnd
	lastID int
}

func startSession(t *testing.T, opts Options) (*Session, *controller) {
	t.Helper()
	client, server := transport.Pipe()
	session := NewSession(server, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		client.Close()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("session did not stop")
		}
	})
	return session, &controller{t: t, end: client}
}

func (c *controller) request(guid, method string, params interface{}) int {
	c.t.Helper()
	raw, err := protocol.Marshal(params)
	require.NoError(c.t, err)
	c.lastID++
	require.NoError(c.t, c.end.Send(context.Background(), &protocol.Message{ID: c.lastID, GUID: guid, Method: method, Params: raw}))
	return c.lastID
}

// next returns the next message, failing after a second.
func (c *controller) next() *protocol.Message {
	c.t.Helper()
	got := make(chan *protocol.Message, 1)
	go func() {
		msg, err := c.end.Receive()
		if err == nil {
			got <- msg
		}
	}()
	select {
	case msg := <-got:
		return msg
	case <-time.After(time.Second):
		c.t.Fatal("no message from target")
		return nil
	}
}

func (c *controller) create() protocol.CreateParams {
	c.t.Helper()
	msg := c.next()
	require.Equal(c.t, protocol.MethodCreate, msg.Method)
	var params protocol.CreateParams
	require.NoError(c.t, protocol.Unmarshal(msg.Params, &params))
	return params
}

func (c *controller) response(id int) map[string]json.RawMessage {
	c.t.Helper()
	msg := c.next()
	require.Equal(c.t, id, msg.ID, "expected response to %d, got %+v", id, msg)
	require.Nil(c.t, msg.Error, "unexpected error response")
	out := map[string]json.RawMessage{}
	if len(msg.Result) > 0 {
		require.NoError(c.t, protocol.Unmarshal(msg.Result, &out))
	}
	return out
}

func (c *controller) launch() (app, ctx protocol.CreateParams) {
	c.t.Helper()
	id := c.request("", "initialize", map[string]interface{}{"sdkLanguage": "go"})
	electron := c.create()
	require.Equal(c.t, protocol.TypeElectron, electron.Type)
	c.response(id)

	id = c.request(electron.GUID, "launch", map[string]interface{}{"executablePath": "/opt/demo/demo", "args": []string{"--flag"}})
	ctx = c.create()
	app = c.create()
	require.Equal(c.t, protocol.TypeBrowserContext, ctx.Type)
	require.Equal(c.t, protocol.TypeElectronApplication, app.Type)
	c.response(id)
	return app, ctx
}

func TestInitializeCreatesElectron(t *testing.T) {
	_, c := startSession(t, Options{ManualWindows: true})

	id := c.request("", "initialize", map[string]interface{}{})
	electron := c.create()
	res := c.response(id)

	var ref protocol.ObjectRef
	require.NoError(t, protocol.Unmarshal(res["electron"], &ref))
	assert.Equal(t, electron.GUID, ref.GUID)
	assert.Contains(t, electron.GUID, "electron@")
}

func TestLaunchOpensFirstWindow(t *testing.T) {
	_, c := startSession(t, Options{WindowDelay: 10 * time.Millisecond})
	app, ctx := c.launch()

	var init map[string]protocol.ObjectRef
	require.NoError(t, protocol.Unmarshal(app.Initializer, &init))
	assert.Equal(t, ctx.GUID, init["context"].GUID)

	page := c.create()
	assert.Equal(t, protocol.TypePage, page.Type)

	pageEvent := c.next()
	assert.Equal(t, ctx.GUID, pageEvent.GUID)
	assert.Equal(t, protocol.EventPage, pageEvent.Method)

	windowEvent := c.next()
	assert.Equal(t, app.GUID, windowEvent.GUID)
	assert.Equal(t, protocol.EventWindow, windowEvent.Method)
	assert.JSONEq(t, `{"page":{"guid":"`+page.GUID+`"}}`, string(windowEvent.Params))
}

func TestEvaluateExpression(t *testing.T) {
	_, c := startSession(t, Options{ManualWindows: true})
	app, _ := c.launch()

	id := c.request(app.GUID, "evaluateExpression", map[string]interface{}{
		"expression": "({app}, n) => app.getName() + ':' + (n * 2)",
		"isFunction": true,
		"arg":        protocol.SerializedArgument{Value: protocol.Number(21), Handles: []protocol.ObjectRef{}},
	})
	res := c.response(id)
	assert.JSONEq(t, `{"s":"demo:42"}`, string(res["value"]))

	id = c.request(app.GUID, "evaluateExpression", map[string]interface{}{
		"expression": "process.argv.length",
		"arg":        protocol.SerializedArgument{Value: protocol.Special(protocol.SpecialUndefined), Handles: []protocol.ObjectRef{}},
	})
	res = c.response(id)
	assert.JSONEq(t, `{"n":2}`, string(res["value"]))
}

func TestEvaluateErrorResponse(t *testing.T) {
	_, c := startSession(t, Options{ManualWindows: true})
	app, _ := c.launch()

	id := c.request(app.GUID, "evaluateExpression", map[string]interface{}{
		"expression": "() => { throw new Error('kaboom') }",
		"isFunction": true,
		"arg":        protocol.SerializedArgument{Value: protocol.Null(), Handles: []protocol.ObjectRef{}},
	})
	msg := c.next()
	require.Equal(t, id, msg.ID)
	require.NotNil(t, msg.Error)
	assert.Equal(t, "Error", msg.Error.Name)
	assert.Equal(t, "kaboom", msg.Error.Message)
}

func TestUnknownObjectAndMethod(t *testing.T) {
	_, c := startSession(t, Options{ManualWindows: true})

	id := c.request("page@missing", "title", map[string]interface{}{})
	msg := c.next()
	require.Equal(t, id, msg.ID)
	require.NotNil(t, msg.Error)
	assert.Contains(t, msg.Error.Message, "page@missing")

	id = c.request("", "launch", map[string]interface{}{})
	msg = c.next()
	require.Equal(t, id, msg.ID)
	require.NotNil(t, msg.Error)
}

func TestCloseApplicationSequence(t *testing.T) {
	session, c := startSession(t, Options{ManualWindows: true})
	app, ctx := c.launch()

	pageGUID, err := session.OpenWindow(app.GUID, "file:///index.html", "Main")
	require.NoError(t, err)
	assert.Equal(t, pageGUID, c.create().GUID)
	c.next() // page
	c.next() // window

	id := c.request(app.GUID, "close", map[string]interface{}{})

	expected := []struct{ guid, method string }{
		{pageGUID, protocol.EventClose},
		{ctx.GUID, protocol.EventClose},
		{app.GUID, protocol.EventClose},
		{app.GUID, protocol.MethodDispose},
		{ctx.GUID, protocol.MethodDispose},
	}
	for _, want := range expected {
		msg := c.next()
		assert.Equal(t, want.guid, msg.GUID)
		assert.Equal(t, want.method, msg.Method)
	}
	c.response(id)

	assert.Empty(t, session.Applications())
	_, err = session.OpenWindow(app.GUID, "x", "y")
	assert.Error(t, err)
}

func TestHandleLifecycle(t *testing.T) {
	_, c := startSession(t, Options{ManualWindows: true})
	app, _ := c.launch()
	undefinedArg := protocol.SerializedArgument{Value: protocol.Special(protocol.SpecialUndefined), Handles: []protocol.ObjectRef{}}

	id := c.request(app.GUID, "evaluateExpressionHandle", map[string]interface{}{
		"expression": "[1, 2]",
		"arg":        undefinedArg,
	})
	handle := c.create()
	assert.Equal(t, protocol.TypeJSHandle, handle.Type)
	assert.JSONEq(t, `{"preview":"Array(2)"}`, string(handle.Initializer))
	c.response(id)

	id = c.request(handle.GUID, "evaluateExpression", map[string]interface{}{
		"expression": "a => a.push(3)",
		"isFunction": true,
		"arg":        undefinedArg,
	})
	update := c.next()
	assert.Equal(t, protocol.EventPreviewUpdated, update.Method)
	assert.JSONEq(t, `{"preview":"Array(3)"}`, string(update.Params))
	res := c.response(id)
	assert.JSONEq(t, `{"n":3}`, string(res["value"]))

	id = c.request(handle.GUID, "getProperty", map[string]interface{}{"name": "length"})
	prop := c.create()
	assert.JSONEq(t, `{"preview":"3"}`, string(prop.Initializer))
	c.response(id)

	id = c.request(handle.GUID, "jsonValue", map[string]interface{}{})
	res = c.response(id)
	assert.JSONEq(t, `{"a":[{"n":1},{"n":2},{"n":3}]}`, string(res["value"]))

	id = c.request(handle.GUID, "dispose", map[string]interface{}{})
	disposed := c.next()
	assert.Equal(t, protocol.MethodDispose, disposed.Method)
	assert.Equal(t, handle.GUID, disposed.GUID)
	c.response(id)
}

func TestQuitFromScriptClosesApplication(t *testing.T) {
	session, c := startSession(t, Options{ManualWindows: true})
	app, ctx := c.launch()

	id := c.request(app.GUID, "evaluateExpression", map[string]interface{}{
		"expression": "({app}) => { app.quit(); return 'bye' }",
		"isFunction": true,
		"arg":        protocol.SerializedArgument{Value: protocol.Null(), Handles: []protocol.ObjectRef{}},
	})
	assert.Equal(t, ctx.GUID, c.next().GUID) // context close
	assert.Equal(t, app.GUID, c.next().GUID) // app close
	assert.Equal(t, app.GUID, c.next().GUID) // app dispose
	assert.Equal(t, ctx.GUID, c.next().GUID) // context dispose
	res := c.response(id)
	assert.JSONEq(t, `{"s":"bye"}`, string(res["value"]))
	assert.Empty(t, session.Applications())
}
