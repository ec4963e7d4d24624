package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

func newRuntime(t *testing.T, config Config) *Runtime {
	t.Helper()
	rt, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestRuntimeExpression(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	tests := []struct {
		name   string
		script string
		want   protocol.SerializedValue
	}{
		{name: "number", script: "6 * 7", want: protocol.Number(42)},
		{name: "string", script: "'hello'.toUpperCase()", want: protocol.String("HELLO")},
		{name: "undefined", script: "undefined", want: protocol.Special(protocol.SpecialUndefined)},
		{name: "nan", script: "0/0", want: protocol.Special(protocol.SpecialNaN)},
		{name: "negative zero", script: "-0", want: protocol.Special(protocol.SpecialNegZero)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := rt.Evaluate(context.Background(), Request{Expression: tt.script})
			require.NoError(t, err)
			got, err := rt.Serialize(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuntimeStatePersists(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	ctx := context.Background()

	_, err := rt.Evaluate(ctx, Request{Expression: "globalThis.counter = 1"})
	require.NoError(t, err)
	v, err := rt.Evaluate(ctx, Request{Expression: "++counter"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Export())
}

func TestRuntimeFunctionReceivesBoundReceiverAndArg(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	require.NoError(t, rt.Bind("electron", func(vm *goja.Runtime) goja.Value {
		app := vm.NewObject()
		_ = app.Set("getName", func() string { return "demo" })
		module := vm.NewObject()
		_ = module.Set("app", app)
		return module
	}))

	v, err := rt.Evaluate(context.Background(), Request{
		Expression: "({app}, suffix) => app.getName() + suffix",
		IsFunction: true,
		Receiver:   "electron",
		Arg:        protocol.SerializedArgument{Value: protocol.String("!")},
	})
	require.NoError(t, err)
	assert.Equal(t, "demo!", v.String())
}

func TestRuntimeHandlesInArgument(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	ctx := context.Background()

	obj, err := rt.Evaluate(ctx, Request{Expression: "({n: 5})"})
	require.NoError(t, err)

	v, err := rt.Evaluate(ctx, Request{
		Expression: "(_, a) => a.target.n * a.factor",
		IsFunction: true,
		Arg: protocol.SerializedArgument{
			Value: protocol.SerializedValue{Kind: protocol.KindObject, Props: []protocol.Property{
				{K: "target", V: protocol.SerializedValue{Kind: protocol.KindHandle, Handle: 0}},
				{K: "factor", V: protocol.Number(3)},
			}},
			Handles: []protocol.ObjectRef{{GUID: "jshandle@1"}},
		},
		Handles: []goja.Value{obj},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(15), v.ToFloat())
}

func TestRuntimeAsyncFunction(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	v, err := rt.Evaluate(context.Background(), Request{
		Expression: "async () => { const x = await Promise.resolve(20); return x + 1 }",
		IsFunction: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), v.Export())

	_, err = rt.Evaluate(context.Background(), Request{
		Expression: "async () => { throw new TypeError('nope') }",
		IsFunction: true,
	})
	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "TypeError", scriptErr.Name)
	assert.Equal(t, "nope", scriptErr.Message)
}

func TestRuntimeThrownError(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	_, err := rt.Evaluate(context.Background(), Request{Expression: "throw new RangeError('bad range')"})
	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "RangeError", scriptErr.Name)
	assert.Equal(t, "bad range", scriptErr.Message)
	assert.NotEmpty(t, scriptErr.Stack)
}

func TestRuntimeNotAFunction(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	_, err := rt.Evaluate(context.Background(), Request{Expression: "42", IsFunction: true})
	assert.True(t, errors.Is(err, ErrNotFunction))
}

func TestRuntimeSecurity(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	dangerousScripts := []struct {
		name   string
		script string
	}{
		{name: "require blocked", script: "require('fs')"},
		{name: "process blocked", script: "process.exit(1)"},
		{name: "module blocked", script: "module.exports = {}"},
	}

	for _, tt := range dangerousScripts {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Evaluate(context.Background(), Request{Expression: tt.script})
			assert.Error(t, err)
		})
	}
}

func TestRuntimeTimeout(t *testing.T) {
	rt := newRuntime(t, Config{Timeout: 100 * time.Millisecond})

	_, err := rt.Evaluate(context.Background(), Request{Expression: "while(true) {}"})
	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "InterruptedError", scriptErr.Name)

	v, err := rt.Evaluate(context.Background(), Request{Expression: "1 + 1"})
	require.NoError(t, err, "runtime must be usable after an interrupt")
	assert.Equal(t, int64(2), v.Export())
}

func TestRuntimeConsoleCapture(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	_, err := rt.Evaluate(context.Background(), Request{Expression: `
		console.log('info message');
		console.warn('warning message');
		console.error('error message');
		'done'
	`})
	require.NoError(t, err)

	entries := rt.DrainConsole()
	require.Len(t, entries, 3)
	levels := []string{"log", "warn", "error"}
	for i, entry := range entries {
		assert.Equal(t, levels[i], entry.Level)
	}
	assert.Empty(t, rt.DrainConsole())
}

func TestSerializeStructures(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	ctx := context.Background()

	v, err := rt.Evaluate(ctx, Request{Expression: "({list: [1, 'two', null], when: new Date(0), fn() {}})"})
	require.NoError(t, err)
	got, err := rt.Serialize(v)
	require.NoError(t, err)

	require.Equal(t, protocol.KindObject, got.Kind)
	require.Len(t, got.Props, 3)
	assert.Equal(t, "list", got.Props[0].K)
	assert.Equal(t, []protocol.SerializedValue{protocol.Number(1), protocol.String("two"), protocol.Null()}, got.Props[0].V.Items)
	assert.Equal(t, protocol.KindDate, got.Props[1].V.Kind)
	assert.Equal(t, "1970-01-01T00:00:00Z", got.Props[1].V.Str)
	assert.Equal(t, protocol.Special(protocol.SpecialUndefined), got.Props[2].V)

	cyclic, err := rt.Evaluate(ctx, Request{Expression: "const o = {}; o.self = o; o"})
	require.NoError(t, err)
	_, err = rt.Serialize(cyclic)
	assert.Error(t, err)
}

func TestArgumentRoundTrip(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	v, err := rt.Evaluate(context.Background(), Request{
		Expression: "(_, a) => a",
		IsFunction: true,
		Arg: protocol.SerializedArgument{Value: protocol.SerializedValue{Kind: protocol.KindArray, Items: []protocol.SerializedValue{
			protocol.Special(protocol.SpecialInfinity),
			protocol.Special(protocol.SpecialNegZero),
			{Kind: protocol.KindDate, Str: "2024-01-02T03:04:05Z"},
		}}},
	})
	require.NoError(t, err)

	got, err := rt.Serialize(v)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, protocol.Special(protocol.SpecialInfinity), got.Items[0])
	assert.Equal(t, protocol.Special(protocol.SpecialNegZero), got.Items[1])
	assert.Equal(t, "2024-01-02T03:04:05Z", got.Items[2].Str)
}

func TestPropertyAndPreview(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	v, err := rt.Evaluate(context.Background(), Request{Expression: "({name: 'win', list: []})"})
	require.NoError(t, err)
	assert.Equal(t, "JSHandle@object", rt.Preview(v))

	name, err := rt.Property(v, "name")
	require.NoError(t, err)
	assert.Equal(t, "win", rt.Preview(name))

	list, err := rt.Property(v, "list")
	require.NoError(t, err)
	assert.Equal(t, "Array(0)", rt.Preview(list))

	missing, err := rt.Property(v, "nope")
	require.NoError(t, err)
	assert.Equal(t, "undefined", rt.Preview(missing))

	_, err = rt.Property(goja.Undefined(), "x")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	out, err := rt.Export(protocol.SerializedArgument{Value: protocol.SerializedValue{
		Kind:  protocol.KindObject,
		Props: []protocol.Property{{K: "width", V: protocol.Number(800)}},
	}}, nil)
	require.NoError(t, err)

	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 800, m["width"])
}

func TestClosedRuntime(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	_, err = rt.Evaluate(context.Background(), Request{Expression: "1"})
	assert.True(t, errors.Is(err, ErrClosed))
}
