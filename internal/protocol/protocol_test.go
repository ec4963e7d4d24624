package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProxy struct{ guid string }

func (f fakeProxy) Ref() ObjectRef { return ObjectRef{GUID: f.guid} }

type ptrProxy struct{ guid string }

func (p *ptrProxy) Ref() ObjectRef { return ObjectRef{GUID: p.guid} }

func TestSerializedValueJSON(t *testing.T) {
	tests := []struct {
		name  string
		value SerializedValue
		json  string
	}{
		{"number", Number(42), `{"n":42}`},
		{"string", String("hi"), `{"s":"hi"}`},
		{"bool", Bool(true), `{"b":true}`},
		{"null", Null(), `{"v":"null"}`},
		{"empty array", SerializedValue{Kind: KindArray}, `{"a":[]}`},
		{"handle", SerializedValue{Kind: KindHandle, Handle: 2}, `{"h":2}`},
		{
			"object",
			SerializedValue{Kind: KindObject, Props: []Property{{K: "x", V: Number(1)}}},
			`{"o":[{"k":"x","v":{"n":1}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var back SerializedValue
			require.NoError(t, Unmarshal(data, &back))
			assert.Equal(t, tt.value.Kind, back.Kind)
		})
	}
}

func TestSerializedValueRejectsMultipleKeys(t *testing.T) {
	var v SerializedValue
	err := Unmarshal([]byte(`{"n":1,"s":"x"}`), &v)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	iface, err := Lookup(TypeElectronApplication)
	require.NoError(t, err)

	_, err = iface.Method("evaluateExpression")
	assert.NoError(t, err)

	_, err = iface.Method("launch")
	assert.True(t, errors.Is(err, ErrUnknownMethod))

	_, err = Lookup("Browser")
	assert.True(t, errors.Is(err, ErrUnknownType))

	assert.Contains(t, Types(), TypePage)
}

func TestFieldsValidate(t *testing.T) {
	iface, _ := Lookup(TypeElectron)
	launch, _ := iface.Method("launch")

	tests := []struct {
		name    string
		params  map[string]interface{}
		wantErr bool
	}{
		{"minimal", map[string]interface{}{"executablePath": "/bin/app"}, false},
		{"with args", map[string]interface{}{"executablePath": "/bin/app", "args": []string{"--x"}}, false},
		{"missing required", map[string]interface{}{"cwd": "/tmp"}, true},
		{"wrong kind", map[string]interface{}{"executablePath": 5}, true},
		{"unexpected", map[string]interface{}{"executablePath": "/bin/app", "logger": "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := launch.Params.Validate(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestFieldsEncodeReplacesProxies(t *testing.T) {
	fields := Fields{{Name: "page", Kind: FieldObject}}
	data, err := fields.Encode(map[string]interface{}{"page": fakeProxy{guid: "page@1"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":{"guid":"page@1"}}`, string(data))
}

func TestFieldsRejectNilProxy(t *testing.T) {
	fields := Fields{{Name: "page", Kind: FieldObject, Optional: true}}
	params := map[string]interface{}{"page": (*ptrProxy)(nil)}

	assert.True(t, errors.Is(fields.Validate(params), ErrInvalidParams))
	assert.NotPanics(t, func() {
		_, err := fields.Encode(params)
		assert.True(t, errors.Is(err, ErrInvalidParams))
	})

	data, err := fields.Encode(map[string]interface{}{"page": &ptrProxy{guid: "page@2"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":{"guid":"page@2"}}`, string(data))
}

func TestFieldsDecodeResolvesObjects(t *testing.T) {
	fields := Fields{
		{Name: "page", Kind: FieldObject},
		{Name: "title", Kind: FieldString, Optional: true},
	}
	resolved := map[string]string{}
	out, err := fields.Decode(json.RawMessage(`{"page":{"guid":"page@1"},"extra":1}`), func(ref ObjectRef) (interface{}, error) {
		resolved[ref.GUID] = "seen"
		return "proxy:" + ref.GUID, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "proxy:page@1", out["page"])
	assert.NotContains(t, out, "title")
	assert.NotContains(t, out, "extra")
	assert.Equal(t, "seen", resolved["page@1"])

	_, err = fields.Decode(json.RawMessage(`{}`), nil)
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestMessageRoundTrip(t *testing.T) {
	msg := &Message{ID: 3, GUID: "app@1", Method: "close", Params: json.RawMessage(`{}`)}
	data, err := EncodeMessage(msg)
	require.NoError(t, err)

	back, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, 3, back.ID)
	assert.Equal(t, "app@1", back.GUID)
	assert.False(t, back.IsResponse())

	resp := &Message{ID: 3, Error: &ErrorPayload{Message: "boom"}}
	assert.True(t, resp.IsResponse())
}
