package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Reserved push methods that manage the object tree.
const (
	MethodCreate  = "__create__"
	MethodDispose = "__dispose__"
)

// codec is the JSON engine used for every message body.
var codec = sonic.ConfigStd

// Message is the envelope exchanged over a transport.
//
// Requests carry ID, GUID, Method and Params. Responses carry ID and either
// Result or Error. Pushes carry GUID, Method and Params with a zero ID.
type Message struct {
	ID     int             `json:"id,omitempty"`
	GUID   string          `json:"guid,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorPayload   `json:"error,omitempty"`
}

// IsResponse reports whether the message answers a request.
func (m *Message) IsResponse() bool {
	return m.ID != 0 && m.Method == ""
}

// ErrorPayload describes a failure raised by the target.
type ErrorPayload struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ObjectRef references a remote object by GUID.
type ObjectRef struct {
	GUID string `json:"guid"`
}

// CreateParams is the payload of a __create__ push.
type CreateParams struct {
	Type        string          `json:"type"`
	GUID        string          `json:"guid"`
	Initializer json.RawMessage `json:"initializer,omitempty"`
}

// Marshal encodes v as JSON.
func Marshal(v interface{}) ([]byte, error) {
	return codec.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v interface{}) error {
	return codec.Unmarshal(data, v)
}

// EncodeMessage encodes a message body.
func EncodeMessage(m *Message) ([]byte, error) {
	data, err := Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// DecodeMessage decodes a message body.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &m, nil
}
