package protocol

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the single key present in a serialized value.
type ValueKind string

const (
	KindNumber  ValueKind = "n"
	KindBool    ValueKind = "b"
	KindString  ValueKind = "s"
	KindSpecial ValueKind = "v"
	KindDate    ValueKind = "d"
	KindArray   ValueKind = "a"
	KindObject  ValueKind = "o"
	KindHandle  ValueKind = "h"
)

// Special values carried under the "v" key.
const (
	SpecialNull        = "null"
	SpecialUndefined   = "undefined"
	SpecialNaN         = "NaN"
	SpecialInfinity    = "Infinity"
	SpecialNegInfinity = "-Infinity"
	SpecialNegZero     = "-0"
)

// UndefinedValue marks a script value that is undefined rather than null.
type UndefinedValue struct{}

// Undefined is the Go stand-in for a script undefined.
var Undefined = UndefinedValue{}

// SerializedValue is a JSON-safe rendering of a script value.
//
// Exactly one field group is meaningful, selected by Kind. Str holds the
// payload of KindString, KindSpecial and KindDate.
type SerializedValue struct {
	Kind   ValueKind
	Num    float64
	Bool   bool
	Str    string
	Items  []SerializedValue
	Props  []Property
	Handle int
}

// Property is one key of a serialized object.
type Property struct {
	K string          `json:"k"`
	V SerializedValue `json:"v"`
}

// SerializedArgument is a value plus the remote objects it references by index.
type SerializedArgument struct {
	Value   SerializedValue `json:"value"`
	Handles []ObjectRef     `json:"handles"`
}

// MarshalJSON writes the value as a one-key object.
func (v SerializedValue) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch v.Kind {
	case KindNumber:
		payload = v.Num
	case KindBool:
		payload = v.Bool
	case KindString, KindSpecial, KindDate:
		payload = v.Str
	case KindArray:
		items := v.Items
		if items == nil {
			items = []SerializedValue{}
		}
		payload = items
	case KindObject:
		props := v.Props
		if props == nil {
			props = []Property{}
		}
		payload = props
	case KindHandle:
		payload = v.Handle
	case "":
		return []byte(`{"v":"undefined"}`), nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", v.Kind)
	}
	return Marshal(map[string]interface{}{string(v.Kind): payload})
}

// UnmarshalJSON reads a one-key object.
func (v *SerializedValue) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 1 {
		return fmt.Errorf("serialized value must have exactly one key, got %d", len(fields))
	}

	for key, raw := range fields {
		out := SerializedValue{Kind: ValueKind(key)}
		var err error
		switch out.Kind {
		case KindNumber:
			err = Unmarshal(raw, &out.Num)
		case KindBool:
			err = Unmarshal(raw, &out.Bool)
		case KindString, KindSpecial, KindDate:
			err = Unmarshal(raw, &out.Str)
		case KindArray:
			err = Unmarshal(raw, &out.Items)
			if err == nil && out.Items == nil {
				out.Items = []SerializedValue{}
			}
		case KindObject:
			err = Unmarshal(raw, &out.Props)
			if err == nil && out.Props == nil {
				out.Props = []Property{}
			}
		case KindHandle:
			err = Unmarshal(raw, &out.Handle)
		default:
			err = fmt.Errorf("unknown value kind %q", key)
		}
		if err != nil {
			return fmt.Errorf("serialized value %q: %w", key, err)
		}
		*v = out
	}
	return nil
}

// Number returns a serialized number.
func Number(n float64) SerializedValue {
	return SerializedValue{Kind: KindNumber, Num: n}
}

// String returns a serialized string.
func String(s string) SerializedValue {
	return SerializedValue{Kind: KindString, Str: s}
}

// Bool returns a serialized boolean.
func Bool(b bool) SerializedValue {
	return SerializedValue{Kind: KindBool, Bool: b}
}

// Special returns a serialized special value such as null or NaN.
func Special(s string) SerializedValue {
	return SerializedValue{Kind: KindSpecial, Str: s}
}

// Null is the serialized null.
func Null() SerializedValue {
	return Special(SpecialNull)
}
