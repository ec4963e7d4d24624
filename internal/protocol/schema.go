package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	ErrUnknownType   = errors.New("unknown object type")
	ErrUnknownMethod = errors.New("unknown method")
	ErrInvalidParams = errors.New("invalid params")
)

// Remote object types.
const (
	TypeRoot                = "Root"
	TypeElectron            = "Electron"
	TypeElectronApplication = "ElectronApplication"
	TypeBrowserContext      = "BrowserContext"
	TypePage                = "Page"
	TypeJSHandle            = "JSHandle"
)

// FieldKind is the schema type of a single param, result or initializer field.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumber
	FieldBool
	FieldObject
	FieldValue
	FieldArgument
	FieldStringList
	FieldStringMap
	FieldAny
)

// String returns the string representation of the kind
func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldBool:
		return "bool"
	case FieldObject:
		return "object"
	case FieldValue:
		return "value"
	case FieldArgument:
		return "argument"
	case FieldStringList:
		return "string[]"
	case FieldStringMap:
		return "map<string,string>"
	case FieldAny:
		return "any"
	default:
		return "unknown"
	}
}

// Field describes one named entry of a payload.
type Field struct {
	Name     string
	Kind     FieldKind
	Optional bool
}

// Fields is an ordered payload schema.
type Fields []Field

// Method describes one request a type accepts.
type Method struct {
	Name   string
	Params Fields
	Result Fields
}

// Event describes one push a type emits.
type Event struct {
	Name   string
	Params Fields
}

// Interface is the closed dispatch table of a remote object type.
type Interface struct {
	Type        string
	Initializer Fields
	Methods     map[string]Method
	Events      map[string]Event
}

// Method returns the descriptor for name.
func (i *Interface) Method(name string) (Method, error) {
	m, ok := i.Methods[name]
	if !ok {
		return Method{}, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, i.Type, name)
	}
	return m, nil
}

// Event returns the descriptor for name.
func (i *Interface) Event(name string) (Event, bool) {
	e, ok := i.Events[name]
	return e, ok
}

// Referencer is implemented by local proxies of remote objects.
type Referencer interface {
	Ref() ObjectRef
}

// Resolver maps a wire reference to the local proxy registered for it.
type Resolver func(ref ObjectRef) (interface{}, error)

var interfaces = map[string]*Interface{}

func register(iface *Interface) {
	if iface.Methods == nil {
		iface.Methods = map[string]Method{}
	}
	if iface.Events == nil {
		iface.Events = map[string]Event{}
	}
	interfaces[iface.Type] = iface
}

// Lookup returns the interface registered for typ.
func Lookup(typ string) (*Interface, error) {
	iface, ok := interfaces[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return iface, nil
}

// Types lists every registered type name in sorted order.
func Types() []string {
	names := make([]string, 0, len(interfaces))
	for name := range interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks params against the schema without encoding them.
func (f Fields) Validate(params map[string]interface{}) error {
	known := make(map[string]struct{}, len(f))
	for _, field := range f {
		known[field.Name] = struct{}{}
		value, ok := params[field.Name]
		if !ok || value == nil {
			if field.Optional {
				continue
			}
			return fmt.Errorf("%w: missing %q", ErrInvalidParams, field.Name)
		}
		if !field.accepts(value) {
			return fmt.Errorf("%w: %q must be %s, got %T", ErrInvalidParams, field.Name, field.Kind, value)
		}
	}
	for name := range params {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%w: unexpected %q", ErrInvalidParams, name)
		}
	}
	return nil
}

func (field Field) accepts(value interface{}) bool {
	switch field.Kind {
	case FieldString:
		_, ok := value.(string)
		return ok
	case FieldNumber:
		switch value.(type) {
		case int, int32, int64, uint, uint32, uint64, float32, float64:
			return true
		}
		return false
	case FieldBool:
		_, ok := value.(bool)
		return ok
	case FieldObject:
		if r, ok := value.(Referencer); ok {
			return !isNilReferencer(r)
		}
		_, ok := value.(ObjectRef)
		return ok
	case FieldValue:
		_, ok := value.(SerializedValue)
		return ok
	case FieldArgument:
		_, ok := value.(SerializedArgument)
		return ok
	case FieldStringList:
		_, ok := value.([]string)
		return ok
	case FieldStringMap:
		_, ok := value.(map[string]string)
		return ok
	default:
		return true
	}
}

// isNilReferencer reports whether r wraps a nil pointer, such as (*Page)(nil).
func isNilReferencer(r Referencer) bool {
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Encode validates params and renders them as JSON. Proxies become ObjectRefs.
func (f Fields) Encode(params map[string]interface{}) (json.RawMessage, error) {
	if err := f.Validate(params); err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(params))
	for name, value := range params {
		if value == nil {
			continue
		}
		if r, ok := value.(Referencer); ok && !isNilReferencer(r) {
			value = r.Ref()
		}
		out[name] = value
	}
	data, err := Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return data, nil
}

// Decode parses a payload by the schema, resolving object references.
// Fields absent from the schema are dropped.
func (f Fields) Decode(data json.RawMessage, resolve Resolver) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(f))
	if len(f) == 0 {
		return out, nil
	}

	raw := map[string]json.RawMessage{}
	if len(data) > 0 && string(data) != "null" {
		if err := Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}

	for _, field := range f {
		value, ok := raw[field.Name]
		if !ok || string(value) == "null" {
			if field.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidParams, field.Name)
		}
		decoded, err := field.decode(value, resolve)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		out[field.Name] = decoded
	}
	return out, nil
}

func (field Field) decode(data json.RawMessage, resolve Resolver) (interface{}, error) {
	switch field.Kind {
	case FieldString:
		var s string
		err := Unmarshal(data, &s)
		return s, err
	case FieldNumber:
		var n float64
		err := Unmarshal(data, &n)
		return n, err
	case FieldBool:
		var b bool
		err := Unmarshal(data, &b)
		return b, err
	case FieldObject:
		var ref ObjectRef
		if err := Unmarshal(data, &ref); err != nil {
			return nil, err
		}
		if resolve == nil {
			return ref, nil
		}
		return resolve(ref)
	case FieldValue:
		var v SerializedValue
		err := Unmarshal(data, &v)
		return v, err
	case FieldArgument:
		var a SerializedArgument
		err := Unmarshal(data, &a)
		return a, err
	case FieldStringList:
		var l []string
		err := Unmarshal(data, &l)
		return l, err
	case FieldStringMap:
		var m map[string]string
		err := Unmarshal(data, &m)
		return m, err
	default:
		var v interface{}
		err := Unmarshal(data, &v)
		return v, err
	}
}
