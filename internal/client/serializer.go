package client

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

var timeType = reflect.TypeOf(time.Time{})

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type serializer struct {
	handles []protocol.ObjectRef
	index   map[string]int
	path    map[visit]struct{}
}

// serializeArgument converts a caller value into its wire form. Remote
// objects travel as handles; anything without a wire form fails with a
// *SerializationError naming the offending path.
func serializeArgument(arg interface{}) (protocol.SerializedArgument, error) {
	s := &serializer{
		handles: []protocol.ObjectRef{},
		index:   map[string]int{},
		path:    map[visit]struct{}{},
	}
	value, err := s.serialize(reflect.ValueOf(arg), "arg")
	if err != nil {
		return protocol.SerializedArgument{}, err
	}
	return protocol.SerializedArgument{Value: value, Handles: s.handles}, nil
}

func (s *serializer) serialize(v reflect.Value, path string) (protocol.SerializedValue, error) {
	if !v.IsValid() {
		return protocol.Null(), nil
	}

	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case protocol.UndefinedValue:
			return protocol.Special(protocol.SpecialUndefined), nil
		case time.Time:
			return protocol.SerializedValue{Kind: protocol.KindDate, Str: x.UTC().Format(time.RFC3339Nano)}, nil
		case Object:
			if (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil() {
				return protocol.Null(), nil
			}
			return s.handle(x), nil
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		return protocol.Bool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return serializeNumber(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return serializeNumber(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return serializeNumber(v.Float()), nil
	case reflect.String:
		return protocol.String(v.String()), nil
	case reflect.Interface:
		if v.IsNil() {
			return protocol.Null(), nil
		}
		return s.serialize(v.Elem(), path)
	case reflect.Ptr:
		if v.IsNil() {
			return protocol.Null(), nil
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if err := s.enter(key, path); err != nil {
			return protocol.SerializedValue{}, err
		}
		defer s.leave(key)
		return s.serialize(v.Elem(), path)
	case reflect.Slice:
		if v.IsNil() {
			return protocol.Null(), nil
		}
		key := visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if err := s.enter(key, path); err != nil {
			return protocol.SerializedValue{}, err
		}
		defer s.leave(key)
		return s.serializeList(v, path)
	case reflect.Array:
		return s.serializeList(v, path)
	case reflect.Map:
		if v.IsNil() {
			return protocol.Null(), nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return protocol.SerializedValue{}, &SerializationError{Path: path, Reason: "map key type " + v.Type().Key().String()}
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if err := s.enter(key, path); err != nil {
			return protocol.SerializedValue{}, err
		}
		defer s.leave(key)
		return s.serializeMap(v, path)
	case reflect.Struct:
		return s.serializeStruct(v, path)
	default:
		return protocol.SerializedValue{}, &SerializationError{Path: path, Reason: v.Type().String()}
	}
}

func (s *serializer) serializeList(v reflect.Value, path string) (protocol.SerializedValue, error) {
	items := make([]protocol.SerializedValue, v.Len())
	for i := range items {
		item, err := s.serialize(v.Index(i), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return protocol.SerializedValue{}, err
		}
		items[i] = item
	}
	return protocol.SerializedValue{Kind: protocol.KindArray, Items: items}, nil
}

func (s *serializer) serializeMap(v reflect.Value, path string) (protocol.SerializedValue, error) {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	props := make([]protocol.Property, 0, len(keys))
	for _, k := range keys {
		item, err := s.serialize(v.MapIndex(k), path+"."+k.String())
		if err != nil {
			return protocol.SerializedValue{}, err
		}
		props = append(props, protocol.Property{K: k.String(), V: item})
	}
	return protocol.SerializedValue{Kind: protocol.KindObject, Props: props}, nil
}

func (s *serializer) serializeStruct(v reflect.Value, path string) (protocol.SerializedValue, error) {
	t := v.Type()
	props := make([]protocol.Property, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}
		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		item, err := s.serialize(fv, path+"."+name)
		if err != nil {
			return protocol.SerializedValue{}, err
		}
		props = append(props, protocol.Property{K: name, V: item})
	}
	return protocol.SerializedValue{Kind: protocol.KindObject, Props: props}, nil
}

func (s *serializer) handle(obj Object) protocol.SerializedValue {
	guid := obj.GUID()
	idx, ok := s.index[guid]
	if !ok {
		idx = len(s.handles)
		s.handles = append(s.handles, obj.Ref())
		s.index[guid] = idx
	}
	return protocol.SerializedValue{Kind: protocol.KindHandle, Handle: idx}
}

func (s *serializer) enter(key visit, path string) error {
	if _, seen := s.path[key]; seen {
		return &SerializationError{Path: path, Reason: "cycle"}
	}
	s.path[key] = struct{}{}
	return nil
}

func (s *serializer) leave(key visit) {
	delete(s.path, key)
}

func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, strings.Contains(opts, "omitempty"), false
}

func serializeNumber(f float64) protocol.SerializedValue {
	switch {
	case math.IsNaN(f):
		return protocol.Special(protocol.SpecialNaN)
	case math.IsInf(f, 1):
		return protocol.Special(protocol.SpecialInfinity)
	case math.IsInf(f, -1):
		return protocol.Special(protocol.SpecialNegInfinity)
	case f == 0 && math.Signbit(f):
		return protocol.Special(protocol.SpecialNegZero)
	}
	return protocol.Number(f)
}

// parseResult rebuilds a plain value from a result. Results never carry
// handle tables, so a handle reference is an error.
func parseResult(v protocol.SerializedValue) (interface{}, error) {
	return parseValue(v, nil)
}

// parseArgument rebuilds a value whose handles resolve through the
// connection registry.
func parseArgument(c *Connection, arg protocol.SerializedArgument) (interface{}, error) {
	handles := make([]Object, len(arg.Handles))
	for i, ref := range arg.Handles {
		obj, ok := c.Lookup(ref.GUID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObject, ref.GUID)
		}
		handles[i] = obj
	}
	return parseValue(arg.Value, handles)
}

func parseValue(v protocol.SerializedValue, handles []Object) (interface{}, error) {
	switch v.Kind {
	case protocol.KindNumber:
		return v.Num, nil
	case protocol.KindBool:
		return v.Bool, nil
	case protocol.KindString:
		return v.Str, nil
	case protocol.KindSpecial:
		switch v.Str {
		case protocol.SpecialNull:
			return nil, nil
		case protocol.SpecialUndefined:
			return protocol.Undefined, nil
		case protocol.SpecialNaN:
			return math.NaN(), nil
		case protocol.SpecialInfinity:
			return math.Inf(1), nil
		case protocol.SpecialNegInfinity:
			return math.Inf(-1), nil
		case protocol.SpecialNegZero:
			return math.Copysign(0, -1), nil
		}
		return nil, fmt.Errorf("unknown special value %q", v.Str)
	case protocol.KindDate:
		t, err := time.Parse(time.RFC3339Nano, v.Str)
		if err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		return t, nil
	case protocol.KindArray:
		out := make([]interface{}, len(v.Items))
		for i, item := range v.Items {
			parsed, err := parseValue(item, handles)
			if err != nil {
				return nil, err
			}
			out[i] = parsed
		}
		return out, nil
	case protocol.KindObject:
		out := make(map[string]interface{}, len(v.Props))
		for _, p := range v.Props {
			parsed, err := parseValue(p.V, handles)
			if err != nil {
				return nil, err
			}
			out[p.K] = parsed
		}
		return out, nil
	case protocol.KindHandle:
		if v.Handle < 0 || v.Handle >= len(handles) {
			return nil, fmt.Errorf("handle index %d out of range", v.Handle)
		}
		return handles[v.Handle], nil
	}
	return nil, fmt.Errorf("unknown value kind %q", v.Kind)
}
