package sandbox

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

// Serialize converts v to its wire form. Functions and symbols become
// undefined; cycles are an error.
func (r *Runtime) Serialize(v goja.Value) (protocol.SerializedValue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return protocol.SerializedValue{}, ErrClosed
	}
	return r.toSerialized(v, map[*goja.Object]struct{}{})
}

func (r *Runtime) toSerialized(v goja.Value, path map[*goja.Object]struct{}) (protocol.SerializedValue, error) {
	if v == nil || goja.IsUndefined(v) {
		return protocol.Special(protocol.SpecialUndefined), nil
	}
	if goja.IsNull(v) {
		return protocol.Null(), nil
	}

	obj, isObject := v.(*goja.Object)
	if !isObject {
		switch x := v.Export().(type) {
		case bool:
			return protocol.Bool(x), nil
		case string:
			return protocol.String(x), nil
		case int64:
			return protocol.Number(float64(x)), nil
		case float64:
			return serializeNumber(x), nil
		case *big.Int:
			f, _ := new(big.Float).SetInt(x).Float64()
			return protocol.Number(f), nil
		default:
			return protocol.Special(protocol.SpecialUndefined), nil
		}
	}

	if _, ok := goja.AssertFunction(obj); ok {
		return protocol.Special(protocol.SpecialUndefined), nil
	}
	if obj.ClassName() == "Date" {
		if t, ok := obj.Export().(time.Time); ok {
			return protocol.SerializedValue{Kind: protocol.KindDate, Str: t.UTC().Format(time.RFC3339Nano)}, nil
		}
	}

	if _, seen := path[obj]; seen {
		return protocol.SerializedValue{}, fmt.Errorf("cannot serialize circular structure")
	}
	path[obj] = struct{}{}
	defer delete(path, obj)

	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		items := make([]protocol.SerializedValue, n)
		for i := 0; i < n; i++ {
			item, err := r.toSerialized(obj.Get(strconv.Itoa(i)), path)
			if err != nil {
				return protocol.SerializedValue{}, err
			}
			items[i] = item
		}
		return protocol.SerializedValue{Kind: protocol.KindArray, Items: items}, nil
	}

	keys := obj.Keys()
	props := make([]protocol.Property, 0, len(keys))
	for _, k := range keys {
		item, err := r.toSerialized(obj.Get(k), path)
		if err != nil {
			return protocol.SerializedValue{}, err
		}
		props = append(props, protocol.Property{K: k, V: item})
	}
	return protocol.SerializedValue{Kind: protocol.KindObject, Props: props}, nil
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

func (r *Runtime) fromSerialized(v protocol.SerializedValue, handles []goja.Value) (goja.Value, error) {
	switch v.Kind {
	case protocol.KindNumber:
		return r.vm.ToValue(v.Num), nil
	case protocol.KindBool:
		return r.vm.ToValue(v.Bool), nil
	case protocol.KindString:
		return r.vm.ToValue(v.Str), nil
	case protocol.KindSpecial:
		switch v.Str {
		case protocol.SpecialNull:
			return goja.Null(), nil
		case protocol.SpecialUndefined:
			return goja.Undefined(), nil
		case protocol.SpecialNaN:
			return r.vm.ToValue(math.NaN()), nil
		case protocol.SpecialInfinity:
			return r.vm.ToValue(math.Inf(1)), nil
		case protocol.SpecialNegInfinity:
			return r.vm.ToValue(math.Inf(-1)), nil
		case protocol.SpecialNegZero:
			return r.vm.ToValue(math.Copysign(0, -1)), nil
		}
		return nil, fmt.Errorf("unknown special value %q", v.Str)
	case protocol.KindDate:
		t, err := time.Parse(time.RFC3339Nano, v.Str)
		if err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		return r.vm.New(r.vm.Get("Date"), r.vm.ToValue(t.UnixMilli()))
	case protocol.KindArray:
		items := make([]interface{}, len(v.Items))
		for i, item := range v.Items {
			parsed, err := r.fromSerialized(item, handles)
			if err != nil {
				return nil, err
			}
			items[i] = parsed
		}
		return r.vm.NewArray(items...), nil
	case protocol.KindObject:
		obj := r.vm.NewObject()
		for _, p := range v.Props {
			parsed, err := r.fromSerialized(p.V, handles)
			if err != nil {
				return nil, err
			}
			if err := obj.Set(p.K, parsed); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case protocol.KindHandle:
		if v.Handle < 0 || v.Handle >= len(handles) {
			return nil, fmt.Errorf("handle index %d out of range", v.Handle)
		}
		return handles[v.Handle], nil
	}
	return nil, fmt.Errorf("unknown value kind %q", v.Kind)
}

// Export converts an argument into plain Go values.
func (r *Runtime) Export(arg protocol.SerializedArgument, handles []goja.Value) (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	v, err := r.fromSerialized(arg.Value, handles)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// Property returns v[name].
func (r *Runtime) Property(v goja.Value, name string) (goja.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("cannot read property %q of %s", name, valueString(v))
	}
	obj := v.ToObject(r.vm)
	prop := obj.Get(name)
	if prop == nil {
		return goja.Undefined(), nil
	}
	return prop, nil
}

// Preview describes v the way handles print: primitives by value, objects
// by kind.
func (r *Runtime) Preview(v goja.Value) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, ok := goja.AssertFunction(obj); ok {
		return "JSHandle@function"
	}
	switch obj.ClassName() {
	case "Array":
		return fmt.Sprintf("Array(%d)", obj.Get("length").ToInteger())
	case "Date":
		return "JSHandle@date"
	case "Error":
		return "JSHandle@error"
	}
	return "JSHandle@object"
}
