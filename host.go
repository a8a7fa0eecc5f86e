// host.go
//
// The embedding surface: building blocks an embedder uses to expose Go
// state and functions to scripts, plus a reflection layer that wraps
// an arbitrary Go func as a native Fn without per-signature glue.
package ember

import (
	"fmt"
	"reflect"
)

// IdentifierData names a single host-provided binding: either a
// Variable, a Constant, a Function, or a Namespace grouping several of
// these under one dot_map.
type IdentifierData struct {
	Name  string
	Value Value
}

// Variable exposes v under name as an ordinary (mutable) binding.
func Variable(name string, v Value) IdentifierData {
	return IdentifierData{Name: name, Value: v}
}

// Constant exposes v under name as an immutable binding.
func Constant(name string, v Value) IdentifierData {
	return IdentifierData{Name: name, Value: v.AsConst()}
}

// Function wraps an arbitrary Go func as a native, const-bound script
// function. fn's parameter/return types are converted via reflection
// (see valueToGo/goToEmberValue below); a final `error` return aborts
// the call with a HostError.
func Function(name string, fn interface{}) IdentifierData {
	return IdentifierData{Name: name, Value: FnVal(WrapFunc(name, fn)).AsConst()}
}

// Namespace groups several IdentifierData bindings into one Table,
// addressable as namespace.member after `import namespace`.
func Namespace(name string, items ...IdentifierData) IdentifierData {
	t := NewTable()
	for _, it := range items {
		t.SetDot(it.Name, it.Value)
	}
	return IdentifierData{Name: name, Value: TableVal(t).AsConst()}
}

// WrapFunc builds a native Fn around an arbitrary Go func value.
func WrapFunc(name string, fn interface{}) *Fn {
	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		panic("host.Function: not a func: " + name)
	}
	numIn := rt.NumIn()
	variadic := rt.IsVariadic()
	arity := numIn
	if variadic {
		arity = -1
	}

	native := func(args []Value) (Value, error) {
		if !variadic && len(args) != numIn {
			return Nil, fmt.Errorf("%s: expected %d argument(s), got %d", name, numIn, len(args))
		}
		if variadic && len(args) < numIn-1 {
			return Nil, fmt.Errorf("%s: expected at least %d argument(s), got %d", name, numIn-1, len(args))
		}
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			var pt reflect.Type
			if variadic && i >= numIn-1 {
				pt = rt.In(numIn - 1).Elem()
			} else {
				pt = rt.In(i)
			}
			gv, err := valueToGo(a, pt)
			if err != nil {
				return Nil, fmt.Errorf("%s: argument %d: %w", name, i, err)
			}
			in[i] = gv
		}
		out := rv.Call(in)
		v, err := goToValue(out)
		if err != nil {
			return Nil, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}
	return &Fn{Name: name, Native: native, Arity: arity}
}

var valueType = reflect.TypeOf(Value{})
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// valueToGo converts a script Value into a reflect.Value suitable as
// argument t of a wrapped Go func: numeric widening, identity for
// Bool/Char/String, Array<->slice, Table<->map (a Table converts to a
// string-keyed map through its dot_map only).
func valueToGo(v Value, t reflect.Type) (reflect.Value, error) {
	if t == valueType {
		return reflect.ValueOf(v), nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Tag != TInt {
			return reflect.Value{}, fmt.Errorf("expected Int, got %s", v.Tag)
		}
		return reflect.ValueOf(v.Int()).Convert(t), nil
	case reflect.Uint8:
		switch v.Tag {
		case TChar:
			return reflect.ValueOf(v.Char()).Convert(t), nil
		case TInt:
			return reflect.ValueOf(v.Int()).Convert(t), nil
		}
		return reflect.Value{}, fmt.Errorf("expected Char or Int, got %s", v.Tag)
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Tag != TInt {
			return reflect.Value{}, fmt.Errorf("expected Int, got %s", v.Tag)
		}
		return reflect.ValueOf(v.Int()).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		if !isNumeric(v) {
			return reflect.Value{}, fmt.Errorf("expected numeric, got %s", v.Tag)
		}
		return reflect.ValueOf(numericValue(v)).Convert(t), nil
	case reflect.Bool:
		if v.Tag != TBool {
			return reflect.Value{}, fmt.Errorf("expected Bool, got %s", v.Tag)
		}
		return reflect.ValueOf(v.Bool()), nil
	case reflect.String:
		if v.Tag != TStr {
			return reflect.Value{}, fmt.Errorf("expected Str, got %s", v.Tag)
		}
		return reflect.ValueOf(v.Str()), nil
	case reflect.Slice:
		if v.Tag != TArray {
			return reflect.Value{}, fmt.Errorf("expected Array, got %s", v.Tag)
		}
		xs := v.Array()
		out := reflect.MakeSlice(t, len(xs), len(xs))
		for i, x := range xs {
			ev, err := valueToGo(x, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Map:
		if v.Tag != TTable || t.Key().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", v.Tag, t)
		}
		tbl := v.Table()
		out := reflect.MakeMapWithSize(t, len(tbl.DotNames()))
		for _, name := range tbl.DotNames() {
			val, _ := tbl.DotAt(name)
			ev, err := valueToGo(val, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(name).Convert(t.Key()), ev)
		}
		return out, nil
	case reflect.Interface:
		any := goAny(v)
		if any == nil {
			// reflect.ValueOf(nil) is the invalid zero Value, which
			// rv.Call panics on; a typed nil interface pointer is the
			// only way to hand Call a usable Value for a Nil argument.
			return reflect.Zero(t), nil
		}
		return reflect.ValueOf(any), nil
	}
	return reflect.Value{}, fmt.Errorf("unsupported native parameter type %s", t)
}

// goAny converts a Value to a plain interface{} for `interface{}`
// typed native parameters.
func goAny(v Value) interface{} {
	switch v.Tag {
	case TNil:
		return nil
	case TInt:
		return v.Int()
	case TReal:
		return v.Real()
	case TBool:
		return v.Bool()
	case TChar:
		return v.Char()
	case TStr:
		return v.Str()
	case TArray:
		xs := v.Array()
		out := make([]interface{}, len(xs))
		for i, x := range xs {
			out[i] = goAny(x)
		}
		return out
	case TTable:
		t := v.Table()
		out := make(map[string]interface{}, len(t.DotNames()))
		for _, name := range t.DotNames() {
			val, _ := t.DotAt(name)
			out[name] = goAny(val)
		}
		return out
	default:
		return v
	}
}

// goToValue converts a wrapped func's reflect.Call results back into a
// script Value, consuming a trailing `error` result if present.
func goToValue(out []reflect.Value) (Value, error) {
	if len(out) == 0 {
		return Nil, nil
	}
	last := out[len(out)-1]
	if last.Type().Implements(errorType) {
		if !last.IsNil() {
			return Nil, last.Interface().(error)
		}
		if len(out) == 1 {
			return Nil, nil
		}
		return goToEmberValue(out[0]), nil
	}
	return goToEmberValue(out[0]), nil
}

func goToEmberValue(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Nil
	}
	if rv.Type() == valueType {
		return rv.Interface().(Value)
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntVal(rv.Int())
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return IntVal(int64(rv.Uint()))
	case reflect.Uint8:
		return IntVal(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return RealVal(rv.Float())
	case reflect.Bool:
		return BoolVal(rv.Bool())
	case reflect.String:
		return StrVal(rv.String())
	case reflect.Slice:
		n := rv.Len()
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = goToEmberValue(rv.Index(i))
		}
		return ArrayVal(out)
	case reflect.Ptr:
		if t, ok := rv.Interface().(*Table); ok {
			return TableVal(t)
		}
	case reflect.Map:
		t := NewTable()
		for _, key := range rv.MapKeys() {
			t.SetDot(fmt.Sprint(key.Interface()), goToEmberValue(rv.MapIndex(key)))
		}
		return TableVal(t)
	case reflect.Interface:
		return goToEmberValue(rv.Elem())
	}
	return Nil
}

// HostNamespace implements ModuleResolver over a flat set of
// Namespace/Variable/Constant bindings registered up front: scripts
// never import a filesystem path, only a host-registered name.
type HostNamespace struct {
	entries map[string]Value
}

// NewHostNamespace builds a resolver from top-level IdentifierData
// entries (typically one or more Namespace() results).
func NewHostNamespace(items ...IdentifierData) *HostNamespace {
	h := &HostNamespace{entries: map[string]Value{}}
	for _, it := range items {
		h.entries[it.Name] = it.Value
	}
	return h
}

func (h *HostNamespace) Resolve(name string) (Value, bool) {
	v, ok := h.entries[name]
	return v, ok
}
