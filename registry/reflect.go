package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/luma/webservices/protocol"
)

var (
	ErrNotFunc       = errors.New("Implementation must be a function")
	ErrVariadic      = errors.New("Variadic functions cannot be exposed")
	ErrTooManyResult = errors.New("Functions can return at most a value and an error")
	ErrBadErrorPos   = errors.New("Error must be the last return value")
	ErrArgumentType  = errors.New("Parameter cannot be converted")
	ErrArgumentCount = errors.New("Wrong number of parameters")
)

// ParamsError reports request parameters that could not be bound to the
// arguments of a wrapped function. The function was not called.
type ParamsError struct {
	Err error
}

func (e *ParamsError) Error() string {
	return e.Err.Error()
}

func (e *ParamsError) Unwrap() error {
	return e.Err
}

// FaultCode returns protocol.InvalidParams.
func (e *ParamsError) FaultCode() int {
	return protocol.InvalidParams
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	valueType   = reflect.TypeOf(protocol.Value{})
)

// callback is a Go function exposed as a Callable through reflection.
type callback struct {
	fn       reflect.Value
	args     []reflect.Type
	hasCtx   bool
	hasValue bool
	errPos   int
}

// Wrap turns an arbitrary Go function into a Callable. The function may take
// a context.Context as its first argument; the remaining arguments are
// converted from the request parameters. It may return nothing, a value, an
// error, or a value and an error.
func Wrap(fn interface{}) (Callable, error) {
	if c, ok := fn.(Callable); ok {
		return c, nil
	}

	if fn == nil {
		return nil, ErrNotFunc
	}

	return wrapValue(reflect.ValueOf(fn))
}

func wrapValue(fn reflect.Value) (Callable, error) {
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return nil, ErrNotFunc
	}

	if ft.IsVariadic() {
		return nil, ErrVariadic
	}

	c := &callback{fn: fn, errPos: -1}

	firstArg := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		c.hasCtx = true
		firstArg = 1
	}

	for i := firstArg; i < ft.NumIn(); i++ {
		c.args = append(c.args, ft.In(i))
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			c.errPos = 0
		} else {
			c.hasValue = true
		}
	case 2:
		if ft.Out(0) == errorType || ft.Out(1) != errorType {
			return nil, ErrBadErrorPos
		}
		c.hasValue = true
		c.errPos = 1
	default:
		return nil, ErrTooManyResult
	}

	return c, nil
}

func (c *callback) Call(ctx context.Context, params []protocol.Value) (protocol.Value, error) {
	if len(params) != len(c.args) {
		return protocol.Value{}, &ParamsError{
			Err: fmt.Errorf("expected %d parameters, got %d: %w", len(c.args), len(params), ErrArgumentCount),
		}
	}

	in := make([]reflect.Value, 0, len(c.args)+1)
	if c.hasCtx {
		in = append(in, reflect.ValueOf(ctx))
	}

	for i, t := range c.args {
		arg, err := convert(params[i], t)
		if err != nil {
			return protocol.Value{}, &ParamsError{Err: fmt.Errorf("parameter %d: %w", i+1, err)}
		}
		in = append(in, arg)
	}

	out := c.fn.Call(in)

	if c.errPos >= 0 && !out[c.errPos].IsNil() {
		return protocol.Value{}, out[c.errPos].Interface().(error)
	}

	if !c.hasValue {
		return protocol.Null(), nil
	}

	return protocol.FromGo(out[0].Interface())
}

// convert turns a Value into a Go value of type t.
func convert(v protocol.Value, t reflect.Type) (reflect.Value, error) {
	if t == valueType {
		return reflect.ValueOf(v), nil
	}

	out := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() != 0 {
			break
		}
		if !v.IsNull() {
			out.Set(reflect.ValueOf(v.Interface()))
		}
		return out, nil

	case reflect.Ptr:
		if v.IsNull() {
			return out, nil
		}
		elem, err := convert(v, t.Elem())
		if err != nil {
			return out, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil

	case reflect.Bool:
		if v.Kind() == protocol.KindBool {
			out.SetBool(v.AsBool())
			return out, nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := integral(v); ok && !out.OverflowInt(i) {
			out.SetInt(i)
			return out, nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i, ok := integral(v); ok && i >= 0 && !out.OverflowUint(uint64(i)) {
			out.SetUint(uint64(i))
			return out, nil
		}

	case reflect.Float32, reflect.Float64:
		if f, ok := v.Number(); ok && !out.OverflowFloat(f) {
			out.SetFloat(f)
			return out, nil
		}

	case reflect.String:
		if v.Kind() == protocol.KindString {
			out.SetString(v.AsString())
			return out, nil
		}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && v.Kind() == protocol.KindString {
			out.SetBytes([]byte(v.AsString()))
			return out, nil
		}
		if v.Kind() != protocol.KindArray {
			break
		}
		out = reflect.MakeSlice(t, v.Len(), v.Len())
		for i, item := range v.Items() {
			elem, err := convert(item, t.Elem())
			if err != nil {
				return out, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String || v.Kind() != protocol.KindStruct {
			break
		}
		out = reflect.MakeMapWithSize(t, v.Len())
		for _, m := range v.Members() {
			elem, err := convert(m.Value, t.Elem())
			if err != nil {
				return out, fmt.Errorf("%s: %w", m.Name, err)
			}
			out.SetMapIndex(reflect.ValueOf(m.Name).Convert(t.Key()), elem)
		}
		return out, nil

	case reflect.Struct:
		if v.Kind() != protocol.KindStruct {
			break
		}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" {
				continue
			}
			member, ok := lookupField(v, field)
			if !ok {
				continue
			}
			elem, err := convert(member, field.Type)
			if err != nil {
				return out, fmt.Errorf("%s: %w", field.Name, err)
			}
			out.Field(i).Set(elem)
		}
		return out, nil
	}

	return out, fmt.Errorf("%s to %s: %w", v.Kind(), t, ErrArgumentType)
}

func integral(v protocol.Value) (int64, bool) {
	switch v.Kind() {
	case protocol.KindInt:
		return v.AsInt(), true
	case protocol.KindDouble:
		f := v.AsDouble()
		if f == float64(int64(f)) {
			return int64(f), true
		}
	}

	return 0, false
}

// lookupField finds the struct member for a Go field, by `json` tag or
// case-insensitively by field name.
func lookupField(v protocol.Value, field reflect.StructField) (protocol.Value, bool) {
	name := field.Name
	if tag := field.Tag.Get("json"); tag != "" {
		tagName := strings.Split(tag, ",")[0]
		if tagName == "-" {
			return protocol.Value{}, false
		}
		if tagName != "" {
			name = tagName
		}
	}

	for _, m := range v.Members() {
		if strings.EqualFold(m.Name, name) {
			return m.Value, true
		}
	}

	return protocol.Value{}, false
}

var (
	_ Callable       = (*callback)(nil)
	_ protocol.Coder = (*ParamsError)(nil)
)
