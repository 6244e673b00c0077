package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/luma/webservices/protocol"
)

var (
	ErrNilReceiver = errors.New("Object receiver cannot be nil")
)

// Callable is the implementation of a method.
type Callable interface {
	Call(ctx context.Context, params []protocol.Value) (protocol.Value, error)
}

// Func adapts a plain function to the Callable interface.
type Func func(ctx context.Context, params []protocol.Value) (protocol.Value, error)

func (f Func) Call(ctx context.Context, params []protocol.Value) (protocol.Value, error) {
	return f(ctx, params)
}

// Library holds the implementations methods can be bound to: functions,
// addressed by their implementation name (e.g. `examples_echo`), and objects,
// addressed by their type name, whose methods can be exposed as
// `Type::method`.
type Library struct {
	mu        sync.RWMutex
	functions map[string]Callable
	objects   map[string]*object
}

type object struct {
	name    string
	methods map[string]Callable
}

func NewLibrary() *Library {
	return &Library{
		functions: make(map[string]Callable),
		objects:   make(map[string]*object),
	}
}

// Define adds a function to the library, replacing any function with the same
// name.
func (l *Library) Define(name string, fn Callable) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.functions[name] = fn
}

// DefineFunc wraps an arbitrary Go function with Wrap and adds it to the
// library.
func (l *Library) DefineFunc(name string, fn interface{}) error {
	callable, err := Wrap(fn)
	if err != nil {
		return fmt.Errorf("Failed to define %s: %w", name, err)
	}

	l.Define(name, callable)
	return nil
}

// DefineObject adds an object to the library. Every exported method of the
// receiver that Wrap accepts is exposed with its first letter lower-cased, so
// `Echo` becomes `echo`.
//
// The object is defined even when an error is returned: the error lists the
// methods that could not be exposed.
func (l *Library) DefineObject(name string, receiver interface{}) (err error) {
	if receiver == nil {
		return ErrNilReceiver
	}

	rv := reflect.ValueOf(receiver)
	rt := rv.Type()

	obj := &object{name: name, methods: make(map[string]Callable)}

	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)

		callable, werr := wrapValue(rv.Method(i))
		if werr != nil {
			err = multierr.Append(err, fmt.Errorf("%s.%s: %w", name, method.Name, werr))
			continue
		}

		obj.methods[formatName(method.Name)] = callable
	}

	l.mu.Lock()
	l.objects[name] = obj
	l.mu.Unlock()

	return err
}

// Function returns the function defined under name.
func (l *Library) Function(name string) (Callable, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fn, ok := l.functions[name]
	return fn, ok
}

// HasObject reports whether an object has been defined under name.
func (l *Library) HasObject(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.objects[name]
	return ok
}

// Methods returns the exposed method names of an object, sorted.
func (l *Library) Methods(typeName string) ([]string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	obj, ok := l.objects[typeName]
	if !ok {
		return nil, false
	}

	names := make([]string, 0, len(obj.methods))
	for name := range obj.methods {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, true
}

// Method returns an exposed method of an object.
func (l *Library) Method(typeName, method string) (Callable, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	obj, ok := l.objects[typeName]
	if !ok {
		return nil, false
	}

	fn, ok := obj.methods[method]
	return fn, ok
}

// formatName lower-cases the first letter of a Go method name.
func formatName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToLower(r)) + name[size:]
}
