// Package builtin holds the operations exposed by `webservices start`.
package builtin

import (
	"context"
	"errors"

	"github.com/luma/webservices/internal/meta"
	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/registry"
	"github.com/luma/webservices/server"
)

// DivisionByZero is the fault code of Examples::divide when dividing by zero.
const DivisionByZero = 1

// ObjectName is the type name Examples is registered under.
const ObjectName = "Examples"

var (
	ErrNotNumbers = errors.New("Parameters must be numbers")
)

// Register defines the built-in implementations in the library of s and
// registers the operations exposing them.
func Register(s *server.Server) error {
	lib := s.Library()

	lib.Define("examples_echo", registry.Func(echo))
	lib.Define("examples_sum", registry.Func(sum))
	if err := lib.DefineFunc("examples_version", meta.GetInfo); err != nil {
		return err
	}

	ints := []registry.Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}
	doubles := []registry.Param{{Name: "a", Type: "double"}, {Name: "b", Type: "double"}}

	registrations := []struct {
		name        string
		in          []registry.Param
		out         string
		description string
	}{
		{"examples.echo", nil, "mixed", "Returns its parameter, or the array of its parameters when there is not exactly one"},
		{"examples.sum", ints, "int", "Adds two numbers"},
		{"examples.sum", doubles, "double", ""},
		{"examples.version", []registry.Param{}, "struct", "Returns the build information of the server"},
	}

	for _, r := range registrations {
		if err := s.RegisterFunction(r.name, r.in, r.out, r.description); err != nil {
			return err
		}
	}

	return s.RegisterObject(ObjectName, func(typeName string) error {
		return lib.DefineObject(typeName, &Examples{})
	})
}

func echo(_ context.Context, params []protocol.Value) (protocol.Value, error) {
	if len(params) == 1 {
		return params[0], nil
	}

	return protocol.Array(params...), nil
}

func sum(_ context.Context, params []protocol.Value) (protocol.Value, error) {
	a, b := params[0], params[1]

	if a.Kind() == protocol.KindInt && b.Kind() == protocol.KindInt {
		return protocol.Int(a.AsInt() + b.AsInt()), nil
	}

	x, okA := a.Number()
	y, okB := b.Number()
	if !okA || !okB {
		return protocol.Null(), ErrNotNumbers
	}

	return protocol.Double(x + y), nil
}

// Examples is exposed as `Examples::<method>`.
type Examples struct{}

// Examples is never exposed, it shares the name of its type.
func (e *Examples) Examples() string {
	return ObjectName
}

func (e *Examples) Hello(name string) string {
	if name == "" {
		name = "world"
	}

	return "Hello " + name
}

func (e *Examples) Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, protocol.NewFault(DivisionByZero, "Division by zero")
	}

	return a / b, nil
}
