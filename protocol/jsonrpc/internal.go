package jsonrpc

import (
	"context"
	"sort"
	"strings"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/registry"
)

const internalPrefix = "system."

const (
	ListMethods     = "system.listMethods"
	MethodHelp      = "system.methodHelp"
	MethodSignature = "system.methodSignature"
	GetCapabilities = "system.getCapabilities"
)

// undef is returned by system.methodSignature for methods that accept any
// parameters.
const undef = "undef"

type internalOp struct {
	signature   registry.Signature
	description string
	handle      func(reg registry.Introspector, params []protocol.Value) protocol.Result
}

var internalOps map[string]internalOp

func init() {
	internalOps = map[string]internalOp{
		ListMethods: {
			signature:   registry.Signature{In: []registry.Param{}, Out: "array"},
			description: "Returns the list of the methods the server exposes.",
			handle:      listMethods,
		},
		MethodHelp: {
			signature:   registry.Signature{In: []registry.Param{{Name: "method", Type: "string"}}, Out: "string"},
			description: "Returns the description of a method.",
			handle:      methodHelp,
		},
		MethodSignature: {
			signature:   registry.Signature{In: []registry.Param{{Name: "method", Type: "string"}}, Out: "array"},
			description: "Returns the signatures of a method, each as an array of the result type followed by the parameter types.",
			handle:      methodSignature,
		},
		GetCapabilities: {
			signature:   registry.Signature{In: []registry.Param{}, Out: "struct"},
			description: "Returns the specifications the server implements.",
			handle:      getCapabilities,
		},
	}
}

// IsInternal reports whether name is reserved for introspection. Every name
// starting with `system.` is.
func (p *Protocol) IsInternal(name string) bool {
	return strings.HasPrefix(name, internalPrefix)
}

// HandleInternal runs an introspection operation.
func (p *Protocol) HandleInternal(_ context.Context, reg registry.Introspector, name string, params []protocol.Value) protocol.Result {
	op, ok := internalOps[name]
	if !ok {
		return protocol.Failure(protocol.Faultf(protocol.InvalidMethod, "%s '%s'", protocol.InvalidMethodString, name))
	}

	if !registry.Validate(params, op.signature.In) {
		return protocol.Failure(protocol.DefaultFault(protocol.InvalidParams))
	}

	return op.handle(reg, params)
}

func internalNames() []string {
	names := make([]string, 0, len(internalOps))
	for name := range internalOps {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func listMethods(reg registry.Introspector, _ []protocol.Value) protocol.Result {
	names := append(reg.RegisteredMethods(), internalNames()...)

	items := make([]protocol.Value, len(names))
	for i, name := range names {
		items[i] = protocol.String(name)
	}

	return protocol.Success(protocol.Array(items...))
}

func methodHelp(reg registry.Introspector, params []protocol.Value) protocol.Result {
	name := params[0].AsString()

	if op, ok := internalOps[name]; ok {
		return protocol.Success(protocol.String(op.description))
	}

	description, ok := reg.MethodDescription(name)
	if !ok {
		return protocol.Failure(protocol.DefaultFault(protocol.InvalidIntrospection))
	}

	return protocol.Success(protocol.String(description))
}

func methodSignature(reg registry.Introspector, params []protocol.Value) protocol.Result {
	name := params[0].AsString()

	var sigs []registry.Signature
	if op, ok := internalOps[name]; ok {
		sigs = []registry.Signature{op.signature}
	} else if sigs, ok = reg.MethodSignatures(name); !ok {
		return protocol.Failure(protocol.DefaultFault(protocol.InvalidIntrospection))
	}

	items := make([]protocol.Value, 0, len(sigs))
	for _, sig := range sigs {
		if !sig.Checked() {
			return protocol.Success(protocol.String(undef))
		}

		types := make([]protocol.Value, 0, len(sig.In)+1)
		types = append(types, protocol.String(sig.Out))
		for _, param := range sig.In {
			types = append(types, protocol.String(param.Type))
		}
		items = append(items, protocol.Array(types...))
	}

	return protocol.Success(protocol.Array(items...))
}

func getCapabilities(registry.Introspector, []protocol.Value) protocol.Result {
	capability := func(url string, version int64) protocol.Value {
		return protocol.Struct(
			protocol.Field("specUrl", protocol.String(url)),
			protocol.Field("specVersion", protocol.Int(version)),
		)
	}

	return protocol.Success(protocol.Struct(
		protocol.Field("jsonrpc", capability("http://json-rpc.org/wiki/specification", 1)),
		protocol.Field("faults_interop", capability("http://xmlrpc-epi.sourceforge.net/specs/rfc.fault_codes.php", 20010516)),
		protocol.Field("introspection", capability("http://phpxmlrpc.sourceforge.net/doc-2/ch10.html", 2)),
	))
}
