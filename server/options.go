package server

import (
	"context"

	"go.uber.org/zap"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/registry"
)

// ExceptionMode controls what happens when a registered function fails.
type ExceptionMode int

const (
	// ExceptionsAsFaults reports the error to the client as a fault, keeping
	// its native code and message.
	ExceptionsAsFaults ExceptionMode = iota

	// ExceptionsHidden reports a generic fault, hiding the error details.
	ExceptionsHidden

	// ExceptionsPropagate hands the error back to the caller of
	// ProcessRequest. No response is rendered.
	ExceptionsPropagate
)

// Valid reports whether m is one of the known modes.
func (m ExceptionMode) Valid() bool {
	return m >= ExceptionsAsFaults && m <= ExceptionsPropagate
}

func (m ExceptionMode) String() string {
	switch m {
	case ExceptionsAsFaults:
		return "faults"
	case ExceptionsHidden:
		return "hidden"
	case ExceptionsPropagate:
		return "propagate"
	default:
		return "unknown"
	}
}

type Options struct {
	// Protocol is the wire format spoken by the server. Required.
	Protocol protocol.Protocol

	// Library holds the implementations registered methods bind to. A new
	// empty library is used when nil.
	Library *registry.Library

	// ExceptionMode controls how errors of registered functions are reported.
	ExceptionMode ExceptionMode

	// Inflaters decompress request bodies, keyed by content encoding. The
	// DefaultInflaters are used when nil.
	Inflaters map[string]Inflater

	// MaxInflatedBytes bounds the size of a decompressed body. Zero means
	// DefaultMaxInflatedBytes, a negative value disables the limit.
	MaxInflatedBytes int64

	// Hook is called around every dispatch. Optional.
	Hook DispatchHook

	Log *zap.Logger
}

// InternalHandler is implemented by protocols that reserve some operation
// names for themselves, such as introspection.
type InternalHandler interface {
	IsInternal(name string) bool
	HandleInternal(ctx context.Context, reg registry.Introspector, name string, params []protocol.Value) protocol.Result
}

// ResponsePreparer is implemented by protocols that need to decorate the
// response from the request before it is rendered. req is nil when the
// request could not be parsed.
type ResponsePreparer interface {
	PrepareResponse(resp protocol.Response, req *protocol.Request)
}

// ParamValidator is implemented by protocols with their own parameter
// validation rules.
type ParamValidator interface {
	ValidateParams(params []protocol.Value, in []registry.Param) bool
}
