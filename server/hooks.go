package server

import (
	"context"

	"github.com/luma/webservices/protocol"
)

// Keys of the transport metadata passed to hooks.
const (
	MetaRemoteAddr  = "remote_addr"
	MetaUserAgent   = "user_agent"
	MetaTraceparent = "traceparent"
	MetaTracestate  = "tracestate"
)

// DispatchHook provides observability callpoints around the routing and
// invocation of a request. Implementations must be safe for concurrent use.
type DispatchHook interface {
	OnDispatchStart(ctx context.Context, info DispatchInfo) (context.Context, HookToken)
	OnDispatchEnd(ctx context.Context, token HookToken, info DispatchInfo, result protocol.Result, err error)
}

// HookToken is returned by OnDispatchStart and passed back to OnDispatchEnd.
// Only meaningful to the hook that created it.
type HookToken interface{}

// DispatchInfo describes the call being dispatched.
type DispatchInfo struct {
	Operation string
	Internal  bool
	Metadata  map[string]string
}

type metadataKey struct{}

// ContextWithMetadata attaches transport metadata to ctx.
func ContextWithMetadata(ctx context.Context, md map[string]string) context.Context {
	return context.WithValue(ctx, metadataKey{}, md)
}

// MetadataFromContext returns the transport metadata attached to ctx.
func MetadataFromContext(ctx context.Context) map[string]string {
	md, _ := ctx.Value(metadataKey{}).(map[string]string)
	return md
}
