package transport

import (
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is not
// set.
const DefaultMaxBodyBytes = 4 << 20

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on
	Port int

	// Reuseport controls setting SO_REUSEPORT
	Reuseport bool

	// DebugHTTP puts gin in debug mode
	DebugHTTP bool

	// Trace logs request and reply bodies. This is only useful in local
	// debugging
	Trace bool

	// MaxBodyBytes is the largest request body accepted, compressed
	MaxBodyBytes int64

	Log *zap.Logger
}
