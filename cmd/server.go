package cmd

import (
	"go.uber.org/zap"

	"github.com/luma/webservices/internal/builtin"
	"github.com/luma/webservices/internal/env"
	"github.com/luma/webservices/protocol/jsonrpc"
	"github.com/luma/webservices/server"
	"github.com/luma/webservices/telemetry"
)

// makeServer builds the JSON-RPC server with the built-in operations.
func makeServer(conf *env.Config, log *zap.Logger) (*server.Server, error) {
	opts := server.Options{
		Protocol:         jsonrpc.New(jsonrpc.Options{Charset: conf.Charset}),
		ExceptionMode:    conf.Exceptions(),
		MaxInflatedBytes: conf.MaxInflatedBytes,
		Log:              log.Named("server"),
	}

	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = jsonrpc.Name
	telemetry.Instrument(&opts, cfg)

	s, err := server.New(opts)
	if err != nil {
		return nil, err
	}

	if err := builtin.Register(s); err != nil {
		return nil, err
	}

	return s, nil
}
