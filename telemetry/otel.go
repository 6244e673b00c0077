// Package telemetry adds OpenTelemetry tracing and metrics to a webservices
// server, through its dispatch hook.
//
// Usage:
//
//	opts := server.Options{Protocol: jsonrpc.New(jsonrpc.Options{})}
//	telemetry.Instrument(&opts, telemetry.DefaultConfig())
//	s, err := server.New(opts)
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/server"
)

const (
	instrumentationName = "github.com/luma/webservices"
	rpcSystem           = "webservices"

	StatusOK    = "ok"
	StatusFault = "fault"
	StatusError = "error"
)

type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	// Propagator extracts the parent trace from the transport metadata.
	// Defaults to otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator

	EnableTracing bool
	EnableMetrics bool

	// ServiceName is the rpc.service attribute, usually the protocol name.
	ServiceName string
}

func DefaultConfig() Config {
	return Config{
		EnableTracing: true,
		EnableMetrics: true,
	}
}

// Instrument installs the OpenTelemetry hook in the server options.
func Instrument(options *server.Options, cfg Config) {
	options.Hook = NewHook(cfg)
}

// NewHook creates a dispatch hook recording a server span per call, a
// request counter and a duration histogram.
func NewHook(cfg Config) server.DispatchHook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}

	h := &hook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}

	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		h.requests, _ = meter.Int64Counter("rpc.server.requests",
			metric.WithUnit("{request}"),
			metric.WithDescription("Number of RPC requests"),
		)
		h.duration, _ = meter.Float64Histogram("rpc.server.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of RPC requests"),
		)
	}

	return h
}

type hook struct {
	cfg      Config
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

type spanToken struct {
	span  trace.Span
	start time.Time
}

func (h *hook) OnDispatchStart(ctx context.Context, info server.DispatchInfo) (context.Context, server.HookToken) {
	if info.Metadata != nil {
		ctx = h.cfg.Propagator.Extract(ctx, propagation.MapCarrier(info.Metadata))
	}

	if !h.cfg.EnableTracing {
		return ctx, &spanToken{start: time.Now()}
	}

	attrs := append(h.baseAttributes(info), attribute.Bool("rpc.webservices.internal", info.Internal))

	if v := info.Metadata[server.MetaRemoteAddr]; v != "" {
		attrs = append(attrs, attribute.String("net.peer.ip", v))
	}
	if v := info.Metadata[server.MetaUserAgent]; v != "" {
		attrs = append(attrs, attribute.String("user_agent.original", v))
	}

	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("%s/%s", rpcSystem, info.Operation),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)

	return ctx, &spanToken{span: span, start: time.Now()}
}

func (h *hook) OnDispatchEnd(ctx context.Context, token server.HookToken, info server.DispatchInfo, result protocol.Result, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}

	status := StatusOK
	switch {
	case err != nil:
		status = StatusError
	case result.IsFault():
		status = StatusFault
	}

	if h.cfg.EnableMetrics {
		attrs := metric.WithAttributes(append(h.baseAttributes(info), attribute.String("status", status))...)
		if h.requests != nil {
			h.requests.Add(ctx, 1, attrs)
		}
		if h.duration != nil {
			h.duration.Record(ctx, time.Since(st.start).Seconds(), attrs)
		}
	}

	if st.span == nil || !st.span.IsRecording() {
		return
	}
	defer st.span.End()

	switch status {
	case StatusError:
		st.span.SetStatus(codes.Error, err.Error())
		st.span.RecordError(err)
	case StatusFault:
		fault := result.Fault()
		st.span.SetAttributes(attribute.Int("rpc.webservices.fault_code", fault.Code))
		st.span.SetStatus(codes.Error, fault.Message)
	default:
		st.span.SetStatus(codes.Ok, "")
	}
}

func (h *hook) baseAttributes(info server.DispatchInfo) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("rpc.system", rpcSystem),
		attribute.String("rpc.service", h.cfg.ServiceName),
		attribute.String("rpc.method", info.Operation),
	}
}

var _ server.DispatchHook = (*hook)(nil)
