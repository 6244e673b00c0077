package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/registry"
)

// Server processes RPC requests for a single wire protocol: it inflates and
// parses the request body, dispatches the call to a registered function or
// an internal operation and renders the response.
//
// Functions are registered during setup. The registry is sealed by the first
// processed request, after which a Server is safe for concurrent use.
type Server struct {
	protocol      protocol.Protocol
	library       *registry.Library
	registry      *registry.Registry
	inflaters     map[string]Inflater
	maxInflated   int64
	exceptionMode ExceptionMode
	hook          DispatchHook

	log *zap.Logger
}

func New(options Options) (*Server, error) {
	if options.Protocol == nil {
		return nil, ErrNoProtocol
	}

	if !options.ExceptionMode.Valid() {
		return nil, fmt.Errorf("%d: %w", options.ExceptionMode, ErrInvalidExceptionMode)
	}

	library := options.Library
	if library == nil {
		library = registry.NewLibrary()
	}

	inflaters := options.Inflaters
	if inflaters == nil {
		inflaters = DefaultInflaters()
	}

	maxInflated := options.MaxInflatedBytes
	if maxInflated == 0 {
		maxInflated = DefaultMaxInflatedBytes
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		protocol:      options.Protocol,
		library:       library,
		registry:      registry.New(),
		inflaters:     inflaters,
		maxInflated:   maxInflated,
		exceptionMode: options.ExceptionMode,
		hook:          options.Hook,
		log:           log,
	}, nil
}

// ProcessRequest runs a raw request body through the whole lifecycle and
// returns the rendered reply.
//
// Protocol level failures (bad compression, unparsable body, unknown method,
// ...) are reported to the client as faults inside the reply. An error is
// only returned when the reply could not be rendered at all, or when a
// registered function failed and the server propagates exceptions, in which
// case the error is an *InvocationError and nothing must be sent.
func (s *Server) ProcessRequest(ctx context.Context, body []byte, contentEncoding string) (*protocol.Reply, error) {
	s.registry.Seal()

	s.log.Debug("Received request",
		zap.Int("bytes", len(body)),
		zap.String("encoding", contentEncoding))

	data, err := Inflate(body, contentEncoding, s.inflaters, s.maxInflated)
	if err != nil {
		if errors.Is(err, ErrInflatedTooLarge) {
			s.log.Warn("Request body inflates past the limit",
				zap.Int("bytes", len(body)),
				zap.Int64("limit", s.maxInflated))
		} else {
			s.log.Debug("Invalid request compression", zap.Error(err))
		}
		return s.ShowResponse(protocol.UnknownOperation, protocol.Failure(protocol.DefaultFault(protocol.InvalidCompression)), nil)
	}

	s.log.Debug("Decompressed request", zap.Int("bytes", len(data)))

	req, err := protocol.ParseRequest(s.protocol, data)
	if err != nil {
		s.log.Debug("Invalid request", zap.Error(err))
		return s.ShowResponse(protocol.UnknownOperation, protocol.Failure(protocol.DefaultFault(protocol.InvalidRequest)), nil)
	}

	s.log.Debug("Parsed request",
		zap.String("operation", req.Name),
		zap.Int("params", len(req.Params)))

	result, err := s.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.ShowResponse(req.Name, result, req)
}

func (s *Server) dispatch(ctx context.Context, req *protocol.Request) (result protocol.Result, err error) {
	info := DispatchInfo{
		Operation: req.Name,
		Internal:  s.IsInternal(req.Name),
		Metadata:  MetadataFromContext(ctx),
	}

	var token HookToken
	if s.hook != nil {
		ctx, token = s.hook.OnDispatchStart(ctx, info)
		defer func() {
			s.hook.OnDispatchEnd(ctx, token, info, result, err)
		}()
	}

	s.log.Debug("Routed request",
		zap.String("operation", req.Name),
		zap.Bool("internal", info.Internal))

	if info.Internal {
		result = s.HandleInternalRequest(ctx, req.Name, req.Params)
	} else {
		result, err = s.HandleRequest(ctx, req.Name, req.Params)
	}

	if err == nil {
		s.log.Debug("Invoked request",
			zap.String("operation", req.Name),
			zap.Bool("fault", result.IsFault()))
	}

	return result, err
}

// IsInternal reports whether the protocol reserves name for one of its
// internal operations.
func (s *Server) IsInternal(name string) bool {
	h, ok := s.protocol.(InternalHandler)
	return ok && h.IsInternal(name)
}

// HandleRequest calls a registered function. The parameters must validate
// against at least one of its signatures, and bind to the arguments of the
// implementation.
//
// The returned error is only ever set with ExceptionsPropagate, in which
// case it is an *InvocationError.
func (s *Server) HandleRequest(ctx context.Context, name string, params []protocol.Value) (protocol.Result, error) {
	entry, ok := s.registry.Lookup(name)
	if !ok {
		return protocol.Failure(protocol.Faultf(protocol.InvalidMethod, "%s '%s'", protocol.InvalidMethodString, name)), nil
	}

	if entry.Match(params, s.validator()) < 0 {
		return protocol.Failure(protocol.DefaultFault(protocol.InvalidParams)), nil
	}

	value, err := s.invoke(ctx, entry, params)
	if err == nil {
		return protocol.Success(value), nil
	}

	// Parameters that do not bind are a contract failure whatever the mode.
	if paramsErr, ok := err.(*registry.ParamsError); ok {
		s.log.Debug("Parameters do not bind",
			zap.String("operation", name),
			zap.Error(paramsErr))
		return protocol.Failure(protocol.DefaultFault(protocol.InvalidParams)), nil
	}

	switch s.exceptionMode {
	case ExceptionsHidden:
		s.log.Warn("Function failed", zap.String("operation", name), zap.Error(err))
		return protocol.Failure(protocol.DefaultFault(protocol.GenericResponse)), nil

	case ExceptionsPropagate:
		return protocol.Result{}, &InvocationError{Operation: name, Err: err}

	default:
		s.log.Debug("Function failed", zap.String("operation", name), zap.Error(err))
		return protocol.Failure(protocol.NewFault(protocol.ErrorCode(err), protocol.ErrorMessage(err))), nil
	}
}

func (s *Server) invoke(ctx context.Context, entry *registry.Entry, params []protocol.Value) (value protocol.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Function panicked",
				zap.String("operation", entry.Name),
				zap.Any("panic", r),
				zap.Stack("stack"))
			err = &PanicError{Value: r}
		}
	}()

	return entry.Callable.Call(ctx, params)
}

func (s *Server) validator() func([]protocol.Value, []registry.Param) bool {
	if v, ok := s.protocol.(ParamValidator); ok {
		return v.ValidateParams
	}

	return registry.Validate
}

// HandleInternalRequest runs one of the operations the protocol reserves for
// itself. Protocols without internal operations answer with a generic fault.
func (s *Server) HandleInternalRequest(ctx context.Context, name string, params []protocol.Value) protocol.Result {
	h, ok := s.protocol.(InternalHandler)
	if !ok {
		return protocol.Failure(protocol.DefaultFault(protocol.GenericResponse))
	}

	return h.HandleInternal(ctx, s.registry, name, params)
}

// ShowResponse builds the protocol response for a result and renders it. req
// is the parsed request, or nil when parsing failed.
//
// A response that cannot be rendered is replaced by a generic fault.
func (s *Server) ShowResponse(name string, result protocol.Result, req *protocol.Request) (*protocol.Reply, error) {
	reply, err := s.render(name, result, req)
	if err == nil {
		s.log.Debug("Responded",
			zap.String("operation", name),
			zap.Int("bytes", len(reply.Body)))
		return reply, nil
	}

	s.log.Error("Failed to render response", zap.String("operation", name), zap.Error(err))

	reply, err = s.render(name, protocol.Failure(protocol.DefaultFault(protocol.GenericResponse)), req)
	if err != nil {
		return nil, fmt.Errorf("Failed to render fault for %s: %w", name, err)
	}

	return reply, nil
}

func (s *Server) render(name string, result protocol.Result, req *protocol.Request) (*protocol.Reply, error) {
	resp := s.protocol.NewResponse(name)
	resp.SetValue(result)

	if p, ok := s.protocol.(ResponsePreparer); ok {
		p.PrepareResponse(resp, req)
	}

	return protocol.Render(name, resp)
}

// Protocol returns the wire protocol of the server.
func (s *Server) Protocol() protocol.Protocol {
	return s.protocol
}

// Library returns the implementations registered methods bind to.
func (s *Server) Library() *registry.Library {
	return s.library
}

// Registry returns the registry of exposed methods.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}
