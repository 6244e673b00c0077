package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/webservices/server"
)

const (
	// ExecutePath is the route requests are posted to, `:protocol` names
	// the mounted server that handles them.
	ExecutePath = "/webservices/execute/:protocol"
	PingPath    = "/ping"
)

var (
	ErrNotStarted     = errors.New("HTTP transport is not started")
	ErrAlreadyStarted = errors.New("HTTP transport is already started")
)

// HTTP serves webservices servers over HTTP, one per protocol name.
type HTTP struct {
	addr         string
	reuseport    bool
	trace        bool
	maxBodyBytes int64

	router *gin.Engine

	mu       sync.RWMutex
	servers  map[string]*server.Server
	srv      *http.Server
	listener net.Listener
	serveErr chan error

	log *zap.Logger
}

func NewHTTP(options Options) *HTTP {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	maxBodyBytes := options.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	t := &HTTP{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		reuseport:    options.Reuseport,
		trace:        options.Trace,
		maxBodyBytes: maxBodyBytes,
		servers:      make(map[string]*server.Server),
		log:          log,
	}

	t.router = newRouter(options.DebugHTTP, log)

	t.router.GET(PingPath, func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	t.router.POST(ExecutePath, t.execute)

	return t
}

func newRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Logs all requests, like a combined access and error log, with RFC3339
	// UTC timestamps.
	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{PingPath},
	}))

	// Logs all panic to error log, with the stack.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}

// Mount serves s under /webservices/execute/<name>.
func (t *HTTP) Mount(name string, s *server.Server) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.servers[name] = s
}

func (t *HTTP) lookup(name string) (*server.Server, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.servers[name]
	return s, ok
}

// Handler returns the HTTP handler of the transport, for embedding it in
// another server or in tests.
func (t *HTTP) Handler() http.Handler {
	return t.router
}

func (t *HTTP) execute(c *gin.Context) {
	name := c.Param("protocol")

	s, ok := t.lookup(name)
	if !ok {
		c.String(http.StatusNotFound, "Unknown protocol %q", name)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, t.maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		_ = c.AbortWithError(status, fmt.Errorf("Failed to read request body: %w", err))
		return
	}

	if t.trace {
		t.log.Debug("Request", zap.String("protocol", name), zap.ByteString("body", body))
	}

	ctx := server.ContextWithMetadata(c.Request.Context(), metadata(c.Request))

	reply, err := s.ProcessRequest(ctx, body, c.GetHeader("Content-Encoding"))
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if t.trace {
		t.log.Debug("Reply", zap.String("operation", reply.Operation), zap.ByteString("body", reply.Body))
	}

	if err := reply.WriteTo(c.Writer); err != nil {
		t.log.Warn("Failed to write reply", zap.String("operation", reply.Operation), zap.Error(err))
	}
}

func metadata(r *http.Request) map[string]string {
	md := map[string]string{
		server.MetaRemoteAddr: r.RemoteAddr,
	}

	headers := map[string]string{
		server.MetaUserAgent:   "User-Agent",
		server.MetaTraceparent: "Traceparent",
		server.MetaTracestate:  "Tracestate",
	}

	for key, header := range headers {
		if v := r.Header.Get(header); v != "" {
			md[key] = v
		}
	}

	return md
}

// Start listens on the configured address and serves requests in the
// background until Shutdown or Close is called.
func (t *HTTP) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.srv != nil {
		return ErrAlreadyStarted
	}

	listener, err := t.listen(ctx)
	if err != nil {
		return fmt.Errorf("Failed to listen on %s: %w", t.addr, err)
	}

	t.listener = listener
	t.serveErr = make(chan error, 1)
	t.srv = &http.Server{
		Handler: t.router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	t.log.Info("Starting HTTP listener",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("reuseport", t.reuseport))

	go func(srv *http.Server, serveErr chan<- error) {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
		close(serveErr)
	}(t.srv, t.serveErr)

	return nil
}

func (t *HTTP) listen(ctx context.Context) (net.Listener, error) {
	if t.reuseport {
		return reuseport.Listen("tcp", t.addr)
	}

	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", t.addr)
}

// Addr returns the address the transport listens on, once started.
func (t *HTTP) Addr() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.listener == nil {
		return t.addr
	}

	return t.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in flight requests to
// finish, or for ctx to be done.
func (t *HTTP) Shutdown(ctx context.Context) error {
	t.mu.RLock()
	srv, serveErr := t.srv, t.serveErr
	t.mu.RUnlock()

	if srv == nil {
		return ErrNotStarted
	}

	srv.SetKeepAlivesEnabled(false)

	return multierr.Append(srv.Shutdown(ctx), <-serveErr)
}

// Close immediately closes the listener and all connections.
//
// For a graceful shutdown, use Shutdown()
func (t *HTTP) Close() error {
	t.mu.RLock()
	srv, serveErr := t.srv, t.serveErr
	t.mu.RUnlock()

	if srv == nil {
		return ErrNotStarted
	}

	t.log.Info("Stopping HTTP server")

	return multierr.Append(srv.Close(), <-serveErr)
}
