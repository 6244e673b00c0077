package transport_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/protocol/jsonrpc"
	"github.com/luma/webservices/registry"
	"github.com/luma/webservices/server"
	"github.com/luma/webservices/transport"
)

var errBoom = errors.New("Boom")

func makeServer(mode server.ExceptionMode) *server.Server {
	lib := registry.NewLibrary()
	Expect(lib.DefineFunc("examples_echo", func(ctx context.Context, v protocol.Value) protocol.Value {
		md := server.MetadataFromContext(ctx)
		if v.AsString() == "agent" {
			return protocol.String(md[server.MetaUserAgent])
		}
		return v
	})).To(Succeed())
	Expect(lib.DefineFunc("examples_fail", func() error { return errBoom })).To(Succeed())

	s, err := server.New(server.Options{
		Protocol:      jsonrpc.New(jsonrpc.Options{}),
		Library:       lib,
		ExceptionMode: mode,
		Log:           zap.NewNop(),
	})
	Expect(err).To(Succeed())

	Expect(s.RegisterFunction("examples.echo", nil, "", "")).To(Succeed())
	Expect(s.RegisterFunction("examples.fail", nil, "", "")).To(Succeed())

	return s
}

func makeTransport(mode server.ExceptionMode) *transport.HTTP {
	t := transport.NewHTTP(transport.Options{
		Host:         "127.0.0.1",
		MaxBodyBytes: 1024,
		Trace:        true,
		Log:          zap.NewNop(),
	})
	t.Mount(jsonrpc.Name, makeServer(mode))

	return t
}

func post(h http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

var _ = Describe("transport", func() {
	Describe("HTTP", func() {
		It("answers pings", func() {
			rec := httptest.NewRecorder()
			makeTransport(server.ExceptionsAsFaults).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("pong"))
		})

		It("executes calls on the mounted protocol", func() {
			h := makeTransport(server.ExceptionsAsFaults).Handler()

			rec := post(h, "/webservices/execute/jsonrpc", `{"method":"examples.echo","params":["agent"],"id":1}`, map[string]string{
				"User-Agent": "transport-test",
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal(`application/json; charset="UTF-8"`))
			Expect(rec.Header().Get("Content-Length")).To(Equal(strconv.Itoa(rec.Body.Len())))
			Expect(rec.Body.String()).To(MatchJSON(`{"result":"transport-test","error":null,"id":1}`))
		})

		It("inflates compressed bodies", func() {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, err := w.Write([]byte(`{"method":"examples.echo","params":[3],"id":2}`))
			Expect(err).To(Succeed())
			Expect(w.Close()).To(Succeed())

			rec := post(makeTransport(server.ExceptionsAsFaults).Handler(), "/webservices/execute/jsonrpc", buf.String(), map[string]string{
				"Content-Encoding": "gzip",
			})

			Expect(rec.Body.String()).To(MatchJSON(`{"result":3,"error":null,"id":2}`))
		})

		It("answers faults with a 200", func() {
			rec := post(makeTransport(server.ExceptionsAsFaults).Handler(), "/webservices/execute/jsonrpc", `not json`, nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"faultCode":-201`))
		})

		It("answers 404 for unknown protocols", func() {
			rec := post(makeTransport(server.ExceptionsAsFaults).Handler(), "/webservices/execute/xmlrpc", `<methodCall/>`, nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("answers 500 for propagated errors", func() {
			rec := post(makeTransport(server.ExceptionsPropagate).Handler(), "/webservices/execute/jsonrpc", `{"method":"examples.fail","params":[],"id":1}`, nil)

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).NotTo(ContainSubstring("result"))
		})

		It("refuses bodies that are too large", func() {
			body := `{"method":"examples.echo","params":["` + strings.Repeat("a", 2048) + `"],"id":1}`
			rec := post(makeTransport(server.ExceptionsAsFaults).Handler(), "/webservices/execute/jsonrpc", body, nil)

			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})

		It("listens on the desired address", func() {
			t := makeTransport(server.ExceptionsAsFaults)
			Expect(t.Start(context.Background())).To(Succeed())

			defer func() {
				Expect(t.Close()).To(Succeed())
			}()

			Expect(t.Start(context.Background())).To(MatchError(transport.ErrAlreadyStarted))

			resp, err := http.Post("http://"+t.Addr()+"/webservices/execute/jsonrpc", "application/json",
				strings.NewReader(`{"method":"examples.echo","params":["over the wire"],"id":9}`))
			Expect(err).To(Succeed())
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			Expect(err).To(Succeed())
			Expect(string(body)).To(MatchJSON(`{"result":"over the wire","error":null,"id":9}`))
		})

		It("shuts down gracefully", func() {
			t := transport.NewHTTP(transport.Options{Host: "127.0.0.1", Reuseport: true})
			Expect(t.Start(context.Background())).To(Succeed())
			Expect(t.Shutdown(context.Background())).To(Succeed())
		})

		It("cannot stop before it starts", func() {
			t := transport.NewHTTP(transport.Options{})
			Expect(t.Close()).To(MatchError(transport.ErrNotStarted))
		})
	})
})
