package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/webservices/client"
	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/protocol/jsonrpc"
	"github.com/luma/webservices/registry"
	"github.com/luma/webservices/server"
	"github.com/luma/webservices/transport"
)

var _ = Describe("client", func() {
	var ts *httptest.Server

	BeforeEach(func() {
		lib := registry.NewLibrary()
		Expect(lib.DefineFunc("examples_sum", func(a, b int) int { return a + b })).To(Succeed())
		Expect(lib.DefineFunc("examples_fail", func() error { return protocol.NewFault(12, "Twelve") })).To(Succeed())

		s, err := server.New(server.Options{Protocol: jsonrpc.New(jsonrpc.Options{}), Library: lib})
		Expect(err).To(Succeed())
		Expect(s.RegisterFunction("examples.sum", []registry.Param{{Type: "int"}, {Type: "int"}}, "int", "")).To(Succeed())
		Expect(s.RegisterFunction("examples.fail", nil, "", "")).To(Succeed())

		t := transport.NewHTTP(transport.Options{})
		t.Mount(jsonrpc.Name, s)

		ts = httptest.NewServer(t.Handler())
	})

	AfterEach(func() {
		ts.Close()
	})

	It("calls methods", func() {
		c := client.New(client.Options{URL: ts.URL + "/"})

		v, err := c.Call(context.Background(), "examples.sum", protocol.Int(40), protocol.Int(2))
		Expect(err).To(Succeed())
		Expect(v.AsInt()).To(Equal(int64(42)))

		// ids move on between calls
		v, err = c.Call(context.Background(), "examples.sum", protocol.Int(1), protocol.Int(1))
		Expect(err).To(Succeed())
		Expect(v.AsInt()).To(Equal(int64(2)))
	})

	It("compresses requests", func() {
		c := client.New(client.Options{URL: ts.URL, Compress: true})

		v, err := c.Call(context.Background(), "examples.sum", protocol.Int(1), protocol.Int(2))
		Expect(err).To(Succeed())
		Expect(v.AsInt()).To(Equal(int64(3)))
	})

	It("returns faults", func() {
		c := client.New(client.Options{URL: ts.URL})

		_, err := c.Call(context.Background(), "examples.fail")
		var fault *protocol.Fault
		Expect(errors.As(err, &fault)).To(BeTrue())
		Expect(fault).To(Equal(protocol.NewFault(12, "Twelve")))

		_, err = c.Call(context.Background(), "examples.sum", protocol.String("x"), protocol.Int(1))
		Expect(protocol.ErrorCode(err)).To(Equal(protocol.InvalidParams))
	})

	It("reports HTTP errors", func() {
		c := client.New(client.Options{URL: ts.URL + "/nowhere"})

		_, err := c.Call(context.Background(), "examples.sum", protocol.Int(1), protocol.Int(2))
		var statusErr *client.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("detects mismatched ids", func() {
		liar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":1,"error":null,"id":999}`))
		}))
		defer liar.Close()

		_, err := client.New(client.Options{URL: liar.URL}).Call(context.Background(), "a")
		Expect(errors.Is(err, client.ErrIDMismatch)).To(BeTrue())
	})
})
