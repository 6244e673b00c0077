package registry_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/registry"
)

type greeter struct {
	greeting string
}

func (g *greeter) Greet(name string) string {
	return g.greeting + " " + name
}

func (g *greeter) Shout(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("Nobody to shout at")
	}
	return strings.ToUpper(name), nil
}

func (g *greeter) Join(parts ...string) string {
	return strings.Join(parts, g.greeting)
}

type point struct {
	X   int `json:"x"`
	Y   int `json:"y"`
	Tag string
}

var _ = Describe("registry / Library", func() {
	ctx := context.Background()

	Describe("DefineFunc()", func() {
		It("converts parameters and results", func() {
			lib := registry.NewLibrary()
			Expect(lib.DefineFunc("add", func(a, b int) int { return a + b })).To(Succeed())

			fn, ok := lib.Function("add")
			Expect(ok).To(BeTrue())

			v, err := fn.Call(ctx, []protocol.Value{protocol.Int(2), protocol.Int(3)})
			Expect(err).To(Succeed())
			Expect(v.Equal(protocol.Int(5))).To(BeTrue())
		})

		It("rejects values that are not functions", func() {
			lib := registry.NewLibrary()
			Expect(lib.DefineFunc("x", 42)).To(MatchError(registry.ErrNotFunc))
		})

		It("rejects misplaced errors", func() {
			lib := registry.NewLibrary()
			err := lib.DefineFunc("x", func() (error, int) { return nil, 0 })
			Expect(errors.Is(err, registry.ErrBadErrorPos)).To(BeTrue())
		})

		It("passes the context through", func() {
			type key struct{}
			lib := registry.NewLibrary()
			Expect(lib.DefineFunc("ctx", func(ctx context.Context) string {
				return ctx.Value(key{}).(string)
			})).To(Succeed())

			fn, _ := lib.Function("ctx")
			v, err := fn.Call(context.WithValue(ctx, key{}, "here"), nil)
			Expect(err).To(Succeed())
			Expect(v.AsString()).To(Equal("here"))
		})
	})

	Describe("Wrap()", func() {
		It("returns a fault for a wrong parameter count", func() {
			fn, err := registry.Wrap(func(a int) int { return a })
			Expect(err).To(Succeed())

			_, err = fn.Call(ctx, nil)
			Expect(protocol.ErrorCode(err)).To(Equal(protocol.InvalidParams))
		})

		It("returns a fault for parameters of the wrong type", func() {
			fn, err := registry.Wrap(func(a int) int { return a })
			Expect(err).To(Succeed())

			_, err = fn.Call(ctx, []protocol.Value{protocol.String("1")})
			Expect(protocol.ErrorCode(err)).To(Equal(protocol.InvalidParams))
		})

		It("reports binding failures as ParamsError", func() {
			called := false
			fn, err := registry.Wrap(func(a int) int {
				called = true
				return a
			})
			Expect(err).To(Succeed())

			_, err = fn.Call(ctx, nil)
			var paramsErr *registry.ParamsError
			Expect(errors.As(err, &paramsErr)).To(BeTrue())
			Expect(errors.Is(err, registry.ErrArgumentCount)).To(BeTrue())

			_, err = fn.Call(ctx, []protocol.Value{protocol.String("1")})
			Expect(errors.As(err, &paramsErr)).To(BeTrue())
			Expect(errors.Is(err, registry.ErrArgumentType)).To(BeTrue())

			Expect(called).To(BeFalse())
		})

		It("returns the error of the function", func() {
			boom := errors.New("boom")
			fn, err := registry.Wrap(func() error { return boom })
			Expect(err).To(Succeed())

			_, err = fn.Call(ctx, nil)
			Expect(err).To(MatchError(boom))
		})

		It("returns null for functions without results", func() {
			fn, err := registry.Wrap(func() {})
			Expect(err).To(Succeed())

			v, err := fn.Call(ctx, nil)
			Expect(err).To(Succeed())
			Expect(v.IsNull()).To(BeTrue())
		})

		It("converts composite parameters", func() {
			fn, err := registry.Wrap(func(p point, tags []string, extra map[string]float64, opt *int) int {
				n := p.X + p.Y + len(tags) + int(extra["k"])
				if opt != nil {
					n += *opt
				}
				return n
			})
			Expect(err).To(Succeed())

			v, err := fn.Call(ctx, []protocol.Value{
				protocol.Struct(protocol.Field("x", protocol.Int(1)), protocol.Field("y", protocol.Int(2)), protocol.Field("tag", protocol.String("t"))),
				protocol.Array(protocol.String("a"), protocol.String("b")),
				protocol.Struct(protocol.Field("k", protocol.Int(10))),
				protocol.Null(),
			})
			Expect(err).To(Succeed())
			Expect(v.AsInt()).To(Equal(int64(15)))
		})

		It("accepts integral doubles for integer parameters", func() {
			fn, err := registry.Wrap(func(a int8) int8 { return a })
			Expect(err).To(Succeed())

			v, err := fn.Call(ctx, []protocol.Value{protocol.Double(4)})
			Expect(err).To(Succeed())
			Expect(v.AsInt()).To(Equal(int64(4)))

			_, err = fn.Call(ctx, []protocol.Value{protocol.Int(1000)})
			Expect(protocol.ErrorCode(err)).To(Equal(protocol.InvalidParams))
		})

		It("passes Values through untouched", func() {
			fn, err := registry.Wrap(func(v protocol.Value) protocol.Value { return v })
			Expect(err).To(Succeed())

			in := protocol.Array(protocol.Int(1), protocol.Null())
			v, err := fn.Call(ctx, []protocol.Value{in})
			Expect(err).To(Succeed())
			Expect(v.Equal(in)).To(BeTrue())
		})

		It("returns Callables as they are", func() {
			c := constant(protocol.Int(7))
			fn, err := registry.Wrap(c)
			Expect(err).To(Succeed())

			v, _ := fn.Call(ctx, nil)
			Expect(v.AsInt()).To(Equal(int64(7)))
		})
	})

	Describe("DefineObject()", func() {
		It("exposes methods with a lower-cased first letter", func() {
			lib := registry.NewLibrary()
			err := lib.DefineObject("Greeter", &greeter{greeting: "Hello"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Greeter.Join"))

			Expect(lib.HasObject("Greeter")).To(BeTrue())

			names, ok := lib.Methods("Greeter")
			Expect(ok).To(BeTrue())
			Expect(names).To(Equal([]string{"greet", "shout"}))

			fn, ok := lib.Method("Greeter", "greet")
			Expect(ok).To(BeTrue())
			v, err := fn.Call(ctx, []protocol.Value{protocol.String("you")})
			Expect(err).To(Succeed())
			Expect(v.AsString()).To(Equal("Hello you"))

			_, ok = lib.Method("Greeter", "Greet")
			Expect(ok).To(BeFalse())
		})

		It("rejects nil receivers", func() {
			Expect(registry.NewLibrary().DefineObject("X", nil)).To(MatchError(registry.ErrNilReceiver))
		})

		It("reports unknown objects", func() {
			lib := registry.NewLibrary()
			Expect(lib.HasObject("X")).To(BeFalse())
			_, ok := lib.Methods("X")
			Expect(ok).To(BeFalse())
			_, ok = lib.Method("X", "y")
			Expect(ok).To(BeFalse())
		})
	})
})
