package registry_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/registry"
)

func constant(v protocol.Value) registry.Func {
	return func(context.Context, []protocol.Value) (protocol.Value, error) {
		return v, nil
	}
}

var _ = Describe("registry / Registry", func() {
	Describe("Add()", func() {
		It("rejects empty names and missing implementations", func() {
			r := registry.New()

			Expect(r.Add("", registry.Unchecked, "", constant(protocol.Null()))).To(MatchError(registry.ErrEmptyName))
			Expect(r.Add("a", registry.Unchecked, "", nil)).To(MatchError(registry.ErrNoCallable))
			Expect(r.Len()).To(Equal(0))
		})

		It("appends signatures and keeps the first implementation", func() {
			r := registry.New()

			first := constant(protocol.Int(1))
			Expect(r.Add("sum", registry.Signature{In: []registry.Param{{Type: "int"}}, Out: "int"}, "Adds", first)).To(Succeed())
			Expect(r.Add("sum", registry.Signature{In: []registry.Param{{Type: "double"}}, Out: "double"}, "", constant(protocol.Int(2)))).To(Succeed())

			entry, ok := r.Lookup("sum")
			Expect(ok).To(BeTrue())
			Expect(entry.Signatures).To(HaveLen(2))
			Expect(entry.Description).To(Equal("Adds"))

			v, err := entry.Callable.Call(context.Background(), nil)
			Expect(err).To(Succeed())
			Expect(v.AsInt()).To(Equal(int64(1)))
		})

		It("replaces the description when a new one is given", func() {
			r := registry.New()

			Expect(r.Add("a", registry.Unchecked, "old", constant(protocol.Null()))).To(Succeed())
			Expect(r.Add("a", registry.Unchecked, "new", constant(protocol.Null()))).To(Succeed())

			desc, ok := r.MethodDescription("a")
			Expect(ok).To(BeTrue())
			Expect(desc).To(Equal("new"))
		})

		It("fails once the registry is sealed", func() {
			r := registry.New()
			r.Seal()

			Expect(r.IsSealed()).To(BeTrue())
			Expect(r.Add("a", registry.Unchecked, "", constant(protocol.Null()))).To(MatchError(registry.ErrSealed))
		})
	})

	Describe("Set()", func() {
		It("replaces the whole entry", func() {
			r := registry.New()

			Expect(r.Add("a", registry.Signature{In: []registry.Param{{Type: "int"}}, Out: "int"}, "old", constant(protocol.Int(1)))).To(Succeed())
			Expect(r.Set("a", registry.Unchecked, "", constant(protocol.Int(2)))).To(Succeed())
			Expect(r.Set("a", registry.Unchecked, "", constant(protocol.Int(3)))).To(Succeed())

			entry, ok := r.Lookup("a")
			Expect(ok).To(BeTrue())
			Expect(entry.Signatures).To(Equal([]registry.Signature{registry.Unchecked}))
			Expect(entry.Description).To(BeEmpty())

			v, err := entry.Callable.Call(context.Background(), nil)
			Expect(err).To(Succeed())
			Expect(v.AsInt()).To(Equal(int64(3)))
		})

		It("fails once the registry is sealed", func() {
			r := registry.New()
			r.Seal()

			Expect(r.Set("a", registry.Unchecked, "", constant(protocol.Null()))).To(MatchError(registry.ErrSealed))
		})
	})

	Describe("RegisteredMethods()", func() {
		It("returns the names sorted", func() {
			r := registry.New()
			for _, name := range []string{"b", "c", "a"} {
				Expect(r.Add(name, registry.Unchecked, "", constant(protocol.Null()))).To(Succeed())
			}

			Expect(r.RegisteredMethods()).To(Equal([]string{"a", "b", "c"}))
		})
	})

	Describe("MethodSignatures()", func() {
		It("returns copies that cannot alter the registry", func() {
			r := registry.New()
			sig := registry.Signature{In: []registry.Param{{Name: "x", Type: "int"}}, Out: "int"}
			Expect(r.Add("a", sig, "", constant(protocol.Null()))).To(Succeed())

			sigs, ok := r.MethodSignatures("a")
			Expect(ok).To(BeTrue())
			sigs[0].In[0].Type = "string"

			again, _ := r.MethodSignatures("a")
			Expect(again[0].In[0].Type).To(Equal("int"))
		})

		It("reports unknown methods", func() {
			_, ok := registry.New().MethodSignatures("nope")
			Expect(ok).To(BeFalse())
		})

		It("keeps unchecked signatures unchecked", func() {
			r := registry.New()
			Expect(r.Add("a", registry.Unchecked, "", constant(protocol.Null()))).To(Succeed())

			sigs, _ := r.MethodSignatures("a")
			Expect(sigs[0].Checked()).To(BeFalse())
			Expect(sigs[0].Out).To(Equal("mixed"))
		})
	})
})

var _ = Describe("registry / Validate", func() {
	It("accepts anything without a parameter list", func() {
		Expect(registry.Validate([]protocol.Value{protocol.Int(1), protocol.String("x")}, nil)).To(BeTrue())
	})

	It("checks the parameter count", func() {
		in := []registry.Param{{Type: "int"}}
		Expect(registry.Validate(nil, in)).To(BeFalse())
		Expect(registry.Validate([]protocol.Value{protocol.Int(1), protocol.Int(2)}, in)).To(BeFalse())
	})

	It("checks every type hint", func() {
		in := []registry.Param{{Type: "int"}, {Type: "string"}}
		Expect(registry.Validate([]protocol.Value{protocol.Int(1), protocol.String("x")}, in)).To(BeTrue())
		Expect(registry.Validate([]protocol.Value{protocol.String("x"), protocol.Int(1)}, in)).To(BeFalse())
	})

	It("accepts no parameters for an empty parameter list", func() {
		Expect(registry.Validate(nil, []registry.Param{})).To(BeTrue())
	})

	Describe("Entry.Match()", func() {
		It("returns the first accepting signature", func() {
			entry := &registry.Entry{Signatures: []registry.Signature{
				{In: []registry.Param{{Type: "int"}, {Type: "int"}}, Out: "int"},
				{In: []registry.Param{{Type: "double"}, {Type: "double"}}, Out: "double"},
			}}

			Expect(entry.Match([]protocol.Value{protocol.Double(1), protocol.Double(2)}, nil)).To(Equal(1))
			Expect(entry.Match([]protocol.Value{protocol.String("1")}, nil)).To(Equal(-1))
		})

		It("uses the given validator", func() {
			entry := &registry.Entry{Signatures: []registry.Signature{{In: []registry.Param{}, Out: "int"}}}
			never := func([]protocol.Value, []registry.Param) bool { return false }

			Expect(entry.Match(nil, never)).To(Equal(-1))
		})
	})
})
