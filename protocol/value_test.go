package protocol_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/webservices/protocol"
)

var _ = Describe("Value", func() {
	Describe("Is()", func() {
		It("matches int hints only for ints", func() {
			Expect(protocol.Int(1).Is("int")).To(BeTrue())
			Expect(protocol.Int(1).Is("i4")).To(BeTrue())
			Expect(protocol.Double(1).Is("int")).To(BeFalse())
			Expect(protocol.String("1").Is("int")).To(BeFalse())
		})

		It("matches number for ints and doubles", func() {
			Expect(protocol.Int(1).Is("number")).To(BeTrue())
			Expect(protocol.Double(1.5).Is("number")).To(BeTrue())
			Expect(protocol.Bool(true).Is("number")).To(BeFalse())
		})

		It("accepts anything for mixed and empty hints", func() {
			for _, v := range []protocol.Value{protocol.Null(), protocol.Array(), protocol.String("x")} {
				Expect(v.Is("mixed")).To(BeTrue())
				Expect(v.Is("")).To(BeTrue())
			}
		})

		It("never matches an unknown hint", func() {
			Expect(protocol.String("x").Is("dateTime.iso8601")).To(BeFalse())
		})
	})

	Describe("FromGo()", func() {
		It("converts maps with sorted keys", func() {
			v, err := protocol.FromGo(map[string]int{"b": 2, "a": 1})
			Expect(err).To(Succeed())
			Expect(v.Kind()).To(Equal(protocol.KindStruct))
			Expect(v.Members()[0].Name).To(Equal("a"))
			Expect(v.Members()[1].Name).To(Equal("b"))
		})

		It("converts structs using json tags", func() {
			type info struct {
				Version string `json:"version"`
				Build   string
				hidden  string
			}

			v, err := protocol.FromGo(info{Version: "1.0", Build: "abc", hidden: "x"})
			Expect(err).To(Succeed())
			Expect(v.Len()).To(Equal(2))

			version, ok := v.Get("version")
			Expect(ok).To(BeTrue())
			Expect(version.AsString()).To(Equal("1.0"))
		})

		It("refuses types it cannot represent", func() {
			_, err := protocol.FromGo(make(chan int))
			Expect(errors.Is(err, protocol.ErrUnsupportedType)).To(BeTrue())

			_, err = protocol.FromGo(map[int]string{1: "x"})
			Expect(errors.Is(err, protocol.ErrUnsupportedType)).To(BeTrue())
		})

		It("turns nil pointers into null", func() {
			var p *int
			Expect(protocol.MustFromGo(p).IsNull()).To(BeTrue())
		})
	})

	Describe("JSON", func() {
		It("keeps struct member order", func() {
			v := protocol.Struct(
				protocol.Field("z", protocol.Int(1)),
				protocol.Field("a", protocol.Array(protocol.Bool(true), protocol.Null())),
			)

			data, err := json.Marshal(v)
			Expect(err).To(Succeed())
			Expect(string(data)).To(Equal(`{"z":1,"a":[true,null]}`))
		})

		It("keeps doubles recognisable", func() {
			data, err := protocol.Double(2).MarshalJSON()
			Expect(err).To(Succeed())
			Expect(string(data)).To(Equal(`2.0`))

			var v protocol.Value
			Expect(v.UnmarshalJSON(data)).To(Succeed())
			Expect(v.Kind()).To(Equal(protocol.KindDouble))
		})

		It("decodes integers and doubles", func() {
			var v protocol.Value
			Expect(json.Unmarshal([]byte(`[1, 1.5, 1e3, "s", {"k": false}]`), &v)).To(Succeed())

			Expect(v.Equal(protocol.Array(
				protocol.Int(1),
				protocol.Double(1.5),
				protocol.Double(1000),
				protocol.String("s"),
				protocol.Struct(protocol.Field("k", protocol.Bool(false))),
			))).To(BeTrue())
		})

		It("rejects invalid JSON", func() {
			var v protocol.Value
			Expect(v.UnmarshalJSON([]byte(`{"k":`))).To(MatchError(protocol.ErrInvalidJSON))
		})
	})
})
