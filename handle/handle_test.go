package handle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/handle"
)

var _ = Describe("Handle", func() {
	It("starts with a reference count of one after Leak", func() {
		h := handle.Leak(42)
		Expect(h.Count()).To(Equal(int32(1)))
		Expect(h.Get()).To(Equal(42))
	})

	It("increments the count on AddRef and keeps pointer identity", func() {
		h := handle.Leak("payload")
		dup := h.AddRef()
		Expect(h.Count()).To(Equal(int32(2)))
		Expect(dup.Ptr()).To(Equal(h.Ptr()))
	})

	It("decrements the count on Free", func() {
		h := handle.Leak(7)
		dup := h.AddRef()
		dup.Free()
		Expect(h.Count()).To(Equal(int32(1)))
	})

	It("panics if Free is called more times than Leak/AddRef", func() {
		h := handle.Leak(1)
		h.Free()
		Expect(func() { h.Free() }).To(Panic())
	})

	It("panics on Get after the handle is fully freed", func() {
		h := handle.Leak(1)
		h.Free()
		Expect(func() { h.Get() }).To(Panic())
	})

	It("passes CheckAddRefIdentity for a freshly leaked handle", func() {
		h := handle.Leak(struct{ X int }{X: 5})
		Expect(handle.CheckAddRefIdentity(h)).To(Succeed())
	})
})
