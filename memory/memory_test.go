package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/memory"
)

var _ = Describe("Memory", func() {
	var m *memory.Memory

	BeforeEach(func() {
		m = memory.New(0x60000000, 0x70000000, 0x10000, 0x80000000, 0x10000, memory.Config{
			StrictRegion:       true,
			Permission:         true,
			HeapCheckAllocated: true,
		})
	})

	It("allocates heap addresses below the bump pointer only", func() {
		a, err := m.Heap().Alloc(16)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Heap().IsAllocated(a)).To(BeTrue())
		Expect(m.Heap().IsAllocated(a + 16)).To(BeFalse())
	})

	It("8-byte aligns heap allocations", func() {
		_, err := m.Heap().Alloc(3)
		Expect(err).NotTo(HaveOccurred())
		b, err := m.Heap().Alloc(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(b % 8).To(BeZero())
	})

	It("fails OutOfMemory past heap capacity", func() {
		_, err := m.Heap().Alloc(0x20000)
		Expect(err).To(HaveOccurred())
		var memErr *memory.Error
		Expect(errorsAs(err, &memErr)).To(BeTrue())
		Expect(memErr.Kind).To(Equal(memory.OutOfMemory))
	})

	It("round-trips a write then read", func() {
		addr, err := m.Heap().Alloc(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.WriteUint64(addr, 0xdeadbeef, memory.AnyRegion)).To(Succeed())
		got, err := m.ReadUint64(addr, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(uint64(0xdeadbeef)))
	})

	It("rejects disallowed regions under mem-strict-region", func() {
		addr, err := m.Heap().Alloc(8)
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Read(addr, 8, memory.NewRegionSet(memory.RegionStack))
		Expect(err).To(HaveOccurred())
		var memErr *memory.Error
		Expect(errorsAs(err, &memErr)).To(BeTrue())
		Expect(memErr.Kind).To(Equal(memory.DisallowedRegion))
	})

	It("rejects reads that cross a page boundary", func() {
		last := m.HeapRegion().Start + memory.PageSize - 4
		_, err := m.Read(last, 8, memory.AnyRegion)
		Expect(err).To(HaveOccurred())
		var memErr *memory.Error
		Expect(errorsAs(err, &memErr)).To(BeTrue())
		Expect(memErr.Kind).To(Equal(memory.PageBoundary))
	})

	It("clones by sharing pages and copy-on-writes divergent pages", func() {
		addr, err := m.Heap().Alloc(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.WriteUint64(addr, 1, memory.AnyRegion)).To(Succeed())

		snap := m.Clone()

		Expect(m.WriteUint64(addr, 2, memory.AnyRegion)).To(Succeed())

		got, err := snap.ReadUint64(addr, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(uint64(1)), "snapshot must not observe the post-clone write")

		got2, err := m.ReadUint64(addr, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(got2).To(Equal(uint64(2)))
	})
})

func errorsAs(err error, target **memory.Error) bool {
	me, ok := err.(*memory.Error)
	if !ok {
		return false
	}
	*target = me
	return true
}
