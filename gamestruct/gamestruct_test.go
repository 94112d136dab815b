package gamestruct_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/memory"
)

func newTestMemory() *memory.Memory {
	m := memory.New(0x1000, 0x200000, 0x10000, 0x300000, 0x40000,
		memory.Config{Permission: true, HeapCheckAllocated: true})
	_, err := m.Heap().AllocAt(0, 0x1c3a0)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("SafeString", func() {
	It("round-trips through a codec load/store", func() {
		m := newTestMemory()
		p := memory.NewPtr[gamestruct.SafeString](m.Heap().RegionStart(), gamestruct.SafeStringCodec)
		strAddr := m.Heap().RegionStart() + 0x100
		Expect(m.Write(strAddr, []byte("Item_Fruit_A\x00"), memory.AnyRegion)).To(Succeed())

		Expect(p.Store(m, gamestruct.SafeString{VTable: 0xdead, StrTop: strAddr}, memory.AnyRegion)).To(Succeed())

		got, err := p.Load(m, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.VTable).To(Equal(uint64(0xdead)))

		s, err := gamestruct.ReadCString(m, got, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("Item_Fruit_A"))
	})

	It("reads an empty string when str_top is null", func() {
		m := newTestMemory()
		s, err := gamestruct.ReadCString(m, gamestruct.SafeString{}, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(""))
	})
})

var _ = Describe("PouchItem", func() {
	It("round-trips every field through the codec", func() {
		m := newTestMemory()
		buf := gamestruct.ItemBuffer{Base: m.Heap().RegionStart() + 0x20}
		slot := buf.Slot(419)

		item := gamestruct.PouchItem{
			Type:     gamestruct.ItemFood,
			Use:      gamestruct.UseFood,
			Value:    1,
			Equipped: false,
			Prev:     gamestruct.NullSlot,
			Next:     gamestruct.NullSlot,
		}
		Expect(slot.Store(m, item, memory.AnyRegion)).To(Succeed())

		got, err := slot.Load(m, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Type).To(Equal(gamestruct.ItemFood))
		Expect(got.Value).To(Equal(int32(1)))
		Expect(got.Prev).To(Equal(gamestruct.NullSlot))
	})
})

var _ = Describe("ItemList", func() {
	It("walks a short chain front to back", func() {
		m := newTestMemory()
		buf := gamestruct.ItemBuffer{Base: m.Heap().RegionStart() + 0x20}

		Expect(buf.Slot(0).Store(m, gamestruct.PouchItem{Next: 1, Prev: gamestruct.NullSlot}, memory.AnyRegion)).To(Succeed())
		Expect(buf.Slot(1).Store(m, gamestruct.PouchItem{Next: gamestruct.NullSlot, Prev: 0}, memory.AnyRegion)).To(Succeed())

		list := gamestruct.ItemList{Count: 2, Head: 0, Tail: 1}
		indices, err := list.Items(m, buf, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(indices).To(Equal([]int32{0, 1}))
	})

	It("reports no items for an empty list", func() {
		m := newTestMemory()
		buf := gamestruct.ItemBuffer{Base: m.Heap().RegionStart() + 0x20}
		list := gamestruct.ItemList{Count: 0, Head: gamestruct.NullSlot, Tail: gamestruct.NullSlot}
		indices, err := list.Items(m, buf, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(indices).To(BeEmpty())
	})
})

var _ = Describe("PMDMLayout hold/trash scenario", func() {
	It("places the grabbed item's mItem at item_buffer[419] with mValue 0", func() {
		m := newTestMemory()
		pmdm := gamestruct.PMDMLayout{Instance: m.Heap().RegionStart()}

		lastSlot := pmdm.ItemBuffer().Slot(419)
		Expect(pmdm.GrabbedItem(0).Store(m, gamestruct.GrabbedItem{
			MItem:  lastSlot.Addr,
			MValue: 0,
		}, memory.AnyRegion)).To(Succeed())

		got, err := pmdm.GrabbedItem(0).Load(m, memory.AnyRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.MItem).To(Equal(lastSlot.Addr))
		Expect(got.MValue).To(Equal(int32(0)))
	})
})
