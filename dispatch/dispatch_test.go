package dispatch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/dispatch"
	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/memory"
	"github.com/sarchlab/pouchvm/pool"
	"github.com/sarchlab/pouchvm/simstate"
)

func newDispatcher() *dispatch.Dispatcher {
	m := memory.New(0x1000, 0x200000, 0x10000, 0x300000, 0x40000,
		memory.Config{Permission: true, HeapCheckAllocated: true})
	_, err := m.Heap().AllocAt(0, 0x1c3a0)
	Expect(err).NotTo(HaveOccurred())

	pmdm := gamestruct.PMDMLayout{Instance: m.Heap().RegionStart()}
	// An empty pouch starts with both lists pointing at NullSlot.
	Expect(pmdm.List1().Store(m, gamestruct.ItemList{Head: gamestruct.NullSlot, Tail: gamestruct.NullSlot}, memory.AnyRegion)).To(Succeed())
	Expect(pmdm.List2().Store(m, gamestruct.ItemList{Head: gamestruct.NullSlot, Tail: gamestruct.NullSlot}, memory.AnyRegion)).To(Succeed())

	st := simstate.New()
	st.Boot()

	return &dispatch.Dispatcher{
		Pouch: &dispatch.PouchRuntime{Mem: m, PMDM: pmdm, Allow: memory.AnyRegion},
		State: st,
	}
}

var _ = Describe("Get", func() {
	It("adds items into the pouch, landing the first one in slot 419", func() {
		d := newDispatcher()
		res := d.Get(gamestruct.PouchItem{Type: gamestruct.ItemFood, Value: 1}, 1)
		Expect(res.Err).NotTo(HaveOccurred())

		items, err := d.Pouch.Items()
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]int32{419}))
	})

	It("refuses to run before the game has booted", func() {
		d := newDispatcher()
		d.State.Game = simstate.GameUninit
		res := d.Get(gamestruct.PouchItem{}, 1)
		Expect(res.Err).To(Equal(dispatch.ErrGameNotRunning))
	})
})

var _ = Describe("Hold/trash scenario", func() {
	It("leaves grabbed_items[0] pointing at item_buffer[419] with mValue 0", func() {
		d := newDispatcher()
		Expect(d.Get(gamestruct.PouchItem{Type: gamestruct.ItemFood, Value: 1}, 1).Err).NotTo(HaveOccurred())
		Expect(d.Trash(0, 0).Err).NotTo(HaveOccurred())
		Expect(d.Hold().Err).NotTo(HaveOccurred())

		grabbed, err := d.Pouch.PMDM.GrabbedItem(0).Load(d.Pouch.Mem, d.Pouch.Allow)
		Expect(err).NotTo(HaveOccurred())
		Expect(grabbed.MItem).To(Equal(d.Pouch.PMDM.ItemBuffer().Slot(419).Addr))
		Expect(grabbed.MValue).To(Equal(int32(0)))
	})
})

var _ = Describe("Drop/PickUp", func() {
	It("moves an item from the pouch into the overworld", func() {
		d := newDispatcher()
		Expect(d.Get(gamestruct.PouchItem{Type: gamestruct.ItemFood, Value: 3}, 1).Err).NotTo(HaveOccurred())

		res := d.Drop(dispatch.ItemSelectSpec{All: true, HasCategory: true, Category: gamestruct.ItemFood})
		Expect(res.Err).NotTo(HaveOccurred())

		items, err := d.Pouch.Items()
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
		Expect(d.State.Overworld.Len()).To(Equal(1))
	})
})

var _ = Describe("Selector amount clamping", func() {
	It("warns and clamps when requesting more than is available", func() {
		d := newDispatcher()
		Expect(d.Get(gamestruct.PouchItem{Type: gamestruct.ItemMaterial, Value: 1}, 2).Err).NotTo(HaveOccurred())

		res := d.Sell(dispatch.ItemSelectSpec{HasCategory: true, Category: gamestruct.ItemMaterial, Amount: 5})
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Warning).NotTo(BeEmpty())

		items, err := d.Pouch.Items()
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})
})

var _ = Describe("Sort", func() {
	It("orders same-category items by descending value", func() {
		d := newDispatcher()
		for _, v := range []int32{1, 5, 3} {
			Expect(d.Get(gamestruct.PouchItem{Type: gamestruct.ItemMaterial, Value: v}, 1).Err).NotTo(HaveOccurred())
		}

		Expect(d.Sort(gamestruct.ItemMaterial, 0, true, false).Err).NotTo(HaveOccurred())

		items, err := d.Pouch.Items()
		Expect(err).NotTo(HaveOccurred())
		var values []int32
		for _, slot := range items {
			item, err := d.Pouch.ItemAt(slot)
			Expect(err).NotTo(HaveOccurred())
			values = append(values, item.Value)
		}
		Expect(values).To(Equal([]int32{5, 3, 1}))
	})
})

var _ = Describe("BreakSlot", func() {
	It("mutates mCount directly and warns about coherence", func() {
		d := newDispatcher()
		res := d.BreakSlot(1, 0)
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Warning).NotTo(BeEmpty())

		list1, err := d.Pouch.PMDM.List1().Load(d.Pouch.Mem, d.Pouch.Allow)
		Expect(err).NotTo(HaveOccurred())
		Expect(list1.Count).To(Equal(int32(1)))

		Expect(d.Pouch.CoherenceCheck()).To(HaveOccurred())
	})
})

var _ = Describe("pool-backed dispatch", func() {
	It("produces the same result whether or not a Pool is attached", func() {
		d := newDispatcher()
		p := pool.New(2, 4)
		defer p.Close()
		d.Pool = p

		res := d.Get(gamestruct.PouchItem{Type: gamestruct.ItemFood, Value: 1}, 1)
		Expect(res.Err).NotTo(HaveOccurred())

		items, err := d.Pouch.Items()
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
	})

	It("frees the dispatcher's leaked process handle on Close", func() {
		d := newDispatcher()
		p := pool.New(1, 4)
		defer p.Close()
		d.Pool = p

		Expect(d.Swap(gamestruct.NullSlot, gamestruct.NullSlot).Err).To(HaveOccurred())
		d.Close()
	})
})
