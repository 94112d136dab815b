package view_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/dispatch"
	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/memory"
	"github.com/sarchlab/pouchvm/simstate"
	"github.com/sarchlab/pouchvm/view"
)

func newPouch() *dispatch.PouchRuntime {
	m := memory.New(0x1000, 0x200000, 0x10000, 0x300000, 0x40000,
		memory.Config{Permission: true, HeapCheckAllocated: true})
	_, err := m.Heap().AllocAt(0, 0x1c3a0)
	Expect(err).NotTo(HaveOccurred())
	pmdm := gamestruct.PMDMLayout{Instance: m.Heap().RegionStart()}
	Expect(pmdm.List1().Store(m, gamestruct.ItemList{Head: gamestruct.NullSlot, Tail: gamestruct.NullSlot}, memory.AnyRegion)).To(Succeed())
	Expect(pmdm.List2().Store(m, gamestruct.ItemList{Head: gamestruct.NullSlot, Tail: gamestruct.NullSlot}, memory.AnyRegion)).To(Succeed())
	return &dispatch.PouchRuntime{Mem: m, PMDM: pmdm, Allow: memory.AnyRegion}
}

var _ = Describe("Pouch view", func() {
	It("extracts items in list order while the game is running", func() {
		r := newPouch()
		_, err := r.AppendItem(gamestruct.PouchItem{Type: gamestruct.ItemFood, Value: 7})
		Expect(err).NotTo(HaveOccurred())

		list, err := view.Pouch(r, simstate.GameRunning)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.Items).To(HaveLen(1))
		Expect(list.Items[0].Value).To(Equal(int32(7)))
	})

	It("short-circuits with ErrGameNotViewable when the game is Uninit", func() {
		r := newPouch()
		_, err := view.Pouch(r, simstate.GameUninit)
		Expect(err).To(HaveOccurred())
		_, ok := err.(view.ErrGameNotViewable)
		Expect(ok).To(BeTrue())
	})

	It("short-circuits when the game is Crashed", func() {
		r := newPouch()
		_, err := view.Pouch(r, simstate.GameCrashed)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Overworld view", func() {
	It("mirrors the simstate actor list", func() {
		s := simstate.New()
		s.Boot()
		s.Overworld.Add(simstate.Actor{Name: "Obj_Apple", Value: 1})

		ov, err := view.Overworld(s, s.Game)
		Expect(err).NotTo(HaveOccurred())
		Expect(ov.Actors).To(Equal([]simstate.Actor{{Name: "Obj_Apple", Value: 1}}))
	})
})

var _ = Describe("RenderPouchTable", func() {
	It("produces non-empty table output", func() {
		list := view.PouchList{Items: []view.ItemView{{Slot: 419, Name: "Item_Fruit_A", Value: 1}}}
		out := view.RenderPouchTable(list)
		Expect(out).To(ContainSubstring("Item_Fruit_A"))
	})
})
