package simstate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/proxy"
	"github.com/sarchlab/pouchvm/simstate"
)

var _ = Describe("State lifecycle", func() {
	It("starts Uninit and refuses guest execution", func() {
		s := simstate.New()
		Expect(s.Game).To(Equal(simstate.GameUninit))
		Expect(s.CanExecuteGuestCode()).To(BeFalse())
	})

	It("allows guest execution once booted, and stops again after a crash", func() {
		s := simstate.New()
		s.Boot()
		Expect(s.CanExecuteGuestCode()).To(BeTrue())

		s.Crash()
		Expect(s.CanExecuteGuestCode()).To(BeFalse())
		Expect(s.Game).To(Equal(simstate.GameCrashed))

		s.ObservePreviousFault()
		Expect(s.Game).To(Equal(simstate.GamePreviousCrash))
	})
})

var _ = Describe("Save/Reload", func() {
	It("round-trips a named save and keeps the manual save separate", func() {
		s := simstate.New()
		gdt := proxy.NewGdt()
		gdt.SetBool("cleared_shrine", true)

		s.Save("before-boss", gdt)
		gdt.SetBool("cleared_shrine", false)
		s.Save(simstate.ManualSaveName, gdt)

		named, ok := s.Load("before-boss")
		Expect(ok).To(BeTrue())
		v, _ := named.(*proxy.Gdt).GetBool("cleared_shrine")
		Expect(v).To(BeTrue())

		manual, ok := s.Load(simstate.ManualSaveName)
		Expect(ok).To(BeTrue())
		v, _ = manual.(*proxy.Gdt).GetBool("cleared_shrine")
		Expect(v).To(BeFalse())
	})

	It("reports ok=false for an unknown save name", func() {
		s := simstate.New()
		_, ok := s.Load("nope")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Overworld", func() {
	It("tracks actors in insertion order and removes by index", func() {
		o := simstate.NewOverworld()
		o.Add(simstate.Actor{Name: "Obj_FruitApple", Value: 1})
		o.Add(simstate.Actor{Name: "Obj_KorokNuts", Value: 5})

		Expect(o.Len()).To(Equal(2))
		Expect(o.RemoveAt(0)).To(BeTrue())
		Expect(o.Actors()).To(Equal([]simstate.Actor{{Name: "Obj_KorokNuts", Value: 5}}))
	})
})

var _ = Describe("Clone", func() {
	It("produces an independent copy of save slots and overworld", func() {
		s := simstate.New()
		s.Boot()
		gdt := proxy.NewGdt()
		gdt.SetS32("rupees", 100)
		s.Save(simstate.ManualSaveName, gdt)
		s.Overworld.Add(simstate.Actor{Name: "Obj_Apple", Value: 1})

		clone := s.Clone()
		clone.Overworld.Add(simstate.Actor{Name: "Obj_Banana", Value: 1})
		gdt.SetS32("rupees", 999)

		Expect(s.Overworld.Len()).To(Equal(1))
		Expect(clone.Overworld.Len()).To(Equal(2))

		saved, _ := clone.Load(simstate.ManualSaveName)
		v, _ := saved.(*proxy.Gdt).GetS32("rupees")
		Expect(v).To(Equal(int32(100)))
	})
})
