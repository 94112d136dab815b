package history_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/history"
	"github.com/sarchlab/pouchvm/view"
)

var _ = Describe("Recorder", func() {
	It("appends steps in order and indexes them correctly", func() {
		r := history.NewRecorder(nil)
		r.Record("get apple", view.PouchList{}, view.OverworldView{}, "", nil)
		r.Record("drop apple", view.PouchList{}, view.OverworldView{}, "", nil)

		Expect(r.Len()).To(Equal(2))
		first, err := r.At(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Command).To(Equal("get apple"))
		Expect(first.Index).To(Equal(0))

		second, err := r.At(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Index).To(Equal(1))
	})

	It("records a warning and an error on the step", func() {
		r := history.NewRecorder(nil)
		r.Record("sell 5 apple", view.PouchList{}, view.OverworldView{}, "only 2 available", errors.New("boom"))
		s, ok := r.Last()
		Expect(ok).To(BeTrue())
		Expect(s.Warning).To(Equal("only 2 available"))
		Expect(s.Err).To(Equal("boom"))
	})

	It("errors on an out-of-range index", func() {
		r := history.NewRecorder(nil)
		_, err := r.At(0)
		Expect(err).To(HaveOccurred())
	})

	It("returns a defensive copy from All", func() {
		r := history.NewRecorder(nil)
		r.Record("get apple", view.PouchList{}, view.OverworldView{}, "", nil)
		all := r.All()
		all[0].Command = "tampered"

		first, err := r.At(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Command).To(Equal("get apple"))
	})
})

var _ = Describe("Diff", func() {
	It("reports added and removed slots between two pouch snapshots", func() {
		before := view.PouchList{Items: []view.ItemView{{Slot: 419, Name: "Item_Fruit_A"}}}
		after := view.PouchList{Items: []view.ItemView{{Slot: 418, Name: "Item_Fruit_B"}}}

		added, removed := history.Diff(before, after)
		Expect(added).To(Equal([]int32{418}))
		Expect(removed).To(Equal([]int32{419}))
	})

	It("reports no diff for identical snapshots", func() {
		list := view.PouchList{Items: []view.ItemView{{Slot: 419, Name: "Item_Fruit_A"}}}
		added, removed := history.Diff(list, list)
		Expect(added).To(BeEmpty())
		Expect(removed).To(BeEmpty())
	})
})
