package resolver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/resolver"
)

var _ = Describe("Table.Resolve", func() {
	entries := []resolver.Entry{
		{ID: "apple", Actor: "Item_Fruit_A", Kind: resolver.KindOther},
		{ID: "wood", Actor: "Item_Wood", Kind: resolver.KindMaterial},
	}

	It("resolves an exact kebab-case identifier", func() {
		t := resolver.NewTable(entries, nil)
		res, err := t.Resolve("apple")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Actor).To(Equal("Item_Fruit_A"))
	})

	It("resolves via the alias table before falling back to entries", func() {
		t := resolver.NewTable(entries, resolver.DefaultAliases)
		res, err := t.Resolve("korok-seed")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Actor).To(Equal("Obj_KorokNuts"))
	})

	It("is case- and whitespace-insensitive", func() {
		t := resolver.NewTable(entries, nil)
		res, err := t.Resolve("  APPLE ")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Actor).To(Equal("Item_Fruit_A"))
	})

	It("errors when no entry matches", func() {
		t := resolver.NewTable(entries, nil)
		_, err := t.Resolve("nonexistent")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Table.ResolveFuzzy priority ordering", func() {
	It("prefers material over other when no identifier overlaps the search term", func() {
		entries := []resolver.Entry{
			{ID: "generic-item", Actor: "Item_Generic", Kind: resolver.KindOther},
			{ID: "stone", Actor: "Item_Stone", Kind: resolver.KindMaterial},
		}
		t := resolver.NewTable(entries, nil)
		res, err := t.ResolveFuzzy("zzz")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Actor).To(Equal("Item_Stone"))
	})

	It("breaks a priority tie by longest common substring with the search term", func() {
		entries := []resolver.Entry{
			{ID: "arrow-fire", Actor: "NormalArrow_Fire", Kind: resolver.KindArrow},
			{ID: "arrow-ice", Actor: "NormalArrow_Ice", Kind: resolver.KindArrow},
		}
		t := resolver.NewTable(entries, nil)
		res, err := t.ResolveFuzzy("arrow-ice")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Actor).To(Equal("NormalArrow_Ice"))
	})

	It("breaks a substring tie by shorter identifier", func() {
		entries := []resolver.Entry{
			{ID: "arrow-fire", Actor: "NormalArrow_Fire", Kind: resolver.KindArrow},
			{ID: "arrow-ice", Actor: "NormalArrow_Ice", Kind: resolver.KindArrow},
		}
		t := resolver.NewTable(entries, nil)
		res, err := t.ResolveFuzzy("arrow")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Actor).To(Equal("NormalArrow_Ice"))
	})

	It("breaks a remaining tie lexicographically", func() {
		entries := []resolver.Entry{
			{ID: "arrow-axe", Actor: "NormalArrow_Axe", Kind: resolver.KindArrow},
			{ID: "arrow-ice", Actor: "NormalArrow_Ice", Kind: resolver.KindArrow},
		}
		t := resolver.NewTable(entries, nil)
		res, err := t.ResolveFuzzy("zzzzzzzzz")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Actor).To(Equal("NormalArrow_Axe"))
	})

	It("errors on an empty table", func() {
		t := resolver.NewTable(nil, nil)
		_, err := t.ResolveFuzzy("anything")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("TitleCase", func() {
	It("title-cases a string the way core/emu.go's helper does", func() {
		Expect(resolver.TitleCase("SOUTH")).To(Equal("South"))
	})
})
