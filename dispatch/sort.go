package dispatch

import "github.com/sarchlab/pouchvm/gamestruct"

// sortLess orders two items the way the game's in-place category sort
// does: descending value, then (for a stable tie-break) the lower arena
// slot index first, so repeated sorts of already-sorted input are no-ops.
func sortLess(a, b gamestruct.PouchItem, aSlot, bSlot int32) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return aSlot < bSlot
}

// maxInaccuratePasses caps the bubble-sort pass count when `accurate` is
// false, matching the game's own imperfect sort: it always runs a fixed
// small number of passes regardless of how many are actually needed to
// finish, so an unlucky ordering can survive partially sorted.
func maxInaccuratePasses(n int) int {
	if n%2 == 0 {
		return 4
	}
	return 5
}

// SortItems implements spec.md §4.6's sort_items: a stable, capped
// bubble-sort-style pass over the items in `category` within list1,
// relinking list1 to reflect the new order (list2 is not changed). `times` further caps the
// pass count (the smaller of `times` and the accuracy-derived cap applies).
func (r *PouchRuntime) SortItems(category gamestruct.ItemType, times int, accurate bool) error {
	all, err := r.Items()
	if err != nil {
		return err
	}

	var slots []int32
	var items []gamestruct.PouchItem
	for _, slot := range all {
		item, err := r.ItemAt(slot)
		if err != nil {
			return err
		}
		if item.Type != category {
			continue
		}
		slots = append(slots, slot)
		items = append(items, item)
	}
	if len(slots) < 2 {
		return nil
	}

	// accurate requests the mathematically correct stable sort: run enough
	// passes to fully converge (bubble sort needs at most len(slots)-1).
	// !accurate instead mimics the game's own imprecise sort, which always
	// runs a small fixed number of passes regardless of how many a full
	// sort would need.
	passes := times
	if accurate {
		if passes <= 0 {
			passes = len(slots)
		}
	} else {
		capPasses := maxInaccuratePasses(len(slots))
		if passes <= 0 || passes > capPasses {
			passes = capPasses
		}
	}

	for pass := 0; pass < passes; pass++ {
		swapped := false
		for i := 0; i+1 < len(slots); i++ {
			if sortLess(items[i+1], items[i], slots[i+1], slots[i]) {
				items[i], items[i+1] = items[i+1], items[i]
				slots[i], slots[i+1] = slots[i+1], slots[i]
				swapped = true
			}
		}
		if !swapped {
			break
		}
	}

	return r.relinkCategoryOrder(category, slots)
}

// relinkCategoryOrder rewrites list1's Prev/Next chain so that the members
// of `category` appear in `order`, leaving every other item's relative
// position untouched.
func (r *PouchRuntime) relinkCategoryOrder(category gamestruct.ItemType, order []int32) error {
	all, err := r.Items()
	if err != nil {
		return err
	}

	replacement := make([]int32, 0, len(all))
	next := 0
	for _, slot := range all {
		item, err := r.ItemAt(slot)
		if err != nil {
			return err
		}
		if item.Type == category {
			replacement = append(replacement, order[next])
			next++
			continue
		}
		replacement = append(replacement, slot)
	}

	buf := r.PMDM.ItemBuffer()
	for i, slot := range replacement {
		item, err := buf.Slot(int(slot)).Load(r.Mem, r.Allow)
		if err != nil {
			return err
		}
		if i == 0 {
			item.Prev = gamestruct.NullSlot
		} else {
			item.Prev = replacement[i-1]
		}
		if i == len(replacement)-1 {
			item.Next = gamestruct.NullSlot
		} else {
			item.Next = replacement[i+1]
		}
		if err := buf.Slot(int(slot)).Store(r.Mem, item, r.Allow); err != nil {
			return err
		}
	}

	list, err := r.PMDM.List1().Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	if len(replacement) > 0 {
		list.Head = replacement[0]
		list.Tail = replacement[len(replacement)-1]
	}
	return r.PMDM.List1().Store(r.Mem, list, r.Allow)
}
