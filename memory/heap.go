package memory

// Heap is the bump allocator ("SimpleHeap" in spec.md §3) backing the heap
// Region. It never reclaims within a run: singleton objects keep stable
// offsets relative to heap start regardless of where the heap itself is
// placed in the address space.
type Heap struct {
	region *Region
	next   uint64 // offset from region.Start
}

func newHeap(r *Region) *Heap {
	return &Heap{region: r, next: 0}
}

// Alloc aligns the bump pointer up to 8 bytes and reserves size bytes,
// returning the absolute address. Fails OutOfMemory if the allocation would
// exceed the region's capacity (spec.md invariant i: end <= heap.start +
// heap.capacity).
func (h *Heap) Alloc(size uint64) (uint64, error) {
	start := AlignUp(h.next, 8)
	end := start + size
	if end > h.region.Capacity {
		return 0, newErr(OutOfMemory, h.region.Start+start, int(size))
	}
	h.next = end
	return h.region.Start + start, nil
}

// AllocAt forces the next allocation of the given size to land at a fixed
// address relative to the region start, without disturbing prior
// allocations. Used by vm's v_execute_until_then_single_alloc_skip_one to
// pin a singleton at a deterministic offset.
func (h *Heap) AllocAt(relStart, size uint64) (uint64, error) {
	end := relStart + size
	if end > h.region.Capacity {
		return 0, newErr(OutOfMemory, h.region.Start+relStart, int(size))
	}
	if end > h.next {
		h.next = end
	}
	return h.region.Start + relStart, nil
}

// IsAllocated reports whether addr falls below the bump pointer.
func (h *Heap) IsAllocated(addr uint64) bool {
	if addr < h.region.Start {
		return false
	}
	return addr-h.region.Start < h.next
}

// Next returns the current bump-pointer offset from the heap region start.
func (h *Heap) Next() uint64 { return h.next }

// RegionStart returns the heap region's absolute base address.
func (h *Heap) RegionStart() uint64 { return h.region.Start }
