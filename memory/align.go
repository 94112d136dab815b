package memory

// PageSize is the fixed size of a page, matching spec.md's 4096-byte pages.
const PageSize = 4096

// AlignDown rounds x down to the nearest multiple of a, which must be a
// power of two. Grounded on original_source's blueflame-deps/src/align.rs.
func AlignDown(x, a uint64) uint64 {
	return x &^ (a - 1)
}

// AlignUp rounds x up to the nearest multiple of a, which must be a power
// of two.
func AlignUp(x, a uint64) uint64 {
	return AlignDown(x+a-1, a)
}

// PageBase returns the page-aligned base address containing addr.
func PageBase(addr uint64) uint64 {
	return AlignDown(addr, PageSize)
}
