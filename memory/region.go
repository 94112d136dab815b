package memory

// RegionKind tags the purpose of a Region, matching spec.md §3.
type RegionKind int

const (
	RegionProgram RegionKind = iota
	RegionStack
	RegionHeap
)

func (k RegionKind) String() string {
	switch k {
	case RegionProgram:
		return "program"
	case RegionStack:
		return "stack"
	case RegionHeap:
		return "heap"
	default:
		return "region(?)"
	}
}

// Region is an address-contiguous, page-aligned range of guest memory.
// Regions never overlap (spec.md §3 invariant iii).
type Region struct {
	Kind     RegionKind
	Start    uint64
	Capacity uint64
	DefPerm  Perm
	pages    []*page // indexed by (addr-Start)/PageSize
}

func newRegion(kind RegionKind, start, capacity uint64, perm Perm) *Region {
	if start != AlignDown(start, PageSize) {
		panic("memory: region start must be page-aligned")
	}
	n := int(AlignUp(capacity, PageSize) / PageSize)
	r := &Region{Kind: kind, Start: start, Capacity: capacity, DefPerm: perm}
	r.pages = make([]*page, n)
	for i := range r.pages {
		r.pages[i] = newPage(perm)
	}
	return r
}

func (r *Region) contains(addr uint64) bool {
	return addr >= r.Start && addr < r.Start+r.Capacity
}

func (r *Region) pageIndex(addr uint64) int {
	return int((addr - r.Start) / PageSize)
}

func (r *Region) pageAt(addr uint64) *page {
	return r.pages[r.pageIndex(addr)]
}

// writePage returns a page at addr safe to mutate in place, cloning first
// if the page is currently shared (rc>1). Grounded on spec.md §4.1's
// `write_page` copy-on-write operation.
func (r *Region) writePage(addr uint64) *page {
	idx := r.pageIndex(addr)
	p := r.pages[idx]
	if p.shared() {
		p.release()
		clone := p.clone()
		r.pages[idx] = clone
		return clone
	}
	return p
}

// clone produces an independent Region sharing all of its pages by
// reference count: it copies no page bytes, but retains each page once, so
// it is O(page count).
func (r *Region) clone() *Region {
	out := &Region{Kind: r.Kind, Start: r.Start, Capacity: r.Capacity, DefPerm: r.DefPerm}
	out.pages = make([]*page, len(r.pages))
	for i, p := range r.pages {
		out.pages[i] = p.retain()
	}
	return out
}

func (r *Region) release() {
	for _, p := range r.pages {
		p.release()
	}
}
