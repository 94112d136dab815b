package memory

import "sync/atomic"

// Perm is a page access-permission bitmask.
type Perm uint8

const (
	PermR Perm = 1 << iota
	PermW
	PermX
)

func (p Perm) Has(want Perm) bool { return p&want == want }

// page is the backing store for one PageSize-byte page, reference-counted
// so that regions can logically share immutable pages and copy-on-write
// when one of them mutates. Grounded on spec.md §3's Page invariants; the
// refcount+clone shape is stdlib-only (see DESIGN.md: no COW library exists
// in the pack, and a slice clone is the idiomatic Go equivalent).
type page struct {
	rc    *int32
	perm  Perm
	bytes *[PageSize]byte
}

func newPage(perm Perm) *page {
	rc := int32(1)
	var b [PageSize]byte
	return &page{rc: &rc, perm: perm, bytes: &b}
}

// clone returns an independent page carrying the same bytes/perm, with its
// own fresh refcount of 1.
func (p *page) clone() *page {
	rc := int32(1)
	b := *p.bytes
	return &page{rc: &rc, perm: p.perm, bytes: &b}
}

func (p *page) shared() bool { return atomic.LoadInt32(p.rc) > 1 }

func (p *page) retain() *page {
	atomic.AddInt32(p.rc, 1)
	return p
}

func (p *page) release() {
	atomic.AddInt32(p.rc, -1)
}
