package memory

import "encoding/binary"

// RegionSet is an allow-set of region kinds, used to enforce
// `mem-strict-region`. A zero value allows nothing; callers that don't care
// should pass AnyRegion.
type RegionSet uint8

const AnyRegion RegionSet = 1<<RegionProgram | 1<<RegionStack | 1<<RegionHeap

func NewRegionSet(kinds ...RegionKind) RegionSet {
	var s RegionSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

func (s RegionSet) allows(k RegionKind) bool {
	return s&(1<<uint(k)) != 0
}

// Config toggles the subset of env.FeatureSet that memory enforcement
// cares about, decoupling this package from env's import (memory is a
// lower-level package than env in the dependency graph used by vm/boot).
type Config struct {
	StrictRegion       bool
	Permission         bool
	HeapCheckAllocated bool
}

// Memory is the tuple (program, stack, heap, config) from spec.md §3. The
// proxy table and env tag are not part of Memory; they are held outside
// this package.
type Memory struct {
	Program *Region
	Stack   *Region
	heap    *Heap
	cfg     Config
}

// New lays out the three regions per the addresses spec.md §6 accepts as
// init parameters. programStart must be page-aligned; the program region
// begins at programStart+0x4000 per spec.md §3.
func New(programStart, stackStart uint64, stackSize uint32, heapStart uint64, heapCapacity uint64, cfg Config) *Memory {
	progBase := AlignUp(programStart+0x4000, PageSize)
	// The program region starts empty; boot.Load grows it segment by
	// segment via AddSegment as the image is relocated.
	prog := newRegion(RegionProgram, progBase, 0, PermR|PermW)

	stack := newRegion(RegionStack, AlignDown(stackStart, PageSize), AlignUp(uint64(stackSize), PageSize), PermR|PermW)
	heapRegion := newRegion(RegionHeap, AlignDown(heapStart, PageSize), AlignUp(heapCapacity, PageSize), PermR|PermW)

	return &Memory{
		Program: prog,
		Stack:   stack,
		heap:    newHeap(heapRegion),
		cfg:     cfg,
	}
}

// Heap exposes the bump allocator for the heap region.
func (m *Memory) Heap() *Heap { return m.heap }

func (m *Memory) HeapRegion() *Region { return m.heap.region }

// findRegion returns the region claiming addr, or nil.
func (m *Memory) findRegion(addr uint64) *Region {
	for _, r := range []*Region{m.Program, m.Stack, m.heap.region} {
		if r != nil && r.Capacity > 0 && r.contains(addr) {
			return r
		}
	}
	return nil
}

func (m *Memory) checkAccess(r *Region, addr uint64, size int, op Perm, allow RegionSet) error {
	if allow != 0 && m.cfg.StrictRegion && !allow.allows(r.Kind) {
		return newErr(DisallowedRegion, addr, size)
	}
	if PageBase(addr) != PageBase(addr+uint64(size)-1) {
		return newErr(PageBoundary, addr, size)
	}
	if r.Kind == RegionHeap && m.cfg.HeapCheckAllocated && !m.heap.IsAllocated(addr) {
		return newErr(Unallocated, addr, size)
	}
	if m.cfg.Permission {
		p := r.pageAt(addr)
		if !p.perm.Has(op) {
			return newErr(PermissionDenied, addr, size)
		}
	}
	return nil
}

// Read performs a sized load, honoring mem-strict-region via allow and
// mem-permission per cfg.
func (m *Memory) Read(addr uint64, size int, allow RegionSet) ([]byte, error) {
	r := m.findRegion(addr)
	if r == nil {
		return nil, newErr(InvalidRegion, addr, size)
	}
	if err := m.checkAccess(r, addr, size, PermR, allow); err != nil {
		return nil, err
	}
	p := r.pageAt(addr)
	off := addr - PageBase(addr)
	out := make([]byte, size)
	copy(out, p.bytes[off:off+uint64(size)])
	return out, nil
}

// Write performs a sized store, copy-on-writing the target page if it is
// shared with another Region clone.
func (m *Memory) Write(addr uint64, data []byte, allow RegionSet) error {
	size := len(data)
	r := m.findRegion(addr)
	if r == nil {
		return newErr(InvalidRegion, addr, size)
	}
	if err := m.checkAccess(r, addr, size, PermW, allow); err != nil {
		return err
	}
	p := r.writePage(addr)
	off := addr - PageBase(addr)
	copy(p.bytes[off:off+uint64(size)], data)
	return nil
}

// LoadBytes writes data to addr bypassing the permission check (but not the
// region/page-boundary checks): boot uses this to place program-image bytes
// into pages whose final permission (e.g. text's R|X) would otherwise
// reject the write that creates them.
func (m *Memory) LoadBytes(addr uint64, data []byte) error {
	size := len(data)
	r := m.findRegion(addr)
	if r == nil {
		return newErr(InvalidRegion, addr, size)
	}
	if PageBase(addr) != PageBase(addr+uint64(size)-1) {
		return newErr(PageBoundary, addr, size)
	}
	p := r.writePage(addr)
	off := addr - PageBase(addr)
	copy(p.bytes[off:off+uint64(size)], data)
	return nil
}

// ReadUint64 / WriteUint64 are convenience wrappers used throughout insn
// and gamestruct for little-endian field access (AArch64 is LE in this
// emulator, matching spec.md's typed-pointer load/store semantics).
func (m *Memory) ReadUint64(addr uint64, allow RegionSet) (uint64, error) {
	b, err := m.Read(addr, 8, allow)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Memory) WriteUint64(addr uint64, v uint64, allow RegionSet) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return m.Write(addr, b[:], allow)
}

func (m *Memory) ReadUint32(addr uint64, allow RegionSet) (uint32, error) {
	b, err := m.Read(addr, 4, allow)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Memory) WriteUint32(addr uint64, v uint32, allow RegionSet) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return m.Write(addr, b[:], allow)
}

func (m *Memory) ReadUint16(addr uint64, allow RegionSet) (uint16, error) {
	b, err := m.Read(addr, 2, allow)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *Memory) WriteUint16(addr uint64, v uint16, allow RegionSet) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return m.Write(addr, b[:], allow)
}

func (m *Memory) ReadByte(addr uint64, allow RegionSet) (byte, error) {
	b, err := m.Read(addr, 1, allow)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Memory) WriteByte(addr uint64, v byte, allow RegionSet) error {
	return m.Write(addr, []byte{v}, allow)
}

// Clone produces an independent Memory snapshot, sharing pages by
// reference count until one of the copies mutates them. No page bytes are
// copied, but every page's reference count is incremented, so the cost
// grows with the number of pages, not only with the number of regions.
func (m *Memory) Clone() *Memory {
	return &Memory{
		Program: m.Program.clone(),
		Stack:   m.Stack.clone(),
		heap:    &Heap{region: m.heap.region.clone(), next: m.heap.next},
		cfg:     m.cfg,
	}
}

// AddSegment grows the program region to cover a freshly relocated segment,
// used by boot while loading the program image. Segments must be appended
// in increasing address order (the loader guarantees this).
func (m *Memory) AddSegment(perm Perm, size uint64) {
	n := int(AlignUp(size, PageSize) / PageSize)
	for i := 0; i < n; i++ {
		m.Program.pages = append(m.Program.pages, newPage(perm))
	}
	m.Program.Capacity += uint64(n) * PageSize
}
