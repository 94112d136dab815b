package gamestruct

import "github.com/sarchlab/pouchvm/memory"

// GrabbedItemSlots is the number of "currently grabbed" item slots pmdm
// keeps (spec.md §8 scenario 7 only ever exercises index 0, but the guest
// struct reserves a short fixed array).
const GrabbedItemSlots = 5

// GrabbedItemSize is sizeof(GrabbedItem): a pointer to the held PouchItem
// plus a secondary value (stack count for a partial hold), matching
// scenario 7's `mItem`/`mValue` fields.
const GrabbedItemSize = 16

// GrabbedItem is one of pmdm's "currently held in hand" slots.
type GrabbedItem struct {
	MItem  uint64 // absolute address of the held PouchItem, 0 if empty
	MValue int32
}

type grabbedItemCodec struct{}

var GrabbedItemCodec memory.Codec[GrabbedItem] = grabbedItemCodec{}

func (grabbedItemCodec) Size() uint64 { return GrabbedItemSize }

func (grabbedItemCodec) Decode(b []byte) GrabbedItem {
	return GrabbedItem{
		MItem:  leUint64(b[0:8]),
		MValue: int32(leUint32(b[8:12])),
	}
}

func (grabbedItemCodec) Encode(v GrabbedItem) []byte {
	b := make([]byte, GrabbedItemSize)
	putLeUint64(b[0:8], v.MItem)
	putLeUint32(b[8:12], uint32(v.MValue))
	return b
}

// PMDMLayout is the fixed field-offset map for PauseMenuDataMgr: the pouch
// singleton. Offsets are relative to the singleton's instance address
// (heap_start + heap_rel_start, per boot.SingletonInfo).
//
// This is intentionally NOT a plain struct+codec like PouchItem: pmdm's
// item buffer and lists are addressed relative to the instance, not
// embedded by value, so callers read/write individual fields through the
// offsets below rather than round-tripping the whole record.
type PMDMLayout struct {
	Instance uint64
}

const (
	pmdmItemBufferOffset = 0x20
	// pmdmList1Offset and onward sit right after the 420-slot item buffer
	// (itemBufferOffset + ItemBufferSlots*PouchItemSize).
	pmdmList1Offset        = pmdmItemBufferOffset + ItemBufferSlots*PouchItemSize
	pmdmList2Offset        = pmdmList1Offset + ItemListSize
	pmdmGrabbedItemsOffset = pmdmList2Offset + ItemListSize
)

// ItemBuffer returns the typed view over this pmdm's 420-slot arena.
func (p PMDMLayout) ItemBuffer() ItemBuffer {
	return ItemBuffer{Base: p.Instance + pmdmItemBufferOffset}
}

// List1 is pmdm's primary pouch list (every owned item).
func (p PMDMLayout) List1() memory.Ptr[ItemList] {
	return memory.NewPtr(p.Instance+pmdmList1Offset, ItemListCodec)
}

// List2 is pmdm's secondary list (equipped/held subset).
func (p PMDMLayout) List2() memory.Ptr[ItemList] {
	return memory.NewPtr(p.Instance+pmdmList2Offset, ItemListCodec)
}

// GrabbedItem returns a typed pointer to grabbed_items[i].
func (p PMDMLayout) GrabbedItem(i int) memory.Ptr[GrabbedItem] {
	return memory.NewPtr(p.Instance+pmdmGrabbedItemsOffset+uint64(i)*GrabbedItemSize, GrabbedItemCodec)
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func putLeUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v)
		v >>= 8
	}
}
