package gamestruct

import "github.com/sarchlab/pouchvm/memory"

// ItemList is the guest's intrusive doubly-linked list header over the
// shared ItemBuffer arena: a count plus head/tail slot indices. PMDM keeps
// two of these (mList1 for the "all items" list, mList2 for equipped/held
// items), per spec.md §9.
const ItemListSize = 12

type ItemList struct {
	Count int32
	Head  int32
	Tail  int32
}

type itemListCodec struct{}

var ItemListCodec memory.Codec[ItemList] = itemListCodec{}

func (itemListCodec) Size() uint64 { return ItemListSize }

func (itemListCodec) Decode(b []byte) ItemList {
	return ItemList{
		Count: int32(leUint32(b[0:4])),
		Head:  int32(leUint32(b[4:8])),
		Tail:  int32(leUint32(b[8:12])),
	}
}

func (itemListCodec) Encode(v ItemList) []byte {
	b := make([]byte, ItemListSize)
	putLeUint32(b[0:4], uint32(v.Count))
	putLeUint32(b[4:8], uint32(v.Head))
	putLeUint32(b[8:12], uint32(v.Tail))
	return b
}

// Items walks the list front to back, returning the slot indices in order.
// A corrupt list (cycle not closing within ItemBufferSlots steps) stops
// early rather than looping forever.
func (l ItemList) Items(m *memory.Memory, buf ItemBuffer, allow memory.RegionSet) ([]int32, error) {
	if l.Count == 0 || l.Head == NullSlot {
		return nil, nil
	}
	out := make([]int32, 0, l.Count)
	cur := l.Head
	for i := int32(0); i < l.Count && i < ItemBufferSlots; i++ {
		out = append(out, cur)
		item, err := buf.Slot(int(cur)).Load(m, allow)
		if err != nil {
			return nil, err
		}
		cur = item.Next
		if cur == NullSlot {
			break
		}
	}
	return out, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLeUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
