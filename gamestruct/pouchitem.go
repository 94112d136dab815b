package gamestruct

import (
	"encoding/binary"
	"math"

	"github.com/sarchlab/pouchvm/memory"
)

// ItemType mirrors the game's pouch item category enum, only as far as the
// simulator needs to distinguish categories for sort/resolve.
type ItemType int32

const (
	ItemSword ItemType = iota
	ItemBow
	ItemArrow
	ItemShield
	ItemArmor
	ItemMaterial
	ItemFood
	ItemKeyItem
)

// ItemUse is the PouchItem's "which tab" field.
type ItemUse int32

const (
	UseWeaponSmallSword ItemUse = iota
	UseWeaponLargeSword
	UseWeaponSpear
	UseWeaponBow
	UseWeaponShield
	UseArmor
	UseArmorUpper
	UseArmorLower
	UseMaterial
	UseFood
	UseKeyItem
)

// PouchItemSize is sizeof(PouchItem): the fixed fields spec.md §3/§9
// describe, padded to a round, 8-aligned size typical of the guest's struct
// layout.
const PouchItemSize = 128

// PouchItem is one node of the 420-slot cyclic doubly-linked pouch list
// (spec.md §9's "arena + indices" design: Prev/Next are slot indices, not
// pointers, so node relocation is an index swap).
type PouchItem struct {
	Name       SafeString
	Type       ItemType
	Use        ItemUse
	Value      int32
	Equipped   bool
	InInventory bool
	// WeaponModifier packs the guest's value/flags/sharpening-level modifier
	// fields; fully decomposing them is out of scope for the simulator's
	// observable pouch behavior.
	WeaponModifierValue int32
	WeaponModifierFlags uint32
	// CookEffectID/CookVitalBonus/CookLife cover the handful of cook-data
	// fields sort/view actually surface; the remainder of the guest's cook
	// struct is not modeled.
	CookEffectID   int32
	CookVitalBonus float32
	CookLife       float32
	Prev           int32
	Next           int32
}

type pouchItemCodec struct{}

var PouchItemCodec memory.Codec[PouchItem] = pouchItemCodec{}

func (pouchItemCodec) Size() uint64 { return PouchItemSize }

func (pouchItemCodec) Decode(b []byte) PouchItem {
	le := binary.LittleEndian
	return PouchItem{
		Name:                SafeStringCodec.Decode(b[0:16]),
		Type:                ItemType(le.Uint32(b[16:20])),
		Use:                 ItemUse(le.Uint32(b[20:24])),
		Value:               int32(le.Uint32(b[24:28])),
		Equipped:            b[28] != 0,
		InInventory:         b[29] != 0,
		WeaponModifierValue: int32(le.Uint32(b[32:36])),
		WeaponModifierFlags: le.Uint32(b[36:40]),
		CookEffectID:        int32(le.Uint32(b[40:44])),
		CookVitalBonus:      math.Float32frombits(le.Uint32(b[44:48])),
		CookLife:            math.Float32frombits(le.Uint32(b[48:52])),
		Prev:                int32(le.Uint32(b[52:56])),
		Next:                int32(le.Uint32(b[56:60])),
	}
}

func (pouchItemCodec) Encode(v PouchItem) []byte {
	b := make([]byte, PouchItemSize)
	le := binary.LittleEndian
	copy(b[0:16], SafeStringCodec.Encode(v.Name))
	le.PutUint32(b[16:20], uint32(v.Type))
	le.PutUint32(b[20:24], uint32(v.Use))
	le.PutUint32(b[24:28], uint32(v.Value))
	if v.Equipped {
		b[28] = 1
	}
	if v.InInventory {
		b[29] = 1
	}
	le.PutUint32(b[32:36], uint32(v.WeaponModifierValue))
	le.PutUint32(b[36:40], v.WeaponModifierFlags)
	le.PutUint32(b[40:44], uint32(v.CookEffectID))
	le.PutUint32(b[44:48], math.Float32bits(v.CookVitalBonus))
	le.PutUint32(b[48:52], math.Float32bits(v.CookLife))
	le.PutUint32(b[52:56], uint32(v.Prev))
	le.PutUint32(b[56:60], uint32(v.Next))
	return b
}

// ItemBufferSlots is the fixed arena size spec.md §3/§9 fixes: 420 nodes.
const ItemBufferSlots = 420

// NullSlot is the cyclic list's sentinel "no node" index (the list head/tail
// use -1, matching the game's convention for an empty terminator).
const NullSlot int32 = -1

// ItemBuffer is a typed view over the 420-slot PouchItem arena.
type ItemBuffer struct {
	Base uint64
}

// Slot returns a typed pointer to item buffer entry i.
func (ib ItemBuffer) Slot(i int) memory.Ptr[PouchItem] {
	return memory.NewPtr(ib.Base+uint64(i)*PouchItemSize, PouchItemCodec)
}
