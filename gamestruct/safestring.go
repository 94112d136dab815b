// Package gamestruct fixes the per-field byte layout of the guest structs
// spec.md §3/§9 names (PouchItem, PauseMenuDataMgr, GdtManager, AocManager,
// InfoData, SafeString), each as a memory.Codec[T] so the rest of the
// simulator can load/store them through memory.Ptr[T] without touching raw
// offsets directly.
//
// Grounded on operand-impl/register.go's typed Retrieve/Push split (one
// accessor shape per field type) and cgra/data.go's constructor-with-With*
// pattern, adapted here to fixed-offset struct codecs.
package gamestruct

import (
	"encoding/binary"

	"github.com/sarchlab/pouchvm/memory"
)

// SafeStringSize is sizeof(SafeString) per spec.md §4.2: a vtable pointer
// plus a pointer to the first character of the backing buffer.
const SafeStringSize = 16

// maxCStringLen bounds the NUL-seeking read so a corrupted guest string
// cannot hang the view extractor.
const maxCStringLen = 256

// SafeString models `{vtable: u64, str_top: Ptr<u8>}`.
type SafeString struct {
	VTable uint64
	StrTop uint64
}

type safeStringCodec struct{}

// SafeStringCodec is the memory.Codec for SafeString.
var SafeStringCodec memory.Codec[SafeString] = safeStringCodec{}

func (safeStringCodec) Size() uint64 { return SafeStringSize }

func (safeStringCodec) Decode(b []byte) SafeString {
	return SafeString{
		VTable: binary.LittleEndian.Uint64(b[0:8]),
		StrTop: binary.LittleEndian.Uint64(b[8:16]),
	}
}

func (safeStringCodec) Encode(v SafeString) []byte {
	b := make([]byte, SafeStringSize)
	binary.LittleEndian.PutUint64(b[0:8], v.VTable)
	binary.LittleEndian.PutUint64(b[8:16], v.StrTop)
	return b
}

// ReadCString follows a SafeString's str_top until a NUL byte or
// maxCStringLen, whichever comes first.
func ReadCString(m *memory.Memory, s SafeString, allow memory.RegionSet) (string, error) {
	if s.StrTop == 0 {
		return "", nil
	}
	var buf []byte
	for i := 0; i < maxCStringLen; i++ {
		b, err := m.ReadByte(s.StrTop+uint64(i), allow)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}
