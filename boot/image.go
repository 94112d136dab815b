// Package boot loads the program image spec.md §6 describes (a gzipped
// binary record of segments, relocations, and singleton offsets), relocates
// it into a freshly built memory.Memory, and initializes the deterministic
// singleton layout.
//
// Grounded on core/program.go's LoadProgramFileFromYAML (read-file, decode,
// panic-wrap-errors shape), generalized from YAML program listings to the
// gzipped binary segment/relocation/singleton record spec.md §6 defines.
package boot

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sarchlab/pouchvm/env"
	"github.com/sarchlab/pouchvm/memory"
)

// SegmentKind tags a program-image segment.
type SegmentKind uint8

const (
	SegText SegmentKind = iota
	SegRodata
	SegData
)

func (k SegmentKind) perm() memory.Perm {
	switch k {
	case SegText:
		return memory.PermR | memory.PermX
	case SegRodata:
		return memory.PermR
	default:
		return memory.PermR | memory.PermW
	}
}

// Segment is one program-image segment record.
type Segment struct {
	Kind     SegmentKind
	FileOff  uint64
	LoadAddr uint64
	Size     uint64
	Bytes    []byte
}

// Relocation binds a GOT slot to an external symbol id. The loader only
// zero-fills the GOT slot; the symbol is resolved through the hook provider
// at call time.
type Relocation struct {
	GotSlotPhysAddr uint64
	ExternSymbolID  uint32
}

// SingletonRecord is the image's per-env-independent declaration; boot
// resolves MainOffset/HeapRelStart against env via SingletonTable, so the
// on-disk record here only names which singleton it is.
type SingletonRecord struct {
	Name string
}

// Image is the fully parsed program-image record of spec.md §6.
type Image struct {
	GameVersion env.Version
	Segments    []Segment
	Relocations []Relocation
	VTableRelocs []Relocation
	Singletons  []SingletonRecord
}

// magic tags the record so a truncated/corrupt stream fails fast instead of
// decoding garbage lengths.
const magic = uint32(0x706f7563) // "pouc"

// Decode reads a gzipped Image record. The wire format is a small
// zero-copy-ish binary layout (fixed-width fields then length-prefixed
// blobs), not a general-purpose container format: spec.md §6 requires only
// that the record be self-describing, and no third-party serialization
// library in the pack targets an ahead-of-time-known binary record shape
// this directly (see SPEC_FULL.md's dropped-dependency notes), so this is
// stdlib encoding/binary rather than an imported codec.
func Decode(r io.Reader) (*Image, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("boot: gzip: %w", err)
	}
	defer gz.Close()

	br := &byteReader{r: gz}
	if br.u32() != magic {
		return nil, fmt.Errorf("boot: bad image magic")
	}

	img := &Image{GameVersion: env.Version(br.u8())}

	nseg := br.u32()
	for i := uint32(0); i < nseg; i++ {
		seg := Segment{
			Kind:     SegmentKind(br.u8()),
			FileOff:  br.u64(),
			LoadAddr: br.u64(),
			Size:     br.u64(),
		}
		seg.Bytes = br.bytes(int(seg.Size))
		img.Segments = append(img.Segments, seg)
	}

	nreloc := br.u32()
	for i := uint32(0); i < nreloc; i++ {
		img.Relocations = append(img.Relocations, Relocation{
			GotSlotPhysAddr: br.u64(),
			ExternSymbolID:  br.u32(),
		})
	}

	nvtreloc := br.u32()
	for i := uint32(0); i < nvtreloc; i++ {
		img.VTableRelocs = append(img.VTableRelocs, Relocation{
			GotSlotPhysAddr: br.u64(),
			ExternSymbolID:  br.u32(),
		})
	}

	nsing := br.u32()
	for i := uint32(0); i < nsing; i++ {
		name := string(br.bytes(int(br.u32())))
		img.Singletons = append(img.Singletons, SingletonRecord{Name: name})
	}

	if br.err != nil {
		return nil, fmt.Errorf("boot: truncated image: %w", br.err)
	}
	return img, nil
}

type byteReader struct {
	r   io.Reader
	err error
}

func (b *byteReader) read(n int) []byte {
	if b.err != nil {
		return make([]byte, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		b.err = err
	}
	return buf
}

func (b *byteReader) u8() uint8   { return b.read(1)[0] }
func (b *byteReader) u32() uint32 { return binary.LittleEndian.Uint32(b.read(4)) }
func (b *byteReader) u64() uint64 { return binary.LittleEndian.Uint64(b.read(8)) }
func (b *byteReader) bytes(n int) []byte { return b.read(n) }

// Encode is the inverse of Decode, used by tests to build a synthetic image
// without depending on a real game dump.
func Encode(img *Image) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	w := &byteWriter{w: gz}
	w.u32(magic)
	w.u8(uint8(img.GameVersion))

	w.u32(uint32(len(img.Segments)))
	for _, s := range img.Segments {
		w.u8(uint8(s.Kind))
		w.u64(s.FileOff)
		w.u64(s.LoadAddr)
		w.u64(s.Size)
		w.raw(s.Bytes)
	}

	w.u32(uint32(len(img.Relocations)))
	for _, r := range img.Relocations {
		w.u64(r.GotSlotPhysAddr)
		w.u32(r.ExternSymbolID)
	}

	w.u32(uint32(len(img.VTableRelocs)))
	for _, r := range img.VTableRelocs {
		w.u64(r.GotSlotPhysAddr)
		w.u32(r.ExternSymbolID)
	}

	w.u32(uint32(len(img.Singletons)))
	for _, s := range img.Singletons {
		w.u32(uint32(len(s.Name)))
		w.raw([]byte(s.Name))
	}

	gz.Close()
	return buf.Bytes()
}

type byteWriter struct{ w io.Writer }

func (w *byteWriter) raw(b []byte) { w.w.Write(b) }
func (w *byteWriter) u8(v uint8)   { w.w.Write([]byte{v}) }
func (w *byteWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.w.Write(b[:])
}
func (w *byteWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.w.Write(b[:])
}
