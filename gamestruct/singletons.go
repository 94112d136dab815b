package gamestruct

import "github.com/sarchlab/pouchvm/memory"

// GdtManagerSize is sizeof(GdtManager). The real GDT flag container (the
// TriggerParam) is a proxy object outside guest memory per spec.md §7
// ("Proxies instead of FFI"); the guest-resident GdtManager singleton only
// keeps a pointer to it plus a couple of lifecycle flags.
const GdtManagerSize = 24

// GdtManager is the guest-resident half of the game-data-table singleton.
// ProxyHandle is an opaque id resolved through the host's proxy store, not
// a guest address.
type GdtManager struct {
	ProxyHandle uint64
	Initialized bool
}

type gdtManagerCodec struct{}

var GdtManagerCodec memory.Codec[GdtManager] = gdtManagerCodec{}

func (gdtManagerCodec) Size() uint64 { return GdtManagerSize }

func (gdtManagerCodec) Decode(b []byte) GdtManager {
	return GdtManager{
		ProxyHandle: leUint64(b[0:8]),
		Initialized: b[8] != 0,
	}
}

func (gdtManagerCodec) Encode(v GdtManager) []byte {
	b := make([]byte, GdtManagerSize)
	putLeUint64(b[0:8], v.ProxyHandle)
	if v.Initialized {
		b[8] = 1
	}
	return b
}

// AocManagerSize is sizeof(AocManager): the installed DLC version the
// simulator's `dlc` command reads/writes (spec.md §7 env.DLCVersion is an
// ordinary guest value carried here).
const AocManagerSize = 8

type AocManager struct {
	DLCVersion uint32
}

type aocManagerCodec struct{}

var AocManagerCodec memory.Codec[AocManager] = aocManagerCodec{}

func (aocManagerCodec) Size() uint64 { return AocManagerSize }

func (aocManagerCodec) Decode(b []byte) AocManager {
	return AocManager{DLCVersion: leUint32(b[0:4])}
}

func (aocManagerCodec) Encode(v AocManager) []byte {
	b := make([]byte, AocManagerSize)
	putLeUint32(b[0:4], v.DLCVersion)
	return b
}

// InfoDataSize is sizeof(InfoData): the handful of runtime info fields
// view/dispatch consult (current stage id, play-time counters). The
// simulator only ever surfaces the stage id, so that's all that's modeled.
const InfoDataSize = 8

type InfoData struct {
	StageID uint32
}

type infoDataCodec struct{}

var InfoDataCodec memory.Codec[InfoData] = infoDataCodec{}

func (infoDataCodec) Size() uint64 { return InfoDataSize }

func (infoDataCodec) Decode(b []byte) InfoData {
	return InfoData{StageID: leUint32(b[0:4])}
}

func (infoDataCodec) Encode(v InfoData) []byte {
	b := make([]byte, InfoDataSize)
	putLeUint32(b[0:4], v.StageID)
	return b
}
