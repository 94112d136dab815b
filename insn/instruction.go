// Package insn decodes and executes the subset of the AArch64 instruction
// set reached by the targeted game routines (spec.md §4.4). Each decoded
// opcode produces an Instruction describing a single Exec operation against
// a Cpu0 and a Memory.
//
// Grounded on core/emu.go's instEmulator (switch-per-opcode Execute style)
// and core/core.go's older string-tokenized decode, per spec.md's own
// "processor/processor_old" open question the newer per-opcode-object style
// is treated as authoritative here.
package insn

import "github.com/sarchlab/pouchvm/cpu"

// Mnemonic names a supported opcode.
type Mnemonic string

const (
	MOV   Mnemonic = "mov"
	MOVZ  Mnemonic = "movz"
	MOVN  Mnemonic = "movn"
	MOVK  Mnemonic = "movk"
	ADD   Mnemonic = "add"
	ADDS  Mnemonic = "adds"
	SUB   Mnemonic = "sub"
	SUBS  Mnemonic = "subs"
	CMN   Mnemonic = "cmn"
	CMP   Mnemonic = "cmp"
	NEG   Mnemonic = "neg"
	AND   Mnemonic = "and"
	ANDS  Mnemonic = "ands"
	ORR   Mnemonic = "orr"
	ORN   Mnemonic = "orn"
	EOR   Mnemonic = "eor"
	BIC   Mnemonic = "bic"
	MVN   Mnemonic = "mvn"
	LSL   Mnemonic = "lsl"
	LSLV  Mnemonic = "lslv"
	LSR   Mnemonic = "lsr"
	LSRV  Mnemonic = "lsrv"
	ASR   Mnemonic = "asr"
	ASRV  Mnemonic = "asrv"
	UBFM  Mnemonic = "ubfm"
	SBFM  Mnemonic = "sbfm"
	BFM   Mnemonic = "bfm"
	BFXIL Mnemonic = "bfxil"
	SBFIZ Mnemonic = "sbfiz"
	SXTW  Mnemonic = "sxtw"
	MADD  Mnemonic = "madd"
	MSUB  Mnemonic = "msub"
	MUL   Mnemonic = "mul"
	SMADDL Mnemonic = "smaddl"
	SMULL Mnemonic = "smull"

	B     Mnemonic = "b"
	BL    Mnemonic = "bl"
	BR    Mnemonic = "br"
	BLR   Mnemonic = "blr"
	RET   Mnemonic = "ret"
	CBZ   Mnemonic = "cbz"
	CBNZ  Mnemonic = "cbnz"
	TBZ   Mnemonic = "tbz"
	TBNZ  Mnemonic = "tbnz"
	BCOND Mnemonic = "b.cond"

	LDR   Mnemonic = "ldr"
	LDP   Mnemonic = "ldp"
	LDRB  Mnemonic = "ldrb"
	LDRH  Mnemonic = "ldrh"
	LDRSW Mnemonic = "ldrsw"
	LDUR  Mnemonic = "ldur"
	LDURB Mnemonic = "ldurb"
	LDARB Mnemonic = "ldarb"
	STR   Mnemonic = "str"
	STP   Mnemonic = "stp"
	STRB  Mnemonic = "strb"
	STRH  Mnemonic = "strh"
	STUR  Mnemonic = "stur"
	STURB Mnemonic = "sturb"
	STURH Mnemonic = "sturh"
	ADRP  Mnemonic = "adrp"

	FMOV  Mnemonic = "fmov"
	FADD  Mnemonic = "fadd"
	FSUB  Mnemonic = "fsub"
	FMUL  Mnemonic = "fmul"
	FDIV  Mnemonic = "fdiv"
	FCMP  Mnemonic = "fcmp"
	FCVTZS Mnemonic = "fcvtzs"
	SCVTF Mnemonic = "scvtf"

	CSEL  Mnemonic = "csel"
	CSET  Mnemonic = "cset"
	CSINC Mnemonic = "csinc"
	CSINV Mnemonic = "csinv"
	CSNEG Mnemonic = "csneg"
	CINC  Mnemonic = "cinc"
)

// ShiftKind is the shift applied to a shifted-register operand.
type ShiftKind int

const (
	ShiftNone ShiftKind = iota
	ShiftLSL
	ShiftLSR
	ShiftASR
)

// Instruction is the decoded, architecture-neutral IR for one opcode: which
// registers/immediates/conditions it references. Exec interprets this
// directly; Decode produces it from a raw 32-bit AArch64 word.
type Instruction struct {
	Mnemonic Mnemonic
	Is64     bool // operating on the X/D/64-bit form rather than W/S/32-bit

	Rd, Rn, Rm, Ra int // register indices; -1 when unused
	RdReg          func(n int) cpu.Reg
	RnReg          func(n int) cpu.Reg
	RmReg          func(n int) cpu.Reg
	RaReg          func(n int) cpu.Reg

	Imm   int64
	LSB   uint // bitfield ops
	Width uint // bitfield ops

	Shift  ShiftKind
	Amount uint

	Cond cpu.Cond

	// SetFlags is true for the S-suffixed data-processing variants.
	SetFlags bool
}

// regFns returns a pair of integer register constructors matching Is64:
// (X, X) for the 64-bit form, (W, W) otherwise. FP registers are not covered.
func regFns(is64 bool) (func(int) cpu.Reg, func(int) cpu.Reg) {
	if is64 {
		return cpu.X, cpu.X
	}
	return cpu.W, cpu.W
}
