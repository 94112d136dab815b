// Package cpu models the AArch64 register/flag file (Cpu0 in spec.md §3/§4.3):
// 31 general-purpose 64-bit integer registers (X0..X30, LR=X30), the zero
// registers XZR/WZR, 32 128-bit float/vector registers exposed at S/D/Q
// widths, four SP variants, ELR/SPSR, FPSCR, the program counter and the
// NZCV condition flags.
//
// Grounded on core/emu.go's coreState.Registers register file and
// operand-impl/register.go's per-kind (U/I/F)Register split, generalized to
// AArch64's register classes and aliasing rules.
package cpu

// Class is the register class a Reg belongs to; read/write enforce that
// the requested Go type matches the class (an S-register read as i64 is a
// class-mismatch error per spec.md §4.3).
type Class int

const (
	ClassX Class = iota // 64-bit general purpose
	ClassW              // 32-bit view of a general-purpose register
	ClassS              // 32-bit float view of a V register
	ClassD              // 64-bit float view of a V register
	ClassQ              // full 128-bit V register
)

// Reg names one architectural register by class and index.
type Reg struct {
	Class Class
	N     int
}

func X(n int) Reg { return Reg{ClassX, n} }
func W(n int) Reg { return Reg{ClassW, n} }
func S(n int) Reg { return Reg{ClassS, n} }
func D(n int) Reg { return Reg{ClassD, n} }
func Q(n int) Reg { return Reg{ClassQ, n} }

// ZR is the index shared by XZR and WZR: reads as zero, writes discarded.
const ZR = 31

// LR is the index of the link register, X30.
const LR = 30

// Value is the set of Go numeric types Read/Write may be instantiated
// with.
type Value interface {
	~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Cpu0 is the full AArch64 register/flag file for one emulated core.
type Cpu0 struct {
	x [31]uint64    // X0..X30
	v [32][2]uint64 // low word holds S/D bits; both words make up Q

	spEL [4]uint64 // sp_el0..sp_el3
	elr  uint64
	spsr uint64

	fpscr uint32
	pc    uint64
	flags Flags
}

// PC / SetPC access the program counter.
func (c *Cpu0) PC() uint64     { return c.pc }
func (c *Cpu0) SetPC(v uint64) { c.pc = v }

// SP returns the current stack pointer, conventionally sp_el0 for the
// user-mode execution this emulator targets.
func (c *Cpu0) SP() uint64      { return c.spEL[0] }
func (c *Cpu0) SetSP(v uint64)  { c.spEL[0] = v }
func (c *Cpu0) SPAt(el int) uint64     { return c.spEL[el] }
func (c *Cpu0) SetSPAt(el int, v uint64) { c.spEL[el] = v }

func (c *Cpu0) ELR() uint64      { return c.elr }
func (c *Cpu0) SetELR(v uint64)  { c.elr = v }
func (c *Cpu0) SPSR() uint64     { return c.spsr }
func (c *Cpu0) SetSPSR(v uint64) { c.spsr = v }
func (c *Cpu0) FPSCR() uint32     { return c.fpscr }
func (c *Cpu0) SetFPSCR(v uint32) { c.fpscr = v }

// Flags returns the current NZCV condition flags.
func (c *Cpu0) Flags() Flags     { return c.flags }
func (c *Cpu0) SetFlags(f Flags) { c.flags = f }

func (c *Cpu0) readX(n int) uint64 {
	if n == ZR {
		return 0
	}
	return c.x[n]
}

func (c *Cpu0) writeX(n int, v uint64) {
	if n == ZR {
		return
	}
	c.x[n] = v
}

func (c *Cpu0) readW(n int) uint32 {
	return uint32(c.readX(n))
}

// writeW zero-extends into the full X register, matching AArch64's rule
// that a 32-bit write clears the upper 32 bits of the owning X register.
func (c *Cpu0) writeW(n int, v uint32) {
	c.writeX(n, uint64(v))
}

func (c *Cpu0) readS(n int) float32 {
	return float32FromBits(uint32(c.v[n][0]))
}

func (c *Cpu0) writeS(n int, v float32) {
	c.v[n][0] = uint64(bitsFromFloat32(v))
}

func (c *Cpu0) readD(n int) float64 {
	return float64FromBits(c.v[n][0])
}

func (c *Cpu0) writeD(n int, v float64) {
	c.v[n][0] = bitsFromFloat64(v)
}

func (c *Cpu0) readQ(n int) [2]uint64 {
	return c.v[n]
}

func (c *Cpu0) writeQ(n int, v [2]uint64) {
	c.v[n] = v
}

// ReadQ / WriteQ access the full 128-bit vector register, bypassing the
// Value-constrained generic accessors (no Go numeric type models 128 bits
// directly).
func ReadQ(c *Cpu0, reg Reg) ([2]uint64, error) {
	if reg.Class != ClassQ {
		return [2]uint64{}, &ErrClassMismatch{reg}
	}
	return c.readQ(reg.N), nil
}

func WriteQ(c *Cpu0, reg Reg, v [2]uint64) error {
	if reg.Class != ClassQ {
		return &ErrClassMismatch{reg}
	}
	c.writeQ(reg.N, v)
	return nil
}

func isFloatKind[T Value]() bool {
	var z T
	switch any(z).(type) {
	case float32, float64:
		return true
	}
	return false
}

// ErrClassMismatch is returned when the requested Go type does not match
// the register's class (e.g. reading an S register as an integer).
type ErrClassMismatch struct{ Reg Reg }

func (e *ErrClassMismatch) Error() string {
	return "cpu: register class mismatch"
}

// Read loads reg as T, erroring if T's kind (integer vs float) doesn't
// match the register class.
func Read[T Value](c *Cpu0, reg Reg) (T, error) {
	var zero T
	wantFloat := isFloatKind[T]()
	switch reg.Class {
	case ClassX:
		if wantFloat {
			return zero, &ErrClassMismatch{reg}
		}
		return T(c.readX(reg.N)), nil
	case ClassW:
		if wantFloat {
			return zero, &ErrClassMismatch{reg}
		}
		return T(uint64(c.readW(reg.N))), nil
	case ClassS:
		if !wantFloat {
			return zero, &ErrClassMismatch{reg}
		}
		return T(c.readS(reg.N)), nil
	case ClassD:
		if !wantFloat {
			return zero, &ErrClassMismatch{reg}
		}
		return T(c.readD(reg.N)), nil
	default:
		return zero, &ErrClassMismatch{reg}
	}
}

// Write stores v into reg, enforcing the same class compatibility as Read.
func Write[T Value](c *Cpu0, reg Reg, v T) error {
	wantFloat := isFloatKind[T]()
	switch reg.Class {
	case ClassX:
		if wantFloat {
			return &ErrClassMismatch{reg}
		}
		c.writeX(reg.N, uint64(int64(v)))
		return nil
	case ClassW:
		if wantFloat {
			return &ErrClassMismatch{reg}
		}
		c.writeW(reg.N, uint32(int64(v)))
		return nil
	case ClassS:
		if !wantFloat {
			return &ErrClassMismatch{reg}
		}
		c.writeS(reg.N, float32(v))
		return nil
	case ClassD:
		if !wantFloat {
			return &ErrClassMismatch{reg}
		}
		c.writeD(reg.N, float64(v))
		return nil
	default:
		return &ErrClassMismatch{reg}
	}
}
