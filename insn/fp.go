package insn

import (
	"math"

	"github.com/sarchlab/pouchvm/cpu"
)

func (m *Machine) readFloat(n int, is64 bool) (float64, error) {
	if is64 {
		return cpu.Read[float64](m.Cpu, cpu.D(n))
	}
	v, err := cpu.Read[float32](m.Cpu, cpu.S(n))
	return float64(v), err
}

func (m *Machine) writeFloat(n int, is64 bool, v float64) error {
	if is64 {
		return cpu.Write[float64](m.Cpu, cpu.D(n), v)
	}
	return cpu.Write[float32](m.Cpu, cpu.S(n), float32(v))
}

func (m *Machine) execFP(inst Instruction) error {
	switch inst.Mnemonic {
	case FMOV:
		v, err := m.readFloat(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		return m.writeFloat(inst.Rd, inst.Is64, v)

	case FADD, FSUB, FMUL, FDIV:
		rn, err := m.readFloat(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		rm, err := m.readFloat(inst.Rm, inst.Is64)
		if err != nil {
			return err
		}
		var result float64
		switch inst.Mnemonic {
		case FADD:
			result = rn + rm
		case FSUB:
			result = rn - rm
		case FMUL:
			result = rn * rm
		case FDIV:
			result = rn / rm
		}
		return m.writeFloat(inst.Rd, inst.Is64, result)

	case FCMP:
		rn, err := m.readFloat(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		rm, err := m.readFloat(inst.Rm, inst.Is64)
		if err != nil {
			return err
		}
		m.Cpu.SetFlags(fcmpFlags(rn, rm))
		return nil

	case FCVTZS:
		v, err := m.readFloat(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		return m.writeInt(inst.Rd, inst.Is64, uint64(int64(math.Trunc(v))))

	case SCVTF:
		// spec.md §9 flags a guest-emulator quirk where `scvtf s, s` (a
		// float-register source) bit-reinterprets the source register's
		// float bits as an integer before converting, instead of doing a
		// plain numeric float-to-float pass-through (original_source's
		// scvtf.rs: SReg source -> f32::to_le_bytes -> i32::from_le_bytes
		// -> cast back to f64). That source form isn't a valid AArch64
		// SCVTF encoding, though — real SCVTF only ever names a general
		// register as its source (sf/ftype, rmode=0, opc=010, decoded in
		// decodeFcvt below with Rn always read out of the GPR field) — so
		// decodeFcvt never produces an Instruction whose Rn the guest
		// emulator would have treated as a float register, and this path
		// can't reproduce the quirk. Preserved here as a known,
		// unreachable-from-real-encoding deviation rather than silently
		// dropped.
		v, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		return m.writeFloat(inst.Rd, inst.Is64, float64(int64(v)))
	}
	return nil
}

// fcmpFlags implements ARMv8's floating-point comparison flag rules:
// equal sets ZC, greater-than sets C, less-than sets N, unordered sets CV.
func fcmpFlags(a, b float64) cpu.Flags {
	if math.IsNaN(a) || math.IsNaN(b) {
		return cpu.Flags{N: false, Z: false, C: true, V: true}
	}
	switch {
	case a == b:
		return cpu.Flags{N: false, Z: true, C: true, V: false}
	case a > b:
		return cpu.Flags{N: false, Z: false, C: true, V: false}
	default:
		return cpu.Flags{N: true, Z: false, C: false, V: false}
	}
}
