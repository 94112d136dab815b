package insn

import "github.com/sarchlab/pouchvm/cpu"

func (m *Machine) reg(n int, is64 bool) cpu.Reg {
	if is64 {
		return cpu.X(n)
	}
	return cpu.W(n)
}

func (m *Machine) readInt(n int, is64 bool) (uint64, error) {
	if is64 {
		v, err := cpu.Read[uint64](m.Cpu, cpu.X(n))
		return v, err
	}
	v, err := cpu.Read[uint32](m.Cpu, cpu.W(n))
	return uint64(v), err
}

func (m *Machine) writeInt(n int, is64 bool, v uint64) error {
	if is64 {
		return cpu.Write[uint64](m.Cpu, cpu.X(n), v)
	}
	return cpu.Write[uint32](m.Cpu, cpu.W(n), uint32(v))
}

// operand2 resolves the second operand of a data-processing instruction,
// which is either an immediate or a (possibly shifted) register.
func (m *Machine) operand2(inst Instruction) (uint64, error) {
	if inst.Rm < 0 {
		return uint64(inst.Imm), nil
	}
	v, err := m.readInt(inst.Rm, inst.Is64)
	if err != nil {
		return 0, err
	}
	return applyShift(v, inst.Is64, inst.Shift, inst.Amount), nil
}

func applyShift(v uint64, is64 bool, kind ShiftKind, amount uint) uint64 {
	mask := uint(63)
	if !is64 {
		mask = 31
	}
	amount &= mask
	switch kind {
	case ShiftLSL:
		return v << amount
	case ShiftLSR:
		if is64 {
			return v >> amount
		}
		return uint64(uint32(v) >> amount)
	case ShiftASR:
		if is64 {
			return uint64(int64(v) >> amount)
		}
		return uint64(uint32(int32(uint32(v)) >> amount))
	default:
		return v
	}
}

func (m *Machine) execDataProc(inst Instruction) error {
	switch inst.Mnemonic {
	case MOV:
		v, err := m.operand2(inst)
		if err != nil {
			return err
		}
		return m.writeInt(inst.Rd, inst.Is64, v)

	case MOVZ:
		return m.writeInt(inst.Rd, inst.Is64, uint64(inst.Imm)<<inst.Amount)

	case MOVN:
		v := ^(uint64(inst.Imm) << inst.Amount)
		if !inst.Is64 {
			v &= 0xffffffff
		}
		return m.writeInt(inst.Rd, inst.Is64, v)

	case MOVK:
		cur, err := m.readInt(inst.Rd, inst.Is64)
		if err != nil {
			return err
		}
		shift := inst.Amount
		mask := uint64(0xffff) << shift
		cur = (cur &^ mask) | ((uint64(inst.Imm) << shift) & mask)
		return m.writeInt(inst.Rd, inst.Is64, cur)

	case ADD, ADDS:
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		op2, err := m.operand2(inst)
		if err != nil {
			return err
		}
		return m.addSub(inst, rn, op2, false, inst.Mnemonic == ADDS)

	case SUB, SUBS:
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		op2, err := m.operand2(inst)
		if err != nil {
			return err
		}
		return m.addSub(inst, rn, op2, true, inst.Mnemonic == SUBS)

	case CMN:
		// cmn is `adds xzr, rn, op2`: flags only, no destination write.
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		op2, err := m.operand2(inst)
		if err != nil {
			return err
		}
		return m.addSubFlagsOnly(inst, rn, op2, false)

	case CMP:
		// cmp is `subs xzr, rn, op2`.
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		op2, err := m.operand2(inst)
		if err != nil {
			return err
		}
		return m.addSubFlagsOnly(inst, rn, op2, true)

	case NEG:
		op2, err := m.operand2(inst)
		if err != nil {
			return err
		}
		return m.addSub(inst, 0, op2, true, inst.SetFlags)
	}
	return nil
}

// addSub computes rn-op2 (sub=true) or rn+op2 (sub=false), writes Rd, and
// optionally updates NZCV. Grounded on spec.md §4.4's definition of adds/
// subs as ARMv8 signed-add-with-carry.
func (m *Machine) addSub(inst Instruction, rn, op2 uint64, sub, setFlags bool) error {
	var result uint64
	var flags cpu.Flags
	b := op2
	carryIn := false
	if sub {
		b = ^op2
		carryIn = true
	}
	if inst.Is64 {
		result, flags = cpu.AddWithFlags64(rn, b, carryIn)
	} else {
		r32, f := cpu.AddWithFlags32(uint32(rn), uint32(b), carryIn)
		result, flags = uint64(r32), f
	}
	if setFlags {
		m.Cpu.SetFlags(flags)
	}
	return m.writeInt(inst.Rd, inst.Is64, result)
}

func (m *Machine) addSubFlagsOnly(inst Instruction, rn, op2 uint64, sub bool) error {
	b := op2
	carryIn := false
	if sub {
		b = ^op2
		carryIn = true
	}
	var flags cpu.Flags
	if inst.Is64 {
		_, flags = cpu.AddWithFlags64(rn, b, carryIn)
	} else {
		_, flags = cpu.AddWithFlags32(uint32(rn), uint32(b), carryIn)
	}
	m.Cpu.SetFlags(flags)
	return nil
}
