package insn

import "github.com/sarchlab/pouchvm/cpu"

func (m *Machine) execLogical(inst Instruction) error {
	switch inst.Mnemonic {
	case MVN:
		op2, err := m.operand2(inst)
		if err != nil {
			return err
		}
		return m.writeInt(inst.Rd, inst.Is64, truncate(^op2, inst.Is64))
	}

	rn, err := m.readInt(inst.Rn, inst.Is64)
	if err != nil {
		return err
	}
	op2, err := m.operand2(inst)
	if err != nil {
		return err
	}

	var result uint64
	switch inst.Mnemonic {
	case AND, ANDS:
		result = rn & op2
	case ORR:
		result = rn | op2
	case ORN:
		result = rn | truncate(^op2, inst.Is64)
	case EOR:
		result = rn ^ op2
	case BIC:
		result = rn &^ op2
	default:
		return nil
	}
	result = truncate(result, inst.Is64)

	if inst.Mnemonic == ANDS {
		m.Cpu.SetFlags(logicalFlags(result, inst.Is64))
	}
	return m.writeInt(inst.Rd, inst.Is64, result)
}

func truncate(v uint64, is64 bool) uint64 {
	if is64 {
		return v
	}
	return v & 0xffffffff
}

// logicalFlags computes NZCV for the ands/bics family: C and V are always
// cleared, N/Z reflect the result per ARMv8's logical-instruction flags.
func logicalFlags(result uint64, is64 bool) cpu.Flags {
	z := result == 0
	var n bool
	if is64 {
		n = int64(result) < 0
	} else {
		n = int32(uint32(result)) < 0
	}
	return cpu.Flags{N: n, Z: z, C: false, V: false}
}
