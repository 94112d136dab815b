package insn

import "github.com/sarchlab/pouchvm/cpuerr"

// execBranch evaluates a branch/call/return instruction and returns the PC
// to land on. pc is the address the instruction was fetched from; fallthrough
// is pc+4, already computed by the caller as next.
func (m *Machine) execBranch(inst Instruction, pc, fallthrough_ uint64) (uint64, error) {
	switch inst.Mnemonic {
	case B:
		return uint64(int64(pc) + inst.Imm), nil

	case BL:
		target := uint64(int64(pc) + inst.Imm)
		if err := m.writeInt(30, true, fallthrough_); err != nil {
			return pc, err
		}
		if err := m.Frames.push(Frame{JumpTarget: target, Kind: FrameBL, SourcePC: pc}); err != nil {
			return pc, err
		}
		return target, nil

	case BR:
		target, err := m.readInt(inst.Rn, true)
		if err != nil {
			return pc, err
		}
		return target, nil

	case BLR:
		target, err := m.readInt(inst.Rn, true)
		if err != nil {
			return pc, err
		}
		if err := m.writeInt(30, true, fallthrough_); err != nil {
			return pc, err
		}
		if err := m.Frames.push(Frame{JumpTarget: target, Kind: FrameBLR, SourcePC: pc}); err != nil {
			return pc, err
		}
		return target, nil

	case RET:
		target, err := m.readInt(30, true)
		if err != nil {
			return pc, err
		}
		frame, ok := m.Frames.Pop()
		if !ok {
			if m.Frames.CheckReturnAddr {
				return pc, cpuerr.New(cpuerr.ReturnAddressMismatch, pc)
			}
			return target, nil
		}
		if m.Frames.CheckReturnAddr && target != frame.SourcePC+4 {
			return pc, cpuerr.New(cpuerr.ReturnAddressMismatch, pc)
		}
		return target, nil

	case CBZ:
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return pc, err
		}
		if rn == 0 {
			return uint64(int64(pc) + inst.Imm), nil
		}
		return fallthrough_, nil

	case CBNZ:
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return pc, err
		}
		if rn != 0 {
			return uint64(int64(pc) + inst.Imm), nil
		}
		return fallthrough_, nil

	case TBZ, TBNZ:
		rn, err := m.readInt(inst.Rn, true)
		if err != nil {
			return pc, err
		}
		bit := (rn >> inst.LSB) & 1
		taken := bit == 0
		if inst.Mnemonic == TBNZ {
			taken = bit != 0
		}
		if taken {
			return uint64(int64(pc) + inst.Imm), nil
		}
		return fallthrough_, nil

	case BCOND:
		if m.Cpu.Flags().Eval(inst.Cond) {
			return uint64(int64(pc) + inst.Imm), nil
		}
		return fallthrough_, nil
	}
	return fallthrough_, nil
}

func (m *Machine) execAdrp(inst Instruction, pc uint64) error {
	base := pc &^ 0xfff
	return m.writeInt(inst.Rd, true, base+uint64(inst.Imm))
}
