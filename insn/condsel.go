package insn

func (m *Machine) execCondSelect(inst Instruction) error {
	taken := m.Cpu.Flags().Eval(inst.Cond)

	switch inst.Mnemonic {
	case CSET:
		if taken {
			return m.writeInt(inst.Rd, inst.Is64, 1)
		}
		return m.writeInt(inst.Rd, inst.Is64, 0)

	case CINC:
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		if taken {
			return m.writeInt(inst.Rd, inst.Is64, truncate(rn+1, inst.Is64))
		}
		return m.writeInt(inst.Rd, inst.Is64, rn)
	}

	rn, err := m.readInt(inst.Rn, inst.Is64)
	if err != nil {
		return err
	}
	if taken {
		return m.writeInt(inst.Rd, inst.Is64, rn)
	}

	rm, err := m.readInt(inst.Rm, inst.Is64)
	if err != nil {
		return err
	}

	var result uint64
	switch inst.Mnemonic {
	case CSEL:
		result = rm
	case CSINC:
		result = rm + 1
	case CSINV:
		result = ^rm
	case CSNEG:
		result = uint64(-int64(rm))
	}
	return m.writeInt(inst.Rd, inst.Is64, truncate(result, inst.Is64))
}
