package insn

func (m *Machine) execMul(inst Instruction) error {
	switch inst.Mnemonic {
	case MUL, MADD, MSUB:
		rn, err := m.readInt(inst.Rn, inst.Is64)
		if err != nil {
			return err
		}
		rm, err := m.readInt(inst.Rm, inst.Is64)
		if err != nil {
			return err
		}
		product := rn * rm

		var ra uint64
		if inst.Mnemonic != MUL {
			ra, err = m.readInt(inst.Ra, inst.Is64)
			if err != nil {
				return err
			}
		}

		var result uint64
		switch inst.Mnemonic {
		case MUL:
			result = product
		case MADD:
			result = ra + product
		case MSUB:
			result = ra - product
		}
		return m.writeInt(inst.Rd, inst.Is64, truncate(result, inst.Is64))

	case SMULL, SMADDL:
		// Rn/Rm are always 32-bit sources, Rd/Ra always the 64-bit form.
		rn, err := m.readInt(inst.Rn, false)
		if err != nil {
			return err
		}
		rm, err := m.readInt(inst.Rm, false)
		if err != nil {
			return err
		}
		product := int64(int32(uint32(rn))) * int64(int32(uint32(rm)))

		var ra int64
		if inst.Mnemonic == SMADDL {
			v, err := m.readInt(inst.Ra, true)
			if err != nil {
				return err
			}
			ra = int64(v)
		}
		return m.writeInt(inst.Rd, true, uint64(ra+product))
	}
	return nil
}
