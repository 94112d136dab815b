package insn

// execBitfield implements the bitfield-move family. Instruction.LSB/Width
// are pre-computed by Decode from the raw immr/imms encoding so Exec only
// has to apply the extract/insert/sign-extend semantics.
func (m *Machine) execBitfield(inst Instruction) error {
	rn, err := m.readInt(inst.Rn, inst.Is64)
	if err != nil {
		return err
	}

	switch inst.Mnemonic {
	case SXTW:
		v := int64(int32(uint32(rn)))
		return m.writeInt(inst.Rd, true, uint64(v))

	case UBFM, BFXIL:
		field := extractBits(rn, inst.LSB, inst.Width)
		if inst.Mnemonic == UBFM {
			return m.writeInt(inst.Rd, inst.Is64, field)
		}
		rd, err := m.readInt(inst.Rd, inst.Is64)
		if err != nil {
			return err
		}
		mask := widthMask(inst.Width)
		result := (rd &^ mask) | (field & mask)
		return m.writeInt(inst.Rd, inst.Is64, truncate(result, inst.Is64))

	case SBFM:
		field := extractBits(rn, inst.LSB, inst.Width)
		return m.writeInt(inst.Rd, inst.Is64, truncate(signExtend(field, inst.Width), inst.Is64))

	case SBFIZ:
		low := rn & widthMask(inst.Width)
		extended := signExtend(low, inst.Width)
		shifted := extended << inst.LSB
		return m.writeInt(inst.Rd, inst.Is64, truncate(shifted, inst.Is64))

	case BFM:
		rd, err := m.readInt(inst.Rd, inst.Is64)
		if err != nil {
			return err
		}
		low := rn & widthMask(inst.Width)
		mask := widthMask(inst.Width) << inst.LSB
		result := (rd &^ mask) | ((low << inst.LSB) & mask)
		return m.writeInt(inst.Rd, inst.Is64, truncate(result, inst.Is64))
	}
	return nil
}

func widthMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

func extractBits(v uint64, lsb, width uint) uint64 {
	return (v >> lsb) & widthMask(width)
}

func signExtend(v uint64, width uint) uint64 {
	if width == 0 || width >= 64 {
		return v
	}
	signBit := uint64(1) << (width - 1)
	if v&signBit != 0 {
		return v | ^widthMask(width)
	}
	return v
}
