package insn

func (m *Machine) addr(inst Instruction) (uint64, error) {
	base, err := m.readInt(inst.Rn, true)
	if err != nil {
		return 0, err
	}
	return uint64(int64(base) + inst.Imm), nil
}

func (m *Machine) execLoadStore(inst Instruction) error {
	addr, err := m.addr(inst)
	if err != nil {
		return err
	}

	switch inst.Mnemonic {
	case LDR, LDUR:
		if inst.Is64 {
			v, err := m.Mem.ReadUint64(addr, m.Allow)
			if err != nil {
				return err
			}
			return m.writeInt(inst.Rd, true, v)
		}
		v, err := m.Mem.ReadUint32(addr, m.Allow)
		if err != nil {
			return err
		}
		return m.writeInt(inst.Rd, false, uint64(v))

	case LDRB, LDURB, LDARB:
		v, err := m.Mem.ReadByte(addr, m.Allow)
		if err != nil {
			return err
		}
		return m.writeInt(inst.Rd, false, uint64(v))

	case LDRH:
		v, err := m.Mem.ReadUint16(addr, m.Allow)
		if err != nil {
			return err
		}
		return m.writeInt(inst.Rd, false, uint64(v))

	case LDRSW:
		v, err := m.Mem.ReadUint32(addr, m.Allow)
		if err != nil {
			return err
		}
		return m.writeInt(inst.Rd, true, uint64(int64(int32(v))))

	case STR, STUR:
		v, err := m.readInt(inst.Rd, inst.Is64)
		if err != nil {
			return err
		}
		if inst.Is64 {
			return m.Mem.WriteUint64(addr, v, m.Allow)
		}
		return m.Mem.WriteUint32(addr, uint32(v), m.Allow)

	case STRB, STURB:
		v, err := m.readInt(inst.Rd, false)
		if err != nil {
			return err
		}
		return m.Mem.WriteByte(addr, byte(v), m.Allow)

	case STRH, STURH:
		v, err := m.readInt(inst.Rd, false)
		if err != nil {
			return err
		}
		return m.Mem.WriteUint16(addr, uint16(v), m.Allow)

	case LDP:
		elemSize := uint64(4)
		if inst.Is64 {
			elemSize = 8
		}
		if err := m.loadAt(inst.Rd, addr, inst.Is64); err != nil {
			return err
		}
		return m.loadAt(inst.Ra, addr+elemSize, inst.Is64)

	case STP:
		elemSize := uint64(4)
		if inst.Is64 {
			elemSize = 8
		}
		if err := m.storeAt(inst.Rd, addr, inst.Is64); err != nil {
			return err
		}
		return m.storeAt(inst.Ra, addr+elemSize, inst.Is64)
	}
	return nil
}

func (m *Machine) loadAt(reg int, addr uint64, is64 bool) error {
	if is64 {
		v, err := m.Mem.ReadUint64(addr, m.Allow)
		if err != nil {
			return err
		}
		return m.writeInt(reg, true, v)
	}
	v, err := m.Mem.ReadUint32(addr, m.Allow)
	if err != nil {
		return err
	}
	return m.writeInt(reg, false, uint64(v))
}

func (m *Machine) storeAt(reg int, addr uint64, is64 bool) error {
	v, err := m.readInt(reg, is64)
	if err != nil {
		return err
	}
	if is64 {
		return m.Mem.WriteUint64(addr, v, m.Allow)
	}
	return m.Mem.WriteUint32(addr, uint32(v), m.Allow)
}
