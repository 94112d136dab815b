package insn

// execShift handles the register-shift-amount family (lslv/lsrv/asrv) and
// their immediate-amount aliases (lsl/lsr/asr), which decode sets Amount for
// directly rather than reading Rm.
func (m *Machine) execShift(inst Instruction) error {
	rn, err := m.readInt(inst.Rn, inst.Is64)
	if err != nil {
		return err
	}

	amount := inst.Amount
	switch inst.Mnemonic {
	case LSLV, LSRV, ASRV:
		rm, err := m.readInt(inst.Rm, inst.Is64)
		if err != nil {
			return err
		}
		mask := uint64(63)
		if !inst.Is64 {
			mask = 31
		}
		amount = uint(rm & mask)
	}

	var kind ShiftKind
	switch inst.Mnemonic {
	case LSL, LSLV:
		kind = ShiftLSL
	case LSR, LSRV:
		kind = ShiftLSR
	case ASR, ASRV:
		kind = ShiftASR
	}

	result := truncate(applyShift(rn, inst.Is64, kind, amount), inst.Is64)
	return m.writeInt(inst.Rd, inst.Is64, result)
}
