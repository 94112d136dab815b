package insn

import (
	"github.com/sarchlab/pouchvm/cpu"
	"github.com/sarchlab/pouchvm/cpuerr"
	"github.com/sarchlab/pouchvm/memory"
)

// Machine bundles the register file and memory an Instruction executes
// against. vm.VirtualMachine embeds one per running core.
type Machine struct {
	Cpu    *cpu.Cpu0
	Mem    *memory.Memory
	Allow  memory.RegionSet
	Frames FrameStack
}

// FrameStack is the bl/blr/ret call-stack trace of spec.md §4.5, kept here
// rather than in vm so Exec can push/pop it directly as branches execute.
type FrameStack struct {
	frames []Frame
	// MaxDepth bounds frame growth; 0 means unbounded. Checked only when
	// CheckStackFrames is set by the caller.
	MaxDepth          int
	CheckStackFrames  bool
	CheckReturnAddr   bool
}

// FrameKind distinguishes how a frame was entered.
type FrameKind int

const (
	FrameBL FrameKind = iota
	FrameBLR
	FrameNative
)

// Frame is one stack-trace entry.
type Frame struct {
	JumpTarget uint64
	Kind       FrameKind
	SourcePC   uint64
}

func (s *FrameStack) push(f Frame) error {
	s.frames = append(s.frames, f)
	if s.CheckStackFrames && s.MaxDepth > 0 && len(s.frames) > s.MaxDepth {
		return cpuerr.New(cpuerr.StackFrameCorrupted, f.SourcePC)
	}
	return nil
}

// Pop removes and returns the top frame. ok is false on an empty stack.
func (s *FrameStack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// PushNative records entry into a host-invoked function (vm.VEnter), so
// VExecuteToComplete has a frame depth to run down to.
func (s *FrameStack) PushNative(target uint64) {
	s.frames = append(s.frames, Frame{JumpTarget: target, Kind: FrameNative, SourcePC: target})
}

// Depth reports the current call depth.
func (s *FrameStack) Depth() int { return len(s.frames) }

// Frames returns a copy of the live stack, outermost first.
func (s *FrameStack) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Step executes one instruction already fetched at the current PC,
// advancing PC per spec.md §4.4: "branch targets are PC-relative with an
// implicit -4 adjustment because PC is advanced after each instruction" —
// i.e. non-branching instructions always land on pc+4, and branch/return
// forms set PC explicitly.
func (m *Machine) Step(inst Instruction) error {
	pc := m.Cpu.PC()
	next := pc + 4

	var err error
	switch {
	case isDataProc(inst.Mnemonic):
		err = m.execDataProc(inst)
	case isLogical(inst.Mnemonic):
		err = m.execLogical(inst)
	case isShift(inst.Mnemonic):
		err = m.execShift(inst)
	case isBitfield(inst.Mnemonic):
		err = m.execBitfield(inst)
	case isMul(inst.Mnemonic):
		err = m.execMul(inst)
	case isCondSelect(inst.Mnemonic):
		err = m.execCondSelect(inst)
	case isFP(inst.Mnemonic):
		err = m.execFP(inst)
	case isBranch(inst.Mnemonic):
		next, err = m.execBranch(inst, pc, next)
	case isLoadStore(inst.Mnemonic):
		err = m.execLoadStore(inst)
	case inst.Mnemonic == ADRP:
		err = m.execAdrp(inst, pc)
	default:
		err = cpuerr.New(cpuerr.Unimplemented, pc)
	}

	if err != nil {
		return err
	}
	m.Cpu.SetPC(next)
	return nil
}

func isDataProc(m Mnemonic) bool {
	switch m {
	case MOV, MOVZ, MOVN, MOVK, ADD, ADDS, SUB, SUBS, CMN, CMP, NEG:
		return true
	}
	return false
}

func isLogical(m Mnemonic) bool {
	switch m {
	case AND, ANDS, ORR, ORN, EOR, BIC, MVN:
		return true
	}
	return false
}

func isShift(m Mnemonic) bool {
	switch m {
	case LSL, LSLV, LSR, LSRV, ASR, ASRV:
		return true
	}
	return false
}

func isBitfield(m Mnemonic) bool {
	switch m {
	case UBFM, SBFM, BFM, BFXIL, SBFIZ, SXTW:
		return true
	}
	return false
}

func isMul(m Mnemonic) bool {
	switch m {
	case MADD, MSUB, MUL, SMADDL, SMULL:
		return true
	}
	return false
}

func isCondSelect(m Mnemonic) bool {
	switch m {
	case CSEL, CSET, CSINC, CSINV, CSNEG, CINC:
		return true
	}
	return false
}

func isFP(m Mnemonic) bool {
	switch m {
	case FMOV, FADD, FSUB, FMUL, FDIV, FCMP, FCVTZS, SCVTF:
		return true
	}
	return false
}

func isBranch(m Mnemonic) bool {
	switch m {
	case B, BL, BR, BLR, RET, CBZ, CBNZ, TBZ, TBNZ, BCOND:
		return true
	}
	return false
}

func isLoadStore(m Mnemonic) bool {
	switch m {
	case LDR, LDP, LDRB, LDRH, LDRSW, LDUR, LDURB, LDARB,
		STR, STP, STRB, STRH, STUR, STURB, STURH:
		return true
	}
	return false
}
