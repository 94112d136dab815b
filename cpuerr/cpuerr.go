// Package cpuerr is the CPU-level error/crash-reason taxonomy of spec.md
// §6-§7: the enum a CrashReport carries, and the Go error type insn/vm
// return so that any CPU error unconditionally terminates the current
// command and transitions the simulator to Crashed.
//
// Grounded one-to-one on original_source/packages/blueflame/src/error.rs's
// variant list, which is also what spec.md §6's "Crash report" enumerates.
package cpuerr

import "fmt"

// Reason is the crash-report reason enum.
type Reason int

const (
	BadInstruction Reason = iota
	Unsupported
	Unimplemented
	PrivilegeRequired
	Unaligned
	PermissionDenied
	PageFault
	ArithDivZero
	ArithOverflow
	ArithUnderflow
	ExecuteCacheOverlap
	StrictReplacement
	BlockCountLimit
	BlockIterationLimit
	StackFrameCorrupted
	ReturnAddressMismatch
)

func (r Reason) String() string {
	switch r {
	case BadInstruction:
		return "BadInstruction"
	case Unsupported:
		return "Unsupported"
	case Unimplemented:
		return "Unimplemented"
	case PrivilegeRequired:
		return "PrivilegeRequired"
	case Unaligned:
		return "Unaligned"
	case PermissionDenied:
		return "PermissionDenied"
	case PageFault:
		return "PageFault"
	case ArithDivZero:
		return "Arithmetic(DivZero)"
	case ArithOverflow:
		return "Arithmetic(Overflow)"
	case ArithUnderflow:
		return "Arithmetic(Underflow)"
	case ExecuteCacheOverlap:
		return "ExecuteCacheOverlap"
	case StrictReplacement:
		return "StrictReplacement"
	case BlockCountLimit:
		return "BlockCountLimit"
	case BlockIterationLimit:
		return "BlockIterationLimit"
	case StackFrameCorrupted:
		return "StackFrameCorrupted"
	case ReturnAddressMismatch:
		return "ReturnAddressMismatch"
	default:
		return "Reason(?)"
	}
}

// Error is a CPU error: a Reason plus the PC it occurred at and, when the
// reason wraps a memory error, the underlying cause.
type Error struct {
	Reason Reason
	PC     uint64
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cpu: %s at pc=0x%x: %v", e.Reason, e.PC, e.Cause)
	}
	return fmt.Sprintf("cpu: %s at pc=0x%x", e.Reason, e.PC)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a bare CPU error.
func New(reason Reason, pc uint64) *Error {
	return &Error{Reason: reason, PC: pc}
}

// Wrap builds a CPU error around a lower-level cause (typically a
// *memory.Error), per spec.md §7's "CPU errors wrap memory errors".
func Wrap(reason Reason, pc uint64, cause error) *Error {
	return &Error{Reason: reason, PC: pc, Cause: cause}
}
