// Package vm is the execution driver of spec.md §4.5: it fetches, decodes,
// and executes guest instructions against a cpu.Cpu0 and a memory.Memory,
// exposing the bounded "v_" protocol singleton-initialization scripts and
// linker stubs drive.
//
// VirtualMachine embeds an akita sim.TickingComponent the way
// cgra-new/fu.go's FuncUnit does, generalized from one tick per CGRA
// dataflow step to one tick per fetch-decode-execute cycle. The v_* calls
// below are synchronous wrappers that repeatedly invoke Tick rather than
// scheduling through an akita sim.Engine event queue: spec.md §4.5 describes
// a hand-written restartable state machine, not a discrete-event simulation,
// so the engine is driven inline per call instead of asynchronously.
package vm

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pouchvm/cpu"
	"github.com/sarchlab/pouchvm/cpuerr"
	"github.com/sarchlab/pouchvm/insn"
	"github.com/sarchlab/pouchvm/memory"
)

// State is the per-invocation lifecycle of spec.md §4.5's state machine.
type State int

const (
	Idle State = iota
	Entered
	Executing
	Suspended
	Completed
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Entered:
		return "Entered"
	case Executing:
		return "Executing"
	case Suspended:
		return "Suspended"
	case Completed:
		return "Completed"
	case Faulted:
		return "Faulted"
	default:
		return "State(?)"
	}
}

// Limits bounds a single v_execute_until* call per spec.md §4.5/§7.
type Limits struct {
	// MaxBlocks caps the number of basic-block entries (steps whose pc is
	// not the fall-through of the previous step); 0 disables the check.
	// Enforced only when LimitBlockCount is true.
	MaxBlocks       int
	LimitBlockCount bool
	// MaxIterations caps total instructions stepped within one call.
	MaxIterations       int
	LimitBlockIteration bool
}

// Fetcher reads the next 32-bit instruction word at pc. boot.Image
// implements this over the relocated program region.
type Fetcher interface {
	FetchWord(pc uint64) (uint32, error)
}

// VirtualMachine drives one cpu.Cpu0 against one memory.Memory plus a
// Fetcher supplying instruction words, honoring a chain of hooks.
type VirtualMachine struct {
	*sim.TickingComponent

	Cpu     *cpu.Cpu0
	Machine *insn.Machine
	Fetch   Fetcher
	Hooks   *HookProvider
	Limits  Limits

	state State
	err   error

	blocksEntered int
	lastBlockPC   uint64
	iterations    int
}

// New builds a VirtualMachine. engine/freq are forwarded to
// sim.NewTickingComponent purely for the teacher's component-registration
// texture; the v_* calls below drive execution directly rather than
// scheduling ticks on engine.
func New(name string, engine sim.Engine, freq sim.Freq, c *cpu.Cpu0, m *memory.Memory, allow memory.RegionSet, fetch Fetcher, hooks *HookProvider) *VirtualMachine {
	vmach := &VirtualMachine{
		Cpu:     c,
		Machine: &insn.Machine{Cpu: c, Mem: m, Allow: allow},
		Fetch:   fetch,
		Hooks:   hooks,
		state:   Idle,
	}
	vmach.TickingComponent = sim.NewTickingComponent(name, engine, freq, vmach)
	return vmach
}

// Tick performs one fetch-decode-execute cycle. It satisfies akita's
// sim.Ticker interface so the component can, in principle, also be driven by
// an engine's event loop; the v_* methods below call it directly.
func (v *VirtualMachine) Tick(now sim.VTimeInSec) bool {
	if v.state != Executing {
		return false
	}
	if v.step() != nil {
		return false
	}
	return true
}

func (v *VirtualMachine) State() State { return v.state }
func (v *VirtualMachine) Err() error   { return v.err }

func (v *VirtualMachine) fail(err error) error {
	v.state = Faulted
	v.err = err
	return err
}

// step fetches, decodes, and executes exactly one instruction, applying any
// matching hooks first.
func (v *VirtualMachine) step() error {
	pc := v.Cpu.PC()

	if v.Limits.LimitBlockIteration {
		v.iterations++
		if v.Limits.MaxIterations > 0 && v.iterations > v.Limits.MaxIterations {
			return v.fail(cpuerr.New(cpuerr.BlockIterationLimit, pc))
		}
	}
	if pc != v.lastBlockPC+4 && v.Limits.LimitBlockCount {
		v.blocksEntered++
		if v.Limits.MaxBlocks > 0 && v.blocksEntered > v.Limits.MaxBlocks {
			return v.fail(cpuerr.New(cpuerr.BlockCountLimit, pc))
		}
	}
	v.lastBlockPC = pc

	if v.Hooks != nil {
		handled, err := v.Hooks.Run(v, pc)
		if err != nil {
			return v.fail(err)
		}
		if handled {
			return nil
		}
	}

	word, err := v.Fetch.FetchWord(pc)
	if err != nil {
		return v.fail(cpuerr.Wrap(cpuerr.PageFault, pc, err))
	}
	inst, err := insn.Decode(word, pc)
	if err != nil {
		return v.fail(err)
	}
	if err := v.Machine.Step(inst); err != nil {
		return v.fail(err)
	}
	return nil
}

// VEnter sets PC to idaAddr and pushes a Native stack-trace frame, per
// spec.md §4.5's v_enter.
func (v *VirtualMachine) VEnter(idaAddr uint64) {
	v.Cpu.SetPC(idaAddr)
	v.Machine.Frames.PushNative(idaAddr)
	v.state = Entered
}

// VExecuteUntil runs until pc reaches target, bounded by Limits.
func (v *VirtualMachine) VExecuteUntil(target uint64) error {
	v.state = Executing
	for v.Cpu.PC() != target {
		if err := v.step(); err != nil {
			return err
		}
	}
	v.state = Suspended
	return nil
}

// VExecuteUntilThenSkipOne runs until target, then advances PC past one
// (unexecuted) instruction — used by linker stubs that patch over a call.
func (v *VirtualMachine) VExecuteUntilThenSkipOne(target uint64) error {
	if err := v.VExecuteUntil(target); err != nil {
		return err
	}
	v.Cpu.SetPC(v.Cpu.PC() + 4)
	return nil
}

// AllocOverride lets VExecuteUntilThenSingleAllocSkipOne pin the next heap
// allocation to a fixed address, used to place singletons deterministically.
type AllocOverride struct {
	Heap    *memory.Heap
	RelAddr uint64
	Size    uint64
}

// VExecuteUntilThenSingleAllocSkipOne is VExecuteUntilThenSkipOne, but first
// reserves the heap range the run's one allocation would otherwise have
// claimed at a fixed offset, used to place singletons deterministically
// (spec.md §6's pmdm_addr).
func (v *VirtualMachine) VExecuteUntilThenSingleAllocSkipOne(target uint64, override AllocOverride) (uint64, error) {
	var addr uint64
	if override.Heap != nil {
		a, err := override.Heap.AllocAt(override.RelAddr, override.Size)
		if err != nil {
			return 0, err
		}
		addr = a
	}
	return addr, v.VExecuteUntilThenSkipOne(target)
}

// VExecuteToComplete runs until the top stack frame (pushed by VEnter or a
// bl/blr during the run) returns.
func (v *VirtualMachine) VExecuteToComplete() error {
	v.state = Executing
	depth := v.Machine.Frames.Depth()
	if depth == 0 {
		v.state = Completed
		return nil
	}
	for v.Machine.Frames.Depth() >= depth {
		if err := v.step(); err != nil {
			return err
		}
	}
	v.state = Completed
	return nil
}

// VJump rewrites PC without executing anything.
func (v *VirtualMachine) VJump(target uint64) {
	v.Cpu.SetPC(target)
}

// VJumpExecute rewrites PC to target and then calls VExecuteUntil(target).
// Since PC already equals target, no instruction is executed; the call
// only leaves the state Suspended.
func (v *VirtualMachine) VJumpExecute(target uint64) error {
	v.VJump(target)
	return v.VExecuteUntil(target)
}

// VMemAlloc bypasses guest code for a heap allocation.
func (v *VirtualMachine) VMemAlloc(heap *memory.Heap, size uint64) (uint64, error) {
	return heap.Alloc(size)
}

// VSingletonGet writes heap.Start+relStart into reg, bypassing guest code —
// the fast path singleton accessors use once a singleton's offset is known.
func (v *VirtualMachine) VSingletonGet(reg cpu.Reg, heap *memory.Heap, relStart uint64) error {
	return cpu.Write[uint64](v.Cpu, reg, heap.RegionStart()+relStart)
}

// VRegSet writes an immediate into a register, bypassing guest code.
func (v *VirtualMachine) VRegSet(reg cpu.Reg, value uint64) error {
	return cpu.Write[uint64](v.Cpu, reg, value)
}

// VRegCopy copies one register's value into another of the same class.
func (v *VirtualMachine) VRegCopy(dst, src cpu.Reg) error {
	value, err := cpu.Read[uint64](v.Cpu, src)
	if err != nil {
		return err
	}
	return cpu.Write[uint64](v.Cpu, dst, value)
}

// VDataAlloc materializes a host-held data blob (e.g. a linker stub's
// constant pool entry) into mem's heap at the next 8-aligned bump offset
// and returns its address. dataID is not used.
func (v *VirtualMachine) VDataAlloc(mem *memory.Memory, dataID string, data []byte) (uint64, error) {
	addr, err := mem.Heap().Alloc(uint64(len(data)))
	if err != nil {
		return 0, err
	}
	if err := mem.Write(addr, data, memory.AnyRegion); err != nil {
		return 0, err
	}
	return addr, nil
}
