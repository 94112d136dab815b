package boot

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/pouchvm/env"
	"github.com/sarchlab/pouchvm/memory"
)

// Params mirrors spec.md §6's initialization-parameters record. Zero-value
// (empty-string-equivalent) fields select the deterministic defaults
// described there. The yaml tags let a Params value ship as a config file
// the way core's program listings ship as YAML alongside the binary.
type Params struct {
	DLC          env.DLCVersion `yaml:"dlc"`
	ProgramStart uint64         `yaml:"program_start"`
	StackStart   uint64         `yaml:"stack_start"`
	StackSize    uint32         `yaml:"stack_size"`
	HeapFreeSize uint32         `yaml:"heap_free_size"`
	PMDMAddr     uint64         `yaml:"pmdm_addr"`
}

const (
	defaultProgramStart = 0x2000000
	defaultStackStart   = 0x7fff0000
	defaultStackSize    = 0x100000
	defaultHeapFree     = 0x4000000
	defaultPMDMAddr     = 0x38a0000
)

// ParamsFromYAML decodes a Params record from YAML, the same config format
// core's program listings use; unset fields still pick up withDefaults'
// values when passed to Load.
func ParamsFromYAML(data []byte) (Params, error) {
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("boot: decoding params: %w", err)
	}
	return p, nil
}

func (p Params) withDefaults() Params {
	if p.ProgramStart == 0 {
		p.ProgramStart = defaultProgramStart
	}
	if p.StackStart == 0 {
		p.StackStart = defaultStackStart
	}
	if p.StackSize == 0 {
		p.StackSize = defaultStackSize
	}
	if p.HeapFreeSize == 0 {
		p.HeapFreeSize = defaultHeapFree
	}
	if p.PMDMAddr == 0 {
		p.PMDMAddr = defaultPMDMAddr
	}
	return p
}

// Process is the loaded, runnable result of Load: a Memory with the program
// image relocated in, positioned so the pmdm singleton lands at
// params.PMDMAddr, per spec.md §6's "implementer must preserve a
// deterministic default" requirement.
type Process struct {
	Env        env.Env
	Memory     *memory.Memory
	Singletons *SingletonTable
	MainStart  uint64
	HeapStart  uint64
}

// Load relocates img into a fresh Memory built from params, choosing
// heap_start so that pmdm's fixed heap_rel_start lands exactly at
// params.PMDMAddr.
func Load(img *Image, params Params, dlc env.DLCVersion) (*Process, error) {
	params = params.withDefaults()
	e := env.New(img.GameVersion, dlc)

	singletons := NewSingletonTable()
	pmdm, err := singletons.Lookup("pmdm", e)
	if err != nil {
		return nil, err
	}
	heapStart := params.PMDMAddr - pmdm.HeapRelStart

	mem := memory.New(params.ProgramStart, params.StackStart, params.StackSize,
		heapStart, uint64(params.HeapFreeSize),
		memory.Config{StrictRegion: true, Permission: true, HeapCheckAllocated: true})

	mainStart := mem.Program.Start

	for _, seg := range img.Segments {
		mem.AddSegment(seg.Kind.perm(), seg.Size)
		if err := mem.LoadBytes(mainStart+seg.LoadAddr, seg.Bytes); err != nil {
			return nil, fmt.Errorf("boot: loading segment at 0x%x: %w", seg.LoadAddr, err)
		}
	}

	for _, r := range img.Relocations {
		// Extern symbols resolve through the hook provider at call time;
		// the loader only needs the GOT slot to exist in the program image.
		var zero [8]byte
		if err := mem.LoadBytes(mainStart+r.GotSlotPhysAddr, zero[:]); err != nil {
			return nil, fmt.Errorf("boot: relocating GOT slot 0x%x: %w", r.GotSlotPhysAddr, err)
		}
	}

	infos := singletons.All(e)
	if !NonOverlapping(infos) {
		return nil, fmt.Errorf("boot: singleton layout overlaps for %s", e)
	}
	for _, info := range infos {
		if _, err := mem.Heap().AllocAt(info.HeapRelStart, info.Size); err != nil {
			return nil, fmt.Errorf("boot: reserving singleton %q: %w", info.Name, err)
		}
	}

	return &Process{
		Env:        e,
		Memory:     mem,
		Singletons: singletons,
		MainStart:  mainStart,
		HeapStart:  heapStart,
	}, nil
}

// SingletonInstance returns the absolute address of a singleton's instance,
// equivalent to the original's singleton_instance! macro: heap_start +
// rel_start for the instance pointer.
func (p *Process) SingletonInstance(name string) (uint64, error) {
	info, err := p.Singletons.Lookup(name, p.Env)
	if err != nil {
		return 0, err
	}
	return p.HeapStart + info.HeapRelStart, nil
}

// SingletonVTable returns main_start + main_offset for a singleton's vtable
// field, matching spec.md §8 scenario 6.
func (p *Process) SingletonVTable(name string) (uint64, error) {
	info, err := p.Singletons.Lookup(name, p.Env)
	if err != nil {
		return 0, err
	}
	return p.MainStart + info.MainOffset, nil
}
