package vm

import "github.com/sarchlab/pouchvm/cpuerr"

func jumpIntoReplacedRegion(pc uint64) error {
	return cpuerr.New(cpuerr.StrictReplacement, pc)
}

// HookKind distinguishes the two hook forms spec.md §4.5 describes.
type HookKind int

const (
	// HookStart runs extra host logic before the original instruction still
	// executes normally afterward.
	HookStart HookKind = iota
	// HookReplace substitutes ByteLen bytes of guest code with a host
	// closure; the original bytes are never executed.
	HookReplace
)

// Hook is one (main_offset, env) -> behavior binding.
type Hook struct {
	Kind    HookKind
	ByteLen int
	Run     func(v *VirtualMachine) error
}

// HookProvider chains hook sets outer->inner: the first provider to claim an
// address wins. Chaining mirrors akita's monitoring.Monitor registration
// idiom (config.go's WithMonitor), generalized from "attach observers" to
// "attach behavior at an address".
type HookProvider struct {
	hooks           map[uint64]Hook
	inner           *HookProvider
	strictReplace   bool
	replaceRangeEnd map[uint64]uint64 // hook addr -> addr+ByteLen, for strict checks
}

// NewHookProvider builds an empty provider, optionally chained to inner.
func NewHookProvider(inner *HookProvider, strictReplace bool) *HookProvider {
	return &HookProvider{
		hooks:           make(map[uint64]Hook),
		inner:           inner,
		strictReplace:   strictReplace,
		replaceRangeEnd: make(map[uint64]uint64),
	}
}

// Register binds a hook at a main-module-relative address already resolved
// to an absolute guest address.
func (p *HookProvider) Register(addr uint64, h Hook) {
	p.hooks[addr] = h
	if h.Kind == HookReplace && h.ByteLen > 0 {
		p.replaceRangeEnd[addr] = addr + uint64(h.ByteLen)
	}
}

// Run looks up a hook for pc, checking this provider then the chained inner
// one. handled is true when a Replace hook fired (the caller must not also
// execute the original instruction at pc).
func (p *HookProvider) Run(v *VirtualMachine, pc uint64) (handled bool, err error) {
	if p == nil {
		return false, nil
	}
	if h, ok := p.hooks[pc]; ok {
		if err := h.Run(v); err != nil {
			return false, err
		}
		return h.Kind == HookReplace, nil
	}
	if p.strictReplace {
		for start, end := range p.replaceRangeEnd {
			if pc > start && pc < end {
				return false, jumpIntoReplacedRegion(pc)
			}
		}
	}
	return p.inner.Run(v, pc)
}
