package boot

import (
	"fmt"

	"github.com/sarchlab/pouchvm/env"
)

// SingletonInfo is one manager's deterministic layout for a given env, per
// original_source/packages/blueflame-deps/src/singleton.rs's
// (name, rel_start, size, main_offset) tuple.
type SingletonInfo struct {
	Name        string
	HeapRelStart uint64
	Size        uint64
	MainOffset  uint64
}

// offsetTable is keyed by (name, game version); DLC version never shifts a
// singleton's offset in the original layout.
type offsetTable map[string]map[env.Version]SingletonInfo

// SingletonTable is the per-env singleton registry: PMDM, GdtManager,
// AocManager, InfoData all live at fixed offsets relative to the main
// module and the heap base, for a given game build.
type SingletonTable struct {
	entries offsetTable
}

// NewSingletonTable builds the registry for the pouch-relevant singletons.
// Offsets are placeholders consistent with spec.md §8 scenario 6 (pmdm main
// offset 0x2476c38); a real game dump would supply the rest.
func NewSingletonTable() *SingletonTable {
	return &SingletonTable{entries: offsetTable{
		"pmdm": {
			env.X150: {Name: "pmdm", HeapRelStart: 0, Size: 0x1c3a0, MainOffset: 0x2476c38},
			env.X160: {Name: "pmdm", HeapRelStart: 0, Size: 0x1c3a0, MainOffset: 0x2477a18},
		},
		"gdt_manager": {
			env.X150: {Name: "gdt_manager", HeapRelStart: 0x1c3a0, Size: 0x8e00, MainOffset: 0x24783c0},
			env.X160: {Name: "gdt_manager", HeapRelStart: 0x1c3a0, Size: 0x8e00, MainOffset: 0x24791a0},
		},
		"aoc_manager": {
			env.X150: {Name: "aoc_manager", HeapRelStart: 0x251a0, Size: 0x118, MainOffset: 0x2478f60},
			env.X160: {Name: "aoc_manager", HeapRelStart: 0x251a0, Size: 0x118, MainOffset: 0x2479d40},
		},
		"info_data": {
			env.X150: {Name: "info_data", HeapRelStart: 0x252b8, Size: 0x48, MainOffset: 0x2479480},
			env.X160: {Name: "info_data", HeapRelStart: 0x252b8, Size: 0x48, MainOffset: 0x247a260},
		},
	}}
}

// Lookup returns a singleton's layout under e, or an error if name is
// unknown for that version.
func (t *SingletonTable) Lookup(name string, e env.Env) (SingletonInfo, error) {
	perVersion, ok := t.entries[name]
	if !ok {
		return SingletonInfo{}, fmt.Errorf("boot: unknown singleton %q", name)
	}
	info, ok := perVersion[e.GameVersion]
	if !ok {
		return SingletonInfo{}, fmt.Errorf("boot: singleton %q has no layout for %s", name, e.GameVersion)
	}
	return info, nil
}

// All returns every registered singleton's layout for e, in a stable order,
// used to verify the non-overlap testable property of spec.md §8.
func (t *SingletonTable) All(e env.Env) []SingletonInfo {
	names := []string{"pmdm", "gdt_manager", "aoc_manager", "info_data"}
	out := make([]SingletonInfo, 0, len(names))
	for _, n := range names {
		if info, err := t.Lookup(n, e); err == nil {
			out = append(out, info)
		}
	}
	return out
}

// NonOverlapping checks spec.md §8's "for all singletons s,t with s != t,
// their [rel_start, rel_start+size) ranges do not overlap" property.
func NonOverlapping(infos []SingletonInfo) bool {
	for i := 0; i < len(infos); i++ {
		for j := i + 1; j < len(infos); j++ {
			a, b := infos[i], infos[j]
			aEnd := a.HeapRelStart + a.Size
			bEnd := b.HeapRelStart + b.Size
			if a.HeapRelStart < bEnd && b.HeapRelStart < aEnd {
				return false
			}
		}
	}
	return true
}
