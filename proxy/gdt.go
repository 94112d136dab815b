package proxy

import "gopkg.in/yaml.v3"

// Gdt is the host-side model of TriggerParam, the game's flag container.
// Rather than a single opaque blob, the original stores typed flag arrays
// addressed by a hashed name (original_source's
// packages/blueflame/src/game/proxy/gdt/flag.rs); this keeps that shape so
// write-meta/save/reload can address individual flags by name and type.
//
// The yaml tags let a save slot round-trip through ToYAML/GdtFromYAML the
// same way core's program listings are YAML on disk.
type Gdt struct {
	Bools   map[string]bool        `yaml:"bools"`
	S32s    map[string]int32       `yaml:"s32s"`
	F32s    map[string]float32     `yaml:"f32s"`
	Strings map[string]string      `yaml:"strings"`
	Vec3s   map[string][3]float32  `yaml:"vec3s"`
}

func NewGdt() *Gdt {
	return &Gdt{
		Bools:   make(map[string]bool),
		S32s:    make(map[string]int32),
		F32s:    make(map[string]float32),
		Strings: make(map[string]string),
		Vec3s:   make(map[string][3]float32),
	}
}

// Snapshot implements Object: it returns an independent copy of every flag
// table, so Save can stash the result and later Reloads never observe
// further live mutation.
func (g *Gdt) Snapshot() Object {
	out := NewGdt()
	for k, v := range g.Bools {
		out.Bools[k] = v
	}
	for k, v := range g.S32s {
		out.S32s[k] = v
	}
	for k, v := range g.F32s {
		out.F32s[k] = v
	}
	for k, v := range g.Strings {
		out.Strings[k] = v
	}
	for k, v := range g.Vec3s {
		out.Vec3s[k] = v
	}
	return out
}

// SetBool/GetBool etc. are the typed accessors the write-meta CIR command
// and the save/reload pipeline route through.
func (g *Gdt) SetBool(name string, v bool)    { g.Bools[name] = v }
func (g *Gdt) GetBool(name string) (bool, bool) { v, ok := g.Bools[name]; return v, ok }

func (g *Gdt) SetS32(name string, v int32)    { g.S32s[name] = v }
func (g *Gdt) GetS32(name string) (int32, bool) { v, ok := g.S32s[name]; return v, ok }

func (g *Gdt) SetF32(name string, v float32)    { g.F32s[name] = v }
func (g *Gdt) GetF32(name string) (float32, bool) { v, ok := g.F32s[name]; return v, ok }

func (g *Gdt) SetString(name string, v string)    { g.Strings[name] = v }
func (g *Gdt) GetString(name string) (string, bool) { v, ok := g.Strings[name]; return v, ok }

// ToYAML serializes g for on-disk save-slot export, so a save can survive
// past the process's lifetime instead of only living in simstate.State's
// in-memory Saves map.
func (g *Gdt) ToYAML() ([]byte, error) {
	return yaml.Marshal(g)
}

// GdtFromYAML is the inverse of ToYAML, used to import a previously
// exported save slot back into a live Store via Store.Set.
func GdtFromYAML(data []byte) (*Gdt, error) {
	g := NewGdt()
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, err
	}
	return g, nil
}
