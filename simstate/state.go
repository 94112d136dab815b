// Package simstate holds the per-step simulator state machine that sits
// above the guest emulator: current screen, the overworld actor list, named
// save slots, and overall game lifecycle. None of it touches guest memory
// directly — dispatch reads/writes guest memory through vm/gamestruct and
// mirrors the results here.
//
// Grounded on cgra/cgra.go's Side registry pattern (a small enum with a
// String() method and package-level table) and api/driver.go's task-queue
// bookkeeping style, adapted to screen/save-slot state.
package simstate

import "github.com/sarchlab/pouchvm/proxy"

// Screen is the UI screen the simulated game currently shows.
type Screen int

const (
	ScreenOverworld Screen = iota
	ScreenInventory
	ScreenShopBuying
	ScreenShopSelling
	ScreenLoading
)

func (s Screen) String() string {
	switch s {
	case ScreenOverworld:
		return "overworld"
	case ScreenInventory:
		return "inventory"
	case ScreenShopBuying:
		return "shop-buying"
	case ScreenShopSelling:
		return "shop-selling"
	case ScreenLoading:
		return "loading"
	default:
		return "screen(?)"
	}
}

// HoldState models the Inventory screen's "holding an item in hand" and
// Prompt-Entanglement sub-states. Neither is itself a Screen: both are only
// meaningful while Screen == ScreenInventory.
type HoldState struct {
	Holding bool
	// Entangled marks a prompt-entanglement in progress: two held items
	// whose trash/equip prompts are linked until resolved.
	Entangled bool
}

// GameState is the overall lifecycle of the simulated process.
type GameState int

const (
	GameUninit GameState = iota
	GameRunning
	GameCrashed
	GamePreviousCrash
	GameClosed
	GamePreviousClosed
)

func (g GameState) String() string {
	switch g {
	case GameUninit:
		return "uninit"
	case GameRunning:
		return "running"
	case GameCrashed:
		return "crashed"
	case GamePreviousCrash:
		return "previous-crash"
	case GameClosed:
		return "closed"
	case GamePreviousClosed:
		return "previous-closed"
	default:
		return "game(?)"
	}
}

// Actor is one overworld entity: a dropped or equipped item/creature, with
// its stack value and weapon modifier if any.
type Actor struct {
	Name     string
	Value    int32
	Modifier uint32
}

// Overworld is the ordered collection of actors currently placed in the
// world (dropped items, equipped-on-ground weapons, and so on).
type Overworld struct {
	actors []Actor
}

func NewOverworld() *Overworld { return &Overworld{} }

func (o *Overworld) Add(a Actor)       { o.actors = append(o.actors, a) }
func (o *Overworld) Actors() []Actor   { return append([]Actor(nil), o.actors...) }
func (o *Overworld) Len() int          { return len(o.actors) }
func (o *Overworld) Clear()            { o.actors = nil }

// RemoveAt removes the actor at index i, preserving order of the rest.
func (o *Overworld) RemoveAt(i int) bool {
	if i < 0 || i >= len(o.actors) {
		return false
	}
	o.actors = append(o.actors[:i], o.actors[i+1:]...)
	return true
}

func (o *Overworld) clone() *Overworld {
	return &Overworld{actors: append([]Actor(nil), o.actors...)}
}

// SaveSlot is one named (or anonymous manual) save: an immutable snapshot
// of the GDT proxy object taken at save time.
type SaveSlot struct {
	Name string
	Gdt  proxy.Object
}

// ManualSaveName is the key used for the single anonymous "manual save"
// slot (spec.md §4.6 "a single anonymous manual save is also tracked").
const ManualSaveName = ""

// State is the full per-step simulator state spec.md §3 names, outside of
// guest memory itself.
type State struct {
	Screen     Screen
	Hold       HoldState
	Overworld  *Overworld
	Saves      map[string]SaveSlot
	Game       GameState
	DLCVersion *uint32
}

// New returns the Uninit starting state.
func New() *State {
	return &State{
		Screen:    ScreenOverworld,
		Overworld: NewOverworld(),
		Saves:     make(map[string]SaveSlot),
		Game:      GameUninit,
	}
}

// Boot transitions Uninit -> Running, matching spec.md §3's lifecycle.
func (s *State) Boot() {
	s.Game = GameRunning
}

// Crash transitions the game to Crashed; later calls observe PreviousCrash
// until the process is rebuilt.
func (s *State) Crash() {
	s.Game = GameCrashed
}

// ObservePreviousFault rolls Crashed/Closed forward to their "previous"
// variants once a step has already reported the transition, matching
// spec.md's "subsequent steps observe PreviousCrash and refuse to execute
// further guest code."
func (s *State) ObservePreviousFault() {
	switch s.Game {
	case GameCrashed:
		s.Game = GamePreviousCrash
	case GameClosed:
		s.Game = GamePreviousClosed
	}
}

// Close transitions to Closed, modeling explicit game shutdown.
func (s *State) Close() {
	s.Game = GameClosed
}

// CanExecuteGuestCode reports whether commands may still invoke guest
// routines: false for Uninit, Crashed, PreviousCrash, Closed,
// PreviousClosed.
func (s *State) CanExecuteGuestCode() bool {
	return s.Game == GameRunning
}

// Save records slot as a named (or anonymous, name == ManualSaveName) save.
func (s *State) Save(name string, gdt proxy.Object) {
	s.Saves[name] = SaveSlot{Name: name, Gdt: gdt.Snapshot()}
}

// Load returns the named save's GDT snapshot, or ok=false if absent.
func (s *State) Load(name string) (proxy.Object, bool) {
	slot, ok := s.Saves[name]
	if !ok {
		return nil, false
	}
	return slot.Gdt, true
}

// Clone produces an independent copy of s, used so the dispatcher can take
// a pre-command snapshot for history/cancellation without aliasing mutable
// state (spec.md §5 "a cancelled command still yields a partial state
// snapshot").
func (s *State) Clone() *State {
	out := &State{
		Screen:    s.Screen,
		Hold:      s.Hold,
		Overworld: s.Overworld.clone(),
		Saves:     make(map[string]SaveSlot, len(s.Saves)),
		Game:      s.Game,
	}
	for k, v := range s.Saves {
		out.Saves[k] = SaveSlot{Name: v.Name, Gdt: v.Gdt.Snapshot()}
	}
	if s.DLCVersion != nil {
		v := *s.DLCVersion
		out.DLCVersion = &v
	}
	return out
}
