// Package view implements the read-only snapshot extractor: it turns a
// live dispatch.PouchRuntime + simstate.State into serializable, UI-facing
// data without ever mutating either.
//
// Grounded on core/util.go's PEStateLog/CycleAccumulator pattern (plain,
// JSON-tagged summary structs decoupled from the live simulation state)
// and its go-pretty table dump for a human-readable rendering.
package view

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/simstate"
)

// ErrMemory wraps a typed-load failure encountered while building a view.
var ErrMemory = errors.New("view: memory read failed")

// ErrCoherence reports an on-heap invariant violation (mCount vs. actual
// traversed list length).
var ErrCoherence = errors.New("view: pouch list/count coherence violated")

// ErrGameNotViewable is returned when game is Uninit/Closed/Crashed;
// spec.md §4.8 calls this an "opaque error" short-circuit.
type ErrGameNotViewable struct{ State simstate.GameState }

func (e ErrGameNotViewable) Error() string {
	return fmt.Sprintf("view: game state %s cannot be viewed", e.State)
}

// ItemView is one pouch entry as seen from outside guest memory.
type ItemView struct {
	Slot     int32  `json:"slot"`
	Name     string `json:"name"`
	Type     int32  `json:"type"`
	Use      int32  `json:"use"`
	Value    int32  `json:"value"`
	Equipped bool   `json:"equipped"`
}

// PouchList is the ordered view of list1's contents.
type PouchList struct {
	Items []ItemView `json:"items"`
}

// OverworldView mirrors simstate.Actor for external consumption.
type OverworldView struct {
	Actors []simstate.Actor `json:"actors"`
}

// GdtView is a flattened, display-oriented snapshot of a GDT proxy object.
type GdtView struct {
	Bools   map[string]bool    `json:"bools"`
	S32s    map[string]int32   `json:"s32s"`
	F32s    map[string]float32 `json:"f32s"`
	Strings map[string]string  `json:"strings"`
}

// Reader is the minimal surface view needs from dispatch.PouchRuntime;
// declared here (rather than importing package dispatch, which would
// create an import cycle since dispatch's tests will want to check view
// output) and satisfied structurally.
type Reader interface {
	Items() ([]int32, error)
	ItemAt(slot int32) (gamestruct.PouchItem, error)
	ItemName(slot int32) (string, error)
}

// CoherenceChecker is an optional capability a Reader may satisfy (as
// dispatch.PouchRuntime does) to let Pouch verify list/count invariants
// before handing out a snapshot.
type CoherenceChecker interface {
	CoherenceCheck() error
}

func checkGameState(g simstate.GameState) error {
	switch g {
	case simstate.GameUninit, simstate.GameClosed, simstate.GamePreviousClosed,
		simstate.GameCrashed, simstate.GamePreviousCrash:
		return ErrGameNotViewable{State: g}
	default:
		return nil
	}
}

// Pouch extracts the current PouchList, failing ErrCoherence if list1's
// stated item count has drifted from memory's reality.
func Pouch(r Reader, game simstate.GameState) (PouchList, error) {
	if err := checkGameState(game); err != nil {
		return PouchList{}, err
	}
	if cc, ok := r.(CoherenceChecker); ok {
		if err := cc.CoherenceCheck(); err != nil {
			return PouchList{}, fmt.Errorf("%w: %v", ErrCoherence, err)
		}
	}
	slots, err := r.Items()
	if err != nil {
		return PouchList{}, fmt.Errorf("%w: %v", ErrMemory, err)
	}
	out := PouchList{Items: make([]ItemView, 0, len(slots))}
	for _, slot := range slots {
		item, err := r.ItemAt(slot)
		if err != nil {
			return PouchList{}, fmt.Errorf("%w: %v", ErrMemory, err)
		}
		name, err := r.ItemName(slot)
		if err != nil {
			return PouchList{}, fmt.Errorf("%w: %v", ErrMemory, err)
		}
		out.Items = append(out.Items, ItemView{
			Slot: slot, Name: name, Type: int32(item.Type), Use: int32(item.Use),
			Value: item.Value, Equipped: item.Equipped,
		})
	}
	return out, nil
}

// Overworld extracts the overworld actor list.
func Overworld(s *simstate.State, game simstate.GameState) (OverworldView, error) {
	if err := checkGameState(game); err != nil {
		return OverworldView{}, err
	}
	return OverworldView{Actors: s.Overworld.Actors()}, nil
}

// Gdt flattens a proxy.Gdt-shaped object into a GdtView. Accepting the
// four maps directly (rather than importing package proxy) keeps view
// dependency-free of the proxy store's mutation API.
func Gdt(bools map[string]bool, s32s map[string]int32, f32s map[string]float32, strings map[string]string, game simstate.GameState) (GdtView, error) {
	if err := checkGameState(game); err != nil {
		return GdtView{}, err
	}
	return GdtView{Bools: bools, S32s: s32s, F32s: f32s, Strings: strings}, nil
}

// RenderPouchTable renders a PouchList as an ASCII table, used by the CLI.
func RenderPouchTable(list PouchList) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Slot", "Name", "Type", "Use", "Value", "Equipped"})
	for _, it := range list.Items {
		t.AppendRow(table.Row{it.Slot, it.Name, it.Type, it.Use, it.Value, it.Equipped})
	}
	return t.Render()
}
