package dispatch

import (
	"strconv"
	"strings"

	"github.com/sarchlab/pouchvm/gamestruct"
)

// ItemSelectSpec is the resolved form of a CIR selector clause: `N x item`,
// `all item`, or a bare category selector. Exactly one of Actor/Category
// should be meaningful per spec.md §4.6.
type ItemSelectSpec struct {
	Actor       string // resolved actor name; empty selects by category only
	HasCategory bool
	Category    gamestruct.ItemType
	All         bool
	Amount      int
}

// SelectResult is what resolving a selector against the live pouch yields.
type SelectResult struct {
	Slots   []int32
	Warning string
}

// Resolve walks candidateSlots (normally PouchRuntime.Items(), in the
// screen's current ordering) and picks the ones matching spec, honoring
// `all`/`N x`/category semantics and the amount>available warning rule.
func (r *PouchRuntime) Resolve(candidateSlots []int32, spec ItemSelectSpec) (SelectResult, error) {
	var matches []int32
	for _, slot := range candidateSlots {
		item, err := r.ItemAt(slot)
		if err != nil {
			return SelectResult{}, err
		}
		ok, err := r.matchesSpec(item, spec)
		if err != nil {
			return SelectResult{}, err
		}
		if ok {
			matches = append(matches, slot)
		}
	}

	if spec.All {
		return SelectResult{Slots: matches}, nil
	}

	if spec.Amount <= 0 {
		return SelectResult{}, nil
	}
	if spec.Amount >= len(matches) {
		var warn string
		if spec.Amount > len(matches) {
			warn = warnAmountExceeds(spec.Amount, len(matches))
		}
		return SelectResult{Slots: matches, Warning: warn}, nil
	}
	return SelectResult{Slots: matches[:spec.Amount]}, nil
}

func (r *PouchRuntime) matchesSpec(item gamestruct.PouchItem, spec ItemSelectSpec) (bool, error) {
	if spec.Actor != "" {
		name, err := gamestruct.ReadCString(r.Mem, item.Name, r.Allow)
		if err != nil {
			return false, err
		}
		if !strings.EqualFold(name, spec.Actor) {
			return false, nil
		}
	}
	if spec.HasCategory && item.Type != spec.Category {
		return false, nil
	}
	return true, nil
}

// warnAmountExceeds formats the "amount > available" warning spec.md §4.6
// requires when a selector's requested quantity outstrips what's on hand.
func warnAmountExceeds(requested, available int) string {
	return "requested " + strconv.Itoa(requested) + " but only " +
		strconv.Itoa(available) + " available; selecting all available"
}
