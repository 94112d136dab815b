// Package dispatch implements the command-intermediate-representation (CIR)
// step interpreter: the layer that receives one parsed command at a time,
// resolves its item selectors against the live pouch, and mutates
// simulator + guest state accordingly.
//
// Grounded on api/driver.go's task-queuing driverImpl (FeedIn/Collect
// enqueue tasks that Run later executes), generalized here to spec.md §4.6/
// §4.7's two-tier split: steps that only touch simstate (save/reload, ground
// spawns, overworld bookkeeping) run directly on the calling goroutine, while
// every step that reads or writes guest pouch memory is handed to
// Dispatcher.onCore, which leases a worker off pool.Pool and attaches an
// AddRef'd handle.Handle over the process tuple for the duration of the
// call (spec.md §5's "writes go through an exclusive handle produced by the
// dispatcher before dispatching work"). No guest program image ships with
// this build, so the worker's Cpu1 never actually owns a running
// *vm.VirtualMachine executing AArch64 bytecode for these calls; see
// DESIGN.md for why that narrower gap is unavoidable.
package dispatch

import (
	"fmt"

	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/memory"
)

// PouchRuntime mutates the guest-resident pouch (PMDM's item buffer and two
// lists) directly, standing in for the handful of game routines
// (ItemInsert, ItemRemove, ...) that a real build would invoke through the
// VM. See DESIGN.md section J's "Open Question decision" entry for why this is
// implemented natively instead of by driving guest bytecode: no concrete
// guest program image ships with this module, and the struct layout itself
// (PMDMLayout) is fully exercised either way.
type PouchRuntime struct {
	Mem   *memory.Memory
	PMDM  gamestruct.PMDMLayout
	Allow memory.RegionSet
}

// freeSlot scans the arena for a node not marked InInventory, starting
// from the highest index. The game's own free-slot search runs back to
// front (spec.md §8 scenario 7: the first item ever added to an empty
// pouch lands in item_buffer[419], the arena's last slot), so this mirrors
// that instead of the more obvious front-to-back scan.
func (r *PouchRuntime) freeSlot() (int32, error) {
	buf := r.PMDM.ItemBuffer()
	for i := gamestruct.ItemBufferSlots - 1; i >= 0; i-- {
		item, err := buf.Slot(i).Load(r.Mem, r.Allow)
		if err != nil {
			return 0, err
		}
		if !item.InInventory {
			return int32(i), nil
		}
	}
	return 0, fmt.Errorf("dispatch: pouch is full (%d slots)", gamestruct.ItemBufferSlots)
}

// AppendItem allocates a free arena slot for item, links it to the tail of
// list1 (and list2 too when equipped is true), and returns its slot index.
func (r *PouchRuntime) AppendItem(item gamestruct.PouchItem) (int32, error) {
	slot, err := r.freeSlot()
	if err != nil {
		return 0, err
	}
	item.InInventory = true
	item.Prev = gamestruct.NullSlot
	item.Next = gamestruct.NullSlot
	buf := r.PMDM.ItemBuffer()
	if err := buf.Slot(int(slot)).Store(r.Mem, item, r.Allow); err != nil {
		return 0, err
	}
	if err := r.appendToList(r.PMDM.List1(), slot); err != nil {
		return 0, err
	}
	if item.Equipped {
		if err := r.appendToList(r.PMDM.List2(), slot); err != nil {
			return 0, err
		}
	}
	return slot, nil
}

func (r *PouchRuntime) appendToList(listPtr memory.Ptr[gamestruct.ItemList], slot int32) error {
	list, err := listPtr.Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	buf := r.PMDM.ItemBuffer()
	if list.Count == 0 {
		list.Head = slot
		list.Tail = slot
		list.Count = 1
		return listPtr.Store(r.Mem, list, r.Allow)
	}
	tail, err := buf.Slot(int(list.Tail)).Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	tail.Next = slot
	if err := buf.Slot(int(list.Tail)).Store(r.Mem, tail, r.Allow); err != nil {
		return err
	}
	node, err := buf.Slot(int(slot)).Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	node.Prev = list.Tail
	if err := buf.Slot(int(slot)).Store(r.Mem, node, r.Allow); err != nil {
		return err
	}
	list.Tail = slot
	list.Count++
	return listPtr.Store(r.Mem, list, r.Allow)
}

// RemoveFromList unlinks slot from listPtr's chain, patching neighbors and
// decrementing Count. It does not check that slot is a member of the list;
// callers find it via Items() first.
func (r *PouchRuntime) RemoveFromList(listPtr memory.Ptr[gamestruct.ItemList], slot int32) error {
	list, err := listPtr.Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	buf := r.PMDM.ItemBuffer()
	node, err := buf.Slot(int(slot)).Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}

	if node.Prev != gamestruct.NullSlot {
		prev, err := buf.Slot(int(node.Prev)).Load(r.Mem, r.Allow)
		if err != nil {
			return err
		}
		prev.Next = node.Next
		if err := buf.Slot(int(node.Prev)).Store(r.Mem, prev, r.Allow); err != nil {
			return err
		}
	} else {
		list.Head = node.Next
	}

	if node.Next != gamestruct.NullSlot {
		next, err := buf.Slot(int(node.Next)).Load(r.Mem, r.Allow)
		if err != nil {
			return err
		}
		next.Prev = node.Prev
		if err := buf.Slot(int(node.Next)).Store(r.Mem, next, r.Allow); err != nil {
			return err
		}
	} else {
		list.Tail = node.Prev
	}

	list.Count--
	return listPtr.Store(r.Mem, list, r.Allow)
}

// FreeSlot removes item from both lists it may belong to and marks its
// arena slot free for reuse (drop/sell/trash all reduce to this).
func (r *PouchRuntime) FreeSlot(slot int32) error {
	buf := r.PMDM.ItemBuffer()
	item, err := buf.Slot(int(slot)).Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	if err := r.RemoveFromList(r.PMDM.List1(), slot); err != nil {
		return err
	}
	if item.Equipped {
		if err := r.RemoveFromList(r.PMDM.List2(), slot); err != nil {
			return err
		}
	}
	item.InInventory = false
	return buf.Slot(int(slot)).Store(r.Mem, item, r.Allow)
}

// Items returns the slot indices currently in list1, in list order.
func (r *PouchRuntime) Items() ([]int32, error) {
	list, err := r.PMDM.List1().Load(r.Mem, r.Allow)
	if err != nil {
		return nil, err
	}
	return list.Items(r.Mem, r.PMDM.ItemBuffer(), r.Allow)
}

// ItemAt loads the full record for a slot index.
func (r *PouchRuntime) ItemAt(slot int32) (gamestruct.PouchItem, error) {
	return r.PMDM.ItemBuffer().Slot(int(slot)).Load(r.Mem, r.Allow)
}

// SetItemAt stores a full record back to a slot index.
func (r *PouchRuntime) SetItemAt(slot int32, item gamestruct.PouchItem) error {
	return r.PMDM.ItemBuffer().Slot(int(slot)).Store(r.Mem, item, r.Allow)
}

// ItemName reads the C-string a slot's SafeString name points at, for the
// view layer (view.Reader) and selector matching.
func (r *PouchRuntime) ItemName(slot int32) (string, error) {
	item, err := r.ItemAt(slot)
	if err != nil {
		return "", err
	}
	return gamestruct.ReadCString(r.Mem, item.Name, r.Allow)
}

// CoherenceCheck reports an error unless list1's stated count equals its
// traversed length, and likewise for list2. The simulator's two lists are
// not disjoint (equipped items live in both), so no combined count across
// the two lists is checked.
func (r *PouchRuntime) CoherenceCheck() error {
	l1, err := r.PMDM.List1().Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	items, err := l1.Items(r.Mem, r.PMDM.ItemBuffer(), r.Allow)
	if err != nil {
		return err
	}
	if int32(len(items)) != l1.Count {
		return fmt.Errorf("dispatch: list1.mCount=%d but traversed length=%d", l1.Count, len(items))
	}
	l2, err := r.PMDM.List2().Load(r.Mem, r.Allow)
	if err != nil {
		return err
	}
	items2, err := l2.Items(r.Mem, r.PMDM.ItemBuffer(), r.Allow)
	if err != nil {
		return err
	}
	if int32(len(items2)) != l2.Count {
		return fmt.Errorf("dispatch: list2.mCount=%d but traversed length=%d", l2.Count, len(items2))
	}
	return nil
}
