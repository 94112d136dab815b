package dispatch

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/handle"
	"github.com/sarchlab/pouchvm/pool"
	"github.com/sarchlab/pouchvm/proxy"
	"github.com/sarchlab/pouchvm/simstate"
)

// ErrWrongScreen is returned by the switch_to_*_or_stop! guards when the
// current screen can't satisfy a command's precondition.
var ErrWrongScreen = errors.New("dispatch: command requires a different screen")

// ErrGameNotRunning mirrors simstate's CanExecuteGuestCode() == false case.
var ErrGameNotRunning = errors.New("dispatch: game is not in the Running state")

// Dispatcher executes one CIR command at a time against a PouchRuntime and
// a simstate.State, matching spec.md §4.6's single-writer-for-simulator-
// state rule: commands run to completion, one at a time, from the
// dispatcher's point of view (commands that touch pouch memory run their
// body on d.Pool through onCore when a Pool is attached, and wait for it).
type Dispatcher struct {
	Pouch *PouchRuntime
	State *simstate.State
	Proxy *proxy.Store
	// Aborted is polled between items in the loops of Get and of the
	// drop/sell selector path (removeSelected).
	Aborted *bool

	// Pool is the executor pool a memory-mutating command's closure runs
	// on, per spec.md §5's "writes go through an exclusive handle produced
	// by the dispatcher before dispatching work." Nil is accepted (and
	// runs the closure inline on the calling goroutine) so tests that only
	// care about PouchRuntime semantics don't need to stand up a Pool.
	Pool *pool.Pool

	// pendingTrashSlot records a slot picked by Trash, consumed by the
	// next Hold. Trash/Hold are script-level names (spec.md §8 scenario
	// 7's `trash(tab=0,slot=0); hold()`) that compile down to this
	// pairing rather than being their own CIR commands — the script
	// grammar itself is out of scope (spec.md §1), but the observable
	// guest-state effect it must produce is in scope and tested.
	pendingTrashSlot *int32

	// processHandle is the leaked, reference-counted handle wrapping
	// d.Pouch that AttachProcess/DetachProcess pass to a worker's Cpu1 for
	// the duration of one onCore call, per the leak/add_ref/free contract
	// in package handle.
	processHandle *handle.Handle[any]
}

// process lazily leaks the process-tuple handle the first time it's
// needed, then returns the live reference on every later call.
func (d *Dispatcher) process() handle.Handle[any] {
	if d.processHandle == nil {
		h := handle.Leak[any](d.Pouch)
		d.processHandle = &h
	}
	return *d.processHandle
}

// onCore runs fn on d.Pool if one is attached, bracketing the call with an
// AddRef'd process handle installed on the worker's Cpu1 for the duration
// (spec.md §5's "exclusive handle produced by the dispatcher before
// dispatching work"); with no Pool attached, fn just runs inline, which
// keeps PouchRuntime-only tests free of any executor-pool setup.
func (d *Dispatcher) onCore(fn func() Result) Result {
	if d.Pool == nil {
		return fn()
	}
	h := d.process().AddRef()
	result, err := pool.RunOnCore(d.Pool, func(cpu *pool.Cpu1) Result {
		cpu.AttachProcess(h)
		defer cpu.DetachProcess()
		return fn()
	})
	h.Free()
	if err != nil {
		return fail(err)
	}
	return result
}

// Close releases the dispatcher's leaked process handle. Safe to call even
// if no command ever ran (process() was never invoked, so there is nothing
// to free).
func (d *Dispatcher) Close() {
	if d.processHandle != nil {
		d.processHandle.Free()
		d.processHandle = nil
	}
}

// Result is returned by every command: a Warning is advisory (selector
// over-request, legacy break-slot usage); Err is fatal to the command.
type Result struct {
	Warning string
	Err     error
}

func ok() Result                 { return Result{} }
func warn(msg string) Result     { return Result{Warning: msg} }
func fail(err error) Result      { return Result{Err: err} }
func failf(f string, a ...any) Result { return Result{Err: fmt.Errorf(f, a...)} }

func (d *Dispatcher) aborted() bool {
	return d.Aborted != nil && *d.Aborted
}

func (d *Dispatcher) requireRunning() error {
	if !d.State.CanExecuteGuestCode() {
		return ErrGameNotRunning
	}
	return nil
}

// switchToInventoryOrStop enforces spec.md §4.6's
// `switch_to_inventory_or_stop!` guard.
func (d *Dispatcher) switchToInventoryOrStop() error {
	switch d.State.Screen {
	case simstate.ScreenInventory:
		return nil
	case simstate.ScreenOverworld:
		d.State.Screen = simstate.ScreenInventory
		return nil
	default:
		return ErrWrongScreen
	}
}

// switchToOverworldOrStop enforces `switch_to_overworld_or_stop!`,
// automatically unholding (system-tab-save semantics) on the way out.
func (d *Dispatcher) switchToOverworldOrStop() error {
	switch d.State.Screen {
	case simstate.ScreenOverworld:
		return nil
	case simstate.ScreenInventory:
		d.State.Hold = simstate.HoldState{}
		d.State.Screen = simstate.ScreenOverworld
		return nil
	default:
		return ErrWrongScreen
	}
}

// Get implements the `get` command: materializes item(s) directly into the
// pouch (as if GameDataFunction::addItem had run to completion).
func (d *Dispatcher) Get(item gamestruct.PouchItem, count int) Result {
	if err := d.requireRunning(); err != nil {
		return fail(err)
	}
	return d.onCore(func() Result {
		for i := 0; i < count; i++ {
			if d.aborted() {
				return warn("get cancelled partway through")
			}
			if _, err := d.Pouch.AppendItem(item); err != nil {
				return fail(err)
			}
		}
		return ok()
	})
}

// CookGet is `cook-get`: like Get but the item carries cook-effect fields;
// struct-wise it's identical, the distinction matters only to the caller's
// PouchItem construction.
func (d *Dispatcher) CookGet(item gamestruct.PouchItem) Result {
	return d.Get(item, 1)
}

// Drop implements `drop`: removes the selected items from the pouch and
// places a corresponding actor into the overworld.
func (d *Dispatcher) Drop(spec ItemSelectSpec) Result {
	if err := d.switchToOverworldOrStop(); err != nil {
		return fail(err)
	}
	return d.removeSelected(spec, func(item gamestruct.PouchItem, slot int32) {
		name, _ := gamestruct.ReadCString(d.Pouch.Mem, item.Name, d.Pouch.Allow)
		d.State.Overworld.Add(simstate.Actor{
			Name:     name,
			Value:    item.Value,
			Modifier: item.WeaponModifierFlags,
		})
	})
}

// Sell implements `sell`: removes the selected items without an overworld
// side effect (the rupee accounting lives in the GDT proxy, out of scope
// for the struct-level pouch model).
func (d *Dispatcher) Sell(spec ItemSelectSpec) Result {
	if err := d.switchToInventoryOrStop(); err != nil {
		return fail(err)
	}
	return d.removeSelected(spec, nil)
}

func (d *Dispatcher) removeSelected(spec ItemSelectSpec, onEach func(gamestruct.PouchItem, int32)) Result {
	return d.onCore(func() Result {
		items, err := d.Pouch.Items()
		if err != nil {
			return fail(err)
		}
		res, err := d.Pouch.Resolve(items, spec)
		if err != nil {
			return fail(err)
		}
		for _, slot := range res.Slots {
			if d.aborted() {
				return warn("command cancelled partway through")
			}
			item, err := d.Pouch.ItemAt(slot)
			if err != nil {
				return fail(err)
			}
			if err := d.Pouch.FreeSlot(slot); err != nil {
				return fail(err)
			}
			if onEach != nil {
				onEach(item, slot)
			}
		}
		if res.Warning != "" {
			return warn(res.Warning)
		}
		return ok()
	})
}

// PickUp implements `pick-up`: it removes the first overworld actor whose
// name matches and appends a pouch item carrying that actor's value and
// modifier. The appended item's name, type and other fields are left zero;
// they are not restored from the item that Drop removed.
func (d *Dispatcher) PickUp(name string) Result {
	if err := d.switchToOverworldOrStop(); err != nil {
		return fail(err)
	}
	actors := d.State.Overworld.Actors()
	for i, a := range actors {
		if a.Name == name {
			res := d.onCore(func() Result {
				if _, err := d.Pouch.AppendItem(gamestruct.PouchItem{Value: a.Value, WeaponModifierFlags: a.Modifier}); err != nil {
					return fail(err)
				}
				return ok()
			})
			if res.Err != nil {
				return res
			}
			d.State.Overworld.RemoveAt(i)
			return res
		}
	}
	return failf("dispatch: no overworld actor named %q", name)
}

// Trash selects the item at the given view index (tab is accepted for
// script-level compatibility but not modeled as a separate sub-view) as
// the target of the next Hold — see pendingTrashSlot's doc comment.
func (d *Dispatcher) Trash(tab, slotIndex int) Result {
	_ = tab
	items, err := d.Pouch.Items()
	if err != nil {
		return fail(err)
	}
	if slotIndex < 0 || slotIndex >= len(items) {
		return failf("dispatch: trash: slot index %d out of range (%d items)", slotIndex, len(items))
	}
	slot := items[slotIndex]
	d.pendingTrashSlot = &slot
	return ok()
}

// Hold implements `hold`: marks the Inventory screen's holding sub-state,
// and if a Trash selection is pending, grabs that item into
// pmdm.grabbed_items[0].
func (d *Dispatcher) Hold() Result {
	if err := d.switchToInventoryOrStop(); err != nil {
		return fail(err)
	}
	d.State.Hold.Holding = true
	if d.pendingTrashSlot != nil {
		slot := *d.pendingTrashSlot
		res := d.onCore(func() Result {
			itemPtr := d.Pouch.PMDM.ItemBuffer().Slot(int(slot))
			grabbed := gamestruct.GrabbedItem{MItem: itemPtr.Addr, MValue: 0}
			if err := d.Pouch.PMDM.GrabbedItem(0).Store(d.Pouch.Mem, grabbed, d.Pouch.Allow); err != nil {
				return fail(err)
			}
			return ok()
		})
		if res.Err != nil {
			return res
		}
		d.pendingTrashSlot = nil
	}
	return ok()
}

// Unhold implements `unhold`.
func (d *Dispatcher) Unhold() Result {
	d.State.Hold.Holding = false
	d.State.Hold.Entangled = false
	return ok()
}

// Entangle implements `entangle`: links the current hold into a
// Prompt-Entanglement pair. Requires an active hold.
func (d *Dispatcher) Entangle() Result {
	if !d.State.Hold.Holding {
		return failf("dispatch: entangle requires an active hold")
	}
	d.State.Hold.Entangled = true
	return ok()
}

// Equip implements `equip`: links the selected item's slot into list2 as
// well as list1.
func (d *Dispatcher) Equip(spec ItemSelectSpec) Result {
	return d.setEquipped(spec, true)
}

// Unequip implements `unequip`.
func (d *Dispatcher) Unequip(spec ItemSelectSpec) Result {
	return d.setEquipped(spec, false)
}

func (d *Dispatcher) setEquipped(spec ItemSelectSpec, equipped bool) Result {
	if err := d.switchToInventoryOrStop(); err != nil {
		return fail(err)
	}
	return d.onCore(func() Result {
		items, err := d.Pouch.Items()
		if err != nil {
			return fail(err)
		}
		res, err := d.Pouch.Resolve(items, spec)
		if err != nil {
			return fail(err)
		}
		for _, slot := range res.Slots {
			item, err := d.Pouch.ItemAt(slot)
			if err != nil {
				return fail(err)
			}
			if item.Equipped == equipped {
				continue
			}
			item.Equipped = equipped
			if err := d.Pouch.SetItemAt(slot, item); err != nil {
				return fail(err)
			}
			if equipped {
				if err := d.Pouch.appendToList(d.Pouch.PMDM.List2(), slot); err != nil {
					return fail(err)
				}
			} else {
				if err := d.Pouch.RemoveFromList(d.Pouch.PMDM.List2(), slot); err != nil {
					return fail(err)
				}
			}
		}
		if res.Warning != "" {
			return warn(res.Warning)
		}
		return ok()
	})
}

// Sort implements `sort`.
func (d *Dispatcher) Sort(category gamestruct.ItemType, times int, accurate bool, sameDialog bool) Result {
	if err := d.switchToInventoryOrStop(); err != nil {
		return fail(err)
	}
	_ = sameDialog // affects only the (out-of-scope) UI dialog presentation
	return d.onCore(func() Result {
		if err := d.Pouch.SortItems(category, times, accurate); err != nil {
			return fail(err)
		}
		return ok()
	})
}

// Save implements `save` (named or anonymous manual save).
func (d *Dispatcher) Save(name string, gdt proxy.Object) Result {
	d.State.Save(name, gdt)
	return ok()
}

// Reload implements `reload`.
func (d *Dispatcher) Reload(name string) (proxy.Object, Result) {
	snapshot, found := d.State.Load(name)
	if !found {
		return nil, failf("dispatch: no save named %q", name)
	}
	return snapshot, ok()
}

// DLC implements `dlc`: sets the active DLC version tag.
func (d *Dispatcher) DLC(version uint32) Result {
	d.State.DLCVersion = &version
	return ok()
}

// ClearGround implements `clear-ground` / `clear-overworld`: empties the
// overworld actor list (the two CIR names are synonyms at this layer).
func (d *Dispatcher) ClearGround() Result {
	d.State.Overworld.Clear()
	return ok()
}

// SyncOverworld implements `sync-overworld`: a no-op placeholder at the
// struct level (there is no separate "pending" overworld buffer to flush
// in this model — actors are written directly on Drop/PickUp).
func (d *Dispatcher) SyncOverworld() Result {
	return ok()
}

// RegenStage implements `regen-stage`: transitions through Loading and
// clears the overworld, as the game does on a stage reload.
func (d *Dispatcher) RegenStage() Result {
	prev := d.State.Screen
	d.State.Screen = simstate.ScreenLoading
	d.State.Overworld.Clear()
	d.State.Screen = prev
	return ok()
}

// SpawnItem implements `spawn-item`: places an actor directly into the
// overworld without touching the pouch.
func (d *Dispatcher) SpawnItem(actor simstate.Actor) Result {
	d.State.Overworld.Add(actor)
	return ok()
}

// Overload implements `overload`/`unoverload` via the `enable` flag: marks
// an item's weapon-modifier overload bit.
func (d *Dispatcher) Overload(spec ItemSelectSpec, enable bool) Result {
	return d.onCore(func() Result {
		items, err := d.Pouch.Items()
		if err != nil {
			return fail(err)
		}
		res, err := d.Pouch.Resolve(items, spec)
		if err != nil {
			return fail(err)
		}
		const overloadBit = 1 << 31
		for _, slot := range res.Slots {
			item, err := d.Pouch.ItemAt(slot)
			if err != nil {
				return fail(err)
			}
			if enable {
				item.WeaponModifierFlags |= overloadBit
			} else {
				item.WeaponModifierFlags &^= overloadBit
			}
			if err := d.Pouch.SetItemAt(slot, item); err != nil {
				return fail(err)
			}
		}
		return ok()
	})
}

// Swap implements `swap`: exchanges the list positions of two slots
// without touching either item's contents, via a Prev/Next index swap
// (spec.md §9's "node relocation is just an index swap").
func (d *Dispatcher) Swap(slotA, slotB int32) Result {
	return d.onCore(func() Result {
		buf := d.Pouch.PMDM.ItemBuffer()
		a, err := buf.Slot(int(slotA)).Load(d.Pouch.Mem, d.Pouch.Allow)
		if err != nil {
			return fail(err)
		}
		b, err := buf.Slot(int(slotB)).Load(d.Pouch.Mem, d.Pouch.Allow)
		if err != nil {
			return fail(err)
		}

		fix := func(neighbor int32, was, now int32, setPrev bool) error {
			if neighbor == gamestruct.NullSlot || neighbor == slotA || neighbor == slotB {
				return nil
			}
			n, err := buf.Slot(int(neighbor)).Load(d.Pouch.Mem, d.Pouch.Allow)
			if err != nil {
				return err
			}
			if setPrev {
				n.Prev = now
			} else {
				n.Next = now
			}
			return buf.Slot(int(neighbor)).Store(d.Pouch.Mem, n, d.Pouch.Allow)
		}
		if err := fix(a.Prev, slotA, slotB, false); err != nil {
			return fail(err)
		}
		if err := fix(a.Next, slotA, slotB, true); err != nil {
			return fail(err)
		}
		if err := fix(b.Prev, slotB, slotA, false); err != nil {
			return fail(err)
		}
		if err := fix(b.Next, slotB, slotA, true); err != nil {
			return fail(err)
		}

		a.Prev, b.Prev = b.Prev, a.Prev
		a.Next, b.Next = b.Next, a.Next
		if a.Prev == slotA {
			a.Prev = slotB
		}
		if a.Next == slotA {
			a.Next = slotB
		}
		if b.Prev == slotB {
			b.Prev = slotA
		}
		if b.Next == slotB {
			b.Next = slotA
		}

		if err := buf.Slot(int(slotA)).Store(d.Pouch.Mem, a, d.Pouch.Allow); err != nil {
			return fail(err)
		}
		if err := buf.Slot(int(slotB)).Store(d.Pouch.Mem, b, d.Pouch.Allow); err != nil {
			return fail(err)
		}

		list, err := d.Pouch.PMDM.List1().Load(d.Pouch.Mem, d.Pouch.Allow)
		if err != nil {
			return fail(err)
		}
		if list.Head == slotA {
			list.Head = slotB
		} else if list.Head == slotB {
			list.Head = slotA
		}
		if list.Tail == slotA {
			list.Tail = slotB
		} else if list.Tail == slotB {
			list.Tail = slotA
		}
		if err := d.Pouch.PMDM.List1().Store(d.Pouch.Mem, list, d.Pouch.Allow); err != nil {
			return fail(err)
		}
		return ok()
	})
}

// WriteMeta implements `write-meta`: sets a single GDT flag by name/type
// through the proxy object, used for scripted GDT pokes outside the normal
// gameplay path.
func (d *Dispatcher) WriteMeta(gdt *proxy.Gdt, name string, value any) Result {
	return d.onCore(func() Result {
		switch v := value.(type) {
		case bool:
			gdt.SetBool(name, v)
		case int32:
			gdt.SetS32(name, v)
		case float32:
			gdt.SetF32(name, v)
		case string:
			gdt.SetString(name, v)
		default:
			return failf("dispatch: write-meta: unsupported value type %T", value)
		}
		return ok()
	})
}

// BreakSlot implements the legacy `break-slot` supercommand: directly
// mutates list1/list2's mCount without touching the traversed chain. Kept
// only for script compatibility; spec.md §9 flags it as invariant-breaking
// and asks implementations to warn.
func (d *Dispatcher) BreakSlot(delta1, delta2 int32) Result {
	return d.onCore(func() Result {
		list1, err := d.Pouch.PMDM.List1().Load(d.Pouch.Mem, d.Pouch.Allow)
		if err != nil {
			return fail(err)
		}
		list1.Count += delta1
		if err := d.Pouch.PMDM.List1().Store(d.Pouch.Mem, list1, d.Pouch.Allow); err != nil {
			return fail(err)
		}

		list2, err := d.Pouch.PMDM.List2().Load(d.Pouch.Mem, d.Pouch.Allow)
		if err != nil {
			return fail(err)
		}
		list2.Count += delta2
		if err := d.Pouch.PMDM.List2().Store(d.Pouch.Mem, list2, d.Pouch.Allow); err != nil {
			return fail(err)
		}

		return warn("break-slot directly mutated mCount; list/count coherence is no longer guaranteed")
	})
}
