// Package proxy implements the host-side object table for guest structures
// too complex (or pointless) to emulate byte-for-byte — chiefly the GDT
// flag container (TriggerParam). The guest holds an ordinary pointer value;
// the host resolves it through this table instead of through memory.
//
// Grounded on operand-impl/register.go's typed-operand interface
// (Retrieve/Push addressed by an opaque id rather than raw bytes) and
// original_source/packages/blueflame/src/game/proxy/gdt/flag.rs for the
// shape of the object proxies most commonly wrap.
package proxy

import "fmt"

// ID is the guest pointer value a proxy object is addressed by.
type ID uint64

// Object is anything the proxy store can hold. Snapshot must return an
// independent copy so that Save/Reload (simstate) and command cancellation
// never observe another goroutine's in-progress mutation.
type Object interface {
	Snapshot() Object
}

// Store is a copy-on-write map from guest pointer to host object. Proxies
// outlive any single command.
type Store struct {
	objects map[ID]Object
	nextID  ID
}

func NewStore() *Store {
	return &Store{objects: make(map[ID]Object), nextID: 1}
}

// Alloc registers obj under a freshly minted ID and returns it, for
// proxies created during boot (e.g. the GDT TriggerParam singleton).
func (s *Store) Alloc(obj Object) ID {
	id := s.nextID
	s.nextID++
	s.objects[id] = obj
	return id
}

// Get resolves id to its object, or reports ok=false if nothing is bound.
func (s *Store) Get(id ID) (Object, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// Set rebinds id to obj, replacing whatever was there (used by Reload to
// write a saved snapshot back into the live proxy).
func (s *Store) Set(id ID, obj Object) {
	s.objects[id] = obj
}

// Clone produces an independent Store: every bound object is snapshotted,
// making later mutation of the clone or the original independent of one
// another, matching spec.md §3's "proxies are copy-on-write when
// snapshotted".
func (s *Store) Clone() *Store {
	out := &Store{objects: make(map[ID]Object, len(s.objects)), nextID: s.nextID}
	for id, obj := range s.objects {
		out.objects[id] = obj.Snapshot()
	}
	return out
}

// ErrNotFound is returned by Get-by-id helpers in higher layers when a
// proxy ID does not resolve.
type ErrNotFound struct{ ID ID }

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("proxy: no object bound to id %d", e.ID)
}
