// Package handle implements the raw-handle reference-counting contract
// used at the process-tuple FFI boundary: leak/add_ref/free.
//
// Grounded on memory/page.go's rc *int32 + atomic retain/release shape
// (the only reference-counting idiom already present in this codebase),
// generalized from a fixed-size page payload to an arbitrary T and from an
// internal retain/release pair to the public leak/add_ref/free contract
// spec.md §5 specifies for callers across the worker-thread boundary.
package handle

import (
	"fmt"
	"sync/atomic"
)

// Handle is a reference-counted, shareable pointer to a T. Every Leak call
// must be paired with exactly one Free; every AddRef call produces exactly
// one additional Free obligation. A Handle with count zero is no longer
// valid and Get panics rather than returning stale data.
type Handle[T any] struct {
	rc    *int32
	value *T
}

// Leak creates a new Handle owning value, with an initial reference count
// of one. The name mirrors spec.md §5's FFI vocabulary: the caller now owns
// exactly one Free obligation.
func Leak[T any](value T) Handle[T] {
	rc := int32(1)
	return Handle[T]{rc: &rc, value: &value}
}

// AddRef increments the reference count and returns a Handle pointing at
// the same underlying value. Per spec.md §5's debug check, the returned
// handle's pointer identity is required to equal the receiver's; callers
// in debug builds can assert h.Ptr() == h.AddRef().Ptr().
func (h Handle[T]) AddRef() Handle[T] {
	if h.rc == nil {
		panic("handle: AddRef on a zero-value Handle")
	}
	atomic.AddInt32(h.rc, 1)
	return h
}

// Free decrements the reference count. It is safe to call exactly once per
// Leak/AddRef obligation; calling it more times than that is a programmer
// error and panics, matching the teacher's habit of panicking on
// programmer misuse (config.DeviceBuilder) rather than silently
// corrupting state.
func (h Handle[T]) Free() {
	if h.rc == nil {
		panic("handle: Free on a zero-value Handle")
	}
	n := atomic.AddInt32(h.rc, -1)
	if n < 0 {
		panic("handle: Free called more times than Leak/AddRef")
	}
}

// Count reports the current reference count, for tests and debug checks.
func (h Handle[T]) Count() int32 {
	if h.rc == nil {
		return 0
	}
	return atomic.LoadInt32(h.rc)
}

// Ptr returns the raw pointer identity backing this handle, used for the
// "add_ref returns the same pointer" debug check spec.md §5 requires.
func (h Handle[T]) Ptr() *T {
	return h.value
}

// Get dereferences the handle. It panics if the handle has already been
// fully freed (count <= 0), since a freed handle must never be read.
func (h Handle[T]) Get() T {
	if h.Count() <= 0 {
		panic("handle: Get on a fully-freed Handle")
	}
	return *h.value
}

// CheckAddRefIdentity is the debug check spec.md §5 calls for: add_ref must
// return a handle whose raw pointer equals the input's. It is a plain
// function rather than a build-tag-gated assertion because every caller in
// this module already only calls it from _test.go files.
func CheckAddRefIdentity[T any](h Handle[T]) error {
	dup := h.AddRef()
	defer dup.Free()
	if h.Ptr() != dup.Ptr() {
		return fmt.Errorf("handle: add_ref returned a different pointer (%p != %p)", h.Ptr(), dup.Ptr())
	}
	return nil
}
