package render_graph

import (
	"fmt"
	"reflect"
)

// acquireBox acquires a slot for kind and asserts its box to *T.
func acquireBox[T any](a *Arena, id ResourceID, kind AccessKind) (*T, bool) {
	want := reflect.TypeFor[T]()
	box, ok := a.acquire(id, kind, want)
	if !ok {
		return nil, false
	}
	if box == nil {
		return nil, true
	}
	v, isT := box.(*T)
	if !isT {
		panic(fmt.Errorf("%w: %s holds %T, handle expects %s", ErrTypeMismatch, id, box, want))
	}
	return v, true
}

func uninitialized[T any](id ResourceID, kind AccessKind) error {
	return fmt.Errorf("%w: %s access to %s (%s)", ErrUninitializedResource, kind, id, reflect.TypeFor[T]())
}

// guard is the scope shared by every guard type.
type guard struct {
	arena    *Arena
	id       ResourceID
	released bool
}

func (g *guard) check() {
	if g.released {
		panic(fmt.Errorf("%w: %s", ErrGuardReleased, g.id))
	}
}

// Release ends the guard's scope and returns the slot to Idle (or drops one
// shared reader). Calling Release more than once is a no-op.
func (g *guard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.arena.release(g.id)
}

// ReadGuard is a scoped shared read of a slot.
type ReadGuard[T any] struct {
	guard
	value *T
}

// Value returns the slot's value. Panics after Release.
func (g *ReadGuard[T]) Value() T {
	g.check()
	return *g.value
}

// WriteGuard is a scoped exclusive in-place mutation of a slot.
type WriteGuard[T any] struct {
	guard
	value *T
}

// Value returns a pointer to the slot's value for in-place mutation.
// The pointer must not be retained past Release.
func (g *WriteGuard[T]) Value() *T {
	g.check()
	return g.value
}

// Set overwrites the slot's value in place.
func (g *WriteGuard[T]) Set(value T) {
	g.check()
	*g.value = value
}

// ResultGuard is a scoped exclusive producer access to a slot. Unlike the other
// guards it does not require the slot to hold a value.
type ResultGuard[T any] struct {
	guard
}

// Set stores value in the slot and returns the previous value, if any.
func (g *ResultGuard[T]) Set(value T) (T, bool) {
	g.check()
	return unbox[T](g.arena.swap(g.id, &value))
}

// Replace stores value in the slot, dropping the previous value.
func (g *ResultGuard[T]) Replace(value T) {
	g.Set(value)
}

// Clear empties the slot and returns the previous value, if any.
func (g *ResultGuard[T]) Clear() (T, bool) {
	g.check()
	return unbox[T](g.arena.swap(g.id, nil))
}

// Get returns the slot's current value, if any.
func (g *ResultGuard[T]) Get() (T, bool) {
	g.check()
	return unbox[T](g.arena.current(g.id))
}

func unbox[T any](box any) (T, bool) {
	if box == nil {
		var zero T
		return zero, false
	}
	return *box.(*T), true
}

// Access resolves the handle to a shared read guard.
// Panics if the slot is empty, exclusively held, or holds another type.
//
// Parameters:
//   - a: the arena holding the slot
//
// Returns:
//   - *ReadGuard[T]: the guard; the caller must Release it before its encode call returns
func (h ReadHandle[T]) Access(a *Arena) *ReadGuard[T] {
	g, ok := h.TryAccess(a)
	if !ok {
		panic(uninitialized[T](h.id, AccessRead))
	}
	return g
}

// TryAccess is the fallible form of Access: it reports false instead of panicking
// when the slot is empty. Conflicts and type mismatches still panic.
func (h ReadHandle[T]) TryAccess(a *Arena) (*ReadGuard[T], bool) {
	v, ok := acquireBox[T](a, h.id, AccessRead)
	if !ok {
		return nil, false
	}
	return &ReadGuard[T]{guard: guard{arena: a, id: h.id}, value: v}, true
}

// Access resolves the handle to an exclusive write guard.
// Panics if the slot is empty, held by anyone else, or holds another type.
//
// Parameters:
//   - a: the arena holding the slot
//
// Returns:
//   - *WriteGuard[T]: the guard; the caller must Release it before its encode call returns
func (h WriteHandle[T]) Access(a *Arena) *WriteGuard[T] {
	g, ok := h.TryAccess(a)
	if !ok {
		panic(uninitialized[T](h.id, AccessWrite))
	}
	return g
}

// TryAccess is the fallible form of Access: it reports false instead of panicking
// when the slot is empty.
func (h WriteHandle[T]) TryAccess(a *Arena) (*WriteGuard[T], bool) {
	v, ok := acquireBox[T](a, h.id, AccessWrite)
	if !ok {
		return nil, false
	}
	return &WriteGuard[T]{guard: guard{arena: a, id: h.id}, value: v}, true
}

// Access takes the value out of the slot, leaving it empty. No guard is held
// afterwards. Panics if the slot is empty or held by anyone.
//
// Parameters:
//   - a: the arena holding the slot
//
// Returns:
//   - T: the consumed value
func (h MoveHandle[T]) Access(a *Arena) T {
	v, ok := h.TryAccess(a)
	if !ok {
		panic(uninitialized[T](h.id, AccessMove))
	}
	return v
}

// TryAccess is the fallible form of Access: it reports false when the slot is empty,
// for example when the optional producer did not run this frame.
func (h MoveHandle[T]) TryAccess(a *Arena) (T, bool) {
	v, ok := acquireBox[T](a, h.id, AccessMove)
	if !ok {
		var zero T
		return zero, false
	}
	return *v, true
}

// Access resolves the handle to an exclusive producer guard.
// Panics if the slot is held by anyone else or holds another type.
//
// Parameters:
//   - a: the arena holding the slot
//
// Returns:
//   - *ResultGuard[T]: the guard; the caller must Release it before its encode call returns
func (h ResultHandle[T]) Access(a *Arena) *ResultGuard[T] {
	acquireBox[T](a, h.id, AccessResult)
	return &ResultGuard[T]{guard: guard{arena: a, id: h.id}}
}
