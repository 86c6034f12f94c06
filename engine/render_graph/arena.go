package render_graph

import (
	"fmt"
	"reflect"
	"sync"
)

// accessState is the runtime borrow state of a slot.
type accessState int

const (
	stateIdle accessState = iota
	stateShared
	stateExclusive
)

func (s accessState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateShared:
		return "shared-read"
	case stateExclusive:
		return "exclusive-write"
	default:
		return fmt.Sprintf("accessState(%d)", int(s))
	}
}

// resourceSlot is one arena cell. value holds a *T box when present is true.
type resourceSlot struct {
	value   any
	present bool
	typ     reflect.Type
	state   accessState
	readers int
}

// Arena is the type-erased resource storage shared by every pass of a render graph.
//
// Slots 0 and 1 are reserved for the frame view and frame target and are only
// reachable while a frame executes. All other slots are registered with Push or
// PushEmpty before the arena is handed to RenderGraphBuilder.Build, after which
// the arena is sealed.
//
// Each slot carries a single-writer/multi-reader state machine enforced at run time:
// conflicting accesses panic instead of corrupting the value. State transitions are
// serialized by a mutex so CPU-side feeders may touch distinct slots concurrently.
type Arena struct {
	mu          sync.Mutex
	slots       []*resourceSlot
	sealed      bool
	executing   bool
	outstanding int
}

// NewArena creates an empty arena holding only the two reserved frame slots.
//
// Returns:
//   - *Arena: the new arena
func NewArena() *Arena {
	slots := make([]*resourceSlot, reservedSlots)
	for i := range slots {
		slots[i] = &resourceSlot{}
	}
	return &Arena{slots: slots}
}

// Push registers a new slot pre-populated with value.
// Panics with ErrArenaSealed once the arena has been built into a graph.
//
// Parameters:
//   - a: the arena to register the slot in
//   - value: the initial value
//
// Returns:
//   - ResourceHandle[T]: a handle valid for the arena's whole lifetime
func Push[T any](a *Arena, value T) ResourceHandle[T] {
	return ResourceHandle[T]{id: a.push(reflect.TypeFor[T](), &value)}
}

// PushEmpty registers a new, uninitialized slot for values of type T.
// The slot is typically filled each frame by a feeder or a pass holding its ResultHandle.
// Panics with ErrArenaSealed once the arena has been built into a graph.
//
// Parameters:
//   - a: the arena to register the slot in
//
// Returns:
//   - ResourceHandle[T]: a handle valid for the arena's whole lifetime
func PushEmpty[T any](a *Arena) ResourceHandle[T] {
	return ResourceHandle[T]{id: a.push(reflect.TypeFor[T](), nil)}
}

func (a *Arena) push(typ reflect.Type, box any) ResourceID {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		panic(fmt.Errorf("%w: cannot register a %s resource after build", ErrArenaSealed, typ))
	}

	s := &resourceSlot{typ: typ}
	if box != nil {
		s.value = box
		s.present = true
	}
	a.slots = append(a.slots, s)
	return ResourceID(len(a.slots) - 1)
}

// Len returns the number of slots, reserved slots included.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots)
}

// Outstanding returns the number of access guards currently held.
func (a *Arena) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outstanding
}

// Executing reports whether a frame is between prepare and finish.
func (a *Arena) Executing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.executing
}

// Present reports whether the slot currently holds a value.
// Reserved slots report false outside of frame execution.
func (a *Arena) Present(id ResourceID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id < 0 || int(id) >= len(a.slots) {
		return false
	}
	if id.Reserved() && !a.executing {
		return false
	}
	return a.slots[id].present
}

func (a *Arena) seal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sealed = true
}

func (a *Arena) contains(id ResourceID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return id >= 0 && int(id) < len(a.slots)
}

// slot resolves id and checks the frame window. The caller holds a.mu.
func (a *Arena) slot(id ResourceID, want reflect.Type) *resourceSlot {
	if id < 0 || int(id) >= len(a.slots) {
		panic(fmt.Errorf("%w: %s (arena holds %d slots)", ErrUnknownResource, id, len(a.slots)))
	}
	if id.Reserved() && !a.executing {
		panic(fmt.Errorf("%w: %s is only accessible while a frame executes", ErrFrameNotActive, id))
	}
	s := a.slots[id]
	if s.typ != nil && s.typ != want {
		panic(fmt.Errorf("%w: %s holds %s, handle expects %s", ErrTypeMismatch, id, s.typ, want))
	}
	return s
}

// acquire transitions the slot into the state required by kind and returns its box.
// It returns ok=false, leaving the slot untouched, when kind needs a value and the
// slot is empty. Conflicts panic.
func (a *Arena) acquire(id ResourceID, kind AccessKind, want reflect.Type) (box any, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.slot(id, want)

	switch kind {
	case AccessRead:
		if s.state == stateExclusive {
			panic(fmt.Errorf("%w: read of %s (%s) while %s", ErrAccessConflict, id, want, s.state))
		}
	default:
		if s.state != stateIdle {
			panic(fmt.Errorf("%w: %s of %s (%s) while %s", ErrAccessConflict, kind, id, want, s.state))
		}
	}

	if kind != AccessResult && !s.present {
		return nil, false
	}

	switch kind {
	case AccessRead:
		s.state = stateShared
		s.readers++
	case AccessMove:
		box = s.value
		s.value = nil
		s.present = false
		return box, true
	default:
		s.state = stateExclusive
	}
	a.outstanding++
	return s.value, true
}

// release ends a guard's scope: Idle after exclusive access, one reader fewer after shared access.
func (a *Arena) release(id ResourceID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.slots[id]
	switch s.state {
	case stateShared:
		s.readers--
		if s.readers == 0 {
			s.state = stateIdle
		}
	case stateExclusive:
		s.state = stateIdle
	default:
		panic(fmt.Errorf("%w: release of %s while idle", ErrAccessConflict, id))
	}
	a.outstanding--
}

// swap replaces the slot's box under an exclusive result guard. A nil box empties the slot.
func (a *Arena) swap(id ResourceID, box any) (prev any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.slots[id]
	if s.present {
		prev = s.value
	}
	s.value = box
	s.present = box != nil
	return prev
}

// current returns the slot's box under an exclusive result guard.
func (a *Arena) current(id ResourceID) any {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.slots[id]
	if !s.present {
		return nil
	}
	return s.value
}

// prepare installs the frame-scoped values into the reserved slots and opens the frame window.
func prepare[V, T any](a *Arena, view V, target T) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.executing {
		panic(fmt.Errorf("%w: prepare called twice without finish", ErrFrameActive))
	}
	a.slots[FrameViewID] = &resourceSlot{value: &view, present: true, typ: reflect.TypeFor[V]()}
	a.slots[FrameTargetID] = &resourceSlot{value: &target, present: true, typ: reflect.TypeFor[T]()}
	a.executing = true
}

// finish extracts the frame-scoped values and closes the frame window.
// Panics if a reserved slot was left empty or a guard is still held.
func finish[V, T any](a *Arena) (V, T) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.executing {
		panic(fmt.Errorf("%w: finish called without prepare", ErrFrameNotActive))
	}
	if a.outstanding > 0 {
		panic(fmt.Errorf("%w: %d guard(s) still held at end of frame", ErrGuardLeaked, a.outstanding))
	}

	view := takeReserved[V](a, FrameViewID)
	target := takeReserved[T](a, FrameTargetID)
	a.executing = false
	return view, target
}

// takeReserved empties a reserved slot and returns its value. The caller holds a.mu.
func takeReserved[X any](a *Arena, id ResourceID) X {
	s := a.slots[id]
	if !s.present {
		panic(fmt.Errorf("%w: %s was consumed and never restored", ErrFrameResourceMissing, id))
	}
	box, ok := s.value.(*X)
	if !ok {
		panic(fmt.Errorf("%w: %s holds %s, frame expects %s", ErrTypeMismatch, id, s.typ, reflect.TypeFor[X]()))
	}
	a.slots[id] = &resourceSlot{}
	return *box
}
