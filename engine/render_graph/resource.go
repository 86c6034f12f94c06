package render_graph

import "fmt"

// ResourceID identifies a slot in an Arena.
// IDs are dense, start at 0 and are never reused within one arena.
type ResourceID int

const (
	// FrameViewID is the reserved slot holding the per-frame target view.
	FrameViewID ResourceID = 0

	// FrameTargetID is the reserved slot holding the per-frame presentable image.
	FrameTargetID ResourceID = 1

	reservedSlots = 2
)

// Reserved reports whether the id refers to one of the two frame-scoped slots.
func (id ResourceID) Reserved() bool {
	return id == FrameViewID || id == FrameTargetID
}

func (id ResourceID) String() string {
	switch id {
	case FrameViewID:
		return "res#0(frame view)"
	case FrameTargetID:
		return "res#1(frame target)"
	default:
		return fmt.Sprintf("res#%d", int(id))
	}
}

// AccessKind is the capability a handle grants over a slot.
type AccessKind int

const (
	// AccessResult sets or replaces the slot's value. Exclusive; the slot may be empty.
	AccessResult AccessKind = iota

	// AccessWrite mutates the slot's value in place. Exclusive.
	AccessWrite

	// AccessRead shares the slot's value with any number of other readers.
	AccessRead

	// AccessMove takes ownership of the slot's value and leaves the slot empty. Exclusive.
	AccessMove
)

func (k AccessKind) String() string {
	switch k {
	case AccessResult:
		return "result"
	case AccessWrite:
		return "write"
	case AccessRead:
		return "read"
	case AccessMove:
		return "move"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// Exclusive reports whether the access excludes every other access to the same slot.
func (k AccessKind) Exclusive() bool {
	return k != AccessRead
}

// Accessor is implemented by every derived handle. It is what a pass hands to a
// NodeBuilder to declare its dependency edges.
type Accessor interface {
	// ResourceID returns the arena slot the accessor refers to.
	ResourceID() ResourceID

	// Kind returns the capability the accessor grants.
	Kind() AccessKind
}

// ResourceHandle is a typed capability descriptor for an arena slot.
// It never owns the value; the Arena does. Handles are obtained from Push,
// PushEmpty, FrameView and FrameTarget.
type ResourceHandle[T any] struct {
	id ResourceID
}

// ID returns the slot id the handle refers to.
func (h ResourceHandle[T]) ID() ResourceID { return h.id }

// Read derives a shared read handle.
func (h ResourceHandle[T]) Read() ReadHandle[T] { return ReadHandle[T]{id: h.id} }

// Write derives an exclusive in-place mutation handle.
func (h ResourceHandle[T]) Write() WriteHandle[T] { return WriteHandle[T]{id: h.id} }

// Move derives a one-time consuming handle.
func (h ResourceHandle[T]) Move() MoveHandle[T] { return MoveHandle[T]{id: h.id} }

// Result derives an exclusive producer handle.
func (h ResourceHandle[T]) Result() ResultHandle[T] { return ResultHandle[T]{id: h.id} }

// ReadHandle grants shared, non-exclusive access. Many may be outstanding at once.
type ReadHandle[T any] struct {
	id ResourceID
}

func (h ReadHandle[T]) ResourceID() ResourceID { return h.id }
func (h ReadHandle[T]) Kind() AccessKind       { return AccessRead }

// WriteHandle grants exclusive in-place mutation access.
type WriteHandle[T any] struct {
	id ResourceID
}

func (h WriteHandle[T]) ResourceID() ResourceID { return h.id }
func (h WriteHandle[T]) Kind() AccessKind       { return AccessWrite }

// MoveHandle grants one-time consuming access.
type MoveHandle[T any] struct {
	id ResourceID
}

func (h MoveHandle[T]) ResourceID() ResourceID { return h.id }
func (h MoveHandle[T]) Kind() AccessKind       { return AccessMove }

// ResultHandle grants exclusive producer access used to set or replace the slot's value.
type ResultHandle[T any] struct {
	id ResourceID
}

func (h ResultHandle[T]) ResourceID() ResourceID { return h.id }
func (h ResultHandle[T]) Kind() AccessKind       { return AccessResult }

// FrameView returns the handle of the reserved frame view slot.
// V must match the view type the graph is instantiated with.
func FrameView[V any]() ResourceHandle[V] {
	return ResourceHandle[V]{id: FrameViewID}
}

// FrameTarget returns the handle of the reserved presentable image slot.
// T must match the target type the graph is instantiated with.
func FrameTarget[T any]() ResourceHandle[T] {
	return ResourceHandle[T]{id: FrameTargetID}
}

var (
	_ Accessor = ReadHandle[int]{}
	_ Accessor = WriteHandle[int]{}
	_ Accessor = MoveHandle[int]{}
	_ Accessor = ResultHandle[int]{}
)
