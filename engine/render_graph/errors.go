package render_graph

import "errors"

// Authoring errors. Build returns these wrapped with the offending pass or resource;
// MustBuild panics with them.
var (
	ErrCyclicGraph        = errors.New("render graph contains a dependency cycle")
	ErrUnknownPass        = errors.New("render graph ordering references an unknown pass")
	ErrDuplicatePass      = errors.New("render graph pass name registered twice")
	ErrBatchConflict      = errors.New("render graph batch holds conflicting resource accesses")
	ErrUndeclaredResource = errors.New("render graph pass declares a resource missing from the arena")
	ErrArenaSealed        = errors.New("render graph arena is sealed")
)

// Access and frame-contract violations. These are always raised as panics at the
// point of violation, wrapped with the resource id and value type involved.
var (
	ErrUninitializedResource = errors.New("uninitialized render graph resource")
	ErrAccessConflict        = errors.New("conflicting render graph resource access")
	ErrTypeMismatch          = errors.New("render graph resource type mismatch")
	ErrUnknownResource       = errors.New("unknown render graph resource")
	ErrFrameNotActive        = errors.New("render graph frame is not executing")
	ErrFrameActive           = errors.New("render graph frame is already executing")
	ErrFrameResourceMissing  = errors.New("render graph frame resource missing at end of frame")
	ErrGuardLeaked           = errors.New("render graph resource guard held past pass encode")
	ErrGuardReleased         = errors.New("render graph resource guard used after release")
)
