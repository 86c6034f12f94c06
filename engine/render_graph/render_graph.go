package render_graph

import (
	"fmt"
	"time"
)

// FrameState is the executor's per-frame state.
type FrameState int

const (
	// FrameIdle is the state between frames. Reserved slots are empty and inaccessible.
	FrameIdle FrameState = iota

	// FrameExecuting is the state while batches are walked.
	FrameExecuting
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameExecuting:
		return "executing"
	default:
		return fmt.Sprintf("FrameState(%d)", int(s))
	}
}

// Frame carries the per-frame values handed to Run: the recording context every pass
// encodes into, and the two values installed into the reserved arena slots.
type Frame[E, V, T any] struct {
	Encoder E
	View    V
	Target  T
}

// RenderGraph is a compiled, immutable schedule of passes bound to an arena.
// Build it once with a RenderGraphBuilder and call Run once per frame.
type RenderGraph[E, D, V, T any] struct {
	arena    *Arena
	passes   []Pass[E, D]
	schedule *Schedule
	options  graphOptions
}

// Run executes one frame: it installs frame.View and frame.Target into the reserved
// slots, walks every batch in order invoking each pass's Encode, and extracts the
// reserved values again.
//
// Run panics on frame-contract violations: a frame already executing, a pass that
// returns while still holding a guard, or a reserved slot left empty at the end of the frame.
//
// Parameters:
//   - device: the device handle passed to every pass
//   - frame: the recording context and the frame-scoped values
//
// Returns:
//   - Frame[E, V, T]: the recording context and the frame-scoped values reclaimed from the arena
func (g *RenderGraph[E, D, V, T]) Run(device D, frame Frame[E, V, T]) Frame[E, V, T] {
	prepare(g.arena, frame.View, frame.Target)

	for _, batch := range g.schedule.batches {
		for _, idx := range batch {
			name := g.schedule.names[idx]
			start := time.Now()
			g.passes[idx].Encode(g.arena, frame.Encoder, device)
			if n := g.arena.Outstanding(); n > 0 {
				panic(fmt.Errorf("%w: pass %q returned holding %d guard(s)", ErrGuardLeaked, name, n))
			}
			if g.options.observer != nil {
				g.options.observer(name, time.Since(start))
			}
		}
	}

	view, target := finish[V, T](g.arena)
	return Frame[E, V, T]{Encoder: frame.Encoder, View: view, Target: target}
}

// State reports whether a frame is currently executing.
func (g *RenderGraph[E, D, V, T]) State() FrameState {
	if g.arena.Executing() {
		return FrameExecuting
	}
	return FrameIdle
}

// Arena returns the arena the graph was built against.
// Feeders write per-frame CPU data into it between frames.
func (g *RenderGraph[E, D, V, T]) Arena() *Arena {
	return g.arena
}

// Schedule returns the compiled schedule.
func (g *RenderGraph[E, D, V, T]) Schedule() *Schedule {
	return g.schedule
}

// Pass returns the pass registered under name.
func (g *RenderGraph[E, D, V, T]) Pass(name string) (Pass[E, D], bool) {
	for i, n := range g.schedule.names {
		if n == name {
			return g.passes[i], true
		}
	}
	return nil, false
}
