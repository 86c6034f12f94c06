package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-graph/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window the engine processes messages for.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer frames are drawn with.
//
// Parameters:
//   - r: a Renderer presenting into the engine's window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithGraphFactory sets the function that builds the render graph.
// The graph is built lazily on the first frame and again after RebuildGraph.
//
// Parameters:
//   - factory: the graph factory
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGraphFactory(factory GraphFactory) EngineBuilderOption {
	return func(e *engine) {
		e.graphFactory = factory
	}
}

// WithFeeder registers a feeder run before every frame.
//
// Parameters:
//   - f: the feeder
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFeeder(f Feeder) EngineBuilderOption {
	return func(e *engine) {
		if f != nil {
			e.feeders = append(e.feeders, f)
		}
	}
}

// WithFeederWorkers sets how many workers run feeders concurrently.
// Values < 1 are treated as 1.
//
// Parameters:
//   - n: the maximum number of feeder workers
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFeederWorkers(n int) EngineBuilderOption {
	return func(e *engine) {
		e.feederWorkers = max(n, 1)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}
