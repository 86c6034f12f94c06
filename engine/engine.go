package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-graph/engine/logger"
	"github.com/Carmen-Shannon/oxy-graph/engine/profiler"
	"github.com/Carmen-Shannon/oxy-graph/engine/render_graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-graph/engine/window"
	"github.com/sirupsen/logrus"
)

// ErrNoGraph is returned when a frame is requested but no graph factory was configured.
var ErrNoGraph = errors.New("engine: no graph factory configured")

// ErrNoRenderer is returned when a frame is requested but no renderer was configured.
var ErrNoRenderer = errors.New("engine: no renderer configured")

// Feeder writes per-frame CPU data into the graph's arena before the frame executes.
// Feeders of one frame run concurrently and must touch disjoint resources.
type Feeder interface {
	Feed(res *render_graph.Arena, deltaTime float32)
}

// FeederFunc adapts a function into a Feeder.
type FeederFunc func(res *render_graph.Arena, deltaTime float32)

func (f FeederFunc) Feed(res *render_graph.Arena, deltaTime float32) {
	f(res, deltaTime)
}

// GraphFactory builds the render graph for a renderer. The engine supplies the
// builder options it needs (such as the profiling observer); pass them to renderer.NewGraphBuilder.
type GraphFactory func(r renderer.Renderer, options ...render_graph.RenderGraphBuilderOption) (*renderer.Graph, error)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	graphMu      sync.Mutex
	graphFactory GraphFactory
	graph        *renderer.Graph

	feedersMu     sync.Mutex
	feeders       []Feeder
	feederWorkers int
	feederPool    worker.DynamicWorkerPool

	renderFrameLimit atomic.Int64 // minimum frame duration in ns; 0 = uncapped
}

// Engine drives a render graph: it runs the fixed-rate tick loop, feeds per-frame
// data into the graph's arena and executes the graph once per render frame.
type Engine interface {
	// Window returns the underlying window.
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	Renderer() renderer.Renderer

	// Graph returns the current render graph, building it through the graph factory
	// if it has not been built yet.
	//
	// Returns:
	//   - *renderer.Graph: the compiled graph
	//   - error: ErrNoGraph or the factory's build error
	Graph() (*renderer.Graph, error)

	// RebuildGraph discards the current graph; the next frame builds a new one.
	// Passes of the discarded graph that implement Release() are released.
	RebuildGraph()

	// AddFeeder registers a feeder run before every frame.
	//
	// Parameters:
	//   - f: the feeder
	AddFeeder(f Feeder)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the engine and render loops and blocks on the window message loop
	// until the window closes or Quit is called.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, graph, feeders, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		feederWorkers:   4,
	}

	for _, opt := range options {
		opt(e)
	}

	e.feederPool = worker.NewDynamicWorkerPool(e.feederWorkers, 256, 1*time.Second)

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer != nil {
				e.renderer.Resize(width, height)
			}
		})
		e.window.SetCloseCallback(e.Quit)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Graph() (*renderer.Graph, error) {
	e.graphMu.Lock()
	defer e.graphMu.Unlock()

	if e.graph != nil {
		return e.graph, nil
	}
	if e.graphFactory == nil {
		return nil, ErrNoGraph
	}

	g, err := e.graphFactory(e.renderer, render_graph.WithPassObserver(e.observePass))
	if err != nil {
		return nil, fmt.Errorf("failed to build render graph: %w", err)
	}
	e.graph = g

	logger.WithComponent("engine").WithFields(logrus.Fields{
		"passes":  len(g.Schedule().Order()),
		"batches": g.Schedule().Len(),
	}).Info("render graph built")
	return g, nil
}

func (e *engine) RebuildGraph() {
	e.graphMu.Lock()
	old := e.graph
	e.graph = nil
	e.graphMu.Unlock()

	releaseGraph(old)
}

// releaseGraph releases every pass of g that owns GPU objects.
func releaseGraph(g *renderer.Graph) {
	if g == nil {
		return
	}
	for _, name := range g.Schedule().Order() {
		p, _ := g.Pass(name)
		for {
			w, ok := p.(interface{ Unwrap() renderer.Pass })
			if !ok {
				break
			}
			p = w.Unwrap()
		}
		if r, ok := p.(interface{ Release() }); ok {
			r.Release()
		}
	}
}

func (e *engine) AddFeeder(f Feeder) {
	if f == nil {
		return
	}
	e.feedersMu.Lock()
	defer e.feedersMu.Unlock()
	e.feeders = append(e.feeders, f)
}

func (e *engine) observePass(name string, elapsed time.Duration) {
	if e.profilingEnabled.Load() {
		e.profiler.RecordPass(name, elapsed)
	}
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
	} else {
		<-e.quitChannel
	}
	e.signalQuit()
	e.wg.Wait()
	e.shutdown()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel and asks the window to close.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// shutdown releases the graph, the feeder pool and the renderer once every loop has exited.
func (e *engine) shutdown() {
	e.RebuildGraph()
	e.feederPool.Stop()
	if e.renderer != nil {
		e.renderer.Release()
	}
	logger.WithComponent("engine").Info("engine stopped")
}

// handle launches the engine and render goroutines.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// A panic inside a frame (a violated frame contract) is logged and stops the engine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.WithComponent("engine").WithField("panic", r).Error("render goroutine recovered from panic")
			e.signalQuit()
		}
	}()

	log := logger.WithComponent("engine")
	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.renderFrame(dt); err != nil {
			log.WithError(err).Error("render frame failed")
			e.signalQuit()
			return
		}

		if limit := time.Duration(e.renderFrameLimit.Load()); limit > 0 {
			if remaining := limit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame feeds and executes one frame of the graph.
// A frame without a surface texture is skipped after reconfiguring the surface.
func (e *engine) renderFrame(dt float32) error {
	if e.renderer == nil {
		return ErrNoRenderer
	}
	g, err := e.Graph()
	if err != nil {
		return err
	}

	e.feed(g.Arena(), dt)

	if err := e.renderer.DrawFrame(g); err != nil {
		if !errors.Is(err, renderer.ErrSurfaceUnavailable) {
			return err
		}
		logger.WithComponent("engine").WithError(err).Debug("frame skipped, reconfiguring surface")
		e.renderer.Resize(e.renderer.Size())
		return nil
	}

	if e.profilingEnabled.Load() {
		e.profiler.Tick()
	}
	return nil
}

// feed runs every feeder on the feeder pool and waits for all of them.
// A WaitGroup is the per-frame barrier since pool.Wait() blocks until workers idle-exit.
func (e *engine) feed(res *render_graph.Arena, dt float32) {
	e.feedersMu.Lock()
	feeders := append([]Feeder(nil), e.feeders...)
	e.feedersMu.Unlock()

	if len(feeders) == 0 {
		return
	}

	var wg sync.WaitGroup
	for i, f := range feeders {
		wg.Add(1)
		e.feederPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (result any, err error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("feeder %d panicked: %v", i, r)
						logger.WithComponent("engine").WithError(err).Error("feeder failed")
					}
				}()
				f.Feed(res, dt)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}

	// Replace any pending update that the loop has not consumed yet.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit.Store(0)
		return
	}
	e.renderFrameLimit.Store(int64(float64(time.Second) / fps))
}
