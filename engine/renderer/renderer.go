package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrSurfaceUnavailable is returned by DrawFrame when no surface texture could be acquired.
// The frame is skipped; reconfiguring the surface usually recovers.
var ErrSurfaceUnavailable = errors.New("surface texture unavailable")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	width, height int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer is the graphics-device collaborator of the render graph.
//
// It owns the WebGPU device and the window surface. Each DrawFrame acquires a surface
// texture, runs a compiled Graph against it, then submits and presents the result.
// Passes receive the Renderer as their device handle.
type Renderer interface {
	// Device returns the WebGPU device passes create their GPU objects on.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// SurfaceFormat returns the texture format of the frame view handed to passes.
	SurfaceFormat() wgpu.TextureFormat

	// Size returns the current surface size in pixels.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// Resize reconfigures the surface for a new size.
	// This should be called when the window framebuffer is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// DrawFrame executes one frame of graph against the next surface texture:
	// acquire, run every pass, submit, present.
	//
	// Parameters:
	//   - graph: the compiled render graph
	//
	// Returns:
	//   - error: ErrSurfaceUnavailable if no surface texture could be acquired, or a submission error
	DrawFrame(graph *Graph) error

	// Release destroys the device and surface.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type, presenting into the given window.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new renderer
//   - error: error if no adapter or device could be obtained
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.Resize(win.Size())
	return r, nil
}

// newRendererWithBackend wires a renderer around an existing backend.
func newRendererWithBackend(backend RendererBackend, width, height int) *renderer {
	r := &renderer{mu: &sync.Mutex{}, backend: backend}
	r.Resize(width, height)
	return r
}

func (r *renderer) Device() *wgpu.Device {
	return r.backend.Device()
}

func (r *renderer) Queue() *wgpu.Queue {
	return r.backend.Queue()
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	if width > 0 && height > 0 {
		r.width, r.height = width, height
	}
	r.mu.Unlock()
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
	r.Resize(r.Size())
}

func (r *renderer) DrawFrame(graph *Graph) error {
	encoder, view, texture, err := r.backend.AcquireFrame()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
	}

	out := graph.Run(r, Frame{Encoder: encoder, View: view, Target: texture})

	if err := r.backend.SubmitFrame(out.Encoder, out.View, out.Target); err != nil {
		return fmt.Errorf("failed to submit frame: %w", err)
	}
	return nil
}

func (r *renderer) Release() {
	r.backend.Release()
}
