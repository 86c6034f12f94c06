package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps a configuration value ("vsync" or "uncapped") to a PresentMode.
// Unknown values fall back to PresentModeVSync.
func ParsePresentMode(s string) PresentMode {
	if s == "uncapped" {
		return PresentModeUncapped
	}
	return PresentModeVSync
}

// RendererBackend is the GPU API behind a Renderer. It owns the device and the
// surface and hands out the per-frame encoder, view and surface texture.
type RendererBackend interface {
	// ConfigureSurface (re)configures the presentation surface for the given pixel size.
	ConfigureSurface(width, height int)

	// SetPresentMode selects the present mode used by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// AcquireFrame acquires the next surface texture and creates a view of it and
	// a command encoder for the frame.
	AcquireFrame() (*wgpu.CommandEncoder, *wgpu.TextureView, *wgpu.Texture, error)

	// SubmitFrame finishes and submits the encoder, presents the surface texture and
	// releases the frame's objects.
	SubmitFrame(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, texture *wgpu.Texture) error

	Device() *wgpu.Device
	Queue() *wgpu.Queue
	SurfaceFormat() wgpu.TextureFormat
	Release()
}
