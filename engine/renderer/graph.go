package renderer

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/render_graph"
	"github.com/cogentcore/webgpu/wgpu"
)

// Graph is a render graph recording into a WebGPU command encoder, with the
// Renderer as device handle and the surface view and texture as frame resources.
type Graph = render_graph.RenderGraph[*wgpu.CommandEncoder, Renderer, *wgpu.TextureView, *wgpu.Texture]

// GraphBuilder assembles a Graph.
type GraphBuilder = render_graph.RenderGraphBuilder[*wgpu.CommandEncoder, Renderer, *wgpu.TextureView, *wgpu.Texture]

// Pass is a pass schedulable in a Graph.
type Pass = render_graph.Pass[*wgpu.CommandEncoder, Renderer]

// PassFunc adapts a closure into a Pass.
type PassFunc = render_graph.PassFunc[*wgpu.CommandEncoder, Renderer]

// Frame carries the per-frame encoder, surface view and surface texture.
type Frame = render_graph.Frame[*wgpu.CommandEncoder, *wgpu.TextureView, *wgpu.Texture]

// NewGraphBuilder creates an empty GraphBuilder.
//
// Parameters:
//   - options: variadic list of RenderGraphBuilderOption functions
//
// Returns:
//   - *GraphBuilder: the new builder
func NewGraphBuilder(options ...render_graph.RenderGraphBuilderOption) *GraphBuilder {
	return render_graph.NewRenderGraphBuilder[*wgpu.CommandEncoder, Renderer, *wgpu.TextureView, *wgpu.Texture](options...)
}

// FrameView returns the handle of the current surface texture view.
func FrameView() render_graph.ResourceHandle[*wgpu.TextureView] {
	return render_graph.FrameView[*wgpu.TextureView]()
}

// FrameTarget returns the handle of the current surface texture.
func FrameTarget() render_graph.ResourceHandle[*wgpu.Texture] {
	return render_graph.FrameTarget[*wgpu.Texture]()
}

// RunBefore wraps pass so it is scheduled strictly before the pass registered as name.
func RunBefore(pass Pass, name string) Pass {
	return render_graph.RunBefore(pass, name)
}

// RunAfter wraps pass so it is scheduled strictly after the pass registered as name.
func RunAfter(pass Pass, name string) Pass {
	return render_graph.RunAfter(pass, name)
}
