package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/render_graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// ClearPass clears the frame view to a color read from the arena each frame.
type ClearPass struct {
	Target render_graph.WriteHandle[*wgpu.TextureView]
	Color  render_graph.ReadHandle[wgpu.Color]
}

var _ renderer.Pass = &ClearPass{}

// NewClearPass creates a ClearPass writing the frame view with the color held by color.
//
// Parameters:
//   - color: the arena resource holding the clear color
//
// Returns:
//   - *ClearPass: the pass
func NewClearPass(color render_graph.ResourceHandle[wgpu.Color]) *ClearPass {
	return &ClearPass{
		Target: renderer.FrameView().Write(),
		Color:  color.Read(),
	}
}

func (p *ClearPass) Declare(node *render_graph.NodeBuilder) {
	node.Access(p.Target, p.Color)
}

func (p *ClearPass) Encode(res *render_graph.Arena, encoder *wgpu.CommandEncoder, _ renderer.Renderer) {
	clear := wgpu.Color{A: 1}
	if c, ok := p.Color.TryAccess(res); ok {
		clear = c.Value()
		c.Release()
	}

	view := p.Target.Access(res)
	defer view.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Clear Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       *view.Value(),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clear,
			},
		},
	})
	pass.End()
}
