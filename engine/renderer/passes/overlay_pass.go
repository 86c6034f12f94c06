package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/logger"
	"github.com/Carmen-Shannon/oxy-graph/engine/render_graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// overlayShader draws a fullscreen triangle; the scissor rect cuts it down to one quad
// and the blend constant supplies its color.
const overlayShader = `
@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    let uv = vec2<f32>(f32((i << 1u) & 2u), f32(i & 2u));
    return vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

// Quad is an opaque, axis-aligned rectangle in surface pixels, origin top-left.
type Quad struct {
	X, Y          int
	Width, Height int
	Color         wgpu.Color
}

// OverlayPayload is the per-frame input of an OverlayPass. A feeder produces it
// each frame; the pass consumes it.
type OverlayPayload struct {
	Quads []Quad
}

// OverlayPass draws the quads of the frame's OverlayPayload on top of the frame view.
// Frames without a payload are skipped.
type OverlayPass struct {
	Target  render_graph.WriteHandle[*wgpu.TextureView]
	Payload render_graph.MoveHandle[OverlayPayload]

	pipeline pipeline.Pipeline
}

var _ renderer.Pass = &OverlayPass{}

// NewOverlayPass creates an OverlayPass consuming payload.
//
// Parameters:
//   - payload: the arena resource a feeder fills with the frame's quads
//
// Returns:
//   - *OverlayPass: the pass
func NewOverlayPass(payload render_graph.ResourceHandle[OverlayPayload]) *OverlayPass {
	return &OverlayPass{
		Target:  renderer.FrameView().Write(),
		Payload: payload.Move(),
		pipeline: pipeline.NewPipeline("overlay", overlayShader,
			pipeline.WithBlendState(&wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorConstant,
					DstFactor: wgpu.BlendFactorZero,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorConstant,
					DstFactor: wgpu.BlendFactorZero,
					Operation: wgpu.BlendOperationAdd,
				},
			}),
		),
	}
}

func (p *OverlayPass) Declare(node *render_graph.NodeBuilder) {
	node.Access(p.Target, p.Payload)
}

func (p *OverlayPass) Encode(res *render_graph.Arena, encoder *wgpu.CommandEncoder, device renderer.Renderer) {
	log := logger.WithComponent("overlay_pass")

	payload, ok := p.Payload.TryAccess(res)
	if !ok || len(payload.Quads) == 0 {
		log.Debug("no overlay payload this frame, skipping")
		return
	}

	width, height := device.Size()
	rects := make([]scissorRect, 0, len(payload.Quads))
	for _, q := range payload.Quads {
		if r, visible := clipQuad(q, width, height); visible {
			rects = append(rects, r)
		}
	}
	if len(rects) == 0 {
		return
	}

	rp, err := p.pipeline.Ensure(device.Device(), device.SurfaceFormat())
	if err != nil {
		log.WithError(err).Error("overlay pipeline unavailable, skipping")
		return
	}

	view := p.Target.Access(res)
	defer view.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Overlay Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    *view.Value(),
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	pass.SetPipeline(rp)
	for _, r := range rects {
		pass.SetScissorRect(r.x, r.y, r.width, r.height)
		pass.SetBlendConstant(&r.color)
		pass.Draw(3, 1, 0, 0)
	}
	pass.End()

	log.WithFields(logrus.Fields{"quads": len(rects)}).Trace("overlay drawn")
}

// Release destroys the pass's pipeline.
func (p *OverlayPass) Release() {
	p.pipeline.Release()
}

type scissorRect struct {
	x, y, width, height uint32
	color               wgpu.Color
}

// clipQuad intersects q with a width x height surface.
func clipQuad(q Quad, width, height int) (scissorRect, bool) {
	x0, y0 := max(q.X, 0), max(q.Y, 0)
	x1, y1 := min(q.X+q.Width, width), min(q.Y+q.Height, height)
	if q.Width <= 0 || q.Height <= 0 || x1 <= x0 || y1 <= y0 {
		return scissorRect{}, false
	}
	return scissorRect{
		x:      uint32(x0),
		y:      uint32(y0),
		width:  uint32(x1 - x0),
		height: uint32(y1 - y0),
		color:  q.Color,
	}, true
}
