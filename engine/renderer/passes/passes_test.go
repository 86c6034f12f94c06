package passes

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/render_graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipQuad(t *testing.T) {
	red := wgpu.Color{R: 1, A: 1}
	tests := []struct {
		name    string
		quad    Quad
		want    scissorRect
		visible bool
	}{
		{
			name:    "inside",
			quad:    Quad{X: 10, Y: 20, Width: 30, Height: 40, Color: red},
			want:    scissorRect{x: 10, y: 20, width: 30, height: 40, color: red},
			visible: true,
		},
		{
			name:    "clipped top left",
			quad:    Quad{X: -5, Y: -10, Width: 20, Height: 20, Color: red},
			want:    scissorRect{x: 0, y: 0, width: 15, height: 10, color: red},
			visible: true,
		},
		{
			name:    "clipped bottom right",
			quad:    Quad{X: 90, Y: 40, Width: 50, Height: 50, Color: red},
			want:    scissorRect{x: 90, y: 40, width: 10, height: 10, color: red},
			visible: true,
		},
		{name: "offscreen", quad: Quad{X: 200, Y: 0, Width: 10, Height: 10}},
		{name: "left of surface", quad: Quad{X: -20, Y: 0, Width: 10, Height: 10}},
		{name: "zero width", quad: Quad{X: 0, Y: 0, Width: 0, Height: 10}},
		{name: "negative height", quad: Quad{X: 0, Y: 0, Width: 10, Height: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, visible := clipQuad(tt.quad, 100, 50)
			assert.Equal(t, tt.visible, visible)
			if tt.visible {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClearThenOverlaySchedule(t *testing.T) {
	a := render_graph.NewArena()
	color := render_graph.Push(a, wgpu.Color{A: 1})
	payload := render_graph.PushEmpty[OverlayPayload](a)

	g, err := renderer.NewGraphBuilder().
		WithPass("clear", NewClearPass(color)).
		WithPass("overlay", renderer.RunAfter(NewOverlayPass(payload), "clear")).
		Build(a)
	require.NoError(t, err)

	assert.Equal(t, []string{"clear", "overlay"}, g.Schedule().Order())
	assert.Equal(t, 0, g.Schedule().BatchOf("clear"))
	assert.Equal(t, 1, g.Schedule().BatchOf("overlay"))
}

func TestOverlaySkipsWithoutPayload(t *testing.T) {
	a := render_graph.NewArena()
	payload := render_graph.PushEmpty[OverlayPayload](a)
	p := NewOverlayPass(payload)

	assert.NotPanics(t, func() { p.Encode(a, nil, nil) })
	assert.Equal(t, 0, a.Outstanding())

	w := payload.Result().Access(a)
	w.Replace(OverlayPayload{})
	w.Release()

	assert.NotPanics(t, func() { p.Encode(a, nil, nil) })
	assert.False(t, a.Present(payload.ID()), "an empty payload is still consumed")
}
