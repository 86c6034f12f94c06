package render_graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBatchesRejectsConflicts(t *testing.T) {
	decls := []*declaration{
		{name: "a", index: 0, accesses: []access{{id: 2, kind: AccessWrite}}},
		{name: "b", index: 1, accesses: []access{{id: 2, kind: AccessRead}}},
		{name: "c", index: 2, accesses: []access{{id: 2, kind: AccessRead}, {id: 3, kind: AccessWrite}}},
	}

	conflicting := &Schedule{batches: [][]int{{0, 1}, {2}}, names: []string{"a", "b", "c"}}
	err := validateBatches(conflicting, decls)
	require.ErrorIs(t, err, ErrBatchConflict)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), `"b"`)

	sharedReads := &Schedule{batches: [][]int{{0}, {1, 2}}, names: []string{"a", "b", "c"}}
	assert.NoError(t, validateBatches(sharedReads, decls))
}

func TestValidateBatchesSamePassMixedAccess(t *testing.T) {
	decls := []*declaration{
		{name: "a", accesses: []access{{id: 2, kind: AccessRead}, {id: 2, kind: AccessWrite}}},
		{name: "b", index: 1, accesses: []access{{id: 2, kind: AccessRead}}},
	}
	s := &Schedule{batches: [][]int{{0, 1}}, names: []string{"a", "b"}}
	require.ErrorIs(t, validateBatches(s, decls), ErrBatchConflict)

	alone := &Schedule{batches: [][]int{{0}, {1}}, names: []string{"a", "b"}}
	assert.NoError(t, validateBatches(alone, decls))
}

func TestScheduleDiagnostics(t *testing.T) {
	a := NewArena()
	r := Push(a, 0)
	g, err := newTestBuilder().
		WithPass("clear", named("clear", r.Write())).
		WithPass("overlay", named("overlay", r.Write())).
		WithPass("hud", RunAfter[*recorder, string](named("hud"), "overlay")).
		Build(a)
	require.NoError(t, err)

	s := g.Schedule()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "batch 0: [clear]\nbatch 1: [overlay]\nbatch 2: [hud]", s.String())
	assert.Equal(t, []string{"clear", "overlay", "hud"}, s.Order())
	assert.Equal(t, -1, s.BatchOf("missing"))

	edges := s.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, Edge{From: "clear", To: "overlay", Reason: "res#2 write->write"}, edges[0])
	assert.Equal(t, Edge{From: "overlay", To: "hud", Reason: "after"}, edges[1])

	dot := s.DumpGraphviz()
	assert.Contains(t, dot, "digraph render_graph {")
	assert.Contains(t, dot, `"clear" -> "overlay"`)
	assert.Contains(t, dot, `label="batch 2"`)
}

func TestEmptyGraph(t *testing.T) {
	a := NewArena()
	g, err := newTestBuilder().Build(a)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Schedule().Len())

	out := g.Run("device", testFrame{Encoder: &recorder{}, View: "v", Target: 3})
	assert.Equal(t, "v", out.View)
	assert.Equal(t, 3, out.Target)
}

func TestLayerPopsByLevelThenRegistration(t *testing.T) {
	decls := []*declaration{{name: "late"}, {name: "w"}, {name: "free"}, {name: "last"}}
	g := &dependencyGraph{succ: make([][]int, len(decls)), seen: make(map[[2]int]bool), decls: decls}
	g.link(1, 0, "w->late")
	g.link(0, 3, "late->last")
	g.link(2, 3, "free->last")

	batches, err := g.layer()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {0}, {3}}, batches)
}

func TestLayerReportsCycle(t *testing.T) {
	decls := []*declaration{{name: "a"}, {name: "b"}, {name: "c"}}
	g := &dependencyGraph{succ: make([][]int, len(decls)), seen: make(map[[2]int]bool), decls: decls}
	g.link(0, 1, "a->b")
	g.link(1, 0, "b->a")

	_, err := g.layer()
	require.ErrorIs(t, err, ErrCyclicGraph)
	assert.Contains(t, err.Error(), "a, b")
	assert.NotContains(t, err.Error(), "b, c")
}
