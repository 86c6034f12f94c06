package render_graph

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a fake recording context: passes append their names to it.
type recorder struct {
	log []string
}

type (
	testPass    = PassFunc[*recorder, string]
	testBuilder = RenderGraphBuilder[*recorder, string, string, int]
	testFrame   = Frame[*recorder, string, int]
)

func newTestBuilder(options ...RenderGraphBuilderOption) *testBuilder {
	return NewRenderGraphBuilder[*recorder, string, string, int](options...)
}

// named returns a pass that records name when encoded.
func named(name string, accessors ...Accessor) testPass {
	return testPass{
		Accessors: accessors,
		Fn: func(_ *Arena, enc *recorder, _ string) {
			enc.log = append(enc.log, name)
		},
	}
}

func TestProducerConsumer(t *testing.T) {
	a := NewArena()
	r := PushEmpty[int](a)

	var seen int
	consumer := testPass{
		Accessors: []Accessor{r.Read()},
		Fn: func(res *Arena, enc *recorder, _ string) {
			g := r.Read().Access(res)
			defer g.Release()
			seen = g.Value()
			enc.log = append(enc.log, "consumer")
		},
	}
	producer := testPass{
		Accessors: []Accessor{r.Result()},
		Fn: func(res *Arena, enc *recorder, _ string) {
			g := r.Result().Access(res)
			defer g.Release()
			g.Set(99)
			enc.log = append(enc.log, "producer")
		},
	}

	g, err := newTestBuilder().
		WithPass("consumer", consumer).
		WithPass("producer", producer).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"producer"}, {"consumer"}}, g.Schedule().Batches())

	rec := &recorder{}
	out := g.Run("device", testFrame{Encoder: rec, View: "view", Target: 5})
	assert.Equal(t, 99, seen)
	assert.Equal(t, []string{"producer", "consumer"}, rec.log)
	assert.Equal(t, "view", out.View)
	assert.Equal(t, 5, out.Target)
	assert.Same(t, rec, out.Encoder)
	assert.Equal(t, FrameIdle, g.State())
}

func TestRunBeforeWithoutResources(t *testing.T) {
	a := NewArena()
	r := Push(a, 0)

	g, err := newTestBuilder().
		WithPass("A", named("A")).
		WithPass("B", named("B", r.Write())).
		WithPass("C", RunBefore[*recorder, string](named("C"), "A")).
		Build(a)
	require.NoError(t, err)

	s := g.Schedule()
	assert.Less(t, s.BatchOf("C"), s.BatchOf("A"))
	assert.Equal(t, [][]string{{"B", "C"}, {"A"}}, s.Batches())

	rec := &recorder{}
	g.Run("device", testFrame{Encoder: rec})
	assert.Equal(t, []string{"B", "C", "A"}, rec.log)
}

func TestRunAfter(t *testing.T) {
	a := NewArena()
	g, err := newTestBuilder().
		WithPass("late", RunAfter[*recorder, string](named("late"), "early")).
		WithPass("early", named("early")).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"early"}, {"late"}}, g.Schedule().Batches())
}

func TestCycleFailsBuild(t *testing.T) {
	a := NewArena()
	r := Push(a, 0)

	// A writes R and runs after B; B reads R, so B must also run after A.
	_, err := newTestBuilder().
		WithPass("A", RunAfter[*recorder, string](named("A", r.Write()), "B")).
		WithPass("B", named("B", r.Read())).
		Build(a)
	require.ErrorIs(t, err, ErrCyclicGraph)
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

func TestCycleOfExplicitConstraints(t *testing.T) {
	a := NewArena()
	_, err := newTestBuilder().
		WithPass("A", RunBefore[*recorder, string](named("A"), "B")).
		WithPass("B", RunBefore[*recorder, string](named("B"), "A")).
		WithPass("free", named("free")).
		Build(a)
	require.ErrorIs(t, err, ErrCyclicGraph)
	assert.NotContains(t, err.Error(), "free")
}

func TestMustBuildPanicsOnCycle(t *testing.T) {
	a := NewArena()
	b := newTestBuilder().
		WithPass("A", RunAfter[*recorder, string](named("A"), "A2")).
		WithPass("A2", RunAfter[*recorder, string](named("A2"), "A"))
	requirePanicIs(t, ErrCyclicGraph, func() { b.MustBuild(a) })
}

func TestBuildDeterministic(t *testing.T) {
	build := func() *Schedule {
		a := NewArena()
		r := Push(a, 0)
		s := Push(a, "")
		g, err := newTestBuilder().
			WithPass("p0", named("p0", r.Result())).
			WithPass("p1", named("p1", r.Read(), s.Write())).
			WithPass("p2", named("p2", r.Read())).
			WithPass("p3", named("p3", s.Read(), r.Move())).
			WithPass("p4", named("p4")).
			Build(a)
		require.NoError(t, err)
		return g.Schedule()
	}

	first := build()
	for i := 0; i < 10; i++ {
		next := build()
		assert.Equal(t, first.Batches(), next.Batches())
		assert.Equal(t, first.String(), next.String())
	}
	assert.Equal(t, [][]string{{"p0", "p4"}, {"p1", "p2"}, {"p3"}}, first.Batches())
}

func TestBuildTwiceSameArena(t *testing.T) {
	a := NewArena()
	r := Push(a, 0)
	b := newTestBuilder().
		WithPass("w", named("w", r.Write())).
		WithPass("r", named("r", r.Read()))

	g1, err := b.Build(a)
	require.NoError(t, err)
	g2, err := b.Build(a)
	require.NoError(t, err)
	assert.Equal(t, g1.Schedule().Batches(), g2.Schedule().Batches())
}

func TestEdgesPointForward(t *testing.T) {
	a := NewArena()
	res := []ResourceHandle[int]{Push(a, 0), Push(a, 0), Push(a, 0)}

	b := newTestBuilder()
	b.WithPass("gbuffer", named("gbuffer", res[0].Result(), res[1].Result()))
	b.WithPass("lighting", named("lighting", res[0].Read(), res[1].Read(), res[2].Result()))
	b.WithPass("bloom", named("bloom", res[2].Write()))
	b.WithPass("tonemap", named("tonemap", res[2].Read()))
	b.WithPass("debug", named("debug", res[1].Read()))
	b.WithPass("cleanup", named("cleanup", res[0].Move()))
	b.WithPass("ui", RunAfter[*recorder, string](named("ui"), "tonemap"))

	g, err := b.Build(a)
	require.NoError(t, err)

	s := g.Schedule()
	require.NotEmpty(t, s.Edges())
	for _, e := range s.Edges() {
		assert.Less(t, s.BatchOf(e.From), s.BatchOf(e.To), "edge %s -> %s (%s)", e.From, e.To, e.Reason)
	}
	assert.Len(t, s.Order(), 7)
}

func TestAccessRankOrdering(t *testing.T) {
	a := NewArena()
	r := Push(a, 0)

	g, err := newTestBuilder().
		WithPass("mover", named("mover", r.Move())).
		WithPass("reader", named("reader", r.Read())).
		WithPass("writer", named("writer", r.Write())).
		WithPass("producer", named("producer", r.Result())).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"producer"}, {"writer"}, {"reader"}, {"mover"}}, g.Schedule().Batches())
}

func TestSameKindAccesses(t *testing.T) {
	a := NewArena()
	r := Push(a, 0)

	g, err := newTestBuilder().
		WithPass("w1", named("w1", r.Write())).
		WithPass("r1", named("r1", r.Read())).
		WithPass("w2", named("w2", r.Write())).
		WithPass("r2", named("r2", r.Read())).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"w1"}, {"w2"}, {"r1", "r2"}}, g.Schedule().Batches())
}

func TestUnknownPassName(t *testing.T) {
	a := NewArena()
	_, err := newTestBuilder().
		WithPass("A", RunAfter[*recorder, string](named("A"), "missing")).
		Build(a)
	require.ErrorIs(t, err, ErrUnknownPass)
	assert.Contains(t, err.Error(), "missing")
}

func TestDuplicatePassName(t *testing.T) {
	a := NewArena()
	_, err := newTestBuilder().
		WithPass("A", named("A")).
		WithPass("A", named("A")).
		Build(a)
	require.ErrorIs(t, err, ErrDuplicatePass)
}

func TestUndeclaredResource(t *testing.T) {
	a := NewArena()
	_, err := newTestBuilder().
		WithPass("A", named("A", ReadHandle[int]{id: 12})).
		Build(a)
	require.ErrorIs(t, err, ErrUndeclaredResource)
}

func TestAutoNaming(t *testing.T) {
	a := NewArena()
	g, err := newTestBuilder().
		WithPass("", named("x")).
		WithPass("", RunAfter[*recorder, string](named("y"), "explicit")).
		WithPass("explicit", named("explicit")).
		Build(a)
	require.NoError(t, err)

	order := g.Schedule().Order()
	require.Len(t, order, 3)
	assert.True(t, strings.HasPrefix(order[0], "PassFunc"), order[0])
	assert.True(t, strings.HasSuffix(order[0], "#0"), order[0])
	assert.Equal(t, "explicit", order[1])
	assert.True(t, strings.HasSuffix(order[2], "#1"), order[2])
}

func TestBuildSealsArena(t *testing.T) {
	a := NewArena()
	_, err := newTestBuilder().WithPass("A", named("A")).Build(a)
	require.NoError(t, err)
	requirePanicIs(t, ErrArenaSealed, func() { Push(a, 1) })
}

func TestRunLeakedGuardPanics(t *testing.T) {
	a := NewArena()
	r := Push(a, 0)
	leaky := testPass{
		Accessors: []Accessor{r.Read()},
		Fn: func(res *Arena, _ *recorder, _ string) {
			r.Read().Access(res)
		},
	}
	g := newTestBuilder().WithPass("leaky", leaky).MustBuild(a)
	requirePanicIs(t, ErrGuardLeaked, func() {
		g.Run("device", testFrame{Encoder: &recorder{}})
	})
}

func TestRunWhileExecutingPanics(t *testing.T) {
	a := NewArena()
	var g *RenderGraph[*recorder, string, string, int]
	reentrant := testPass{
		Fn: func(_ *Arena, enc *recorder, dev string) {
			g.Run(dev, testFrame{Encoder: enc})
		},
	}
	g = newTestBuilder().WithPass("reentrant", reentrant).MustBuild(a)
	requirePanicIs(t, ErrFrameActive, func() {
		g.Run("device", testFrame{Encoder: &recorder{}})
	})
}

func TestRunFrameTargetReplaced(t *testing.T) {
	a := NewArena()
	target := FrameTarget[int]()
	view := FrameView[string]()

	present := testPass{
		Accessors: []Accessor{target.Result(), view.Write()},
		Fn: func(res *Arena, _ *recorder, _ string) {
			tg := target.Result().Access(res)
			prev, _ := tg.Set(100)
			tg.Release()

			vg := view.Write().Access(res)
			*vg.Value() += "+drawn"
			vg.Release()

			assert.Equal(t, 1, prev)
		},
	}
	g := newTestBuilder().WithPass("present", present).MustBuild(a)

	out := g.Run("device", testFrame{Encoder: &recorder{}, View: "view", Target: 1})
	assert.Equal(t, 100, out.Target)
	assert.Equal(t, "view+drawn", out.View)
}

func TestRunFrameTargetConsumed(t *testing.T) {
	a := NewArena()
	target := FrameTarget[int]()
	thief := testPass{
		Accessors: []Accessor{target.Move()},
		Fn: func(res *Arena, _ *recorder, _ string) {
			target.Move().Access(res)
		},
	}
	g := newTestBuilder().WithPass("thief", thief).MustBuild(a)
	requirePanicIs(t, ErrFrameResourceMissing, func() {
		g.Run("device", testFrame{Encoder: &recorder{}, View: "view", Target: 1})
	})
}

func TestConsumeAndRestoreBeforeReader(t *testing.T) {
	a := NewArena()
	r := Push(a, 1)

	g, err := newTestBuilder().
		WithPass("reader", named("reader", r.Read())).
		WithPass("refill", named("refill", r.Move(), r.Result())).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"refill"}, {"reader"}}, g.Schedule().Batches())
	assert.Equal(t, []Edge{{From: "refill", To: "reader", Reason: "res#2 result->read"}}, g.Schedule().Edges())
}

func TestReadWriteThenWriter(t *testing.T) {
	a := NewArena()
	r := Push(a, 1)

	g, err := newTestBuilder().
		WithPass("update", named("update", r.Read(), r.Write())).
		WithPass("overwrite", named("overwrite", r.Write())).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"update"}, {"overwrite"}}, g.Schedule().Batches())

	rec := &recorder{}
	g.Run("device", testFrame{Encoder: rec})
	assert.Equal(t, []string{"update", "overwrite"}, rec.log)
}

func TestFrameViewSwapThenBlit(t *testing.T) {
	a := NewArena()
	view := FrameView[string]()

	var blitted string
	swap := testPass{
		Accessors: []Accessor{view.Move(), view.Result()},
		Fn: func(res *Arena, enc *recorder, _ string) {
			v := view.Move().Access(res)
			rg := view.Result().Access(res)
			rg.Set(v + "+swapped")
			rg.Release()
			enc.log = append(enc.log, "swap")
		},
	}
	blit := testPass{
		Accessors: []Accessor{view.Read()},
		Fn: func(res *Arena, enc *recorder, _ string) {
			rg := view.Read().Access(res)
			blitted = rg.Value()
			rg.Release()
			enc.log = append(enc.log, "blit")
		},
	}
	g, err := newTestBuilder().
		WithPass("blit", blit).
		WithPass("swap", swap).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"swap"}, {"blit"}}, g.Schedule().Batches())

	rec := &recorder{}
	out := g.Run("device", testFrame{Encoder: rec, View: "view", Target: 1})
	assert.Equal(t, []string{"swap", "blit"}, rec.log)
	assert.Equal(t, "view+swapped", blitted)
	assert.Equal(t, "view+swapped", out.View)
	assert.Equal(t, 1, out.Target)
}

func TestMixedAccessPassesShareBatchWithoutConflict(t *testing.T) {
	a := NewArena()
	r := Push(a, 1)
	other := Push(a, 2)

	g, err := newTestBuilder().
		WithPass("mixed", named("mixed", r.Read(), r.Write(), other.Read())).
		WithPass("side", named("side", other.Read())).
		WithPass("tail", named("tail", r.Read())).
		Build(a)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"mixed", "side"}, {"tail"}}, g.Schedule().Batches())
}

func TestRunRepeatedFrames(t *testing.T) {
	a := NewArena()
	counter := Push(a, 0)
	payload := PushEmpty[string](a)

	var consumed []string
	g := newTestBuilder().
		WithPass("count", testPass{
			Accessors: []Accessor{counter.Write()},
			Fn: func(res *Arena, _ *recorder, _ string) {
				w := counter.Write().Access(res)
				*w.Value()++
				w.Release()
			},
		}).
		WithPass("drain", testPass{
			Accessors: []Accessor{payload.Move()},
			Fn: func(res *Arena, _ *recorder, _ string) {
				if v, ok := payload.Move().TryAccess(res); ok {
					consumed = append(consumed, v)
				}
			},
		}).
		MustBuild(a)

	for i := 0; i < 3; i++ {
		if i == 1 {
			w := payload.Result().Access(g.Arena())
			w.Set("frame-1")
			w.Release()
		}
		g.Run("device", testFrame{Encoder: &recorder{}})
		assert.Equal(t, FrameIdle, g.State())
	}

	r := counter.Read().Access(a)
	assert.Equal(t, 3, r.Value())
	r.Release()
	assert.Equal(t, []string{"frame-1"}, consumed)
}

func TestPassObserver(t *testing.T) {
	a := NewArena()
	var observed []string
	g := newTestBuilder(WithPassObserver(func(name string, elapsed time.Duration) {
		observed = append(observed, name)
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	})).
		WithPass("first", named("first")).
		WithPass("second", RunAfter[*recorder, string](named("second"), "first")).
		MustBuild(a)

	g.Run("device", testFrame{Encoder: &recorder{}})
	assert.Equal(t, []string{"first", "second"}, observed)
}

func TestGraphPassLookup(t *testing.T) {
	a := NewArena()
	g := newTestBuilder().WithPass("only", named("only")).MustBuild(a)

	p, ok := g.Pass("only")
	assert.True(t, ok)
	assert.NotNil(t, p)
	_, ok = g.Pass("nope")
	assert.False(t, ok)
	assert.Same(t, a, g.Arena())
}

func TestNodeBuilderDeclarations(t *testing.T) {
	n := &NodeBuilder{}
	n.Reads(2, 3)
	n.Writes(4)
	n.Consumes(5)
	n.Produces(6)
	n.Reads(2)
	n.Access(nil, ReadHandle[int]{id: 3})
	n.RunBefore("x")
	n.RunAfter("y")

	assert.Equal(t, []access{
		{id: 2, kind: AccessRead},
		{id: 3, kind: AccessRead},
		{id: 4, kind: AccessWrite},
		{id: 5, kind: AccessMove},
		{id: 6, kind: AccessResult},
	}, n.accesses)
	assert.Equal(t, []string{"x"}, n.before)
	assert.Equal(t, []string{"y"}, n.after)
}
