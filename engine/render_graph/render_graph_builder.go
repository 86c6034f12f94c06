package render_graph

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/logger"
	"github.com/sirupsen/logrus"
)

// graphOptions holds the settings shared by a builder and the graphs it builds.
type graphOptions struct {
	observer func(name string, elapsed time.Duration)
}

// RenderGraphBuilderOption is a functional option applied to a builder via NewRenderGraphBuilder.
type RenderGraphBuilderOption func(*graphOptions)

// WithPassObserver registers a callback invoked after every pass's Encode with the time it took.
//
// Parameters:
//   - observer: the callback, called on the goroutine running the frame
//
// Returns:
//   - RenderGraphBuilderOption: a function that applies the observer option to a builder
func WithPassObserver(observer func(name string, elapsed time.Duration)) RenderGraphBuilderOption {
	return func(o *graphOptions) {
		o.observer = observer
	}
}

// RenderGraphBuilder accumulates passes and compiles them into a RenderGraph.
type RenderGraphBuilder[E, D, V, T any] struct {
	passes  []Pass[E, D]
	decls   []*declaration
	names   map[string]bool
	options graphOptions
	err     error
}

// NewRenderGraphBuilder creates an empty builder.
//
// Parameters:
//   - options: variadic list of RenderGraphBuilderOption functions
//
// Returns:
//   - *RenderGraphBuilder[E, D, V, T]: the new builder
func NewRenderGraphBuilder[E, D, V, T any](options ...RenderGraphBuilderOption) *RenderGraphBuilder[E, D, V, T] {
	b := &RenderGraphBuilder[E, D, V, T]{names: make(map[string]bool)}
	for _, opt := range options {
		opt(&b.options)
	}
	return b
}

// WithPass registers pass under name and collects its declared dependencies.
// An empty name is replaced by "<pass type>#<index>". The first registration
// error is kept and returned by Build.
//
// Parameters:
//   - name: the pass name used by ordering constraints and diagnostics
//   - pass: the pass
//
// Returns:
//   - *RenderGraphBuilder[E, D, V, T]: the builder, for chaining
func (b *RenderGraphBuilder[E, D, V, T]) WithPass(name string, pass Pass[E, D]) *RenderGraphBuilder[E, D, V, T] {
	if pass == nil {
		b.fail(fmt.Errorf("render graph: nil pass %q", name))
		return b
	}
	if name == "" {
		name = fmt.Sprintf("%s#%d", passType(pass), len(b.passes))
	}
	if b.names[name] {
		b.fail(fmt.Errorf("%w: %q", ErrDuplicatePass, name))
		return b
	}
	b.names[name] = true

	node := &NodeBuilder{}
	pass.Declare(node)

	b.passes = append(b.passes, pass)
	b.decls = append(b.decls, &declaration{
		name:     name,
		index:    len(b.decls),
		accesses: node.accesses,
		before:   node.before,
		after:    node.after,
	})
	return b
}

func (b *RenderGraphBuilder[E, D, V, T]) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build compiles the registered passes into a schedule bound to arena and seals the arena.
// Build may be called repeatedly; each call derives the same schedule.
//
// Parameters:
//   - arena: the arena every declared resource was pushed into
//
// Returns:
//   - *RenderGraph[E, D, V, T]: the compiled graph
//   - error: ErrCyclicGraph, ErrUnknownPass, ErrDuplicatePass, ErrBatchConflict or ErrUndeclaredResource
func (b *RenderGraphBuilder[E, D, V, T]) Build(arena *Arena) (*RenderGraph[E, D, V, T], error) {
	if arena == nil {
		return nil, errors.New("render graph: nil arena")
	}
	if b.err != nil {
		return nil, b.err
	}

	arena.seal()
	schedule, err := compile(b.decls, arena)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("render_graph")
	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(logrus.Fields{
			"passes":  len(b.passes),
			"batches": schedule.Len(),
		}).Debugf("compiled schedule:\n%s", schedule)
	}

	return &RenderGraph[E, D, V, T]{
		arena:    arena,
		passes:   append([]Pass[E, D](nil), b.passes...),
		schedule: schedule,
		options:  b.options,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *RenderGraphBuilder[E, D, V, T]) MustBuild(arena *Arena) *RenderGraph[E, D, V, T] {
	g, err := b.Build(arena)
	if err != nil {
		panic(err)
	}
	return g
}

// passType names the concrete type behind pass, looking through ordering wrappers.
func passType[E, D any](pass Pass[E, D]) string {
	for {
		w, ok := pass.(interface{ Unwrap() Pass[E, D] })
		if !ok {
			break
		}
		pass = w.Unwrap()
	}
	t := reflect.TypeOf(pass)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
