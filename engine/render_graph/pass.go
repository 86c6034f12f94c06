package render_graph

// Pass is a unit of recorded work scheduled by a RenderGraph.
//
// E is the recording context handed to Encode (a command encoder for a GPU
// backend), D is the device handle.
type Pass[E, D any] interface {
	// Encode records the pass's work. Every guard acquired from res must be
	// released before Encode returns.
	//
	// Parameters:
	//   - res: the graph's arena
	//   - encoder: the frame's recording context
	//   - device: the device handle
	Encode(res *Arena, encoder E, device D)

	// Declare reports the resources the pass touches and its ordering constraints.
	// It is called exactly once, when the pass is added to a RenderGraphBuilder.
	//
	// Parameters:
	//   - node: the builder collecting the pass's dependencies
	Declare(node *NodeBuilder)
}

type orderedPass[E, D any] struct {
	inner  Pass[E, D]
	name   string
	before bool
}

var _ Pass[any, any] = &orderedPass[any, any]{}

// RunBefore wraps pass so that it is scheduled in a batch strictly before the pass registered as name.
// The wrapped pass is not modified.
//
// Parameters:
//   - pass: the pass to constrain
//   - name: the name of the pass that must run later
//
// Returns:
//   - Pass[E, D]: the wrapping pass
func RunBefore[E, D any](pass Pass[E, D], name string) Pass[E, D] {
	return &orderedPass[E, D]{inner: pass, name: name, before: true}
}

// RunAfter wraps pass so that it is scheduled in a batch strictly after the pass registered as name.
// The wrapped pass is not modified.
//
// Parameters:
//   - pass: the pass to constrain
//   - name: the name of the pass that must run earlier
//
// Returns:
//   - Pass[E, D]: the wrapping pass
func RunAfter[E, D any](pass Pass[E, D], name string) Pass[E, D] {
	return &orderedPass[E, D]{inner: pass, name: name}
}

func (p *orderedPass[E, D]) Encode(res *Arena, encoder E, device D) {
	p.inner.Encode(res, encoder, device)
}

func (p *orderedPass[E, D]) Declare(node *NodeBuilder) {
	p.inner.Declare(node)
	if p.before {
		node.RunBefore(p.name)
	} else {
		node.RunAfter(p.name)
	}
}

// Unwrap returns the wrapped pass.
func (p *orderedPass[E, D]) Unwrap() Pass[E, D] {
	return p.inner
}

// PassFunc adapts a closure into a Pass. Accessors are declared as-is; Fn is the encode step.
type PassFunc[E, D any] struct {
	Accessors []Accessor
	Fn        func(res *Arena, encoder E, device D)
}

var _ Pass[any, any] = PassFunc[any, any]{}

func (p PassFunc[E, D]) Encode(res *Arena, encoder E, device D) {
	if p.Fn != nil {
		p.Fn(res, encoder, device)
	}
}

func (p PassFunc[E, D]) Declare(node *NodeBuilder) {
	node.Access(p.Accessors...)
}
