package render_graph

// access is one declared (resource, kind) pair of a node.
type access struct {
	id   ResourceID
	kind AccessKind
}

// NodeBuilder collects the dependencies a pass declares in its Declare step.
// A fresh builder is handed to every pass exactly once, when the pass is added
// to a RenderGraphBuilder.
type NodeBuilder struct {
	accesses []access
	before   []string
	after    []string
}

// Access declares one dependency per accessor, using the accessor's kind.
//
// Parameters:
//   - accessors: the derived handles the pass will resolve during Encode
func (n *NodeBuilder) Access(accessors ...Accessor) {
	for _, a := range accessors {
		if a == nil {
			continue
		}
		n.add(a.ResourceID(), a.Kind())
	}
}

// Reads declares shared read access to each id.
func (n *NodeBuilder) Reads(ids ...ResourceID) {
	n.addAll(ids, AccessRead)
}

// Writes declares exclusive in-place write access to each id.
func (n *NodeBuilder) Writes(ids ...ResourceID) {
	n.addAll(ids, AccessWrite)
}

// Consumes declares move access to each id.
func (n *NodeBuilder) Consumes(ids ...ResourceID) {
	n.addAll(ids, AccessMove)
}

// Produces declares result access to each id.
func (n *NodeBuilder) Produces(ids ...ResourceID) {
	n.addAll(ids, AccessResult)
}

// RunBefore constrains the pass to a batch strictly before the named pass.
func (n *NodeBuilder) RunBefore(name string) {
	n.before = append(n.before, name)
}

// RunAfter constrains the pass to a batch strictly after the named pass.
func (n *NodeBuilder) RunAfter(name string) {
	n.after = append(n.after, name)
}

func (n *NodeBuilder) addAll(ids []ResourceID, kind AccessKind) {
	for _, id := range ids {
		n.add(id, kind)
	}
}

// add records a dependency. Duplicate (id, kind) pairs collapse into one.
func (n *NodeBuilder) add(id ResourceID, kind AccessKind) {
	for _, a := range n.accesses {
		if a.id == id && a.kind == kind {
			return
		}
	}
	n.accesses = append(n.accesses, access{id: id, kind: kind})
}
