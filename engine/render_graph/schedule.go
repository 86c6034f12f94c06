package render_graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/btree"
)

// declaration is the scheduler's view of a pass: its name, position and declared dependencies.
type declaration struct {
	name     string
	index    int
	accesses []access
	before   []string
	after    []string
}

// Edge is one ordering constraint of a compiled schedule.
type Edge struct {
	From   string
	To     string
	Reason string
}

// Schedule is the compiled, immutable execution order of a render graph.
type Schedule struct {
	batches [][]int
	names   []string
	edges   []Edge
}

// Batches returns the pass names of every batch, in execution order.
//
// Returns:
//   - [][]string: one slice of pass names per batch
func (s *Schedule) Batches() [][]string {
	out := make([][]string, len(s.batches))
	for i, batch := range s.batches {
		out[i] = make([]string, len(batch))
		for j, idx := range batch {
			out[i][j] = s.names[idx]
		}
	}
	return out
}

// Len returns the number of batches.
func (s *Schedule) Len() int {
	return len(s.batches)
}

// Order returns every pass name in sequential execution order.
func (s *Schedule) Order() []string {
	out := make([]string, 0, len(s.names))
	for _, batch := range s.batches {
		for _, idx := range batch {
			out = append(out, s.names[idx])
		}
	}
	return out
}

// BatchOf returns the batch index of the named pass, or -1 if no such pass is scheduled.
func (s *Schedule) BatchOf(name string) int {
	for i, batch := range s.batches {
		for _, idx := range batch {
			if s.names[idx] == name {
				return i
			}
		}
	}
	return -1
}

// Edges returns the ordering constraints the schedule was compiled from.
func (s *Schedule) Edges() []Edge {
	return slices.Clone(s.edges)
}

func (s *Schedule) String() string {
	var sb strings.Builder
	for i, batch := range s.batches {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "batch %d: [", i)
		for j, idx := range batch {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.names[idx])
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// DumpGraphviz renders the schedule as a Graphviz digraph, one cluster per batch.
func (s *Schedule) DumpGraphviz() string {
	var sb strings.Builder
	sb.WriteString("digraph render_graph {\n\trankdir=LR;\n")
	for i, batch := range s.batches {
		fmt.Fprintf(&sb, "\tsubgraph cluster_%d {\n\t\tlabel=\"batch %d\";\n", i, i)
		for _, idx := range batch {
			fmt.Fprintf(&sb, "\t\t%q;\n", s.names[idx])
		}
		sb.WriteString("\t}\n")
	}
	for _, e := range s.edges {
		fmt.Fprintf(&sb, "\t%q -> %q [label=%q];\n", e.From, e.To, e.Reason)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// dependencyGraph is the adjacency form of the declared edges.
type dependencyGraph struct {
	succ  [][]int
	seen  map[[2]int]bool
	edges []Edge
	decls []*declaration
}

func (g *dependencyGraph) link(from, to int, reason string) {
	if from == to {
		return
	}
	key := [2]int{from, to}
	if g.seen[key] {
		return
	}
	g.seen[key] = true
	g.succ[from] = append(g.succ[from], to)
	g.edges = append(g.edges, Edge{From: g.decls[from].name, To: g.decls[to].name, Reason: reason})
}

// compile derives the dependency edges of decls and layers them into batches.
//
// Per resource, accesses are ranked Result, Write, Read, Move: every access
// precedes every higher-ranked access of another pass, and exclusive accesses
// of the same kind are chained in registration order.
func compile(decls []*declaration, arena *Arena) (*Schedule, error) {
	byName := make(map[string]int, len(decls))
	for i, d := range decls {
		byName[d.name] = i
	}

	g := &dependencyGraph{
		succ:  make([][]int, len(decls)),
		seen:  make(map[[2]int]bool),
		decls: decls,
	}

	// resource -> kind -> passes, in registration order. A pass with several
	// kinds on one resource is ordered by its lowest-ranked kind only.
	users := make(map[ResourceID]*[4][]int)
	var resources []ResourceID
	for i, d := range decls {
		for _, a := range lowestRanked(d.accesses) {
			if !arena.contains(a.id) {
				return nil, fmt.Errorf("%w: pass %q declares %s", ErrUndeclaredResource, d.name, a.id)
			}
			u, ok := users[a.id]
			if !ok {
				u = &[4][]int{}
				users[a.id] = u
				resources = append(resources, a.id)
			}
			u[a.kind] = append(u[a.kind], i)
		}
	}
	slices.Sort(resources)

	for _, id := range resources {
		u := users[id]
		for k := AccessResult; k <= AccessMove; k++ {
			if k.Exclusive() {
				for j := 1; j < len(u[k]); j++ {
					g.link(u[k][j-1], u[k][j], fmt.Sprintf("%s %s->%s", id, k, k))
				}
			}
			for later := k + 1; later <= AccessMove; later++ {
				for _, from := range u[k] {
					for _, to := range u[later] {
						g.link(from, to, fmt.Sprintf("%s %s->%s", id, k, later))
					}
				}
			}
		}
	}

	for i, d := range decls {
		for _, name := range d.before {
			j, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q runs before %q", ErrUnknownPass, d.name, name)
			}
			g.link(i, j, "before")
		}
		for _, name := range d.after {
			j, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q runs after %q", ErrUnknownPass, d.name, name)
			}
			g.link(j, i, "after")
		}
	}

	batches, err := g.layer()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.name
	}
	s := &Schedule{batches: batches, names: names, edges: g.edges}

	if err := validateBatches(s, decls); err != nil {
		return nil, err
	}
	return s, nil
}

// lowestRanked keeps one access per resource: the lowest-ranked kind the pass declared on it.
func lowestRanked(accesses []access) []access {
	out := make([]access, 0, len(accesses))
	pos := make(map[ResourceID]int, len(accesses))
	for _, a := range accesses {
		if k, ok := pos[a.id]; ok {
			out[k].kind = min(out[k].kind, a.kind)
			continue
		}
		pos[a.id] = len(out)
		out = append(out, a)
	}
	return out
}

// readyNode orders the ready set by level, then registration index.
type readyNode struct {
	level int
	index int
}

func (a readyNode) less(b readyNode) bool {
	if a.level != b.level {
		return a.level < b.level
	}
	return a.index < b.index
}

// layer runs Kahn's algorithm, assigning every node the length of the longest
// path reaching it. A node's level is final once it is ready, and every node of
// a level is ready before the first one is taken, so popping the ready set in
// (level, index) order yields the batches in sequence, each in registration order.
func (g *dependencyGraph) layer() ([][]int, error) {
	n := len(g.decls)
	indegree := make([]int, n)
	for _, succ := range g.succ {
		for _, to := range succ {
			indegree[to]++
		}
	}

	levels := make([]int, n)
	ready := btree.NewG[readyNode](8, readyNode.less)
	for i, d := range indegree {
		if d == 0 {
			ready.ReplaceOrInsert(readyNode{index: i})
		}
	}

	var batches [][]int
	visited := 0
	for ready.Len() > 0 {
		node, _ := ready.DeleteMin()
		visited++
		if node.level == len(batches) {
			batches = append(batches, nil)
		}
		batches[node.level] = append(batches[node.level], node.index)

		for _, to := range g.succ[node.index] {
			levels[to] = max(levels[to], node.level+1)
			indegree[to]--
			if indegree[to] == 0 {
				ready.ReplaceOrInsert(readyNode{level: levels[to], index: to})
			}
		}
	}

	if visited < n {
		var stuck []string
		for i, d := range indegree {
			if d > 0 {
				stuck = append(stuck, g.decls[i].name)
			}
		}
		return nil, fmt.Errorf("%w: passes %s", ErrCyclicGraph, strings.Join(stuck, ", "))
	}
	return batches, nil
}

// validateBatches rejects a batch holding two passes with conflicting access to one resource.
func validateBatches(s *Schedule, decls []*declaration) error {
	for b, batch := range s.batches {
		type holder struct {
			pass      int
			exclusive bool
		}
		held := make(map[ResourceID]holder)
		for _, idx := range batch {
			for _, a := range decls[idx].accesses {
				prev, ok := held[a.id]
				if !ok {
					held[a.id] = holder{pass: idx, exclusive: a.kind.Exclusive()}
					continue
				}
				if prev.pass == idx {
					prev.exclusive = prev.exclusive || a.kind.Exclusive()
					held[a.id] = prev
					continue
				}
				if prev.exclusive || a.kind.Exclusive() {
					return fmt.Errorf("%w: batch %d holds %q and %q on %s",
						ErrBatchConflict, b, decls[prev.pass].name, decls[idx].name, a.id)
				}
			}
		}
	}
	return nil
}
