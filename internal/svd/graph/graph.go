// Package graph implements the resolver arena (4.1, 4.6, §9): a
// directed graph of element and placeholder nodes keyed by stable
// ident.ID values, with CHILD_UNRESOLVED/CHILD_RESOLVED/PLACEHOLDER/
// DERIVE edges. The graph minus DERIVE edges is a tree; DERIVE edges
// form an acyclic overlay checked eagerly on insertion.
//
// Nodes are never removed mid-resolution; "removal" (folding a
// dim-template away, discarding a consumed placeholder) is modeled by
// leaving the node in the arena but excluding it from traversal, so a
// stale ident.ID a working set still holds never dereferences into
// reused storage (§5).
package graph

import (
	"fmt"

	"github.com/sarchlab/svdmodel/internal/svd/ident"
)

// Status is a node's position in the state machine of 4.6.
type Status int

const (
	Unprocessed Status = iota
	Processed
)

// Level identifies which rung of the Device→Peripheral→Cluster→
// Register→Field→EnumeratedValueContainer→EnumeratedValue hierarchy a
// node occupies. A derivedFrom target must resolve to a node of the
// same Level as its consumer (4.2 rule 4, LevelMismatch).
type Level int

const (
	LevelDevice Level = iota
	LevelPeripheral
	LevelCluster
	LevelRegister
	LevelField
	LevelEnumContainer
	LevelEnumValue
)

func (l Level) String() string {
	switch l {
	case LevelDevice:
		return "device"
	case LevelPeripheral:
		return "peripheral"
	case LevelCluster:
		return "cluster"
	case LevelRegister:
		return "register"
	case LevelField:
		return "field"
	case LevelEnumContainer:
		return "enumeratedValues"
	case LevelEnumValue:
		return "enumeratedValue"
	default:
		return "unknown"
	}
}

// NodeKind distinguishes an element node from a placeholder node.
type NodeKind int

const (
	NodeElement NodeKind = iota
	NodePlaceholder
)

// EdgeKind tags an edge per 4.1.
type EdgeKind int

const (
	ChildUnresolved EdgeKind = iota
	ChildResolved
	PlaceholderEdge
	Derive
)

func (k EdgeKind) String() string {
	switch k {
	case ChildUnresolved:
		return "CHILD_UNRESOLVED"
	case ChildResolved:
		return "CHILD_RESOLVED"
	case PlaceholderEdge:
		return "PLACEHOLDER"
	case Derive:
		return "DERIVE"
	default:
		return "UNKNOWN"
	}
}

// Edge is one (from, to, kind) triple (§9).
type Edge struct {
	From ident.ID
	To   ident.ID
	Kind EdgeKind
}

// Node is a tagged-union arena entry: either an element wrapping a
// parsed record (Kind == NodeElement) or a placeholder representing an
// unresolved derivedFrom (Kind == NodePlaceholder).
type Node struct {
	ID     ident.ID
	Kind   NodeKind
	Status Status
	Level  Level

	// Name is the (possibly still-templated) name used for sibling/
	// global derivedFrom search and for path rendering.
	Name   string
	Parent ident.ID

	// Record holds the raw parsed record this node wraps (Kind ==
	// NodeElement). Exactly one of the typed fields is non-nil,
	// matching Level.
	Record interface{}

	// Processed holds the *model.T payload once the element has been
	// converted by the element processor (4.3). Nil until Status ==
	// Processed.
	Processed interface{}

	// DerivePath is the dotted derivedFrom path (Kind ==
	// NodePlaceholder).
	DerivePath string

	// IsDimTemplate marks a node that expands into concrete siblings
	// (4.3 item 3) and is therefore excluded from finalized output.
	IsDimTemplate bool

	// removed marks a node as logically gone (folded dim template,
	// consumed placeholder) without invalidating its ID.
	removed bool
}

// Graph is the resolver arena.
type Graph struct {
	nodes    map[ident.ID]*Node
	outEdges map[ident.ID][]Edge
	inEdges  map[ident.ID][]Edge
	root     ident.ID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[ident.ID]*Node),
		outEdges: make(map[ident.ID][]Edge),
		inEdges:  make(map[ident.ID][]Edge),
	}
}

// AddNode inserts a node into the arena. The node's ID must already be
// set (callers allocate via ident.New()).
func (g *Graph) AddNode(n *Node) {
	g.nodes[n.ID] = n
}

// SetRoot marks id as the Device root, which begins PROCESSED (4.1).
func (g *Graph) SetRoot(id ident.ID) {
	g.root = id
}

// Root returns the Device root's ID.
func (g *Graph) Root() ident.ID {
	return g.root
}

// Node looks up a node by ID. Returns nil if absent or removed.
func (g *Graph) Node(id ident.ID) *Node {
	n := g.nodes[id]
	if n == nil || n.removed {
		return nil
	}
	return n
}

// NodeIncludingRemoved looks up a node regardless of its removed flag,
// for callers walking historical structure (e.g. dim-template
// replication sources).
func (g *Graph) NodeIncludingRemoved(id ident.ID) *Node {
	return g.nodes[id]
}

// Remove marks a node as logically gone without invalidating its ID or
// deleting it from the arena (§5).
func (g *Graph) Remove(id ident.ID) {
	if n := g.nodes[id]; n != nil {
		n.removed = true
	}
}

// AddEdge inserts an edge. DERIVE edges are checked for cycles before
// insertion; a cycle aborts the insertion and returns an error (4.2
// step 6, CycleException).
func (g *Graph) AddEdge(e Edge) error {
	if e.Kind == Derive {
		if g.wouldCycle(e.From, e.To) {
			return fmt.Errorf("graph: DERIVE edge %s -> %s would create a cycle", e.From, e.To)
		}
	}
	g.outEdges[e.From] = append(g.outEdges[e.From], e)
	g.inEdges[e.To] = append(g.inEdges[e.To], e)
	return nil
}

// RemoveEdgesOfKind deletes every edge of the given kind between from
// and to (used when a CHILD_UNRESOLVED edge is rewritten to
// CHILD_RESOLVED, 4.6).
func (g *Graph) RemoveEdgesOfKind(from, to ident.ID, kind EdgeKind) {
	filterOut := func(edges []Edge) []Edge {
		kept := edges[:0]
		for _, e := range edges {
			if e.From == from && e.To == to && e.Kind == kind {
				continue
			}
			kept = append(kept, e)
		}
		return kept
	}
	g.outEdges[from] = filterOut(g.outEdges[from])
	g.inEdges[to] = filterOut(g.inEdges[to])
}

// OutEdges returns the edges leaving id.
func (g *Graph) OutEdges(id ident.ID) []Edge {
	return g.outEdges[id]
}

// InEdges returns the edges entering id.
func (g *Graph) InEdges(id ident.ID) []Edge {
	return g.inEdges[id]
}

// Children returns the IDs id points to via edges of the given kind.
func (g *Graph) Children(id ident.ID, kind EdgeKind) []ident.ID {
	var out []ident.ID
	for _, e := range g.outEdges[id] {
		if e.Kind == kind {
			out = append(out, e.To)
		}
	}
	return out
}

// AllNodes returns every non-removed node in the arena, in no
// particular order; callers that need determinism sort by ID or Name
// themselves (§5's ordering guarantees live in the process/finalize
// packages, not here).
func (g *Graph) AllNodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if !n.removed {
			out = append(out, n)
		}
	}
	return out
}

// StructuralChildren returns the element children of id reachable via a
// CHILD_UNRESOLVED or CHILD_RESOLVED edge (i.e. the tree structure,
// regardless of whether the child has itself been processed yet).
// PLACEHOLDER and DERIVE edges are never structural.
func (g *Graph) StructuralChildren(id ident.ID) []ident.ID {
	var out []ident.ID
	for _, e := range g.outEdges[id] {
		if e.Kind == ChildUnresolved || e.Kind == ChildResolved {
			out = append(out, e.To)
		}
	}
	return out
}

// HasIncoming reports whether id has at least one in-edge of the given
// kind.
func (g *Graph) HasIncoming(id ident.ID, kind EdgeKind) bool {
	for _, e := range g.inEdges[id] {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// DeriveBase returns the source of id's incoming DERIVE edge, or the
// zero ID if id is not derived.
func (g *Graph) DeriveBase(id ident.ID) ident.ID {
	for _, e := range g.inEdges[id] {
		if e.Kind == Derive {
			return e.From
		}
	}
	return ident.Zero
}

// MarkProcessed transitions a node to PROCESSED with the given payload
// and rewrites its outgoing CHILD_UNRESOLVED edges to CHILD_RESOLVED
// (4.6), making its children discoverable as "unprocessed root nodes"
// for the next resolver round.
func (g *Graph) MarkProcessed(id ident.ID, processed interface{}) {
	n := g.nodes[id]
	if n == nil {
		return
	}
	n.Status = Processed
	n.Processed = processed

	edges := g.outEdges[id]
	for i := range edges {
		if edges[i].Kind == ChildUnresolved {
			edges[i].Kind = ChildResolved
		}
	}
	for to, edges := range g.inEdges {
		_ = to
		for i := range edges {
			if edges[i].From == id && edges[i].Kind == ChildUnresolved {
				edges[i].Kind = ChildResolved
			}
		}
	}
}

// wouldCycle reports whether adding a DERIVE edge from->to would close
// a cycle in the DERIVE overlay: true if to can already reach from via
// existing DERIVE edges.
func (g *Graph) wouldCycle(from, to ident.ID) bool {
	if from == to {
		return true
	}
	visited := map[ident.ID]bool{}
	var stack []ident.ID
	stack = append(stack, to)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == from {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for _, e := range g.outEdges[cur] {
			if e.Kind == Derive {
				stack = append(stack, e.To)
			}
		}
	}
	return false
}
