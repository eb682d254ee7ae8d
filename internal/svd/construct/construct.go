// Package construct implements stage A of the pipeline (4.1): building
// the resolver arena from a parsed record.Device tree, attaching
// placeholder nodes for every derivedFrom attribute encountered.
package construct

import (
	"github.com/sarchlab/svdmodel/internal/svd/graph"
	"github.com/sarchlab/svdmodel/internal/svd/ident"
	"github.com/sarchlab/svdmodel/internal/svd/record"
)

// Build constructs the arena for dev and returns the graph together with
// the Device root's ID. The Device root begins PROCESSED; every
// descendant begins UNPROCESSED (4.1).
func Build(dev *record.Device) (*graph.Graph, ident.ID) {
	g := graph.New()

	root := &graph.Node{
		ID:     ident.New(),
		Kind:   graph.NodeElement,
		Status: graph.Processed,
		Level:  graph.LevelDevice,
		Name:   dev.Name,
		Record: dev,
	}
	g.AddNode(root)
	g.SetRoot(root.ID)

	for _, p := range dev.Peripherals {
		addPeripheral(g, root.ID, p)
	}

	return g, root.ID
}

func newNode(level graph.Level, name string, parent ident.ID, rec interface{}) *graph.Node {
	return &graph.Node{
		ID:     ident.New(),
		Kind:   graph.NodeElement,
		Status: graph.Unprocessed,
		Level:  level,
		Name:   name,
		Parent: parent,
		Record: rec,
	}
}

// attachPlaceholder wires a PLACEHOLDER edge from parent to a new
// placeholder node and a further PLACEHOLDER edge from the placeholder
// to consumer, per 4.1. The consumer therefore cannot become ELIGIBLE
// (4.6) until the placeholder is resolved into a DERIVE edge.
func attachPlaceholder(g *graph.Graph, parent, consumer ident.ID, path string) {
	ph := &graph.Node{
		ID:         ident.New(),
		Kind:       graph.NodePlaceholder,
		Status:     graph.Unprocessed,
		DerivePath: path,
	}
	g.AddNode(ph)
	// Edges never fail here: PLACEHOLDER edges are not cycle-checked.
	_ = g.AddEdge(graph.Edge{From: parent, To: ph.ID, Kind: graph.PlaceholderEdge})
	_ = g.AddEdge(graph.Edge{From: ph.ID, To: consumer, Kind: graph.PlaceholderEdge})
}

func addPeripheral(g *graph.Graph, parent ident.ID, p *record.Peripheral) {
	n := newNode(graph.LevelPeripheral, p.Name, parent, p)
	g.AddNode(n)
	// parent is always the Device root, which begins PROCESSED (4.1), so
	// the edge is immediately CHILD_RESOLVED rather than going through a
	// promotion step later.
	_ = g.AddEdge(graph.Edge{From: parent, To: n.ID, Kind: graph.ChildResolved})

	if p.DerivedFrom != nil {
		attachPlaceholder(g, parent, n.ID, *p.DerivedFrom)
	}

	for _, r := range p.Registers {
		addRegister(g, n.ID, r)
	}
	for _, c := range p.Clusters {
		addCluster(g, n.ID, c)
	}
}

func addCluster(g *graph.Graph, parent ident.ID, c *record.Cluster) {
	n := newNode(graph.LevelCluster, c.Name, parent, c)
	g.AddNode(n)
	_ = g.AddEdge(graph.Edge{From: parent, To: n.ID, Kind: graph.ChildUnresolved})

	if c.DerivedFrom != nil {
		attachPlaceholder(g, parent, n.ID, *c.DerivedFrom)
	}

	for _, r := range c.Registers {
		addRegister(g, n.ID, r)
	}
	for _, sub := range c.Clusters {
		addCluster(g, n.ID, sub)
	}
}

func addRegister(g *graph.Graph, parent ident.ID, r *record.Register) {
	n := newNode(graph.LevelRegister, r.Name, parent, r)
	g.AddNode(n)
	_ = g.AddEdge(graph.Edge{From: parent, To: n.ID, Kind: graph.ChildUnresolved})

	if r.DerivedFrom != nil {
		attachPlaceholder(g, parent, n.ID, *r.DerivedFrom)
	}

	for _, f := range r.Fields {
		addField(g, n.ID, f)
	}
}

func addField(g *graph.Graph, parent ident.ID, f *record.Field) {
	n := newNode(graph.LevelField, f.Name, parent, f)
	g.AddNode(n)
	_ = g.AddEdge(graph.Edge{From: parent, To: n.ID, Kind: graph.ChildUnresolved})

	if f.DerivedFrom != nil {
		attachPlaceholder(g, parent, n.ID, *f.DerivedFrom)
	}

	for _, evc := range f.EnumeratedValueContainers {
		addEnumContainer(g, n.ID, evc)
	}
}

// addEnumContainer attaches one enumeratedValues element. Individual
// enumeratedValue children are never independently-scheduled graph
// nodes: the CMSIS-SVD schema gives them no derivedFrom or dim group,
// so there is nothing for the resolver's eligibility machinery to wait
// on. Wildcard expansion, uniqueness, and isDefault synthesis (4.3's
// "Per-node processing (EnumeratedValueContainer)") instead run as a
// single step against the raw record.EnumeratedValueContainer's
// EnumeratedValues slice when the container node itself is processed.
func addEnumContainer(g *graph.Graph, parent ident.ID, evc *record.EnumeratedValueContainer) {
	name := ""
	if evc.Name != nil {
		name = *evc.Name
	}
	n := newNode(graph.LevelEnumContainer, name, parent, evc)
	g.AddNode(n)
	_ = g.AddEdge(graph.Edge{From: parent, To: n.ID, Kind: graph.ChildUnresolved})

	if evc.DerivedFrom != nil {
		attachPlaceholder(g, parent, n.ID, *evc.DerivedFrom)
	}
}
