// Package derive implements stage B of the pipeline (4.2): resolving
// PLACEHOLDER nodes into DERIVE edges by searching for a derivedFrom
// target, first among the consumer's siblings, then across the whole
// device. It is grounded on original_source's resolve.py
// (_find_base_node / get_element_siblings), adapted from that engine's
// graph-traversal helpers to this module's Graph API.
package derive

import (
	"fmt"
	"strings"

	svdmodel "github.com/sarchlab/svdmodel"
	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/graph"
)

// Resolve attempts to resolve every outstanding placeholder node in g.
// It returns whether at least one placeholder was resolved this round
// (the fixed-point driver keeps calling Resolve/process.RunEligible in
// alternation while either makes progress, §5/§9) and the first fatal
// error encountered (AmbiguousDerivation, UnresolvedDerivation,
// CycleException).
func Resolve(g *graph.Graph, sink diag.Warner) (bool, error) {
	progressed := false
	for _, ph := range placeholders(g) {
		ok, err := resolveOne(g, ph)
		if err != nil {
			return progressed, err
		}
		if ok {
			progressed = true
		}
	}
	return progressed, nil
}

// placeholders returns every still-live placeholder node, i.e. one
// whose consumer has not yet received a DERIVE edge.
func placeholders(g *graph.Graph) []*graph.Node {
	var out []*graph.Node
	for _, n := range g.AllNodes() {
		if n.Kind == graph.NodePlaceholder {
			out = append(out, n)
		}
	}
	return out
}

// resolveOne attempts to resolve a single placeholder. A placeholder
// can only resolve once the consumer's structural parent has itself
// been PROCESSED (4.2 rule 2: the parent must be resolved before the
// child's derivedFrom can be searched, since the search begins among
// the parent's own children).
//
// A miss in the current round is not itself fatal: the derivedFrom
// target may be a dim-expanded concrete instance that process.RunEligible
// hasn't created yet this round. Resolve/RunEligible alternate in
// svdresolve's fixed-point loop precisely so a later round can create
// the target first; resolveOne returns (false, nil) on a same-round
// miss and leaves stuck-detection to that loop's post-loop
// firstUnresolved check, which only fires once no round makes progress.
func resolveOne(g *graph.Graph, ph *graph.Node) (bool, error) {
	consumer := placeholderConsumer(g, ph)
	if consumer == nil {
		return false, nil
	}

	parent := g.Node(consumer.Parent)
	if parent == nil || parent.Status != graph.Processed {
		return false, nil
	}

	path := strings.Split(ph.DerivePath, ".")
	if len(path) == 0 || path[0] == "" {
		return false, svdmodel.NewError(diag.KindUnresolvedDerivation, g.Path(consumer.ID),
			fmt.Errorf("empty derivedFrom path"))
	}

	base, err := findBase(g, consumer, path)
	if err != nil {
		return false, err
	}
	if base == nil {
		return false, nil
	}

	if err := g.AddEdge(graph.Edge{From: base.ID, To: consumer.ID, Kind: graph.Derive}); err != nil {
		return false, svdmodel.NewError(diag.KindCycleException, g.Path(consumer.ID), err)
	}

	// The placeholder has served its purpose: fold it away so it is no
	// longer reported by placeholders() on the next round and its
	// PLACEHOLDER edge no longer blocks the consumer's eligibility, but
	// keep its ID live in the arena (§5).
	g.Remove(ph.ID)
	g.RemoveEdgesOfKind(ph.ID, consumer.ID, graph.PlaceholderEdge)

	return true, nil
}

// placeholderConsumer follows the placeholder's outgoing PLACEHOLDER
// edge to the element node it gates.
func placeholderConsumer(g *graph.Graph, ph *graph.Node) *graph.Node {
	for _, e := range g.OutEdges(ph.ID) {
		if e.Kind == graph.PlaceholderEdge {
			return g.Node(e.To)
		}
	}
	return nil
}

// findBase searches for the derivedFrom target of consumer along path.
// The first component is searched for among consumer's siblings; if no
// sibling matches, the search falls back to a global search starting
// from the device's direct children (peripherals), matching resolve
// .py's _find_base_node (_resolver_graph.get_element_childrens(root)).
// This must start from the peripherals regardless of consumer's own
// Level: a dotted path like "PeripheralA.RegisterB.FieldC" names a
// peripheral in path[0] even when consumer is a Field, so pre-filtering
// candidates to consumer.Level (as a same-level search would) can never
// match path[0] against anything but another field. Remaining path
// components recurse into matched nodes' structural children.
func findBase(g *graph.Graph, consumer *graph.Node, path []string) (*graph.Node, error) {
	sibling, err := searchAmong(g, siblingsOf(g, consumer), consumer, path)
	if err != nil {
		return nil, err
	}
	if sibling != nil {
		return sibling, nil
	}

	var peripherals []*graph.Node
	for _, cid := range g.StructuralChildren(g.Root()) {
		if c := g.Node(cid); c != nil {
			peripherals = append(peripherals, c)
		}
	}
	return searchAmong(g, peripherals, consumer, path)
}

// siblingsOf returns consumer's structural siblings: the other
// structural children of consumer's parent.
func siblingsOf(g *graph.Graph, consumer *graph.Node) []*graph.Node {
	var out []*graph.Node
	for _, cid := range g.StructuralChildren(consumer.Parent) {
		if cid == consumer.ID {
			continue
		}
		if c := g.Node(cid); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// searchAmong matches path[0] by Name against each candidate,
// recursing into structural children for the remaining components. A
// match only counts once the final component resolves to a node whose
// Level equals consumer.Level; a name match at the wrong level is
// treated as no match and the search continues (resolve.py folds
// LevelMismatch into an exhausted search rather than raising it as a
// distinct condition). More than one candidate matching the full path
// is an AmbiguousDerivation.
func searchAmong(g *graph.Graph, candidates []*graph.Node, consumer *graph.Node, path []string) (*graph.Node, error) {
	var matches []*graph.Node
	for _, c := range candidates {
		matches = append(matches, matchRecursive(g, c, consumer, path)...)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, svdmodel.NewError(diag.KindAmbiguousDerivation, g.Path(consumer.ID),
			fmt.Errorf("derivedFrom path %q matched %d elements", strings.Join(path, "."), len(matches)))
	}
}

func matchRecursive(g *graph.Graph, n *graph.Node, consumer *graph.Node, path []string) []*graph.Node {
	if n.Name != path[0] {
		return nil
	}
	if len(path) == 1 {
		if n.Level != consumer.Level {
			return nil
		}
		return []*graph.Node{n}
	}
	var found []*graph.Node
	for _, cid := range g.StructuralChildren(n.ID) {
		c := g.Node(cid)
		if c == nil {
			continue
		}
		// Every match within this branch is returned; the caller's tally
		// surfaces more than one as ambiguous.
		found = append(found, matchRecursive(g, c, consumer, path[1:])...)
	}
	return found
}

