package graph

import (
	"strings"

	"github.com/sarchlab/svdmodel/internal/svd/ident"
)

// Path renders the dotted element path used in diagnostics (§6, §9):
// the chain of Name values from the Device root down to id.
func (g *Graph) Path(id ident.ID) string {
	var parts []string
	cur := id
	for {
		n := g.nodes[cur]
		if n == nil {
			break
		}
		if n.Kind == NodePlaceholder {
			parts = append([]string{"derivedFrom(" + n.DerivePath + ")"}, parts...)
		} else {
			parts = append([]string{n.Name}, parts...)
		}
		if n.Parent.IsZero() {
			break
		}
		cur = n.Parent
	}
	return strings.Join(parts, ".")
}
