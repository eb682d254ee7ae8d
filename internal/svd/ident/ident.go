// Package ident provides stable, removal-safe identifiers for nodes in
// the resolver arena. Identifiers are never reused and never invalidated
// by the removal of the node they name, so a working set can keep
// referring to a node after it has been replaced by a concrete
// dim-expansion or folded into a derived element.
package ident

import (
	"github.com/rs/xid"
)

// ID is a stable node identifier.
type ID struct {
	raw xid.ID
}

// New allocates a fresh identifier. IDs are sortable by allocation
// order, which gives the resolver's lexicographic topological order
// (4.3, §5) a deterministic tiebreaker for free.
func New() ID {
	return ID{raw: xid.New()}
}

// Zero reports the nil identifier, used as a not-found sentinel.
var Zero ID

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == Zero
}

// String renders the identifier for diagnostics and map-key debugging.
func (id ID) String() string {
	return id.raw.String()
}

// Compare orders two identifiers, matching xid's allocation-time
// ordering.
func (id ID) Compare(other ID) int {
	return id.raw.Compare(other.raw)
}
