// Primitive-type analysis (spec.md §4.F). Grounded on the same ancestry
// inspection style as keyword.go, specialized to the single node kind
// (NullablePrimitiveType) that owns a primitive type name slot.
package mcomplete

import (
	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
)

// PrimitiveType runs the primitive-type autocomplete analysis for active
// (spec.md §4.F). It is valid only when the cursor sits inside a still-open
// NullablePrimitiveType context — which the parser only ever opens directly
// under a TypePrimaryType or AsNullablePrimitiveType node, so finding one is
// sufficient to satisfy "ancestry contains ... at the right depth".
func PrimitiveType(active *mactive.ActiveNode, trailing *mlexer.Token) PrimitiveTypeResult {
	if active == nil {
		return PrimitiveTypeResult{}
	}
	if !openNullablePrimitiveType(active) {
		return PrimitiveTypeResult{}
	}
	prefix := effectivePrefix(active, trailing)
	return PrimitiveTypeResult{Names: prefixFilter(mnode.PrimitiveTypeNames, prefix)}
}

// openNullablePrimitiveType reports whether the active leaf is a
// NullablePrimitiveType context still waiting for its primitive-type slot —
// meaning the cursor is strictly after the leading "type"/"as" keyword
// (the context is only opened once that keyword has already been
// consumed). Only the context kind is checked: a child already in the
// primitive-type slot does not make it report false.
func openNullablePrimitiveType(active *mactive.ActiveNode) bool {
	if active.LeafKind != mactive.KindContext {
		return false
	}
	ctx, ok := active.Leaf().Context()
	if !ok || ctx.Kind != mnode.KindNullablePrimitiveType {
		return false
	}
	return true
}
