package mcomplete

import (
	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mancestry"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
)

// slotStep is one [parent, child] pair produced by walking the ancestry
// outward from the effective leaf, per spec.md §4.E: "The engine walks
// ancestry in [parent, child] pairs, starting from the effective leaf."
//
// OwnerKind/OwnerID identify the parent whose attribute slots are being
// inspected. Slot is the attribute index that is presently "active" — the
// slot a handler should ask "is this the slot I care about?" about. For a
// still-open context sitting directly at the effective leaf, Slot is the
// context's own pending attribute count (the slot about to be filled). For
// a completed child at ancestry index ChildIdx, Slot is that child's own
// attribute index under Owner, bumped by one once we've moved past it (so
// a completed "=" constant in slot 1 reports Slot 2, meaning "the next
// thing here is slot 2").
//
// ChildIdx is the ancestry index of the child this step was derived from,
// or -1 for the self-step of a still-open leaf context (there is no
// separate "child" — the leaf node itself is the owner under inspection).
type slotStep struct {
	OwnerKind mnode.Kind
	OwnerID   mnode.ID
	Slot      int
	ChildIdx  int
}

// slotSteps computes the walk described above. Handlers are tried against
// these steps from innermost (closest to the cursor) to outermost (closest
// to the root); the first one that claims responsibility wins.
func slotSteps(ancestry mancestry.Ancestry, leafKind mactive.LeafKind) []slotStep {
	if len(ancestry) == 0 {
		return nil
	}

	var steps []slotStep

	if leafKind == mactive.KindContext {
		if ctx, ok := ancestry[0].Context(); ok {
			steps = append(steps, slotStep{OwnerKind: ctx.Kind, OwnerID: ctx.ID, Slot: ctx.AttributeCount, ChildIdx: -1})
		}
	}

	for i := 0; i+1 < len(ancestry); i++ {
		bump := 1
		if i == 0 {
			switch leafKind {
			case mactive.KindOnAst, mactive.KindAnchored, mactive.KindContext:
				bump = 0
			}
		}
		parent := ancestry[i+1]
		steps = append(steps, slotStep{
			OwnerKind: parent.Kind(),
			OwnerID:   parent.ID(),
			Slot:      ancestry[i].AttributeIndex() + bump,
			ChildIdx:  i,
		})
	}
	return steps
}

// childIsNumericLiteral reports whether the ancestry node at idx is a
// finalized numeric-literal leaf — the exception spec.md §4.E calls out:
// "unless the child is already an Ast numeric literal, in which case
// return the empty set: no keyword completes after a number."
func childIsNumericLiteral(ancestry mancestry.Ancestry, idx int) bool {
	if idx < 0 || idx >= len(ancestry) {
		return false
	}
	ast, ok := ancestry[idx].Ast()
	if !ok {
		return false
	}
	return ast.Kind == mnode.KindLiteralExpression && ast.LiteralTokenKind == mlexer.KindNumericLiteral
}
