// Package mactive resolves a cursor position to the syntactic location the
// user is deemed to occupy: the active node (spec.md §4.D). The phase
// structure here (try a strategy, fall through to the next) mirrors the
// classifyCursorContext strategy chain in vito/dang's
// pkg/dang/complete_ts.go, generalized from tree-sitter CST node walking
// to NodeIdMap leaf/context walking.
package mactive

import (
	"github.com/powerquery-lang/mquery/pkg/mancestry"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mposition"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// LeafKind classifies why a node was chosen as the active leaf.
type LeafKind int

const (
	KindOnAst LeafKind = iota
	KindAfterAst
	KindContext
	KindAnchored
	KindShiftedRight
)

func (k LeafKind) String() string {
	switch k {
	case KindOnAst:
		return "OnAst"
	case KindAfterAst:
		return "AfterAst"
	case KindContext:
		return "Context"
	case KindAnchored:
		return "Anchored"
	case KindShiftedRight:
		return "ShiftedRight"
	default:
		return "Unknown"
	}
}

// Identifier describes the identifier the cursor is "under", if any.
type Identifier struct {
	Node    mnode.XorNode
	Literal string
}

// ActiveNode is the resolved cursor location (spec.md §3).
type ActiveNode struct {
	Position                mlexer.Position
	LeafKind                LeafKind
	Ancestry                mancestry.Ancestry
	IdentifierUnderPosition *Identifier
}

// Leaf returns the effective leaf (ancestry[0]).
func (a *ActiveNode) Leaf() mnode.XorNode {
	return mancestry.Leaf(a.Ancestry)
}

// Resolve finds the active node for position, or returns (nil, nil) when
// no leaf starts at or before the cursor — an empty buffer or a cursor
// before the first token (spec.md §4.D, testable properties 9
// and 10). tokens is the token stream m was built from, threaded through to
// mposition.EffectiveRange for its context-node, no-leaf-yet fallback.
func Resolve(m *nodeidmap.Map, tokens []mlexer.Token, position mlexer.Position) (*ActiveNode, error) {
	bestOnOrBefore, bestAfter := findBestLeaves(m, position)
	if bestOnOrBefore == nil {
		return nil, nil
	}

	effective := mnode.NewAstXorNode(bestOnOrBefore)
	leafKind := KindOnAst
	shifted := false

	// Phase 2: shift resolution.
	if bestOnOrBefore.Kind == mnode.KindConstant {
		ck := bestOnOrBefore.ConstantTokenKind

		if mlexer.DrillDownConstants[ck] && bestAfter != nil && bestAfter.Kind == mnode.KindConstant {
			if closer, ok := mlexer.MatchingCloser(ck); ok && bestAfter.ConstantTokenKind == closer {
				if wrapper, ok, err := drillDownWrapper(m, bestOnOrBefore.ID); err != nil {
					return nil, err
				} else if ok {
					effective = wrapper
					leafKind = KindShiftedRight
					shifted = true
				}
			}
		}

		if !shifted && mlexer.ShiftRightConstants[ck] && bestAfter != nil {
			effective = mnode.NewAstXorNode(bestAfter)
			leafKind = KindShiftedRight
			shifted = true
		}
	}

	// Phase 3: context preference (only if no shift applied).
	if !shifted {
		if winner, ok := bestOpenContext(m, bestOnOrBefore.TokenIndexStart); ok {
			effective = winner
			leafKind = KindContext
			shifted = true // reuse flag: a later phase must not override this
		}
	}

	// Phase 4: anchoring, and Phase 5 (OnAst / AfterAst) for whatever an
	// anchor doesn't claim. Both read the same EffectiveRange (spec.md
	// §4.B — routed through here rather than reading bestOnOrBefore's
	// PositionEnd directly so context-node winners are handled the same
	// way): an anchor only holds the cursor while it's still on or inside
	// the anchor's own span. Once the cursor has moved strictly past it —
	// e.g. more text follows that the parser couldn't attach anywhere, as
	// in "let x = 1 a|" — there's no operand left to anchor to, so it
	// falls through to the ordinary after-leaf check, which is what lets
	// the conjunction rule (spec.md §4.E, gated on leafKind ∈ {AfterAst,
	// Context}) see it at all.
	if !shifted {
		_, end := mposition.EffectiveRange(m, tokens, effective)
		past := mposition.IsAfter(position, end, true)
		switch {
		case isAnchor(bestOnOrBefore) && !past:
			leafKind = KindAnchored
		case past:
			leafKind = KindAfterAst
		default:
			leafKind = KindOnAst
		}
	}

	ancestry, err := mancestry.Of(m, effective.ID())
	if err != nil {
		return nil, err
	}

	return &ActiveNode{
		Position:                position,
		LeafKind:                leafKind,
		Ancestry:                ancestry,
		IdentifierUnderPosition: identifierUnderPosition(m, effective, position),
	}, nil
}

// findBestLeaves scans every leaf and returns the leaf with the greatest
// start position <= cursor (bestOnOrBefore) and the leaf with the smallest
// start position > cursor (bestAfter). Either may be nil.
func findBestLeaves(m *nodeidmap.Map, position mlexer.Position) (bestOnOrBefore, bestAfter *mnode.AstNode) {
	for id := range m.LeafIDs() {
		x, ok := m.GetXor(id)
		if !ok {
			continue
		}
		ast, ok := x.Ast()
		if !ok {
			continue
		}
		cmp := ast.PositionStart.Compare(position)
		switch {
		case cmp <= 0:
			if bestOnOrBefore == nil || ast.PositionStart.Compare(bestOnOrBefore.PositionStart) > 0 {
				bestOnOrBefore = ast
			}
		default:
			if bestAfter == nil || ast.PositionStart.Compare(bestAfter.PositionStart) < 0 {
				bestAfter = ast
			}
		}
	}
	return bestOnOrBefore, bestAfter
}

// drillDownWrapper finds the enclosing wrapper's ArrayWrapper child (slot
// 1, between its opening and closing constants) and reports whether it is
// presently empty (no children yet), per spec.md §4.D's drill-down rule.
func drillDownWrapper(m *nodeidmap.Map, openerID mnode.ID) (mnode.XorNode, bool, error) {
	parentID, ok := m.ParentOf(openerID)
	if !ok {
		return mnode.XorNode{}, false, nil
	}
	wrapper, ok, err := m.ChildByAttributeIndex(parentID, 1, mnode.KindArrayWrapper)
	if err != nil || !ok {
		return mnode.XorNode{}, false, err
	}
	if len(m.ChildIDs(wrapper.ID())) != 0 {
		return mnode.XorNode{}, false, nil
	}
	return wrapper, true, nil
}

// bestOpenContext finds the open context node with the greatest
// TokenIndexStart that is >= threshold, preferring the higher id (the one
// started more recently, i.e. nested deeper) on a tie — two contexts can
// share a TokenIndexStart, e.g. an ArrayWrapper and the field selector it
// immediately opens inside it, and iteration order over OpenContextIDs is
// unspecified.
func bestOpenContext(m *nodeidmap.Map, threshold int) (mnode.XorNode, bool) {
	var best mnode.XorNode
	found := false
	for _, id := range m.OpenContextIDs() {
		x, ok := m.GetXor(id)
		if !ok {
			continue
		}
		if x.TokenIndexStart() < threshold {
			continue
		}
		if !found {
			best, found = x, true
			continue
		}
		if x.TokenIndexStart() > best.TokenIndexStart() ||
			(x.TokenIndexStart() == best.TokenIndexStart() && x.ID() > best.ID()) {
			best = x
		}
	}
	return best, found
}

// isAnchor reports whether leaf is one of the spec.md §4.D Phase 4 anchor
// kinds: an identifier, numeric literal, or keyword-valued constant.
func isAnchor(leaf *mnode.AstNode) bool {
	switch leaf.Kind {
	case mnode.KindIdentifier, mnode.KindGeneralizedIdentifier:
		return true
	case mnode.KindLiteralExpression:
		return leaf.LiteralTokenKind == mlexer.KindNumericLiteral
	case mnode.KindConstant:
		return mlexer.IsAnchorKind(leaf.ConstantTokenKind)
	default:
		return false
	}
}

// identifierUnderPosition implements spec.md §4.D Phase 6.
func identifierUnderPosition(m *nodeidmap.Map, effective mnode.XorNode, position mlexer.Position) *Identifier {
	ast, ok := effective.Ast()
	if !ok {
		return nil
	}

	switch ast.Kind {
	case mnode.KindIdentifier, mnode.KindGeneralizedIdentifier:
		// Right edge inclusive, per spec.md §9 Open Question 1 (resolved:
		// inclusive, matching the source's own stated behavior).
		if position.Compare(ast.PositionStart) >= 0 && position.Compare(ast.PositionEnd) <= 0 {
			return &Identifier{Node: effective, Literal: ast.Literal}
		}
	case mnode.KindConstant:
		if ast.ConstantTokenKind != mlexer.KindAt {
			return nil
		}
		parentID, ok := m.ParentOf(ast.ID)
		if !ok {
			return nil
		}
		parent, ok := m.GetXor(parentID)
		if !ok || parent.Kind() != mnode.KindIdentifierExpression {
			return nil
		}
		idChild, ok, err := m.ChildByAttributeIndex(parentID, 1, mnode.KindIdentifier, mnode.KindGeneralizedIdentifier)
		if err != nil || !ok {
			return nil
		}
		if idAst, ok := idChild.Ast(); ok {
			return &Identifier{Node: idChild, Literal: idAst.Literal}
		}
	}
	return nil
}
