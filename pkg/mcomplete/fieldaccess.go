// Field-access analysis (spec.md §4.H): the only analysis that calls out
// to an external type engine, and the only one with two independent
// discovery paths (ancestor match and a speculative trailing-wrapper
// re-parse, raced via speculative.go).
package mcomplete

import (
	"context"
	"strings"

	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mparse"
	"github.com/powerquery-lang/mquery/pkg/mposition"
	"github.com/powerquery-lang/mquery/pkg/mtype"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// FieldAccess runs the field-access autocomplete analysis for active
// (spec.md §4.H). lastErr and state back the trailing-open-wrapper
// discovery path; engine is the caller-supplied type inference
// collaborator. A nil engine or the absence of any field-access node both
// simply produce an empty, error-free result.
func FieldAccess(ctx context.Context, m *nodeidmap.Map, active *mactive.ActiveNode, lastErr *mparse.Error, state *mparse.State, engine TypeEngine) FieldAccessResult {
	if active == nil || engine == nil {
		return FieldAccessResult{}
	}

	node, faMap, speculative, ok := locateFieldAccess(ctx, m, active, lastErr, state)
	if !ok {
		return FieldAccessResult{}
	}

	// faMap may be a speculative trial's map rather than m, but every trial
	// State shares the same underlying Tokens slice (only its Map is new),
	// so state.Tokens is always the right
	// stream to resolve faMap's context-node positions against.
	var tokens []mlexer.Token
	if state != nil {
		tokens = state.Tokens
	}
	insp := inspectFieldAccess(faMap, tokens, node, active.Position)
	if !insp.allowed {
		return FieldAccessResult{}
	}

	var receiverID mnode.ID
	if speculative {
		// The speculative node was parsed with no parent link, so its chain
		// must be found in the real map via the real (committed) ancestry
		// instead of node's own (nonexistent) parent.
		receiverID, ok = typablePrimaryExpressionFromAncestry(m, active.Ancestry)
	} else {
		receiverID, ok = typablePrimaryExpression(m, node)
	}
	if !ok {
		return FieldAccessResult{}
	}

	t, err := engine.TryType(receiverID)
	if err != nil {
		return FieldAccessResult{Err: wrapTypeEngine(err)}
	}

	fields, _ := mtype.RecordOrTableFields(t)
	out := make([]FieldCompletion, 0, len(fields))
	for _, f := range fields {
		if contains(insp.alreadyProjected, f.Name) {
			continue
		}
		if insp.identifierUnderPosition != "" && !strings.HasPrefix(f.Name, insp.identifierUnderPosition) {
			continue
		}
		out = append(out, FieldCompletion{Name: f.Name, Type: f.Type})
	}
	return FieldAccessResult{Fields: out, AlreadyProjected: insp.alreadyProjected}
}

// locateFieldAccess implements the two discovery paths. It returns the map
// the returned node belongs to: the live m for an ancestor match, or a
// speculative trial's map for the trailing-wrapper path (the node in that
// case was never attached to m at all).
func locateFieldAccess(ctx context.Context, m *nodeidmap.Map, active *mactive.ActiveNode, lastErr *mparse.Error, state *mparse.State) (mnode.XorNode, *nodeidmap.Map, bool, bool) {
	for _, x := range active.Ancestry {
		if x.Kind() == mnode.KindFieldSelector || x.Kind() == mnode.KindFieldProjection {
			return x, m, false, true
		}
	}

	if lastErr == nil || state == nil {
		return mnode.XorNode{}, nil, false, false
	}
	if lastErr.Token.Kind != mlexer.KindLeftBracket && lastErr.Token.Kind != mlexer.KindLeftBrace {
		return mnode.XorNode{}, nil, false, false
	}
	if lastErr.Token.PositionStart.Compare(active.Position) > 0 {
		return mnode.XorNode{}, nil, false, false
	}

	best := raceSpeculativeParses(ctx, state, []speculativeEntry{
		{Label: "selector", Read: mparse.ReadFieldSelector},
		{Label: "projection", Read: mparse.ReadFieldProjection},
	})
	if best.Consumed == 0 {
		return mnode.XorNode{}, nil, false, false
	}
	if best.Node.Valid() {
		return best.Node, best.Map, true, true
	}
	// Read failed partway through: the context it opened (orphaned, with
	// no parent link) is still in the trial map as the most recently
	// started open context of the attempted kind.
	wantKind := mnode.KindFieldSelector
	if best.Label == "projection" {
		wantKind = mnode.KindFieldProjection
	}
	var found mnode.XorNode
	ok := false
	for _, id := range best.Map.OpenContextIDs() {
		x, k := best.Map.GetXor(id)
		if !k || x.Kind() != wantKind {
			continue
		}
		if !ok || x.TokenIndexStart() > found.TokenIndexStart() {
			found = x
			ok = true
		}
	}
	if !ok {
		return mnode.XorNode{}, nil, false, false
	}
	return found, best.Map, true, true
}

// fieldAccessInspection is inspectFieldAccess's result (spec.md §4.H).
type fieldAccessInspection struct {
	allowed                 bool
	identifierUnderPosition string
	alreadyProjected        []string
}

// inspectFieldAccess determines autocomplete eligibility, the partial
// identifier text, and (for a projection) the already-listed field names.
// tokens backs mposition.EffectiveRange's context-node, no-leaf-yet
// fallback for node (which may still be an open context).
func inspectFieldAccess(m *nodeidmap.Map, tokens []mlexer.Token, node mnode.XorNode, position mlexer.Position) fieldAccessInspection {
	switch node.Kind() {
	case mnode.KindFieldSelector:
		return inspectFieldSelector(m, tokens, node, position)
	case mnode.KindFieldProjection:
		return inspectFieldProjection(m, tokens, node, position)
	default:
		return fieldAccessInspection{}
	}
}

func inspectFieldSelector(m *nodeidmap.Map, tokens []mlexer.Token, node mnode.XorNode, position mlexer.Position) fieldAccessInspection {
	ident, ok, err := m.ChildByAttributeIndex(node.ID(), 1, mnode.KindIdentifier, mnode.KindGeneralizedIdentifier)
	if err != nil {
		return fieldAccessInspection{}
	}
	if !ok {
		// No identifier written yet: allowed if the cursor is at or past the
		// selector's current effective end — the opening "[" when that's all
		// that's been committed so far (spec.md §4.B EffectiveRange handles
		// the still-open-context case directly, so there's no need to go
		// find the opening constant by hand).
		_, end := mposition.EffectiveRange(m, tokens, node)
		if !mposition.IsAfter(position, end, false) {
			return fieldAccessInspection{}
		}
		return fieldAccessInspection{allowed: true}
	}
	ast, ok := ident.Ast()
	if !ok {
		return fieldAccessInspection{}
	}
	if !mposition.IsInRange(position, ast.PositionStart, ast.PositionEnd, true, true) {
		return fieldAccessInspection{}
	}
	return fieldAccessInspection{allowed: true, identifierUnderPosition: prefixUpTo(ast.Literal, position, ast)}
}

func inspectFieldProjection(m *nodeidmap.Map, tokens []mlexer.Token, node mnode.XorNode, position mlexer.Position) fieldAccessInspection {
	wrapper, ok, err := m.ChildByAttributeIndex(node.ID(), 1, mnode.KindArrayWrapper)
	if err != nil || !ok {
		return fieldAccessInspection{}
	}
	var projected []string
	insp := fieldAccessInspection{}
	for _, childID := range m.ChildIDs(wrapper.ID()) {
		child, ok := m.GetXor(childID)
		if !ok || child.Kind() != mnode.KindFieldSelector {
			continue
		}
		ident, ok, err := m.ChildByAttributeIndex(childID, 1, mnode.KindIdentifier, mnode.KindGeneralizedIdentifier)
		if err != nil || !ok {
			continue
		}
		ast, ok := ident.Ast()
		if !ok {
			continue
		}
		projected = append(projected, ast.Literal)
		if mposition.IsInRange(position, ast.PositionStart, ast.PositionEnd, true, true) {
			insp.allowed = true
			insp.identifierUnderPosition = prefixUpTo(ast.Literal, position, ast)
		}
	}
	if !insp.allowed {
		// No selector's identifier contains the cursor: allowed only if the
		// cursor sits at or past the wrapper's own effective end (just
		// inside "]]", right after a comma, or right after "[[" if the
		// wrapper is still open and empty).
		_, end := mposition.EffectiveRange(m, tokens, wrapper)
		if mposition.IsAfter(position, end, false) {
			insp.allowed = true
		}
	}
	insp.alreadyProjected = projected
	return insp
}

// prefixUpTo returns the portion of ident's literal up to the cursor, for
// an edge-inclusive match where the cursor may sit mid-identifier.
func prefixUpTo(literal string, position mlexer.Position, ast *mnode.AstNode) string {
	if position.Compare(ast.PositionEnd) >= 0 {
		return literal
	}
	// The lexer tracks UTF-16 code units; identifiers in this grammar don't
	// span lines, so the offset into the literal is the code-unit delta
	// from the identifier's start.
	offset := position.LineCodeUnit - ast.PositionStart.LineCodeUnit
	if offset <= 0 {
		return ""
	}
	if offset >= len(literal) {
		return literal
	}
	return literal[:offset]
}

// typablePrimaryExpression locates the receiver of an already-committed
// field access node: the RecursivePrimaryExpression's head when node is
// the first extension in its ArrayWrapper, or the extension immediately
// preceding node otherwise.
func typablePrimaryExpression(m *nodeidmap.Map, node mnode.XorNode) (mnode.ID, bool) {
	parentID, ok := m.ParentOf(node.ID())
	if !ok {
		return 0, false
	}
	wrapper, ok := m.GetXor(parentID)
	if !ok || wrapper.Kind() != mnode.KindArrayWrapper {
		return 0, false
	}
	head, children, ok := headAndExtensions(m, wrapper)
	if !ok {
		return 0, false
	}
	for i, c := range children {
		if c == node.ID() {
			if i == 0 {
				return head, true
			}
			return children[i-1], true
		}
	}
	return head, true
}

// typablePrimaryExpressionFromAncestry implements the same receiver rule
// for the speculative discovery path, where the not-yet-committed
// extension has no parent link to walk from: it finds the nearest
// RecursivePrimaryExpression in the real ancestry and returns the last
// extension already committed under it, or its head if none has been.
func typablePrimaryExpressionFromAncestry(m *nodeidmap.Map, ancestry []mnode.XorNode) (mnode.ID, bool) {
	for _, x := range ancestry {
		if x.Kind() != mnode.KindRecursivePrimaryExpression {
			continue
		}
		headID, err := headOnly(m, x.ID())
		if err != nil {
			return 0, false
		}
		wrapper, ok, err := m.ChildByAttributeIndex(x.ID(), 1, mnode.KindArrayWrapper)
		if err != nil || !ok {
			return headID, true
		}
		children := m.ChildIDs(wrapper.ID())
		if len(children) == 0 {
			return headID, true
		}
		return children[len(children)-1], true
	}
	return 0, false
}

func headAndExtensions(m *nodeidmap.Map, wrapper mnode.XorNode) (mnode.ID, []mnode.ID, bool) {
	rpeID, ok := m.ParentOf(wrapper.ID())
	if !ok {
		return 0, nil, false
	}
	headID, err := headOnly(m, rpeID)
	if err != nil {
		return 0, nil, false
	}
	return headID, m.ChildIDs(wrapper.ID()), true
}

func headOnly(m *nodeidmap.Map, rpeID mnode.ID) (mnode.ID, error) {
	head, ok, err := m.ChildByAttributeIndex(rpeID, 0)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return head.ID(), nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
