// Keyword analysis (spec.md §4.E). Grounded on vito/dang's pkg/dang/
// complete.go CompleteInput/handler dispatch, generalized here from
// "receiver text" dispatch to "ancestry [parent,child] pair" dispatch, per
// spec.md §4.E's own description of the algorithm.
package mcomplete

import (
	"strings"

	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mancestry"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// ifExpressionConstants maps an IfExpression attribute slot to the bare
// constant keyword expected there (spec.md §4.E: "A map from (parentKind,
// childAttributeIndex) to the expected constant keyword").
var ifExpressionConstants = map[int]string{
	0: "if",
	2: "then",
	4: "else",
}

// expressionKeySlots names every (parentKind, slot) pair whose value is an
// ordinary expression, for parents with a fixed attribute layout (no
// preceding comma-separated list of variable length). LetExpression and
// FunctionExpression have a variable-length list ahead of their body
// expression, so their body slot is recognized dynamically instead — see
// isAfterConstant below.
var expressionKeySlots = map[mnode.Kind]map[int]bool{
	mnode.KindIfExpression:               {1: true, 3: true, 5: true},
	mnode.KindIdentifierPairedExpression: {2: true},
	mnode.KindErrorHandlingExpression:    {1: true},
	mnode.KindOtherwiseExpression:        {1: true},
	mnode.KindErrorRaisingExpression:     {1: true},
	mnode.KindEachExpression:             {1: true},
	mnode.KindParenthesizedExpression:    {1: true},
}

// Keyword runs the keyword autocomplete analysis for active (spec.md §4.E).
// trailing is the token the most recent parse error gave up on, if any —
// used for the conjunction trailing-text rule and the final prefix filter.
func Keyword(m *nodeidmap.Map, active *mactive.ActiveNode, trailing *mlexer.Token) KeywordResult {
	if active == nil || len(active.Ancestry) == 0 {
		// spec.md §4.I / §8 testable property 9: absent active node (or empty
		// ancestry) yields the orchestrator's default completion — the full
		// expression-starting keyword set plus "section" — not the narrower
		// new-file set.
		kws := append([]string{}, ExpressionKeywords...)
		kws = append(kws, "section")
		return KeywordResult{Keywords: dedupe(kws)}
	}

	if kws, ok := newFileKeywords(active); ok {
		return KeywordResult{Keywords: finish(kws, active, trailing)}
	}
	if kws, ok := parameterAnnotationKeywords(m, active); ok {
		return KeywordResult{Keywords: finish(kws, active, trailing)}
	}
	if kws, ok := sectionMemberSharedKeywords(m, active); ok {
		return KeywordResult{Keywords: finish(kws, active, trailing)}
	}

	kws, _, isConstantSlot := walkAncestryForKeywords(m, active.Ancestry, active.LeafKind, 0)
	if !isConstantSlot {
		kws = applyConjunctions(kws, active, trailing)
	}
	return KeywordResult{Keywords: finish(kws, active, trailing)}
}

// walkAncestryForKeywords is the core [parent,child] ancestry walk.
// recursionDepth bounds the "field-access path specialization" recursion
// to one level, per spec.md §4.E. The third return reports whether the
// matched slot was a bare constant-keyword slot (spec.md §4.E's
// ifExpressionConstants map) rather than an expression slot — conjunctions
// never apply to a bare keyword like "then", only to a completed operand.
func walkAncestryForKeywords(m *nodeidmap.Map, ancestry mancestry.Ancestry, leafKind mactive.LeafKind, recursionDepth int) ([]string, bool, bool) {
	steps := slotSteps(ancestry, leafKind)
	for _, step := range steps {
		if kws, handled, isConstantSlot := dispatchSlot(m, ancestry, step); handled {
			return kws, true, isConstantSlot
		}
	}

	if recursionDepth == 0 {
		if kws, isConstantSlot, ok := sectionMemberValueRecursion(m, ancestry, recursionDepth); ok {
			return kws, true, isConstantSlot
		}
	}
	return nil, false, false
}

// dispatchSlot is the per-parent-kind handler dispatch, keyed by OwnerKind.
func dispatchSlot(m *nodeidmap.Map, ancestry mancestry.Ancestry, step slotStep) ([]string, bool, bool) {
	switch step.OwnerKind {
	case mnode.KindIfExpression:
		if kw, ok := ifExpressionConstants[step.Slot]; ok {
			return []string{kw}, true, true
		}
	case mnode.KindArrayWrapper:
		kws, handled := arrayWrapperKeywords(ancestry, step)
		return kws, handled, false
	case mnode.KindLetExpression:
		if isAfterConstant(m, step.OwnerID, step.Slot, mlexer.KindKeywordIn) {
			return expressionOrEmpty(ancestry, step), true, false
		}
		return nil, false, false
	case mnode.KindFunctionExpression:
		if isAfterConstant(m, step.OwnerID, step.Slot, mlexer.KindFatArrow) {
			return expressionOrEmpty(ancestry, step), true, false
		}
		return nil, false, false
	}

	if expressionKeySlots[step.OwnerKind][step.Slot] {
		return expressionOrEmpty(ancestry, step), true, false
	}
	return nil, false, false
}

// isAfterConstant reports whether the slot immediately before step is a
// Constant leaf holding the given token kind — used for parents whose
// attribute layout shifts with a variable-length preceding list
// (LetExpression's bindings, FunctionExpression's parameters).
func isAfterConstant(m *nodeidmap.Map, ownerID mnode.ID, slot int, want mlexer.Kind) bool {
	if slot <= 0 {
		return false
	}
	prev, ok, err := m.ChildByAttributeIndex(ownerID, slot-1, mnode.KindConstant)
	if err != nil || !ok {
		return false
	}
	ast, ok := prev.Ast()
	if !ok {
		return false
	}
	return ast.ConstantTokenKind == want
}

func expressionOrEmpty(ancestry mancestry.Ancestry, step slotStep) []string {
	if childIsNumericLiteral(ancestry, step.ChildIdx) {
		return []string{}
	}
	return append([]string{}, ExpressionKeywords...)
}

// arrayWrapperKeywords handles a pending ArrayWrapper whose own parent
// determines whether a new item starts a bare expression (ListExpression,
// InvokeExpression) or something else (Let/Section bindings, parameters,
// field projections) that this analysis doesn't offer keywords for.
func arrayWrapperKeywords(ancestry mancestry.Ancestry, step slotStep) ([]string, bool) {
	if step.ChildIdx != -1 {
		// An ArrayWrapper is never itself a completed "child" slot value in
		// this grammar — only ever inspected via its own pending self-step.
		return nil, false
	}
	idx := -1
	for i, x := range ancestry {
		if x.ID() == step.OwnerID {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(ancestry) {
		return nil, false
	}
	switch ancestry[idx+1].Kind() {
	case mnode.KindListExpression, mnode.KindInvokeExpression:
		return append([]string{}, ExpressionKeywords...), true
	default:
		return nil, false
	}
}

// newFileKeywords implements spec.md §4.E's "New file" pre-check: ancestry
// of exactly [Identifier, IdentifierExpression] filters
// StartOfDocumentKeywords by the identifier's typed prefix.
func newFileKeywords(active *mactive.ActiveNode) ([]string, bool) {
	a := active.Ancestry
	if len(a) != 2 || a[0].Kind() != mnode.KindIdentifier || a[1].Kind() != mnode.KindIdentifierExpression {
		return nil, false
	}
	prefix := ""
	if active.IdentifierUnderPosition != nil {
		prefix = active.IdentifierUnderPosition.Literal
	}
	return prefixFilter(StartOfDocumentKeywords, prefix), true
}

// parameterAnnotationKeywords implements spec.md §4.E's "Parameter
// annotation" pre-check: inside a function expression's parameter list,
// just after a parameter name (or trailing a lone "a"), offer "as".
func parameterAnnotationKeywords(m *nodeidmap.Map, active *mactive.ActiveNode) ([]string, bool) {
	a := active.Ancestry
	idx := -1
	for i, x := range a {
		if x.Kind() == mnode.KindParameter {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	param := a[idx]
	ctx, isCtx := param.Context()
	if !isCtx {
		return nil, false
	}
	// The parameter's identifier slot is 0 (no "optional") or 1 (with
	// "optional"); once that slot is filled and no "as" has been added yet,
	// AttributeCount equals identifierSlot+1.
	identifierSlot := ctx.AttributeCount - 1
	if identifierSlot < 0 {
		return nil, false
	}
	nameChild, ok, err := m.ChildByAttributeIndex(ctx.ID, identifierSlot, mnode.KindIdentifier, mnode.KindGeneralizedIdentifier)
	if err != nil || !ok {
		return nil, false
	}
	if idx != 0 && a[0].ID() != nameChild.ID() {
		// The cursor isn't actually anchored on (or just past) the name.
		return nil, false
	}
	prefix := ""
	if active.IdentifierUnderPosition != nil {
		prefix = active.IdentifierUnderPosition.Literal
	}
	if prefix != "" && !strings.HasPrefix("as", prefix) {
		return nil, false
	}
	return []string{"as"}, true
}

// sectionMemberSharedKeywords implements spec.md §4.E's section-member
// special case: when the cursor is on the member name and "shared" hasn't
// been parsed yet, offer "shared" only if it prefix-matches what's typed.
func sectionMemberSharedKeywords(m *nodeidmap.Map, active *mactive.ActiveNode) ([]string, bool) {
	a := active.Ancestry
	if len(a) < 3 {
		return nil, false
	}
	ident := a[0]
	if ident.Kind() != mnode.KindIdentifier && ident.Kind() != mnode.KindGeneralizedIdentifier {
		return nil, false
	}
	paired := a[1]
	if paired.Kind() != mnode.KindIdentifierPairedExpression || ident.AttributeIndex() != 0 {
		return nil, false
	}
	member := a[2]
	if member.Kind() != mnode.KindSectionMember || paired.AttributeIndex() != 0 {
		return nil, false
	}

	prefix := ""
	if active.IdentifierUnderPosition != nil {
		prefix = active.IdentifierUnderPosition.Literal
	}
	if prefix != "" && !strings.HasPrefix("shared", prefix) {
		return nil, false
	}
	return []string{"shared"}, true
}

// sectionMemberValueRecursion implements the "field-access path
// specialization": inside a section member whose expression slot is still
// open but partially parsed, shift to the rightmost AST leaf of that value
// and re-run the walk, bounded to one level of recursion. The middle return
// is the isConstantSlot flag from that inner walk.
func sectionMemberValueRecursion(m *nodeidmap.Map, ancestry []mnode.XorNode, depth int) ([]string, bool, bool) {
	memberIdx := -1
	for i, x := range ancestry {
		if x.Kind() == mnode.KindSectionMember {
			memberIdx = i
			break
		}
	}
	if memberIdx < 0 {
		return nil, false, false
	}
	member := ancestry[memberIdx]
	ctx, isCtx := member.Context()
	if !isCtx {
		return nil, false, false
	}
	pairedSlot := ctx.AttributeCount - 1
	paired, ok, err := m.ChildByAttributeIndex(ctx.ID, pairedSlot, mnode.KindIdentifierPairedExpression)
	if err != nil || !ok {
		return nil, false, false
	}
	pairedCtx, isPairedCtx := paired.Context()
	if !isPairedCtx || pairedCtx.AttributeCount < 3 {
		return nil, false, false
	}
	leaf, ok := m.RightmostLeaf(paired.ID())
	if !ok {
		return nil, false, false
	}
	newAncestry, err := mancestry.Of(m, leaf.ID)
	if err != nil {
		return nil, false, false
	}
	kws, handled, isConstantSlot := walkAncestryForKeywords(m, newAncestry, mactive.KindAfterAst, depth+1)
	return kws, isConstantSlot, handled
}

// applyConjunctions implements spec.md §4.E's "Conjunctions" transform.
// Callers must not invoke this after a bare constant-keyword slot match
// (e.g. IfExpression's "then"/"else") — that gate is applied by the caller
// via walkAncestryForKeywords's isConstantSlot return, not in here, since
// this function only sees the resulting keyword list, not which slot
// produced it.
func applyConjunctions(kws []string, active *mactive.ActiveNode, trailing *mlexer.Token) []string {
	if active.LeafKind != mactive.KindAfterAst && active.LeafKind != mactive.KindContext {
		return kws
	}
	if !isUnaryTypeableExpression(active) {
		return kws
	}
	kws = append(kws, ConjunctionKeywords...)

	if trailing != nil && isInOrOnTrailing(active, trailing) {
		if len(trailing.Literal) > 0 {
			firstLetter := strings.ToLower(trailing.Literal[:1])
			for _, candidate := range partialConjunctions[firstLetter] {
				if strings.HasPrefix(candidate, strings.ToLower(trailing.Literal)) {
					kws = append(kws, candidate)
				}
			}
		}
	}
	return kws
}

// isUnaryTypeableExpression reports whether the effective leaf sits at a
// completed expression slot (not an empty one) — spec.md §4.E: "If the
// leaf is still a context node (expression slot empty), don't append (no
// operand to conjoin with)."
func isUnaryTypeableExpression(active *mactive.ActiveNode) bool {
	if active.LeafKind == mactive.KindContext {
		if ctx, ok := active.Leaf().Context(); ok {
			return ctx.AttributeCount > 0
		}
		return false
	}
	return true
}

func isInOrOnTrailing(active *mactive.ActiveNode, trailing *mlexer.Token) bool {
	return active.Position.Compare(trailing.PositionStart) >= 0 && active.Position.Compare(trailing.PositionEnd) <= 0
}

func finish(kws []string, active *mactive.ActiveNode, trailing *mlexer.Token) []string {
	if kws == nil {
		kws = []string{}
	}
	return dedupe(prefixFilter(kws, effectivePrefix(active, trailing)))
}
