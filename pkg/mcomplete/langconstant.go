// Language-constant analysis (spec.md §4.G): the two bare keywords,
// "nullable" and "optional", that aren't part of a larger expression
// grammar and so don't fit the keyword analysis's ancestry-walk model.
package mcomplete

import (
	"strings"

	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mparse"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

const optionalKeyword = "optional"

// LanguageConstant runs the language-constant autocomplete analysis for
// active (spec.md §4.G). lastErr and state support the "optional" parameter
// speculative re-parse: when the live parse never reached a
// FunctionExpression (its outermost construct failed first, typically on
// an unterminated "(" sequence), a narrow trial parse of just a
// FunctionExpression is attempted from the "(" that the live parse opened.
func LanguageConstant(active *mactive.ActiveNode, lastErr *mparse.Error, state *mparse.State) LanguageConstantResult {
	if active == nil {
		return LanguageConstantResult{}
	}

	var stateMap *nodeidmap.Map
	if state != nil {
		stateMap = state.Map
	}

	var constants []string
	if nullableApplies(active) {
		constants = append(constants, "nullable")
	}
	if optionalApplies(stateMap, active) {
		constants = append(constants, optionalKeyword)
	} else if respeculated, ok := speculativeOptional(active, lastErr, state); ok {
		constants = append(constants, respeculated...)
	}

	trailing := trailingToken(lastErr)
	prefix := effectivePrefix(active, trailing)
	return LanguageConstantResult{Constants: dedupe(prefixFilter(constants, prefix))}
}

func trailingToken(lastErr *mparse.Error) *mlexer.Token {
	if lastErr == nil {
		return nil
	}
	tok := lastErr.Token
	return &tok
}

// nullableApplies implements the "nullable" rule: cursor after "as"/"type",
// before any primitive type name has been written.
func nullableApplies(active *mactive.ActiveNode) bool {
	if !openNullablePrimitiveType(active) {
		return false
	}
	ctx, _ := active.Leaf().Context()
	return ctx.AttributeCount == 0
}

// optionalApplies implements the "optional" rule against the live parse
// result: either the parameter slot is still completely empty, or an
// identifier has been parsed that could still be the start of "optional"
// rather than the parameter's actual name. m resolves a[1]'s child count
// when it's no longer a live context (see parameterHasOnlyIdentifier); it
// may be nil when active was built by hand against an open context.
func optionalApplies(m *nodeidmap.Map, active *mactive.ActiveNode) bool {
	if len(active.Ancestry) == 0 {
		return false
	}
	if active.LeafKind == mactive.KindContext {
		if ctx, ok := active.Leaf().Context(); ok && ctx.Kind == mnode.KindParameter && ctx.AttributeCount == 0 {
			return true
		}
	}
	a := active.Ancestry
	if len(a) < 2 {
		return false
	}
	if a[0].Kind() != mnode.KindIdentifier && a[0].Kind() != mnode.KindGeneralizedIdentifier {
		return false
	}
	if !parameterHasOnlyIdentifier(m, a[1]) {
		return false
	}
	identAst, ok := a[0].Ast()
	if !ok {
		return false
	}
	return len(identAst.Literal) < len(optionalKeyword) && strings.HasPrefix(optionalKeyword, identAst.Literal)
}

// parameterHasOnlyIdentifier reports whether x is a Parameter carrying
// exactly one committed attribute: its name, with no "as" clause yet. A
// Parameter that's still an open context reports this through its own
// AttributeCount; one already finalized into an AST node (the grammar
// accepted the identifier and moved on, e.g. during a trial re-parse that
// ran all the way to EOF) needs m to count its children instead.
func parameterHasOnlyIdentifier(m *nodeidmap.Map, x mnode.XorNode) bool {
	if x.Kind() != mnode.KindParameter {
		return false
	}
	if ctx, ok := x.Context(); ok {
		return ctx.AttributeCount == 1
	}
	if m == nil {
		return false
	}
	return len(m.ChildIDs(x.ID())) == 1
}

// speculativeOptional implements spec.md §4.G's trial-parse fallback: a
// leading "(" followed by a comma is just as often the start of a
// FunctionExpression's parameter list as it is a ParenthesizedExpression —
// the grammar can't tell until it either finds "=>" after the matching ")"
// or runs out of input trying. lookaheadIsFunctionExpression already picks
// ParenthesizedExpression whenever the closing ")" hasn't been typed yet, so
// the live parse never builds a Parameter to ask optionalApplies about. When
// that's happened (no FunctionExpression ancestor, and the live parse gave
// up on the "(" it opened), this re-parses from that same "(" as a
// standalone FunctionExpression, against a fresh map so the attempt doesn't
// collide with the live parse's own root, and re-runs the parameter analysis
// against whatever it built.
func speculativeOptional(active *mactive.ActiveNode, lastErr *mparse.Error, state *mparse.State) ([]string, bool) {
	if lastErr == nil || state == nil {
		return nil, false
	}
	if lastErr.Variant != mparse.ErrorUnterminatedSequence && lastErr.Variant != mparse.ErrorUnterminatedParenthesis {
		return nil, false
	}

	restart := -1
	for _, x := range active.Ancestry {
		if x.Kind() == mnode.KindFunctionExpression {
			return nil, false
		}
		if x.Kind() == mnode.KindParenthesizedExpression {
			restart = x.TokenIndexStart()
		}
	}
	if restart < 0 {
		// No ParenthesizedExpression ancestor was built at all — the only
		// other case worth trying is a state already sitting on the "(" it
		// failed to get past.
		if state.TokenIndex >= len(state.Tokens) || state.Tokens[state.TokenIndex].Kind != mlexer.KindLeftParen {
			return nil, false
		}
		restart = state.TokenIndex
	}

	trial := &mparse.State{Tokens: state.Tokens, TokenIndex: restart, Map: nodeidmap.New()}
	// A completed AST and a still-open context are both usable here: either
	// way trial.Map now has a FunctionExpression (or its Parameter children)
	// to resolve against. A hard failure with nothing built at all leaves
	// LeafIDs empty and the re-resolve below simply returns nil.
	_, _ = mparse.ReadFunctionExpression(trial)

	reResolved, rerr := mactive.Resolve(trial.Map, trial.Tokens, active.Position)
	if rerr != nil || reResolved == nil {
		return nil, false
	}
	if !optionalApplies(trial.Map, reResolved) {
		return nil, false
	}
	return []string{optionalKeyword}, true
}
