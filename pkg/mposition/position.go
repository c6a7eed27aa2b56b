// Package mposition compares a cursor position against token ranges and
// AST/context nodes, with configurable edge inclusivity, per spec.md §4.B.
// All comparisons are lexicographic on (lineNumber, lineCodeUnit); there is
// no notion of column width. Grounded on the pos.Before/pos.After style
// walk used by the dot-language LSP completion engine in the retrieval
// pack (other_examples teleivo-dot completion.go).
package mposition

import (
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// IsBefore reports whether p is before t. When inclusiveUpperBound is true,
// p == t also counts as before (used for exclusive-end range semantics
// where the caller wants "at or before").
func IsBefore(p mlexer.Position, t mlexer.Position, inclusiveUpperBound bool) bool {
	cmp := p.Compare(t)
	if inclusiveUpperBound {
		return cmp <= 0
	}
	return cmp < 0
}

// IsAfter reports whether p is after t. When exclusiveUpperBound is true,
// p == t does NOT count as after (i.e. equality is excluded from "after").
func IsAfter(p mlexer.Position, t mlexer.Position, exclusiveUpperBound bool) bool {
	cmp := p.Compare(t)
	if exclusiveUpperBound {
		return cmp > 0
	}
	return cmp >= 0
}

// IsOn reports whether p is exactly at t.
func IsOn(p mlexer.Position, t mlexer.Position) bool {
	return p.Compare(t) == 0
}

// IsInRange reports whether p lies strictly inside [start, end], with the
// given edge inclusivity.
func IsInRange(p, start, end mlexer.Position, inclusiveLowerBound, inclusiveUpperBound bool) bool {
	afterStart := p.Compare(start) > 0 || (inclusiveLowerBound && p.Compare(start) == 0)
	beforeEnd := p.Compare(end) < 0 || (inclusiveUpperBound && p.Compare(end) == 0)
	return afterStart && beforeEnd
}

// EffectiveRange returns the [start, end] token-position range to compare
// a cursor against for an AST leaf, or for a context node the start and end
// of its rightmost descendant leaf (or its own start token's position, as
// both ends, if it has none), per spec.md §4.B. tokens is the token
// stream the context's TokenIndexStart indexes into; it is only consulted
// on the no-descendant-leaf-yet path.
func EffectiveRange(m *nodeidmap.Map, tokens []mlexer.Token, x mnode.XorNode) (start, end mlexer.Position) {
	if ast, ok := x.Ast(); ok {
		return ast.PositionStart, ast.PositionEnd
	}
	ctx, _ := x.Context()
	if leaf, ok := m.RightmostLeaf(ctx.ID); ok {
		return leaf.PositionStart, leaf.PositionEnd
	}
	// No descendant leaf yet: the context only "occupies" its start token
	// position, per spec.md §4.B.
	p := tokenPosition(tokens, ctx.TokenIndexStart)
	return p, p
}

// tokenPosition resolves the start position of tokens[tokenIndex], clamping
// to the stream's bounds the way mparse's own posStart helper does.
func tokenPosition(tokens []mlexer.Token, tokenIndex int) mlexer.Position {
	if len(tokens) == 0 {
		return mlexer.Position{}
	}
	if tokenIndex < 0 {
		tokenIndex = 0
	}
	if tokenIndex >= len(tokens) {
		tokenIndex = len(tokens) - 1
	}
	return tokens[tokenIndex].PositionStart
}

// IsInNode reports whether p lies within x's effective range (as computed
// by EffectiveRange), with the given edge inclusivity.
func IsInNode(m *nodeidmap.Map, tokens []mlexer.Token, x mnode.XorNode, p mlexer.Position, inclusiveLowerBound, inclusiveUpperBound bool) bool {
	start, end := EffectiveRange(m, tokens, x)
	return IsInRange(p, start, end, inclusiveLowerBound, inclusiveUpperBound)
}
