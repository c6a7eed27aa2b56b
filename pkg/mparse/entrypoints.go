package mparse

import "github.com/powerquery-lang/mquery/pkg/mnode"

// The Read* entry points let a caller start a State at an earlier token
// and attempt a short, narrowly-scoped parse from there — the speculative
// re-parse contract used to disambiguate trailing unterminated constructs
// (e.g. deciding whether "foo(" is the start of a function literal's
// parameter list or an invocation). Each opens its production as the root
// of state's Map, so the State must carry a Map with no root yet; the
// callers in mcomplete build a fresh State over the same Tokens with
// nodeidmap.New() rather than a Clone of the live one.

// ReadFunctionExpression attempts to parse a FunctionExpression starting at
// state's current token index.
func ReadFunctionExpression(state *State) (mnode.XorNode, error) {
	p := &parser{state: state}
	return p.parseFunctionExpression(nil)
}

// ReadFieldSelector attempts to parse a single "[name]" FieldSelector
// starting at state's current token index.
func ReadFieldSelector(state *State) (mnode.XorNode, error) {
	p := &parser{state: state}
	return p.parseFieldSelector(nil)
}

// ReadFieldProjection attempts to parse a "[[a],[b]]" FieldProjection
// starting at state's current token index.
func ReadFieldProjection(state *State) (mnode.XorNode, error) {
	p := &parser{state: state}
	return p.parseFieldProjection(nil)
}

// ReadNullablePrimitiveType attempts to parse a "[nullable] <name>"
// NullablePrimitiveType starting at state's current token index.
func ReadNullablePrimitiveType(state *State) (mnode.XorNode, error) {
	p := &parser{state: state}
	return p.parseNullablePrimitiveType(nil)
}
