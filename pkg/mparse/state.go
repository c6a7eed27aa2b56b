package mparse

import (
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// State is the parser's mutable position within a token stream plus the
// graph it is building. It is the unit the speculative re-parse contract
// clones (spec.md §4 "Speculative re-parse contract"): State.Clone gives an
// independent Map and an independent cursor, so restarting a parse at an
// earlier token index for a short trial read can never perturb the
// original.
type State struct {
	Tokens     []mlexer.Token
	TokenIndex int
	Map        *nodeidmap.Map
}

// NewState builds a fresh State positioned at token 0 over an empty Map.
func NewState(tokens []mlexer.Token) *State {
	return &State{Tokens: tokens, Map: nodeidmap.New()}
}

// Clone returns an independent copy: mutating it never affects the
// receiver (spec.md §8 property 6).
func (s *State) Clone() *State {
	return &State{Tokens: s.Tokens, TokenIndex: s.TokenIndex, Map: s.Map.Clone()}
}

func (s *State) current() mlexer.Token {
	if s.TokenIndex < len(s.Tokens) {
		return s.Tokens[s.TokenIndex]
	}
	return s.Tokens[len(s.Tokens)-1] // the trailing Eof token
}

func (s *State) atEof() bool {
	return s.current().Kind == mlexer.KindEof
}
