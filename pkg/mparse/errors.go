package mparse

import (
	"fmt"

	"github.com/powerquery-lang/mquery/pkg/mlexer"
)

// ErrorVariant is the closed set of recognizable parse-error shapes named
// in spec.md §6.
type ErrorVariant int

const (
	ErrorUnterminatedBracket ErrorVariant = iota
	ErrorUnterminatedParenthesis
	ErrorUnterminatedSequence
	ErrorExpectedAnyToken
)

func (v ErrorVariant) String() string {
	switch v {
	case ErrorUnterminatedBracket:
		return "unterminated bracket"
	case ErrorUnterminatedParenthesis:
		return "unterminated parenthesis"
	case ErrorUnterminatedSequence:
		return "unterminated sequence"
	case ErrorExpectedAnyToken:
		return "expected any token"
	default:
		return "unknown parse error"
	}
}

// Error is the upstream parser's report for an incomplete buffer (spec.md
// §7): it carries the token at which parsing gave up. It is not an error
// *of* the analysis core — the core uses it to trigger speculative
// re-parses and conjunction suggestions (spec.md §4.E, §4.G).
type Error struct {
	Variant ErrorVariant
	Token   mlexer.Token
	Want    string // human-readable description of what was expected, if any
}

func (e *Error) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("%s at %s (got %s, want %s)", e.Variant, e.Token.PositionStart, e.Token.Kind, e.Want)
	}
	return fmt.Sprintf("%s at %s (got %s)", e.Variant, e.Token.PositionStart, e.Token.Kind)
}

func errExpected(tok mlexer.Token, want string) *Error {
	return &Error{Variant: ErrorExpectedAnyToken, Token: tok, Want: want}
}

func errUnterminatedBracket(tok mlexer.Token) *Error {
	return &Error{Variant: ErrorUnterminatedBracket, Token: tok}
}

func errUnterminatedParenthesis(tok mlexer.Token) *Error {
	return &Error{Variant: ErrorUnterminatedParenthesis, Token: tok}
}

func errUnterminatedSequence(tok mlexer.Token) *Error {
	return &Error{Variant: ErrorUnterminatedSequence, Token: tok}
}
