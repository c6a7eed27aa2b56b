// Package mlexer tokenizes M (Power Query formula language) source text.
//
// Positions are (lineNumber, lineCodeUnit) pairs naming a UTF-16 code-unit
// boundary, per spec; comparisons are lexicographic and there is no notion
// of column "width".
package mlexer

import "fmt"

// Kind is the closed set of token kinds the lexer produces.
type Kind int

const (
	KindEof Kind = iota
	KindIdentifier
	KindGeneralizedIdentifier // e.g. #"quoted name"
	KindNumericLiteral
	KindTextLiteral

	// Keyword-valued constants (most are also anchors; see IsAnchorKind).
	KindKeywordAs
	KindKeywordEach
	KindKeywordElse
	KindKeywordError
	KindKeywordFalse
	KindKeywordIf
	KindKeywordIn
	KindKeywordIs
	KindKeywordLet
	KindKeywordMeta
	KindKeywordNot
	KindKeywordNull
	KindKeywordOptional
	KindKeywordOr
	KindKeywordAnd
	KindKeywordOtherwise
	KindKeywordNullable
	KindKeywordSection
	KindKeywordShared
	KindKeywordThen
	KindKeywordTrue
	KindKeywordTry
	KindKeywordType

	// Punctuation / constants. These double as ConstantKind values when they
	// appear as a parsed leaf (see pkg/mnode).
	KindComma        // ,
	KindEqual        // =
	KindFatArrow     // =>
	KindSemicolon    // ;
	KindLeftBrace    // {
	KindRightBrace   // }
	KindLeftBracket  // [
	KindRightBracket // ]
	KindLeftParen    // (
	KindRightParen   // )
	KindAt           // @
	KindDot          // .
	KindQuestionMark // ?
)

var kindNames = map[Kind]string{
	KindEof:                  "Eof",
	KindIdentifier:           "Identifier",
	KindGeneralizedIdentifier: "GeneralizedIdentifier",
	KindNumericLiteral:       "NumericLiteral",
	KindTextLiteral:          "TextLiteral",
	KindKeywordAs:            "as",
	KindKeywordEach:          "each",
	KindKeywordElse:          "else",
	KindKeywordError:         "error",
	KindKeywordFalse:         "false",
	KindKeywordIf:            "if",
	KindKeywordIn:            "in",
	KindKeywordIs:            "is",
	KindKeywordLet:           "let",
	KindKeywordMeta:          "meta",
	KindKeywordNot:           "not",
	KindKeywordNull:          "null",
	KindKeywordOptional:      "optional",
	KindKeywordOr:            "or",
	KindKeywordAnd:           "and",
	KindKeywordOtherwise:     "otherwise",
	KindKeywordNullable:      "nullable",
	KindKeywordSection:       "section",
	KindKeywordShared:        "shared",
	KindKeywordThen:          "then",
	KindKeywordTrue:          "true",
	KindKeywordTry:           "try",
	KindKeywordType:          "type",
	KindComma:                ",",
	KindEqual:                "=",
	KindFatArrow:             "=>",
	KindSemicolon:            ";",
	KindLeftBrace:            "{",
	KindRightBrace:           "}",
	KindLeftBracket:          "[",
	KindRightBracket:         "]",
	KindLeftParen:            "(",
	KindRightParen:           ")",
	KindAt:                   "@",
	KindDot:                  ".",
	KindQuestionMark:         "?",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// keywords maps literal text to its keyword Kind. Identifiers that match
// none of these remain KindIdentifier.
var keywords = map[string]Kind{
	"as":        KindKeywordAs,
	"each":      KindKeywordEach,
	"else":      KindKeywordElse,
	"error":     KindKeywordError,
	"false":     KindKeywordFalse,
	"if":        KindKeywordIf,
	"in":        KindKeywordIn,
	"is":        KindKeywordIs,
	"let":       KindKeywordLet,
	"meta":      KindKeywordMeta,
	"not":       KindKeywordNot,
	"null":      KindKeywordNull,
	"optional":  KindKeywordOptional,
	"or":        KindKeywordOr,
	"and":       KindKeywordAnd,
	"otherwise": KindKeywordOtherwise,
	"nullable":  KindKeywordNullable,
	"section":   KindKeywordSection,
	"shared":    KindKeywordShared,
	"then":      KindKeywordThen,
	"true":      KindKeywordTrue,
	"try":       KindKeywordTry,
	"type":      KindKeywordType,
}

// KeywordKind returns the keyword Kind for literal text, and whether it is
// one at all.
func KeywordKind(literal string) (Kind, bool) {
	k, ok := keywords[literal]
	return k, ok
}

// Position names a UTF-16 code-unit boundary within a source buffer.
type Position struct {
	LineNumber   int
	LineCodeUnit int
}

// Compare returns -1, 0, or 1 as p is less than, equal to, or greater than
// other, using lexicographic ordering on (LineNumber, LineCodeUnit).
func (p Position) Compare(other Position) int {
	if p.LineNumber != other.LineNumber {
		if p.LineNumber < other.LineNumber {
			return -1
		}
		return 1
	}
	switch {
	case p.LineCodeUnit < other.LineCodeUnit:
		return -1
	case p.LineCodeUnit > other.LineCodeUnit:
		return 1
	default:
		return 0
	}
}

func (p Position) Less(other Position) bool    { return p.Compare(other) < 0 }
func (p Position) Equal(other Position) bool    { return p.Compare(other) == 0 }
func (p Position) LessEqual(other Position) bool { return p.Compare(other) <= 0 }

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.LineNumber, p.LineCodeUnit)
}

// Token is a single lexeme with its absolute index in the token stream and
// its start/end positions.
type Token struct {
	TokenIndex   int
	Kind         Kind
	Literal      string
	PositionStart Position
	PositionEnd   Position
}

// ShiftRightConstants is the set of token kinds that, per spec.md §4.D
// Phase 1, are matched exclusively: a cursor landing exactly on one of
// these is "after" it rather than "on" it.
var ShiftRightConstants = map[Kind]bool{
	KindComma:        true,
	KindEqual:        true,
	KindFatArrow:     true,
	KindSemicolon:    true,
	KindLeftBrace:    true,
	KindLeftBracket:  true,
	KindLeftParen:    true,
	KindRightBrace:   true,
	KindRightBracket: true,
	KindRightParen:   true,
}

// DrillDownConstants is the subset of ShiftRightConstants that can trigger
// the "drill into an empty wrapper" rule (spec.md §4.D Phase 2).
var DrillDownConstants = map[Kind]bool{
	KindLeftBrace:   true,
	KindLeftBracket: true,
	KindLeftParen:   true,
}

// matchingCloser maps an opening bracket kind to its closer, used by the
// drill-down rule.
var matchingCloser = map[Kind]Kind{
	KindLeftBrace:   KindRightBrace,
	KindLeftBracket: KindRightBracket,
	KindLeftParen:   KindRightParen,
}

// MatchingCloser returns the closing bracket Kind for an opening bracket
// Kind, and whether open was an opening bracket at all.
func MatchingCloser(open Kind) (Kind, bool) {
	k, ok := matchingCloser[open]
	return k, ok
}

// IsAnchorKind reports whether a leaf of this kind is an AnchorConstant per
// spec.md §4.D Phase 4: identifiers, numeric literals, and the
// keyword-valued constants.
func IsAnchorKind(k Kind) bool {
	switch k {
	case KindIdentifier, KindGeneralizedIdentifier, KindNumericLiteral,
		KindKeywordAs, KindKeywordEach, KindKeywordElse, KindKeywordError,
		KindKeywordIf, KindKeywordIn, KindKeywordIs, KindKeywordLet,
		KindKeywordMeta, KindKeywordOtherwise, KindKeywordSection,
		KindKeywordShared, KindKeywordThen, KindKeywordTry, KindKeywordType,
		KindKeywordNull:
		return true
	default:
		return false
	}
}
