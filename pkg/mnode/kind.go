// Package mnode defines the closed set of syntax-node kinds and the
// dual-representation (AST / context) node types that make up the syntax
// graph described in spec.md §3. It has no dependency on the parser or the
// graph store: it is pure data, in the spirit of vito/dang's
// pkg/dang/ast.go node-kind-per-type convention, generalized here into a
// dense integer enum per spec.md §9's design notes (so that idsByKind
// indexing and per-kind dispatch are cheap).
package mnode

import "fmt"

// Kind is the closed set of syntax node kinds.
type Kind int

const (
	KindIdentifier Kind = iota
	KindGeneralizedIdentifier
	KindIdentifierExpression
	KindIdentifierPairedExpression
	KindLiteralExpression // numeric / text / logical / null literal leaf
	KindConstant          // a keyword or punctuation leaf, e.g. "then", ","

	KindLetExpression
	KindIfExpression
	KindSection
	KindSectionMember

	KindListExpression
	KindRecordExpression
	KindArrayWrapper // the bracketed/braced/parenthesized body of a list,
	// record, invoke, parameter list, or field projection

	KindErrorHandlingExpression
	KindOtherwiseExpression
	KindErrorRaisingExpression

	KindFunctionExpression
	KindParameter

	KindAsNullablePrimitiveType
	KindNullablePrimitiveType
	KindPrimitiveType
	KindTypePrimaryType

	KindRecursivePrimaryExpression
	KindInvokeExpression
	KindFieldSelector
	KindFieldProjection
	KindParenthesizedExpression

	KindEachExpression
)

var kindNames = map[Kind]string{
	KindIdentifier:                  "Identifier",
	KindGeneralizedIdentifier:       "GeneralizedIdentifier",
	KindIdentifierExpression:        "IdentifierExpression",
	KindIdentifierPairedExpression:  "IdentifierPairedExpression",
	KindLiteralExpression:           "LiteralExpression",
	KindConstant:                    "Constant",
	KindLetExpression:               "LetExpression",
	KindIfExpression:                "IfExpression",
	KindSection:                     "Section",
	KindSectionMember:               "SectionMember",
	KindListExpression:              "ListExpression",
	KindRecordExpression:            "RecordExpression",
	KindArrayWrapper:                "ArrayWrapper",
	KindErrorHandlingExpression:     "ErrorHandlingExpression",
	KindOtherwiseExpression:         "OtherwiseExpression",
	KindErrorRaisingExpression:      "ErrorRaisingExpression",
	KindFunctionExpression:          "FunctionExpression",
	KindParameter:                   "Parameter",
	KindAsNullablePrimitiveType:     "AsNullablePrimitiveType",
	KindNullablePrimitiveType:       "NullablePrimitiveType",
	KindPrimitiveType:               "PrimitiveType",
	KindTypePrimaryType:             "TypePrimaryType",
	KindRecursivePrimaryExpression:  "RecursivePrimaryExpression",
	KindInvokeExpression:            "InvokeExpression",
	KindFieldSelector:               "FieldSelector",
	KindFieldProjection:             "FieldProjection",
	KindParenthesizedExpression:     "ParenthesizedExpression",
	KindEachExpression:              "EachExpression",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// PrimitiveTypeNames is the closed list primitive-type autocomplete offers,
// per spec.md §4.F.
var PrimitiveTypeNames = []string{
	"any", "anynonnull", "binary", "date", "datetime", "datetimezone",
	"duration", "function", "list", "logical", "none", "null", "number",
	"record", "table", "text", "time", "type",
}
