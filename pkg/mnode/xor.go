package mnode

import "github.com/powerquery-lang/mquery/pkg/mlexer"

// ID is a process-local, monotonically increasing node identifier. Ids are
// dense and stable within one parse (spec.md §3).
type ID int

// AstNode is a finalized syntactic subtree: a known Kind, a closed token
// range, and, for leaves, the literal text.
type AstNode struct {
	ID              ID
	Kind            Kind
	AttributeIndex  int // position under the parent, -1 for the root
	TokenIndexStart int
	TokenIndexEnd   int
	IsLeaf          bool
	// Literal is set for leaves (identifiers, constants, literals).
	Literal string
	// ConstantTokenKind is set when Kind is KindConstant: the lexer Kind of
	// the constant (e.g. mlexer.KindKeywordThen, mlexer.KindComma).
	ConstantTokenKind mlexer.Kind
	// LiteralTokenKind is set when Kind is KindLiteralExpression: the
	// lexer Kind of the literal (e.g. mlexer.KindNumericLiteral).
	LiteralTokenKind mlexer.Kind
	PositionStart     mlexer.Position
	PositionEnd       mlexer.Position
}

// ContextNode is a still-open parse frame: a known Kind, the token index
// where parsing began, and a counter of attribute slots filled so far.
type ContextNode struct {
	ID              ID
	Kind            Kind
	AttributeIndex  int
	TokenIndexStart int
	AttributeCount  int // number of children started so far
}

// XorNode is the tagged union of the AST and context variants (spec.md §9
// "Dual-variant nodes" design note: a two-arm tagged union rather than
// polymorphism over a common interface).
type XorNode struct {
	ast *AstNode
	ctx *ContextNode
}

// NewAstXorNode wraps an AstNode as a XorNode.
func NewAstXorNode(n *AstNode) XorNode { return XorNode{ast: n} }

// NewContextXorNode wraps a ContextNode as a XorNode.
func NewContextXorNode(n *ContextNode) XorNode { return XorNode{ctx: n} }

// IsAst reports whether this node is the AST variant.
func (x XorNode) IsAst() bool { return x.ast != nil }

// IsContext reports whether this node is the context variant.
func (x XorNode) IsContext() bool { return x.ctx != nil }

// Ast returns the AST variant and true, or (nil, false) if this is a
// context node.
func (x XorNode) Ast() (*AstNode, bool) { return x.ast, x.ast != nil }

// Context returns the context variant and true, or (nil, false) if this is
// an AST node.
func (x XorNode) Context() (*ContextNode, bool) { return x.ctx, x.ctx != nil }

// ID returns the id common to both variants.
func (x XorNode) ID() ID {
	if x.ast != nil {
		return x.ast.ID
	}
	return x.ctx.ID
}

// Kind returns the kind common to both variants.
func (x XorNode) Kind() Kind {
	if x.ast != nil {
		return x.ast.Kind
	}
	return x.ctx.Kind
}

// AttributeIndex returns the attribute index common to both variants.
func (x XorNode) AttributeIndex() int {
	if x.ast != nil {
		return x.ast.AttributeIndex
	}
	return x.ctx.AttributeIndex
}

// TokenIndexStart returns the start token index common to both variants.
func (x XorNode) TokenIndexStart() int {
	if x.ast != nil {
		return x.ast.TokenIndexStart
	}
	return x.ctx.TokenIndexStart
}

// Valid reports whether this XorNode wraps a real node (the zero value
// wraps neither variant).
func (x XorNode) Valid() bool { return x.ast != nil || x.ctx != nil }
