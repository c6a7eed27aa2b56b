// Package mparse is a recursive-descent parser over mlexer tokens that
// builds a nodeidmap.Map as it goes: every grammar rule opens a context,
// fills its attribute slots left to right, and ends the context once its
// production completes. Parsing an incomplete buffer leaves whatever
// contexts were still open in the map rather than discarding them — the
// active-node resolver's context-preference phase depends on exactly that
// leftover state.
//
// The clonable, restart-anywhere State (state.go) and the
// constructor-per-production shape of this file are grounded on
// krotik-ecal's parser/parser.go (a hand-written recursive-descent parser
// over a token slice with an explicit cursor, one method per grammar
// production, and typed AST node construction at each step).
package mparse

import (
	"slices"

	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
)

type parser struct {
	state *State
}

// ParseDocument parses an entire buffer as either a section document or a
// single top-level expression, returning the resulting State (with its Map
// populated, however partially) and any Error encountered.
func ParseDocument(tokens []mlexer.Token) (*State, error) {
	state := NewState(tokens)
	p := &parser{state: state}

	var err error
	if state.current().Kind == mlexer.KindKeywordSection {
		_, err = p.parseSection(nil)
	} else {
		_, err = p.parseExpression(nil)
	}
	return state, err
}

// --- token/leaf helpers ---------------------------------------------------

func (p *parser) posStart(tokenIndex int) mlexer.Position {
	if tokenIndex < len(p.state.Tokens) {
		return p.state.Tokens[tokenIndex].PositionStart
	}
	return p.state.Tokens[len(p.state.Tokens)-1].PositionStart
}

func (p *parser) nodeEnd(startIdx int) mlexer.Position {
	if p.state.TokenIndex <= startIdx {
		return p.posStart(startIdx)
	}
	return p.state.Tokens[p.state.TokenIndex-1].PositionEnd
}

// endContext finalizes a context as an AstNode, filling in token range and
// position from the parser's current cursor. litKind is the lexer Kind
// carried by a KindLiteralExpression leaf; constKind is the lexer Kind
// carried by a KindConstant leaf. Both are the zero Kind (KindEof) when not
// applicable.
func (p *parser) endContext(id mnode.ID, kind mnode.Kind, startIdx int, isLeaf bool, literal string, constKind, litKind mlexer.Kind) error {
	ast := &mnode.AstNode{
		Kind:              kind,
		TokenIndexStart:   startIdx,
		TokenIndexEnd:     p.state.TokenIndex - 1,
		IsLeaf:            isLeaf,
		Literal:           literal,
		ConstantTokenKind: constKind,
		LiteralTokenKind:  litKind,
		PositionStart:     p.posStart(startIdx),
		PositionEnd:       p.nodeEnd(startIdx),
	}
	return p.state.Map.EndContext(id, ast)
}

func (p *parser) addLeafConstant(parent *mnode.ID) (mnode.ID, error) {
	tok := p.state.current()
	ctx, err := p.state.Map.StartContext(mnode.KindConstant, p.state.TokenIndex, parent)
	if err != nil {
		return 0, err
	}
	p.state.TokenIndex++
	if err := p.endContext(ctx.ID, mnode.KindConstant, ctx.TokenIndexStart, true, tok.Literal, tok.Kind, mlexer.KindEof); err != nil {
		return 0, err
	}
	return ctx.ID, nil
}

func (p *parser) expectConstant(parent *mnode.ID, kind mlexer.Kind) error {
	tok := p.state.current()
	if tok.Kind != kind {
		if tok.Kind == mlexer.KindEof {
			return errUnterminatedSequence(tok)
		}
		return errExpected(tok, kind.String())
	}
	_, err := p.addLeafConstant(parent)
	return err
}

func (p *parser) addLeafIdentifier(parent *mnode.ID) (mnode.ID, error) {
	tok := p.state.current()
	kind := mnode.KindIdentifier
	if tok.Kind == mlexer.KindGeneralizedIdentifier {
		kind = mnode.KindGeneralizedIdentifier
	}
	ctx, err := p.state.Map.StartContext(kind, p.state.TokenIndex, parent)
	if err != nil {
		return 0, err
	}
	p.state.TokenIndex++
	if err := p.endContext(ctx.ID, kind, ctx.TokenIndexStart, true, tok.Literal, mlexer.KindEof, mlexer.KindEof); err != nil {
		return 0, err
	}
	return ctx.ID, nil
}

func (p *parser) expectIdentifier(parent *mnode.ID) (mnode.ID, error) {
	tok := p.state.current()
	if tok.Kind != mlexer.KindIdentifier && tok.Kind != mlexer.KindGeneralizedIdentifier {
		return 0, errExpected(tok, "identifier")
	}
	return p.addLeafIdentifier(parent)
}

func (p *parser) addLeafLiteral(parent *mnode.ID) (mnode.ID, error) {
	tok := p.state.current()
	ctx, err := p.state.Map.StartContext(mnode.KindLiteralExpression, p.state.TokenIndex, parent)
	if err != nil {
		return 0, err
	}
	p.state.TokenIndex++
	if err := p.endContext(ctx.ID, mnode.KindLiteralExpression, ctx.TokenIndexStart, true, tok.Literal, mlexer.KindEof, tok.Kind); err != nil {
		return 0, err
	}
	return ctx.ID, nil
}

var literalKinds = []mlexer.Kind{
	mlexer.KindNumericLiteral, mlexer.KindTextLiteral,
	mlexer.KindKeywordTrue, mlexer.KindKeywordFalse, mlexer.KindKeywordNull,
}

func isPrimitiveTypeName(literal string) bool {
	return slices.Contains(mnode.PrimitiveTypeNames, literal)
}

// --- csv / wrapped helpers -------------------------------------------------

// parseCsv parses a comma-separated run of items (via itemParser) as the
// children of a fresh ArrayWrapper context, stopping once stopKind is seen
// or the token stream runs out.
func (p *parser) parseCsv(parent *mnode.ID, stopKind mlexer.Kind, itemParser func(parent *mnode.ID) error) (mnode.ID, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindArrayWrapper, p.state.TokenIndex, parent)
	if err != nil {
		return 0, err
	}
	id := ctx.ID
	for p.state.current().Kind != stopKind && !p.state.atEof() {
		if err := itemParser(&id); err != nil {
			return id, err
		}
		if p.state.current().Kind != mlexer.KindComma {
			break
		}
		if _, err := p.addLeafConstant(&id); err != nil {
			return id, err
		}
	}
	if err := p.endContext(id, mnode.KindArrayWrapper, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return id, err
	}
	return id, nil
}

// parseWrapped parses `open itemParser-csv close`, where open/close are
// single-token constants and the body is a comma-separated ArrayWrapper.
func (p *parser) parseWrapped(
	parent *mnode.ID, kind mnode.Kind, openKind, closeKind mlexer.Kind,
	unterminated func(mlexer.Token) *Error, itemParser func(parent *mnode.ID) error,
) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(kind, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, openKind); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseCsv(&id, closeKind, itemParser); err != nil {
		return mnode.XorNode{}, err
	}
	if p.state.current().Kind != closeKind {
		return mnode.XorNode{}, unterminated(p.state.current())
	}
	if err := p.expectConstant(&id, closeKind); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, kind, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func exprItem(p *parser) func(parent *mnode.ID) error {
	return func(parent *mnode.ID) error {
		_, err := p.parseExpression(parent)
		return err
	}
}

func fieldSelectorItem(p *parser) func(parent *mnode.ID) error {
	return func(parent *mnode.ID) error {
		_, err := p.parseFieldSelector(parent)
		return err
	}
}

// --- expressions -----------------------------------------------------------

func (p *parser) parseExpression(parent *mnode.ID) (mnode.XorNode, error) {
	switch p.state.current().Kind {
	case mlexer.KindKeywordLet:
		return p.parseLetExpression(parent)
	case mlexer.KindKeywordIf:
		return p.parseIfExpression(parent)
	case mlexer.KindKeywordTry:
		return p.parseErrorHandlingExpression(parent)
	case mlexer.KindKeywordError:
		return p.parseErrorRaisingExpression(parent)
	case mlexer.KindKeywordEach:
		return p.parseEachExpression(parent)
	case mlexer.KindKeywordType:
		return p.parseTypePrimaryType(parent)
	default:
		return p.parsePrimaryExpression(parent)
	}
}

func (p *parser) parseLetExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindLetExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordLet); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseCsv(&id, mlexer.KindKeywordIn, func(parent *mnode.ID) error {
		return p.parseIdentifierPairedExpression(parent)
	}); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.expectConstant(&id, mlexer.KindKeywordIn); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindLetExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseIdentifierPairedExpression(parent *mnode.ID) error {
	ctx, err := p.state.Map.StartContext(mnode.KindIdentifierPairedExpression, p.state.TokenIndex, parent)
	if err != nil {
		return err
	}
	id := ctx.ID
	if _, err := p.expectIdentifier(&id); err != nil {
		return err
	}
	if err := p.expectConstant(&id, mlexer.KindEqual); err != nil {
		return err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return err
	}
	return p.endContext(id, mnode.KindIdentifierPairedExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof)
}

func (p *parser) parseIfExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindIfExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordIf); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.expectConstant(&id, mlexer.KindKeywordThen); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.expectConstant(&id, mlexer.KindKeywordElse); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindIfExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseErrorHandlingExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindErrorHandlingExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordTry); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if p.state.current().Kind == mlexer.KindKeywordOtherwise {
		if _, err := p.parseOtherwiseExpression(&id); err != nil {
			return mnode.XorNode{}, err
		}
	}
	if err := p.endContext(id, mnode.KindErrorHandlingExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseOtherwiseExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindOtherwiseExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordOtherwise); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindOtherwiseExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseErrorRaisingExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindErrorRaisingExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordError); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindErrorRaisingExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseEachExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindEachExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordEach); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindEachExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseTypePrimaryType(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindTypePrimaryType, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordType); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseNullablePrimitiveType(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindTypePrimaryType, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseNullablePrimitiveType(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindNullablePrimitiveType, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if p.state.current().Kind == mlexer.KindKeywordNullable {
		if err := p.expectConstant(&id, mlexer.KindKeywordNullable); err != nil {
			return mnode.XorNode{}, err
		}
	}
	if _, err := p.parsePrimitiveType(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindNullablePrimitiveType, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parsePrimitiveType(parent *mnode.ID) (mnode.XorNode, error) {
	tok := p.state.current()
	if tok.Kind != mlexer.KindIdentifier || !isPrimitiveTypeName(tok.Literal) {
		return mnode.XorNode{}, errExpected(tok, "primitive type name")
	}
	ctx, err := p.state.Map.StartContext(mnode.KindPrimitiveType, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	p.state.TokenIndex++
	if err := p.endContext(ctx.ID, mnode.KindPrimitiveType, ctx.TokenIndexStart, true, tok.Literal, mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(ctx.ID)
}

// --- function expressions / parameters -------------------------------------

// lookaheadIsFunctionExpression decides between FunctionExpression and
// ParenthesizedExpression without backtracking: it scans forward, tracking
// paren depth, to the matching close paren and checks whether "=>" follows.
func (p *parser) lookaheadIsFunctionExpression() bool {
	depth := 0
	for i := p.state.TokenIndex; i < len(p.state.Tokens); i++ {
		switch p.state.Tokens[i].Kind {
		case mlexer.KindLeftParen:
			depth++
		case mlexer.KindRightParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.state.Tokens) && p.state.Tokens[i+1].Kind == mlexer.KindFatArrow
			}
		}
	}
	return false
}

func (p *parser) parseFunctionExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindFunctionExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindLeftParen); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseCsv(&id, mlexer.KindRightParen, func(parent *mnode.ID) error {
		return p.parseParameter(parent)
	}); err != nil {
		return mnode.XorNode{}, err
	}
	if p.state.current().Kind != mlexer.KindRightParen {
		return mnode.XorNode{}, errUnterminatedParenthesis(p.state.current())
	}
	if err := p.expectConstant(&id, mlexer.KindRightParen); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.expectConstant(&id, mlexer.KindFatArrow); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindFunctionExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseParameter(parent *mnode.ID) error {
	ctx, err := p.state.Map.StartContext(mnode.KindParameter, p.state.TokenIndex, parent)
	if err != nil {
		return err
	}
	id := ctx.ID
	if p.state.current().Kind == mlexer.KindKeywordOptional {
		if err := p.expectConstant(&id, mlexer.KindKeywordOptional); err != nil {
			return err
		}
	}
	if _, err := p.expectIdentifier(&id); err != nil {
		return err
	}
	if p.state.current().Kind == mlexer.KindKeywordAs {
		if _, err := p.parseAsNullablePrimitiveType(&id); err != nil {
			return err
		}
	}
	return p.endContext(id, mnode.KindParameter, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof)
}

func (p *parser) parseAsNullablePrimitiveType(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindAsNullablePrimitiveType, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordAs); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseNullablePrimitiveType(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindAsNullablePrimitiveType, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

// --- primary expressions and recursive field access -------------------------

func (p *parser) parsePrimaryExpressionHead(parent *mnode.ID) (mnode.XorNode, error) {
	tok := p.state.current()
	switch {
	case slices.Contains(literalKinds, tok.Kind):
		id, err := p.addLeafLiteral(parent)
		if err != nil {
			return mnode.XorNode{}, err
		}
		return p.state.Map.AssertGetXor(id)
	case tok.Kind == mlexer.KindAt, tok.Kind == mlexer.KindIdentifier, tok.Kind == mlexer.KindGeneralizedIdentifier:
		return p.parseIdentifierExpression(parent)
	case tok.Kind == mlexer.KindLeftParen:
		if p.lookaheadIsFunctionExpression() {
			return p.parseFunctionExpression(parent)
		}
		return p.parseParenthesizedExpression(parent)
	case tok.Kind == mlexer.KindLeftBrace:
		return p.parseListExpression(parent)
	case tok.Kind == mlexer.KindLeftBracket:
		return p.parseRecordExpression(parent)
	default:
		return mnode.XorNode{}, errExpected(tok, "expression")
	}
}

func (p *parser) parseIdentifierExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindIdentifierExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if p.state.current().Kind == mlexer.KindAt {
		if err := p.expectConstant(&id, mlexer.KindAt); err != nil {
			return mnode.XorNode{}, err
		}
	}
	if _, err := p.expectIdentifier(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindIdentifierExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseParenthesizedExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindParenthesizedExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindLeftParen); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.parseExpression(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if p.state.current().Kind != mlexer.KindRightParen {
		return mnode.XorNode{}, errUnterminatedParenthesis(p.state.current())
	}
	if err := p.expectConstant(&id, mlexer.KindRightParen); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindParenthesizedExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseListExpression(parent *mnode.ID) (mnode.XorNode, error) {
	return p.parseWrapped(parent, mnode.KindListExpression, mlexer.KindLeftBrace, mlexer.KindRightBrace, errUnterminatedBracket, exprItem(p))
}

func (p *parser) parseRecordExpression(parent *mnode.ID) (mnode.XorNode, error) {
	return p.parseWrapped(parent, mnode.KindRecordExpression, mlexer.KindLeftBracket, mlexer.KindRightBracket, errUnterminatedBracket, func(parent *mnode.ID) error {
		return p.parseIdentifierPairedExpression(parent)
	})
}

func (p *parser) parseInvokeExpression(parent *mnode.ID) (mnode.XorNode, error) {
	return p.parseWrapped(parent, mnode.KindInvokeExpression, mlexer.KindLeftParen, mlexer.KindRightParen, errUnterminatedParenthesis, exprItem(p))
}

func (p *parser) parseFieldSelector(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindFieldSelector, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindLeftBracket); err != nil {
		return mnode.XorNode{}, err
	}
	if _, err := p.expectIdentifier(&id); err != nil {
		return mnode.XorNode{}, err
	}
	if p.state.current().Kind != mlexer.KindRightBracket {
		return mnode.XorNode{}, errUnterminatedBracket(p.state.current())
	}
	if err := p.expectConstant(&id, mlexer.KindRightBracket); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindFieldSelector, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) parseFieldProjection(parent *mnode.ID) (mnode.XorNode, error) {
	return p.parseWrapped(parent, mnode.KindFieldProjection, mlexer.KindLeftBracket, mlexer.KindRightBracket, errUnterminatedBracket, fieldSelectorItem(p))
}

func (p *parser) isRecursiveExtensionStart() bool {
	k := p.state.current().Kind
	return k == mlexer.KindLeftParen || k == mlexer.KindLeftBracket
}

func (p *parser) parseRecursiveExtension(parent *mnode.ID) (mnode.XorNode, error) {
	switch p.state.current().Kind {
	case mlexer.KindLeftParen:
		return p.parseInvokeExpression(parent)
	case mlexer.KindLeftBracket:
		if p.state.TokenIndex+1 < len(p.state.Tokens) && p.state.Tokens[p.state.TokenIndex+1].Kind == mlexer.KindLeftBracket {
			return p.parseFieldProjection(parent)
		}
		return p.parseFieldSelector(parent)
	default:
		return mnode.XorNode{}, errExpected(p.state.current(), "field access or invocation")
	}
}

// parsePrimaryExpression always opens a RecursivePrimaryExpression context
// for its head, then either grows it with a run of field accesses and
// invocations or, if none follow, collapses it back down to the bare head
// via nodeidmap.Map.UnwrapOnlyChild.
func (p *parser) parsePrimaryExpression(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindRecursivePrimaryExpression, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID

	head, err := p.parsePrimaryExpressionHead(&id)
	if err != nil {
		return mnode.XorNode{}, err
	}

	if !p.isRecursiveExtensionStart() {
		if err := p.endContext(id, mnode.KindRecursivePrimaryExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
			return mnode.XorNode{}, err
		}
		if err := p.state.Map.UnwrapOnlyChild(id); err != nil {
			return mnode.XorNode{}, err
		}
		return head, nil
	}

	wrapperCtx, err := p.state.Map.StartContext(mnode.KindArrayWrapper, p.state.TokenIndex, &id)
	if err != nil {
		return mnode.XorNode{}, err
	}
	wID := wrapperCtx.ID
	for p.isRecursiveExtensionStart() {
		if _, err := p.parseRecursiveExtension(&wID); err != nil {
			return mnode.XorNode{}, err
		}
	}
	if err := p.endContext(wID, mnode.KindArrayWrapper, wrapperCtx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.endContext(id, mnode.KindRecursivePrimaryExpression, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

// --- section / section members ----------------------------------------------

func (p *parser) parseSection(parent *mnode.ID) (mnode.XorNode, error) {
	ctx, err := p.state.Map.StartContext(mnode.KindSection, p.state.TokenIndex, parent)
	if err != nil {
		return mnode.XorNode{}, err
	}
	id := ctx.ID
	if err := p.expectConstant(&id, mlexer.KindKeywordSection); err != nil {
		return mnode.XorNode{}, err
	}
	if err := p.expectConstant(&id, mlexer.KindSemicolon); err != nil {
		return mnode.XorNode{}, err
	}

	wrapperCtx, err := p.state.Map.StartContext(mnode.KindArrayWrapper, p.state.TokenIndex, &id)
	if err != nil {
		return mnode.XorNode{}, err
	}
	wID := wrapperCtx.ID
	for p.isSectionMemberStart() {
		if err := p.parseSectionMember(&wID); err != nil {
			return mnode.XorNode{}, err
		}
	}
	if err := p.endContext(wID, mnode.KindArrayWrapper, wrapperCtx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}

	if err := p.endContext(id, mnode.KindSection, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof); err != nil {
		return mnode.XorNode{}, err
	}
	return p.state.Map.AssertGetXor(id)
}

func (p *parser) isSectionMemberStart() bool {
	k := p.state.current().Kind
	return k == mlexer.KindKeywordShared || k == mlexer.KindIdentifier || k == mlexer.KindGeneralizedIdentifier
}

func (p *parser) parseSectionMember(parent *mnode.ID) error {
	ctx, err := p.state.Map.StartContext(mnode.KindSectionMember, p.state.TokenIndex, parent)
	if err != nil {
		return err
	}
	id := ctx.ID
	if p.state.current().Kind == mlexer.KindKeywordShared {
		if err := p.expectConstant(&id, mlexer.KindKeywordShared); err != nil {
			return err
		}
	}
	if err := p.parseIdentifierPairedExpression(&id); err != nil {
		return err
	}
	if err := p.expectConstant(&id, mlexer.KindSemicolon); err != nil {
		return err
	}
	return p.endContext(id, mnode.KindSectionMember, ctx.TokenIndexStart, false, "", mlexer.KindEof, mlexer.KindEof)
}
