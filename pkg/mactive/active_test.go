package mactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mparse"
)

// parseIncomplete parses src, tolerating (and returning) a parse error: the
// resolver must operate against whatever the parser managed to commit to
// the map before giving up, which is the normal case for a buffer that's
// still being typed.
func parseIncomplete(t *testing.T, src string) *mparse.State {
	t.Helper()
	state, _ := mparse.ParseDocument(mlexer.Lex(src))
	return state
}

func TestResolve_emptyBufferReturnsNil(t *testing.T) {
	state := parseIncomplete(t, "")
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{})
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestResolve_cursorBeforeFirstTokenReturnsNil(t *testing.T) {
	state := parseIncomplete(t, "x")
	// The identifier starts at column 0; a cursor at a negative column
	// doesn't occur in real positions, but a position before everything
	// (e.g. the next line up) must still resolve to nothing.
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: -1, LineCodeUnit: 0})
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestResolve_onIdentifier_isAnchored(t *testing.T) {
	state := parseIncomplete(t, "abc")
	// Cursor in the middle of "abc" (column 1).
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 1})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, KindAnchored, active.LeafKind)
	assert.Equal(t, mnode.KindIdentifier, active.Leaf().Kind())
}

func TestResolve_identifierUnderPosition_rightEdgeInclusive(t *testing.T) {
	state := parseIncomplete(t, "abc")
	// Cursor right after the "c" (column 3, the identifier's own end) must
	// still report the identifier under the cursor per the resolved Open
	// Question: right-edge inclusive.
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 3})
	require.NoError(t, err)
	require.NotNil(t, active)
	require.NotNil(t, active.IdentifierUnderPosition)
	assert.Equal(t, "abc", active.IdentifierUnderPosition.Literal)
}

func TestResolve_afterNonAnchorLiteral_isAfterAst(t *testing.T) {
	// "false" is a LiteralExpression but, unlike a numeric literal, is not
	// an anchor kind (spec.md §4.D Phase 4), so a cursor well past it falls
	// through to the plain after-leaf check instead of being anchored.
	state := parseIncomplete(t, "false ")
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 6})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, KindAfterAst, active.LeafKind)
}

func TestResolve_shiftRightAfterComma(t *testing.T) {
	state := parseIncomplete(t, "{1, 2}")
	// Cursor sitting exactly on the comma (column 2) shifts right onto "2".
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 2})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, KindShiftedRight, active.LeafKind)
	ast, ok := active.Leaf().Ast()
	require.True(t, ok)
	assert.Equal(t, "2", ast.Literal)
}

func TestResolve_drillDownIntoEmptyWrapper(t *testing.T) {
	// "f()" has an empty, but fully closed, argument wrapper: a cursor
	// sitting exactly on "(" drills down into that empty ArrayWrapper
	// rather than shifting right onto the closing paren.
	state := parseIncomplete(t, "f()")
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 1})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, KindShiftedRight, active.LeafKind)
	assert.Equal(t, mnode.KindArrayWrapper, active.Leaf().Kind())
}

func TestResolve_contextPreference_insideUnterminatedLet(t *testing.T) {
	// "let x = " never reaches "in": the LetExpression context is still
	// open when the parser gives up, and the cursor after "=" should
	// resolve into that open context rather than landing back on "=".
	state := parseIncomplete(t, "let x = ")
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 8})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, KindContext, active.LeafKind)
	assert.True(t, active.Leaf().IsContext())
}

func TestResolve_ancestryIsTrueParentChain(t *testing.T) {
	state := parseIncomplete(t, "if true then 1 else 2")
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 13})
	require.NoError(t, err)
	require.NotNil(t, active)

	for i := 1; i < len(active.Ancestry); i++ {
		parentID, ok := state.Map.ParentOf(active.Ancestry[i-1].ID())
		require.True(t, ok)
		assert.Equal(t, active.Ancestry[i].ID(), parentID)
	}
	// The last element is the root.
	root, ok := state.Map.Root()
	require.True(t, ok)
	assert.Equal(t, root, active.Ancestry[len(active.Ancestry)-1].ID())
}

func TestResolve_atSignIdentifierUnderPosition(t *testing.T) {
	state := parseIncomplete(t, "@foo")
	active, err := Resolve(state.Map, state.Tokens, mlexer.Position{LineNumber: 0, LineCodeUnit: 0})
	require.NoError(t, err)
	require.NotNil(t, active)
	require.NotNil(t, active.IdentifierUnderPosition)
	assert.Equal(t, "foo", active.IdentifierUnderPosition.Literal)
}

func TestLeafKind_String(t *testing.T) {
	assert.Equal(t, "OnAst", KindOnAst.String())
	assert.Equal(t, "AfterAst", KindAfterAst.String())
	assert.Equal(t, "Context", KindContext.String())
	assert.Equal(t, "Anchored", KindAnchored.String())
	assert.Equal(t, "ShiftedRight", KindShiftedRight.String())
}
