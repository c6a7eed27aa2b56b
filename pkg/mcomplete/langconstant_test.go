package mcomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mancestry"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mparse"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

func TestLanguageConstant_nilActive(t *testing.T) {
	got := LanguageConstant(nil, nil, nil)
	assert.Nil(t, got.Constants)
}

func TestLanguageConstant_nullableWhenPrimitiveTypeSlotEmpty(t *testing.T) {
	active := buildOpenNullablePrimitiveType(t)
	got := LanguageConstant(active, nil, nil)
	assert.Equal(t, []string{"nullable"}, got.Constants)
}

func TestLanguageConstant_optionalWhenParameterSlotEmpty(t *testing.T) {
	m := nodeidmap.New()
	param, err := m.StartContext(mnode.KindParameter, 0, nil)
	require.NoError(t, err)
	ancestry, err := mancestry.Of(m, param.ID)
	require.NoError(t, err)
	active := &mactive.ActiveNode{LeafKind: mactive.KindContext, Ancestry: ancestry}

	got := LanguageConstant(active, nil, nil)
	assert.Equal(t, []string{"optional"}, got.Constants)
}

func TestLanguageConstant_optionalWhileIdentifierIsStillAPrefixOfIt(t *testing.T) {
	m := nodeidmap.New()
	param, err := m.StartContext(mnode.KindParameter, 0, nil)
	require.NoError(t, err)
	name, err := m.StartContext(mnode.KindIdentifier, 1, &param.ID)
	require.NoError(t, err)
	require.NoError(t, m.EndContext(name.ID, &mnode.AstNode{Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "opt"}))

	ancestry, err := mancestry.Of(m, name.ID)
	require.NoError(t, err)
	active := &mactive.ActiveNode{LeafKind: mactive.KindAnchored, Ancestry: ancestry}

	got := LanguageConstant(active, nil, nil)
	assert.Equal(t, []string{"optional"}, got.Constants)
}

func TestLanguageConstant_notOptionalOnceIdentifierOutgrowsThePrefix(t *testing.T) {
	m := nodeidmap.New()
	param, err := m.StartContext(mnode.KindParameter, 0, nil)
	require.NoError(t, err)
	name, err := m.StartContext(mnode.KindIdentifier, 1, &param.ID)
	require.NoError(t, err)
	require.NoError(t, m.EndContext(name.ID, &mnode.AstNode{Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "optionalPlus"}))

	ancestry, err := mancestry.Of(m, name.ID)
	require.NoError(t, err)
	active := &mactive.ActiveNode{LeafKind: mactive.KindAnchored, Ancestry: ancestry}

	got := LanguageConstant(active, nil, nil)
	assert.Equal(t, []string{}, got.Constants)
}

func TestLanguageConstant_speculativeOptionalViaTrialFunctionExpressionParse(t *testing.T) {
	src := "(opt) => opt"
	state := mparse.NewState(mlexer.Lex(src))
	lastErr := &mparse.Error{
		Variant: mparse.ErrorUnterminatedSequence,
		Token:   mlexer.Token{Kind: mlexer.KindLeftParen, PositionStart: mlexer.Position{LineNumber: 0, LineCodeUnit: 0}, PositionEnd: mlexer.Position{LineNumber: 0, LineCodeUnit: 1}},
	}

	// A minimal, unrelated ancestry with no FunctionExpression ancestor —
	// the precondition speculativeOptional checks before bothering to
	// trial-parse at all.
	unrelated := nodeidmap.New()
	ctx, err := unrelated.StartContext(mnode.KindIdentifier, 0, nil)
	require.NoError(t, err)
	require.NoError(t, unrelated.EndContext(ctx.ID, &mnode.AstNode{Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "z"}))
	ancestry, err := mancestry.Of(unrelated, ctx.ID)
	require.NoError(t, err)

	// Column 1 is "opt"'s own start inside "(opt) => opt".
	active := &mactive.ActiveNode{
		Position: mlexer.Position{LineNumber: 0, LineCodeUnit: 1},
		Ancestry: ancestry,
		LeafKind: mactive.KindAnchored,
	}

	got := LanguageConstant(active, lastErr, state)
	assert.Equal(t, []string{"optional"}, got.Constants)
}

func TestLanguageConstant_noSpeculationWithoutUnterminatedSequence(t *testing.T) {
	state := mparse.NewState(mlexer.Lex("(opt) => opt"))
	lastErr := &mparse.Error{Variant: mparse.ErrorExpectedAnyToken, Token: mlexer.Token{}}

	unrelated := nodeidmap.New()
	ctx, err := unrelated.StartContext(mnode.KindIdentifier, 0, nil)
	require.NoError(t, err)
	require.NoError(t, unrelated.EndContext(ctx.ID, &mnode.AstNode{Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "z"}))
	ancestry, err := mancestry.Of(unrelated, ctx.ID)
	require.NoError(t, err)

	active := &mactive.ActiveNode{Position: mlexer.Position{LineNumber: 0, LineCodeUnit: 1}, Ancestry: ancestry, LeafKind: mactive.KindAnchored}

	got := LanguageConstant(active, lastErr, state)
	assert.Equal(t, []string{}, got.Constants)
}
