package mposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

func pos(line, col int) mlexer.Position {
	return mlexer.Position{LineNumber: line, LineCodeUnit: col}
}

func TestIsBefore(t *testing.T) {
	assert.True(t, IsBefore(pos(0, 1), pos(0, 2), false))
	assert.False(t, IsBefore(pos(0, 2), pos(0, 2), false))
	assert.True(t, IsBefore(pos(0, 2), pos(0, 2), true))
	assert.False(t, IsBefore(pos(0, 3), pos(0, 2), true))
}

func TestIsAfter(t *testing.T) {
	assert.True(t, IsAfter(pos(0, 3), pos(0, 2), true))
	assert.False(t, IsAfter(pos(0, 2), pos(0, 2), true))
	assert.True(t, IsAfter(pos(0, 2), pos(0, 2), false))
	assert.False(t, IsAfter(pos(0, 1), pos(0, 2), false))
}

func TestIsOn(t *testing.T) {
	assert.True(t, IsOn(pos(1, 1), pos(1, 1)))
	assert.False(t, IsOn(pos(1, 1), pos(1, 2)))
}

func TestIsInRange(t *testing.T) {
	tests := []struct {
		name         string
		p            mlexer.Position
		incLow       bool
		incHigh      bool
		want         bool
	}{
		{"strictly inside", pos(0, 5), false, false, true},
		{"at start, exclusive", pos(0, 0), false, false, false},
		{"at start, inclusive", pos(0, 0), true, false, true},
		{"at end, exclusive", pos(0, 10), false, false, false},
		{"at end, inclusive", pos(0, 10), false, true, true},
		{"before start", pos(0, -1), true, true, false},
		{"after end", pos(0, 11), true, true, false},
	}
	start, end := pos(0, 0), pos(0, 10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsInRange(tt.p, start, end, tt.incLow, tt.incHigh)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveRange_astNode(t *testing.T) {
	m := nodeidmap.New()
	ctx, err := m.StartContext(mnode.KindIdentifier, 0, nil)
	require.NoError(t, err)
	ast := &mnode.AstNode{
		Kind:          mnode.KindIdentifier,
		IsLeaf:        true,
		Literal:       "foo",
		PositionStart: pos(0, 0),
		PositionEnd:   pos(0, 3),
	}
	require.NoError(t, m.EndContext(ctx.ID, ast))

	x, ok := m.GetXor(ctx.ID)
	require.True(t, ok)

	start, end := EffectiveRange(m, nil, x)
	assert.Equal(t, pos(0, 0), start)
	assert.Equal(t, pos(0, 3), end)
}

func TestEffectiveRange_contextUsesRightmostDescendantLeaf(t *testing.T) {
	m := nodeidmap.New()
	root, err := m.StartContext(mnode.KindListExpression, 0, nil)
	require.NoError(t, err)
	rootID := root.ID

	childCtx, err := m.StartContext(mnode.KindIdentifier, 0, &rootID)
	require.NoError(t, err)
	require.NoError(t, m.EndContext(childCtx.ID, &mnode.AstNode{
		Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "a",
		PositionStart: pos(0, 1), PositionEnd: pos(0, 2),
	}))

	x, ok := m.GetXor(rootID)
	require.True(t, ok)
	require.True(t, x.IsContext())

	start, end := EffectiveRange(m, nil, x)
	assert.Equal(t, pos(0, 1), start)
	assert.Equal(t, pos(0, 2), end)
}

func TestEffectiveRange_contextWithNoLeafYet(t *testing.T) {
	m := nodeidmap.New()
	tokens := []mlexer.Token{
		{Kind: mlexer.KindLeftBrace, Literal: "{", PositionStart: pos(0, 4), PositionEnd: pos(0, 5)},
	}
	root, err := m.StartContext(mnode.KindListExpression, 0, nil)
	require.NoError(t, err)

	x, ok := m.GetXor(root.ID)
	require.True(t, ok)

	// No descendant leaf yet: the effective range resolves to the context's
	// own start token position (spec.md §4.B), not the zero Position.
	start, end := EffectiveRange(m, tokens, x)
	assert.Equal(t, pos(0, 4), start)
	assert.Equal(t, pos(0, 4), end)
}

func TestIsInNode(t *testing.T) {
	m := nodeidmap.New()
	ctx, err := m.StartContext(mnode.KindIdentifier, 0, nil)
	require.NoError(t, err)
	require.NoError(t, m.EndContext(ctx.ID, &mnode.AstNode{
		Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "foo",
		PositionStart: pos(0, 0), PositionEnd: pos(0, 3),
	}))
	x, ok := m.GetXor(ctx.ID)
	require.True(t, ok)

	assert.True(t, IsInNode(m, nil, x, pos(0, 1), true, true))
	assert.True(t, IsInNode(m, nil, x, pos(0, 3), false, true))
	assert.False(t, IsInNode(m, nil, x, pos(0, 3), false, false))
	assert.False(t, IsInNode(m, nil, x, pos(0, 4), true, true))
}
