package mancestry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// buildChain produces root -> mid -> leaf, each linked via StartContext, with
// leaf finalized as an AST leaf. It returns their ids in leaf-first order.
func buildChain(t *testing.T) (m *nodeidmap.Map, leafID, midID, rootID mnode.ID) {
	t.Helper()
	m = nodeidmap.New()
	root, err := m.StartContext(mnode.KindLetExpression, 0, nil)
	require.NoError(t, err)
	rootID = root.ID

	mid, err := m.StartContext(mnode.KindIfExpression, 1, &rootID)
	require.NoError(t, err)
	midID = mid.ID

	leaf, err := m.StartContext(mnode.KindIdentifier, 2, &midID)
	require.NoError(t, err)
	leafID = leaf.ID
	require.NoError(t, m.EndContext(leafID, &mnode.AstNode{
		Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "x",
	}))
	return m, leafID, midID, rootID
}

func TestOf_selfFirstRootLast(t *testing.T) {
	m, leafID, midID, rootID := buildChain(t)

	a, err := Of(m, leafID)
	require.NoError(t, err)
	require.Len(t, a, 3)
	assert.Equal(t, leafID, a[0].ID())
	assert.Equal(t, midID, a[1].ID())
	assert.Equal(t, rootID, a[2].ID())
}

func TestOf_rootOnly(t *testing.T) {
	m := nodeidmap.New()
	root, err := m.StartContext(mnode.KindLetExpression, 0, nil)
	require.NoError(t, err)

	a, err := Of(m, root.ID)
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, root.ID, a[0].ID())
}

func TestOf_missingIDErrors(t *testing.T) {
	m := nodeidmap.New()
	_, err := Of(m, mnode.ID(123))
	require.Error(t, err)
}

func TestNthPrevious_andNthNext(t *testing.T) {
	m, leafID, midID, rootID := buildChain(t)
	a, err := Of(m, leafID)
	require.NoError(t, err)

	// From the mid node (index 1): previous is the leaf, next is the root.
	prev, ok := NthPrevious(a, 1, 1)
	require.True(t, ok)
	assert.Equal(t, leafID, prev.ID())

	next, ok := NthNext(a, 1, 1)
	require.True(t, ok)
	assert.Equal(t, rootID, next.ID())

	_ = midID
}

func TestNthPrevious_outOfRange(t *testing.T) {
	m, leafID, _, _ := buildChain(t)
	a, err := Of(m, leafID)
	require.NoError(t, err)

	_, ok := NthPrevious(a, 0, 1)
	assert.False(t, ok)

	_, ok = NthNext(a, len(a)-1, 1)
	assert.False(t, ok)
}

func TestAt_kindFilterExcludesMismatch(t *testing.T) {
	m, leafID, _, _ := buildChain(t)
	a, err := Of(m, leafID)
	require.NoError(t, err)

	_, ok := NthNext(a, 0, 1, mnode.KindLetExpression)
	assert.False(t, ok, "index 1 is an IfExpression, not a LetExpression")

	got, ok := NthNext(a, 0, 1, mnode.KindIfExpression)
	require.True(t, ok)
	assert.Equal(t, mnode.KindIfExpression, got.Kind())
}

func TestFirstIndexOfKind(t *testing.T) {
	m, leafID, _, _ := buildChain(t)
	a, err := Of(m, leafID)
	require.NoError(t, err)

	assert.Equal(t, 2, FirstIndexOfKind(a, mnode.KindLetExpression))
	assert.Equal(t, 1, FirstIndexOfKind(a, mnode.KindIfExpression))
	assert.Equal(t, -1, FirstIndexOfKind(a, mnode.KindSection))
}

func TestLeaf_returnsFirstElement(t *testing.T) {
	m, leafID, _, _ := buildChain(t)
	a, err := Of(m, leafID)
	require.NoError(t, err)

	assert.Equal(t, leafID, Leaf(a).ID())
}

func TestLeaf_panicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() {
		Leaf(Ancestry{})
	})
}
