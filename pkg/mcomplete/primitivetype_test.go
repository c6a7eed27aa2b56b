package mcomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mancestry"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

func TestPrimitiveType_nilActive(t *testing.T) {
	got := PrimitiveType(nil, nil)
	assert.Nil(t, got.Names)
}

func TestPrimitiveType_notInsideNullablePrimitiveType(t *testing.T) {
	active := &mactive.ActiveNode{LeafKind: mactive.KindAnchored}
	got := PrimitiveType(active, nil)
	assert.Nil(t, got.Names)
}

func TestPrimitiveType_insideOpenNullablePrimitiveTypeOffersEverything(t *testing.T) {
	active := buildOpenNullablePrimitiveType(t)
	got := PrimitiveType(active, nil)
	assert.Equal(t, mnode.PrimitiveTypeNames, got.Names)
}

func TestPrimitiveType_filteredByIdentifierUnderPosition(t *testing.T) {
	active := buildOpenNullablePrimitiveType(t)
	active.IdentifierUnderPosition = &mactive.Identifier{Literal: "d"}
	got := PrimitiveType(active, nil)
	assert.Equal(t, []string{"date", "datetime", "datetimezone", "duration"}, got.Names)
}

func TestPrimitiveType_stillOffersAllNamesOnceAPrimitiveNameIsWritten(t *testing.T) {
	m := nodeidmap.New()
	ctx, err := m.StartContext(mnode.KindNullablePrimitiveType, 0, nil)
	require.NoError(t, err)
	// A child occupying slot 0 means the primitive-type name has already
	// been written; this case is no longer "open" in the sense that
	// matters, but openNullablePrimitiveType itself only checks context
	// kind, not attribute count (nullableApplies in langconstant.go is the
	// one that additionally checks AttributeCount==0), so the analysis
	// still fires here — it is the caller's resolver state that normally
	// prevents reaching this shape with an already-filled slot.
	child, err := m.StartContext(mnode.KindIdentifier, 1, &ctx.ID)
	require.NoError(t, err)
	require.NoError(t, m.EndContext(child.ID, &mnode.AstNode{Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "numbe"}))

	ancestry, err := mancestry.Of(m, ctx.ID)
	require.NoError(t, err)
	active := &mactive.ActiveNode{LeafKind: mactive.KindContext, Ancestry: ancestry}

	got := PrimitiveType(active, nil)
	assert.Equal(t, mnode.PrimitiveTypeNames, got.Names)
}
