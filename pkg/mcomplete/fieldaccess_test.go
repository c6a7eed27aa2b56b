package mcomplete

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerquery-lang/mquery/pkg/mactive"
	"github.com/powerquery-lang/mquery/pkg/mancestry"
	"github.com/powerquery-lang/mquery/pkg/mlexer"
	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/mparse"
	"github.com/powerquery-lang/mquery/pkg/mtype"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// stubTypeEngine ignores the node id it's asked about and always reports
// the same record type (or error), which is all these tests need: the
// analysis under test never inspects which id it passed.
type stubTypeEngine struct {
	fields map[string]mtype.Type
	err    error
}

func (s stubTypeEngine) TryType(mnode.ID) (mtype.Type, error) {
	if s.err != nil {
		return nil, s.err
	}
	return mtype.DefinedRecord{Fields: s.fields}, nil
}

func pos(col int) mlexer.Position { return mlexer.Position{LineNumber: 0, LineCodeUnit: col} }

func TestFieldAccess_nilActiveReturnsEmpty(t *testing.T) {
	got := FieldAccess(context.Background(), nodeidmap.New(), nil, nil, nil, stubTypeEngine{})
	assert.Empty(t, got.Fields)
	assert.NoError(t, got.Err)
}

func TestFieldAccess_nilEngineReturnsEmpty(t *testing.T) {
	state, _ := mparse.ParseDocument(mlexer.Lex("foo["))
	active, err := mactive.Resolve(state.Map, state.Tokens, pos(4))
	require.NoError(t, err)
	got := FieldAccess(context.Background(), state.Map, active, nil, state, nil)
	assert.Empty(t, got.Fields)
}

// spec.md §8 scenario #3: "foo[|" — the FieldSelector is still an open
// context (the ancestor-match path), with no identifier written yet, so
// every field of foo's record type is offered unfiltered.
func TestFieldAccess_ancestorMatch_emptySelectorOffersAllFields(t *testing.T) {
	state, parseErr := mparse.ParseDocument(mlexer.Lex("foo["))
	active, err := mactive.Resolve(state.Map, state.Tokens, pos(4))
	require.NoError(t, err)
	require.NotNil(t, active)

	var lastErr *mparse.Error
	if pe, ok := parseErr.(*mparse.Error); ok {
		lastErr = pe
	}

	engine := stubTypeEngine{fields: map[string]mtype.Type{
		"bar": mtype.Primitive{PrimitiveName: "number"},
		"baz": mtype.Primitive{PrimitiveName: "text"},
	}}
	got := FieldAccess(context.Background(), state.Map, active, lastErr, state, engine)
	require.NoError(t, got.Err)
	assert.Equal(t, []FieldCompletion{
		{Name: "bar", Type: mtype.Primitive{PrimitiveName: "number"}},
		{Name: "baz", Type: mtype.Primitive{PrimitiveName: "text"}},
	}, got.Fields)
}

// An already-named but still-open selector ("foo[bar", no closing "]")
// filters to fields sharing the typed prefix — still the ancestor-match
// path, now exercising inspectFieldSelector's identifier-present branch and
// typablePrimaryExpression's head (i==0) receiver case.
func TestFieldAccess_ancestorMatch_partialIdentifierFiltersByPrefix(t *testing.T) {
	state, parseErr := mparse.ParseDocument(mlexer.Lex("foo[bar"))
	// Cursor between "ba" and "r": identifierUnderPosition is the partial
	// "ba", matching both "bar" and "baz" but not "other".
	active, err := mactive.Resolve(state.Map, state.Tokens, pos(6))
	require.NoError(t, err)
	require.NotNil(t, active)

	var lastErr *mparse.Error
	if pe, ok := parseErr.(*mparse.Error); ok {
		lastErr = pe
	}

	engine := stubTypeEngine{fields: map[string]mtype.Type{
		"bar":   mtype.Primitive{PrimitiveName: "number"},
		"baz":   mtype.Primitive{PrimitiveName: "text"},
		"other": mtype.Primitive{PrimitiveName: "text"},
	}}
	got := FieldAccess(context.Background(), state.Map, active, lastErr, state, engine)
	require.NoError(t, got.Err)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "bar", got.Fields[0].Name)
	assert.Equal(t, "baz", got.Fields[1].Name)
}

// "foo[a][b" — a second, still-open selector chained after a completed
// one. The receiver of the second selector is the first selector's result,
// not foo itself: typablePrimaryExpression's "previous extension" branch.
func TestFieldAccess_chainedSelector_receiverIsPriorExtensionNotHead(t *testing.T) {
	state, parseErr := mparse.ParseDocument(mlexer.Lex("foo[a][b"))
	active, err := mactive.Resolve(state.Map, state.Tokens, pos(8))
	require.NoError(t, err)
	require.NotNil(t, active)

	var lastErr *mparse.Error
	if pe, ok := parseErr.(*mparse.Error); ok {
		lastErr = pe
	}

	engine := stubTypeEngine{fields: map[string]mtype.Type{
		"b": mtype.Primitive{PrimitiveName: "number"},
		"c": mtype.Primitive{PrimitiveName: "text"},
	}}
	got := FieldAccess(context.Background(), state.Map, active, lastErr, state, engine)
	require.NoError(t, got.Err)
	assert.Equal(t, []FieldCompletion{{Name: "b", Type: mtype.Primitive{PrimitiveName: "number"}}}, got.Fields)

	// The stub engine ignores the id it is given, so check the receiver
	// typablePrimaryExpression picks for the open selector directly.
	var sel mnode.XorNode
	for _, x := range active.Ancestry {
		if x.Kind() == mnode.KindFieldSelector {
			sel = x
			break
		}
	}
	receiverID, ok := typablePrimaryExpression(state.Map, sel)
	require.True(t, ok)
	receiver, ok := state.Map.GetXor(receiverID)
	require.True(t, ok)
	assert.Equal(t, mnode.KindFieldSelector, receiver.Kind())
}

// The trailing-open-wrapper discovery path: no FieldSelector/FieldProjection
// is anywhere in active's ancestry, but the most recent parse error's token
// is an unconsumed "[" at or before the cursor. locateFieldAccess must race
// mparse.ReadFieldSelector and mparse.ReadFieldProjection against it and
// pick whichever consumed more of the trial buffer.
func TestFieldAccess_speculativeTrailingWrapper_selectorBeatsProjection(t *testing.T) {
	m := nodeidmap.New()
	rpe, err := m.StartContext(mnode.KindRecursivePrimaryExpression, 0, nil)
	require.NoError(t, err)
	head, err := m.StartContext(mnode.KindIdentifier, 0, &rpe.ID)
	require.NoError(t, err)
	require.NoError(t, m.EndContext(head.ID, &mnode.AstNode{
		Kind: mnode.KindIdentifier, IsLeaf: true, Literal: "foo",
		PositionStart: pos(0), PositionEnd: pos(3),
	}))
	ancestry, err := mancestry.Of(m, rpe.ID)
	require.NoError(t, err)
	active := &mactive.ActiveNode{LeafKind: mactive.KindContext, Ancestry: ancestry, Position: pos(4)}

	// A standalone "[bar]" fed to the two entry points: selection consumes
	// all 3 tokens ("[", "bar", "]"); projection's item parser expects a
	// nested "[" and fails immediately after consuming just "[".
	tokens := mlexer.Lex("[bar]")
	state := &mparse.State{Tokens: tokens, TokenIndex: 0, Map: nodeidmap.New()}
	lastErr := &mparse.Error{Variant: mparse.ErrorExpectedAnyToken, Token: tokens[0]}

	engine := stubTypeEngine{fields: map[string]mtype.Type{
		"bar": mtype.Primitive{PrimitiveName: "number"},
		"baz": mtype.Primitive{PrimitiveName: "text"},
	}}
	got := FieldAccess(context.Background(), m, active, lastErr, state, engine)
	require.NoError(t, got.Err)
	assert.Equal(t, []FieldCompletion{{Name: "bar", Type: mtype.Primitive{PrimitiveName: "number"}}}, got.Fields)
}

func TestFieldAccess_noTrailingBracketReturnsEmpty(t *testing.T) {
	state, _ := mparse.ParseDocument(mlexer.Lex("foo"))
	active, err := mactive.Resolve(state.Map, state.Tokens, pos(3))
	require.NoError(t, err)
	lastErr := &mparse.Error{Variant: mparse.ErrorExpectedAnyToken, Token: mlexer.Token{Kind: mlexer.KindEof}}
	got := FieldAccess(context.Background(), state.Map, active, lastErr, state, stubTypeEngine{})
	assert.Empty(t, got.Fields)
}

func TestFieldAccess_typeEngineErrorSurfacesAsErr(t *testing.T) {
	state, parseErr := mparse.ParseDocument(mlexer.Lex("foo["))
	active, err := mactive.Resolve(state.Map, state.Tokens, pos(4))
	require.NoError(t, err)
	var lastErr *mparse.Error
	if pe, ok := parseErr.(*mparse.Error); ok {
		lastErr = pe
	}
	boom := errors.New("boom")
	got := FieldAccess(context.Background(), state.Map, active, lastErr, state, stubTypeEngine{err: boom})
	require.Error(t, got.Err)
}
