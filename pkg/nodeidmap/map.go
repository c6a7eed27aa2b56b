// Package nodeidmap implements the NodeIdMap graph store of spec.md §3–4.A:
// the single addressable tree in which every node is either a completed AST
// node or an in-progress context node, sharing one id space and one
// parent/child map. It is the sole mutation surface during parsing and the
// sole navigation surface during analysis.
//
// The id-keyed map layout and the constructor-per-failure error convention
// are grounded on ritamzico-pgraph's internal/graph package (maps keyed by
// an opaque id type, a Clone method, one error constructor per failure
// kind); the dual-variant node shape itself is spec.md's own design note
// in §9.
package nodeidmap

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/powerquery-lang/mquery/pkg/mnode"
)

// Map owns all nodes of one syntax graph by integer id.
type Map struct {
	astByID      map[mnode.ID]*mnode.AstNode
	contextByID  map[mnode.ID]*mnode.ContextNode
	parentByID   map[mnode.ID]mnode.ID
	childIDsByID map[mnode.ID][]mnode.ID
	leafIDs      map[mnode.ID]struct{}
	idsByKind    map[mnode.Kind]map[mnode.ID]struct{}

	rightmostLeaf *mnode.AstNode

	idCounter mnode.ID
	root      mnode.ID
	hasRoot   bool

	logger *slog.Logger
}

// New returns an empty NodeIdMap ready for StartContext calls.
func New() *Map {
	return &Map{
		astByID:      make(map[mnode.ID]*mnode.AstNode),
		contextByID:  make(map[mnode.ID]*mnode.ContextNode),
		parentByID:   make(map[mnode.ID]mnode.ID),
		childIDsByID: make(map[mnode.ID][]mnode.ID),
		leafIDs:      make(map[mnode.ID]struct{}),
		idsByKind:    make(map[mnode.Kind]map[mnode.ID]struct{}),
		logger:       slog.Default(),
	}
}

// SetLogger overrides the logger invariant violations are reported through.
// A nil logger is ignored, leaving the previous one (slog.Default() unless
// already overridden) in place.
func (m *Map) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// warnInvariant logs an invariant violation at Warn level before it is
// returned to the caller as an error — the graph itself never panics or
// enters an inconsistent state over this, but a violation here almost
// always means a parser bug upstream, worth surfacing even when the caller
// handles the error gracefully.
func (m *Map) warnInvariant(err error) error {
	if m.logger != nil {
		m.logger.Warn("nodeidmap invariant violation", "error", err)
	}
	return err
}

// Root returns the root id, if one has been set.
func (m *Map) Root() (mnode.ID, bool) {
	return m.root, m.hasRoot
}

// NextID previews the id StartContext would allocate next, without
// allocating it. Useful for tests asserting on id assignment order.
func (m *Map) NextID() mnode.ID { return m.idCounter }

// StartContext allocates a new context node, links it under parent (if
// given), and increments the parent's attribute counter. Passing a nil
// parent sets this node as the graph's root; StartContext errors if the
// root is already set and parent is nil.
func (m *Map) StartContext(kind mnode.Kind, tokenStart int, parent *mnode.ID) (*mnode.ContextNode, error) {
	id := m.idCounter
	m.idCounter++

	attrIndex := -1
	if parent != nil {
		parentCtx, ok := m.contextByID[*parent]
		if !ok {
			return nil, m.warnInvariant(errNodeNotFound(int(*parent)))
		}
		attrIndex = parentCtx.AttributeCount
		parentCtx.AttributeCount++
		m.parentByID[id] = *parent
		m.childIDsByID[*parent] = append(m.childIDsByID[*parent], id)
	} else {
		if m.hasRoot {
			return nil, m.warnInvariant(errAlreadyContext(int(m.root)))
		}
		m.root = id
		m.hasRoot = true
	}

	ctx := &mnode.ContextNode{
		ID:              id,
		Kind:            kind,
		AttributeIndex:  attrIndex,
		TokenIndexStart: tokenStart,
	}
	m.contextByID[id] = ctx
	m.addToKindIndex(kind, id)
	return ctx, nil
}

// EndContext transitions a context node to its finalized AST form: moves
// the id from contextById to astById, adds it to leafIds if it is a leaf
// (erroring if the id is already a leaf — that would be a parser bug), and
// updates the rightmostLeaf cache when tokenIndexStart strictly increases.
func (m *Map) EndContext(contextID mnode.ID, astNode *mnode.AstNode) error {
	ctx, ok := m.contextByID[contextID]
	if !ok {
		return m.warnInvariant(errNodeNotFound(int(contextID)))
	}
	if _, already := m.astByID[contextID]; already {
		return m.warnInvariant(errAlreadyAst(int(contextID)))
	}

	astNode.ID = contextID
	astNode.AttributeIndex = ctx.AttributeIndex

	delete(m.contextByID, contextID)
	m.astByID[contextID] = astNode

	if astNode.IsLeaf {
		if _, already := m.leafIDs[contextID]; already {
			return m.warnInvariant(errAlreadyLeaf(int(contextID)))
		}
		m.leafIDs[contextID] = struct{}{}
		if m.rightmostLeaf == nil || astNode.TokenIndexStart > m.rightmostLeaf.TokenIndexStart {
			m.rightmostLeaf = astNode
		}
	}
	return nil
}

// DeleteContext removes a still-open context node. The node must be
// childless.
func (m *Map) DeleteContext(id mnode.ID) error {
	if _, ok := m.contextByID[id]; !ok {
		return m.warnInvariant(errNodeNotFound(int(id)))
	}
	if len(m.childIDsByID[id]) > 0 {
		return m.warnInvariant(errHasChildren(int(id)))
	}
	kind := m.contextByID[id].Kind
	delete(m.contextByID, id)
	m.unlink(id, kind)
	return nil
}

// DeleteAst removes a finalized AST node. The node must be childless. If
// the deleted node was root and it has exactly one child pending under it
// (impossible once childless is enforced) this is a no-op for promotion;
// promotion only applies when deleting a non-leaf root is attempted before
// its single child is removed — see DeleteAstPromotingChild for that path.
func (m *Map) DeleteAst(id mnode.ID) error {
	n, ok := m.astByID[id]
	if !ok {
		return m.warnInvariant(errNodeNotFound(int(id)))
	}
	if len(m.childIDsByID[id]) > 0 {
		return m.warnInvariant(errHasChildren(int(id)))
	}
	delete(m.astByID, id)
	delete(m.leafIDs, id)
	if m.rightmostLeaf != nil && m.rightmostLeaf.ID == id {
		m.rightmostLeaf = m.recomputeRightmostLeaf()
	}
	m.unlink(id, n.Kind)
	return nil
}

// DeleteAstPromotingChild deletes a root AST node that has exactly one
// child, promoting that child to root and giving it the deleted node's
// attribute index (spec.md §4.A).
func (m *Map) DeleteAstPromotingChild(id mnode.ID) error {
	if !m.hasRoot || m.root != id {
		return m.warnInvariant(errUnexpectedKind(int(id), "non-root", "root"))
	}
	n, ok := m.astByID[id]
	if !ok {
		return m.warnInvariant(errNodeNotFound(int(id)))
	}
	children := m.childIDsByID[id]
	if len(children) != 1 {
		return m.warnInvariant(errHasChildren(int(id)))
	}
	child := children[0]

	delete(m.astByID, id)
	delete(m.leafIDs, id)
	delete(m.childIDsByID, id)
	delete(m.parentByID, child)
	m.removeFromKindIndex(n.Kind, id)

	m.root = child
	if ast, ok := m.astByID[child]; ok {
		ast.AttributeIndex = n.AttributeIndex
	} else if ctx, ok := m.contextByID[child]; ok {
		ctx.AttributeIndex = n.AttributeIndex
	}
	return nil
}

// UnwrapOnlyChild removes a finalized AST wrapper node that turned out to
// have exactly one child, splicing that child into the wrapper's former
// slot (same parent, same attribute index) and discarding the wrapper. The
// parser uses this to collapse a RecursivePrimaryExpression that gained no
// recursive field accesses or invocations back down to its bare head
// expression, without having to decide before parsing the head whether a
// wrapper will end up being needed.
func (m *Map) UnwrapOnlyChild(id mnode.ID) error {
	n, ok := m.astByID[id]
	if !ok {
		return m.warnInvariant(errNodeNotFound(int(id)))
	}
	children := m.childIDsByID[id]
	if len(children) != 1 {
		return m.warnInvariant(errHasChildren(int(id)))
	}
	child := children[0]

	parent, hasParent := m.parentByID[id]
	delete(m.astByID, id)
	delete(m.leafIDs, id)
	delete(m.childIDsByID, id)
	m.removeFromKindIndex(n.Kind, id)

	if hasParent {
		siblings := m.childIDsByID[parent]
		for i, c := range siblings {
			if c == id {
				siblings[i] = child
				break
			}
		}
		m.childIDsByID[parent] = siblings
		m.parentByID[child] = parent
	} else {
		m.root = child
		delete(m.parentByID, child)
	}

	if ast, ok := m.astByID[child]; ok {
		ast.AttributeIndex = n.AttributeIndex
		if m.rightmostLeaf != nil && m.rightmostLeaf.ID == id {
			m.rightmostLeaf = ast
		}
	} else if ctx, ok := m.contextByID[child]; ok {
		ctx.AttributeIndex = n.AttributeIndex
	}
	return nil
}

func (m *Map) unlink(id mnode.ID, kind mnode.Kind) {
	if parent, ok := m.parentByID[id]; ok {
		siblings := m.childIDsByID[parent]
		for i, c := range siblings {
			if c == id {
				m.childIDsByID[parent] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
		delete(m.parentByID, id)
	}
	delete(m.childIDsByID, id)
	m.removeFromKindIndex(kind, id)
}

func (m *Map) addToKindIndex(kind mnode.Kind, id mnode.ID) {
	set, ok := m.idsByKind[kind]
	if !ok {
		set = make(map[mnode.ID]struct{})
		m.idsByKind[kind] = set
	}
	set[id] = struct{}{}
}

func (m *Map) removeFromKindIndex(kind mnode.Kind, id mnode.ID) {
	set, ok := m.idsByKind[kind]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m.idsByKind, kind)
	}
}

func (m *Map) recomputeRightmostLeaf() *mnode.AstNode {
	var best *mnode.AstNode
	for id := range m.leafIDs {
		n := m.astByID[id]
		if n == nil {
			continue
		}
		if best == nil || n.TokenIndexStart > best.TokenIndexStart {
			best = n
		}
	}
	return best
}

// GetXor returns either variant for id.
func (m *Map) GetXor(id mnode.ID) (mnode.XorNode, bool) {
	if n, ok := m.astByID[id]; ok {
		return mnode.NewAstXorNode(n), true
	}
	if n, ok := m.contextByID[id]; ok {
		return mnode.NewContextXorNode(n), true
	}
	return mnode.XorNode{}, false
}

// AssertGetXor is like GetXor but returns an InvariantError instead of
// false: absence here indicates a caller bug (spec.md §4.A failure
// semantics).
func (m *Map) AssertGetXor(id mnode.ID) (mnode.XorNode, error) {
	x, ok := m.GetXor(id)
	if !ok {
		return mnode.XorNode{}, m.warnInvariant(errNodeNotFound(int(id)))
	}
	return x, nil
}

// ParentOf returns the parent id of id, if any.
func (m *Map) ParentOf(id mnode.ID) (mnode.ID, bool) {
	p, ok := m.parentByID[id]
	return p, ok
}

// ChildIDs returns the ordered child ids of id (may be empty/nil).
func (m *Map) ChildIDs(id mnode.ID) []mnode.ID {
	return m.childIDsByID[id]
}

// ChildByAttributeIndex returns the child at the given attribute slot of
// parent. If expectedKinds is non-empty the child's kind must be one of
// them, or an InvariantError is returned.
func (m *Map) ChildByAttributeIndex(parent mnode.ID, index int, expectedKinds ...mnode.Kind) (mnode.XorNode, bool, error) {
	children := m.childIDsByID[parent]
	if index < 0 || index >= len(children) {
		return mnode.XorNode{}, false, nil
	}
	childID := children[index]
	x, ok := m.GetXor(childID)
	if !ok {
		return mnode.XorNode{}, false, m.warnInvariant(errNodeNotFound(int(childID)))
	}
	if len(expectedKinds) > 0 && !slices.Contains(expectedKinds, x.Kind()) {
		return mnode.XorNode{}, false, m.warnInvariant(errUnexpectedKind(int(childID), x.Kind().String(), kindsString(expectedKinds)))
	}
	return x, true, nil
}

func kindsString(kinds []mnode.Kind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = k.String()
	}
	out := ""
	for i, v := range s {
		if i > 0 {
			out += "|"
		}
		out += v
	}
	return out
}

// LeftmostLeaf descends the left child chain from id until an AST leaf is
// reached, returning false if none exists below id (id itself may be
// returned if it is already a leaf).
func (m *Map) LeftmostLeaf(id mnode.ID) (*mnode.AstNode, bool) {
	cur := id
	for {
		if n, ok := m.astByID[cur]; ok && n.IsLeaf {
			return n, true
		}
		children := m.childIDsByID[cur]
		if len(children) == 0 {
			return nil, false
		}
		cur = children[0]
	}
}

// RightmostLeaf descends the right child chain from id until an AST leaf
// is reached. When id is the graph root, the cached rightmostLeaf is used
// instead of walking (spec.md §4.A acceleration note).
func (m *Map) RightmostLeaf(id mnode.ID) (*mnode.AstNode, bool) {
	if m.hasRoot && id == m.root && m.rightmostLeaf != nil {
		return m.rightmostLeaf, true
	}
	cur := id
	for {
		if n, ok := m.astByID[cur]; ok && n.IsLeaf {
			return n, true
		}
		children := m.childIDsByID[cur]
		if len(children) == 0 {
			return nil, false
		}
		cur = children[len(children)-1]
	}
}

// RightmostLeafCache exposes the cached value directly, for invariant
// tests (spec.md §8 property 5).
func (m *Map) RightmostLeafCache() (*mnode.AstNode, bool) {
	return m.rightmostLeaf, m.rightmostLeaf != nil
}

// LeafIDs returns a snapshot of the current leaf id set.
func (m *Map) LeafIDs() map[mnode.ID]struct{} {
	return maps.Clone(m.leafIDs)
}

// IDsByKind returns a snapshot of the ids currently recorded under kind.
func (m *Map) IDsByKind(kind mnode.Kind) map[mnode.ID]struct{} {
	return maps.Clone(m.idsByKind[kind])
}

// IterFieldProjection walks through the ArrayWrapper child of a
// FieldProjection node and returns its ordered FieldSelector children
// (spec.md §4.A).
func (m *Map) IterFieldProjection(id mnode.ID) ([]mnode.XorNode, error) {
	x, err := m.AssertGetXor(id)
	if err != nil {
		return nil, err
	}
	if x.Kind() != mnode.KindFieldProjection {
		return nil, m.warnInvariant(errUnexpectedKind(int(id), x.Kind().String(), mnode.KindFieldProjection.String()))
	}
	wrapper, ok, err := m.ChildByAttributeIndex(id, 1, mnode.KindArrayWrapper)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var out []mnode.XorNode
	for _, childID := range m.childIDsByID[wrapper.ID()] {
		x, ok := m.GetXor(childID)
		if !ok {
			return nil, m.warnInvariant(errNodeNotFound(int(childID)))
		}
		// The wrapper also holds the "," separators between selectors.
		if x.Kind() != mnode.KindFieldSelector {
			continue
		}
		out = append(out, x)
	}
	return out, nil
}

// OpenContextIDs returns the ids of every still-open context node.
func (m *Map) OpenContextIDs() []mnode.ID {
	ids := make([]mnode.ID, 0, len(m.contextByID))
	for id := range m.contextByID {
		ids = append(ids, id)
	}
	return ids
}

// Clone returns a deep, independent copy of the map: mutating the clone
// never affects the original. This backs the speculative re-parse contract
// (spec.md §4 "Speculative re-parse contract": mutations to the clone must
// not affect the original). A full deep clone is acceptable given the
// typical size of a single formula (spec.md §9 design notes).
func (m *Map) Clone() *Map {
	clone := &Map{
		astByID:      make(map[mnode.ID]*mnode.AstNode, len(m.astByID)),
		contextByID:  make(map[mnode.ID]*mnode.ContextNode, len(m.contextByID)),
		parentByID:   maps.Clone(m.parentByID),
		childIDsByID: make(map[mnode.ID][]mnode.ID, len(m.childIDsByID)),
		leafIDs:      maps.Clone(m.leafIDs),
		idsByKind:    make(map[mnode.Kind]map[mnode.ID]struct{}, len(m.idsByKind)),
		idCounter:    m.idCounter,
		root:         m.root,
		hasRoot:      m.hasRoot,
		logger:       m.logger,
	}
	for id, n := range m.astByID {
		cp := *n
		clone.astByID[id] = &cp
		if m.rightmostLeaf != nil && m.rightmostLeaf.ID == id {
			clone.rightmostLeaf = &cp
		}
	}
	for id, n := range m.contextByID {
		cp := *n
		clone.contextByID[id] = &cp
	}
	for id, cs := range m.childIDsByID {
		clone.childIDsByID[id] = slices.Clone(cs)
	}
	for k, set := range m.idsByKind {
		clone.idsByKind[k] = maps.Clone(set)
	}
	return clone
}

// Equal reports whether m and other describe the same graph, used by
// spec.md §8 property 6 (speculative re-parses must not mutate the outer
// map).
func (m *Map) Equal(other *Map) bool {
	if m.idCounter != other.idCounter || m.root != other.root || m.hasRoot != other.hasRoot {
		return false
	}
	if len(m.astByID) != len(other.astByID) || len(m.contextByID) != len(other.contextByID) {
		return false
	}
	for id, n := range m.astByID {
		on, ok := other.astByID[id]
		if !ok || *n != *on {
			return false
		}
	}
	for id, n := range m.contextByID {
		on, ok := other.contextByID[id]
		if !ok || *n != *on {
			return false
		}
	}
	return true
}
