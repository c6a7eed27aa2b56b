// Package mancestry materializes the path from a node to the root of the
// syntax graph and provides "nth previous/next" navigation, per spec.md
// §4.C. Ancestries are short (the depth of a single formula's AST), so
// cost here is a small constant per navigation.
package mancestry

import (
	"fmt"

	"github.com/powerquery-lang/mquery/pkg/mnode"
	"github.com/powerquery-lang/mquery/pkg/nodeidmap"
)

// Ancestry is the ordered sequence [self, parent, parent-of-parent, …,
// root].
type Ancestry []mnode.XorNode

// Of produces the ancestry of id: self first, root last.
func Of(m *nodeidmap.Map, id mnode.ID) (Ancestry, error) {
	var out Ancestry
	cur := id
	seen := make(map[mnode.ID]bool)
	for {
		if seen[cur] {
			return nil, fmt.Errorf("ancestry: id %d appears as its own ancestor", cur)
		}
		seen[cur] = true

		x, ok := m.GetXor(cur)
		if !ok {
			return nil, fmt.Errorf("ancestry: no node with id %d", cur)
		}
		out = append(out, x)

		parent, ok := m.ParentOf(cur)
		if !ok {
			break
		}
		cur = parent
	}
	return out, nil
}

// NthPrevious returns ancestry[index-n] (a descendant relative to
// ancestry[index]), optionally asserting its kind is one of expectedKinds.
// Returns false if index-n is out of range.
func NthPrevious(a Ancestry, index, n int, expectedKinds ...mnode.Kind) (mnode.XorNode, bool) {
	return at(a, index-n, expectedKinds)
}

// NthNext returns ancestry[index+n] (an ancestor relative to
// ancestry[index]), optionally asserting its kind.
func NthNext(a Ancestry, index, n int, expectedKinds ...mnode.Kind) (mnode.XorNode, bool) {
	return at(a, index+n, expectedKinds)
}

func at(a Ancestry, i int, expectedKinds []mnode.Kind) (mnode.XorNode, bool) {
	if i < 0 || i >= len(a) {
		return mnode.XorNode{}, false
	}
	if len(expectedKinds) > 0 {
		match := false
		for _, k := range expectedKinds {
			if a[i].Kind() == k {
				match = true
				break
			}
		}
		if !match {
			return mnode.XorNode{}, false
		}
	}
	return a[i], true
}

// FirstIndexOfKind linear-scans a for the first node of the given kind,
// returning its index, or -1 if none is found.
func FirstIndexOfKind(a Ancestry, kind mnode.Kind) int {
	for i, x := range a {
		if x.Kind() == kind {
			return i
		}
	}
	return -1
}

// Leaf returns ancestry[0] (the effective leaf). It panics if ancestry is
// empty, matching spec.md §4.C's assertLeaf: an empty ancestry for a
// present active node is itself an invariant violation, not a normal
// "absent" case.
func Leaf(a Ancestry) mnode.XorNode {
	if len(a) == 0 {
		panic("mancestry: assertLeaf called on empty ancestry")
	}
	return a[0]
}
