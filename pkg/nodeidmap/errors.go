package nodeidmap

import "fmt"

// InvariantError reports a violation of one of the NodeIdMap invariants
// listed in spec.md §4.A — a bug in the caller (typically the parser), not
// a recoverable condition. Its shape (Kind + Message, a constructor per
// failure) is grounded on ritamzico-pgraph's internal/graph.GraphError.
type InvariantError struct {
	Kind    string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("nodeidmap invariant violation (%s): %s", e.Kind, e.Message)
}

func errNodeNotFound(id int) error {
	return &InvariantError{Kind: "NodeNotFound", Message: fmt.Sprintf("no node with id %d", id)}
}

func errAlreadyAst(id int) error {
	return &InvariantError{Kind: "AlreadyAst", Message: fmt.Sprintf("id %d is already an AST node", id)}
}

func errAlreadyContext(id int) error {
	return &InvariantError{Kind: "AlreadyContext", Message: fmt.Sprintf("id %d is already a context node", id)}
}

func errAlreadyLeaf(id int) error {
	return &InvariantError{Kind: "AlreadyLeaf", Message: fmt.Sprintf("id %d is already in leafIds", id)}
}

func errHasChildren(id int) error {
	return &InvariantError{Kind: "HasChildren", Message: fmt.Sprintf("id %d still has children", id)}
}

func errSelfAncestor(id int) error {
	return &InvariantError{Kind: "SelfAncestor", Message: fmt.Sprintf("id %d appears as its own ancestor", id)}
}

func errUnexpectedKind(id int, got, wantOneOf string) error {
	return &InvariantError{
		Kind:    "UnexpectedKind",
		Message: fmt.Sprintf("id %d has kind %s, expected one of %s", id, got, wantOneOf),
	}
}

func errNoParent(id int) error {
	return &InvariantError{Kind: "NoParent", Message: fmt.Sprintf("id %d has no parent", id)}
}

func errNoSlot(parent, index int) error {
	return &InvariantError{Kind: "NoSlot", Message: fmt.Sprintf("parent %d has no child at attribute index %d", parent, index)}
}
