// Package snapshot models an in-memory hierarchy of watched filesystem
// locations. Each node carries a tagged location snapshot describing how much
// of that location's content is currently known.
//
// Trees are not safe for concurrent mutation. Callers must ensure a single
// writer per tree and must not mutate a tree while it is being walked.
package snapshot

// State tags how much of a location's content is known.
type State int

const (
	// StateEmpty means the node holds no snapshot at all.
	StateEmpty State = iota
	// StatePartial means some but not all content under the location is known.
	StatePartial
	// StateComplete means the location's content is fully resolved.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartial:
		return "partial"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Location is the snapshot payload attached to a tree node.
type Location struct {
	Path  string
	State State
}

// Complete reports whether the location content is fully resolved.
func (l Location) Complete() bool {
	return l.State == StateComplete
}

// Node is a single element of the location hierarchy.
type Node struct {
	location Location
	children []*Node
}

func NewNode(location Location, children ...*Node) *Node {
	return &Node{
		location: location,
		children: children,
	}
}

func (n *Node) Location() Location {
	if n == nil {
		return Location{}
	}
	return n.location
}

func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

func (n *Node) AddChild(child *Node) {
	if n == nil || child == nil {
		return
	}
	n.children = append(n.children, child)
}

// Walk visits the node and every descendant exactly once, passing each node
// together with its immediate parent. The traversal root is visited with a
// nil parent. Sibling order follows insertion order but callers must not
// rely on it.
func (n *Node) Walk(visit func(node, parent *Node)) {
	if n == nil || visit == nil {
		return
	}
	n.walk(nil, visit)
}

func (n *Node) walk(parent *Node, visit func(node, parent *Node)) {
	visit(n, parent)
	for _, child := range n.children {
		child.walk(n, visit)
	}
}
