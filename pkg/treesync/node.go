package treesync

import (
	"tableflip.dev/sln/pkg/nodeid"
)

// State is the expansion state of a node.
type State int

const (
	Collapsed State = iota
	// Expanding means children are being loaded.
	Expanding
	Expanded
	// Collapsing means the node is being closed; it still counts as
	// expanded for persistence.
	Collapsing
)

func (s State) String() string {
	switch s {
	case Expanding:
		return "expanding"
	case Expanded:
		return "expanded"
	case Collapsing:
		return "collapsing"
	}
	return "collapsed"
}

// open reports whether a node in state s shows its children.
func (s State) open() bool {
	return s == Expanding || s == Expanded
}

// persisted reports whether a node in state s belongs in the saved
// expansion set.
func (s State) persisted() bool {
	return s != Collapsed
}

// Node is one row of the tree. Values handed out by the controller are
// copies; changing them has no effect.
type Node struct {
	Token string
	ID    nodeid.Identity
	Label string
	Kind  nodeid.Kind
	// Path is the file or directory behind the node. Grouping folders and
	// transients have none; dependency nodes carry their project file.
	Path       string
	State      State
	Loaded     bool
	Expandable bool
	Children   []*Node
}

func newNode(id nodeid.Identity, label, path string, expandable bool) *Node {
	return &Node{
		Token:      nodeid.MustEncode(id),
		ID:         id,
		Label:      label,
		Kind:       id.Kind(),
		Path:       path,
		Expandable: expandable,
	}
}

// clone copies n and its subtree.
func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Children != nil {
		out.Children = make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			out.Children = append(out.Children, c.clone())
		}
	}
	return &out
}

// rebase copies the node's description without state or children.
func (n *Node) rebase() *Node {
	return &Node{
		Token:      n.Token,
		ID:         n.ID,
		Label:      n.Label,
		Kind:       n.Kind,
		Path:       n.Path,
		Expandable: n.Expandable,
	}
}

// Walk visits n and every node below it, depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Summary is the transport form of a node. Children are listed only for
// expanded nodes.
type Summary struct {
	Token      string    `json:"token"`
	Label      string    `json:"label"`
	Kind       string    `json:"kind"`
	Path       string    `json:"path,omitempty"`
	State      string    `json:"state"`
	Expandable bool      `json:"expandable"`
	Children   []Summary `json:"children,omitempty"`
}

// Summarize converts n and its visible subtree.
func Summarize(n *Node) Summary {
	s := Summary{
		Token:      n.Token,
		Label:      n.Label,
		Kind:       n.Kind.String(),
		Path:       n.Path,
		State:      n.State.String(),
		Expandable: n.Expandable,
	}
	if n.State == Expanded {
		for _, c := range n.Children {
			s.Children = append(s.Children, Summarize(c))
		}
	}
	return s
}

// ChangeKind says what part of the tree a Change covers.
type ChangeKind int

const (
	// ChangeTree follows a rebuild of the whole tree.
	ChangeTree ChangeKind = iota
	// ChangeNode follows a state or children change of one node.
	ChangeNode
)

// Change is delivered to subscribers after the tree changed.
type Change struct {
	Kind  ChangeKind
	Token string
	State State
}
