package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/topicmap/api"
)

// TreeNode is one outline record placed in the hierarchy.
type TreeNode struct {
	Identifier string
	Parent     string // "" for the root
	Depth      int
	Line       int
	Topic      api.Topic

	// Children keep outline order.
	Children []*TreeNode
}

// Tree is the single-rooted hierarchy built from an outline.
type Tree struct {
	Root  *TreeNode
	nodes map[string]*TreeNode
}

// BuildTree attaches every record to the most recent record one level up.
//
// The spine holds the latest node seen at each depth and is cut back to
// depth+1 after every insert, so a parent is never taken from a branch that
// an intervening shallower record has closed.
func BuildTree(records []OutlineRecord) (*Tree, error) {
	t := &Tree{nodes: make(map[string]*TreeNode, len(records))}
	var spine []*TreeNode

	for _, rec := range records {
		if _, dup := t.nodes[rec.Identifier]; dup {
			return nil, &InvalidHierarchyError{Line: rec.Line, Identifier: rec.Identifier, Reason: "duplicate identifier"}
		}

		node := &TreeNode{
			Identifier: rec.Identifier,
			Depth:      rec.Depth,
			Line:       rec.Line,
			Topic:      api.NewTopic(rec.Identifier, rec.InstanceOf, rec.Name),
		}

		switch {
		case rec.Depth == 0 && t.Root != nil:
			return nil, &InvalidHierarchyError{
				Line:       rec.Line,
				Identifier: rec.Identifier,
				Reason:     fmt.Sprintf("second root (first is %s)", t.Root.Identifier),
			}
		case rec.Depth == 0:
			t.Root = node
		case rec.Depth > len(spine):
			return nil, &InvalidHierarchyError{
				Line:       rec.Line,
				Identifier: rec.Identifier,
				Reason:     fmt.Sprintf("no parent at depth %d", rec.Depth-1),
			}
		default:
			parent := spine[rec.Depth-1]
			node.Parent = parent.Identifier
			parent.Children = append(parent.Children, node)
		}

		t.nodes[node.Identifier] = node
		spine = append(spine[:rec.Depth], node)
	}

	if t.Root == nil {
		return nil, &InvalidHierarchyError{Reason: "outline has no records"}
	}
	return t, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Node(identifier string) (*TreeNode, bool) {
	n, ok := t.nodes[identifier]
	return n, ok
}

// Siblings returns the ordered child list that contains identifier,
// or nil when it is not in the tree. The root is its own only sibling.
func (t *Tree) Siblings(identifier string) []*TreeNode {
	n, ok := t.nodes[identifier]
	if !ok {
		return nil
	}
	if n.Parent == "" {
		return []*TreeNode{n}
	}
	return t.nodes[n.Parent].Children
}

// Walk visits nodes depth-first in outline order, parents before children.
// It stops at the first error fn returns.
func (t *Tree) Walk(fn func(*TreeNode) error) error {
	if t.Root == nil {
		return nil
	}
	stack := []*TreeNode{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(n); err != nil {
			return err
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return nil
}

// Render writes the tree as an indented listing of identifiers and names.
func (t *Tree) Render(w io.Writer) error {
	return t.Walk(func(n *TreeNode) error {
		_, err := fmt.Fprintf(w, "%s%s (%s) [%s]\n",
			strings.Repeat("  ", n.Depth), n.Identifier, n.Topic.Name(), n.Topic.InstanceOf)
		return err
	})
}
