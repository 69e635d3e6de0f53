package model

import (
	"encoding/json"
	"strings"
)

const (
	maxInt64 = int64(^uint64(0) >> 1)
	minInt64 = -maxInt64 - 1
)

// Node is one file or directory of a scanned tree.
//
// Size and Usage of a directory always cover every descendant that could be
// classified, whether or not those descendants are materialized in Children.
type Node struct {
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	Size          int64   `json:"size"`  // Apparent size in bytes
	Usage         int64   `json:"usage"` // Disk usage (blocks * block size)
	Mtime         int64   `json:"mtime,omitempty"`
	IsDirectory   bool    `json:"is_directory"`
	Children      []*Node `json:"children"`
	ChildrenCount int     `json:"children_count"`
}

// MarshalJSON encodes Children as an empty array rather than null.
func (n *Node) MarshalJSON() ([]byte, error) {
	type plain Node
	p := plain(*n)
	if p.Children == nil {
		p.Children = []*Node{}
	}
	return json.Marshal(&p)
}

// AddSize accumulates a child's totals into n.
func (n *Node) AddSize(size, usage int64) {
	n.Size = SaturatingAdd(n.Size, size)
	n.Usage = SaturatingAdd(n.Usage, usage)
}

// SaturatingAdd returns a+b clamped to the int64 range.
func SaturatingAdd(a, b int64) int64 {
	if b > 0 && a > maxInt64-b {
		return maxInt64
	}
	if b < 0 && a < minInt64-b {
		return minInt64
	}
	return a + b
}

// Project returns a deep copy of n whose materialized children stop at the
// given relative depth. Nodes at that depth keep their totals and counts but
// carry no children.
func Project(n *Node, depth int) *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Children = nil
	if !n.IsDirectory || depth <= 0 {
		return &cp
	}
	cp.Children = make([]*Node, len(n.Children))
	for i, c := range n.Children {
		cp.Children[i] = Project(c, depth-1)
	}
	return &cp
}

// Walk calls fn for n and every materialized descendant, parents first.
// Returning false from fn skips that node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Find locates the materialized node for path and returns it with its depth
// relative to tree.
func Find(tree *Node, path string) (*Node, int, bool) {
	chain := lineage(tree, path)
	if chain == nil {
		return nil, 0, false
	}
	return chain[len(chain)-1], len(chain) - 1, true
}

// Remove detaches the materialized node for path from tree, subtracts its
// totals from every ancestor and decrements its parent's ChildrenCount.
// The root itself cannot be removed.
func Remove(tree *Node, path string) (*Node, bool) {
	chain := lineage(tree, path)
	if len(chain) < 2 {
		return nil, false
	}
	target := chain[len(chain)-1]
	parent := chain[len(chain)-2]

	for i, c := range parent.Children {
		if c == target {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	if parent.ChildrenCount > 0 {
		parent.ChildrenCount--
	}
	for _, a := range chain[:len(chain)-1] {
		a.AddSize(-target.Size, -target.Usage)
		if a.Size < 0 {
			a.Size = 0
		}
		if a.Usage < 0 {
			a.Usage = 0
		}
	}
	return target, true
}

// lineage returns the nodes from tree down to path, or nil when path is not
// materialized.
func lineage(tree *Node, path string) []*Node {
	if tree == nil || !Contains(tree.Path, path) {
		return nil
	}
	chain := []*Node{tree}
	node := tree
	for node.Path != path {
		var next *Node
		for _, c := range node.Children {
			if Contains(c.Path, path) {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		chain = append(chain, next)
		node = next
	}
	return chain
}

// Contains reports whether path equals root or lies below it. Both '/' and
// '\' count as separators so Windows and remote paths compare the same way.
func Contains(root, path string) bool {
	if root == path {
		return true
	}
	if !strings.HasPrefix(path, root) {
		return false
	}
	if root != "" && isSeparator(root[len(root)-1]) {
		return true
	}
	return isSeparator(path[len(root)])
}

// StrictlyContains reports whether path lies below root and is not root.
func StrictlyContains(root, path string) bool {
	return root != path && Contains(root, path)
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}
