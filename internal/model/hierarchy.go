package model

import "sort"

// TreeNode is one node of the exported hierarchy: an element plus its
// children, ordered by weight.
type TreeNode struct {
	Element  Element     `json:"element"`
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildHierarchy exports the collection as a forest. Each level is
// ordered by weight, then id. The child index makes this a single pass
// per node rather than a rescan of the full collection.
func (c *Collection) BuildHierarchy() []*TreeNode {
	var build func(id string) *TreeNode
	build = func(id string) *TreeNode {
		node := &TreeNode{Element: *c.elements[id]}
		for _, childID := range c.sortedChildren(id) {
			node.Children = append(node.Children, build(childID))
		}
		return node
	}

	var forest []*TreeNode
	for _, rootID := range c.sortedChildren("") {
		forest = append(forest, build(rootID))
	}
	return forest
}

// sortedChildren returns the element's child ids ordered by weight,
// then id.
func (c *Collection) sortedChildren(id string) []string {
	kids := c.Children(id)
	sort.Slice(kids, func(i, j int) bool {
		a, b := c.elements[kids[i]], c.elements[kids[j]]
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return a.ID < b.ID
	})
	return kids
}

// Descendants returns the ids of every element transitively below id,
// in depth-first order.
func (c *Collection) Descendants(id string) []string {
	var out []string
	var walk func(string)
	walk = func(id string) {
		for _, child := range c.children[id] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(id)
	return out
}
