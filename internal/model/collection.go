package model

import (
	"fmt"
	"sort"
)

// Collection is the mutable set of elements for one chart. It keeps a
// child index keyed by parent id so hierarchy lookups stay O(1) per
// node instead of rescanning the whole set.
type Collection struct {
	chartID  string
	elements map[string]*Element
	children map[string][]string // parent id -> child ids, "" for roots
}

// NewCollection creates an empty collection for the given chart.
func NewCollection(chartID string) *Collection {
	return &Collection{
		chartID:  chartID,
		elements: make(map[string]*Element),
		children: make(map[string][]string),
	}
}

// Load replaces the collection contents wholesale with the given
// elements, as happens when hydrating from the persistence boundary.
func (c *Collection) Load(elements []Element) {
	c.elements = make(map[string]*Element, len(elements))
	c.children = make(map[string][]string)
	for i := range elements {
		e := elements[i]
		c.elements[e.ID] = &e
		c.children[e.ParentID] = append(c.children[e.ParentID], e.ID)
	}
}

// RemapIDs renames elements in place, updating parent references and
// the child index. Ids not present in the collection are skipped, so a
// node deleted since the mapping was computed is harmless. This is how
// a save response's persisted ids fold into a collection that kept
// changing while the save was in flight.
func (c *Collection) RemapIDs(ids map[string]string) {
	renamed := false
	for oldID, newID := range ids {
		if oldID == newID {
			continue
		}
		e := c.elements[oldID]
		if e == nil {
			continue
		}
		delete(c.elements, oldID)
		e.ID = newID
		c.elements[newID] = e
		renamed = true
	}
	if !renamed {
		return
	}
	c.children = make(map[string][]string)
	for id, e := range c.elements {
		if newID, ok := ids[e.ParentID]; ok {
			e.ParentID = newID
		}
		c.children[e.ParentID] = append(c.children[e.ParentID], id)
	}
}

// Len returns the number of elements.
func (c *Collection) Len() int { return len(c.elements) }

// ChartID returns the owning chart id.
func (c *Collection) ChartID() string { return c.chartID }

// Get returns the element with the given id, or nil.
func (c *Collection) Get(id string) *Element { return c.elements[id] }

// All returns the elements ordered by weight, then id for stability.
func (c *Collection) All() []Element {
	out := make([]Element, 0, len(c.elements))
	for _, e := range c.elements {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Roots returns the ids of elements without a parent.
func (c *Collection) Roots() []string {
	return append([]string(nil), c.children[""]...)
}

// Children returns the ids of the element's direct children.
func (c *Collection) Children(id string) []string {
	return append([]string(nil), c.children[id]...)
}

// AddNode creates a new element with a fresh temporary id at the given
// position. parentID may be empty for a root; a non-empty parentID must
// reference an existing element.
func (c *Collection) AddNode(parentID string, x, y int) (*Element, error) {
	if parentID != "" && c.elements[parentID] == nil {
		return nil, fmt.Errorf("adding node: parent %s not found", parentID)
	}

	e := &Element{
		ID:        NewTempID(),
		ChartID:   c.chartID,
		ParentID:  parentID,
		Title:     DefaultTitle,
		PositionX: x,
		PositionY: y,
		Weight:    len(c.elements),
	}
	c.elements[e.ID] = e
	c.children[parentID] = append(c.children[parentID], e.ID)
	return e, nil
}

// RemoveSubtree removes the element and every descendant reachable
// through parent pointers. Children are enumerated before their parent
// is removed (post-order) so no dangling reference survives. It returns
// the removed ids for downstream cleanup; removing an unknown id
// returns nil.
func (c *Collection) RemoveSubtree(id string) []string {
	if c.elements[id] == nil {
		return nil
	}

	var removed []string
	var walk func(string)
	walk = func(id string) {
		for _, child := range c.children[id] {
			walk(child)
		}
		e := c.elements[id]
		delete(c.elements, id)
		delete(c.children, id)
		c.unlink(e.ParentID, id)
		removed = append(removed, id)
	}
	walk(id)
	return removed
}

// unlink drops childID from parentID's child list.
func (c *Collection) unlink(parentID, childID string) {
	kids := c.children[parentID]
	for i, k := range kids {
		if k == childID {
			c.children[parentID] = append(kids[:i], kids[i+1:]...)
			return
		}
	}
}

// ElementUpdate carries the fields of a partial update. Nil fields are
// left untouched.
type ElementUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	LinkURL     *string `json:"link_url,omitempty"`
	PositionX   *int    `json:"position_x,omitempty"`
	PositionY   *int    `json:"position_y,omitempty"`
	ThemeID     *string `json:"theme_id,omitempty"`
	Weight      *int    `json:"weight,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// UpdateNode merges the provided fields into the element. Reparenting
// is validated: the new parent must exist and must not be the element
// itself or one of its descendants.
func (c *Collection) UpdateNode(id string, upd ElementUpdate) error {
	e := c.elements[id]
	if e == nil {
		return fmt.Errorf("updating node: %s not found", id)
	}

	if upd.ParentID != nil && *upd.ParentID != e.ParentID {
		newParent := *upd.ParentID
		if newParent == id {
			return fmt.Errorf("updating node: %s cannot be its own parent", id)
		}
		if newParent != "" {
			if c.elements[newParent] == nil {
				return fmt.Errorf("updating node: parent %s not found", newParent)
			}
			if c.IsAncestor(id, newParent) {
				return fmt.Errorf("updating node: %s cannot be reparented under its descendant %s", id, newParent)
			}
		}
		c.unlink(e.ParentID, id)
		e.ParentID = newParent
		c.children[newParent] = append(c.children[newParent], id)
	}

	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.ImageURL != nil {
		e.ImageURL = *upd.ImageURL
	}
	if upd.LinkURL != nil {
		e.LinkURL = *upd.LinkURL
	}
	if upd.PositionX != nil {
		e.PositionX = *upd.PositionX
	}
	if upd.PositionY != nil {
		e.PositionY = *upd.PositionY
	}
	if upd.ThemeID != nil {
		e.ThemeID = *upd.ThemeID
	}
	if upd.Weight != nil {
		e.Weight = *upd.Weight
	}
	return nil
}

// IsAncestor reports whether ancestorID appears on the parent chain of
// descendantID.
func (c *Collection) IsAncestor(ancestorID, descendantID string) bool {
	e := c.elements[descendantID]
	for e != nil && e.ParentID != "" {
		if e.ParentID == ancestorID {
			return true
		}
		e = c.elements[e.ParentID]
	}
	return false
}
