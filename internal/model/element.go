// Package model holds the chart element data shape and the in-memory
// collection the builder mutates: add, cascading remove, validated
// updates, and hierarchy export over a parent-indexed child lookup.
package model

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// DefaultTitle is the title given to newly created elements.
const DefaultTitle = "New Element"

// Placement defaults: where a new root lands and how far a new child is
// offset from its parent to avoid overlap.
const (
	RootX = 100
	RootY = 100

	ChildOffsetX = 250
	ChildOffsetY = 150
)

// descriptionLimit caps the inline display form of a description.
const descriptionLimit = 50

// tempIDPrefix marks client-generated ids that the store replaces with
// permanent ones on save.
const tempIDPrefix = "temp_"

// Element is one box in an organization chart, positioned freely on the
// canvas. ParentID is empty for roots.
type Element struct {
	ID          string `json:"id"`
	ChartID     string `json:"chart_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	LinkURL     string `json:"link_url,omitempty"`
	PositionX   int    `json:"position_x"`
	PositionY   int    `json:"position_y"`
	ThemeID     string `json:"theme_id,omitempty"`
	Weight      int    `json:"weight"`
}

// ShortDescription returns the description truncated for inline display.
// The full text stays in the model; popups and the edit form show it.
func (e *Element) ShortDescription() string {
	runes := []rune(e.Description)
	if len(runes) <= descriptionLimit {
		return e.Description
	}
	return string(runes[:descriptionLimit]) + "..."
}

// DisplayTitle returns the title, or a placeholder when unset.
func (e *Element) DisplayTitle() string {
	if strings.TrimSpace(e.Title) == "" {
		return "Untitled"
	}
	return e.Title
}

// IsRoot reports whether the element has no parent.
func (e *Element) IsRoot() bool { return e.ParentID == "" }

const tempIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewTempID generates a client-side temporary identifier: time-based
// with a random suffix, distinguishable from persisted ids.
func NewTempID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = tempIDAlphabet[rand.Intn(len(tempIDAlphabet))]
	}
	return fmt.Sprintf("%s%d_%s", tempIDPrefix, time.Now().UnixMilli(), suffix)
}

// IsTempID reports whether id is a temporary client-generated id.
func IsTempID(id string) bool { return strings.HasPrefix(id, tempIDPrefix) }
