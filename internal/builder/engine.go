// Package builder implements the interactive chart editing engine: it
// owns the authoritative element collection for one edit session and
// applies selection, editing, drag, add/delete, and save semantics on
// behalf of a thin UI transport.
package builder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/orgkit/orgchart/internal/geometry"
	"github.com/orgkit/orgchart/internal/model"
)

// State is the engine's selection state.
type State int

const (
	StateIdle State = iota
	StateSelected
	StateEditing
)

// Saver is the persistence boundary the builder saves through. Save is
// full-replace: the stored elements for the chart are superseded by the
// given batch and temporary ids come back replaced with persisted ones.
type Saver interface {
	SaveChart(ctx context.Context, chartID string, elements []model.Element) (SaveResult, error)
}

// SaveResult reports the outcome of a save.
type SaveResult struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Elements []model.Element `json:"elements,omitempty"` // persisted state, temp ids replaced
}

// Config carries per-session builder settings.
type Config struct {
	SnapGrid         int
	CanvasWidth      int
	CanvasHeight     int
	NodeWidth        int
	NodeHeight       int
	AutosaveInterval time.Duration
	AutosaveDebounce time.Duration
}

// DefaultConfig returns the builder defaults used when the caller does
// not override them.
func DefaultConfig() Config {
	return Config{
		SnapGrid:         20,
		CanvasWidth:      3000,
		CanvasHeight:     2000,
		NodeWidth:        geometry.NodeWidth,
		NodeHeight:       geometry.NodeHeight,
		AutosaveInterval: 30 * time.Second,
		AutosaveDebounce: 2 * time.Second,
	}
}

// Engine is one builder edit session. All entry points are safe for
// concurrent use; mutation is serialized on an internal mutex the way a
// UI event loop serializes handlers.
type Engine struct {
	mu    sync.Mutex
	cfg   Config
	col   *model.Collection
	saver Saver

	state      State
	selectedID string
	drag       *dragSession
	uploadOpen bool
	stagedURL  string

	view       geometry.View
	connectors []geometry.ConnectorLine

	dirty bool

	// Monotonic save sequencing: a response only applies if no newer
	// save has been issued since, so a stale response cannot clobber a
	// fresher one.
	saveSeq      uint64
	appliedSeq   uint64
	mutSeq       uint64 // bumped on every collection mutation
	debounced    func(func())
	stopAutosave chan struct{}
	autosaveWG   sync.WaitGroup
}

// New creates a builder session over the given collection.
func New(cfg Config, col *model.Collection, saver Saver) *Engine {
	if cfg.NodeWidth == 0 {
		cfg.NodeWidth = geometry.NodeWidth
	}
	if cfg.NodeHeight == 0 {
		cfg.NodeHeight = geometry.NodeHeight
	}
	e := &Engine{
		cfg:   cfg,
		col:   col,
		saver: saver,
	}
	if cfg.AutosaveDebounce > 0 {
		e.debounced = debounce.New(cfg.AutosaveDebounce)
	}
	e.recomputeLocked()
	return e
}

// State returns the current selection state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dirty reports whether there are unsaved changes.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// UnsavedChangesWarning returns the before-navigate warning and whether
// it should be shown.
func (e *Engine) UnsavedChangesWarning() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty {
		return "", false
	}
	return "You have unsaved changes. Are you sure you want to leave?", true
}

// Elements returns a snapshot of the collection ordered by weight.
func (e *Engine) Elements() []model.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.col.All()
}

// Selected returns a copy of the selected element, if any.
func (e *Engine) Selected() (model.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" {
		return model.Element{}, false
	}
	el := e.col.Get(e.selectedID)
	if el == nil {
		return model.Element{}, false
	}
	return *el, true
}

// Select moves the engine to Selected for the given element, loading
// its fields for the edit form.
func (e *Engine) Select(id string) (model.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.col.Get(id)
	if el == nil {
		return model.Element{}, fmt.Errorf("selecting element: %s not found", id)
	}
	e.selectedID = id
	e.state = StateSelected
	return *el, nil
}

// Deselect clears the selection (click on empty canvas, Escape).
func (e *Engine) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selectedID = ""
	e.state = StateIdle
}

// BeginEdit moves Selected to Editing. The draft lives in the UI form;
// the model stays untouched until CommitEdit.
func (e *Engine) BeginEdit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" {
		return fmt.Errorf("beginning edit: no selection")
	}
	e.state = StateEditing
	return nil
}

// CommitEdit merges the draft fields into the selected element,
// refreshes geometry, and marks the chart dirty. The engine stays in
// Selected afterwards.
func (e *Engine) CommitEdit(upd model.ElementUpdate) (model.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" {
		return model.Element{}, fmt.Errorf("committing edit: no selection")
	}
	if err := e.col.UpdateNode(e.selectedID, upd); err != nil {
		return model.Element{}, err
	}
	e.state = StateSelected
	e.markDirtyLocked()
	e.recomputeLocked()
	return *e.col.Get(e.selectedID), nil
}

// AddRoot creates a root element at the default origin and selects it.
func (e *Engine) AddRoot() (model.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el, err := e.col.AddNode("", model.RootX, model.RootY)
	if err != nil {
		return model.Element{}, err
	}
	e.selectedID = el.ID
	e.state = StateSelected
	e.markDirtyLocked()
	e.recomputeLocked()
	return *el, nil
}

// AddChild creates a child of parentID at the parent's position plus
// the fixed offset and selects it.
func (e *Engine) AddChild(parentID string) (model.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent := e.col.Get(parentID)
	if parent == nil {
		return model.Element{}, fmt.Errorf("adding child: parent %s not found", parentID)
	}
	el, err := e.col.AddNode(parentID, parent.PositionX+model.ChildOffsetX, parent.PositionY+model.ChildOffsetY)
	if err != nil {
		return model.Element{}, err
	}
	e.selectedID = el.ID
	e.state = StateSelected
	e.markDirtyLocked()
	e.recomputeLocked()
	return *el, nil
}

// DeleteSelected removes the selected element and its whole subtree.
// Deletion is destructive and cascades, so it only proceeds when the
// caller passes the user's confirmation. With nothing selected it is a
// no-op.
func (e *Engine) DeleteSelected(confirmed bool) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" || !confirmed {
		return nil
	}
	removed := e.col.RemoveSubtree(e.selectedID)
	e.selectedID = ""
	e.state = StateIdle
	if len(removed) > 0 {
		e.markDirtyLocked()
		e.recomputeLocked()
	}
	return removed
}

// DuplicateSelected clones the selected element (without its subtree)
// at a fixed offset, suffixing the title, and selects the copy.
func (e *Engine) DuplicateSelected() (model.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" {
		return model.Element{}, fmt.Errorf("duplicating element: no selection")
	}
	src := *e.col.Get(e.selectedID)

	dup, err := e.col.AddNode(src.ParentID, src.PositionX+50, src.PositionY+50)
	if err != nil {
		return model.Element{}, err
	}
	title := src.Title + " (Copy)"
	err = e.col.UpdateNode(dup.ID, model.ElementUpdate{
		Title:       &title,
		Description: &src.Description,
		ImageURL:    &src.ImageURL,
		LinkURL:     &src.LinkURL,
		ThemeID:     &src.ThemeID,
	})
	if err != nil {
		return model.Element{}, err
	}
	e.selectedID = dup.ID
	e.state = StateSelected
	e.markDirtyLocked()
	e.recomputeLocked()
	return *e.col.Get(dup.ID), nil
}

// SetView updates the canvas/viewport relationship (scroll, resize)
// and recomputes connectors.
func (e *Engine) SetView(view geometry.View) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = view
	e.recomputeLocked()
}

// Connectors returns the current connector lines.
func (e *Engine) Connectors() []geometry.ConnectorLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]geometry.ConnectorLine, len(e.connectors))
	copy(out, e.connectors)
	return out
}

// RecomputeConnectors recomputes connector geometry from the current
// layout. With no underlying change the output is identical.
func (e *Engine) RecomputeConnectors() []geometry.ConnectorLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomputeLocked()
	out := make([]geometry.ConnectorLine, len(e.connectors))
	copy(out, e.connectors)
	return out
}

// recomputeLocked rebuilds the layout and connector set. Elements are
// laid out at their stored canvas positions, shifted into viewport
// space by the current view.
func (e *Engine) recomputeLocked() {
	layout := make(geometry.Layout, e.col.Len())
	var edges []geometry.Edge
	for _, el := range e.col.All() {
		layout[el.ID] = geometry.Rect{
			X: float64(el.PositionX) - e.view.ScrollX + e.view.OriginX,
			Y: float64(el.PositionY) - e.view.ScrollY + e.view.OriginY,
			W: float64(e.cfg.NodeWidth),
			H: float64(e.cfg.NodeHeight),
		}
		if el.ParentID != "" {
			edges = append(edges, geometry.Edge{ParentID: el.ParentID, ChildID: el.ID})
		}
	}
	e.connectors = geometry.Connectors(edges, layout, e.view)
}

// markDirtyLocked flags unsaved changes and kicks the debounced
// auto-save, if configured.
func (e *Engine) markDirtyLocked() {
	e.dirty = true
	e.mutSeq++
	if e.debounced != nil && e.saver != nil {
		e.debounced(func() {
			e.autoSave(context.Background())
		})
	}
}

// Save serializes the whole collection to the persistence boundary as
// one batch. On success the dirty flag clears and the collection is
// rehydrated with persisted ids; if the user kept editing while the
// request was in flight, those edits survive and only the id
// replacements are folded in, with the dirty flag left set. On failure
// local state is kept so the user can retry, and the error is surfaced.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.saver == nil {
		e.mu.Unlock()
		return fmt.Errorf("saving chart: no persistence boundary configured")
	}
	e.saveSeq++
	seq := e.saveSeq
	mut := e.mutSeq
	chartID := e.col.ChartID()
	elements := e.col.All()
	e.mu.Unlock()

	result, err := e.saver.SaveChart(ctx, chartID, elements)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq <= e.appliedSeq {
		// A newer save already resolved; this response is stale.
		return nil
	}
	if err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	if !result.Success {
		if result.Message == "" {
			result.Message = "unknown error"
		}
		return fmt.Errorf("saving chart: %s", result.Message)
	}

	e.appliedSeq = seq
	if e.mutSeq != mut {
		// Edits landed after the snapshot was taken. Reloading would
		// revert them, so keep the live collection and rename only the
		// temp ids the response persisted. The chart stays dirty until
		// the newer edits are saved.
		e.applyIDReplacementsLocked(elements, result.Elements)
		return nil
	}
	e.dirty = false
	if result.Elements != nil {
		e.col.Load(result.Elements)
		if e.selectedID != "" && e.col.Get(e.selectedID) == nil {
			e.selectedID = ""
			e.state = StateIdle
		}
		e.recomputeLocked()
	}
	return nil
}

// applyIDReplacementsLocked renames the saved snapshot's temp ids to
// the persisted ids from the response. The response batch is ordered
// like the request batch; a length mismatch means the boundary changed
// the set, in which case the next full save reconciles instead.
func (e *Engine) applyIDReplacementsLocked(sent, persisted []model.Element) {
	if len(persisted) != len(sent) {
		return
	}
	ids := make(map[string]string, len(sent))
	for i, el := range sent {
		if model.IsTempID(el.ID) && persisted[i].ID != el.ID {
			ids[el.ID] = persisted[i].ID
		}
	}
	if len(ids) == 0 {
		return
	}
	e.col.RemapIDs(ids)
	if newID, ok := ids[e.selectedID]; ok {
		e.selectedID = newID
	}
	if e.drag != nil {
		if newID, ok := ids[e.drag.elementID]; ok {
			e.drag.elementID = newID
		}
	}
	e.recomputeLocked()
}

// autoSave is the best-effort background save. Failures are logged,
// not surfaced, so they never interrupt editing.
func (e *Engine) autoSave(ctx context.Context) {
	if !e.Dirty() {
		return
	}
	if err := e.Save(ctx); err != nil {
		log.Printf("builder: auto-save: %v", err)
	}
}

// StartAutosave begins the periodic auto-save ticker. It runs until
// Close is called.
func (e *Engine) StartAutosave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopAutosave != nil || e.cfg.AutosaveInterval <= 0 || e.saver == nil {
		return
	}
	e.stopAutosave = make(chan struct{})
	stop := e.stopAutosave
	e.autosaveWG.Add(1)
	go func() {
		defer e.autosaveWG.Done()
		ticker := time.NewTicker(e.cfg.AutosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.autoSave(context.Background())
			case <-stop:
				return
			}
		}
	}()
}

// Close stops the auto-save ticker and waits for it to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	stop := e.stopAutosave
	e.stopAutosave = nil
	e.mu.Unlock()
	if stop != nil {
		close(stop)
		e.autosaveWG.Wait()
	}
}
