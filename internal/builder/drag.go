package builder

import (
	"fmt"

	"github.com/orgkit/orgchart/internal/geometry"
	"github.com/orgkit/orgchart/internal/model"
)

// dragSession tracks one in-progress node drag. The offset is where
// inside the node the pointer grabbed it, so the node does not jump to
// the cursor on the first move.
type dragSession struct {
	elementID string
	offsetX   int
	offsetY   int
}

// Dragging reports whether a drag session is active.
func (e *Engine) Dragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag != nil
}

// StartDrag begins dragging the given element from a pointer-down at
// viewport coordinates (pointerX, pointerY). Only one drag session can
// be active, and none may start while the image upload dialog is open.
func (e *Engine) StartDrag(id string, pointerX, pointerY int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag != nil {
		return fmt.Errorf("starting drag: drag already in progress")
	}
	if e.uploadOpen {
		return fmt.Errorf("starting drag: image upload dialog is open")
	}
	el := e.col.Get(id)
	if el == nil {
		return fmt.Errorf("starting drag: element %s not found", id)
	}
	canvasX, canvasY := e.pointerToCanvasLocked(pointerX, pointerY)
	e.drag = &dragSession{
		elementID: id,
		offsetX:   canvasX - el.PositionX,
		offsetY:   canvasY - el.PositionY,
	}
	e.selectedID = id
	e.state = StateSelected
	return nil
}

// DragMove updates the dragged element's position for a pointer move.
// The position snaps to the grid and clamps to the canvas on every
// move, and connectors follow live.
func (e *Engine) DragMove(pointerX, pointerY int) (geometry.Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return geometry.Point{}, fmt.Errorf("moving drag: no drag in progress")
	}
	pos := e.dragPositionLocked(pointerX, pointerY)
	x, y := pos.X, pos.Y
	if err := e.col.UpdateNode(e.drag.elementID, positionUpdate(x, y)); err != nil {
		return geometry.Point{}, err
	}
	e.mutSeq++ // position moved even though dirty waits for EndDrag
	e.recomputeLocked()
	return pos, nil
}

// EndDrag commits the drag at the final pointer position and marks the
// chart dirty. Ending with no active session is an error.
func (e *Engine) EndDrag(pointerX, pointerY int) (geometry.Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return geometry.Point{}, fmt.Errorf("ending drag: no drag in progress")
	}
	pos := e.dragPositionLocked(pointerX, pointerY)
	id := e.drag.elementID
	e.drag = nil
	if err := e.col.UpdateNode(id, positionUpdate(pos.X, pos.Y)); err != nil {
		return geometry.Point{}, err
	}
	e.markDirtyLocked()
	e.recomputeLocked()
	return pos, nil
}

// CancelDrag abandons the session without committing a final position.
// The element stays wherever the last move put it.
func (e *Engine) CancelDrag() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drag = nil
}

// dragPositionLocked converts a pointer position into the dragged
// element's snapped, clamped canvas position.
func (e *Engine) dragPositionLocked(pointerX, pointerY int) geometry.Point {
	canvasX, canvasY := e.pointerToCanvasLocked(pointerX, pointerY)
	p := geometry.Point{X: canvasX - e.drag.offsetX, Y: canvasY - e.drag.offsetY}
	p = geometry.SnapPoint(p, e.cfg.SnapGrid)
	return geometry.ClampToCanvas(p, e.cfg.NodeWidth, e.cfg.NodeHeight, e.cfg.CanvasWidth, e.cfg.CanvasHeight)
}

// pointerToCanvasLocked maps viewport pointer coordinates into canvas
// space through the current view.
func (e *Engine) pointerToCanvasLocked(pointerX, pointerY int) (int, int) {
	x, y := e.view.ToCanvas(float64(pointerX), float64(pointerY))
	return int(x), int(y)
}

func positionUpdate(x, y int) model.ElementUpdate {
	return model.ElementUpdate{PositionX: &x, PositionY: &y}
}
