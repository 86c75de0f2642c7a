// Package viewer implements the read-only chart viewing engine:
// zooming, panning, pinch gestures, fit-to-view, fullscreen, node
// detail popups, and lazy image loading.
package viewer

import (
	"fmt"
	"sync"
	"time"

	"github.com/orgkit/orgchart/internal/geometry"
	"github.com/orgkit/orgchart/internal/model"
)

// Viewport is the visible area the chart renders into.
type Viewport struct {
	W float64
	H float64
}

// Transform is the zoom/pan applied to the canvas:
// screen = canvas*Zoom + Pan.
type Transform struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
}

type panSession struct {
	startX, startY float64
	panX, panY     float64
}

type pinchSession struct {
	prevDist float64
}

// Viewer is one viewing session over a chart. Safe for concurrent use.
type Viewer struct {
	mu  sync.Mutex
	cfg model.DisplayConfig
	col *model.Collection

	zoom       float64
	panX, panY float64
	pan        *panSession
	pinch      *pinchSession

	viewport   Viewport
	fsViewport Viewport
	fullscreen bool

	popupID string

	pendingImages map[string]bool

	connectors []geometry.ConnectorLine
}

// New creates a viewer over the given collection.
func New(cfg model.DisplayConfig, col *model.Collection) *Viewer {
	v := &Viewer{
		cfg:  cfg,
		col:  col,
		zoom: 1.0,
	}
	if cfg.LazyLoading {
		v.pendingImages = make(map[string]bool)
		for _, el := range col.All() {
			if el.ImageURL != "" {
				v.pendingImages[el.ID] = true
			}
		}
	}
	v.recomputeLocked()
	return v
}

// Config returns the display configuration in effect.
func (v *Viewer) Config() model.DisplayConfig {
	return v.cfg
}

// Transform returns the current zoom and pan.
func (v *Viewer) Transform() Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Transform{Zoom: v.zoom, PanX: v.panX, PanY: v.panY}
}

// ZoomIn steps the zoom up by the button increment.
func (v *Viewer) ZoomIn() float64 { return v.zoomBy(geometry.ZoomStep) }

// ZoomOut steps the zoom down by the button increment.
func (v *Viewer) ZoomOut() float64 { return v.zoomBy(-geometry.ZoomStep) }

// WheelZoom applies a scroll-wheel zoom step. Negative delta (scrolling
// up) zooms in.
func (v *Viewer) WheelZoom(deltaY float64) float64 {
	if deltaY < 0 {
		return v.zoomBy(geometry.WheelZoomStep)
	}
	return v.zoomBy(-geometry.WheelZoomStep)
}

func (v *Viewer) zoomBy(step float64) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = geometry.ClampZoom(v.zoom + step)
	return v.zoom
}

// ResetZoom restores the identity transform: zoom 1.0, no pan.
func (v *Viewer) ResetZoom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = 1.0
	v.panX, v.panY = 0, 0
}

// StartPan begins a pan drag at the given screen position.
func (v *Viewer) StartPan(x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pan = &panSession{startX: x, startY: y, panX: v.panX, panY: v.panY}
}

// PanMove translates the view by the pointer's movement since the pan
// started. Panning is unclamped.
func (v *Viewer) PanMove(x, y float64) (Transform, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pan == nil {
		return Transform{}, fmt.Errorf("panning: no pan in progress")
	}
	v.panX = v.pan.panX + (x - v.pan.startX)
	v.panY = v.pan.panY + (y - v.pan.startY)
	return Transform{Zoom: v.zoom, PanX: v.panX, PanY: v.panY}, nil
}

// EndPan finishes the pan drag.
func (v *Viewer) EndPan() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pan = nil
}

// Panning reports whether a pan drag is active.
func (v *Viewer) Panning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pan != nil
}

// StartPinch begins a two-finger pinch with the given finger distance.
func (v *Viewer) StartPinch(distance float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if distance <= 0 {
		return fmt.Errorf("starting pinch: non-positive finger distance %v", distance)
	}
	v.pinch = &pinchSession{prevDist: distance}
	return nil
}

// PinchMove scales the zoom by the ratio of the current finger
// distance to the previous one, clamping after every step. The ratio
// chains move by move, so once the clamp engages the gesture continues
// from the clamped zoom rather than the pre-clamp trajectory.
func (v *Viewer) PinchMove(distance float64) (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pinch == nil {
		return 0, fmt.Errorf("pinching: no pinch in progress")
	}
	if distance <= 0 {
		return v.zoom, nil
	}
	v.zoom = geometry.ClampZoom(v.zoom * distance / v.pinch.prevDist)
	v.pinch.prevDist = distance
	return v.zoom, nil
}

// EndPinch finishes the pinch gesture.
func (v *Viewer) EndPinch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pinch = nil
}

// SetViewport records the normal (non-fullscreen) viewport size.
func (v *Viewer) SetViewport(vp Viewport) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewport = vp
	v.recomputeLocked()
}

// SetFullscreenViewport records the viewport size used in fullscreen.
func (v *Viewer) SetFullscreenViewport(vp Viewport) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fsViewport = vp
	if v.fullscreen {
		v.recomputeLocked()
	}
}

// activeViewportLocked returns the viewport currently in effect.
func (v *Viewer) activeViewportLocked() Viewport {
	if v.fullscreen && v.fsViewport.W > 0 {
		return v.fsViewport
	}
	return v.viewport
}

// ToggleFullscreen flips fullscreen mode and recomputes connector
// geometry for the new layout. Returns the new mode. When fullscreen
// is disabled in the display config this is a no-op.
func (v *Viewer) ToggleFullscreen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.cfg.EnableFullscreen {
		return v.fullscreen
	}
	v.fullscreen = !v.fullscreen
	v.recomputeLocked()
	return v.fullscreen
}

// Fullscreen reports whether the viewer is in fullscreen mode.
func (v *Viewer) Fullscreen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fullscreen
}

// FitToView picks the zoom that fits the whole chart into the active
// viewport, capped at 1.0 with a small margin, and centers the content.
func (v *Viewer) FitToView() Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	vp := v.activeViewportLocked()
	bounds, ok := geometry.ContentBounds(v.layoutRectsLocked())
	if !ok || vp.W <= 0 || vp.H <= 0 {
		v.zoom = 1.0
		v.panX, v.panY = 0, 0
		return Transform{Zoom: v.zoom}
	}
	v.zoom = geometry.FitScale(bounds.W, bounds.H, vp.W, vp.H)
	v.panX = (vp.W-bounds.W*v.zoom)/2 - bounds.X*v.zoom
	v.panY = (vp.H-bounds.H*v.zoom)/2 - bounds.Y*v.zoom
	return Transform{Zoom: v.zoom, PanX: v.panX, PanY: v.panY}
}

// SettleDelay is how long the caller should wait after an animated
// transform change before re-measuring layout.
func (v *Viewer) SettleDelay() time.Duration {
	if !v.cfg.AnimationEnabled {
		return 0
	}
	return time.Duration(v.cfg.AnimationDuration) * time.Millisecond
}

// ShowPopup opens the detail popup for an element, replacing any popup
// already open. Only one popup shows at a time.
func (v *Viewer) ShowPopup(id string) (model.Element, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	el := v.col.Get(id)
	if el == nil {
		return model.Element{}, fmt.Errorf("showing popup: element %s not found", id)
	}
	v.popupID = id
	return *el, nil
}

// ClosePopup dismisses the open popup, if any.
func (v *Viewer) ClosePopup() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.popupID = ""
}

// Popup returns the element whose popup is open, if any.
func (v *Viewer) Popup() (model.Element, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.popupID == "" {
		return model.Element{}, false
	}
	el := v.col.Get(v.popupID)
	if el == nil {
		return model.Element{}, false
	}
	return *el, true
}

// HandleEscape exits fullscreen and closes the popup in a single
// press; one Escape dismisses everything. Returns true if it consumed
// the key.
func (v *Viewer) HandleEscape() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.escapeLocked()
}

func (v *Viewer) escapeLocked() bool {
	consumed := false
	if v.fullscreen {
		v.fullscreen = false
		v.recomputeLocked()
		consumed = true
	}
	if v.popupID != "" {
		v.popupID = ""
		consumed = true
	}
	return consumed
}

// PendingLazyImages returns the elements whose images have not been
// loaded yet. Empty when lazy loading is off.
func (v *Viewer) PendingLazyImages() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pendingImages == nil {
		return nil
	}
	ids := make([]string, 0, len(v.pendingImages))
	for _, el := range v.col.All() {
		if v.pendingImages[el.ID] {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// MarkImageLoaded records that an element's image has loaded. Loading
// is one-shot: once loaded an image is never observed again.
func (v *Viewer) MarkImageLoaded(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.pendingImages, id)
}

// Connectors returns the connector lines in canvas space. The zoom/pan
// transform applies uniformly on top, so connectors only change when
// the layout does.
func (v *Viewer) Connectors() []geometry.ConnectorLine {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]geometry.ConnectorLine, len(v.connectors))
	copy(out, v.connectors)
	return out
}

func (v *Viewer) layoutRectsLocked() []geometry.Rect {
	els := v.col.All()
	rects := make([]geometry.Rect, 0, len(els))
	for _, el := range els {
		rects = append(rects, geometry.Rect{
			X: float64(el.PositionX),
			Y: float64(el.PositionY),
			W: geometry.NodeWidth,
			H: geometry.NodeHeight,
		})
	}
	return rects
}

func (v *Viewer) recomputeLocked() {
	layout := make(geometry.Layout, v.col.Len())
	var edges []geometry.Edge
	for _, el := range v.col.All() {
		layout[el.ID] = geometry.Rect{
			X: float64(el.PositionX),
			Y: float64(el.PositionY),
			W: geometry.NodeWidth,
			H: geometry.NodeHeight,
		}
		if el.ParentID != "" {
			edges = append(edges, geometry.Edge{ParentID: el.ParentID, ChildID: el.ID})
		}
	}
	v.connectors = geometry.Connectors(edges, layout, geometry.View{})
}
