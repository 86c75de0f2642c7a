// Package geometry implements the coordinate math shared by the chart
// builder and viewer: connector lines between parent and child boxes,
// translation between viewport and canvas space, grid snapping, zoom
// clamping, and fit-to-view scaling.
package geometry

import "math"

// Zoom bounds and steps shared by all zoom surfaces.
const (
	MinZoom       = 0.1
	MaxZoom       = 3.0
	ZoomStep      = 0.2
	WheelZoomStep = 0.1

	// FitMargin shrinks the fit-to-view scale to leave padding around
	// the content.
	FitMargin = 0.9
)

// Default rendered box size of a chart element. The builder's fit and
// bounds math uses these when no measured size is available.
const (
	NodeWidth  = 250
	NodeHeight = 120
)

// Point is a position on the canvas in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned box in viewport or canvas coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// BottomCenter returns the midpoint of the rect's bottom edge.
func (r Rect) BottomCenter() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H
}

// TopCenter returns the midpoint of the rect's top edge.
func (r Rect) TopCenter() (float64, float64) {
	return r.X + r.W/2, r.Y
}

// Line is a connector segment in canvas coordinates.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// View describes how the scrollable canvas currently sits inside its
// viewport: the canvas origin in viewport coordinates plus its scroll
// offsets. Converting a viewport-space rect into canvas space undoes
// the origin shift and re-applies the scroll.
type View struct {
	OriginX float64
	OriginY float64
	ScrollX float64
	ScrollY float64
}

// ToCanvas translates a viewport-space point into canvas space.
func (v View) ToCanvas(x, y float64) (float64, float64) {
	return x - v.OriginX + v.ScrollX, y - v.OriginY + v.ScrollY
}

// Connector computes the line from the parent box's bottom-center to
// the child box's top-center, both given in viewport coordinates, in
// the canvas's own coordinate space.
func Connector(parent, child Rect, view View) Line {
	px, py := parent.BottomCenter()
	cx, cy := child.TopCenter()
	x1, y1 := view.ToCanvas(px, py)
	x2, y2 := view.ToCanvas(cx, cy)
	return Line{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Snap rounds v to the nearest multiple of grid. A grid of zero (or
// negative) disables snapping.
func Snap(v, grid int) int {
	if grid <= 0 {
		return v
	}
	return int(math.Round(float64(v)/float64(grid))) * grid
}

// SnapPoint snaps both coordinates of p to the grid.
func SnapPoint(p Point, grid int) Point {
	return Point{X: Snap(p.X, grid), Y: Snap(p.Y, grid)}
}

// ClampToCanvas keeps a node of the given size fully inside the canvas:
// no negative coordinates and no overflow past the canvas extent minus
// the node size.
func ClampToCanvas(p Point, nodeW, nodeH, canvasW, canvasH int) Point {
	maxX := canvasW - nodeW
	maxY := canvasH - nodeH
	if p.X > maxX {
		p.X = maxX
	}
	if p.Y > maxY {
		p.Y = maxY
	}
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

// ClampZoom limits a zoom factor to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// FitScale computes the largest scale (capped at 1) at which content of
// the given size fits the viewport, reduced by FitMargin for padding.
func FitScale(contentW, contentH, viewportW, viewportH float64) float64 {
	if contentW <= 0 || contentH <= 0 {
		return 1
	}
	scale := math.Min(viewportW/contentW, viewportH/contentH)
	if scale > 1 {
		scale = 1
	}
	return scale * FitMargin
}

// ContentBounds returns the bounding box of the given rects. The second
// return value is false when the slice is empty.
func ContentBounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range rects {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X+r.W)
		maxY = math.Max(maxY, r.Y+r.H)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}
