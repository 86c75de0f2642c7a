package geometry

import (
	"math"
	"reflect"
	"testing"
)

func TestConnectorEndpoints(t *testing.T) {
	parent := Rect{X: 100, Y: 100, W: 250, H: 120}
	child := Rect{X: 350, Y: 250, W: 250, H: 120}

	line := Connector(parent, child, View{})

	if line.X1 != 225 || line.Y1 != 220 {
		t.Errorf("parent endpoint = (%v,%v), want (225,220)", line.X1, line.Y1)
	}
	if line.X2 != 475 || line.Y2 != 250 {
		t.Errorf("child endpoint = (%v,%v), want (475,250)", line.X2, line.Y2)
	}
}

func TestConnectorAppliesViewTransform(t *testing.T) {
	parent := Rect{X: 100, Y: 100, W: 200, H: 100}
	child := Rect{X: 400, Y: 300, W: 200, H: 100}
	view := View{OriginX: 50, OriginY: 20, ScrollX: 10, ScrollY: 5}

	line := Connector(parent, child, view)

	// Bottom-center of parent (200, 200) shifted by scroll - origin.
	if line.X1 != 200-50+10 || line.Y1 != 200-20+5 {
		t.Errorf("parent endpoint = (%v,%v)", line.X1, line.Y1)
	}
	if line.X2 != 500-50+10 || line.Y2 != 300-20+5 {
		t.Errorf("child endpoint = (%v,%v)", line.X2, line.Y2)
	}
}

func TestConnectorsSkipsUnrendered(t *testing.T) {
	layout := Layout{
		"a": {X: 0, Y: 0, W: 10, H: 10},
		"b": {X: 50, Y: 50, W: 10, H: 10},
	}
	edges := []Edge{
		{ParentID: "a", ChildID: "b"},
		{ParentID: "a", ChildID: "missing"},
		{ParentID: "missing", ChildID: "b"},
	}

	lines := Connectors(edges, layout, View{})
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].ParentID != "a" || lines[0].ChildID != "b" {
		t.Errorf("unexpected edge %s->%s", lines[0].ParentID, lines[0].ChildID)
	}
}

func TestConnectorsIdempotent(t *testing.T) {
	layout := Layout{
		"a": {X: 100, Y: 100, W: 250, H: 120},
		"b": {X: 350, Y: 250, W: 250, H: 120},
		"c": {X: 600, Y: 250, W: 250, H: 120},
	}
	edges := []Edge{
		{ParentID: "a", ChildID: "b"},
		{ParentID: "a", ChildID: "c"},
	}
	view := View{ScrollX: 40, ScrollY: 12}

	first := Connectors(edges, layout, view)
	second := Connectors(edges, layout, view)
	if !reflect.DeepEqual(first, second) {
		t.Error("recompute with unchanged layout produced different lines")
	}
}

func TestSnap(t *testing.T) {
	tests := []struct {
		v, grid, want int
	}{
		{137, 20, 140},
		{94, 20, 100},
		{150, 20, 160},
		{149, 20, 140},
		{7, 0, 7},
		{43, 10, 40},
		{0, 20, 0},
	}
	for _, tt := range tests {
		if got := Snap(tt.v, tt.grid); got != tt.want {
			t.Errorf("Snap(%d, %d) = %d, want %d", tt.v, tt.grid, got, tt.want)
		}
	}
}

func TestClampToCanvas(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want Point
	}{
		{"inside", Point{X: 100, Y: 100}, Point{X: 100, Y: 100}},
		{"negative", Point{X: -30, Y: -5}, Point{X: 0, Y: 0}},
		{"overflow", Point{X: 2950, Y: 1950}, Point{X: 2750, Y: 1880}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampToCanvas(tt.p, 250, 120, 3000, 2000)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClampZoom(t *testing.T) {
	if got := ClampZoom(0.05); got != MinZoom {
		t.Errorf("ClampZoom(0.05) = %v, want %v", got, MinZoom)
	}
	if got := ClampZoom(5); got != MaxZoom {
		t.Errorf("ClampZoom(5) = %v, want %v", got, MaxZoom)
	}
	if got := ClampZoom(1.4); got != 1.4 {
		t.Errorf("ClampZoom(1.4) = %v", got)
	}
}

func TestFitScale(t *testing.T) {
	// Content larger than viewport scales down with margin.
	got := FitScale(2000, 1000, 1000, 1000)
	want := 0.5 * FitMargin
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("FitScale = %v, want %v", got, want)
	}

	// Content smaller than viewport caps at 1 before the margin.
	got = FitScale(100, 100, 1000, 1000)
	if math.Abs(got-FitMargin) > 1e-9 {
		t.Errorf("FitScale = %v, want %v", got, FitMargin)
	}
}

func TestContentBounds(t *testing.T) {
	rects := []Rect{
		{X: 100, Y: 100, W: 250, H: 120},
		{X: 350, Y: 250, W: 250, H: 120},
	}
	bounds, ok := ContentBounds(rects)
	if !ok {
		t.Fatal("expected bounds")
	}
	if bounds.X != 100 || bounds.Y != 100 || bounds.W != 500 || bounds.H != 270 {
		t.Errorf("bounds = %+v", bounds)
	}

	if _, ok := ContentBounds(nil); ok {
		t.Error("empty input should report no bounds")
	}
}
