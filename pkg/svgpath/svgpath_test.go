package svgpath_test

import (
	"catamesh/pkg/svgpath"
	"errors"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
)

func TestBasic(t *testing.T) {
	outline, err := svgpath.Parse(" \t\r\nM1.e2 2. 1 .2.3 0.4e2 z L 7 8 9 10 H 11 12 V 5 C 5 6 7 8 9 10")
	if err != nil {
		t.Errorf("parsing failed: %s", err)
	}
	expected := &svgpath.Outline{
		Vertices: []r2.Point{
			{X: 100, Y: 2},
			{X: 1, Y: .2},
			{X: .3, Y: 40},
			{X: 7, Y: 8},
			{X: 9, Y: 10},
			{X: 11, Y: 10},
			{X: 12, Y: 10},
			{X: 12, Y: 5},
			{X: 9, Y: 10},
		},
		Edges: [][2]int{
			{0, 1}, {1, 2}, {2, 0},
			{0, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}, {7, 8},
		},
	}
	if diff := cmp.Diff(expected, outline); diff != "" {
		t.Errorf("incorrect output: %s", diff)
	}
}

func TestSquare(t *testing.T) {
	outline, err := svgpath.Parse("M0,0 L10,0 L10,10 L0,10 Z")
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	if len(outline.Vertices) != 4 || len(outline.Edges) != 4 {
		t.Fatalf("got %d vertices, %d edges, want 4, 4", len(outline.Vertices), len(outline.Edges))
	}
	wantEdges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	if diff := cmp.Diff(wantEdges, outline.Edges); diff != "" {
		t.Errorf("incorrect edges: %s", diff)
	}
	want := r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 10})
	if got := outline.Bounds(); !got.ApproxEqual(want) {
		t.Errorf("bounds = %v, want %v", got, want)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		path     string
		vertices []r2.Point
		edges    [][2]int
	}{
		{
			// relative commands accumulate on the current point
			path:     "m 1 1 l 2 0 0 2 h -2 z",
			vertices: []r2.Point{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3}},
			edges:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		},
		{
			// too few points to close
			path:     "M 0 0 L 1 0 Z",
			vertices: []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}},
			edges:    [][2]int{{0, 1}},
		},
		{
			// a second subpath is not connected to the first
			path:     "M 0 0 L 1 0 M 5 5 L 6 5",
			vertices: []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 5, Y: 5}, {X: 6, Y: 5}},
			edges:    [][2]int{{0, 1}, {2, 3}},
		},
		{
			// curves keep their end point only
			path:     "M 0 0 C 1 1 2 1 3 0 S 5 -1 6 0 Q 7 1 8 0 T 10 0",
			vertices: []r2.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 6, Y: 0}, {X: 8, Y: 0}, {X: 10, Y: 0}},
			edges:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}},
		},
		{
			path:     "M 0 0 a 5 5 0 0 1 10 0 A 5,5 0 1,0 0,0",
			vertices: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 0}},
			edges:    [][2]int{{0, 1}, {1, 2}},
		},
		{
			// drawing after Z starts from the subpath first point
			path:     "M 0 0 L 4 0 L 4 4 Z l 0 -2",
			vertices: []r2.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: -2}},
			edges:    [][2]int{{0, 1}, {1, 2}, {2, 0}, {0, 3}},
		},
	}
	for i, test := range tests {
		outline, err := svgpath.Parse(test.path)
		if err != nil {
			t.Errorf("Test %d - parsing %q failed: %s", i, test.path, err)
			continue
		}
		if diff := cmp.Diff(test.vertices, outline.Vertices); diff != "" {
			t.Errorf("Test %d - incorrect vertices: %s", i, diff)
		}
		if diff := cmp.Diff(test.edges, outline.Edges); diff != "" {
			t.Errorf("Test %d - incorrect edges: %s", i, diff)
		}
	}
}

func TestSyntaxError(t *testing.T) {
	tests := []struct {
		path            string
		index           int
		vertices, edges int
	}{
		{"M 0 0 L 1 0 L 2 x", 16, 2, 1},
		{"M0,0 L10,0 L10,a", 15, 2, 1},
		{"M 0 0 A 1 1 0 2 0 3 3", 14, 1, 0},
		{"M 0 0 L 1 .", 10, 1, 0},
	}
	for i, test := range tests {
		outline, err := svgpath.Parse(test.path)
		var syntaxErr *svgpath.PathSyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Errorf("Test %d - expected a PathSyntaxError, got %v", i, err)
			continue
		}
		if syntaxErr.Vertices != test.vertices || syntaxErr.Edges != test.edges {
			t.Errorf("Test %d - partial progress = %d vertices, %d edges, want %d, %d",
				i, syntaxErr.Vertices, syntaxErr.Edges, test.vertices, test.edges)
		}
		if syntaxErr.Index != test.index {
			t.Errorf("Test %d - index = %d, want %d", i, syntaxErr.Index, test.index)
		}
		if len(outline.Vertices) != test.vertices {
			t.Errorf("Test %d - partial outline has %d vertices, want %d", i, len(outline.Vertices), test.vertices)
		}
	}
}

func TestShapes(t *testing.T) {
	rect := svgpath.Rect(1, 2, 3, 4)
	wantRect := &svgpath.Outline{
		Vertices: []r2.Point{{X: 1, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 6}, {X: 1, Y: 6}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	}
	if diff := cmp.Diff(wantRect, rect); diff != "" {
		t.Errorf("incorrect rect: %s", diff)
	}

	circle := svgpath.Circle(2, 1, 0.5, 0, 0, 24)
	if len(circle.Vertices) != 24 || len(circle.Edges) != 24 {
		t.Errorf("circle has %d vertices, %d edges, want 24, 24", len(circle.Vertices), len(circle.Edges))
	}
	b := circle.Bounds()
	if diff := cmp.Diff(r2.Point{X: 2, Y: 1}, b.Center(), floatOpt); diff != "" {
		t.Errorf("incorrect circle center: %s", diff)
	}

	polygon, err := svgpath.Polygon("0,0 2,0 2,2")
	if err != nil {
		t.Fatalf("polygon failed: %s", err)
	}
	wantPolygon := &svgpath.Outline{
		Vertices: []r2.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 0}},
	}
	if diff := cmp.Diff(wantPolygon, polygon); diff != "" {
		t.Errorf("incorrect polygon: %s", diff)
	}
}
