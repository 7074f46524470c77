package geometry_test

import (
	"catamesh/pkg/geometry"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
)

var floatOpt = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 0.00001
})

var square = []r2.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}

func TestAreaAndOrientation(t *testing.T) {
	if got := geometry.Area(square); math.Abs(got-4) > 1e-9 {
		t.Errorf("Area() = %f, want 4", got)
	}
	if !geometry.CounterClockwise(square) {
		t.Errorf("square should be counter-clockwise")
	}
	reversed := []r2.Point{square[3], square[2], square[1], square[0]}
	if geometry.CounterClockwise(reversed) {
		t.Errorf("reversed square should be clockwise")
	}
}

func TestSimplify(t *testing.T) {
	line := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0.01}, {X: 2, Y: 0}, {X: 2, Y: 5}}
	want := []r2.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 5}}
	if diff := cmp.Diff(want, geometry.Simplify(line, 0.1)); diff != "" {
		t.Errorf("incorrect output: %s", diff)
	}
}

func TestBarycentric(t *testing.T) {
	a, b, c := r2.Point{X: 0, Y: 0}, r2.Point{X: 4, Y: 0}, r2.Point{X: 0, Y: 4}
	p := r2.Point{X: 1, Y: 1}
	if !geometry.InTriangle(p, a, b, c) {
		t.Errorf("%v should be inside", p)
	}
	if geometry.InTriangle(r2.Point{X: 3, Y: 3}, a, b, c) {
		t.Errorf("(3, 3) should be outside")
	}
	wa, wb, wc, ok := geometry.Barycentric(p, a, b, c)
	if !ok {
		t.Fatalf("triangle should not be degenerate")
	}
	if diff := cmp.Diff([]float64{0.5, 0.25, 0.25}, []float64{wa, wb, wc}, floatOpt); diff != "" {
		t.Errorf("incorrect weights: %s", diff)
	}
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		ring []r2.Point
		n    int
		area float64
	}{
		{square, 2, 4},
		// clockwise
		{[]r2.Point{square[3], square[2], square[1], square[0]}, 2, 4},
		// L shape, one reflex vertex
		{[]r2.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 2}, {X: 0, Y: 2}}, 4, 3},
		// collinear point on an edge
		{[]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}, 3, 4},
		{[]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}, 0, 0},
	}
	for i, test := range tests {
		tris := geometry.Triangulate(test.ring)
		if len(tris) != test.n {
			t.Errorf("Test %d - got %d triangles, want %d", i, len(tris), test.n)
			continue
		}
		area := 0.
		for _, tri := range tris {
			c := geometry.Cross(test.ring[tri[0]], test.ring[tri[1]], test.ring[tri[2]])
			if c <= 0 {
				t.Errorf("Test %d - triangle %v is not counter-clockwise", i, tri)
			}
			area += c / 2
		}
		if diff := cmp.Diff(test.area, area, floatOpt); diff != "" {
			t.Errorf("Test %d - incorrect area: %s", i, diff)
		}
	}
}
