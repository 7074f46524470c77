package geometry

import (
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// Ring converts a closed point sequence (without the repeated first point)
// into an orb ring.
func Ring(points []r2.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	if len(points) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

func LineString(points []r2.Point) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, orb.Point{p.X, p.Y})
	}
	return ls
}

func points(ps []orb.Point) []r2.Point {
	out := make([]r2.Point, 0, len(ps))
	for _, p := range ps {
		out = append(out, r2.Point{X: p[0], Y: p[1]})
	}
	return out
}

// Area is the unsigned area enclosed by a closed point sequence.
func Area(ring []r2.Point) float64 {
	return planar.Area(Ring(ring))
}

// CounterClockwise reports whether a closed point sequence turns
// counter-clockwise (positive area in a Y-up frame).
func CounterClockwise(ring []r2.Point) bool {
	return Ring(ring).Orientation() == orb.CCW
}

// Simplify reduces an open polyline with the Douglas-Peucker algorithm.
func Simplify(line []r2.Point, tolerance float64) []r2.Point {
	if len(line) < 3 {
		return line
	}
	ls := simplify.DouglasPeucker(tolerance).LineString(LineString(line))
	return points(ls)
}

// SimplifyRing reduces a closed point sequence, keeping at least a triangle.
func SimplifyRing(ring []r2.Point, tolerance float64) []r2.Point {
	if len(ring) < 4 {
		return ring
	}
	r := simplify.DouglasPeucker(tolerance).Ring(Ring(ring))
	if len(r) < 4 {
		return ring
	}
	return points(r[:len(r)-1])
}

// Bound is the bounding box of the given points.
func Bound(ps []r2.Point) r2.Rect {
	return r2.RectFromPoints(ps...)
}

// Cross is the Z component of the cross product of (b-a) and (c-a).
func Cross(a, b, c r2.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// InTriangle reports whether p lies in the triangle abc (either winding),
// edges included.
func InTriangle(p, a, b, c r2.Point) bool {
	d1 := Cross(a, b, p)
	d2 := Cross(b, c, p)
	d3 := Cross(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// Barycentric returns the weights of a, b, c for p. ok is false for a
// degenerate triangle.
func Barycentric(p, a, b, c r2.Point) (wa, wb, wc float64, ok bool) {
	det := Cross(a, b, c)
	if det == 0 {
		return 0, 0, 0, false
	}
	wa = Cross(p, b, c) / det
	wb = Cross(a, p, c) / det
	wc = 1 - wa - wb
	return wa, wb, wc, true
}
