package svgpath

import (
	"math"

	"github.com/golang/geo/r2"
)

// Bounds returns the bounding box of the outline vertices.
func (o *Outline) Bounds() r2.Rect {
	return r2.RectFromPoints(o.Vertices...)
}

// Transform maps every vertex through m, in place.
func (o *Outline) Transform(m Matrix) {
	for i, v := range o.Vertices {
		x, y := m.TransformPoint(v.X, v.Y)
		o.Vertices[i] = r2.Point{X: x, Y: y}
	}
}

// Append adds the vertices and edges of other, offsetting its indices.
func (o *Outline) Append(other *Outline) {
	offset := len(o.Vertices)
	o.Vertices = append(o.Vertices, other.Vertices...)
	for _, e := range other.Edges {
		o.Edges = append(o.Edges, [2]int{e[0] + offset, e[1] + offset})
	}
}

// loop builds a closed outline through the given points.
func loop(points []r2.Point) *Outline {
	o := &Outline{Vertices: points}
	n := len(points)
	for i := 0; i < n; i++ {
		o.Edges = append(o.Edges, [2]int{i, (i + 1) % n})
	}
	return o
}

// Rect returns the 4 corners of a rectangle as a closed loop.
func Rect(x, y, width, height float64) *Outline {
	return loop([]r2.Point{
		{X: x, Y: y},
		{X: x + width, Y: y},
		{X: x + width, Y: y + height},
		{X: x, Y: y + height},
	})
}

// Ellipse approximates an ellipse by n points, from the start to the end
// angle (radians). The result is always a closed loop: a partial sweep is
// closed by its chord.
func Ellipse(cx, cy, rx, ry, start, end float64, n int) *Outline {
	if end <= start {
		end += 2 * math.Pi
	}
	steps := float64(n)
	if end-start < 2*math.Pi-1e-9 {
		// include the end point of an open sweep
		steps = float64(n - 1)
	}
	points := make([]r2.Point, 0, n)
	for i := 0; i < n; i++ {
		a := start + (end-start)*float64(i)/steps
		points = append(points, r2.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)})
	}
	return loop(points)
}

// Circle is an Ellipse with equal radii.
func Circle(cx, cy, r, start, end float64, n int) *Outline {
	return Ellipse(cx, cy, r, r, start, end, n)
}

// Polygon reads a "points" attribute (whitespace separated "x,y" pairs)
// into a closed loop.
func Polygon(points string) (*Outline, error) {
	s := &state{data: points}
	var pts []r2.Point
	for {
		s.commaWhitespace()
		if s.peek() == 0 {
			break
		}
		x, y, err := s.parseCoordinatePair()
		if err != nil {
			return nil, &PathSyntaxError{Index: s.index, Vertices: len(pts), Edges: 0, Err: err}
		}
		pts = append(pts, r2.Point{X: x, Y: y})
	}
	return loop(pts), nil
}
