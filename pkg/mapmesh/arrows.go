package mapmesh

import (
	"catamesh/pkg/mesh"
	"catamesh/pkg/props"
	"catamesh/pkg/spatial"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// arrowCandidates is the number of nearest texts considered for an arrow.
const arrowCandidates = 8

type textBox struct {
	text *mesh.TextObject
	box  r2.Rect
}

// box is the area covered by a text. Its reference point is the baseline
// anchor of the last line.
func newTextBox(t *mesh.TextObject) textBox {
	pos := r2.Point{X: t.Position.X, Y: t.Position.Y}
	if t.Anchor != "middle" {
		pos.X += t.Size.X / 2
	}
	if t.Lines >= 2 {
		pos.Y += t.Size.Y / float64(t.Lines) * float64(t.Lines-1)
	}
	return textBox{
		text: t,
		box: r2.Rect{
			X: r1.Interval{Lo: pos.X - t.Size.X/2, Hi: pos.X + t.Size.X/2},
			Y: r1.Interval{Lo: pos.Y - t.Size.Y, Hi: pos.Y},
		},
	}
}

// distance is 0 inside the box.
func (b textBox) distance(p r2.Point) float64 {
	dx := math.Max(0, math.Max(b.box.X.Lo-p.X, p.X-b.box.X.Hi))
	dy := math.Max(0, math.Max(b.box.Y.Lo-p.Y, p.Y-b.box.Y.Hi))
	return math.Hypot(dx, dy)
}

// AttachArrows moves the text end of every arrow onto its closest text.
// Arrow vertices carry their position along the arrow in Z: the text end
// (Z = 0) moves by the full offset and the tip (Z = 1) stays in place.
// It returns the number of arrows moved.
func AttachArrows(out *mesh.Collection, groups *props.Groups) int {
	var boxes []textBox
	bounds := r2.EmptyRect()
	for _, key := range out.Keys() {
		p := groups.Get(key)
		if p == nil || !p.Text {
			continue
		}
		g, _ := out.Lookup(key)
		for _, t := range g.Texts {
			b := newTextBox(t)
			boxes = append(boxes, b)
			bounds = bounds.AddRect(b.box)
		}
	}
	if len(boxes) == 0 {
		return 0
	}
	index := spatial.NewIndex(bounds)
	for i, b := range boxes {
		index.Insert(b.box.Center(), i)
	}

	moved := 0
	for _, key := range out.Keys() {
		p := groups.Get(key)
		if p == nil || !p.Arrow {
			continue
		}
		for _, m := range out.Meshes(key) {
			if len(m.Vertices) == 0 {
				continue
			}
			v0 := r2.Point{X: m.Vertices[0].X, Y: m.Vertices[0].Y}
			best, bestDist, inside := -1, math.Inf(1), false
			for _, item := range index.Nearest(v0, arrowCandidates) {
				i := item.Data.(int)
				d := boxes[i].distance(v0)
				centerDist := v0.Sub(boxes[i].box.Center()).Norm()
				switch {
				case d == 0 && (!inside || centerDist < bestDist):
					best, bestDist, inside = i, centerDist, true
				case !inside && d < bestDist:
					best, bestDist = i, d
				}
			}
			if best < 0 {
				continue
			}
			pos := boxes[best].text.Position
			decal := r3.Vector{X: pos.X - m.Vertices[0].X, Y: pos.Y - m.Vertices[0].Y}
			for i, v := range m.Vertices {
				m.Vertices[i] = v.Add(decal.Mul(1 - v.Z))
			}
			moved++
		}
	}
	return moved
}
