package mesh

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/color"
	"math"

	"github.com/golang/geo/r3"
)

// mitre shears section points along the segment direction so that two
// consecutive segments meet on their bisector plane.
type mitre struct {
	plane  r3.Vector
	offset float64
	depth  float64
}

func (m mitre) shift(p r3.Vector) float64 {
	return (p.Dot(m.plane) + m.offset) * m.depth
}

// newMitre builds the joint between directions in and out at vertex at.
// sign is -1 for the start of a segment, +1 for its end.
func newMitre(in, out, dir, at r3.Vector, sign float64) mitre {
	axis := in.Cross(out)
	if axis.Norm2() == 0 {
		return mitre{}
	}
	plane := dir.Cross(axis).Normalize()
	n := math.Min(axis.Norm(), cfg.MaxMitreSine)
	return mitre{
		plane:  plane,
		offset: -plane.Dot(at),
		depth:  sign * math.Tan(math.Asin(n)/2),
	}
}

type stripeSegment struct {
	from, to   r3.Vector
	dir        r3.Vector
	length     float64
	xdir, zdir r3.Vector
	start, end mitre
}

func newStripeSegment(from, to r3.Vector, prev, next *r3.Vector) (stripeSegment, bool) {
	s := stripeSegment{from: from, to: to}
	d := to.Sub(from)
	s.length = d.Norm()
	if s.length == 0 {
		return s, false
	}
	s.dir = d.Mul(1 / s.length)
	s.xdir = s.dir.Cross(r3.Vector{Z: 1})
	if s.xdir.Norm2() == 0 {
		s.xdir = r3.Vector{X: 1}
		s.zdir = r3.Vector{Y: 1}
	} else {
		s.zdir = s.xdir.Cross(s.dir)
	}
	if prev != nil {
		s.start = newMitre(from.Sub(*prev).Normalize(), s.dir, s.dir, from, -1)
	}
	if next != nil {
		s.end = newMitre(s.dir, next.Sub(to).Normalize(), s.dir, to, 1)
	}
	return s, true
}

// section returns the 8 points of the octagonal section at distance x
// along the segment.
func (s stripeSegment) section(x, xr, zr float64) []r3.Vector {
	c := s.from.Add(s.dir.Mul(x))
	xd, zd := s.xdir, s.zdir
	pts := []r3.Vector{
		c.Sub(xd.Mul(xr)).Sub(zd.Mul(zr / 2)),
		c.Sub(xd.Mul(xr)).Add(zd.Mul(zr / 2)),
		c.Sub(xd.Mul(xr / 2)).Add(zd.Mul(zr)),
		c.Add(xd.Mul(xr / 2)).Add(zd.Mul(zr)),
		c.Add(xd.Mul(xr)).Add(zd.Mul(zr / 2)),
		c.Add(xd.Mul(xr)).Sub(zd.Mul(zr / 2)),
		c.Add(xd.Mul(xr / 2)).Sub(zd.Mul(zr)),
		c.Sub(xd.Mul(xr / 2)).Sub(zd.Mul(zr)),
	}
	f := x / s.length
	for i, p := range pts {
		shift := s.start.shift(p)*(1-f) + s.end.shift(p)*f
		pts[i] = p.Add(s.dir.Mul(shift))
	}
	return pts
}

// addTube appends a tube between two sections.
func addTube(m *Mesh, a, b []r3.Vector) {
	n := len(m.Vertices)
	m.Vertices = append(m.Vertices, a...)
	m.Vertices = append(m.Vertices, b...)
	for i := 0; i < 8; i++ {
		j := (i + 1) % 8
		m.Triangles = append(m.Triangles,
			[3]int{n + i, n + i + 8, n + 8 + j},
			[3]int{n + i, n + 8 + j, n + j})
	}
}

// CatFlap turns the polylines of a line mesh into a striped tube: stripes
// of fixed length alternate between two meshes, colored c and white.
// Joints between segments are mitred.
func CatFlap(m *Mesh, c color.RGBA) [2]*Mesh {
	stripes := [2]*Mesh{{}, {}}
	stripes[0].Header.SetDiffuse(c)
	stripes[1].Header.SetDiffuse(color.CatFlapWhite)

	slen := cfg.CatFlapStripeLength
	xr, zr := cfg.CatFlapHalfWidth, cfg.CatFlapHeight
	alt := 0
	for _, chain := range Chains(m) {
		done := 0. // length of the current stripe already built
		for k := 1; k < len(chain); k++ {
			var prev, next *r3.Vector
			if k >= 2 {
				prev = &m.Vertices[chain[k-2]]
			}
			if k+1 < len(chain) {
				next = &m.Vertices[chain[k+1]]
			}
			seg, ok := newStripeSegment(m.Vertices[chain[k-1]], m.Vertices[chain[k]], prev, next)
			if !ok {
				continue
			}
			for x := 0.; x < seg.length; {
				step := math.Min(slen-done, seg.length-x)
				addTube(stripes[alt], seg.section(x, xr, zr), seg.section(x+step, xr, zr))
				x += step
				done += step
				if done >= slen-1e-9 {
					done = 0
					alt = 1 - alt
				}
			}
		}
	}
	stripes[0].UpdateNormals()
	stripes[1].UpdateNormals()
	return stripes
}
