package mesh

import (
	"catamesh/pkg/geometry"
	"catamesh/pkg/spatial"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// weldDistance is the distance under which two outline vertices are the
// same point.
const weldDistance = 1e-6

// Tesselate fills the closed loops of a line mesh with triangles. When
// flat, the mesh is first projected on its local plane (the plane of its
// 3D transformation, if any), coincident vertices are welded, and the
// triangles keep the original 3D positions. It returns nil when no
// triangle could be built.
func Tesselate(m *Mesh, flat bool) *Mesh {
	if len(m.Edges) == 0 {
		return nil
	}
	plane := make([]r2.Point, len(m.Vertices))
	project := func(v r3.Vector) r3.Vector { return v }
	if flat && m.Header.Transformation != nil {
		if inv, err := m.Header.Transformation.Invert(); err == nil {
			project = inv.TransformPoint
		}
	}
	for i, v := range m.Vertices {
		p := project(v)
		plane[i] = r2.Point{X: p.X, Y: p.Y}
	}

	rep := make([]int, len(m.Vertices))
	for i := range rep {
		rep[i] = i
	}
	if flat {
		rep = weld(plane)
	}
	lines := &Mesh{Vertices: m.Vertices}
	for _, e := range m.Edges {
		a, b := rep[e[0]], rep[e[1]]
		if a != b {
			lines.Edges = append(lines.Edges, [2]int{a, b})
		}
	}

	out := &Mesh{Header: m.Header.clone()}
	index := map[int]int{}
	vertex := func(i int) int {
		if j, ok := index[i]; ok {
			return j
		}
		index[i] = len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices[i])
		return index[i]
	}
	for _, chain := range Chains(lines) {
		if len(chain) < 4 || chain[0] != chain[len(chain)-1] {
			continue
		}
		loop := chain[:len(chain)-1]
		ring := make([]r2.Point, len(loop))
		for k, i := range loop {
			ring[k] = plane[i]
		}
		for _, t := range geometry.Triangulate(ring) {
			out.Triangles = append(out.Triangles,
				[3]int{vertex(loop[t[0]]), vertex(loop[t[1]]), vertex(loop[t[2]])})
		}
	}
	if len(out.Triangles) == 0 {
		return nil
	}
	if out.Header.Material == nil {
		out.Header.Material = &Material{}
	}
	out.Header.Material.TwoSided = true
	out.UpdateNormals()
	return out
}

// weld maps each point to the first point at the same place.
func weld(points []r2.Point) []int {
	rep := make([]int, len(points))
	index := spatial.NewIndex(r2.RectFromPoints(points...))
	for i, p := range points {
		rep[i] = i
		if near := index.Within(p, weldDistance); len(near) != 0 {
			rep[i] = near[0].Data.(int)
			continue
		}
		index.Insert(p, i)
	}
	return rep
}

type circumTriangle struct {
	v      [3]int
	center r2.Point
	radius float64 // squared
}

func newCircumTriangle(pts []r2.Point, a, b, c int) circumTriangle {
	t := circumTriangle{v: [3]int{a, b, c}}
	pa, pb, pc := pts[a], pts[b], pts[c]
	d := 2 * (pa.X*(pb.Y-pc.Y) + pb.X*(pc.Y-pa.Y) + pc.X*(pa.Y-pb.Y))
	if d == 0 {
		t.radius = math.Inf(1)
		return t
	}
	na, nb, nc := pa.Norm()*pa.Norm(), pb.Norm()*pb.Norm(), pc.Norm()*pc.Norm()
	t.center = r2.Point{
		X: (na*(pb.Y-pc.Y) + nb*(pc.Y-pa.Y) + nc*(pa.Y-pb.Y)) / d,
		Y: (na*(pc.X-pb.X) + nb*(pa.X-pc.X) + nc*(pb.X-pa.X)) / d,
	}
	dx := pa.Sub(t.center)
	t.radius = dx.Dot(dx)
	return t
}

func (t circumTriangle) contains(p r2.Point) bool {
	d := p.Sub(t.center)
	return d.Dot(d) < t.radius*(1+1e-12)
}

// Delaunay triangulates the XY positions of the vertices of m (Bowyer
// Watson). Vertices keep their Z. Duplicate points are left unconnected.
func Delaunay(m *Mesh) *Mesh {
	n := len(m.Vertices)
	out := &Mesh{
		Vertices: append([]r3.Vector(nil), m.Vertices...),
		Header:   m.Header.clone(),
	}
	if n < 3 {
		return out
	}
	pts := make([]r2.Point, n, n+3)
	for i, v := range m.Vertices {
		pts[i] = r2.Point{X: v.X, Y: v.Y}
	}
	b := r2.RectFromPoints(pts...)
	size := math.Max(b.X.Length(), b.Y.Length())
	if size == 0 {
		size = 1
	}
	c := b.Center()
	pts = append(pts,
		r2.Point{X: c.X - 20*size, Y: c.Y - 10*size},
		r2.Point{X: c.X + 20*size, Y: c.Y - 10*size},
		r2.Point{X: c.X, Y: c.Y + 20*size})
	tris := []circumTriangle{newCircumTriangle(pts, n, n+1, n+2)}

	seen := map[r2.Point]bool{}
	for i := 0; i < n; i++ {
		p := pts[i]
		if seen[p] {
			continue
		}
		seen[p] = true
		edges := map[[2]int]int{}
		var order [][2]int
		kept := tris[:0]
		for _, t := range tris {
			if !t.contains(p) {
				kept = append(kept, t)
				continue
			}
			for k := 0; k < 3; k++ {
				e := [2]int{t.v[k], t.v[(k+1)%3]}
				if e[0] > e[1] {
					e[0], e[1] = e[1], e[0]
				}
				if edges[e] == 0 {
					order = append(order, e)
				}
				edges[e]++
			}
		}
		tris = kept
		for _, e := range order {
			if edges[e] == 1 {
				tris = append(tris, newCircumTriangle(pts, e[0], e[1], i))
			}
		}
	}

	for _, t := range tris {
		if t.v[0] >= n || t.v[1] >= n || t.v[2] >= n {
			continue
		}
		a, b, c := t.v[0], t.v[1], t.v[2]
		cross := geometry.Cross(pts[a], pts[b], pts[c])
		if cross == 0 {
			continue
		}
		if cross < 0 {
			b, c = c, b
		}
		out.Triangles = append(out.Triangles, [3]int{a, b, c})
	}
	out.UpdateNormals()
	return out
}
