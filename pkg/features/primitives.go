package features

import (
	"catamesh/pkg/mesh"
	"math"

	"github.com/golang/geo/r3"
)

// basis returns two unit vectors orthogonal to axis. A vertical axis gets
// X and Y.
func basis(axis r3.Vector) (u, w r3.Vector) {
	axis = axis.Normalize()
	ref := r3.Vector{X: 1}
	if math.Abs(axis.X) > 0.9 {
		ref = r3.Vector{Y: 1}
	}
	u = ref.Sub(axis.Mul(ref.Dot(axis))).Normalize()
	w = axis.Cross(u)
	return u, w
}

// tube builds an open cylinder (or a truncated cone) from p1 to p2.
// Smooth tubes share vertices between adjacent faces: 2·facets vertices.
// Flat tubes have 4 vertices per face. start rotates the first facet
// around the axis.
func tube(p1, p2 r3.Vector, r1, r2 float64, facets int, smooth bool, start float64) *mesh.Mesh {
	u, w := basis(p2.Sub(p1))
	ring := func(c r3.Vector, r float64, k int) r3.Vector {
		a := start + 2*math.Pi*float64(k)/float64(facets)
		return c.Add(u.Mul(r * math.Cos(a))).Add(w.Mul(r * math.Sin(a)))
	}
	m := &mesh.Mesh{}
	if smooth {
		for k := 0; k < facets; k++ {
			m.Vertices = append(m.Vertices, ring(p1, r1, k))
		}
		for k := 0; k < facets; k++ {
			m.Vertices = append(m.Vertices, ring(p2, r2, k))
		}
		for k := 0; k < facets; k++ {
			k1 := (k + 1) % facets
			m.Triangles = append(m.Triangles,
				[3]int{k, k1, facets + k1},
				[3]int{k, facets + k1, facets + k})
		}
	} else {
		for k := 0; k < facets; k++ {
			nv := len(m.Vertices)
			m.Vertices = append(m.Vertices,
				ring(p1, r1, k), ring(p1, r1, k+1), ring(p2, r2, k+1), ring(p2, r2, k))
			m.Triangles = append(m.Triangles,
				[3]int{nv, nv + 1, nv + 2},
				[3]int{nv, nv + 2, nv + 3})
		}
	}
	m.UpdateNormals()
	return m
}

// cone builds a cone with its apex at p1 and a base of radius r around p2.
func cone(p1, p2 r3.Vector, r float64, facets int) *mesh.Mesh {
	u, w := basis(p2.Sub(p1))
	m := &mesh.Mesh{Vertices: []r3.Vector{p1}}
	for k := 0; k < facets; k++ {
		a := 2 * math.Pi * float64(k) / float64(facets)
		m.Vertices = append(m.Vertices, p2.Add(u.Mul(r*math.Cos(a))).Add(w.Mul(r*math.Sin(a))))
	}
	for k := 0; k < facets; k++ {
		m.Triangles = append(m.Triangles, [3]int{0, 1 + (k+1)%facets, 1 + k})
	}
	m.UpdateNormals()
	return m
}

// box corners are indexed by bits: 1 for X, 2 for Y, 4 for Z.
func corners(lo, hi r3.Vector) []r3.Vector {
	v := make([]r3.Vector, 8)
	for i := range v {
		v[i] = lo
		if i&1 != 0 {
			v[i].X = hi.X
		}
		if i&2 != 0 {
			v[i].Y = hi.Y
		}
		if i&4 != 0 {
			v[i].Z = hi.Z
		}
	}
	return v
}

var boxTriangles = [][3]int{
	{0, 2, 3}, {0, 3, 1}, // -Z
	{4, 5, 7}, {4, 7, 6}, // +Z
	{0, 1, 5}, {0, 5, 4}, // -Y
	{2, 6, 7}, {2, 7, 3}, // +Y
	{0, 4, 6}, {0, 6, 2}, // -X
	{1, 3, 7}, {1, 7, 5}, // +X
}

// box is a closed, outward facing box.
func box(lo, hi r3.Vector) *mesh.Mesh {
	m := &mesh.Mesh{
		Vertices:  corners(lo, hi),
		Triangles: append([][3]int(nil), boxTriangles...),
	}
	m.UpdateNormals()
	return m
}

// wireBox is the 12 edges of a box.
func wireBox(lo, hi r3.Vector) *mesh.Mesh {
	m := &mesh.Mesh{Vertices: corners(lo, hi)}
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				m.Edges = append(m.Edges, [2]int{i, i | bit})
			}
		}
	}
	return m
}

var icoFaces = [][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

// icosahedron is a 12 vertex sphere.
func icosahedron(c r3.Vector, r float64) *mesh.Mesh {
	t := (1 + math.Sqrt(5)) / 2
	raw := []r3.Vector{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	m := &mesh.Mesh{Triangles: append([][3]int(nil), icoFaces...)}
	for _, v := range raw {
		m.Vertices = append(m.Vertices, c.Add(v.Normalize().Mul(r)))
	}
	m.UpdateNormals()
	return m
}

// join merges parts into dst. Parts must have the same polygon dimension.
func join(dst *mesh.Mesh, parts ...*mesh.Mesh) *mesh.Mesh {
	for _, p := range parts {
		if err := mesh.Merge(dst, p); err != nil {
			panic(err)
		}
	}
	return dst
}
