package mesh

import (
	"github.com/golang/geo/r3"
)

// Direction is the vector a distance along local Z maps to, given the
// mesh 3D transformation (translation ignored).
func (m *Mesh) Direction(distance float64) r3.Vector {
	d := r3.Vector{Z: distance}
	if m.Header.Transformation != nil {
		d = m.Header.Transformation.TransformVector(d)
	}
	return d
}

// Extrude lifts a line mesh by height along its local Z. It returns the
// lifted copy and a wall mesh joining both: 2N vertices, two triangles
// per edge.
func Extrude(m *Mesh, height float64) (top, wall *Mesh) {
	d := m.Direction(height)
	return ExtrudeTo(m, func(_ int, v r3.Vector) r3.Vector {
		return v.Add(d)
	})
}

// ExtrudeTo is Extrude with a per-vertex lift.
func ExtrudeTo(m *Mesh, lift func(i int, v r3.Vector) r3.Vector) (top, wall *Mesh) {
	top = m.Clone()
	for i, v := range top.Vertices {
		top.Vertices[i] = lift(i, v)
	}
	top.Normals = nil

	n := len(m.Vertices)
	wall = &Mesh{
		Vertices:  make([]r3.Vector, 0, 2*n),
		Triangles: make([][3]int, 0, 2*len(m.Edges)),
		Header:    m.Header.clone(),
	}
	if wall.Header.Material == nil {
		wall.Header.Material = &Material{}
	}
	wall.Header.Material.TwoSided = true
	wall.Vertices = append(wall.Vertices, m.Vertices...)
	wall.Vertices = append(wall.Vertices, top.Vertices...)
	for _, e := range m.Edges {
		i, j := e[0], e[1]
		wall.Triangles = append(wall.Triangles,
			[3]int{i, j, n + i},
			[3]int{j, n + j, n + i})
	}
	wall.UpdateNormals()
	return top, wall
}
