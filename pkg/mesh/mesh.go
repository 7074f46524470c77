package mesh

import (
	"catamesh/pkg/color"
	"catamesh/pkg/svgpath"
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// ErrMixedPolygons is returned when line and triangle polygons would end
// up in the same mesh.
var ErrMixedPolygons = errors.New("cannot mix lines and triangles in a mesh")

type Material struct {
	Diffuse     *color.RGBA
	BorderColor *color.RGBA
	TwoSided    bool // no face culling
	LineWidth   float64
}

func (m *Material) clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	if m.Diffuse != nil {
		d := *m.Diffuse
		c.Diffuse = &d
	}
	if m.BorderColor != nil {
		b := *m.BorderColor
		c.BorderColor = &b
	}
	return &c
}

// union fills the unset fields of m from other.
func (m *Material) union(other *Material) {
	if m.Diffuse == nil && other.Diffuse != nil {
		d := *other.Diffuse
		m.Diffuse = &d
	}
	if m.BorderColor == nil && other.BorderColor != nil {
		b := *other.BorderColor
		m.BorderColor = &b
	}
	if m.LineWidth == 0 {
		m.LineWidth = other.LineWidth
	}
	m.TwoSided = m.TwoSided || other.TwoSided
}

// Texture binds an image element to a mesh. Texture coordinates are
// derived from MappingMethod when the mesh is written.
type Texture struct {
	Image         string // id of the image element
	Href          string
	Position      r2.Point // image corner, document units
	Size          r2.Point
	MappingMethod string // "xy" or "geodesic_z"
	Params        map[string]interface{}
}

// Header is the metadata carried with a mesh.
type Header struct {
	Material *Material
	// Transformation is the 3D placement of a flat element, if any.
	Transformation *svgpath.Matrix3D
	Texture        *Texture // shared, never modified
}

func (h Header) clone() Header {
	c := Header{Material: h.Material.clone(), Texture: h.Texture}
	if h.Transformation != nil {
		t := *h.Transformation
		c.Transformation = &t
	}
	return c
}

// SetDiffuse sets the diffuse color, creating the material if needed.
func (h *Header) SetDiffuse(c color.RGBA) {
	if h.Material == nil {
		h.Material = &Material{}
	}
	h.Material.Diffuse = &c
}

// Mesh is a polygonal object. A mesh holds either line segments (Edges) or
// triangles, never both.
type Mesh struct {
	Vertices  []r3.Vector
	Edges     [][2]int
	Triangles [][3]int
	Normals   []r3.Vector
	Header    Header
}

// FromOutline builds a line mesh at Z = 0.
func FromOutline(o *svgpath.Outline) *Mesh {
	m := &Mesh{
		Vertices: make([]r3.Vector, len(o.Vertices)),
		Edges:    append([][2]int(nil), o.Edges...),
	}
	for i, v := range o.Vertices {
		m.Vertices[i] = r3.Vector{X: v.X, Y: v.Y}
	}
	return m
}

// Dim is the polygon dimension: 2 for lines, 3 for triangles, 0 when the
// mesh has no polygons.
func (m *Mesh) Dim() int {
	switch {
	case len(m.Triangles) != 0:
		return 3
	case len(m.Edges) != 0:
		return 2
	}
	return 0
}

func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:  append([]r3.Vector(nil), m.Vertices...),
		Edges:     append([][2]int(nil), m.Edges...),
		Triangles: append([][3]int(nil), m.Triangles...),
		Normals:   append([]r3.Vector(nil), m.Normals...),
		Header:    m.Header.clone(),
	}
}

// Validate checks that every polygon index is within the vertex list.
func (m *Mesh) Validate() error {
	if len(m.Edges) != 0 && len(m.Triangles) != 0 {
		return ErrMixedPolygons
	}
	n := len(m.Vertices)
	for i, e := range m.Edges {
		for _, v := range e {
			if v < 0 || v >= n {
				return fmt.Errorf("edge %d: index %d out of range [0,%d)", i, v, n)
			}
		}
	}
	for i, t := range m.Triangles {
		for _, v := range t {
			if v < 0 || v >= n {
				return fmt.Errorf("triangle %d: index %d out of range [0,%d)", i, v, n)
			}
		}
	}
	return nil
}

// Bounds is the XY bounding box of the vertices.
func (m *Mesh) Bounds() r2.Rect {
	r := r2.EmptyRect()
	for _, v := range m.Vertices {
		r = r.AddPoint(r2.Point{X: v.X, Y: v.Y})
	}
	return r
}

// ZRange returns the lowest and highest Z.
func (m *Mesh) ZRange() (lo, hi float64) {
	for i, v := range m.Vertices {
		if i == 0 || v.Z < lo {
			lo = v.Z
		}
		if i == 0 || v.Z > hi {
			hi = v.Z
		}
	}
	return lo, hi
}

// Merge appends src to dst. src polygon indices are offset by the prior
// vertex count of dst. Header values already set in dst win.
func Merge(dst, src *Mesh) error {
	if dst.Dim() != 0 && src.Dim() != 0 && dst.Dim() != src.Dim() {
		return ErrMixedPolygons
	}
	offset := len(dst.Vertices)
	dst.Vertices = append(dst.Vertices, src.Vertices...)
	for _, e := range src.Edges {
		dst.Edges = append(dst.Edges, [2]int{e[0] + offset, e[1] + offset})
	}
	for _, t := range src.Triangles {
		dst.Triangles = append(dst.Triangles, [3]int{t[0] + offset, t[1] + offset, t[2] + offset})
	}
	if len(dst.Normals) == offset && len(src.Normals) == len(src.Vertices) {
		dst.Normals = append(dst.Normals, src.Normals...)
	} else {
		dst.Normals = nil
	}
	if src.Header.Material != nil {
		if dst.Header.Material == nil {
			dst.Header.Material = src.Header.Material.clone()
		} else {
			dst.Header.Material.union(src.Header.Material)
		}
	}
	if dst.Header.Texture == nil {
		dst.Header.Texture = src.Header.Texture
	}
	if dst.Header.Transformation == nil && src.Header.Transformation != nil {
		t := *src.Header.Transformation
		dst.Header.Transformation = &t
	}
	return nil
}

// MergeAll merges meshes of the same polygon dimension. The result has at
// most one line mesh and one triangle mesh, in first-seen order.
func MergeAll(meshes []*Mesh) []*Mesh {
	var out []*Mesh
	byDim := map[int]*Mesh{}
	for _, m := range meshes {
		if m == nil || m.Empty() {
			continue
		}
		dst, ok := byDim[m.Dim()]
		if !ok {
			dst = &Mesh{}
			byDim[m.Dim()] = dst
			out = append(out, dst)
		}
		Merge(dst, m) // same dimension
	}
	return out
}

// Transform applies a 3D transform to every vertex. Normals are dropped.
func (m *Mesh) Transform(t svgpath.Matrix3D) {
	for i, v := range m.Vertices {
		m.Vertices[i] = t.TransformPoint(v)
	}
	m.Normals = nil
}

// Translate shifts every vertex by d.
func (m *Mesh) Translate(d r3.Vector) {
	for i, v := range m.Vertices {
		m.Vertices[i] = v.Add(d)
	}
}

// UpdateNormals recomputes area weighted vertex normals of a triangle
// mesh. Line meshes get no normals.
func (m *Mesh) UpdateNormals() {
	if len(m.Triangles) == 0 {
		m.Normals = nil
		return
	}
	normals := make([]r3.Vector, len(m.Vertices))
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, i := range t {
			normals[i] = normals[i].Add(n)
		}
	}
	for i, n := range normals {
		if n.Norm2() != 0 {
			normals[i] = n.Normalize()
		}
	}
	m.Normals = normals
}

// SetNormals sets every vertex normal to n.
func (m *Mesh) SetNormals(n r3.Vector) {
	m.Normals = make([]r3.Vector, len(m.Vertices))
	for i := range m.Normals {
		m.Normals[i] = n
	}
}
