package features

import (
	"catamesh/pkg/color"
	"catamesh/pkg/mesh"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Arch builds a vault over a doorway. s.Radius is the half size of the
// doorway in map units and s.Transform its source element placement: the
// vault is modelled in the source frame, where its stones have a fixed
// proportion, then placed by s.Transform around s.Center at s.Z.
func Arch(s mesh.FeatureSpec, o Options) (*mesh.Mesh, error) {
	inv, err := s.Transform.Invert()
	if err != nil {
		return nil, fmt.Errorf("arch at %v: %w", s.Center, err)
	}
	x0, y0 := inv.TransformPoint(0, 0)
	center0 := r3.Vector{X: x0, Y: y0}
	radius := s.Radius * inv.UniformScale() * 0.5

	const facets = 6
	wp := radius * 2   // vault curve radius
	r0 := radius * 0.2 // stone radius
	amax := math.Pi * 0.35
	wheight := 1.5 * o.zScale()
	a0 := amax * 0.98

	m := &mesh.Mesh{}
	for _, side := range []float64{1, -1} {
		c0 := center0.Add(r3.Vector{X: -side * wp * math.Cos(a0), Z: wheight})
		pillar := c0.Add(r3.Vector{X: side * wp})
		join(m, tube(pillar.Sub(r3.Vector{Z: wheight}), pillar.Add(r3.Vector{Z: 0.07}), r0, r0, facets, false, 0))
		for i := 0; i < 4; i++ {
			alpha := float64(i) * amax / 4
			alpha2 := (float64(i) + 1.07) * amax / 4
			c1 := c0.Add(r3.Vector{X: side * wp * math.Cos(alpha), Z: wp * math.Sin(alpha)})
			c2 := c0.Add(r3.Vector{X: side * wp * math.Cos(alpha2), Z: wp * math.Sin(alpha2)})
			join(m, tube(c1, c2, r0, r0, facets, false, 0))
		}
	}

	for i, v := range m.Vertices {
		x, y := s.Transform.TransformPoint(v.X, v.Y)
		m.Vertices[i] = r3.Vector{X: x + s.Center.X, Y: y + s.Center.Y, Z: v.Z + s.Z}
	}
	m.UpdateNormals()
	m.Header.Material = &mesh.Material{Diffuse: o.color(color.ArchYellow)}
	return m, nil
}

// WaterLevel is the water scale assembly: a wireframe outline, the tank
// walls with the gauge, and the translucent water surface.
type WaterLevel struct {
	Line  *mesh.Mesh
	Wall  *mesh.Mesh
	Water *mesh.Mesh
}

// Group suffixes under which the parts of a water scale are stored.
const (
	WaterLineGroup  = "etiage_line"
	WaterWallGroup  = "etiage_wall_tri"
	WaterWaterGroup = "etiage_water_tri"
)

// Meshes maps the parts to their group keys.
func (w WaterLevel) Meshes() map[string]*mesh.Mesh {
	return map[string]*mesh.Mesh{
		WaterLineGroup:  w.Line,
		WaterWallGroup:  w.Wall,
		WaterWaterGroup: w.Water,
	}
}

// WaterScale builds a water level gauge of the given half size at pos.
func WaterScale(pos r3.Vector, size float64) WaterLevel {
	v := func(x, y, z float64) r3.Vector {
		return pos.Add(r3.Vector{X: x, Y: y, Z: z})
	}
	s1, s2, s9, s95 := size*0.1, size*0.2, size*0.9, size*0.95

	line := join(&mesh.Mesh{},
		wireBox(v(-size, -size, -s1), v(size, size, s1)),
		wireBox(v(-s9, -s9, -s1), v(s9, s9, s1)),
		wireBox(v(-s2, s95, -size), v(s2, size, size)))
	line.Header.Material = &mesh.Material{Diffuse: &color.RGBA{1, .9, .64, 1}}

	// tank frame sides, then the gauge
	wall := join(&mesh.Mesh{},
		box(v(-size, -size, -s1), v(size, -s9, s1)),
		box(v(-size, s9, -s1), v(size, size, s1)),
		box(v(-size, -s9, -s1), v(-s9, s9, s1)),
		box(v(s9, -s9, -s1), v(size, s9, s1)),
		box(v(-s2, s95, -size), v(s2, size, size)))
	wall.Header.Material = &mesh.Material{Diffuse: &color.RGBA{.96, .88, .64, 1}}

	water := &mesh.Mesh{
		Vertices:  []r3.Vector{v(-s9, -s9, 0), v(s9, -s9, 0), v(s9, s9, 0), v(-s9, s9, 0)},
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
	water.SetNormals(r3.Vector{Z: 1})
	water.Header.Material = &mesh.Material{Diffuse: &color.RGBA{.5, .6, 1, .7}, TwoSided: true}
	return WaterLevel{Line: line, Wall: wall, Water: water}
}

// markerColors are the colors of marker kinds. Other kinds are grey.
var markerColors = map[string]color.RGBA{
	"sounds": {.8, .6, 0, 1},
	"photos": {1, 0, 0, 1},
}

// Marker builds a pin standing on pos: a ball at 2.5·scale above it and a
// cone pointing down to it. Sound markers have a horn instead.
func Marker(kind string, pos r3.Vector, scale float64) *mesh.Mesh {
	top := pos.Add(r3.Vector{Z: 2.5 * scale})
	m := icosahedron(top, 0.5*scale)
	if kind == "sounds" {
		join(m, cone(pos.Add(r3.Vector{X: 1.3 * scale, Z: 2.7 * scale}), top, 0.5*scale, 12))
	} else {
		join(m, cone(pos.Add(r3.Vector{Z: scale}), top, 0.15*scale, 6))
	}
	c, ok := markerColors[kind]
	if !ok {
		c = color.Grey
	}
	m.Header.Material = &mesh.Material{Diffuse: &c}
	return m
}

// StairSymbol is a small spiral stair placed on a map stair sign.
func StairSymbol(pos r3.Vector, o Options) *mesh.Mesh {
	s := mesh.FeatureSpec{Radius: 1, Height: 1.5, Z: pos.Z}
	s.Center.X, s.Center.Y = pos.X, pos.Y
	return SpiralStair(s, o)
}
