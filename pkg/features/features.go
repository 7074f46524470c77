// Package features builds procedural 3D objects (wells, stairs, arches,
// symbols) from a footprint center, radius, base and height.
package features

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/color"
	"catamesh/pkg/mesh"
	"math"
	"strings"

	"github.com/golang/geo/r3"
)

// Options are the parameters shared by every builder.
type Options struct {
	// ZScale is the depth unit scale. Zero means cfg.ZScale.
	ZScale float64
	// Color replaces the builder's default color when set.
	Color *color.RGBA
}

func (o Options) zScale() float64 {
	if o.ZScale == 0 {
		return cfg.ZScale
	}
	return o.ZScale
}

func (o Options) color(def color.RGBA) *color.RGBA {
	if o.Color != nil {
		c := *o.Color
		return &c
	}
	return &def
}

// Kind is a builder family.
type Kind int

const (
	Generic Kind = iota
	GenericSquare
	PS
	PSSquare
	Switchback
	SwitchbackSquare
	Ladder
	Spiral
)

// KindOf maps a well label to its builder family, in priority order:
// PS, switchback stairs, ladders, spirals, square wells, then the generic
// cylinder for everything else.
func KindOf(label string) Kind {
	switch label {
	case "PS":
		return PS
	case "PS_sq":
		return PSSquare
	case "PSh", "sans", "PSh sans":
		return Switchback
	case "PSh_sq", "sans_sq", "PSh sans_sq":
		return SwitchbackSquare
	case "echelle", "échelle":
		return Ladder
	}
	switch {
	case strings.HasPrefix(label, "colim"):
		return Spiral
	case strings.HasSuffix(label, "_sq"):
		return GenericSquare
	}
	return Generic
}

// Builder builds a feature mesh.
type Builder func(label string, s mesh.FeatureSpec, o Options) *mesh.Mesh

var builders = map[Kind]Builder{
	Generic:       PSWell,
	GenericSquare: PSSquareWell,
	PS:            PSWell,
	PSSquare:      PSSquareWell,
	Switchback: func(_ string, s mesh.FeatureSpec, o Options) *mesh.Mesh {
		return PShWell(s, o)
	},
	SwitchbackSquare: func(_ string, s mesh.FeatureSpec, o Options) *mesh.Mesh {
		return PShSquareWell(s, o)
	},
	Ladder: func(_ string, s mesh.FeatureSpec, o Options) *mesh.Mesh {
		return LadderWell(s, o)
	},
	Spiral: func(_ string, s mesh.FeatureSpec, o Options) *mesh.Mesh {
		return SpiralStair(s, o)
	},
}

// Make builds the feature of a well label. Unknown labels get a generic
// well.
func Make(label string, s mesh.FeatureSpec, o Options) *mesh.Mesh {
	return builders[KindOf(label)](label, s, o)
}

func base(s mesh.FeatureSpec) (p1, p2 r3.Vector) {
	p1 = r3.Vector{X: s.Center.X, Y: s.Center.Y, Z: s.Z}
	p2 = p1
	p2.Z += s.Height
	return p1, p2
}

// WellColor is the default color of a generic well: blue for PE, white
// for PS, yellow for bone wells, green otherwise.
func WellColor(label string) color.RGBA {
	switch {
	case strings.HasPrefix(label, "PE"):
		return color.WellBlue
	case label == "PS" || strings.HasPrefix(label, "PS_") || strings.HasPrefix(label, "PS "):
		return color.White
	case strings.HasPrefix(label, "P ossements"):
		return color.WellYellow
	}
	return color.WellGreen
}

// PSWell is an open cylinder with cfg.WellFacets sides.
func PSWell(label string, s mesh.FeatureSpec, o Options) *mesh.Mesh {
	return psWell(label, s, o, cfg.WellFacets, true, 0)
}

// PSSquareWell is a square PSWell with its sides aligned on the axes.
func PSSquareWell(label string, s mesh.FeatureSpec, o Options) *mesh.Mesh {
	return psWell(label, s, o, 4, false, math.Pi/4)
}

func psWell(label string, s mesh.FeatureSpec, o Options, facets int, smooth bool, rotate float64) *mesh.Mesh {
	p1, p2 := base(s)
	m := tube(p1, p2, s.Radius, s.Radius, facets, smooth, rotate)
	m.Header.Material = &mesh.Material{Diffuse: o.color(WellColor(label)), TwoSided: true}
	return m
}

// PShWell is a narrower cylinder with steps on four sides, every 0.3 depth
// units.
func PShWell(s mesh.FeatureSpec, o Options) *mesh.Mesh {
	return pshWell(s, o, cfg.WellFacets, true, 0)
}

func PShSquareWell(s mesh.FeatureSpec, o Options) *mesh.Mesh {
	return pshWell(s, o, 4, false, math.Pi/4)
}

func pshWell(s mesh.FeatureSpec, o Options, facets int, smooth bool, rotate float64) *mesh.Mesh {
	p1, p2 := base(s)
	r0 := s.Radius * 0.7
	m := tube(p1, p2, r0, r0, facets, smooth, rotate)

	a := math.Pi / 6
	hl := s.Radius - r0
	at := func(x, y float64) r3.Vector {
		return p1.Add(r3.Vector{X: x, Y: y}.Mul(r0))
	}
	sin, cos := math.Sin(a), math.Cos(a)
	// step pairs on each side, with their outward direction
	sides := []struct {
		a, b r3.Vector
		out  r3.Vector
	}{
		{at(-sin, cos), at(sin, cos), r3.Vector{Y: hl}},
		{at(cos, sin), at(cos, -sin), r3.Vector{X: hl}},
		{at(sin, -cos), at(-sin, -cos), r3.Vector{Y: -hl}},
		{at(-cos, -sin), at(-cos, sin), r3.Vector{X: -hl}},
	}
	step := 0.3 * o.zScale()
	steps := &mesh.Mesh{}
	for i := 1; i < int(s.Height/step); i++ {
		z := s.Z + float64(i)*step
		for _, side := range sides {
			a, b := side.a, side.b
			a.Z, b.Z = z, z
			nv := len(steps.Vertices)
			steps.Vertices = append(steps.Vertices, a, b, a.Add(side.out), b.Add(side.out))
			steps.Triangles = append(steps.Triangles,
				[3]int{nv, nv + 1, nv + 3},
				[3]int{nv, nv + 3, nv + 2})
		}
	}
	steps.SetNormals(r3.Vector{Z: 1})
	join(m, steps)
	m.Header.Material = &mesh.Material{Diffuse: o.color(color.StairBrown), TwoSided: true}
	return m
}

// LadderWell is two poles at ±radius on X joined by rungs every 0.3 depth
// units.
func LadderWell(s mesh.FeatureSpec, o Options) *mesh.Mesh {
	p1, p2 := base(s)
	dx := r3.Vector{X: s.Radius}
	pole1, pole2 := p1.Add(dx), p1.Sub(dx)
	m := join(&mesh.Mesh{},
		tube(pole1, p2.Add(dx), 0.05, 0.05, 4, true, 0),
		tube(pole2, p2.Sub(dx), 0.05, 0.05, 4, true, 0))
	step := 0.3 * o.zScale()
	for i := 1; i < int(s.Height/step); i++ {
		z := s.Z + float64(i)*step
		b1, b2 := pole1, pole2
		b1.Z, b2.Z = z, z
		join(m, tube(b1, b2, 0.025, 0.025, 4, true, 0))
	}
	m.Header.Material = &mesh.Material{Diffuse: o.color(color.LadderRed)}
	return m
}

// SpiralStair is a central column with triangular steps turning by 30°
// every 0.2 depth units.
func SpiralStair(s mesh.FeatureSpec, o Options) *mesh.Mesh {
	p1, p2 := base(s)
	m := tube(p1, p2, s.Radius*0.25, s.Radius*0.25, 8, true, 0)
	step := 0.2 * o.zScale()
	angle := 0.
	for i := 1; i < int(s.Height/step); i++ {
		ph1 := p1
		ph1.Z = s.Z + float64(i)*step
		ph0 := ph1.Sub(r3.Vector{Z: step})
		ph2 := ph0.Add(r3.Vector{X: math.Cos(angle), Y: math.Sin(angle)}.Mul(s.Radius))
		ph3 := ph2.Add(r3.Vector{Z: step})
		angle += math.Pi / 6
		ph4 := ph1.Add(r3.Vector{X: math.Cos(angle), Y: math.Sin(angle)}.Mul(s.Radius))
		nv := len(m.Vertices)
		m.Vertices = append(m.Vertices, ph0, ph1, ph2, ph3, ph1, ph3, ph4)
		m.Triangles = append(m.Triangles,
			[3]int{nv, nv + 2, nv + 1},
			[3]int{nv + 1, nv + 2, nv + 3},
			[3]int{nv + 4, nv + 5, nv + 6})
	}
	m.UpdateNormals()
	m.Header.Material = &mesh.Material{Diffuse: o.color(color.SpiralOrange), TwoSided: true}
	return m
}
