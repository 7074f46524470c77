// Package mapmesh builds the 3D meshes of a cataphile map: a walker
// policy classifying the map elements, and the post-processing pipeline
// placing them at depth.
package mapmesh

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/color"
	"catamesh/pkg/depth"
	"catamesh/pkg/features"
	"catamesh/pkg/mesh"
	"catamesh/pkg/props"
	"catamesh/pkg/scene"
	"catamesh/pkg/svgpath"
	"catamesh/pkg/walker"
	"context"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// MapName is the name of the 3D map in visibility lists.
const MapName = "map_3d"

type surface struct {
	depth.Surface
	group string
}

type depthGroup struct {
	positions []r2.Point
	depth     *float64
}

type marker struct {
	kind   string
	text   string
	pos    r2.Point
	level  string
	hshift float64
}

// Policy classifies map elements for the 3D model. Besides the meshes
// stored in the walker collection, it records the depth surfaces of the
// levels, the markers and the map title.
type Policy struct {
	Groups      *props.Groups
	MapName     string
	Scale       float64
	SymbolScale float64
	Titles      []string
	// LockScale ignores the z_scale of the document metadata.
	LockScale bool

	surfaces []*surface
	levels   []string // open depth maps, innermost last
	group    *depthGroup
	markers  []marker
}

func NewPolicy() *Policy {
	return &Policy{
		Groups:      props.NewGroups(),
		MapName:     MapName,
		Scale:       cfg.ZScale,
		SymbolScale: 1,
	}
}

func (p *Policy) ZScale() float64 {
	return p.Scale
}

// Surfaces returns the depth surfaces read so far, in reading order.
func (p *Policy) Surfaces() []depth.Surface {
	var out []depth.Surface
	for _, s := range p.surfaces {
		out = append(out, s.Surface)
	}
	return out
}

func handler(h walker.Handler, skip bool, cleanup ...func() error) walker.Action {
	return walker.Action{Handler: h, SkipChildren: skip, Cleanup: cleanup}
}

func noop(context.Context, *scene.Node, *walker.Context) error {
	return nil
}

var skipAction = handler(noop, true)

// symbolLabels place a marker model at the center of the element.
var symbolLabels = []string{"fontis", "lys", "grande_plaque", "ossuaire", "rose"}

func (p *Policy) Classify(n *scene.Node, c *walker.Context) walker.Action {
	if c.Layer() && n.Kind == scene.KindMetadata {
		return handler(p.readMetadata, true)
	}
	if len(p.levels) != 0 {
		return p.classifyDepth(n, c)
	}

	item, err := p.Groups.Resolve(c.Item)
	if err != nil {
		log.Printf("%s: %s", n.ID, err)
	}
	c.Item = item
	c.MainGroup = item.MainGroup

	if item.Title {
		return handler(p.readTitle, true)
	}
	label := item.Label
	if item.DepthMap {
		return handler(p.startDepthMap, false, p.endDepthMap)
	}
	if item.Marker != "" {
		return handler(p.readMarkers, true)
	}
	if label == "lambert93" {
		return skipAction
	}
	if item.Hidden || !item.VisibleIn(p.MapName) {
		return skipAction
	}
	if item.Well {
		if item.Layer {
			return walker.Action{}
		}
		return handler(p.readWell, item.WellReadMode == "group")
	}
	if !n.IsLayer() {
		switch label {
		case "etiage":
			return handler(p.readWaterScale, true)
		case "stair_symbol":
			return handler(p.readSymbol, true)
		case depth.ArchLabel:
			return handler(p.readArch, true)
		}
		for _, s := range symbolLabels {
			if strings.HasPrefix(label, s) {
				return handler(p.readSymbol, true)
			}
		}
	}
	if item.Arrow && n.Geometry() {
		return handler(p.readArrow, false)
	}
	return walker.Action{}
}

func (p *Policy) readMetadata(_ context.Context, n *scene.Node, c *walker.Context) error {
	if v, ok := n.LookupAttr("z_scale"); ok && !p.LockScale {
		if strings.EqualFold(v, "auto") {
			log.Printf("z_scale %q needs Lambert93 coordinates, keeping %g", v, p.Scale)
		} else if z, err := strconv.ParseFloat(v, 64); err == nil {
			p.Scale = z
		} else {
			log.Printf("invalid z_scale %q: %s", v, err)
		}
	}
	if s, ok := n.Number("symbol_scale"); ok {
		p.SymbolScale = s
	}
	return nil
}

func (p *Policy) readTitle(_ context.Context, n *scene.Node, c *walker.Context) error {
	for _, child := range n.Children {
		if child.Text != "" {
			p.Titles = append(p.Titles, child.Text)
		}
		for _, span := range child.Children {
			if span.Text != "" {
				p.Titles = append(p.Titles, span.Text)
			}
		}
	}
	return nil
}

func (p *Policy) currentSurface() *surface {
	level := p.levels[len(p.levels)-1]
	for _, s := range p.surfaces {
		if s.Level == level {
			return s
		}
	}
	return nil
}

func (p *Policy) startDepthMap(_ context.Context, n *scene.Node, c *walker.Context) error {
	level := c.Item.Level
	p.levels = append(p.levels, level)
	for _, s := range p.surfaces {
		if s.Level == level {
			log.Printf("several depth maps for level %s: %s and %s", level, s.group, c.MainGroup)
			return nil
		}
	}
	m := &mesh.Mesh{}
	m.Header.Material = &mesh.Material{Diffuse: &color.DepthGreen, TwoSided: true}
	p.surfaces = append(p.surfaces, &surface{
		Surface: depth.Surface{
			Level:      level,
			Mesh:       m,
			RelativeTo: c.Item.RelativeTo,
			Inverse:    c.Item.Inverse,
		},
		group: c.MainGroup,
	})
	return nil
}

func (p *Policy) endDepthMap() error {
	if len(p.levels) == 0 {
		return &walker.StructuralError{Reason: "end of a depth map with none open"}
	}
	p.levels = p.levels[:len(p.levels)-1]
	return nil
}

func (p *Policy) classifyDepth(n *scene.Node, c *walker.Context) walker.Action {
	switch n.Kind {
	case scene.KindGroup:
		return handler(p.openDepthGroup, false, p.closeDepthGroup)
	case scene.KindPath:
		return handler(p.readDepthArrow, false)
	case scene.KindText:
		return handler(p.readDepthText, true)
	case scene.KindRect:
		return handler(p.readDepthRect, true)
	}
	log.Printf("unknown depth element %s (%s)", n.ID, n.Tag)
	return skipAction
}

func (p *Policy) openDepthGroup(_ context.Context, n *scene.Node, c *walker.Context) error {
	if p.group != nil {
		return &walker.StructuralError{Node: n.ID, Reason: "nested depth group in " + c.MainGroup}
	}
	p.group = &depthGroup{}
	return nil
}

func (p *Policy) closeDepthGroup() error {
	if p.group == nil {
		return &walker.StructuralError{Reason: "end of a depth group outside of a depth group"}
	}
	g := p.group
	p.group = nil
	if g.depth == nil || len(g.positions) == 0 {
		return nil
	}
	s := p.currentSurface()
	for _, pos := range g.positions {
		s.Mesh.Vertices = append(s.Mesh.Vertices, r3.Vector{X: pos.X, Y: pos.Y, Z: -*g.depth * p.Scale})
	}
	return nil
}

func (p *Policy) readDepthArrow(_ context.Context, n *scene.Node, c *walker.Context) error {
	m, err := walker.ReadShape(n, c)
	if err != nil {
		return err
	}
	if len(m.Vertices) == 0 || p.group == nil {
		return nil
	}
	end := m.Vertices[len(m.Vertices)-1]
	p.group.positions = append(p.group.positions, r2.Point{X: end.X, Y: end.Y})
	return nil
}

var depthRE = regexp.MustCompile(`[0-9.\-]+`)

func (p *Policy) readDepthText(_ context.Context, n *scene.Node, c *walker.Context) error {
	text := n.Text
	var anchor *scene.Node
	for _, child := range n.Children {
		if child.Kind == scene.KindTSpan {
			text += child.Text
			if anchor == nil {
				anchor = child
			}
		}
	}
	match := depthRE.FindString(text)
	if match == "" {
		return nil
	}
	d, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return fmt.Errorf("depth text %q is not a number: %w", text, err)
	}
	if p.group != nil {
		p.group.depth = &d
		return nil
	}
	// a text outside of a group gives the depth at its own position
	src := n
	if _, ok := n.Number("x"); !ok && anchor != nil {
		src = anchor
	}
	x, y := c.Transform.TransformPoint(src.Float("x"), src.Float("y"))
	s := p.currentSurface()
	s.Mesh.Vertices = append(s.Mesh.Vertices, r3.Vector{X: x, Y: y, Z: -d * p.Scale})
	return nil
}

func (p *Policy) readDepthRect(_ context.Context, n *scene.Node, c *walker.Context) error {
	if !c.Item.DepthMap {
		return nil
	}
	x, y := c.Transform.TransformPoint(n.Float("x"), n.Float("y"))
	z := -math.Max(n.Float("width"), n.Float("height")) * 10
	s := p.currentSurface()
	s.Mesh.Vertices = append(s.Mesh.Vertices, r3.Vector{X: x, Y: y, Z: z * p.Scale})
	return nil
}

// childContext is the context of a child node read by a parent handler.
func childContext(c *walker.Context, child *scene.Node) *walker.Context {
	cc := *c
	if t := child.Transform(); t != "" {
		if m, err := svgpath.ParseTransform(t, c.Transform); err == nil {
			cc.Transform = m
		}
	}
	return &cc
}

func (p *Policy) readMarkers(_ context.Context, n *scene.Node, c *walker.Context) error {
	kind := c.Item.Marker
	if c.Item.Private {
		kind += "_private"
	}
	hshift := c.Item.HeightShiftOr(0) * p.Scale
	read := func(text *scene.Node, tc *walker.Context, arrow *r2.Point) {
		t := walker.ReadText(text, tc)
		pos := r2.Point{X: t.Position.X, Y: t.Position.Y}
		if arrow != nil {
			pos = *arrow
		}
		p.markers = append(p.markers, marker{kind: kind, text: t.Text, pos: pos, level: c.Item.Level, hshift: hshift})
	}
	for _, child := range n.Children {
		switch child.Kind {
		case scene.KindText:
			read(child, childContext(c, child), nil)
		case scene.KindGroup:
			gc := childContext(c, child)
			var text *scene.Node
			var arrow *r2.Point
			for _, item := range child.Children {
				switch item.Kind {
				case scene.KindText:
					text = item
				case scene.KindPath:
					if m, err := walker.ReadShape(item, childContext(gc, item)); err == nil && len(m.Vertices) != 0 {
						end := m.Vertices[len(m.Vertices)-1]
						arrow = &r2.Point{X: end.X, Y: end.Y}
					}
				}
			}
			if text == nil {
				log.Printf("marker with no text: %s", child.ID)
				continue
			}
			read(text, childContext(gc, text), arrow)
		}
	}
	return nil
}

// wellSpec reads the footprint of a well from a shape.
// The height shift is added when the well is built.
func (p *Policy) wellSpec(n *scene.Node, c *walker.Context) (mesh.FeatureSpec, error) {
	flat := *c
	flat.Transform3D = nil
	m, err := walker.ReadShape(n, &flat)
	if err != nil {
		return mesh.FeatureSpec{}, err
	}
	if m.Empty() {
		return mesh.FeatureSpec{}, fmt.Errorf("well %s has no vertices", n.ID)
	}
	b := m.Bounds()
	lo, _ := m.ZRange()
	return mesh.FeatureSpec{
		Center: b.Center(),
		Radius: b.X.Length() / 2,
		Z:      lo * p.Scale,
		Height: cfg.WellDefaultHeight * p.Scale,
	}, nil
}

func (p *Policy) readWell(_ context.Context, n *scene.Node, c *walker.Context) error {
	if c.Item.WellReadMode == "group" {
		if len(n.Children) == 0 || n.Children[0].Kind != scene.KindPath {
			return nil
		}
		n, c = n.Children[0], childContext(c, n.Children[0])
	} else {
		switch n.Kind {
		case scene.KindPath, scene.KindRect, scene.KindCircle, scene.KindEllipse:
		default:
			return nil
		}
	}
	s, err := p.wellSpec(n, c)
	if err != nil {
		return err
	}
	c.Out.AddFeature(c.MainGroup, s)
	return nil
}

func (p *Policy) center(n *scene.Node, c *walker.Context) (r2.Rect, r3.Vector) {
	b := walker.Bounds(n, c.Transform)
	ctr := b.Center()
	return b, r3.Vector{X: ctr.X, Y: ctr.Y}
}

func (p *Policy) readWaterScale(_ context.Context, n *scene.Node, c *walker.Context) error {
	_, pos := p.center(n, c)
	pos.Z = 4
	w := features.WaterScale(pos, p.SymbolScale)
	for key, m := range w.Meshes() {
		c.Out.Add(key, m)
		if p.Groups.Get(key) == nil {
			p.Groups.Set(key, c.Item)
		}
	}
	return nil
}

func (p *Policy) readSymbol(_ context.Context, n *scene.Node, c *walker.Context) error {
	_, pos := p.center(n, c)
	pos.Z = c.Item.HeightShiftOr(0) * p.Scale
	var m *mesh.Mesh
	if c.Item.Label == "stair_symbol" {
		m = features.StairSymbol(pos, features.Options{ZScale: p.Scale})
	} else {
		m = features.Marker(c.Item.Label, pos, p.SymbolScale)
	}
	m.Header.Material.TwoSided = true
	c.Out.Add(c.MainGroup, m)
	return nil
}

func (p *Policy) readArch(_ context.Context, n *scene.Node, c *walker.Context) error {
	b, pos := p.center(n, c)
	if b.IsEmpty() {
		return fmt.Errorf("arch %s has no geometry", n.ID)
	}
	size := b.Size()
	c.Out.AddFeature(c.MainGroup, mesh.FeatureSpec{
		Center:    r2.Point{X: pos.X, Y: pos.Y},
		Radius:    math.Max(size.X, size.Y) / 2,
		Height:    3,
		Transform: c.Transform,
	})
	return nil
}

// readArrow reads an arrow line. Its vertices carry their position along
// the line in Z, from 0 to 1, until depths are applied.
func (p *Policy) readArrow(_ context.Context, n *scene.Node, c *walker.Context) error {
	m, err := walker.ReadShape(n, c)
	if err != nil {
		return err
	}
	nv := len(m.Vertices)
	for i := range m.Vertices {
		if nv > 1 {
			m.Vertices[i].Z = float64(i) / float64(nv-1)
		}
	}
	c.Out.Add(c.MainGroup, m)
	return nil
}
