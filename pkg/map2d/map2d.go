// Package map2d builds cleaned 2D maps from a map document: private,
// hidden and depth map groups are dropped, and the remaining lines are
// joined and simplified.
package map2d

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/geometry"
	"catamesh/pkg/mesh"
	"catamesh/pkg/props"
	"catamesh/pkg/scene"
	"catamesh/pkg/svgpath"
	"catamesh/pkg/walker"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
)

// Map variants.
const (
	Public  = "public"
	Private = "private"
)

// Line is a polyline, or a polygon when Closed. Closed lines do not
// repeat their first point.
type Line struct {
	Points []r2.Point
	Closed bool
	Style  string
}

func (l *Line) end(start bool) r2.Point {
	if start {
		return l.Points[0]
	}
	return l.Points[len(l.Points)-1]
}

// Layer is the content of one main group.
type Layer struct {
	Group string
	Lines []*Line
	Texts []*mesh.TextObject
}

// Map is a cleaned 2D map.
type Map struct {
	Layers []*Layer
	Bounds r2.Rect
	Title  string
}

// Policy selects the elements of a 2D map variant.
type Policy struct {
	Variant string
	Groups  *props.Groups
	Tables  *props.Tables

	layers map[string]*Layer
	m      *Map
}

func NewPolicy(variant string) (*Policy, error) {
	switch variant {
	case Public, Private:
	default:
		return nil, fmt.Errorf("unknown map variant %q", variant)
	}
	return &Policy{Variant: variant, Groups: props.NewGroups()}, nil
}

// MapName is the name of the variant in visibility lists.
func (p *Policy) MapName() string {
	return "map_2d_" + p.Variant
}

func (p *Policy) Classify(n *scene.Node, c *walker.Context) walker.Action {
	if n.Kind == scene.KindMetadata {
		return walker.Action{Handler: noop, SkipChildren: true}
	}
	item, err := p.Groups.Resolve(c.Item)
	if err != nil {
		log.Printf("%s: %s", n.ID, err)
	}
	c.Item = item
	c.MainGroup = item.MainGroup

	if item.DepthMap || !item.VisibleIn(p.MapName()) || (item.Private && p.Variant == Public) {
		return walker.Action{Handler: noop, SkipChildren: true}
	}
	if n.Hidden() {
		return walker.Action{Handler: noop, SkipChildren: true}
	}
	switch {
	case n.Kind == scene.KindText:
		return walker.Action{Handler: p.readText, SkipChildren: true}
	case n.Geometry():
		return walker.Action{Handler: p.readShape}
	}
	return walker.Action{}
}

func noop(context.Context, *scene.Node, *walker.Context) error {
	return nil
}

func (p *Policy) layer(group string) *Layer {
	l, ok := p.layers[group]
	if !ok {
		l = &Layer{Group: group}
		p.layers[group] = l
		p.m.Layers = append(p.m.Layers, l)
	}
	return l
}

func (p *Policy) readText(_ context.Context, n *scene.Node, c *walker.Context) error {
	t := walker.ReadText(n, c)
	title := c.Item.Title || (c.Props.Top() != nil && c.Props.Top().Title)
	if title && p.m.Title == "" {
		p.m.Title = t.Text
	}
	l := p.layer(walker.TextGroup(c.MainGroup))
	l.Texts = append(l.Texts, t)
	p.m.Bounds = p.m.Bounds.AddPoint(r2.Point{X: t.Position.X, Y: t.Position.Y})
	return nil
}

func (p *Policy) readShape(_ context.Context, n *scene.Node, c *walker.Context) error {
	m, err := walker.ReadShape(n, c)
	if err != nil {
		return err
	}
	style := cleanStyle(n, c.Transform)
	l := p.layer(c.MainGroup)
	for _, chain := range mesh.Chains(m) {
		line := &Line{Style: style}
		for _, i := range chain {
			line.Points = append(line.Points, r2.Point{X: m.Vertices[i].X, Y: m.Vertices[i].Y})
		}
		if len(chain) > 2 && chain[0] == chain[len(chain)-1] {
			line.Closed = true
			line.Points = line.Points[:len(line.Points)-1]
		}
		if !keepLine(line) {
			continue
		}
		l.Lines = append(l.Lines, line)
		for _, pt := range line.Points {
			p.m.Bounds = p.m.Bounds.AddPoint(pt)
		}
	}
	return nil
}

// keepLine drops dots: lines that start and stop at the same point.
func keepLine(l *Line) bool {
	for _, pt := range l.Points[1:] {
		if pt != l.Points[0] {
			return true
		}
	}
	return false
}

// styleNames are the style properties kept in the output, in order.
var styleNames = []string{
	"fill", "fill-opacity", "stroke", "stroke-opacity", "stroke-width",
	"stroke-dasharray", "stroke-linecap", "stroke-linejoin", "opacity",
}

// cleanStyle keeps the drawing properties of a node. The stroke width is
// scaled to the map frame.
func cleanStyle(n *scene.Node, m svgpath.Matrix) string {
	var parts []string
	for _, name := range styleNames {
		v := n.Style(name)
		if v == "" {
			continue
		}
		if name == "stroke-width" {
			if w, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
				v = strconv.FormatFloat(w*m.UniformScale(), 'g', 4, 64)
			}
		}
		parts = append(parts, name+":"+v)
	}
	if n.Style("fill") == "" {
		parts = append([]string{"fill:none"}, parts...)
	}
	return strings.Join(parts, ";")
}

// Build walks doc and returns the cleaned map of the policy variant.
func (p *Policy) Build(ctx context.Context, doc *scene.Document) (*Map, error) {
	p.layers = map[string]*Layer{}
	p.m = &Map{Bounds: r2.EmptyRect()}
	w := walker.New(p)
	if p.Tables != nil {
		w.Classifier = props.New(p.Tables)
	}
	if _, err := w.Traverse(ctx, doc, svgpath.Identity); err != nil {
		return nil, err
	}
	m := p.m
	for _, l := range m.Layers {
		l.Lines = Join(l.Lines, cfg.SimplifyTolerance)
		for _, line := range l.Lines {
			if line.Closed {
				line.Points = geometry.SimplifyRing(line.Points, cfg.SimplifyTolerance)
			} else {
				line.Points = geometry.Simplify(line.Points, cfg.SimplifyTolerance)
			}
		}
	}
	return m, nil
}
