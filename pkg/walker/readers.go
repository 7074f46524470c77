package walker

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/color"
	"catamesh/pkg/mesh"
	"catamesh/pkg/scene"
	"catamesh/pkg/svgpath"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Outline reads the untransformed geometry of a shape node. A path with a
// syntax error returns what could be read along with the error.
func Outline(n *scene.Node) (*svgpath.Outline, error) {
	switch n.Kind {
	case scene.KindPath:
		if n.Attr("sodipodi:type") == "arc" {
			return ellipse(n), nil
		}
		return svgpath.Parse(n.Attr("d"))
	case scene.KindRect:
		return svgpath.Rect(n.Float("x"), n.Float("y"), n.Float("width"), n.Float("height")), nil
	case scene.KindCircle, scene.KindEllipse:
		return ellipse(n), nil
	case scene.KindPolygon:
		return svgpath.Polygon(n.Attr("points"))
	}
	return nil, fmt.Errorf("%s is not a shape", n.Tag)
}

func ellipse(n *scene.Node) *svgpath.Outline {
	cx := n.Float("cx", "sodipodi:cx")
	cy := n.Float("cy", "sodipodi:cy")
	rx := n.Float("r", "sodipodi:rx", "rx")
	ry := rx
	if n.Kind == scene.KindEllipse || n.Kind == scene.KindPath {
		if r, ok := n.Number("ry"); ok {
			ry = r
		} else if r, ok := n.Number("sodipodi:ry"); ok {
			ry = r
		}
	}
	start, end := 0., 2*math.Pi
	if a, ok := n.Number("sodipodi:start"); ok {
		start = a
	}
	if a, ok := n.Number("sodipodi:end"); ok {
		end = a
	}
	return svgpath.Ellipse(cx, cy, rx, ry, start, end, cfg.CirclePoints)
}

// Material builds the mesh material of a node from its fill and stroke.
// It returns nil when no color is set.
func Material(n *scene.Node) *mesh.Material {
	fill, stroke := n.Colors()
	if fill == nil && stroke == nil {
		return nil
	}
	return &mesh.Material{Diffuse: fill, BorderColor: stroke}
}

// ReadShape reads a shape node as a line mesh placed by the transforms of
// c.
func ReadShape(n *scene.Node, c *Context) (*mesh.Mesh, error) {
	o, err := Outline(n)
	if err != nil {
		return nil, err
	}
	o.Transform(c.Transform)
	m := mesh.FromOutline(o)
	m.Header.Material = Material(n)
	if c.Transform3D != nil {
		m.Transform(*c.Transform3D)
		t := *c.Transform3D
		m.Header.Transformation = &t
	}
	return m, nil
}

// Bounds is the bounding box of the shapes of a subtree, in the frame
// given by m.
func Bounds(n *scene.Node, m svgpath.Matrix) r2.Rect {
	type item struct {
		node *scene.Node
		m    svgpath.Matrix
	}
	r := r2.EmptyRect()
	todo := []item{{n, m}}
	for len(todo) > 0 {
		it := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		t := it.m
		if it.node != n && it.node.Transform() != "" {
			if tm, err := svgpath.ParseTransform(it.node.Transform(), t); err == nil {
				t = tm
			}
		}
		if it.node.Geometry() {
			if o, _ := Outline(it.node); o != nil {
				o.Transform(t)
				for _, v := range o.Vertices {
					r = r.AddPoint(v)
				}
			}
		}
		for _, child := range it.node.Children {
			todo = append(todo, item{child, t})
		}
	}
	return r
}

var fontSizeRE = regexp.MustCompile(`^\s*([-+0-9.eE]+)\s*([a-zA-Z%]*)\s*$`)

// fontSize converts a font-size style to points, through the transform.
func fontSize(style string, m svgpath.Matrix) (float64, bool) {
	match := fontSizeRE.FindStringSubmatch(style)
	if match == nil {
		return 0, false
	}
	size, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	x, y := m.TransformVector(0, size)
	size = math.Hypot(x, y)
	return size * scene.UnitScale(match[2]) / scene.UnitScale("pt"), true
}

func textLines(n *scene.Node) []string {
	var lines []string
	if n.Text != "" {
		lines = append(lines, n.Text)
	}
	for _, child := range n.Children {
		if child.Kind == scene.KindTSpan {
			lines = append(lines, child.Text)
		}
	}
	return lines
}

// ReadText builds the text object of a text node and its tspans.
func ReadText(n *scene.Node, c *Context) *mesh.TextObject {
	lines := textLines(n)
	t := &mesh.TextObject{
		Text:     strings.Join(lines, "\n"),
		Lines:    len(lines),
		FontSize: cfg.MinFontSize,
		Scale:    1,
		Color:    color.Grey,
		Anchor:   n.Style("text-anchor"),
	}
	if c.Item != nil {
		t.Level = c.Item.Level
	}

	styled := n
	if n.Style("font-size") == "" && len(n.Children) != 0 {
		styled = n.Children[0]
	}
	if size, ok := fontSize(styled.Style("font-size"), c.Transform); ok {
		switch {
		case size < cfg.MinFontSize:
			t.Scale = size / cfg.MinFontSize
			size = cfg.MinFontSize
		case size > cfg.MaxFontSize:
			t.Scale = size / cfg.MaxFontSize
			size = cfg.MaxFontSize
		}
		t.FontSize = size
	}
	if t.Anchor == "" {
		t.Anchor = styled.Style("text-anchor")
	}
	if fill := styled.Style("fill"); fill != "" && fill != "none" {
		if col, err := color.Parse(fill, 1); err == nil {
			t.Color = col.Readable()
		}
	}

	anchor := n
	if _, ok := n.Number("x"); !ok {
		for _, child := range n.Children {
			if _, ok := child.Number("x"); ok {
				anchor = child
				break
			}
		}
	}
	x, y := c.Transform.TransformPoint(anchor.Float("x"), anchor.Float("y"))
	t.Position = r3.Vector{X: x, Y: y, Z: cfg.TextZ}

	fscale := 2.12 * t.FontSize
	longest := 0
	for _, l := range lines {
		if len([]rune(l)) > longest {
			longest = len([]rune(l))
		}
	}
	t.Size = r2.Point{X: float64(longest) * fscale / 2.5, Y: float64(len(lines)) * fscale}
	return t
}
