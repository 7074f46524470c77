package scene

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

type Kind int

const (
	KindOther Kind = iota
	KindGroup
	KindPath
	KindRect
	KindCircle
	KindEllipse
	KindPolygon
	KindText
	KindTSpan
	KindUse
	KindMetadata
	KindDefs
	KindClipPath
)

var kinds = map[string]Kind{
	"svg":      KindGroup,
	"g":        KindGroup,
	"path":     KindPath,
	"rect":     KindRect,
	"circle":   KindCircle,
	"ellipse":  KindEllipse,
	"polygon":  KindPolygon,
	"text":     KindText,
	"tspan":    KindTSpan,
	"use":      KindUse,
	"metadata": KindMetadata,
	"defs":     KindDefs,
	"clipPath": KindClipPath,
}

// Node is an element of the input document. Nodes are not modified once
// parsed.
type Node struct {
	Tag      string
	Kind     Kind
	ID       string
	Attrs    map[string]string // namespaced attributes keep their prefix, e.g. "inkscape:label"
	Text     string
	Children []*Node

	style map[string]string
}

// MissingTransformTarget is returned when a referenced element does not
// exist in the document.
type MissingTransformTarget struct {
	ID string
}

func (e *MissingTransformTarget) Error() string {
	return fmt.Sprintf("referenced element %q not found", e.ID)
}

// Document is a parsed drawing with an id index.
type Document struct {
	Root   *Node
	Width  float64 // px
	Height float64 // px
	byID   map[string]*Node
}

// Parse reads an SVG document.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return fromTree(doc)
}

// Load reads an SVG document from r.
func Load(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	return fromTree(doc)
}

func fromTree(doc *etree.Document) (*Document, error) {
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	d := &Document{byID: map[string]*Node{}}
	d.Root = d.convert(root)
	d.Width = ParseLength(d.Root.Attr("width"))
	d.Height = ParseLength(d.Root.Attr("height"))
	return d, nil
}

func (d *Document) convert(el *etree.Element) *Node {
	n := &Node{
		Tag:   el.Tag,
		Kind:  kinds[el.Tag],
		Attrs: map[string]string{},
		Text:  strings.TrimSpace(el.Text()),
	}
	for _, attr := range el.Attr {
		key := attr.Key
		if attr.Space != "" && attr.Space != "xmlns" {
			key = attr.Space + ":" + attr.Key
		}
		n.Attrs[key] = attr.Value
	}
	n.ID = n.Attrs["id"]
	if n.ID != "" {
		d.byID[n.ID] = n
	}
	n.style = parseStyle(n.Attrs["style"])
	for _, child := range el.ChildElements() {
		n.Children = append(n.Children, d.convert(child))
	}
	return n
}

// Lookup finds an element by id.
func (d *Document) Lookup(id string) (*Node, error) {
	id = strings.TrimPrefix(id, "#")
	if n, ok := d.byID[id]; ok {
		return n, nil
	}
	return nil, &MissingTransformTarget{ID: id}
}

// Attr returns an attribute value, or "" if absent.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// LookupAttr returns an attribute value and whether it is present.
func (n *Node) LookupAttr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Number parses a numeric attribute. Missing or malformed values give
// ok = false.
func (n *Node) Number(name string) (float64, bool) {
	v, ok := n.Attrs[name]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Float returns the first present numeric attribute among names, or 0.
func (n *Node) Float(names ...string) float64 {
	for _, name := range names {
		if f, ok := n.Number(name); ok {
			return f
		}
	}
	return 0
}

// Label is the human label of the node: the "label" attribute, or the
// inkscape one. ok is false when the node has none.
func (n *Node) Label() (string, bool) {
	if l, ok := n.Attrs["label"]; ok {
		return l, true
	}
	l, ok := n.Attrs["inkscape:label"]
	return l, ok
}

// IsLayer reports whether the node is an inkscape layer.
func (n *Node) IsLayer() bool {
	return n.Attrs["inkscape:groupmode"] == "layer"
}

// Transform is the transform attribute, "" if absent.
func (n *Node) Transform() string {
	return n.Attrs["transform"]
}

// Hidden reports "display:none" nodes.
func (n *Node) Hidden() bool {
	return n.Style("display") == "none"
}

// Geometry reports whether the node directly carries a shape.
func (n *Node) Geometry() bool {
	switch n.Kind {
	case KindPath, KindRect, KindCircle, KindEllipse, KindPolygon:
		return true
	}
	return false
}

var lengthRE = regexp.MustCompile(`^\s*([-+0-9.eE]+)\s*([a-zA-Z%]*)\s*$`)

// unitScale converts lengths to px, as defined at
// https://www.w3.org/TR/css3-values/#absolute-lengths
var unitScale = map[string]float64{
	"":   1,
	"px": 1,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"Q":  96 / 25.4 / 4,
	"in": 96,
	"pt": 1 / 0.75,
	"pc": 16,
}

// UnitScale returns the px size of one unit, 1 for unknown units.
func UnitScale(unit string) float64 {
	if f, ok := unitScale[unit]; ok {
		return f
	}
	return 1
}

// ParseLength reads a length with an optional unit, in px.
func ParseLength(s string) float64 {
	m := lengthRE.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v * UnitScale(m[2])
}
