package mesh

import (
	"catamesh/pkg/color"
	"catamesh/pkg/svgpath"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// TextObject is a text item placed in 3D.
type TextObject struct {
	Text     string
	Lines    int
	Position r3.Vector
	Size     r2.Point // estimated width and height
	FontSize float64  // pt, clamped
	Scale    float64  // size excess over the clamped font size
	Color    color.RGBA
	Anchor   string
	Level    string
}

// FeatureSpec places a procedural feature: its 2D footprint center and
// radius, base Z and height. Transform is the 2D placement of the source
// element, used by features that scale with it.
type FeatureSpec struct {
	Center    r2.Point
	Radius    float64
	Z         float64
	Height    float64
	Transform svgpath.Matrix
}

// Group is the content accumulated under a main group key.
type Group struct {
	Meshes   []*Mesh
	Texts    []*TextObject
	Features []FeatureSpec
}

// Collection maps main group keys to their content, keeping the order in
// which keys were created.
type Collection struct {
	keys   []string
	groups map[string]*Group
}

func NewCollection() *Collection {
	return &Collection{groups: map[string]*Group{}}
}

// Group returns the group for key, creating it when missing.
func (c *Collection) Group(key string) *Group {
	g, ok := c.groups[key]
	if !ok {
		g = &Group{}
		c.groups[key] = g
		c.keys = append(c.keys, key)
	}
	return g
}

// Lookup returns the group for key without creating it.
func (c *Collection) Lookup(key string) (*Group, bool) {
	g, ok := c.groups[key]
	return g, ok
}

// Keys lists the group keys in creation order.
func (c *Collection) Keys() []string {
	return append([]string(nil), c.keys...)
}

func (c *Collection) Len() int {
	return len(c.keys)
}

func (c *Collection) Delete(key string) {
	if _, ok := c.groups[key]; !ok {
		return
	}
	delete(c.groups, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Add appends a mesh to a group. Empty meshes are dropped.
func (c *Collection) Add(key string, m *Mesh) {
	if m == nil || m.Empty() {
		return
	}
	g := c.Group(key)
	g.Meshes = append(g.Meshes, m)
}

func (c *Collection) AddText(key string, t *TextObject) {
	g := c.Group(key)
	g.Texts = append(g.Texts, t)
}

func (c *Collection) AddFeature(key string, f FeatureSpec) {
	g := c.Group(key)
	g.Features = append(g.Features, f)
}

// Meshes returns the meshes of a group, or nil.
func (c *Collection) Meshes(key string) []*Mesh {
	if g, ok := c.groups[key]; ok {
		return g.Meshes
	}
	return nil
}

// MergeGroups merges the meshes of every group, per polygon dimension.
func (c *Collection) MergeGroups() {
	for _, k := range c.keys {
		g := c.groups[k]
		if len(g.Meshes) > 1 {
			g.Meshes = MergeAll(g.Meshes)
		}
	}
}

// Validate checks every mesh of the collection.
func (c *Collection) Validate() error {
	for _, k := range c.keys {
		for i, m := range c.groups[k].Meshes {
			if m.Empty() {
				return fmt.Errorf("group %s: mesh %d is empty", k, i)
			}
			if err := m.Validate(); err != nil {
				return fmt.Errorf("group %s: mesh %d: %w", k, i, err)
			}
		}
	}
	return nil
}
