package walker

import (
	"catamesh/pkg/mesh"
	"catamesh/pkg/props"
	"catamesh/pkg/scene"
	"catamesh/pkg/svgpath"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/golang/geo/r3"
)

// StructuralError reports a malformed document structure. It aborts the
// traversal.
type StructuralError struct {
	Node   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %s: %s", e.Node, e.Reason)
}

// Context is the traversal state of one node.
type Context struct {
	Transform   svgpath.Matrix
	Transform3D *svgpath.Matrix3D // nil when the node is flat
	Props       *props.Stack      // ancestor properties
	Item        *props.ItemProperties
	MainGroup   string
	Depth       int
	Parent      *scene.Node
	Out         *mesh.Collection
	Doc         *scene.Document
}

// Layer reports whether the node is a direct child of the root.
func (c *Context) Layer() bool {
	return c.Depth == 1
}

// Handler processes a node in place of the default behaviour.
type Handler func(ctx context.Context, n *scene.Node, c *Context) error

// Action is the decision of a policy for a node. The zero Action selects
// the default behaviour.
type Action struct {
	Handler Handler
	// Cleanup runs once the node and all of its descendants are done.
	Cleanup      []func() error
	SkipChildren bool
}

// Policy classifies nodes. It may replace c.Item and c.MainGroup.
type Policy interface {
	Classify(n *scene.Node, c *Context) Action
}

// ZScaler is implemented by policies that scale heights.
type ZScaler interface {
	ZScale() float64
}

// FirstLayers are visited before their siblings.
var FirstLayers = map[string]bool{
	"metadata":  true,
	"lambert93": true,
}

type Walker struct {
	Policy     Policy
	Classifier *props.Classifier
	// Show lists labels of hidden nodes that are processed anyway.
	Show map[string]bool
	// ShowLayers whitelists every top level layer.
	ShowLayers bool

	open int
}

func New(policy Policy) *Walker {
	return &Walker{
		Policy:     policy,
		Classifier: props.New(nil),
		Show:       map[string]bool{},
	}
}

// work is an entry of the work list: a node to visit, or an exit hook.
type work struct {
	node    *scene.Node
	ctx     *Context
	cleanup []func() error
}

func (w *Walker) zScale() float64 {
	if z, ok := w.Policy.(ZScaler); ok {
		return z.ZScale()
	}
	return 1
}

// Traverse walks the document depth first and returns the collected
// meshes. Per element errors are logged and skipped; structural errors
// abort.
func (w *Walker) Traverse(ctx context.Context, doc *scene.Document, initial svgpath.Matrix) (*mesh.Collection, error) {
	out := mesh.NewCollection()
	w.open = 0
	root := &Context{Transform: initial, Out: out, Doc: doc}
	todo := []work{{node: doc.Root, ctx: root}}
	for len(todo) > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		item := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		if item.node == nil {
			for i := len(item.cleanup) - 1; i >= 0; i-- {
				if err := item.cleanup[i](); err != nil {
					return out, err
				}
			}
			continue
		}
		children, err := w.visit(ctx, item.node, item.ctx)
		if err != nil {
			return out, err
		}
		todo = append(todo, children...)
	}
	if w.open != 0 {
		return out, &StructuralError{Node: doc.Root.ID, Reason: fmt.Sprintf("%d property frames left open", w.open)}
	}
	return out, nil
}

func isStructural(err error) bool {
	var s *StructuralError
	return errors.As(err, &s)
}

// visit processes one node and returns the work to push, in pop order
// reversed (last element is processed first).
func (w *Walker) visit(ctx context.Context, n *scene.Node, parent *Context) ([]work, error) {
	c := *parent
	w.transform(n, &c)

	c.Item = w.Classifier.Classify(n, c.Props)
	c.MainGroup = c.Item.MainGroup
	if c.Layer() && w.ShowLayers {
		if label, ok := n.Label(); ok {
			w.Show[label] = true
		}
	}

	action := w.Policy.Classify(n, &c)
	if action.Handler != nil {
		if err := action.Handler(ctx, n, &c); err != nil {
			if isStructural(err) {
				return nil, err
			}
			log.Printf("%s (%s): %s", n.ID, c.MainGroup, err)
		}
	}

	var next []work
	group := len(n.Children) != 0
	cleanup := action.Cleanup
	if group {
		w.open++
		cleanup = append([]func() error{w.exit}, cleanup...)
	}
	if len(cleanup) != 0 {
		next = append(next, work{cleanup: cleanup})
	}

	if action.Handler == nil {
		label, _ := n.Label()
		if n.Hidden() && !w.Show[label] {
			return next, nil
		}
		switch n.Kind {
		case scene.KindDefs, scene.KindClipPath:
			return next, nil
		case scene.KindPath, scene.KindRect, scene.KindCircle, scene.KindEllipse, scene.KindPolygon:
			w.readGeometry(n, &c)
		case scene.KindText:
			c.Out.AddText(TextGroup(c.MainGroup), ReadText(n, &c))
			return next, nil
		case scene.KindUse:
			return append(next, w.use(n, &c)...), nil
		}
	}
	if action.SkipChildren || !group {
		return next, nil
	}

	childCtx := c
	childCtx.Props = c.Props.Push(c.Item)
	childCtx.Parent = n
	childCtx.Depth = c.Depth + 1
	for _, child := range orderChildren(n.Children) {
		cc := childCtx
		next = append(next, work{node: child, ctx: &cc})
	}
	return next, nil
}

func (w *Walker) exit() error {
	if w.open == 0 {
		return &StructuralError{Reason: "property frame closed twice"}
	}
	w.open--
	return nil
}

// orderChildren returns children in pop order: metadata first.
func orderChildren(children []*scene.Node) []*scene.Node {
	var first, other []*scene.Node
	for _, child := range children {
		label, _ := child.Label()
		if child.Kind == scene.KindMetadata || FirstLayers[label] {
			first = append(first, child)
		} else {
			other = append(other, child)
		}
	}
	ordered := append(first, other...)
	rev := make([]*scene.Node, len(ordered))
	for i, child := range ordered {
		rev[len(ordered)-1-i] = child
	}
	return rev
}

func (w *Walker) transform(n *scene.Node, c *Context) {
	if t := n.Transform(); t != "" {
		m, err := svgpath.ParseTransform(t, c.Transform)
		if err != nil {
			log.Printf("%s: %s", n.ID, err)
		} else {
			c.Transform = m
		}
	}
	t3, has3D := n.LookupAttr("transform_3d")
	shift, hasShift := n.Number("height_shift")
	if !has3D && !hasShift {
		return
	}
	m := svgpath.Identity3D
	if c.Transform3D != nil {
		m = *c.Transform3D
	}
	if has3D {
		center := Bounds(n, c.Transform).Center()
		t, err := svgpath.ParseTransform3D(t3, m, r3.Vector{X: center.X, Y: center.Y})
		if err != nil {
			log.Printf("%s: %s", n.ID, err)
			if !hasShift {
				return
			}
		} else {
			m = t
		}
	}
	if hasShift {
		m = m.Multiply(svgpath.Translation3D(0, 0, shift*w.zScale()))
	}
	c.Transform3D = &m
}

func (w *Walker) readGeometry(n *scene.Node, c *Context) {
	if strings.HasSuffix(c.MainGroup, "_text") {
		return
	}
	m, err := ReadShape(n, c)
	if err != nil {
		log.Printf("skipping %s (%s): %s", n.ID, c.MainGroup, err)
		return
	}
	if c.Item != nil && c.Item.Label == "undefined" {
		log.Printf("geometry %s has no group", n.ID)
	}
	c.Out.Add(c.MainGroup, m)
}

// use expands a reference to another element, placed at x, y.
func (w *Walker) use(n *scene.Node, c *Context) []work {
	href := n.Attr("xlink:href")
	if href == "" {
		href = n.Attr("href")
	}
	if c.Doc == nil {
		return nil
	}
	target, err := c.Doc.Lookup(href)
	if err != nil {
		log.Printf("%s: %s", n.ID, err)
		return nil
	}
	cc := *c
	cc.Transform = svgpath.Compose(c.Transform, svgpath.Matrix{A: 1, D: 1, E: n.Float("x"), F: n.Float("y")})
	cc.Props = c.Props.Push(c.Item)
	cc.Parent = n
	cc.Depth = c.Depth + 1
	return []work{{node: target, ctx: &cc}}
}

// TextGroup is the key under which the texts of a main group are stored.
func TextGroup(group string) string {
	if strings.HasSuffix(group, "_text") {
		return group
	}
	return group + "_text"
}
