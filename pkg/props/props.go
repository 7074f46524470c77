package props

import (
	"catamesh/pkg/scene"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Tri is a tri-state answer to "is this node of kind X".
type Tri int

const (
	Unknown Tri = iota
	No
	Yes
)

func (t Tri) apply(b *bool) {
	switch t {
	case Yes:
		*b = true
	case No:
		*b = false
	}
}

// ItemProperties is the classification of a node. A zero value is not
// meaningful; use Classify.
type ItemProperties struct {
	Name      string
	Label     string
	EID       string
	MainGroup string

	Level      string
	UpperLevel string

	Private      bool
	Inaccessible bool

	Corridor bool
	Block    bool
	Wall     bool
	Symbol   bool
	Arrow    bool
	Text     bool
	Well     bool
	CatFlap  bool
	Hidden   bool
	DepthMap bool
	Border   bool
	Sound    bool

	Height               *float64
	HeightShift          *float64
	ArrowBaseHeightShift *float64

	Category      string
	WellReadMode  string
	Marker        string
	Visibility    []string
	NonVisibility []string
	RelativeTo    string
	Inverse       bool
	UseHeightMap  string
	ContrastFloor *bool // nil means "if no texture"
	// Textures by binding attribute, see TextureParts. The whole set is
	// inherited from the nearest element declaring any of them.
	Textures map[string]*Texture

	Layer bool // not inherited
	Title bool // not inherited
}

// HeightOr returns the height, or def when unset.
func (p *ItemProperties) HeightOr(def float64) float64 {
	if p.Height == nil {
		return def
	}
	return *p.Height
}

// HeightShiftOr returns the height shift, or def when unset.
func (p *ItemProperties) HeightShiftOr(def float64) float64 {
	if p.HeightShift == nil {
		return def
	}
	return *p.HeightShift
}

// Texture returns the texture bound to part, one of TextureParts,
// falling back to the default "texture" binding.
func (p *ItemProperties) Texture(part string) *Texture {
	if t := p.Textures[part]; t != nil {
		return t
	}
	return p.Textures["texture"]
}

// VisibleIn reports whether the item is drawn in the named map variant.
func (p *ItemProperties) VisibleIn(mapName string) bool {
	if p.Hidden {
		return false
	}
	if p.Visibility != nil && !contains(p.Visibility, mapName) {
		return false
	}
	return !contains(p.NonVisibility, mapName)
}

// Flags lists the category flags that are set, in a fixed order.
func (p *ItemProperties) Flags() []string {
	var flags []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"corridor", p.Corridor},
		{"block", p.Block},
		{"wall", p.Wall},
		{"symbol", p.Symbol},
		{"arrow", p.Arrow},
		{"text", p.Text},
		{"well", p.Well},
		{"catflap", p.CatFlap},
		{"hidden", p.Hidden},
		{"depth_map", p.DepthMap},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	return flags
}

func (p *ItemProperties) clone() *ItemProperties {
	c := *p
	c.Layer = false
	c.Title = false
	return &c
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// Texture binds the image element ID to a mesh part. Params holds the
// remaining keys of the binding, such as "mapping_method".
type Texture struct {
	ID     string
	Params map[string]interface{}
}

// TextureParts are the texture binding attributes. "texture" is the
// default of the others.
var TextureParts = []string{"texture", "wall_texture", "floor_texture", "ceil_texture"}

// textures reads the JSON texture bindings of n. The result is false
// when n declares no valid binding.
func textures(n *scene.Node) (map[string]*Texture, bool) {
	var out map[string]*Texture
	for _, part := range TextureParts {
		v, ok := n.LookupAttr(part)
		if !ok {
			continue
		}
		var def map[string]interface{}
		if err := json.Unmarshal([]byte(v), &def); err != nil {
			log.Printf("%s: invalid %s %q: %s", n.ID, part, v, err)
			continue
		}
		id, _ := def["id"].(string)
		if id == "" {
			log.Printf("%s: %s has no image id", n.ID, part)
			continue
		}
		for _, k := range []string{"id", "label", "layer"} {
			delete(def, k)
		}
		if out == nil {
			out = map[string]*Texture{}
		}
		out[part] = &Texture{ID: id, Params: def}
	}
	return out, out != nil
}

// Stack is an immutable stack of ancestor properties. The nil *Stack is
// the empty stack.
type Stack struct {
	top    *ItemProperties
	parent *Stack
	n      int
}

// Push returns a new stack with p on top. s is left unchanged.
func (s *Stack) Push(p *ItemProperties) *Stack {
	return &Stack{top: p, parent: s, n: s.Len() + 1}
}

// Pop returns the stack without its top frame.
func (s *Stack) Pop() *Stack {
	if s == nil {
		return nil
	}
	return s.parent
}

// Top returns the nearest ancestor properties, or nil.
func (s *Stack) Top() *ItemProperties {
	if s == nil {
		return nil
	}
	return s.top
}

func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return s.n
}

// ClassificationConflict reports a main group seen with different category
// flags across its fragments.
type ClassificationConflict struct {
	Group    string
	Previous []string
	Current  []string
}

func (e *ClassificationConflict) Error() string {
	return fmt.Sprintf("group %s: classification %v conflicts with %v",
		e.Group, e.Current, e.Previous)
}

// Classifier derives ItemProperties from nodes.
type Classifier struct {
	Tables *Tables
}

// New returns a classifier using tables, or DefaultTables when nil.
func New(tables *Tables) *Classifier {
	if tables == nil {
		tables = DefaultTables
	}
	return &Classifier{Tables: tables}
}

// Classify derives the properties of a node from its ancestors.
func Classify(n *scene.Node, parents *Stack) *ItemProperties {
	return New(nil).Classify(n, parents)
}

func isTrue(v string) bool {
	switch v {
	case "1", "True", "true", "TRUE":
		return true
	}
	return false
}

func parseList(v string) []string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") {
		var list []string
		if err := json.Unmarshal([]byte(v), &list); err != nil {
			log.Printf("invalid list %q: %s", v, err)
			return nil
		}
		return list
	}
	return []string{v}
}

func float(n *scene.Node, name string) (*float64, bool) {
	v, ok := n.LookupAttr(name)
	if !ok {
		return nil, false
	}
	if v == "None" {
		f := 0.
		return &f, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("invalid %s %q: %s", name, v, err)
		return nil, false
	}
	return &f, true
}

// Classify derives the properties of n. The top of parents is copied and
// then overridden by the node's own attributes and label.
func (c *Classifier) Classify(n *scene.Node, parents *Stack) *ItemProperties {
	t := c.Tables
	var p *ItemProperties
	if top := parents.Top(); top != nil {
		p = top.clone()
	} else {
		yes := true
		p = &ItemProperties{ContrastFloor: &yes}
	}
	if n == nil {
		return p
	}

	if n.ID != "" {
		p.EID = n.ID
		if p.Name == "" {
			p.Name = n.ID
		}
	}

	for _, attr := range []struct {
		name string
		dst  *string
	}{
		{"level", &p.Level},
		{"upper_level", &p.UpperLevel},
		{"category", &p.Category},
		{"well_read_mode", &p.WellReadMode},
		{"marker", &p.Marker},
		{"use_height_map", &p.UseHeightMap},
	} {
		if v, ok := n.LookupAttr(attr.name); ok {
			*attr.dst = v
		}
	}
	if v, ok := n.LookupAttr("private"); ok {
		p.Private = isTrue(v) || v == "private"
	}
	if v, ok := n.LookupAttr("inaccessible"); ok {
		p.Inaccessible = isTrue(v) || v == "inaccessible"
	}
	if p.Marker == "sounds" {
		p.Sound = true
	}

	if v, ok := n.LookupAttr("visibility"); ok {
		vis := parseList(v)
		var rest []string
		for _, name := range vis {
			if name == "private" {
				p.Private = true
			} else {
				rest = append(rest, name)
			}
		}
		p.Visibility = rest
	}
	if v, ok := n.LookupAttr("non_visibility"); ok {
		p.NonVisibility = parseList(v)
	}

	label, hasLabel := n.Label()
	decoded := label
	if hasLabel {
		decoded, _ = c.decode(n, label, true)
	}
	for _, kind := range []struct {
		name   string
		labels map[string]bool
		dst    *bool
	}{
		{"corridor", t.Corridor, &p.Corridor},
		{"block", t.Block, &p.Block},
		{"wall", t.Wall, &p.Wall},
		{"symbol", t.Symbol, &p.Symbol},
		{"well", t.Well, &p.Well},
		{"catflap", t.CatFlap, &p.CatFlap},
		{"hidden", t.Hidden, &p.Hidden},
		{"depth_map", t.DepthMap, &p.DepthMap},
		{"arrow", nil, &p.Arrow},
		{"text", nil, &p.Text},
		{"border", nil, &p.Border},
		{"sound", nil, &p.Sound},
	} {
		listed(n, kind.name, kind.labels, hasLabel, decoded).apply(kind.dst)
	}
	if _, explicit := n.LookupAttr("symbol"); hasLabel && !explicit {
		for _, prefix := range t.SymbolPrefixes {
			if strings.HasPrefix(decoded, prefix) {
				p.Symbol = true
			}
		}
	}

	if v, ok := n.LookupAttr("height_map"); ok && isTrue(v) {
		p.DepthMap = true
		p.Inverse = true
	}
	relativeTo, hasRelative := n.LookupAttr("relative_to")
	if _, explicit := n.LookupAttr("depth_map"); p.DepthMap && explicit && !hasRelative {
		relativeTo, hasRelative = t.GroundLevel, true
	}
	if hasRelative {
		if relativeTo == "none" || relativeTo == "None" {
			relativeTo = ""
		}
		p.RelativeTo = relativeTo
	}
	if v, ok := n.LookupAttr("inverse"); ok {
		p.Inverse = isTrue(v)
	}
	if v, ok := n.LookupAttr("contrast_floor"); ok {
		var cf *bool
		if v != "if_no_tex" {
			b := isTrue(v)
			cf = &b
		}
		p.ContrastFloor = cf
	}

	if tex, ok := textures(n); ok {
		p.Textures = tex
	}

	if n.Kind == scene.KindText {
		p.Text = true
	}

	// Label suffixes are ambiguous inside depth maps, where labels are
	// level names.
	if hasLabel {
		decoded, found := c.decode(n, label, !p.DepthMap)
		for prop, value := range found {
			switch prop {
			case "level":
				p.Level = value
			case "private":
				p.Private = true
			case "inaccessible":
				p.Inaccessible = true
			}
		}
		p.Label = decoded
		p.Name = decoded
	}

	p.Height = c.height(n, p)
	p.HeightShift = c.heightShift(n, p)
	if f, ok := float(n, "arrow_base_height_shift"); ok {
		p.ArrowBaseHeightShift = f
	}

	if p.Level == "" {
		p.Level = t.Level
	}
	if p.UpperLevel == "" {
		p.UpperLevel = t.UpperLevel
	}

	p.MainGroup = mainGroup(p)
	p.Layer = n.IsLayer()
	p.Title = isTrue(n.Attr("title"))

	if p.Well && p.WellReadMode == "" {
		p.WellReadMode = t.WellReadModes[p.Label]
	}
	if p.Text && p.Block {
		p.Block = false
	}
	return p
}

func mainGroup(p *ItemProperties) string {
	if p.Label == "" {
		p.Label = "undefined"
	}
	access := "public"
	if p.Private {
		access = "private"
	}
	reach := "accessible"
	if p.Inaccessible {
		reach = "inaccessible"
	}
	tags := []string{p.Label, p.Level, access, reach}
	if p.Category != "" {
		tags = append(tags, p.Category)
	}
	if p.Text {
		tags = append(tags, "text")
	}
	return strings.Join(tags, "_")
}

// listed resolves a category flag: explicit attribute first, then label
// set membership, else Unknown.
func listed(n *scene.Node, kind string, labels map[string]bool, hasLabel bool, label string) Tri {
	if v, ok := n.LookupAttr(kind); ok {
		if isTrue(v) || v == kind {
			return Yes
		}
		return No
	}
	if hasLabel && labels[label] {
		return Yes
	}
	return Unknown
}

func (c *Classifier) decode(n *scene.Node, label string, useSuffix bool) (string, map[string]string) {
	if !useSuffix {
		return label, nil
	}
	return DecodeLabel(label, c.Tables, func(prop string) bool {
		_, ok := n.LookupAttr(prop)
		return ok
	})
}

// DecodeLabel strips the property words of a label. explicit reports
// properties set directly on the element; their words are left alone.
// The returned map holds the property values found.
func DecodeLabel(label string, t *Tables, explicit func(prop string) bool) (string, map[string]string) {
	found := map[string]string{}
	for _, s := range t.Suffixes {
		if explicit != nil && explicit(s.Property) {
			continue
		}
		stripped := RemoveWord(label, s.Word)
		if stripped != label || stripped == s.Word {
			value := s.Word
			if alias, ok := t.Aliases[s.Word]; ok {
				value = alias
			}
			found[s.Property] = value
		}
		label = stripped
	}
	return label, found
}

// RemoveWord removes word from label when it appears as a separate token
// (separated by spaces or underscores). A label equal to word is kept.
func RemoveWord(label, word string) string {
	if label == word {
		return label
	}
	if strings.HasSuffix(label, " "+word) || strings.HasSuffix(label, "_"+word) {
		return label[:len(label)-len(word)-1]
	}
	for _, pattern := range []string{" %s ", " %s_", "_%s ", "_%s_"} {
		p := fmt.Sprintf(pattern, word)
		if strings.Contains(label, p) {
			return strings.ReplaceAll(label, p, p[len(p)-1:])
		}
	}
	return label
}

func (p *ItemProperties) typeSet(name string) bool {
	switch name {
	case "corridor":
		return p.Corridor
	case "block":
		return p.Block
	case "symbol":
		return p.Symbol
	case "wall":
		return p.Wall
	case "well":
		return p.Well
	}
	return false
}

// height resolves item_height, then the inherited value, then the type
// and name tables.
func (c *Classifier) height(n *scene.Node, p *ItemProperties) *float64 {
	return c.resolve(n, "item_height", p.Height, p, c.Tables.TypeHeights, c.Tables.Heights)
}

func (c *Classifier) heightShift(n *scene.Node, p *ItemProperties) *float64 {
	return c.resolve(n, "height_shift", p.HeightShift, p, c.Tables.TypeHeightShifts, c.Tables.HeightShifts)
}

func (c *Classifier) resolve(n *scene.Node, attr string, inherited *float64, p *ItemProperties,
	types []TypeValue, names map[string]float64) *float64 {
	if f, ok := float(n, attr); ok {
		return f
	}
	if inherited != nil {
		return inherited
	}
	var value *float64
	for _, tv := range types {
		if p.typeSet(tv.Type) {
			v := tv.Value
			value = &v
		}
	}
	if v, ok := names[p.Name]; ok {
		value = &v
	}
	return value
}

// Groups keeps the first seen properties of each main group and reports
// conflicting fragments.
type Groups struct {
	props map[string]*ItemProperties
}

func NewGroups() *Groups {
	return &Groups{props: map[string]*ItemProperties{}}
}

// Get returns the properties recorded for a main group, or nil.
func (g *Groups) Get(group string) *ItemProperties {
	return g.props[group]
}

// Set records the properties of a derived group, such as the walls or
// the ceiling of a corridor group.
func (g *Groups) Set(group string, p *ItemProperties) {
	g.props[group] = p
}

// Resolve records p for its main group and returns the properties that
// apply. A layer definition wins over a later differing fragment, unless
// the fragment is a well; otherwise the latest classification wins. The
// error is a *ClassificationConflict, for logging.
func (g *Groups) Resolve(p *ItemProperties) (*ItemProperties, error) {
	prev, ok := g.props[p.MainGroup]
	if !ok || p.Label == "undefined" {
		g.props[p.MainGroup] = p
		return p, nil
	}
	pf, cf := prev.Flags(), p.Flags()
	if equalFlags(pf, cf) {
		g.props[p.MainGroup] = p
		return p, nil
	}
	err := &ClassificationConflict{Group: p.MainGroup, Previous: pf, Current: cf}
	if prev.Layer && !p.Well {
		return prev, err
	}
	g.props[p.MainGroup] = p
	return p, err
}

func equalFlags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
