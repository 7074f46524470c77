package props_test

import (
	"catamesh/pkg/props"
	"catamesh/pkg/scene"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func node(kind scene.Kind, attrs map[string]string, children ...*scene.Node) *scene.Node {
	return &scene.Node{Kind: kind, ID: attrs["id"], Attrs: attrs, Children: children}
}

func TestRemoveWord(t *testing.T) {
	tests := []struct {
		label, word, want string
	}{
		{"galeries inf", "inf", "galeries"},
		{"galeries_inf", "inf", "galeries"},
		{"galeries inf private", "inf", "galeries private"},
		{"galeries_inf_2", "inf", "galeries_2"},
		{"inf", "inf", "inf"},
		{"infirmerie", "inf", "infirmerie"},
	}
	for i, test := range tests {
		if got := props.RemoveWord(test.label, test.word); got != test.want {
			t.Errorf("Test %d - RemoveWord(%q, %q) = %q, want %q", i, test.label, test.word, got, test.want)
		}
	}
}

func TestDecodeLabel(t *testing.T) {
	tests := []struct {
		label     string
		explicit  string
		wantLabel string
		wantProps map[string]string
	}{
		{"galeries inf private", "", "galeries", map[string]string{"level": "inf", "private": "private"}},
		{"remblai epais inaccessibles", "", "remblai epais", map[string]string{"inaccessible": "inaccessible"}},
		{"galeries GTech", "", "galeries", map[string]string{"level": "tech"}},
		{"private", "", "private", map[string]string{"private": "private"}},
		{"galeries inf", "level", "galeries inf", map[string]string{}},
	}
	for i, test := range tests {
		label, found := props.DecodeLabel(test.label, props.DefaultTables, func(p string) bool {
			return p == test.explicit
		})
		if label != test.wantLabel {
			t.Errorf("Test %d - incorrect label %q, want %q", i, label, test.wantLabel)
		}
		if diff := cmp.Diff(test.wantProps, found); diff != "" {
			t.Errorf("Test %d - incorrect output: %s", i, diff)
		}
	}
}

func TestClassifyDefaults(t *testing.T) {
	p := props.Classify(node(scene.KindGroup, map[string]string{
		"id":                 "layer1",
		"inkscape:label":     "galeries",
		"inkscape:groupmode": "layer",
	}), nil)
	want := struct {
		Name, Level, Upper, Group string
		Corridor, Layer           bool
		Height                    float64
		Shift                     float64
	}{"galeries", "sup", "surf", "galeries_sup_public_accessible", true, true, 2, 0}
	got := want
	got.Name, got.Level, got.Upper, got.Group = p.Name, p.Level, p.UpperLevel, p.MainGroup
	got.Corridor, got.Layer = p.Corridor, p.Layer
	got.Height, got.Shift = p.HeightOr(-1), p.HeightShiftOr(-1)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("incorrect output: %s", diff)
	}
}

func TestInheritance(t *testing.T) {
	leafA := node(scene.KindPath, map[string]string{"id": "a"})
	leafB := node(scene.KindPath, map[string]string{"id": "b", "private": "true"})
	leafC := node(scene.KindPath, map[string]string{"id": "c"})
	sub1 := node(scene.KindGroup, map[string]string{"id": "g1"}, leafA, leafB)
	sub2 := node(scene.KindGroup, map[string]string{"id": "g2", "level": "tech"}, leafC)
	root := node(scene.KindGroup, map[string]string{"id": "l", "label": "galeries inf"}, sub1, sub2)

	got := map[string]string{}
	maxDepth := 0
	type frame struct {
		n     *scene.Node
		stack *props.Stack
	}
	work := []frame{{root, nil}}
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]
		p := props.Classify(f.n, f.stack)
		got[f.n.ID] = p.MainGroup
		if len(f.n.Children) == 0 {
			continue
		}
		s := f.stack.Push(p)
		if s.Len() > maxDepth {
			maxDepth = s.Len()
		}
		for i := len(f.n.Children) - 1; i >= 0; i-- {
			work = append(work, frame{f.n.Children[i], s})
		}
	}
	want := map[string]string{
		"l":  "galeries_inf_public_accessible",
		"g1": "galeries_inf_public_accessible",
		"a":  "galeries_inf_public_accessible",
		"b":  "galeries_inf_private_accessible",
		"g2": "galeries_tech_public_accessible",
		"c":  "galeries_tech_public_accessible",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("incorrect output: %s", diff)
	}
	if maxDepth != 2 {
		t.Errorf("incorrect stack depth %d", maxDepth)
	}
}

func TestStackIsImmutable(t *testing.T) {
	var s *props.Stack
	if s.Len() != 0 || s.Top() != nil {
		t.Fatalf("empty stack not empty")
	}
	p1 := &props.ItemProperties{Name: "one"}
	p2 := &props.ItemProperties{Name: "two"}
	s1 := s.Push(p1)
	s2 := s1.Push(p2)
	s3 := s1.Push(p1)
	if s1.Len() != 1 || s2.Len() != 2 || s3.Len() != 2 {
		t.Errorf("incorrect lengths %d %d %d", s1.Len(), s2.Len(), s3.Len())
	}
	if s2.Top() != p2 || s2.Pop() != s1 || s1.Top() != p1 {
		t.Errorf("incorrect frames")
	}
	if s2.Pop().Pop().Len() != 0 {
		t.Errorf("stack should be empty")
	}
}

func TestTriState(t *testing.T) {
	parent := props.Classify(node(scene.KindGroup, map[string]string{"label": "galeries"}), nil)
	stack := (*props.Stack)(nil).Push(parent)

	// Unknown keeps the inherited flag.
	p := props.Classify(node(scene.KindPath, map[string]string{"id": "x"}), stack)
	if !p.Corridor {
		t.Errorf("expected inherited corridor")
	}
	// An explicit false overrides it.
	p = props.Classify(node(scene.KindPath, map[string]string{"id": "y", "corridor": "false"}), stack)
	if p.Corridor {
		t.Errorf("expected explicit corridor=false to win")
	}
}

func TestHeightPriority(t *testing.T) {
	tests := []struct {
		attrs      map[string]string
		parentAttr map[string]string
		want       float64
	}{
		// explicit
		{map[string]string{"label": "galeries", "item_height": "7"}, nil, 7},
		// inherited
		{map[string]string{"id": "p"}, map[string]string{"label": "galeries", "item_height": "4"}, 4},
		// type table
		{map[string]string{"label": "galeries"}, nil, 2},
		// name table over type table
		{map[string]string{"label": "cuves"}, nil, 1.5},
	}
	for i, test := range tests {
		var stack *props.Stack
		if test.parentAttr != nil {
			stack = stack.Push(props.Classify(node(scene.KindGroup, test.parentAttr), nil))
		}
		p := props.Classify(node(scene.KindGroup, test.attrs), stack)
		if got := p.HeightOr(-1); got != test.want {
			t.Errorf("Test %d - incorrect height %v, want %v", i, got, test.want)
		}
	}
	p := props.Classify(node(scene.KindGroup, map[string]string{"label": "nothing"}), nil)
	if p.Height != nil {
		t.Errorf("expected no height, got %v", *p.Height)
	}
}

func TestTextWinsOverBlock(t *testing.T) {
	p := props.Classify(node(scene.KindText, map[string]string{"label": "mur"}), nil)
	if !p.Text || p.Block {
		t.Errorf("expected text without block, got text=%v block=%v", p.Text, p.Block)
	}
	if p.MainGroup != "mur_sup_public_accessible_text" {
		t.Errorf("incorrect main group %q", p.MainGroup)
	}
}

func TestVisibility(t *testing.T) {
	p := props.Classify(node(scene.KindGroup, map[string]string{
		"label":      "galeries",
		"visibility": `["private", "big"]`,
	}), nil)
	if !p.Private || !p.VisibleIn("big") || p.VisibleIn("small") {
		t.Errorf("incorrect visibility %+v", p.Visibility)
	}
}

func TestDepthMap(t *testing.T) {
	p := props.Classify(node(scene.KindGroup, map[string]string{
		"label":     "profondeurs inf",
		"depth_map": "true",
	}), nil)
	if !p.DepthMap || p.RelativeTo != "surf" {
		t.Errorf("incorrect depth map %+v", p)
	}
	// no suffix decoding in depth maps
	if p.Label != "profondeurs inf" || p.Level != "sup" {
		t.Errorf("incorrect label %q level %q", p.Label, p.Level)
	}
	p = props.Classify(node(scene.KindGroup, map[string]string{
		"label":      "altitude",
		"height_map": "true",
	}), nil)
	if !p.DepthMap || !p.Inverse || p.RelativeTo != "" {
		t.Errorf("incorrect height map %+v", p)
	}
}

func TestWellReadMode(t *testing.T) {
	p := props.Classify(node(scene.KindGroup, map[string]string{"label": "PSh"}), nil)
	if !p.Well || p.WellReadMode != "group" {
		t.Errorf("incorrect well %v %q", p.Well, p.WellReadMode)
	}
}

func TestGroupsConflict(t *testing.T) {
	groups := props.NewGroups()
	layer := props.Classify(node(scene.KindGroup, map[string]string{
		"label": "galeries", "inkscape:groupmode": "layer",
	}), nil)
	if _, err := groups.Resolve(layer); err != nil {
		t.Fatal(err)
	}
	fragment := props.Classify(node(scene.KindGroup, map[string]string{
		"label": "galeries", "block": "true",
	}), nil)
	got, err := groups.Resolve(fragment)
	var conflict *props.ClassificationConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected a conflict, got %v", err)
	}
	if got != layer {
		t.Errorf("layer definition should win")
	}
	if diff := cmp.Diff([]string{"corridor", "block"}, conflict.Current); diff != "" {
		t.Errorf("incorrect conflict: %s", diff)
	}
}

func TestSymbolPrefixes(t *testing.T) {
	groups := props.NewGroups()
	layer := props.Classify(node(scene.KindGroup, map[string]string{
		"label": "fontis", "inkscape:groupmode": "layer",
	}), nil)
	if !layer.Symbol {
		t.Errorf("fontis layer is not a symbol")
	}
	if _, err := groups.Resolve(layer); err != nil {
		t.Fatal(err)
	}
	parents := (*props.Stack)(nil).Push(layer)
	for i, id := range []string{"f1", "f2", "f3"} {
		p := props.Classify(node(scene.KindRect, map[string]string{"id": id}), parents)
		if !p.Symbol {
			t.Errorf("Test %d - %s is not a symbol", i, id)
		}
		if _, err := groups.Resolve(p); err != nil {
			t.Errorf("Test %d - unexpected conflict: %s", i, err)
		}
	}

	p := props.Classify(node(scene.KindGroup, map[string]string{"label": "fontis", "symbol": "false"}), nil)
	if p.Symbol {
		t.Errorf("explicit symbol attribute should win")
	}
}

func TestTextures(t *testing.T) {
	layer := props.Classify(node(scene.KindGroup, map[string]string{
		"label":        "galeries",
		"texture":      `{"id": "stone", "scale": 2}`,
		"wall_texture": `{"id": "brick", "label": "x"}`,
	}), nil)
	stack := (*props.Stack)(nil).Push(layer)

	tests := []struct {
		attrs map[string]string
		want  map[string]string
	}{
		// inherited
		{map[string]string{"id": "a"},
			map[string]string{"wall_texture": "brick", "ceil_texture": "stone", "floor_texture": "stone"}},
		// own binding replaces the inherited set
		{map[string]string{"id": "b", "floor_texture": `{"id": "sand"}`},
			map[string]string{"wall_texture": "", "ceil_texture": "", "floor_texture": "sand"}},
		// invalid JSON keeps the inherited set
		{map[string]string{"id": "c", "texture": `{"id": `},
			map[string]string{"wall_texture": "brick", "ceil_texture": "stone"}},
		// no image id
		{map[string]string{"id": "d", "texture": `{"scale": 1}`},
			map[string]string{"wall_texture": "brick"}},
	}
	for i, test := range tests {
		p := props.Classify(node(scene.KindPath, test.attrs), stack)
		got := map[string]string{}
		for part := range test.want {
			got[part] = ""
			if tex := p.Texture(part); tex != nil {
				got[part] = tex.ID
			}
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Test %d - wrong textures: %s", i, diff)
		}
	}

	if diff := cmp.Diff(map[string]interface{}{"scale": 2.0}, layer.Texture("texture").Params); diff != "" {
		t.Errorf("wrong params: %s", diff)
	}
	if len(layer.Texture("wall_texture").Params) != 0 {
		t.Errorf("label should be dropped from params")
	}
}
