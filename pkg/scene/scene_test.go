package scene_test

import (
	"catamesh/pkg/color"
	"catamesh/pkg/scene"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var floatOpt = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 0.00001
})

const drawing = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg"
     xmlns:inkscape="http://www.inkscape.org/namespaces/inkscape"
     width="210mm" height="100px">
  <g id="layer1" inkscape:groupmode="layer" inkscape:label="galeries">
    <rect id="r1" x="0" y="0" width="4" height="2" style="fill:#ff0000;stroke:none;display:none"/>
    <path id="p1" d="M 0,0 L 1,1" stroke="#0000ff" stroke-opacity="0.5"/>
  </g>
  <text id="t1" x="1" y="2"><tspan>rue</tspan></text>
  <use id="u1" href="#p1"/>
</svg>`

func TestParse(t *testing.T) {
	doc, err := scene.Parse([]byte(drawing))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{210 * 96 / 25.4, 100}, []float64{doc.Width, doc.Height}, floatOpt); diff != "" {
		t.Errorf("incorrect document size: %s", diff)
	}
	layer := doc.Root.Children[0]
	if layer.Kind != scene.KindGroup || !layer.IsLayer() {
		t.Errorf("expected a layer group, got %+v", layer)
	}
	if label, ok := layer.Label(); !ok || label != "galeries" {
		t.Errorf("incorrect label %q", label)
	}
	rect := layer.Children[0]
	if rect.Kind != scene.KindRect || !rect.Hidden() {
		t.Errorf("expected a hidden rect, got %+v", rect)
	}
	fill, stroke := rect.Colors()
	if diff := cmp.Diff(&color.RGBA{1, 0, 0, 1}, fill, floatOpt); diff != "" {
		t.Errorf("incorrect fill: %s", diff)
	}
	if diff := cmp.Diff(fill, stroke, floatOpt); diff != "" {
		t.Errorf("stroke should fall back to fill: %s", diff)
	}
	if w, ok := rect.Number("width"); !ok || w != 4 {
		t.Errorf("incorrect width %v", w)
	}

	path := layer.Children[1]
	_, stroke = path.Colors()
	if diff := cmp.Diff(&color.RGBA{0, 0, 1, 0.5}, stroke, floatOpt); diff != "" {
		t.Errorf("incorrect presentation stroke: %s", diff)
	}

	text := doc.Root.Children[1]
	if text.Kind != scene.KindText || text.Children[0].Text != "rue" {
		t.Errorf("incorrect text node %+v", text)
	}
}

func TestLookup(t *testing.T) {
	doc, err := scene.Load(strings.NewReader(drawing))
	if err != nil {
		t.Fatal(err)
	}
	n, err := doc.Lookup("#p1")
	if err != nil || n.Kind != scene.KindPath {
		t.Errorf("lookup failed: %v", err)
	}
	_, err = doc.Lookup("nowhere")
	var missing *scene.MissingTransformTarget
	if !errors.As(err, &missing) || missing.ID != "nowhere" {
		t.Errorf("expected MissingTransformTarget, got %v", err)
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		s    string
		want float64
	}{
		{"10", 10},
		{"1in", 96},
		{"2.54cm", 96},
		{"12pt", 16},
		{" 3 px ", 3},
		{"bogus", 0},
	}
	for i, test := range tests {
		if diff := cmp.Diff(test.want, scene.ParseLength(test.s), floatOpt); diff != "" {
			t.Errorf("Test %d - %q incorrect output: %s", i, test.s, diff)
		}
	}
}
