package mesh_test

import (
	"catamesh/pkg/color"
	"catamesh/pkg/mesh"
	"catamesh/pkg/svgpath"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
)

var floatOpt = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 0.00001
})

func rectangle(w, h float64) *mesh.Mesh {
	return mesh.FromOutline(svgpath.Rect(0, 0, w, h))
}

func TestMerge(t *testing.T) {
	a := rectangle(4, 2)
	red := color.RGBA{1, 0, 0, 1}
	blue := color.RGBA{0, 0, 1, 1}
	a.Header.SetDiffuse(red)
	b := rectangle(1, 1)
	b.Header.SetDiffuse(blue)
	b.Header.Material.LineWidth = 2

	na, nb := len(a.Vertices), len(b.Vertices)
	bEdges := append([][2]int(nil), b.Edges...)
	if err := mesh.Merge(a, b); err != nil {
		t.Fatal(err)
	}
	if len(a.Vertices) != na+nb {
		t.Errorf("got %d vertices, want %d", len(a.Vertices), na+nb)
	}
	for k, e := range bEdges {
		got := a.Edges[len(a.Edges)-len(bEdges)+k]
		if got != [2]int{e[0] + na, e[1] + na} {
			t.Errorf("edge %d: got %v, want %v shifted by %d", k, got, e, na)
		}
	}
	if err := a.Validate(); err != nil {
		t.Error(err)
	}
	if diff := cmp.Diff(red, *a.Header.Material.Diffuse); diff != "" {
		t.Errorf("destination material should win: %s", diff)
	}
	if a.Header.Material.LineWidth != 2 {
		t.Errorf("missing fields should be taken from the source")
	}

	tri := &mesh.Mesh{Vertices: make([]r3.Vector, 3), Triangles: [][3]int{{0, 1, 2}}}
	if err := mesh.Merge(a, tri); err != mesh.ErrMixedPolygons {
		t.Errorf("expected ErrMixedPolygons, got %v", err)
	}
}

func TestExtrude(t *testing.T) {
	tests := []struct {
		transform *svgpath.Matrix3D
		dir       r3.Vector
	}{
		{nil, r3.Vector{Z: 2}},
		{func() *svgpath.Matrix3D {
			m := svgpath.AxisRotation3D(r3.Vector{X: 1}, math.Pi/2)
			m = svgpath.Translation3D(5, 5, 5).Multiply(m)
			return &m
		}(), r3.Vector{Y: -2}},
	}
	for i, test := range tests {
		m := rectangle(4, 2)
		m.Header.Transformation = test.transform
		top, wall := mesh.Extrude(m, 2)
		n, e := len(m.Vertices), len(m.Edges)
		if len(wall.Vertices) != 2*n || len(wall.Triangles) != 2*e {
			t.Errorf("Test %d - got %d vertices %d triangles, want %d %d",
				i, len(wall.Vertices), len(wall.Triangles), 2*n, 2*e)
		}
		for k := 0; k < n; k++ {
			d := wall.Vertices[n+k].Sub(wall.Vertices[k])
			if diff := cmp.Diff(test.dir, d, floatOpt); diff != "" {
				t.Errorf("Test %d - vertex %d: incorrect offset: %s", i, k, diff)
			}
			if diff := cmp.Diff(top.Vertices[k], wall.Vertices[n+k], floatOpt); diff != "" {
				t.Errorf("Test %d - top and wall differ: %s", i, diff)
			}
		}
		if err := wall.Validate(); err != nil {
			t.Errorf("Test %d - %s", i, err)
		}
		if !wall.Header.Material.TwoSided {
			t.Errorf("Test %d - walls should be two sided", i)
		}
	}
}

func TestExtrudeTo(t *testing.T) {
	m := rectangle(1, 1)
	_, wall := mesh.ExtrudeTo(m, func(i int, v r3.Vector) r3.Vector {
		return v.Add(r3.Vector{Z: float64(i)})
	})
	for k := range m.Vertices {
		if got := wall.Vertices[len(m.Vertices)+k].Z; got != float64(k) {
			t.Errorf("vertex %d: got Z %v", k, got)
		}
	}
}

func TestTesselate(t *testing.T) {
	m := rectangle(4, 2)
	for i := range m.Vertices {
		m.Vertices[i].Z = 1 + float64(i)*1e-3
	}
	tess := mesh.Tesselate(m, true)
	if tess == nil {
		t.Fatal("no tesselation")
	}
	if len(tess.Triangles) != 2 || len(tess.Vertices) != 4 {
		t.Errorf("got %d triangles on %d vertices", len(tess.Triangles), len(tess.Vertices))
	}
	for _, v := range tess.Vertices {
		found := false
		for _, o := range m.Vertices {
			if v == o {
				found = true
			}
		}
		if !found {
			t.Errorf("vertex %v not restored", v)
		}
	}

	// an explicitly repeated start point is welded
	o, err := svgpath.Parse("M0,0 L4,0 L4,2 L0,2 L0,0")
	if err != nil {
		t.Fatal(err)
	}
	if tess := mesh.Tesselate(mesh.FromOutline(o), true); tess == nil || len(tess.Triangles) != 2 {
		t.Errorf("open path closed on its start was not filled")
	}

	o, _ = svgpath.Parse("M0,0 L4,0 L8,0")
	if tess := mesh.Tesselate(mesh.FromOutline(o), true); tess != nil {
		t.Errorf("expected nil for an open polyline")
	}
}

func TestDelaunay(t *testing.T) {
	tests := []struct {
		points []r3.Vector
		want   int
	}{
		{[]r3.Vector{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, 2},
		{[]r3.Vector{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 1, Y: 1, Z: 5}}, 4},
		{[]r3.Vector{{X: 0, Y: 0}, {X: 1, Y: 0}}, 0},
	}
	for i, test := range tests {
		tri := mesh.Delaunay(&mesh.Mesh{Vertices: test.points})
		if len(tri.Triangles) != test.want {
			t.Errorf("Test %d - got %d triangles, want %d", i, len(tri.Triangles), test.want)
		}
		if err := tri.Validate(); err != nil {
			t.Errorf("Test %d - %s", i, err)
		}
		if diff := cmp.Diff(test.points, tri.Vertices); diff != "" {
			t.Errorf("Test %d - vertices changed: %s", i, diff)
		}
	}
}

func TestConnectedComponents(t *testing.T) {
	m := &mesh.Mesh{
		Vertices: make([]r3.Vector, 7),
		Edges:    [][2]int{{0, 1}, {4, 5}, {1, 2}, {5, 6}, {6, 4}},
	}
	want := [][]int{{0, 1, 2}, {4, 5, 6}}
	if diff := cmp.Diff(want, mesh.ConnectedComponents(m)); diff != "" {
		t.Errorf("incorrect components: %s", diff)
	}
	wantChains := [][]int{{0, 1, 2}, {4, 5, 6, 4}}
	if diff := cmp.Diff(wantChains, mesh.Chains(m)); diff != "" {
		t.Errorf("incorrect chains: %s", diff)
	}
}

func TestCatFlap(t *testing.T) {
	m := &mesh.Mesh{
		Vertices: []r3.Vector{{X: 0}, {X: 2.5}},
		Edges:    [][2]int{{0, 1}},
	}
	stripes := mesh.CatFlap(m, color.CatFlapRed)
	// stripes of length 1, 1 and 0.5
	for i, want := range []int{2, 1} {
		if got := len(stripes[i].Vertices); got != 16*want {
			t.Errorf("stripe mesh %d: got %d vertices, want %d", i, got, 16*want)
		}
		if err := stripes[i].Validate(); err != nil {
			t.Error(err)
		}
	}
	if diff := cmp.Diff(color.CatFlapRed, *stripes[0].Header.Material.Diffuse); diff != "" {
		t.Errorf("incorrect color: %s", diff)
	}
	for _, v := range stripes[0].Vertices {
		if math.Abs(v.Y) > 0.3+1e-9 || math.Abs(v.Z) > 0.2+1e-9 {
			t.Errorf("vertex %v outside of the stripe section", v)
		}
	}

	// a right angle bend is mitred: both sections meet on the bisector
	bend := &mesh.Mesh{
		Vertices: []r3.Vector{{X: 0}, {X: 1}, {X: 1, Y: 1}},
		Edges:    [][2]int{{0, 1}, {1, 2}},
	}
	stripes = mesh.CatFlap(bend, color.CatFlapRed)
	end := stripes[0].Vertices[8:16]
	for _, v := range end {
		// bisector plane through (1,0): x + y = 1 when the bend is not clamped
		if math.Abs((v.X-1)+v.Y) > 0.3 {
			t.Errorf("vertex %v not mitred", v)
		}
	}
}

func TestCollection(t *testing.T) {
	c := mesh.NewCollection()
	c.Add("b", rectangle(1, 1))
	c.Add("a", rectangle(1, 1))
	c.Add("b", rectangle(2, 2))
	c.Add("empty", &mesh.Mesh{})
	c.AddText("t", &mesh.TextObject{Text: "rue"})
	if diff := cmp.Diff([]string{"b", "a", "t"}, c.Keys()); diff != "" {
		t.Errorf("incorrect keys: %s", diff)
	}
	c.MergeGroups()
	if got := c.Meshes("b"); len(got) != 1 || len(got[0].Vertices) != 8 {
		t.Errorf("group b not merged")
	}
	c.Delete("a")
	if _, ok := c.Lookup("a"); ok || c.Len() != 2 {
		t.Errorf("delete failed")
	}
	if err := c.Validate(); err != nil {
		t.Error(err)
	}
}

func TestTextureHeader(t *testing.T) {
	tex := &mesh.Texture{Image: "stone", MappingMethod: "xy"}
	a := rectangle(4, 2)
	b := rectangle(1, 1)
	b.Header.Texture = tex
	if err := mesh.Merge(a, b); err != nil {
		t.Fatal(err)
	}
	if a.Header.Texture != tex {
		t.Errorf("merge did not keep the source texture")
	}
	other := &mesh.Texture{Image: "brick"}
	c := rectangle(1, 1)
	c.Header.Texture = other
	if err := mesh.Merge(a, c); err != nil {
		t.Fatal(err)
	}
	if a.Header.Texture != tex {
		t.Errorf("destination texture should win")
	}

	top, wall := mesh.Extrude(a, 1)
	if top.Header.Texture != tex || wall.Header.Texture != tex {
		t.Errorf("extrusion lost the texture")
	}
}
