package depth_test

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/color"
	"catamesh/pkg/depth"
	"catamesh/pkg/mesh"
	"catamesh/pkg/props"
	"catamesh/pkg/walker"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
)

var floatOpt = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 0.00001
})

// stubView answers a constant depth, or nothing where miss is true.
type stubView struct {
	z       float64
	miss    func(p r2.Point) bool
	queries int
}

func (v *stubView) Query(ctx context.Context, p r2.Point) (float64, bool, error) {
	v.queries++
	if v.miss != nil && v.miss(p) {
		return 0, false, nil
	}
	return v.z, true, nil
}

func (v *stubView) Close() error {
	return nil
}

// stuckView never answers.
type stuckView struct {
	calls int
}

func (v *stuckView) Query(ctx context.Context, p r2.Point) (float64, bool, error) {
	v.calls++
	<-ctx.Done()
	return 0, false, ctx.Err()
}

func (v *stuckView) Close() error {
	return nil
}

func line(n int) *mesh.Mesh {
	m := &mesh.Mesh{}
	for i := 0; i < n; i++ {
		m.Vertices = append(m.Vertices, r3.Vector{X: float64(i)})
		if i > 0 {
			m.Edges = append(m.Edges, [2]int{i - 1, i})
		}
	}
	return m
}

func group(key string, p *props.ItemProperties) *props.Groups {
	groups := props.NewGroups()
	p.MainGroup = key
	groups.Set(key, p)
	return groups
}

func TestMissRate(t *testing.T) {
	tests := []struct {
		miss     func(p r2.Point) bool
		missed   int
		abnormal bool
	}{
		{func(p r2.Point) bool { return int(p.X)%4 == 0 }, 25, true},
		{func(p r2.Point) bool { return p.X < 15 }, 15, false},
		{nil, 0, false},
	}
	for i, test := range tests {
		out := mesh.NewCollection()
		out.Add("galeries", line(100))
		reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
		reg.Attach("sup", &stubView{z: -10, miss: test.miss})
		e := depth.NewEngine(reg, group("galeries", &props.ItemProperties{Level: "sup"}))
		stats, err := e.ApplyGroups(context.Background(), out)
		if err != nil {
			t.Fatalf("Test %d - %s", i, err)
		}
		want := []depth.Stats{{Group: "galeries", Done: 100, Missed: test.missed, Abnormal: test.abnormal}}
		if diff := cmp.Diff(want, stats); diff != "" {
			t.Errorf("Test %d - incorrect stats: %s", i, diff)
		}
		if z := out.Meshes("galeries")[0].Vertices[99].Z; z != -10 {
			t.Errorf("Test %d - vertex not moved to depth: %f", i, z)
		}
	}
}

func TestSkippedGroups(t *testing.T) {
	out := mesh.NewCollection()
	out.Add("texts", line(3))
	reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
	view := &stubView{z: -10}
	reg.Attach("sup", view)
	e := depth.NewEngine(reg, group("texts", &props.ItemProperties{Level: "sup", Text: true}))
	stats, err := e.ApplyGroups(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 0 || view.queries != 0 {
		t.Errorf("text group should not be aligned: %v", stats)
	}
}

func plane(z func(x, y float64) float64) *mesh.Mesh {
	m := &mesh.Mesh{Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}}}
	for _, p := range [][2]float64{{0, 0}, {20, 0}, {20, 20}, {0, 20}} {
		m.Vertices = append(m.Vertices, r3.Vector{X: p[0], Y: p[1], Z: z(p[0], p[1])})
	}
	return m
}

func TestTINView(t *testing.T) {
	r := &depth.TINRenderer{Window: 2}
	v, err := r.Render(context.Background(), plane(func(x, y float64) float64 { return -x }))
	if err != nil {
		t.Fatal(err)
	}
	if r.Renders != 1 {
		t.Errorf("got %d renders after the first one", r.Renders)
	}
	tests := []struct {
		p       r2.Point
		z       float64
		ok      bool
		renders int
	}{
		{r2.Point{X: 10, Y: 10}, -10, true, 1},
		{r2.Point{X: 11, Y: 9}, -11, true, 1},
		// out of the window: re-centered
		{r2.Point{X: 3, Y: 17}, -3, true, 2},
		// out of the surface
		{r2.Point{X: 25, Y: 10}, 0, false, 3},
	}
	for i, test := range tests {
		z, ok, err := v.Query(context.Background(), test.p)
		if err != nil {
			t.Fatalf("Test %d - %s", i, err)
		}
		if diff := cmp.Diff([]float64{test.z}, []float64{z}, floatOpt); diff != "" || ok != test.ok {
			t.Errorf("Test %d - got %f %v, want %f %v", i, z, ok, test.z, test.ok)
		}
		if r.Renders != test.renders {
			t.Errorf("Test %d - got %d renders, want %d", i, r.Renders, test.renders)
		}
	}
}

func TestRegistryBuild(t *testing.T) {
	reg := depth.NewRegistry(depth.NewTINRenderer(), depth.FlatGround(4))
	reg.ZScale = 0.5
	flat := func(z float64) func(x, y float64) float64 {
		return func(x, y float64) float64 { return z }
	}
	err := reg.Build(context.Background(), []depth.Surface{
		// built after sup
		{Level: "inf", Mesh: plane(flat(1)), RelativeTo: "sup", Inverse: true},
		{Level: "sup", Mesh: plane(flat(-5)), RelativeTo: "surf"},
		{Level: "tech", Mesh: plane(flat(-7))},
	})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		level string
		z     float64
	}{
		{"sup", -3},  // -5 + 4·0.5
		{"inf", -4},  // -1 + sup
		{"tech", -7}, // absolute
		{"surf", 2},  // ground
		{"metro", 2}, // no surface: ground
	}
	for i, test := range tests {
		z, ok, err := reg.Query(context.Background(), test.level, r2.Point{X: 5, Y: 5})
		if err != nil || !ok {
			t.Fatalf("Test %d - %s: %v %v", i, test.level, ok, err)
		}
		if diff := cmp.Diff([]float64{test.z}, []float64{z}, floatOpt); diff != "" {
			t.Errorf("Test %d - %s incorrect depth: %s", i, test.level, diff)
		}
	}
	if err := reg.Close(); err != nil {
		t.Error(err)
	}
	if reg.Has("sup") {
		t.Errorf("views not released")
	}
}

func TestRegistryCycle(t *testing.T) {
	reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
	flat := func(x, y float64) float64 { return 0 }
	err := reg.Build(context.Background(), []depth.Surface{
		{Level: "a", Mesh: plane(flat), RelativeTo: "b"},
		{Level: "b", Mesh: plane(flat), RelativeTo: "a"},
		{Level: "c", Mesh: plane(flat)},
	})
	var s *walker.StructuralError
	if !errors.As(err, &s) {
		t.Fatalf("expected a structural error, got %v", err)
	}
	if !reg.Has("c") {
		t.Errorf("independent level not built")
	}
}

func TestDelaunaySurface(t *testing.T) {
	reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
	points := &mesh.Mesh{Vertices: []r3.Vector{
		{X: 0, Y: 0, Z: -2}, {X: 10, Y: 0, Z: -2}, {X: 10, Y: 10, Z: -2}, {X: 0, Y: 10, Z: -2},
	}}
	if err := reg.Build(context.Background(), []depth.Surface{{Level: "sup", Mesh: points}}); err != nil {
		t.Fatal(err)
	}
	z, ok, err := reg.Query(context.Background(), "sup", r2.Point{X: 3, Y: 6})
	if err != nil || !ok || math.Abs(z+2) > 1e-9 {
		t.Errorf("got %f %v %v, want -2", z, ok, err)
	}
}

func TestStalledOracle(t *testing.T) {
	timeout, retries := cfg.OracleTimeout, cfg.OracleRetries
	defer func() {
		cfg.OracleTimeout, cfg.OracleRetries = timeout, retries
	}()
	cfg.OracleTimeout, cfg.OracleRetries = 5*time.Millisecond, 2

	reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
	view := &stuckView{}
	reg.Attach("sup", view)
	_, _, err := reg.Query(context.Background(), "sup", r2.Point{})
	if !errors.Is(err, depth.ErrOracleStalled) {
		t.Errorf("expected ErrOracleStalled, got %v", err)
	}
	if view.calls != 3 {
		t.Errorf("got %d attempts, want 3", view.calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := reg.Query(ctx, "sup", r2.Point{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestApplyTexts(t *testing.T) {
	out := mesh.NewCollection()
	low := &mesh.TextObject{Position: r3.Vector{Z: 4}, Level: "sup"}
	high := &mesh.TextObject{Position: r3.Vector{Z: 40}, Level: "sup"}
	out.AddText("rues_text", low)
	out.AddText("rues_text", high)
	reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
	reg.Attach("sup", &stubView{z: 10})
	e := depth.NewEngine(reg, group("rues_text", &props.ItemProperties{Text: true}))
	e.ZScale = 0.5
	if err := e.ApplyTexts(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	// 10 + 5·0.5
	if low.Position.Z != 12.5 || high.Position.Z != 40 {
		t.Errorf("got text Z %f and %f, want 12.5 and 40", low.Position.Z, high.Position.Z)
	}
}

func TestApplyArrows(t *testing.T) {
	out := mesh.NewCollection()
	arrow := &mesh.Mesh{
		Vertices: []r3.Vector{{X: 0, Z: 0}, {X: 1, Z: 0.5}, {X: 2, Z: 1}},
		Edges:    [][2]int{{0, 1}, {1, 2}},
	}
	out.Add("flèches", arrow)
	reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
	reg.Attach("inf", &stubView{z: -20})
	reg.Attach("sup", &stubView{z: -10})
	base := 2.
	e := depth.NewEngine(reg, group("flèches", &props.ItemProperties{
		Arrow: true, Level: "inf", UpperLevel: "sup", ArrowBaseHeightShift: &base,
	}))
	e.ZScale = 1
	if err := e.ApplyArrows(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	var z []float64
	for _, v := range arrow.Vertices {
		z = append(z, v.Z)
	}
	// text end at -10 + 2, tip at -20
	if diff := cmp.Diff([]float64{-8, -14, -20}, z, floatOpt); diff != "" {
		t.Errorf("incorrect arrow depths: %s", diff)
	}
	mat := arrow.Header.Material
	if mat == nil || *mat.Diffuse != color.Arrow || mat.LineWidth != 2 {
		t.Errorf("incorrect arrow material %+v", mat)
	}
}

func TestBuildFeatures(t *testing.T) {
	out := mesh.NewCollection()
	out.AddFeature("PS_sup_public_accessible", mesh.FeatureSpec{Center: r2.Point{X: 2, Y: 1}, Radius: 0.5, Height: 10})
	reg := depth.NewRegistry(depth.NewTINRenderer(), nil)
	reg.Attach("sup", &stubView{z: 0})
	reg.Attach("surf", &stubView{z: 3})
	groups := group("PS_sup_public_accessible", &props.ItemProperties{
		Label: "PS", Well: true, Level: "sup", UpperLevel: "surf",
	})
	e := depth.NewEngine(reg, groups)
	if err := e.BuildFeatures(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	wells := out.Meshes("PS_sup_public_accessible_tri")
	if len(wells) != 1 || len(wells[0].Vertices) != 16 {
		t.Fatalf("expected one 16 vertex well, got %v", wells)
	}
	lo, hi := wells[0].ZRange()
	if lo != 0 || hi != 3 {
		t.Errorf("well spans %f..%f, want 0..3", lo, hi)
	}
	if groups.Get("PS_sup_public_accessible_tri") == nil {
		t.Errorf("well group properties not recorded")
	}
}

func TestRaster(t *testing.T) {
	r := &depth.Raster{
		Bounds:  r2.RectFromPoints(r2.Point{}, r2.Point{X: 2, Y: 2}),
		Width:   2,
		Height:  2,
		Values:  []float64{1, 2, 3, 4},
		Outside: 50,
	}
	tests := []struct {
		p    r2.Point
		want float64
	}{
		{r2.Point{X: 0.5, Y: 0.5}, 1},
		{r2.Point{X: 1.5, Y: 0.5}, 2},
		{r2.Point{X: 0.5, Y: 1.5}, 3},
		{r2.Point{X: 2, Y: 2}, 4},
		{r2.Point{X: -1, Y: 0}, 50},
		{r2.Point{X: 3, Y: 0}, 50},
	}
	for i, test := range tests {
		if got := r.Altitude(test.p); got != test.want {
			t.Errorf("Test %d - got %f, want %f", i, got, test.want)
		}
	}
}
