// Package depth aligns flat map geometry on the depth surfaces of the map
// levels.
package depth

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/geometry"
	"catamesh/pkg/mesh"
	"catamesh/pkg/spatial"
	"context"
	"errors"
	"math"

	"github.com/golang/geo/r2"
)

// ErrOracleStalled is returned when depth queries keep timing out.
var ErrOracleStalled = errors.New("depth oracle stalled")

// View answers depth queries on one rendered surface. ok is false when
// the surface has no point under p.
type View interface {
	Query(ctx context.Context, p r2.Point) (z float64, ok bool, err error)
	Close() error
}

// Renderer renders a triangulated depth surface into a View.
type Renderer interface {
	Render(ctx context.Context, surface *mesh.Mesh) (View, error)
}

// Ground gives the altitude of the ground surface.
type Ground interface {
	Altitude(p r2.Point) float64
}

// FlatGround is a ground at a constant altitude.
type FlatGround float64

func (g FlatGround) Altitude(r2.Point) float64 {
	return float64(g)
}

// Raster is an altitude grid covering Bounds. Row 0 is at Bounds.Y.Lo.
type Raster struct {
	Bounds        r2.Rect
	Width, Height int
	Values        []float64
	// Outside is the altitude returned out of the grid.
	Outside float64
}

func (r *Raster) Altitude(p r2.Point) float64 {
	size := r.Bounds.Size()
	if size.X == 0 || size.Y == 0 {
		return r.Outside
	}
	x := int((p.X - r.Bounds.X.Lo) / size.X * (float64(r.Width) - 0.001))
	y := int((p.Y - r.Bounds.Y.Lo) / size.Y * (float64(r.Height) - 0.001))
	if p.X < r.Bounds.X.Lo || p.Y < r.Bounds.Y.Lo || x >= r.Width || y >= r.Height {
		return r.Outside
	}
	return r.Values[y*r.Width+x]
}

// groundView serves the ground pseudo level.
type groundView struct {
	ground Ground
	zScale float64
}

func (g groundView) Query(ctx context.Context, p r2.Point) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if g.ground == nil {
		return 0, true, nil
	}
	return g.ground.Altitude(p) * g.zScale, true, nil
}

func (groundView) Close() error {
	return nil
}

// TINRenderer renders surfaces as triangulated irregular networks probed
// in a square window of half size Window. A query outside of the current
// window re-centers it on the query point, which counts as a render.
type TINRenderer struct {
	Window  float64
	Renders int
}

func NewTINRenderer() *TINRenderer {
	return &TINRenderer{Window: cfg.OracleWindow}
}

func (r *TINRenderer) Render(ctx context.Context, surface *mesh.Mesh) (View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(surface.Triangles) == 0 {
		return nil, errors.New("depth surface has no triangles")
	}
	v := &tinView{
		renderer: r,
		surface:  surface,
		index:    spatial.NewIndex(surface.Bounds()),
	}
	for i, t := range surface.Triangles {
		a, b, c := v.corners(i)
		centroid := a.Add(b).Add(c).Mul(1. / 3)
		for _, p := range []r2.Point{a, b, c} {
			v.reach = math.Max(v.reach, p.Sub(centroid).Norm())
		}
		v.index.Insert(centroid, t)
	}
	v.recenter(surface.Bounds().Center())
	return v, nil
}

type tinView struct {
	renderer *TINRenderer
	surface  *mesh.Mesh
	index    *spatial.Index // triangle centroids
	reach    float64        // largest centroid to corner distance
	extent   r2.Rect
}

func (v *tinView) corners(i int) (a, b, c r2.Point) {
	t := v.surface.Triangles[i]
	p := func(j int) r2.Point {
		return r2.Point{X: v.surface.Vertices[j].X, Y: v.surface.Vertices[j].Y}
	}
	return p(t[0]), p(t[1]), p(t[2])
}

func (v *tinView) recenter(p r2.Point) {
	w := v.renderer.Window
	v.extent = r2.RectFromCenterSize(p, r2.Point{X: 2 * w, Y: 2 * w})
	v.renderer.Renders++
}

// Query returns the highest surface point above p.
func (v *tinView) Query(ctx context.Context, p r2.Point) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if !v.extent.ContainsPoint(p) {
		v.recenter(p)
	}
	z, found := math.Inf(-1), false
	for _, item := range v.index.Within(p, v.reach) {
		t := item.Data.([3]int)
		verts := v.surface.Vertices
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		a2, b2, c2 := r2.Point{X: a.X, Y: a.Y}, r2.Point{X: b.X, Y: b.Y}, r2.Point{X: c.X, Y: c.Y}
		if !geometry.InTriangle(p, a2, b2, c2) {
			continue
		}
		wa, wb, wc, ok := geometry.Barycentric(p, a2, b2, c2)
		if !ok {
			continue
		}
		if tz := wa*a.Z + wb*b.Z + wc*c.Z; tz > z {
			z, found = tz, true
		}
	}
	if !found {
		return 0, false, nil
	}
	return z, true, nil
}

func (v *tinView) Close() error {
	v.surface = nil
	v.index = nil
	return nil
}

// query runs a view query under cfg.OracleTimeout, retrying
// cfg.OracleRetries times before giving up with ErrOracleStalled.
func query(ctx context.Context, v View, p r2.Point) (float64, bool, error) {
	for attempt := 0; ; attempt++ {
		qctx, cancel := context.WithTimeout(ctx, cfg.OracleTimeout)
		z, ok, err := v.Query(qctx, p)
		cancel()
		if err == nil {
			return z, ok, nil
		}
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return 0, false, err
		}
		if attempt >= cfg.OracleRetries {
			return 0, false, ErrOracleStalled
		}
	}
}
