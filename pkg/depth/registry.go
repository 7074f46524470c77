package depth

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/mesh"
	"catamesh/pkg/walker"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/golang/geo/r2"
)

// Surface is the depth map of a level. Its Z values are depths, possibly
// relative to the surface of another level.
type Surface struct {
	Level string
	Mesh  *mesh.Mesh
	// RelativeTo names the level the depths are counted from. Empty means
	// absolute.
	RelativeTo string
	// Inverse surfaces hold heights: Z is negated before use.
	Inverse bool
}

// Registry holds the rendered surface of each level. Levels with no
// surface are answered by the ground.
type Registry struct {
	Renderer    Renderer
	Ground      Ground
	GroundLevel string
	ZScale      float64

	views map[string]View
}

func NewRegistry(renderer Renderer, ground Ground) *Registry {
	return &Registry{
		Renderer:    renderer,
		Ground:      ground,
		GroundLevel: "surf",
		ZScale:      cfg.ZScale,
		views:       map[string]View{},
	}
}

// Attach registers an already rendered view for level.
func (r *Registry) Attach(level string, v View) {
	if old, ok := r.views[level]; ok {
		old.Close()
	}
	r.views[level] = v
}

// Has reports whether level has a rendered surface.
func (r *Registry) Has(level string) bool {
	_, ok := r.views[level]
	return ok
}

// Build renders the surfaces. A surface relative to another level is
// built once that level is available, adding its depth to every vertex.
// Surfaces relative to the ground level get the ground altitude. A
// dependency cycle is a *walker.StructuralError. Inverse surfaces that
// are relative to another depth map are negated first.
func (r *Registry) Build(ctx context.Context, surfaces []Surface) error {
	todo := append([]Surface(nil), surfaces...)
	stalled := 0
	for len(todo) > 0 {
		s := todo[0]
		todo = todo[1:]
		if s.Mesh == nil {
			continue
		}
		rel := s.RelativeTo
		if rel != "" && rel != r.GroundLevel && !r.Has(rel) {
			todo = append(todo, s)
			stalled++
			if stalled > len(todo) {
				var levels []string
				for _, t := range todo {
					levels = append(levels, t.Level+" -> "+t.RelativeTo)
				}
				return &walker.StructuralError{
					Node:   s.Level,
					Reason: "depth map dependency cycle or missing level: " + strings.Join(levels, ", "),
				}
			}
			continue
		}
		stalled = 0

		if rel != "" {
			base := r.view(rel)
			if rel == r.GroundLevel {
				base = r.ground()
			} else if s.Inverse {
				for i := range s.Mesh.Vertices {
					s.Mesh.Vertices[i].Z *= -1
				}
			}
			for i, v := range s.Mesh.Vertices {
				z, ok, err := query(ctx, base, r2.Point{X: v.X, Y: v.Y})
				if err != nil {
					return fmt.Errorf("depth map %s relative to %s: %w", s.Level, rel, err)
				}
				if ok {
					s.Mesh.Vertices[i].Z += z
				}
			}
		}
		if len(s.Mesh.Triangles) == 0 {
			if tri := mesh.Delaunay(s.Mesh); tri != nil {
				s.Mesh = tri
			}
		}
		view, err := r.Renderer.Render(ctx, s.Mesh)
		if err != nil {
			log.Printf("depth map %s: %s", s.Level, err)
			continue
		}
		r.Attach(s.Level, view)
	}
	return nil
}

// Query returns the depth of level under p.
func (r *Registry) Query(ctx context.Context, level string, p r2.Point) (float64, bool, error) {
	return query(ctx, r.view(level), p)
}

func (r *Registry) view(level string) View {
	if v, ok := r.views[level]; ok {
		return v
	}
	return r.ground()
}

func (r *Registry) ground() View {
	return groundView{ground: r.Ground, zScale: r.ZScale}
}

// Close releases every view.
func (r *Registry) Close() error {
	var first error
	for level, v := range r.views {
		if err := v.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing depth map %s: %w", level, err)
		}
		delete(r.views, level)
	}
	return first
}
