package depth

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/color"
	"catamesh/pkg/features"
	"catamesh/pkg/mesh"
	"catamesh/pkg/props"
	"context"
	"fmt"
	"log"

	"github.com/golang/geo/r2"
)

// ArchLabel is the label of arch feature groups.
const ArchLabel = "arche"

// Stats counts the depth queries of a group.
type Stats struct {
	Group    string
	Done     int
	Missed   int
	Abnormal bool
}

func (s Stats) MissRate() float64 {
	if s.Done == 0 {
		return 0
	}
	return float64(s.Missed) / float64(s.Done)
}

// Engine moves the content of a mesh collection to the depth of the
// level of each group.
type Engine struct {
	Registry *Registry
	Groups   *props.Groups
	ZScale   float64
}

func NewEngine(registry *Registry, groups *props.Groups) *Engine {
	return &Engine{Registry: registry, Groups: groups, ZScale: cfg.ZScale}
}

func xy(x, y float64) r2.Point {
	return r2.Point{X: x, Y: y}
}

// ApplyGroups adds the level depth to every vertex of the groups that are
// not texts, depth maps or arrows. Groups where at least
// cfg.MissRateThreshold of the queries failed are flagged Abnormal.
func (e *Engine) ApplyGroups(ctx context.Context, out *mesh.Collection) ([]Stats, error) {
	var stats []Stats
	for _, key := range out.Keys() {
		p := e.Groups.Get(key)
		if p == nil || p.Text || p.DepthMap || p.Arrow {
			continue
		}
		g, _ := out.Lookup(key)
		if len(g.Meshes) == 0 {
			continue
		}
		s := Stats{Group: key}
		for _, m := range g.Meshes {
			for i, v := range m.Vertices {
				z, ok, err := e.Registry.Query(ctx, p.Level, xy(v.X, v.Y))
				if err != nil {
					return stats, fmt.Errorf("group %s: %w", key, err)
				}
				if ok {
					m.Vertices[i].Z += z
				} else {
					s.Missed++
				}
			}
			s.Done += len(m.Vertices)
		}
		if s.Missed != 0 {
			log.Printf("%s: %d/%d depth queries failed", key, s.Missed, s.Done)
			if s.MissRate() >= cfg.MissRateThreshold {
				s.Abnormal = true
				log.Printf("%s: abnormal failure rate, depth rendering malfunction?", key)
			}
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// ApplyTexts raises texts to the depth of their level plus their group
// height shift (cfg.TextZShift by default). Texts are never lowered.
func (e *Engine) ApplyTexts(ctx context.Context, out *mesh.Collection) error {
	for _, key := range out.Keys() {
		p := e.Groups.Get(key)
		if p == nil || !p.Text {
			continue
		}
		g, _ := out.Lookup(key)
		shift := p.HeightShiftOr(cfg.TextZShift) * e.ZScale
		for _, t := range g.Texts {
			z, ok, err := e.Registry.Query(ctx, t.Level, xy(t.Position.X, t.Position.Y))
			if err != nil {
				return fmt.Errorf("texts %s: %w", key, err)
			}
			if ok && z+shift > t.Position.Z {
				t.Position.Z = z + shift
			}
		}
	}
	return nil
}

// ApplyArrows places arrow lines between the depth of their level, where
// they point, and the depth of the upper level, where their text stands.
// Arrow vertices carry their position along the arrow in Z, from 0 at the
// text end to 1 at the tip.
func (e *Engine) ApplyArrows(ctx context.Context, out *mesh.Collection) error {
	for _, key := range out.Keys() {
		p := e.Groups.Get(key)
		if p == nil || !p.Arrow {
			continue
		}
		g, _ := out.Lookup(key)
		shift := p.HeightShiftOr(0) * e.ZScale
		textShift := cfg.ArrowBaseHeightShift
		if p.ArrowBaseHeightShift != nil {
			textShift = *p.ArrowBaseHeightShift
		}
		textShift *= e.ZScale
		for _, m := range g.Meshes {
			for i, v := range m.Vertices {
				pos := xy(v.X, v.Y)
				z, ok, err := e.Registry.Query(ctx, p.Level, pos)
				if err != nil {
					return fmt.Errorf("arrows %s: %w", key, err)
				}
				if !ok {
					continue
				}
				tz, ok, err := e.Registry.Query(ctx, p.UpperLevel, pos)
				if err != nil {
					return fmt.Errorf("arrows %s: %w", key, err)
				}
				if !ok {
					tz = 0
				}
				w := v.Z
				m.Vertices[i].Z = (z+shift)*w + (tz+textShift)*(1-w)
			}
			if m.Header.Material == nil {
				m.Header.SetDiffuse(color.Arrow)
			}
			m.Header.Material.LineWidth = 2
		}
	}
	return nil
}

// BuildFeatures builds the wells and arches recorded in the groups. A
// well spans from the depth of its level to the depth of its upper
// level when they are known. The meshes go to "<group>_tri".
func (e *Engine) BuildFeatures(ctx context.Context, out *mesh.Collection) error {
	o := features.Options{ZScale: e.ZScale}
	for _, key := range out.Keys() {
		p := e.Groups.Get(key)
		g, _ := out.Lookup(key)
		if p == nil || len(g.Features) == 0 {
			continue
		}
		if p.Label != ArchLabel && !p.Well {
			continue
		}
		built := &mesh.Mesh{}
		for _, s := range g.Features {
			if z, ok, err := e.Registry.Query(ctx, p.Level, s.Center); err != nil {
				return fmt.Errorf("features %s: %w", key, err)
			} else if ok {
				s.Z = z
			}
			if up, ok, err := e.Registry.Query(ctx, p.UpperLevel, s.Center); err != nil {
				return fmt.Errorf("features %s: %w", key, err)
			} else if ok {
				s.Height = up - s.Z
			}
			s.Z += p.HeightShiftOr(0) * e.ZScale
			s.Height += p.HeightOr(0) * e.ZScale

			var m *mesh.Mesh
			if p.Label == ArchLabel {
				var err error
				if m, err = features.Arch(s, o); err != nil {
					log.Printf("%s: %s", key, err)
					continue
				}
			} else {
				m = features.Make(p.Label, s, o)
			}
			if err := mesh.Merge(built, m); err != nil {
				return fmt.Errorf("features %s: %w", key, err)
			}
		}
		if !built.Empty() {
			out.Add(key+"_tri", built)
			e.Groups.Set(key+"_tri", p)
		}
	}
	return nil
}
