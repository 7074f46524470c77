package mapmesh

import (
	"catamesh/pkg/color"
	"catamesh/pkg/depth"
	"catamesh/pkg/features"
	"catamesh/pkg/mesh"
	"catamesh/pkg/props"
	"catamesh/pkg/scene"
	"catamesh/pkg/svgpath"
	"catamesh/pkg/walker"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// StructuralError aborts a run on a malformed document.
type StructuralError = walker.StructuralError

// Pipeline turns a map document into the 3D meshes of its groups.
type Pipeline struct {
	// Renderer renders the depth surfaces found in the document.
	Renderer depth.Renderer
	// Ground answers the ground level. nil is a flat ground at 0.
	Ground depth.Ground
	// Views are pre-rendered level surfaces, used when the document has no
	// depth map for their level.
	Views  map[string]depth.View
	Tables *props.Tables
	// ZScale overrides the document z_scale when non zero.
	ZScale float64
}

// Result is the output of a run.
type Result struct {
	Collection *mesh.Collection
	Groups     *props.Groups
	Stats      []depth.Stats
	Titles     []string
}

func NewPipeline() *Pipeline {
	return &Pipeline{Renderer: depth.NewTINRenderer()}
}

// Run walks doc and post-processes the collected meshes.
func (pl *Pipeline) Run(ctx context.Context, doc *scene.Document) (*Result, error) {
	policy := NewPolicy()
	if pl.ZScale != 0 {
		policy.Scale, policy.LockScale = pl.ZScale, true
	}
	w := walker.New(policy)
	w.Classifier = props.New(pl.Tables)
	w.ShowLayers = true
	out, err := w.Traverse(ctx, doc, svgpath.Identity)
	if err != nil {
		return nil, err
	}
	res := &Result{Collection: out, Groups: policy.Groups, Titles: policy.Titles}
	groups := policy.Groups

	recolorTexts(out, groups)
	if n := AttachArrows(out, groups); n != 0 {
		log.Printf("%d arrows attached to texts", n)
	}

	registry := depth.NewRegistry(pl.Renderer, pl.Ground)
	registry.ZScale = policy.Scale
	if t := pl.Tables; t != nil {
		registry.GroundLevel = t.GroundLevel
	}
	defer registry.Close()
	for level, v := range pl.Views {
		registry.Attach(level, v)
	}
	for _, s := range policy.surfaces {
		if len(s.Mesh.Triangles) != 0 {
			continue
		}
		// triangles index the shared vertices, which Build moves in place
		if tri := mesh.Delaunay(s.Mesh); tri != nil {
			s.Mesh.Triangles = tri.Triangles
		} else {
			log.Printf("depth map %s: cannot triangulate %d points", s.Level, len(s.Mesh.Vertices))
		}
	}
	if err := registry.Build(ctx, policy.Surfaces()); err != nil {
		return nil, err
	}
	for _, s := range policy.surfaces {
		if len(s.Mesh.Triangles) != 0 {
			s.Mesh.UpdateNormals()
			out.Add(s.group, s.Mesh)
		}
	}

	engine := depth.NewEngine(registry, groups)
	engine.ZScale = policy.Scale
	if res.Stats, err = engine.ApplyGroups(ctx, out); err != nil {
		return nil, err
	}
	if err := engine.ApplyTexts(ctx, out); err != nil {
		return nil, err
	}
	if err := engine.BuildFeatures(ctx, out); err != nil {
		return nil, err
	}
	if err := engine.ApplyArrows(ctx, out); err != nil {
		return nil, err
	}
	if err := extrudeGroups(ctx, out, groups, registry, policy.Scale); err != nil {
		return nil, err
	}

	bindTextures(out, groups, doc)
	out.MergeGroups()
	for _, key := range out.Keys() {
		if strings.HasPrefix(key, "calcaire") && strings.HasSuffix(key, "_ceil_tri") {
			for _, m := range out.Meshes(key) {
				m.SetNormals(r3.Vector{Z: 1})
			}
		}
	}
	catFlaps(out, groups)
	if err := placeMarkers(ctx, out, policy, registry); err != nil {
		return nil, err
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mesh collection: %w", err)
	}
	return res, registry.Close()
}

func recolorTexts(out *mesh.Collection, groups *props.Groups) {
	for _, key := range out.Keys() {
		p := groups.Get(key)
		if p == nil || !p.Text {
			continue
		}
		var c color.RGBA
		switch p.Label {
		case "annotations":
			c = color.Annotation
		case "rues sans plaques":
			c = color.StreetName
		default:
			continue
		}
		g, _ := out.Lookup(key)
		for _, t := range g.Texts {
			t.Color = c
		}
	}
}

// heightMap returns the level of the height map of a group, or "".
func heightMap(p *props.ItemProperties) string {
	switch p.UseHeightMap {
	case "none", "None", "false":
		return ""
	}
	return p.UseHeightMap
}

func extruded(p *props.ItemProperties) bool {
	return p != nil && (p.Corridor || p.Block || p.Wall) &&
		!p.Symbol && !p.Text && !p.Arrow && !p.DepthMap && !p.Well
}

// extrudeGroups builds the walls and ceilings of corridors, blocks and
// walls, and the floors of corridors.
func extrudeGroups(ctx context.Context, out *mesh.Collection, groups *props.Groups,
	registry *depth.Registry, zScale float64) error {
	for _, key := range out.Keys() {
		p := groups.Get(key)
		if extruded(p) {
			height := p.HeightOr(0) * zScale
			level := heightMap(p)
			if level != "" && !registry.Has(level) {
				log.Printf("%s: no height map for level %s", key, level)
				level = ""
			}
			for _, m := range out.Meshes(key) {
				if m.Dim() != 2 {
					continue
				}
				ceil, wall, err := extrude(ctx, m, height, level, registry)
				if err != nil {
					return fmt.Errorf("extruding %s: %w", key, err)
				}
				ceilColor(ceil, p)
				out.Add(key+"_wall", wall)
				out.Add(key+"_ceil", ceil)
				groups.Set(key+"_wall", p)
				groups.Set(key+"_ceil", p)
				groups.Set(key+"_floor", p)
				if p.Block {
					if t := mesh.Tesselate(ceil, true); t != nil {
						out.Add(key+"_ceil_tri", t)
						groups.Set(key+"_ceil_tri", p)
					}
				}
				if p.Corridor {
					if t := mesh.Tesselate(m, true); t != nil {
						out.Add(key+"_floor_tri", t)
						groups.Set(key+"_floor_tri", p)
					}
				}
			}
		}
		if p != nil && !p.Arrow {
			for _, m := range out.Meshes(key) {
				if mat := m.Header.Material; m.Dim() == 2 && mat != nil && mat.BorderColor != nil {
					bc := *mat.BorderColor
					mat.Diffuse = &bc
				}
			}
		}
	}
	return nil
}

// extrude lifts m by height, or up to the height map of level when given.
// Vertices where the height map has no value fall back to height.
func extrude(ctx context.Context, m *mesh.Mesh, height float64, level string,
	registry *depth.Registry) (ceil, wall *mesh.Mesh, err error) {
	if level == "" {
		ceil, wall = mesh.Extrude(m, height)
		return ceil, wall, nil
	}
	d := m.Direction(height)
	ceil, wall = mesh.ExtrudeTo(m, func(_ int, v r3.Vector) r3.Vector {
		if err != nil {
			return v
		}
		z, ok, qerr := registry.Query(ctx, level, r2.Point{X: v.X, Y: v.Y})
		if qerr != nil {
			err = qerr
			return v
		}
		if !ok {
			return v.Add(d)
		}
		v.Z -= z
		return v
	})
	return ceil, wall, err
}

func ceilColor(ceil *mesh.Mesh, p *props.ItemProperties) {
	mat := ceil.Header.Material
	if mat == nil || mat.Diffuse == nil {
		ceil.Header.SetDiffuse(color.Ceiling)
		return
	}
	contrast := p.Texture("ceil_texture") == nil
	if p.ContrastFloor != nil {
		contrast = *p.ContrastFloor
	}
	if contrast {
		c := mat.Diffuse.Contrast()
		mat.Diffuse = &c
	}
}

// textureParts map extruded mesh groups to their texture binding and
// default mapping.
var textureParts = []struct {
	suffix, part, method string
}{
	{"_wall", "wall_texture", "geodesic_z"},
	{"_ceil", "ceil_texture", "xy"},
	{"_ceil_tri", "ceil_texture", "xy"},
	{"_floor_tri", "floor_texture", "xy"},
}

// bindTextures sets the texture of the walls, ceilings and floors of
// textured groups. Bindings to missing image elements are logged and
// dropped.
func bindTextures(out *mesh.Collection, groups *props.Groups, doc *scene.Document) {
	for _, key := range out.Keys() {
		p := groups.Get(key)
		if p == nil || p.Textures == nil {
			continue
		}
		for _, tp := range textureParts {
			if !strings.HasSuffix(key, tp.suffix) {
				continue
			}
			t := p.Texture(tp.part)
			if t == nil {
				break
			}
			tex, err := texture(doc, t, tp.method)
			if err != nil {
				log.Printf("%s: texture omitted: %s", key, err)
				break
			}
			for _, m := range out.Meshes(key) {
				m.Header.Texture = tex
			}
			break
		}
	}
}

func texture(doc *scene.Document, t *props.Texture, method string) (*mesh.Texture, error) {
	img, err := doc.Lookup(t.ID)
	if err != nil {
		return nil, err
	}
	if m, ok := t.Params["mapping_method"].(string); ok {
		method = m
	}
	href := img.Attr("xlink:href")
	if href == "" {
		href = img.Attr("href")
	}
	m, err := svgpath.ParseTransform(img.Transform(), svgpath.Identity)
	if err != nil {
		return nil, err
	}
	x, y := m.TransformPoint(img.Float("x"), img.Float("y"))
	w, h := m.TransformVector(img.Float("width"), img.Float("height"))
	return &mesh.Texture{
		Image:         img.ID,
		Href:          href,
		Position:      r2.Point{X: x, Y: y},
		Size:          r2.Point{X: w, Y: h},
		MappingMethod: method,
		Params:        t.Params,
	}, nil
}

var catFlapColors = map[string]color.RGBA{
	"bas":     color.CatFlapLow,
	"injecté": color.CatFlapFilled,
}

// catFlaps replaces catflap line groups with their striped tubes, in
// "<group>_0" and "<group>_1".
func catFlaps(out *mesh.Collection, groups *props.Groups) {
	for _, key := range out.Keys() {
		p := groups.Get(key)
		if p == nil || !p.CatFlap {
			continue
		}
		var stripes [2]*mesh.Mesh
		for _, m := range out.Meshes(key) {
			if m.Dim() != 2 {
				continue
			}
			c, ok := catFlapColors[p.Label]
			if !ok {
				c = color.CatFlapRed
				if mat := m.Header.Material; mat != nil && mat.Diffuse != nil {
					c = *mat.Diffuse
				}
			}
			for i, s := range mesh.CatFlap(m, c) {
				if stripes[i] == nil {
					stripes[i] = s
				} else if err := mesh.Merge(stripes[i], s); err != nil {
					log.Printf("%s: %s", key, err)
				}
			}
		}
		if stripes[0] == nil {
			continue
		}
		out.Delete(key)
		for i, s := range stripes {
			k := fmt.Sprintf("%s_%d", key, i)
			out.Add(k, s)
			groups.Set(k, p)
		}
	}
}

// placeMarkers stands a marker model at the depth of every marker.
func placeMarkers(ctx context.Context, out *mesh.Collection, p *Policy, registry *depth.Registry) error {
	for _, mk := range p.markers {
		z, ok, err := registry.Query(ctx, mk.level, mk.pos)
		if err != nil {
			return fmt.Errorf("marker %s: %w", mk.text, err)
		}
		if !ok {
			log.Printf("marker %s: no depth at %v", mk.text, mk.pos)
		}
		pos := r3.Vector{X: mk.pos.X, Y: mk.pos.Y, Z: z + mk.hshift}
		out.Add(mk.kind+"_mesh", features.Marker(strings.TrimSuffix(mk.kind, "_private"), pos, p.SymbolScale))
	}
	return nil
}
