package main

import (
	"catamesh/pkg/cfg"
	"catamesh/pkg/map2d"
	"catamesh/pkg/mapmesh"
	"catamesh/pkg/scene"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const usage = `catamesh.

Usage:
  catamesh mesh <svg> [--config=<file>] [--z-scale=<z>] [--footprints=<file>]
  catamesh map2d <svg> <out> [--variant=<v>] [--config=<file>]
  catamesh -h | --help

Options:
  <svg>                The map document
  <out>                The cleaned SVG map to write
  --config=<file>      JSON file overriding the tunables
  --z-scale=<z>        Vertical scale, overrides the document metadata
  --footprints=<file>  Write the 2D extent of every group as GeoJSON
  --variant=<v>        public or private [default: public]
  -h --help            Show this screen.
`

func main() {
	arguments, err := docopt.ParseArgs(usage, nil, "0")
	if err != nil {
		log.Fatalf("arguments: %s", err)
	}

	if config, ok := arguments["--config"].(string); ok {
		if err := cfg.Load(config); err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	filename := arguments["<svg>"].(string)
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		log.Fatalf("file read error: %s", err)
	}
	doc, err := scene.Parse(data)
	if err != nil {
		log.Fatalf("parse error: %s", err)
	}

	ctx := context.Background()
	if mode, _ := arguments["map2d"].(bool); mode {
		writeMap2D(ctx, doc, arguments["--variant"].(string), arguments["<out>"].(string))
		return
	}

	pl := mapmesh.NewPipeline()
	if z, ok := arguments["--z-scale"].(string); ok {
		pl.ZScale, err = strconv.ParseFloat(z, 64)
		if err != nil || pl.ZScale <= 0 {
			log.Fatalf("invalid z scale %q", z)
		}
	}
	res, err := pl.Run(ctx, doc)
	if err != nil {
		log.Fatalf("mesh error: %s", err)
	}
	summary(res)

	if out, ok := arguments["--footprints"].(string); ok {
		data, err := footprints(res).MarshalJSON()
		if err != nil {
			log.Fatalf("marshal error: %s", err)
		}
		if err := ioutil.WriteFile(out, data, 0644); err != nil {
			log.Fatalf("file write error: %s", err)
		}
	}
}

func writeMap2D(ctx context.Context, doc *scene.Document, variant, out string) {
	p, err := map2d.NewPolicy(variant)
	if err != nil {
		log.Fatal(err)
	}
	m, err := p.Build(ctx, doc)
	if err != nil {
		log.Fatalf("map error: %s", err)
	}
	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("file create error: %s", err)
	}
	if err := m.Render(f); err != nil {
		f.Close()
		log.Fatalf("render error: %s", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("file write error: %s", err)
	}
}

func summary(res *mapmesh.Result) {
	for _, title := range res.Titles {
		fmt.Println(title)
	}
	out := res.Collection
	for _, key := range out.Keys() {
		g, _ := out.Lookup(key)
		var vertices, triangles int
		for _, m := range g.Meshes {
			vertices += len(m.Vertices)
			triangles += len(m.Triangles)
		}
		fmt.Printf("%-48s %4d meshes %7d vertices %7d triangles %3d texts\n",
			key, len(g.Meshes), vertices, triangles, len(g.Texts))
	}
	for _, s := range res.Stats {
		if s.Abnormal {
			fmt.Printf("%s: %d of %d depth queries missed\n", s.Group, s.Missed, s.Done)
		}
	}
}

// footprints lists the 2D bounds and depth range of every group.
func footprints(res *mapmesh.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	out := res.Collection
	for _, key := range out.Keys() {
		g, _ := out.Lookup(key)
		if len(g.Meshes) == 0 {
			continue
		}
		var bound orb.Bound
		zmin, zmax := g.Meshes[0].ZRange()
		for i, m := range g.Meshes {
			b := m.Bounds()
			mb := orb.Bound{Min: orb.Point{b.X.Lo, b.Y.Lo}, Max: orb.Point{b.X.Hi, b.Y.Hi}}
			if i == 0 {
				bound = mb
			} else {
				bound = bound.Union(mb)
			}
			lo, hi := m.ZRange()
			if lo < zmin {
				zmin = lo
			}
			if hi > zmax {
				zmax = hi
			}
		}
		f := geojson.NewFeature(bound.ToPolygon())
		f.Properties["group"] = key
		f.Properties["zmin"] = zmin
		f.Properties["zmax"] = zmax
		fc.Append(f)
	}
	return fc
}
