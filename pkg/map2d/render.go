package map2d

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// Precision is the number of output units per map unit: the SVG writer
// only takes integer coordinates.
const Precision = 100

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func scaled(v float64) int {
	return int(math.Round(v * Precision))
}

// Render writes the map as an SVG document, one group per layer.
func (m *Map) Render(w io.Writer) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	b := m.Bounds
	if b.IsEmpty() {
		canvas.Start(1, 1)
		canvas.End()
		return ew.err
	}
	size := b.Size()
	canvas.Startview(
		int(math.Ceil(size.X)), int(math.Ceil(size.Y)),
		scaled(b.X.Lo), scaled(b.Y.Lo), scaled(size.X), scaled(size.Y))
	if m.Title != "" {
		canvas.Title(m.Title)
	}
	for _, l := range m.Layers {
		if len(l.Lines) == 0 && len(l.Texts) == 0 {
			continue
		}
		canvas.Gid(l.Group)
		for _, line := range l.Lines {
			xs := make([]int, len(line.Points))
			ys := make([]int, len(line.Points))
			for i, p := range line.Points {
				xs[i], ys[i] = scaled(p.X), scaled(p.Y)
			}
			style := scaleStyle(line.Style)
			if line.Closed {
				canvas.Polygon(xs, ys, style)
			} else {
				canvas.Polyline(xs, ys, style)
			}
		}
		for _, t := range l.Texts {
			size := t.FontSize * t.Scale / 0.75
			style := fmt.Sprintf("font-size:%dpx;fill:%s", scaled(size), t.Color.Hex())
			if t.Anchor != "" {
				style += ";text-anchor:" + t.Anchor
			}
			for i, text := range strings.Split(t.Text, "\n") {
				canvas.Text(scaled(t.Position.X), scaled(t.Position.Y+float64(i)*size), text, style)
			}
		}
		canvas.Gend()
	}
	canvas.End()
	return ew.err
}

// scaleStyle converts the stroke width of a style to output units.
func scaleStyle(style string) string {
	parts := strings.Split(style, ";")
	for i, part := range parts {
		if v := strings.TrimPrefix(part, "stroke-width:"); v != part {
			var w float64
			if _, err := fmt.Sscanf(v, "%g", &w); err == nil {
				parts[i] = fmt.Sprintf("stroke-width:%d", scaled(w))
			}
		}
	}
	return strings.Join(parts, ";")
}
