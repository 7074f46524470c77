package map2d

import (
	"catamesh/pkg/spatial"

	"github.com/golang/geo/r2"
)

type lineEnd struct {
	line  int
	start bool
}

// Join merges open lines of the same style whose ends meet within
// tolerance. A junction is only merged when exactly one other line ends
// there. A line whose two ends meet is closed.
func Join(lines []*Line, tolerance float64) []*Line {
	bounds := r2.EmptyRect()
	for _, l := range lines {
		for _, p := range l.Points {
			bounds = bounds.AddPoint(p)
		}
	}
	if bounds.IsEmpty() {
		return lines
	}
	index := spatial.NewIndex(bounds)
	dead := make([]bool, len(lines))
	add := func(i int) {
		index.Insert(lines[i].end(true), lineEnd{i, true})
		index.Insert(lines[i].end(false), lineEnd{i, false})
	}
	for i, l := range lines {
		if !l.Closed {
			add(i)
		}
	}

	// neighbors lists the live line ends at p, other than those of line i.
	// Ends moved by a previous merge are stale index entries.
	neighbors := func(i int, p r2.Point) []lineEnd {
		var out []lineEnd
		for _, item := range index.Within(p, tolerance) {
			e := item.Data.(lineEnd)
			o := lines[e.line]
			if e.line == i || dead[e.line] || o.Closed || o.end(e.start) != item.Point {
				continue
			}
			if o.Style != lines[i].Style {
				continue
			}
			out = append(out, e)
		}
		return out
	}

	tryMerge := func(i int, start bool) bool {
		l := lines[i]
		if l.Closed {
			return false
		}
		n := neighbors(i, l.end(start))
		if len(n) != 1 {
			return false
		}
		other := lines[n[0].line]
		pts := append([]r2.Point(nil), other.Points...)
		if start == n[0].start {
			for a, b := 0, len(pts)-1; a < b; a, b = a+1, b-1 {
				pts[a], pts[b] = pts[b], pts[a]
			}
		}
		if start {
			l.Points = append(pts[:len(pts)-1], l.Points...)
		} else {
			l.Points = append(l.Points, pts[1:]...)
		}
		dead[n[0].line] = true
		if len(l.Points) > 2 && l.end(true).Sub(l.end(false)).Norm() <= tolerance {
			l.Points = l.Points[:len(l.Points)-1]
			l.Closed = true
			return false
		}
		add(i)
		return true
	}

	for i := range lines {
		for !dead[i] && !lines[i].Closed && len(lines[i].Points) > 0 &&
			(tryMerge(i, true) || tryMerge(i, false)) {
		}
	}

	var out []*Line
	for i, l := range lines {
		if !dead[i] {
			out = append(out, l)
		}
	}
	return out
}
