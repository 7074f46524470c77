package geometry

import (
	"github.com/golang/geo/r2"
)

// Triangulate splits a simple polygon into triangles by ear clipping.
// The ring must not repeat its first point. Triangles index into ring and
// are counter-clockwise. Collinear vertices are dropped.
func Triangulate(ring []r2.Point) [][3]int {
	n := len(ring)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	ccw := CounterClockwise(ring)
	for i := range idx {
		if ccw {
			idx[i] = i
		} else {
			idx[i] = n - 1 - i
		}
	}

	var tris [][3]int
	for len(idx) > 3 {
		if !clipEar(ring, &idx, &tris) && !dropCollinear(ring, &idx) {
			break
		}
	}
	if len(idx) == 3 && Cross(ring[idx[0]], ring[idx[1]], ring[idx[2]]) > 0 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris
}

func clipEar(ring []r2.Point, idx *[]int, tris *[][3]int) bool {
	v := *idx
	m := len(v)
	for i := 0; i < m; i++ {
		a, b, c := v[(i+m-1)%m], v[i], v[(i+1)%m]
		if Cross(ring[a], ring[b], ring[c]) <= 0 {
			continue
		}
		ear := true
		for _, j := range v {
			if j == a || j == b || j == c {
				continue
			}
			if ring[j] == ring[a] || ring[j] == ring[b] || ring[j] == ring[c] {
				continue
			}
			if InTriangle(ring[j], ring[a], ring[b], ring[c]) {
				ear = false
				break
			}
		}
		if !ear {
			continue
		}
		*tris = append(*tris, [3]int{a, b, c})
		*idx = append(v[:i], v[i+1:]...)
		return true
	}
	return false
}

func dropCollinear(ring []r2.Point, idx *[]int) bool {
	v := *idx
	m := len(v)
	for i := 0; i < m; i++ {
		a, b, c := v[(i+m-1)%m], v[i], v[(i+1)%m]
		if Cross(ring[a], ring[b], ring[c]) == 0 {
			*idx = append(v[:i], v[i+1:]...)
			return true
		}
	}
	return false
}
