package spatial

import (
	"math"
	"sort"

	"github.com/asim/quadtree"
	"github.com/golang/geo/r2"
)

// Item is a point stored in an Index with its payload.
type Item struct {
	Point r2.Point
	Data  interface{}
}

// Index is a quadtree of 2D points, used for nearest neighbour lookups.
type Index struct {
	quadTree *quadtree.QuadTree
	width    float64
	height   float64
	count    int
}

// NewIndex creates an index covering bounds. Points outside of it are
// rejected by Insert.
func NewIndex(bounds r2.Rect) *Index {
	center := bounds.Center()
	size := bounds.Size()
	halfWidth := size.X / 2
	halfHeight := size.Y / 2

	// Add a small margin to avoid dropping objects at the edges
	halfWidth += 1 + halfWidth*0.01
	halfHeight += 1 + halfHeight*0.01

	aabb := quadtree.NewAABB(
		quadtree.NewPoint(center.X, center.Y, nil),
		quadtree.NewPoint(halfWidth, halfHeight, nil))
	return &Index{
		quadTree: quadtree.New(aabb, 0, nil),
		width:    halfWidth * 2,
		height:   halfHeight * 2,
	}
}

// Insert adds a point; it returns false if the point is out of bounds.
func (t *Index) Insert(p r2.Point, data interface{}) bool {
	if t.quadTree.Insert(quadtree.NewPoint(p.X, p.Y, data)) {
		t.count++
		return true
	}
	return false
}

// Len is the number of points in the index.
func (t *Index) Len() int {
	return t.count
}

func (t *Index) search(p r2.Point, half float64) []Item {
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(p.X, p.Y, nil),
		quadtree.NewPoint(half, half, nil),
	)
	var items []Item
	for _, point := range t.quadTree.Search(aabb) {
		x, y := point.Coordinates()
		items = append(items, Item{Point: r2.Point{X: x, Y: y}, Data: point.Data()})
	}
	return items
}

// Within returns the points at most radius away from p, nearest first.
func (t *Index) Within(p r2.Point, radius float64) []Item {
	var items []Item
	// slightly enlarged so that points exactly at radius are found
	for _, item := range t.search(p, radius*(1+1e-9)+1e-12) {
		if item.Point.Sub(p).Norm() <= radius {
			items = append(items, item)
		}
	}
	sortByDistance(items, p)
	return items
}

// Nearest returns the k points nearest to p, nearest first.
func (t *Index) Nearest(p r2.Point, k int) []Item {
	if t.count == 0 || k <= 0 {
		return nil
	}
	maxHalf := math.Max(t.width, t.height) * 2
	half := math.Max(maxHalf/1024, 1e-6)
	var items []Item
	for {
		items = t.search(p, half)
		if len(items) >= k || len(items) == t.count || half >= maxHalf {
			break
		}
		half *= 2
	}
	// the box may miss closer points around its corners
	items = t.search(p, half*math.Sqrt2)
	sortByDistance(items, p)
	if len(items) > k {
		items = items[:k]
	}
	return items
}

func sortByDistance(items []Item, p r2.Point) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Point.Sub(p).Norm() < items[j].Point.Sub(p).Norm()
	})
}
