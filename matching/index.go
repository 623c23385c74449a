package matching

import (
	"math"
	"sort"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"

	"github.com/high-horse/fingerprint-server/minutiae"
)

// index is a spatial index over candidate minutiae: a red-black tree keyed
// by column, each column holding its points sorted by row. A radius query
// only visits the columns within the radius and, in each, only the rows
// within it.
type index struct {
	points minutiae.Template
	tree   *redblacktree.Tree
}

func newIndex(points minutiae.Template) *index {
	ix := &index{
		points: points,
		tree:   redblacktree.NewWith(utils.IntComparator),
	}
	for i, m := range points {
		var col []int
		if v, found := ix.tree.Get(m.X); found {
			col = v.([]int)
		}
		ix.tree.Put(m.X, append(col, i))
	}
	it := ix.tree.Iterator()
	for it.Next() {
		col := it.Value().([]int)
		sort.SliceStable(col, func(a, b int) bool {
			return points[col[a]].Y < points[col[b]].Y
		})
	}
	return ix
}

// within calls fn for every point strictly closer than radius to (x, y).
func (ix *index) within(x, y, radius float64, fn func(i int, d float64)) {
	if math.IsNaN(radius) || radius <= 0 || ix.tree.Empty() {
		return
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	// Clamp to the populated columns so huge radii never overflow int.
	first := float64(ix.tree.Left().Key.(int))
	last := float64(ix.tree.Right().Key.(int))
	lof := math.Max(math.Ceil(x-radius), first)
	hif := math.Min(math.Floor(x+radius), last)
	if lof > hif {
		return
	}
	lo, hi := int(lof), int(hif)
	ylo := y - radius

	for c := lo; c <= hi; {
		node, found := ix.tree.Ceiling(c)
		if !found {
			return
		}
		col := node.Key.(int)
		if col > hi {
			return
		}
		rows := node.Value.([]int)
		start := sort.Search(len(rows), func(k int) bool {
			return float64(ix.points[rows[k]].Y) >= ylo
		})
		for _, i := range rows[start:] {
			p := ix.points[i]
			if float64(p.Y) > y+radius {
				break
			}
			if d := math.Hypot(float64(p.X)-x, float64(p.Y)-y); d < radius {
				fn(i, d)
			}
		}
		c = col + 1
	}
}

// nearest returns the closest point strictly within radius. Equal distances
// resolve to the earliest point in template order.
func (ix *index) nearest(x, y, radius float64) (best int, dist float64, ok bool) {
	best, dist = -1, math.Inf(1)
	ix.within(x, y, radius, func(i int, d float64) {
		if d < dist || (d == dist && i < best) {
			best, dist = i, d
		}
	})
	return best, dist, best >= 0
}
