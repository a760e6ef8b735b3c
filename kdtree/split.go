package kdtree

import (
	"cmp"
	"math"
	"slices"

	"github.com/golang/geo/r3"

	"go.viam.com/meshtree/spatialmath"
)

// maxSplitAttempts is how many axes are tried before a node is declared unsplittable.
const maxSplitAttempts = 3

type edgeKind uint8

// End edges order before start edges so that boxes which merely touch at a plane are not counted
// on both sides of it.
const (
	endEdge edgeKind = iota
	startEdge
)

// boundEdge is one side of a child box projected onto the split axis.
type boundEdge struct {
	pos  float64
	kind edgeKind
	// child is the position of the box in its parent's children slice.
	child int
}

func compareEdges(a, b boundEdge) int {
	if c := cmp.Compare(a.pos, b.pos); c != 0 {
		return c
	}
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	return cmp.Compare(a.child, b.child)
}

// splitPosition picks the plane that best divides the children of the node at idx. It returns the
// axis, the index of the chosen edge in the sorted edge list, and that list. The index is -1 when
// no axis offers a candidate strictly inside the node's bounds.
func (t *Tree) splitPosition(idx int) (spatialmath.Axis, int, []boundEdge) {
	n := &t.nodes[idx]
	bounds := n.bounds
	size := bounds.Size()
	count := len(n.children)
	edges := make([]boundEdge, 2*count)

	axis := bounds.LongestAxis()
	for attempt := 0; attempt < maxSplitAttempts; attempt++ {
		for i, child := range n.children {
			childBounds := t.nodes[child].bounds
			edges[2*i] = boundEdge{pos: spatialmath.Component(childBounds.Min, axis), kind: startEdge, child: i}
			edges[2*i+1] = boundEdge{pos: spatialmath.Component(childBounds.Max, axis), kind: endEdge, child: i}
		}
		slices.SortFunc(edges, compareEdges)

		if best := t.sweep(edges, bounds, size, axis, count); best >= 0 {
			return axis, best, edges
		}
		axis = axis.Next()
	}
	return axis, -1, edges
}

// sweep walks the sorted edges and returns the index of the cheapest split, or -1.
func (t *Tree) sweep(edges []boundEdge, bounds spatialmath.AABB, size r3.Vector, axis spatialmath.Axis, count int) int {
	axisMin := spatialmath.Component(bounds.Min, axis)
	axisMax := spatialmath.Component(bounds.Max, axis)
	axisSize := axisMax - axisMin

	other1, other2 := axis.Others()
	d1 := spatialmath.Component(size, other1)
	d2 := spatialmath.Component(size, other2)
	faceProduct := d1 * d2
	faceSum := d1 + d2
	totalSA := faceProduct + faceSum*axisSize

	best := -1
	bestCost := math.Inf(1)
	nBelow, nAbove := 0, count
	for i, edge := range edges {
		if edge.kind == endEdge {
			nAbove--
		}
		if edge.pos > axisMin && edge.pos < axisMax {
			below := edge.pos - axisMin
			above := axisMax - edge.pos
			var pBelow, pAbove float64
			if totalSA > 0 {
				invTotalSA := 1 / totalSA
				pBelow = (faceProduct + faceSum*below) * invTotalSA
				pAbove = (faceProduct + faceSum*above) * invTotalSA
			} else {
				// the node is a line along this axis
				pBelow = below / axisSize
				pAbove = above / axisSize
			}
			bonus := 0.
			if nBelow == 0 || nAbove == 0 {
				bonus = t.cfg.EmptyBonus
			}
			cost := t.cfg.TraversalCost +
				t.cfg.IntersectCost*(1-bonus)*(pBelow*float64(nBelow)+pAbove*float64(nAbove))
			if cost < bestCost {
				bestCost = cost
				best = i
			}
		}
		if edge.kind == startEdge {
			nBelow++
		}
	}
	return best
}

type splitSide uint8

const (
	unassigned splitSide = iota
	toLeft
	toRight
)

// partitionEdges divides the children around the edge at best. A child goes left when its start
// edge precedes the split and right when its end edge follows it; the first of its edges to
// qualify decides, so a box straddling the plane lands on one side only. Boxes flat along the axis
// that sit exactly on the plane follow their start edge.
func partitionEdges(edges []boundEdge, best, count int) (left, right []int) {
	side := make([]splitSide, count)
	for i, edge := range edges {
		if side[edge.child] != unassigned {
			continue
		}
		switch {
		case i < best && edge.kind == startEdge:
			side[edge.child] = toLeft
		case i > best && edge.kind == endEdge:
			side[edge.child] = toRight
		}
	}
	for i, edge := range edges {
		if edge.kind != startEdge || side[edge.child] != unassigned {
			continue
		}
		if i <= best {
			side[edge.child] = toLeft
		} else {
			side[edge.child] = toRight
		}
	}
	for child, s := range side {
		if s == toLeft {
			left = append(left, child)
		} else {
			right = append(right, child)
		}
	}
	return left, right
}
