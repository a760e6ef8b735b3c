package kdtree

import (
	"github.com/golang/geo/r3"
	"github.com/tidwall/tinyqueue"

	"go.viam.com/meshtree/spatialmath"
	"go.viam.com/meshtree/utils"
)

// Hit is the result of a query. When nothing was found Distance is spatialmath.NoHitDistance,
// Point is spatialmath.NoHitPoint, Triangle is nil and TriangleIndex is -1.
type Hit struct {
	// Distance from the query origin to Point. Signed for ClosestPointSignedDistance.
	Distance      float64
	Point         r3.Vector
	Triangle      *spatialmath.Triangle
	TriangleIndex int
}

// Found returns whether the query hit a triangle.
func (h Hit) Found() bool {
	return h.Triangle != nil
}

func noHit() Hit {
	return Hit{
		Distance:      spatialmath.NoHitDistance,
		Point:         spatialmath.NoHitPoint,
		TriangleIndex: -1,
	}
}

// IntersectRay returns the first triangle hit by the ray from origin along dir.
func (t *Tree) IntersectRay(origin, dir r3.Vector) (Hit, error) {
	if err := t.initialized(); err != nil {
		return noHit(), err
	}
	return t.traverse(
		func(box spatialmath.AABB) bool { return box.IntersectsRay(origin, dir) },
		func(tri *spatialmath.Triangle) (float64, r3.Vector, bool) { return tri.IntersectRay(origin, dir) },
	), nil
}

// IntersectSegment returns the triangle hit closest to p0 along the segment from p0 to p1.
func (t *Tree) IntersectSegment(p0, p1 r3.Vector) (Hit, error) {
	if err := t.initialized(); err != nil {
		return noHit(), err
	}
	return t.traverse(
		func(box spatialmath.AABB) bool { return box.IntersectsSegment(p0, p1) },
		func(tri *spatialmath.Triangle) (float64, r3.Vector, bool) { return tri.IntersectSegment(p0, p1) },
	), nil
}

// traverse visits every node whose box passes the pruning test in breadth first order and keeps
// the nearest triangle hit.
func (t *Tree) traverse(
	visit func(spatialmath.AABB) bool,
	intersect func(*spatialmath.Triangle) (float64, r3.Vector, bool),
) Hit {
	best := noHit()
	queue := []int{t.root}
	for len(queue) > 0 {
		n := &t.nodes[queue[0]]
		queue = queue[1:]
		if !visit(n.bounds) {
			continue
		}
		if n.kind == leafNode {
			tri := t.triangles[n.triangle]
			if dist, pt, ok := intersect(tri); ok && dist < best.Distance {
				best = Hit{Distance: dist, Point: pt, Triangle: tri, TriangleIndex: n.triangle}
			}
			continue
		}
		queue = append(queue, n.children...)
	}
	return best
}

type queueItem struct {
	node  int
	bound float64
}

func (item *queueItem) Less(b tinyqueue.Item) bool {
	return item.bound < b.(*queueItem).bound
}

// ClosestPoint returns the point on the mesh nearest to pt.
func (t *Tree) ClosestPoint(pt r3.Vector) (Hit, error) {
	if err := t.initialized(); err != nil {
		return noHit(), err
	}
	return t.nearest(pt, nil), nil
}

// ClosestPointOutside returns the point on the mesh nearest to pt among those lying on the side
// of pt that dir points to, i.e. with dot(hit-pt, dir) >= 0. Casting from a surface point along
// its normal this skips the surface the point sits on.
func (t *Tree) ClosestPointOutside(pt, dir r3.Vector) (Hit, error) {
	if err := t.initialized(); err != nil {
		return noHit(), err
	}
	return t.nearest(pt, func(hit r3.Vector) bool {
		return hit.Sub(pt).Dot(dir) >= 0
	}), nil
}

// ClosestPointSignedDistance is ClosestPoint with the distance made negative when pt lies behind
// the nearest triangle. This is only reliable near well oriented, locally flat surfaces.
func (t *Tree) ClosestPointSignedDistance(pt r3.Vector) (Hit, error) {
	hit, err := t.ClosestPoint(pt)
	if err != nil || !hit.Found() {
		return hit, err
	}
	hit.Distance *= utils.Sign(pt.Sub(hit.Triangle.Centroid()).Dot(hit.Triangle.Normal()))
	return hit, nil
}

// nearest runs a best-first search ordered by the distance from pt to each box. The search ends as
// soon as the nearest remaining box is further than the best hit. A nil accept takes every hit.
func (t *Tree) nearest(pt r3.Vector, accept func(r3.Vector) bool) Hit {
	best := noHit()
	queue := tinyqueue.New(nil)
	queue.Push(&queueItem{node: t.root, bound: t.nodes[t.root].bounds.LowerBound(pt)})
	for queue.Len() > 0 {
		item := queue.Pop().(*queueItem)
		if item.bound > best.Distance {
			break
		}
		n := &t.nodes[item.node]
		if n.kind == leafNode {
			tri := t.triangles[n.triangle]
			dist, closest := tri.DistanceToPoint(pt)
			if dist < best.Distance && (accept == nil || accept(closest)) {
				best = Hit{Distance: dist, Point: closest, Triangle: tri, TriangleIndex: n.triangle}
			}
			continue
		}
		for _, child := range n.children {
			if bound := t.nodes[child].bounds.LowerBound(pt); bound <= best.Distance {
				queue.Push(&queueItem{node: child, bound: bound})
			}
		}
	}
	return best
}
