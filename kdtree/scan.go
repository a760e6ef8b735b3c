package kdtree

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshtree/spatialmath"
)

// ScanClosestPoint finds the closest point to pt by testing every triangle. It is the reference
// ClosestPoint is checked against.
func ScanClosestPoint(tris []*spatialmath.Triangle, pt r3.Vector) Hit {
	best := noHit()
	for i, tri := range tris {
		if dist, closest := tri.DistanceToPoint(pt); dist < best.Distance {
			best = Hit{Distance: dist, Point: closest, Triangle: tri, TriangleIndex: i}
		}
	}
	return best
}

// ScanRay finds the first triangle hit by a ray by testing every triangle.
func ScanRay(tris []*spatialmath.Triangle, origin, dir r3.Vector) Hit {
	best := noHit()
	for i, tri := range tris {
		if dist, pt, ok := tri.IntersectRay(origin, dir); ok && dist < best.Distance {
			best = Hit{Distance: dist, Point: pt, Triangle: tri, TriangleIndex: i}
		}
	}
	return best
}

// ScanSegment finds the triangle hit closest to p0 along a segment by testing every triangle.
func ScanSegment(tris []*spatialmath.Triangle, p0, p1 r3.Vector) Hit {
	best := noHit()
	for i, tri := range tris {
		if dist, pt, ok := tri.IntersectSegment(p0, p1); ok && dist < best.Distance {
			best = Hit{Distance: dist, Point: pt, Triangle: tri, TriangleIndex: i}
		}
	}
	return best
}
