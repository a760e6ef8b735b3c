// Package spatialmath defines the geometric primitives used by the mesh index: axis-aligned
// boxes, segments/rays and triangles, together with their exact distance and intersection routines.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Axis names one of the three coordinate axes.
type Axis int

// The three coordinate axes.
const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	default:
		return "unknown"
	}
}

// Next returns the axis following a, wrapping from z back to x.
func (a Axis) Next() Axis {
	return (a + 1) % 3
}

// Others returns the two axes that are not a, in cyclic order.
func (a Axis) Others() (Axis, Axis) {
	return (a + 1) % 3, (a + 2) % 3
}

const (
	// parallelTolerance gates the parallel-segments branch of the segment distance computation.
	parallelTolerance = 1e-6

	// edgeTolerance is how close a ray or segment must pass to a triangle edge to count as a hit
	// when the interior test misses on a shared edge.
	edgeTolerance = 1e-5

	// maxSegmentExtent stands in for an infinite ray extent inside the segment distance quadratic.
	maxSegmentExtent = 1e12
)

var (
	// NoHitDistance is reported by queries that found nothing.
	NoHitDistance = math.Inf(1)

	// NoHitPoint is reported by queries that found nothing.
	NoHitPoint = r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
)

// IsNoHit returns whether the distance is the no-hit sentinel.
func IsNoHit(distance float64) bool {
	return math.IsInf(distance, 1)
}

// Component returns the coordinate of v along the given axis.
func Component(v r3.Vector, axis Axis) float64 {
	switch axis {
	case XAxis:
		return v.X
	case YAxis:
		return v.Y
	default:
		return v.Z
	}
}

// SetComponent returns a copy of v with the coordinate along axis replaced by value.
func SetComponent(v r3.Vector, axis Axis, value float64) r3.Vector {
	switch axis {
	case XAxis:
		v.X = value
	case YAxis:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// PlaneNormal returns the unit normal of the plane through the three points, following the
// right-hand rule on (p1-p0) x (p2-p0). Degenerate input yields the zero vector.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// ClosestPointSegmentPoint takes a line segment defined by its two endpoints and a query point,
// and returns the point on the segment closest to the query point.
func ClosestPointSegmentPoint(segA, segB, pt r3.Vector) r3.Vector {
	ab := segB.Sub(segA)
	denom := ab.Norm2()
	if denom == 0 {
		return segA
	}
	t := pt.Sub(segA).Dot(ab) / denom
	if t <= 0 {
		return segA
	}
	if t >= 1 {
		return segB
	}
	return segA.Add(ab.Mul(t))
}

func minVector(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVector(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
