package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box. The zero value is the degenerate box at the origin.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewAABBFromPoints returns the tightest box containing all the given points.
func NewAABBFromPoints(pts ...r3.Vector) AABB {
	if len(pts) == 0 {
		return AABB{}
	}
	box := AABB{Min: pts[0], Max: pts[0]}
	for _, pt := range pts[1:] {
		box = box.ExtendPoint(pt)
	}
	return box
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	return AABB{Min: minVector(b.Min, o.Min), Max: maxVector(b.Max, o.Max)}
}

// ExtendPoint returns the smallest box containing b and pt.
func (b AABB) ExtendPoint(pt r3.Vector) AABB {
	return AABB{Min: minVector(b.Min, pt), Max: maxVector(b.Max, pt)}
}

// Size returns the extent of the box along each axis.
func (b AABB) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b AABB) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// LongestAxis returns the axis along which the box is widest. Ties resolve to the lower axis.
func (b AABB) LongestAxis() Axis {
	size := b.Size()
	axis := XAxis
	if size.Y > size.X {
		axis = YAxis
	}
	if size.Z > Component(size, axis) {
		axis = ZAxis
	}
	return axis
}

// SurfaceArea returns the total area of the six faces of the box.
func (b AABB) SurfaceArea() float64 {
	d := b.Size()
	return 2 * (d.X*d.Y + d.X*d.Z + d.Y*d.Z)
}

// Intersects returns whether the two boxes overlap. Touching faces count as overlapping.
func (b AABB) Intersects(o AABB) bool {
	return math.Min(b.Max.X, o.Max.X)-math.Max(b.Min.X, o.Min.X) >= 0 &&
		math.Min(b.Max.Y, o.Max.Y)-math.Max(b.Min.Y, o.Min.Y) >= 0 &&
		math.Min(b.Max.Z, o.Max.Z)-math.Max(b.Min.Z, o.Min.Z) >= 0
}

// ContainsPoint returns whether pt lies within the box, bounds included.
func (b AABB) ContainsPoint(pt r3.Vector) bool {
	return pt.X >= b.Min.X && pt.X <= b.Max.X &&
		pt.Y >= b.Min.Y && pt.Y <= b.Max.Y &&
		pt.Z >= b.Min.Z && pt.Z <= b.Max.Z
}

// ContainsBox returns whether o lies entirely within b.
func (b AABB) ContainsBox(o AABB) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// ClosestPoint clamps pt to the box.
func (b AABB) ClosestPoint(pt r3.Vector) r3.Vector {
	return minVector(maxVector(pt, b.Min), b.Max)
}

// DistanceToPoint returns the euclidean distance from pt to the box, or -1 if pt is inside it.
func (b AABB) DistanceToPoint(pt r3.Vector) float64 {
	if b.ContainsPoint(pt) {
		return -1
	}
	return pt.Distance(b.ClosestPoint(pt))
}

// LowerBound returns a lower bound on the distance from pt to anything contained in the box.
func (b AABB) LowerBound(pt r3.Vector) float64 {
	return math.Max(b.DistanceToPoint(pt), 0)
}

type quadrant int

const (
	quadrantRight quadrant = iota
	quadrantLeft
	quadrantMiddle
)

// IntersectsRay returns whether the ray starting at origin heading along dir hits the box.
// This is Woo's candidate plane test; only the boolean outcome is reported.
func (b AABB) IntersectsRay(origin, dir r3.Vector) bool {
	t, ok := b.candidatePlaneHit(origin, dir)
	return ok && t >= 0
}

// IntersectsSegment returns whether the segment between p0 and p1 touches the box.
func (b AABB) IntersectsSegment(p0, p1 r3.Vector) bool {
	if b.ContainsPoint(p0) || b.ContainsPoint(p1) {
		return true
	}
	delta := p1.Sub(p0)
	length := delta.Norm()
	if length == 0 {
		return false
	}
	t, ok := b.candidatePlaneHit(p0, delta.Mul(1/length))
	return ok && t <= length
}

// candidatePlaneHit returns the parametric distance along dir of the entry point into the box.
// An origin inside the box reports a hit at 0.
func (b AABB) candidatePlaneHit(origin, dir r3.Vector) (float64, bool) {
	var (
		quadrants      [3]quadrant
		candidatePlane [3]float64
		maxT           [3]float64
	)
	inside := true
	for i := XAxis; i <= ZAxis; i++ {
		o := Component(origin, i)
		switch {
		case o < Component(b.Min, i):
			quadrants[i] = quadrantLeft
			candidatePlane[i] = Component(b.Min, i)
			inside = false
		case o > Component(b.Max, i):
			quadrants[i] = quadrantRight
			candidatePlane[i] = Component(b.Max, i)
			inside = false
		default:
			quadrants[i] = quadrantMiddle
		}
	}
	if inside {
		return 0, true
	}

	for i := XAxis; i <= ZAxis; i++ {
		d := Component(dir, i)
		if quadrants[i] != quadrantMiddle && d != 0 {
			maxT[i] = (candidatePlane[i] - Component(origin, i)) / d
		} else {
			maxT[i] = -1
		}
	}

	// the furthest candidate plane is the one the ray enters through
	whichPlane := XAxis
	for i := YAxis; i <= ZAxis; i++ {
		if maxT[whichPlane] < maxT[i] {
			whichPlane = i
		}
	}
	if maxT[whichPlane] < 0 {
		return 0, false
	}

	for i := XAxis; i <= ZAxis; i++ {
		if i == whichPlane {
			continue
		}
		coord := Component(origin, i) + maxT[whichPlane]*Component(dir, i)
		if coord < Component(b.Min, i) || coord > Component(b.Max, i) {
			return 0, false
		}
	}
	return maxT[whichPlane], true
}
