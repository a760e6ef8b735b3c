package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// degenerateTolerance is the smallest Gram determinant a triangle may have before it is treated as
// a collection of edges rather than a surface.
const degenerateTolerance = 1e-12

// Triangle is three points in space with a cached unit normal following the right-hand rule.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle returns a triangle with the given vertices.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three vertices.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal of the triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Centroid returns the average of the three vertices.
func (t *Triangle) Centroid() r3.Vector {
	return r3.Vector{
		X: (t.p0.X + t.p1.X + t.p2.X) / 3,
		Y: (t.p0.Y + t.p1.Y + t.p2.Y) / 3,
		Z: (t.p0.Z + t.p1.Z + t.p2.Z) / 3,
	}
}

// Bounds returns the axis-aligned box around the three vertices.
func (t *Triangle) Bounds() AABB {
	return NewAABBFromPoints(t.p0, t.p1, t.p2)
}

// Edges returns the three boundary segments in the order p0-p1, p1-p2, p2-p0.
func (t *Triangle) Edges() [3]Segment {
	return [3]Segment{
		NewSegment(t.p0, t.p1),
		NewSegment(t.p1, t.p2),
		NewSegment(t.p2, t.p0),
	}
}

// Barycentric returns the barycentric coordinates (u, v, w) of pt projected onto the plane of the
// triangle, such that pt = u*p0 + v*p1 + w*p2.
func (t *Triangle) Barycentric(pt r3.Vector) r3.Vector {
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	d := pt.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	det := a*c - b*b
	if math.Abs(det) < degenerateTolerance {
		return r3.Vector{X: 1}
	}
	v := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	w := (a*e1.Dot(d) - b*e0.Dot(d)) / det
	return r3.Vector{X: 1 - v - w, Y: v, Z: w}
}

// FromBarycentric maps barycentric coordinates back to a point.
func (t *Triangle) FromBarycentric(bary r3.Vector) r3.Vector {
	return t.p0.Mul(bary.X).Add(t.p1.Mul(bary.Y)).Add(t.p2.Mul(bary.Z))
}

// ClosestPointToPoint returns the point on the triangle closest to pt.
func (t *Triangle) ClosestPointToPoint(pt r3.Vector) r3.Vector {
	_, closest := t.DistanceToPoint(pt)
	return closest
}

// DistanceToPoint returns the distance from pt to the triangle and the closest point on it.
//
// The triangle is parametrized as p0 + s*e0 + t*e1 with e0 = p1-p0 and e1 = p2-p0. The squared
// distance is a quadratic in (s, t); when its unconstrained minimum lies outside s >= 0, t >= 0,
// s+t <= 1 the minimum moves onto the boundary, and which edge or vertex it lands on depends on
// which of the six outer regions the unconstrained minimum fell in.
func (t *Triangle) DistanceToPoint(pt r3.Vector) (float64, r3.Vector) {
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	diff := t.p0.Sub(pt)
	a00 := e0.Norm2()
	a01 := e0.Dot(e1)
	a11 := e1.Norm2()
	b0 := diff.Dot(e0)
	b1 := diff.Dot(e1)
	det := math.Abs(a00*a11 - a01*a01)
	if det < degenerateTolerance {
		return t.edgeDistanceToPoint(pt)
	}

	s := a01*b1 - a11*b0
	u := a01*b0 - a00*b1

	if s+u <= det {
		switch {
		case s < 0 && u < 0:
			// region 4
			if b0 < 0 {
				u = 0
				s = clampUnit(-b0, a00)
			} else {
				s = 0
				u = clampRatio(b1, a11)
			}
		case s < 0:
			// region 3
			s = 0
			u = clampRatio(b1, a11)
		case u < 0:
			// region 5
			u = 0
			s = clampRatio(b0, a00)
		default:
			// region 0
			invDet := 1 / det
			s *= invDet
			u *= invDet
		}
	} else {
		denom := a00 - 2*a01 + a11
		switch {
		case s < 0:
			// region 2
			tmp0 := a01 + b0
			tmp1 := a11 + b1
			if tmp1 > tmp0 {
				s = clampUnit(tmp1-tmp0, denom)
				u = 1 - s
			} else {
				s = 0
				if tmp1 <= 0 {
					u = 1
				} else {
					u = clampRatio(b1, a11)
				}
			}
		case u < 0:
			// region 6
			tmp0 := a01 + b1
			tmp1 := a00 + b0
			if tmp1 > tmp0 {
				u = clampUnit(tmp1-tmp0, denom)
				s = 1 - u
			} else {
				u = 0
				if tmp1 <= 0 {
					s = 1
				} else {
					s = clampRatio(b0, a00)
				}
			}
		default:
			// region 1
			numer := a11 + b1 - a01 - b0
			if numer <= 0 {
				s = 0
			} else {
				s = clampUnit(numer, denom)
			}
			u = 1 - s
		}
	}

	closest := t.p0.Add(e0.Mul(s)).Add(e1.Mul(u))
	return math.Max(pt.Distance(closest), 0), closest
}

// clampUnit returns numer/denom limited to at most 1, for numer >= 0.
func clampUnit(numer, denom float64) float64 {
	if numer >= denom {
		return 1
	}
	return numer / denom
}

// clampRatio minimizes a*x^2 + 2*b*x over x in [0, 1].
func clampRatio(b, a float64) float64 {
	if b >= 0 {
		return 0
	}
	return clampUnit(-b, a)
}

// edgeDistanceToPoint handles triangles with no area by measuring against their edges.
func (t *Triangle) edgeDistanceToPoint(pt r3.Vector) (float64, r3.Vector) {
	best := math.Inf(1)
	var closest r3.Vector
	for _, edge := range [3][2]r3.Vector{{t.p0, t.p1}, {t.p1, t.p2}, {t.p2, t.p0}} {
		candidate := ClosestPointSegmentPoint(edge[0], edge[1], pt)
		if d := pt.Distance(candidate); d < best {
			best = d
			closest = candidate
		}
	}
	return best, closest
}

// IntersectRay intersects the ray from origin along dir with the triangle. It returns the distance
// from origin to the hit and the hit point. dir need not be normalized.
func (t *Triangle) IntersectRay(origin, dir r3.Vector) (float64, r3.Vector, bool) {
	dir = dir.Normalize()
	if dir.Norm2() == 0 {
		return NoHitDistance, NoHitPoint, false
	}
	if dist, ok := t.intersectLine(origin, dir, math.Inf(1)); ok {
		return dist, origin.Add(dir.Mul(dist)), true
	}
	return t.patchEdges(NewRay(origin, dir), origin, dir, math.Inf(1))
}

// IntersectSegment intersects the segment from p0 to p1 with the triangle. It returns the
// distance from p0 to the hit and the hit point.
func (t *Triangle) IntersectSegment(p0, p1 r3.Vector) (float64, r3.Vector, bool) {
	delta := p1.Sub(p0)
	length := delta.Norm()
	if length == 0 {
		return NoHitDistance, NoHitPoint, false
	}
	dir := delta.Mul(1 / length)
	if dist, ok := t.intersectLine(p0, dir, length); ok {
		return dist, p0.Add(dir.Mul(dist)), true
	}
	return t.patchEdges(NewSegment(p0, p1), p0, dir, length)
}

// intersectLine runs the interior test for origin + d*dir with d in [0, maxDist], dir unit length.
func (t *Triangle) intersectLine(origin, dir r3.Vector, maxDist float64) (float64, bool) {
	diff := origin.Sub(t.p0)
	edge1 := t.p1.Sub(t.p0)
	edge2 := t.p2.Sub(t.p0)
	normal := edge1.Cross(edge2)

	// With Q = diff, D = dir, N = normal and the edges E1, E2:
	//   |Dot(D,N)|*b1 = sign(Dot(D,N))*Dot(D,Cross(Q,E2))
	//   |Dot(D,N)|*b2 = sign(Dot(D,N))*Dot(D,Cross(E1,Q))
	//   |Dot(D,N)|*d  = -sign(Dot(D,N))*Dot(Q,N)
	fDdN := dir.Dot(normal)
	var sign float64
	switch {
	case fDdN > 0:
		sign = 1
	case fDdN < 0:
		sign = -1
		fDdN = -fDdN
	default:
		// parallel to the triangle plane
		return 0, false
	}

	fDdQxE2 := sign * dir.Dot(diff.Cross(edge2))
	if fDdQxE2 < 0 {
		return 0, false
	}
	fDdE1xQ := sign * dir.Dot(edge1.Cross(diff))
	if fDdE1xQ < 0 || fDdQxE2+fDdE1xQ > fDdN {
		return 0, false
	}
	fQdN := -sign * diff.Dot(normal)
	if fQdN < 0 {
		return 0, false
	}
	dist := fQdN / fDdN
	if dist > maxDist {
		return 0, false
	}
	return dist, true
}

// patchEdges catches rays and segments that pass exactly along or across an edge shared with a
// neighboring triangle, where the interior test can miss on both sides due to rounding.
// Edges are tried in the order p0-p1, p1-p2, p2-p0 and the closest one within tolerance wins.
func (t *Triangle) patchEdges(query Segment, start, dir r3.Vector, maxDist float64) (float64, r3.Vector, bool) {
	bestEdgeDist := edgeTolerance
	found := false
	var hit r3.Vector
	for _, edge := range t.Edges() {
		edgeDist, closest := query.Distance(edge)
		if edgeDist >= bestEdgeDist {
			continue
		}
		along := closest.Sub(start).Dot(dir)
		if along < 0 || along > maxDist {
			continue
		}
		bestEdgeDist = edgeDist
		hit = closest
		found = true
	}
	if !found {
		return NoHitDistance, NoHitPoint, false
	}
	return hit.Distance(start), hit, true
}
