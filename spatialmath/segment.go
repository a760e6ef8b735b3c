package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/meshtree/utils"
)

// Segment is a line segment in center form: it spans Origin ± Extent*Direction, with Direction
// of unit length. A ray is stored with its start as Origin and an infinite Extent.
type Segment struct {
	Origin    r3.Vector
	Direction r3.Vector
	Extent    float64
}

// NewSegment returns the segment between two endpoints.
func NewSegment(p0, p1 r3.Vector) Segment {
	delta := p1.Sub(p0)
	return Segment{
		Origin:    p0.Add(p1).Mul(0.5),
		Direction: delta.Normalize(),
		Extent:    delta.Norm() / 2,
	}
}

// NewRay returns an unbounded segment starting at origin and heading along dir.
func NewRay(origin, dir r3.Vector) Segment {
	return Segment{
		Origin:    origin,
		Direction: dir.Normalize(),
		Extent:    math.Inf(1),
	}
}

// IsRay returns whether the segment is unbounded.
func (s Segment) IsRay() bool {
	return math.IsInf(s.Extent, 1)
}

// Endpoints returns the two ends of a bounded segment.
func (s Segment) Endpoints() (r3.Vector, r3.Vector) {
	return s.Origin.Sub(s.Direction.Mul(s.Extent)), s.Origin.Add(s.Direction.Mul(s.Extent))
}

// Length returns the full length of the segment.
func (s Segment) Length() float64 {
	return 2 * s.Extent
}

// PointAt returns Origin + t*Direction.
func (s Segment) PointAt(t float64) r3.Vector {
	return s.Origin.Add(s.Direction.Mul(t))
}

func (s Segment) finiteExtent() float64 {
	return math.Min(s.Extent, maxSegmentExtent)
}

// Distance returns the minimum distance between s and other, and the point on s that realizes it.
// An unbounded segment is treated as the whole supporting line, so callers working with rays must
// check which side of the origin the returned point falls on.
//
// The parameter pair (s0, s1) minimizing the squared distance is found over the rectangle
// [-e0, e0] x [-e1, e1]; outside the interior the minimum lies on one of the rectangle's four
// edges or four corners, which is what the region cases below resolve.
func (s Segment) Distance(other Segment) (float64, r3.Vector) {
	e0 := s.finiteExtent()
	e1 := other.finiteExtent()

	diff := s.Origin.Sub(other.Origin)
	a01 := -s.Direction.Dot(other.Direction)
	b0 := diff.Dot(s.Direction)
	b1 := -diff.Dot(other.Direction)
	det := math.Abs(1 - a01*a01)

	var s0, s1 float64
	if det >= parallelTolerance {
		s0 = a01*b1 - b0
		s1 = a01*b0 - b1
		extDet0 := e0 * det
		extDet1 := e1 * det

		// clampS0 fixes s1 and minimizes over s0, clampS1 the other way around.
		clampS0 := func() float64 { return utils.Clamp(-(a01*s1 + b0), -e0, e0) }
		clampS1 := func() float64 { return utils.Clamp(-(a01*s0 + b1), -e1, e1) }

		switch {
		case s0 >= -extDet0 && s0 <= extDet0 && s1 >= -extDet1 && s1 <= extDet1:
			// interior
			invDet := 1 / det
			s0 *= invDet
			s1 *= invDet
		case s0 >= -extDet0 && s0 <= extDet0 && s1 > extDet1:
			s1 = e1
			s0 = clampS0()
		case s0 >= -extDet0 && s0 <= extDet0:
			// s1 < -extDet1
			s1 = -e1
			s0 = clampS0()
		case s0 > extDet0 && s1 >= -extDet1 && s1 <= extDet1:
			s0 = e0
			s1 = clampS1()
		case s0 > extDet0 && s1 > extDet1:
			// corner (e0, e1): the minimum is on whichever adjacent edge the gradient points into
			s1 = e1
			if tmp := -(a01*s1 + b0); tmp < e0 {
				s0 = utils.Clamp(tmp, -e0, e0)
			} else {
				s0 = e0
				s1 = clampS1()
			}
		case s0 > extDet0:
			// corner (e0, -e1)
			s1 = -e1
			if tmp := -(a01*s1 + b0); tmp < e0 {
				s0 = utils.Clamp(tmp, -e0, e0)
			} else {
				s0 = e0
				s1 = clampS1()
			}
		case s1 >= -extDet1 && s1 <= extDet1:
			// s0 < -extDet0
			s0 = -e0
			s1 = clampS1()
		case s1 > extDet1:
			// corner (-e0, e1)
			s1 = e1
			if tmp := -(a01*s1 + b0); tmp > -e0 {
				s0 = utils.Clamp(tmp, -e0, e0)
			} else {
				s0 = -e0
				s1 = clampS1()
			}
		default:
			// corner (-e0, -e1)
			s1 = -e1
			if tmp := -(a01*s1 + b0); tmp > -e0 {
				s0 = utils.Clamp(tmp, -e0, e0)
			} else {
				s0 = -e0
				s1 = clampS1()
			}
		}
	} else {
		// Parallel segments. Project both onto the averaged midline so that the result does not
		// depend on which segment is the receiver.
		e0pe1 := e0 + e1
		sign := 1.
		if a01 > 0 {
			sign = -1
		}
		b0Avr := 0.5 * (b0 - sign*b1)
		lambda := utils.Clamp(-b0Avr, -e0pe1, e0pe1)
		if e0pe1 > 0 {
			s1 = -sign * lambda * e1 / e0pe1
		}
		s0 = lambda + sign*s1
	}

	closest0 := s.PointAt(s0)
	closest1 := other.PointAt(s1)
	return closest0.Distance(closest1), closest0
}

// DistanceToPoint returns the distance from pt to the segment and the closest point on it.
func (s Segment) DistanceToPoint(pt r3.Vector) (float64, r3.Vector) {
	e := s.finiteExtent()
	t := utils.Clamp(pt.Sub(s.Origin).Dot(s.Direction), -e, e)
	if s.IsRay() {
		t = math.Max(t, 0)
	}
	closest := s.PointAt(t)
	return pt.Distance(closest), closest
}
