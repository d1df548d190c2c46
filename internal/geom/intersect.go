package geom

import "math"

// SegmentIntersection returns the intersection point of two segments and true
// when they cross or touch at a single point, endpoints included. Parallel and
// collinear pairs return false; collinear overlap is reported by Overlaps.
func SegmentIntersection(a, b Segment) (Point, bool) {
	r := a.Tail.Sub(a.Head)
	s := b.Tail.Sub(b.Head)
	denom := r.Cross(s)
	if math.Abs(denom) < Eps {
		return Point{}, false
	}
	qp := b.Head.Sub(a.Head)
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < -Eps || t > 1+Eps || u < -Eps || u > 1+Eps {
		return Point{}, false
	}
	return a.Head.Add(r.Scale(t)), true
}

// Overlaps reports whether two segments are collinear with a shared extent of
// positive length (an exact element overlap)
func Overlaps(a, b Segment) bool {
	r := a.Tail.Sub(a.Head)
	s := b.Tail.Sub(b.Head)
	if math.Abs(r.Cross(s)) > Eps*math.Max(1, r.Norm()*s.Norm()) {
		return false
	}
	if math.Abs(b.Head.Sub(a.Head).Cross(r)) > Eps*math.Max(1, r.Norm()) {
		return false
	}
	// Collinear: compare 1D projections onto a's direction.
	rr := r.Dot(r)
	if rr < Eps {
		return false
	}
	t0 := b.Head.Sub(a.Head).Dot(r) / rr
	t1 := b.Tail.Sub(a.Head).Dot(r) / rr
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	lo := math.Max(t0, 0)
	hi := math.Min(t1, 1)
	return (hi-lo)*math.Sqrt(rr) > Eps
}

// ClosestPointOnSegment returns the point on s closest to p
func ClosestPointOnSegment(p Point, s Segment) Point {
	r := s.Tail.Sub(s.Head)
	rr := r.Dot(r)
	if rr < Eps {
		return s.Head
	}
	t := p.Sub(s.Head).Dot(r) / rr
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return s.Head.Add(r.Scale(t))
}

// DistToSegment returns the distance from p to segment s
func DistToSegment(p Point, s Segment) float64 {
	return p.Dist(ClosestPointOnSegment(p, s))
}

// InteriorAngleDeg returns the angle in degrees [0, 180] between two elements
// measured at their shared node. Segments that share no node return 180.
func InteriorAngleDeg(a, b Segment) float64 {
	var node, pa, pb Point
	switch {
	case a.Head.Equal(b.Head):
		node, pa, pb = a.Head, a.Tail, b.Tail
	case a.Head.Equal(b.Tail):
		node, pa, pb = a.Head, a.Tail, b.Head
	case a.Tail.Equal(b.Head):
		node, pa, pb = a.Tail, a.Head, b.Tail
	case a.Tail.Equal(b.Tail):
		node, pa, pb = a.Tail, a.Head, b.Head
	default:
		return 180
	}
	v1 := pa.Sub(node)
	v2 := pb.Sub(node)
	n1 := v1.Norm()
	n2 := v2.Norm()
	if n1 < Eps || n2 < Eps {
		return 180
	}
	cos := v1.Dot(v2) / (n1 * n2)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// Collinear reports whether three points lie on one line within tolerance
func Collinear(a, b, c Point) bool {
	return math.Abs(b.Sub(a).Cross(c.Sub(a))) < Eps*math.Max(1, b.Sub(a).Norm()*c.Sub(a).Norm())
}
