package geom

import "math"

// Segment is one fracture or boundary element: an ordered pair of points with
// discretization and friction properties. Head must differ from Tail;
// zero-length segments are degenerate and filtered at load and growth time.
type Segment struct {
	Head     Point
	Tail     Point
	Elements int // solver discretization count, at least 1
	Friction float64
	Cohesion float64
}

// Length returns the segment length
func (s Segment) Length() float64 {
	return s.Head.Dist(s.Tail)
}

// Degenerate reports whether the segment has (near) zero length
func (s Segment) Degenerate() bool {
	return s.Length() < Eps
}

// Dir returns the unit direction vector from Head to Tail.
// The zero vector is returned for degenerate segments.
func (s Segment) Dir() Point {
	l := s.Length()
	if l < Eps {
		return Point{}
	}
	return s.Tail.Sub(s.Head).Scale(1 / l)
}

// AngleDeg returns the direction Head->Tail in degrees in [0, 360),
// measured counterclockwise from the positive x axis
func (s Segment) AngleDeg() float64 {
	d := s.Tail.Sub(s.Head)
	a := math.Atan2(d.Y, d.X) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	return a
}

// Midpoint returns the segment midpoint
func (s Segment) Midpoint() Point {
	return Point{X: (s.Head.X + s.Tail.X) / 2, Y: (s.Head.Y + s.Tail.Y) / 2}
}

// Reverse returns the segment with Head and Tail swapped
func (s Segment) Reverse() Segment {
	r := s
	r.Head, r.Tail = s.Tail, s.Head
	return r
}

// HasNode reports whether p coincides with either endpoint
func (s Segment) HasNode(p Point) bool {
	return s.Head.Equal(p) || s.Tail.Equal(p)
}

// NearestNode returns the endpoint of s closest to p
func (s Segment) NearestNode(p Point) Point {
	if p.Dist(s.Head) <= p.Dist(s.Tail) {
		return s.Head
	}
	return s.Tail
}
