package geom

import "math"

// Eps is the coordinate tolerance used by all geometric predicates.
const Eps = 1e-9

// Point is a 2D coordinate
type Point struct {
	X float64
	Y float64
}

// Add returns p + q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p scaled by f
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Dot returns the dot product of p and q
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D cross product (z component) of p and q
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Dist returns the euclidean distance between p and q
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Norm returns the euclidean length of p as a vector
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Equal reports whether p and q coincide within Eps
func (p Point) Equal(q Point) bool {
	return p.Dist(q) < Eps
}
