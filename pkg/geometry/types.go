// Package geometry provides the points, lines and boxes shared by the
// outline, keypad and matching stages.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Norm returns the distance from the origin.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Line is a 2D line in implicit form A*x + B*y = C.
// The implicit form keeps vertical lines finite.
type Line struct {
	A, B, C float64
}

// LineFromSlope returns the line y = slope*x + intercept.
func LineFromSlope(slope, intercept float64) Line {
	return Line{A: -slope, B: 1, C: intercept}
}

// LineFromInverseSlope returns the line x = slope*y + intercept.
func LineFromInverseSlope(slope, intercept float64) Line {
	return Line{A: 1, B: -slope, C: intercept}
}

// Intersect returns the intersection of two lines.
// Returns false if the lines are parallel.
func (l Line) Intersect(other Line) (Point2D, bool) {
	det := l.A*other.B - other.A*l.B
	if math.Abs(det) < 1e-10 {
		return Point2D{}, false
	}
	return Point2D{
		X: (l.C*other.B - other.C*l.B) / det,
		Y: (l.A*other.C - other.A*l.C) / det,
	}, true
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// Bounds computes the axis-aligned bounding box of a set of points.
func Bounds(points []Point2D) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return BoundingBox{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
