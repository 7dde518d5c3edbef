package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateBox is reported by IoUChecked when a box has zero area.
var ErrDegenerateBox = errors.New("degenerate bounding box")

// BoundingBox is an axis-aligned box given by its top-left corner and size.
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NewBoundingBox creates a box, clamping negative sizes to zero.
func NewBoundingBox(x, y, w, h float64) BoundingBox {
	return BoundingBox{X: x, Y: y, W: math.Max(w, 0), H: math.Max(h, 0)}
}

// BoxAround returns a box centered on c with the given half extents.
func BoxAround(c Point2D, halfW, halfH float64) BoundingBox {
	return NewBoundingBox(c.X-halfW, c.Y-halfH, 2*halfW, 2*halfH)
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("BoundingBox(%.1f, %.1f, %.1f, %.1f)", b.X, b.Y, b.W, b.H)
}

// Area returns W*H.
func (b BoundingBox) Area() float64 {
	return b.W * b.H
}

// Degenerate reports whether the box has zero area.
func (b BoundingBox) Degenerate() bool {
	return b.W <= 0 || b.H <= 0
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Point2D {
	return Point2D{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// XYXY returns the top-left and bottom-right coordinates.
func (b BoundingBox) XYXY() [4]float64 {
	return [4]float64{b.X, b.Y, b.X + b.W, b.Y + b.H}
}

// Corners returns the corners ordered top-left, top-right, bottom-right, bottom-left.
func (b BoundingBox) Corners() [4]Point2D {
	return [4]Point2D{
		{X: b.X, Y: b.Y},
		{X: b.X + b.W, Y: b.Y},
		{X: b.X + b.W, Y: b.Y + b.H},
		{X: b.X, Y: b.Y + b.H},
	}
}

// Scale returns the box scaled independently along each axis.
func (b BoundingBox) Scale(fx, fy float64) BoundingBox {
	return BoundingBox{X: b.X * fx, Y: b.Y * fy, W: b.W * fx, H: b.H * fy}
}

// Contains returns true if the point is inside the box.
func (b BoundingBox) Contains(p Point2D) bool {
	return p.X >= b.X && p.X <= b.X+b.W &&
		p.Y >= b.Y && p.Y <= b.Y+b.H
}

// IoU returns the intersection over union of two boxes.
// Identical boxes score 1. Any other pair involving a zero-area box scores 0.
func IoU(a, b BoundingBox) float64 {
	if a == b {
		return 1
	}
	if a.Degenerate() || b.Degenerate() {
		return 0
	}

	interW := math.Min(a.X+a.W, b.X+b.W) - math.Max(a.X, b.X)
	interH := math.Min(a.Y+a.H, b.Y+b.H) - math.Max(a.Y, b.Y)
	if interW <= 0 || interH <= 0 {
		return 0
	}
	inter := interW * interH

	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// IoUChecked is IoU that also reports degenerate input.
// The returned score is still 0 for degenerate boxes.
func IoUChecked(a, b BoundingBox) (float64, error) {
	if a != b && (a.Degenerate() || b.Degenerate()) {
		return 0, fmt.Errorf("iou of %v and %v: %w", a, b, ErrDegenerateBox)
	}
	return IoU(a, b), nil
}
