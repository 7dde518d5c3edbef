// Package keypad infers the on-screen numeric keypad of a rectified
// calibration photo from the geometry of its glyphs.
package keypad

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"smudge-pin/pkg/geometry"
	"smudge-pin/pkg/log"
)

// ErrInsufficientLayout means the calibration image does not show a usable keypad.
var ErrInsufficientLayout = errors.New("insufficient keypad layout")

// pinLayout gives each key's offset from "5" in (column, row) units:
//
//	1  2  3
//	4  5  6
//	7  8  9
//	   0
//
// Entry i is digit i+1; the last entry is 0.
var pinLayout = [10][2]float64{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
	{0, 2},
}

// Layout is the inferred keypad.
type Layout struct {
	Boxes     [10]geometry.BoundingBox // Indexed by digit
	Anchor    geometry.Point2D         // Centroid taken as "5"
	KeyWidth  float64                  // Horizontal spacing between key centres
	KeyHeight float64                  // Vertical spacing between key centres
	Matrix    []geometry.Point2D       // Centroids retained as the 3x3 block
}

// Centers returns the centre of each digit box, indexed by digit.
func (l *Layout) Centers() [10]geometry.Point2D {
	var c [10]geometry.Point2D
	for i, b := range l.Boxes {
		c[i] = b.Center()
	}
	return c
}

// LayoutFromCentroids infers the keypad from glyph centroids that already
// passed cluster filtering.
func LayoutFromCentroids(centroids []geometry.Point2D, params Params) (*Layout, error) {
	matrix := extractMatrix(centroids, params)
	if len(matrix) < gridSize {
		return nil, fmt.Errorf("%d of %d centroids kept by %s extraction, need %d: %w",
			len(matrix), len(centroids), params.Strategy, gridSize, ErrInsufficientLayout)
	}

	// "5" is the centroid nearest the centre of the block's bounding box
	center := geometry.Bounds(matrix).Center()
	anchor := matrix[0]
	for _, p := range matrix[1:] {
		if p.Distance(center) < anchor.Distance(center) {
			anchor = p
		}
	}

	// Around "5": d(2)=d(8)=h and d(4)=d(6)=w, with h < w on a portrait keypad.
	// Index 0 is "5" itself.
	dists := make([]float64, len(matrix))
	for i, p := range matrix {
		dists[i] = p.Distance(anchor)
	}
	sort.Float64s(dists)
	h := (dists[1] + dists[2]) / 2
	w := (dists[3] + dists[4]) / 2
	if !(h > 0) || !(w > 0) || math.IsInf(h, 0) || math.IsInf(w, 0) {
		return nil, fmt.Errorf("key spacing undefined (w=%v, h=%v): %w", w, h, ErrInsufficientLayout)
	}

	layout := &Layout{
		Anchor:    anchor,
		KeyWidth:  w,
		KeyHeight: h,
		Matrix:    matrix,
	}
	for i, off := range pinLayout {
		c := geometry.Point2D{X: anchor.X + off[0]*w, Y: anchor.Y + off[1]*h}
		digit := (i + 1) % 10
		layout.Boxes[digit] = geometry.BoxAround(c, params.BoxPaddingX, params.BoxPaddingY)
	}

	log.Debug(log.Fields{
		"centroids": len(centroids),
		"matrix":    len(matrix),
		"anchor":    anchor,
		"w":         w,
		"h":         h,
	}, "keypad layout inferred")

	return layout, nil
}
