package keypad

import (
	"math"
	"sort"

	"smudge-pin/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// gridSize is the number of keys in the 3x3 block holding 1-9.
const gridSize = 9

// FilterClusters keeps the centroids of clusters that can be keypad glyphs:
// not wider than maxAreaFraction of the image and centred inside the inner
// [boundsMin, boundsMax] fraction of both axes.
func FilterClusters(clusters []Cluster, width, height int, params Params) []geometry.Point2D {
	w, h := float64(width), float64(height)
	tooWide := params.MaxClusterAreaFraction * w * h
	minX, maxX := params.BoundsMin*w, params.BoundsMax*w
	minY, maxY := params.BoundsMin*h, params.BoundsMax*h

	var centroids []geometry.Point2D
	for _, c := range clusters {
		if c.Bounds.Area() > tooWide {
			continue
		}
		p := c.Centroid
		if p.X <= minX || p.X >= maxX || p.Y <= minY || p.Y >= maxY {
			continue
		}
		centroids = append(centroids, p)
	}
	return centroids
}

// extractMatrix isolates the centroids of keys 1-9 using the configured strategy.
func extractMatrix(centroids []geometry.Point2D, params Params) []geometry.Point2D {
	switch params.Strategy {
	case StrategyAlignment:
		return alignedMatrix(centroids, params)
	default:
		return spacingMatrix(centroids, params)
	}
}

// spacingMatrix drops centroids whose distance to their nearest horizontal or
// vertical neighbour falls outside the Tukey fences of all such distances.
// Stray marks (input dots, captions, watermarks) sit at irregular distances
// from the grid. The 9 top-most survivors are kept since the digit block is
// the top-most regular structure of a keypad.
func spacingMatrix(centroids []geometry.Point2D, params Params) []geometry.Point2D {
	if len(centroids) < gridSize {
		return centroids
	}

	sx := make([]float64, len(centroids))
	sy := make([]float64, len(centroids))
	for i, p := range centroids {
		sx[i], sy[i] = neighbourSpacing(centroids, i, p)
	}

	xOut := outliers(sx, params)
	yOut := outliers(sy, params)

	kept := make([]geometry.Point2D, 0, len(centroids))
	for i, p := range centroids {
		if xOut[i] || yOut[i] {
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) > gridSize {
		sort.SliceStable(kept, func(a, b int) bool { return kept[a].Y < kept[b].Y })
		kept = kept[:gridSize]
	}
	return kept
}

// neighbourSpacing returns the distance from p to its nearest neighbour lying
// mostly sideways and mostly above or below. NaN when there is none.
func neighbourSpacing(centroids []geometry.Point2D, self int, p geometry.Point2D) (horizontal, vertical float64) {
	horizontal, vertical = math.Inf(1), math.Inf(1)
	for j, q := range centroids {
		if j == self {
			continue
		}
		dx, dy := math.Abs(q.X-p.X), math.Abs(q.Y-p.Y)
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		if dx >= dy {
			horizontal = math.Min(horizontal, d)
		} else {
			vertical = math.Min(vertical, d)
		}
	}
	if math.IsInf(horizontal, 1) {
		horizontal = math.NaN()
	}
	if math.IsInf(vertical, 1) {
		vertical = math.NaN()
	}
	return horizontal, vertical
}

// outliers flags values outside [Q1 - fence, Q3 + fence]. NaN values are
// never flagged.
func outliers(values []float64, params Params) []bool {
	flags := make([]bool, len(values))

	var sorted []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) < 4 {
		return flags
	}
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	fence := math.Max(params.IQRMultiplier*(q3-q1), params.MinFenceFraction*median)

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		flags[i] = v < q1-fence || v > q3+fence
	}
	return flags
}

// alignedMatrix keeps centroids that share their column with at least 2
// others and their row with at least 2 others. Removing one residual can
// break the alignment of another, so the pass is repeated.
func alignedMatrix(centroids []geometry.Point2D, params Params) []geometry.Point2D {
	kept := centroids
	for iter := 0; iter < params.AlignmentIterations; iter++ {
		next := make([]geometry.Point2D, 0, len(kept))
		for i, p := range kept {
			nearX, nearY := 0, 0
			for j, q := range kept {
				if i == j {
					continue
				}
				if math.Abs(p.X-q.X) < params.AlignmentDeltaX {
					nearX++
				}
				if math.Abs(p.Y-q.Y) < params.AlignmentDeltaY {
					nearY++
				}
			}
			if nearX >= 2 && nearY >= 2 {
				next = append(next, p)
			}
		}
		kept = next
	}
	return kept
}
