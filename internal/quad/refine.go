// Package quad reduces a noisy phone segmentation polygon to the four corners
// used for perspective rectification.
package quad

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"smudge-pin/pkg/geometry"
	"smudge-pin/pkg/log"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"
)

// ErrSegmentationGeometry means the outline could not be reduced to a usable
// quad. Callers should ask for a new photo.
var ErrSegmentationGeometry = errors.New("segmentation geometry unusable")

// Result holds the refined quad.
type Result struct {
	// Corners sorted by distance from the image origin. For an upright
	// portrait phone this is TL, TR, BL, BR; rotated photos can mis-order.
	Corners [4]geometry.Point2D

	Coarse  [4]geometry.Point2D // Douglas-Peucker vertices the edges were split on
	Epsilon float64             // Tolerance at which the coarse quad appeared
	Samples int                 // Resampled outline size
}

// Refine turns a closed polygon approximating a phone outline into 4 corners.
//
// The coarse Douglas-Peucker quad is only used to split the outline into its
// four edges. Each edge is then fitted by least squares and the corners are
// recovered as intersections of the fitted lines, which is far less sensitive
// to the rounded corners segmentation masks produce.
func Refine(polygon []geometry.Point2D, params Params) (*Result, error) {
	if len(polygon) < 4 {
		return nil, fmt.Errorf("polygon has %d points: %w", len(polygon), ErrSegmentationGeometry)
	}

	rng := rand.New(rand.NewSource(params.JitterSeed))
	points := geometry.Resample(polygon, params.InterpStep, params.JitterSigma, rng)

	vertices, eps, err := coarseQuad(points, params)
	if err != nil {
		return nil, err
	}

	groups := splitEdges(points, vertices)
	lines := make([]geometry.Line, 0, len(groups))
	for i, g := range groups {
		line, err := fitLine(g)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		lines = append(lines, line)
	}

	corners, err := intersectLines(lines, points, params.MaxCornerDistance)
	if err != nil {
		return nil, err
	}

	result := &Result{Epsilon: eps, Samples: len(points)}
	copy(result.Corners[:], corners)
	for i, v := range vertices {
		result.Coarse[i] = points[v]
	}

	log.Debug(log.Fields{
		"input":   len(polygon),
		"samples": len(points),
		"epsilon": eps,
		"corners": result.Corners,
	}, "quad refined")

	return result, nil
}

// coarseQuad raises the simplification tolerance until exactly 4 vertices remain.
func coarseQuad(points []geometry.Point2D, params Params) ([]int, float64, error) {
	if params.EpsilonStep <= 0 {
		return nil, 0, fmt.Errorf("epsilon step %v must be positive", params.EpsilonStep)
	}

	for eps := params.InitialEpsilon; eps <= params.MaxEpsilon; eps += params.EpsilonStep {
		idx := geometry.SimplifyClosed(points, eps)
		if len(idx) == 4 {
			return idx, eps, nil
		}
		if len(idx) < 4 {
			return nil, 0, fmt.Errorf("simplification skipped from more than 4 to %d vertices at epsilon %.1f: %w",
				len(idx), eps, ErrSegmentationGeometry)
		}
	}

	return nil, 0, fmt.Errorf("no 4-vertex approximation below epsilon %.1f: %w",
		params.MaxEpsilon, ErrSegmentationGeometry)
}

// splitEdges cuts the resampled outline at the coarse vertices.
// The run that wraps past the end of the slice is joined with the head.
func splitEdges(points []geometry.Point2D, vertices []int) [][]geometry.Point2D {
	groups := make([][]geometry.Point2D, 0, len(vertices))
	for i := 0; i < len(vertices)-1; i++ {
		groups = append(groups, points[vertices[i]:vertices[i+1]])
	}

	last := vertices[len(vertices)-1]
	wrap := make([]geometry.Point2D, 0, len(points)-last+vertices[0])
	wrap = append(wrap, points[last:]...)
	wrap = append(wrap, points[:vertices[0]]...)
	return append(groups, wrap)
}

// fitLine fits a least-squares line through the points.
// Near-vertical edges are fitted as x = f(y); regressing y on x there is
// ill-conditioned and a single corner sample can swing the slope.
func fitLine(points []geometry.Point2D) (geometry.Line, error) {
	if len(points) < 2 {
		return geometry.Line{}, fmt.Errorf("edge has %d points: %w", len(points), ErrSegmentationGeometry)
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	varX := stat.Variance(xs, nil)
	varY := stat.Variance(ys, nil)
	if varX == 0 && varY == 0 {
		return geometry.Line{}, fmt.Errorf("edge points coincide: %w", ErrSegmentationGeometry)
	}

	if varX > varY {
		intercept, slope := stat.LinearRegression(xs, ys, nil, false)
		return geometry.LineFromSlope(slope, intercept), nil
	}
	intercept, slope := stat.LinearRegression(ys, xs, nil, false)
	return geometry.LineFromInverseSlope(slope, intercept), nil
}

// intersectLines intersects every pair of lines and keeps intersections that
// lie near the outline. Opposite edges of a phone meet far outside the
// image, or not at all.
func intersectLines(lines []geometry.Line, cloud []geometry.Point2D, maxDist float64) ([]geometry.Point2D, error) {
	pts := make(kdtree.Points, len(cloud))
	for i, p := range cloud {
		pts[i] = kdtree.Point{p.X, p.Y}
	}
	tree := kdtree.New(pts, false)

	var corners []geometry.Point2D
	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			p, ok := lines[i].Intersect(lines[j])
			if !ok {
				continue
			}

			// kdtree distances are squared
			_, d2 := tree.Nearest(kdtree.Point{p.X, p.Y})
			if d2 > maxDist*maxDist {
				continue
			}
			corners = append(corners, p)
		}
	}

	if len(corners) != 4 {
		return nil, fmt.Errorf("%d plausible corners, want 4: %w", len(corners), ErrSegmentationGeometry)
	}

	sort.SliceStable(corners, func(a, b int) bool {
		return corners[a].Norm() < corners[b].Norm()
	})
	return corners, nil
}
