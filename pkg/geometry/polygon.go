package geometry

import (
	"math"
	"math/rand"
	"sort"
)

// Resample walks each edge of a closed polygon and inserts a point every step
// units of arc length. Segmentation masks keep only the points where the
// outline turns, so long straight edges arrive as two points; resampling
// restores enough samples for a line fit.
//
// When sigma > 0 and rng is non-nil, inserted points receive Gaussian jitter
// of that standard deviation on each axis. Input vertices are never jittered.
func Resample(polygon []Point2D, step, sigma float64, rng *rand.Rand) []Point2D {
	if len(polygon) == 0 || step <= 0 {
		return polygon
	}

	out := make([]Point2D, 0, len(polygon))
	for i := range polygon {
		start := polygon[i]
		end := polygon[(i+1)%len(polygon)]
		out = append(out, start)

		u := end.Sub(start)
		d := u.Norm()
		if d == 0 {
			continue
		}
		unit := u.Scale(1 / d)

		// Stop short of the end vertex, which starts the next edge
		n := int(math.Ceil(d/step)) - 1
		for j := 1; j <= n; j++ {
			p := start.Add(unit.Scale(float64(j) * step))
			if sigma > 0 && rng != nil {
				p.X += rng.NormFloat64() * sigma
				p.Y += rng.NormFloat64() * sigma
			}
			out = append(out, p)
		}
	}
	return out
}

// SimplifyClosed runs Douglas-Peucker on a closed ring and returns the indices
// of the kept points in ascending order.
//
// The ring is split at its two mutually farthest points, which are always kept,
// and each half is simplified independently.
func SimplifyClosed(ring []Point2D, epsilon float64) []int {
	n := len(ring)
	if n <= 3 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	a := farthestFrom(ring, ring[0])
	b := farthestFrom(ring, ring[a])
	if a == b {
		return []int{a}
	}
	lo, hi := min(a, b), max(a, b)

	first := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		first = append(first, i)
	}
	second := make([]int, 0, n-hi+lo+1)
	for i := hi; i < n; i++ {
		second = append(second, i)
	}
	for i := 0; i <= lo; i++ {
		second = append(second, i)
	}

	kept := map[int]struct{}{}
	for _, i := range simplifyChain(ring, first, epsilon) {
		kept[i] = struct{}{}
	}
	for _, i := range simplifyChain(ring, second, epsilon) {
		kept[i] = struct{}{}
	}

	result := make([]int, 0, len(kept))
	for i := range kept {
		result = append(result, i)
	}
	sort.Ints(result)
	return result
}

// simplifyChain reduces an open chain of point indices using Douglas-Peucker.
// Both chain endpoints are kept.
func simplifyChain(points []Point2D, chain []int, epsilon float64) []int {
	if len(chain) <= 2 {
		return chain
	}

	// Find point with maximum distance from line between first and last points
	dmax := 0.0
	index := 0
	end := len(chain) - 1
	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[chain[i]], points[chain[0]], points[chain[end]])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := simplifyChain(points, chain[:index+1], epsilon)
		right := simplifyChain(points, chain[index:], epsilon)

		result := make([]int, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []int{chain[0], chain[end]}
}

// perpendicularDistance calculates the perpendicular distance from point p to line a-b.
func perpendicularDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return p.Distance(a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Sqrt(dx*dx + dy*dy)
	return num / den
}

func farthestFrom(points []Point2D, ref Point2D) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		if d := distSq(ref, p); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// distSq computes the squared distance between two points.
func distSq(a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
