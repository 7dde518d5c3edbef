package keypad

import (
	"math"

	"smudge-pin/pkg/geometry"
)

// Cluster is a group of contour points belonging to one glyph.
type Cluster struct {
	Points   []geometry.Point2D
	Bounds   geometry.BoundingBox
	Centroid geometry.Point2D // Center of Bounds, not the point mean
}

// spatialIndex buckets points into a regular grid of eps-sized cells.
type spatialIndex struct {
	cellSize float64
	grid     map[[2]int64][]int
}

func newSpatialIndex(points []geometry.Point2D, cellSize float64) *spatialIndex {
	si := &spatialIndex{
		cellSize: cellSize,
		grid:     make(map[[2]int64][]int),
	}
	for i, p := range points {
		key := si.cell(p)
		si.grid[key] = append(si.grid[key], i)
	}
	return si
}

func (si *spatialIndex) cell(p geometry.Point2D) [2]int64 {
	return [2]int64{
		int64(math.Floor(p.X / si.cellSize)),
		int64(math.Floor(p.Y / si.cellSize)),
	}
}

// regionQuery returns indices of all points within eps of points[idx], idx included.
func (si *spatialIndex) regionQuery(points []geometry.Point2D, idx int, eps float64) []int {
	p := points[idx]
	base := si.cell(p)
	eps2 := eps * eps

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range si.grid[[2]int64{base[0] + dx, base[1] + dy}] {
				q := points[j]
				ddx, ddy := q.X-p.X, q.Y-p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, j)
				}
			}
		}
	}
	return neighbors
}

// DBSCAN groups points into density-connected clusters. Noise points are
// dropped. minSamples counts the point itself, as scikit-learn does.
// Clusters are returned in discovery order.
func DBSCAN(points []geometry.Point2D, eps float64, minSamples int) []Cluster {
	if len(points) == 0 || eps <= 0 {
		return nil
	}

	n := len(points)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0
	si := newSpatialIndex(points, eps)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := si.regionQuery(points, i, eps)
		if len(neighbors) < minSamples {
			labels[i] = -1
			continue
		}

		clusterID++
		labels[i] = clusterID

		for j := 0; j < len(neighbors); j++ {
			idx := neighbors[j]
			if labels[idx] == -1 {
				labels[idx] = clusterID // noise reached from a core point becomes border
			}
			if labels[idx] != 0 {
				continue
			}

			labels[idx] = clusterID
			more := si.regionQuery(points, idx, eps)
			if len(more) >= minSamples {
				neighbors = append(neighbors, more...)
			}
		}
	}

	members := make([][]geometry.Point2D, clusterID)
	for i, label := range labels {
		if label > 0 {
			members[label-1] = append(members[label-1], points[i])
		}
	}

	clusters := make([]Cluster, 0, clusterID)
	for _, pts := range members {
		if len(pts) == 0 {
			continue
		}
		b := geometry.Bounds(pts)
		clusters = append(clusters, Cluster{Points: pts, Bounds: b, Centroid: b.Center()})
	}
	return clusters
}
