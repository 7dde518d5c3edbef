package keypad

import (
	"fmt"

	"smudge-pin/pkg/geometry"
	"smudge-pin/pkg/log"

	"gocv.io/x/gocv"
)

// Extract infers the keypad layout of a rectified calibration image.
// Uses Canny edge detection, contour tracing and DBSCAN to isolate glyphs.
func Extract(img gocv.Mat, params Params) (*Layout, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	points := contourPoints(img, params)
	clusters := DBSCAN(points, params.ClusterEps, params.ClusterMinSamples)
	centroids := FilterClusters(clusters, img.Cols(), img.Rows(), params)

	log.Debug(log.Fields{
		"contour_points": len(points),
		"clusters":       len(clusters),
		"centroids":      len(centroids),
	}, "keypad glyphs isolated")

	return LayoutFromCentroids(centroids, params)
}

// contourPoints returns every point of every contour found on the Canny edges.
func contourPoints(img gocv.Mat, params Params) []geometry.Point2D {
	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, params.CannyLow, params.CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	var points []geometry.Point2D
	for i := 0; i < contours.Size(); i++ {
		for _, pt := range contours.At(i).ToPoints() {
			points = append(points, geometry.Point2D{X: float64(pt.X), Y: float64(pt.Y)})
		}
	}
	return points
}
