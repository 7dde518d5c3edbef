package quad

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Rectify warps the quad onto a width x height image.
//
// Corners are taken in Result order and mapped onto (0,0), (w,0), (0,h), (w,h),
// which is the origin-distance order of an upright portrait phone.
func Rectify(src gocv.Mat, q *Result, width, height int) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}
	if q == nil {
		return gocv.NewMat(), fmt.Errorf("nil quad")
	}
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid output size %dx%d", width, height)
	}

	srcPts := make([]gocv.Point2f, 4)
	for i, c := range q.Corners {
		srcPts[i] = gocv.Point2f{X: float32(c.X), Y: float32(c.Y)}
	}
	dstPts := []gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(width), Y: 0},
		{X: 0, Y: float32(height)},
		{X: float32(width), Y: float32(height)},
	}

	srcVec := gocv.NewPoint2fVectorFromPoints(srcPts)
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints(dstPts)
	defer dstVec.Close()

	m := gocv.GetPerspectiveTransform2f(srcVec, dstVec)
	defer m.Close()

	dst := gocv.NewMat()
	gocv.WarpPerspective(src, &dst, m, image.Point{X: width, Y: height})
	return dst, nil
}
