package render

import (
	"bytes"
	"image/png"
	"testing"

	"smudge-pin/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func blank(t *testing.T) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 300, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return mat
}

func TestBoxes_DrawsWithoutTouchingSource(t *testing.T) {
	src := blank(t)
	out := Boxes(src, []geometry.BoundingBox{geometry.NewBoundingBox(10, 20, 50, 40)}, []string{"7"}, Green)
	defer out.Close()

	// top edge of the rectangle is green in BGR
	assert.Equal(t, uint8(255), out.GetUCharAt(20, 30*3+1))
	assert.Equal(t, uint8(0), src.GetUCharAt(20, 30*3+1))
}

func TestReference_EncodePNG(t *testing.T) {
	var boxes [10]geometry.BoundingBox
	for i := range boxes {
		boxes[i] = geometry.NewBoundingBox(float64(i)*25+5, 50, 20, 20)
	}
	out := Reference(blank(t), boxes)
	defer out.Close()

	data, err := EncodePNG(out)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestQuad(t *testing.T) {
	corners := [4]geometry.Point2D{{X: 20, Y: 20}, {X: 280, Y: 20}, {X: 20, Y: 180}, {X: 280, Y: 180}}
	out := Quad(blank(t), corners)
	defer out.Close()

	// the left edge joins TL and BL
	assert.Equal(t, uint8(255), out.GetUCharAt(100, 20*3+0))
}
