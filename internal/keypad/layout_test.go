package keypad

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"smudge-pin/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gridCX = 360.0
	gridCY = 640.0
	keyW   = 80.0
	keyH   = 60.0
)

// keypadCentres returns the true key centres indexed by digit.
func keypadCentres() [10]geometry.Point2D {
	var c [10]geometry.Point2D
	for i, off := range pinLayout {
		c[(i+1)%10] = geometry.Point2D{X: gridCX + off[0]*keyW, Y: gridCY + off[1]*keyH}
	}
	return c
}

func shuffled(points []geometry.Point2D, seed int64) []geometry.Point2D {
	out := append([]geometry.Point2D(nil), points...)
	rand.New(rand.NewSource(seed)).Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestLayoutFromCentroids_Grid(t *testing.T) {
	want := keypadCentres()
	params := DefaultParams()

	layout, err := LayoutFromCentroids(shuffled(want[:], 3), params)
	require.NoError(t, err)

	assert.Equal(t, want[5], layout.Anchor)
	assert.InDelta(t, keyW, layout.KeyWidth, 1e-9)
	assert.InDelta(t, keyH, layout.KeyHeight, 1e-9)
	assert.Len(t, layout.Matrix, 9)

	centers := layout.Centers()
	for d := 0; d < 10; d++ {
		assert.InDelta(t, want[d].X, centers[d].X, params.BoxPaddingX, "digit %d X", d)
		assert.InDelta(t, want[d].Y, centers[d].Y, params.BoxPaddingY, "digit %d Y", d)
		assert.Equal(t, 2*params.BoxPaddingX, layout.Boxes[d].W)
		assert.Equal(t, 2*params.BoxPaddingY, layout.Boxes[d].H)
	}

	// "0" is the bottom-centre key
	assert.InDelta(t, gridCX, centers[0].X, 1e-9)
	assert.InDelta(t, gridCY+2*keyH, centers[0].Y, 1e-9)
}

func TestLayoutFromCentroids_RemovesStrayMarks(t *testing.T) {
	c := keypadCentres()
	input := append([]geometry.Point2D{}, c[:]...)
	input = append(input,
		geometry.Point2D{X: gridCX + 300, Y: gridCY - 20}, // watermark to the right
		geometry.Point2D{X: gridCX, Y: gridCY - 200},      // caption above the grid
	)

	for _, strategy := range []MatrixStrategy{StrategySpacingIQR, StrategyAlignment} {
		t.Run(strategy.String(), func(t *testing.T) {
			params := DefaultParams()
			params.Strategy = strategy

			layout, err := LayoutFromCentroids(shuffled(input, 11), params)
			require.NoError(t, err)
			assert.Equal(t, c[5], layout.Anchor)
			assert.Len(t, layout.Matrix, 9)
			for _, p := range layout.Matrix {
				assert.NotEqual(t, geometry.Point2D{X: gridCX, Y: gridCY - 200}, p)
			}
			assert.InDelta(t, gridCY+2*keyH, layout.Centers()[0].Y, 1e-9)
		})
	}
}

func TestLayoutFromCentroids_Insufficient(t *testing.T) {
	c := keypadCentres()
	_, err := LayoutFromCentroids(c[1:9], DefaultParams())
	assert.True(t, errors.Is(err, ErrInsufficientLayout))
}

func TestLayoutFromCentroids_Coincident(t *testing.T) {
	pts := make([]geometry.Point2D, 9)
	for i := range pts {
		pts[i] = geometry.Point2D{X: 100, Y: 100}
	}
	_, err := LayoutFromCentroids(pts, DefaultParams())
	assert.True(t, errors.Is(err, ErrInsufficientLayout))
}

func TestSpacingMatrix_KeepsTopMostNine(t *testing.T) {
	c := keypadCentres()
	kept := spacingMatrix(c[:], DefaultParams())
	require.Len(t, kept, 9)
	assert.NotContains(t, kept, c[0])
}

func TestOutliers_IgnoresNaNAndFloorsFence(t *testing.T) {
	params := DefaultParams()
	values := []float64{80, math.NaN(), 80, 80, 80, 80, 95, 150}
	flags := outliers(values, params)
	assert.Equal(t, []bool{false, false, false, false, false, false, false, true}, flags)

	few := outliers([]float64{1, 100, 1000}, params)
	assert.Equal(t, []bool{false, false, false}, few)
}

func TestParseMatrixStrategy(t *testing.T) {
	s, err := ParseMatrixStrategy("alignment")
	require.NoError(t, err)
	assert.Equal(t, StrategyAlignment, s)

	s, err = ParseMatrixStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategySpacingIQR, s)

	_, err = ParseMatrixStrategy("magic")
	assert.Error(t, err)
}
