package geometry

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIoU_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := NewBoundingBox(rng.Float64()*100, rng.Float64()*100, rng.Float64()*50, rng.Float64()*50)
		b := NewBoundingBox(rng.Float64()*100, rng.Float64()*100, rng.Float64()*50, rng.Float64()*50)
		assert.InDelta(t, IoU(a, b), IoU(b, a), 1e-12)

		v := IoU(a, b)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestIoU_Self(t *testing.T) {
	a := NewBoundingBox(10, 20, 30, 40)
	assert.Equal(t, 1.0, IoU(a, a))
}

func TestIoU_Disjoint(t *testing.T) {
	a := NewBoundingBox(0, 0, 10, 10)
	b := NewBoundingBox(20, 20, 10, 10)
	assert.Equal(t, 0.0, IoU(a, b))

	// Touching edges share no area
	c := NewBoundingBox(10, 0, 10, 10)
	assert.Equal(t, 0.0, IoU(a, c))
}

func TestIoU_PartialOverlap(t *testing.T) {
	a := NewBoundingBox(0, 0, 10, 10)
	b := NewBoundingBox(5, 0, 10, 10)
	// intersection 50, union 150
	assert.InDelta(t, 1.0/3.0, IoU(a, b), 1e-9)
}

func TestIoU_Degenerate(t *testing.T) {
	flat := NewBoundingBox(0, 0, 10, 0)
	full := NewBoundingBox(0, 0, 10, 10)
	assert.Equal(t, 0.0, IoU(flat, full))
	assert.Equal(t, 0.0, IoU(full, flat))
	assert.Equal(t, 1.0, IoU(flat, flat))

	v, err := IoUChecked(flat, full)
	assert.Equal(t, 0.0, v)
	assert.True(t, errors.Is(err, ErrDegenerateBox))

	v, err = IoUChecked(full, full)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestNewBoundingBox_ClampsNegativeSize(t *testing.T) {
	b := NewBoundingBox(1, 2, -3, -4)
	assert.Equal(t, 0.0, b.W)
	assert.Equal(t, 0.0, b.H)
	assert.True(t, b.Degenerate())
}

func TestBoundingBox_Derived(t *testing.T) {
	b := NewBoundingBox(10, 20, 30, 40)
	assert.Equal(t, Point2D{X: 25, Y: 40}, b.Center())
	assert.Equal(t, [4]float64{10, 20, 40, 60}, b.XYXY())

	corners := b.Corners()
	assert.Equal(t, Point2D{X: 10, Y: 20}, corners[0])
	assert.Equal(t, Point2D{X: 40, Y: 20}, corners[1])
	assert.Equal(t, Point2D{X: 40, Y: 60}, corners[2])
	assert.Equal(t, Point2D{X: 10, Y: 60}, corners[3])

	assert.Equal(t, NewBoundingBox(5, 40, 15, 80), b.Scale(0.5, 2))
	assert.True(t, b.Contains(b.Center()))
}

func TestBoxAround(t *testing.T) {
	b := BoxAround(Point2D{X: 50, Y: 50}, 10, 5)
	assert.Equal(t, NewBoundingBox(40, 45, 20, 10), b)
	assert.Equal(t, Point2D{X: 50, Y: 50}, b.Center())
}
