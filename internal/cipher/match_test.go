package cipher

import (
	"testing"

	"smudge-pin/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceGrid lays 10 disjoint 40x40 boxes in a row, box i for digit i.
func referenceGrid() [10]geometry.BoundingBox {
	var ref [10]geometry.BoundingBox
	for i := range ref {
		ref[i] = geometry.NewBoundingBox(float64(i)*100, 0, 40, 40)
	}
	return ref
}

func TestMatch_PicksBestIoU(t *testing.T) {
	ref := referenceGrid()
	detected := []geometry.BoundingBox{
		ref[3],
		geometry.NewBoundingBox(710, 0, 40, 40), // three quarters over 7
		geometry.NewBoundingBox(5000, 5000, 10, 10),
	}

	got := Match(detected, ref)
	require.Len(t, got, 3)

	assert.Equal(t, 3, got[0].Cipher)
	assert.InDelta(t, 1.0, got[0].Confidence, 1e-12)

	assert.Equal(t, 7, got[1].Cipher)
	assert.InDelta(t, 1200.0/2000.0, got[1].Confidence, 1e-12)

	assert.Equal(t, Guess{Cipher: 0, Confidence: 0}, got[2])
}

func TestMatch_AllowsDuplicateCiphers(t *testing.T) {
	ref := referenceGrid()
	detected := []geometry.BoundingBox{
		geometry.NewBoundingBox(200, 0, 30, 30),
		geometry.NewBoundingBox(210, 10, 30, 30),
	}

	got := Match(detected, ref)
	assert.Equal(t, []int{2, 2}, Ciphers(got))
}

func TestMatch_Empty(t *testing.T) {
	assert.Empty(t, Match(nil, referenceGrid()))
}

func TestSelectBoxes(t *testing.T) {
	ref := referenceGrid()
	detected := []geometry.BoundingBox{
		geometry.NewBoundingBox(105, 5, 30, 30), // 1
		geometry.NewBoundingBox(405, 5, 30, 30), // 4
		geometry.NewBoundingBox(102, 2, 30, 30), // 1 again
	}
	guesses := Match(detected, ref)

	got := SelectBoxes([]int{1, 4, 1, 1, 9}, guesses, detected, ref)
	want := []geometry.BoundingBox{detected[0], detected[1], detected[2], ref[1], ref[9]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SelectBoxes mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSequence(t *testing.T) {
	got := FromSequence([]int{4, 0, 4})
	assert.Equal(t, []Guess{{4, 1}, {0, 1}, {4, 1}}, got)
	assert.Equal(t, []int{4, 0, 4}, Ciphers(got))
}

func TestMatch_DegenerateDetection(t *testing.T) {
	ref := referenceGrid()
	flat := geometry.BoundingBox{X: ref[4].X, Y: ref[4].Y, W: 30, H: 0}

	got := Match([]geometry.BoundingBox{flat, ref[7]}, ref)
	assert.Equal(t, []Guess{{Cipher: 0, Confidence: 0}, {Cipher: 7, Confidence: 1}}, got)
}
