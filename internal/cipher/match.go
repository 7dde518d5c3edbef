// Package cipher labels detected smudges with the keypad digit they cover.
package cipher

import (
	"fmt"

	"smudge-pin/pkg/geometry"
	"smudge-pin/pkg/log"
)

// Guess is one detected smudge labelled with its best-matching digit.
type Guess struct {
	Cipher     int     `json:"cipher"`
	Confidence float64 `json:"confidence"` // IoU with the matched reference box
}

func (g Guess) String() string {
	return fmt.Sprintf("%d (%.2f)", g.Cipher, g.Confidence)
}

// Match labels every detected box with the reference digit of highest IoU.
// Two detections may claim the same digit; no uniqueness is enforced.
// A detection overlapping no reference box is labelled 0 with confidence 0.
func Match(detected []geometry.BoundingBox, reference [10]geometry.BoundingBox) []Guess {
	guesses := make([]Guess, len(detected))
	degenerate := 0
	for i, d := range detected {
		best := Guess{}
		for digit, ref := range reference {
			iou, err := geometry.IoUChecked(d, ref)
			if err != nil {
				degenerate++
				continue
			}
			if iou > best.Confidence {
				best = Guess{Cipher: digit, Confidence: iou}
			}
		}
		guesses[i] = best
	}

	if degenerate > 0 {
		log.Warn(log.Fields{"pairs": degenerate}, "zero-area boxes skipped while matching")
	}
	log.Debug(log.Fields{"detected": len(detected), "guesses": guesses}, "smudges matched")
	return guesses
}

// Ciphers returns the digits of guesses in order.
func Ciphers(guesses []Guess) []int {
	out := make([]int, len(guesses))
	for i, g := range guesses {
		out[i] = g.Cipher
	}
	return out
}

// FromSequence wraps a user-supplied digit sequence as certain guesses.
func FromSequence(digits []int) []Guess {
	out := make([]Guess, len(digits))
	for i, d := range digits {
		out[i] = Guess{Cipher: d, Confidence: 1}
	}
	return out
}

// SelectBoxes picks a box to display for every digit of sequence. A digit
// matched by some detection takes that detection's box, each detection used
// at most once; otherwise the reference box of the digit is used.
func SelectBoxes(sequence []int, guesses []Guess, detected []geometry.BoundingBox, reference [10]geometry.BoundingBox) []geometry.BoundingBox {
	used := make([]bool, len(detected))
	boxes := make([]geometry.BoundingBox, 0, len(sequence))

	for _, digit := range sequence {
		picked := false
		for i, g := range guesses {
			if i >= len(detected) || used[i] || g.Cipher != digit {
				continue
			}
			used[i] = true
			boxes = append(boxes, detected[i])
			picked = true
			break
		}
		if !picked && digit >= 0 && digit < len(reference) {
			boxes = append(boxes, reference[digit])
		}
	}
	return boxes
}
