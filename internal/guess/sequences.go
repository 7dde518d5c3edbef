package guess

import (
	"gonum.org/v1/gonum/stat/combin"
)

// sequences returns the full-length digit multisets to rank for the
// detected digits. Digits required by positional guesses must be present
// in every returned sequence.
//
// Missing digits are completed with every combination of 10^delta digits.
// Extra detections are removed by keeping every length-sized subset.
func sequences(detected []int, length int, positional []int) [][]int {
	required := digitCounts(positional)
	switch delta := length - len(detected); {
	case delta == 0:
		return [][]int{append([]int(nil), detected...)}
	case delta > 0:
		return completions(detected, delta, required)
	default:
		return subsets(detected, length, required)
	}
}

func completions(detected []int, delta int, required [10]int) [][]int {
	var need [10]int
	have := digitCounts(detected)
	for d := range required {
		if required[d] > have[d] {
			need[d] = required[d] - have[d]
		}
	}

	lens := make([]int, delta)
	for i := range lens {
		lens[i] = 10
	}

	var out [][]int
	for _, extra := range combin.Cartesian(lens) {
		if !covers(digitCounts(extra), need) {
			continue
		}
		seq := make([]int, 0, len(detected)+delta)
		seq = append(seq, detected...)
		seq = append(seq, extra...)
		out = append(out, seq)
	}
	return out
}

func subsets(detected []int, length int, required [10]int) [][]int {
	var out [][]int
	for _, idx := range combin.Combinations(len(detected), length) {
		seq := make([]int, length)
		for i, j := range idx {
			seq[i] = detected[j]
		}
		if !covers(digitCounts(seq), required) {
			continue
		}
		out = append(out, seq)
	}
	return out
}
