// Package stats holds per-PIN-length probability tables built from a corpus
// of known PINs, and a concurrent cache loading them from disk.
package stats

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// MaxLength is the longest PIN a table can describe. The frequency vector
// has 10^L entries.
const MaxLength = 7

var (
	// ErrUnsupportedPinLength means no statistics exist for the requested length.
	ErrUnsupportedPinLength = errors.New("unsupported PIN length")
	// ErrCorpusFormat means a corpus line is not a PIN of the expected length.
	ErrCorpusFormat = errors.New("corpus format")
	// ErrEmptyCorpus means the corpus holds no PIN at all.
	ErrEmptyCorpus = errors.New("empty corpus")
)

// Table holds the smoothed probability tables for one PIN length.
// No entry is zero.
type Table struct {
	Length    int
	Frequency *mat.VecDense // 10^Length, indexed by the PIN as a base-10 integer
	IndexProb *mat.Dense    // 10 x Length, P(digit d at position i)
	Markov    *mat.Dense    // 10 x 10, P(next digit b | digit a)
}

// Index returns the position of digits in the frequency vector.
func Index(digits []int) int {
	idx := 0
	for _, d := range digits {
		idx = idx*10 + d
	}
	return idx
}

// FormatPIN renders digits as a zero-padded PIN string.
func FormatPIN(digits []int) string {
	b := make([]byte, len(digits))
	for i, d := range digits {
		b[i] = byte('0' + d)
	}
	return string(b)
}

// FrequencyOf returns the corpus frequency of the full PIN.
func (t *Table) FrequencyOf(digits []int) float64 {
	return t.Frequency.AtVec(Index(digits))
}

// IndexProbOf returns P(digit at position).
func (t *Table) IndexProbOf(digit, position int) float64 {
	return t.IndexProb.At(digit, position)
}

// Transition returns P(to follows from).
func (t *Table) Transition(from, to int) float64 {
	return t.Markov.At(from, to)
}

// Validate checks dimensions and that every entry is a positive probability.
func (t *Table) Validate() error {
	if err := checkLength(t.Length); err != nil {
		return err
	}
	if t.Frequency == nil || t.IndexProb == nil || t.Markov == nil {
		return fmt.Errorf("table for length %d is incomplete", t.Length)
	}
	if n := t.Frequency.Len(); n != pow10(t.Length) {
		return fmt.Errorf("frequency has %d entries, want %d", n, pow10(t.Length))
	}
	if r, c := t.IndexProb.Dims(); r != 10 || c != t.Length {
		return fmt.Errorf("index probabilities are %dx%d, want 10x%d", r, c, t.Length)
	}
	if r, c := t.Markov.Dims(); r != 10 || c != 10 {
		return fmt.Errorf("markov matrix is %dx%d, want 10x10", r, c)
	}
	if mat.Min(t.IndexProb) <= 0 || mat.Min(t.Markov) <= 0 || mat.Min(t.Frequency) <= 0 {
		return fmt.Errorf("table for length %d holds non-positive probabilities", t.Length)
	}
	return nil
}

func checkLength(length int) error {
	if length < 1 || length > MaxLength {
		return fmt.Errorf("length %d outside 1..%d: %w", length, MaxLength, ErrUnsupportedPinLength)
	}
	return nil
}

func pow10(n int) int {
	return int(math.Pow10(n))
}

var lengthWords = map[int]string{
	1: "one", 2: "two", 3: "three", 4: "four", 5: "five",
	6: "six", 7: "seven", 8: "eight", 9: "nine", 10: "ten",
}

// DirName returns the directory holding the tables of a PIN length,
// e.g. "six_symbols".
func DirName(length int) string {
	word, ok := lengthWords[length]
	if !ok {
		word = strconv.Itoa(length)
	}
	return word + "_symbols"
}

// lengthFromDirName reverses DirName.
func lengthFromDirName(name string) (int, bool) {
	for n := range lengthWords {
		if DirName(n) == name {
			return n, true
		}
	}
	return 0, false
}
