package stats

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"smudge-pin/pkg/log"

	"gonum.org/v1/gonum/mat"
)

// CorpusError lists the corpus lines that are not PINs of the corpus length.
type CorpusError struct {
	Length int
	Lines  []int // 1-based
}

func (e *CorpusError) Error() string {
	const shown = 10
	lines := e.Lines
	suffix := ""
	if len(lines) > shown {
		lines = lines[:shown]
		suffix = fmt.Sprintf(" and %d more", len(e.Lines)-shown)
	}
	return fmt.Sprintf("%s: %d lines are not %d-digit PINs (lines %v%s)",
		ErrCorpusFormat, len(e.Lines), e.Length, lines, suffix)
}

func (e *CorpusError) Unwrap() error { return ErrCorpusFormat }

// Build reads one PIN per line and computes the smoothed tables. The PIN
// length is taken from the first non-blank line and must equal
// expectedLength. Blank lines are ignored.
func Build(r io.Reader, expectedLength int) (*Table, error) {
	if err := checkLength(expectedLength); err != nil {
		return nil, err
	}

	counts := make([]float64, pow10(expectedLength))
	index := mat.NewDense(10, expectedLength, nil)
	markov := mat.NewDense(10, 10, nil)

	var bad []int
	pins, length := 0, 0
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		pin := strings.TrimSpace(scanner.Text())
		if pin == "" {
			continue
		}
		if length == 0 {
			length = len(pin)
			if length != expectedLength {
				return nil, fmt.Errorf("corpus PINs have %d digits, expected %d: %w",
					length, expectedLength, ErrCorpusFormat)
			}
		}

		digits, ok := parsePIN(pin, length)
		if !ok {
			bad = append(bad, lineNo)
			continue
		}

		pins++
		counts[Index(digits)]++
		for i, d := range digits {
			index.Set(d, i, index.At(d, i)+1)
			if i > 0 {
				prev := digits[i-1]
				markov.Set(prev, d, markov.At(prev, d)+1)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	if len(bad) > 0 {
		return nil, &CorpusError{Length: length, Lines: bad}
	}
	if pins == 0 {
		return nil, ErrEmptyCorpus
	}

	table := &Table{
		Length:    length,
		Frequency: mat.NewVecDense(len(counts), frequencies(counts)),
		IndexProb: normalizeColumns(smooth(index)),
		Markov:    normalizeRows(smooth(markov)),
	}

	log.Info(log.Fields{"length": length, "pins": pins}, "statistics built")
	return table, nil
}

func parsePIN(s string, length int) ([]int, bool) {
	if len(s) != length {
		return nil, false
	}
	digits := make([]int, length)
	for i := 0; i < length; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, false
		}
		digits[i] = int(c - '0')
	}
	return digits, true
}

// frequencies replaces zero counts by 1 and normalizes by the total.
func frequencies(counts []float64) []float64 {
	total := 0.0
	for i, c := range counts {
		if c == 0 {
			counts[i] = 1
		}
		total += counts[i]
	}
	for i := range counts {
		counts[i] /= total
	}
	return counts
}

func smooth(m *mat.Dense) *mat.Dense {
	m.Apply(func(_, _ int, v float64) float64 {
		if v == 0 {
			return 1
		}
		return v
	}, m)
	return m
}

func normalizeColumns(m *mat.Dense) *mat.Dense {
	_, cols := m.Dims()
	for j := 0; j < cols; j++ {
		col := m.ColView(j)
		if sum := mat.Sum(col); sum > 0 {
			for i := 0; i < col.Len(); i++ {
				m.Set(i, j, m.At(i, j)/sum)
			}
		}
	}
	return m
}

func normalizeRows(m *mat.Dense) *mat.Dense {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RowView(i)
		if sum := mat.Sum(row); sum > 0 {
			scaled := mat.NewVecDense(row.Len(), nil)
			scaled.ScaleVec(1/sum, row)
			m.SetRow(i, scaled.RawVector().Data)
		}
	}
	return m
}
