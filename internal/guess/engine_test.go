package guess

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"smudge-pin/internal/cipher"
	"smudge-pin/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTables serves tables built in memory.
type memTables map[int]*stats.Table

func (m memTables) Table(length int) (*stats.Table, error) {
	if t, ok := m[length]; ok {
		return t, nil
	}
	return nil, stats.ErrUnsupportedPinLength
}

var (
	sixOnce  sync.Once
	sixTable *stats.Table
)

// sixDigitTables returns tables built from 1000 copies of "123456".
func sixDigitTables(t *testing.T) memTables {
	t.Helper()
	sixOnce.Do(func() {
		tbl, err := stats.Build(strings.NewReader(strings.Repeat("123456\n", 1000)), 6)
		if err != nil {
			panic(err)
		}
		sixTable = tbl
	})
	return memTables{6: sixTable}
}

func guesses(digits ...int) []cipher.Guess {
	out := make([]cipher.Guess, len(digits))
	for i, d := range digits {
		out[i] = cipher.Guess{Cipher: d, Confidence: 0.9}
	}
	return out
}

func TestGuess_Exact(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	res, err := engine.Guess(Request{Ciphers: guesses(4, 2, 6, 1, 5, 3), Length: 6})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Evaluated)
	assert.Equal(t, []string{"index", "markov", "frequency"}, res.Algorithms)
	require.Len(t, res.Candidates, 10)
	assert.Equal(t, "123456", res.Candidates[0].PIN)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, res.Candidates[0].Digits)
	assert.Equal(t, 0.0, res.Candidates[0].Score)

	assert.True(t, sort.SliceIsSorted(res.Candidates, func(a, b int) bool {
		return res.Candidates[a].Score < res.Candidates[b].Score
	}))
}

func TestGuess_MissingDigit(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	res, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5), Length: 6})
	require.NoError(t, err)

	assert.Equal(t, 10, res.Evaluated)
	assert.Contains(t, res.Sequence, 6)
	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, "123456", res.Candidates[0].PIN)
}

func TestGuess_ExtraDetection(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	res, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6, 7), Length: 6})
	require.NoError(t, err)

	assert.Equal(t, 7, res.Evaluated)
	assert.NotContains(t, res.Sequence, 7)
	assert.Equal(t, "123456", res.Candidates[0].PIN)
}

func TestGuess_CombinatorialBound(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	_, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3), Length: 6})
	assert.True(t, errors.Is(err, ErrCombinatorialBound))
}

func TestGuess_PositionalFilter(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())
	positional, err := ParsePattern("?????1")
	require.NoError(t, err)

	res, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6), Length: 6, Positional: positional, TopN: 200})
	require.NoError(t, err)

	assert.Len(t, res.Candidates, 120) // 5! orderings end in 1
	for _, c := range res.Candidates {
		assert.True(t, strings.HasSuffix(c.PIN, "1"), c.PIN)
	}
}

func TestGuess_PositionalExcludesAll(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())
	positional, err := ParsePattern("9?????")
	require.NoError(t, err)

	res, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6), Length: 6, Positional: positional})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
}

func TestGuess_PositionalDrivesCompletion(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())
	positional, err := ParsePattern("?????9")
	require.NoError(t, err)

	res, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5), Length: 6, Positional: positional})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Evaluated)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 9}, res.Sequence)
	for _, c := range res.Candidates {
		assert.True(t, strings.HasSuffix(c.PIN, "9"), c.PIN)
	}
}

func TestGuess_NoCompletion(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())
	positional, err := ParsePattern("8????9")
	require.NoError(t, err)

	// One missing digit cannot supply both 8 and 9.
	_, err = engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5), Length: 6, Positional: positional})
	assert.True(t, errors.Is(err, ErrNoCompletion))
}

func TestGuess_DuplicateDigitsDeduplicatedInOutput(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	res, err := engine.Guess(Request{Ciphers: guesses(1, 1, 2, 3, 4, 5), Length: 6, TopN: 1000})
	require.NoError(t, err)

	pins := make(map[string]bool)
	for _, c := range res.Candidates {
		assert.False(t, pins[c.PIN], "duplicate %s", c.PIN)
		pins[c.PIN] = true
	}
	assert.Len(t, res.Candidates, 360) // 6!/2!
}

func TestGuess_SingleAlgorithm(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	res, err := engine.Guess(Request{Ciphers: guesses(6, 5, 4, 3, 2, 1), Length: 6, Algorithms: []string{"markov"}, TopN: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"markov"}, res.Algorithms)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "123456", res.Candidates[0].PIN)
	assert.Equal(t, 0.0, res.Candidates[0].Score)
	assert.Equal(t, 1.0, res.Candidates[1].Score)
}

func TestGuess_UnknownAlgorithm(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	_, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6), Length: 6, Algorithms: []string{"tarot"}})
	assert.True(t, errors.Is(err, ErrUnknownAlgorithm))
}

func TestGuess_MissingStatistics(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	_, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4), Length: 4})
	assert.True(t, errors.Is(err, stats.ErrUnsupportedPinLength))
}

func TestGuess_InvalidRequest(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	_, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6), Length: 6, Positional: []int{1, 2}})
	assert.Error(t, err)
	_, err = engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 12), Length: 6})
	assert.Error(t, err)
	_, err = engine.Guess(Request{Length: 0})
	assert.Error(t, err)
}

func TestAlgorithms(t *testing.T) {
	assert.Equal(t, []string{"frequency", "index", "markov"}, Algorithms())
	s, err := Lookup("index")
	require.NoError(t, err)
	assert.Equal(t, "index", s.Name())
}

func TestGuess_TopNBounded(t *testing.T) {
	engine := NewEngine(sixDigitTables(t), DefaultParams())

	_, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6), Length: 6, TopN: 1 << 40})
	assert.True(t, errors.Is(err, ErrCombinatorialBound))
	_, err = engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6), Length: 6, TopN: -1})
	assert.True(t, errors.Is(err, ErrCombinatorialBound))

	// 6 distinct digits have 720 orderings
	res, err := engine.Guess(Request{Ciphers: guesses(1, 2, 3, 4, 5, 6), Length: 6, TopN: MaxTopN})
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 720)
}

func TestTop_CapacityFollowsCandidates(t *testing.T) {
	cands := []Candidate{{PIN: "12"}, {PIN: "21"}, {PIN: "12"}}
	out := top(cands, 1<<40)
	assert.Equal(t, []Candidate{{PIN: "12"}, {PIN: "21"}}, out)
	assert.LessOrEqual(t, cap(out), len(cands))
}
