// Package guess ranks candidate PIN orderings for a set of detected digits.
//
// Every permutation of a full-length digit multiset is scored by each
// enabled algorithm, ranked per algorithm, and the ranks are summed. When
// the number of detections differs from the PIN length, every completion
// (or subset) of the detections is ranked and the one whose best candidates
// are most likely wins.
package guess

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"smudge-pin/internal/cipher"
	"smudge-pin/internal/stats"
	"smudge-pin/pkg/log"

	"gonum.org/v1/gonum/stat/combin"
)

var (
	// ErrCombinatorialBound means the detection count is too far from the
	// PIN length to enumerate completions.
	ErrCombinatorialBound = errors.New("combinatorial bound exceeded")
	// ErrNoCompletion means no completion satisfies the positional guesses.
	ErrNoCompletion = errors.New("no completion satisfies positional guesses")
	// ErrUnknownAlgorithm means a requested scorer is not registered.
	ErrUnknownAlgorithm = errors.New("unknown ordering algorithm")
)

// MaxTopN is the largest candidate count a request may ask for: the number
// of distinct orderings of the longest supported PIN (7!).
const MaxTopN = 5040

// Tables provides PIN statistics by length. *stats.Store implements it.
type Tables interface {
	Table(length int) (*stats.Table, error)
}

// Params holds engine defaults, overridable per request.
type Params struct {
	TopN       int      // Candidates returned
	MaxDelta   int      // Largest |detections - length| repaired
	Algorithms []string // Scorers enabled when a request names none
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		TopN:       10,
		MaxDelta:   2,
		Algorithms: []string{"index", "markov", "frequency"},
	}
}

// Request describes one ranking.
type Request struct {
	Ciphers    []cipher.Guess
	Length     int
	Positional []int    // Known digit per position or NoGuess; empty means none
	Algorithms []string // Empty uses the engine defaults
	TopN       int      // 0 uses the engine default
}

// Candidate is one ranked PIN.
type Candidate struct {
	PIN           string  `json:"pin"`
	Digits        []int   `json:"digits"`
	Score         float64 `json:"score"`          // Sum of per-algorithm ranks, lower is better
	LogLikelihood float64 `json:"log_likelihood"` // Sum of log scores over enabled algorithms
}

// Result is the ranked output of a request.
type Result struct {
	Sequence   []int       `json:"sequence"`   // Digit multiset the candidates are orderings of
	Evaluated  int         `json:"evaluated"`  // Number of sequences ranked
	Algorithms []string    `json:"algorithms"` // Scorers used
	Candidates []Candidate `json:"candidates"`
}

// Engine ranks PIN orderings against statistics from a Tables source.
type Engine struct {
	tables Tables
	params Params
}

// NewEngine returns an engine.
func NewEngine(tables Tables, params Params) *Engine {
	return &Engine{tables: tables, params: params}
}

// Params returns the engine defaults.
func (e *Engine) Params() Params {
	return e.params
}

// Guess ranks candidate PINs for req.
//
// When the detections do not match req.Length, every completion or subset
// is ranked and the one whose top candidates have the highest mean
// LogLikelihood is returned. Candidate.Score is a rank sum local to one
// sequence, so it is never compared across sequences.
func (e *Engine) Guess(req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	scorers, names, err := e.scorers(req.Algorithms)
	if err != nil {
		return nil, err
	}
	topN := req.TopN
	if topN <= 0 {
		topN = e.params.TopN
	}
	positional := req.Positional
	if len(positional) == 0 {
		positional = nil
	}

	detected := cipher.Ciphers(req.Ciphers)
	delta := req.Length - len(detected)
	if abs(delta) > e.params.MaxDelta {
		return nil, fmt.Errorf("%d detections for length %d (|delta| %d > %d): %w",
			len(detected), req.Length, abs(delta), e.params.MaxDelta, ErrCombinatorialBound)
	}

	table, err := e.tables.Table(req.Length)
	if err != nil {
		return nil, err
	}

	seqs := sequences(detected, req.Length, positional)
	log.Debug(log.Fields{
		"detected":   detected,
		"length":     req.Length,
		"delta":      delta,
		"sequences":  len(seqs),
		"algorithms": names,
	}, "ranking orderings")

	res := &Result{Evaluated: len(seqs), Algorithms: names}
	if delta == 0 {
		res.Sequence = seqs[0]
		res.Candidates = top(rank(table, seqs[0], positional, scorers), topN)
		return res, nil
	}

	bestMean := math.Inf(-1)
	for _, seq := range seqs {
		cands := top(rank(table, seq, positional, scorers), topN)
		if len(cands) == 0 {
			continue
		}
		if m := meanLogLikelihood(cands); m > bestMean {
			bestMean = m
			res.Sequence = seq
			res.Candidates = cands
		}
	}
	if res.Candidates == nil {
		return nil, fmt.Errorf("%d sequences evaluated for %v: %w", len(seqs), detected, ErrNoCompletion)
	}

	log.Debug(log.Fields{"sequence": res.Sequence, "mean_log_likelihood": bestMean}, "completion selected")
	return res, nil
}

func validate(req Request) error {
	if req.Length < 1 {
		return fmt.Errorf("invalid PIN length %d", req.Length)
	}
	if req.TopN < 0 || req.TopN > MaxTopN {
		return fmt.Errorf("top %d outside 0..%d: %w", req.TopN, MaxTopN, ErrCombinatorialBound)
	}
	for _, g := range req.Ciphers {
		if g.Cipher < 0 || g.Cipher > 9 {
			return fmt.Errorf("invalid cipher %d", g.Cipher)
		}
	}
	if len(req.Positional) == 0 {
		return nil
	}
	if len(req.Positional) != req.Length {
		return fmt.Errorf("%d positional guesses for length %d", len(req.Positional), req.Length)
	}
	for i, g := range req.Positional {
		if g != NoGuess && (g < 0 || g > 9) {
			return fmt.Errorf("invalid positional guess %d at %d", g, i)
		}
	}
	return nil
}

func (e *Engine) scorers(requested []string) ([]Scorer, []string, error) {
	names := requested
	if len(names) == 0 {
		names = e.params.Algorithms
	}
	if len(names) == 0 {
		names = Algorithms()
	}

	seen := make(map[string]bool, len(names))
	var scorers []Scorer
	var used []string
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		s, err := Lookup(name)
		if err != nil {
			return nil, nil, err
		}
		scorers = append(scorers, s)
		used = append(used, name)
	}
	return scorers, used, nil
}

// rank scores every ordering of seq that agrees with positional and sorts
// them by summed per-algorithm rank. Duplicate orderings arising from
// repeated digits are kept.
func rank(table *stats.Table, seq []int, positional []int, scorers []Scorer) []Candidate {
	var cands []Candidate
	for _, perm := range combin.Permutations(len(seq), len(seq)) {
		digits := make([]int, len(seq))
		for i, j := range perm {
			digits[i] = seq[j]
		}
		if !matchesPositional(digits, positional) {
			continue
		}
		cands = append(cands, Candidate{PIN: stats.FormatPIN(digits), Digits: digits})
	}

	scores := make([]float64, len(cands))
	order := make([]int, len(cands))
	for _, s := range scorers {
		for i := range cands {
			scores[i] = s.Score(table, cands[i].Digits)
			cands[i].LogLikelihood += math.Log(scores[i])
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
		for r, i := range order {
			cands[i].Score += float64(r)
		}
	}

	sort.SliceStable(cands, func(a, b int) bool { return cands[a].Score < cands[b].Score })
	return cands
}

// top returns the first n distinct PINs of ranked candidates.
func top(cands []Candidate, n int) []Candidate {
	seen := make(map[string]bool)
	out := make([]Candidate, 0, min(n, len(cands)))
	for _, c := range cands {
		if len(out) == n {
			break
		}
		if seen[c.PIN] {
			continue
		}
		seen[c.PIN] = true
		out = append(out, c)
	}
	return out
}

func meanLogLikelihood(cands []Candidate) float64 {
	sum := 0.0
	for _, c := range cands {
		sum += c.LogLikelihood
	}
	return sum / float64(len(cands))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
