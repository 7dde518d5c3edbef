package guess

import (
	"fmt"
	"sort"

	"smudge-pin/internal/stats"
)

// Scorer rates a full-length digit ordering against the PIN statistics.
// Scores are probabilities; higher is more likely.
type Scorer interface {
	Name() string
	Score(t *stats.Table, digits []int) float64
}

// Registry of ordering scorers by name.
var registry = make(map[string]Scorer)

// Register adds a scorer to the registry, replacing any of the same name.
func Register(s Scorer) {
	registry[s.Name()] = s
}

// Lookup returns the scorer registered under name.
func Lookup(name string) (Scorer, error) {
	if s, ok := registry[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownAlgorithm)
}

// Algorithms returns all registered scorer names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(indexScorer{})
	Register(markovScorer{})
	Register(frequencyScorer{})
}

// indexScorer multiplies the probability of each digit at its position.
type indexScorer struct{}

func (indexScorer) Name() string { return "index" }

func (indexScorer) Score(t *stats.Table, digits []int) float64 {
	p := 1.0
	for i, d := range digits {
		p *= t.IndexProbOf(d, i)
	}
	return p
}

// markovScorer multiplies the transition probabilities of consecutive digits.
type markovScorer struct{}

func (markovScorer) Name() string { return "markov" }

func (markovScorer) Score(t *stats.Table, digits []int) float64 {
	p := 1.0
	for i := 1; i < len(digits); i++ {
		p *= t.Transition(digits[i-1], digits[i])
	}
	return p
}

// frequencyScorer looks the whole PIN up in the corpus frequencies.
type frequencyScorer struct{}

func (frequencyScorer) Name() string { return "frequency" }

func (frequencyScorer) Score(t *stats.Table, digits []int) float64 {
	return t.FrequencyOf(digits)
}
