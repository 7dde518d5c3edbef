package guess

import (
	"fmt"
	"strconv"
	"strings"
)

// NoGuess marks a position the user has no knowledge of.
const NoGuess = -1

// ParseGuesses converts per-position user input into positional guesses.
// Empty strings, "?", "_" and "-" mean no guess.
func ParseGuesses(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		switch f {
		case "", "?", "_", "-":
			out[i] = NoGuess
			continue
		}
		d, err := strconv.Atoi(f)
		if err != nil || d < 0 || d > 9 {
			return nil, fmt.Errorf("position %d: %q is not a digit", i, f)
		}
		out[i] = d
	}
	return out, nil
}

// ParsePattern reads a pattern such as "1??4" with one rune per position.
func ParsePattern(pattern string) ([]int, error) {
	fields := make([]string, 0, len(pattern))
	for _, r := range pattern {
		fields = append(fields, string(r))
	}
	return ParseGuesses(fields)
}

// matchesPositional reports whether digits agree with every known position.
func matchesPositional(digits, positional []int) bool {
	for i, g := range positional {
		if g != NoGuess && digits[i] != g {
			return false
		}
	}
	return true
}

// digitCounts returns how often each digit occurs, ignoring NoGuess.
func digitCounts(digits []int) [10]int {
	var c [10]int
	for _, d := range digits {
		if d >= 0 && d <= 9 {
			c[d]++
		}
	}
	return c
}

// covers reports whether have holds at least need of every digit.
func covers(have, need [10]int) bool {
	for d := range need {
		if have[d] < need[d] {
			return false
		}
	}
	return true
}
