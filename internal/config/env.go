package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SMUDGEPIN_"

// applyEnv overrides fields from SMUDGEPIN_* variables.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"STATS_DIR":       &c.Stats.Dir,
		"STORAGE_PATH":    &c.Storage.Path,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FILE":        &c.Log.File,
		"KEYPAD_STRATEGY": &c.Keypad.Strategy,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"IMAGE_WIDTH":          &c.Image.Width,
		"IMAGE_HEIGHT":         &c.Image.Height,
		"GUESS_TOP_N":          &c.Guess.TopN,
		"GUESS_MAX_DELTA":      &c.Guess.MaxDelta,
		"STATS_DEFAULT_LENGTH": &c.Stats.DefaultLength,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	floats := map[string]*float64{
		"QUAD_JITTER_SIGMA": &c.Quad.JitterSigma,
	}
	for key, dst := range floats {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = f
	}

	if v, ok := lookup("GUESS_ALGORITHMS"); ok {
		var algs []string
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				algs = append(algs, a)
			}
		}
		c.Guess.Algorithms = algs
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
