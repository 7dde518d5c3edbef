package config

import (
	"smudge-pin/internal/guess"
	"smudge-pin/internal/keypad"
	"smudge-pin/internal/quad"
	"smudge-pin/pkg/log"
)

// QuadParams returns the quad refinement parameters.
func (c *Config) QuadParams() quad.Params {
	q := c.Quad
	return quad.Params{
		InterpStep:        q.InterpStep,
		JitterSigma:       q.JitterSigma,
		JitterSeed:        q.JitterSeed,
		InitialEpsilon:    q.InitialEpsilon,
		EpsilonStep:       q.EpsilonStep,
		MaxEpsilon:        q.MaxEpsilon,
		MaxCornerDistance: q.MaxCornerDistance,
	}
}

// KeypadParams returns the keypad extraction parameters.
// The strategy name has been validated, so parsing cannot fail.
func (c *Config) KeypadParams() keypad.Params {
	k := c.Keypad
	strategy, _ := keypad.ParseMatrixStrategy(k.Strategy)
	return keypad.Params{
		CannyLow:               k.CannyLow,
		CannyHigh:              k.CannyHigh,
		ClusterEps:             k.ClusterEps,
		ClusterMinSamples:      k.ClusterMinSamples,
		MaxClusterAreaFraction: k.MaxClusterAreaFraction,
		BoundsMin:              k.BoundsMin,
		BoundsMax:              k.BoundsMax,
		Strategy:               strategy,
		IQRMultiplier:          k.IQRMultiplier,
		MinFenceFraction:       k.MinFenceFraction,
		AlignmentDeltaX:        k.AlignmentDeltaX,
		AlignmentDeltaY:        k.AlignmentDeltaY,
		AlignmentIterations:    k.AlignmentIterations,
		BoxPaddingX:            k.BoxPaddingX,
		BoxPaddingY:            k.BoxPaddingY,
	}
}

// GuessParams returns the ordering engine defaults.
func (c *Config) GuessParams() guess.Params {
	return guess.Params{
		TopN:       c.Guess.TopN,
		MaxDelta:   c.Guess.MaxDelta,
		Algorithms: append([]string(nil), c.Guess.Algorithms...),
	}
}

// LogOptions returns the logger options.
func (c *Config) LogOptions() log.Options {
	return log.Options{Level: c.Log.Level, File: c.Log.File}
}

// SupportsLength reports whether a PIN length is inside the configured range.
func (c *Config) SupportsLength(length int) bool {
	return length >= c.Stats.MinLength && length <= c.Stats.MaxLength
}
