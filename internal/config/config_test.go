package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"smudge-pin/internal/guess"
	"smudge-pin/internal/keypad"
	"smudge-pin/internal/quad"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smudgepin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault_Valid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefault_MatchesPackageDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, quad.DefaultParams(), cfg.QuadParams())
	assert.Equal(t, keypad.DefaultParams(), cfg.KeypadParams())
	assert.Equal(t, guess.DefaultParams(), cfg.GuessParams())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
keypad:
  strategy: alignment
guess:
  top_n: 3
  algorithms: [markov]
stats:
  dir: /var/lib/smudgepin/stats
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, keypad.StrategyAlignment, cfg.KeypadParams().Strategy)
	assert.Equal(t, 3, cfg.Guess.TopN)
	assert.Equal(t, []string{"markov"}, cfg.Guess.Algorithms)
	assert.Equal(t, "/var/lib/smudgepin/stats", cfg.Stats.Dir)

	assert.Equal(t, 720, cfg.Image.Width)
	assert.Equal(t, 2, cfg.Guess.MaxDelta)
	assert.Equal(t, 0.25, cfg.Quad.JitterSigma)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "guess:\n  topn: 3\n"))
	assert.Error(t, err)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown algorithm", "guess:\n  algorithms: [tarot]\n", "Algorithms[0]"},
		{"no algorithms", "guess:\n  algorithms: []\n", "Algorithms"},
		{"canny inverted", "keypad:\n  canny_low: 200\n", "CannyHigh"},
		{"bounds inverted", "keypad:\n  bounds_min: 0.95\n", "BoundsMin"},
		{"strategy", "keypad:\n  strategy: magic\n", "Strategy"},
		{"length range", "stats:\n  max_length: 9\n", "MaxLength"},
		{"default length", "stats:\n  default_length: 3\n", "DefaultLength"},
		{"delta", "guess:\n  max_delta: 5\n", "MaxDelta"},
		{"top_n bound", "guess:\n  top_n: 100000\n", "TopN"},
		{"log level", "log:\n  level: loud\n", "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			var fields []string
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SMUDGEPIN_STATS_DIR", "/tmp/stats")
	t.Setenv("SMUDGEPIN_GUESS_TOP_N", "25")
	t.Setenv("SMUDGEPIN_GUESS_ALGORITHMS", "index, frequency")
	t.Setenv("SMUDGEPIN_QUAD_JITTER_SIGMA", "0")

	cfg, err := Load(writeConfig(t, "stats:\n  dir: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/stats", cfg.Stats.Dir)
	assert.Equal(t, 25, cfg.Guess.TopN)
	assert.Equal(t, []string{"index", "frequency"}, cfg.Guess.Algorithms)
	assert.Equal(t, 0.0, cfg.QuadParams().JitterSigma)
}

func TestLoad_EnvBadNumber(t *testing.T) {
	t.Setenv("SMUDGEPIN_GUESS_TOP_N", "many")
	_, err := Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SMUDGEPIN_TEST_FROM_DOTENV=yes\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SMUDGEPIN_TEST_FROM_DOTENV") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "yes", os.Getenv("SMUDGEPIN_TEST_FROM_DOTENV"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestSupportsLength(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.SupportsLength(4))
	assert.True(t, cfg.SupportsLength(6))
	assert.False(t, cfg.SupportsLength(3))
	assert.False(t, cfg.SupportsLength(7))
}
