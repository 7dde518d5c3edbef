// Package config loads the smudge-pin configuration: YAML file, then
// SMUDGEPIN_* environment overrides (optionally from a .env file), then
// validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the binaries look for a config file when none is given.
const DefaultPath = "config/smudgepin.yaml"

// Config is the root configuration.
type Config struct {
	Image   ImageConfig   `yaml:"image"`
	Quad    QuadConfig    `yaml:"quad"`
	Keypad  KeypadConfig  `yaml:"keypad"`
	Guess   GuessConfig   `yaml:"guess"`
	Stats   StatsConfig   `yaml:"stats"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ImageConfig is the canonical size photos are rectified to.
type ImageConfig struct {
	Width  int `yaml:"width" validate:"gt=0"`
	Height int `yaml:"height" validate:"gt=0"`
}

type QuadConfig struct {
	InterpStep        float64 `yaml:"interp_step" validate:"gt=0"`
	JitterSigma       float64 `yaml:"jitter_sigma" validate:"gte=0"`
	JitterSeed        int64   `yaml:"jitter_seed"`
	InitialEpsilon    float64 `yaml:"initial_epsilon" validate:"gt=0"`
	EpsilonStep       float64 `yaml:"epsilon_step" validate:"gt=0"`
	MaxEpsilon        float64 `yaml:"max_epsilon" validate:"gtefield=InitialEpsilon"`
	MaxCornerDistance float64 `yaml:"max_corner_distance" validate:"gt=0"`
}

type KeypadConfig struct {
	CannyLow               float32 `yaml:"canny_low" validate:"gte=0"`
	CannyHigh              float32 `yaml:"canny_high" validate:"gtfield=CannyLow"`
	ClusterEps             float64 `yaml:"cluster_eps" validate:"gt=0"`
	ClusterMinSamples      int     `yaml:"cluster_min_samples" validate:"gte=1"`
	MaxClusterAreaFraction float64 `yaml:"max_cluster_area_fraction" validate:"gt=0,lte=1"`
	BoundsMin              float64 `yaml:"bounds_min" validate:"gte=0,ltfield=BoundsMax"`
	BoundsMax              float64 `yaml:"bounds_max" validate:"lte=1"`
	Strategy               string  `yaml:"strategy" validate:"oneof=iqr alignment"`
	IQRMultiplier          float64 `yaml:"iqr_multiplier" validate:"gt=0"`
	MinFenceFraction       float64 `yaml:"min_fence_fraction" validate:"gte=0"`
	AlignmentDeltaX        float64 `yaml:"alignment_delta_x" validate:"gt=0"`
	AlignmentDeltaY        float64 `yaml:"alignment_delta_y" validate:"gt=0"`
	AlignmentIterations    int     `yaml:"alignment_iterations" validate:"gte=1"`
	BoxPaddingX            float64 `yaml:"box_padding_x" validate:"gt=0"`
	BoxPaddingY            float64 `yaml:"box_padding_y" validate:"gt=0"`
}

type GuessConfig struct {
	TopN       int      `yaml:"top_n" validate:"gte=1,lte=5040"`
	MaxDelta   int      `yaml:"max_delta" validate:"gte=0,lte=3"`
	Algorithms []string `yaml:"algorithms" validate:"min=1,dive,oneof=index markov frequency"`
}

type StatsConfig struct {
	Dir           string `yaml:"dir" validate:"required"`
	MinLength     int    `yaml:"min_length" validate:"gte=1"`
	MaxLength     int    `yaml:"max_length" validate:"gtefield=MinLength,lte=7"`
	DefaultLength int    `yaml:"default_length" validate:"gtefield=MinLength,ltefield=MaxLength"`
}

type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Image: ImageConfig{Width: 720, Height: 1280},
		Quad: QuadConfig{
			InterpStep:        10,
			JitterSigma:       0.25,
			JitterSeed:        1,
			InitialEpsilon:    1,
			EpsilonStep:       0.5,
			MaxEpsilon:        500,
			MaxCornerDistance: 100,
		},
		Keypad: KeypadConfig{
			CannyLow:               50,
			CannyHigh:              150,
			ClusterEps:             10,
			ClusterMinSamples:      4,
			MaxClusterAreaFraction: 0.1,
			BoundsMin:              0.1,
			BoundsMax:              0.9,
			Strategy:               "iqr",
			IQRMultiplier:          1.5,
			MinFenceFraction:       0.25,
			AlignmentDeltaX:        20,
			AlignmentDeltaY:        20,
			AlignmentIterations:    2,
			BoxPaddingX:            40,
			BoxPaddingY:            40,
		},
		Guess: GuessConfig{
			TopN:       10,
			MaxDelta:   2,
			Algorithms: []string{"index", "markov", "frequency"},
		},
		Stats: StatsConfig{
			Dir:           "assets/stats",
			MinLength:     4,
			MaxLength:     6,
			DefaultLength: 6,
		},
		Storage: StorageConfig{Path: "smudgepin.db"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file at DefaultPath is not
// an error; an explicitly named missing file is. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// environment. A missing file is ignored.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field. The returned error wraps
// validator.ValidationErrors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
