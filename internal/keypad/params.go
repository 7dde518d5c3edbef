package keypad

import "fmt"

// MatrixStrategy selects how the 3x3 digit block is isolated from the
// filtered glyph centroids.
type MatrixStrategy int

const (
	// StrategySpacingIQR rejects centroids whose neighbour spacing is an
	// interquartile outlier, then keeps the 9 top-most.
	StrategySpacingIQR MatrixStrategy = iota
	// StrategyAlignment keeps centroids aligned with at least 2 others in
	// both their row and their column, repeated a fixed number of times.
	StrategyAlignment
)

func (s MatrixStrategy) String() string {
	switch s {
	case StrategySpacingIQR:
		return "iqr"
	case StrategyAlignment:
		return "alignment"
	default:
		return "unknown"
	}
}

// ParseMatrixStrategy converts a configuration name into a MatrixStrategy.
func ParseMatrixStrategy(name string) (MatrixStrategy, error) {
	switch name {
	case "", "iqr":
		return StrategySpacingIQR, nil
	case "alignment":
		return StrategyAlignment, nil
	}
	return 0, fmt.Errorf("unknown matrix strategy %q", name)
}

// Params holds parameters for keypad layout extraction.
// Pixel values assume the rectified image size the calibration was taken at.
type Params struct {
	// Edge detection
	CannyLow  float32
	CannyHigh float32

	// Glyph clustering (DBSCAN over contour points)
	ClusterEps        float64
	ClusterMinSamples int

	// Cluster filtering
	MaxClusterAreaFraction float64 // Clusters larger than this share of the image are frame artifacts
	BoundsMin, BoundsMax   float64 // Centroids must fall inside this fraction of width and height

	// Digit matrix extraction
	Strategy            MatrixStrategy
	IQRMultiplier       float64 // Tukey fence multiplier
	MinFenceFraction    float64 // Fence never narrower than this share of the median spacing
	AlignmentDeltaX     float64
	AlignmentDeltaY     float64
	AlignmentIterations int

	// Half extents of the synthesized digit boxes
	BoxPaddingX float64
	BoxPaddingY float64
}

// DefaultParams returns default layout parameters for a 720x1280 rectified screen.
func DefaultParams() Params {
	return Params{
		CannyLow:  50,
		CannyHigh: 150,

		ClusterEps:        10,
		ClusterMinSamples: 4,

		MaxClusterAreaFraction: 0.1,
		BoundsMin:              0.1,
		BoundsMax:              0.9,

		Strategy:            StrategySpacingIQR,
		IQRMultiplier:       1.5,
		MinFenceFraction:    0.25,
		AlignmentDeltaX:     20,
		AlignmentDeltaY:     20,
		AlignmentIterations: 2,

		BoxPaddingX: 40,
		BoxPaddingY: 40,
	}
}
