package quad

// Params holds parameters for quad refinement.
type Params struct {
	// Resampling
	InterpStep  float64 // Arc length between inserted points (pixels)
	JitterSigma float64 // Std-dev of Gaussian jitter on inserted points; 0 disables
	JitterSeed  int64   // Seed for the jitter source

	// Coarse Douglas-Peucker search
	InitialEpsilon float64
	EpsilonStep    float64
	MaxEpsilon     float64 // Give up past this tolerance

	// Line intersections farther than this from every resampled point are rejected
	MaxCornerDistance float64
}

// DefaultParams returns default refinement parameters.
// These match a phone mask predicted on a 720x1280 frame.
func DefaultParams() Params {
	return Params{
		InterpStep: 10,
		// Keeps inserted points off perfect lines. Whether the fit needs it
		// has never been measured; set to 0 to disable.
		JitterSigma: 0.25,
		JitterSeed:  1,

		InitialEpsilon: 1,
		EpsilonStep:    0.5,
		MaxEpsilon:     500,

		MaxCornerDistance: 100,
	}
}

// WithoutJitter returns a copy of params with resampling jitter disabled.
func (p Params) WithoutJitter() Params {
	p.JitterSigma = 0
	return p
}
