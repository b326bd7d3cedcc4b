// Package climate provides smooth deterministic environmental forcing using
// layered simplex noise. Each week it yields multiplicative birth/death/k
// factors drifting around 1.0, so long runs see slow good and bad stretches
// instead of a flat environment.
package climate

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Forcing samples three independent noise layers, one per factor channel.
type Forcing struct {
	birthNoise opensimplex.Noise
	deathNoise opensimplex.Noise
	kNoise     opensimplex.Noise
	amplitude  float64
	wavelength float64
}

// DefaultWavelength is roughly one year of weekly ticks.
const DefaultWavelength = 52.0

// New creates a Forcing. amplitude is the peak deviation from 1.0 (0.1 means
// factors range over about [0.9, 1.1]); wavelength is the number of weeks per
// noise cycle. Non-positive wavelength falls back to DefaultWavelength.
func New(seed int64, amplitude, wavelength float64) *Forcing {
	if amplitude < 0 {
		amplitude = 0
	}
	if wavelength <= 0 {
		wavelength = DefaultWavelength
	}
	return &Forcing{
		birthNoise: opensimplex.New(seed),
		deathNoise: opensimplex.New(seed + 1),
		kNoise:     opensimplex.New(seed + 2),
		amplitude:  amplitude,
		wavelength: wavelength,
	}
}

// Factors returns the forcing multipliers for a given week. Deterministic:
// the same Forcing always returns the same factors for the same week.
func (f *Forcing) Factors(week int) (birth, death, k float64) {
	x := float64(week) / f.wavelength
	birth = clampFactor(1.0 + f.amplitude*f.birthNoise.Eval2(x, 0))
	death = clampFactor(1.0 + f.amplitude*f.deathNoise.Eval2(x, 0))
	k = clampFactor(1.0 + f.amplitude*f.kNoise.Eval2(x, 0))
	return birth, death, k
}

// clampFactor floors a factor at zero. Noise stays within [-1, 1], so this
// only matters for amplitudes above 1.
func clampFactor(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
