package sim

import (
	"math"

	"github.com/talgya/demesne/internal/entropy"
)

// dynamicsParams are the base rates and shape parameters of the weekly
// birth/death formula. They are fixed for the life of a Simulator; only the
// combined factors vary week to week.
type dynamicsParams struct {
	birthRate     float64 // per-capita weekly birth rate
	deathRate     float64 // per-capita weekly death rate
	birthExponent float64 // density exponent on the birth side
	deathExponent float64 // density exponent on the death side
	stochasticity float64 // noise stddev as a fraction of population
	baseK         float64 // base carrying capacity
}

// weeklyDelta computes the population change for one week.
//
// Births scale with max(0, 1-P/K)^a and fall to zero at or above capacity.
// Deaths scale with 1+(P/K)^b, growing super-linearly past capacity. On top
// of the deterministic delta sits Gaussian noise with stddev equal to the
// stochasticity factor times the population, when both are positive.
//
// Zero population is absorbing: the delta is exactly 0, no draws consumed.
// Clamping the resulting population at zero is the caller's job.
func weeklyDelta(pop float64, p dynamicsParams, f factors, rng entropy.Source) float64 {
	if pop <= 0 {
		return 0
	}

	k := p.baseK * f.k
	if k <= 0 {
		k = 1.0
	}

	birthTerm := 1.0 - pop/k
	birthMod := 0.0
	if birthTerm > 0 {
		birthMod = math.Pow(birthTerm, p.birthExponent)
	}
	if birthMod < 0 {
		birthMod = 0
	}
	bEff := p.birthRate * birthMod * f.birth
	if bEff < 0 {
		bEff = 0
	}

	deathMod := 1.0 + math.Pow(pop/k, p.deathExponent)
	dEff := p.deathRate * deathMod * f.death
	if dEff < 0 {
		dEff = 0
	}

	delta := pop*bEff - pop*dEff

	if p.stochasticity > 0 {
		if sd := p.stochasticity * pop; sd > 0 {
			delta += rng.NormFloat64() * sd
		}
	}

	return delta
}
