// Package sim implements a weekly-tick stochastic population-dynamics engine:
// density-dependent births and deaths around a carrying capacity, probabilistic
// event perturbations (at most one active at a time), and threshold-crossing
// detection. Runs are deterministic given a seeded entropy source.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/demesne/internal/entropy"
)

// ErrNonPositiveCapacity indicates a base carrying capacity <= 0.
var ErrNonPositiveCapacity = errors.New("base carrying capacity must be positive")

// Default per-capita rates and shape parameters, applied where the Config
// leaves a field unset.
const (
	DefaultBirthRate     = 0.007
	DefaultDeathRate     = 0.002
	DefaultBirthExponent = 0.7
	DefaultDeathExponent = 3.0
	DefaultStochasticity = 0.0025
)

// Config describes a simulation. InitialPopulation and BaseCarryingCapacity
// are required (negative initial population clamps to 0; non-positive capacity
// fails construction). Pointer fields distinguish "unset" from "set to the
// default value": nil means use the package default.
type Config struct {
	InitialPopulation    float64
	BaseCarryingCapacity float64

	BirthRate            *float64
	DeathRate            *float64
	BirthDensityExponent *float64
	DeathDensityExponent *float64
	Stochasticity        *float64

	// Events is the ordered registry of possible random events. Order matters:
	// selection is first-match-wins in registration order.
	Events []EventType

	// Thresholds to watch; invalid entries are skipped with a warning.
	Thresholds []Threshold

	// Rand is the entropy source. nil means a time-seeded source; pass
	// entropy.Seeded with a fixed seed for reproducible runs.
	Rand entropy.Source
}

// Simulator holds all simulation state and drives one engine invocation per
// week. It is not safe for concurrent use; callers must serialize access.
type Simulator struct {
	population float64
	week       int
	params     dynamicsParams
	env        factors
	thresholds []Threshold
	sched      scheduler
	rng        entropy.Source
}

// FactorUpdate is a partial update of the manual environmental factors.
// nil fields keep their prior value.
type FactorUpdate struct {
	Birth *float64
	Death *float64
	K     *float64
}

// Snapshot is a structured view of all current base and derived values,
// intended for logging and reporting collaborators.
type Snapshot struct {
	Population           float64 `json:"current_population"`
	BaseCarryingCapacity float64 `json:"base_carrying_capacity"`
	EffectiveCapacity    float64 `json:"effective_carrying_capacity"`
	BirthRate            float64 `json:"base_birth_rate"`
	DeathRate            float64 `json:"base_death_rate"`
	BirthDensityExponent float64 `json:"birth_density_exponent"`
	DeathDensityExponent float64 `json:"death_density_exponent"`
	Stochasticity        float64 `json:"stochasticity_factor"`
	ManualBirthFactor    float64 `json:"manual_birth_factor"`
	ManualDeathFactor    float64 `json:"manual_death_factor"`
	ManualKFactor        float64 `json:"manual_k_factor"`
	CombinedBirthFactor  float64 `json:"combined_birth_factor"`
	CombinedDeathFactor  float64 `json:"combined_death_factor"`
	CombinedKFactor      float64 `json:"combined_k_factor"`
	ActiveEventName      string  `json:"active_event_name,omitempty"`
	ActiveEventWeeksLeft int     `json:"active_event_weeks_remaining"`
	WeekCount            int     `json:"week_count"`
}

// New builds a Simulator from cfg. Construction fails if the base carrying
// capacity is not positive; invalid thresholds are skipped with a warning log.
func New(cfg Config) (*Simulator, error) {
	if !(cfg.BaseCarryingCapacity > 0) {
		return nil, fmt.Errorf("capacity %g: %w", cfg.BaseCarryingCapacity, ErrNonPositiveCapacity)
	}

	pop := cfg.InitialPopulation
	if pop < 0 {
		pop = 0
	}

	rng := cfg.Rand
	if rng == nil {
		rng = entropy.Seeded(time.Now().UnixNano())
	}

	s := &Simulator{
		population: pop,
		params: dynamicsParams{
			birthRate:     orDefault(cfg.BirthRate, DefaultBirthRate),
			deathRate:     orDefault(cfg.DeathRate, DefaultDeathRate),
			birthExponent: orDefault(cfg.BirthDensityExponent, DefaultBirthExponent),
			deathExponent: orDefault(cfg.DeathDensityExponent, DefaultDeathExponent),
			stochasticity: orDefault(cfg.Stochasticity, DefaultStochasticity),
			baseK:         cfg.BaseCarryingCapacity,
		},
		env:   factors{birth: 1.0, death: 1.0, k: 1.0},
		sched: scheduler{registry: cfg.Events},
		rng:   rng,
	}

	for _, w := range s.SetThresholds(cfg.Thresholds) {
		slog.Warn("threshold skipped", "reason", w)
	}

	return s, nil
}

func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// AdvanceWeek runs one tick: increments the week counter, updates the event
// scheduler, applies the weekly delta clamped at zero, and reports threshold
// crossings between the previous and new population, in ascending threshold
// order. One call is one atomic unit of work.
func (s *Simulator) AdvanceWeek() (float64, []string) {
	s.week++
	prev := s.population

	s.sched.update(s.week, s.rng)

	delta := weeklyDelta(prev, s.params, s.sched.combined(s.env), s.rng)

	next := prev + delta
	if next < 0 {
		next = 0
	}
	s.population = next

	return s.population, thresholdCrossings(prev, s.population, s.thresholds)
}

// SetEnvironmentalFactors applies a partial update to the manual factors.
// Takes effect immediately, even while an event is active.
func (s *Simulator) SetEnvironmentalFactors(u FactorUpdate) {
	if u.Birth != nil {
		s.env.birth = *u.Birth
	}
	if u.Death != nil {
		s.env.death = *u.Death
	}
	if u.K != nil {
		s.env.k = *u.K
	}
}

// SetThresholds replaces the threshold list wholesale. Malformed entries are
// skipped; the returned warnings describe each one skipped.
func (s *Simulator) SetThresholds(list []Threshold) []string {
	valid, warnings := normalizeThresholds(list)
	s.thresholds = valid
	return warnings
}

// Population returns the current population.
func (s *Simulator) Population() float64 { return s.population }

// WeekCount returns the number of weeks simulated so far.
func (s *Simulator) WeekCount() int { return s.week }

// CurrentCarryingCapacity returns the effective carrying capacity under the
// current combined factors.
func (s *Simulator) CurrentCarryingCapacity() float64 {
	return s.params.baseK * s.sched.combined(s.env).k
}

// ActiveEvent reports the active event's name and remaining weeks.
// ok is false when no event is active.
func (s *Simulator) ActiveEvent() (name string, weeksLeft int, ok bool) {
	if s.sched.active == nil {
		return "", 0, false
	}
	return s.sched.active.event.name, s.sched.active.weeksLeft, true
}

// History returns a copy of the append-only event history.
func (s *Simulator) History() []EventRecord {
	out := make([]EventRecord, len(s.sched.history))
	copy(out, s.sched.history)
	return out
}

// Thresholds returns a copy of the registered thresholds, sorted ascending.
func (s *Simulator) Thresholds() []Threshold {
	out := make([]Threshold, len(s.thresholds))
	copy(out, s.thresholds)
	return out
}

// Parameters returns a snapshot of all current base and derived values.
func (s *Simulator) Parameters() Snapshot {
	combined := s.sched.combined(s.env)
	snap := Snapshot{
		Population:           s.population,
		BaseCarryingCapacity: s.params.baseK,
		EffectiveCapacity:    s.params.baseK * combined.k,
		BirthRate:            s.params.birthRate,
		DeathRate:            s.params.deathRate,
		BirthDensityExponent: s.params.birthExponent,
		DeathDensityExponent: s.params.deathExponent,
		Stochasticity:        s.params.stochasticity,
		ManualBirthFactor:    s.env.birth,
		ManualDeathFactor:    s.env.death,
		ManualKFactor:        s.env.k,
		CombinedBirthFactor:  combined.birth,
		CombinedDeathFactor:  combined.death,
		CombinedKFactor:      combined.k,
		WeekCount:            s.week,
	}
	if name, left, ok := s.ActiveEvent(); ok {
		snap.ActiveEventName = name
		snap.ActiveEventWeeksLeft = left
	}
	return snap
}
