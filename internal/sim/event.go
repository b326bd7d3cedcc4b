package sim

import (
	"errors"
	"fmt"
)

// ErrProbabilityRange indicates an event occurrence probability outside [0, 1].
var ErrProbabilityRange = errors.New("occurrence probability must be between 0.0 and 1.0")

// ErrDurationBounds indicates non-positive or misordered event duration bounds.
var ErrDurationBounds = errors.New("duration weeks must be positive and max >= min")

// Impacts are the multiplicative effects an event applies to the birth rate,
// death rate, and carrying capacity while it is active. 1.0 means no effect.
type Impacts struct {
	Birth float64 `json:"birth"`
	Death float64 `json:"death"`
	K     float64 `json:"k"`
}

// NoImpact leaves all three channels untouched.
var NoImpact = Impacts{Birth: 1.0, Death: 1.0, K: 1.0}

// EventType describes a possible stochastic perturbation: each week the
// scheduler is idle it may trigger with the given probability and then stay
// active for a uniformly drawn number of weeks, applying its impacts.
// EventTypes are validated at construction and immutable afterwards.
type EventType struct {
	name        string
	probability float64
	minWeeks    int
	maxWeeks    int
	impacts     Impacts
}

// NewEventType validates and builds an event descriptor. Pass 1.0 impact
// values for channels the event does not touch.
func NewEventType(name string, probability float64, minWeeks, maxWeeks int, impacts Impacts) (EventType, error) {
	if probability < 0.0 || probability > 1.0 {
		return EventType{}, fmt.Errorf("event %q: probability %g: %w", name, probability, ErrProbabilityRange)
	}
	if minWeeks <= 0 || maxWeeks < minWeeks {
		return EventType{}, fmt.Errorf("event %q: duration [%d, %d]: %w", name, minWeeks, maxWeeks, ErrDurationBounds)
	}
	return EventType{
		name:        name,
		probability: probability,
		minWeeks:    minWeeks,
		maxWeeks:    maxWeeks,
		impacts:     impacts,
	}, nil
}

// Name returns the event name.
func (e EventType) Name() string { return e.name }

// Probability returns the per-week trigger probability while the scheduler is idle.
func (e EventType) Probability() float64 { return e.probability }

// DurationWeeks returns the inclusive [min, max] duration bounds.
func (e EventType) DurationWeeks() (min, max int) { return e.minWeeks, e.maxWeeks }

// Impacts returns the event's factor impacts.
func (e EventType) Impacts() Impacts { return e.impacts }

func (e EventType) String() string {
	return fmt.Sprintf("EventType(%s p=%.4f duration=[%d-%d]w impacts(b:%g d:%g k:%g))",
		e.name, e.probability, e.minWeeks, e.maxWeeks,
		e.impacts.Birth, e.impacts.Death, e.impacts.K)
}

// EventRecord is one entry in the append-only event history: which event
// triggered, when it started and will end, and its impacts at trigger time.
type EventRecord struct {
	Name      string  `json:"name"`
	StartWeek int     `json:"start_week"`
	EndWeek   int     `json:"end_week"`
	Impacts   Impacts `json:"impacts"`
}
