package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default run length and report cadence applied when the scenario omits them.
const (
	DefaultWeeks       = 104
	DefaultReportEvery = 10
)

// Load reads and parses a scenario file, applies defaults, and validates it.
func Load(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	applyDefaults(&scenario)

	if err := validate(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func applyDefaults(s *Scenario) {
	if s.Weeks == 0 {
		s.Weeks = DefaultWeeks
	}
	if s.ReportEvery == 0 {
		s.ReportEvery = DefaultReportEvery
	}
}

func validate(s *Scenario) error {
	if s.Weeks < 0 {
		return fmt.Errorf("weeks must be positive, got %d", s.Weeks)
	}

	if s.BaseCarryingCapacity <= 0 {
		return fmt.Errorf("baseCarryingCapacity must be greater than 0, got %g", s.BaseCarryingCapacity)
	}

	for i, ev := range s.Events {
		if ev.Name == "" {
			return fmt.Errorf("event %d: name is required", i)
		}
		if ev.Probability < 0 || ev.Probability > 1 {
			return fmt.Errorf("event %s: probability must be between 0 and 1, got %g", ev.Name, ev.Probability)
		}
		if ev.MinWeeks <= 0 {
			return fmt.Errorf("event %s: minWeeks must be greater than 0, got %d", ev.Name, ev.MinWeeks)
		}
		if ev.MaxWeeks < ev.MinWeeks {
			return fmt.Errorf("event %s: maxWeeks (%d) must be >= minWeeks (%d)", ev.Name, ev.MaxWeeks, ev.MinWeeks)
		}
	}

	for i, iv := range s.Interventions {
		if iv.Week <= 0 {
			return fmt.Errorf("intervention %d: week must be greater than 0, got %d", i, iv.Week)
		}
		if iv.BirthFactor == nil && iv.DeathFactor == nil && iv.KFactor == nil {
			return fmt.Errorf("intervention %d (week %d): at least one factor is required", i, iv.Week)
		}
	}

	if s.Climate != nil {
		if s.Climate.Amplitude < 0 {
			return fmt.Errorf("climate amplitude must not be negative, got %g", s.Climate.Amplitude)
		}
		if s.Climate.Wavelength < 0 {
			return fmt.Errorf("climate wavelength must not be negative, got %g", s.Climate.Wavelength)
		}
	}

	// Thresholds are intentionally not rejected here: the engine skips
	// malformed entries with a warning instead of failing the scenario.
	return nil
}
