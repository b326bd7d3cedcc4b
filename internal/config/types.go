// Package config loads and validates YAML scenario files for the population
// simulator.
package config

// Scenario is a complete description of one simulation run.
type Scenario struct {
	// Seed drives every stochastic draw. Two runs of the same scenario with
	// the same seed produce identical trajectories.
	Seed  int64 `yaml:"seed"`
	Weeks int   `yaml:"weeks"`

	// ReportEvery controls how often the runner prints a detailed report
	// (in weeks). 0 means the default.
	ReportEvery int `yaml:"reportEvery"`

	InitialPopulation    float64 `yaml:"initialPopulation"`
	BaseCarryingCapacity float64 `yaml:"baseCarryingCapacity"`

	// nil means "use the engine default" — distinct from an explicit zero.
	BirthRate            *float64 `yaml:"birthRatePerCapita"`
	DeathRate            *float64 `yaml:"deathRatePerCapita"`
	BirthDensityExponent *float64 `yaml:"birthDensityExponent"`
	DeathDensityExponent *float64 `yaml:"deathDensityExponent"`
	Stochasticity        *float64 `yaml:"stochasticityFactor"`

	Events        []Event        `yaml:"events"`
	Thresholds    []Threshold    `yaml:"thresholds"`
	Interventions []Intervention `yaml:"interventions"`
	Climate       *Climate       `yaml:"climate"`
}

// Event describes a random event the scheduler may trigger. Order in the
// scenario file is the scheduler's evaluation order.
type Event struct {
	Name        string  `yaml:"name"`
	Probability float64 `yaml:"probability"`
	MinWeeks    int     `yaml:"minWeeks"`
	MaxWeeks    int     `yaml:"maxWeeks"`

	// Omitted impacts default to 1.0 (no effect).
	BirthImpact *float64 `yaml:"birthImpact"`
	DeathImpact *float64 `yaml:"deathImpact"`
	KImpact     *float64 `yaml:"kImpact"`
}

// Threshold is a population level with labels for rising and falling crossings.
type Threshold struct {
	Value   float64 `yaml:"value"`
	Rising  string  `yaml:"rising"`
	Falling string  `yaml:"falling"`
}

// Intervention is a scheduled manual change of the environmental factors,
// applied before the named week's tick. Omitted factors keep their prior value.
type Intervention struct {
	Week        int      `yaml:"week"`
	BirthFactor *float64 `yaml:"birthFactor"`
	DeathFactor *float64 `yaml:"deathFactor"`
	KFactor     *float64 `yaml:"kFactor"`
}

// Climate enables smooth noise-driven environmental forcing.
type Climate struct {
	// Seed for the noise layers. nil means derive from the scenario seed.
	Seed *int64 `yaml:"seed"`

	// Amplitude is the peak deviation of each factor from 1.0.
	Amplitude float64 `yaml:"amplitude"`

	// Wavelength is the number of weeks per noise cycle (default ~52).
	Wavelength float64 `yaml:"wavelength"`
}
