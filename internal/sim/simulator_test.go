package sim

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/talgya/demesne/internal/entropy"
)

func float64p(v float64) *float64 { return &v }

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []float64{0, -100, math.NaN()} {
		_, err := New(Config{InitialPopulation: 100, BaseCarryingCapacity: capacity})
		if !errors.Is(err, ErrNonPositiveCapacity) {
			t.Errorf("capacity %v: expected ErrNonPositiveCapacity, got %v", capacity, err)
		}
	}
}

func TestNewClampsNegativeInitialPopulation(t *testing.T) {
	s, err := New(Config{InitialPopulation: -50, BaseCarryingCapacity: 100})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if s.Population() != 0 {
		t.Fatalf("population = %v, want 0", s.Population())
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	s, err := New(Config{InitialPopulation: 100, BaseCarryingCapacity: 1000})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	snap := s.Parameters()
	if snap.BirthRate != DefaultBirthRate {
		t.Errorf("birth rate = %v, want %v", snap.BirthRate, DefaultBirthRate)
	}
	if snap.DeathRate != DefaultDeathRate {
		t.Errorf("death rate = %v, want %v", snap.DeathRate, DefaultDeathRate)
	}
	if snap.BirthDensityExponent != DefaultBirthExponent {
		t.Errorf("birth exponent = %v, want %v", snap.BirthDensityExponent, DefaultBirthExponent)
	}
	if snap.DeathDensityExponent != DefaultDeathExponent {
		t.Errorf("death exponent = %v, want %v", snap.DeathDensityExponent, DefaultDeathExponent)
	}
	if snap.Stochasticity != DefaultStochasticity {
		t.Errorf("stochasticity = %v, want %v", snap.Stochasticity, DefaultStochasticity)
	}
	if snap.ManualBirthFactor != 1.0 || snap.ManualDeathFactor != 1.0 || snap.ManualKFactor != 1.0 {
		t.Errorf("manual factors not 1.0: %+v", snap)
	}
}

func TestNewDistinguishesUnsetFromExplicitZero(t *testing.T) {
	s, err := New(Config{
		InitialPopulation:    100,
		BaseCarryingCapacity: 1000,
		Stochasticity:        float64p(0),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := s.Parameters().Stochasticity; got != 0 {
		t.Fatalf("stochasticity = %v, want explicit 0", got)
	}
}

func TestAdvanceWeekConcreteScenario(t *testing.T) {
	// P = K: births vanish, death modifier doubles, delta is -2.
	s, err := New(Config{
		InitialPopulation:    100,
		BaseCarryingCapacity: 100,
		BirthRate:            float64p(0.01),
		DeathRate:            float64p(0.01),
		BirthDensityExponent: float64p(1.0),
		DeathDensityExponent: float64p(1.0),
		Stochasticity:        float64p(0),
		Rand:                 &entropy.Script{},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	pop, labels := s.AdvanceWeek()
	if math.Abs(pop-98.0) > 1e-9 {
		t.Fatalf("population = %v, want 98", pop)
	}
	if len(labels) != 0 {
		t.Fatalf("unexpected labels: %v", labels)
	}
	if s.WeekCount() != 1 {
		t.Fatalf("week count = %d, want 1", s.WeekCount())
	}
}

func TestAdvanceWeekPopulationNeverNegative(t *testing.T) {
	s, err := New(Config{
		InitialPopulation:    10,
		BaseCarryingCapacity: 100,
		BirthRate:            float64p(0),
		DeathRate:            float64p(50.0), // absurd death rate to force a negative delta
		BirthDensityExponent: float64p(1.0),
		DeathDensityExponent: float64p(1.0),
		Stochasticity:        float64p(0),
		Rand:                 &entropy.Script{},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	pop, _ := s.AdvanceWeek()
	if pop != 0 {
		t.Fatalf("population = %v, want clamp to 0", pop)
	}

	// Zero is absorbing even with events and factors active.
	ev := mustEvent(t, "boom", 1.0, 5, 5, Impacts{Birth: 10, Death: 0.1, K: 2})
	s2, err := New(Config{
		InitialPopulation:    0,
		BaseCarryingCapacity: 100,
		Stochasticity:        float64p(0.5),
		Events:               []EventType{ev},
		Rand:                 entropy.Seeded(7),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s2.SetEnvironmentalFactors(FactorUpdate{Birth: float64p(5.0)})
	for week := 0; week < 50; week++ {
		if pop, _ := s2.AdvanceWeek(); pop != 0 {
			t.Fatalf("week %d: population = %v, want 0", week+1, pop)
		}
	}
}

func TestAdvanceWeekEmitsThresholdCrossing(t *testing.T) {
	// Large capacity keeps the density term near 1, so the population grows
	// by roughly birthRate*P each week and crosses 150 on the first tick.
	s, err := New(Config{
		InitialPopulation:    149,
		BaseCarryingCapacity: 1e9,
		BirthRate:            float64p(0.0135),
		DeathRate:            float64p(0),
		Stochasticity:        float64p(0),
		Thresholds:           []Threshold{{Value: 150, Rising: "R", Falling: "F"}},
		Rand:                 &entropy.Script{},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	pop, labels := s.AdvanceWeek()
	if pop <= 150 {
		t.Fatalf("population = %v, expected growth past 150", pop)
	}
	if !reflect.DeepEqual(labels, []string{"R"}) {
		t.Fatalf("labels = %v, want [R]", labels)
	}
}

func TestCertainEventAlwaysTriggersFirstIdleWeek(t *testing.T) {
	ev := mustEvent(t, "plague", 1.0, 3, 3, Impacts{Birth: 0.8, Death: 2.0, K: 0.7})
	s, err := New(Config{
		InitialPopulation:    1000,
		BaseCarryingCapacity: 2000,
		Stochasticity:        float64p(0),
		Events:               []EventType{ev},
		Rand:                 entropy.Seeded(1),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	s.AdvanceWeek()
	name, left, ok := s.ActiveEvent()
	if !ok || name != "plague" {
		t.Fatalf("active event = (%q, %d, %v), want plague", name, left, ok)
	}
	if left != 3 {
		t.Fatalf("weeks left = %d, want 3", left)
	}

	// Remaining duration strictly decreases until the event clears.
	s.AdvanceWeek()
	if _, left2, _ := s.ActiveEvent(); left2 != 2 {
		t.Fatalf("weeks left = %d, want 2", left2)
	}
}

func TestEventImpactsCarryingCapacity(t *testing.T) {
	ev := mustEvent(t, "drought", 1.0, 10, 10, Impacts{Birth: 1, Death: 1, K: 0.5})
	s, err := New(Config{
		InitialPopulation:    100,
		BaseCarryingCapacity: 1000,
		Stochasticity:        float64p(0),
		Events:               []EventType{ev},
		Rand:                 entropy.Seeded(1),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := s.CurrentCarryingCapacity(); got != 1000 {
		t.Fatalf("capacity before event = %v, want 1000", got)
	}
	s.AdvanceWeek()
	if got := s.CurrentCarryingCapacity(); got != 500 {
		t.Fatalf("capacity during event = %v, want 500", got)
	}

	// Manual changes take effect immediately, even mid-event.
	s.SetEnvironmentalFactors(FactorUpdate{K: float64p(2.0)})
	if got := s.CurrentCarryingCapacity(); got != 1000 {
		t.Fatalf("capacity after manual update = %v, want 1000", got)
	}
}

func TestSetEnvironmentalFactorsPartialUpdate(t *testing.T) {
	s, err := New(Config{InitialPopulation: 100, BaseCarryingCapacity: 1000})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	s.SetEnvironmentalFactors(FactorUpdate{Birth: float64p(0.9)})
	s.SetEnvironmentalFactors(FactorUpdate{Death: float64p(1.2)})

	snap := s.Parameters()
	if snap.ManualBirthFactor != 0.9 {
		t.Errorf("birth factor = %v, want 0.9 (retained)", snap.ManualBirthFactor)
	}
	if snap.ManualDeathFactor != 1.2 {
		t.Errorf("death factor = %v, want 1.2", snap.ManualDeathFactor)
	}
	if snap.ManualKFactor != 1.0 {
		t.Errorf("k factor = %v, want 1.0 (never set)", snap.ManualKFactor)
	}
}

func TestSetThresholdsReportsSkippedEntries(t *testing.T) {
	s, err := New(Config{InitialPopulation: 100, BaseCarryingCapacity: 1000})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	warnings := s.SetThresholds([]Threshold{
		{Value: 150, Rising: "up", Falling: "down"},
		{Value: math.NaN(), Rising: "bad", Falling: "bad"},
	})
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want 1 entry", warnings)
	}
	if got := s.Thresholds(); len(got) != 1 || got[0].Value != 150 {
		t.Fatalf("thresholds = %+v, want only 150", got)
	}
}

func TestIdenticalSeedsProduceIdenticalRuns(t *testing.T) {
	build := func(seed int64) *Simulator {
		harvest := mustEvent(t, "good harvest", 0.1, 4, 8, Impacts{Birth: 1.5, Death: 0.9, K: 1.2})
		plague := mustEvent(t, "plague", 0.05, 10, 20, Impacts{Birth: 0.8, Death: 2.0, K: 0.7})
		s, err := New(Config{
			InitialPopulation:    1000,
			BaseCarryingCapacity: 2000,
			BirthRate:            float64p(0.01),
			DeathRate:            float64p(0.005),
			Stochasticity:        float64p(0.005),
			Events:               []EventType{harvest, plague},
			Thresholds: []Threshold{
				{Value: 500, Rising: "recovering", Falling: "low"},
				{Value: 1500, Rising: "boom", Falling: "decline"},
			},
			Rand: entropy.Seeded(seed),
		})
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		return s
	}

	a, b := build(42), build(42)
	for week := 0; week < 300; week++ {
		popA, labelsA := a.AdvanceWeek()
		popB, labelsB := b.AdvanceWeek()
		if popA != popB {
			t.Fatalf("week %d: trajectories diverge: %v vs %v", week+1, popA, popB)
		}
		if !reflect.DeepEqual(labelsA, labelsB) {
			t.Fatalf("week %d: labels diverge: %v vs %v", week+1, labelsA, labelsB)
		}
	}
	if !reflect.DeepEqual(a.History(), b.History()) {
		t.Fatalf("event histories diverge:\n%+v\n%+v", a.History(), b.History())
	}
}

func TestHistoryReturnsACopy(t *testing.T) {
	ev := mustEvent(t, "storm", 1.0, 2, 2, NoImpact)
	s, err := New(Config{
		InitialPopulation:    100,
		BaseCarryingCapacity: 1000,
		Events:               []EventType{ev},
		Rand:                 entropy.Seeded(1),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.AdvanceWeek()

	h := s.History()
	if len(h) != 1 {
		t.Fatalf("history length = %d, want 1", len(h))
	}
	h[0].Name = "tampered"
	if s.History()[0].Name != "storm" {
		t.Fatal("mutating the returned history changed internal state")
	}
}

func TestParametersSnapshot(t *testing.T) {
	ev := mustEvent(t, "mild winter", 1.0, 6, 12, Impacts{Birth: 1, Death: 0.85, K: 1.05})
	s, err := New(Config{
		InitialPopulation:    1000,
		BaseCarryingCapacity: 2000,
		Stochasticity:        float64p(0),
		Events:               []EventType{ev},
		Rand:                 entropy.Seeded(3),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.SetEnvironmentalFactors(FactorUpdate{K: float64p(1.1)})
	s.AdvanceWeek()

	snap := s.Parameters()
	if snap.ActiveEventName != "mild winter" {
		t.Errorf("active event = %q, want mild winter", snap.ActiveEventName)
	}
	if snap.ActiveEventWeeksLeft <= 0 {
		t.Errorf("weeks left = %d, want positive", snap.ActiveEventWeeksLeft)
	}
	if snap.ManualKFactor != 1.1 {
		t.Errorf("manual k factor = %v, want 1.1", snap.ManualKFactor)
	}
	wantK := 2000 * 1.1 * 1.05
	if math.Abs(snap.EffectiveCapacity-wantK) > 1e-9 {
		t.Errorf("effective capacity = %v, want %v", snap.EffectiveCapacity, wantK)
	}
	if math.Abs(snap.CombinedKFactor-1.1*1.05) > 1e-9 {
		t.Errorf("combined k factor = %v, want %v", snap.CombinedKFactor, 1.1*1.05)
	}
	if snap.WeekCount != 1 {
		t.Errorf("week count = %d, want 1", snap.WeekCount)
	}
}
