package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/demesne/internal/chart"
	"github.com/talgya/demesne/internal/climate"
	"github.com/talgya/demesne/internal/config"
	"github.com/talgya/demesne/internal/entropy"
	"github.com/talgya/demesne/internal/persistence"
	"github.com/talgya/demesne/internal/sim"
)

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := config.Load(scenarioFile)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	if weeksFlag > 0 {
		scenario.Weeks = weeksFlag
	}
	if cmd.Flags().Changed("seed") {
		scenario.Seed = seedFlag
	}
	if reportEvery > 0 {
		scenario.ReportEvery = reportEvery
	}

	simulator, err := buildSimulator(scenario)
	if err != nil {
		return err
	}

	fmt.Printf("Scenario %s: %s population, capacity %s, %d weeks, seed %d\n\n",
		scenarioFile,
		humanize.CommafWithDigits(scenario.InitialPopulation, 0),
		humanize.CommafWithDigits(scenario.BaseCarryingCapacity, 0),
		scenario.Weeks, scenario.Seed)

	result := run(simulator, scenario)

	if showChart {
		gen := chart.NewGenerator()
		fmt.Println(gen.PopulationChart(result.points, simulator.Thresholds()))
		fmt.Println(gen.EventSummary(simulator.History()))
	}

	printFinalSnapshot(simulator)

	if dbPath != "" {
		if err := record(dbPath, scenario, simulator, result); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	return nil
}

// buildSimulator assembles the engine configuration from a validated scenario.
func buildSimulator(scenario *config.Scenario) (*sim.Simulator, error) {
	events := make([]sim.EventType, 0, len(scenario.Events))
	for _, ev := range scenario.Events {
		et, err := sim.NewEventType(ev.Name, ev.Probability, ev.MinWeeks, ev.MaxWeeks, sim.Impacts{
			Birth: impactOr(ev.BirthImpact),
			Death: impactOr(ev.DeathImpact),
			K:     impactOr(ev.KImpact),
		})
		if err != nil {
			return nil, err
		}
		events = append(events, et)
	}

	thresholds := make([]sim.Threshold, 0, len(scenario.Thresholds))
	for _, t := range scenario.Thresholds {
		thresholds = append(thresholds, sim.Threshold{
			Value:   t.Value,
			Rising:  t.Rising,
			Falling: t.Falling,
		})
	}

	return sim.New(sim.Config{
		InitialPopulation:    scenario.InitialPopulation,
		BaseCarryingCapacity: scenario.BaseCarryingCapacity,
		BirthRate:            scenario.BirthRate,
		DeathRate:            scenario.DeathRate,
		BirthDensityExponent: scenario.BirthDensityExponent,
		DeathDensityExponent: scenario.DeathDensityExponent,
		Stochasticity:        scenario.Stochasticity,
		Events:               events,
		Thresholds:           thresholds,
		Rand:                 entropy.Seeded(scenario.Seed),
	})
}

func impactOr(v *float64) float64 {
	if v != nil {
		return *v
	}
	return 1.0
}

// runResult collects everything the reporting and recording steps need.
type runResult struct {
	points    []chart.Point
	samples   []persistence.Sample
	crossings []persistence.Crossing
}

// run drives the simulation week by week, applying scheduled interventions
// and climate forcing before each tick.
func run(simulator *sim.Simulator, scenario *config.Scenario) runResult {
	byWeek := make(map[int][]config.Intervention)
	for _, iv := range scenario.Interventions {
		byWeek[iv.Week] = append(byWeek[iv.Week], iv)
	}

	var forcing *climate.Forcing
	if scenario.Climate != nil {
		seed := scenario.Seed
		if scenario.Climate.Seed != nil {
			seed = *scenario.Climate.Seed
		}
		forcing = climate.New(seed, scenario.Climate.Amplitude, scenario.Climate.Wavelength)
	}

	reportEvery := scenario.ReportEvery
	if reportEvery <= 0 {
		reportEvery = config.DefaultReportEvery
	}

	// Manual factors as set by interventions; climate forcing multiplies on top.
	manualBirth, manualDeath, manualK := 1.0, 1.0, 1.0

	var result runResult

	for week := 1; week <= scenario.Weeks; week++ {
		changed := false
		for _, iv := range byWeek[week] {
			if iv.BirthFactor != nil {
				manualBirth = *iv.BirthFactor
			}
			if iv.DeathFactor != nil {
				manualDeath = *iv.DeathFactor
			}
			if iv.KFactor != nil {
				manualK = *iv.KFactor
			}
			changed = true
			slog.Info("intervention applied",
				"week", week,
				"birth_factor", manualBirth,
				"death_factor", manualDeath,
				"k_factor", manualK,
			)
		}

		if forcing != nil {
			fb, fd, fk := forcing.Factors(week)
			simulator.SetEnvironmentalFactors(sim.FactorUpdate{
				Birth: ptr(manualBirth * fb),
				Death: ptr(manualDeath * fd),
				K:     ptr(manualK * fk),
			})
		} else if changed {
			simulator.SetEnvironmentalFactors(sim.FactorUpdate{
				Birth: ptr(manualBirth),
				Death: ptr(manualDeath),
				K:     ptr(manualK),
			})
		}

		prev := simulator.Population()
		pop, labels := simulator.AdvanceWeek()

		activeName := ""
		if name, _, ok := simulator.ActiveEvent(); ok {
			activeName = name
		}

		result.points = append(result.points, chart.Point{Week: week, Population: pop})
		result.samples = append(result.samples, persistence.Sample{
			Week:        week,
			Population:  pop,
			Capacity:    simulator.CurrentCarryingCapacity(),
			ActiveEvent: activeName,
		})

		for _, label := range labels {
			result.crossings = append(result.crossings, persistence.Crossing{
				Week:       week,
				Label:      label,
				Population: pop,
			})
			fmt.Printf("Week %d: threshold crossed — %s (population %s)\n",
				week, label, humanize.CommafWithDigits(pop, 2))
		}

		if week == 1 || week%reportEvery == 0 || len(labels) > 0 {
			printWeekReport(week, prev, pop, simulator)
		}

		if pop == 0 {
			fmt.Printf("\nPopulation reached 0 at week %d. Simulation ended.\n", week)
			break
		}
	}

	return result
}

func ptr(v float64) *float64 { return &v }

func printWeekReport(week int, prev, pop float64, simulator *sim.Simulator) {
	line := fmt.Sprintf("Week %-4d  population %s -> %s  capacity %s",
		week,
		humanize.CommafWithDigits(prev, 1),
		humanize.CommafWithDigits(pop, 1),
		humanize.CommafWithDigits(simulator.CurrentCarryingCapacity(), 1))
	if name, left, ok := simulator.ActiveEvent(); ok {
		line += fmt.Sprintf("  [%s, %d weeks left]", name, left)
	}
	fmt.Println(line)
}

func printFinalSnapshot(simulator *sim.Simulator) {
	snap := simulator.Parameters()
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		slog.Error("failed to marshal snapshot", "error", err)
		return
	}
	fmt.Printf("\nFinal parameters:\n%s\n", out)
}

func record(path string, scenario *config.Scenario, simulator *sim.Simulator, result runResult) error {
	db, err := persistence.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.CreateRun(scenario.Seed, scenario.Weeks, scenario)
	if err != nil {
		return err
	}
	if err := db.SaveSamples(runID, result.samples); err != nil {
		return err
	}
	if err := db.SaveEventHistory(runID, simulator.History()); err != nil {
		return err
	}
	if err := db.SaveCrossings(runID, result.crossings); err != nil {
		return err
	}

	slog.Info("run recorded", "run_id", runID, "path", path, "samples", len(result.samples))
	fmt.Printf("\nRun recorded as %s in %s\n", runID, path)
	return nil
}
