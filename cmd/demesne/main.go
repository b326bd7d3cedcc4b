// Command demesne runs a weekly-tick stochastic population simulation from a
// YAML scenario file and reports the trajectory, triggered events, and
// threshold crossings.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

var (
	scenarioFile string
	weeksFlag    int
	seedFlag     int64
	dbPath       string
	showChart    bool
	reportEvery  int
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "demesne",
		Short: "Weekly-tick stochastic population simulator",
		Long: `demesne simulates a single population week by week: density-dependent
births and deaths around a carrying capacity, random events like plagues and
good harvests, and threshold crossings for the levels you care about.

Runs are fully deterministic for a given seed. Results can optionally be
recorded to a SQLite database for later analysis.`,
		Version: version,
		PreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
		},
		RunE: runScenario,
	}

	rootCmd.Flags().StringVarP(&scenarioFile, "scenario", "c", "scenario.yaml", "Path to the scenario file")
	rootCmd.Flags().IntVarP(&weeksFlag, "weeks", "w", 0, "Override the number of weeks to simulate")
	rootCmd.Flags().Int64VarP(&seedFlag, "seed", "s", 0, "Override the scenario's random seed")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Record the run to a SQLite database at this path")
	rootCmd.Flags().BoolVar(&showChart, "chart", true, "Render an ASCII population chart")
	rootCmd.Flags().IntVar(&reportEvery, "report-every", 0, "Override the report interval in weeks")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log event triggers and interventions")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
