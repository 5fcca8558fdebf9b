package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sensorfield/sensorsim/sim/export"
	"github.com/sensorfield/sensorsim/sim/scenario"
)

var (
	// CLI flags for the run command
	configPath   string  // Scenario YAML file; empty uses the built-in scenario
	seed         int64   // Seed for fence and emitter draws and sensor samplers
	horizon      float64 // Simulation horizon (time units)
	logLevel     string  // Log verbosity level
	emitterCount int     // Number of randomly timed emitters
	traceLevel   string  // Decision trace level
	exportPath   string  // SQLite database to append the run to
	showMetrics  bool    // Print the collected prometheus samples
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "sensorsim",
	Short: "Discrete-event simulator for a sensor field searching for and tracking emitters",
}

// runCmd builds the scenario from the config file and CLI flags and runs it
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a sensor-field scenario",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := scenario.DefaultConfig()
		if configPath != "" {
			cfg, err = scenario.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load scenario: %v", err)
			}
		}
		// Flags only override the file when the user set them.
		applyFlagOverrides(cmd.Flags().Changed, &cfg)

		startTime := time.Now()
		sc, err := scenario.Build(cfg)
		if err != nil {
			logrus.Fatalf("Failed to build scenario: %v", err)
		}
		res, err := sc.Run()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		printResults(cmd.OutOrStdout(), res, showMetrics)

		if exportPath != "" {
			if err := exportResults(cmd.Context(), exportPath, res); err != nil {
				logrus.Fatalf("Export failed: %v", err)
			}
			logrus.Infof("Run %s written to %s", res.RunID, exportPath)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// applyFlagOverrides copies every flag the user set onto cfg.
func applyFlagOverrides(changed func(name string) bool, cfg *scenario.Config) {
	if changed("seed") {
		cfg.Seed = seed
	}
	if changed("horizon") {
		cfg.Horizon = horizon
	}
	if changed("emitters") {
		cfg.Emitters.Count = emitterCount
	}
	if changed("trace") {
		cfg.Trace = traceLevel
	}
}

func exportResults(ctx context.Context, path string, res *scenario.Results) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := export.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.WriteResults(ctx, res)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	def := scenario.DefaultConfig()

	runCmd.Flags().StringVar(&configPath, "config", "", "Scenario YAML file (default: built-in two-sensor scenario)")
	runCmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for scenario draws and sensor samplers")
	runCmd.Flags().Float64Var(&horizon, "horizon", def.Horizon, "Simulation horizon (time units)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().IntVar(&emitterCount, "emitters", def.Emitters.Count, "Number of randomly timed emitters")
	runCmd.Flags().StringVar(&traceLevel, "trace", def.Trace, "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&exportPath, "export", "", "Append the run to this SQLite database")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print collected metric samples")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultConfigCmd)
}
