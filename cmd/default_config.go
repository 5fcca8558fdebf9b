package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sensorfield/sensorsim/sim/scenario"
)

// defaultConfigCmd prints the built-in scenario as YAML, as a starting
// point for a --config file.
var defaultConfigCmd = &cobra.Command{
	Use:   "default-config",
	Short: "Print the built-in scenario as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaultConfig(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Failed to write default scenario: %v", err)
		}
	},
}

func writeDefaultConfig(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(scenario.DefaultConfig()); err != nil {
		return err
	}
	return enc.Close()
}
