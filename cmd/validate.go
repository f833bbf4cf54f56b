package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/benchsweep/sweep/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a sweep file without running it",
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateConfig(cmd.OutOrStdout(), configPath); err != nil {
			logrus.Fatalf("Invalid sweep: %v", err)
		}
	},
}

// validateConfig loads path and prints a one-line summary.
func validateConfig(w io.Writer, path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	spec := f.Spec()
	_, err = fmt.Fprintf(w, "%s: %d dimensions, %d points per target, %d targets\n",
		f.Name, len(spec.Dimensions), spec.Count(), len(f.Targets))
	return err
}

func init() {
	addConfigFlag(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
