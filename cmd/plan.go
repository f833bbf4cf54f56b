package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/benchsweep/sweep/config"
	"github.com/inference-sim/benchsweep/sweep/executor"
	"github.com/inference-sim/benchsweep/sweep/space"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print every sweep point and its command line without running anything",
	Run: func(cmd *cobra.Command, args []string) {
		f, err := config.Load(configPath)
		if err != nil {
			logrus.Fatalf("Invalid sweep: %v", err)
		}
		if err := printPlan(cmd.OutOrStdout(), f, nil); err != nil {
			logrus.Fatalf("Planning failed: %v", err)
		}
	},
}

// printPlan writes one block per target listing the full argument list and
// the exact tool command line of every point.
func printPlan(w io.Writer, f *config.File, probe space.LengthProbe) error {
	spec := f.Spec()
	exec, err := executor.New(f.ExecutorOptions(executor.Credential{}))
	if err != nil {
		return err
	}
	for _, target := range f.Targets {
		if _, err := fmt.Fprintf(w, "# target %s: %d points\n", target, spec.Count()); err != nil {
			return err
		}
		ctx := space.NewContext(f.Name, target, probe)
		for p, err := range space.NewGenerator(spec, ctx).All() {
			if err != nil {
				return fmt.Errorf("target %s: %w", target, err)
			}
			if p.LineBreak && p.Index > 0 {
				fmt.Fprintln(w)
			}
			argv := exec.CommandLine(spec.Exclude.Apply(p.Args), target)
			if _, err := fmt.Fprintf(w, "%4d  %s\n      $ %s\n", p.Index, p.Args, strings.Join(argv, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	addConfigFlag(planCmd)
	rootCmd.AddCommand(planCmd)
}
