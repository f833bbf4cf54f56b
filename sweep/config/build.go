package config

import (
	"strconv"

	"github.com/inference-sim/benchsweep/sweep/args"
	"github.com/inference-sim/benchsweep/sweep/controller"
	"github.com/inference-sim/benchsweep/sweep/executor"
	"github.com/inference-sim/benchsweep/sweep/space"
	"github.com/inference-sim/benchsweep/sweep/stats"
)

// DurationArg is the base argument carrying the per-invocation duration in
// whole seconds when the file sets duration and no base argument of that
// name exists.
const DurationArg = "duration"

// Policy converts the YAML policy.
func (p PolicySpec) Policy() stats.Policy {
	return stats.Policy{
		MinRuns:        p.MinRuns,
		MaxRuns:        p.MaxRuns,
		RelativeMargin: p.RelativeMargin,
		Confidence:     p.Confidence,
	}
}

// Spec builds the parameter space. Setups must have been validated.
func (f *File) Spec() *space.Spec {
	base := args.List{}
	for _, a := range f.BaseArgs {
		base = args.Set(base, a.Name, a.Value)
	}
	if _, ok := args.Get(base, DurationArg); !ok && f.Duration > 0 {
		base = args.Set(base, DurationArg, strconv.FormatInt(int64(f.Duration.Seconds()), 10))
	}
	dims := make([]space.Dimension, len(f.Dimensions))
	for i, d := range f.Dimensions {
		dims[i] = space.Dimension{Name: d.Name, Values: d.Values, LineBreak: d.LineBreak}
		if d.Setup != nil {
			dims[i].Setup = d.Setup.build()
		}
	}
	return &space.Spec{
		Base:       base,
		Dimensions: dims,
		Exclude:    space.Exclusions(f.Exclude),
	}
}

// ExecutorOptions returns the executor settings. The credential is supplied
// separately by the caller.
func (f *File) ExecutorOptions(cred executor.Credential) executor.Options {
	return executor.Options{
		Tool:       f.Tool,
		Elevate:    f.Elevate,
		Credential: cred,
		Timeout:    f.Timeout,
	}
}

// ControllerOptions returns the stopping rule and retry settings.
func (f *File) ControllerOptions() controller.Options {
	retries := controller.DefaultRetries
	if f.Retries != nil {
		retries = *f.Retries
	}
	return controller.Options{
		Policy:   f.Policy.Policy(),
		Retries:  retries,
		Cooldown: f.Cooldown,
		Reducer:  stats.Reducer(f.Reduce),
	}
}
