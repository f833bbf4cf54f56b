package config

import (
	"fmt"
	"math"

	"github.com/agnivade/levenshtein"

	"github.com/inference-sim/benchsweep/sweep/stats"
)

// Validate checks every field and the resulting parameter space. Errors are
// prefixed with the offending field path; parameter space problems are
// returned as *space.ConfigError.
func (f *File) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	for _, r := range f.Name {
		if r == '/' || r == '\\' || r == 0 {
			return fmt.Errorf("name %q must not contain path separators", f.Name)
		}
	}
	if f.Tool == "" {
		return fmt.Errorf("tool is required")
	}
	if len(f.Targets) == 0 {
		return fmt.Errorf("targets: at least one target required")
	}
	for i, t := range f.Targets {
		if t == "" {
			return fmt.Errorf("targets[%d]: empty target", i)
		}
	}
	if len(f.Elevate) > 0 && f.Elevate[0] == "" {
		return fmt.Errorf("elevate[0]: empty command")
	}
	if f.Duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %s", f.Duration)
	}
	if f.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s", f.Timeout)
	}
	if f.Cooldown < 0 {
		return fmt.Errorf("cooldown must be non-negative, got %s", f.Cooldown)
	}
	if f.Retries != nil && *f.Retries < 0 {
		return fmt.Errorf("retries must be non-negative, got %d", *f.Retries)
	}
	if !stats.IsValidReducer(f.Reduce) {
		return fmt.Errorf("unknown reduce %q; valid: mean, first, last, sum, min, max", f.Reduce)
	}
	if err := validatePolicy(f.Policy); err != nil {
		return err
	}
	for i, a := range f.BaseArgs {
		if a.Name == "" {
			return fmt.Errorf("base_args[%d]: empty name", i)
		}
	}
	for i, p := range f.Exclude {
		if p == "" {
			return fmt.Errorf("exclude[%d]: empty pattern", i)
		}
	}
	for i, d := range f.Dimensions {
		if d.Setup != nil {
			if err := d.Setup.validate(fmt.Sprintf("dimensions[%d].setup", i)); err != nil {
				return err
			}
		}
	}
	return f.Spec().Validate()
}

func validatePolicy(p PolicySpec) error {
	for name, v := range map[string]float64{"relative_margin": p.RelativeMargin, "confidence": p.Confidence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("policy.%s must be a finite number, got %f", name, v)
		}
	}
	if err := p.Policy().Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	return nil
}

// closest returns the candidate within edit distance 2 of name, if any.
func closest(name string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
