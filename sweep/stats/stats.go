// Package stats holds the running statistics behind the adaptive stopping
// rule: a series of samples, its mean and standard error, and the policy that
// decides when the margin of error is tight enough.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence is the two-sided confidence level used when a policy
// does not set one.
const DefaultConfidence = 0.95

// Policy is the stopping rule for one sweep point.
type Policy struct {
	MinRuns        int     // samples collected before convergence is tested (≥ 1)
	MaxRuns        int     // hard cap on samples (≥ MinRuns)
	RelativeMargin float64 // accepted margin of error as a fraction of |mean|, in (0, 1)
	Confidence     float64 // two-sided confidence level in (0, 1); 0 means DefaultConfidence
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MinRuns < 1 {
		return fmt.Errorf("min_runs must be at least 1, got %d", p.MinRuns)
	}
	if p.MaxRuns < p.MinRuns {
		return fmt.Errorf("max_runs (%d) must be >= min_runs (%d)", p.MaxRuns, p.MinRuns)
	}
	if !(p.RelativeMargin > 0 && p.RelativeMargin < 1) {
		return fmt.Errorf("relative_margin must be in (0, 1), got %v", p.RelativeMargin)
	}
	if p.Confidence != 0 && !(p.Confidence > 0 && p.Confidence < 1) {
		return fmt.Errorf("confidence must be in (0, 1), got %v", p.Confidence)
	}
	return nil
}

// Z returns the normal-distribution multiplier for the policy's confidence,
// e.g. 1.96 for 95%.
func (p Policy) Z() float64 {
	c := p.Confidence
	if c == 0 {
		c = DefaultConfidence
	}
	return distuv.UnitNormal.Quantile(1 - (1-c)/2)
}

// Series is the ordered sequence of samples of one sweep point.
type Series struct {
	samples []float64
}

// Add appends a sample.
func (s *Series) Add(v float64) { s.samples = append(s.samples, v) }

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.samples) }

// Samples returns a copy of the samples in collection order.
func (s *Series) Samples() []float64 {
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}

// Mean returns the sample mean, 0 for an empty series.
func (s *Series) Mean() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return stat.Mean(s.samples, nil)
}

// StdDev returns the sample standard deviation (n-1 denominator),
// 0 for fewer than two samples.
func (s *Series) StdDev() float64 {
	if len(s.samples) < 2 {
		return 0
	}
	return stat.StdDev(s.samples, nil)
}

// StdErr returns the standard error of the mean, StdDev/√n.
func (s *Series) StdErr() float64 {
	if len(s.samples) < 2 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(len(s.samples)))
}

// Estimate summarises a series at one instant.
type Estimate struct {
	N        int
	Mean     float64
	StdDev   float64
	StdErr   float64
	Margin   float64 // z · StdErr
	Relative float64 // Margin / |Mean|; +Inf when Mean is 0 and Margin is not
}

// Estimate computes the current estimate using multiplier z.
func (s *Series) Estimate(z float64) Estimate {
	e := Estimate{
		N:      s.Len(),
		Mean:   s.Mean(),
		StdDev: s.StdDev(),
		StdErr: s.StdErr(),
	}
	e.Margin = z * e.StdErr
	switch {
	case e.Margin == 0:
		e.Relative = 0
	case e.Mean == 0:
		e.Relative = math.Inf(1)
	default:
		e.Relative = e.Margin / math.Abs(e.Mean)
	}
	return e
}

// Converged reports whether the estimate satisfies the policy margin.
// It never reports convergence below MinRuns samples, nor below two samples
// since a single sample carries no variance estimate.
func (p Policy) Converged(e Estimate) bool {
	if e.N < p.MinRuns || e.N < 2 {
		return false
	}
	return e.Relative <= p.RelativeMargin
}
