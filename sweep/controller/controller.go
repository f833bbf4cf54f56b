// Package controller decides how many samples a sweep point needs.
//
// A point starts in WARMUP and collects MinRuns samples unconditionally.
// It then enters SAMPLING and stops as soon as the margin of error is within
// the policy's relative margin (CONVERGED) or MaxRuns samples exist
// (EXHAUSTED). A sample whose invocation fails is retried; when the retry
// budget for one sample is spent the point is FAILED.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/inference-sim/benchsweep/sweep/args"
	"github.com/inference-sim/benchsweep/sweep/executor"
	"github.com/inference-sim/benchsweep/sweep/stats"
	"github.com/inference-sim/benchsweep/sweep/trace"
)

// State is the controller state of one sweep point.
type State string

const (
	StateWarmup    State = "WARMUP"
	StateSampling  State = "SAMPLING"
	StateConverged State = "CONVERGED"
	StateExhausted State = "EXHAUSTED"
	StateFailed    State = "FAILED"
)

// Terminal reports whether no further samples are collected in s.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateExhausted || s == StateFailed
}

// DefaultRetries is the per-sample retry budget used by the config loader.
const DefaultRetries = 2

// Sampler runs the measurement tool once. *executor.Executor implements it.
type Sampler interface {
	Run(ctx context.Context, l args.List, target string) (executor.Outcome, error)
}

// Options configures a Controller.
type Options struct {
	Policy   stats.Policy
	Retries  int           // extra attempts per sample after a failure
	Cooldown time.Duration // minimum spacing between invocation starts; 0 disables
	Reducer  stats.Reducer // folds several numbers of one invocation; "" means mean
	Trace    *trace.SweepTrace
}

// Result is the outcome of measuring one point.
type Result struct {
	State    State
	Samples  []float64
	Estimate stats.Estimate
	Attempts int            // invocations, including retries
	Failures map[string]int // failed attempts by executor status
	Reason   string         // last failure cause when FAILED
	Elapsed  time.Duration
}

// Controller drives a Sampler through the stopping rule. It is not safe for
// concurrent use.
type Controller struct {
	sampler Sampler
	opts    Options
	z       float64
	limiter *rate.Limiter
}

// New validates opts and returns a Controller.
func New(s Sampler, opts Options) (*Controller, error) {
	if s == nil {
		return nil, errors.New("controller: nil sampler")
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	if opts.Retries < 0 {
		return nil, fmt.Errorf("controller: retries must be >= 0, got %d", opts.Retries)
	}
	if !stats.IsValidReducer(string(opts.Reducer)) {
		return nil, fmt.Errorf("controller: unknown reducer %q", opts.Reducer)
	}
	c := &Controller{sampler: s, opts: opts, z: opts.Policy.Z()}
	if opts.Cooldown > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.Cooldown), 1)
	}
	return c, nil
}

// Z returns the confidence multiplier fixed for the sweep.
func (c *Controller) Z() float64 { return c.z }

// Measure samples point index with the tool flags in cmd until a terminal
// state is reached. A non-nil error is fatal for the whole sweep; the
// partial Result is still returned.
func (c *Controller) Measure(ctx context.Context, index int, cmd args.List, target string) (Result, error) {
	var (
		series  stats.Series
		res     = Result{State: StateWarmup, Failures: map[string]int{}}
		started = time.Now()
		p       = c.opts.Policy
		log     = logrus.WithFields(logrus.Fields{"point": index, "target": target})
	)
	for !res.State.Terminal() {
		v, err := c.sample(ctx, index, series.Len()+1, cmd, target, &res, log)
		if err != nil {
			res.Samples = series.Samples()
			res.Estimate = series.Estimate(c.z)
			res.Elapsed = time.Since(started)
			return res, err
		}
		if res.State == StateFailed {
			break
		}
		series.Add(v)

		n := series.Len()
		est := series.Estimate(c.z)
		switch {
		case n >= p.MinRuns && p.Converged(est):
			res.State = StateConverged
		case n >= p.MaxRuns:
			res.State = StateExhausted
		case n >= p.MinRuns:
			res.State = StateSampling
		}
		log.Debugf("sample %d = %g (mean %g, margin %g, rel %.4f) -> %s", n, v, est.Mean, est.Margin, est.Relative, res.State)
	}

	res.Samples = series.Samples()
	res.Estimate = series.Estimate(c.z)
	res.Elapsed = time.Since(started)
	return res, nil
}

// sample collects one sample, retrying failed invocations. It sets
// res.State to FAILED when the retry budget is spent.
func (c *Controller) sample(ctx context.Context, index, n int, cmd args.List, target string, res *Result, log *logrus.Entry) (float64, error) {
	for attempt := 1; attempt <= c.opts.Retries+1; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return 0, fmt.Errorf("waiting for cooldown: %w", err)
			}
		}
		res.Attempts++
		out, err := c.sampler.Run(ctx, cmd, target)
		if err != nil {
			return 0, err
		}

		rec := trace.AttemptRecord{
			Target:     target,
			PointIndex: index,
			Sample:     n,
			Attempt:    attempt,
			Status:     string(out.Status),
			Duration:   out.Duration,
			Reason:     out.Reason,
		}
		if out.OK() {
			v, rerr := c.opts.Reducer.Reduce(out.Values)
			if rerr == nil {
				rec.Value = v
				c.opts.Trace.RecordAttempt(rec)
				return v, nil
			}
			out.Status, out.Reason = executor.StatusError, rerr.Error()
			rec.Status, rec.Reason = string(out.Status), out.Reason
		}
		c.opts.Trace.RecordAttempt(rec)

		res.Failures[string(out.Status)]++
		res.Reason = out.Reason
		log.Warnf("sample %d attempt %d/%d failed: %s", n, attempt, c.opts.Retries+1, out.Reason)
	}
	res.State = StateFailed
	return 0, nil
}
