// Package sweep runs a benchmark sweep end to end: for every target it
// expands the parameter space, strips excluded names, lets the controller
// sample each point until the stopping rule is met and streams the outcome
// to the configured sinks.
//
// Error taxonomy:
//   - *space.ConfigError: the declaration cannot run; returned before any
//     tool invocation.
//   - executor.ErrSpawn, executor.ErrElevationRefused, context errors: fatal,
//     the sweep stops after the current invocation is terminated.
//   - sample failures: absorbed by the controller; the point is FAILED.
//   - ErrAllPointsFailed: every point failed.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/benchsweep/sweep/controller"
	"github.com/inference-sim/benchsweep/sweep/report"
	"github.com/inference-sim/benchsweep/sweep/space"
)

// ErrAllPointsFailed is returned when no point produced a result.
var ErrAllPointsFailed = errors.New("every sweep point failed")

// Options configures a Sweep.
type Options struct {
	Name       string
	Targets    []string
	Spec       *space.Spec
	Sampler    controller.Sampler
	Controller controller.Options
	Probe      space.LengthProbe // nil means space.FileLengthProbe
	Sinks      []report.Sink
	RunID      string           // empty means a fresh uuid
	Now        func() time.Time // nil means time.Now
}

// Summary describes a finished or aborted sweep.
type Summary struct {
	RunID  string
	Totals report.Totals
}

// Sweep is a configured, runnable sweep.
type Sweep struct {
	opts     Options
	contexts map[string]*space.Context
}

// New returns a Sweep. Options are checked by Run.
func New(opts Options) *Sweep {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Sweep{opts: opts, contexts: make(map[string]*space.Context)}
}

// Preflight validates the declaration and expands every target once without
// running anything, so that setup failures such as an unreadable device
// surface before the first invocation.
func (s *Sweep) Preflight() error {
	if s.opts.Spec == nil {
		return &space.ConfigError{Reason: "no sweep specification"}
	}
	if len(s.opts.Targets) == 0 {
		return &space.ConfigError{Reason: "no targets"}
	}
	if err := s.opts.Spec.Validate(); err != nil {
		return err
	}
	for _, target := range s.opts.Targets {
		for _, err := range s.Points(target) {
			if err != nil {
				return fmt.Errorf("target %s: %w", target, err)
			}
		}
	}
	return nil
}

// Points returns the lazy point sequence of one target. Every sequence of
// the same target shares one space.Context, so the target is probed once.
func (s *Sweep) Points(target string) iter.Seq2[space.Point, error] {
	return space.NewGenerator(s.opts.Spec, s.targetContext(target)).All()
}

func (s *Sweep) targetContext(target string) *space.Context {
	c, ok := s.contexts[target]
	if !ok {
		c = space.NewContext(s.opts.Name, target, s.opts.Probe)
		s.contexts[target] = c
	}
	return c
}

// Run executes the sweep. The returned Summary is valid even on error.
func (s *Sweep) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: s.opts.RunID}
	sinks := report.Multi(s.opts.Sinks)
	if err := s.Preflight(); err != nil {
		_ = sinks.Close()
		return sum, err
	}
	ctl, err := controller.New(s.opts.Sampler, s.opts.Controller)
	if err != nil {
		_ = sinks.Close()
		return sum, err
	}

	started := s.opts.Now()
	info := report.RunInfo{
		ID:      s.opts.RunID,
		Name:    s.opts.Name,
		Policy:  s.opts.Controller.Policy,
		Z:       ctl.Z(),
		Targets: s.opts.Targets,
		Points:  s.opts.Spec.Count(),
		Started: started,
	}
	if err := sinks.Start(info); err != nil {
		_ = sinks.Close()
		return sum, fmt.Errorf("starting result sinks: %w", err)
	}
	logrus.Infof("Sweep %s (run %s): %d points x %d targets, z=%.3f",
		s.opts.Name, s.opts.RunID, info.Points, len(s.opts.Targets), info.Z)

	runErr := s.runTargets(ctx, ctl, sinks, &sum.Totals, info.Points)
	sum.Totals.Elapsed = time.Since(started)
	sum.Totals.Aborted = runErr

	finishErr := sinks.Finish(sum.Totals)
	closeErr := sinks.Close()
	if runErr != nil {
		return sum, runErr
	}
	if err := errors.Join(finishErr, closeErr); err != nil {
		return sum, fmt.Errorf("closing result sinks: %w", err)
	}
	if sum.Totals.Points > 0 && sum.Totals.Failed == sum.Totals.Points {
		return sum, ErrAllPointsFailed
	}
	logrus.Infof("Sweep %s finished: converged=%d exhausted=%d failed=%d in %s",
		s.opts.Name, sum.Totals.Converged, sum.Totals.Exhausted, sum.Totals.Failed, sum.Totals.Elapsed.Round(time.Second))
	return sum, nil
}

func (s *Sweep) runTargets(ctx context.Context, ctl *controller.Controller, sinks report.Sink, totals *report.Totals, perTarget int) error {
	seq := 0
	for _, target := range s.opts.Targets {
		for p, err := range s.Points(target) {
			if err != nil {
				return fmt.Errorf("target %s: %w", target, err)
			}
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("sweep cancelled: %w", err)
			}
			cmd := s.opts.Spec.Exclude.Apply(p.Args)
			log := logrus.WithFields(logrus.Fields{"target": target, "point": fmt.Sprintf("%d/%d", p.Index+1, perTarget)})
			log.Infof("Measuring %s", p.Args)

			res, err := ctl.Measure(ctx, p.Index, cmd, target)
			if err != nil {
				return fmt.Errorf("target %s point %d (%s): %w", target, p.Index, p.Args, err)
			}
			rec := report.Record{
				Seq:       seq,
				Index:     p.Index,
				Target:    target,
				Args:      p.Args,
				Cmd:       cmd,
				LineBreak: p.LineBreak,
				Result:    res,
			}
			seq++
			totals.Add(rec)
			if err := sinks.Record(rec); err != nil {
				return fmt.Errorf("recording point %d: %w", p.Index, err)
			}

			if res.State == controller.StateFailed {
				log.Warnf("Point FAILED after %d attempts: %s", res.Attempts, res.Reason)
			} else {
				log.Infof("%s after %d samples: mean=%g margin=%g (%.2f%%)",
					res.State, len(res.Samples), res.Estimate.Mean, res.Estimate.Margin, 100*res.Estimate.Relative)
			}
		}
	}
	return nil
}
