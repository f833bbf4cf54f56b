// Package report persists the outcome of every sweep point. All sinks share
// one lifecycle: Start once, Record once per point, Finish once, Close.
package report

import (
	"errors"
	"time"

	"github.com/inference-sim/benchsweep/sweep/args"
	"github.com/inference-sim/benchsweep/sweep/controller"
	"github.com/inference-sim/benchsweep/sweep/stats"
)

// RunInfo describes a sweep at start time.
type RunInfo struct {
	ID      string // uuid
	Name    string
	Policy  stats.Policy
	Z       float64
	Targets []string
	Points  int // per target
	Started time.Time
}

// Record is one finished sweep point.
type Record struct {
	Seq       int // position across all targets, 0-based
	Index     int // point index within its target
	Target    string
	Args      args.List // unfiltered, including excluded names
	Cmd       args.List // what reached the tool
	LineBreak bool
	Result    controller.Result
}

// Totals summarises a finished sweep.
type Totals struct {
	Points    int
	Converged int
	Exhausted int
	Failed    int
	Attempts  int
	Elapsed   time.Duration
	Aborted   error // fatal error that ended the sweep early, nil otherwise
}

// Add accounts for one record.
func (t *Totals) Add(r Record) {
	t.Points++
	t.Attempts += r.Result.Attempts
	switch r.Result.State {
	case controller.StateConverged:
		t.Converged++
	case controller.StateExhausted:
		t.Exhausted++
	case controller.StateFailed:
		t.Failed++
	}
}

// Sink receives sweep results. Implementations have a single writer.
type Sink interface {
	Start(info RunInfo) error
	Record(r Record) error
	Finish(t Totals) error
	Close() error
}

// Multi fans every call out to each sink in order. Errors are joined; a
// failing sink does not stop the others.
type Multi []Sink

func (m Multi) Start(info RunInfo) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Start(info))
	}
	return errors.Join(errs...)
}

func (m Multi) Record(r Record) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Record(r))
	}
	return errors.Join(errs...)
}

func (m Multi) Finish(t Totals) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Finish(t))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
