package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/benchsweep/sweep/controller"
	"github.com/inference-sim/benchsweep/sweep/stats"
)

// LogFileName returns the log file name for a sweep started at t.
func LogFileName(name string, t time.Time) string {
	return "stats-" + name + "-" + t.Format("2006-01-02.15-04-05")
}

// LogSink writes a human-readable, append-only text log. Every entry is
// written straight to the file so an interrupted sweep leaves a readable
// prefix.
type LogSink struct {
	dir  string
	path string
	w    io.WriteCloser
}

// NewLogSink returns a sink writing into dir. The file is created by Start.
func NewLogSink(dir string) *LogSink {
	if dir == "" {
		dir = "."
	}
	return &LogSink{dir: dir}
}

// Path returns the log file path, empty before Start.
func (s *LogSink) Path() string { return s.path }

func (s *LogSink) Start(info RunInfo) error {
	if s.w != nil {
		return fmt.Errorf("log sink already started")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	s.path = filepath.Join(s.dir, LogFileName(info.Name, info.Started))
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	s.w = f
	logrus.Infof("Writing results to %s", s.path)

	p := info.Policy
	return s.printf("# benchsweep run %s\n"+
		"# sweep: %s\n"+
		"# started: %s\n"+
		"# policy: min_runs=%d max_runs=%d relative_margin=%g confidence=%g z=%.4f\n"+
		"# targets: %s\n"+
		"# points: %d per target\n",
		info.ID, info.Name, info.Started.Format(time.RFC3339), p.MinRuns, p.MaxRuns,
		p.RelativeMargin, confidenceOf(p.Confidence), info.Z, strings.Join(info.Targets, " "), info.Points)
}

func (s *LogSink) Record(r Record) error {
	if s.w == nil {
		return fmt.Errorf("log sink not started")
	}
	if r.LineBreak {
		if err := s.printf("\n"); err != nil {
			return err
		}
	}
	return s.printf("%s\n", FormatEntry(r))
}

// FormatEntry renders one point as a single key=value line.
func FormatEntry(r Record) string {
	res := r.Result
	var b strings.Builder
	fmt.Fprintf(&b, "%-9s point=%d target=%s runs=%d", res.State, r.Index, r.Target, len(res.Samples))
	if res.State != controller.StateFailed {
		fmt.Fprintf(&b, " mean=%g stddev=%g margin=%g rel=%.4f",
			res.Estimate.Mean, res.Estimate.StdDev, res.Estimate.Margin, res.Estimate.Relative)
	}
	fmt.Fprintf(&b, " attempts=%d args=%q cmd=%q", res.Attempts, r.Args.String(), strings.Join(r.Cmd.Flags(), " "))
	if res.State == controller.StateFailed && res.Reason != "" {
		fmt.Fprintf(&b, " reason=%q", res.Reason)
	}
	return b.String()
}

func (s *LogSink) Finish(t Totals) error {
	if s.w == nil {
		return nil
	}
	status := "complete"
	if t.Aborted != nil {
		status = "aborted: " + t.Aborted.Error()
	}
	return s.printf("\n# finished: %s\n# points=%d converged=%d exhausted=%d failed=%d attempts=%d elapsed=%s\n",
		status, t.Points, t.Converged, t.Exhausted, t.Failed, t.Attempts, t.Elapsed.Round(time.Millisecond))
}

func (s *LogSink) Close() error {
	if s.w == nil {
		return nil
	}
	err := s.w.Close()
	s.w = nil
	return err
}

func (s *LogSink) printf(format string, a ...any) error {
	if _, err := fmt.Fprintf(s.w, format, a...); err != nil {
		return fmt.Errorf("writing log file: %w", err)
	}
	return nil
}

func confidenceOf(c float64) float64 {
	if c == 0 {
		return stats.DefaultConfidence
	}
	return c
}
