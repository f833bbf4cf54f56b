// Package executor runs the external measurement tool behind an elevation
// wrapper and turns its stdout into numeric samples.
//
// One call to Run is one tool invocation. Recoverable problems (non-zero
// exit, no numeric output, timeout) are reported in the returned Outcome.
// The error return is reserved for failures that make every later
// invocation pointless: the binary cannot be spawned, elevation is refused,
// or the caller cancelled.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/benchsweep/sweep/args"
)

var (
	// ErrSpawn means the tool or the elevation wrapper could not be started.
	ErrSpawn = errors.New("cannot spawn measurement tool")
	// ErrElevationRefused means the elevation wrapper rejected the credential
	// or the account.
	ErrElevationRefused = errors.New("privilege elevation refused")
)

// Status classifies an invocation.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// DefaultGrace is how long a terminated tool may take to exit before it is
// killed.
const DefaultGrace = 5 * time.Second

const maxStderr = 4096

// Options configures an Executor.
type Options struct {
	Tool       string        // measurement binary
	Elevate    []string      // wrapper prefix, e.g. sudo -S -p ""; empty runs the tool directly
	Credential Credential    // written to stdin when Elevate is set
	Timeout    time.Duration // per invocation; 0 disables
	Grace      time.Duration // SIGTERM to SIGKILL delay; 0 means DefaultGrace
}

// Outcome is the result of one invocation.
type Outcome struct {
	Values   []float64 // numeric stdout lines in order
	Status   Status
	Reason   string // human readable failure cause, empty when OK
	ExitCode int
	Stderr   string // truncated
	Chatter  int    // non-numeric stdout lines ignored
	Duration time.Duration
}

// OK reports whether the invocation produced usable samples.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Executor spawns the measurement tool. It holds no per-invocation state and
// is used from a single goroutine.
type Executor struct {
	opts Options
}

// New validates opts and returns an Executor.
func New(opts Options) (*Executor, error) {
	if opts.Tool == "" {
		return nil, fmt.Errorf("%w: no tool configured", ErrSpawn)
	}
	if len(opts.Elevate) > 0 && opts.Elevate[0] == "" {
		return nil, fmt.Errorf("%w: empty elevation command", ErrSpawn)
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	return &Executor{opts: opts}, nil
}

// CommandLine returns the argv for one invocation, without the credential.
func (e *Executor) CommandLine(l args.List, target string) []string {
	argv := make([]string, 0, len(e.opts.Elevate)+2+2*l.Len())
	argv = append(argv, e.opts.Elevate...)
	argv = append(argv, e.opts.Tool)
	argv = append(argv, l.Flags()...)
	if target != "" {
		argv = append(argv, target)
	}
	return argv
}

// Run invokes the tool once with the flags of l and the given target.
func (e *Executor) Run(ctx context.Context, l args.List, target string) (Outcome, error) {
	argv := e.CommandLine(l, target)
	log := logrus.WithFields(logrus.Fields{"tool": e.opts.Tool, "target": target})

	runCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	configureProcess(cmd)
	cmd.WaitDelay = e.opts.Grace
	if len(e.opts.Elevate) > 0 && !e.opts.Credential.IsZero() {
		cmd.Stdin = e.opts.Credential.stdin()
	}

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW

	var (
		out     Outcome
		stderr  strings.Builder
		g       errgroup.Group
		started = time.Now()
	)
	g.Go(func() error {
		values, chatter, err := parseSamples(outR, log)
		out.Values, out.Chatter = values, chatter
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&limitedWriter{w: &stderr, n: maxStderr}, errR)
		return err
	})

	if err := cmd.Start(); err != nil {
		_ = outW.Close()
		_ = errW.Close()
		_ = g.Wait()
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrSpawn, argv[0], err)
	}
	log.Debugf("started pid %d", cmd.Process.Pid)

	waitErr := cmd.Wait()
	_ = outW.Close()
	_ = errW.Close()
	if err := g.Wait(); err != nil {
		log.Warnf("reading tool output: %v", err)
	}
	out.Duration = time.Since(started)
	out.Stderr = stderr.String()

	if ctx.Err() != nil {
		return out, fmt.Errorf("invocation cancelled: %w", ctx.Err())
	}
	if timedOut(runCtx, waitErr) {
		out.Status = StatusTimeout
		out.Reason = fmt.Sprintf("timed out after %s", e.opts.Timeout)
		out.ExitCode = -1
		return out, nil
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return out, fmt.Errorf("%w: %s: %v", ErrSpawn, argv[0], waitErr)
		}
		out.ExitCode = exitErr.ExitCode()
		if len(e.opts.Elevate) > 0 {
			wrapper := filepath.Base(e.opts.Elevate[0])
			if msg, refused := elevationRefused(wrapper, out.Stderr); refused {
				return out, fmt.Errorf("%w: %s", ErrElevationRefused, msg)
			}
			if msg, missing := wrappedSpawnFailure(wrapper, out.Stderr); missing {
				return out, fmt.Errorf("%w: %s", ErrSpawn, msg)
			}
		}
		out.Status = StatusError
		out.Reason = fmt.Sprintf("exit status %d", out.ExitCode)
		return out, nil
	}

	if len(out.Values) == 0 {
		out.Status = StatusError
		out.Reason = "no numeric output"
		return out, nil
	}
	out.Status = StatusOK
	return out, nil
}

// parseSamples reads r to EOF. Lines holding exactly one finite number are
// samples; everything else is tool chatter.
func parseSamples(r io.Reader, log *logrus.Entry) ([]float64, int, error) {
	var (
		values  []float64
		chatter int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			chatter++
			log.Debugf("tool: %s", line)
			continue
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		// keep the writer unblocked so the process can exit
		_, _ = io.Copy(io.Discard, r)
		return values, chatter, err
	}
	return values, chatter, nil
}

// timedOut reports whether the invocation failed because its own deadline
// fired. A clean exit that races the deadline keeps its samples.
func timedOut(runCtx context.Context, waitErr error) bool {
	return waitErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded)
}

var refusalMarkers = []string{
	"incorrect password attempt",
	"is not in the sudoers file",
	"a password is required",
	"a terminal is required",
	"Authentication failure",
}

var spawnMarkers = []string{"command not found", "Permission denied", "unable to execute"}

func elevationRefused(wrapper, stderr string) (string, bool) {
	return wrapperLine(wrapper, stderr, refusalMarkers)
}

func wrappedSpawnFailure(wrapper, stderr string) (string, bool) {
	return wrapperLine(wrapper, stderr, spawnMarkers)
}

// wrapperLine finds the first stderr line written by the wrapper itself
// ("sudo: ...") that carries one of markers. Lines from the tool are ignored.
func wrapperLine(wrapper, stderr string, markers []string) (string, bool) {
	prefix := wrapper + ":"
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		for _, m := range markers {
			if strings.Contains(line, m) {
				return line, true
			}
		}
	}
	return "", false
}

// limitedWriter keeps the first n bytes and discards the rest.
type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n > 0 {
		k := len(p)
		if k > l.n {
			k = l.n
		}
		if _, err := l.w.Write(p[:k]); err != nil {
			return 0, err
		}
		l.n -= k
	}
	return len(p), nil
}
