package space

import (
	"fmt"
	"io"
	"os"
)

// LengthProbe reports the size in bytes of a benchmark target.
type LengthProbe interface {
	Length(target string) (int64, error)
}

// FileLengthProbe measures a regular file or block device by seeking to its end.
type FileLengthProbe struct{}

// Length implements LengthProbe.
func (FileLengthProbe) Length(target string) (int64, error) {
	f, err := os.Open(target)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", target, err)
	}
	defer func() { _ = f.Close() }()
	n, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seeking %s: %w", target, err)
	}
	return n, nil
}

// Context is the per-target state shared by every setup invocation.
// It replaces ad hoc globals: the device length is probed at most once and
// reused by every point of the same target.
//
// Thread-safety: NOT thread-safe. Points are generated from one goroutine.
type Context struct {
	Sweep  string
	Target string

	probe    LengthProbe
	probed   bool
	length   int64
	probeErr error
}

// NewContext creates a Context for one target of one sweep.
// A nil probe falls back to FileLengthProbe.
func NewContext(sweep, target string, probe LengthProbe) *Context {
	if probe == nil {
		probe = FileLengthProbe{}
	}
	return &Context{Sweep: sweep, Target: target, probe: probe}
}

// DeviceLength returns the target length, probing on first use.
func (c *Context) DeviceLength() (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("no sweep context")
	}
	if !c.probed {
		c.length, c.probeErr = c.probe.Length(c.Target)
		c.probed = true
	}
	return c.length, c.probeErr
}
