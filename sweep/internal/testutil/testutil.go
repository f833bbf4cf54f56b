// Package testutil provides shared test infrastructure for the sweep packages:
// float comparisons and throwaway shell scripts standing in for the
// measurement tool and the elevation wrapper.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// WriteScript writes an executable /bin/sh script into a temp dir and
// returns its path. Tests using it are skipped on Windows.
func WriteScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing script %s: %v", name, err)
	}
	return path
}

// FakeSudo writes a wrapper that behaves like "sudo -S": it reads one line
// of password from stdin, rejects it unless it equals password, then execs
// the remaining arguments.
func FakeSudo(t *testing.T, password string) string {
	t.Helper()
	return WriteScript(t, "sudo", `IFS= read -r pw
if [ "$pw" != "`+password+`" ]; then
  echo "sudo: 1 incorrect password attempt" >&2
  exit 1
fi
exec "$@"
`)
}

// CountingTool writes a tool script that appends one line per invocation to
// a counter file and then runs body. The counter path is returned second.
func CountingTool(t *testing.T, body string) (tool, counter string) {
	t.Helper()
	counter = filepath.Join(t.TempDir(), "calls")
	tool = WriteScript(t, "tool", `echo call >> "`+counter+`"
`+body)
	return tool, counter
}

// CountLines returns the number of lines in path, 0 if it does not exist.
func CountLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
