package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/benchsweep/sweep/args"
	"github.com/inference-sim/benchsweep/sweep/controller"
	"github.com/inference-sim/benchsweep/sweep/stats"
)

var started = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func info() RunInfo {
	return RunInfo{
		ID:      "run-1",
		Name:    "nvme",
		Policy:  stats.Policy{MinRuns: 3, MaxRuns: 10, RelativeMargin: 0.05},
		Z:       1.96,
		Targets: []string{"/dev/nvme0n1"},
		Points:  2,
		Started: started,
	}
}

func record(seq int, state controller.State, lineBreak bool) Record {
	full := args.New(args.Arg{Name: "bs", Value: "4k"}, args.Arg{Name: "toggle", Value: "on"})
	res := controller.Result{State: state, Attempts: 3, Failures: map[string]int{}}
	if state == controller.StateFailed {
		res.Reason = "exit status 1"
		res.Failures["error"] = 3
	} else {
		res.Samples = []float64{10, 10, 10}
		res.Estimate = stats.Estimate{N: 3, Mean: 10}
	}
	return Record{
		Seq:       seq,
		Index:     seq,
		Target:    "/dev/nvme0n1",
		Args:      full,
		Cmd:       args.Del(full, "toggle"),
		LineBreak: lineBreak,
		Result:    res,
	}
}

func TestLogFileName(t *testing.T) {
	assert.Equal(t, "stats-nvme-2026-03-04.05-06-07", LogFileName("nvme", started))
}

func TestLogSink_WritesHeaderEntriesFooter(t *testing.T) {
	// GIVEN a log sink in a temp dir
	dir := t.TempDir()
	s := NewLogSink(dir)

	// WHEN a sweep with a line-break point is recorded
	require.NoError(t, s.Start(info()))
	require.NoError(t, s.Record(record(0, controller.StateConverged, true)))
	require.NoError(t, s.Record(record(1, controller.StateFailed, false)))
	require.NoError(t, s.Record(record(2, controller.StateExhausted, true)))
	require.NoError(t, s.Finish(Totals{Points: 3, Converged: 1, Failed: 1, Exhausted: 1}))
	require.NoError(t, s.Close())

	// THEN the file has the fixed name and the expected layout
	assert.Equal(t, filepath.Join(dir, "stats-nvme-2026-03-04.05-06-07"), s.Path())
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# benchsweep run run-1")
	assert.Contains(t, text, "confidence=0.95")
	assert.Contains(t, text, "# points=3 converged=1 exhausted=1 failed=1")

	lines := strings.Split(text, "\n")
	var entries []int
	for i, l := range lines {
		if strings.Contains(l, " point=") {
			entries = append(entries, i)
		}
	}
	require.Len(t, entries, 3)
	assert.Equal(t, "", lines[entries[0]-1], "line-break entry is preceded by a blank line")
	assert.NotEqual(t, "", lines[entries[1]-1])
	assert.Equal(t, "", lines[entries[2]-1])
	assert.Contains(t, lines[entries[1]], `reason="exit status 1"`)
}

func TestFormatEntry_ExcludedNameOnlyInArgs(t *testing.T) {
	line := FormatEntry(record(0, controller.StateConverged, false))

	assert.Contains(t, line, `args="bs=4k toggle=on"`)
	assert.Contains(t, line, `cmd="--bs 4k"`)
	assert.True(t, strings.HasPrefix(line, "CONVERGED"))
	assert.Contains(t, line, "runs=3")
	assert.NotContains(t, line, "reason=")
}

func TestLogSink_AppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LogFileName("nvme", started))
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	s := NewLogSink(dir)
	require.NoError(t, s.Start(info()))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "previous\n"))
}

func TestLogSink_RecordBeforeStart(t *testing.T) {
	assert.Error(t, NewLogSink(t.TempDir()).Record(record(0, controller.StateConverged, false)))
}

func TestSQLiteSink_StoresPointsAndTotals(t *testing.T) {
	// GIVEN a fresh database
	s, err := OpenSQLiteSink(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	// WHEN one converged and one failed point are recorded
	require.NoError(t, s.Start(info()))
	require.NoError(t, s.Record(record(0, controller.StateConverged, false)))
	require.NoError(t, s.Record(record(1, controller.StateFailed, false)))
	require.NoError(t, s.Finish(Totals{Points: 2, Converged: 1, Failed: 1}))

	// THEN both rows are queryable with their payloads
	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM points WHERE run_id = 'run-1'`).Scan(&n))
	assert.Equal(t, 2, n)

	var state, argsJSON, cmdJSON, samples string
	require.NoError(t, s.DB().QueryRow(
		`SELECT state, args_json, cmd_json, samples_json FROM points WHERE seq = 0`).Scan(&state, &argsJSON, &cmdJSON, &samples))
	assert.Equal(t, "CONVERGED", state)
	assert.JSONEq(t, `[{"bs":"4k"},{"toggle":"on"}]`, argsJSON)
	assert.JSONEq(t, `["--bs","4k"]`, cmdJSON)
	assert.JSONEq(t, `[10,10,10]`, samples)

	var reason string
	var mean any
	require.NoError(t, s.DB().QueryRow(`SELECT error, mean FROM points WHERE seq = 1`).Scan(&reason, &mean))
	assert.Equal(t, "exit status 1", reason)
	assert.Nil(t, mean)

	var failed int
	require.NoError(t, s.DB().QueryRow(`SELECT failed FROM runs WHERE run_id = 'run-1'`).Scan(&failed))
	assert.Equal(t, 1, failed)
}

func TestMetricsSink_CountsByState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsSink(reg)

	require.NoError(t, m.Start(info()))
	require.NoError(t, m.Record(record(0, controller.StateConverged, false)))
	require.NoError(t, m.Record(record(1, controller.StateFailed, false)))

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]*dto.MetricFamily{}
	for _, f := range families {
		got[f.GetName()] = f
	}

	require.Contains(t, got, "benchsweep_points_total")
	byState := map[string]float64{}
	for _, mt := range got["benchsweep_points_total"].GetMetric() {
		byState[mt.GetLabel()[0].GetValue()] = mt.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"CONVERGED": 1, "FAILED": 1}, byState)
	assert.Equal(t, 3.0, got["benchsweep_samples_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 3.0, got["benchsweep_sample_failures_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 1.0, got["benchsweep_current_point"].GetMetric()[0].GetGauge().GetValue())
}

type failingSink struct {
	calls int
}

func (f *failingSink) Start(RunInfo) error { f.calls++; return errors.New("start") }
func (f *failingSink) Record(Record) error { f.calls++; return errors.New("record") }
func (f *failingSink) Finish(Totals) error { f.calls++; return nil }
func (f *failingSink) Close() error        { f.calls++; return nil }

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	a, b := &failingSink{}, &failingSink{}
	m := Multi{a, b}

	err := m.Start(info())
	assert.ErrorContains(t, err, "start")
	assert.Error(t, m.Record(record(0, controller.StateConverged, false)))
	assert.NoError(t, m.Finish(Totals{}))
	assert.NoError(t, m.Close())
	assert.Equal(t, 4, a.calls)
	assert.Equal(t, 4, b.calls)
}

func TestTotals_Add(t *testing.T) {
	var tot Totals
	tot.Add(record(0, controller.StateConverged, false))
	tot.Add(record(1, controller.StateFailed, false))
	tot.Add(record(2, controller.StateExhausted, false))
	assert.Equal(t, Totals{Points: 3, Converged: 1, Exhausted: 1, Failed: 1, Attempts: 9}, tot)
}
