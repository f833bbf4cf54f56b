package report

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/inference-sim/benchsweep/sweep/args"
	"github.com/inference-sim/benchsweep/sweep/controller"
)

// schema.sql creates the runs and points tables if they do not exist.
//
//go:embed schema.sql
var schemaSQL string

// SQLiteSink stores one row per sweep point in a SQLite database. Several
// runs may share one database file; rows are keyed by run ID.
type SQLiteSink struct {
	db    *sql.DB
	runID string
}

// OpenSQLiteSink opens or creates the database at path and applies the schema.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening result database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying result schema: %w", err)
	}
	logrus.Debugf("initialized result database %s", path)
	return &SQLiteSink{db: db}, nil
}

// DB exposes the underlying handle for queries.
func (s *SQLiteSink) DB() *sql.DB { return s.db }

func (s *SQLiteSink) Start(info RunInfo) error {
	s.runID = info.ID
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, name, min_runs, max_runs, rel_margin, z, targets, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.Name, info.Policy.MinRuns, info.Policy.MaxRuns, info.Policy.RelativeMargin,
		info.Z, strings.Join(info.Targets, " "), info.Started.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Record(r Record) error {
	argsJSON, err := json.Marshal(argMap(r.Args))
	if err != nil {
		return err
	}
	cmdJSON, err := json.Marshal(r.Cmd.Flags())
	if err != nil {
		return err
	}
	samples := r.Result.Samples
	if samples == nil {
		samples = []float64{}
	}
	samplesJSON, err := json.Marshal(samples)
	if err != nil {
		return err
	}

	var mean, stddev, margin, rel, reason any
	if r.Result.State != controller.StateFailed {
		e := r.Result.Estimate
		mean, stddev, margin = e.Mean, e.StdDev, e.Margin
		if !math.IsInf(e.Relative, 0) {
			rel = e.Relative
		}
	} else {
		reason = r.Result.Reason
	}

	_, err = s.db.Exec(`
		INSERT INTO points (run_id, seq, point_index, target, args_json, cmd_json, state, runs, attempts,
			mean, stddev, margin, rel_margin, samples_json, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, r.Seq, r.Index, r.Target, string(argsJSON), string(cmdJSON), string(r.Result.State),
		len(r.Result.Samples), r.Result.Attempts, mean, stddev, margin, rel, string(samplesJSON), reason,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert point %d: %w", r.Seq, err)
	}
	return nil
}

func (s *SQLiteSink) Finish(t Totals) error {
	var aborted any
	if t.Aborted != nil {
		aborted = t.Aborted.Error()
	}
	_, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, converged = ?, exhausted = ?, failed = ?, aborted = ?
		WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), t.Converged, t.Exhausted, t.Failed, aborted, s.runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

// argMap keeps argument order by encoding as a list of single-key objects.
func argMap(l args.List) []map[string]string {
	out := make([]map[string]string, 0, l.Len())
	for _, a := range l.Args() {
		out = append(out, map[string]string{a.Name: a.Value})
	}
	return out
}
