package trace

import (
	"testing"
	"time"
)

func TestSweepTrace_RecordAttempt_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for samples
	st := NewSweepTrace(TraceConfig{Level: TraceLevelSamples})

	// WHEN an attempt is recorded
	st.RecordAttempt(AttemptRecord{PointIndex: 3, Sample: 1, Attempt: 1, Status: "ok", Value: 12.5})

	// THEN the trace contains it
	if len(st.Attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(st.Attempts))
	}
	if st.Attempts[0].PointIndex != 3 || st.Attempts[0].Value != 12.5 {
		t.Errorf("unexpected record %+v", st.Attempts[0])
	}
}

func TestSweepTrace_LevelNone_DropsRecords(t *testing.T) {
	st := NewSweepTrace(TraceConfig{Level: TraceLevelNone})
	st.RecordAttempt(AttemptRecord{Status: "ok"})
	if len(st.Attempts) != 0 {
		t.Errorf("expected no records at level none, got %d", len(st.Attempts))
	}

	var nilTrace *SweepTrace
	nilTrace.RecordAttempt(AttemptRecord{Status: "ok"}) // must not panic
	if nilTrace.Enabled() {
		t.Error("nil trace must report disabled")
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	for _, lvl := range []string{"", "none", "samples"} {
		if !IsValidTraceLevel(lvl) {
			t.Errorf("expected %q to be valid", lvl)
		}
	}
	if IsValidTraceLevel("decisions") {
		t.Error("expected decisions to be invalid")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	summary := Summarize(NewSweepTrace(TraceConfig{Level: TraceLevelSamples}))
	if summary.TotalAttempts != 0 || summary.MeanDuration != 0 || summary.PointsTouched != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if Summarize(nil).FailuresByStatus == nil {
		t.Error("expected non-nil map for nil trace")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN two points, the second needing a retry after a timeout
	st := NewSweepTrace(TraceConfig{Level: TraceLevelSamples})
	st.RecordAttempt(AttemptRecord{Target: "a", PointIndex: 0, Sample: 1, Attempt: 1, Status: "ok", Duration: time.Second})
	st.RecordAttempt(AttemptRecord{Target: "a", PointIndex: 1, Sample: 1, Attempt: 1, Status: "timeout", Duration: 3 * time.Second})
	st.RecordAttempt(AttemptRecord{Target: "a", PointIndex: 1, Sample: 1, Attempt: 2, Status: "error", Duration: time.Second})
	st.RecordAttempt(AttemptRecord{Target: "a", PointIndex: 1, Sample: 1, Attempt: 3, Status: "ok", Duration: 3 * time.Second})

	// WHEN summarized
	s := Summarize(st)

	// THEN counts and durations reflect every attempt
	if s.TotalAttempts != 4 || s.Succeeded != 2 || s.Failed != 2 {
		t.Errorf("unexpected totals %+v", s)
	}
	if s.Retries != 2 || s.Timeouts != 1 {
		t.Errorf("expected 2 retries and 1 timeout, got %d and %d", s.Retries, s.Timeouts)
	}
	if s.FailuresByStatus["timeout"] != 1 || s.FailuresByStatus["error"] != 1 {
		t.Errorf("unexpected failures %v", s.FailuresByStatus)
	}
	if s.MeanDuration != 2*time.Second || s.MaxDuration != 3*time.Second {
		t.Errorf("unexpected durations mean=%v max=%v", s.MeanDuration, s.MaxDuration)
	}
	if s.PointsTouched != 2 {
		t.Errorf("expected 2 points, got %d", s.PointsTouched)
	}
}
