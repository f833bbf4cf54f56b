package trace

import "time"

// TraceSummary aggregates statistics from a SweepTrace.
type TraceSummary struct {
	TotalAttempts    int
	Succeeded        int
	Failed           int
	Retries          int
	Timeouts         int
	MeanDuration     time.Duration
	MaxDuration      time.Duration
	FailuresByStatus map[string]int
	PointsTouched    int
}

// Summarize computes aggregate statistics from a SweepTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SweepTrace) *TraceSummary {
	summary := &TraceSummary{
		FailuresByStatus: make(map[string]int),
	}
	if st == nil || len(st.Attempts) == 0 {
		return summary
	}

	type pointKey struct {
		target string
		index  int
	}
	points := make(map[pointKey]bool)
	var total time.Duration
	for _, a := range st.Attempts {
		summary.TotalAttempts++
		points[pointKey{a.Target, a.PointIndex}] = true
		total += a.Duration
		if a.Duration > summary.MaxDuration {
			summary.MaxDuration = a.Duration
		}
		if a.Attempt > 1 {
			summary.Retries++
		}
		if a.Status == "ok" {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		summary.FailuresByStatus[a.Status]++
		if a.Status == "timeout" {
			summary.Timeouts++
		}
	}
	summary.MeanDuration = total / time.Duration(summary.TotalAttempts)
	summary.PointsTouched = len(points)

	return summary
}
