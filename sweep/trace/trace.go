// Package trace records every tool invocation of a sweep for later analysis.
// It stores pure data and has no dependencies on the rest of the sweep.
package trace

// TraceLevel controls the verbosity of sample tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSamples captures every invocation attempt.
	TraceLevelSamples TraceLevel = "samples"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelSamples: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SweepTrace collects attempt records during a sweep.
type SweepTrace struct {
	Config   TraceConfig
	Attempts []AttemptRecord
}

// NewSweepTrace creates a SweepTrace ready for recording.
func NewSweepTrace(config TraceConfig) *SweepTrace {
	return &SweepTrace{
		Config:   config,
		Attempts: make([]AttemptRecord, 0),
	}
}

// Enabled reports whether records are kept. Safe on a nil trace.
func (st *SweepTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelSamples
}

// RecordAttempt appends an attempt record. It is a no-op when tracing is off.
func (st *SweepTrace) RecordAttempt(record AttemptRecord) {
	if !st.Enabled() {
		return
	}
	st.Attempts = append(st.Attempts, record)
}
