package trace

import "time"

// AttemptRecord captures a single invocation of the measurement tool.
type AttemptRecord struct {
	Target     string
	PointIndex int
	Sample     int    // 1-based index of the sample being collected
	Attempt    int    // 1-based; > 1 means a retry
	Status     string // ok, error or timeout
	Value      float64
	Duration   time.Duration
	Reason     string // failure cause, empty when ok
}
