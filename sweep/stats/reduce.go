package stats

import (
	"fmt"
	"math"
)

// Reducer folds the numbers printed by one tool invocation into one sample.
type Reducer string

const (
	ReduceMean  Reducer = "mean"
	ReduceFirst Reducer = "first"
	ReduceLast  Reducer = "last"
	ReduceSum   Reducer = "sum"
	ReduceMin   Reducer = "min"
	ReduceMax   Reducer = "max"
)

var validReducers = map[Reducer]bool{
	ReduceMean: true, ReduceFirst: true, ReduceLast: true,
	ReduceSum: true, ReduceMin: true, ReduceMax: true,
	"": true, // empty defaults to mean
}

// IsValidReducer reports whether name is a recognised reducer.
func IsValidReducer(name string) bool {
	return validReducers[Reducer(name)]
}

// Reduce applies r to values. It fails on an empty slice.
func (r Reducer) Reduce(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("no values to reduce")
	}
	switch r {
	case ReduceFirst:
		return values[0], nil
	case ReduceLast:
		return values[len(values)-1], nil
	case ReduceSum, ReduceMean, "":
		var sum float64
		for _, v := range values {
			sum += v
		}
		if r == ReduceSum {
			return sum, nil
		}
		return sum / float64(len(values)), nil
	case ReduceMin:
		m := math.Inf(1)
		for _, v := range values {
			m = math.Min(m, v)
		}
		return m, nil
	case ReduceMax:
		m := math.Inf(-1)
		for _, v := range values {
			m = math.Max(m, v)
		}
		return m, nil
	default:
		return 0, fmt.Errorf("unknown reducer %q", r)
	}
}
