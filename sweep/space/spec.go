package space

import (
	"github.com/inference-sim/benchsweep/sweep/args"
)

// MaxPoints caps the size of a sweep. A declaration expanding past it is
// rejected by Validate.
const MaxPoints = 1_000_000

// Dimension is one named axis of the parameter space.
type Dimension struct {
	Name      string
	Values    []string
	Setup     Setup // nil means identity
	LineBreak bool  // start a new visual block in the log for every new value
}

// Spec is an ordered list of dimensions plus the names that must never reach
// the measurement tool.
type Spec struct {
	Base       args.List // fixed arguments emitted before any dimension
	Dimensions []Dimension
	Exclude    Exclusions
}

// Count returns the number of points the spec expands to.
// A dimension without values makes the product zero.
func (s *Spec) Count() int {
	n := 1
	for _, d := range s.Dimensions {
		n *= len(d.Values)
		if n == 0 || n > MaxPoints {
			return n
		}
	}
	return n
}

// Point is one fully resolved configuration.
type Point struct {
	Index     int       // zero-based position in generation order
	Args      args.List // full list, excluded names included
	Coords    args.List // raw value bound for each dimension, in dimension order
	LineBreak bool      // first point for a new value of a line-break dimension
}
