package space

import (
	"fmt"
	"iter"

	"github.com/inference-sim/benchsweep/sweep/args"
)

// Generator enumerates the points of a Spec lazily, depth-first.
//
// The accumulated list after binding dimension i is cached, so advancing the
// innermost dimension re-applies only the innermost setup. Setups of outer
// dimensions run once per outer value, as in a recursive traversal.
//
// Usage mirrors bufio.Scanner:
//
//	g := NewGenerator(spec, ctx)
//	for g.Next() {
//		p := g.Point()
//	}
//	if err := g.Err(); err != nil { ... }
type Generator struct {
	spec *Spec
	ctx  *Context

	idx     []int       // current value index per dimension
	partial []args.List // list after binding dimensions 0..i
	started bool
	done    bool
	index   int
	point   Point
	err     error
}

// NewGenerator returns a generator positioned before the first point.
// Creating a new generator from the same spec restarts the sequence.
func NewGenerator(spec *Spec, ctx *Context) *Generator {
	n := len(spec.Dimensions)
	return &Generator{
		spec:    spec,
		ctx:     ctx,
		idx:     make([]int, n),
		partial: make([]args.List, n),
	}
}

// Next advances to the next point. It returns false when the sequence is
// exhausted or a setup failed; Err distinguishes the two.
func (g *Generator) Next() bool {
	if g.done {
		return false
	}
	if g.spec.Count() == 0 {
		g.done = true
		return false
	}

	// changed is the outermost dimension whose value differs from the
	// previous point; every dimension from changed inward is rebound.
	changed := 0
	if g.started {
		changed = g.advance()
		if changed < 0 {
			g.done = true
			return false
		}
	}
	g.started = true

	if err := g.bindFrom(changed); err != nil {
		g.err = err
		g.done = true
		return false
	}

	g.point = Point{
		Index:     g.index,
		Args:      g.current(),
		Coords:    g.coords(),
		LineBreak: g.lineBreakFrom(changed),
	}
	g.index++
	return true
}

// Point returns the point produced by the last successful Next.
func (g *Generator) Point() Point { return g.point }

// Err returns the first setup error, if any.
func (g *Generator) Err() error { return g.err }

// All returns the remaining points as an iterator. Iteration stops early on
// a setup error, which is yielded as the final element.
func (g *Generator) All() iter.Seq2[Point, error] {
	return func(yield func(Point, error) bool) {
		for g.Next() {
			if !yield(g.Point(), nil) {
				return
			}
		}
		if g.err != nil {
			yield(Point{}, g.err)
		}
	}
}

// advance moves the odometer and returns the outermost changed dimension,
// or -1 when every combination has been produced.
func (g *Generator) advance() int {
	for i := len(g.idx) - 1; i >= 0; i-- {
		g.idx[i]++
		if g.idx[i] < len(g.spec.Dimensions[i].Values) {
			return i
		}
		g.idx[i] = 0
	}
	return -1
}

func (g *Generator) bindFrom(level int) error {
	for i := level; i < len(g.spec.Dimensions); i++ {
		prev := g.spec.Base
		if i > 0 {
			prev = g.partial[i-1]
		}
		d := g.spec.Dimensions[i]
		value := d.Values[g.idx[i]]
		l := args.Set(prev, d.Name, value)
		if d.Setup != nil {
			var err error
			l, err = d.Setup.Apply(g.ctx, value, l)
			if err != nil {
				return &ConfigError{Dimension: d.Name, Reason: fmt.Sprintf("setup failed for value %q", value), Err: err}
			}
		}
		g.partial[i] = l
	}
	return nil
}

func (g *Generator) current() args.List {
	if len(g.partial) == 0 {
		return g.spec.Base
	}
	return g.partial[len(g.partial)-1]
}

func (g *Generator) coords() args.List {
	var c args.List
	for i, d := range g.spec.Dimensions {
		c = args.Set(c, d.Name, d.Values[g.idx[i]])
	}
	return c
}

// lineBreakFrom reports whether a line-break dimension took a different value
// than it had at the previous point. Dimensions inside level wrapped around
// to their first value, which is only a change when they have more than one.
func (g *Generator) lineBreakFrom(level int) bool {
	for i := level; i < len(g.spec.Dimensions); i++ {
		d := g.spec.Dimensions[i]
		if !d.LineBreak {
			continue
		}
		if g.index == 0 || i == level || len(d.Values) > 1 {
			return true
		}
	}
	return false
}
