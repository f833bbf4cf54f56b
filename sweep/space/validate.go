package space

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// Validate checks the spec for problems that would make the sweep
// meaningless. It never runs a setup.
func (s *Spec) Validate() error {
	if len(s.Dimensions) == 0 && s.Base.Len() == 0 {
		return &ConfigError{Reason: "no dimensions and no base arguments"}
	}
	known := map[string]bool{}
	var knownOrder []string
	addKnown := func(name string) {
		if !known[name] {
			known[name] = true
			knownOrder = append(knownOrder, name)
		}
	}
	for _, name := range s.Base.Names() {
		addKnown(name)
	}

	declared := map[string]int{}
	for i, d := range s.Dimensions {
		if d.Name == "" {
			return &ConfigError{Reason: fmt.Sprintf("dimension %d has an empty name", i)}
		}
		if j, dup := declared[d.Name]; dup {
			return &ConfigError{Dimension: d.Name, Reason: fmt.Sprintf("declared twice (positions %d and %d)", j, i)}
		}
		declared[d.Name] = i
		if len(d.Values) == 0 {
			return &ConfigError{Dimension: d.Name, Reason: "has no values; the sweep would contain zero points"}
		}
	}

	for i, d := range s.Dimensions {
		addKnown(d.Name)
		if d.Setup == nil {
			continue
		}
		for _, ref := range referencesOf(d.Setup) {
			if known[ref] {
				continue
			}
			if j, later := declared[ref]; later && j > i {
				return &ConfigError{Dimension: d.Name, Reason: fmt.Sprintf("setup reads %q, which is bound later (dimension %d)", ref, j)}
			}
			reason := fmt.Sprintf("setup reads undeclared argument %q", ref)
			if hint := suggest(ref, knownOrder); hint != "" {
				reason += fmt.Sprintf(" (did you mean %q?)", hint)
			}
			return &ConfigError{Dimension: d.Name, Reason: reason}
		}
		for _, p := range producesOf(d.Setup) {
			addKnown(p)
		}
	}

	if n := s.Count(); n > MaxPoints {
		return &ConfigError{Reason: fmt.Sprintf("sweep expands to more than %d points", MaxPoints)}
	}
	return nil
}

// suggest returns the closest known name within a small edit distance.
func suggest(name string, known []string) string {
	best, bestDist := "", 3
	for _, k := range known {
		if d := levenshtein.ComputeDistance(name, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
