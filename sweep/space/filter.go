package space

import (
	"strings"

	"github.com/inference-sim/benchsweep/sweep/args"
)

// Exclusions lists argument names that take part in generation and setups
// but are never passed to the measurement tool.
//
// Patterns support a single wildcard position:
//   - "prefix*" matches names starting with "prefix"
//   - "*suffix" matches names ending with "suffix"
//   - "*part*" matches names containing "part"
//   - "exact" matches the name exactly
type Exclusions []string

// Excludes reports whether name matches any pattern.
func (e Exclusions) Excludes(name string) bool {
	for _, p := range e {
		if matchesPattern(name, p) {
			return true
		}
	}
	return false
}

// Apply returns l without any excluded argument.
func (e Exclusions) Apply(l args.List) args.List {
	if len(e) == 0 {
		return l
	}
	out := l
	for _, name := range l.Names() {
		if e.Excludes(name) {
			out = args.Del(out, name)
		}
	}
	return out
}

func matchesPattern(key, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return key == pattern
	}
	if len(pattern) > 1 && strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		return strings.Contains(key, strings.Trim(pattern, "*"))
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(key, strings.TrimPrefix(pattern, "*"))
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
