// Package args implements the ordered argument list that carries one
// configuration of the external measurement tool.
//
// A List behaves like an association list: names are unique, insertion order
// is preserved, and every operation returns a fresh List so callers never
// observe mutation through a shared backing array. Log output depends on the
// accumulation order, so Set updates an existing entry in place rather than
// moving it to the end.
package args

import (
	"strings"
)

// Arg is a single name/value pair.
type Arg struct {
	Name  string
	Value string
}

// List is an ordered sequence of Args with unique names.
// The zero value is an empty list ready for use.
type List struct {
	items []Arg
}

// New builds a List from pairs in order. Later duplicates overwrite earlier
// values at the earlier position, matching repeated Set calls.
func New(pairs ...Arg) List {
	var l List
	for _, p := range pairs {
		l = Set(l, p.Name, p.Value)
	}
	return l
}

// Get returns the value stored under name and whether it was present.
func Get(l List, name string) (string, bool) {
	if i := l.index(name); i >= 0 {
		return l.items[i].Value, true
	}
	return "", false
}

// Set returns a copy of l where name maps to value. An existing entry keeps
// its position; a new entry is appended.
func Set(l List, name, value string) List {
	out := l.clone(1)
	if i := out.index(name); i >= 0 {
		out.items[i].Value = value
		return out
	}
	out.items = append(out.items, Arg{Name: name, Value: value})
	return out
}

// Del returns a copy of l without name. Deleting an absent name is a no-op.
func Del(l List, name string) List {
	out := List{items: make([]Arg, 0, len(l.items))}
	for _, a := range l.items {
		if a.Name != name {
			out.items = append(out.items, a)
		}
	}
	return out
}

// Len returns the number of arguments.
func (l List) Len() int { return len(l.items) }

// Names returns the argument names in order.
func (l List) Names() []string {
	names := make([]string, len(l.items))
	for i, a := range l.items {
		names[i] = a.Name
	}
	return names
}

// Args returns a copy of the arguments in order.
func (l List) Args() []Arg {
	out := make([]Arg, len(l.items))
	copy(out, l.items)
	return out
}

// Flags renders the list as command-line flags, "--name value" per argument.
func (l List) Flags() []string {
	out := make([]string, 0, 2*len(l.items))
	for _, a := range l.items {
		out = append(out, "--"+a.Name, a.Value)
	}
	return out
}

// String renders "name=value" pairs separated by spaces.
func (l List) String() string {
	var b strings.Builder
	for i, a := range l.items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a.Name)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	return b.String()
}

// Equal reports whether two lists hold the same pairs in the same order.
func (l List) Equal(o List) bool {
	if len(l.items) != len(o.items) {
		return false
	}
	for i := range l.items {
		if l.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

func (l List) index(name string) int {
	for i, a := range l.items {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (l List) clone(extra int) List {
	items := make([]Arg, len(l.items), len(l.items)+extra)
	copy(items, l.items)
	return List{items: items}
}
