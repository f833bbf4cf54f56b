package space

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/inference-sim/benchsweep/sweep/args"
)

// Setup transforms the accumulating argument list when a dimension's value
// is bound. It may add, overwrite or delete any entry, including entries that
// belong to other dimensions.
type Setup interface {
	Apply(c *Context, value string, l args.List) (args.List, error)
}

// Referencer is implemented by setups that read argument names other than
// the dimension they are attached to. Validate checks that every referenced
// name is bound before the setup runs.
type Referencer interface {
	References() []string
}

// Producer is implemented by setups that write argument names. Names a
// setup produces may be referenced by setups of later dimensions.
type Producer interface {
	Produces() []string
}

// SetupFunc adapts a plain function to the Setup interface.
type SetupFunc func(c *Context, value string, l args.List) (args.List, error)

// Apply implements Setup.
func (f SetupFunc) Apply(c *Context, value string, l args.List) (args.List, error) {
	return f(c, value, l)
}

var argRef = regexp.MustCompile(`\{arg:([^}]+)\}`)

// expand resolves {value}, {target} and {arg:NAME} in a template.
func expand(tmpl string, c *Context, value string, l args.List) (string, error) {
	var missing string
	out := argRef.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := argRef.FindStringSubmatch(m)[1]
		v, ok := args.Get(l, name)
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("template %q references unset argument %q", tmpl, missing)
	}
	out = strings.ReplaceAll(out, "{value}", value)
	if c != nil {
		out = strings.ReplaceAll(out, "{target}", c.Target)
	}
	return out, nil
}

func templateRefs(tmpl string) []string {
	var refs []string
	for _, m := range argRef.FindAllStringSubmatch(tmpl, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

// SetArgs sets each named argument to its expanded template.
type SetArgs struct {
	Args []args.Arg // applied in order
}

func (s SetArgs) Apply(c *Context, value string, l args.List) (args.List, error) {
	for _, a := range s.Args {
		v, err := expand(a.Value, c, value, l)
		if err != nil {
			return l, fmt.Errorf("set %s: %w", a.Name, err)
		}
		l = args.Set(l, a.Name, v)
	}
	return l, nil
}

func (s SetArgs) References() []string {
	set := map[string]bool{}
	var refs []string
	for _, a := range s.Args {
		for _, r := range templateRefs(a.Value) {
			if !set[r] {
				refs = append(refs, r)
			}
		}
		set[a.Name] = true
	}
	return refs
}

func (s SetArgs) Produces() []string {
	names := make([]string, len(s.Args))
	for i, a := range s.Args {
		names[i] = a.Name
	}
	return names
}

// DeleteArgs removes the named arguments.
type DeleteArgs struct {
	Names []string
}

func (d DeleteArgs) Apply(_ *Context, _ string, l args.List) (args.List, error) {
	for _, n := range d.Names {
		l = args.Del(l, n)
	}
	return l, nil
}

// CopyArg copies the current value of From into To.
type CopyArg struct {
	From string
	To   string
}

func (cp CopyArg) Apply(_ *Context, _ string, l args.List) (args.List, error) {
	v, ok := args.Get(l, cp.From)
	if !ok {
		return l, fmt.Errorf("copy: argument %q is not set", cp.From)
	}
	return args.Set(l, cp.To, v), nil
}

func (cp CopyArg) References() []string { return []string{cp.From} }
func (cp CopyArg) Produces() []string   { return []string{cp.To} }

// Switch applies the setup registered for the bound value, or Default when
// no case matches. A nil Default leaves the list unchanged.
type Switch struct {
	Cases   map[string]Setup
	Default Setup
}

func (s Switch) Apply(c *Context, value string, l args.List) (args.List, error) {
	if st, ok := s.Cases[value]; ok && st != nil {
		return st.Apply(c, value, l)
	}
	if s.Default != nil {
		return s.Default.Apply(c, value, l)
	}
	return l, nil
}

func (s Switch) References() []string {
	var refs []string
	for _, k := range s.caseKeys() {
		refs = append(refs, referencesOf(s.Cases[k])...)
	}
	return append(refs, referencesOf(s.Default)...)
}

func (s Switch) Produces() []string {
	var names []string
	for _, k := range s.caseKeys() {
		names = append(names, producesOf(s.Cases[k])...)
	}
	return append(names, producesOf(s.Default)...)
}

func (s Switch) caseKeys() []string {
	keys := make([]string, 0, len(s.Cases))
	for k := range s.Cases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultAlign is the byte alignment SizeFromLength rounds down to.
const DefaultAlign = 4096

// SizeFromLength sets Arg to a percentage of the target length in bytes.
// The bound value is the percentage, with or without a trailing "%".
type SizeFromLength struct {
	Arg   string
	Align int64 // 0 means DefaultAlign
}

func (s SizeFromLength) Apply(c *Context, value string, l args.List) (args.List, error) {
	pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "%"), 64)
	if err != nil {
		return l, fmt.Errorf("size: invalid percentage %q: %w", value, err)
	}
	if pct <= 0 || pct > 100 {
		return l, fmt.Errorf("size: percentage must be in (0, 100], got %v", pct)
	}
	length, err := c.DeviceLength()
	if err != nil {
		return l, fmt.Errorf("size: %w", err)
	}
	align := s.Align
	if align <= 0 {
		align = DefaultAlign
	}
	bytes := int64(float64(length) * pct / 100)
	bytes -= bytes % align
	if bytes <= 0 {
		return l, fmt.Errorf("size: %v%% of %d bytes is below alignment %d", pct, length, align)
	}
	return args.Set(l, s.Arg, strconv.FormatInt(bytes, 10)), nil
}

func (s SizeFromLength) Produces() []string { return []string{s.Arg} }

// Chain applies several setups in order.
type Chain []Setup

func (ch Chain) Apply(c *Context, value string, l args.List) (args.List, error) {
	var err error
	for i, st := range ch {
		if l, err = st.Apply(c, value, l); err != nil {
			return l, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return l, nil
}

// References reports names read by a step that no earlier step produced.
func (ch Chain) References() []string {
	produced := map[string]bool{}
	var refs []string
	for _, st := range ch {
		for _, r := range referencesOf(st) {
			if !produced[r] {
				refs = append(refs, r)
			}
		}
		for _, p := range producesOf(st) {
			produced[p] = true
		}
	}
	return refs
}

func (ch Chain) Produces() []string {
	var names []string
	for _, st := range ch {
		names = append(names, producesOf(st)...)
	}
	return names
}

func referencesOf(s Setup) []string {
	if r, ok := s.(Referencer); ok {
		return r.References()
	}
	return nil
}

func producesOf(s Setup) []string {
	if p, ok := s.(Producer); ok {
		return p.Produces()
	}
	return nil
}
