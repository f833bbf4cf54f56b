package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/benchsweep/sweep/args"
	"github.com/inference-sim/benchsweep/sweep/space"
)

// SetupSpec declares a setup strategy. Kind selects the strategy; a spec
// without a kind but with set and/or delete is shorthand for setting then
// deleting, which keeps switch cases short.
type SetupSpec struct {
	Kind    string                `yaml:"kind"`
	Args    OrderedArgs           `yaml:"args"`
	Names   []string              `yaml:"names"`
	From    string                `yaml:"from"`
	To      string                `yaml:"to"`
	Cases   map[string]*SetupSpec `yaml:"cases"`
	Default *SetupSpec            `yaml:"default"`
	Arg     string                `yaml:"arg"`
	Align   int64                 `yaml:"align"`
	Steps   []*SetupSpec          `yaml:"steps"`
	Set     OrderedArgs           `yaml:"set"`
	Delete  []string              `yaml:"delete"`
}

var validKinds = []string{"set", "delete", "copy", "switch", "size", "chain"}

// OrderedArgs is a YAML mapping of name to template that keeps document
// order. A sequence of {name, value} entries is accepted too.
type OrderedArgs []args.Arg

func (o *OrderedArgs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(OrderedArgs, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var name, value string
			if err := node.Content[i].Decode(&name); err != nil {
				return err
			}
			if err := node.Content[i+1].Decode(&value); err != nil {
				return err
			}
			out = append(out, args.Arg{Name: name, Value: value})
		}
		*o = out
		return nil
	case yaml.SequenceNode:
		var list []ArgSpec
		if err := node.Decode(&list); err != nil {
			return err
		}
		out := make(OrderedArgs, len(list))
		for i, a := range list {
			out[i] = args.Arg{Name: a.Name, Value: a.Value}
		}
		*o = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a mapping of argument names to values", node.Line)
	}
}

func (s *SetupSpec) validate(prefix string) error {
	if s == nil {
		return fmt.Errorf("%s: empty setup", prefix)
	}
	switch s.Kind {
	case "":
		if len(s.Set) == 0 && len(s.Delete) == 0 {
			return fmt.Errorf("%s: kind is required; valid: %v", prefix, validKinds)
		}
		return validateArgNames(prefix+".set", s.Set)
	case "set":
		if len(s.Args) == 0 {
			return fmt.Errorf("%s: set needs at least one entry in args", prefix)
		}
		return validateArgNames(prefix+".args", s.Args)
	case "delete":
		if len(s.Names) == 0 {
			return fmt.Errorf("%s: delete needs at least one name", prefix)
		}
	case "copy":
		if s.From == "" || s.To == "" {
			return fmt.Errorf("%s: copy needs both from and to", prefix)
		}
	case "switch":
		if len(s.Cases) == 0 && s.Default == nil {
			return fmt.Errorf("%s: switch needs cases or a default", prefix)
		}
		for _, k := range sortedKeys(s.Cases) {
			if err := s.Cases[k].validate(fmt.Sprintf("%s.cases[%q]", prefix, k)); err != nil {
				return err
			}
		}
		if s.Default != nil {
			if err := s.Default.validate(prefix + ".default"); err != nil {
				return err
			}
		}
	case "size":
		if s.Arg == "" {
			return fmt.Errorf("%s: size needs arg", prefix)
		}
		if s.Align < 0 {
			return fmt.Errorf("%s: align must be non-negative, got %d", prefix, s.Align)
		}
	case "chain":
		if len(s.Steps) == 0 {
			return fmt.Errorf("%s: chain needs at least one step", prefix)
		}
		for i, st := range s.Steps {
			if err := st.validate(fmt.Sprintf("%s.steps[%d]", prefix, i)); err != nil {
				return err
			}
		}
	default:
		msg := fmt.Sprintf("%s: unknown kind %q; valid: %v", prefix, s.Kind, validKinds)
		if hint := closest(s.Kind, validKinds); hint != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", hint)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func validateArgNames(prefix string, list OrderedArgs) error {
	for i, a := range list {
		if a.Name == "" {
			return fmt.Errorf("%s[%d]: empty argument name", prefix, i)
		}
	}
	return nil
}

// build converts a validated spec into a strategy.
func (s *SetupSpec) build() space.Setup {
	switch s.Kind {
	case "set":
		return space.SetArgs{Args: []args.Arg(s.Args)}
	case "delete":
		return space.DeleteArgs{Names: s.Names}
	case "copy":
		return space.CopyArg{From: s.From, To: s.To}
	case "switch":
		sw := space.Switch{Cases: make(map[string]space.Setup, len(s.Cases))}
		for k, c := range s.Cases {
			sw.Cases[k] = c.build()
		}
		if s.Default != nil {
			sw.Default = s.Default.build()
		}
		return sw
	case "size":
		return space.SizeFromLength{Arg: s.Arg, Align: s.Align}
	case "chain":
		ch := make(space.Chain, len(s.Steps))
		for i, st := range s.Steps {
			ch[i] = st.build()
		}
		return ch
	}
	var ch space.Chain
	if len(s.Set) > 0 {
		ch = append(ch, space.SetArgs{Args: []args.Arg(s.Set)})
	}
	if len(s.Delete) > 0 {
		ch = append(ch, space.DeleteArgs{Names: s.Delete})
	}
	if len(ch) == 1 {
		return ch[0]
	}
	return ch
}

func sortedKeys(m map[string]*SetupSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
