// Package config loads a sweep declaration from YAML.
//
// Parsing is strict: unknown keys are rejected so that a typo in a field name
// fails loudly instead of silently running with a default.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/benchsweep/sweep/controller"
	"github.com/inference-sim/benchsweep/sweep/stats"
)

// Defaults applied by Load when a field is omitted.
const (
	DefaultTimeoutSlack = 60 * time.Second
	DefaultTimeout      = 10 * time.Minute
	DefaultLogDir       = "."
)

// File is the YAML document.
type File struct {
	Name       string          `yaml:"name"`
	Tool       string          `yaml:"tool"`
	Targets    []string        `yaml:"targets"`
	Duration   time.Duration   `yaml:"duration"`
	Elevate    []string        `yaml:"elevate"`
	Timeout    time.Duration   `yaml:"timeout"`
	Retries    *int            `yaml:"retries"`
	Cooldown   time.Duration   `yaml:"cooldown"`
	Reduce     string          `yaml:"reduce"`
	LogDir     string          `yaml:"log_dir"`
	Policy     PolicySpec      `yaml:"policy"`
	BaseArgs   []ArgSpec       `yaml:"base_args"`
	Exclude    []string        `yaml:"exclude"`
	Dimensions []DimensionSpec `yaml:"dimensions"`
}

// PolicySpec is the stopping rule.
type PolicySpec struct {
	MinRuns        int     `yaml:"min_runs"`
	MaxRuns        int     `yaml:"max_runs"`
	RelativeMargin float64 `yaml:"relative_margin"`
	Confidence     float64 `yaml:"confidence"`
}

// ArgSpec is a fixed argument.
type ArgSpec struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// DimensionSpec is one axis of the parameter space.
type DimensionSpec struct {
	Name      string     `yaml:"name"`
	Values    []string   `yaml:"values"`
	LineBreak bool       `yaml:"line_break"`
	Setup     *SetupSpec `yaml:"setup,omitempty"`
}

// Load reads, parses and validates a sweep file, applying defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing sweep config: %w", err)
	}
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) applyDefaults() {
	if f.Retries == nil {
		r := controller.DefaultRetries
		f.Retries = &r
	}
	if f.Timeout == 0 {
		if f.Duration > 0 {
			f.Timeout = f.Duration + DefaultTimeoutSlack
		} else {
			f.Timeout = DefaultTimeout
		}
	}
	if f.Reduce == "" {
		f.Reduce = string(stats.ReduceMean)
	}
	if f.Policy.Confidence == 0 {
		f.Policy.Confidence = stats.DefaultConfidence
	}
	if f.LogDir == "" {
		f.LogDir = DefaultLogDir
	}
}
