package space

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/benchsweep/sweep/args"
)

func TestValidate_Accepts(t *testing.T) {
	spec := &Spec{
		Base: args.New(args.Arg{Name: "duration", Value: "30"}),
		Dimensions: []Dimension{
			{Name: "bs", Values: []string{"4k"}},
			{Name: "mode", Values: []string{"a"}, Setup: SetArgs{Args: []args.Arg{{Name: "tag", Value: "{arg:bs}-{arg:duration}"}}}},
			{Name: "copy", Values: []string{"x"}, Setup: CopyArg{From: "tag", To: "label"}},
		},
	}
	assert.NoError(t, spec.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		dims    []Dimension
		wantDim string
		wantMsg string
	}{
		{
			name:    "duplicate dimension",
			dims:    []Dimension{{Name: "bs", Values: []string{"1"}}, {Name: "bs", Values: []string{"2"}}},
			wantDim: "bs",
			wantMsg: "declared twice",
		},
		{
			name:    "empty name",
			dims:    []Dimension{{Values: []string{"1"}}},
			wantMsg: "empty name",
		},
		{
			name:    "empty values",
			dims:    []Dimension{{Name: "rw"}},
			wantDim: "rw",
			wantMsg: "no values",
		},
		{
			name: "reads later dimension",
			dims: []Dimension{
				{Name: "a", Values: []string{"1"}, Setup: CopyArg{From: "b", To: "c"}},
				{Name: "b", Values: []string{"2"}},
			},
			wantDim: "a",
			wantMsg: "bound later",
		},
		{
			name: "reads undeclared name with suggestion",
			dims: []Dimension{
				{Name: "iodepth", Values: []string{"1"}},
				{Name: "x", Values: []string{"1"}, Setup: CopyArg{From: "iodpeth", To: "y"}},
			},
			wantDim: "x",
			wantMsg: `did you mean "iodepth"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Spec{Dimensions: tt.dims}).Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantDim, cfgErr.Dimension)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestExclusions_FilterKeepsOrder(t *testing.T) {
	l := args.New(
		args.Arg{Name: "bs", Value: "4k"},
		args.Arg{Name: "toggle", Value: "on"},
		args.Arg{Name: "rw", Value: "read"},
		args.Arg{Name: "_internal_a", Value: "1"},
		args.Arg{Name: "debug_level", Value: "2"},
	)
	ex := Exclusions{"toggle", "_internal*", "*_level"}

	got := ex.Apply(l)

	assert.Equal(t, "bs=4k rw=read", got.String())
	assert.Equal(t, 5, l.Len(), "input must stay untouched")
}

func TestExclusions_Patterns(t *testing.T) {
	ex := Exclusions{"*mid*"}
	assert.True(t, ex.Excludes("a_mid_b"))
	assert.False(t, ex.Excludes("other"))
	assert.True(t, Exclusions{"*"}.Excludes("anything"))
	assert.False(t, Exclusions(nil).Excludes("x"))
}
