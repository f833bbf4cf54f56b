package space

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/benchsweep/sweep/args"
)

type fixedProbe struct {
	length int64
	err    error
	calls  int
}

func (p *fixedProbe) Length(string) (int64, error) {
	p.calls++
	return p.length, p.err
}

func TestSetArgs_ExpandsTemplates(t *testing.T) {
	ctx := NewContext("s", "/dev/sdb", &fixedProbe{})
	l := args.New(args.Arg{Name: "bs", Value: "4k"})
	s := SetArgs{Args: []args.Arg{
		{Name: "name", Value: "job-{value}-{arg:bs}"},
		{Name: "filename", Value: "{target}"},
	}}

	got, err := s.Apply(ctx, "randread", l)

	require.NoError(t, err)
	assert.Equal(t, "bs=4k name=job-randread-4k filename=/dev/sdb", got.String())
	assert.Equal(t, []string{"bs"}, s.References())
	assert.Equal(t, []string{"name", "filename"}, s.Produces())
}

func TestSetArgs_MissingReference(t *testing.T) {
	s := SetArgs{Args: []args.Arg{{Name: "x", Value: "{arg:nope}"}}}
	_, err := s.Apply(nil, "v", args.List{})
	assert.ErrorContains(t, err, `"nope"`)
}

func TestSwitch_CrossDimensionToggle(t *testing.T) {
	// GIVEN a toggle that rewrites other arguments depending on its value
	toggle := Switch{
		Cases: map[string]Setup{
			"sync": Chain{
				SetArgs{Args: []args.Arg{{Name: "ioengine", Value: "psync"}}},
				DeleteArgs{Names: []string{"iodepth"}},
			},
		},
		Default: SetArgs{Args: []args.Arg{{Name: "ioengine", Value: "libaio"}}},
	}
	l := args.New(args.Arg{Name: "iodepth", Value: "32"})

	syncList, err := toggle.Apply(nil, "sync", args.Set(l, "mode", "sync"))
	require.NoError(t, err)
	asyncList, err := toggle.Apply(nil, "async", args.Set(l, "mode", "async"))
	require.NoError(t, err)

	assert.Equal(t, "mode=sync ioengine=psync", syncList.String())
	assert.Equal(t, "iodepth=32 mode=async ioengine=libaio", asyncList.String())
	assert.ElementsMatch(t, []string{"ioengine", "ioengine"}, toggle.Produces())
}

func TestCopyArg(t *testing.T) {
	l := args.New(args.Arg{Name: "bs", Value: "8k"})
	got, err := CopyArg{From: "bs", To: "ba"}.Apply(nil, "", l)
	require.NoError(t, err)
	assert.Equal(t, "bs=8k ba=8k", got.String())

	_, err = CopyArg{From: "missing", To: "x"}.Apply(nil, "", l)
	assert.Error(t, err)
}

func TestSizeFromLength_ProbesOnceAndAligns(t *testing.T) {
	probe := &fixedProbe{length: 1_000_000}
	ctx := NewContext("s", "/dev/x", probe)
	s := SizeFromLength{Arg: "size"}

	half, err := s.Apply(ctx, "50%", args.List{})
	require.NoError(t, err)
	full, err := s.Apply(ctx, "100", args.List{})
	require.NoError(t, err)

	v, _ := args.Get(half, "size")
	assert.Equal(t, "499712", v) // 500000 rounded down to 4096
	v, _ = args.Get(full, "size")
	assert.Equal(t, "999424", v)
	assert.Equal(t, 1, probe.calls, "device length must be probed once per context")
}

func TestSizeFromLength_Errors(t *testing.T) {
	s := SizeFromLength{Arg: "size"}

	_, err := s.Apply(NewContext("s", "t", &fixedProbe{length: 100}), "abc", args.List{})
	assert.ErrorContains(t, err, "invalid percentage")

	_, err = s.Apply(NewContext("s", "t", &fixedProbe{length: 100}), "150", args.List{})
	assert.ErrorContains(t, err, "(0, 100]")

	probeErr := errors.New("no device")
	_, err = s.Apply(NewContext("s", "t", &fixedProbe{err: probeErr}), "10", args.List{})
	assert.ErrorIs(t, err, probeErr)

	_, err = s.Apply(NewContext("s", "t", &fixedProbe{length: 100}), "10", args.List{})
	assert.ErrorContains(t, err, "below alignment")
}

func TestFileLengthProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 8192), 0o600))

	n, err := FileLengthProbe{}.Length(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8192), n)

	_, err = FileLengthProbe{}.Length(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestChain_ReferencesSkipOwnProducts(t *testing.T) {
	ch := Chain{
		SetArgs{Args: []args.Arg{{Name: "tmp", Value: "{value}"}}},
		CopyArg{From: "tmp", To: "out"},
		CopyArg{From: "outside", To: "other"},
	}
	assert.Equal(t, []string{"outside"}, ch.References())
}
