package args

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSet_ExistingName_UpdatesInPlace(t *testing.T) {
	// GIVEN a list with three arguments
	l := New(Arg{"bs", "4k"}, Arg{"rw", "read"}, Arg{"iodepth", "1"})

	// WHEN the middle argument is overwritten
	got := Set(l, "rw", "write")

	// THEN its position and the list length are unchanged
	want := []Arg{{"bs", "4k"}, {"rw", "write"}, {"iodepth", "1"}}
	if diff := cmp.Diff(want, got.Args()); diff != "" {
		t.Errorf("Set mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_NewName_Appends(t *testing.T) {
	l := New(Arg{"bs", "4k"})

	got := Set(l, "rw", "read")

	assert.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"bs", "rw"}, got.Names())
}

func TestSet_DoesNotAliasInput(t *testing.T) {
	// GIVEN a list with spare capacity in its backing array
	base := Set(Set(List{}, "a", "1"), "b", "2")

	// WHEN two lists are derived from it
	x := Set(base, "c", "x")
	y := Set(base, "c", "y")

	// THEN neither derivation leaks into the other or into the base
	vx, _ := Get(x, "c")
	vy, _ := Get(y, "c")
	assert.Equal(t, "x", vx)
	assert.Equal(t, "y", vy)
	_, ok := Get(base, "c")
	assert.False(t, ok, "base must not observe derived writes")

	z := Set(base, "a", "changed")
	va, _ := Get(base, "a")
	assert.Equal(t, "1", va)
	assert.NotEqual(t, base.String(), z.String())
}

func TestGet_Absent(t *testing.T) {
	_, ok := Get(List{}, "missing")
	assert.False(t, ok)
}

func TestSetGetLaws(t *testing.T) {
	lists := []List{
		{},
		New(Arg{"a", "1"}),
		New(Arg{"a", "1"}, Arg{"n", "old"}, Arg{"z", "9"}),
	}
	for _, l := range lists {
		// get(set(L,n,v1), n) = v1
		v, ok := Get(Set(l, "n", "v1"), "n")
		assert.True(t, ok)
		assert.Equal(t, "v1", v)

		// set(set(L,n,v1),n,v2) = set(L,n,v2)
		twice := Set(Set(l, "n", "v1"), "n", "v2")
		once := Set(l, "n", "v2")
		assert.True(t, twice.Equal(once), "overwrite must be idempotent: %s vs %s", twice, once)

		// length grows only when the name was absent
		_, present := Get(l, "n")
		wantLen := l.Len() + 1
		if present {
			wantLen = l.Len()
		}
		assert.Equal(t, wantLen, Set(l, "n", "v").Len())
	}
}

func TestDelLaws(t *testing.T) {
	lists := []List{
		{},
		New(Arg{"n", "1"}),
		New(Arg{"a", "1"}, Arg{"n", "2"}, Arg{"z", "3"}),
	}
	for _, l := range lists {
		once := Del(l, "n")
		_, ok := Get(once, "n")
		assert.False(t, ok)
		assert.True(t, Del(once, "n").Equal(once), "deletion must be idempotent")
	}
}

func TestDel_PreservesOrder(t *testing.T) {
	l := New(Arg{"a", "1"}, Arg{"b", "2"}, Arg{"c", "3"})
	got := Del(l, "b")
	if diff := cmp.Diff([]Arg{{"a", "1"}, {"c", "3"}}, got.Args()); diff != "" {
		t.Errorf("Del mismatch (-want +got):\n%s", diff)
	}
}

func TestFlags_ListOrder(t *testing.T) {
	l := New(Arg{"bs", "4k"}, Arg{"rw", "randread"})
	assert.Equal(t, []string{"--bs", "4k", "--rw", "randread"}, l.Flags())
	assert.Equal(t, "bs=4k rw=randread", l.String())
}

func TestNew_DuplicateKeepsFirstPosition(t *testing.T) {
	l := New(Arg{"a", "1"}, Arg{"b", "2"}, Arg{"a", "3"})
	if diff := cmp.Diff([]Arg{{"a", "3"}, {"b", "2"}}, l.Args()); diff != "" {
		t.Errorf("New mismatch (-want +got):\n%s", diff)
	}
}
