package icelock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsPlain(t *testing.T) {
	h, err := Lock(nestedDocument())
	require.NoError(t, err)

	got, err := Clone(h.View())
	require.NoError(t, err)

	want := Fields{
		{"name", "root"},
		{"list", []any{1, []any{2, 3}, Fields{{"deep", true}}}},
		{"lookup", Pairs{{"k", Members{"x", "y"}}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Clone mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneOfFrozenViewIsMutable(t *testing.T) {
	h, err := Lock(Fields{{"a", 1}, {"b", 2}})
	require.NoError(t, err)
	h.Freeze()

	v, err := Clone(h.View())
	require.NoError(t, err)
	thawed := v.(Fields)
	thawed = append(thawed, Field{"c", 3})
	c, ok := thawed.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, c)

	// The source is unaffected.
	assert.False(t, h.Record().Has("c"))
	assert.EqualError(t, h.Record().Set("c", 3), "Cannot set c, object is frozen.")
}

func TestCloneRoundTrip(t *testing.T) {
	h, err := Lock(nestedDocument())
	require.NoError(t, err)
	h.Unfreeze()
	list := mustGet(t, h.Record(), "list").(*Sequence)
	_, err = list.Push("tail")
	require.NoError(t, err)

	first, err := Clone(h.View())
	require.NoError(t, err)

	again, err := Lock(first)
	require.NoError(t, err)
	assert.True(t, again.Frozen())
	assert.Equal(t, h.Census().Nodes, again.Census().Nodes)

	second, err := Clone(again.View())
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestCloneNativeValues(t *testing.T) {
	type inner struct{ N int }
	type outer struct {
		In   inner
		List []string
		Set  map[string]struct{}
	}

	got, err := Clone(outer{In: inner{1}, List: []string{"a"}, Set: map[string]struct{}{"b": {}, "a": {}}})
	require.NoError(t, err)

	want := Fields{
		{"In", Fields{{"N", 1}}},
		{"List", []any{"a"}},
		{"Set", Members{"a", "b"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Clone mismatch (-want +got):\n%s", diff)
	}
}

func TestClonePrimitive(t *testing.T) {
	v, err := Clone(42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Clone(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCloneCycle(t *testing.T) {
	h, err := LockWithOptions([]any{}, Options{Initial: Thawed})
	require.NoError(t, err)
	_, err = h.Sequence().Push(h.Sequence())
	require.NoError(t, err)

	_, err = Clone(h.View())
	assert.ErrorIs(t, err, ErrCyclicInput)
}
