package icelock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockNull(t *testing.T) {
	var nilPtr *struct{ A int }
	var nilIface error

	for name, v := range map[string]any{
		"untyped nil": nil,
		"nil pointer": nilPtr,
		"nil error":   nilIface,
	} {
		t.Run(name, func(t *testing.T) {
			h, err := Lock(v)
			require.ErrorIs(t, err, ErrNullInput)
			assert.EqualError(t, err, "Cannot freeze null.")
			assert.Nil(t, h)
		})
	}
}

func TestLockPrimitive(t *testing.T) {
	for _, v := range []any{1, "text", true, 2.5, []byte("raw")} {
		_, err := Lock(v)
		assert.ErrorIs(t, err, ErrNotComposite, "%T", v)
	}
}

func TestLockKinds(t *testing.T) {
	type point struct {
		X, Y int
	}

	tests := []struct {
		name  string
		value any
		kind  Kind
		len   int
	}{
		{"struct", point{1, 2}, KindRecord, 2},
		{"struct pointer", &point{1, 2}, KindRecord, 2},
		{"fields", Fields{{"a", 1}}, KindRecord, 1},
		{"slice", []int{1, 2, 3}, KindSequence, 3},
		{"array", [2]string{"a", "b"}, KindSequence, 2},
		{"nil slice", []int(nil), KindSequence, 0},
		{"map", map[string]int{"a": 1, "b": 2}, KindMap, 2},
		{"pairs", Pairs{{1, "one"}}, KindMap, 1},
		{"native set", map[int]struct{}{1: {}, 2: {}}, KindSet, 2},
		{"members", Members{"x"}, KindSet, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Lock(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, h.View().Kind())
			assert.Equal(t, tt.len, h.View().Len())
			assert.True(t, h.Frozen())
			assert.True(t, h.View().Frozen())
		})
	}
}

func TestLockDoesNotTouchInput(t *testing.T) {
	input := map[string]any{"a": 1}
	h, err := LockWithOptions(input, Options{Initial: Thawed})
	require.NoError(t, err)

	require.NoError(t, h.Map().Set("b", 2))
	assert.Len(t, input, 1)
	assert.Equal(t, 2, h.View().Len())
}

func TestStructTags(t *testing.T) {
	type tagged struct {
		Name    string `icelock:"name"`
		Secret  string `icelock:"-"`
		Visible int
		hidden  int
	}

	h, err := Lock(tagged{Name: "n", Secret: "s", Visible: 1, hidden: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "Visible"}, h.Record().Keys())
}

func TestStructWithoutExportedFieldsIsPrimitive(t *testing.T) {
	type opaque struct{ n int }

	h, err := Lock([]any{opaque{1}})
	require.NoError(t, err)
	v, ok := h.Sequence().Get(0)
	require.True(t, ok)
	assert.Equal(t, opaque{1}, v)
	assert.Equal(t, 0, h.Children())
}

func TestNativeMapOrderIsSorted(t *testing.T) {
	h, err := Lock(map[any]int{"b": 1, 10: 2, "a": 3, 2: 4})
	require.NoError(t, err)
	assert.Equal(t, []any{2, 10, "a", "b"}, h.Map().Keys())
}

func TestNestedNilIsPrimitive(t *testing.T) {
	type node struct {
		Next *node
	}

	h, err := Lock(&node{})
	require.NoError(t, err)
	v, ok := h.Record().Get("Next")
	require.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 0, h.Children())
}

func TestOptionsInitialState(t *testing.T) {
	t.Run("frozen by default", func(t *testing.T) {
		h, err := Lock(Fields{{"a", 1}, {"b", 2}})
		require.NoError(t, err)
		assert.EqualError(t, h.Record().Set("c", 3), "Cannot set c, object is frozen.")
	})

	t.Run("thawed", func(t *testing.T) {
		h, err := LockWithOptions(Fields{{"a", 1}, {"b", 2}}, Options{Initial: Thawed})
		require.NoError(t, err)
		require.NoError(t, h.Record().Set("c", 3))
		v, _ := h.Record().Get("c")
		assert.Equal(t, 3, v)
	})

	t.Run("explicitly frozen", func(t *testing.T) {
		h, err := LockWithOptions(Fields{{"a", 1}, {"b", 2}}, Options{Initial: Frozen})
		require.NoError(t, err)
		assert.EqualError(t, h.Record().Set("c", 3), "Cannot set c, object is frozen.")
	})
}

// Scenario A from the nested record case.
func TestNestedRecordScenario(t *testing.T) {
	h, err := Lock(Fields{{"a", Fields{{"b", 1}}}})
	require.NoError(t, err)

	a := mustGet(t, h.Record(), "a").(*Record)
	assert.EqualError(t, a.Set("b", 2), "Cannot set b, object is frozen.")

	h.Unfreeze()
	require.NoError(t, a.Set("b", 2))
	b, _ := a.Get("b")
	assert.Equal(t, 2, b)
}

// Scenario B from the nested sequence case.
func TestNestedSequenceScenario(t *testing.T) {
	h, err := Lock([]any{1, []any{2}})
	require.NoError(t, err)

	inner := mustAt(t, h.Sequence(), 1).(*Sequence)
	_, err = inner.Push(3)
	assert.EqualError(t, err, "Cannot push 3, array is frozen.")

	h.Unfreeze()
	n, err := inner.Push(3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, inner.Len())
}

// Scenario C: the top-level option is honoured without calling Unfreeze.
func TestThawedMapScenario(t *testing.T) {
	h, err := LockWithOptions(Pairs{{"a", 1}}, Options{Initial: Thawed})
	require.NoError(t, err)
	require.NoError(t, h.Map().Set("x", 1))
	assert.True(t, h.Map().Has("x"))
}

func TestChildrenIgnoreInitialOption(t *testing.T) {
	h, err := LockWithOptions(Fields{{"a", Fields{{"b", 1}}}}, Options{Initial: Thawed})
	require.NoError(t, err)

	require.NoError(t, h.Record().Set("top", true))
	a := mustGet(t, h.Record(), "a").(*Record)
	assert.True(t, a.Frozen())
	assert.EqualError(t, a.Set("b", 2), "Cannot set b, object is frozen.")
}

func TestInheritState(t *testing.T) {
	h, err := LockWithOptions(Fields{{"a", Fields{{"b", []any{1}}}}}, Options{
		Initial:      Thawed,
		InheritState: true,
	})
	require.NoError(t, err)

	assert.Equal(t, Census{Nodes: 3, Thawed: 3}, h.Census())
	a := mustGet(t, h.Record(), "a").(*Record)
	require.NoError(t, a.Set("b", 2))
}

func TestHandleAccessorsByKind(t *testing.T) {
	h, err := Lock([]int{1})
	require.NoError(t, err)
	assert.NotNil(t, h.Sequence())
	assert.Nil(t, h.Record())
	assert.Nil(t, h.Map())
	assert.Nil(t, h.Set())
}

func TestHandlesAreIndependent(t *testing.T) {
	input := []int{1}
	h1, err := Lock(input)
	require.NoError(t, err)
	h2, err := Lock(input)
	require.NoError(t, err)

	h1.Unfreeze()
	_, err = h1.Sequence().Push(2)
	require.NoError(t, err)
	_, err = h2.Sequence().Push(2)
	assert.True(t, errors.Is(err, ErrFrozen))
}

func TestLockExistingView(t *testing.T) {
	h, err := Lock(Fields{{"a", []any{1}}})
	require.NoError(t, err)

	again, err := LockWithOptions(h.View(), Options{Initial: Thawed})
	require.NoError(t, err)
	require.NoError(t, again.Record().Set("b", 2))
	assert.False(t, h.Record().Has("b"))

	inner := mustGet(t, again.Record(), "a").(*Sequence)
	orig := mustGet(t, h.Record(), "a").(*Sequence)
	assert.NotSame(t, orig, inner)
}

func mustGet(t *testing.T, r *Record, key string) any {
	t.Helper()
	v, ok := r.Get(key)
	require.True(t, ok, "missing key %q", key)
	return v
}

func mustAt(t *testing.T, s *Sequence, i int) any {
	t.Helper()
	v, ok := s.Get(i)
	require.True(t, ok, "missing index %d", i)
	return v
}
