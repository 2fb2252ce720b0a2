package icelock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func nestedDocument() Fields {
	return Fields{
		{"name", "root"},
		{"list", []any{1, []any{2, 3}, Fields{{"deep", true}}}},
		{"lookup", Pairs{{"k", Members{"x", "y"}}}},
	}
}

func TestCascade(t *testing.T) {
	h, err := Lock(nestedDocument())
	require.NoError(t, err)

	// root, list, list[1], list[2], lookup, lookup.k
	assert.Equal(t, Census{Nodes: 6, Frozen: 6}, h.Census())

	h.Unfreeze()
	assert.Equal(t, Census{Nodes: 6, Thawed: 6}, h.Census())

	h.Freeze()
	assert.Equal(t, Census{Nodes: 6, Frozen: 6}, h.Census())
}

func TestCascadeOrder(t *testing.T) {
	h, err := Lock(nestedDocument())
	require.NoError(t, err)

	var kinds []Kind
	var depths []int
	h.Walk(func(depth int, n *Handle) bool {
		kinds = append(kinds, n.View().Kind())
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []Kind{KindRecord, KindSequence, KindSequence, KindRecord, KindMap, KindSet}, kinds)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 2}, depths)
}

func TestWalkPrune(t *testing.T) {
	h, err := Lock(nestedDocument())
	require.NoError(t, err)

	visited := 0
	h.Walk(func(depth int, n *Handle) bool {
		visited++
		return depth == 0
	})
	assert.Equal(t, 3, visited)
}

func TestDivergedSubtreeIsResynchronised(t *testing.T) {
	h, err := Lock(nestedDocument())
	require.NoError(t, err)

	list := mustGet(t, h.Record(), "list").(*Sequence)
	sub, ok := h.Find(list)
	require.True(t, ok)

	// Thaw only the list subtree.
	sub.Unfreeze()
	assert.True(t, h.Frozen())
	assert.False(t, list.Frozen())
	_, err = list.Push(4)
	require.NoError(t, err)
	assert.EqualError(t, h.Record().Set("x", 1), "Cannot set x, object is frozen.")

	// Freezing an already frozen root still reaches the thawed subtree.
	h.Freeze()
	assert.Equal(t, Census{Nodes: 6, Frozen: 6}, h.Census())
	_, err = list.Push(5)
	assert.ErrorIs(t, err, ErrFrozen)
}

func TestFindForeignView(t *testing.T) {
	h1, err := Lock([]any{[]any{1}})
	require.NoError(t, err)
	h2, err := Lock([]any{1})
	require.NoError(t, err)

	_, ok := h1.Find(h2.View())
	assert.False(t, ok)
	_, ok = h1.Find(nil)
	assert.False(t, ok)

	found, ok := h1.Find(h1.View())
	assert.True(t, ok)
	assert.Same(t, h1, found)
}

func TestRewrapInserted(t *testing.T) {
	t.Run("default stores raw values", func(t *testing.T) {
		h, err := LockWithOptions([]any{}, Options{Initial: Thawed})
		require.NoError(t, err)
		_, err = h.Sequence().Push([]any{1})
		require.NoError(t, err)
		h.Freeze()

		raw := mustAt(t, h.Sequence(), 0)
		assert.IsType(t, []any{}, raw)
		assert.Equal(t, 0, h.Children())
	})

	t.Run("rewrap guards inserted composites", func(t *testing.T) {
		h, err := LockWithOptions(Fields{}, Options{Initial: Thawed, RewrapInserted: true})
		require.NoError(t, err)

		src := []any{1}
		require.NoError(t, h.Record().Set("list", src))
		assert.Equal(t, 1, h.Children())

		list := mustGet(t, h.Record(), "list").(*Sequence)
		assert.False(t, list.Frozen())
		_, err = list.Push(2)
		require.NoError(t, err)
		assert.Len(t, src, 1)

		h.Freeze()
		_, err = list.Push(3)
		assert.EqualError(t, err, "Cannot push 3, array is frozen.")
	})

	t.Run("rewrap in every view kind", func(t *testing.T) {
		opts := Options{Initial: Thawed, RewrapInserted: true}

		m, err := LockWithOptions(Pairs{}, opts)
		require.NoError(t, err)
		require.NoError(t, m.Map().Set("k", Pairs{}))

		s, err := LockWithOptions(Members{}, opts)
		require.NoError(t, err)
		require.NoError(t, s.Set().Add([]any{1}))
		member, _ := s.Set().At(0)
		assert.IsType(t, &Sequence{}, member)

		q, err := LockWithOptions([]any{0}, opts)
		require.NoError(t, err)
		require.NoError(t, q.Sequence().Set(0, Fields{}))
		_, err = q.Sequence().Splice(0, 0, []any{}, Members{})
		require.NoError(t, err)

		for _, h := range []*Handle{m, s, q} {
			h.Freeze()
			c := h.Census()
			assert.Equal(t, c.Nodes, c.Frozen)
			assert.Greater(t, c.Nodes, 1)
		}
	})

	t.Run("rewrap rejects cyclic insert", func(t *testing.T) {
		h, err := LockWithOptions([]any{}, Options{Initial: Thawed, RewrapInserted: true})
		require.NoError(t, err)
		loop := []any{nil}
		loop[0] = loop
		_, err = h.Sequence().Push(loop)
		assert.ErrorIs(t, err, ErrCyclicInput)
		assert.Equal(t, 0, h.Sequence().Len())
	})
}

func TestDebugLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h, err := LockWithOptions([]any{[]any{1}}, Options{Logger: zap.New(core)})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("icelock: constructed").Len())

	_, err = h.Sequence().Push(1)
	require.Error(t, err)
	rejected := logs.FilterMessage("icelock: mutation rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "push", rejected[0].ContextMap()["op"])

	h.Unfreeze()
	assert.Equal(t, 2, logs.FilterMessage("icelock: state changed").Len())
}
