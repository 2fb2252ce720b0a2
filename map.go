package icelock

import (
	"fmt"
	"iter"
	"slices"
)

// Map is a guarded view of a key-value map. Entries keep insertion order.
// Keys are stored as given; only values are wrapped.
type Map struct {
	h      *Handle
	shadow *ordered[any]
}

func (m *Map) Kind() Kind      { return KindMap }
func (m *Map) Len() int        { return m.shadow.len() }
func (m *Map) Frozen() bool    { return m.h.Frozen() }
func (m *Map) handle() *Handle { return m.h }

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if !hashable(key) {
		return nil, false
	}
	return m.shadow.get(key)
}

// Has reports whether key is present.
func (m *Map) Has(key any) bool {
	return hashable(key) && m.shadow.has(key)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	return slices.Clone(m.shadow.keys)
}

// All iterates over the entries in insertion order.
func (m *Map) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for i := 0; i < len(m.shadow.keys); i++ {
			if !yield(m.shadow.keys[i], m.shadow.vals[i]) {
				return
			}
		}
	}
}

// Set stores value under key.
func (m *Map) Set(key, value any) error {
	if m.h.Frozen() {
		return m.h.reject(OpSet, key)
	}
	if !hashable(key) {
		return fmt.Errorf("%w: map key %T", ErrUnhashable, key)
	}
	v, err := m.h.adopt(value)
	if err != nil {
		return err
	}
	m.shadow.put(key, v)
	return nil
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key any) (bool, error) {
	if m.h.Frozen() {
		return false, m.h.reject(OpDelete, key)
	}
	if !hashable(key) {
		return false, nil
	}
	return m.shadow.remove(key), nil
}

// Clear removes every entry.
func (m *Map) Clear() error {
	if m.h.Frozen() {
		return m.h.reject(OpClear, nil)
	}
	m.shadow.clear()
	return nil
}
