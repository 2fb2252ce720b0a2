package icelock

import (
	"fmt"
	"iter"
	"slices"
)

// Set is a guarded view of a set. Members keep insertion order.
type Set struct {
	h      *Handle
	shadow *ordered[any]
}

func (s *Set) Kind() Kind      { return KindSet }
func (s *Set) Len() int        { return s.shadow.len() }
func (s *Set) Frozen() bool    { return s.h.Frozen() }
func (s *Set) handle() *Handle { return s.h }

// Has reports whether value is a member.
func (s *Set) Has(value any) bool {
	return hashable(value) && s.shadow.has(value)
}

// Values returns the members in insertion order.
func (s *Set) Values() []any {
	return slices.Clone(s.shadow.keys)
}

// At returns the member at position i in insertion order.
func (s *Set) At(i int) (any, bool) {
	if i < 0 || i >= len(s.shadow.keys) {
		return nil, false
	}
	return s.shadow.keys[i], true
}

// All iterates over the members in insertion order.
func (s *Set) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := 0; i < len(s.shadow.keys); i++ {
			if !yield(s.shadow.keys[i]) {
				return
			}
		}
	}
}

// Add inserts value. Adding an existing member is a no-op.
func (s *Set) Add(value any) error {
	if s.h.Frozen() {
		return s.h.reject(OpAdd, value)
	}
	v, err := s.h.adopt(value)
	if err != nil {
		return err
	}
	if !hashable(v) {
		return fmt.Errorf("%w: set member %T", ErrUnhashable, v)
	}
	s.shadow.put(v, nil)
	return nil
}

// Delete removes value and reports whether it was a member.
func (s *Set) Delete(value any) (bool, error) {
	if s.h.Frozen() {
		return false, s.h.reject(OpDelete, value)
	}
	if !hashable(value) {
		return false, nil
	}
	return s.shadow.remove(value), nil
}

// Clear removes every member.
func (s *Set) Clear() error {
	if s.h.Frozen() {
		return s.h.reject(OpClear, nil)
	}
	s.shadow.clear()
	return nil
}
