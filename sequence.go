package icelock

import (
	"fmt"
	"iter"
	"slices"
)

// Sequence is a guarded view of a slice or array.
type Sequence struct {
	h      *Handle
	shadow []any
}

func (s *Sequence) Kind() Kind      { return KindSequence }
func (s *Sequence) Len() int        { return len(s.shadow) }
func (s *Sequence) Frozen() bool    { return s.h.Frozen() }
func (s *Sequence) handle() *Handle { return s.h }

// Get returns the element at i. It reports false when i is out of range.
func (s *Sequence) Get(i int) (any, bool) {
	if i < 0 || i >= len(s.shadow) {
		return nil, false
	}
	return s.shadow[i], true
}

// Values returns a copy of the elements.
func (s *Sequence) Values() []any {
	return slices.Clone(s.shadow)
}

// All iterates over the elements in order.
func (s *Sequence) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i := 0; i < len(s.shadow); i++ {
			if !yield(i, s.shadow[i]) {
				return
			}
		}
	}
}

// Set stores value at index i. Setting past the end grows the sequence,
// filling the gap with nil.
func (s *Sequence) Set(i int, value any) error {
	if s.h.Frozen() {
		return s.h.reject(OpSet, i)
	}
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	v, err := s.h.adopt(value)
	if err != nil {
		return err
	}
	if i >= len(s.shadow) {
		s.shadow = append(s.shadow, make([]any, i+1-len(s.shadow))...)
	}
	s.shadow[i] = v
	return nil
}

// Push appends value and returns the new length.
func (s *Sequence) Push(value any) (int, error) {
	if s.h.Frozen() {
		return len(s.shadow), s.h.reject(OpPush, value)
	}
	v, err := s.h.adopt(value)
	if err != nil {
		return len(s.shadow), err
	}
	s.shadow = append(s.shadow, v)
	return len(s.shadow), nil
}

// Pop removes and returns the last element. Popping an empty sequence
// returns nil.
func (s *Sequence) Pop() (any, error) {
	if s.h.Frozen() {
		return nil, s.h.reject(OpPop, nil)
	}
	n := len(s.shadow)
	if n == 0 {
		return nil, nil
	}
	last := s.shadow[n-1]
	s.shadow[n-1] = nil
	s.shadow = s.shadow[:n-1]
	return last, nil
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place and returns the removed elements. A negative start counts back
// from the end; start and deleteCount are clamped to the sequence.
func (s *Sequence) Splice(start, deleteCount int, items ...any) ([]any, error) {
	if s.h.Frozen() {
		err := s.h.reject(OpSplice, start)
		err.DeleteCount = deleteCount
		return nil, err
	}
	n := len(s.shadow)
	if start < 0 {
		start = max(n+start, 0)
	}
	start = min(start, n)
	deleteCount = min(max(deleteCount, 0), n-start)

	inserted := make([]any, len(items))
	for i, item := range items {
		v, err := s.h.adopt(item)
		if err != nil {
			return nil, err
		}
		inserted[i] = v
	}

	removed := slices.Clone(s.shadow[start : start+deleteCount])
	s.shadow = slices.Replace(s.shadow, start, start+deleteCount, inserted...)
	return removed, nil
}
