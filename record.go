package icelock

import (
	"iter"
	"slices"
)

// Record is a guarded view of a struct or other string-keyed record.
// Its keys keep their original order; keys set later are appended.
type Record struct {
	h      *Handle
	shadow *ordered[string]
}

func (r *Record) Kind() Kind      { return KindRecord }
func (r *Record) Len() int        { return r.shadow.len() }
func (r *Record) Frozen() bool    { return r.h.Frozen() }
func (r *Record) handle() *Handle { return r.h }

// Get returns the value stored under key. Composite values are views.
func (r *Record) Get(key string) (any, bool) {
	return r.shadow.get(key)
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	return r.shadow.has(key)
}

// Keys returns the keys in order.
func (r *Record) Keys() []string {
	return slices.Clone(r.shadow.keys)
}

// All iterates over the fields in order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for i := 0; i < len(r.shadow.keys); i++ {
			if !yield(r.shadow.keys[i], r.shadow.vals[i]) {
				return
			}
		}
	}
}

// Set stores value under key.
func (r *Record) Set(key string, value any) error {
	if r.h.Frozen() {
		return r.h.reject(OpSet, key)
	}
	v, err := r.h.adopt(value)
	if err != nil {
		return err
	}
	r.shadow.put(key, v)
	return nil
}

// Delete removes key. Deleting a missing key from a thawed record is a no-op.
func (r *Record) Delete(key string) error {
	if r.h.Frozen() {
		return r.h.reject(OpDelete, key)
	}
	r.shadow.remove(key)
	return nil
}
