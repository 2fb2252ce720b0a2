package icelock

// ordered is an insertion-ordered table. It backs records, maps and sets.
// Keys of type any must be checked with hashable before use.
type ordered[K comparable] struct {
	keys  []K
	vals  []any
	index map[K]int
}

func newOrdered[K comparable](size int) *ordered[K] {
	return &ordered[K]{
		keys:  make([]K, 0, size),
		vals:  make([]any, 0, size),
		index: make(map[K]int, size),
	}
}

func (o *ordered[K]) len() int {
	return len(o.keys)
}

func (o *ordered[K]) get(k K) (any, bool) {
	i, ok := o.index[k]
	if !ok {
		return nil, false
	}
	return o.vals[i], true
}

func (o *ordered[K]) has(k K) bool {
	_, ok := o.index[k]
	return ok
}

// put stores v under k. An existing key keeps its position.
func (o *ordered[K]) put(k K, v any) {
	if i, ok := o.index[k]; ok {
		o.vals[i] = v
		return
	}
	o.index[k] = len(o.keys)
	o.keys = append(o.keys, k)
	o.vals = append(o.vals, v)
}

func (o *ordered[K]) remove(k K) bool {
	i, ok := o.index[k]
	if !ok {
		return false
	}
	delete(o.index, k)
	o.keys = append(o.keys[:i], o.keys[i+1:]...)
	o.vals = append(o.vals[:i], o.vals[i+1:]...)
	for j := i; j < len(o.keys); j++ {
		o.index[o.keys[j]] = j
	}
	return true
}

func (o *ordered[K]) clear() {
	clear(o.index)
	clear(o.keys)
	clear(o.vals)
	o.keys = o.keys[:0]
	o.vals = o.vals[:0]
}
