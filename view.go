package icelock

import "fmt"

// Kind identifies the container kind behind a view.
type Kind int

const (
	KindRecord Kind = iota
	KindSequence
	KindMap
	KindSet
)

// String returns the noun used in error messages.
func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "object"
	case KindSequence:
		return "array"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// View is a guarded container. It is implemented only by *Record, *Sequence,
// *Map and *Set.
type View interface {
	Kind() Kind
	Len() int

	// Frozen reports the state of the handle that owns this view.
	Frozen() bool

	String() string

	handle() *Handle
}

// Field is one entry of a Fields literal.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered record literal. Lock treats it as a record and Clone
// returns records in this form.
type Fields []Field

// Get returns the value of the first field named key.
func (f Fields) Get(key string) (any, bool) {
	for _, fld := range f {
		if fld.Key == key {
			return fld.Value, true
		}
	}
	return nil, false
}

// Pair is one entry of a Pairs literal.
type Pair struct {
	Key   any
	Value any
}

// Pairs is an ordered map literal. Lock treats it as a map and Clone returns
// maps in this form.
type Pairs []Pair

// Members is an ordered set literal. Composite members are permitted because
// Lock replaces them with views, which are comparable.
type Members []any
