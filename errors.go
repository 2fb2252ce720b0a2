// Package icelock provides deep, toggleable mutability guards for composite
// values: records, sequences, maps and sets. Reads through a guarded view always
// succeed; mutations are rejected while the owning handle is frozen.
package icelock

import (
	"errors"
	"fmt"
)

// Construction errors
var (
	// ErrNullInput indicates that Lock was called with a nil value.
	ErrNullInput = errors.New("Cannot freeze null.")

	// ErrNotComposite indicates that the top-level value is not a record,
	// sequence, map or set, so there is nothing to guard.
	ErrNotComposite = errors.New("value is not a composite")

	// ErrCyclicInput indicates that a value refers back to one of its own
	// enclosing containers.
	ErrCyclicInput = errors.New("cannot freeze cyclic input")
)

// Mutation errors
var (
	// ErrFrozen matches every *FrozenError via errors.Is.
	ErrFrozen = errors.New("mutation while frozen")

	// ErrUnhashable indicates that a map key or set member is not comparable.
	ErrUnhashable = errors.New("value is not hashable")

	// ErrIndexOutOfRange indicates a negative sequence index.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Path errors
var (
	// ErrPathNotFound indicates that a path does not resolve inside a view.
	ErrPathNotFound = errors.New("path not found")

	// ErrInvalidPath indicates that a path string could not be parsed.
	ErrInvalidPath = errors.New("invalid path")
)

// Op names a guarded mutating operation.
type Op int

const (
	OpSet Op = iota
	OpDelete
	OpPush
	OpPop
	OpSplice
	OpAdd
	OpClear
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	case OpPush:
		return "push"
	case OpPop:
		return "pop"
	case OpSplice:
		return "splice"
	case OpAdd:
		return "add"
	case OpClear:
		return "clear"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// FrozenError reports a mutation rejected because the view was frozen.
// Nothing was changed when it is returned.
type FrozenError struct {
	Kind Kind
	Op   Op

	// Subject is the key, index or value named by the operation. It is the
	// splice start for OpSplice and nil for OpPop and OpClear.
	Subject any

	// DeleteCount is only meaningful for OpSplice.
	DeleteCount int

	// subject is Subject rendered when the error was raised, so later
	// mutations of Subject cannot change the message.
	subject string
}

func newFrozenError(kind Kind, op Op, subject any) *FrozenError {
	return &FrozenError{Kind: kind, Op: op, Subject: subject, subject: formatValue(subject)}
}

func (e *FrozenError) Error() string {
	switch e.Op {
	case OpPop:
		return fmt.Sprintf("Cannot pop, %s is frozen.", e.Kind)
	case OpClear:
		return fmt.Sprintf("Cannot clear %s, %s is frozen.", e.Kind, e.Kind)
	case OpSplice:
		return fmt.Sprintf("Cannot splice %s, %d, %s is frozen.", e.subject, e.DeleteCount, e.Kind)
	}
	return fmt.Sprintf("Cannot %s %s, %s is frozen.", e.Op, e.subject, e.Kind)
}

// Is reports whether target is ErrFrozen.
func (e *FrozenError) Is(target error) bool {
	return target == ErrFrozen
}
