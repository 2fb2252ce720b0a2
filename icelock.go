package icelock

import (
	"go.uber.org/zap"
)

// LockState is the state of a single handle.
type LockState int

const (
	// Frozen rejects every guarded mutation. It is the default.
	Frozen LockState = iota

	// Thawed permits guarded mutations.
	Thawed
)

func (s LockState) String() string {
	if s == Thawed {
		return "thawed"
	}
	return "frozen"
}

// Options configures Lock.
type Options struct {
	// Initial is the starting state of the top-level handle only.
	// Nested composites start Frozen unless InheritState is set.
	Initial LockState

	// InheritState starts every nested composite in Initial as well.
	InheritState bool

	// RewrapInserted wraps composite values inserted by a thawed mutation in
	// their own guard and registers it with the inserting handle, so they
	// follow later Freeze and Unfreeze calls. By default such values are
	// stored raw and stay fully mutable.
	RewrapInserted bool

	// Logger receives debug events. Nil disables logging.
	Logger *zap.Logger
}

// childOptions returns the options used for composites discovered inside a
// value built with o.
func (o Options) childOptions() Options {
	child := o
	if !o.InheritState {
		child.Initial = Frozen
	}
	return child
}

// Lock guards value with the default options: the result starts Frozen.
func Lock(value any) (*Handle, error) {
	return LockWithOptions(value, Options{})
}

// LockWithOptions guards value. The value itself is never modified; the
// returned handle's view is backed by a fresh copy of every composite
// reachable from value.
func LockWithOptions(value any, opts Options) (*Handle, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	b := &builder{}
	h, err := b.build(value, opts, nil)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("icelock: constructed",
		zap.Stringer("kind", h.view.Kind()),
		zap.Stringer("state", h.state),
		zap.Int("handles", b.handles))
	return h, nil
}
