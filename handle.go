package icelock

import (
	"go.uber.org/zap"
)

// Handle owns the lock state of one guarded view and the handles of the
// composites discovered directly inside it.
//
// A Handle is not safe for concurrent use.
type Handle struct {
	view  View
	state LockState

	// children holds the direct child handles in discovery order. Freeze and
	// Unfreeze cascade through it.
	children []*Handle

	// opts are the options nested composites are built with, used when a
	// thawed mutation re-wraps an inserted value.
	opts   Options
	logger *zap.Logger
}

// Census counts the handles in a handle tree.
type Census struct {
	Nodes  int
	Frozen int
	Thawed int
}

// View returns the guarded view.
func (h *Handle) View() View {
	return h.view
}

// Record returns the view as a *Record, or nil for other kinds.
func (h *Handle) Record() *Record {
	r, _ := h.view.(*Record)
	return r
}

// Sequence returns the view as a *Sequence, or nil for other kinds.
func (h *Handle) Sequence() *Sequence {
	s, _ := h.view.(*Sequence)
	return s
}

// Map returns the view as a *Map, or nil for other kinds.
func (h *Handle) Map() *Map {
	m, _ := h.view.(*Map)
	return m
}

// Set returns the view as a *Set, or nil for other kinds.
func (h *Handle) Set() *Set {
	s, _ := h.view.(*Set)
	return s
}

// State returns the current lock state.
func (h *Handle) State() LockState {
	return h.state
}

// Frozen reports whether guarded mutations are currently rejected.
func (h *Handle) Frozen() bool {
	return h.state == Frozen
}

// Freeze rejects mutations on this view and every registered descendant.
// The cascade always runs in full, even when h is already frozen, since a
// descendant may have been thawed on its own.
func (h *Handle) Freeze() {
	h.setState(Frozen)
}

// Unfreeze permits mutations on this view and every registered descendant.
func (h *Handle) Unfreeze() {
	h.setState(Thawed)
}

func (h *Handle) setState(s LockState) {
	h.state = s
	for _, child := range h.children {
		child.setState(s)
	}
	h.logger.Debug("icelock: state changed",
		zap.Stringer("kind", h.view.Kind()),
		zap.Stringer("state", s),
		zap.Int("children", len(h.children)))
}

// Children returns the number of directly registered child handles.
func (h *Handle) Children() int {
	return len(h.children)
}

// Walk visits h and its descendants depth-first, parents before children and
// children in registry order. Returning false from fn skips the descendants
// of that handle.
func (h *Handle) Walk(fn func(depth int, h *Handle) bool) {
	h.walk(0, fn)
}

func (h *Handle) walk(depth int, fn func(int, *Handle) bool) {
	if !fn(depth, h) {
		return
	}
	for _, child := range h.children {
		child.walk(depth+1, fn)
	}
}

// Find returns the handle that owns v, searching h and its descendants.
// The returned handle can be toggled independently of its ancestors.
func (h *Handle) Find(v View) (*Handle, bool) {
	if v == nil {
		return nil, false
	}
	target := v.handle()
	var found *Handle
	h.Walk(func(_ int, n *Handle) bool {
		if found != nil {
			return false
		}
		if n == target {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Census counts the handles reachable from h by state.
func (h *Handle) Census() Census {
	var c Census
	h.Walk(func(_ int, n *Handle) bool {
		c.Nodes++
		if n.state == Frozen {
			c.Frozen++
		} else {
			c.Thawed++
		}
		return true
	})
	return c
}

// reject builds the error for a mutation attempted while frozen.
func (h *Handle) reject(op Op, subject any) *FrozenError {
	err := newFrozenError(h.view.Kind(), op, subject)
	h.logger.Debug("icelock: mutation rejected",
		zap.Stringer("kind", err.Kind),
		zap.Stringer("op", op))
	return err
}

// adopt prepares a value a thawed mutation is about to store. Composite
// values are wrapped and registered when RewrapInserted is set; everything
// else is stored as given. An adopted value starts in h's current state.
func (h *Handle) adopt(value any) (any, error) {
	if !h.opts.RewrapInserted || !isComposite(value) {
		return value, nil
	}
	opts := h.opts
	opts.Initial = h.state
	b := &builder{}
	child, err := b.build(value, opts, Path{})
	if err != nil {
		return nil, err
	}
	h.children = append(h.children, child)
	return child.view, nil
}
