// Package lifetime implements the shared ownership behind cloned device
// contexts: an atomic reference count, a destroyed flag checked at every
// entry point, and optional clone tracking.
package lifetime

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/rhi/internal/tracking"
)

// Shared is the inner record every clone of a device context points to.
type Shared struct {
	label     string
	refs      atomic.Int64
	destroyed atomic.Bool
	once      sync.Once
	destroy   func()
	tracker   *tracking.Tracker
}

// Handle is one owning reference to a Shared record.
type Handle struct {
	shared   *Shared
	released atomic.Bool
	id       uint64
}

// New creates a record with one reference. destroy runs exactly once, when
// the last handle is released.
func New(label string, destroy func()) *Handle {
	s := &Shared{label: label, destroy: destroy, tracker: tracking.New()}
	s.refs.Store(1)
	return &Handle{shared: s, id: s.tracker.Add(label)}
}

// Clone returns a new reference to the same record. Cloning a released
// handle yields a handle that is already released.
func (h *Handle) Clone() *Handle {
	s := h.shared
	if h.released.Load() || s.destroyed.Load() {
		c := &Handle{shared: s}
		c.released.Store(true)
		return c
	}
	s.refs.Add(1)
	return &Handle{shared: s, id: s.tracker.Add(s.label)}
}

// Release drops this handle's reference. Releasing twice is a no-op.
// It reports whether this call destroyed the record.
func (h *Handle) Release() bool {
	if !h.released.CompareAndSwap(false, true) {
		return false
	}
	s := h.shared
	s.tracker.Remove(h.id)
	if s.refs.Add(-1) != 0 {
		return false
	}
	s.once.Do(func() {
		s.destroyed.Store(true)
		if s.destroy != nil {
			s.destroy()
		}
	})
	return true
}

// Alive reports whether operations through h may proceed.
func (h *Handle) Alive() bool {
	return !h.released.Load() && !h.shared.destroyed.Load()
}

// Shared returns the record h points to.
func (h *Handle) Shared() *Shared { return h.shared }

// Destroyed reports whether the last reference has been released.
func (s *Shared) Destroyed() bool { return s.destroyed.Load() }

// Refs returns the live reference count.
func (s *Shared) Refs() int64 { return s.refs.Load() }

// Outstanding returns creation stacks of unreleased clones when built with
// the rhidebug tag, nil otherwise.
func (s *Shared) Outstanding() []string { return s.tracker.Outstanding() }
