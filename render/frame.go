// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/rhi"
)

// ErrFrameEnded is returned when a frame scoped reference is used after its
// frame ended.
var ErrFrameEnded = errors.New("render: frame ended")

// ErrFrameOpen is returned by FrameArena.Begin while the previous frame is
// still open.
var ErrFrameOpen = errors.New("render: previous frame still open")

// FrameArena owns the frames of one frame loop. At most one frame is open
// at a time.
type FrameArena struct {
	mu      sync.Mutex
	next    uint64
	current *Frame
}

// NewFrameArena creates an arena whose first frame has index 0.
func NewFrameArena() *FrameArena {
	return &FrameArena{}
}

// Begin opens the next frame.
func (a *FrameArena) Begin() (*Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil && !a.current.Ended() {
		return nil, ErrFrameOpen
	}
	f := &Frame{arena: a, index: a.next}
	a.next++
	a.current = f
	return f, nil
}

// Current returns the open frame, or nil.
func (a *FrameArena) Current() *Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || a.current.Ended() {
		return nil
	}
	return a.current
}

// Frame is one open frame. It owns the device handles and cleanups
// registered with it until End.
type Frame struct {
	arena *FrameArena
	index uint64
	ended atomic.Bool

	mu       sync.Mutex
	devices  []*rhi.DeviceContext
	cleanups []func()
}

// Index returns the frame number within its arena.
func (f *Frame) Index() uint64 { return f.index }

// Ended reports whether End was called.
func (f *Frame) Ended() bool { return f.ended.Load() }

// Adopt makes the frame own dc; it is released at End. Adopting into an
// ended frame releases dc at once and fails.
func (f *Frame) Adopt(dc *rhi.DeviceContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Ended() {
		dc.Release()
		return ErrFrameEnded
	}
	f.devices = append(f.devices, dc)
	return nil
}

// OnEnd registers fn to run at End. Cleanups run in reverse order of
// registration.
func (f *Frame) OnEnd(fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Ended() {
		return ErrFrameEnded
	}
	f.cleanups = append(f.cleanups, fn)
	return nil
}

// End closes the frame. Every Ref of the frame stops resolving, cleanups
// run and adopted device handles are released. Calling End again is a
// no-op.
func (f *Frame) End() {
	f.mu.Lock()
	if !f.ended.CompareAndSwap(false, true) {
		f.mu.Unlock()
		return
	}
	cleanups, devices := f.cleanups, f.devices
	f.cleanups, f.devices = nil, nil
	f.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	for _, dc := range devices {
		dc.Release()
	}
	rhi.Logger().Debug("render: frame ended", "frame", f.index, "released_devices", len(devices))
}

// Ref is a reference valid until the end of its frame.
type Ref[T any] struct {
	frame *Frame
	value T
}

// Borrow returns a reference to v scoped to f.
func Borrow[T any](f *Frame, v T) Ref[T] {
	return Ref[T]{frame: f, value: v}
}

// Get returns the referenced value while the frame is open.
func (r Ref[T]) Get() (T, error) {
	if r.frame == nil || r.frame.Ended() {
		var zero T
		return zero, ErrFrameEnded
	}
	return r.value, nil
}

// Frame returns the frame the reference belongs to.
func (r Ref[T]) Frame() *Frame { return r.frame }
