package rhi

import (
	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// Fence is a GPU-to-CPU completion signal. Submitting a fence resets it.
type Fence struct {
	variant[*empty.Fence, *native.Fence]
}

func (f *Fence) v() *variant[*empty.Fence, *native.Fence] {
	if f == nil {
		return nil
	}
	return &f.variant
}

// Status reports whether the fence is unsubmitted, pending or complete.
func (f *Fence) Status() (gpucore.FenceStatus, error) {
	if f.backend == gpucore.BackendEmpty {
		return f.e.Status()
	}
	return f.n.Status()
}

// Destroy frees the native fence. Empty fences need no cleanup.
func (f *Fence) Destroy() {
	if f.backend != gpucore.BackendEmpty {
		f.n.Destroy()
	}
}

// Semaphore orders GPU work. It carries a pending signal between the
// submission that signals it and the one that waits on it.
type Semaphore struct {
	variant[*empty.Semaphore, *native.Semaphore]
}

func (s *Semaphore) v() *variant[*empty.Semaphore, *native.Semaphore] {
	if s == nil {
		return nil
	}
	return &s.variant
}

// SignalPending reports whether a signal is waiting to be consumed.
func (s *Semaphore) SignalPending() bool {
	if s.backend == gpucore.BackendEmpty {
		return s.e.SignalPending()
	}
	return s.n.SignalPending()
}

func emptySemaphores(op string, in []*Semaphore) ([]*empty.Semaphore, error) {
	return mapAll(in, func(s *Semaphore) (*empty.Semaphore, error) { return s.v().emptyFor(op) })
}

func nativeSemaphores(op string, b gpucore.Backend, in []*Semaphore) ([]*native.Semaphore, error) {
	return mapAll(in, func(s *Semaphore) (*native.Semaphore, error) { return s.v().nativeFor(op, b) })
}
