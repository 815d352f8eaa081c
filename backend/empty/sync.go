package empty

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/rhi/gpucore"
)

// Fence is a CPU-waitable completion signal for one submission.
// A fence is reset when it is submitted again.
type Fence struct {
	dev *device

	mu        sync.Mutex
	submitted bool
	done      chan struct{}
}

// Status reports whether the fence is unsubmitted, pending or signaled.
func (f *Fence) Status() (gpucore.FenceStatus, error) {
	if err := f.dev.alive("get_fence_status"); err != nil {
		return gpucore.FenceStatusUnsubmitted, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.submitted {
		return gpucore.FenceStatusUnsubmitted, nil
	}
	select {
	case <-f.done:
		return gpucore.FenceStatusComplete, nil
	default:
		return gpucore.FenceStatusIncomplete, nil
	}
}

// begin resets the fence for a new submission. It fails if the fence is
// still pending from an earlier one.
func (f *Fence) begin(op string) (chan struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitted {
		select {
		case <-f.done:
		default:
			return nil, gpucore.Errorf(backend, op, gpucore.ErrInvalidState,
				"fence is still pending from an earlier submission")
		}
	}
	f.submitted = true
	f.done = make(chan struct{})
	return f.done, nil
}

// signalNow submits and signals the fence in one step, as an acquire does.
func (f *Fence) signalNow(op string) error {
	done, err := f.begin(op)
	if err != nil {
		return err
	}
	close(done)
	return nil
}

func (f *Fence) wait(op string, deadline time.Time) error {
	f.mu.Lock()
	submitted, done := f.submitted, f.done
	f.mu.Unlock()
	if !submitted {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}
	if f.dev.isLost() {
		return gpucore.Errorf(backend, op, gpucore.ErrDeviceLost, "device was lost")
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return gpucore.Errorf(backend, op, gpucore.ErrTimeout, "fence not signaled")
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-f.dev.lost:
		return gpucore.Errorf(backend, op, gpucore.ErrDeviceLost, "device was lost")
	case <-timer.C:
		return gpucore.Errorf(backend, op, gpucore.ErrTimeout, "fence not signaled within the timeout")
	}
}

// Semaphore orders GPU work. It carries a pending-signal flag: a submission
// that signals it sets the flag and the next wait consumes it.
type Semaphore struct {
	dev     *device
	pending atomic.Bool
}

// SignalPending reports whether a signal is waiting to be consumed.
func (s *Semaphore) SignalPending() bool {
	return s.pending.Load()
}

func (s *Semaphore) signal() { s.pending.Store(true) }

// consume clears the pending signal and reports whether there was one.
func (s *Semaphore) consume() bool { return s.pending.Swap(false) }
