package native

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Fence is a CPU-waitable completion signal. It wraps a hal timeline fence;
// each submission signals the next value on the timeline.
type Fence struct {
	dev *device
	hal hal.Fence

	mu     sync.Mutex
	value  uint64
	target uint64
}

// Status reports whether the fence is unsubmitted, pending or signaled.
func (f *Fence) Status() (gpucore.FenceStatus, error) {
	const op = "get_fence_status"
	if err := f.dev.alive(op); err != nil {
		return gpucore.FenceStatusUnsubmitted, err
	}
	f.mu.Lock()
	target, hf := f.target, f.hal
	f.mu.Unlock()
	if hf == nil {
		return gpucore.FenceStatusUnsubmitted, f.destroyedErr(op)
	}
	if target == 0 {
		return gpucore.FenceStatusUnsubmitted, nil
	}
	done, err := f.dev.hal.Wait(hf, target, 0)
	if err != nil {
		return gpucore.FenceStatusIncomplete, f.dev.fail(op, err, gpucore.ErrDeviceLost)
	}
	if done {
		return gpucore.FenceStatusComplete, nil
	}
	return gpucore.FenceStatusIncomplete, nil
}

// begin reserves the next timeline value for a submission. It fails if the
// previous submission has not signaled yet.
func (f *Fence) begin(op string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hal == nil {
		return 0, f.destroyedErr(op)
	}
	if f.target != 0 {
		done, err := f.dev.hal.Wait(f.hal, f.target, 0)
		if err != nil {
			return 0, f.dev.fail(op, err, gpucore.ErrDeviceLost)
		}
		if !done {
			return 0, f.dev.errorf(op, gpucore.ErrInvalidState,
				"fence is still pending from an earlier submission")
		}
	}
	f.value++
	f.target = f.value
	return f.value, nil
}

// abort forgets a reserved value whose submission failed.
func (f *Fence) abort(value uint64) {
	f.mu.Lock()
	if f.target == value {
		f.target = 0
	}
	f.mu.Unlock()
}

func (f *Fence) wait(op string, deadline time.Time) error {
	f.mu.Lock()
	target, hf := f.target, f.hal
	f.mu.Unlock()
	if hf == nil {
		return f.destroyedErr(op)
	}
	if target == 0 {
		return nil
	}
	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	done, err := f.dev.hal.Wait(hf, target, remaining)
	if err != nil {
		return f.dev.fail(op, err, gpucore.ErrDeviceLost)
	}
	if !done {
		return f.dev.errorf(op, gpucore.ErrTimeout, "fence not signaled within the timeout")
	}
	return nil
}

func (f *Fence) destroyedErr(op string) error {
	return f.dev.errorf(op, gpucore.ErrInvalidState, "fence was destroyed")
}

// Destroy frees the hal fence. The fence must not be pending.
func (f *Fence) Destroy() {
	f.dev.owned.remove(f)
	f.release()
}

func (f *Fence) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hal != nil {
		f.dev.hal.DestroyFence(f.hal)
		f.hal = nil
	}
}

// Semaphore orders GPU work. hal queues execute submissions in order, so a
// semaphore only carries the pending-signal flag that lets callers pair
// signals with waits.
type Semaphore struct {
	dev     *device
	pending atomic.Bool
}

// SignalPending reports whether a signal is waiting to be consumed.
func (s *Semaphore) SignalPending() bool {
	return s.pending.Load()
}

func (s *Semaphore) signal() { s.pending.Store(true) }

func (s *Semaphore) consume() bool { return s.pending.Swap(false) }
