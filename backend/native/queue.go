package native

import (
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Queue submits work to the device's hal queue. Every queue type shares
// that queue, so submissions from all queues execute in one order.
type Queue struct {
	dev *device
	typ gpucore.QueueType
}

// QueueType returns the queue type.
func (q *Queue) QueueType() gpucore.QueueType { return q.typ }

// CreateCommandPool creates a pool whose command buffers submit to q.
func (q *Queue) CreateCommandPool(def *gpucore.CommandPoolDef) (*CommandPool, error) {
	if err := q.dev.alive("create_command_pool"); err != nil {
		return nil, err
	}
	var pd gpucore.CommandPoolDef
	if def != nil {
		pd = *def
	}
	return &CommandPool{queue: q, def: pd}, nil
}

// Submit submits recorded command buffers. Wait semaphores without a
// pending signal are skipped, the rest are consumed. Signal semaphores
// become pending. The fence signals once the work has executed.
func (q *Queue) Submit(cmds []*CommandBuffer, wait, signal []*Semaphore, fence *Fence) error {
	const op = "submit"
	dev := q.dev
	if err := dev.usable(op); err != nil {
		return err
	}

	bufs := make([]hal.CommandBuffer, 0, len(cmds))
	for _, cb := range cmds {
		if cb == nil {
			return dev.nilHandle(op, "command buffer")
		}
		if cb.pool.queue.dev != dev {
			return dev.foreign(op, "command buffer")
		}
		if cb.pool.queue != q {
			return dev.errorf(op, gpucore.ErrInvalidDefinition, "command buffer was allocated for another queue")
		}
		if cb.state != cbExecutable {
			return dev.errorf(op, gpucore.ErrInvalidState, "command buffer is %s, want executable", cb.state)
		}
		bufs = append(bufs, cb.recorded)
	}
	for _, s := range append(append([]*Semaphore(nil), wait...), signal...) {
		if s != nil && s.dev != dev {
			return dev.foreign(op, "semaphore")
		}
	}
	var value uint64
	if fence != nil {
		if fence.dev != dev {
			return dev.foreign(op, "fence")
		}
		v, err := fence.begin(op)
		if err != nil {
			return err
		}
		value = v
	}

	dev.submitMu.Lock()
	err := dev.submitLocked(bufs, fence, value)
	dev.submitMu.Unlock()
	if err != nil {
		if fence != nil {
			fence.abort(value)
		}
		return dev.fail(op, err, gpucore.ErrDeviceLost)
	}

	for _, s := range wait {
		if s != nil && !s.consume() {
			slogger().Warn("native: skipping wait on semaphore without pending signal")
		}
	}
	for _, s := range signal {
		if s != nil {
			s.signal()
		}
	}
	for _, cb := range cmds {
		cb.submitted = true
	}
	return nil
}

// submitLocked submits bufs against the idle fence and, when fence is set,
// signals it behind them. Callers hold submitMu.
func (dev *device) submitLocked(bufs []hal.CommandBuffer, fence *Fence, value uint64) error {
	dev.idleValue++
	if err := dev.queue.Submit(bufs, dev.idle, dev.idleValue); err != nil {
		dev.idleValue--
		return err
	}
	if fence != nil {
		return dev.queue.Submit(nil, fence.hal, value)
	}
	return nil
}

// WaitForQueueIdle blocks until all submitted work has completed.
func (q *Queue) WaitForQueueIdle() error {
	if err := q.dev.usable("wait_for_queue_idle"); err != nil {
		return err
	}
	return q.dev.waitIdle(q.dev.cfg.fenceTimeout)
}

// Present queues the acquired image imageIndex of sc for display.
func (q *Queue) Present(sc *Swapchain, wait []*Semaphore, imageIndex uint32) (gpucore.PresentResult, error) {
	const op = "present"
	dev := q.dev
	if err := dev.usable(op); err != nil {
		return gpucore.PresentResultSuccess, err
	}
	if sc == nil {
		return gpucore.PresentResultSuccess, dev.nilHandle(op, "swapchain")
	}
	if sc.dev != dev {
		return gpucore.PresentResultSuccess, dev.foreign(op, "swapchain")
	}
	for _, s := range wait {
		if s == nil {
			continue
		}
		if s.dev != dev {
			return gpucore.PresentResultSuccess, dev.foreign(op, "semaphore")
		}
		s.consume()
	}
	return sc.present(op, imageIndex)
}
