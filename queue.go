package rhi

import (
	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// Queue submits command buffers and presents swapchain images.
type Queue struct {
	variant[*empty.Queue, *native.Queue]
}

// QueueType returns the queue type.
func (q *Queue) QueueType() gpucore.QueueType {
	if q.backend == gpucore.BackendEmpty {
		return q.e.QueueType()
	}
	return q.n.QueueType()
}

// CreateCommandPool creates a pool whose command buffers submit to q. A nil
// def uses the defaults.
func (q *Queue) CreateCommandPool(def *gpucore.CommandPoolDef) (*CommandPool, error) {
	if def == nil {
		def = &gpucore.CommandPoolDef{}
	}
	if q.backend == gpucore.BackendEmpty {
		p, err := q.e.CreateCommandPool(def)
		if err != nil {
			return nil, err
		}
		return &CommandPool{emptyVariant[*native.CommandPool](p)}, nil
	}
	p, err := q.n.CreateCommandPool(def)
	if err != nil {
		return nil, err
	}
	return &CommandPool{nativeVariant[*empty.CommandPool](q.backend, p)}, nil
}

// Submit executes cmds after the pending wait semaphores, then signals the
// signal semaphores and fence.
func (q *Queue) Submit(cmds []*CommandBuffer, wait, signal []*Semaphore, fence *Fence) error {
	const op = "submit"
	if q.backend == gpucore.BackendEmpty {
		c, err := mapAll(cmds, func(cb *CommandBuffer) (*empty.CommandBuffer, error) { return cb.v().emptyFor(op) })
		if err != nil {
			return err
		}
		w, err := emptySemaphores(op, wait)
		if err != nil {
			return err
		}
		s, err := emptySemaphores(op, signal)
		if err != nil {
			return err
		}
		f, err := fence.v().emptyFor(op)
		if err != nil {
			return err
		}
		return q.e.Submit(c, w, s, f)
	}
	c, err := mapAll(cmds, func(cb *CommandBuffer) (*native.CommandBuffer, error) { return cb.v().nativeFor(op, q.backend) })
	if err != nil {
		return err
	}
	w, err := nativeSemaphores(op, q.backend, wait)
	if err != nil {
		return err
	}
	s, err := nativeSemaphores(op, q.backend, signal)
	if err != nil {
		return err
	}
	f, err := fence.v().nativeFor(op, q.backend)
	if err != nil {
		return err
	}
	return q.n.Submit(c, w, s, f)
}

// WaitForQueueIdle blocks until all submitted work has executed.
func (q *Queue) WaitForQueueIdle() error {
	if q.backend == gpucore.BackendEmpty {
		return q.e.WaitForQueueIdle()
	}
	return q.n.WaitForQueueIdle()
}

// Present queues the acquired image imageIndex of sc for display after the
// pending wait semaphores.
func (q *Queue) Present(sc *Swapchain, wait []*Semaphore, imageIndex uint32) (gpucore.PresentResult, error) {
	const op = "present"
	if q.backend == gpucore.BackendEmpty {
		s, err := sc.v().emptyFor(op)
		if err != nil {
			return gpucore.PresentResultSuccess, err
		}
		w, err := emptySemaphores(op, wait)
		if err != nil {
			return gpucore.PresentResultSuccess, err
		}
		return q.e.Present(s, w, imageIndex)
	}
	s, err := sc.v().nativeFor(op, q.backend)
	if err != nil {
		return gpucore.PresentResultSuccess, err
	}
	w, err := nativeSemaphores(op, q.backend, wait)
	if err != nil {
		return gpucore.PresentResultSuccess, err
	}
	return q.n.Present(s, w, imageIndex)
}
