package empty

import (
	"sync"
	"time"

	"github.com/gogpu/rhi/gpucore"
)

// Queue executes submissions in order on the simulated GPU timeline.
type Queue struct {
	dev *device
	typ gpucore.QueueType

	mu      sync.Mutex
	tail    chan struct{}
	pending []*submission
}

type submission struct {
	commandBuffers int
	draws          int
	dispatches     int
	fence          chan struct{}
	done           chan struct{}
}

func newQueue(dev *device, t gpucore.QueueType) *Queue {
	return &Queue{dev: dev, typ: t}
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

// Submit enqueues recorded command buffers. Wait semaphores without a
// pending signal are skipped, the rest are consumed. Signal semaphores
// become pending. The fence is reset and signals after the work executed.
func (q *Queue) Submit(cmds []*CommandBuffer, wait, signal []*Semaphore, fence *Fence) error {
	const op = "submit"
	if err := q.dev.usable(op); err != nil {
		return err
	}

	sub := &submission{commandBuffers: len(cmds), done: make(chan struct{})}
	for _, cb := range cmds {
		if cb == nil {
			return nilHandle(op, "command buffer")
		}
		if cb.pool.queue.dev != q.dev {
			return foreign(op, "command buffer")
		}
		if cb.pool.queue != q {
			return gpucore.Errorf(backend, op, gpucore.ErrInvalidDefinition,
				"command buffer was allocated for another queue")
		}
		if cb.state != cbExecutable {
			return gpucore.Errorf(backend, op, gpucore.ErrInvalidState,
				"command buffer is %s, want executable", cb.state)
		}
		sub.draws += cb.draws
		sub.dispatches += cb.dispatches
	}
	for _, s := range append(append([]*Semaphore(nil), wait...), signal...) {
		if s != nil && s.dev != q.dev {
			return foreign(op, "semaphore")
		}
	}
	if fence != nil {
		if fence.dev != q.dev {
			return foreign(op, "fence")
		}
		done, err := fence.begin(op)
		if err != nil {
			return err
		}
		sub.fence = done
	}

	for _, s := range wait {
		if s != nil && !s.consume() {
			slogger().Warn("empty: skipping wait on semaphore without pending signal")
		}
	}
	for _, s := range signal {
		if s != nil {
			s.signal()
		}
	}

	if q.dev.cfg.manual {
		q.mu.Lock()
		q.pending = append(q.pending, sub)
		q.mu.Unlock()
		return nil
	}

	q.mu.Lock()
	prev := q.tail
	q.tail = sub.done
	q.mu.Unlock()
	go q.run(prev, sub)
	return nil
}

func (q *Queue) run(prev chan struct{}, sub *submission) {
	if prev != nil {
		<-prev
	}
	if lat := q.dev.cfg.submitLatency; lat > 0 {
		timer := time.NewTimer(lat)
		select {
		case <-timer.C:
		case <-q.dev.lost:
			timer.Stop()
		}
	}
	q.complete(sub)
}

// complete executes a submission and then signals its fence. Work submitted
// to a lost device never signals.
func (q *Queue) complete(sub *submission) {
	dev := q.dev
	if !dev.isLost() {
		dev.submissions.Add(1)
		dev.commandBuffers.Add(uint64(sub.commandBuffers))
		dev.draws.Add(uint64(sub.draws))
		dev.dispatches.Add(uint64(sub.dispatches))
		if sub.fence != nil {
			close(sub.fence)
		}
	}
	close(sub.done)
}

// Advance completes up to n held submissions in order and returns how many
// completed. It only has an effect with WithManualTimeline.
func (q *Queue) Advance(n int) int {
	q.mu.Lock()
	if n > len(q.pending) {
		n = len(q.pending)
	}
	batch := q.pending[:n]
	q.pending = append([]*submission(nil), q.pending[n:]...)
	q.mu.Unlock()

	for _, sub := range batch {
		q.complete(sub)
	}
	return len(batch)
}

// Pending returns the number of held submissions on a manual timeline.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// WaitForQueueIdle blocks until all submitted work has completed. On a
// manual timeline it completes everything that is held.
func (q *Queue) WaitForQueueIdle() error {
	const op = "wait_for_queue_idle"
	if err := q.dev.usable(op); err != nil {
		return err
	}
	if q.dev.cfg.manual {
		q.Advance(q.Pending())
		return nil
	}

	q.mu.Lock()
	tail := q.tail
	q.mu.Unlock()
	if tail == nil {
		return nil
	}
	timer := time.NewTimer(q.dev.cfg.fenceTimeout)
	defer timer.Stop()
	select {
	case <-tail:
		return nil
	case <-q.dev.lost:
		return gpucore.Errorf(backend, op, gpucore.ErrDeviceLost, "device was lost")
	case <-timer.C:
		return gpucore.Errorf(backend, op, gpucore.ErrTimeout, "queue did not drain")
	}
}

// Present queues the acquired image imageIndex of sc for display.
func (q *Queue) Present(sc *Swapchain, wait []*Semaphore, imageIndex uint32) (gpucore.PresentResult, error) {
	const op = "present"
	if err := q.dev.usable(op); err != nil {
		return gpucore.PresentResultSuccess, err
	}
	if sc == nil {
		return gpucore.PresentResultSuccess, nilHandle(op, "swapchain")
	}
	if sc.dev != q.dev {
		return gpucore.PresentResultSuccess, foreign(op, "swapchain")
	}
	for _, s := range wait {
		if s == nil {
			continue
		}
		if s.dev != q.dev {
			return gpucore.PresentResultSuccess, foreign(op, "semaphore")
		}
		s.consume()
	}
	res, err := sc.present(op, imageIndex)
	if err == nil {
		q.dev.presents.Add(1)
	}
	return res, err
}
