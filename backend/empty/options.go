package empty

import (
	"time"

	"github.com/gogpu/rhi/gpucore"
)

// Option configures an Empty device context.
type Option func(*config)

type config struct {
	formats       gpucore.FormatTable
	sampleCounts  []gpucore.SampleCount
	queueTypes    []gpucore.QueueType
	presentModes  []gpucore.PresentMode
	minImages     uint32
	maxImages     uint32
	info          gpucore.DeviceInfo
	submitLatency time.Duration
	fenceTimeout  time.Duration
	manual        bool
}

// DefaultFenceTimeout bounds WaitForFences and queue idle waits.
const DefaultFenceTimeout = 5 * time.Second

func defaultConfig() config {
	return config{
		formats:      gpucore.GuaranteedFormats(),
		sampleCounts: []gpucore.SampleCount{gpucore.SampleCount1, gpucore.SampleCount2, gpucore.SampleCount4, gpucore.SampleCount8},
		queueTypes:   []gpucore.QueueType{gpucore.QueueTypeGraphics, gpucore.QueueTypeCompute, gpucore.QueueTypeTransfer},
		presentModes: []gpucore.PresentMode{gpucore.PresentModeFifo, gpucore.PresentModeMailbox, gpucore.PresentModeImmediate},
		minImages:    2,
		maxImages:    3,
		info: gpucore.DeviceInfo{
			MinUniformBufferOffsetAlignment: 256,
			MinStorageBufferOffsetAlignment: 64,
			UploadBufferTextureAlignment:    16,
			UploadBufferTextureRowAlignment: 1,
			SupportsClampToBorderColor:      true,
			MaxTextureDimension2D:           16384,
			AdapterName:                     "empty",
		},
		fenceTimeout: DefaultFenceTimeout,
	}
}

// WithFormatCapabilities replaces the format capability table.
func WithFormatCapabilities(t gpucore.FormatTable) Option {
	return func(c *config) { c.formats = t.Clone() }
}

// WithSampleCounts sets the supported sample counts.
func WithSampleCounts(counts ...gpucore.SampleCount) Option {
	return func(c *config) { c.sampleCounts = append([]gpucore.SampleCount(nil), counts...) }
}

// WithQueueTypes restricts the queue types CreateQueue accepts.
func WithQueueTypes(types ...gpucore.QueueType) Option {
	return func(c *config) { c.queueTypes = append([]gpucore.QueueType(nil), types...) }
}

// WithPresentModes sets the present modes swapchains may use.
func WithPresentModes(modes ...gpucore.PresentMode) Option {
	return func(c *config) { c.presentModes = append([]gpucore.PresentMode(nil), modes...) }
}

// WithImageCountLimits sets the swapchain image count range.
func WithImageCountLimits(lo, hi uint32) Option {
	return func(c *config) {
		if lo == 0 {
			lo = 1
		}
		if hi < lo {
			hi = lo
		}
		c.minImages, c.maxImages = lo, hi
	}
}

// WithSupportsClampToBorder toggles border color support.
func WithSupportsClampToBorder(ok bool) Option {
	return func(c *config) { c.info.SupportsClampToBorderColor = ok }
}

// WithSubmitLatency delays the completion of every submission by d.
func WithSubmitLatency(d time.Duration) Option {
	return func(c *config) { c.submitLatency = d }
}

// WithFenceTimeout bounds fence and queue-idle waits. Zero or negative waits
// return ErrTimeout at once for incomplete fences.
func WithFenceTimeout(d time.Duration) Option {
	return func(c *config) { c.fenceTimeout = d }
}

// WithManualTimeline holds submissions until Queue.Advance or
// Queue.WaitForQueueIdle completes them.
func WithManualTimeline() Option {
	return func(c *config) { c.manual = true }
}
