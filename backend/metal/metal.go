// Package metal opens rhi devices on Metal through the wgpu hal driver.
// The driver is only linked on darwin; elsewhere Open reports
// gpucore.ErrBackendUnavailable.
package metal

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// Profile drives Metal. The driver translates WGSL itself.
var Profile = native.Profile{
	Backend: gpucore.BackendMetal,
	HAL:     gputypes.BackendMetal,
	PresentModes: []gpucore.PresentMode{
		gpucore.PresentModeFifo,
		gpucore.PresentModeImmediate,
	},
	MinImageCount: 2,
	MaxImageCount: 3,
}

// Open opens the system Metal device.
func Open(opts ...native.Option) (*native.DeviceContext, error) {
	return native.Open(Profile, nil, opts...)
}
