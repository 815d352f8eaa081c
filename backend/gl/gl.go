// Package gl opens rhi devices on OpenGL (ES) through the wgpu hal driver.
//
// A GL context only exists for a window, so Open needs the window up front.
// The first swapchain created for that window presents through the
// context's surface.
package gl

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// Profile drives GL. Image counts are nominal; the driver double-buffers.
var Profile = native.Profile{
	Backend:        gpucore.BackendGL,
	HAL:            gputypes.BackendGL,
	RequiresWindow: true,
	PresentModes: []gpucore.PresentMode{
		gpucore.PresentModeFifo,
		gpucore.PresentModeImmediate,
	},
	MinImageCount: 2,
	MaxImageCount: 2,
}

// Open opens a GL device for window.
func Open(window gpucore.WindowHandle, opts ...native.Option) (*native.DeviceContext, error) {
	return native.Open(Profile, window, opts...)
}
