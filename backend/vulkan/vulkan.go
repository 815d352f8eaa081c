// Package vulkan opens rhi devices on Vulkan through the wgpu hal driver.
package vulkan

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"

	// Register the Vulkan hal driver.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Profile drives Vulkan. WGSL is compiled to SPIR-V with naga before it
// reaches the driver.
var Profile = native.Profile{
	Backend:     gpucore.BackendVulkan,
	HAL:         gputypes.BackendVulkan,
	CompileWGSL: true,
	PresentModes: []gpucore.PresentMode{
		gpucore.PresentModeFifo,
		gpucore.PresentModeMailbox,
		gpucore.PresentModeImmediate,
	},
	MinImageCount: 2,
	MaxImageCount: 3,
}

// Open opens a Vulkan device. Swapchains are created per window later.
func Open(opts ...native.Option) (*native.DeviceContext, error) {
	return native.Open(Profile, nil, opts...)
}
