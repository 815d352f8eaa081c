// Package native implements the rhi device contract on top of the
// gogpu/wgpu hardware abstraction layer.
//
// One implementation serves Vulkan, Metal and GL. The differences between
// them are captured by a [Profile]: which hal backend to open, whether WGSL
// must be compiled to SPIR-V before it reaches the driver, and whether the
// device can only be created against a window. The backend/vulkan,
// backend/metal and backend/gl packages each register their hal driver and
// hand their profile to [Open].
//
// # Mapping
//
//   - Fences are hal timeline fences. Every submission bumps the fence to a
//     new value and waits compare against the value of the last submission.
//   - Semaphores carry a pending-signal flag. hal orders all work on its
//     single queue, so they gate nothing on the device and only keep the
//     acquire/submit/present bookkeeping uniform with the other backends.
//   - Root signatures become one bind group layout per descriptor set plus a
//     pipeline layout.
//   - Every queue type is served by the single hal queue.
//
// Swapchains are built on hal surfaces; see [DeviceContext.CreateSwapchain].
package native
