// Package rhi is a render hardware interface: one device, swapchain and
// synchronization contract over Vulkan, Metal, GL and an in-process Empty
// backend.
//
// # Quick Start
//
//	dc, err := rhi.NewEmptyDeviceContext()
//	if err != nil {
//		return err
//	}
//	defer dc.Release()
//
//	sc, err := dc.CreateSwapchain(nil, &gpucore.SwapchainDef{Width: 800, Height: 600, ImageCount: 2})
//	fence, _ := dc.CreateFence()
//	img, err := sc.AcquireNextImageFence(fence)
//
// # Device contexts
//
// A [DeviceContext] is a cheap handle. [DeviceContext.Clone] shares the
// device and [DeviceContext.Release] drops one reference; the device is
// destroyed with the last reference. Every operation on a destroyed device
// fails with [gpucore.ErrDeviceDestroyed].
//
// Objects created by a context carry the context's backend. Handing an
// object to a context of another backend fails with
// [gpucore.ErrBackendMismatch].
//
// # Backends
//
// Native backends run on gogpu/wgpu hal. Vulkan compiles WGSL to SPIR-V
// with naga, Metal and GL take WGSL as is. GL needs a window when the
// device is opened.
//
// # Logging
//
// rhi is silent by default. Call [SetLogger] to route diagnostics to a
// [log/slog] logger; the setting reaches every backend package.
package rhi
