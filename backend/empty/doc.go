// Package empty implements the rhi backend that runs without a GPU.
//
// The Empty backend keeps the full contract of the native backends: it
// validates every definition, negotiates formats against a capability table,
// clamps swapchain image counts, runs submissions in order on a simulated
// GPU timeline and signals fences only after the recorded work has executed.
// It is the backend of headless runs and of the rhi test suite.
//
// Timing is controllable. [WithSubmitLatency] delays every submission, and
// [WithManualTimeline] holds submissions until [Queue.Advance] is called so
// tests can observe fences before they signal. [Window] stands in for a
// native window: resizing it makes its swapchains report
// gpucore.ErrSurfaceOutOfDate until they are rebuilt.
// [DeviceContext.SimulateDeviceLost] makes later waits, submissions and
// acquires fail with gpucore.ErrDeviceLost.
package empty
