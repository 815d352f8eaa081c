package main

import "github.com/gogpu/rhi/gpucore"

// window is the surface the demo presents to.
type window interface {
	gpucore.WindowHandle
	gpucore.WindowSizer
	// poll processes pending events and reports whether the loop should
	// continue.
	poll() bool
	close()
	// surface returns the handle swapchains are created for.
	surface() gpucore.WindowHandle
}
