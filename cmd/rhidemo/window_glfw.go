//go:build glfw

package main

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/rhi/gpucore"
)

const headless = false

func init() {
	// GLFW calls must stay on the main thread.
	runtime.LockOSThread()
}

type glfwWindow struct {
	w *glfw.Window
}

func newWindow(s settings) (window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	w, err := glfw.CreateWindow(int(s.width), int(s.height), "rhidemo", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	return &glfwWindow{w: w}, nil
}

// Size returns the framebuffer size, which differs from the window size on
// high density displays.
func (g *glfwWindow) Size() (width, height uint32) {
	w, h := g.w.GetFramebufferSize()
	return uint32(max(w, 0)), uint32(max(h, 0))
}

func (g *glfwWindow) poll() bool {
	glfw.PollEvents()
	return !g.w.ShouldClose()
}

func (g *glfwWindow) surface() gpucore.WindowHandle { return g }

func (g *glfwWindow) close() {
	g.w.Destroy()
	glfw.Terminate()
}
