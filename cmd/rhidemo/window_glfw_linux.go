//go:build glfw && linux

package main

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func (g *glfwWindow) DisplayHandle() uintptr {
	return uintptr(unsafe.Pointer(glfw.GetX11Display()))
}

func (g *glfwWindow) WindowHandle() uintptr {
	return uintptr(g.w.GetX11Window())
}
