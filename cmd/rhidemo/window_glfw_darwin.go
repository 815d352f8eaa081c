//go:build glfw && darwin

package main

import "unsafe"

func (g *glfwWindow) DisplayHandle() uintptr { return 0 }

func (g *glfwWindow) WindowHandle() uintptr {
	return uintptr(unsafe.Pointer(g.w.GetCocoaWindow()))
}
