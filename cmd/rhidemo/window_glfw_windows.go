//go:build glfw && windows

package main

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// DisplayHandle returns the module instance handle Win32 surfaces are
// created with.
func (g *glfwWindow) DisplayHandle() uintptr {
	var h windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &h); err != nil {
		logger.Warn("GetModuleHandleEx failed", "err", err)
		return 0
	}
	return uintptr(h)
}

func (g *glfwWindow) WindowHandle() uintptr {
	return uintptr(unsafe.Pointer(g.w.GetWin32Window()))
}
