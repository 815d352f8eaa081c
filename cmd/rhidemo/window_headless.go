//go:build !glfw

package main

import (
	"fmt"

	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/gpucore"
)

// headless builds have no window system; only the Empty backend can present.
const headless = true

type headlessWindow struct {
	*empty.Window
}

func newWindow(s settings) (window, error) {
	if !s.anyBackend && s.backend != gpucore.BackendEmpty {
		return nil, fmt.Errorf("backend %s needs a window, rebuild with -tags glfw", s.backend)
	}
	return headlessWindow{empty.NewWindow(s.width, s.height)}, nil
}

func (headlessWindow) poll() bool { return true }

func (headlessWindow) close() {}

// surface hands out the Empty window itself so the backend tracks resizes.
func (w headlessWindow) surface() gpucore.WindowHandle { return w.Window }
