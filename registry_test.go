package rhi

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi/gpucore"
)

func TestOpenEmpty(t *testing.T) {
	dc, err := Open(gpucore.BackendEmpty, nil)
	if err != nil {
		t.Fatalf("Open(empty): %v", err)
	}
	defer dc.Release()
	if dc.Backend() != gpucore.BackendEmpty {
		t.Errorf("Backend() = %v, want empty", dc.Backend())
	}
}

func TestOpenGLNeedsWindow(t *testing.T) {
	_, err := Open(gpucore.BackendGL, nil)
	if err == nil {
		t.Fatal("Open(gl) without window succeeded")
	}
	if !errors.Is(err, gpucore.ErrInvalidDefinition) && !errors.Is(err, gpucore.ErrBackendUnavailable) {
		t.Errorf("Open(gl) err = %v, want ErrInvalidDefinition or ErrBackendUnavailable", err)
	}
}

// isolateRegistry swaps in the given openers for one test.
func isolateRegistry(t *testing.T, replacement map[gpucore.Backend]Opener) {
	t.Helper()
	next := make(map[gpucore.Backend]Opener, len(replacement))
	for b, o := range replacement {
		next[b] = o
	}
	registryMu.Lock()
	saved := openers
	openers = next
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		openers = saved
		registryMu.Unlock()
	})
}

func TestOpenDefaultPriority(t *testing.T) {
	unavailable := func(b gpucore.Backend) Opener {
		return func(gpucore.WindowHandle, ...Option) (*DeviceContext, error) {
			return nil, gpucore.Errorf(b, "create_device_context", gpucore.ErrBackendUnavailable, "test")
		}
	}
	var tried []gpucore.Backend
	track := func(b gpucore.Backend, next Opener) Opener {
		return func(w gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
			tried = append(tried, b)
			return next(w, opts...)
		}
	}
	isolateRegistry(t, map[gpucore.Backend]Opener{
		gpucore.BackendVulkan: track(gpucore.BackendVulkan, unavailable(gpucore.BackendVulkan)),
		gpucore.BackendGL:     track(gpucore.BackendGL, unavailable(gpucore.BackendGL)),
		gpucore.BackendEmpty: track(gpucore.BackendEmpty, func(_ gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
			return NewEmptyDeviceContext(opts...)
		}),
	})

	dc, err := OpenDefault(nil)
	if err != nil {
		t.Fatalf("OpenDefault: %v", err)
	}
	defer dc.Release()
	if dc.Backend() != gpucore.BackendEmpty {
		t.Errorf("Backend() = %v, want empty", dc.Backend())
	}
	want := []gpucore.Backend{gpucore.BackendVulkan, gpucore.BackendGL, gpucore.BackendEmpty}
	if len(tried) != len(want) {
		t.Fatalf("tried %v, want %v", tried, want)
	}
	for i := range want {
		if tried[i] != want[i] {
			t.Errorf("tried[%d] = %v, want %v", i, tried[i], want[i])
		}
	}
}

func TestOpenDefaultStopsOnHardError(t *testing.T) {
	lost := gpucore.Errorf(gpucore.BackendVulkan, "create_device_context", gpucore.ErrDeviceLost, "test")
	isolateRegistry(t, map[gpucore.Backend]Opener{
		gpucore.BackendVulkan: func(gpucore.WindowHandle, ...Option) (*DeviceContext, error) { return nil, lost },
		gpucore.BackendEmpty: func(_ gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
			return NewEmptyDeviceContext(opts...)
		},
	})
	if _, err := OpenDefault(nil); !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Errorf("OpenDefault err = %v, want ErrDeviceLost", err)
	}
}

func TestOpenUnregistered(t *testing.T) {
	isolateRegistry(t, nil)
	if _, err := Open(gpucore.BackendEmpty, nil); !errors.Is(err, gpucore.ErrBackendUnavailable) {
		t.Errorf("Open err = %v, want ErrBackendUnavailable", err)
	}
	if _, err := OpenDefault(nil); !errors.Is(err, gpucore.ErrBackendUnavailable) {
		t.Errorf("OpenDefault err = %v, want ErrBackendUnavailable", err)
	}
}
