// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"errors"
	"sync"

	"github.com/gogpu/rhi/gpucore"
)

// Opener creates a device context for a backend.
type Opener func(window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error)

var (
	registryMu sync.RWMutex
	openers    = map[gpucore.Backend]Opener{
		gpucore.BackendVulkan: NewVulkanDeviceContext,
		gpucore.BackendMetal:  NewMetalDeviceContext,
		gpucore.BackendGL:     NewGLDeviceContext,
		gpucore.BackendEmpty: func(_ gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
			return NewEmptyDeviceContext(opts...)
		},
	}
	// Priority order for OpenDefault (first backend that opens wins).
	// Empty always opens, so it comes last.
	backendPriority = []gpucore.Backend{
		gpucore.BackendVulkan,
		gpucore.BackendMetal,
		gpucore.BackendGL,
		gpucore.BackendEmpty,
	}
)

// Register replaces the opener of backend b. This is useful for testing.
func Register(b gpucore.Backend, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	openers[b] = open
}

// Unregister removes the opener of backend b.
func Unregister(b gpucore.Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(openers, b)
}

// IsRegistered reports whether backend b has an opener.
func IsRegistered(b gpucore.Backend) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := openers[b]
	return ok
}

// Available returns the registered backends in priority order.
func Available() []gpucore.Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]gpucore.Backend, 0, len(openers))
	for _, b := range backendPriority {
		if _, ok := openers[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Open creates a device context on backend b.
func Open(b gpucore.Backend, window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
	registryMu.RLock()
	open, ok := openers[b]
	registryMu.RUnlock()
	if !ok {
		return nil, gpucore.Errorf(b, "create_device_context", gpucore.ErrBackendUnavailable, "backend not registered")
	}
	return open(window, opts...)
}

// OpenDefault opens the first backend in priority order that succeeds.
// Only ErrBackendUnavailable and ErrInvalidDefinition move on to the next
// backend; other failures are returned as is.
func OpenDefault(window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
	var errs []error
	for _, b := range Available() {
		d, err := Open(b, window, opts...)
		if err == nil {
			Logger().Info("rhi: opened default backend", "backend", b)
			return d, nil
		}
		if !errors.Is(err, gpucore.ErrBackendUnavailable) && !errors.Is(err, gpucore.ErrInvalidDefinition) {
			return nil, err
		}
		Logger().Debug("rhi: backend unavailable", "backend", b, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, gpucore.Errorf(gpucore.BackendEmpty, "create_device_context", gpucore.ErrBackendUnavailable,
			"no backend registered")
	}
	return nil, errors.Join(errs...)
}
