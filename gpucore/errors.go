// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by a backend wraps exactly one of these.
var (
	// ErrDeviceLost is returned when the native device stopped responding.
	// Recovery means recreating the device context.
	ErrDeviceLost = errors.New("rhi: device lost")

	// ErrSurfaceOutOfDate is returned when the swapchain no longer matches its
	// surface. Rebuild the swapchain and retry.
	ErrSurfaceOutOfDate = errors.New("rhi: surface out of date")

	// ErrTimeout is returned when a bounded wait expired.
	ErrTimeout = errors.New("rhi: timeout")

	// ErrUnsupported is returned when a format, feature or mode is not available.
	ErrUnsupported = errors.New("rhi: unsupported format or feature")

	// ErrAllocationFailure is returned when device or host memory ran out.
	ErrAllocationFailure = errors.New("rhi: allocation failure")

	// ErrInvalidDefinition is returned when a definition is malformed even
	// before it reaches the device.
	ErrInvalidDefinition = errors.New("rhi: invalid definition")

	// ErrDeviceDestroyed is returned by every operation once the last handle
	// of a device context has been released.
	ErrDeviceDestroyed = errors.New("rhi: device context destroyed")

	// ErrBackendMismatch is returned when an object of one backend is handed
	// to another backend.
	ErrBackendMismatch = errors.New("rhi: backend mismatch")

	// ErrBackendUnavailable is returned when a backend is not compiled in or
	// cannot find a usable adapter.
	ErrBackendUnavailable = errors.New("rhi: backend not available")

	// ErrInvalidState is returned when an operation is issued out of order,
	// e.g. presenting an image that was never acquired.
	ErrInvalidState = errors.New("rhi: invalid state")
)

// Error is the structured error produced by backends.
type Error struct {
	// Backend that produced the error.
	Backend Backend
	// Op is the operation name, e.g. "create_texture".
	Op string
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Detail is a human-readable description, may be empty.
	Detail string
	// Err is the native cause, may be nil.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Backend.String())
	b.WriteString(": ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	if e.Kind != nil {
		b.WriteString(strings.TrimPrefix(e.Kind.Error(), "rhi: "))
	} else {
		b.WriteString("error")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an *Error of the given kind with a formatted detail.
func Errorf(backend Backend, op string, kind error, format string, args ...any) *Error {
	return &Error{Backend: backend, Op: op, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a native cause.
func Wrap(backend Backend, op string, kind, cause error) *Error {
	return &Error{Backend: backend, Op: op, Kind: kind, Err: cause}
}

// KindOf returns the kind sentinel carried by err, or nil.
func KindOf(err error) error {
	for _, k := range []error{
		ErrDeviceDestroyed, ErrDeviceLost, ErrSurfaceOutOfDate, ErrTimeout,
		ErrUnsupported, ErrAllocationFailure, ErrInvalidDefinition,
		ErrBackendMismatch, ErrBackendUnavailable, ErrInvalidState,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Mismatch returns the error reported when an object created on have is
// used with a device context of want.
func Mismatch(op string, want, have Backend) *Error {
	return Errorf(want, op, ErrBackendMismatch, "object belongs to %s backend", have)
}
