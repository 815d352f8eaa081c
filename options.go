package rhi

import (
	"time"

	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
)

// Option configures device context creation. Options that only make sense
// for one kind of backend are ignored by the others.
//
// Example:
//
//	dc, err := rhi.NewVulkanDeviceContext(nil,
//		rhi.WithAdapter("NVIDIA"),
//		rhi.WithFenceTimeout(2*time.Second))
type Option func(*options)

type options struct {
	empty  []empty.Option
	native []native.Option
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithEmptyOptions passes options through to the Empty backend.
func WithEmptyOptions(opts ...empty.Option) Option {
	return func(o *options) {
		o.empty = append(o.empty, opts...)
	}
}

// WithNativeOptions passes options through to the native backends.
func WithNativeOptions(opts ...native.Option) Option {
	return func(o *options) {
		o.native = append(o.native, opts...)
	}
}

// WithFenceTimeout bounds fence and queue-idle waits on every backend.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		o.empty = append(o.empty, empty.WithFenceTimeout(d))
		o.native = append(o.native, native.WithFenceTimeout(d))
	}
}

// WithAdapter prefers the first native adapter whose name contains name.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.native = append(o.native, native.WithAdapter(name))
	}
}

// WithLabel sets the debug label of native objects.
func WithLabel(label string) Option {
	return func(o *options) {
		o.native = append(o.native, native.WithLabel(label))
	}
}
