package rhi

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// DeviceProvider exposes d to gogpu libraries that take a
// gpucontext.DeviceProvider. The provider owns a clone of d; its Device
// Destroy method releases that clone.
//
// Native providers also implement HalDevice() any and HalQueue() any,
// returning the hal.Device and hal.Queue of the context.
func (d *DeviceContext) DeviceProvider() gpucontext.DeviceProvider {
	c := d.Clone()
	p := &provider{dc: c}
	if c.backend != gpucore.BackendEmpty {
		return &halProvider{provider: p}
	}
	return p
}

type provider struct {
	dc *DeviceContext
}

func (p *provider) Device() gpucontext.Device { return providerDevice{p.dc} }

func (p *provider) Queue() gpucontext.Queue { return providerQueue{} }

func (p *provider) Adapter() gpucontext.Adapter { return providerAdapter{} }

// SurfaceFormat returns the format a default sRGB swapchain would get.
func (p *provider) SurfaceFormat() gputypes.TextureFormat {
	f, ok := p.dc.FindSupportedFormat(gpucore.DefaultSwapchainFormats(gpucore.ColorSpaceSrgb),
		gpucore.ResourceTypeRenderTargetColor)
	if !ok {
		return gputypes.TextureFormatBGRA8Unorm
	}
	tf, ok := native.TextureFormat(f)
	if !ok {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return tf
}

type halProvider struct {
	*provider
}

func (p *halProvider) HalDevice() any { return p.dc.n.HalDevice() }
func (p *halProvider) HalQueue() any  { return p.dc.n.HalQueue() }

type providerDevice struct {
	dc *DeviceContext
}

// Poll drives native completion callbacks. The Empty timeline runs on its
// own.
func (d providerDevice) Poll(wait bool) {
	if d.dc.backend != gpucore.BackendEmpty {
		d.dc.n.Poll(wait)
	}
}

func (d providerDevice) Destroy() { d.dc.Release() }

type providerQueue struct{}

type providerAdapter struct{}
