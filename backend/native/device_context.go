// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/rhi/internal/lifetime"
	"github.com/gogpu/wgpu/hal"
)

// Definitions instantiated with native handles.
type (
	ShaderStageDef                  = gpucore.ShaderStageDef[*ShaderModule]
	RootSignatureDef                = gpucore.RootSignatureDef[*Shader, *Sampler]
	DescriptorSetArrayDef           = gpucore.DescriptorSetArrayDef[*RootSignature]
	GraphicsPipelineDef             = gpucore.GraphicsPipelineDef[*Shader, *RootSignature]
	ComputePipelineDef              = gpucore.ComputePipelineDef[*Shader, *RootSignature]
	ColorRenderTargetBinding        = gpucore.ColorRenderTargetBinding[*Texture]
	DepthStencilRenderTargetBinding = gpucore.DepthStencilRenderTargetBinding[*Texture]
	VertexBufferBinding             = gpucore.VertexBufferBinding[*Buffer]
)

// InstanceFactory creates hal instances. The value returned by
// hal.GetBackend satisfies it, and so does the noop driver used in tests.
type InstanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// nativeSampleCounts are the sample counts every WebGPU-class device renders.
var nativeSampleCounts = []gpucore.SampleCount{gpucore.SampleCount1, gpucore.SampleCount4}

// DeviceContext is a handle to a native device. Clones share one device,
// which is destroyed when the last clone is released.
type DeviceContext struct {
	life  *lifetime.Handle
	inner *device
}

type device struct {
	profile Profile
	cfg     config
	shared  *lifetime.Shared

	instance hal.Instance
	hal      hal.Device
	queue    hal.Queue
	info     gpucore.DeviceInfo
	formats  gpucore.FormatTable

	// window and surface are set when the profile requires a window; the
	// first swapchain for that window adopts the surface.
	window  gpucore.WindowHandle
	surface hal.Surface

	// submitMu serializes submissions to the single hal queue and guards
	// the idle fence bookkeeping.
	submitMu  sync.Mutex
	idle      hal.Fence
	idleValue uint64

	owned     owned
	pipelines *pipelineCache
	nextID    atomic.Uint64

	lost atomic.Bool
}

// Open opens a device for profile p through the registered hal driver.
func Open(p Profile, window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
	api, ok := hal.GetBackend(p.HAL)
	if !ok {
		return nil, gpucore.Errorf(p.Backend, "create_device_context", gpucore.ErrBackendUnavailable,
			"hal driver not linked in")
	}
	return OpenWith(p, api, window, opts...)
}

// OpenWith opens a device for profile p from api.
func OpenWith(p Profile, api InstanceFactory, window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
	const op = "create_device_context"
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if p.RequiresWindow && window == nil {
		return nil, gpucore.Errorf(p.Backend, op, gpucore.ErrInvalidDefinition,
			"%s needs a window to create its context", p.Backend)
	}

	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, wrap(p.Backend, op, err, gpucore.ErrBackendUnavailable)
	}

	var surface hal.Surface
	if p.RequiresWindow {
		surface, err = instance.CreateSurface(window.DisplayHandle(), window.WindowHandle())
		if err != nil {
			instance.Destroy()
			return nil, wrap(p.Backend, op, err, gpucore.ErrUnsupported)
		}
	}

	adapters := instance.EnumerateAdapters(nil)
	selected := selectAdapter(adapters, cfg.adapter)
	if selected == nil {
		destroySurface(surface)
		instance.Destroy()
		return nil, gpucore.Errorf(p.Backend, op, gpucore.ErrBackendUnavailable, "no adapter found")
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		destroySurface(surface)
		instance.Destroy()
		return nil, wrap(p.Backend, op, err, gpucore.ErrBackendUnavailable)
	}

	dev := &device{
		profile:  p,
		cfg:      cfg,
		instance: instance,
		hal:      openDev.Device,
		queue:    openDev.Queue,
		formats:  gpucore.GuaranteedFormats(),
		window:   window,
		surface:  surface,
		info: gpucore.DeviceInfo{
			MinUniformBufferOffsetAlignment: limits.MinUniformBufferOffsetAlignment,
			MinStorageBufferOffsetAlignment: limits.MinStorageBufferOffsetAlignment,
			UploadBufferTextureAlignment:    16,
			UploadBufferTextureRowAlignment: 256,
			SupportsClampToBorderColor:      false,
			MaxTextureDimension2D:           limits.MaxTextureDimension2D,
			AdapterName:                     selected.Info.Name,
		},
	}
	idle, err := dev.hal.CreateFence()
	if err != nil {
		dev.destroy()
		return nil, wrap(p.Backend, op, err, gpucore.ErrAllocationFailure)
	}
	dev.idle = idle
	dev.pipelines = newPipelineCache()

	life := lifetime.New(p.Backend.String(), dev.destroy)
	dev.shared = life.Shared()

	slogger().Info("native: device opened",
		"backend", p.Backend,
		"adapter", selected.Info.Name,
		"device_type", selected.Info.DeviceType)
	slogger().Debug("native: device limits",
		"uniform_alignment", dev.info.MinUniformBufferOffsetAlignment,
		"storage_alignment", dev.info.MinStorageBufferOffsetAlignment,
		"max_texture_2d", dev.info.MaxTextureDimension2D)
	return &DeviceContext{life: life, inner: dev}, nil
}

// selectAdapter prefers an adapter matching name, then discrete and
// integrated GPUs, then whatever comes first.
func selectAdapter(adapters []hal.ExposedAdapter, name string) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	if name != "" {
		for i := range adapters {
			if strings.Contains(strings.ToLower(adapters[i].Info.Name), strings.ToLower(name)) {
				return &adapters[i]
			}
		}
	}
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

func destroySurface(s hal.Surface) {
	if s != nil {
		s.Destroy()
	}
}

// destroy runs once, when the last handle is released.
func (dev *device) destroy() {
	if dev.hal != nil {
		dev.waitIdle(dev.cfg.fenceTimeout)
		dev.owned.drain()
		if dev.idle != nil {
			dev.hal.DestroyFence(dev.idle)
		}
		if dev.surface != nil {
			dev.surface.Unconfigure(dev.hal)
		}
	}
	destroySurface(dev.surface)
	if dev.hal != nil {
		dev.hal.Destroy()
	}
	if dev.instance != nil {
		dev.instance.Destroy()
	}
	slogger().Debug("native: device destroyed", "backend", dev.profile.Backend)
}

// Clone returns a new handle to the same device.
func (d *DeviceContext) Clone() *DeviceContext {
	return &DeviceContext{life: d.life.Clone(), inner: d.inner}
}

// Release drops this handle. The device is destroyed with the last handle.
func (d *DeviceContext) Release() {
	d.life.Release()
}

// Destroyed reports whether every handle has been released.
func (d *DeviceContext) Destroyed() bool { return d.inner.shared.Destroyed() }

// Refs returns the number of live handles.
func (d *DeviceContext) Refs() int64 { return d.inner.shared.Refs() }

// OutstandingClones returns the creation stacks of unreleased handles in
// rhidebug builds.
func (d *DeviceContext) OutstandingClones() []string { return d.inner.shared.Outstanding() }

// Backend returns the rhi backend of the profile the device was opened with.
func (d *DeviceContext) Backend() gpucore.Backend { return d.inner.profile.Backend }

// DeviceInfo returns the device capabilities.
func (d *DeviceContext) DeviceInfo() gpucore.DeviceInfo { return d.inner.info }

// HalDevice returns the hal.Device, for gpucontext consumers.
func (d *DeviceContext) HalDevice() any { return d.inner.hal }

// HalQueue returns the hal.Queue, for gpucontext consumers.
func (d *DeviceContext) HalQueue() any { return d.inner.queue }

// Poll waits for outstanding work when wait is set.
func (d *DeviceContext) Poll(wait bool) {
	if wait && d.life.Alive() {
		d.inner.waitIdle(d.inner.cfg.fenceTimeout)
	}
}

func (d *DeviceContext) check(op string) error {
	if !d.life.Alive() {
		return gpucore.Errorf(d.inner.profile.Backend, op, gpucore.ErrDeviceDestroyed,
			"all device context handles were released")
	}
	return nil
}

func (dev *device) backend() gpucore.Backend { return dev.profile.Backend }

func (dev *device) alive(op string) error {
	if dev.shared.Destroyed() {
		return gpucore.Errorf(dev.backend(), op, gpucore.ErrDeviceDestroyed,
			"all device context handles were released")
	}
	return nil
}

func (dev *device) usable(op string) error {
	if err := dev.alive(op); err != nil {
		return err
	}
	if dev.lost.Load() {
		return gpucore.Errorf(dev.backend(), op, gpucore.ErrDeviceLost, "device was lost")
	}
	return nil
}

// fail wraps a hal error and remembers device loss.
func (dev *device) fail(op string, err error, fallback error) error {
	e := wrap(dev.backend(), op, err, fallback)
	if e.(*gpucore.Error).Kind == gpucore.ErrDeviceLost && dev.lost.CompareAndSwap(false, true) {
		slogger().Warn("native: device lost", "backend", dev.backend(), "op", op)
	}
	return e
}

func (dev *device) invalid(op string, err error) error {
	return gpucore.Wrap(dev.backend(), op, gpucore.ErrInvalidDefinition, err)
}

func (dev *device) errorf(op string, kind error, format string, args ...any) error {
	return gpucore.Errorf(dev.backend(), op, kind, format, args...)
}

func (dev *device) foreign(op, what string) error {
	return dev.errorf(op, gpucore.ErrInvalidDefinition, "%s belongs to another device context", what)
}

func (dev *device) nilHandle(op, what string) error {
	return dev.errorf(op, gpucore.ErrInvalidDefinition, "%s is nil", what)
}

// waitIdle blocks until the last submission completed.
func (dev *device) waitIdle(timeout time.Duration) error {
	dev.submitMu.Lock()
	value := dev.idleValue
	dev.submitMu.Unlock()
	if value == 0 || dev.idle == nil {
		return nil
	}
	ok, err := dev.hal.Wait(dev.idle, value, timeout)
	if err != nil {
		return dev.fail("wait_for_queue_idle", err, gpucore.ErrDeviceLost)
	}
	if !ok {
		return dev.errorf("wait_for_queue_idle", gpucore.ErrTimeout, "queue did not drain within %v", timeout)
	}
	return nil
}

// CreateQueue returns a queue of type t. Every type shares the hal queue.
func (d *DeviceContext) CreateQueue(t gpucore.QueueType) (*Queue, error) {
	const op = "create_queue"
	if err := d.check(op); err != nil {
		return nil, err
	}
	switch t {
	case gpucore.QueueTypeGraphics, gpucore.QueueTypeCompute, gpucore.QueueTypeTransfer:
		return &Queue{dev: d.inner, typ: t}, nil
	}
	return nil, d.inner.errorf(op, gpucore.ErrUnsupported, "no %s queue family", t)
}

// CreateFence returns an unsubmitted fence.
func (d *DeviceContext) CreateFence() (*Fence, error) {
	const op = "create_fence"
	if err := d.check(op); err != nil {
		return nil, err
	}
	f, err := d.inner.hal.CreateFence()
	if err != nil {
		return nil, d.inner.fail(op, err, gpucore.ErrAllocationFailure)
	}
	fence := &Fence{dev: d.inner, hal: f}
	d.inner.owned.add(fence)
	return fence, nil
}

// CreateSemaphore returns a semaphore with no pending signal.
func (d *DeviceContext) CreateSemaphore() (*Semaphore, error) {
	if err := d.check("create_semaphore"); err != nil {
		return nil, err
	}
	return &Semaphore{dev: d.inner}, nil
}

// FindSupportedFormat returns the first candidate usable as resource type r.
func (d *DeviceContext) FindSupportedFormat(candidates []gpucore.Format, r gpucore.ResourceType) (gpucore.Format, bool) {
	if !d.life.Alive() {
		return gpucore.FormatUndefined, false
	}
	return gpucore.FindSupportedFormat(d.inner.formats, candidates, r)
}

// FindSupportedSampleCount returns the first supported candidate.
func (d *DeviceContext) FindSupportedSampleCount(candidates []gpucore.SampleCount) (gpucore.SampleCount, bool) {
	if !d.life.Alive() {
		return 0, false
	}
	return gpucore.FindSupportedSampleCount(nativeSampleCounts, candidates)
}

// WaitForFences blocks until every submitted fence has signaled.
func (d *DeviceContext) WaitForFences(fences []*Fence) error {
	const op = "wait_for_fences"
	if err := d.check(op); err != nil {
		return err
	}
	deadline := time.Now().Add(d.inner.cfg.fenceTimeout)
	for _, f := range fences {
		if f == nil {
			continue
		}
		if f.dev != d.inner {
			return d.inner.foreign(op, "fence")
		}
		if err := f.wait(op, deadline); err != nil {
			return err
		}
	}
	return nil
}
