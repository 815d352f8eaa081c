// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/gl"
	"github.com/gogpu/rhi/backend/metal"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/backend/vulkan"
	"github.com/gogpu/rhi/gpucore"
)

// DeviceContext is a handle to a device of one backend. The backend is fixed
// at creation; every method dispatches on it.
//
// Handles are cheap. Clone shares the device, Release drops the handle, and
// the device is destroyed when its last handle is released.
type DeviceContext struct {
	variant[*empty.DeviceContext, *native.DeviceContext]
}

// NewEmptyDeviceContext creates a device on the in-process Empty backend.
func NewEmptyDeviceContext(opts ...Option) (*DeviceContext, error) {
	o := buildOptions(opts)
	d, err := empty.New(o.empty...)
	if err != nil {
		return nil, err
	}
	return FromEmpty(d), nil
}

// NewVulkanDeviceContext creates a Vulkan device. window may be nil; the
// device presents to any window given to CreateSwapchain.
func NewVulkanDeviceContext(window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
	return openNative(vulkan.Profile, window, opts)
}

// NewMetalDeviceContext creates a Metal device. Only darwin builds link the
// Metal driver; elsewhere it fails with ErrBackendUnavailable.
func NewMetalDeviceContext(window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
	return openNative(metal.Profile, window, opts)
}

// NewGLDeviceContext creates a GL device for window, which must not be nil.
func NewGLDeviceContext(window gpucore.WindowHandle, opts ...Option) (*DeviceContext, error) {
	return openNative(gl.Profile, window, opts)
}

func openNative(p native.Profile, window gpucore.WindowHandle, opts []Option) (*DeviceContext, error) {
	o := buildOptions(opts)
	d, err := native.Open(p, window, o.native...)
	if err != nil {
		return nil, err
	}
	return FromNative(d), nil
}

// FromEmpty wraps an Empty device handle. The façade takes over the handle.
func FromEmpty(d *empty.DeviceContext) *DeviceContext {
	return &DeviceContext{emptyVariant[*native.DeviceContext](d)}
}

// FromNative wraps a native device handle. The façade takes over the handle.
func FromNative(d *native.DeviceContext) *DeviceContext {
	return &DeviceContext{nativeVariant[*empty.DeviceContext](d.Backend(), d)}
}

// Clone returns a new handle to the same device.
func (d *DeviceContext) Clone() *DeviceContext {
	if d.backend == gpucore.BackendEmpty {
		return FromEmpty(d.e.Clone())
	}
	return FromNative(d.n.Clone())
}

// Release drops this handle. Releasing twice is a no-op.
func (d *DeviceContext) Release() {
	Logger().Debug("rhi: release device context", "backend", d.backend)
	if d.backend == gpucore.BackendEmpty {
		d.e.Release()
		return
	}
	d.n.Release()
}

// Destroyed reports whether the device has been destroyed.
func (d *DeviceContext) Destroyed() bool {
	if d.backend == gpucore.BackendEmpty {
		return d.e.Destroyed()
	}
	return d.n.Destroyed()
}

// Refs returns the number of live handles to the device.
func (d *DeviceContext) Refs() int64 {
	if d.backend == gpucore.BackendEmpty {
		return d.e.Refs()
	}
	return d.n.Refs()
}

// OutstandingClones lists the creation stacks of live handles. It is empty
// unless built with -tags rhidebug.
func (d *DeviceContext) OutstandingClones() []string {
	if d.backend == gpucore.BackendEmpty {
		return d.e.OutstandingClones()
	}
	return d.n.OutstandingClones()
}

// DeviceInfo returns alignment requirements and capabilities.
func (d *DeviceContext) DeviceInfo() gpucore.DeviceInfo {
	if d.backend == gpucore.BackendEmpty {
		return d.e.DeviceInfo()
	}
	return d.n.DeviceInfo()
}

// create calls the constructor of d's backend with arg and wraps the
// result.
func create[A, E, N any](
	d *DeviceContext, arg A,
	ef func(*empty.DeviceContext, A) (E, error),
	nf func(*native.DeviceContext, A) (N, error),
) (variant[E, N], error) {
	if d.backend == gpucore.BackendEmpty {
		e, err := ef(d.e, arg)
		return emptyVariant[N](e), err
	}
	n, err := nf(d.n, arg)
	return nativeVariant[E](d.backend, n), err
}

// CreateQueue returns a queue of type t.
func (d *DeviceContext) CreateQueue(t gpucore.QueueType) (*Queue, error) {
	v, err := create(d, t, (*empty.DeviceContext).CreateQueue, (*native.DeviceContext).CreateQueue)
	if err != nil {
		return nil, err
	}
	return &Queue{v}, nil
}

// CreateFence creates an unsubmitted fence.
func (d *DeviceContext) CreateFence() (*Fence, error) {
	if d.backend == gpucore.BackendEmpty {
		f, err := d.e.CreateFence()
		if err != nil {
			return nil, err
		}
		return &Fence{emptyVariant[*native.Fence](f)}, nil
	}
	f, err := d.n.CreateFence()
	if err != nil {
		return nil, err
	}
	return &Fence{nativeVariant[*empty.Fence](d.backend, f)}, nil
}

// CreateSemaphore creates a semaphore with no pending signal.
func (d *DeviceContext) CreateSemaphore() (*Semaphore, error) {
	if d.backend == gpucore.BackendEmpty {
		s, err := d.e.CreateSemaphore()
		if err != nil {
			return nil, err
		}
		return &Semaphore{emptyVariant[*native.Semaphore](s)}, nil
	}
	s, err := d.n.CreateSemaphore()
	if err != nil {
		return nil, err
	}
	return &Semaphore{nativeVariant[*empty.Semaphore](d.backend, s)}, nil
}

// CreateSwapchain creates a swapchain for window. The Empty backend accepts
// a nil window and runs headless.
func (d *DeviceContext) CreateSwapchain(window gpucore.WindowHandle, def *gpucore.SwapchainDef) (*Swapchain, error) {
	if d.backend == gpucore.BackendEmpty {
		sc, err := d.e.CreateSwapchain(window, def)
		if err != nil {
			return nil, err
		}
		return &Swapchain{variant: emptyVariant[*native.Swapchain](sc)}, nil
	}
	sc, err := d.n.CreateSwapchain(window, def)
	if err != nil {
		return nil, err
	}
	return &Swapchain{variant: nativeVariant[*empty.Swapchain](d.backend, sc)}, nil
}

// CreateBuffer creates a buffer.
func (d *DeviceContext) CreateBuffer(def *gpucore.BufferDef) (*Buffer, error) {
	v, err := create(d, def, (*empty.DeviceContext).CreateBuffer, (*native.DeviceContext).CreateBuffer)
	if err != nil {
		return nil, err
	}
	return &Buffer{v}, nil
}

// CreateTexture creates a texture.
func (d *DeviceContext) CreateTexture(def *gpucore.TextureDef) (*Texture, error) {
	v, err := create(d, def, (*empty.DeviceContext).CreateTexture, (*native.DeviceContext).CreateTexture)
	if err != nil {
		return nil, err
	}
	return &Texture{v}, nil
}

// CreateSampler creates a sampler.
func (d *DeviceContext) CreateSampler(def *gpucore.SamplerDef) (*Sampler, error) {
	v, err := create(d, def, (*empty.DeviceContext).CreateSampler, (*native.DeviceContext).CreateSampler)
	if err != nil {
		return nil, err
	}
	return &Sampler{v}, nil
}

// CreateShaderModule creates a shader module from WGSL or SPIR-V.
func (d *DeviceContext) CreateShaderModule(def *gpucore.ShaderModuleDef) (*ShaderModule, error) {
	v, err := create(d, def, (*empty.DeviceContext).CreateShaderModule, (*native.DeviceContext).CreateShaderModule)
	if err != nil {
		return nil, err
	}
	return &ShaderModule{v}, nil
}

// CreateShader groups stage entry points into a shader.
func (d *DeviceContext) CreateShader(stages []ShaderStageDef) (*Shader, error) {
	const op = "create_shader"
	if d.backend == gpucore.BackendEmpty {
		low, err := lowerEmpty(op).stages(stages)
		if err != nil {
			return nil, err
		}
		sh, err := d.e.CreateShader(low)
		if err != nil {
			return nil, err
		}
		return &Shader{emptyVariant[*native.Shader](sh)}, nil
	}
	low, err := lowerNative(op, d.backend).stages(stages)
	if err != nil {
		return nil, err
	}
	sh, err := d.n.CreateShader(low)
	if err != nil {
		return nil, err
	}
	return &Shader{nativeVariant[*empty.Shader](d.backend, sh)}, nil
}

// CreateRootSignature merges the bindings of def.Shaders into one layout.
func (d *DeviceContext) CreateRootSignature(def *RootSignatureDef) (*RootSignature, error) {
	const op = "create_root_signature"
	if d.backend == gpucore.BackendEmpty {
		low, err := lowerEmpty(op).rootSignature(def)
		if err != nil {
			return nil, err
		}
		rs, err := d.e.CreateRootSignature(low)
		if err != nil {
			return nil, err
		}
		return &RootSignature{emptyVariant[*native.RootSignature](rs)}, nil
	}
	low, err := lowerNative(op, d.backend).rootSignature(def)
	if err != nil {
		return nil, err
	}
	rs, err := d.n.CreateRootSignature(low)
	if err != nil {
		return nil, err
	}
	return &RootSignature{nativeVariant[*empty.RootSignature](d.backend, rs)}, nil
}

// CreateDescriptorSetArray creates descriptor sets for one set index of a
// root signature.
func (d *DeviceContext) CreateDescriptorSetArray(def *DescriptorSetArrayDef) (*DescriptorSetArray, error) {
	const op = "create_descriptor_set_array"
	if d.backend == gpucore.BackendEmpty {
		low, err := lowerEmpty(op).descriptorSets(def)
		if err != nil {
			return nil, err
		}
		a, err := d.e.CreateDescriptorSetArray(low)
		if err != nil {
			return nil, err
		}
		return &DescriptorSetArray{emptyVariant[*native.DescriptorSetArray](a)}, nil
	}
	low, err := lowerNative(op, d.backend).descriptorSets(def)
	if err != nil {
		return nil, err
	}
	a, err := d.n.CreateDescriptorSetArray(low)
	if err != nil {
		return nil, err
	}
	return &DescriptorSetArray{nativeVariant[*empty.DescriptorSetArray](d.backend, a)}, nil
}

// CreateGraphicsPipeline creates a graphics pipeline.
func (d *DeviceContext) CreateGraphicsPipeline(def *GraphicsPipelineDef) (*Pipeline, error) {
	const op = "create_graphics_pipeline"
	if d.backend == gpucore.BackendEmpty {
		low, err := lowerEmpty(op).graphics(def)
		if err != nil {
			return nil, err
		}
		p, err := d.e.CreateGraphicsPipeline(low)
		if err != nil {
			return nil, err
		}
		return &Pipeline{emptyVariant[*native.Pipeline](p)}, nil
	}
	low, err := lowerNative(op, d.backend).graphics(def)
	if err != nil {
		return nil, err
	}
	p, err := d.n.CreateGraphicsPipeline(low)
	if err != nil {
		return nil, err
	}
	return &Pipeline{nativeVariant[*empty.Pipeline](d.backend, p)}, nil
}

// CreateComputePipeline creates a compute pipeline.
func (d *DeviceContext) CreateComputePipeline(def *ComputePipelineDef) (*Pipeline, error) {
	const op = "create_compute_pipeline"
	if d.backend == gpucore.BackendEmpty {
		low, err := lowerEmpty(op).compute(def)
		if err != nil {
			return nil, err
		}
		p, err := d.e.CreateComputePipeline(low)
		if err != nil {
			return nil, err
		}
		return &Pipeline{emptyVariant[*native.Pipeline](p)}, nil
	}
	low, err := lowerNative(op, d.backend).compute(def)
	if err != nil {
		return nil, err
	}
	p, err := d.n.CreateComputePipeline(low)
	if err != nil {
		return nil, err
	}
	return &Pipeline{nativeVariant[*empty.Pipeline](d.backend, p)}, nil
}

// FindSupportedFormat returns the first candidate usable as r.
func (d *DeviceContext) FindSupportedFormat(candidates []gpucore.Format, r gpucore.ResourceType) (gpucore.Format, bool) {
	if d.backend == gpucore.BackendEmpty {
		return d.e.FindSupportedFormat(candidates, r)
	}
	return d.n.FindSupportedFormat(candidates, r)
}

// FindSupportedSampleCount returns the first supported candidate.
func (d *DeviceContext) FindSupportedSampleCount(candidates []gpucore.SampleCount) (gpucore.SampleCount, bool) {
	if d.backend == gpucore.BackendEmpty {
		return d.e.FindSupportedSampleCount(candidates)
	}
	return d.n.FindSupportedSampleCount(candidates)
}

// WaitForFences blocks until every submitted fence completes. Unsubmitted
// fences do not block. No fence is reset.
func (d *DeviceContext) WaitForFences(fences []*Fence) error {
	const op = "wait_for_fences"
	if d.backend == gpucore.BackendEmpty {
		low, err := mapAll(fences, func(f *Fence) (*empty.Fence, error) { return f.v().emptyFor(op) })
		if err != nil {
			return err
		}
		return d.e.WaitForFences(low)
	}
	low, err := mapAll(fences, func(f *Fence) (*native.Fence, error) { return f.v().nativeFor(op, d.backend) })
	if err != nil {
		return err
	}
	return d.n.WaitForFences(low)
}
