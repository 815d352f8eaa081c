// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package empty

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/rhi/internal/lifetime"
)

// Definitions instantiated with Empty backend handles.
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

const backend = gpucore.BackendEmpty

// DeviceContext is a handle to an Empty device. Clones share one device,
// which is destroyed when the last clone is released.
type DeviceContext struct {
	life  *lifetime.Handle
	inner *device
}

// device is the state shared by all clones and by every object created
// from them.
type device struct {
	cfg    config
	shared *lifetime.Shared

	lostOnce sync.Once
	lost     chan struct{}

	submissions    atomic.Uint64
	commandBuffers atomic.Uint64
	draws          atomic.Uint64
	dispatches     atomic.Uint64
	presents       atomic.Uint64
}

// Stats counts the work the simulated GPU has executed.
type Stats struct {
	Submissions    uint64
	CommandBuffers uint64
	Draws          uint64
	Dispatches     uint64
	Presents       uint64
}

// New creates an Empty device context.
func New(opts ...Option) (*DeviceContext, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.sampleCounts) == 0 {
		return nil, gpucore.Errorf(backend, "create_device_context", gpucore.ErrInvalidDefinition,
			"at least one sample count must be supported")
	}

	dev := &device{cfg: cfg, lost: make(chan struct{})}
	life := lifetime.New(backend.String(), func() {
		slogger().Debug("empty: device context destroyed")
	})
	dev.shared = life.Shared()

	slogger().Debug("empty: device context created",
		"uniform_alignment", cfg.info.MinUniformBufferOffsetAlignment,
		"storage_alignment", cfg.info.MinStorageBufferOffsetAlignment,
		"clamp_to_border", cfg.info.SupportsClampToBorderColor,
		"submit_latency", cfg.submitLatency,
		"manual_timeline", cfg.manual)
	return &DeviceContext{life: life, inner: dev}, nil
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
func (d *DeviceContext) Destroyed() bool {
	return d.inner.shared.Destroyed()
}

// Refs returns the number of live handles.
func (d *DeviceContext) Refs() int64 {
	return d.inner.shared.Refs()
}

// OutstandingClones returns the creation stacks of unreleased handles in
// rhidebug builds.
func (d *DeviceContext) OutstandingClones() []string {
	return d.inner.shared.Outstanding()
}

// DeviceInfo returns the device capabilities.
func (d *DeviceContext) DeviceInfo() gpucore.DeviceInfo {
	return d.inner.cfg.info
}

// Stats returns a snapshot of the executed work counters.
func (d *DeviceContext) Stats() Stats {
	dev := d.inner
	return Stats{
		Submissions:    dev.submissions.Load(),
		CommandBuffers: dev.commandBuffers.Load(),
		Draws:          dev.draws.Load(),
		Dispatches:     dev.dispatches.Load(),
		Presents:       dev.presents.Load(),
	}
}

// SimulateDeviceLost marks the device lost. Pending submissions never
// complete, and waits, submissions and acquires fail with ErrDeviceLost.
func (d *DeviceContext) SimulateDeviceLost() {
	d.inner.markLost()
}

func (dev *device) markLost() {
	dev.lostOnce.Do(func() {
		close(dev.lost)
		slogger().Warn("empty: device lost")
	})
}

func (dev *device) isLost() bool {
	select {
	case <-dev.lost:
		return true
	default:
		return false
	}
}

// check guards every handle operation.
func (d *DeviceContext) check(op string) error {
	if !d.life.Alive() {
		return destroyedErr(op)
	}
	return nil
}

// alive guards operations on objects created from the device.
func (dev *device) alive(op string) error {
	if dev.shared.Destroyed() {
		return destroyedErr(op)
	}
	return nil
}

// usable additionally rejects operations after device loss.
func (dev *device) usable(op string) error {
	if err := dev.alive(op); err != nil {
		return err
	}
	if dev.isLost() {
		return gpucore.Errorf(backend, op, gpucore.ErrDeviceLost, "device was lost")
	}
	return nil
}

func destroyedErr(op string) error {
	return gpucore.Errorf(backend, op, gpucore.ErrDeviceDestroyed, "all device context handles were released")
}

func invalid(op string, err error) error {
	return gpucore.Wrap(backend, op, gpucore.ErrInvalidDefinition, err)
}

func foreign(op, what string) error {
	return gpucore.Errorf(backend, op, gpucore.ErrInvalidDefinition, "%s belongs to another device context", what)
}

func nilHandle(op, what string) error {
	return gpucore.Errorf(backend, op, gpucore.ErrInvalidDefinition, "%s is nil", what)
}

// CreateQueue returns a queue of type t.
func (d *DeviceContext) CreateQueue(t gpucore.QueueType) (*Queue, error) {
	const op = "create_queue"
	if err := d.check(op); err != nil {
		return nil, err
	}
	for _, qt := range d.inner.cfg.queueTypes {
		if qt == t {
			return newQueue(d.inner, t), nil
		}
	}
	return nil, gpucore.Errorf(backend, op, gpucore.ErrUnsupported, "no %s queue family", t)
}

// CreateFence returns an unsubmitted fence.
func (d *DeviceContext) CreateFence() (*Fence, error) {
	if err := d.check("create_fence"); err != nil {
		return nil, err
	}
	return &Fence{dev: d.inner}, nil
}

// CreateSemaphore returns a semaphore with no pending signal.
func (d *DeviceContext) CreateSemaphore() (*Semaphore, error) {
	if err := d.check("create_semaphore"); err != nil {
		return nil, err
	}
	return &Semaphore{dev: d.inner}, nil
}

// CreateSwapchain creates a swapchain for window. A nil window creates a
// headless swapchain that never goes out of date.
func (d *DeviceContext) CreateSwapchain(window gpucore.WindowHandle, def *gpucore.SwapchainDef) (*Swapchain, error) {
	const op = "create_swapchain"
	if err := d.check(op); err != nil {
		return nil, err
	}
	return newSwapchain(d.inner, window, def)
}

// CreateBuffer creates a buffer. Host-visible buffers get backing memory.
func (d *DeviceContext) CreateBuffer(def *gpucore.BufferDef) (*Buffer, error) {
	const op = "create_buffer"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	if err := def.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	b := &Buffer{dev: d.inner, def: *def, size: def.AlignedSize(&d.inner.cfg.info)}
	if def.MemoryUsage.HostVisible() {
		b.memory = make([]byte, b.size)
	}
	return b, nil
}

// CreateTexture creates a texture.
func (d *DeviceContext) CreateTexture(def *gpucore.TextureDef) (*Texture, error) {
	const op = "create_texture"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	n := def.Normalized()
	if err := n.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	if limit := d.inner.cfg.info.MaxTextureDimension2D; limit != 0 &&
		(n.Extents.Width > limit || n.Extents.Height > limit) {
		return nil, gpucore.Errorf(backend, op, gpucore.ErrUnsupported,
			"extents %dx%d exceed the device limit of %d", n.Extents.Width, n.Extents.Height, limit)
	}
	if err := n.ValidateCapabilities(d.inner.cfg.formats, d.inner.cfg.sampleCounts); err != nil {
		return nil, gpucore.Wrap(backend, op, gpucore.ErrUnsupported, err)
	}
	return &Texture{dev: d.inner, def: n}, nil
}

// CreateSampler creates a sampler.
func (d *DeviceContext) CreateSampler(def *gpucore.SamplerDef) (*Sampler, error) {
	const op = "create_sampler"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	if err := def.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	if def.UsesClampToBorder() && !d.inner.cfg.info.SupportsClampToBorderColor {
		return nil, gpucore.Errorf(backend, op, gpucore.ErrUnsupported, "clamp-to-border address mode")
	}
	return &Sampler{dev: d.inner, def: *def}, nil
}

// CreateShaderModule wraps shader code. The Empty backend does not parse it.
func (d *DeviceContext) CreateShaderModule(def *gpucore.ShaderModuleDef) (*ShaderModule, error) {
	const op = "create_shader_module"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	if err := def.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	return &ShaderModule{dev: d.inner, def: *def}, nil
}

// CreateShader combines shader stages.
func (d *DeviceContext) CreateShader(stages []ShaderStageDef) (*Shader, error) {
	const op = "create_shader"
	if err := d.check(op); err != nil {
		return nil, err
	}
	for i := range stages {
		m := stages[i].Module
		if m == nil {
			return nil, invalid(op, fmt.Errorf("stage %d has no module", i))
		}
		if m.dev != d.inner {
			return nil, foreign(op, "shader module")
		}
	}
	mask, pt, err := gpucore.ValidateShaderStages(stages)
	if err != nil {
		return nil, invalid(op, err)
	}
	return &Shader{
		dev:          d.inner,
		stages:       append([]ShaderStageDef(nil), stages...),
		stageMask:    mask,
		pipelineType: pt,
	}, nil
}

// CreateRootSignature merges the bindings of def.Shaders into one layout.
func (d *DeviceContext) CreateRootSignature(def *RootSignatureDef) (*RootSignature, error) {
	const op = "create_root_signature"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	if len(def.Shaders) == 0 {
		return nil, invalid(op, errors.New("root signature needs at least one shader"))
	}
	var lists [][]gpucore.ShaderResource
	if def.Shaders[0] == nil {
		return nil, nilHandle(op, "shader")
	}
	pt := def.Shaders[0].pipelineType
	for i, sh := range def.Shaders {
		if sh == nil {
			return nil, nilHandle(op, "shader")
		}
		if sh.dev != d.inner {
			return nil, foreign(op, "shader")
		}
		if sh.pipelineType != pt {
			return nil, invalid(op, fmt.Errorf("shader %d is %s, shader 0 is %s", i, sh.pipelineType, pt))
		}
		for _, st := range sh.stages {
			lists = append(lists, stageResources(&st))
		}
	}
	resources, err := gpucore.MergeShaderResources(lists...)
	if err != nil {
		return nil, invalid(op, err)
	}
	if err := gpucore.ValidateImmutableSamplers(resources, def.ImmutableSamplers); err != nil {
		return nil, invalid(op, err)
	}
	immutable := make(map[string][]*Sampler, len(def.ImmutableSamplers))
	for _, is := range def.ImmutableSamplers {
		for _, s := range is.Samplers {
			if s == nil {
				return nil, nilHandle(op, "immutable sampler")
			}
			if s.dev != d.inner {
				return nil, foreign(op, "immutable sampler")
			}
		}
		immutable[is.Name] = append([]*Sampler(nil), is.Samplers...)
	}
	return &RootSignature{
		dev:          d.inner,
		pipelineType: pt,
		resources:    resources,
		immutable:    immutable,
	}, nil
}

// stageResources returns the stage's resources with their stage mask filled in.
func stageResources(st *ShaderStageDef) []gpucore.ShaderResource {
	out := make([]gpucore.ShaderResource, len(st.Resources))
	for i, r := range st.Resources {
		if r.UsedInStages == 0 {
			r.UsedInStages = st.Stage
		}
		out[i] = r
	}
	return out
}

// CreateDescriptorSetArray creates descriptor sets for one set index.
func (d *DeviceContext) CreateDescriptorSetArray(def *DescriptorSetArrayDef) (*DescriptorSetArray, error) {
	const op = "create_descriptor_set_array"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	rs := def.RootSignature
	if rs == nil {
		return nil, invalid(op, errors.New("no root signature"))
	}
	if rs.dev != d.inner {
		return nil, foreign(op, "root signature")
	}
	if def.ArrayLength == 0 {
		return nil, invalid(op, errors.New("array length must be at least 1"))
	}
	bindings := gpucore.ResourcesInSet(rs.resources, def.SetIndex)
	if len(bindings) == 0 {
		return nil, invalid(op, fmt.Errorf("root signature declares no resources in set %d", def.SetIndex))
	}
	return &DescriptorSetArray{
		dev:      d.inner,
		rs:       rs,
		setIndex: def.SetIndex,
		length:   def.ArrayLength,
		bindings: bindings,
	}, nil
}

// CreateGraphicsPipeline creates a graphics pipeline.
func (d *DeviceContext) CreateGraphicsPipeline(def *GraphicsPipelineDef) (*Pipeline, error) {
	const op = "create_graphics_pipeline"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	if err := d.checkPipelineRefs(op, def.Shader, def.RootSignature, gpucore.PipelineTypeGraphics); err != nil {
		return nil, err
	}
	if def.Shader.stageMask&gpucore.ShaderStageVertex == 0 {
		return nil, invalid(op, errors.New("graphics pipeline needs a vertex stage"))
	}
	meta := def.RenderTargetMeta()
	if err := meta.Validate(d.inner.cfg.formats, d.inner.cfg.sampleCounts); err != nil {
		return nil, gpucore.Wrap(backend, op, gpucore.ErrUnsupported, err)
	}
	if def.VertexLayout != nil {
		if err := def.VertexLayout.Validate(); err != nil {
			return nil, invalid(op, err)
		}
	}
	meta.ColorFormats = append([]gpucore.Format(nil), meta.ColorFormats...)
	return &Pipeline{
		dev:          d.inner,
		pipelineType: gpucore.PipelineTypeGraphics,
		shader:       def.Shader,
		rs:           def.RootSignature,
		meta:         meta,
	}, nil
}

// CreateComputePipeline creates a compute pipeline.
func (d *DeviceContext) CreateComputePipeline(def *ComputePipelineDef) (*Pipeline, error) {
	const op = "create_compute_pipeline"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nilHandle(op, "definition")
	}
	if err := d.checkPipelineRefs(op, def.Shader, def.RootSignature, gpucore.PipelineTypeCompute); err != nil {
		return nil, err
	}
	return &Pipeline{
		dev:          d.inner,
		pipelineType: gpucore.PipelineTypeCompute,
		shader:       def.Shader,
		rs:           def.RootSignature,
	}, nil
}

func (d *DeviceContext) checkPipelineRefs(op string, sh *Shader, rs *RootSignature, pt gpucore.PipelineType) error {
	if sh == nil || rs == nil {
		return invalid(op, errors.New("pipeline needs a shader and a root signature"))
	}
	if sh.dev != d.inner {
		return foreign(op, "shader")
	}
	if rs.dev != d.inner {
		return foreign(op, "root signature")
	}
	if sh.pipelineType != pt {
		return invalid(op, fmt.Errorf("shader stages %s do not form a %s pipeline", sh.stageMask, pt))
	}
	if rs.pipelineType != pt {
		return invalid(op, fmt.Errorf("root signature is for %s pipelines", rs.pipelineType))
	}
	return nil
}

// FindSupportedFormat returns the first candidate usable as resource type r.
// A released handle finds nothing.
func (d *DeviceContext) FindSupportedFormat(candidates []gpucore.Format, r gpucore.ResourceType) (gpucore.Format, bool) {
	if !d.life.Alive() {
		return gpucore.FormatUndefined, false
	}
	return gpucore.FindSupportedFormat(d.inner.cfg.formats, candidates, r)
}

// FindSupportedSampleCount returns the first supported candidate.
func (d *DeviceContext) FindSupportedSampleCount(candidates []gpucore.SampleCount) (gpucore.SampleCount, bool) {
	if !d.life.Alive() {
		return 0, false
	}
	return gpucore.FindSupportedSampleCount(d.inner.cfg.sampleCounts, candidates)
}

// WaitForFences blocks until every submitted fence has signaled. Fences
// that were never submitted are skipped.
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
			return foreign(op, "fence")
		}
		if err := f.wait(op, deadline); err != nil {
			return err
		}
	}
	return nil
}
