package native

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// owned tracks hal objects that must go before the device does. Resources
// destroyed explicitly leave the set; the rest are freed at teardown.
type owned struct {
	mu  sync.Mutex
	set map[releaser]struct{}
}

type releaser interface {
	release()
}

func (o *owned) add(r releaser) {
	o.mu.Lock()
	if o.set == nil {
		o.set = make(map[releaser]struct{})
	}
	o.set[r] = struct{}{}
	o.mu.Unlock()
}

func (o *owned) remove(r releaser) {
	o.mu.Lock()
	delete(o.set, r)
	o.mu.Unlock()
}

// drain releases every tracked object. Pipelines go first, then layouts,
// then everything else.
func (o *owned) drain() {
	o.mu.Lock()
	set := o.set
	o.set = nil
	o.mu.Unlock()
	for pass := 0; pass < 3; pass++ {
		for r := range set {
			if releaseOrder(r) == pass {
				r.release()
			}
		}
	}
}

func releaseOrder(r releaser) int {
	switch r.(type) {
	case *Pipeline:
		return 0
	case *RootSignature:
		return 1
	default:
		return 2
	}
}

// Buffer is a native buffer.
type Buffer struct {
	dev  *device
	def  gpucore.BufferDef
	size uint64
	hal  hal.Buffer
	gone atomic.Bool
}

// BufferDef returns the definition the buffer was created with.
func (b *Buffer) BufferDef() gpucore.BufferDef { return b.def }

// Size returns the allocated size.
func (b *Buffer) Size() uint64 { return b.size }

// CopyToHostVisibleBuffer writes data at offset through the queue.
func (b *Buffer) CopyToHostVisibleBuffer(data []byte, offset uint64) error {
	const op = "copy_to_host_visible_buffer"
	if err := b.dev.usable(op); err != nil {
		return err
	}
	if b.gone.Load() {
		return b.dev.errorf(op, gpucore.ErrInvalidState, "buffer was destroyed")
	}
	if !b.def.MemoryUsage.HostVisible() {
		return b.dev.errorf(op, gpucore.ErrInvalidState, "buffer is not host visible")
	}
	if offset > b.size || uint64(len(data)) > b.size-offset {
		return b.dev.errorf(op, gpucore.ErrInvalidDefinition,
			"write of %d bytes at %d overflows a %d byte buffer", len(data), offset, b.size)
	}
	b.dev.queue.WriteBuffer(b.hal, offset, data)
	return nil
}

// ReadBack copies len(dst) bytes at offset of a GPU-to-CPU buffer into dst.
func (b *Buffer) ReadBack(dst []byte, offset uint64) error {
	const op = "read_back_buffer"
	if err := b.dev.usable(op); err != nil {
		return err
	}
	if b.def.MemoryUsage != gpucore.MemoryUsageGPUToCPU {
		return b.dev.errorf(op, gpucore.ErrInvalidState, "buffer is not a read-back buffer")
	}
	if err := b.dev.queue.ReadBuffer(b.hal, offset, dst); err != nil {
		return b.dev.fail(op, err, gpucore.ErrInvalidState)
	}
	return nil
}

// Destroy frees the buffer. It is safe to call more than once.
func (b *Buffer) Destroy() {
	if b.gone.Load() {
		return
	}
	b.dev.owned.remove(b)
	b.release()
}

func (b *Buffer) release() {
	if b.gone.CompareAndSwap(false, true) {
		b.dev.hal.DestroyBuffer(b.hal)
	}
}

// Texture is a native texture with one default view.
type Texture struct {
	dev  *device
	def  gpucore.TextureDef
	hal  hal.Texture
	view hal.TextureView
	// swapchain images belong to the surface and are never destroyed here.
	swapchain *Swapchain
	gone      atomic.Bool
}

// TextureDef returns the normalized definition of the texture.
func (t *Texture) TextureDef() gpucore.TextureDef { return t.def }

// Destroy frees the texture and its view. Swapchain images are left alone.
func (t *Texture) Destroy() {
	if t.swapchain != nil || t.gone.Load() {
		return
	}
	t.dev.owned.remove(t)
	t.release()
}

func (t *Texture) release() {
	if !t.gone.CompareAndSwap(false, true) {
		return
	}
	if t.view != nil {
		t.dev.hal.DestroyTextureView(t.view)
	}
	if t.swapchain == nil && t.hal != nil {
		t.dev.hal.DestroyTexture(t.hal)
	}
}

// Sampler is a native sampler.
type Sampler struct {
	dev  *device
	def  gpucore.SamplerDef
	hal  hal.Sampler
	gone atomic.Bool
}

// SamplerDef returns the definition the sampler was created with.
func (s *Sampler) SamplerDef() gpucore.SamplerDef { return s.def }

// Destroy frees the sampler.
func (s *Sampler) Destroy() {
	if s.gone.Load() {
		return
	}
	s.dev.owned.remove(s)
	s.release()
}

func (s *Sampler) release() {
	if s.gone.CompareAndSwap(false, true) {
		s.dev.hal.DestroySampler(s.hal)
	}
}

// ShaderModule is compiled shader code.
type ShaderModule struct {
	dev      *device
	label    string
	codeHash uint64
	hal      hal.ShaderModule
	gone     atomic.Bool
}

// CodeHash returns the FNV-1a hash of the module source.
func (m *ShaderModule) CodeHash() uint64 { return m.codeHash }

func (m *ShaderModule) release() {
	if m.gone.CompareAndSwap(false, true) {
		m.dev.hal.DestroyShaderModule(m.hal)
	}
}

// Shader is a validated set of stages.
type Shader struct {
	dev          *device
	stages       []ShaderStageDef
	stageMask    gpucore.ShaderStage
	pipelineType gpucore.PipelineType
}

// Stages returns the union of the shader's stages.
func (s *Shader) Stages() gpucore.ShaderStage { return s.stageMask }

// PipelineType returns the pipeline type the stages form.
func (s *Shader) PipelineType() gpucore.PipelineType { return s.pipelineType }

func (s *Shader) stage(st gpucore.ShaderStage) *ShaderStageDef {
	for i := range s.stages {
		if s.stages[i].Stage == st {
			return &s.stages[i]
		}
	}
	return nil
}

// RootSignature owns one bind group layout per set and the pipeline layout
// built from them.
type RootSignature struct {
	dev          *device
	id           uint64
	pipelineType gpucore.PipelineType
	resources    []gpucore.ShaderResource
	groups       []hal.BindGroupLayout
	layout       hal.PipelineLayout
	gone         atomic.Bool
}

// PipelineType returns the pipeline type the root signature serves.
func (r *RootSignature) PipelineType() gpucore.PipelineType { return r.pipelineType }

// Resources returns the merged resources sorted by set and binding.
func (r *RootSignature) Resources() []gpucore.ShaderResource {
	return append([]gpucore.ShaderResource(nil), r.resources...)
}

func (r *RootSignature) release() {
	if !r.gone.CompareAndSwap(false, true) {
		return
	}
	if r.layout != nil {
		r.dev.hal.DestroyPipelineLayout(r.layout)
	}
	for _, g := range r.groups {
		if g != nil {
			r.dev.hal.DestroyBindGroupLayout(g)
		}
	}
}

// DescriptorSetArray is an array of descriptor sets for one set index.
type DescriptorSetArray struct {
	dev      *device
	rs       *RootSignature
	setIndex uint32
	length   uint32
	bindings []gpucore.ShaderResource
}

// SetIndex returns the set index the array serves.
func (d *DescriptorSetArray) SetIndex() uint32 { return d.setIndex }

// Len returns the number of descriptor sets.
func (d *DescriptorSetArray) Len() uint32 { return d.length }

// Binding returns the resource declared at binding in the array's set.
func (d *DescriptorSetArray) Binding(binding uint32) (gpucore.ShaderResource, error) {
	for _, r := range d.bindings {
		if r.Binding == binding {
			return r, nil
		}
	}
	return gpucore.ShaderResource{}, d.dev.errorf("descriptor_set_binding",
		gpucore.ErrInvalidDefinition, "set %d has no binding %d", d.setIndex, binding)
}

// Pipeline is a graphics or compute pipeline. Pipelines are shared through
// the device's pipeline cache and freed with the device.
type Pipeline struct {
	dev          *device
	pipelineType gpucore.PipelineType
	meta         gpucore.RenderTargetMeta
	render       hal.RenderPipeline
	compute      hal.ComputePipeline
	gone         atomic.Bool
}

// PipelineType returns graphics or compute.
func (p *Pipeline) PipelineType() gpucore.PipelineType { return p.pipelineType }

// RenderTargetMeta returns the attachments a graphics pipeline renders into.
func (p *Pipeline) RenderTargetMeta() gpucore.RenderTargetMeta { return p.meta }

func (p *Pipeline) release() {
	if !p.gone.CompareAndSwap(false, true) {
		return
	}
	if p.render != nil {
		p.dev.hal.DestroyRenderPipeline(p.render)
	}
	if p.compute != nil {
		p.dev.hal.DestroyComputePipeline(p.compute)
	}
}
