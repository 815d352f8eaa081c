package rhi

import (
	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// Buffer is a GPU buffer.
type Buffer struct {
	variant[*empty.Buffer, *native.Buffer]
}

func (b *Buffer) v() *variant[*empty.Buffer, *native.Buffer] {
	if b == nil {
		return nil
	}
	return &b.variant
}

// BufferDef returns the definition the buffer was created with.
func (b *Buffer) BufferDef() gpucore.BufferDef {
	if b.backend == gpucore.BackendEmpty {
		return b.e.BufferDef()
	}
	return b.n.BufferDef()
}

// Size returns the allocated size, which may exceed the requested size.
func (b *Buffer) Size() uint64 {
	if b.backend == gpucore.BackendEmpty {
		return b.e.Size()
	}
	return b.n.Size()
}

// CopyToHostVisibleBuffer writes data at offset. The buffer must be host
// visible.
func (b *Buffer) CopyToHostVisibleBuffer(data []byte, offset uint64) error {
	if b.backend == gpucore.BackendEmpty {
		return b.e.CopyToHostVisibleBuffer(data, offset)
	}
	return b.n.CopyToHostVisibleBuffer(data, offset)
}

// Destroy frees the native buffer. Empty buffers need no cleanup.
func (b *Buffer) Destroy() {
	if b.backend != gpucore.BackendEmpty {
		b.n.Destroy()
	}
}

// Texture is a GPU texture or swapchain image.
type Texture struct {
	variant[*empty.Texture, *native.Texture]
}

func (t *Texture) v() *variant[*empty.Texture, *native.Texture] {
	if t == nil {
		return nil
	}
	return &t.variant
}

// TextureDef returns the normalized definition of the texture.
func (t *Texture) TextureDef() gpucore.TextureDef {
	if t.backend == gpucore.BackendEmpty {
		return t.e.TextureDef()
	}
	return t.n.TextureDef()
}

// Destroy frees the native texture. Swapchain images are owned by their
// swapchain and ignore Destroy.
func (t *Texture) Destroy() {
	if t.backend != gpucore.BackendEmpty {
		t.n.Destroy()
	}
}

// Sampler is a texture sampler.
type Sampler struct {
	variant[*empty.Sampler, *native.Sampler]
}

func (s *Sampler) v() *variant[*empty.Sampler, *native.Sampler] {
	if s == nil {
		return nil
	}
	return &s.variant
}

// SamplerDef returns the definition the sampler was created with.
func (s *Sampler) SamplerDef() gpucore.SamplerDef {
	if s.backend == gpucore.BackendEmpty {
		return s.e.SamplerDef()
	}
	return s.n.SamplerDef()
}

// Destroy frees the native sampler.
func (s *Sampler) Destroy() {
	if s.backend != gpucore.BackendEmpty {
		s.n.Destroy()
	}
}

// ShaderModule is compiled shader code. Modules live as long as the device.
type ShaderModule struct {
	variant[*empty.ShaderModule, *native.ShaderModule]
}

func (m *ShaderModule) v() *variant[*empty.ShaderModule, *native.ShaderModule] {
	if m == nil {
		return nil
	}
	return &m.variant
}

// Shader is a set of entry points forming one pipeline's stages.
type Shader struct {
	variant[*empty.Shader, *native.Shader]
}

func (s *Shader) v() *variant[*empty.Shader, *native.Shader] {
	if s == nil {
		return nil
	}
	return &s.variant
}

// Stages returns the union of the shader's stages.
func (s *Shader) Stages() gpucore.ShaderStage {
	if s.backend == gpucore.BackendEmpty {
		return s.e.Stages()
	}
	return s.n.Stages()
}

// PipelineType returns the kind of pipeline the shader builds.
func (s *Shader) PipelineType() gpucore.PipelineType {
	if s.backend == gpucore.BackendEmpty {
		return s.e.PipelineType()
	}
	return s.n.PipelineType()
}

// RootSignature is the binding layout shared by a set of shaders.
type RootSignature struct {
	variant[*empty.RootSignature, *native.RootSignature]
}

func (r *RootSignature) v() *variant[*empty.RootSignature, *native.RootSignature] {
	if r == nil {
		return nil
	}
	return &r.variant
}

// PipelineType returns the kind of pipeline the layout serves.
func (r *RootSignature) PipelineType() gpucore.PipelineType {
	if r.backend == gpucore.BackendEmpty {
		return r.e.PipelineType()
	}
	return r.n.PipelineType()
}

// Resources returns the merged bindings sorted by set and binding.
func (r *RootSignature) Resources() []gpucore.ShaderResource {
	if r.backend == gpucore.BackendEmpty {
		return r.e.Resources()
	}
	return r.n.Resources()
}

// DescriptorSetArray is an array of descriptor sets for one set index.
type DescriptorSetArray struct {
	variant[*empty.DescriptorSetArray, *native.DescriptorSetArray]
}

// SetIndex returns the set index the array binds.
func (a *DescriptorSetArray) SetIndex() uint32 {
	if a.backend == gpucore.BackendEmpty {
		return a.e.SetIndex()
	}
	return a.n.SetIndex()
}

// Len returns the number of descriptor sets.
func (a *DescriptorSetArray) Len() uint32 {
	if a.backend == gpucore.BackendEmpty {
		return a.e.Len()
	}
	return a.n.Len()
}

// Binding looks up the resource declared at binding in the array's set.
func (a *DescriptorSetArray) Binding(binding uint32) (gpucore.ShaderResource, error) {
	if a.backend == gpucore.BackendEmpty {
		return a.e.Binding(binding)
	}
	return a.n.Binding(binding)
}

// Pipeline is a graphics or compute pipeline.
type Pipeline struct {
	variant[*empty.Pipeline, *native.Pipeline]
}

func (p *Pipeline) v() *variant[*empty.Pipeline, *native.Pipeline] {
	if p == nil {
		return nil
	}
	return &p.variant
}

// PipelineType returns graphics or compute.
func (p *Pipeline) PipelineType() gpucore.PipelineType {
	if p.backend == gpucore.BackendEmpty {
		return p.e.PipelineType()
	}
	return p.n.PipelineType()
}

// RenderTargetMeta returns the attachments a graphics pipeline renders to.
func (p *Pipeline) RenderTargetMeta() gpucore.RenderTargetMeta {
	if p.backend == gpucore.BackendEmpty {
		return p.e.RenderTargetMeta()
	}
	return p.n.RenderTargetMeta()
}
