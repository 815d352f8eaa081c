package empty

import "github.com/gogpu/rhi/gpucore"

// Buffer is an Empty buffer. Host-visible buffers keep their contents in memory.
type Buffer struct {
	dev    *device
	def    gpucore.BufferDef
	size   uint64
	memory []byte
}

// BufferDef returns the definition the buffer was created with.
func (b *Buffer) BufferDef() gpucore.BufferDef { return b.def }

// Size returns the allocated size, which may exceed the requested size
// because of alignment.
func (b *Buffer) Size() uint64 { return b.size }

// CopyToHostVisibleBuffer writes data at offset.
func (b *Buffer) CopyToHostVisibleBuffer(data []byte, offset uint64) error {
	const op = "copy_to_host_visible_buffer"
	if err := b.dev.alive(op); err != nil {
		return err
	}
	if b.memory == nil {
		return gpucore.Errorf(backend, op, gpucore.ErrInvalidState, "buffer is not host visible")
	}
	if offset > b.size || uint64(len(data)) > b.size-offset {
		return gpucore.Errorf(backend, op, gpucore.ErrInvalidDefinition,
			"write of %d bytes at %d overflows a %d byte buffer", len(data), offset, b.size)
	}
	copy(b.memory[offset:], data)
	return nil
}

// Contents returns the host-visible memory, nil for GPU-only buffers.
func (b *Buffer) Contents() []byte { return b.memory }

// Texture is an Empty texture.
type Texture struct {
	dev *device
	def gpucore.TextureDef
	// swapchain is set for swapchain images.
	swapchain *Swapchain
}

// TextureDef returns the normalized definition of the texture.
func (t *Texture) TextureDef() gpucore.TextureDef { return t.def }

// Sampler is an Empty sampler.
type Sampler struct {
	dev *device
	def gpucore.SamplerDef
}

// SamplerDef returns the definition the sampler was created with.
func (s *Sampler) SamplerDef() gpucore.SamplerDef { return s.def }

// ShaderModule holds unparsed shader code.
type ShaderModule struct {
	dev *device
	def gpucore.ShaderModuleDef
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

// RootSignature is the merged binding layout of a set of shaders.
type RootSignature struct {
	dev          *device
	pipelineType gpucore.PipelineType
	resources    []gpucore.ShaderResource
	immutable    map[string][]*Sampler
}

// PipelineType returns the pipeline type the root signature serves.
func (r *RootSignature) PipelineType() gpucore.PipelineType { return r.pipelineType }

// Resources returns the merged resources sorted by set and binding.
func (r *RootSignature) Resources() []gpucore.ShaderResource {
	return append([]gpucore.ShaderResource(nil), r.resources...)
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
	return gpucore.ShaderResource{}, gpucore.Errorf(backend, "descriptor_set_binding",
		gpucore.ErrInvalidDefinition, "set %d has no binding %d", d.setIndex, binding)
}

// Pipeline is a graphics or compute pipeline.
type Pipeline struct {
	dev          *device
	pipelineType gpucore.PipelineType
	shader       *Shader
	rs           *RootSignature
	meta         gpucore.RenderTargetMeta
}

// PipelineType returns graphics or compute.
func (p *Pipeline) PipelineType() gpucore.PipelineType { return p.pipelineType }

// RenderTargetMeta returns the attachments a graphics pipeline renders into.
func (p *Pipeline) RenderTargetMeta() gpucore.RenderTargetMeta { return p.meta }
