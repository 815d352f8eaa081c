package gpucore

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
)

// The definitions below reference GPU objects. They are generic over the
// handle types so that every backend, and the rhi façade, can instantiate
// them with its own handles while sharing validation.

// CommandPoolDef describes a command pool.
type CommandPoolDef struct {
	// Transient hints that buffers are short-lived and reset often.
	Transient bool
}

// ShaderStageDef binds one entry point of a shader module to a stage.
type ShaderStageDef[M any] struct {
	Module     M
	EntryPoint string
	Stage      ShaderStage
	// Resources declares the bindings this stage reads.
	Resources []ShaderResource
}

// ImmutableSamplers binds fixed samplers to a sampler resource by name.
type ImmutableSamplers[S any] struct {
	Name     string
	Samplers []S
}

// RootSignatureDef describes the binding layout shared by a set of shaders.
type RootSignatureDef[Sh, S any] struct {
	Shaders           []Sh
	ImmutableSamplers []ImmutableSamplers[S]
}

// DescriptorSetArrayDef describes an array of descriptor sets for one set
// index of a root signature.
type DescriptorSetArrayDef[R any] struct {
	RootSignature R
	SetIndex      uint32
	ArrayLength   uint32
}

// GraphicsPipelineDef describes a graphics pipeline.
type GraphicsPipelineDef[Sh, R any] struct {
	Shader            Sh
	RootSignature     R
	VertexLayout      *VertexLayout
	// Blend is applied to every color target, nil writes opaque.
	Blend             *gputypes.BlendState
	Depth             DepthState
	Rasterizer        RasterizerState
	PrimitiveTopology gputypes.PrimitiveTopology

	ColorFormats       []Format
	DepthStencilFormat Format
	SampleCount        SampleCount
}

// RenderTargetMeta returns the attachment description of the pipeline.
func (d *GraphicsPipelineDef[Sh, R]) RenderTargetMeta() RenderTargetMeta {
	return RenderTargetMeta{
		ColorFormats:       d.ColorFormats,
		DepthStencilFormat: d.DepthStencilFormat,
		SampleCount:        d.SampleCount,
	}
}

// ComputePipelineDef describes a compute pipeline.
type ComputePipelineDef[Sh, R any] struct {
	Shader        Sh
	RootSignature R
}

// ColorRenderTargetBinding attaches a texture as a color target of a render pass.
type ColorRenderTargetBinding[T any] struct {
	Texture    T
	LoadOp     LoadOp
	StoreOp    StoreOp
	MipSlice   uint8
	ArraySlice uint16
	ClearValue ColorClearValue
	// ResolveTarget receives the resolved image of a multisampled target.
	ResolveTarget T
}

// DepthStencilRenderTargetBinding attaches a depth-stencil target.
type DepthStencilRenderTargetBinding[T any] struct {
	Texture        T
	DepthLoadOp    LoadOp
	StencilLoadOp  LoadOp
	DepthStoreOp   StoreOp
	StencilStoreOp StoreOp
	ClearValue     DepthStencilClearValue
}

// VertexBufferBinding binds a buffer range to a vertex input slot.
type VertexBufferBinding[B any] struct {
	Buffer     B
	ByteOffset uint64
}

// ValidateShaderStages checks a stage list and returns the union of its
// stages and the pipeline type it implies.
func ValidateShaderStages[M any](stages []ShaderStageDef[M]) (ShaderStage, PipelineType, error) {
	if len(stages) == 0 {
		return 0, 0, errors.New("shader has no stages")
	}
	var all ShaderStage
	for i := range stages {
		s := &stages[i]
		if !s.Stage.Single() {
			return 0, 0, fmt.Errorf("stage %d: %s is not exactly one stage", i, s.Stage)
		}
		if s.EntryPoint == "" {
			return 0, 0, fmt.Errorf("stage %d (%s): empty entry point", i, s.Stage)
		}
		if all&s.Stage != 0 {
			return 0, 0, fmt.Errorf("stage %s declared twice", s.Stage)
		}
		for j := range s.Resources {
			if err := s.Resources[j].Validate(); err != nil {
				return 0, 0, fmt.Errorf("stage %s: %w", s.Stage, err)
			}
		}
		all |= s.Stage
	}
	if all&ShaderStageCompute != 0 {
		if all != ShaderStageCompute {
			return 0, 0, errors.New("compute stage cannot be combined with graphics stages")
		}
		return all, PipelineTypeCompute, nil
	}
	return all, PipelineTypeGraphics, nil
}

type bindingKey struct {
	set, binding uint32
}

// MergeShaderResources merges the resources declared by several stages.
// Entries with the same set and binding must agree on type and count; their
// stage masks are combined. The result is sorted by set, then binding.
func MergeShaderResources(lists ...[]ShaderResource) ([]ShaderResource, error) {
	merged := make(map[bindingKey]*ShaderResource)
	for _, list := range lists {
		for i := range list {
			r := list[i]
			if err := r.Validate(); err != nil {
				return nil, err
			}
			k := bindingKey{r.SetIndex, r.Binding}
			prev, ok := merged[k]
			if !ok {
				merged[k] = &r
				continue
			}
			if prev.ResourceType != r.ResourceType || prev.Count() != r.Count() {
				return nil, fmt.Errorf("set %d binding %d: %q and %q disagree on type or count",
					r.SetIndex, r.Binding, prev.Name, r.Name)
			}
			prev.UsedInStages |= r.UsedInStages
		}
	}
	out := make([]ShaderResource, 0, len(merged))
	for _, r := range merged {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SetIndex != out[j].SetIndex {
			return out[i].SetIndex < out[j].SetIndex
		}
		return out[i].Binding < out[j].Binding
	})
	return out, nil
}

// ResourcesInSet returns the resources of set index set.
func ResourcesInSet(resources []ShaderResource, set uint32) []ShaderResource {
	var out []ShaderResource
	for _, r := range resources {
		if r.SetIndex == set {
			out = append(out, r)
		}
	}
	return out
}

// ValidateImmutableSamplers checks that each immutable sampler entry names a
// declared sampler resource with a matching count.
func ValidateImmutableSamplers[S any](resources []ShaderResource, samplers []ImmutableSamplers[S]) error {
	for _, is := range samplers {
		var found *ShaderResource
		for i := range resources {
			if resources[i].Name == is.Name {
				found = &resources[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("immutable sampler %q does not name a shader resource", is.Name)
		}
		if found.ResourceType != ResourceTypeSampler {
			return fmt.Errorf("immutable sampler %q names a non-sampler resource", is.Name)
		}
		if uint32(len(is.Samplers)) != found.Count() {
			return fmt.Errorf("immutable sampler %q has %d samplers, resource declares %d",
				is.Name, len(is.Samplers), found.Count())
		}
	}
	return nil
}
