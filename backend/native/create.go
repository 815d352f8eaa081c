package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// CreateBuffer creates a buffer.
func (d *DeviceContext) CreateBuffer(def *gpucore.BufferDef) (*Buffer, error) {
	const op = "create_buffer"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	if err := def.Validate(); err != nil {
		return nil, dev.invalid(op, err)
	}
	size := def.AlignedSize(&dev.info)
	hb, err := dev.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: def.Label,
		Size:  size,
		Usage: bufferUsage(def),
	})
	if err != nil {
		return nil, dev.fail(op, err, gpucore.ErrAllocationFailure)
	}
	b := &Buffer{dev: dev, def: *def, size: size, hal: hb}
	dev.owned.add(b)
	return b, nil
}

// CreateTexture creates a texture and its default view.
func (d *DeviceContext) CreateTexture(def *gpucore.TextureDef) (*Texture, error) {
	const op = "create_texture"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	n := def.Normalized()
	if err := n.Validate(); err != nil {
		return nil, dev.invalid(op, err)
	}
	if limit := dev.info.MaxTextureDimension2D; n.Extents.Width > limit || n.Extents.Height > limit {
		return nil, dev.errorf(op, gpucore.ErrUnsupported,
			"extents %dx%d exceed the device limit of %d", n.Extents.Width, n.Extents.Height, limit)
	}
	if err := n.ValidateCapabilities(dev.formats, nativeSampleCounts); err != nil {
		return nil, gpucore.Wrap(dev.backend(), op, gpucore.ErrUnsupported, err)
	}
	format, ok := textureFormat(n.Format)
	if !ok {
		return nil, dev.errorf(op, gpucore.ErrUnsupported, "format %s has no native equivalent", n.Format)
	}

	layers := n.ArrayLength
	if n.Dimensions == gpucore.TextureDimensions3D {
		layers = n.Extents.Depth
	}
	ht, err := dev.hal.CreateTexture(&hal.TextureDescriptor{
		Label: n.Label,
		Size: hal.Extent3D{
			Width:              n.Extents.Width,
			Height:             n.Extents.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: n.MipCount,
		SampleCount:   uint32(n.SampleCount),
		Dimension:     textureDimension(n.Dimensions),
		Format:        format,
		Usage:         textureUsage(n.ResourceType),
	})
	if err != nil {
		return nil, dev.fail(op, err, gpucore.ErrAllocationFailure)
	}
	view, err := dev.hal.CreateTextureView(ht, &hal.TextureViewDescriptor{Label: n.Label})
	if err != nil {
		dev.hal.DestroyTexture(ht)
		return nil, dev.fail(op, err, gpucore.ErrAllocationFailure)
	}
	t := &Texture{dev: dev, def: n, hal: ht, view: view}
	dev.owned.add(t)
	return t, nil
}

// CreateSampler creates a sampler.
func (d *DeviceContext) CreateSampler(def *gpucore.SamplerDef) (*Sampler, error) {
	const op = "create_sampler"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	if err := def.Validate(); err != nil {
		return nil, dev.invalid(op, err)
	}
	if def.UsesClampToBorder() && !dev.info.SupportsClampToBorderColor {
		return nil, dev.errorf(op, gpucore.ErrUnsupported, "clamp-to-border address mode")
	}
	hs, err := dev.hal.CreateSampler(&hal.SamplerDescriptor{
		Label:        dev.cfg.label + " sampler",
		AddressModeU: addressMode(def.AddressModeU),
		AddressModeV: addressMode(def.AddressModeV),
		AddressModeW: addressMode(def.AddressModeW),
		MagFilter:    filterMode(def.MagFilter),
		MinFilter:    filterMode(def.MinFilter),
		MipmapFilter: mipmapFilter(def.MipMapMode),
	})
	if err != nil {
		return nil, dev.fail(op, err, gpucore.ErrAllocationFailure)
	}
	s := &Sampler{dev: dev, def: *def, hal: hs}
	dev.owned.add(s)
	return s, nil
}

// CreateShaderModule compiles shader code. Profiles that consume SPIR-V
// translate WGSL with naga; SPIR-V is handed over as is.
func (d *DeviceContext) CreateShaderModule(def *gpucore.ShaderModuleDef) (*ShaderModule, error) {
	const op = "create_shader_module"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	if err := def.Validate(); err != nil {
		return nil, dev.invalid(op, err)
	}

	var (
		src      hal.ShaderSource
		codeHash uint64
	)
	switch {
	case len(def.SPIRV) > 0:
		src.SPIRV = def.SPIRV
		codeHash = hashWords(def.SPIRV)
	case dev.profile.CompileWGSL:
		words, err := compileWGSL(def.WGSL)
		if err != nil {
			return nil, gpucore.Wrap(dev.backend(), op, gpucore.ErrInvalidDefinition, err)
		}
		src.SPIRV = words
		codeHash = hashBytes([]byte(def.WGSL))
	default:
		src.WGSL = def.WGSL
		codeHash = hashBytes([]byte(def.WGSL))
	}

	hm, err := dev.hal.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: def.Label, Source: src})
	if err != nil {
		return nil, dev.fail(op, err, gpucore.ErrInvalidDefinition)
	}
	m := &ShaderModule{dev: dev, label: def.Label, codeHash: codeHash, hal: hm}
	dev.owned.add(m)
	slogger().Debug("native: shader module created", "label", def.Label, "hash", codeHash)
	return m, nil
}

// compileWGSL translates WGSL to SPIR-V words.
func compileWGSL(src string) ([]uint32, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile WGSL: %w", err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("compile WGSL: SPIR-V length %d is not a multiple of 4", len(spirv))
	}
	return spirvWords(spirv), nil
}

// CreateShader combines shader stages.
func (d *DeviceContext) CreateShader(stages []ShaderStageDef) (*Shader, error) {
	const op = "create_shader"
	if err := d.check(op); err != nil {
		return nil, err
	}
	dev := d.inner
	for i := range stages {
		m := stages[i].Module
		if m == nil {
			return nil, dev.invalid(op, fmt.Errorf("stage %d has no module", i))
		}
		if m.dev != dev {
			return nil, dev.foreign(op, "shader module")
		}
	}
	mask, pt, err := gpucore.ValidateShaderStages(stages)
	if err != nil {
		return nil, dev.invalid(op, err)
	}
	return &Shader{
		dev:          dev,
		stages:       append([]ShaderStageDef(nil), stages...),
		stageMask:    mask,
		pipelineType: pt,
	}, nil
}

// CreateRootSignature merges the bindings of def.Shaders and builds one
// bind group layout per set, up to the highest set used.
func (d *DeviceContext) CreateRootSignature(def *RootSignatureDef) (*RootSignature, error) {
	const op = "create_root_signature"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	if len(def.Shaders) == 0 {
		return nil, dev.invalid(op, errors.New("root signature needs at least one shader"))
	}
	var lists [][]gpucore.ShaderResource
	if def.Shaders[0] == nil {
		return nil, dev.nilHandle(op, "shader")
	}
	pt := def.Shaders[0].pipelineType
	for i, sh := range def.Shaders {
		if sh == nil {
			return nil, dev.nilHandle(op, "shader")
		}
		if sh.dev != dev {
			return nil, dev.foreign(op, "shader")
		}
		if sh.pipelineType != pt {
			return nil, dev.invalid(op, fmt.Errorf("shader %d is %s, shader 0 is %s", i, sh.pipelineType, pt))
		}
		for _, st := range sh.stages {
			lists = append(lists, stageResources(&st))
		}
	}
	resources, err := gpucore.MergeShaderResources(lists...)
	if err != nil {
		return nil, dev.invalid(op, err)
	}
	if err := gpucore.ValidateImmutableSamplers(resources, def.ImmutableSamplers); err != nil {
		return nil, dev.invalid(op, err)
	}
	for _, is := range def.ImmutableSamplers {
		for _, s := range is.Samplers {
			if s == nil {
				return nil, dev.nilHandle(op, "immutable sampler")
			}
			if s.dev != dev {
				return nil, dev.foreign(op, "immutable sampler")
			}
		}
	}
	for _, r := range resources {
		if r.Count() > 1 {
			return nil, dev.errorf(op, gpucore.ErrUnsupported,
				"%q: resource arrays are not supported by native bind groups", r.Name)
		}
	}

	rs := &RootSignature{
		dev:          dev,
		id:           dev.nextID.Add(1),
		pipelineType: pt,
		resources:    resources,
	}
	sets := 0
	if len(resources) > 0 {
		sets = int(resources[len(resources)-1].SetIndex) + 1
	}
	for set := 0; set < sets; set++ {
		inSet := gpucore.ResourcesInSet(resources, uint32(set))
		entries := make([]gputypes.BindGroupLayoutEntry, len(inSet))
		for i := range inSet {
			entries[i] = layoutEntry(&inSet[i])
		}
		g, err := dev.hal.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s set %d", dev.cfg.label, set),
			Entries: entries,
		})
		if err != nil {
			rs.release()
			return nil, dev.fail(op, err, gpucore.ErrInvalidDefinition)
		}
		rs.groups = append(rs.groups, g)
	}
	layout, err := dev.hal.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            dev.cfg.label + " layout",
		BindGroupLayouts: rs.groups,
	})
	if err != nil {
		rs.release()
		return nil, dev.fail(op, err, gpucore.ErrInvalidDefinition)
	}
	rs.layout = layout
	dev.owned.add(rs)
	return rs, nil
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
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	rs := def.RootSignature
	if rs == nil {
		return nil, dev.invalid(op, errors.New("no root signature"))
	}
	if rs.dev != dev {
		return nil, dev.foreign(op, "root signature")
	}
	if def.ArrayLength == 0 {
		return nil, dev.invalid(op, errors.New("array length must be at least 1"))
	}
	bindings := gpucore.ResourcesInSet(rs.resources, def.SetIndex)
	if len(bindings) == 0 {
		return nil, dev.invalid(op, fmt.Errorf("root signature declares no resources in set %d", def.SetIndex))
	}
	return &DescriptorSetArray{
		dev:      dev,
		rs:       rs,
		setIndex: def.SetIndex,
		length:   def.ArrayLength,
		bindings: bindings,
	}, nil
}

// CreateGraphicsPipeline returns a graphics pipeline, reusing a cached one
// built from an identical definition.
func (d *DeviceContext) CreateGraphicsPipeline(def *GraphicsPipelineDef) (*Pipeline, error) {
	const op = "create_graphics_pipeline"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	if err := d.checkPipelineRefs(op, def.Shader, def.RootSignature, gpucore.PipelineTypeGraphics); err != nil {
		return nil, err
	}
	vs := def.Shader.stage(gpucore.ShaderStageVertex)
	if vs == nil {
		return nil, dev.invalid(op, errors.New("graphics pipeline needs a vertex stage"))
	}
	meta := def.RenderTargetMeta()
	if err := meta.Validate(dev.formats, nativeSampleCounts); err != nil {
		return nil, gpucore.Wrap(dev.backend(), op, gpucore.ErrUnsupported, err)
	}
	if def.VertexLayout != nil {
		if err := def.VertexLayout.Validate(); err != nil {
			return nil, dev.invalid(op, err)
		}
	}

	return dev.pipelines.getOrCreate(hashGraphicsPipeline(def), func() (*Pipeline, error) {
		desc := &hal.RenderPipelineDescriptor{
			Label:  dev.cfg.label + " graphics pipeline",
			Layout: def.RootSignature.layout,
			Vertex: hal.VertexState{
				Module:     vs.Module.hal,
				EntryPoint: vs.EntryPoint,
				Buffers:    vertexBuffers(def.VertexLayout),
			},
			Primitive: gputypes.PrimitiveState{
				Topology:  def.PrimitiveTopology,
				FrontFace: def.Rasterizer.FrontFace,
				CullMode:  def.Rasterizer.CullMode,
			},
			Multisample: gputypes.MultisampleState{
				Count: max(uint32(meta.SampleCount), 1),
				Mask:  0xFFFFFFFF,
			},
		}
		if fs := def.Shader.stage(gpucore.ShaderStageFragment); fs != nil {
			targets := make([]gputypes.ColorTargetState, len(meta.ColorFormats))
			for i, f := range meta.ColorFormats {
				tf, _ := textureFormat(f)
				targets[i] = gputypes.ColorTargetState{
					Format:    tf,
					Blend:     def.Blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				}
			}
			desc.Fragment = &hal.FragmentState{
				Module:     fs.Module.hal,
				EntryPoint: fs.EntryPoint,
				Targets:    targets,
			}
		}
		if meta.DepthStencilFormat != gpucore.FormatUndefined {
			desc.DepthStencil = depthStencilState(meta.DepthStencilFormat, &def.Depth)
		}

		rp, err := dev.hal.CreateRenderPipeline(desc)
		if err != nil {
			return nil, dev.fail(op, err, gpucore.ErrInvalidDefinition)
		}
		meta.ColorFormats = append([]gpucore.Format(nil), meta.ColorFormats...)
		p := &Pipeline{dev: dev, pipelineType: gpucore.PipelineTypeGraphics, meta: meta, render: rp}
		dev.owned.add(p)
		return p, nil
	})
}

func depthStencilState(f gpucore.Format, depth *gpucore.DepthState) *hal.DepthStencilState {
	tf, _ := textureFormat(f)
	compare := gputypes.CompareFunctionAlways
	if depth.DepthTest {
		compare = depth.CompareOp
		if compare == 0 {
			compare = gputypes.CompareFunctionLess
		}
	}
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            tf,
		DepthWriteEnabled: depth.DepthWrite,
		DepthCompare:      compare,
		StencilFront:      keep,
		StencilBack:       keep,
	}
}

// CreateComputePipeline returns a compute pipeline, reusing a cached one
// built from an identical definition.
func (d *DeviceContext) CreateComputePipeline(def *ComputePipelineDef) (*Pipeline, error) {
	const op = "create_compute_pipeline"
	if err := d.check(op); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, d.inner.nilHandle(op, "definition")
	}
	dev := d.inner
	if err := d.checkPipelineRefs(op, def.Shader, def.RootSignature, gpucore.PipelineTypeCompute); err != nil {
		return nil, err
	}
	cs := def.Shader.stage(gpucore.ShaderStageCompute)
	return dev.pipelines.getOrCreate(hashComputePipeline(def), func() (*Pipeline, error) {
		cp, err := dev.hal.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  dev.cfg.label + " compute pipeline",
			Layout: def.RootSignature.layout,
			Compute: hal.ComputeState{
				Module:     cs.Module.hal,
				EntryPoint: cs.EntryPoint,
			},
		})
		if err != nil {
			return nil, dev.fail(op, err, gpucore.ErrInvalidDefinition)
		}
		p := &Pipeline{dev: dev, pipelineType: gpucore.PipelineTypeCompute, compute: cp}
		dev.owned.add(p)
		return p, nil
	})
}

func (d *DeviceContext) checkPipelineRefs(op string, sh *Shader, rs *RootSignature, pt gpucore.PipelineType) error {
	dev := d.inner
	if sh == nil || rs == nil {
		return dev.invalid(op, errors.New("pipeline needs a shader and a root signature"))
	}
	if sh.dev != dev {
		return dev.foreign(op, "shader")
	}
	if rs.dev != dev {
		return dev.foreign(op, "root signature")
	}
	if sh.pipelineType != pt {
		return dev.invalid(op, fmt.Errorf("shader stages %s do not form a %s pipeline", sh.stageMask, pt))
	}
	if rs.pipelineType != pt {
		return dev.invalid(op, fmt.Errorf("root signature is for %s pipelines", rs.pipelineType))
	}
	return nil
}
