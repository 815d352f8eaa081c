package native

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/gpucore"
)

var textureFormats = map[gpucore.Format]gputypes.TextureFormat{
	gpucore.FormatR8Unorm:        gputypes.TextureFormatR8Unorm,
	gpucore.FormatRG8Unorm:       gputypes.TextureFormatRG8Unorm,
	gpucore.FormatRGBA8Unorm:     gputypes.TextureFormatRGBA8Unorm,
	gpucore.FormatRGBA8Srgb:      gputypes.TextureFormatRGBA8UnormSrgb,
	gpucore.FormatBGRA8Unorm:     gputypes.TextureFormatBGRA8Unorm,
	gpucore.FormatBGRA8Srgb:      gputypes.TextureFormatBGRA8UnormSrgb,
	gpucore.FormatRGBA16Float:    gputypes.TextureFormatRGBA16Float,
	gpucore.FormatR32Float:       gputypes.TextureFormatR32Float,
	gpucore.FormatRGBA32Float:    gputypes.TextureFormatRGBA32Float,
	gpucore.FormatD16Unorm:       gputypes.TextureFormatDepth16Unorm,
	gpucore.FormatD32Float:       gputypes.TextureFormatDepth32Float,
	gpucore.FormatD24UnormS8Uint: gputypes.TextureFormatDepth24PlusStencil8,
	gpucore.FormatD32FloatS8Uint: gputypes.TextureFormatDepth32FloatStencil8,
}

// TextureFormat returns the hal format of f.
func TextureFormat(f gpucore.Format) (gputypes.TextureFormat, bool) {
	return textureFormat(f)
}

func textureFormat(f gpucore.Format) (gputypes.TextureFormat, bool) {
	tf, ok := textureFormats[f]
	return tf, ok
}

func textureUsage(r gpucore.ResourceType) gputypes.TextureUsage {
	usage := gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	if r&(gpucore.ResourceTypeTexture|gpucore.ResourceTypeTextureCube) != 0 {
		usage |= gputypes.TextureUsageTextureBinding
	}
	if r&gpucore.ResourceTypeTextureReadWrite != 0 {
		usage |= gputypes.TextureUsageStorageBinding
	}
	if r&(gpucore.ResourceTypeRenderTargetColor|gpucore.ResourceTypeRenderTargetDepthStencil) != 0 {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	return usage
}

func bufferUsage(def *gpucore.BufferDef) gputypes.BufferUsage {
	var usage gputypes.BufferUsage
	r := def.ResourceType
	if r&gpucore.ResourceTypeUniformBuffer != 0 {
		usage |= gputypes.BufferUsageUniform
	}
	if r&(gpucore.ResourceTypeBuffer|gpucore.ResourceTypeBufferReadWrite) != 0 {
		usage |= gputypes.BufferUsageStorage
	}
	if r&gpucore.ResourceTypeVertexBuffer != 0 {
		usage |= gputypes.BufferUsageVertex
	}
	if r&gpucore.ResourceTypeIndexBuffer != 0 {
		usage |= gputypes.BufferUsageIndex
	}
	if r&gpucore.ResourceTypeIndirectBuffer != 0 {
		usage |= gputypes.BufferUsageIndirect
	}
	switch def.MemoryUsage {
	case gpucore.MemoryUsageCPUOnly:
		usage |= gputypes.BufferUsageCopySrc | gputypes.BufferUsageMapWrite
	case gpucore.MemoryUsageGPUToCPU:
		usage |= gputypes.BufferUsageCopyDst | gputypes.BufferUsageMapRead
	default:
		usage |= gputypes.BufferUsageCopyDst
	}
	return usage
}

func textureDimension(d gpucore.TextureDimensions) gputypes.TextureDimension {
	switch d {
	case gpucore.TextureDimensions1D:
		return gputypes.TextureDimension1D
	case gpucore.TextureDimensions3D:
		return gputypes.TextureDimension3D
	default:
		return gputypes.TextureDimension2D
	}
}

func loadOp(op gpucore.LoadOp) gputypes.LoadOp {
	if op == gpucore.LoadOpLoad {
		return gputypes.LoadOpLoad
	}
	// hal has no "don't care" load; clearing is the cheapest defined choice.
	return gputypes.LoadOpClear
}

func storeOp(op gpucore.StoreOp) gputypes.StoreOp {
	if op == gpucore.StoreOpStore {
		return gputypes.StoreOpStore
	}
	return gputypes.StoreOpDiscard
}

func clearColor(c gpucore.ColorClearValue) gputypes.Color {
	return gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

func vertexBuffers(v *gpucore.VertexLayout) []gputypes.VertexBufferLayout {
	if v == nil {
		return nil
	}
	out := make([]gputypes.VertexBufferLayout, len(v.Buffers))
	for i, b := range v.Buffers {
		out[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(b.Stride),
			StepMode:    b.StepMode,
		}
		if out[i].StepMode == 0 {
			out[i].StepMode = gputypes.VertexStepModeVertex
		}
	}
	for _, a := range v.Attributes {
		out[a.BufferIndex].Attributes = append(out[a.BufferIndex].Attributes, gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         uint64(a.ByteOffset),
			ShaderLocation: a.Location,
		})
	}
	return out
}

// layoutEntry builds the bind group layout entry of one shader resource.
func layoutEntry(r *gpucore.ShaderResource) gputypes.BindGroupLayoutEntry {
	e := gputypes.BindGroupLayoutEntry{Binding: r.Binding}
	if r.UsedInStages&gpucore.ShaderStageVertex != 0 {
		e.Visibility |= gputypes.ShaderStageVertex
	}
	if r.UsedInStages&gpucore.ShaderStageFragment != 0 {
		e.Visibility |= gputypes.ShaderStageFragment
	}
	if r.UsedInStages&gpucore.ShaderStageCompute != 0 {
		e.Visibility |= gputypes.ShaderStageCompute
	}
	switch r.ResourceType {
	case gpucore.ResourceTypeSampler:
		e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	case gpucore.ResourceTypeTexture:
		e.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case gpucore.ResourceTypeTextureReadWrite:
		e.StorageTexture = &gputypes.StorageTextureBindingLayout{
			Access:        gputypes.StorageTextureAccessWriteOnly,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case gpucore.ResourceTypeUniformBuffer:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	case gpucore.ResourceTypeBuffer:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	case gpucore.ResourceTypeBufferReadWrite:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
	}
	return e
}

// spirvWords converts little-endian SPIR-V bytes to words.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

func addressMode(m gpucore.AddressMode) gputypes.AddressMode {
	switch m {
	case gpucore.AddressModeMirror:
		return gputypes.AddressModeMirrorRepeat
	case gpucore.AddressModeRepeat:
		return gputypes.AddressModeRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func filterMode(f gpucore.FilterType) gputypes.FilterMode {
	if f == gpucore.FilterTypeLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

func mipmapFilter(m gpucore.MipMapMode) gputypes.FilterMode {
	if m == gpucore.MipMapModeLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}
