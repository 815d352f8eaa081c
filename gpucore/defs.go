// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"fmt"
	"math/bits"
)

// BufferDef describes a buffer to create.
type BufferDef struct {
	Label        string
	Size         uint64
	MemoryUsage  MemoryUsage
	QueueType    QueueType
	ResourceType ResourceType
	// AlwaysMapped keeps host-visible memory mapped for the buffer's lifetime.
	AlwaysMapped bool
}

// Validate reports malformed buffer definitions.
func (d *BufferDef) Validate() error {
	if d.Size == 0 {
		return errors.New("buffer size must be greater than zero")
	}
	if d.ResourceType != 0 && !d.ResourceType.IsBuffer() {
		return fmt.Errorf("resource type %#x has no buffer usage", uint32(d.ResourceType))
	}
	if d.AlwaysMapped && !d.MemoryUsage.HostVisible() {
		return errors.New("always-mapped buffers need host-visible memory")
	}
	return nil
}

// AlignedSize returns the buffer size rounded up to the uniform offset
// alignment when the buffer is used as a uniform buffer.
func (d *BufferDef) AlignedSize(info *DeviceInfo) uint64 {
	if d.ResourceType&ResourceTypeUniformBuffer == 0 || info.MinUniformBufferOffsetAlignment == 0 {
		return d.Size
	}
	return AlignUp(d.Size, uint64(info.MinUniformBufferOffsetAlignment))
}

// AlignUp rounds v up to a multiple of align (which must be non-zero).
func AlignUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}

// TextureDimensions selects the texture shape. Auto derives it from the extents.
type TextureDimensions uint8

// Texture dimensions.
const (
	TextureDimensionsAuto TextureDimensions = iota
	TextureDimensions1D
	TextureDimensions2D
	TextureDimensions3D
)

// Resolve returns the concrete dimensions for extents e.
func (t TextureDimensions) Resolve(e Extents3D) TextureDimensions {
	if t != TextureDimensionsAuto {
		return t
	}
	switch {
	case e.Depth > 1:
		return TextureDimensions3D
	case e.Height > 1:
		return TextureDimensions2D
	default:
		return TextureDimensions1D
	}
}

// TextureDef describes a texture to create.
type TextureDef struct {
	Label        string
	Extents      Extents3D
	ArrayLength  uint32
	MipCount     uint32
	SampleCount  SampleCount
	Format       Format
	ResourceType ResourceType
	Dimensions   TextureDimensions
}

// Normalized returns a copy with zero depth, array length, mip count and
// sample count replaced by 1.
func (d TextureDef) Normalized() TextureDef {
	if d.Extents.Depth == 0 {
		d.Extents.Depth = 1
	}
	if d.ArrayLength == 0 {
		d.ArrayLength = 1
	}
	if d.MipCount == 0 {
		d.MipCount = 1
	}
	if d.SampleCount == 0 {
		d.SampleCount = SampleCount1
	}
	if d.ResourceType == 0 {
		d.ResourceType = ResourceTypeTexture
	}
	return d
}

// MaxMipCount returns the length of the full mip chain for e.
func MaxMipCount(e Extents3D) uint32 {
	m := max(e.Width, e.Height, e.Depth)
	if m == 0 {
		return 0
	}
	return uint32(bits.Len32(m))
}

// Validate reports malformed texture definitions. Call it on a normalized def.
func (d *TextureDef) Validate() error {
	e := d.Extents
	if e.Width == 0 || e.Height == 0 || e.Depth == 0 {
		return fmt.Errorf("texture extents %dx%dx%d must all be at least 1", e.Width, e.Height, e.Depth)
	}
	if d.Format == FormatUndefined {
		return errors.New("texture format is undefined")
	}
	if !d.ResourceType.IsTexture() {
		return fmt.Errorf("resource type %#x has no texture usage", uint32(d.ResourceType))
	}
	if limit := MaxMipCount(e); d.MipCount > limit {
		return fmt.Errorf("mip count %d exceeds the full chain of %d", d.MipCount, limit)
	}
	if !d.SampleCount.Valid() {
		return fmt.Errorf("sample count %d is not a power of two in [1, 16]", d.SampleCount)
	}
	if d.SampleCount > SampleCount1 {
		if d.MipCount != 1 {
			return errors.New("multisampled textures must have exactly one mip level")
		}
		if d.Dimensions.Resolve(e) == TextureDimensions3D {
			return errors.New("3D textures cannot be multisampled")
		}
	}
	if d.ResourceType&ResourceTypeTextureCube != 0 && d.ArrayLength%6 != 0 {
		return fmt.Errorf("cube textures need a multiple of 6 layers, got %d", d.ArrayLength)
	}
	if d.Dimensions.Resolve(e) == TextureDimensions3D && d.ArrayLength > 1 {
		return errors.New("3D textures cannot be arrays")
	}
	return nil
}

// ValidateCapabilities checks the texture's usages against caps.
func (d *TextureDef) ValidateCapabilities(formats FormatTable, sampleCounts []SampleCount) error {
	caps := formats.Capabilities(d.Format)
	need := RequiredCapabilities(d.ResourceType)
	if !caps.Has(need) {
		return fmt.Errorf("format %s lacks capabilities %#x for resource type %#x",
			d.Format, uint8(need&^caps), uint32(d.ResourceType))
	}
	if d.SampleCount > SampleCount1 {
		if !caps.Has(FormatCapMultisample) {
			return fmt.Errorf("format %s cannot be multisampled", d.Format)
		}
		if _, ok := FindSupportedSampleCount(sampleCounts, []SampleCount{d.SampleCount}); !ok {
			return fmt.Errorf("sample count %d is not supported", d.SampleCount)
		}
	}
	return nil
}

// SamplerDef describes a sampler to create.
type SamplerDef struct {
	MinFilter     FilterType
	MagFilter     FilterType
	MipMapMode    MipMapMode
	AddressModeU  AddressMode
	AddressModeV  AddressMode
	AddressModeW  AddressMode
	MipLodBias    float32
	MaxAnisotropy float32
}

// UsesClampToBorder reports whether any axis clamps to the border color.
func (d *SamplerDef) UsesClampToBorder() bool {
	return d.AddressModeU == AddressModeClampToBorder ||
		d.AddressModeV == AddressModeClampToBorder ||
		d.AddressModeW == AddressModeClampToBorder
}

// Validate reports malformed sampler definitions. Border clamping support is
// a device capability and is checked by the backend.
func (d *SamplerDef) Validate() error {
	if d.MaxAnisotropy < 0 || d.MaxAnisotropy > 16 {
		return fmt.Errorf("max anisotropy %v outside [0, 16]", d.MaxAnisotropy)
	}
	return nil
}

// SwapchainDef describes a swapchain to create or rebuild.
type SwapchainDef struct {
	Width       uint32
	Height      uint32
	PresentMode PresentMode
	ColorSpace  ColorSpace
	// ImageCount is the desired number of images. Zero selects the backend default.
	ImageCount uint32
	// FormatPreference lists acceptable color formats, most preferred first.
	// Empty uses DefaultSwapchainFormats(ColorSpace).
	FormatPreference []Format
}

// Validate reports malformed swapchain definitions.
func (d *SwapchainDef) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("swapchain extents %dx%d must be non-zero", d.Width, d.Height)
	}
	return nil
}

// Preferences returns the format candidates for this def.
func (d *SwapchainDef) Preferences() []Format {
	if len(d.FormatPreference) > 0 {
		return d.FormatPreference
	}
	return DefaultSwapchainFormats(d.ColorSpace)
}

// ClampImageCount clamps the desired image count into [lo, hi].
func ClampImageCount(desired, lo, hi uint32) uint32 {
	if desired == 0 {
		desired = 2
	}
	return min(max(desired, lo), hi)
}

// ShaderModuleDef carries shader code. At least one representation must be set;
// backends pick the one they consume and translate otherwise.
type ShaderModuleDef struct {
	Label string
	WGSL  string
	SPIRV []uint32
}

// Validate reports an empty shader module.
func (d *ShaderModuleDef) Validate() error {
	if d.WGSL == "" && len(d.SPIRV) == 0 {
		return errors.New("shader module has neither WGSL nor SPIR-V code")
	}
	return nil
}

// ShaderResource describes one binding a shader stage uses.
type ShaderResource struct {
	Name     string
	SetIndex uint32
	Binding  uint32
	// ResourceType must be exactly one binding type.
	ResourceType ResourceType
	// ElementCount is the array length, 0 or 1 for a single element.
	ElementCount uint32
	UsedInStages ShaderStage
}

const bindableTypes = ResourceTypeSampler | ResourceTypeTexture | ResourceTypeTextureReadWrite |
	ResourceTypeUniformBuffer | ResourceTypeBuffer | ResourceTypeBufferReadWrite

// Validate reports malformed resource declarations.
func (r *ShaderResource) Validate() error {
	t := uint32(r.ResourceType)
	if t == 0 || t&(t-1) != 0 || r.ResourceType&bindableTypes == 0 {
		return fmt.Errorf("resource %q: type %#x is not a single bindable type", r.Name, t)
	}
	if r.SetIndex >= MaxDescriptorSets {
		return fmt.Errorf("resource %q: set index %d exceeds the limit of %d",
			r.Name, r.SetIndex, MaxDescriptorSets)
	}
	return nil
}

// Count returns the effective array length.
func (r *ShaderResource) Count() uint32 {
	if r.ElementCount == 0 {
		return 1
	}
	return r.ElementCount
}
