// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"
	"strings"
)

// Backend identifies the native API behind a device context.
type Backend uint8

// Backends.
const (
	// BackendEmpty is the in-process backend used for headless runs and tests.
	BackendEmpty Backend = iota

	// BackendVulkan drives Vulkan through gogpu/wgpu hal.
	BackendVulkan

	// BackendMetal drives Metal through gogpu/wgpu hal.
	BackendMetal

	// BackendGL drives OpenGL (ES) through gogpu/wgpu hal.
	BackendGL
)

// String returns the lowercase backend name.
func (b Backend) String() string {
	switch b {
	case BackendEmpty:
		return "empty"
	case BackendVulkan:
		return "vulkan"
	case BackendMetal:
		return "metal"
	case BackendGL:
		return "gl"
	default:
		return fmt.Sprintf("Backend(%d)", uint8(b))
	}
}

// ParseBackend parses a backend name as produced by [Backend.String].
// Matching is case-insensitive; "null" and "opengl" are accepted aliases.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "empty", "null":
		return BackendEmpty, nil
	case "vulkan", "vk":
		return BackendVulkan, nil
	case "metal", "mtl":
		return BackendMetal, nil
	case "gl", "opengl", "gles":
		return BackendGL, nil
	}
	return BackendEmpty, fmt.Errorf("gpucore: unknown backend %q", name)
}

// QueueType selects the kind of work a queue accepts.
type QueueType uint8

// Queue types.
const (
	QueueTypeGraphics QueueType = iota
	QueueTypeCompute
	QueueTypeTransfer
)

func (q QueueType) String() string {
	switch q {
	case QueueTypeGraphics:
		return "graphics"
	case QueueTypeCompute:
		return "compute"
	case QueueTypeTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("QueueType(%d)", uint8(q))
	}
}

// MemoryUsage describes which side reads and writes a buffer.
type MemoryUsage uint8

// Memory usages.
const (
	// MemoryUsageGPUOnly is device-local memory that the CPU never touches.
	MemoryUsageGPUOnly MemoryUsage = iota

	// MemoryUsageCPUOnly is host memory used for staging.
	MemoryUsageCPUOnly

	// MemoryUsageCPUToGPU is written by the CPU every frame and read by the GPU.
	MemoryUsageCPUToGPU

	// MemoryUsageGPUToCPU is written by the GPU and read back by the CPU.
	MemoryUsageGPUToCPU
)

// HostVisible reports whether the CPU can map memory of this usage.
func (m MemoryUsage) HostVisible() bool {
	return m != MemoryUsageGPUOnly
}

// ResourceType is a bitmask of the ways a buffer, texture or shader binding is used.
type ResourceType uint32

// Resource type flags.
const (
	ResourceTypeSampler ResourceType = 1 << iota
	// ResourceTypeTexture is a sampled, read-only texture.
	ResourceTypeTexture
	// ResourceTypeTextureReadWrite is a storage texture.
	ResourceTypeTextureReadWrite
	ResourceTypeUniformBuffer
	// ResourceTypeBuffer is a read-only storage buffer.
	ResourceTypeBuffer
	ResourceTypeBufferReadWrite
	ResourceTypeVertexBuffer
	ResourceTypeIndexBuffer
	ResourceTypeIndirectBuffer
	// ResourceTypeTextureCube marks a six-layer texture viewed as a cube.
	ResourceTypeTextureCube
	ResourceTypeRenderTargetColor
	ResourceTypeRenderTargetDepthStencil
)

// Has reports whether every bit of flag is set.
func (r ResourceType) Has(flag ResourceType) bool {
	return r&flag == flag
}

// IsBuffer reports whether any buffer flag is set.
func (r ResourceType) IsBuffer() bool {
	return r&(ResourceTypeUniformBuffer|ResourceTypeBuffer|ResourceTypeBufferReadWrite|
		ResourceTypeVertexBuffer|ResourceTypeIndexBuffer|ResourceTypeIndirectBuffer) != 0
}

// IsTexture reports whether any texture flag is set.
func (r ResourceType) IsTexture() bool {
	return r&(ResourceTypeTexture|ResourceTypeTextureReadWrite|ResourceTypeTextureCube|
		ResourceTypeRenderTargetColor|ResourceTypeRenderTargetDepthStencil) != 0
}

// SampleCount is the number of samples per pixel.
type SampleCount uint8

// Sample counts.
const (
	SampleCount1  SampleCount = 1
	SampleCount2  SampleCount = 2
	SampleCount4  SampleCount = 4
	SampleCount8  SampleCount = 8
	SampleCount16 SampleCount = 16
)

// Valid reports whether s is a power of two between 1 and 16.
func (s SampleCount) Valid() bool {
	switch s {
	case SampleCount1, SampleCount2, SampleCount4, SampleCount8, SampleCount16:
		return true
	}
	return false
}

// PresentMode controls how presented images are queued for display.
type PresentMode uint8

// Present modes.
const (
	// PresentModeFifo waits for vertical blank. Always available.
	PresentModeFifo PresentMode = iota

	// PresentModeMailbox replaces the queued image, no tearing.
	PresentModeMailbox

	// PresentModeImmediate presents without waiting, may tear.
	PresentModeImmediate
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeFifo:
		return "fifo"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("PresentMode(%d)", uint8(p))
	}
}

// ParsePresentMode parses "fifo", "mailbox" or "immediate".
func ParsePresentMode(name string) (PresentMode, error) {
	switch strings.ToLower(name) {
	case "", "fifo", "vsync":
		return PresentModeFifo, nil
	case "mailbox":
		return PresentModeMailbox, nil
	case "immediate":
		return PresentModeImmediate, nil
	}
	return PresentModeFifo, fmt.Errorf("gpucore: unknown present mode %q", name)
}

// ColorSpace is the color space the swapchain images are interpreted in.
type ColorSpace uint8

// Color spaces.
const (
	ColorSpaceSrgb ColorSpace = iota
	ColorSpaceSrgbExtended
	ColorSpaceDisplayP3Extended
)

// ShaderStage is a bitmask of programmable pipeline stages.
type ShaderStage uint8

// Shader stages.
const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute

	ShaderStageNone     ShaderStage = 0
	ShaderStageGraphics             = ShaderStageVertex | ShaderStageFragment
)

// Single reports whether exactly one stage bit is set.
func (s ShaderStage) Single() bool {
	return s != 0 && s&(s-1) == 0
}

func (s ShaderStage) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	if s&ShaderStageVertex != 0 {
		parts = append(parts, "vertex")
	}
	if s&ShaderStageFragment != 0 {
		parts = append(parts, "fragment")
	}
	if s&ShaderStageCompute != 0 {
		parts = append(parts, "compute")
	}
	return strings.Join(parts, "|")
}

// PipelineType distinguishes graphics from compute pipelines and root signatures.
type PipelineType uint8

// Pipeline types.
const (
	PipelineTypeGraphics PipelineType = iota
	PipelineTypeCompute
)

func (p PipelineType) String() string {
	if p == PipelineTypeCompute {
		return "compute"
	}
	return "graphics"
}

// FenceStatus is the observable state of a fence.
type FenceStatus uint8

// Fence statuses.
const (
	// FenceStatusUnsubmitted means the fence is not part of any pending submission.
	FenceStatusUnsubmitted FenceStatus = iota
	FenceStatusIncomplete
	FenceStatusComplete
)

func (f FenceStatus) String() string {
	switch f {
	case FenceStatusUnsubmitted:
		return "unsubmitted"
	case FenceStatusIncomplete:
		return "incomplete"
	case FenceStatusComplete:
		return "complete"
	default:
		return fmt.Sprintf("FenceStatus(%d)", uint8(f))
	}
}

// SwapchainState tracks where a swapchain is in its acquire/present cycle.
//
//	Created -> Acquiring -> Acquired -> Presenting -> Acquiring -> ...
//	any state --Rebuild--> Rebuilding -> Created
type SwapchainState uint8

// Swapchain states.
const (
	SwapchainStateCreated SwapchainState = iota
	SwapchainStateAcquiring
	SwapchainStateAcquired
	SwapchainStatePresenting
	SwapchainStateRebuilding
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainStateCreated:
		return "created"
	case SwapchainStateAcquiring:
		return "acquiring"
	case SwapchainStateAcquired:
		return "acquired"
	case SwapchainStatePresenting:
		return "presenting"
	case SwapchainStateRebuilding:
		return "rebuilding"
	default:
		return fmt.Sprintf("SwapchainState(%d)", uint8(s))
	}
}

// PresentResult is the non-error outcome of a present.
type PresentResult uint8

// Present results.
const (
	PresentResultSuccess PresentResult = iota
	// PresentResultSuboptimal means the image was shown but the swapchain
	// no longer matches the surface exactly and should be rebuilt soon.
	PresentResultSuboptimal
)

// AddressMode selects how texture coordinates outside [0, 1] are resolved.
type AddressMode uint8

// Address modes.
const (
	AddressModeMirror AddressMode = iota
	AddressModeRepeat
	AddressModeClampToEdge
	// AddressModeClampToBorder needs DeviceInfo.SupportsClampToBorderColor.
	AddressModeClampToBorder
)

// FilterType selects texel filtering.
type FilterType uint8

// Filter types.
const (
	FilterTypeNearest FilterType = iota
	FilterTypeLinear
)

// MipMapMode selects filtering between mip levels.
type MipMapMode uint8

// Mip map modes.
const (
	MipMapModeNearest MipMapMode = iota
	MipMapModeLinear
)

// LoadOp is the action taken on an attachment at the start of a render pass.
type LoadOp uint8

// Load ops.
const (
	LoadOpDontCare LoadOp = iota
	LoadOpLoad
	LoadOpClear
)

// StoreOp is the action taken on an attachment at the end of a render pass.
type StoreOp uint8

// Store ops.
const (
	StoreOpDontCare StoreOp = iota
	StoreOpStore
)

// Extents3D is a width, height and depth in texels.
type Extents3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// Extents2D is a width and height in pixels.
type Extents2D struct {
	Width  uint32
	Height uint32
}

// ToExtents3D returns e with a depth of 1.
func (e Extents2D) ToExtents3D() Extents3D {
	return Extents3D{Width: e.Width, Height: e.Height, Depth: 1}
}

// ColorClearValue is an RGBA clear color.
type ColorClearValue [4]float32

// DepthStencilClearValue is the clear value of a depth-stencil attachment.
type DepthStencilClearValue struct {
	Depth   float32
	Stencil uint32
}

// MaxDescriptorSets is the number of descriptor sets a root signature may declare.
const MaxDescriptorSets = 4

// MaxRenderTargetAttachments is the number of color attachments a pipeline may write.
const MaxRenderTargetAttachments = 8
