package gpucore

import "fmt"

// Format is a texel format.
type Format uint16

// Formats.
const (
	FormatUndefined Format = iota
	FormatR8Unorm
	FormatRG8Unorm
	FormatRGBA8Unorm
	FormatRGBA8Srgb
	FormatBGRA8Unorm
	FormatBGRA8Srgb
	FormatRGBA16Float
	FormatR32Float
	FormatRGBA32Float
	FormatD16Unorm
	FormatD32Float
	FormatD24UnormS8Uint
	FormatD32FloatS8Uint
)

var formatNames = [...]string{
	FormatUndefined:      "undefined",
	FormatR8Unorm:        "r8unorm",
	FormatRG8Unorm:       "rg8unorm",
	FormatRGBA8Unorm:     "rgba8unorm",
	FormatRGBA8Srgb:      "rgba8srgb",
	FormatBGRA8Unorm:     "bgra8unorm",
	FormatBGRA8Srgb:      "bgra8srgb",
	FormatRGBA16Float:    "rgba16float",
	FormatR32Float:       "r32float",
	FormatRGBA32Float:    "rgba32float",
	FormatD16Unorm:       "d16unorm",
	FormatD32Float:       "d32float",
	FormatD24UnormS8Uint: "d24unorm-s8uint",
	FormatD32FloatS8Uint: "d32float-s8uint",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint16(f))
}

// HasDepth reports whether f has a depth aspect.
func (f Format) HasDepth() bool {
	switch f {
	case FormatD16Unorm, FormatD32Float, FormatD24UnormS8Uint, FormatD32FloatS8Uint:
		return true
	}
	return false
}

// HasStencil reports whether f has a stencil aspect.
func (f Format) HasStencil() bool {
	return f == FormatD24UnormS8Uint || f == FormatD32FloatS8Uint
}

// IsSrgb reports whether f is sRGB-encoded.
func (f Format) IsSrgb() bool {
	return f == FormatRGBA8Srgb || f == FormatBGRA8Srgb
}

// BytesPerTexel returns the size of one texel, or 0 for FormatUndefined.
func (f Format) BytesPerTexel() uint32 {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatRG8Unorm, FormatD16Unorm:
		return 2
	case FormatRGBA8Unorm, FormatRGBA8Srgb, FormatBGRA8Unorm, FormatBGRA8Srgb,
		FormatR32Float, FormatD32Float, FormatD24UnormS8Uint:
		return 4
	case FormatRGBA16Float, FormatD32FloatS8Uint:
		return 8
	case FormatRGBA32Float:
		return 16
	}
	return 0
}

// FormatCapabilities is a bitmask of what a device can do with a format.
type FormatCapabilities uint8

// Format capability flags.
const (
	FormatCapSampled FormatCapabilities = 1 << iota
	FormatCapFilterable
	FormatCapStorage
	FormatCapColorAttachment
	FormatCapBlendable
	FormatCapDepthStencil
	FormatCapMultisample
)

// Has reports whether every bit of c is set.
func (f FormatCapabilities) Has(c FormatCapabilities) bool {
	return f&c == c
}

// FormatTable maps formats to their capabilities on one device.
type FormatTable map[Format]FormatCapabilities

// Capabilities returns the capabilities of f, zero when absent.
func (t FormatTable) Capabilities(f Format) FormatCapabilities {
	return t[f]
}

// Clone returns an independent copy of t.
func (t FormatTable) Clone() FormatTable {
	c := make(FormatTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// GuaranteedFormats returns the format capabilities every WebGPU-class device
// provides. Native backends answer format queries from this table and the
// Empty backend uses it as its default.
func GuaranteedFormats() FormatTable {
	const color = FormatCapSampled | FormatCapFilterable | FormatCapColorAttachment |
		FormatCapBlendable | FormatCapMultisample
	const depth = FormatCapSampled | FormatCapDepthStencil | FormatCapMultisample
	return FormatTable{
		FormatR8Unorm:        color,
		FormatRG8Unorm:       color,
		FormatRGBA8Unorm:     color | FormatCapStorage,
		FormatRGBA8Srgb:      color,
		FormatBGRA8Unorm:     color,
		FormatBGRA8Srgb:      color,
		FormatRGBA16Float:    color | FormatCapStorage,
		FormatR32Float:       FormatCapSampled | FormatCapColorAttachment | FormatCapStorage,
		FormatRGBA32Float:    FormatCapSampled | FormatCapColorAttachment | FormatCapStorage,
		FormatD16Unorm:       depth,
		FormatD32Float:       depth,
		FormatD24UnormS8Uint: depth,
	}
}

// RequiredCapabilities returns the format capabilities needed to use a
// texture as every type in r.
func RequiredCapabilities(r ResourceType) FormatCapabilities {
	var c FormatCapabilities
	if r&(ResourceTypeTexture|ResourceTypeTextureCube) != 0 {
		c |= FormatCapSampled
	}
	if r&ResourceTypeTextureReadWrite != 0 {
		c |= FormatCapStorage
	}
	if r&ResourceTypeRenderTargetColor != 0 {
		c |= FormatCapColorAttachment
	}
	if r&ResourceTypeRenderTargetDepthStencil != 0 {
		c |= FormatCapDepthStencil
	}
	return c
}

// FindSupportedFormat returns the first candidate, in order, whose
// capabilities in t cover every capability required by r.
// It returns (FormatUndefined, false) when none qualifies.
func FindSupportedFormat(t FormatTable, candidates []Format, r ResourceType) (Format, bool) {
	need := RequiredCapabilities(r)
	for _, f := range candidates {
		if f == FormatUndefined {
			continue
		}
		caps, ok := t[f]
		if ok && caps.Has(need) {
			return f, true
		}
	}
	return FormatUndefined, false
}

// FindSupportedSampleCount returns the first candidate contained in supported.
func FindSupportedSampleCount(supported, candidates []SampleCount) (SampleCount, bool) {
	for _, c := range candidates {
		for _, s := range supported {
			if c == s {
				return c, true
			}
		}
	}
	return 0, false
}

// DefaultSwapchainFormats returns the format preference used when a
// SwapchainDef leaves FormatPreference empty.
func DefaultSwapchainFormats(cs ColorSpace) []Format {
	switch cs {
	case ColorSpaceSrgbExtended, ColorSpaceDisplayP3Extended:
		return []Format{FormatRGBA16Float, FormatBGRA8Srgb}
	default:
		return []Format{FormatBGRA8Srgb, FormatRGBA8Srgb, FormatBGRA8Unorm}
	}
}
