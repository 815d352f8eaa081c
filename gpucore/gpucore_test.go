package gpucore

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFindSupportedFormat_FirstQualifying(t *testing.T) {
	table := FormatTable{
		FormatR8Unorm:    FormatCapSampled,
		FormatRGBA8Unorm: FormatCapSampled | FormatCapColorAttachment,
		FormatBGRA8Unorm: FormatCapSampled | FormatCapColorAttachment,
	}
	candidates := []Format{FormatR8Unorm, FormatRGBA8Unorm, FormatBGRA8Unorm}

	got, ok := FindSupportedFormat(table, candidates, ResourceTypeRenderTargetColor)
	if !ok || got != FormatRGBA8Unorm {
		t.Errorf("FindSupportedFormat = (%v, %v), want (%v, true)", got, ok, FormatRGBA8Unorm)
	}

	got, ok = FindSupportedFormat(table, candidates, ResourceTypeTexture)
	if !ok || got != FormatR8Unorm {
		t.Errorf("FindSupportedFormat(sampled) = (%v, %v), want (%v, true)", got, ok, FormatR8Unorm)
	}
}

func TestFindSupportedFormat_None(t *testing.T) {
	got, ok := FindSupportedFormat(GuaranteedFormats(), []Format{FormatBGRA8Unorm},
		ResourceTypeRenderTargetDepthStencil)
	if ok || got != FormatUndefined {
		t.Errorf("FindSupportedFormat = (%v, %v), want (undefined, false)", got, ok)
	}
}

func TestFindSupportedSampleCount(t *testing.T) {
	supported := []SampleCount{SampleCount1, SampleCount4}
	tests := []struct {
		candidates []SampleCount
		want       SampleCount
		ok         bool
	}{
		{[]SampleCount{SampleCount8, SampleCount4, SampleCount1}, SampleCount4, true},
		{[]SampleCount{SampleCount1}, SampleCount1, true},
		{[]SampleCount{SampleCount2, SampleCount16}, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := FindSupportedSampleCount(supported, tt.candidates)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FindSupportedSampleCount(%v) = (%v, %v), want (%v, %v)",
				tt.candidates, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRequiredCapabilities(t *testing.T) {
	got := RequiredCapabilities(ResourceTypeTexture | ResourceTypeRenderTargetColor)
	want := FormatCapSampled | FormatCapColorAttachment
	if got != want {
		t.Errorf("RequiredCapabilities = %#x, want %#x", got, want)
	}
	if got := RequiredCapabilities(ResourceTypeTextureReadWrite); got != FormatCapStorage {
		t.Errorf("RequiredCapabilities(read-write) = %#x, want %#x", got, FormatCapStorage)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
	}{
		{"vulkan", BackendVulkan},
		{"Metal", BackendMetal},
		{"opengl", BackendGL},
		{" empty ", BackendEmpty},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseBackend(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseBackend("dx12"); err == nil {
		t.Error("ParseBackend(dx12) succeeded, want error")
	}
}

func TestError_UnwrapsKindAndCause(t *testing.T) {
	err := Wrap(BackendVulkan, "acquire_next_image", ErrSurfaceOutOfDate, io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrSurfaceOutOfDate) {
		t.Error("errors.Is(err, ErrSurfaceOutOfDate) = false")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrDeviceLost) {
		t.Error("errors.Is(err, ErrDeviceLost) = true")
	}
	if KindOf(err) != ErrSurfaceOutOfDate {
		t.Errorf("KindOf = %v, want %v", KindOf(err), ErrSurfaceOutOfDate)
	}

	msg := err.Error()
	for _, part := range []string{"vulkan", "acquire_next_image", "surface out of date"} {
		if !strings.Contains(msg, part) {
			t.Errorf("Error() = %q, missing %q", msg, part)
		}
	}
}

func TestMaxMipCount(t *testing.T) {
	tests := []struct {
		e    Extents3D
		want uint32
	}{
		{Extents3D{1, 1, 1}, 1},
		{Extents3D{256, 256, 1}, 9},
		{Extents3D{800, 600, 1}, 10},
		{Extents3D{1, 1, 64}, 7},
	}
	for _, tt := range tests {
		if got := MaxMipCount(tt.e); got != tt.want {
			t.Errorf("MaxMipCount(%v) = %d, want %d", tt.e, got, tt.want)
		}
	}
}

func TestTextureDef_Validate(t *testing.T) {
	base := TextureDef{
		Extents:      Extents3D{Width: 64, Height: 64},
		Format:       FormatRGBA8Unorm,
		ResourceType: ResourceTypeTexture,
	}
	tests := []struct {
		name    string
		mutate  func(*TextureDef)
		wantErr bool
	}{
		{"valid", func(*TextureDef) {}, false},
		{"zero width", func(d *TextureDef) { d.Extents.Width = 0 }, true},
		{"undefined format", func(d *TextureDef) { d.Format = FormatUndefined }, true},
		{"too many mips", func(d *TextureDef) { d.MipCount = 8 }, true},
		{"full chain", func(d *TextureDef) { d.MipCount = 7 }, false},
		{"msaa with mips", func(d *TextureDef) { d.SampleCount = SampleCount4; d.MipCount = 2 }, true},
		{"bad sample count", func(d *TextureDef) { d.SampleCount = 3 }, true},
		{"cube needs six layers", func(d *TextureDef) {
			d.ResourceType |= ResourceTypeTextureCube
			d.ArrayLength = 4
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			d = d.Normalized()
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBufferDef_AlignedSize(t *testing.T) {
	info := &DeviceInfo{MinUniformBufferOffsetAlignment: 256}
	d := BufferDef{Size: 100, ResourceType: ResourceTypeUniformBuffer}
	if got := d.AlignedSize(info); got != 256 {
		t.Errorf("AlignedSize = %d, want 256", got)
	}
	d.ResourceType = ResourceTypeVertexBuffer
	if got := d.AlignedSize(info); got != 100 {
		t.Errorf("AlignedSize(vertex) = %d, want 100", got)
	}
}

func TestClampImageCount(t *testing.T) {
	tests := []struct{ desired, lo, hi, want uint32 }{
		{0, 2, 3, 2},
		{1, 2, 3, 2},
		{3, 2, 3, 3},
		{8, 2, 3, 3},
	}
	for _, tt := range tests {
		if got := ClampImageCount(tt.desired, tt.lo, tt.hi); got != tt.want {
			t.Errorf("ClampImageCount(%d, %d, %d) = %d, want %d", tt.desired, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestShaderStage_Single(t *testing.T) {
	if !ShaderStageVertex.Single() {
		t.Error("ShaderStageVertex.Single() = false")
	}
	if ShaderStageGraphics.Single() {
		t.Error("ShaderStageGraphics.Single() = true")
	}
	if ShaderStageNone.Single() {
		t.Error("ShaderStageNone.Single() = true")
	}
	if got := ShaderStageGraphics.String(); got != "vertex|fragment" {
		t.Errorf("String() = %q, want %q", got, "vertex|fragment")
	}
}
