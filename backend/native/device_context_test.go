package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal/noop"
)

var testProfile = Profile{
	Backend:       gpucore.BackendVulkan,
	HAL:           gputypes.BackendVulkan,
	PresentModes:  []gpucore.PresentMode{gpucore.PresentModeFifo, gpucore.PresentModeMailbox},
	MinImageCount: 2,
	MaxImageCount: 3,
}

// openNoop opens a device context on the noop hal driver.
func openNoop(t *testing.T, opts ...Option) *DeviceContext {
	t.Helper()
	d, err := OpenWith(testProfile, &noop.API{}, nil, opts...)
	if err != nil {
		t.Fatalf("OpenWith failed: %v", err)
	}
	return d
}

func TestOpenWithNoop(t *testing.T) {
	d := openNoop(t)
	defer d.Release()

	if d.Backend() != gpucore.BackendVulkan {
		t.Errorf("Backend() = %v, want %v", d.Backend(), gpucore.BackendVulkan)
	}
	info := d.DeviceInfo()
	if info.MaxTextureDimension2D == 0 {
		t.Error("MaxTextureDimension2D = 0, want the default limit")
	}
	if info.UploadBufferTextureRowAlignment != 256 {
		t.Errorf("UploadBufferTextureRowAlignment = %d, want 256", info.UploadBufferTextureRowAlignment)
	}
	if d.HalDevice() == nil || d.HalQueue() == nil {
		t.Error("hal device and queue must be exposed")
	}
}

func TestOpenRequiresWindow(t *testing.T) {
	p := testProfile
	p.Backend = gpucore.BackendGL
	p.RequiresWindow = true
	_, err := OpenWith(p, &noop.API{}, nil)
	if !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Fatalf("OpenWith without window: err = %v, want ErrInvalidDefinition", err)
	}
}

func TestCloneRelease(t *testing.T) {
	d := openNoop(t)
	c := d.Clone()
	if got := d.Refs(); got != 2 {
		t.Fatalf("Refs() = %d, want 2", got)
	}

	d.Release()
	if d.Destroyed() {
		t.Fatal("device destroyed while a clone is alive")
	}
	if _, err := d.CreateFence(); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("CreateFence on released handle: err = %v, want ErrDeviceDestroyed", err)
	}
	if _, err := c.CreateFence(); err != nil {
		t.Errorf("CreateFence on clone: %v", err)
	}

	c.Release()
	if !c.Destroyed() {
		t.Error("device alive after last release")
	}
	c.Release()
}

func TestCreateBuffer(t *testing.T) {
	d := openNoop(t)
	defer d.Release()

	tests := []struct {
		name    string
		def     gpucore.BufferDef
		wantErr error
	}{
		{
			name: "uniform",
			def: gpucore.BufferDef{
				Size:         100,
				MemoryUsage:  gpucore.MemoryUsageCPUToGPU,
				ResourceType: gpucore.ResourceTypeUniformBuffer,
			},
		},
		{
			name: "vertex",
			def: gpucore.BufferDef{
				Size:         64,
				MemoryUsage:  gpucore.MemoryUsageGPUOnly,
				ResourceType: gpucore.ResourceTypeVertexBuffer,
			},
		},
		{
			name:    "zero size",
			def:     gpucore.BufferDef{ResourceType: gpucore.ResourceTypeVertexBuffer},
			wantErr: gpucore.ErrInvalidDefinition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := d.CreateBuffer(&tt.def)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBuffer: %v", err)
			}
			if b.Size() < tt.def.Size {
				t.Errorf("Size() = %d, want >= %d", b.Size(), tt.def.Size)
			}
			b.Destroy()
			b.Destroy()
		})
	}
}

func TestCopyToGPUOnlyBuffer(t *testing.T) {
	d := openNoop(t)
	defer d.Release()

	b, err := d.CreateBuffer(&gpucore.BufferDef{
		Size:         16,
		MemoryUsage:  gpucore.MemoryUsageGPUOnly,
		ResourceType: gpucore.ResourceTypeVertexBuffer,
	})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := b.CopyToHostVisibleBuffer(make([]byte, 4), 0); !errors.Is(err, gpucore.ErrInvalidState) {
		t.Errorf("copy into GPU-only buffer: err = %v, want ErrInvalidState", err)
	}
}

func TestCreateTextureUnsupported(t *testing.T) {
	d := openNoop(t)
	defer d.Release()

	_, err := d.CreateTexture(&gpucore.TextureDef{
		Extents:      gpucore.Extents3D{Width: 64, Height: 64, Depth: 1},
		Format:       gpucore.FormatRGBA8Unorm,
		SampleCount:  gpucore.SampleCount2,
		ResourceType: gpucore.ResourceTypeRenderTargetColor,
	})
	if !errors.Is(err, gpucore.ErrUnsupported) {
		t.Errorf("2x MSAA texture: err = %v, want ErrUnsupported", err)
	}

	tex, err := d.CreateTexture(&gpucore.TextureDef{
		Extents:      gpucore.Extents3D{Width: 64, Height: 64, Depth: 1},
		Format:       gpucore.FormatRGBA8Unorm,
		ResourceType: gpucore.ResourceTypeTexture | gpucore.ResourceTypeRenderTargetColor,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if got := tex.TextureDef().MipCount; got != 1 {
		t.Errorf("MipCount = %d, want 1", got)
	}
}

func TestCreateSamplerClampToBorder(t *testing.T) {
	d := openNoop(t)
	defer d.Release()

	_, err := d.CreateSampler(&gpucore.SamplerDef{AddressModeU: gpucore.AddressModeClampToBorder})
	if !errors.Is(err, gpucore.ErrUnsupported) {
		t.Errorf("clamp-to-border sampler: err = %v, want ErrUnsupported", err)
	}
	if _, err := d.CreateSampler(&gpucore.SamplerDef{MinFilter: gpucore.FilterTypeLinear}); err != nil {
		t.Errorf("CreateSampler: %v", err)
	}
}

func TestFindSupportedSampleCount(t *testing.T) {
	d := openNoop(t)
	defer d.Release()

	got, ok := d.FindSupportedSampleCount([]gpucore.SampleCount{gpucore.SampleCount8, gpucore.SampleCount4})
	if !ok || got != gpucore.SampleCount4 {
		t.Errorf("FindSupportedSampleCount = %v, %v, want 4, true", got, ok)
	}
}

func TestSwapchainNeedsWindow(t *testing.T) {
	d := openNoop(t)
	defer d.Release()

	_, err := d.CreateSwapchain(nil, &gpucore.SwapchainDef{Width: 8, Height: 8})
	if !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateSwapchain(nil): err = %v, want ErrInvalidDefinition", err)
	}
}

func TestSelectAdapter(t *testing.T) {
	if got := selectAdapter(nil, ""); got != nil {
		t.Errorf("selectAdapter(nil) = %v, want nil", got)
	}
}
