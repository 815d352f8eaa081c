package empty

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/gpucore"
)

func newTestDevice(t *testing.T, opts ...Option) *DeviceContext {
	t.Helper()
	dc, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(dc.Release)
	return dc
}

func TestDeviceContext_LastReleaseDestroys(t *testing.T) {
	dc, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fence, err := dc.CreateFence()
	if err != nil {
		t.Fatalf("CreateFence: %v", err)
	}

	const n = 4
	clones := make([]*DeviceContext, n)
	for i := range clones {
		clones[i] = dc.Clone()
	}
	dc.Release()
	for i := range n - 1 {
		clones[i].Release()
		if _, err := clones[n-1].CreateFence(); err != nil {
			t.Fatalf("CreateFence after releasing %d of %d clones: %v", i+1, n, err)
		}
	}
	if clones[n-1].Destroyed() {
		t.Fatal("Destroyed() = true while one clone is live")
	}

	clones[n-1].Release()
	if !clones[n-1].Destroyed() {
		t.Error("Destroyed() = false after the last release")
	}
	if _, err := clones[n-1].CreateFence(); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("CreateFence after destroy error = %v, want ErrDeviceDestroyed", err)
	}
	if _, err := dc.CreateBuffer(&gpucore.BufferDef{Size: 16}); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("CreateBuffer through released handle error = %v, want ErrDeviceDestroyed", err)
	}
	if _, err := fence.Status(); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("Fence.Status after destroy error = %v, want ErrDeviceDestroyed", err)
	}
	if _, ok := dc.FindSupportedFormat([]gpucore.Format{gpucore.FormatRGBA8Unorm}, gpucore.ResourceTypeTexture); ok {
		t.Error("FindSupportedFormat on a destroyed device found a format")
	}
}

func TestDeviceContext_ReleasedHandleFailsWhileOthersLive(t *testing.T) {
	dc := newTestDevice(t)
	c := dc.Clone()
	c.Release()

	if _, err := c.CreateSemaphore(); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("CreateSemaphore on released handle error = %v, want ErrDeviceDestroyed", err)
	}
	if _, err := dc.CreateSemaphore(); err != nil {
		t.Errorf("CreateSemaphore on live handle: %v", err)
	}
}

func TestDeviceContext_DeviceInfo(t *testing.T) {
	dc := newTestDevice(t, WithSupportsClampToBorder(false))
	info := dc.DeviceInfo()
	if info.MinUniformBufferOffsetAlignment != 256 {
		t.Errorf("MinUniformBufferOffsetAlignment = %d, want 256", info.MinUniformBufferOffsetAlignment)
	}
	if info.SupportsClampToBorderColor {
		t.Error("SupportsClampToBorderColor = true, want false")
	}
}

func TestFindSupportedFormat_OrderSensitive(t *testing.T) {
	table := gpucore.FormatTable{
		gpucore.FormatR8Unorm:    gpucore.FormatCapSampled,
		gpucore.FormatBGRA8Srgb:  gpucore.FormatCapSampled | gpucore.FormatCapColorAttachment,
		gpucore.FormatRGBA8Unorm: gpucore.FormatCapSampled | gpucore.FormatCapColorAttachment,
	}
	dc := newTestDevice(t, WithFormatCapabilities(table))

	got, ok := dc.FindSupportedFormat(
		[]gpucore.Format{gpucore.FormatR8Unorm, gpucore.FormatBGRA8Srgb, gpucore.FormatRGBA8Unorm},
		gpucore.ResourceTypeRenderTargetColor)
	if !ok || got != gpucore.FormatBGRA8Srgb {
		t.Errorf("FindSupportedFormat = (%v, %v), want (%v, true)", got, ok, gpucore.FormatBGRA8Srgb)
	}

	got, ok = dc.FindSupportedFormat([]gpucore.Format{gpucore.FormatD32Float}, gpucore.ResourceTypeRenderTargetDepthStencil)
	if ok || got != gpucore.FormatUndefined {
		t.Errorf("FindSupportedFormat(depth) = (%v, %v), want (undefined, false)", got, ok)
	}
}

func TestFindSupportedSampleCount(t *testing.T) {
	dc := newTestDevice(t, WithSampleCounts(gpucore.SampleCount1, gpucore.SampleCount4))
	got, ok := dc.FindSupportedSampleCount([]gpucore.SampleCount{gpucore.SampleCount8, gpucore.SampleCount4})
	if !ok || got != gpucore.SampleCount4 {
		t.Errorf("FindSupportedSampleCount = (%v, %v), want (4, true)", got, ok)
	}
	if _, ok := dc.FindSupportedSampleCount([]gpucore.SampleCount{gpucore.SampleCount16}); ok {
		t.Error("FindSupportedSampleCount(16) found a count")
	}
}

func TestCreateQueue_Unsupported(t *testing.T) {
	dc := newTestDevice(t, WithQueueTypes(gpucore.QueueTypeGraphics))
	if _, err := dc.CreateQueue(gpucore.QueueTypeGraphics); err != nil {
		t.Fatalf("CreateQueue(graphics): %v", err)
	}
	if _, err := dc.CreateQueue(gpucore.QueueTypeCompute); !errors.Is(err, gpucore.ErrUnsupported) {
		t.Errorf("CreateQueue(compute) error = %v, want ErrUnsupported", err)
	}
}

func TestCreateBuffer(t *testing.T) {
	dc := newTestDevice(t)

	b, err := dc.CreateBuffer(&gpucore.BufferDef{
		Size:         100,
		MemoryUsage:  gpucore.MemoryUsageCPUToGPU,
		ResourceType: gpucore.ResourceTypeUniformBuffer,
	})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if b.Size() != 256 {
		t.Errorf("Size() = %d, want 256", b.Size())
	}
	if err := b.CopyToHostVisibleBuffer([]byte{1, 2, 3}, 8); err != nil {
		t.Fatalf("CopyToHostVisibleBuffer: %v", err)
	}
	if got := b.Contents()[9]; got != 2 {
		t.Errorf("Contents()[9] = %d, want 2", got)
	}
	if err := b.CopyToHostVisibleBuffer(make([]byte, 16), 250); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("overflowing copy error = %v, want ErrInvalidDefinition", err)
	}
	for _, offset := range []uint64{math.MaxUint64, math.MaxUint64 - 1, 257} {
		if err := b.CopyToHostVisibleBuffer([]byte{1, 2}, offset); !errors.Is(err, gpucore.ErrInvalidDefinition) {
			t.Errorf("copy at offset %d error = %v, want ErrInvalidDefinition", offset, err)
		}
	}
	if err := b.CopyToHostVisibleBuffer([]byte{7}, 255); err != nil {
		t.Errorf("copy into the last byte: %v", err)
	}

	gpuOnly, err := dc.CreateBuffer(&gpucore.BufferDef{Size: 64, ResourceType: gpucore.ResourceTypeVertexBuffer})
	if err != nil {
		t.Fatalf("CreateBuffer(gpu only): %v", err)
	}
	if err := gpuOnly.CopyToHostVisibleBuffer([]byte{1}, 0); !errors.Is(err, gpucore.ErrInvalidState) {
		t.Errorf("copy into GPU-only buffer error = %v, want ErrInvalidState", err)
	}

	if _, err := dc.CreateBuffer(&gpucore.BufferDef{}); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("zero-size buffer error = %v, want ErrInvalidDefinition", err)
	}
}

func TestCreateTexture(t *testing.T) {
	dc := newTestDevice(t, WithSampleCounts(gpucore.SampleCount1, gpucore.SampleCount4))

	tests := []struct {
		name string
		def  gpucore.TextureDef
		want error
	}{
		{
			name: "sampled rgba",
			def:  gpucore.TextureDef{Extents: gpucore.Extents3D{Width: 64, Height: 64}, Format: gpucore.FormatRGBA8Unorm},
			want: nil,
		},
		{
			name: "zero extents",
			def:  gpucore.TextureDef{Format: gpucore.FormatRGBA8Unorm},
			want: gpucore.ErrInvalidDefinition,
		},
		{
			name: "depth as color target",
			def: gpucore.TextureDef{
				Extents:      gpucore.Extents3D{Width: 8, Height: 8},
				Format:       gpucore.FormatD32Float,
				ResourceType: gpucore.ResourceTypeRenderTargetColor,
			},
			want: gpucore.ErrUnsupported,
		},
		{
			name: "unsupported sample count",
			def: gpucore.TextureDef{
				Extents:      gpucore.Extents3D{Width: 8, Height: 8},
				Format:       gpucore.FormatRGBA8Unorm,
				SampleCount:  gpucore.SampleCount8,
				ResourceType: gpucore.ResourceTypeRenderTargetColor,
			},
			want: gpucore.ErrUnsupported,
		},
		{
			name: "too large",
			def:  gpucore.TextureDef{Extents: gpucore.Extents3D{Width: 1 << 15, Height: 4}, Format: gpucore.FormatR8Unorm},
			want: gpucore.ErrUnsupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := dc.CreateTexture(&tt.def)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("CreateTexture: %v", err)
				}
				if got := tex.TextureDef().MipCount; got != 1 {
					t.Errorf("MipCount = %d, want 1", got)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateTexture error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateSampler_ClampToBorder(t *testing.T) {
	def := gpucore.SamplerDef{AddressModeU: gpucore.AddressModeClampToBorder}

	withBorder := newTestDevice(t)
	if _, err := withBorder.CreateSampler(&def); err != nil {
		t.Errorf("CreateSampler with border support: %v", err)
	}

	noBorder := newTestDevice(t, WithSupportsClampToBorder(false))
	if _, err := noBorder.CreateSampler(&def); !errors.Is(err, gpucore.ErrUnsupported) {
		t.Errorf("CreateSampler without border support error = %v, want ErrUnsupported", err)
	}
}

func testShader(t *testing.T, dc *DeviceContext, stages ...gpucore.ShaderStage) *Shader {
	t.Helper()
	module, err := dc.CreateShaderModule(&gpucore.ShaderModuleDef{WGSL: "@vertex fn vs_main() {}"})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	defs := make([]ShaderStageDef, len(stages))
	for i, st := range stages {
		defs[i] = ShaderStageDef{
			Module:     module,
			EntryPoint: "main",
			Stage:      st,
			Resources: []gpucore.ShaderResource{
				{Name: "globals", SetIndex: 0, Binding: 0, ResourceType: gpucore.ResourceTypeUniformBuffer},
			},
		}
	}
	sh, err := dc.CreateShader(defs)
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	return sh
}

func TestCreateShader_Validation(t *testing.T) {
	dc := newTestDevice(t)
	module, err := dc.CreateShaderModule(&gpucore.ShaderModuleDef{SPIRV: []uint32{0x07230203}})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}

	tests := []struct {
		name   string
		stages []ShaderStageDef
	}{
		{"no stages", nil},
		{"missing entry point", []ShaderStageDef{{Module: module, Stage: gpucore.ShaderStageVertex}}},
		{"duplicate stage", []ShaderStageDef{
			{Module: module, EntryPoint: "a", Stage: gpucore.ShaderStageVertex},
			{Module: module, EntryPoint: "b", Stage: gpucore.ShaderStageVertex},
		}},
		{"compute with vertex", []ShaderStageDef{
			{Module: module, EntryPoint: "a", Stage: gpucore.ShaderStageVertex},
			{Module: module, EntryPoint: "b", Stage: gpucore.ShaderStageCompute},
		}},
		{"multi-bit stage", []ShaderStageDef{{Module: module, EntryPoint: "a", Stage: gpucore.ShaderStageGraphics}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dc.CreateShader(tt.stages); !errors.Is(err, gpucore.ErrInvalidDefinition) {
				t.Errorf("CreateShader error = %v, want ErrInvalidDefinition", err)
			}
		})
	}

	if _, err := dc.CreateShaderModule(&gpucore.ShaderModuleDef{}); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("empty shader module error = %v, want ErrInvalidDefinition", err)
	}
}

func TestCreateRootSignature(t *testing.T) {
	dc := newTestDevice(t)
	sh := testShader(t, dc, gpucore.ShaderStageVertex, gpucore.ShaderStageFragment)

	rs, err := dc.CreateRootSignature(&RootSignatureDef{Shaders: []*Shader{sh}})
	if err != nil {
		t.Fatalf("CreateRootSignature: %v", err)
	}
	res := rs.Resources()
	if len(res) != 1 {
		t.Fatalf("len(Resources()) = %d, want 1", len(res))
	}
	if res[0].UsedInStages != gpucore.ShaderStageGraphics {
		t.Errorf("UsedInStages = %v, want %v", res[0].UsedInStages, gpucore.ShaderStageGraphics)
	}

	dsa, err := dc.CreateDescriptorSetArray(&DescriptorSetArrayDef{RootSignature: rs, SetIndex: 0, ArrayLength: 3})
	if err != nil {
		t.Fatalf("CreateDescriptorSetArray: %v", err)
	}
	if dsa.Len() != 3 {
		t.Errorf("Len() = %d, want 3", dsa.Len())
	}
	if _, err := dsa.Binding(0); err != nil {
		t.Errorf("Binding(0): %v", err)
	}
	if _, err := dc.CreateDescriptorSetArray(&DescriptorSetArrayDef{RootSignature: rs, SetIndex: 2, ArrayLength: 1}); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("descriptor set array for empty set error = %v, want ErrInvalidDefinition", err)
	}
}

func TestCreateRootSignature_ConflictingBindings(t *testing.T) {
	dc := newTestDevice(t)
	module, _ := dc.CreateShaderModule(&gpucore.ShaderModuleDef{WGSL: "x"})
	sh, err := dc.CreateShader([]ShaderStageDef{
		{Module: module, EntryPoint: "vs", Stage: gpucore.ShaderStageVertex, Resources: []gpucore.ShaderResource{
			{Name: "a", Binding: 1, ResourceType: gpucore.ResourceTypeUniformBuffer},
		}},
		{Module: module, EntryPoint: "fs", Stage: gpucore.ShaderStageFragment, Resources: []gpucore.ShaderResource{
			{Name: "b", Binding: 1, ResourceType: gpucore.ResourceTypeTexture},
		}},
	})
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	if _, err := dc.CreateRootSignature(&RootSignatureDef{Shaders: []*Shader{sh}}); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateRootSignature error = %v, want ErrInvalidDefinition", err)
	}
}

func TestCreateRootSignature_ImmutableSamplers(t *testing.T) {
	dc := newTestDevice(t)
	module, _ := dc.CreateShaderModule(&gpucore.ShaderModuleDef{WGSL: "x"})
	sampler, _ := dc.CreateSampler(&gpucore.SamplerDef{MinFilter: gpucore.FilterTypeLinear})
	sh, err := dc.CreateShader([]ShaderStageDef{{
		Module: module, EntryPoint: "fs", Stage: gpucore.ShaderStageFragment,
		Resources: []gpucore.ShaderResource{{Name: "smp", ResourceType: gpucore.ResourceTypeSampler}},
	}})
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}

	ok := []gpucore.ImmutableSamplers[*Sampler]{{Name: "smp", Samplers: []*Sampler{sampler}}}
	if _, err := dc.CreateRootSignature(&RootSignatureDef{Shaders: []*Shader{sh}, ImmutableSamplers: ok}); err != nil {
		t.Errorf("CreateRootSignature: %v", err)
	}
	bad := []gpucore.ImmutableSamplers[*Sampler]{{Name: "missing", Samplers: []*Sampler{sampler}}}
	if _, err := dc.CreateRootSignature(&RootSignatureDef{Shaders: []*Shader{sh}, ImmutableSamplers: bad}); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("unknown immutable sampler error = %v, want ErrInvalidDefinition", err)
	}
}

func TestCreatePipelines(t *testing.T) {
	dc := newTestDevice(t)
	gfx := testShader(t, dc, gpucore.ShaderStageVertex, gpucore.ShaderStageFragment)
	gfxRS, err := dc.CreateRootSignature(&RootSignatureDef{Shaders: []*Shader{gfx}})
	if err != nil {
		t.Fatalf("CreateRootSignature: %v", err)
	}
	cs := testShader(t, dc, gpucore.ShaderStageCompute)
	csRS, err := dc.CreateRootSignature(&RootSignatureDef{Shaders: []*Shader{cs}})
	if err != nil {
		t.Fatalf("CreateRootSignature(compute): %v", err)
	}

	def := GraphicsPipelineDef{
		Shader:        gfx,
		RootSignature: gfxRS,
		VertexLayout: &gpucore.VertexLayout{
			Attributes: []gpucore.VertexLayoutAttribute{{Format: gputypes.VertexFormatFloat32x2}},
			Buffers:    []gpucore.VertexLayoutBuffer{{Stride: 8}},
		},
		PrimitiveTopology: gputypes.PrimitiveTopologyTriangleList,
		ColorFormats:      []gpucore.Format{gpucore.FormatBGRA8Srgb},
	}
	p, err := dc.CreateGraphicsPipeline(&def)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	if p.PipelineType() != gpucore.PipelineTypeGraphics {
		t.Errorf("PipelineType() = %v, want graphics", p.PipelineType())
	}

	bad := def
	bad.ColorFormats = []gpucore.Format{gpucore.FormatD16Unorm}
	if _, err := dc.CreateGraphicsPipeline(&bad); !errors.Is(err, gpucore.ErrUnsupported) {
		t.Errorf("depth format as color target error = %v, want ErrUnsupported", err)
	}

	bad = def
	bad.VertexLayout = &gpucore.VertexLayout{
		Attributes: []gpucore.VertexLayoutAttribute{{Format: gputypes.VertexFormatFloat32x2, BufferIndex: 1}},
		Buffers:    []gpucore.VertexLayoutBuffer{{Stride: 8}},
	}
	if _, err := dc.CreateGraphicsPipeline(&bad); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("attribute on undeclared buffer error = %v, want ErrInvalidDefinition", err)
	}

	if _, err := dc.CreateComputePipeline(&ComputePipelineDef{Shader: cs, RootSignature: csRS}); err != nil {
		t.Errorf("CreateComputePipeline: %v", err)
	}
	if _, err := dc.CreateComputePipeline(&ComputePipelineDef{Shader: gfx, RootSignature: gfxRS}); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("compute pipeline from graphics shader error = %v, want ErrInvalidDefinition", err)
	}
}

func TestForeignObjectsRejected(t *testing.T) {
	a := newTestDevice(t)
	b := newTestDevice(t)
	fence, _ := b.CreateFence()
	if err := a.WaitForFences([]*Fence{fence}); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("WaitForFences with foreign fence error = %v, want ErrInvalidDefinition", err)
	}
}

func TestFence_UnsubmittedWaitReturnsImmediately(t *testing.T) {
	dc := newTestDevice(t, WithFenceTimeout(time.Millisecond))
	f, _ := dc.CreateFence()
	if err := dc.WaitForFences([]*Fence{f}); err != nil {
		t.Errorf("WaitForFences on unsubmitted fence: %v", err)
	}
	if st, _ := f.Status(); st != gpucore.FenceStatusUnsubmitted {
		t.Errorf("Status() = %v, want unsubmitted", st)
	}
}

func TestNilDefinitionsRejected(t *testing.T) {
	dc := newTestDevice(t)
	tests := []struct {
		name string
		fn   func() error
	}{
		{"CreateSwapchain", func() error { _, err := dc.CreateSwapchain(nil, nil); return err }},
		{"CreateBuffer", func() error { _, err := dc.CreateBuffer(nil); return err }},
		{"CreateTexture", func() error { _, err := dc.CreateTexture(nil); return err }},
		{"CreateSampler", func() error { _, err := dc.CreateSampler(nil); return err }},
		{"CreateShaderModule", func() error { _, err := dc.CreateShaderModule(nil); return err }},
		{"CreateRootSignature", func() error { _, err := dc.CreateRootSignature(nil); return err }},
		{"CreateDescriptorSetArray", func() error { _, err := dc.CreateDescriptorSetArray(nil); return err }},
		{"CreateGraphicsPipeline", func() error { _, err := dc.CreateGraphicsPipeline(nil); return err }},
		{"CreateComputePipeline", func() error { _, err := dc.CreateComputePipeline(nil); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, gpucore.ErrInvalidDefinition) {
				t.Errorf("%s(nil) error = %v, want ErrInvalidDefinition", tt.name, err)
			}
		})
	}

	q, _ := dc.CreateQueue(gpucore.QueueTypeGraphics)
	if _, err := q.CreateCommandPool(nil); err != nil {
		t.Errorf("CreateCommandPool(nil): %v", err)
	}
}

func TestNilHandlesReported(t *testing.T) {
	dc := newTestDevice(t)
	sc, err := dc.CreateSwapchain(nil, &gpucore.SwapchainDef{Width: 64, Height: 64, ImageCount: 2})
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	q, _ := dc.CreateQueue(gpucore.QueueTypeGraphics)

	tests := []struct {
		name string
		err  error
	}{
		{"acquire with nil fence", func() error { _, err := sc.AcquireNextImageFence(nil); return err }()},
		{"acquire with nil semaphore", func() error { _, err := sc.AcquireNextImageSemaphore(nil); return err }()},
		{"submit nil command buffer", q.Submit([]*CommandBuffer{nil}, nil, nil, nil)},
		{"present nil swapchain", func() error { _, err := q.Present(nil, nil, 0); return err }()},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, gpucore.ErrInvalidDefinition) {
			t.Errorf("%s: error = %v, want ErrInvalidDefinition", tt.name, tt.err)
			continue
		}
		if msg := tt.err.Error(); !strings.Contains(msg, "is nil") || strings.Contains(msg, "another device") {
			t.Errorf("%s: error = %q, want a nil handle message", tt.name, msg)
		}
	}
}
