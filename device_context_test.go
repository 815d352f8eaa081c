package rhi

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/backend/vulkan"
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal/noop"
)

func newEmpty(t *testing.T, opts ...Option) *DeviceContext {
	t.Helper()
	dc, err := NewEmptyDeviceContext(opts...)
	if err != nil {
		t.Fatalf("NewEmptyDeviceContext: %v", err)
	}
	t.Cleanup(dc.Release)
	return dc
}

// newNoop opens a Vulkan-tagged context on the noop hal driver.
func newNoop(t *testing.T) *DeviceContext {
	t.Helper()
	nd, err := native.OpenWith(vulkan.Profile, &noop.API{}, nil)
	if err != nil {
		t.Fatalf("native.OpenWith: %v", err)
	}
	dc := FromNative(nd)
	t.Cleanup(dc.Release)
	return dc
}

func TestSwapchainAcquireAndRebuild(t *testing.T) {
	dc := newEmpty(t)
	win := empty.NewWindow(800, 600)

	sc, err := dc.CreateSwapchain(win, &gpucore.SwapchainDef{Width: 800, Height: 600, ImageCount: 2})
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	if sc.ImageCount() != 2 {
		t.Errorf("ImageCount() = %d, want 2", sc.ImageCount())
	}
	fence, err := dc.CreateFence()
	if err != nil {
		t.Fatalf("CreateFence: %v", err)
	}
	img, err := sc.AcquireNextImageFence(fence)
	if err != nil {
		t.Fatalf("AcquireNextImageFence: %v", err)
	}
	if img.ImageIndex > 1 {
		t.Errorf("ImageIndex = %d, want 0 or 1", img.ImageIndex)
	}
	if img.Texture.Backend() != gpucore.BackendEmpty {
		t.Errorf("image backend = %v, want empty", img.Texture.Backend())
	}

	win.Resize(1024, 768)
	if err := sc.Rebuild(&gpucore.SwapchainDef{Width: 1024, Height: 768, ImageCount: 2}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if got := sc.SwapchainDef().Width; got != 1024 {
		t.Errorf("SwapchainDef().Width = %d, want 1024", got)
	}
	if sc.State() != gpucore.SwapchainStateCreated {
		t.Errorf("State() = %v, want created", sc.State())
	}
}

func TestCloneAndRelease(t *testing.T) {
	dc, err := NewEmptyDeviceContext()
	if err != nil {
		t.Fatalf("NewEmptyDeviceContext: %v", err)
	}
	clone := dc.Clone()
	if got := dc.Refs(); got != 2 {
		t.Errorf("Refs() = %d, want 2", got)
	}

	dc.Release()
	if clone.Destroyed() {
		t.Fatal("device destroyed while a clone is alive")
	}
	if _, err := clone.CreateFence(); err != nil {
		t.Errorf("CreateFence on live clone: %v", err)
	}

	clone.Release()
	if !clone.Destroyed() {
		t.Fatal("device alive after last release")
	}
	if _, err := clone.CreateBuffer(&gpucore.BufferDef{Size: 16, ResourceType: gpucore.ResourceTypeUniformBuffer}); !errors.Is(err, gpucore.ErrDeviceDestroyed) {
		t.Errorf("CreateBuffer after destroy: err = %v, want ErrDeviceDestroyed", err)
	}
	clone.Release()
}

func TestFindSupportedFormatOrder(t *testing.T) {
	dc := newEmpty(t)

	tests := []struct {
		name       string
		candidates []gpucore.Format
		resource   gpucore.ResourceType
		want       gpucore.Format
		wantOK     bool
	}{
		{
			name:       "first wins",
			candidates: []gpucore.Format{gpucore.FormatBGRA8Srgb, gpucore.FormatRGBA8Srgb},
			resource:   gpucore.ResourceTypeRenderTargetColor,
			want:       gpucore.FormatBGRA8Srgb,
			wantOK:     true,
		},
		{
			name:       "reversed order",
			candidates: []gpucore.Format{gpucore.FormatRGBA8Srgb, gpucore.FormatBGRA8Srgb},
			resource:   gpucore.ResourceTypeRenderTargetColor,
			want:       gpucore.FormatRGBA8Srgb,
			wantOK:     true,
		},
		{
			name:       "color format as depth",
			candidates: []gpucore.Format{gpucore.FormatRGBA8Unorm},
			resource:   gpucore.ResourceTypeRenderTargetDepthStencil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dc.FindSupportedFormat(tt.candidates, tt.resource)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("FindSupportedFormat() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBackendMismatch(t *testing.T) {
	e := newEmpty(t)
	n := newNoop(t)

	emptyFence, err := e.CreateFence()
	if err != nil {
		t.Fatalf("CreateFence: %v", err)
	}
	if err := n.WaitForFences([]*Fence{emptyFence}); !errors.Is(err, gpucore.ErrBackendMismatch) {
		t.Errorf("native wait on empty fence: err = %v, want ErrBackendMismatch", err)
	}

	module, err := n.CreateShaderModule(&gpucore.ShaderModuleDef{WGSL: triangleWGSL})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	_, err = e.CreateShader([]ShaderStageDef{{Module: module, EntryPoint: "vs_main", Stage: gpucore.ShaderStageVertex}})
	if !errors.Is(err, gpucore.ErrBackendMismatch) {
		t.Errorf("empty shader from native module: err = %v, want ErrBackendMismatch", err)
	}

	if _, err := emptyFence.Native(); !errors.Is(err, gpucore.ErrBackendMismatch) {
		t.Errorf("Native() on empty fence: err = %v, want ErrBackendMismatch", err)
	}
	if f, err := emptyFence.Empty(); err != nil || f == nil {
		t.Errorf("Empty() = %v, %v, want the empty fence", f, err)
	}
}

const triangleWGSL = `
@vertex fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
	return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
@fragment fn fs_main() -> @location(0) vec4<f32> {
	return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

// drawTriangle records and submits one draw on dc and waits for it.
func drawTriangle(t *testing.T, dc *DeviceContext) {
	t.Helper()
	module, err := dc.CreateShaderModule(&gpucore.ShaderModuleDef{Label: "triangle", WGSL: triangleWGSL})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	sh, err := dc.CreateShader([]ShaderStageDef{
		{Module: module, EntryPoint: "vs_main", Stage: gpucore.ShaderStageVertex},
		{Module: module, EntryPoint: "fs_main", Stage: gpucore.ShaderStageFragment},
	})
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	rs, err := dc.CreateRootSignature(&RootSignatureDef{Shaders: []*Shader{sh}})
	if err != nil {
		t.Fatalf("CreateRootSignature: %v", err)
	}
	p, err := dc.CreateGraphicsPipeline(&GraphicsPipelineDef{
		Shader:        sh,
		RootSignature: rs,
		ColorFormats:  []gpucore.Format{gpucore.FormatBGRA8Unorm},
		SampleCount:   gpucore.SampleCount1,
	})
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	target, err := dc.CreateTexture(&gpucore.TextureDef{
		Extents:      gpucore.Extents3D{Width: 32, Height: 32, Depth: 1},
		Format:       gpucore.FormatBGRA8Unorm,
		ResourceType: gpucore.ResourceTypeRenderTargetColor,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer target.Destroy()

	q, err := dc.CreateQueue(gpucore.QueueTypeGraphics)
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	pool, err := q.CreateCommandPool(nil)
	if err != nil {
		t.Fatalf("CreateCommandPool: %v", err)
	}
	cb, err := pool.CreateCommandBuffer()
	if err != nil {
		t.Fatalf("CreateCommandBuffer: %v", err)
	}
	steps := []func() error{
		cb.Begin,
		func() error {
			return cb.CmdBeginRenderPass([]ColorRenderTargetBinding{{
				Texture: target,
				LoadOp:  gpucore.LoadOpClear,
				StoreOp: gpucore.StoreOpStore,
			}}, nil)
		},
		func() error { return cb.CmdBindPipeline(p) },
		func() error { return cb.CmdDraw(3, 0) },
		cb.CmdEndRenderPass,
		cb.End,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("recording step %d: %v", i, err)
		}
	}

	fence, err := dc.CreateFence()
	if err != nil {
		t.Fatalf("CreateFence: %v", err)
	}
	if err := q.Submit([]*CommandBuffer{cb}, nil, nil, fence); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := dc.WaitForFences([]*Fence{fence}); err != nil {
		t.Fatalf("WaitForFences: %v", err)
	}
	if st, _ := fence.Status(); st != gpucore.FenceStatusComplete {
		t.Errorf("fence status = %v, want complete", st)
	}
}

func TestDrawOnEachBackend(t *testing.T) {
	tests := []struct {
		name string
		open func(*testing.T) *DeviceContext
	}{
		{"empty", func(t *testing.T) *DeviceContext { return newEmpty(t) }},
		{"noop", newNoop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drawTriangle(t, tt.open(t))
		})
	}
}

func TestEmptyStatsThroughFacade(t *testing.T) {
	dc := newEmpty(t)
	drawTriangle(t, dc)

	e, err := dc.Empty()
	if err != nil {
		t.Fatalf("Empty(): %v", err)
	}
	if got := e.Stats().Draws; got != 1 {
		t.Errorf("Stats().Draws = %d, want 1", got)
	}
	if _, err := dc.Native(); !errors.Is(err, gpucore.ErrBackendMismatch) {
		t.Errorf("Native() on empty context: err = %v, want ErrBackendMismatch", err)
	}
}

func TestNilDefinitions(t *testing.T) {
	dc := newEmpty(t)
	if _, err := dc.CreateGraphicsPipeline(nil); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateGraphicsPipeline(nil): err = %v, want ErrInvalidDefinition", err)
	}
	if _, err := dc.CreateRootSignature(nil); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateRootSignature(nil): err = %v, want ErrInvalidDefinition", err)
	}
	if _, err := dc.CreateSwapchain(nil, nil); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateSwapchain(nil): err = %v, want ErrInvalidDefinition", err)
	}
	if _, err := dc.CreateBuffer(nil); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateBuffer(nil): err = %v, want ErrInvalidDefinition", err)
	}
	if _, err := dc.CreateTexture(nil); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateTexture(nil): err = %v, want ErrInvalidDefinition", err)
	}
	if _, err := dc.CreateSampler(nil); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateSampler(nil): err = %v, want ErrInvalidDefinition", err)
	}
	if _, err := dc.CreateShaderModule(nil); !errors.Is(err, gpucore.ErrInvalidDefinition) {
		t.Errorf("CreateShaderModule(nil): err = %v, want ErrInvalidDefinition", err)
	}
}
