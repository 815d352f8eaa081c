package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/rhi/render"
)

const sceneWGSL = `
@vertex fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
	var pos = array<vec2<f32>, 3>(vec2<f32>(0.0, 0.5), vec2<f32>(-0.5, -0.5), vec2<f32>(0.5, -0.5));
	return vec4<f32>(pos[i], 0.0, 1.0);
}
@fragment fn fs_main() -> @location(0) vec4<f32> {
	return vec4<f32>(1.0, 0.5, 0.2, 1.0);
}
`

// frameParamsSize is the byte size of the per-frame uniform block.
const frameParamsSize = 16

// sceneClock is the simulation time, owned by the world.
type sceneClock struct {
	frame   uint64
	elapsed time.Duration
}

// frameParams is the render side copy of the world state a frame needs.
type frameParams struct {
	frame      uint64
	seconds    float32
	tonemapper TonemapperType
	exposure   float32
}

type frameSlot struct {
	pool   *rhi.CommandPool
	cmd    *rhi.CommandBuffer
	params *rhi.Buffer
}

// demo owns the device objects of the frame loop.
type demo struct {
	dc     *rhi.DeviceContext
	win    window
	queue  *rhi.Queue
	helper *rhi.SwapchainHelper

	shader         *rhi.Shader
	rootSignature  *rhi.RootSignature
	pipeline       *rhi.Pipeline
	pipelineFormat gpucore.Format

	slots []frameSlot

	arena           *render.FrameArena
	world           *render.Resources
	renderResources *render.Resources
	start           time.Time
}

func newDemo(dc *rhi.DeviceContext, win window, s settings) (_ *demo, err error) {
	d := &demo{
		dc:              dc.Clone(),
		win:             win,
		arena:           render.NewFrameArena(),
		world:           render.NewResources(),
		renderResources: render.NewResources(),
		start:           time.Now(),
	}
	defer func() {
		if err != nil {
			d.destroy()
		}
	}()
	render.Insert(d.world, s.options)
	render.Insert(d.world, sceneClock{})

	if d.queue, err = d.dc.CreateQueue(gpucore.QueueTypeGraphics); err != nil {
		return nil, err
	}
	w, h := win.Size()
	d.helper, err = rhi.NewSwapchainHelper(d.dc, win.surface(), &gpucore.SwapchainDef{
		Width:       w,
		Height:      h,
		PresentMode: s.presentMode,
		ColorSpace:  gpucore.ColorSpaceSrgb,
	})
	if err != nil {
		return nil, fmt.Errorf("create swapchain: %w", err)
	}
	if err := d.createShader(); err != nil {
		return nil, err
	}
	for range rhi.DefaultFramesInFlight {
		slot, err := d.createSlot()
		if err != nil {
			return nil, err
		}
		d.slots = append(d.slots, slot)
	}
	sc := d.helper.Swapchain()
	logger.Info("swapchain ready",
		"format", sc.Format(), "present_mode", sc.PresentMode(), "images", sc.ImageCount())
	return d, nil
}

func (d *demo) createShader() error {
	module, err := d.dc.CreateShaderModule(&gpucore.ShaderModuleDef{Label: "scene", WGSL: sceneWGSL})
	if err != nil {
		return fmt.Errorf("compile scene shader: %w", err)
	}
	d.shader, err = d.dc.CreateShader([]rhi.ShaderStageDef{
		{Module: module, EntryPoint: "vs_main", Stage: gpucore.ShaderStageVertex},
		{Module: module, EntryPoint: "fs_main", Stage: gpucore.ShaderStageFragment},
	})
	if err != nil {
		return err
	}
	d.rootSignature, err = d.dc.CreateRootSignature(&rhi.RootSignatureDef{Shaders: []*rhi.Shader{d.shader}})
	return err
}

// ensurePipeline creates the scene pipeline for the swapchain format. A
// rebuild may change the format.
func (d *demo) ensurePipeline(format gpucore.Format) error {
	if d.pipeline != nil && d.pipelineFormat == format {
		return nil
	}
	p, err := d.dc.CreateGraphicsPipeline(&rhi.GraphicsPipelineDef{
		Shader:            d.shader,
		RootSignature:     d.rootSignature,
		PrimitiveTopology: gputypes.PrimitiveTopologyTriangleList,
		ColorFormats:      []gpucore.Format{format},
		SampleCount:       gpucore.SampleCount1,
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	d.pipeline, d.pipelineFormat = p, format
	return nil
}

func (d *demo) createSlot() (frameSlot, error) {
	var s frameSlot
	var err error
	if s.pool, err = d.queue.CreateCommandPool(&gpucore.CommandPoolDef{Transient: true}); err != nil {
		return s, err
	}
	if s.cmd, err = s.pool.CreateCommandBuffer(); err != nil {
		return s, err
	}
	s.params, err = d.dc.CreateBuffer(&gpucore.BufferDef{
		Label:        "frame params",
		Size:         frameParamsSize,
		MemoryUsage:  gpucore.MemoryUsageCPUToGPU,
		ResourceType: gpucore.ResourceTypeUniformBuffer,
	})
	return s, err
}

// simulate advances the world by one frame.
func (d *demo) simulate() {
	clock, _ := render.Fetch[sceneClock](d.world)
	clock.frame++
	clock.elapsed = time.Since(d.start)
	render.Insert(d.world, clock)
}

// frame runs the extract, prepare and write phases of one frame and
// presents it.
func (d *demo) frame(ctx context.Context) error {
	f, err := d.arena.Begin()
	if err != nil {
		return err
	}
	defer f.End()

	d.simulate()
	ec, err := render.NewExtractContext(f, d.world, d.renderResources)
	if err != nil {
		return err
	}
	if err := render.RunJobs(ctx, ec, extractParams); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	w, h := d.win.Size()
	if w == 0 || h == 0 {
		// Minimized.
		return nil
	}
	pf, err := d.helper.AcquireNextImage(w, h)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	slot := &d.slots[pf.Slot()]

	pc, err := render.NewPrepareContext(f, d.dc, d.renderResources)
	if err != nil {
		return err
	}
	if err := render.RunJobs(ctx, pc, uploadParams(slot.params)); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	target := pf.Image().Texture
	format := d.helper.Swapchain().Format()
	if err := d.ensurePipeline(format); err != nil {
		return err
	}
	if err := slot.pool.Reset(); err != nil {
		return err
	}
	cb := slot.cmd
	if err := cb.Begin(); err != nil {
		return err
	}
	wc, err := render.NewWriteContext(f, d.dc, cb, gpucore.RenderTargetMeta{
		ColorFormats: []gpucore.Format{format},
		SampleCount:  gpucore.SampleCount1,
	})
	if err != nil {
		return err
	}
	params, _ := render.Fetch[frameParams](d.renderResources)
	if err := render.RunJobs(ctx, wc, d.drawScene(target, clearColor(params))); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := cb.End(); err != nil {
		return err
	}

	res, err := pf.Present(d.queue, []*rhi.CommandBuffer{cb})
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	if res == gpucore.PresentResultSuboptimal {
		logger.Debug("suboptimal present", "frame", f.Index())
	}
	return nil
}

// extractParams copies the world state the renderer needs.
func extractParams(_ context.Context, ec *render.ExtractContext) error {
	world, err := ec.World.Get()
	if err != nil {
		return err
	}
	rr, err := ec.RenderResources.Get()
	if err != nil {
		return err
	}
	clock, ok := render.Fetch[sceneClock](world)
	if !ok {
		return errors.New("world has no clock")
	}
	opts, _ := render.Fetch[RenderOptions](world)
	exposure := float32(1)
	if opts.EnableHDR {
		exposure = 1.5
	}
	render.Insert(rr, frameParams{
		frame:      clock.frame,
		seconds:    float32(clock.elapsed.Seconds()),
		tonemapper: opts.Tonemapper,
		exposure:   exposure,
	})
	return nil
}

// uploadParams writes the frame parameters into the slot's uniform buffer.
func uploadParams(buf *rhi.Buffer) render.Job[*render.PrepareContext] {
	return func(_ context.Context, pc *render.PrepareContext) error {
		rr, err := pc.RenderResources.Get()
		if err != nil {
			return err
		}
		p, ok := render.Fetch[frameParams](rr)
		if !ok {
			return errors.New("frame params were not extracted")
		}
		return buf.CopyToHostVisibleBuffer(encodeParams(p), 0)
	}
}

func encodeParams(p frameParams) []byte {
	b := make([]byte, frameParamsSize)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(p.seconds))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(p.exposure))
	binary.LittleEndian.PutUint32(b[8:], uint32(p.tonemapper))
	binary.LittleEndian.PutUint32(b[12:], uint32(p.frame))
	return b
}

// clearColor pulses the background so dropped frames are visible.
func clearColor(p frameParams) gpucore.ColorClearValue {
	v := 0.1 + 0.05*float32(math.Sin(float64(p.seconds)*2))
	return gpucore.ColorClearValue{v, v, v * 1.2, 1}
}

func (d *demo) drawScene(target *rhi.Texture, clear gpucore.ColorClearValue) render.Job[*render.WriteContext] {
	return func(_ context.Context, wc *render.WriteContext) error {
		cb, err := wc.CommandBuffer.Get()
		if err != nil {
			return err
		}
		err = cb.CmdBeginRenderPass([]rhi.ColorRenderTargetBinding{{
			Texture:    target,
			LoadOp:     gpucore.LoadOpClear,
			StoreOp:    gpucore.StoreOpStore,
			ClearValue: clear,
		}}, nil)
		if err != nil {
			return err
		}
		if err := cb.CmdBindPipeline(d.pipeline); err != nil {
			return err
		}
		if err := cb.CmdDraw(3, 0); err != nil {
			return err
		}
		return cb.CmdEndRenderPass()
	}
}

// report logs what the frame loop submitted.
func (d *demo) report(frames int) {
	attrs := []any{"backend", d.dc.Backend(), "frames", frames, "rebuilds", d.helper.Rebuilds()}
	if e, err := d.dc.Empty(); err == nil {
		st := e.Stats()
		attrs = append(attrs, "submissions", st.Submissions, "draws", st.Draws, "presents", st.Presents)
	}
	logger.Info("frame loop done", attrs...)
}

func (d *demo) destroy() {
	if d.helper != nil {
		d.helper.Destroy()
	}
	for _, s := range d.slots {
		if s.params != nil {
			s.params.Destroy()
		}
	}
	d.dc.Release()
}
