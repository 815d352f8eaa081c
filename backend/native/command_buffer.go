package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// CommandPool allocates command buffers for one queue.
type CommandPool struct {
	queue *Queue
	def   gpucore.CommandPoolDef

	mu      sync.Mutex
	buffers []*CommandBuffer
}

// CreateCommandBuffer allocates a command buffer in the initial state.
func (p *CommandPool) CreateCommandBuffer() (*CommandBuffer, error) {
	if err := p.queue.dev.alive("create_command_buffer"); err != nil {
		return nil, err
	}
	cb := &CommandBuffer{pool: p}
	p.mu.Lock()
	p.buffers = append(p.buffers, cb)
	p.mu.Unlock()
	return cb, nil
}

// Reset returns every command buffer of the pool to the initial state and
// frees their recorded work. Submissions using them must have completed.
func (p *CommandPool) Reset() error {
	if err := p.queue.dev.alive("reset_command_pool"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cb := range p.buffers {
		cb.reset()
	}
	return nil
}

type cbState uint8

const (
	cbInitial cbState = iota
	cbRecording
	cbExecutable
)

func (s cbState) String() string {
	switch s {
	case cbRecording:
		return "recording"
	case cbExecutable:
		return "executable"
	default:
		return "initial"
	}
}

// CommandBuffer records commands into a hal command encoder.
type CommandBuffer struct {
	pool *CommandPool

	state    cbState
	encoder  hal.CommandEncoder
	recorded hal.CommandBuffer
	// submitted marks recorded work the queue may still reference.
	submitted bool

	pass     hal.RenderPassEncoder
	passMeta gpucore.RenderTargetMeta
	graphics *Pipeline
	compute  *Pipeline
}

func (c *CommandBuffer) dev() *device { return c.pool.queue.dev }

func (c *CommandBuffer) reset() {
	dev := c.dev()
	if c.pass != nil {
		c.pass.End()
		c.pass = nil
	}
	if c.encoder != nil && c.state == cbRecording {
		c.encoder.DiscardEncoding()
	}
	if c.recorded != nil && !dev.shared.Destroyed() {
		dev.hal.FreeCommandBuffer(c.recorded)
	}
	c.encoder = nil
	c.recorded = nil
	c.submitted = false
	c.state = cbInitial
	c.graphics, c.compute = nil, nil
}

func (c *CommandBuffer) stateErr(op, format string, args ...any) error {
	return c.dev().errorf(op, gpucore.ErrInvalidState, format, args...)
}

func (c *CommandBuffer) recording(op string) error {
	if err := c.dev().alive(op); err != nil {
		return err
	}
	if c.state != cbRecording {
		return c.stateErr(op, "command buffer is %s, want recording", c.state)
	}
	return nil
}

// Begin starts recording. Work recorded earlier is freed, so its
// submission must have completed.
func (c *CommandBuffer) Begin() error {
	const op = "begin"
	dev := c.dev()
	if err := dev.usable(op); err != nil {
		return err
	}
	if c.state == cbRecording {
		return c.stateErr(op, "command buffer is already recording")
	}
	c.reset()
	enc, err := dev.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: dev.cfg.label + " commands"})
	if err != nil {
		return dev.fail(op, err, gpucore.ErrAllocationFailure)
	}
	if err := enc.BeginEncoding(dev.cfg.label); err != nil {
		return dev.fail(op, err, gpucore.ErrAllocationFailure)
	}
	c.encoder = enc
	c.state = cbRecording
	return nil
}

// End finishes recording.
func (c *CommandBuffer) End() error {
	const op = "end"
	if err := c.recording(op); err != nil {
		return err
	}
	if c.pass != nil {
		return c.stateErr(op, "render pass still open")
	}
	cb, err := c.encoder.EndEncoding()
	if err != nil {
		c.encoder = nil
		c.state = cbInitial
		return c.dev().fail(op, err, gpucore.ErrInvalidState)
	}
	c.encoder = nil
	c.recorded = cb
	c.state = cbExecutable
	return nil
}

// CmdBeginRenderPass opens a render pass over the given attachments.
// Native targets render to mip 0 of array layer 0.
func (c *CommandBuffer) CmdBeginRenderPass(colors []ColorRenderTargetBinding, depth *DepthStencilRenderTargetBinding) error {
	const op = "cmd_begin_render_pass"
	if err := c.recording(op); err != nil {
		return err
	}
	dev := c.dev()
	if c.pass != nil {
		return c.stateErr(op, "render pass already open")
	}
	if len(colors) == 0 && depth == nil {
		return dev.invalid(op, errors.New("render pass has no attachments"))
	}
	if len(colors) > gpucore.MaxRenderTargetAttachments {
		return dev.invalid(op, fmt.Errorf("%d color attachments exceed the limit", len(colors)))
	}

	meta := gpucore.RenderTargetMeta{}
	var extents *gpucore.Extents3D
	check := func(what string, t *Texture, need gpucore.ResourceType) error {
		if t == nil {
			return dev.nilHandle(op, what)
		}
		if t.dev != dev {
			return dev.foreign(op, what)
		}
		if t.gone.Load() {
			return dev.errorf(op, gpucore.ErrInvalidState, "%s texture was destroyed", what)
		}
		if !t.def.ResourceType.Has(need) {
			return dev.invalid(op, fmt.Errorf("%s texture lacks the render target usage", what))
		}
		e := gpucore.Extents3D{Width: t.def.Extents.Width, Height: t.def.Extents.Height, Depth: 1}
		if extents == nil {
			extents = &e
		} else if *extents != e {
			return dev.invalid(op, fmt.Errorf("%s extents %dx%d differ from %dx%d",
				what, e.Width, e.Height, extents.Width, extents.Height))
		}
		if meta.SampleCount == 0 {
			meta.SampleCount = t.def.SampleCount
		} else if meta.SampleCount != t.def.SampleCount {
			return dev.invalid(op, fmt.Errorf("%s sample count %d differs from %d",
				what, t.def.SampleCount, meta.SampleCount))
		}
		return nil
	}

	desc := &hal.RenderPassDescriptor{Label: dev.cfg.label + " pass"}
	for i := range colors {
		b := &colors[i]
		what := fmt.Sprintf("color attachment %d", i)
		if b.MipSlice != 0 || b.ArraySlice != 0 {
			return dev.errorf(op, gpucore.ErrUnsupported, "%s: mip and array slices other than 0", what)
		}
		if err := check(what, b.Texture, gpucore.ResourceTypeRenderTargetColor); err != nil {
			return err
		}
		att := hal.RenderPassColorAttachment{
			View:       b.Texture.view,
			LoadOp:     loadOp(b.LoadOp),
			StoreOp:    storeOp(b.StoreOp),
			ClearValue: clearColor(b.ClearValue),
		}
		if b.ResolveTarget != nil {
			if b.Texture.def.SampleCount == gpucore.SampleCount1 {
				return dev.invalid(op, fmt.Errorf("%s resolves a single-sampled texture", what))
			}
			if b.ResolveTarget.dev != dev {
				return dev.foreign(op, "resolve target")
			}
			att.ResolveTarget = b.ResolveTarget.view
		}
		desc.ColorAttachments = append(desc.ColorAttachments, att)
		meta.ColorFormats = append(meta.ColorFormats, b.Texture.def.Format)
	}
	if depth != nil {
		if err := check("depth attachment", depth.Texture, gpucore.ResourceTypeRenderTargetDepthStencil); err != nil {
			return err
		}
		meta.DepthStencilFormat = depth.Texture.def.Format
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              depth.Texture.view,
			DepthLoadOp:       loadOp(depth.DepthLoadOp),
			DepthStoreOp:      storeOp(depth.DepthStoreOp),
			DepthClearValue:   depth.ClearValue.Depth,
			StencilLoadOp:     loadOp(depth.StencilLoadOp),
			StencilStoreOp:    storeOp(depth.StencilStoreOp),
			StencilClearValue: depth.ClearValue.Stencil,
		}
		if !depth.Texture.def.Format.HasStencil() {
			desc.DepthStencilAttachment.StencilLoadOp = gputypes.LoadOpLoad
			desc.DepthStencilAttachment.StencilStoreOp = gputypes.StoreOpStore
		}
	}

	c.pass = c.encoder.BeginRenderPass(desc)
	c.passMeta = meta
	c.graphics = nil
	return nil
}

// CmdEndRenderPass closes the open render pass.
func (c *CommandBuffer) CmdEndRenderPass() error {
	const op = "cmd_end_render_pass"
	if err := c.recording(op); err != nil {
		return err
	}
	if c.pass == nil {
		return c.stateErr(op, "no render pass open")
	}
	c.pass.End()
	c.pass = nil
	c.graphics = nil
	return nil
}

// CmdBindPipeline binds p. Graphics pipelines must match the open pass.
func (c *CommandBuffer) CmdBindPipeline(p *Pipeline) error {
	const op = "cmd_bind_pipeline"
	if err := c.recording(op); err != nil {
		return err
	}
	if p == nil {
		return c.dev().nilHandle(op, "pipeline")
	}
	if p.dev != c.dev() {
		return c.dev().foreign(op, "pipeline")
	}
	if p.pipelineType == gpucore.PipelineTypeGraphics {
		if c.pass == nil {
			return c.stateErr(op, "graphics pipeline bound outside a render pass")
		}
		if !p.meta.Equal(&c.passMeta) {
			return c.stateErr(op, "pipeline attachments do not match the render pass")
		}
		c.pass.SetPipeline(p.render)
		c.graphics = p
		return nil
	}
	c.compute = p
	return nil
}

// CmdBindVertexBuffers binds vertex buffers starting at slot first.
func (c *CommandBuffer) CmdBindVertexBuffers(first uint32, bindings []VertexBufferBinding) error {
	const op = "cmd_bind_vertex_buffers"
	if err := c.recording(op); err != nil {
		return err
	}
	dev := c.dev()
	if c.pass == nil {
		return c.stateErr(op, "vertex buffers bound outside a render pass")
	}
	for i, b := range bindings {
		if b.Buffer == nil {
			return dev.nilHandle(op, "vertex buffer")
		}
		if b.Buffer.dev != dev {
			return dev.foreign(op, "vertex buffer")
		}
		if !b.Buffer.def.ResourceType.Has(gpucore.ResourceTypeVertexBuffer) {
			return dev.invalid(op, fmt.Errorf("binding %d: buffer lacks the vertex buffer usage", i))
		}
		if b.ByteOffset >= b.Buffer.size {
			return dev.invalid(op, fmt.Errorf("binding %d: offset %d beyond buffer size %d", i, b.ByteOffset, b.Buffer.size))
		}
	}
	for i, b := range bindings {
		c.pass.SetVertexBuffer(first+uint32(i), b.Buffer.hal, b.ByteOffset)
	}
	return nil
}

// CmdDraw draws vertexCount vertices.
func (c *CommandBuffer) CmdDraw(vertexCount, firstVertex uint32) error {
	return c.CmdDrawInstanced(vertexCount, firstVertex, 1, 0)
}

// CmdDrawInstanced draws instanceCount instances of vertexCount vertices.
func (c *CommandBuffer) CmdDrawInstanced(vertexCount, firstVertex, instanceCount, firstInstance uint32) error {
	const op = "cmd_draw"
	if err := c.recording(op); err != nil {
		return err
	}
	if c.pass == nil || c.graphics == nil {
		return c.stateErr(op, "draw needs an open render pass and a bound graphics pipeline")
	}
	c.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	return nil
}

// CmdDispatch dispatches the bound compute pipeline in its own compute pass.
func (c *CommandBuffer) CmdDispatch(x, y, z uint32) error {
	const op = "cmd_dispatch"
	if err := c.recording(op); err != nil {
		return err
	}
	if c.pass != nil {
		return c.stateErr(op, "dispatch inside a render pass")
	}
	if c.compute == nil {
		return c.stateErr(op, "no compute pipeline bound")
	}
	if x == 0 || y == 0 || z == 0 {
		return c.dev().invalid(op, fmt.Errorf("dispatch size %dx%dx%d has a zero dimension", x, y, z))
	}
	pass := c.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: c.dev().cfg.label + " dispatch"})
	pass.SetPipeline(c.compute.compute)
	pass.Dispatch(x, y, z)
	pass.End()
	return nil
}
