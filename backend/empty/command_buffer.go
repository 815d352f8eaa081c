package empty

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/rhi/gpucore"
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

// Reset returns every command buffer of the pool to the initial state.
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

// CommandKind identifies a recorded command.
type CommandKind uint8

// Command kinds.
const (
	CmdBeginRenderPass CommandKind = iota + 1
	CmdEndRenderPass
	CmdBindPipeline
	CmdBindVertexBuffers
	CmdDraw
	CmdDispatch
)

// Command is one recorded command. Args holds the numeric arguments in
// call order.
type Command struct {
	Kind     CommandKind
	Args     [4]uint32
	Pipeline *Pipeline
}

// CommandBuffer records commands for later submission.
type CommandBuffer struct {
	pool *CommandPool

	state    cbState
	inPass   bool
	passMeta gpucore.RenderTargetMeta
	graphics *Pipeline
	compute  *Pipeline

	commands   []Command
	draws      int
	dispatches int
}

func (c *CommandBuffer) reset() {
	c.state = cbInitial
	c.inPass = false
	c.graphics, c.compute = nil, nil
	c.commands = c.commands[:0]
	c.draws, c.dispatches = 0, 0
}

// Commands returns a copy of the recorded commands.
func (c *CommandBuffer) Commands() []Command {
	return append([]Command(nil), c.commands...)
}

func (c *CommandBuffer) dev() *device { return c.pool.queue.dev }

func (c *CommandBuffer) stateErr(op, format string, args ...any) error {
	return gpucore.Errorf(backend, op, gpucore.ErrInvalidState, format, args...)
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

// Begin starts recording, discarding earlier commands.
func (c *CommandBuffer) Begin() error {
	const op = "begin"
	if err := c.dev().alive(op); err != nil {
		return err
	}
	if c.state == cbRecording {
		return c.stateErr(op, "command buffer is already recording")
	}
	c.reset()
	c.state = cbRecording
	return nil
}

// End finishes recording.
func (c *CommandBuffer) End() error {
	const op = "end"
	if err := c.recording(op); err != nil {
		return err
	}
	if c.inPass {
		return c.stateErr(op, "render pass still open")
	}
	c.state = cbExecutable
	return nil
}

// CmdBeginRenderPass opens a render pass over the given attachments. All
// attachments must have the same extents and sample count.
func (c *CommandBuffer) CmdBeginRenderPass(colors []ColorRenderTargetBinding, depth *DepthStencilRenderTargetBinding) error {
	const op = "cmd_begin_render_pass"
	if err := c.recording(op); err != nil {
		return err
	}
	if c.inPass {
		return c.stateErr(op, "render pass already open")
	}
	if len(colors) == 0 && depth == nil {
		return invalid(op, errors.New("render pass has no attachments"))
	}
	if len(colors) > gpucore.MaxRenderTargetAttachments {
		return invalid(op, fmt.Errorf("%d color attachments exceed the limit", len(colors)))
	}

	meta := gpucore.RenderTargetMeta{}
	var extents *gpucore.Extents3D
	check := func(what string, t *Texture, mip uint8, need gpucore.ResourceType) error {
		if t == nil {
			return nilHandle(op, what)
		}
		if t.dev != c.dev() {
			return foreign(op, what)
		}
		if !t.def.ResourceType.Has(need) {
			return invalid(op, fmt.Errorf("%s texture lacks the render target usage", what))
		}
		if uint32(mip) >= t.def.MipCount {
			return invalid(op, fmt.Errorf("%s mip slice %d out of range", what, mip))
		}
		e := gpucore.Extents3D{
			Width:  max(t.def.Extents.Width>>mip, 1),
			Height: max(t.def.Extents.Height>>mip, 1),
			Depth:  1,
		}
		if extents == nil {
			extents = &e
		} else if *extents != e {
			return invalid(op, fmt.Errorf("%s extents %dx%d differ from %dx%d",
				what, e.Width, e.Height, extents.Width, extents.Height))
		}
		if meta.SampleCount == 0 {
			meta.SampleCount = t.def.SampleCount
		} else if meta.SampleCount != t.def.SampleCount {
			return invalid(op, fmt.Errorf("%s sample count %d differs from %d",
				what, t.def.SampleCount, meta.SampleCount))
		}
		return nil
	}
	for i := range colors {
		b := &colors[i]
		if err := check(fmt.Sprintf("color attachment %d", i), b.Texture, b.MipSlice, gpucore.ResourceTypeRenderTargetColor); err != nil {
			return err
		}
		if b.ResolveTarget != nil && b.Texture.def.SampleCount == gpucore.SampleCount1 {
			return invalid(op, fmt.Errorf("color attachment %d resolves a single-sampled texture", i))
		}
		meta.ColorFormats = append(meta.ColorFormats, b.Texture.def.Format)
	}
	if depth != nil {
		if err := check("depth attachment", depth.Texture, 0, gpucore.ResourceTypeRenderTargetDepthStencil); err != nil {
			return err
		}
		meta.DepthStencilFormat = depth.Texture.def.Format
	}

	c.inPass = true
	c.passMeta = meta
	c.graphics = nil
	c.commands = append(c.commands, Command{
		Kind: CmdBeginRenderPass,
		Args: [4]uint32{uint32(len(colors)), extents.Width, extents.Height},
	})
	return nil
}

// CmdEndRenderPass closes the open render pass.
func (c *CommandBuffer) CmdEndRenderPass() error {
	const op = "cmd_end_render_pass"
	if err := c.recording(op); err != nil {
		return err
	}
	if !c.inPass {
		return c.stateErr(op, "no render pass open")
	}
	c.inPass = false
	c.graphics = nil
	c.commands = append(c.commands, Command{Kind: CmdEndRenderPass})
	return nil
}

// CmdBindPipeline binds p. Graphics pipelines must match the open pass.
func (c *CommandBuffer) CmdBindPipeline(p *Pipeline) error {
	const op = "cmd_bind_pipeline"
	if err := c.recording(op); err != nil {
		return err
	}
	if p == nil {
		return nilHandle(op, "pipeline")
	}
	if p.dev != c.dev() {
		return foreign(op, "pipeline")
	}
	if p.pipelineType == gpucore.PipelineTypeGraphics {
		if !c.inPass {
			return c.stateErr(op, "graphics pipeline bound outside a render pass")
		}
		if !p.meta.Equal(&c.passMeta) {
			return c.stateErr(op, "pipeline attachments do not match the render pass")
		}
		c.graphics = p
	} else {
		c.compute = p
	}
	c.commands = append(c.commands, Command{Kind: CmdBindPipeline, Pipeline: p})
	return nil
}

// CmdBindVertexBuffers binds vertex buffers starting at slot first.
func (c *CommandBuffer) CmdBindVertexBuffers(first uint32, bindings []VertexBufferBinding) error {
	const op = "cmd_bind_vertex_buffers"
	if err := c.recording(op); err != nil {
		return err
	}
	if !c.inPass {
		return c.stateErr(op, "vertex buffers bound outside a render pass")
	}
	for i, b := range bindings {
		if b.Buffer == nil {
			return nilHandle(op, "vertex buffer")
		}
		if b.Buffer.dev != c.dev() {
			return foreign(op, "vertex buffer")
		}
		if !b.Buffer.def.ResourceType.Has(gpucore.ResourceTypeVertexBuffer) {
			return invalid(op, fmt.Errorf("binding %d: buffer lacks the vertex buffer usage", i))
		}
		if b.ByteOffset >= b.Buffer.size {
			return invalid(op, fmt.Errorf("binding %d: offset %d beyond buffer size %d", i, b.ByteOffset, b.Buffer.size))
		}
	}
	c.commands = append(c.commands, Command{Kind: CmdBindVertexBuffers, Args: [4]uint32{first, uint32(len(bindings))}})
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
	if !c.inPass || c.graphics == nil {
		return c.stateErr(op, "draw needs an open render pass and a bound graphics pipeline")
	}
	c.commands = append(c.commands, Command{
		Kind: CmdDraw,
		Args: [4]uint32{vertexCount, firstVertex, instanceCount, firstInstance},
	})
	c.draws++
	return nil
}

// CmdDispatch dispatches the bound compute pipeline.
func (c *CommandBuffer) CmdDispatch(x, y, z uint32) error {
	const op = "cmd_dispatch"
	if err := c.recording(op); err != nil {
		return err
	}
	if c.inPass {
		return c.stateErr(op, "dispatch inside a render pass")
	}
	if c.compute == nil {
		return c.stateErr(op, "no compute pipeline bound")
	}
	if x == 0 || y == 0 || z == 0 {
		return invalid(op, fmt.Errorf("dispatch size %dx%dx%d has a zero dimension", x, y, z))
	}
	c.commands = append(c.commands, Command{Kind: CmdDispatch, Args: [4]uint32{x, y, z}})
	c.dispatches++
	return nil
}
