package rhi

import (
	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// CommandPool allocates command buffers for one queue.
type CommandPool struct {
	variant[*empty.CommandPool, *native.CommandPool]
}

// CreateCommandBuffer allocates a command buffer in the initial state.
func (p *CommandPool) CreateCommandBuffer() (*CommandBuffer, error) {
	if p.backend == gpucore.BackendEmpty {
		cb, err := p.e.CreateCommandBuffer()
		if err != nil {
			return nil, err
		}
		return &CommandBuffer{emptyVariant[*native.CommandBuffer](cb)}, nil
	}
	cb, err := p.n.CreateCommandBuffer()
	if err != nil {
		return nil, err
	}
	return &CommandBuffer{nativeVariant[*empty.CommandBuffer](p.backend, cb)}, nil
}

// Reset returns every command buffer of the pool to the initial state.
func (p *CommandPool) Reset() error {
	if p.backend == gpucore.BackendEmpty {
		return p.e.Reset()
	}
	return p.n.Reset()
}

// CommandBuffer records commands for submission.
type CommandBuffer struct {
	variant[*empty.CommandBuffer, *native.CommandBuffer]
}

func (c *CommandBuffer) v() *variant[*empty.CommandBuffer, *native.CommandBuffer] {
	if c == nil {
		return nil
	}
	return &c.variant
}

// Begin starts recording, discarding previous contents.
func (c *CommandBuffer) Begin() error {
	if c.backend == gpucore.BackendEmpty {
		return c.e.Begin()
	}
	return c.n.Begin()
}

// End finishes recording. No render pass may be open.
func (c *CommandBuffer) End() error {
	if c.backend == gpucore.BackendEmpty {
		return c.e.End()
	}
	return c.n.End()
}

// CmdBeginRenderPass opens a render pass on the given targets.
func (c *CommandBuffer) CmdBeginRenderPass(colors []ColorRenderTargetBinding, depth *DepthStencilRenderTargetBinding) error {
	const op = "cmd_begin_render_pass"
	if c.backend == gpucore.BackendEmpty {
		l := lowerEmpty(op)
		cs, err := l.colors(colors)
		if err != nil {
			return err
		}
		ds, err := l.depth(depth)
		if err != nil {
			return err
		}
		return c.e.CmdBeginRenderPass(cs, ds)
	}
	l := lowerNative(op, c.backend)
	cs, err := l.colors(colors)
	if err != nil {
		return err
	}
	ds, err := l.depth(depth)
	if err != nil {
		return err
	}
	return c.n.CmdBeginRenderPass(cs, ds)
}

// CmdEndRenderPass closes the open render pass.
func (c *CommandBuffer) CmdEndRenderPass() error {
	if c.backend == gpucore.BackendEmpty {
		return c.e.CmdEndRenderPass()
	}
	return c.n.CmdEndRenderPass()
}

// CmdBindPipeline binds p. Graphics pipelines must match the open pass.
func (c *CommandBuffer) CmdBindPipeline(p *Pipeline) error {
	const op = "cmd_bind_pipeline"
	if c.backend == gpucore.BackendEmpty {
		ep, err := p.v().emptyFor(op)
		if err != nil {
			return err
		}
		return c.e.CmdBindPipeline(ep)
	}
	np, err := p.v().nativeFor(op, c.backend)
	if err != nil {
		return err
	}
	return c.n.CmdBindPipeline(np)
}

// CmdBindVertexBuffers binds vertex buffers starting at slot first.
func (c *CommandBuffer) CmdBindVertexBuffers(first uint32, bindings []VertexBufferBinding) error {
	const op = "cmd_bind_vertex_buffers"
	if c.backend == gpucore.BackendEmpty {
		bs, err := lowerEmpty(op).vertexBuffers(bindings)
		if err != nil {
			return err
		}
		return c.e.CmdBindVertexBuffers(first, bs)
	}
	bs, err := lowerNative(op, c.backend).vertexBuffers(bindings)
	if err != nil {
		return err
	}
	return c.n.CmdBindVertexBuffers(first, bs)
}

// CmdDraw draws vertexCount vertices.
func (c *CommandBuffer) CmdDraw(vertexCount, firstVertex uint32) error {
	if c.backend == gpucore.BackendEmpty {
		return c.e.CmdDraw(vertexCount, firstVertex)
	}
	return c.n.CmdDraw(vertexCount, firstVertex)
}

// CmdDrawInstanced draws instanceCount instances of vertexCount vertices.
func (c *CommandBuffer) CmdDrawInstanced(vertexCount, firstVertex, instanceCount, firstInstance uint32) error {
	if c.backend == gpucore.BackendEmpty {
		return c.e.CmdDrawInstanced(vertexCount, firstVertex, instanceCount, firstInstance)
	}
	return c.n.CmdDrawInstanced(vertexCount, firstVertex, instanceCount, firstInstance)
}

// CmdDispatch dispatches the bound compute pipeline.
func (c *CommandBuffer) CmdDispatch(x, y, z uint32) error {
	if c.backend == gpucore.BackendEmpty {
		return c.e.CmdDispatch(x, y, z)
	}
	return c.n.CmdDispatch(x, y, z)
}
