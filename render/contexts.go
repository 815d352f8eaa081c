package render

import (
	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/gpucore"
)

// ExtractContext lends the simulation world and the render resources to
// extract jobs.
type ExtractContext struct {
	World           Ref[*Resources]
	RenderResources Ref[*Resources]
}

// NewExtractContext borrows world and renderResources for frame f.
func NewExtractContext(f *Frame, world, renderResources *Resources) (*ExtractContext, error) {
	if f.Ended() {
		return nil, ErrFrameEnded
	}
	return &ExtractContext{
		World:           Borrow(f, world),
		RenderResources: Borrow(f, renderResources),
	}, nil
}

// PrepareContext gives prepare jobs a device and the render resources.
type PrepareContext struct {
	Device          Ref[*rhi.DeviceContext]
	RenderResources Ref[*Resources]
}

// NewPrepareContext clones dc into frame f and borrows renderResources.
// The clone is released when the frame ends.
func NewPrepareContext(f *Frame, dc *rhi.DeviceContext, renderResources *Resources) (*PrepareContext, error) {
	dev, err := adoptClone(f, dc)
	if err != nil {
		return nil, err
	}
	return &PrepareContext{
		Device:          dev,
		RenderResources: Borrow(f, renderResources),
	}, nil
}

// WriteContext gives write jobs the command buffer of one render pass and
// the attachments the pass renders to.
type WriteContext struct {
	Device           Ref[*rhi.DeviceContext]
	CommandBuffer    Ref[*rhi.CommandBuffer]
	RenderTargetMeta gpucore.RenderTargetMeta
}

// NewWriteContext clones dc into frame f and borrows cb for the pass
// described by meta.
func NewWriteContext(f *Frame, dc *rhi.DeviceContext, cb *rhi.CommandBuffer, meta gpucore.RenderTargetMeta) (*WriteContext, error) {
	dev, err := adoptClone(f, dc)
	if err != nil {
		return nil, err
	}
	meta.ColorFormats = append([]gpucore.Format(nil), meta.ColorFormats...)
	return &WriteContext{
		Device:           dev,
		CommandBuffer:    Borrow(f, cb),
		RenderTargetMeta: meta,
	}, nil
}

func adoptClone(f *Frame, dc *rhi.DeviceContext) (Ref[*rhi.DeviceContext], error) {
	if f.Ended() {
		return Ref[*rhi.DeviceContext]{}, ErrFrameEnded
	}
	clone := dc.Clone()
	if err := f.Adopt(clone); err != nil {
		return Ref[*rhi.DeviceContext]{}, err
	}
	return Borrow(f, clone), nil
}
