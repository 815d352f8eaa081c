package gpucore

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Pipeline fixed-function state uses the gputypes vocabulary directly so the
// native backends can hand it to hal without translation.

// VertexLayoutAttribute describes one vertex shader input.
type VertexLayoutAttribute struct {
	Format      gputypes.VertexFormat
	BufferIndex uint32
	Location    uint32
	ByteOffset  uint32
}

// VertexLayoutBuffer describes one bound vertex buffer.
type VertexLayoutBuffer struct {
	Stride uint32
	// StepMode is per-vertex when zero.
	StepMode gputypes.VertexStepMode
}

// VertexLayout is the complete vertex input description of a graphics pipeline.
type VertexLayout struct {
	Attributes []VertexLayoutAttribute
	Buffers    []VertexLayoutBuffer
}

// Validate checks that attributes reference declared buffers and that
// shader locations are unique.
func (v *VertexLayout) Validate() error {
	seen := make(map[uint32]bool, len(v.Attributes))
	for i, a := range v.Attributes {
		if int(a.BufferIndex) >= len(v.Buffers) {
			return fmt.Errorf("vertex attribute %d references buffer %d, only %d declared",
				i, a.BufferIndex, len(v.Buffers))
		}
		if seen[a.Location] {
			return fmt.Errorf("vertex attribute location %d declared twice", a.Location)
		}
		seen[a.Location] = true
	}
	for i, b := range v.Buffers {
		if b.Stride == 0 {
			return fmt.Errorf("vertex buffer %d has zero stride", i)
		}
	}
	return nil
}

// DepthState configures depth testing.
type DepthState struct {
	DepthTest  bool
	DepthWrite bool
	// CompareOp is used when DepthTest is set.
	CompareOp gputypes.CompareFunction
}

// RasterizerState configures primitive rasterization.
type RasterizerState struct {
	CullMode  gputypes.CullMode
	FrontFace gputypes.FrontFace
}

// RenderTargetMeta describes the attachments a graphics pipeline renders into.
// Pipelines are only compatible with passes that have identical metadata.
type RenderTargetMeta struct {
	ColorFormats       []Format
	DepthStencilFormat Format
	SampleCount        SampleCount
}

// Validate checks attachment counts, formats and the sample count against
// the given capability table.
func (m *RenderTargetMeta) Validate(formats FormatTable, sampleCounts []SampleCount) error {
	if len(m.ColorFormats) > MaxRenderTargetAttachments {
		return fmt.Errorf("%d color attachments exceed the limit of %d",
			len(m.ColorFormats), MaxRenderTargetAttachments)
	}
	if len(m.ColorFormats) == 0 && m.DepthStencilFormat == FormatUndefined {
		return errors.New("pipeline has no color or depth attachment")
	}
	for i, f := range m.ColorFormats {
		if !formats.Capabilities(f).Has(FormatCapColorAttachment) {
			return fmt.Errorf("color attachment %d: format %s is not renderable", i, f)
		}
	}
	if m.DepthStencilFormat != FormatUndefined &&
		!formats.Capabilities(m.DepthStencilFormat).Has(FormatCapDepthStencil) {
		return fmt.Errorf("depth attachment: format %s is not a depth format", m.DepthStencilFormat)
	}
	sc := m.SampleCount
	if sc == 0 {
		sc = SampleCount1
	}
	if _, ok := FindSupportedSampleCount(sampleCounts, []SampleCount{sc}); !ok {
		return fmt.Errorf("sample count %d is not supported", sc)
	}
	return nil
}

// Equal reports whether m and o describe the same attachments.
func (m *RenderTargetMeta) Equal(o *RenderTargetMeta) bool {
	if len(m.ColorFormats) != len(o.ColorFormats) ||
		m.DepthStencilFormat != o.DepthStencilFormat || m.samples() != o.samples() {
		return false
	}
	for i := range m.ColorFormats {
		if m.ColorFormats[i] != o.ColorFormats[i] {
			return false
		}
	}
	return true
}

func (m *RenderTargetMeta) samples() SampleCount {
	if m.SampleCount == 0 {
		return SampleCount1
	}
	return m.SampleCount
}
