package rhi

import (
	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// Definitions that reference façade objects. The device context unwraps
// every referenced object for its backend before the backend sees them.
type (
	ShaderStageDef                  = gpucore.ShaderStageDef[*ShaderModule]
	RootSignatureDef                = gpucore.RootSignatureDef[*Shader, *Sampler]
	DescriptorSetArrayDef           = gpucore.DescriptorSetArrayDef[*RootSignature]
	GraphicsPipelineDef             = gpucore.GraphicsPipelineDef[*Shader, *RootSignature]
	ComputePipelineDef              = gpucore.ComputePipelineDef[*Shader, *RootSignature]
	ColorRenderTargetBinding        = gpucore.ColorRenderTargetBinding[*Texture]
	DepthStencilRenderTargetBinding = gpucore.DepthStencilRenderTargetBinding[*Texture]
	VertexBufferBinding             = gpucore.VertexBufferBinding[*Buffer]
)

// lowering rewrites façade definitions into the definitions of one
// backend, failing with ErrBackendMismatch on objects of another backend.
type lowering[M, Sh, S, R, T, B any] struct {
	backend gpucore.Backend
	op      string

	module  func(*ShaderModule) (M, error)
	shader  func(*Shader) (Sh, error)
	sampler func(*Sampler) (S, error)
	rootSig func(*RootSignature) (R, error)
	texture func(*Texture) (T, error)
	buffer  func(*Buffer) (B, error)
}

type emptyLowering = lowering[*empty.ShaderModule, *empty.Shader, *empty.Sampler,
	*empty.RootSignature, *empty.Texture, *empty.Buffer]

type nativeLowering = lowering[*native.ShaderModule, *native.Shader, *native.Sampler,
	*native.RootSignature, *native.Texture, *native.Buffer]

func lowerEmpty(op string) *emptyLowering {
	return &emptyLowering{
		backend: gpucore.BackendEmpty,
		op:      op,
		module:  func(m *ShaderModule) (*empty.ShaderModule, error) { return m.v().emptyFor(op) },
		shader:  func(s *Shader) (*empty.Shader, error) { return s.v().emptyFor(op) },
		sampler: func(s *Sampler) (*empty.Sampler, error) { return s.v().emptyFor(op) },
		rootSig: func(r *RootSignature) (*empty.RootSignature, error) { return r.v().emptyFor(op) },
		texture: func(t *Texture) (*empty.Texture, error) { return t.v().emptyFor(op) },
		buffer:  func(b *Buffer) (*empty.Buffer, error) { return b.v().emptyFor(op) },
	}
}

func lowerNative(op string, b gpucore.Backend) *nativeLowering {
	return &nativeLowering{
		backend: b,
		op:      op,
		module:  func(m *ShaderModule) (*native.ShaderModule, error) { return m.v().nativeFor(op, b) },
		shader:  func(s *Shader) (*native.Shader, error) { return s.v().nativeFor(op, b) },
		sampler: func(s *Sampler) (*native.Sampler, error) { return s.v().nativeFor(op, b) },
		rootSig: func(r *RootSignature) (*native.RootSignature, error) { return r.v().nativeFor(op, b) },
		texture: func(t *Texture) (*native.Texture, error) { return t.v().nativeFor(op, b) },
		buffer:  func(buf *Buffer) (*native.Buffer, error) { return buf.v().nativeFor(op, b) },
	}
}

// mapAll converts every element of in with f.
func mapAll[F, T any](in []F, f func(F) (T, error)) ([]T, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		t, err := f(v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (l *lowering[M, Sh, S, R, T, B]) missing() error {
	return gpucore.Errorf(l.backend, l.op, gpucore.ErrInvalidDefinition, "definition is nil")
}

func (l *lowering[M, Sh, S, R, T, B]) stages(in []ShaderStageDef) ([]gpucore.ShaderStageDef[M], error) {
	return mapAll(in, func(st ShaderStageDef) (gpucore.ShaderStageDef[M], error) {
		m, err := l.module(st.Module)
		return gpucore.ShaderStageDef[M]{
			Module:     m,
			EntryPoint: st.EntryPoint,
			Stage:      st.Stage,
			Resources:  st.Resources,
		}, err
	})
}

func (l *lowering[M, Sh, S, R, T, B]) rootSignature(def *RootSignatureDef) (*gpucore.RootSignatureDef[Sh, S], error) {
	if def == nil {
		return nil, l.missing()
	}
	shaders, err := mapAll(def.Shaders, l.shader)
	if err != nil {
		return nil, err
	}
	samplers, err := mapAll(def.ImmutableSamplers, func(is gpucore.ImmutableSamplers[*Sampler]) (gpucore.ImmutableSamplers[S], error) {
		ss, err := mapAll(is.Samplers, l.sampler)
		return gpucore.ImmutableSamplers[S]{Name: is.Name, Samplers: ss}, err
	})
	if err != nil {
		return nil, err
	}
	return &gpucore.RootSignatureDef[Sh, S]{Shaders: shaders, ImmutableSamplers: samplers}, nil
}

func (l *lowering[M, Sh, S, R, T, B]) descriptorSets(def *DescriptorSetArrayDef) (*gpucore.DescriptorSetArrayDef[R], error) {
	if def == nil {
		return nil, l.missing()
	}
	rs, err := l.rootSig(def.RootSignature)
	if err != nil {
		return nil, err
	}
	return &gpucore.DescriptorSetArrayDef[R]{RootSignature: rs, SetIndex: def.SetIndex, ArrayLength: def.ArrayLength}, nil
}

func (l *lowering[M, Sh, S, R, T, B]) graphics(def *GraphicsPipelineDef) (*gpucore.GraphicsPipelineDef[Sh, R], error) {
	if def == nil {
		return nil, l.missing()
	}
	sh, err := l.shader(def.Shader)
	if err != nil {
		return nil, err
	}
	rs, err := l.rootSig(def.RootSignature)
	if err != nil {
		return nil, err
	}
	return &gpucore.GraphicsPipelineDef[Sh, R]{
		Shader:             sh,
		RootSignature:      rs,
		VertexLayout:       def.VertexLayout,
		Blend:              def.Blend,
		Depth:              def.Depth,
		Rasterizer:         def.Rasterizer,
		PrimitiveTopology:  def.PrimitiveTopology,
		ColorFormats:       def.ColorFormats,
		DepthStencilFormat: def.DepthStencilFormat,
		SampleCount:        def.SampleCount,
	}, nil
}

func (l *lowering[M, Sh, S, R, T, B]) compute(def *ComputePipelineDef) (*gpucore.ComputePipelineDef[Sh, R], error) {
	if def == nil {
		return nil, l.missing()
	}
	sh, err := l.shader(def.Shader)
	if err != nil {
		return nil, err
	}
	rs, err := l.rootSig(def.RootSignature)
	if err != nil {
		return nil, err
	}
	return &gpucore.ComputePipelineDef[Sh, R]{Shader: sh, RootSignature: rs}, nil
}

func (l *lowering[M, Sh, S, R, T, B]) colors(in []ColorRenderTargetBinding) ([]gpucore.ColorRenderTargetBinding[T], error) {
	return mapAll(in, func(c ColorRenderTargetBinding) (gpucore.ColorRenderTargetBinding[T], error) {
		out := gpucore.ColorRenderTargetBinding[T]{
			LoadOp:     c.LoadOp,
			StoreOp:    c.StoreOp,
			MipSlice:   c.MipSlice,
			ArraySlice: c.ArraySlice,
			ClearValue: c.ClearValue,
		}
		var err error
		if out.Texture, err = l.texture(c.Texture); err != nil {
			return out, err
		}
		out.ResolveTarget, err = l.texture(c.ResolveTarget)
		return out, err
	})
}

func (l *lowering[M, Sh, S, R, T, B]) depth(in *DepthStencilRenderTargetBinding) (*gpucore.DepthStencilRenderTargetBinding[T], error) {
	if in == nil {
		return nil, nil
	}
	tex, err := l.texture(in.Texture)
	if err != nil {
		return nil, err
	}
	return &gpucore.DepthStencilRenderTargetBinding[T]{
		Texture:        tex,
		DepthLoadOp:    in.DepthLoadOp,
		StencilLoadOp:  in.StencilLoadOp,
		DepthStoreOp:   in.DepthStoreOp,
		StencilStoreOp: in.StencilStoreOp,
		ClearValue:     in.ClearValue,
	}, nil
}

func (l *lowering[M, Sh, S, R, T, B]) vertexBuffers(in []VertexBufferBinding) ([]gpucore.VertexBufferBinding[B], error) {
	return mapAll(in, func(vb VertexBufferBinding) (gpucore.VertexBufferBinding[B], error) {
		b, err := l.buffer(vb.Buffer)
		return gpucore.VertexBufferBinding[B]{Buffer: b, ByteOffset: vb.ByteOffset}, err
	})
}
