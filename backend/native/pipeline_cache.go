package native

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/rhi/gpucore"
)

// pipelineCache deduplicates pipelines by a hash of everything that goes
// into their hal descriptor. Entries live until the device is destroyed.
type pipelineCache struct {
	mu      sync.RWMutex
	entries map[uint64]*Pipeline

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newPipelineCache() *pipelineCache {
	return &pipelineCache{entries: make(map[uint64]*Pipeline)}
}

// getOrCreate returns the cached pipeline for key, calling create on a miss.
func (c *pipelineCache) getOrCreate(key uint64, create func() (*Pipeline, error)) (*Pipeline, error) {
	c.mu.RLock()
	if p, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[key]; ok {
		c.hits.Add(1)
		return p, nil
	}
	p, err := create()
	if err != nil {
		return nil, err
	}
	c.entries[key] = p
	c.misses.Add(1)
	return p, nil
}

// stats returns cache hits and misses.
func (c *pipelineCache) stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *pipelineCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheStats reports pipeline cache activity.
type CacheStats struct {
	Pipelines int
	Hits      uint64
	Misses    uint64
}

// PipelineCacheStats returns the pipeline cache counters.
func (d *DeviceContext) PipelineCacheStats() CacheStats {
	hits, misses := d.inner.pipelines.stats()
	return CacheStats{Pipelines: d.inner.pipelines.size(), Hits: hits, Misses: misses}
}

func hashGraphicsPipeline(def *GraphicsPipelineDef) uint64 {
	h := fnv.New64a()
	hashWriteUint32(h, uint32(gpucore.PipelineTypeGraphics))
	hashShader(h, def.Shader)
	hashWriteUint64(h, def.RootSignature.id)

	if v := def.VertexLayout; v != nil {
		hashWriteUint32(h, uint32(len(v.Buffers)))
		for _, b := range v.Buffers {
			hashWriteUint32(h, b.Stride)
			hashWriteUint32(h, uint32(b.StepMode))
		}
		hashWriteUint32(h, uint32(len(v.Attributes)))
		for _, a := range v.Attributes {
			hashWriteUint32(h, uint32(a.Format))
			hashWriteUint32(h, a.BufferIndex)
			hashWriteUint32(h, a.Location)
			hashWriteUint32(h, a.ByteOffset)
		}
	} else {
		hashWriteUint32(h, 0)
	}

	if b := def.Blend; b != nil {
		hashWriteBool(h, true)
		hashWriteUint32(h, uint32(b.Color.SrcFactor))
		hashWriteUint32(h, uint32(b.Color.DstFactor))
		hashWriteUint32(h, uint32(b.Color.Operation))
		hashWriteUint32(h, uint32(b.Alpha.SrcFactor))
		hashWriteUint32(h, uint32(b.Alpha.DstFactor))
		hashWriteUint32(h, uint32(b.Alpha.Operation))
	} else {
		hashWriteBool(h, false)
	}

	hashWriteBool(h, def.Depth.DepthTest)
	hashWriteBool(h, def.Depth.DepthWrite)
	hashWriteUint32(h, uint32(def.Depth.CompareOp))
	hashWriteUint32(h, uint32(def.Rasterizer.CullMode))
	hashWriteUint32(h, uint32(def.Rasterizer.FrontFace))
	hashWriteUint32(h, uint32(def.PrimitiveTopology))

	hashWriteUint32(h, uint32(len(def.ColorFormats)))
	for _, f := range def.ColorFormats {
		hashWriteUint32(h, uint32(f))
	}
	hashWriteUint32(h, uint32(def.DepthStencilFormat))
	hashWriteUint32(h, uint32(def.SampleCount))
	return h.Sum64()
}

func hashComputePipeline(def *ComputePipelineDef) uint64 {
	h := fnv.New64a()
	hashWriteUint32(h, uint32(gpucore.PipelineTypeCompute))
	hashShader(h, def.Shader)
	hashWriteUint64(h, def.RootSignature.id)
	return h.Sum64()
}

func hashShader(h hash.Hash64, s *Shader) {
	hashWriteUint32(h, uint32(len(s.stages)))
	for _, st := range s.stages {
		hashWriteUint32(h, uint32(st.Stage))
		hashWriteUint64(h, st.Module.codeHash)
		hashWriteString(h, st.EntryPoint)
	}
}

func hashBytes(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

func hashWords(words []uint32) uint64 {
	h := fnv.New64a()
	for _, w := range words {
		hashWriteUint32(h, w)
	}
	return h.Sum64()
}

func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}

func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
