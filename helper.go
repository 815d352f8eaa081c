// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"errors"

	"github.com/gogpu/rhi/gpucore"
)

// DefaultFramesInFlight is the number of frames the CPU may record ahead of
// the GPU.
const DefaultFramesInFlight = 2

// SwapchainHelper runs the acquire, submit and present cycle of a
// swapchain. Each frame in flight has its own fence and semaphore pair; the
// helper rebuilds the swapchain when the window size changes or the surface
// goes out of date.
//
// A helper is single-owner like the swapchain it drives.
type SwapchainHelper struct {
	dc        *DeviceContext
	swapchain *Swapchain
	frames    []frameSync
	current   int
	stale     bool
	rebuilds  int
}

type frameSync struct {
	imageAvailable *Semaphore
	renderFinished *Semaphore
	inFlight       *Fence
}

// NewSwapchainHelper creates a swapchain for window and the per-frame
// synchronization objects. The helper keeps a clone of dc until Destroy.
func NewSwapchainHelper(dc *DeviceContext, window gpucore.WindowHandle, def *gpucore.SwapchainDef) (*SwapchainHelper, error) {
	sc, err := dc.CreateSwapchain(window, def)
	if err != nil {
		return nil, err
	}
	h := &SwapchainHelper{dc: dc.Clone(), swapchain: sc}
	for range DefaultFramesInFlight {
		var fs frameSync
		if fs.imageAvailable, err = h.dc.CreateSemaphore(); err == nil {
			if fs.renderFinished, err = h.dc.CreateSemaphore(); err == nil {
				fs.inFlight, err = h.dc.CreateFence()
			}
		}
		if err != nil {
			h.Destroy()
			return nil, err
		}
		h.frames = append(h.frames, fs)
	}
	return h, nil
}

// Swapchain returns the managed swapchain.
func (h *SwapchainHelper) Swapchain() *Swapchain { return h.swapchain }

// Rebuilds returns how often the helper rebuilt the swapchain.
func (h *SwapchainHelper) Rebuilds() int { return h.rebuilds }

// AcquireNextImage waits until the current frame slot is free and acquires
// an image sized width x height. A size change or an out of date surface
// rebuilds the swapchain and retries once.
func (h *SwapchainHelper) AcquireNextImage(width, height uint32) (*PresentableFrame, error) {
	fs := &h.frames[h.current]
	if err := h.dc.WaitForFences([]*Fence{fs.inFlight}); err != nil {
		return nil, err
	}

	def := h.swapchain.SwapchainDef()
	if h.stale || def.Width != width || def.Height != height {
		if err := h.rebuild(width, height); err != nil {
			return nil, err
		}
	}

	img, err := h.swapchain.AcquireNextImageSemaphore(fs.imageAvailable)
	if errors.Is(err, gpucore.ErrSurfaceOutOfDate) {
		Logger().Debug("rhi: surface out of date, rebuilding", "width", width, "height", height)
		if err := h.rebuild(width, height); err != nil {
			return nil, err
		}
		img, err = h.swapchain.AcquireNextImageSemaphore(fs.imageAvailable)
	}
	if err != nil {
		return nil, err
	}
	return &PresentableFrame{helper: h, sync: fs, slot: h.current, image: img}, nil
}

func (h *SwapchainHelper) rebuild(width, height uint32) error {
	def := h.swapchain.SwapchainDef()
	def.Width, def.Height = width, height
	if err := h.swapchain.Rebuild(&def); err != nil {
		return err
	}
	h.stale = false
	h.rebuilds++
	return nil
}

// Destroy waits for frames in flight and releases the swapchain, the
// synchronization objects and the helper's device handle.
func (h *SwapchainHelper) Destroy() {
	if h.dc == nil {
		return
	}
	fences := make([]*Fence, 0, len(h.frames))
	for _, fs := range h.frames {
		if fs.inFlight != nil {
			fences = append(fences, fs.inFlight)
		}
	}
	if err := h.dc.WaitForFences(fences); err != nil {
		Logger().Warn("rhi: frames still in flight at destroy", "err", err)
	}
	for _, f := range fences {
		f.Destroy()
	}
	h.swapchain.Destroy()
	h.dc.Release()
	h.dc = nil
}

// PresentableFrame is an acquired image waiting to be rendered and
// presented exactly once.
type PresentableFrame struct {
	helper    *SwapchainHelper
	sync      *frameSync
	slot      int
	image     SwapchainImage
	presented bool
}

// Image returns the acquired image.
func (f *PresentableFrame) Image() SwapchainImage { return f.image }

// Slot returns the frame in flight slot, in [0, DefaultFramesInFlight).
// Per-frame resources indexed by the slot are free for reuse: the slot's
// previous submission has completed.
func (f *PresentableFrame) Slot() int { return f.slot }

// Present submits cmds after the image is available, signals the frame's
// fence and presents the image once rendering finished. A suboptimal or out
// of date surface is rebuilt on the next acquire.
func (f *PresentableFrame) Present(q *Queue, cmds []*CommandBuffer) (gpucore.PresentResult, error) {
	h := f.helper
	if f.presented {
		return gpucore.PresentResultSuccess, gpucore.Errorf(h.dc.backend, "present", gpucore.ErrInvalidState,
			"frame already presented")
	}
	f.presented = true
	h.current = (h.current + 1) % len(h.frames)

	err := q.Submit(cmds,
		[]*Semaphore{f.sync.imageAvailable},
		[]*Semaphore{f.sync.renderFinished},
		f.sync.inFlight)
	if err != nil {
		return gpucore.PresentResultSuccess, err
	}
	res, err := q.Present(h.swapchain, []*Semaphore{f.sync.renderFinished}, f.image.ImageIndex)
	if errors.Is(err, gpucore.ErrSurfaceOutOfDate) {
		h.stale = true
		return res, nil
	}
	if res == gpucore.PresentResultSuboptimal {
		h.stale = true
	}
	return res, err
}
