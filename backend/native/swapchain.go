// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Swapchain presents to a window surface. The surface hands out textures in
// its own order; image indices count acquisitions modulo the image count.
type Swapchain struct {
	dev     *device
	window  gpucore.WindowHandle
	surface hal.Surface
	// adopted surfaces belong to the device and outlive the swapchain.
	adopted bool

	def         gpucore.SwapchainDef
	format      gpucore.Format
	presentMode gpucore.PresentMode
	imageCount  uint32

	state      gpucore.SwapchainState
	next       uint32
	acquired   int
	current    *hal.AcquiredSurfaceTexture
	currentTex *Texture
}

// SwapchainImage is an acquired swapchain image.
type SwapchainImage struct {
	Texture    *Texture
	ImageIndex uint32
}

// CreateSwapchain creates a swapchain presenting to window.
func (d *DeviceContext) CreateSwapchain(window gpucore.WindowHandle, def *gpucore.SwapchainDef) (*Swapchain, error) {
	const op = "create_swapchain"
	if err := d.check(op); err != nil {
		return nil, err
	}
	dev := d.inner
	if window == nil {
		return nil, dev.invalid(op, errors.New("native swapchains need a window"))
	}
	if def == nil {
		return nil, dev.nilHandle(op, "definition")
	}
	sc := &Swapchain{dev: dev, window: window, acquired: -1}

	dev.submitMu.Lock()
	if dev.surface != nil && dev.window.WindowHandle() == window.WindowHandle() {
		sc.surface, sc.adopted = dev.surface, true
	}
	dev.submitMu.Unlock()
	if sc.surface == nil {
		s, err := dev.instance.CreateSurface(window.DisplayHandle(), window.WindowHandle())
		if err != nil {
			return nil, dev.fail(op, err, gpucore.ErrUnsupported)
		}
		sc.surface = s
	}
	if err := sc.build(op, def); err != nil {
		sc.Destroy()
		return nil, err
	}
	return sc, nil
}

func (s *Swapchain) build(op string, def *gpucore.SwapchainDef) error {
	dev := s.dev
	if def == nil {
		return dev.nilHandle(op, "definition")
	}
	if err := def.Validate(); err != nil {
		return dev.invalid(op, err)
	}
	format, ok := gpucore.FindSupportedFormat(dev.formats, def.Preferences(), gpucore.ResourceTypeRenderTargetColor)
	if !ok {
		return dev.errorf(op, gpucore.ErrUnsupported, "none of the formats %v is renderable", def.Preferences())
	}
	tf, ok := textureFormat(format)
	if !ok {
		return dev.errorf(op, gpucore.ErrUnsupported, "format %s has no native equivalent", format)
	}
	mode := s.pickPresentMode(def.PresentMode)
	count := gpucore.ClampImageCount(def.ImageCount, dev.profile.MinImageCount, dev.profile.MaxImageCount)

	err := s.surface.Configure(dev.hal, &hal.SurfaceConfiguration{
		Width:       def.Width,
		Height:      def.Height,
		Format:      tf,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: halPresentMode(mode),
		AlphaMode:   hal.CompositeAlphaModeOpaque,
	})
	if err != nil {
		return dev.fail(op, err, gpucore.ErrUnsupported)
	}

	s.def = *def
	s.def.FormatPreference = append([]gpucore.Format(nil), def.FormatPreference...)
	s.format = format
	s.presentMode = mode
	s.imageCount = count
	s.next = 0
	s.acquired = -1
	s.current, s.currentTex = nil, nil
	s.state = gpucore.SwapchainStateCreated

	slogger().Info("native: swapchain built",
		"backend", dev.backend(),
		"width", def.Width, "height", def.Height,
		"images", count, "format", format, "present_mode", mode)
	return nil
}

func (s *Swapchain) pickPresentMode(want gpucore.PresentMode) gpucore.PresentMode {
	for _, m := range s.dev.profile.PresentModes {
		if m == want {
			return m
		}
	}
	slogger().Warn("native: present mode unsupported, using fifo", "requested", want)
	return gpucore.PresentModeFifo
}

func halPresentMode(m gpucore.PresentMode) hal.PresentMode {
	switch m {
	case gpucore.PresentModeMailbox:
		return hal.PresentModeMailbox
	case gpucore.PresentModeImmediate:
		return hal.PresentModeImmediate
	default:
		return hal.PresentModeFifo
	}
}

// ImageCount returns the number of swapchain images.
func (s *Swapchain) ImageCount() int { return int(s.imageCount) }

// Format returns the color format of the images.
func (s *Swapchain) Format() gpucore.Format { return s.format }

// PresentMode returns the negotiated present mode.
func (s *Swapchain) PresentMode() gpucore.PresentMode { return s.presentMode }

// SwapchainDef returns the definition of the last build.
func (s *Swapchain) SwapchainDef() gpucore.SwapchainDef { return s.def }

// State returns the acquire/present state.
func (s *Swapchain) State() gpucore.SwapchainState { return s.state }

func (s *Swapchain) acquire(op string) (SwapchainImage, error) {
	dev := s.dev
	if err := dev.usable(op); err != nil {
		return SwapchainImage{}, err
	}
	switch s.state {
	case gpucore.SwapchainStateCreated, gpucore.SwapchainStatePresenting:
	default:
		return SwapchainImage{}, dev.errorf(op, gpucore.ErrInvalidState, "cannot acquire while %s", s.state)
	}
	if sizer, ok := s.window.(gpucore.WindowSizer); ok {
		if w, h := sizer.Size(); w != s.def.Width || h != s.def.Height {
			return SwapchainImage{}, dev.errorf(op, gpucore.ErrSurfaceOutOfDate, "window is %dx%d, swapchain %dx%d",
				w, h, s.def.Width, s.def.Height)
		}
	}

	s.state = gpucore.SwapchainStateAcquiring
	acq, err := s.surface.AcquireTexture(nil)
	if err != nil {
		s.state = gpucore.SwapchainStatePresenting
		return SwapchainImage{}, dev.fail(op, err, gpucore.ErrSurfaceOutOfDate)
	}
	view, err := dev.hal.CreateTextureView(acq.Texture, &hal.TextureViewDescriptor{Label: "swapchain image"})
	if err != nil {
		s.surface.DiscardTexture(acq.Texture)
		s.state = gpucore.SwapchainStatePresenting
		return SwapchainImage{}, dev.fail(op, err, gpucore.ErrAllocationFailure)
	}

	idx := s.next
	s.next = (s.next + 1) % s.imageCount
	tex := &Texture{
		dev: dev,
		def: gpucore.TextureDef{
			Label:        fmt.Sprintf("swapchain image %d", idx),
			Extents:      gpucore.Extents3D{Width: s.def.Width, Height: s.def.Height, Depth: 1},
			ArrayLength:  1,
			MipCount:     1,
			SampleCount:  gpucore.SampleCount1,
			Format:       s.format,
			ResourceType: gpucore.ResourceTypeRenderTargetColor,
			Dimensions:   gpucore.TextureDimensions2D,
		},
		hal:       acq.Texture,
		view:      view,
		swapchain: s,
	}
	s.current, s.currentTex = acq, tex
	s.acquired = int(idx)
	s.state = gpucore.SwapchainStateAcquired
	return SwapchainImage{Texture: tex, ImageIndex: idx}, nil
}

// AcquireNextImageFence acquires the next image and signals fence when it
// is ready for rendering.
func (s *Swapchain) AcquireNextImageFence(fence *Fence) (SwapchainImage, error) {
	const op = "acquire_next_image"
	if fence == nil {
		return SwapchainImage{}, s.dev.nilHandle(op, "fence")
	}
	if fence.dev != s.dev {
		return SwapchainImage{}, s.dev.foreign(op, "fence")
	}
	value, err := fence.begin(op)
	if err != nil {
		return SwapchainImage{}, err
	}
	img, err := s.acquire(op)
	if err != nil {
		fence.abort(value)
		return img, err
	}
	s.dev.submitMu.Lock()
	err = s.dev.queue.Submit(nil, fence.hal, value)
	s.dev.submitMu.Unlock()
	if err != nil {
		fence.abort(value)
		s.dropCurrent()
		return SwapchainImage{}, s.dev.fail(op, err, gpucore.ErrDeviceLost)
	}
	return img, nil
}

// AcquireNextImageSemaphore acquires the next image and leaves a pending
// signal on sem.
func (s *Swapchain) AcquireNextImageSemaphore(sem *Semaphore) (SwapchainImage, error) {
	const op = "acquire_next_image"
	if sem == nil {
		return SwapchainImage{}, s.dev.nilHandle(op, "semaphore")
	}
	if sem.dev != s.dev {
		return SwapchainImage{}, s.dev.foreign(op, "semaphore")
	}
	img, err := s.acquire(op)
	if err != nil {
		return img, err
	}
	sem.signal()
	return img, nil
}

// dropCurrent gives an acquired image back without presenting it.
func (s *Swapchain) dropCurrent() {
	if s.current == nil {
		return
	}
	s.currentTex.release()
	s.surface.DiscardTexture(s.current.Texture)
	s.current, s.currentTex = nil, nil
	s.acquired = -1
	s.state = gpucore.SwapchainStatePresenting
}

func (s *Swapchain) present(op string, idx uint32) (gpucore.PresentResult, error) {
	dev := s.dev
	if s.state != gpucore.SwapchainStateAcquired || s.acquired != int(idx) {
		return gpucore.PresentResultSuccess, dev.errorf(op, gpucore.ErrInvalidState, "image %d was not acquired", idx)
	}
	acq, tex := s.current, s.currentTex
	s.current, s.currentTex = nil, nil
	s.acquired = -1
	s.state = gpucore.SwapchainStatePresenting

	dev.submitMu.Lock()
	err := dev.queue.Present(s.surface, acq.Texture)
	dev.submitMu.Unlock()
	tex.release()
	if err != nil {
		return gpucore.PresentResultSuccess, dev.fail(op, err, gpucore.ErrSurfaceOutOfDate)
	}
	if acq.Suboptimal {
		return gpucore.PresentResultSuboptimal, nil
	}
	return gpucore.PresentResultSuccess, nil
}

// Rebuild reconfigures the surface for def. The swapchain keeps its
// identity; image count and format may change.
func (s *Swapchain) Rebuild(def *gpucore.SwapchainDef) error {
	const op = "rebuild_swapchain"
	if err := s.dev.alive(op); err != nil {
		return err
	}
	if err := s.dev.waitIdle(s.dev.cfg.fenceTimeout); err != nil {
		return err
	}
	s.dropCurrent()
	prev := s.state
	s.state = gpucore.SwapchainStateRebuilding
	if err := s.build(op, def); err != nil {
		s.state = prev
		return err
	}
	return nil
}

// Destroy unconfigures the surface. Surfaces made for the device's window
// stay alive until the device is destroyed.
func (s *Swapchain) Destroy() {
	if s.surface == nil || s.dev.shared.Destroyed() {
		return
	}
	s.dropCurrent()
	if s.adopted {
		return
	}
	s.surface.Unconfigure(s.dev.hal)
	s.surface.Destroy()
	s.surface = nil
}
