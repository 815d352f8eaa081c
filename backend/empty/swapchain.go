// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package empty

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/rhi/gpucore"
)

var windowIDs atomic.Uint64

// Window is an in-process stand-in for a native window. Resizing it makes
// every swapchain created for it out of date until rebuilt.
type Window struct {
	id         uintptr
	mu         sync.Mutex
	width      uint32
	height     uint32
	generation atomic.Uint64
}

// NewWindow returns a window of the given size.
func NewWindow(width, height uint32) *Window {
	return &Window{id: uintptr(windowIDs.Add(1)), width: width, height: height}
}

// DisplayHandle returns 0; the Empty backend has no display connection.
func (w *Window) DisplayHandle() uintptr { return 0 }

// WindowHandle returns a process-unique id.
func (w *Window) WindowHandle() uintptr { return w.id }

// Size returns the drawable size.
func (w *Window) Size() (width, height uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Resize changes the drawable size and invalidates swapchains.
func (w *Window) Resize(width, height uint32) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	w.generation.Add(1)
}

// Swapchain is an Empty swapchain with round-robin image acquisition.
type Swapchain struct {
	dev    *device
	window *Window

	def         gpucore.SwapchainDef
	format      gpucore.Format
	presentMode gpucore.PresentMode
	images      []*Texture
	generation  uint64

	state    gpucore.SwapchainState
	next     uint32
	acquired int
}

// SwapchainImage is an acquired swapchain image.
type SwapchainImage struct {
	Texture    *Texture
	ImageIndex uint32
}

func newSwapchain(dev *device, window gpucore.WindowHandle, def *gpucore.SwapchainDef) (*Swapchain, error) {
	sc := &Swapchain{dev: dev, acquired: -1}
	switch w := window.(type) {
	case nil:
	case *Window:
		sc.window = w
	default:
		// Foreign handles are accepted for headless use but cannot go out of date.
		slogger().Debug("empty: swapchain for foreign window handle", "handle", window.WindowHandle())
	}
	if err := sc.build("create_swapchain", def); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Swapchain) build(op string, def *gpucore.SwapchainDef) error {
	if def == nil {
		return nilHandle(op, "definition")
	}
	if err := def.Validate(); err != nil {
		return invalid(op, err)
	}
	cfg := &s.dev.cfg

	format, ok := gpucore.FindSupportedFormat(cfg.formats, def.Preferences(), gpucore.ResourceTypeRenderTargetColor)
	if !ok {
		return gpucore.Errorf(backend, op, gpucore.ErrUnsupported,
			"none of the formats %v is renderable", def.Preferences())
	}
	mode, err := s.pickPresentMode(op, def.PresentMode)
	if err != nil {
		return err
	}
	count := gpucore.ClampImageCount(def.ImageCount, cfg.minImages, cfg.maxImages)

	images := make([]*Texture, count)
	for i := range images {
		images[i] = &Texture{
			dev: s.dev,
			def: gpucore.TextureDef{
				Label:        fmt.Sprintf("swapchain image %d", i),
				Extents:      gpucore.Extents3D{Width: def.Width, Height: def.Height, Depth: 1},
				ArrayLength:  1,
				MipCount:     1,
				SampleCount:  gpucore.SampleCount1,
				Format:       format,
				ResourceType: gpucore.ResourceTypeRenderTargetColor | gpucore.ResourceTypeTexture,
				Dimensions:   gpucore.TextureDimensions2D,
			},
			swapchain: s,
		}
	}

	s.def = *def
	s.def.FormatPreference = append([]gpucore.Format(nil), def.FormatPreference...)
	s.format = format
	s.presentMode = mode
	s.images = images
	if s.window != nil {
		s.generation = s.window.generation.Load()
	}
	s.next = 0
	s.acquired = -1
	s.state = gpucore.SwapchainStateCreated

	slogger().Info("empty: swapchain built",
		"width", def.Width, "height", def.Height,
		"images", count, "format", format, "present_mode", mode)
	return nil
}

func (s *Swapchain) pickPresentMode(op string, want gpucore.PresentMode) (gpucore.PresentMode, error) {
	fifo := false
	for _, m := range s.dev.cfg.presentModes {
		if m == want {
			return m, nil
		}
		if m == gpucore.PresentModeFifo {
			fifo = true
		}
	}
	if !fifo {
		return 0, gpucore.Errorf(backend, op, gpucore.ErrUnsupported,
			"present mode %s unsupported and fifo unavailable", want)
	}
	slogger().Warn("empty: present mode unsupported, using fifo", "requested", want)
	return gpucore.PresentModeFifo, nil
}

// ImageCount returns the number of swapchain images.
func (s *Swapchain) ImageCount() int { return len(s.images) }

// Format returns the color format of the images.
func (s *Swapchain) Format() gpucore.Format { return s.format }

// PresentMode returns the negotiated present mode.
func (s *Swapchain) PresentMode() gpucore.PresentMode { return s.presentMode }

// SwapchainDef returns the definition of the last build.
func (s *Swapchain) SwapchainDef() gpucore.SwapchainDef { return s.def }

// State returns the acquire/present state.
func (s *Swapchain) State() gpucore.SwapchainState { return s.state }

func (s *Swapchain) outOfDate() bool {
	return s.window != nil && s.window.generation.Load() != s.generation
}

func (s *Swapchain) acquire(op string) (SwapchainImage, error) {
	if err := s.dev.usable(op); err != nil {
		return SwapchainImage{}, err
	}
	switch s.state {
	case gpucore.SwapchainStateCreated, gpucore.SwapchainStatePresenting:
	default:
		return SwapchainImage{}, gpucore.Errorf(backend, op, gpucore.ErrInvalidState,
			"cannot acquire while %s", s.state)
	}
	if s.outOfDate() {
		return SwapchainImage{}, gpucore.Errorf(backend, op, gpucore.ErrSurfaceOutOfDate, "window was resized")
	}
	s.state = gpucore.SwapchainStateAcquiring
	idx := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	s.acquired = int(idx)
	s.state = gpucore.SwapchainStateAcquired
	return SwapchainImage{Texture: s.images[idx], ImageIndex: idx}, nil
}

// AcquireNextImageFence acquires the next image and signals fence when it
// is ready for rendering.
func (s *Swapchain) AcquireNextImageFence(fence *Fence) (SwapchainImage, error) {
	const op = "acquire_next_image"
	if fence == nil {
		return SwapchainImage{}, nilHandle(op, "fence")
	}
	if fence.dev != s.dev {
		return SwapchainImage{}, foreign(op, "fence")
	}
	prevNext, prevState := s.next, s.state
	img, err := s.acquire(op)
	if err != nil {
		return img, err
	}
	if err := fence.signalNow(op); err != nil {
		// The image was never handed out, so the rotation stays where it was.
		s.next, s.state, s.acquired = prevNext, prevState, -1
		return SwapchainImage{}, err
	}
	return img, nil
}

// AcquireNextImageSemaphore acquires the next image and leaves a pending
// signal on sem.
func (s *Swapchain) AcquireNextImageSemaphore(sem *Semaphore) (SwapchainImage, error) {
	const op = "acquire_next_image"
	if sem == nil {
		return SwapchainImage{}, nilHandle(op, "semaphore")
	}
	if sem.dev != s.dev {
		return SwapchainImage{}, foreign(op, "semaphore")
	}
	img, err := s.acquire(op)
	if err != nil {
		return img, err
	}
	sem.signal()
	return img, nil
}

func (s *Swapchain) present(op string, idx uint32) (gpucore.PresentResult, error) {
	if s.state != gpucore.SwapchainStateAcquired || s.acquired != int(idx) {
		return gpucore.PresentResultSuccess, gpucore.Errorf(backend, op, gpucore.ErrInvalidState,
			"image %d was not acquired", idx)
	}
	s.state = gpucore.SwapchainStatePresenting
	s.acquired = -1
	if s.outOfDate() {
		return gpucore.PresentResultSuccess, gpucore.Errorf(backend, op, gpucore.ErrSurfaceOutOfDate, "window was resized")
	}
	if s.window != nil {
		if w, h := s.window.Size(); w != s.def.Width || h != s.def.Height {
			return gpucore.PresentResultSuboptimal, nil
		}
	}
	return gpucore.PresentResultSuccess, nil
}

// Rebuild recreates the images for def in place. The swapchain keeps its
// identity; image count and format may change.
func (s *Swapchain) Rebuild(def *gpucore.SwapchainDef) error {
	const op = "rebuild_swapchain"
	if err := s.dev.alive(op); err != nil {
		return err
	}
	prev := s.state
	s.state = gpucore.SwapchainStateRebuilding
	if err := s.build(op, def); err != nil {
		s.state = prev
		return err
	}
	return nil
}
