package rhi

import (
	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
	"github.com/gogpu/rhi/gpucore"
)

// Swapchain is a set of presentable images for one window.
//
// The state machine runs Created, Acquiring, Acquired, Presenting and back
// to Acquiring. Rebuild is allowed in any state and returns to Created
// without changing the *Swapchain callers hold.
type Swapchain struct {
	variant[*empty.Swapchain, *native.Swapchain]
}

func (s *Swapchain) v() *variant[*empty.Swapchain, *native.Swapchain] {
	if s == nil {
		return nil
	}
	return &s.variant
}

// SwapchainImage is an acquired image and its index for Present.
type SwapchainImage struct {
	Texture    *Texture
	ImageIndex uint32
}

// ImageCount returns the number of images. It may change on Rebuild.
func (s *Swapchain) ImageCount() int {
	if s.backend == gpucore.BackendEmpty {
		return s.e.ImageCount()
	}
	return s.n.ImageCount()
}

// Format returns the image format. It may change on Rebuild.
func (s *Swapchain) Format() gpucore.Format {
	if s.backend == gpucore.BackendEmpty {
		return s.e.Format()
	}
	return s.n.Format()
}

// PresentMode returns the negotiated present mode.
func (s *Swapchain) PresentMode() gpucore.PresentMode {
	if s.backend == gpucore.BackendEmpty {
		return s.e.PresentMode()
	}
	return s.n.PresentMode()
}

// SwapchainDef returns the definition of the last build.
func (s *Swapchain) SwapchainDef() gpucore.SwapchainDef {
	if s.backend == gpucore.BackendEmpty {
		return s.e.SwapchainDef()
	}
	return s.n.SwapchainDef()
}

// State returns the acquire/present state.
func (s *Swapchain) State() gpucore.SwapchainState {
	if s.backend == gpucore.BackendEmpty {
		return s.e.State()
	}
	return s.n.State()
}

// AcquireNextImageFence acquires the next image; fence signals once the
// image can be rendered to.
func (s *Swapchain) AcquireNextImageFence(fence *Fence) (SwapchainImage, error) {
	const op = "acquire_next_image"
	if s.backend == gpucore.BackendEmpty {
		f, err := fence.v().emptyFor(op)
		if err != nil {
			return SwapchainImage{}, err
		}
		img, err := s.e.AcquireNextImageFence(f)
		if err != nil {
			return SwapchainImage{}, err
		}
		return emptyImage(img), nil
	}
	f, err := fence.v().nativeFor(op, s.backend)
	if err != nil {
		return SwapchainImage{}, err
	}
	img, err := s.n.AcquireNextImageFence(f)
	if err != nil {
		return SwapchainImage{}, err
	}
	return s.nativeImage(img), nil
}

// AcquireNextImageSemaphore acquires the next image and leaves a pending
// signal on sem for the submission that renders to it.
func (s *Swapchain) AcquireNextImageSemaphore(sem *Semaphore) (SwapchainImage, error) {
	const op = "acquire_next_image"
	if s.backend == gpucore.BackendEmpty {
		se, err := sem.v().emptyFor(op)
		if err != nil {
			return SwapchainImage{}, err
		}
		img, err := s.e.AcquireNextImageSemaphore(se)
		if err != nil {
			return SwapchainImage{}, err
		}
		return emptyImage(img), nil
	}
	se, err := sem.v().nativeFor(op, s.backend)
	if err != nil {
		return SwapchainImage{}, err
	}
	img, err := s.n.AcquireNextImageSemaphore(se)
	if err != nil {
		return SwapchainImage{}, err
	}
	return s.nativeImage(img), nil
}

func emptyImage(img empty.SwapchainImage) SwapchainImage {
	return SwapchainImage{
		Texture:    &Texture{emptyVariant[*native.Texture](img.Texture)},
		ImageIndex: img.ImageIndex,
	}
}

func (s *Swapchain) nativeImage(img native.SwapchainImage) SwapchainImage {
	return SwapchainImage{
		Texture:    &Texture{nativeVariant[*empty.Texture](s.backend, img.Texture)},
		ImageIndex: img.ImageIndex,
	}
}

// Rebuild recreates the images for def. Image count and format must be
// queried again afterwards.
func (s *Swapchain) Rebuild(def *gpucore.SwapchainDef) error {
	if def == nil {
		return gpucore.Errorf(s.backend, "rebuild_swapchain", gpucore.ErrInvalidDefinition, "definition is nil")
	}
	Logger().Debug("rhi: rebuild swapchain", "backend", s.backend, "width", def.Width, "height", def.Height)
	if s.backend == gpucore.BackendEmpty {
		return s.e.Rebuild(def)
	}
	return s.n.Rebuild(def)
}

// Destroy releases the native surface. Empty swapchains need no cleanup.
func (s *Swapchain) Destroy() {
	if s.backend != gpucore.BackendEmpty {
		s.n.Destroy()
	}
}
