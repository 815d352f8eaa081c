package native

import (
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/gpucore"
)

// Profile describes how one native API is driven through hal.
type Profile struct {
	// Backend is the rhi backend tag reported in errors and by the façade.
	Backend gpucore.Backend

	// HAL selects the hal driver. The driver package must be linked in.
	HAL gputypes.Backend

	// CompileWGSL compiles WGSL modules to SPIR-V with naga before they
	// reach the driver.
	CompileWGSL bool

	// RequiresWindow means the device can only be created against a window,
	// as GL needs a current context. The surface made for it is reused by the
	// first swapchain.
	RequiresWindow bool

	// PresentModes lists the present modes the API offers.
	PresentModes []gpucore.PresentMode

	// MinImageCount and MaxImageCount bound swapchain image counts.
	MinImageCount uint32
	MaxImageCount uint32
}

// Option configures a native device context.
type Option func(*config)

type config struct {
	adapter      string
	fenceTimeout time.Duration
	label        string
}

// DefaultFenceTimeout bounds WaitForFences and queue idle waits.
const DefaultFenceTimeout = 5 * time.Second

func defaultConfig() config {
	return config{fenceTimeout: DefaultFenceTimeout, label: "rhi-device"}
}

// WithAdapter prefers the first adapter whose name contains name.
func WithAdapter(name string) Option {
	return func(c *config) { c.adapter = name }
}

// WithFenceTimeout bounds fence and queue-idle waits.
func WithFenceTimeout(d time.Duration) Option {
	return func(c *config) { c.fenceTimeout = d }
}

// WithLabel sets the debug label given to native objects.
func WithLabel(label string) Option {
	return func(c *config) { c.label = label }
}
