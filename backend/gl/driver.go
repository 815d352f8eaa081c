//go:build linux || windows

package gl

// Register the GLES hal driver.
import _ "github.com/gogpu/wgpu/hal/gles"
