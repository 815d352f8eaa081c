package metal

// Register the Metal hal driver.
import _ "github.com/gogpu/wgpu/hal/metal"
