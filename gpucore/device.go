package gpucore

// DeviceInfo is the capability information a device context exposes.
type DeviceInfo struct {
	MinUniformBufferOffsetAlignment uint32
	MinStorageBufferOffsetAlignment uint32
	UploadBufferTextureAlignment    uint32
	UploadBufferTextureRowAlignment uint32
	SupportsClampToBorderColor      bool
	// MaxTextureDimension2D bounds texture width and height, zero means unchecked.
	MaxTextureDimension2D uint32
	// AdapterName is informational.
	AdapterName string
}

// WindowHandle is the raw window/display handle pair a surface is created
// from. Backends that do not present (Empty) accept nil.
type WindowHandle interface {
	DisplayHandle() uintptr
	WindowHandle() uintptr
}

// WindowSizer is implemented by windows that report their drawable size.
type WindowSizer interface {
	Size() (width, height uint32)
}
