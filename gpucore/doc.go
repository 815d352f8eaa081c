// Package gpucore holds the backend-agnostic vocabulary shared by every rhi
// backend: plain-data resource definitions, enums and flag sets, the format
// capability table, device capability info and the error taxonomy.
//
// Nothing in this package talks to a GPU. The root rhi package and the
// backend packages (backend/empty, backend/native and the native profiles)
// all import it, so it must stay a leaf.
//
// # Definitions
//
// Resource definitions ([BufferDef], [TextureDef], [SamplerDef],
// [SwapchainDef], [ShaderModuleDef]) are plain values. Definitions that
// reference other GPU objects (shader stages, root signatures, pipelines)
// live in the root rhi package because they carry backend handles.
//
// # Errors
//
// Backends report failures as [*Error], which unwraps to one of the kind
// sentinels ([ErrDeviceLost], [ErrSurfaceOutOfDate], [ErrTimeout],
// [ErrUnsupported], [ErrAllocationFailure], [ErrInvalidDefinition],
// [ErrDeviceDestroyed], [ErrBackendMismatch]) and to the native cause:
//
//	if errors.Is(err, gpucore.ErrSurfaceOutOfDate) {
//	    // rebuild the swapchain and retry
//	}
package gpucore
