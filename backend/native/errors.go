package native

import (
	"strings"

	"github.com/gogpu/rhi/gpucore"
)

// nativeKinds maps fragments of hal error messages to error kinds. hal
// drivers report failures as plain errors, so the message is all there is.
var nativeKinds = []struct {
	fragment string
	kind     error
}{
	{"device lost", gpucore.ErrDeviceLost},
	{"device_lost", gpucore.ErrDeviceLost},
	{"outdated", gpucore.ErrSurfaceOutOfDate},
	{"out of date", gpucore.ErrSurfaceOutOfDate},
	{"surface lost", gpucore.ErrSurfaceOutOfDate},
	{"timeout", gpucore.ErrTimeout},
	{"timed out", gpucore.ErrTimeout},
	{"out of memory", gpucore.ErrAllocationFailure},
	{"allocation", gpucore.ErrAllocationFailure},
	{"not supported", gpucore.ErrUnsupported},
	{"unsupported", gpucore.ErrUnsupported},
}

// classify returns the kind of a hal error, or fallback when the message
// carries no recognizable hint.
func classify(err error, fallback error) error {
	msg := strings.ToLower(err.Error())
	for _, k := range nativeKinds {
		if strings.Contains(msg, k.fragment) {
			return k.kind
		}
	}
	return fallback
}

// wrap turns a hal error into a *gpucore.Error for backend b.
func wrap(b gpucore.Backend, op string, err error, fallback error) error {
	return gpucore.Wrap(b, op, classify(err, fallback), err)
}
