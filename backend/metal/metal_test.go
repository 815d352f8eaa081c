//go:build !darwin

package metal

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi/gpucore"
)

func TestOpenUnavailable(t *testing.T) {
	_, err := Open()
	if !errors.Is(err, gpucore.ErrBackendUnavailable) {
		t.Fatalf("Open() err = %v, want ErrBackendUnavailable", err)
	}
	var e *gpucore.Error
	if !errors.As(err, &e) || e.Backend != gpucore.BackendMetal {
		t.Errorf("error backend = %v, want metal", err)
	}
}
