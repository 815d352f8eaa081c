package gl

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi/gpucore"
)

func TestOpenWithoutWindow(t *testing.T) {
	_, err := Open(nil)
	if !errors.Is(err, gpucore.ErrInvalidDefinition) && !errors.Is(err, gpucore.ErrBackendUnavailable) {
		t.Fatalf("Open(nil) err = %v, want ErrInvalidDefinition or ErrBackendUnavailable", err)
	}
}

func TestProfile(t *testing.T) {
	if !Profile.RequiresWindow {
		t.Error("GL profile must require a window")
	}
	if Profile.MinImageCount > Profile.MaxImageCount {
		t.Errorf("image counts %d..%d are inverted", Profile.MinImageCount, Profile.MaxImageCount)
	}
}
