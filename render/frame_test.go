package render

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi"
)

func newDevice(t *testing.T) *rhi.DeviceContext {
	t.Helper()
	dc, err := rhi.NewEmptyDeviceContext()
	if err != nil {
		t.Fatalf("NewEmptyDeviceContext: %v", err)
	}
	t.Cleanup(dc.Release)
	return dc
}

func TestFrameArenaBegin(t *testing.T) {
	arena := NewFrameArena()
	f0, err := arena.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if f0.Index() != 0 {
		t.Errorf("Index() = %d, want 0", f0.Index())
	}
	if _, err := arena.Begin(); !errors.Is(err, ErrFrameOpen) {
		t.Errorf("Begin while open: err = %v, want ErrFrameOpen", err)
	}
	if arena.Current() != f0 {
		t.Error("Current() is not the open frame")
	}

	f0.End()
	if arena.Current() != nil {
		t.Error("Current() after End is not nil")
	}
	f1, err := arena.Begin()
	if err != nil {
		t.Fatalf("Begin after End: %v", err)
	}
	if f1.Index() != 1 {
		t.Errorf("Index() = %d, want 1", f1.Index())
	}
}

func TestRefInvalidAfterEnd(t *testing.T) {
	f, _ := NewFrameArena().Begin()
	r := Borrow(f, 42)
	if v, err := r.Get(); err != nil || v != 42 {
		t.Errorf("Get() = %d, %v, want 42, nil", v, err)
	}
	f.End()
	if _, err := r.Get(); !errors.Is(err, ErrFrameEnded) {
		t.Errorf("Get() after End: err = %v, want ErrFrameEnded", err)
	}

	var zero Ref[int]
	if _, err := zero.Get(); !errors.Is(err, ErrFrameEnded) {
		t.Errorf("zero Ref Get(): err = %v, want ErrFrameEnded", err)
	}
}

func TestFrameCleanupOrder(t *testing.T) {
	f, _ := NewFrameArena().Begin()
	var got []int
	for i := range 3 {
		if err := f.OnEnd(func() { got = append(got, i) }); err != nil {
			t.Fatalf("OnEnd: %v", err)
		}
	}
	f.End()
	f.End()
	if len(got) != 3 || got[0] != 2 || got[1] != 1 || got[2] != 0 {
		t.Errorf("cleanup order = %v, want [2 1 0]", got)
	}
	if err := f.OnEnd(func() {}); !errors.Is(err, ErrFrameEnded) {
		t.Errorf("OnEnd after End: err = %v, want ErrFrameEnded", err)
	}
}

func TestFrameReleasesAdoptedDevices(t *testing.T) {
	dc := newDevice(t)
	f, _ := NewFrameArena().Begin()

	if err := f.Adopt(dc.Clone()); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if got := dc.Refs(); got != 2 {
		t.Fatalf("Refs() = %d, want 2", got)
	}
	f.End()
	if got := dc.Refs(); got != 1 {
		t.Errorf("Refs() after End = %d, want 1", got)
	}

	if err := f.Adopt(dc.Clone()); !errors.Is(err, ErrFrameEnded) {
		t.Errorf("Adopt after End: err = %v, want ErrFrameEnded", err)
	}
	if got := dc.Refs(); got != 1 {
		t.Errorf("Refs() after rejected Adopt = %d, want 1", got)
	}
}
