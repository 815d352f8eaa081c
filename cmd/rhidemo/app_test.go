//go:build !glfw

package main

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/gpucore"
)

func emptySettings(frames int) settings {
	return settings{
		backend: gpucore.BackendEmpty,
		width:   320,
		height:  240,
		frames:  frames,
		options: Default3D(),
	}
}

func TestRunHeadless(t *testing.T) {
	s := emptySettings(5)
	s.anyBackend = true
	if err := run(context.Background(), s); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestHeadlessRejectsNativeBackend(t *testing.T) {
	s := emptySettings(1)
	s.backend = gpucore.BackendVulkan
	if _, err := newWindow(s); err == nil {
		t.Error("newWindow accepted a native backend without a window system")
	}
}

func TestDemoFrames(t *testing.T) {
	s := emptySettings(0)
	win, _ := newWindow(s)
	dc := newEmptyDevice(t)
	d, err := newDemo(dc, win, s)
	if err != nil {
		t.Fatalf("newDemo: %v", err)
	}
	defer d.destroy()

	for i := range 3 {
		if err := d.frame(context.Background()); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if err := d.queue.WaitForQueueIdle(); err != nil {
		t.Fatalf("WaitForQueueIdle: %v", err)
	}
	e, err := dc.Empty()
	if err != nil {
		t.Fatal(err)
	}
	st := e.Stats()
	if st.Draws != 3 || st.Presents != 3 {
		t.Errorf("Stats() = %+v, want 3 draws and 3 presents", st)
	}
	if d.arena.Current() != nil {
		t.Error("a frame is still open after frame returned")
	}
}

func TestEncodeParams(t *testing.T) {
	b := encodeParams(frameParams{frame: 7, seconds: 1.5, tonemapper: TonemapperHable, exposure: 2})
	if len(b) != frameParamsSize {
		t.Fatalf("len = %d, want %d", len(b), frameParamsSize)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[0:])); got != 1.5 {
		t.Errorf("seconds = %v, want 1.5", got)
	}
	if got := binary.LittleEndian.Uint32(b[8:]); got != uint32(TonemapperHable) {
		t.Errorf("tonemapper = %d, want %d", got, TonemapperHable)
	}
	if got := binary.LittleEndian.Uint32(b[12:]); got != 7 {
		t.Errorf("frame = %d, want 7", got)
	}
}

func newEmptyDevice(t *testing.T) *rhi.DeviceContext {
	t.Helper()
	dc, err := rhi.NewEmptyDeviceContext()
	if err != nil {
		t.Fatalf("NewEmptyDeviceContext: %v", err)
	}
	t.Cleanup(dc.Release)
	return dc
}
