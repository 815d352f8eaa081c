package lifetime

import (
	"sync"
	"testing"
)

func TestHandle_LastReleaseDestroys(t *testing.T) {
	destroyed := 0
	h := New("test", func() { destroyed++ })

	const n = 5
	clones := make([]*Handle, n)
	for i := range clones {
		clones[i] = h.Clone()
	}
	if got := h.Shared().Refs(); got != n+1 {
		t.Fatalf("Refs() = %d, want %d", got, n+1)
	}

	if h.Release() {
		t.Error("releasing the original destroyed the record while clones are live")
	}
	for i, c := range clones[:n-1] {
		if c.Release() {
			t.Errorf("release of clone %d destroyed the record early", i)
		}
		if !clones[n-1].Alive() {
			t.Fatalf("last clone not alive after releasing clone %d", i)
		}
	}
	if !clones[n-1].Release() {
		t.Error("last release did not destroy the record")
	}
	if destroyed != 1 {
		t.Errorf("destroy ran %d times, want 1", destroyed)
	}
	if !h.Shared().Destroyed() {
		t.Error("Destroyed() = false after last release")
	}
	for i, c := range clones {
		if c.Alive() {
			t.Errorf("clone %d Alive() = true after destruction", i)
		}
	}
}

func TestHandle_DoubleReleaseIsNoop(t *testing.T) {
	h := New("test", nil)
	c := h.Clone()
	c.Release()
	c.Release()
	if got := h.Shared().Refs(); got != 1 {
		t.Errorf("Refs() = %d after double release, want 1", got)
	}
	if !h.Alive() {
		t.Error("original handle died after a clone was double-released")
	}
}

func TestHandle_CloneOfReleased(t *testing.T) {
	h := New("test", nil)
	keep := h.Clone()
	h.Release()
	c := h.Clone()
	if c.Alive() {
		t.Error("clone of a released handle is alive")
	}
	if got := keep.Shared().Refs(); got != 1 {
		t.Errorf("Refs() = %d, want 1", got)
	}
}

func TestHandle_ConcurrentCloneRelease(t *testing.T) {
	destroyed := 0
	h := New("test", func() { destroyed++ })

	var wg sync.WaitGroup
	for range 64 {
		c := h.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Clone().Release()
			c.Release()
		}()
	}
	wg.Wait()
	if destroyed != 0 {
		t.Fatal("record destroyed while the original handle is live")
	}
	h.Release()
	if destroyed != 1 {
		t.Errorf("destroy ran %d times, want 1", destroyed)
	}
}
