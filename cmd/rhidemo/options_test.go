package main

import "testing"

func TestTonemapperFromInt(t *testing.T) {
	tests := []struct {
		in      int
		want    TonemapperType
		wantErr bool
	}{
		{in: 0, want: TonemapperNone},
		{in: 6, want: TonemapperLogDerivative},
		{in: 8, want: TonemapperVisualizeLuma},
		{in: 9, wantErr: true},
		{in: -1, wantErr: true},
		{in: 1 << 20, wantErr: true},
	}
	for _, tt := range tests {
		got, err := TonemapperFromInt(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("TonemapperFromInt(%d) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("TonemapperFromInt(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTonemapperDisplayNames(t *testing.T) {
	seen := map[string]bool{}
	for _, tm := range Tonemappers() {
		name := tm.DisplayName()
		if name == "" || seen[name] {
			t.Errorf("tonemapper %d has empty or duplicate name %q", int(tm), name)
		}
		seen[name] = true
	}
	if got := TonemapperHable.String(); got != "Hable" {
		t.Errorf("String() = %q, want Hable", got)
	}
	if got := TonemapperType(42).DisplayName(); got != "TonemapperType(42)" {
		t.Errorf("DisplayName() = %q, want TonemapperType(42)", got)
	}
}

func TestRenderOptionsDefaults(t *testing.T) {
	d2, d3 := Default2D(), Default3D()
	if d2.EnableMSAA || d2.EnableHDR || d2.Tonemapper != TonemapperNone {
		t.Errorf("Default2D() = %+v, want no MSAA, no HDR, no tonemapper", d2)
	}
	if !d3.EnableHDR || d3.BlurPassCount != 5 || d3.Tonemapper != TonemapperLogDerivative {
		t.Errorf("Default3D() = %+v, want HDR, 5 blur passes, LogDerivative", d3)
	}
	if _, err := renderOptionsFor("4d"); err == nil {
		t.Error("renderOptionsFor(4d) succeeded")
	}
}
