package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/rhi/gpucore"
)

func TestReadConfigMissingFile(t *testing.T) {
	conf, err := readConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if conf != defaultConfig() {
		t.Errorf("readConfig() = %+v, want defaults", conf)
	}
}

func TestReadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFile)
	data := "Backend = \"empty\"\nWidth = 1024\nTonemapper = 4\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	conf, err := readConfig(path)
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if conf.Backend != "empty" || conf.Width != 1024 || conf.Tonemapper != 4 {
		t.Errorf("readConfig() = %+v", conf)
	}
	if conf.Height != 600 {
		t.Errorf("Height = %d, want default 600", conf.Height)
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", configFile)
	want := defaultConfig()
	want.Backend = "vulkan"
	if err := writeConfig(path, &want); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}
	got, err := readConfig(path)
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if got != want {
		t.Errorf("readConfig() = %+v, want %+v", got, want)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(*config)
		wantErr bool
		check   func(*testing.T, settings)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, s settings) {
				if !s.anyBackend || s.options.Tonemapper != TonemapperLogDerivative {
					t.Errorf("settings = %+v", s)
				}
			},
		},
		{
			name: "explicit tonemapper",
			edit: func(c *config) { c.Backend, c.Tonemapper, c.Scene = "gl", 3, "2d" },
			check: func(t *testing.T, s settings) {
				if s.backend != gpucore.BackendGL || s.options.Tonemapper != TonemapperHejl2015 {
					t.Errorf("settings = %+v", s)
				}
			},
		},
		{name: "tonemapper out of range", edit: func(c *config) { c.Tonemapper = 9 }, wantErr: true},
		{name: "negative tonemapper", edit: func(c *config) { c.Tonemapper = -2 }, wantErr: true},
		{name: "unknown backend", edit: func(c *config) { c.Backend = "dx12" }, wantErr: true},
		{name: "empty window", edit: func(c *config) { c.Width = 0 }, wantErr: true},
		{name: "bad present mode", edit: func(c *config) { c.PresentMode = "sometimes" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := defaultConfig()
			if tt.edit != nil {
				tt.edit(&conf)
			}
			s, err := conf.resolve()
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolve() err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}
