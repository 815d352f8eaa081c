package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/rhi/gpucore"
)

// config is the on-disk demo configuration. Flags override it.
type config struct {
	// Backend is "vulkan", "metal", "gl", "empty" or "" for the first
	// backend that opens.
	Backend     string
	Width       uint32
	Height      uint32
	PresentMode string
	// Frames stops the loop after this many frames. Zero runs until the
	// window closes.
	Frames     int
	Scene      string
	Tonemapper int
	LogLevel   string
}

const configFile = "rhidemo.toml"

func defaultConfig() config {
	return config{
		Width:       800,
		Height:      600,
		PresentMode: "fifo",
		Frames:      120,
		Scene:       "3d",
		Tonemapper:  -1,
		LogLevel:    "info",
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return configFile
	}
	return filepath.Join(dir, "rhidemo", configFile)
}

// readConfig decodes path over the defaults. A missing file yields the
// defaults.
func readConfig(path string) (config, error) {
	conf := defaultConfig()
	if path == "" {
		return conf, nil
	}
	md, err := toml.DecodeFile(path, &conf)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	if err != nil {
		return conf, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logger.Warn("unknown config keys", "file", path, "keys", undecoded)
	}
	return conf, nil
}

func writeConfig(path string, conf *config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(conf); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// settings is the resolved configuration the demo runs with.
type settings struct {
	backend     gpucore.Backend
	anyBackend  bool
	width       uint32
	height      uint32
	presentMode gpucore.PresentMode
	frames      int
	options     RenderOptions
}

func (c *config) resolve() (settings, error) {
	s := settings{width: c.Width, height: c.Height, frames: c.Frames}
	if s.width == 0 || s.height == 0 {
		return s, fmt.Errorf("window size %dx%d is empty", c.Width, c.Height)
	}
	if c.Frames < 0 {
		return s, fmt.Errorf("negative frame count %d", c.Frames)
	}
	if c.Backend == "" {
		s.anyBackend = true
	} else {
		b, err := gpucore.ParseBackend(c.Backend)
		if err != nil {
			return s, err
		}
		s.backend = b
	}
	pm, err := gpucore.ParsePresentMode(c.PresentMode)
	if err != nil {
		return s, err
	}
	s.presentMode = pm

	if s.options, err = renderOptionsFor(c.Scene); err != nil {
		return s, err
	}
	// -1 keeps the scene's tonemapper.
	if c.Tonemapper != -1 {
		if s.options.Tonemapper, err = TonemapperFromInt(c.Tonemapper); err != nil {
			return s, err
		}
	}
	return s, nil
}
