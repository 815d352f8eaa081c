// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command rhidemo runs a frame loop on a rhi device: it opens a backend,
// builds a swapchain and renders through the extract, prepare and write
// phases until the frame budget is spent or the window closes.
//
// Without the glfw build tag the demo runs headless on the Empty backend.
//
// Usage:
//
//	rhidemo [-config file] [-backend name] [-frames n] [-tonemapper n]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/gpucore"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	var (
		configPath  = flag.String("config", defaultConfigPath(), "TOML configuration file")
		saveConfig  = flag.Bool("save-config", false, "write the effective configuration to -config and exit")
		backend     = flag.String("backend", "", "backend: vulkan, metal, gl or empty")
		width       = flag.Uint("width", 0, "window width")
		height      = flag.Uint("height", 0, "window height")
		presentMode = flag.String("present-mode", "", "fifo, mailbox or immediate")
		frames      = flag.Int("frames", 0, "frames to render, 0 runs until the window closes")
		scene       = flag.String("scene", "", "scene defaults: 2d or 3d")
		tonemapper  = flag.Int("tonemapper", -1, "tonemapper index, -1 keeps the scene default")
		logLevel    = flag.String("log-level", "", "debug, info, warn or error")
		list        = flag.Bool("list-tonemappers", false, "print the tonemappers and exit")
	)
	flag.Parse()

	if *list {
		for _, t := range Tonemappers() {
			fmt.Printf("%d\t%s\n", int(t), t.DisplayName())
		}
		return
	}

	conf, err := readConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			conf.Backend = *backend
		case "width":
			conf.Width = uint32(*width)
		case "height":
			conf.Height = uint32(*height)
		case "present-mode":
			conf.PresentMode = *presentMode
		case "frames":
			conf.Frames = *frames
		case "scene":
			conf.Scene = *scene
		case "tonemapper":
			conf.Tonemapper = *tonemapper
		case "log-level":
			conf.LogLevel = *logLevel
		}
	})

	if *saveConfig {
		if err := writeConfig(*configPath, &conf); err != nil {
			fatal(err)
		}
		logger.Info("configuration written", "file", *configPath)
		return
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(conf.LogLevel))); err != nil {
		fatal(fmt.Errorf("log level: %w", err))
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	rhi.SetLogger(logger)

	s, err := conf.resolve()
	if err != nil {
		fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, s); err != nil {
		stop()
		fatal(err)
	}
}

func fatal(err error) {
	logger.Error("rhidemo failed", "err", err)
	os.Exit(1)
}

func run(ctx context.Context, s settings) error {
	if headless && s.anyBackend {
		s.anyBackend, s.backend = false, gpucore.BackendEmpty
	}
	win, err := newWindow(s)
	if err != nil {
		return err
	}
	defer win.close()

	var dc *rhi.DeviceContext
	if s.anyBackend {
		dc, err = rhi.OpenDefault(win.surface())
	} else {
		dc, err = rhi.Open(s.backend, win.surface())
	}
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dc.Release()
	info := dc.DeviceInfo()
	logger.Info("device opened", "backend", dc.Backend(), "adapter", info.AdapterName,
		"tonemapper", s.options.Tonemapper)

	d, err := newDemo(dc, win, s)
	if err != nil {
		return err
	}
	defer d.destroy()

	n := 0
	for ; s.frames == 0 || n < s.frames; n++ {
		if ctx.Err() != nil || !win.poll() {
			break
		}
		if err := d.frame(ctx); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
	}
	d.report(n)
	return nil
}
