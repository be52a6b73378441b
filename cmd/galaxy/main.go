// Command galaxy renders the animated particle galaxy in a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"galaxy-render/config"
	"galaxy-render/core"
	"galaxy-render/io"
	"galaxy-render/logger"
	"galaxy-render/renderer"
	"galaxy-render/scene"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults are used when empty)")
		seed       = flag.Int64("seed", 0, "generator seed, overrides the config when non-zero")
		logLevel   = flag.String("log-level", "", "log level override: debug, info, warn or error")
		scenePath  = flag.String("scene", "", "render a .glb exported by galaxy-export instead of generating")
	)
	flag.Parse()

	if err := run(*configPath, *seed, *logLevel, *scenePath); err != nil {
		fmt.Fprintf(os.Stderr, "galaxy: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, logLevel, scenePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Decode textures while the window and GL context come up.
	textures := scene.LoadTexturesAsync(ctx, log, cfg.TexturePaths(), cfg.TexturePolicy())

	window, err := core.NewWindow(cfg.WindowConfig())
	if err != nil {
		return err
	}
	defer window.Destroy()

	engine, err := renderer.NewRenderEngine(log, window)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	if cfg.Bloom.Enabled {
		if err := engine.EnableBloom(cfg.BloomParams()); err != nil {
			return err
		}
	}

	s, err := buildScene(log, cfg, scenePath, window)
	if err != nil {
		return err
	}
	engine.SetScene(s)

	set, err := textures.Await(ctx)
	if err != nil {
		return fmt.Errorf("load textures: %w", err)
	}
	if err := engine.UploadTextures(set); err != nil {
		return err
	}

	var updates <-chan scene.BloomParams
	if configPath != "" {
		w, err := config.NewWatcher(log, configPath, config.DefaultDebounce)
		if err != nil {
			log.Warn("Config hot reload disabled", zap.Error(err))
		} else {
			defer w.Close()
			go w.Run(ctx)
			updates = w.Updates()
		}
	}

	engine.Stats.Serve(ctx, log, cfg.Metrics.Addr)

	newOrbitControls(window, s)

	var resizeErr error
	window.OnResize(func(width, height int) {
		if err := engine.Resize(width, height); err != nil {
			resizeErr = err
		}
	})

	window.SetKeyCallback(func(key int) {
		switch key {
		case core.KeyEscape:
			window.SetShouldClose(true)
		case core.KeyB:
			engine.SetBloomEnabled(!engine.BloomEnabled())
			log.Info("Bloom toggled", zap.Bool("enabled", engine.BloomEnabled()))
		case core.KeySpace:
			if s.Camera.AutoRotateSpeed == 0 {
				s.Camera.AutoRotateSpeed = 0.1
			} else {
				s.Camera.AutoRotateSpeed = 0
			}
		}
	})

	log.Info("Entering frame loop",
		zap.Int("fields", len(s.FieldNodes())),
		zap.Bool("bloom", engine.BloomEnabled()))

	title := cfg.Window.Title
	last := time.Now()
	for !window.ShouldClose() {
		window.PollEvents()
		if resizeErr != nil {
			return fmt.Errorf("resize: %w", resizeErr)
		}
		if ctx.Err() != nil {
			log.Info("Interrupted, shutting down")
			return nil
		}

		select {
		case p, ok := <-updates:
			if ok {
				engine.SetBloom(p)
			}
		default:
		}

		now := time.Now()
		s.Update(float32(now.Sub(last).Seconds()))
		last = now

		if err := engine.Render(); err != nil {
			return fmt.Errorf("render frame: %w", err)
		}
		if engine.Present() {
			window.SetTitle(fmt.Sprintf("%s | FPS: %.0f", title, engine.Stats.FPS()))
		}
	}
	return nil
}

// buildScene generates the galaxy from cfg, or loads a previously exported
// one when scenePath is set.
func buildScene(log *zap.Logger, cfg *config.Config, scenePath string, window *core.Window) (*scene.Scene, error) {
	s := scene.NewScene()
	width, height := window.GetFramebufferSize()
	s.SetCamera(cfg.NewCamera(float32(width) / float32(max(height, 1))))

	if scenePath != "" {
		roots, err := io.ImportGLB(scenePath)
		if err != nil {
			return nil, err
		}
		for _, root := range roots {
			if err := s.AddNode(nil, root); err != nil {
				return nil, err
			}
		}
		log.Info("Loaded scene", zap.String("path", scenePath), zap.Int("fields", len(s.FieldNodes())))
		return s, nil
	}

	spec, err := cfg.GalaxySpec()
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	start := time.Now()
	if _, err := scene.BuildGalaxy(s, rand.New(rand.NewSource(seed)), spec); err != nil {
		return nil, err
	}
	log.Info("Generated galaxy",
		zap.Int64("seed", seed),
		zap.Int("fields", len(s.FieldNodes())),
		zap.Duration("took", time.Since(start)))
	return s, nil
}
