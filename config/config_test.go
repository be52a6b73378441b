package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"galaxy-render/scene"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "galaxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	spec, err := cfg.GalaxySpec()
	require.NoError(t, err)
	require.Len(t, spec.Fields, 4)
	assert.Equal(t, scene.ModeDisc, spec.Fields[0].Field.Mode)
	assert.Equal(t, 10000, spec.Fields[0].Field.Count)
	assert.True(t, spec.Fields[0].Material.DynTrail)
	assert.False(t, spec.Fields[1].Material.DynTrail)
	require.NotNil(t, spec.Haze)
	assert.Equal(t, 1000, spec.Haze.Haze.CenterCount)
	assert.Equal(t, scene.LayerBase, spec.Haze.Layer)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
seed: 7
bloom:
  strength: 5
  threshold: 0.3
fields:
  - mode: spiral
    count: 200
    twist: 1.5
    layer: base
    dyn_trail: true
haze:
  enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 1280, cfg.Window.Width, "untouched sections keep defaults")

	p := cfg.BloomParams()
	assert.Equal(t, float32(3), p.Strength, "strength is clamped")
	assert.Equal(t, float32(0.3), p.Threshold)
	assert.Equal(t, Default().Bloom.Radius, p.Radius)

	spec, err := cfg.GalaxySpec()
	require.NoError(t, err)
	require.Len(t, spec.Fields, 1)
	f := spec.Fields[0]
	assert.Equal(t, "spiral-0", f.Name)
	assert.Equal(t, scene.LayerBase, f.Layer)
	assert.Equal(t, float32(1.5), f.Field.Twist)
	assert.True(t, f.Material.DynTrail)
	assert.Equal(t, scene.StarMaterial(&scene.Field{}).SizeBase, f.Material.SizeBase)
	assert.Nil(t, spec.Haze)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown mode":   "fields: [{mode: ring, count: 10}]",
		"both layers":    "fields: [{mode: disc, count: 10, layer: both}]",
		"negative count": "fields: [{mode: disc, count: -1}]",
		"bad tint":       "haze: {center_tint: {min: '#zzzzzz', max: '#ffffff'}}",
		"bad policy":     "textures: {on_error: retry}",
		"bad level":      "log: {level: loud}",
		"bad fov":        "camera: {fov: 0}",
		"not yaml":       "fields: {",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnknownModeKeepsSentinel(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "fields: [{mode: ring, count: 10}]"))
	assert.ErrorIs(t, err, scene.ErrUnknownMode)
}

func TestHexTints(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
haze:
  center_tint: {min: "000000", max: "#ff8000"}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	spec, err := cfg.GalaxySpec()
	require.NoError(t, err)

	tint := spec.Haze.Haze.CenterTint
	assert.Equal(t, float32(0), tint.Min.R)
	assert.InDelta(t, 1.0, tint.Max.R, 1e-6)
	assert.InDelta(t, 128.0/255.0, tint.Max.G, 1e-6)
	assert.InDelta(t, 0.0, tint.Max.B, 1e-6)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Textures.Particle = "star.png"

	paths := cfg.TexturePaths()
	assert.Equal(t, "star.png", paths[scene.TextureParticle])
	assert.Equal(t, "", paths[scene.TextureHaze])
	assert.Equal(t, scene.TextureFallback, cfg.TexturePolicy())

	wc := cfg.WindowConfig()
	assert.Equal(t, 1280, wc.Width)
	assert.Equal(t, "Galaxy", wc.Title)

	cam := cfg.NewCamera(16.0 / 9.0)
	assert.InDelta(t, 1.5, cam.Position.Y(), 1e-5)
	assert.InDelta(t, 3.0, cam.Position.Z(), 1e-5)
	assert.Equal(t, cfg.Camera.Damping, cam.DampingFactor)

	assert.Equal(t, "info", cfg.Logger().Level)
}

func TestWatcherDeliversBloomParams(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bloom: {strength: 1}\n")

	w, err := NewWatcher(zap.NewNop(), path, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher a moment to start before writing.
	time.Sleep(50 * time.Millisecond)
	writeConfig(t, dir, "bloom: {strength: 2, radius: 0.7, threshold: 0.2}\n")

	select {
	case p := <-w.Updates():
		assert.Equal(t, scene.BloomParams{Strength: 2, Radius: 0.7, Threshold: 0.2}, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no bloom update after config write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bloom: {strength: 1}\n")

	w, err := NewWatcher(zap.NewNop(), path, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o644))

	select {
	case p, ok := <-w.Updates():
		if ok {
			t.Fatalf("unexpected update %+v", p)
		}
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	_, ok := <-w.Updates()
	assert.False(t, ok, "updates closes when the watcher stops")
}
