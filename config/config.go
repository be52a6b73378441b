package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"galaxy-render/core"
	"galaxy-render/logger"
	"galaxy-render/scene"
)

var ErrInvalid = errors.New("invalid config")

// Config is the on-disk configuration. Keys missing from the file keep the
// values from Default.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Camera   CameraConfig   `yaml:"camera"`
	Fields   []FieldConfig  `yaml:"fields"`
	Haze     HazeConfig     `yaml:"haze"`
	Bloom    BloomConfig    `yaml:"bloom"`
	Textures TexturesConfig `yaml:"textures"`
	Seed     int64          `yaml:"seed"` // 0 picks a time-based seed
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type WindowConfig struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Title   string `yaml:"title"`
	VSync   bool   `yaml:"vsync"`
	Samples int    `yaml:"samples"`
}

type CameraConfig struct {
	FOV        float32    `yaml:"fov"` // degrees
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	Position   [3]float32 `yaml:"position"`
	Target     [3]float32 `yaml:"target"`
	AutoRotate float32    `yaml:"auto_rotate"` // radians per second
	Damping    float32    `yaml:"damping"`
}

// FieldConfig describes one star field. Zero sizes and opacity take the star
// material defaults; a missing dyn_trail is enabled for disc fields.
type FieldConfig struct {
	Name     string  `yaml:"name"`
	Mode     string  `yaml:"mode"`
	Count    int     `yaml:"count"`
	Speed    float32 `yaml:"speed"`
	Twist    float32 `yaml:"twist"` // radians
	Layer    string  `yaml:"layer"`
	SizeBase float32 `yaml:"size_base"`
	SizeMult float32 `yaml:"size_mult"`
	Opacity  float32 `yaml:"opacity"`
	DynTrail *bool   `yaml:"dyn_trail"`
}

type TintConfig struct {
	Min string `yaml:"min"`
	Max string `yaml:"max"`
}

type HazeConfig struct {
	Enabled     bool       `yaml:"enabled"`
	Scale       float32    `yaml:"scale"`
	CenterCount int        `yaml:"center_count"`
	ArmCount    int        `yaml:"arm_count"`
	CenterTint  TintConfig `yaml:"center_tint"`
	ArmTint     TintConfig `yaml:"arm_tint"`
	Layer       string     `yaml:"layer"`
	SizeBase    float32    `yaml:"size_base"`
	SizeMult    float32    `yaml:"size_mult"`
	Opacity     float32    `yaml:"opacity"`
}

// BloomConfig holds the bloom switch and its tunables. Values outside
// strength [0,3], radius [0,1] and threshold [0,1] are clamped.
type BloomConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Strength  float32 `yaml:"strength"`
	Radius    float32 `yaml:"radius"`
	Threshold float32 `yaml:"threshold"`
}

// TexturesConfig names the sprite images. An empty path uses the procedural
// soft-circle sprite.
type TexturesConfig struct {
	Particle string `yaml:"particle"`
	Haze     string `yaml:"haze"`
	OnError  string `yaml:"on_error"` // abort or fallback
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics listener
}

// Default returns the built-in galaxy: one disc, three spiral arms and the
// haze, with bloom enabled.
func Default() *Config {
	bloom := scene.DefaultBloomParams()
	star := scene.StarMaterial(&scene.Field{})
	haze := scene.HazeMaterial()

	cfg := &Config{
		Window: WindowConfig{Width: 1280, Height: 720, Title: "Galaxy", VSync: true, Samples: 4},
		Camera: CameraConfig{
			FOV:      45,
			Near:     0.1,
			Far:      1000,
			Position: [3]float32{0, 1.5, 3},
			Damping:  0.05,
		},
		Haze: HazeConfig{
			Enabled:     true,
			Scale:       scene.HazeScale,
			CenterCount: 1000,
			ArmCount:    3000,
			CenterTint:  TintConfig{Min: "#8c664d", Max: "#ffd9a6"},
			ArmTint:     TintConfig{Min: "#334d8c", Max: "#8cb3ff"},
			Layer:       "base",
			SizeBase:    haze.SizeBase,
			SizeMult:    haze.SizeMult,
			Opacity:     haze.Opacity,
		},
		Bloom: BloomConfig{
			Enabled:   true,
			Strength:  bloom.Strength,
			Radius:    bloom.Radius,
			Threshold: bloom.Threshold,
		},
		Textures: TexturesConfig{OnError: "fallback"},
		Log:      LogConfig{Level: "info", Encoding: "console"},
	}

	for _, fs := range scene.DefaultGalaxySpec().Fields {
		cfg.Fields = append(cfg.Fields, FieldConfig{
			Name:     fs.Name,
			Mode:     fs.Field.Mode.String(),
			Count:    fs.Field.Count,
			Speed:    fs.Field.Speed,
			Twist:    fs.Field.Twist,
			Layer:    fs.Layer.String(),
			SizeBase: star.SizeBase,
			SizeMult: star.SizeMult,
			Opacity:  star.Opacity,
		})
	}
	return cfg
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %q: %w", ErrInvalid, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every enum and range that would otherwise fail later.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("%w: camera fov %v", ErrInvalid, c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera near/far %v/%v", ErrInvalid, c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.Damping < 0 || c.Camera.Damping > 1 {
		return fmt.Errorf("%w: camera damping %v", ErrInvalid, c.Camera.Damping)
	}
	for i, f := range c.Fields {
		if _, err := f.nodeSpec(i); err != nil {
			return err
		}
	}
	if c.Haze.Enabled {
		if _, err := c.Haze.nodeSpec(); err != nil {
			return err
		}
	}
	if _, err := scene.ParseTexturePolicy(c.Textures.OnError); err != nil {
		return fmt.Errorf("%w: textures.on_error: %w", ErrInvalid, err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	return nil
}

func (f FieldConfig) nodeSpec(i int) (scene.FieldNodeSpec, error) {
	mode, err := scene.ParseMode(f.Mode)
	if err != nil {
		return scene.FieldNodeSpec{}, fmt.Errorf("%w: fields[%d]: %w", ErrInvalid, i, err)
	}
	if f.Count < 0 {
		return scene.FieldNodeSpec{}, fmt.Errorf("%w: fields[%d]: negative count %d", ErrInvalid, i, f.Count)
	}
	layerName := f.Layer
	if layerName == "" {
		layerName = "bloom"
	}
	layer, err := scene.ParseLayer(layerName)
	if err != nil {
		return scene.FieldNodeSpec{}, fmt.Errorf("%w: fields[%d]: %w", ErrInvalid, i, err)
	}

	name := f.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", mode, i)
	}
	spec := scene.FieldSpec{Mode: mode, Count: f.Count, Speed: f.Speed, Twist: f.Twist}

	mat := scene.StarMaterial(&scene.Field{Mode: mode, Speed: f.Speed})
	if f.SizeBase > 0 {
		mat.SizeBase = f.SizeBase
	}
	if f.SizeMult > 0 {
		mat.SizeMult = f.SizeMult
	}
	if f.Opacity > 0 {
		mat.Opacity = mgl32.Clamp(f.Opacity, 0, 1)
	}
	if f.DynTrail != nil {
		mat.DynTrail = *f.DynTrail
	}

	return scene.FieldNodeSpec{Name: name, Field: spec, Layer: layer, Material: mat}, nil
}

func (t TintConfig) tint(name string) (scene.Tint, error) {
	lo, err := core.ColorFromHex(t.Min)
	if err != nil {
		return scene.Tint{}, fmt.Errorf("%w: %s.min: %w", ErrInvalid, name, err)
	}
	hi, err := core.ColorFromHex(t.Max)
	if err != nil {
		return scene.Tint{}, fmt.Errorf("%w: %s.max: %w", ErrInvalid, name, err)
	}
	return scene.Tint{Min: lo, Max: hi}, nil
}

func (h HazeConfig) nodeSpec() (*scene.HazeNodeSpec, error) {
	if h.CenterCount < 0 || h.ArmCount < 0 {
		return nil, fmt.Errorf("%w: haze counts %d/%d", ErrInvalid, h.CenterCount, h.ArmCount)
	}
	if h.Scale <= 0 {
		return nil, fmt.Errorf("%w: haze scale %v", ErrInvalid, h.Scale)
	}
	center, err := h.CenterTint.tint("haze.center_tint")
	if err != nil {
		return nil, err
	}
	arm, err := h.ArmTint.tint("haze.arm_tint")
	if err != nil {
		return nil, err
	}
	layer, err := scene.ParseLayer(h.Layer)
	if err != nil {
		return nil, fmt.Errorf("%w: haze: %w", ErrInvalid, err)
	}

	mat := scene.HazeMaterial()
	if h.SizeBase > 0 {
		mat.SizeBase = h.SizeBase
	}
	if h.SizeMult > 0 {
		mat.SizeMult = h.SizeMult
	}
	if h.Opacity > 0 {
		mat.Opacity = mgl32.Clamp(h.Opacity, 0, 1)
	}

	return &scene.HazeNodeSpec{
		Haze: scene.HazeSpec{
			CenterCount: h.CenterCount,
			ArmCount:    h.ArmCount,
			CenterTint:  center,
			ArmTint:     arm,
		},
		Scale:    h.Scale,
		Layer:    layer,
		Material: mat,
	}, nil
}

// GalaxySpec converts the field and haze sections into a scene description.
func (c *Config) GalaxySpec() (scene.GalaxySpec, error) {
	var spec scene.GalaxySpec
	for i, f := range c.Fields {
		ns, err := f.nodeSpec(i)
		if err != nil {
			return scene.GalaxySpec{}, err
		}
		spec.Fields = append(spec.Fields, ns)
	}
	if c.Haze.Enabled {
		haze, err := c.Haze.nodeSpec()
		if err != nil {
			return scene.GalaxySpec{}, err
		}
		spec.Haze = haze
	}
	return spec, nil
}

// BloomParams returns the bloom tunables clamped to their ranges.
func (c *Config) BloomParams() scene.BloomParams {
	return scene.BloomParams{
		Strength:  c.Bloom.Strength,
		Radius:    c.Bloom.Radius,
		Threshold: c.Bloom.Threshold,
	}.Clamp()
}

// TexturePaths maps texture keys to image paths for the loader.
func (c *Config) TexturePaths() map[string]string {
	return map[string]string{
		scene.TextureParticle: c.Textures.Particle,
		scene.TextureHaze:     c.Textures.Haze,
	}
}

func (c *Config) TexturePolicy() scene.TexturePolicy {
	p, _ := scene.ParseTexturePolicy(c.Textures.OnError)
	return p
}

func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Encoding: c.Log.Encoding}
}

func (c *Config) WindowConfig() core.WindowConfig {
	wc := core.DefaultWindowConfig()
	wc.Width = c.Window.Width
	wc.Height = c.Window.Height
	wc.Title = c.Window.Title
	wc.VSync = c.Window.VSync
	wc.Samples = c.Window.Samples
	return wc
}

// NewCamera builds the orbit camera described by the camera section.
func (c *Config) NewCamera(aspect float32) *scene.OrbitCamera {
	cam := scene.NewOrbitCamera(
		mgl32.Vec3(c.Camera.Position),
		mgl32.Vec3(c.Camera.Target),
		mgl32.DegToRad(c.Camera.FOV),
		aspect,
		c.Camera.Near,
		c.Camera.Far,
	)
	cam.DampingFactor = c.Camera.Damping
	cam.AutoRotateSpeed = c.Camera.AutoRotate
	return cam
}
