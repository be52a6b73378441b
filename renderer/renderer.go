package renderer

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"galaxy-render/core"
	"galaxy-render/internal/opengl"
	"galaxy-render/scene"
)

// RenderEngine is the high-level renderer that drives the OpenGL backend
// through a pass list.
type RenderEngine struct {
	log    *zap.Logger
	gl     *opengl.Renderer
	window *core.Window
	Scene  *scene.Scene
	Stats  *Stats

	passes     []Pass
	textures   scene.TextureSet
	frameStart time.Time
}

// NewRenderEngine creates the GL backend for window. Shader compile or link
// failures are returned here.
func NewRenderEngine(log *zap.Logger, window *core.Window) (*RenderEngine, error) {
	width, height := window.GetFramebufferSize()
	glRenderer, err := opengl.NewRenderer(log, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}

	log.Info("Render engine initialized", zap.Int("width", width), zap.Int("height", height))
	return &RenderEngine{
		log:    log,
		gl:     glRenderer,
		window: window,
		Stats:  NewStats(),
		passes: DirectPasses(),
	}, nil
}

// EnableBloom switches to the selective-bloom pass list.
func (re *RenderEngine) EnableBloom(params scene.BloomParams) error {
	if err := re.gl.EnableBloom(); err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	re.gl.SetBloom(params)
	re.passes = BloomPasses()
	return nil
}

// SetBloomEnabled switches between the bloom and direct pass lists. It has
// no effect until EnableBloom has succeeded once.
func (re *RenderEngine) SetBloomEnabled(on bool) {
	if on && re.gl.HasBloom() {
		re.passes = BloomPasses()
	} else {
		re.passes = DirectPasses()
	}
}

func (re *RenderEngine) BloomEnabled() bool { return len(re.passes) > 1 }

// SetBloom applies new bloom parameters from the next frame on.
func (re *RenderEngine) SetBloom(params scene.BloomParams) {
	re.gl.SetBloom(params)
	re.log.Debug("Bloom parameters updated",
		zap.Float32("strength", params.Strength),
		zap.Float32("radius", params.Radius),
		zap.Float32("threshold", params.Threshold))
}

func (re *RenderEngine) BloomParams() scene.BloomParams { return re.gl.BloomParams() }

// Passes returns the active pass list.
func (re *RenderEngine) Passes() []Pass { return re.passes }

func (re *RenderEngine) SetScene(s *scene.Scene) {
	re.Scene = s
}

// UploadTextures uploads set and binds it to the scene's field materials.
// Must be called from the main thread.
func (re *RenderEngine) UploadTextures(set scene.TextureSet) error {
	re.textures = set
	if err := opengl.UploadTextures(set); err != nil {
		return err
	}
	if re.Scene != nil {
		re.Scene.BindTextures(set)
	}
	return nil
}

// Render runs the pass list for the current scene. The last pass presents
// to the default framebuffer; call Present to swap.
func (re *RenderEngine) Render() error {
	if re.Scene == nil {
		return errors.New("no scene")
	}
	re.frameStart = time.Now()
	re.gl.ResetStats()
	return Run(re.passes, re.Scene, glComposer{re})
}

// Present swaps buffers and records frame statistics. It reports whether
// the FPS estimate changed.
func (re *RenderEngine) Present() bool {
	re.window.SwapBuffers()
	st := re.gl.Stats()
	now := time.Now()
	return re.Stats.ObserveFrame(now, now.Sub(re.frameStart), st.DrawCalls, st.Particles)
}

// Resize resizes the GL targets and the camera aspect ratio.
func (re *RenderEngine) Resize(width, height int) error {
	if err := re.gl.Resize(width, height); err != nil {
		return err
	}
	if re.Scene != nil && re.Scene.Camera != nil && width > 0 && height > 0 {
		re.Scene.Camera.UpdateAspectRatio(float32(width), float32(height))
	}
	return nil
}

// Destroy frees the uploaded textures and every GPU resource of the backend.
func (re *RenderEngine) Destroy() {
	for _, tex := range re.textures {
		opengl.DeleteTexture(tex)
	}
	re.gl.Destroy()
}

// glComposer executes passes against the OpenGL backend.
type glComposer struct {
	re *RenderEngine
}

func (c glComposer) Render(pass Pass, nodes []*scene.Node, frame scene.FrameUniforms) error {
	gl := c.re.gl
	switch pass.Target {
	case TargetBloom:
		if err := gl.BeginBloom(); err != nil {
			c.re.Stats.PassFailed(pass.Name)
			return err
		}
		for _, node := range nodes {
			gl.DrawField(node, frame)
		}
		gl.EndBloom()
	case TargetScreen:
		gl.BeginFinal(c.re.Scene.ClearColor)
		for _, node := range nodes {
			gl.DrawField(node, frame)
		}
		if pass.Present {
			gl.Present()
		}
	default:
		return fmt.Errorf("%w: unknown target %v", ErrInvalidPass, pass.Target)
	}
	if err := gl.CheckError(pass.Name); err != nil {
		c.re.Stats.PassFailed(pass.Name)
		return err
	}
	return nil
}
