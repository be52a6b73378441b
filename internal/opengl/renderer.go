package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"galaxy-render/core"
	"galaxy-render/scene"
)

// FrameStats counts the work submitted since the last ResetStats.
type FrameStats struct {
	DrawCalls int
	Particles int
}

// Renderer is the OpenGL rendering backend. It draws field nodes into
// off-screen HDR targets and resolves them to the window.
//
// A frame is one or two passes:
//
//	BeginBloom → DrawField... → EndBloom   (optional, bloom layer)
//	BeginFinal → DrawField... → Present    (base layer, output to screen)
type Renderer struct {
	log *zap.Logger

	fields *fieldProgram
	base   *RenderTarget
	output *outputPass
	bloom  *BloomComposer // nil until EnableBloom

	// Empty VAO for the gl_VertexID fullscreen triangle; core profile
	// requires one to be bound.
	quadVAO uint32

	width, height int32

	gpuFields  map[*scene.Node]*GPUField
	bloomFresh bool
	stats      FrameStats
}

// NewRenderer initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewRenderer(log *zap.Logger, width, height int) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialised",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	fp, err := newFieldProgram()
	if err != nil {
		return nil, err
	}
	out, err := newOutputPass()
	if err != nil {
		fp.destroy()
		return nil, err
	}
	base, err := newRenderTarget(int32(width), int32(height))
	if err != nil {
		fp.destroy()
		out.destroy()
		return nil, fmt.Errorf("base target: %w", err)
	}

	r := &Renderer{
		log:       log,
		fields:    fp,
		base:      base,
		output:    out,
		width:     base.Width,
		height:    base.Height,
		gpuFields: make(map[*scene.Node]*GPUField),
	}
	gl.GenVertexArrays(1, &r.quadVAO)

	// Sprites are order-independent glow; no depth buffer is attached.
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	return r, nil
}

// ── Configuration ─────────────────────────────────────────────────────────────

// EnableBloom allocates the bloom composer. Calling it twice is a no-op.
func (r *Renderer) EnableBloom() error {
	if r.bloom != nil {
		return nil
	}
	b, err := newBloomComposer(r.width, r.height)
	if err != nil {
		return fmt.Errorf("bloom composer: %w", err)
	}
	r.bloom = b
	return nil
}

func (r *Renderer) HasBloom() bool { return r.bloom != nil }

// SetBloom replaces the bloom parameters; they apply on the next bloom pass.
func (r *Renderer) SetBloom(p scene.BloomParams) {
	if r.bloom != nil {
		r.bloom.Params = p.Clamp()
	}
}

// BloomParams returns the active parameters, or the defaults when bloom is off.
func (r *Renderer) BloomParams() scene.BloomParams {
	if r.bloom == nil {
		return scene.DefaultBloomParams()
	}
	return r.bloom.Params
}

// Resize reallocates every target at the new framebuffer size.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil // minimised
	}
	w, h := int32(width), int32(height)
	if w == r.width && h == r.height {
		return nil
	}
	if err := r.base.resize(w, h); err != nil {
		return fmt.Errorf("resize base target: %w", err)
	}
	if r.bloom != nil {
		if err := r.bloom.resize(w, h); err != nil {
			return fmt.Errorf("resize bloom targets: %w", err)
		}
	}
	r.width, r.height = w, h
	r.bloomFresh = false
	return nil
}

func (r *Renderer) Size() (int, int) { return int(r.width), int(r.height) }

// ── Passes ────────────────────────────────────────────────────────────────────

// BeginBloom directs draws to the bloom composer's scene target.
func (r *Renderer) BeginBloom() error {
	if r.bloom == nil {
		return fmt.Errorf("bloom pass: bloom not enabled")
	}
	r.bloom.Scene.bind()
	return nil
}

// EndBloom runs bright-pass, blur and mix. The result is kept for the next
// Present only.
func (r *Renderer) EndBloom() {
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(r.quadVAO)
	r.bloom.compose()
	gl.BindVertexArray(0)
	gl.Enable(gl.BLEND)
	r.bloomFresh = true
}

// BeginFinal directs draws to the base target, cleared to clear.
func (r *Renderer) BeginFinal(clear core.Color) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.base.FBO)
	gl.Viewport(0, 0, r.base.Width, r.base.Height)
	gl.ClearColor(clear.R, clear.G, clear.B, clear.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// Present tone-maps the base target, plus this frame's bloom result if any,
// to the default framebuffer.
func (r *Renderer) Present() {
	var bloomTex uint32
	if r.bloom != nil && r.bloomFresh {
		bloomTex = r.bloom.Result.ColorTex
	}
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(r.quadVAO)
	r.output.draw(r.base, bloomTex, r.width, r.height)
	gl.BindVertexArray(0)
	gl.Enable(gl.BLEND)
	r.bloomFresh = false
}

// ── Drawing ───────────────────────────────────────────────────────────────────

// DrawField draws node's field into the current target. Nodes without a
// field or material are skipped.
func (r *Renderer) DrawField(node *scene.Node, frame scene.FrameUniforms) {
	if node.Field == nil || node.Material == nil || node.Field.Count == 0 {
		return
	}
	gpu := r.ensureUploaded(node)

	switch node.Material.Blend {
	case scene.BlendAlpha:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	default:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	}

	r.fields.setFrame(frame)
	r.fields.setMaterial(node.GetWorldMatrix(), node.Material, frame)

	gl.BindVertexArray(gpu.VAO)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, 6, gpu.Instances)
	gl.BindVertexArray(0)

	r.stats.DrawCalls++
	r.stats.Particles += int(gpu.Instances)
}

func (r *Renderer) ensureUploaded(node *scene.Node) *GPUField {
	if gpu, ok := r.gpuFields[node]; ok {
		return gpu
	}
	gpu := r.fields.uploadField(node.Field)
	r.gpuFields[node] = gpu
	node.GPUData = gpu
	r.log.Debug("Uploaded field",
		zap.String("node", node.Name),
		zap.Int("particles", node.Field.Count))
	return gpu
}

// releaseField frees the GPU buffers of node, if uploaded.
func (r *Renderer) releaseField(node *scene.Node) {
	if gpu, ok := r.gpuFields[node]; ok {
		gpu.release()
		delete(r.gpuFields, node)
		node.GPUData = nil
	}
}

// Stats returns the counters accumulated since the last ResetStats.
func (r *Renderer) Stats() FrameStats { return r.stats }

func (r *Renderer) ResetStats() { r.stats = FrameStats{} }

// CheckError drains the GL error queue and reports the first error seen.
func (r *Renderer) CheckError(stage string) error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: GL error 0x%X", stage, first)
	}
	return nil
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for node := range r.gpuFields {
		r.releaseField(node)
	}
	if r.bloom != nil {
		r.bloom.destroy()
	}
	r.base.free()
	r.output.destroy()
	r.fields.destroy()
	gl.DeleteVertexArrays(1, &r.quadVAO)
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
