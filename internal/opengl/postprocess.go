package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"galaxy-render/scene"
)

// ── Shaders ───────────────────────────────────────────────────────────────────

// ppVertSrc: fullscreen triangle via gl_VertexID (no VBO needed).
const ppVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

// ppOutputFragSrc: adds the bloom result to the base layer, then exposure,
// exponential tone mapping and gamma 2.2.
const ppOutputFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D baseTex;   // unit 0
uniform sampler2D bloomTex;  // unit 1
uniform bool      hasBloom;
uniform float     exposure;

void main() {
    vec3 hdr = texture(baseTex, fragUV).rgb;
    if (hasBloom) {
        hdr += texture(bloomTex, fragUV).rgb;
    }

    vec3 mapped = vec3(1.0) - exp(-hdr * exposure);
    mapped = pow(mapped, vec3(1.0 / 2.2));

    outColor = vec4(mapped, 1.0);
}
` + "\x00"

// ppBrightFragSrc: keeps pixels whose luminance exceeds the threshold.
const ppBrightFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D hdrBuffer;
uniform float     threshold;

void main() {
    vec3  color = texture(hdrBuffer, fragUV).rgb;
    float luma  = dot(color, vec3(0.2126, 0.7152, 0.0722));
    outColor = vec4(color * smoothstep(threshold, threshold + 0.05, luma), 1.0);
}
` + "\x00"

// ppBlurFragSrc: single-axis 5-tap Gaussian blur.
// texelDir = (spread/w, 0) for horizontal, (0, spread/h) for vertical.
const ppBlurFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D blurTex;
uniform vec2      texelDir;

void main() {
    const float w[5] = float[](0.0625, 0.25, 0.375, 0.25, 0.0625);
    vec3 result = vec3(0.0);
    for (int i = -2; i <= 2; i++) {
        result += texture(blurTex, fragUV + float(i) * texelDir).rgb * w[i + 2];
    }
    outColor = vec4(result, 1.0);
}
` + "\x00"

// ppBloomMixFragSrc: sharp bloom-layer render plus the scaled glow.
const ppBloomMixFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D sceneTex; // unit 0
uniform sampler2D glowTex;  // unit 1
uniform float     strength;

void main() {
    vec3 color = texture(sceneTex, fragUV).rgb + texture(glowTex, fragUV).rgb * strength;
    outColor = vec4(color, 1.0);
}
` + "\x00"

// ── Render targets ────────────────────────────────────────────────────────────

// RenderTarget is an off-screen RGBA16F colour buffer.
type RenderTarget struct {
	FBO      uint32
	ColorTex uint32
	Width    int32
	Height   int32
}

func newRenderTarget(width, height int32) (*RenderTarget, error) {
	t := &RenderTarget{}
	if err := t.alloc(width, height); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *RenderTarget) alloc(width, height int32) error {
	t.Width = max(width, 1)
	t.Height = max(height, 1)

	gl.GenTextures(1, &t.ColorTex)
	gl.BindTexture(gl.TEXTURE_2D, t.ColorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F,
		t.Width, t.Height, 0, gl.RGBA, gl.HALF_FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &t.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_2D, t.ColorTex, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		t.free()
		return fmt.Errorf("framebuffer %dx%d incomplete (0x%X)", t.Width, t.Height, status)
	}
	return nil
}

func (t *RenderTarget) free() {
	if t.FBO != 0 {
		gl.DeleteFramebuffers(1, &t.FBO)
		t.FBO = 0
	}
	if t.ColorTex != 0 {
		gl.DeleteTextures(1, &t.ColorTex)
		t.ColorTex = 0
	}
}

func (t *RenderTarget) resize(width, height int32) error {
	t.free()
	return t.alloc(width, height)
}

// bind makes the target current and clears it to transparent black.
func (t *RenderTarget) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)
	gl.Viewport(0, 0, t.Width, t.Height)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// ── Bloom composer ────────────────────────────────────────────────────────────

// BloomComposer renders the bloom layer off-screen and turns it into a glow
// texture: bright-pass → ping-pong Gaussian blur → mix with the sharp render.
// The result is never presented directly; the output pass adds it to the base
// layer.
type BloomComposer struct {
	Scene  *RenderTarget // bloom-layer render, full resolution
	Result *RenderTarget // Scene + glow * strength, full resolution
	ping   [2]*RenderTarget

	brightProg      uint32
	brightThreshLoc int32
	blurProg        uint32
	blurDirLoc      int32
	mixProg         uint32
	mixStrengthLoc  int32

	Params scene.BloomParams
	Passes int // number of H+V blur pairs
}

func newBloomComposer(width, height int32) (*BloomComposer, error) {
	b := &BloomComposer{Params: scene.DefaultBloomParams(), Passes: 4}

	var err error
	if b.brightProg, err = newProgram(ppVertSrc, ppBrightFragSrc); err != nil {
		return nil, fmt.Errorf("bright-pass shader: %w", err)
	}
	b.brightThreshLoc = gl.GetUniformLocation(b.brightProg, gl.Str("threshold\x00"))
	gl.UseProgram(b.brightProg)
	gl.Uniform1i(gl.GetUniformLocation(b.brightProg, gl.Str("hdrBuffer\x00")), 0)

	if b.blurProg, err = newProgram(ppVertSrc, ppBlurFragSrc); err != nil {
		b.destroy()
		return nil, fmt.Errorf("blur shader: %w", err)
	}
	b.blurDirLoc = gl.GetUniformLocation(b.blurProg, gl.Str("texelDir\x00"))
	gl.UseProgram(b.blurProg)
	gl.Uniform1i(gl.GetUniformLocation(b.blurProg, gl.Str("blurTex\x00")), 0)

	if b.mixProg, err = newProgram(ppVertSrc, ppBloomMixFragSrc); err != nil {
		b.destroy()
		return nil, fmt.Errorf("bloom mix shader: %w", err)
	}
	b.mixStrengthLoc = gl.GetUniformLocation(b.mixProg, gl.Str("strength\x00"))
	gl.UseProgram(b.mixProg)
	gl.Uniform1i(gl.GetUniformLocation(b.mixProg, gl.Str("sceneTex\x00")), 0)
	gl.Uniform1i(gl.GetUniformLocation(b.mixProg, gl.Str("glowTex\x00")), 1)

	if err := b.allocTargets(width, height); err != nil {
		b.destroy()
		return nil, err
	}
	return b, nil
}

func (b *BloomComposer) allocTargets(width, height int32) error {
	var err error
	if b.Scene, err = newRenderTarget(width, height); err != nil {
		return fmt.Errorf("bloom scene target: %w", err)
	}
	if b.Result, err = newRenderTarget(width, height); err != nil {
		return fmt.Errorf("bloom result target: %w", err)
	}
	// Half-resolution blur targets
	for i := range b.ping {
		if b.ping[i], err = newRenderTarget(width/2, height/2); err != nil {
			return fmt.Errorf("bloom blur target: %w", err)
		}
	}
	return nil
}

func (b *BloomComposer) freeTargets() {
	for _, t := range []*RenderTarget{b.Scene, b.Result, b.ping[0], b.ping[1]} {
		if t != nil {
			t.free()
		}
	}
}

func (b *BloomComposer) resize(width, height int32) error {
	b.freeTargets()
	return b.allocTargets(width, height)
}

// compose turns the bloom-layer render in Scene into Result. The fullscreen
// triangle VAO must be bound.
func (b *BloomComposer) compose() {
	p := b.Params.Clamp()

	// ── Step 1: bright-pass → ping[0] ─────────────────────────────────────
	b.ping[0].bind()
	gl.UseProgram(b.brightProg)
	gl.Uniform1f(b.brightThreshLoc, p.Threshold)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.Scene.ColorTex)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	// ── Step 2: ping-pong Gaussian blur ───────────────────────────────────
	// Each pair does H (src→dst) then V (dst→src), so the result always
	// ends up back in ping[0]. Radius widens the tap spacing.
	spread := 1 + p.Radius*3
	w, h := float32(b.ping[0].Width), float32(b.ping[0].Height)
	src, dst := 0, 1
	gl.UseProgram(b.blurProg)
	for i := 0; i < b.Passes*2; i++ {
		gl.BindFramebuffer(gl.FRAMEBUFFER, b.ping[dst].FBO)
		if i%2 == 0 { // horizontal
			gl.Uniform2f(b.blurDirLoc, spread/w, 0)
		} else { // vertical
			gl.Uniform2f(b.blurDirLoc, 0, spread/h)
		}
		gl.BindTexture(gl.TEXTURE_2D, b.ping[src].ColorTex)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
		src, dst = dst, src
	}

	// ── Step 3: sharp render + glow → Result ──────────────────────────────
	b.Result.bind()
	gl.UseProgram(b.mixProg)
	gl.Uniform1f(b.mixStrengthLoc, p.Strength)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.Scene.ColorTex)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, b.ping[0].ColorTex)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (b *BloomComposer) destroy() {
	b.freeTargets()
	for _, prog := range []*uint32{&b.brightProg, &b.blurProg, &b.mixProg} {
		if *prog != 0 {
			gl.DeleteProgram(*prog)
			*prog = 0
		}
	}
}

// ── Output pass ───────────────────────────────────────────────────────────────

// outputPass resolves the base-layer HDR target (plus an optional bloom
// result) to the default framebuffer.
type outputPass struct {
	prog        uint32
	hasBloomLoc int32
	exposureLoc int32
	Exposure    float32
}

func newOutputPass() (*outputPass, error) {
	prog, err := newProgram(ppVertSrc, ppOutputFragSrc)
	if err != nil {
		return nil, fmt.Errorf("output shader: %w", err)
	}
	o := &outputPass{
		prog:        prog,
		hasBloomLoc: gl.GetUniformLocation(prog, gl.Str("hasBloom\x00")),
		exposureLoc: gl.GetUniformLocation(prog, gl.Str("exposure\x00")),
		Exposure:    1.0,
	}
	gl.UseProgram(prog)
	gl.Uniform1i(gl.GetUniformLocation(prog, gl.Str("baseTex\x00")), 0)
	gl.Uniform1i(gl.GetUniformLocation(prog, gl.Str("bloomTex\x00")), 1)
	return o, nil
}

// draw writes to FBO 0. bloomTex = 0 skips the mix.
func (o *outputPass) draw(base *RenderTarget, bloomTex uint32, width, height int32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, width, height)
	gl.UseProgram(o.prog)
	gl.Uniform1f(o.exposureLoc, o.Exposure)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, base.ColorTex)
	if bloomTex != 0 {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, bloomTex)
		gl.Uniform1i(o.hasBloomLoc, 1)
	} else {
		gl.Uniform1i(o.hasBloomLoc, 0)
	}
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (o *outputPass) destroy() {
	if o.prog != 0 {
		gl.DeleteProgram(o.prog)
		o.prog = 0
	}
}
