package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"galaxy-render/scene"
)

// ── Field shaders ────────────────────────────────────────────────────────────

// Each star is one instance of a unit quad. Per-instance attributes carry the
// generated position and colour; the quad is expanded in view space so it
// always faces the camera.
const fieldVertSrc = `
#version 410 core
layout(location = 0) in vec2 inCorner;
layout(location = 1) in vec3 pos;
layout(location = 2) in vec3 col;

uniform mat4  uModel;
uniform mat4  uView;
uniform mat4  uProj;
uniform float uTime;

uniform vec3  uMouse;
uniform float u_speed;
uniform bool  u_dyn_trail;
uniform vec3  uCamPos;
uniform float uSizeBase;
uniform float uSizeMult;

out vec2 vUV;
out vec3 vColor;

const float trailRadius = 0.35;

float hash(float n) {
    return fract(sin(n) * 43758.5453123);
}

void main() {
    // Inner stars orbit faster than outer ones.
    float r     = length(pos.xz);
    float angle = -uTime * u_speed * (1.0 + 0.6 / (1.0 + r));
    float s = sin(angle), c = cos(angle);
    vec3 p = vec3(pos.x * c - pos.z * s, pos.y, pos.x * s + pos.z * c);

    vec4 world = uModel * vec4(p, 1.0);

    // Stars near the pointer gather onto a small sphere around it.
    if (u_dyn_trail) {
        vec3  toStar = world.xyz - uMouse;
        float d      = length(toStar);
        float pull   = 1.0 - smoothstep(0.0, trailRadius, d);
        vec3  dir    = d > 1e-5 ? toStar / d : vec3(0.0, 1.0, 0.0);
        world.xyz    = mix(world.xyz, uMouse + dir * trailRadius * 0.5, pull);
    }

    float size = uSizeBase + uSizeMult * hash(float(gl_InstanceID) + 0.5);
    // Keep distant sprites visible when zoomed out.
    size *= clamp(length(uCamPos - world.xyz) / 3.0, 0.75, 2.0);

    vec4 view = uView * world;
    view.xy  += inCorner * size;
    gl_Position = uProj * view;

    vUV    = inCorner + 0.5;
    vColor = col;
}
` + "\x00"

const fieldFragSrc = `
#version 410 core
in vec2 vUV;
in vec3 vColor;

out vec4 outColor;

uniform sampler2D u_Texture;
uniform float     uOpacity;

void main() {
    vec4  t    = texture(u_Texture, vUV);
    // Works for alpha sprites and for opaque glow images on black.
    float mask = t.a * dot(t.rgb, vec3(0.299, 0.587, 0.114));
    outColor = vec4(vColor, mask * uOpacity);
}
` + "\x00"

// quadCorners is the unit quad as two triangles.
var quadCorners = []float32{
	-0.5, -0.5, 0.5, -0.5, 0.5, 0.5,
	-0.5, -0.5, 0.5, 0.5, -0.5, 0.5,
}

// ── Field program ────────────────────────────────────────────────────────────

// fieldProgram owns the point-sprite shader and its uniform locations.
// Per-field uniforms are looked up by the names in scene.FieldUniformNames and
// set from FieldMaterial.Uniforms.
type fieldProgram struct {
	prog uint32

	modelLoc int32
	viewLoc  int32
	projLoc  int32
	timeLoc  int32
	locs     map[string]int32

	quadVBO uint32
}

func newFieldProgram() (*fieldProgram, error) {
	prog, err := newProgram(fieldVertSrc, fieldFragSrc)
	if err != nil {
		return nil, fmt.Errorf("field shader: %w", err)
	}

	loc := func(name string) int32 {
		return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
	}
	fp := &fieldProgram{
		prog:     prog,
		modelLoc: loc("uModel"),
		viewLoc:  loc(scene.UniformView),
		projLoc:  loc(scene.UniformProj),
		timeLoc:  loc(scene.UniformTime),
		locs:     make(map[string]int32, len(scene.FieldUniformNames)),
	}
	for _, name := range scene.FieldUniformNames {
		l := loc(name)
		if l < 0 {
			gl.DeleteProgram(prog)
			return nil, fmt.Errorf("field shader: uniform %s not found", name)
		}
		fp.locs[name] = l
	}

	gl.GenBuffers(1, &fp.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, fp.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadCorners)*4, gl.Ptr(quadCorners), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return fp, nil
}

// setFrame uploads the matrices and time shared by every field in a pass.
func (fp *fieldProgram) setFrame(frame scene.FrameUniforms) {
	gl.UseProgram(fp.prog)
	gl.UniformMatrix4fv(fp.viewLoc, 1, false, &frame.View[0])
	gl.UniformMatrix4fv(fp.projLoc, 1, false, &frame.Proj[0])
	gl.Uniform1f(fp.timeLoc, frame.Time)
}

// setMaterial uploads the per-field uniforms and binds the sprite texture.
func (fp *fieldProgram) setMaterial(model mgl32.Mat4, mat *scene.FieldMaterial, frame scene.FrameUniforms) {
	gl.UniformMatrix4fv(fp.modelLoc, 1, false, &model[0])
	for name, v := range mat.Uniforms(frame) {
		l := fp.locs[name]
		switch v := v.(type) {
		case float32:
			gl.Uniform1f(l, v)
		case bool:
			gl.Uniform1i(l, boolToInt32(v))
		case int32:
			gl.Uniform1i(l, v)
		case mgl32.Vec3:
			gl.Uniform3f(l, v.X(), v.Y(), v.Z())
		}
	}

	gl.ActiveTexture(gl.TEXTURE0)
	if mat.Texture != nil {
		gl.BindTexture(gl.TEXTURE_2D, mat.Texture.GLID)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
}

func (fp *fieldProgram) destroy() {
	gl.DeleteBuffers(1, &fp.quadVBO)
	gl.DeleteProgram(fp.prog)
}

// ── GPU field buffers ────────────────────────────────────────────────────────

// GPUField holds the OpenGL objects for an uploaded field. Buffers are static:
// fields never change after generation.
type GPUField struct {
	VAO       uint32
	PosVBO    uint32
	ColVBO    uint32
	Instances int32
}

// uploadField creates the VAO for field: the shared quad at location 0 and the
// per-instance pos/col buffers at locations 1 and 2.
func (fp *fieldProgram) uploadField(field *scene.Field) *GPUField {
	gpu := &GPUField{Instances: int32(field.Count)}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, fp.quadVBO)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))

	upload := func(vbo *uint32, loc uint32, data []float32) {
		gl.GenBuffers(1, vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, *vbo)
		if len(data) > 0 {
			gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
		}
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, 3, gl.FLOAT, false, 3*4, gl.PtrOffset(0))
		gl.VertexAttribDivisor(loc, 1)
	}
	upload(&gpu.PosVBO, 1, field.Positions)
	upload(&gpu.ColVBO, 2, field.Colors)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return gpu
}

func (g *GPUField) release() {
	gl.DeleteVertexArrays(1, &g.VAO)
	gl.DeleteBuffers(1, &g.PosVBO)
	gl.DeleteBuffers(1, &g.ColVBO)
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
