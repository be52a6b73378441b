package scene

import "github.com/go-gl/mathgl/mgl32"

// Shader uniform names shared with the point-sprite program. They are part of
// the program's interface and must match the GLSL source exactly.
const (
	UniformMouse    = "uMouse"      // vec3
	UniformSpeed    = "u_speed"     // float
	UniformDynTrail = "u_dyn_trail" // bool
	UniformCamPos   = "uCamPos"     // vec3
	UniformSizeBase = "uSizeBase"   // float
	UniformSizeMult = "uSizeMult"   // float
	UniformOpacity  = "uOpacity"    // float
	UniformTexture  = "u_Texture"   // sampler2D

	UniformView = "uView"
	UniformProj = "uProj"
	UniformTime = "uTime"
)

// FieldUniformNames lists the per-field uniforms in declaration order.
var FieldUniformNames = []string{
	UniformMouse,
	UniformSpeed,
	UniformDynTrail,
	UniformCamPos,
	UniformSizeBase,
	UniformSizeMult,
	UniformOpacity,
	UniformTexture,
}

// BlendMode controls how sprite fragments combine with the framebuffer.
type BlendMode int

const (
	BlendAdditive BlendMode = iota // glow: src*alpha + dst
	BlendAlpha                     // standard alpha blending
)

// FieldMaterial carries the per-field shader inputs. Speed and DynTrail are
// fixed at creation; sizes and opacity may be tweaked between frames.
type FieldMaterial struct {
	Speed    float32
	DynTrail bool
	SizeBase float32 // smallest sprite size in world units
	SizeMult float32 // extra size scaled by a per-instance random factor
	Opacity  float32
	Blend    BlendMode

	// TextureKey names the sprite texture in the loaded TextureSet.
	TextureKey string
	Texture    *Texture
}

// StarMaterial is the default look of a generated star field. Disc fields
// enable the pointer trail.
func StarMaterial(f *Field) *FieldMaterial {
	return &FieldMaterial{
		Speed:      f.Speed,
		DynTrail:   f.Mode == ModeDisc,
		SizeBase:   0.01,
		SizeMult:   0.03,
		Opacity:    1,
		Blend:      BlendAdditive,
		TextureKey: TextureParticle,
	}
}

// HazeMaterial is the default look of the haze field: large, faint sprites.
func HazeMaterial() *FieldMaterial {
	return &FieldMaterial{
		SizeBase:   0.2,
		SizeMult:   0.6,
		Opacity:    0.06,
		Blend:      BlendAdditive,
		TextureKey: TextureHaze,
	}
}

// FrameUniforms holds the values shared by every field in a frame.
type FrameUniforms struct {
	Mouse  mgl32.Vec3
	CamPos mgl32.Vec3
	View   mgl32.Mat4
	Proj   mgl32.Mat4
	Time   float32
}

// Uniforms returns the per-field uniform values keyed by shader name. The
// texture entry is the sampler unit the texture is bound to.
func (m *FieldMaterial) Uniforms(frame FrameUniforms) map[string]interface{} {
	return map[string]interface{}{
		UniformMouse:    frame.Mouse,
		UniformSpeed:    m.Speed,
		UniformDynTrail: m.DynTrail,
		UniformCamPos:   frame.CamPos,
		UniformSizeBase: m.SizeBase,
		UniformSizeMult: m.SizeMult,
		UniformOpacity:  m.Opacity,
		UniformTexture:  int32(0),
	}
}
