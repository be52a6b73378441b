package opengl

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galaxy-render/scene"
)

func TestFieldShaderDeclaresMaterialUniforms(t *testing.T) {
	src := fieldVertSrc + fieldFragSrc
	for _, name := range scene.FieldUniformNames {
		decl := regexp.MustCompile(`uniform\s+\w+\s+` + regexp.QuoteMeta(name) + `\s*;`)
		assert.Regexp(t, decl, src, "uniform %s", name)
	}
	for _, name := range []string{scene.UniformView, scene.UniformProj, scene.UniformTime, "uModel"} {
		assert.Contains(t, src, name)
	}
}

func TestMaterialUniformsHaveSettableTypes(t *testing.T) {
	f := scene.GenerateField(rand.New(rand.NewSource(1)), scene.FieldSpec{Mode: scene.ModeDisc, Count: 1})
	u := scene.StarMaterial(f).Uniforms(scene.FrameUniforms{})
	require.Len(t, u, len(scene.FieldUniformNames))
	for name, v := range u {
		switch v.(type) {
		case float32, bool, int32, mgl32.Vec3:
		default:
			t.Errorf("uniform %s has unsupported type %T", name, v)
		}
	}
}
