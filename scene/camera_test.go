package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVecNear(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}

func TestNewOrbitCameraKeepsPosition(t *testing.T) {
	pos := mgl32.Vec3{0, 1.5, 3}
	c := NewOrbitCamera(pos, mgl32.Vec3{}, mgl32.DegToRad(45), 16.0/9.0, 0.1, 1000)

	assertVecNear(t, pos, c.Position, 1e-5)
	assert.InDelta(t, 3.3541, c.Distance, 1e-3)
	assert.InDelta(t, 0, c.Yaw, 1e-6)
}

func TestOrbitCameraDamping(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 1, 1, 0.1, 100)
	c.Orbit(1, 0)

	c.Update(1.0 / 60)
	first := c.Yaw
	assert.InDelta(t, 0.05, first, 1e-6)

	// Input keeps easing in after it stops and approaches the full delta.
	for i := 0; i < 500; i++ {
		c.Update(1.0 / 60)
	}
	assert.Greater(t, c.Yaw, first)
	assert.InDelta(t, 1, c.Yaw, 1e-3)
}

func TestOrbitCameraWithoutDamping(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 1, 1, 0.1, 100)
	c.DampingFactor = 0
	c.Orbit(0.5, 10)
	c.Update(0)

	assert.InDelta(t, 0.5, c.Yaw, 1e-6)
	assert.InDelta(t, maxPitch, c.Pitch, 1e-6)
}

func TestOrbitCameraZoomAndAutoRotate(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{0, 0, 4}, mgl32.Vec3{}, 1, 1, 0.1, 100)
	c.AutoRotateSpeed = 0.5

	c.Zoom(0.5)
	c.Update(2)
	assert.InDelta(t, 2, c.Distance, 1e-5)
	assert.InDelta(t, 1, c.Yaw, 1e-6)
	assert.InDelta(t, 2, c.Position.Len(), 1e-5)

	c.Zoom(1e-6)
	c.Update(0)
	assert.Equal(t, c.MinDistance, c.Distance)
}

func TestCameraAspect(t *testing.T) {
	c := NewCamera(1, 1, 0.1, 10)
	c.UpdateAspectRatio(1920, 1080)
	assert.InDelta(t, 16.0/9.0, c.AspectRatio, 1e-6)
	c.UpdateAspectRatio(100, 0)
	assert.InDelta(t, 16.0/9.0, c.AspectRatio, 1e-6)
}
