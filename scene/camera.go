package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera represents a perspective view camera
type Camera struct {
	Position    mgl32.Vec3
	Target      mgl32.Vec3
	Up          mgl32.Vec3
	FOV         float32 // vertical, radians
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Up:          mgl32.Vec3{0, 1, 0},
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
	}
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) GetViewProjectionMatrix() mgl32.Mat4 {
	return c.GetProjectionMatrix().Mul4(c.GetViewMatrix())
}

const maxPitch = 1.5

// OrbitCamera orbits a target point. Input accumulates into pending deltas
// that Update drains by DampingFactor each frame, so motion eases out after
// the pointer stops.
type OrbitCamera struct {
	Camera
	Distance float32
	Yaw      float32
	Pitch    float32

	DampingFactor   float32 // 0 applies input immediately
	AutoRotateSpeed float32 // radians per second about the target, 0 = off
	MinDistance     float32
	MaxDistance     float32

	yawDelta   float32
	pitchDelta float32
	zoomScale  float32
}

// NewOrbitCamera places the camera at position looking at target.
func NewOrbitCamera(position, target mgl32.Vec3, fov, aspectRatio, near, far float32) *OrbitCamera {
	c := &OrbitCamera{
		Camera:        *NewCamera(fov, aspectRatio, near, far),
		DampingFactor: 0.05,
		MinDistance:   0.2,
		MaxDistance:   50,
		zoomScale:     1,
	}
	c.Target = target

	offset := position.Sub(target)
	c.Distance = offset.Len()
	if c.Distance > 0 {
		c.Pitch = math32.Asin(mgl32.Clamp(offset.Y()/c.Distance, -1, 1))
		c.Yaw = math32.Atan2(offset.X(), offset.Z())
	}
	c.UpdatePosition()
	return c
}

// UpdatePosition recomputes Position from the spherical coordinates.
func (c *OrbitCamera) UpdatePosition() {
	c.Pitch = mgl32.Clamp(c.Pitch, -maxPitch, maxPitch)

	sinPitch, cosPitch := math32.Sincos(c.Pitch)
	sinYaw, cosYaw := math32.Sincos(c.Yaw)

	offset := mgl32.Vec3{
		c.Distance * cosPitch * sinYaw,
		c.Distance * sinPitch,
		c.Distance * cosPitch * cosYaw,
	}
	c.Position = c.Target.Add(offset)
}

// Orbit queues a rotation in radians.
func (c *OrbitCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.yawDelta += deltaYaw
	c.pitchDelta += deltaPitch
}

// Zoom scales the orbit distance; factors below 1 move closer.
func (c *OrbitCamera) Zoom(factor float32) {
	if factor > 0 {
		c.zoomScale *= factor
	}
}

// Update applies auto-rotation and drains pending input.
func (c *OrbitCamera) Update(deltaTime float32) {
	c.Yaw += c.AutoRotateSpeed * deltaTime

	if c.DampingFactor > 0 {
		c.Yaw += c.yawDelta * c.DampingFactor
		c.Pitch += c.pitchDelta * c.DampingFactor
		c.yawDelta *= 1 - c.DampingFactor
		c.pitchDelta *= 1 - c.DampingFactor
	} else {
		c.Yaw += c.yawDelta
		c.Pitch += c.pitchDelta
		c.yawDelta, c.pitchDelta = 0, 0
	}

	c.Distance = mgl32.Clamp(c.Distance*c.zoomScale, c.MinDistance, c.MaxDistance)
	c.zoomScale = 1

	c.UpdatePosition()
}
