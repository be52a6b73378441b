package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// ScreenToRay converts a screen-space pointer position to a world-space ray.
func ScreenToRay(mouseX, mouseY, screenWidth, screenHeight float32, camera *Camera) Ray {
	// Normalized device coordinates (-1 to 1)
	ndcX := (2.0*mouseX)/screenWidth - 1.0
	ndcY := 1.0 - (2.0*mouseY)/screenHeight // flip Y

	invViewProj := camera.GetViewProjectionMatrix().Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, invViewProj)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, invViewProj)

	return Ray{
		Origin:    near,
		Direction: far.Sub(near).Normalize(),
	}
}

// GroundHalfExtent bounds the pointer hit plane: a 10×10 square centred on the
// galaxy at y = 0.
const GroundHalfExtent = 5.0

// IntersectGround intersects the ray with the y = 0 plane inside the square
// |x|, |z| <= halfExtent. Rays parallel to the plane or pointing away miss.
func IntersectGround(ray Ray, halfExtent float32) (mgl32.Vec3, bool) {
	dy := ray.Direction.Y()
	if math32.Abs(dy) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := -ray.Origin.Y() / dy
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	p := ray.Origin.Add(ray.Direction.Mul(t))
	if math32.Abs(p.X()) > halfExtent || math32.Abs(p.Z()) > halfExtent {
		return mgl32.Vec3{}, false
	}
	p[1] = 0
	return p, true
}

// Pointer tracks the world-space point under the cursor on the galaxy plane.
// It starts outside the galaxy so the pointer effect is not centred until the
// cursor first crosses the plane.
type Pointer struct {
	Mouse mgl32.Vec3
}

func NewPointer() *Pointer {
	return &Pointer{Mouse: mgl32.Vec3{10, 10, 10}}
}

// Move updates Mouse from a cursor position in window coordinates. A miss
// keeps the previous value. It reports whether the pointer moved.
func (p *Pointer) Move(x, y, width, height float32, camera *Camera) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	hit, ok := IntersectGround(ScreenToRay(x, y, width, height, camera), GroundHalfExtent)
	if !ok {
		return false
	}
	p.Mouse = hit
	return true
}
