package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Source is the uniform random source used by the generators.
// *rand.Rand satisfies it; Float32 must return values in [0, 1).
type Source interface {
	Float32() float32
}

// SpiralTwist is the angular gain per 100 units of radius applied by Spiral.
const SpiralTwist = 3.0

// Lerp interpolates linearly between a and b. t is not clamped.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Smoothstep is the cubic Hermite ease x²(3-2x). Intended for x in [0,1];
// values outside that range are not clamped.
func Smoothstep(x float32) float32 {
	return x * x * (3.0 - 2.0*x)
}

// GaussianRandom draws one normally distributed sample using the cosine branch
// of the Box–Muller transform. u is taken from (0,1] so the log never sees zero.
// Roughly 99.95% of samples fall within ±3.5 stdev.
func GaussianRandom(rng Source, mean, stdev float32) float32 {
	u := 1 - rng.Float32()
	v := rng.Float32()
	z := math32.Sqrt(-2.0*math32.Log(u)) * math32.Cos(2.0*math32.Pi*v)
	return z*stdev + mean
}

// Spiral warps the seed point (x, y, z) around the Y axis. The angle grows with
// the distance from the axis, which turns a Gaussian blob into a spiral arm:
//
//	r     = sqrt(x² + z²)
//	theta = offset + atan(z/x) + (r/100)·3
//
// x = 0 resolves through atan(±Inf) = ±π/2. The degenerate seed x = z = 0 keeps
// theta = offset and maps to the axis.
func Spiral(x, y, z, offset float32) mgl32.Vec3 {
	r := math32.Sqrt(x*x + z*z)
	theta := offset
	if x != 0 || z != 0 {
		theta += math32.Atan(z / x)
	}
	theta += (r / 100) * SpiralTwist
	return mgl32.Vec3{r * math32.Cos(theta), y, r * math32.Sin(theta)}
}

// RotateY rotates (x, z) by angle radians about the vertical axis.
func RotateY(x, z, angle float32) (float32, float32) {
	s, c := math32.Sincos(angle)
	return x*c - z*s, x*s + z*c
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
