package math

import (
	stdmath "math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLerp(t *testing.T) {
	assert.Equal(t, float32(5), Lerp(0, 10, 0.5))
	assert.Equal(t, float32(0), Lerp(0, 10, 0))
	assert.Equal(t, float32(10), Lerp(0, 10, 1))

	// t is not clamped
	assert.Equal(t, float32(20), Lerp(0, 10, 2))
	assert.Equal(t, float32(-10), Lerp(0, 10, -1))
}

func TestSmoothstep(t *testing.T) {
	assert.Equal(t, float32(0), Smoothstep(0))
	assert.Equal(t, float32(1), Smoothstep(1))
	assert.Equal(t, float32(0.5), Smoothstep(0.5))

	// outside [0,1] the cubic keeps going
	assert.Equal(t, float32(-4), Smoothstep(2))
}

func TestGaussianRandomMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 100000

	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := float64(GaussianRandom(rng, 0, 1))
		require.False(t, stdmath.IsNaN(v) || stdmath.IsInf(v, 0), "sample %d not finite", i)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	stdev := stdmath.Sqrt(sumSq/n - mean*mean)

	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 1, stdev, 0.05)
}

func TestGaussianRandomMeanAndScale(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 50000

	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(GaussianRandom(rng, 200, 100))
	}
	assert.InDelta(t, 200, sum/n, 2.5)
}

// fixedSource replays a fixed list of uniform draws.
type fixedSource struct {
	vals []float32
	i    int
}

func (s *fixedSource) Float32() float32 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestGaussianRandomZeroDrawIsFinite(t *testing.T) {
	// Float32() == 0 would be log(0) without the 1-u flip.
	v := GaussianRandom(&fixedSource{vals: []float32{0}}, 0, 1)
	assert.Equal(t, float32(0), v)
}

func TestSpiralAxisSeed(t *testing.T) {
	p := Spiral(0, 0, 1, 0)
	for i := 0; i < 3; i++ {
		assert.False(t, stdmath.IsNaN(float64(p[i])), "component %d is NaN", i)
		assert.False(t, stdmath.IsInf(float64(p[i]), 0), "component %d is Inf", i)
	}

	// atan(+Inf) = π/2, plus 0.03 of twist for r = 1
	theta := stdmath.Pi/2 + 0.03
	assert.InDelta(t, stdmath.Cos(theta), p[0], 1e-5)
	assert.InDelta(t, stdmath.Sin(theta), p[2], 1e-5)
}

func TestSpiralOrigin(t *testing.T) {
	p := Spiral(0, 3, 0, 1.5)
	assert.Equal(t, float32(0), p[0])
	assert.Equal(t, float32(3), p[1])
	assert.Equal(t, float32(0), p[2])
}

func TestSpiralPreservesRadiusAndHeight(t *testing.T) {
	p := Spiral(30, -2, 40, 0.7)
	r := stdmath.Hypot(float64(p[0]), float64(p[2]))
	assert.InDelta(t, 50, r, 1e-3)
	assert.Equal(t, float32(-2), p[1])
}

func TestSpiralOffsetIsRotation(t *testing.T) {
	a := Spiral(100, 0, 20, 0)
	b := Spiral(100, 0, 20, stdmath.Pi)

	// offset π mirrors the point through the axis
	assert.InDelta(t, -a[0], b[0], 1e-3)
	assert.InDelta(t, -a[2], b[2], 1e-3)
}

func TestRotateY(t *testing.T) {
	x, z := RotateY(1, 0, stdmath.Pi/2)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 1, z, 1e-6)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, float32(0), Clamp01(-0.5))
	assert.Equal(t, float32(1), Clamp01(1.5))
	assert.Equal(t, float32(0.25), Clamp01(0.25))
	assert.Equal(t, float32(0), Clamp01(float32(stdmath.NaN())))
}

func BenchmarkGaussianRandom(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < b.N; i++ {
		_ = GaussianRandom(rng, 0, 1)
	}
}

func BenchmarkSpiral(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Spiral(200, 0, 100, 0)
	}
}
