package scene

import (
	"github.com/chewxy/math32"

	"galaxy-render/core"
	"galaxy-render/math"
)

// Tint is a per-channel colour range; each channel is sampled uniformly
// between Min and Max.
type Tint struct {
	Min, Max core.Color
}

func (t Tint) sample(rng math.Source) (r, g, b float32) {
	return math.Clamp01(math.Lerp(t.Min.R, t.Max.R, rng.Float32())),
		math.Clamp01(math.Lerp(t.Min.G, t.Max.G, rng.Float32())),
		math.Clamp01(math.Lerp(t.Min.B, t.Max.B, rng.Float32()))
}

// HazeSpec sizes the three haze regions. Positions are in haze units
// (hundreds across); the haze node is scaled down to galaxy size.
type HazeSpec struct {
	CenterCount int
	ArmCount    int // per arm; the second arm is offset by π
	CenterTint  Tint
	ArmTint     Tint
}

func DefaultHazeSpec() HazeSpec {
	return HazeSpec{
		CenterCount: 1000,
		ArmCount:    3000,
		CenterTint: Tint{
			Min: core.Color{R: 0.55, G: 0.40, B: 0.30, A: 1},
			Max: core.Color{R: 1.00, G: 0.85, B: 0.65, A: 1},
		},
		ArmTint: Tint{
			Min: core.Color{R: 0.20, G: 0.30, B: 0.55, A: 1},
			Max: core.Color{R: 0.55, G: 0.70, B: 1.00, A: 1},
		},
	}
}

// HazeScale maps haze units onto the star field's radius.
const HazeScale = 0.01

// Haze region distributions.
const (
	hazeCenterSpread = 40.0
	hazeVertSpread   = 5.0
	hazeArmMeanX     = 200.0
	hazeArmSpreadX   = 100.0
	hazeArmMeanZ     = 100.0
	hazeArmSpreadZ   = 50.0
)

// GenerateHaze builds the haze field: a Gaussian central blob followed by two
// spiral-warped arms facing each other, in that order.
func GenerateHaze(rng math.Source, spec HazeSpec) *Field {
	center := max(spec.CenterCount, 0)
	arm := max(spec.ArmCount, 0)
	f := newField(center + 2*arm)

	i := 0
	for ; i < center; i++ {
		x := math.GaussianRandom(rng, 0, hazeCenterSpread)
		y := math.GaussianRandom(rng, 0, hazeVertSpread)
		z := math.GaussianRandom(rng, 0, hazeCenterSpread)
		r, g, b := spec.CenterTint.sample(rng)
		f.set(i, x, y, z, r, g, b)
	}

	for _, offset := range [...]float32{0, math32.Pi} {
		for end := i + arm; i < end; i++ {
			p := math.Spiral(
				math.GaussianRandom(rng, hazeArmMeanX, hazeArmSpreadX),
				math.GaussianRandom(rng, 0, hazeVertSpread),
				math.GaussianRandom(rng, hazeArmMeanZ, hazeArmSpreadZ),
				offset,
			)
			r, g, b := spec.ArmTint.sample(rng)
			f.set(i, p.X(), p.Y(), p.Z(), r, g, b)
		}
	}
	return f
}
