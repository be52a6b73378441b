package scene

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHazeDefaultSize(t *testing.T) {
	f := GenerateHaze(rand.New(rand.NewSource(1)), DefaultHazeSpec())
	assertFieldWellFormed(t, f, 7000)
	assert.Len(t, f.Positions, 7000*3)
	assert.Len(t, f.Colors, 7000*3)
}

func TestGenerateHazeRegionTints(t *testing.T) {
	spec := DefaultHazeSpec()
	f := GenerateHaze(rand.New(rand.NewSource(4)), spec)

	within := func(v, a, b float32) bool {
		lo, hi := math32.Min(a, b), math32.Max(a, b)
		return v >= lo-1e-6 && v <= hi+1e-6
	}

	for i := 0; i < f.Count; i++ {
		tint := spec.ArmTint
		if i < spec.CenterCount {
			tint = spec.CenterTint
		}
		r, g, b := f.Color(i)
		require.True(t, within(r, tint.Min.R, tint.Max.R), "particle %d red %v", i, r)
		require.True(t, within(g, tint.Min.G, tint.Max.G), "particle %d green %v", i, g)
		require.True(t, within(b, tint.Min.B, tint.Max.B), "particle %d blue %v", i, b)
	}
}

func TestGenerateHazeRegions(t *testing.T) {
	spec := DefaultHazeSpec()
	f := GenerateHaze(rand.New(rand.NewSource(8)), spec)

	centroid := func(start, end int) (float32, float32) {
		var sx, sz float32
		for i := start; i < end; i++ {
			x, _, z := f.Position(i)
			sx += x
			sz += z
		}
		n := float32(end - start)
		return sx / n, sz / n
	}

	// The blob is centred on the origin.
	cx, cz := centroid(0, spec.CenterCount)
	assert.InDelta(t, 0, cx, 5)
	assert.InDelta(t, 0, cz, 5)

	// The arms are offset by π, so their centroids mirror through the origin.
	a1 := spec.CenterCount
	a2 := a1 + spec.ArmCount
	x1, z1 := centroid(a1, a2)
	x2, z2 := centroid(a2, a2+spec.ArmCount)
	assert.Greater(t, math32.Hypot(x1, z1), float32(50))
	assert.InDelta(t, -x1, x2, 15)
	assert.InDelta(t, -z1, z2, 15)
}

func TestGenerateHazeCustomCounts(t *testing.T) {
	spec := DefaultHazeSpec()
	spec.CenterCount = 10
	spec.ArmCount = 20
	f := GenerateHaze(rand.New(rand.NewSource(1)), spec)
	assertFieldWellFormed(t, f, 50)

	spec.ArmCount = -1
	f = GenerateHaze(rand.New(rand.NewSource(1)), spec)
	assertFieldWellFormed(t, f, 10)
}
