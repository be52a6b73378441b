package scene

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galaxy-render/math"
)

func TestPartition10000(t *testing.T) {
	got := Partition(10000)
	want := []Range{{0, 500}, {500, 1500}, {1500, 3000}, {3000, 5500}, {5500, 10000}}
	assert.Equal(t, want, got)
}

func TestPartitionIsExhaustive(t *testing.T) {
	for _, count := range []int{0, 1, 3, 7, 99, 4000, 12345} {
		ranges := Partition(count)
		require.Len(t, ranges, SequenceCount)

		next := 0
		total := 0
		for _, r := range ranges {
			assert.Equal(t, next, r.Start, "count %d", count)
			assert.GreaterOrEqual(t, r.Len(), 0, "count %d", count)
			next = r.End
			total += r.Len()
		}
		assert.Equal(t, count, next, "count %d", count)
		assert.Equal(t, count, total, "count %d", count)
	}
}

func TestSequenceWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range SequenceWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Equal(t, []float64{0.05, 0.10, 0.15, 0.25, 0.45}, SequenceWeights())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("disc")
	require.NoError(t, err)
	assert.Equal(t, ModeDisc, m)

	m, err = ParseMode("spiral")
	require.NoError(t, err)
	assert.Equal(t, ModeSpiral, m)

	_, err = ParseMode("ring")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestGenerateFieldPanicsOnImpossibleMode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Panics(t, func() {
		GenerateField(rng, FieldSpec{Mode: Mode(42), Count: 10})
	})
}

func assertFieldWellFormed(t *testing.T, f *Field, count int) {
	t.Helper()
	require.Equal(t, count, f.Count)
	require.Len(t, f.Positions, count*3)
	require.Len(t, f.Colors, count*3)

	for i, v := range f.Positions {
		require.False(t, math32.IsNaN(v) || math32.IsInf(v, 0), "position component %d = %v", i, v)
	}
	for i, v := range f.Colors {
		require.True(t, v >= 0 && v <= 1, "color component %d = %v", i, v)
	}
}

func TestGenerateFieldBuffers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, mode := range []Mode{ModeDisc, ModeSpiral} {
		for _, count := range []int{0, 1, 5000} {
			f := GenerateField(rng, FieldSpec{Mode: mode, Count: count, Speed: 0.1})
			assertFieldWellFormed(t, f, count)
			assert.Equal(t, mode, f.Mode)
			assert.Equal(t, float32(0.1), f.Speed)
		}
	}
}

func TestGenerateFieldNegativeCount(t *testing.T) {
	f := GenerateField(rand.New(rand.NewSource(1)), FieldSpec{Mode: ModeDisc, Count: -3})
	assertFieldWellFormed(t, f, 0)
}

func TestDiscStaysWithinRadius(t *testing.T) {
	f := GenerateField(rand.New(rand.NewSource(3)), FieldSpec{Mode: ModeDisc, Count: 10000})
	for i := 0; i < f.Count; i++ {
		x, y, z := f.Position(i)
		r := math32.Sqrt(x*x + z*z)
		assert.GreaterOrEqual(t, r, float32(discMinRadius)-1e-4)
		assert.LessOrEqual(t, r, float32(discMaxRadius)+1e-4)
		// Bulge height peaks at 0.5·0.01·6.5² ≈ 0.21.
		assert.LessOrEqual(t, math32.Abs(y), float32(0.22))

		r0, g0, b0 := f.Color(i)
		assert.GreaterOrEqual(t, r0, float32(0.5))
		assert.GreaterOrEqual(t, g0, float32(0.5))
		assert.GreaterOrEqual(t, b0, float32(0.5))
	}
}

func TestSpiralTwistRotatesAboutY(t *testing.T) {
	const twist = 2 * math32.Pi / 3
	base := GenerateField(rand.New(rand.NewSource(9)), FieldSpec{Mode: ModeSpiral, Count: 2000})
	rotated := GenerateField(rand.New(rand.NewSource(9)), FieldSpec{Mode: ModeSpiral, Count: 2000, Twist: twist})

	for i := 0; i < base.Count; i++ {
		x, y, z := base.Position(i)
		wx, wz := math.RotateY(x, z, twist)
		gx, gy, gz := rotated.Position(i)
		assert.InDelta(t, wx, gx, 1e-5)
		assert.InDelta(t, y, gy, 1e-6)
		assert.InDelta(t, wz, gz, 1e-5)
	}
	assert.Equal(t, base.Colors, rotated.Colors)
}

func TestSpiralPartitionsWalkOutward(t *testing.T) {
	f := GenerateField(rand.New(rand.NewSource(11)), FieldSpec{Mode: ModeSpiral, Count: 10000})

	mean := func(r Range) float32 {
		var sum float32
		for i := r.Start; i < r.End; i++ {
			x, _, z := f.Position(i)
			sum += math32.Sqrt(x*x + z*z)
		}
		return sum / float32(r.Len())
	}

	ranges := Partition(f.Count)
	for j := 1; j < len(ranges); j++ {
		assert.Greater(t, mean(ranges[j]), mean(ranges[j-1]), "partition %d", j)
	}
}

func TestGenerateFieldDeterministic(t *testing.T) {
	spec := FieldSpec{Mode: ModeSpiral, Count: 500, Twist: 1}
	a := GenerateField(rand.New(rand.NewSource(5)), spec)
	b := GenerateField(rand.New(rand.NewSource(5)), spec)
	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, a.Colors, b.Colors)
}

func BenchmarkGenerateDisc(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	spec := FieldSpec{Mode: ModeDisc, Count: 10000}
	for i := 0; i < b.N; i++ {
		GenerateField(rng, spec)
	}
}

func BenchmarkGenerateSpiral(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	spec := FieldSpec{Mode: ModeSpiral, Count: 4000}
	for i := 0; i < b.N; i++ {
		GenerateField(rng, spec)
	}
}

func TestFieldFromBuffers(t *testing.T) {
	f, err := FieldFromBuffers([]float32{1, 2, 3, 4, 5, 6}, []float32{0, 0, 0, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Count)
	x, y, z := f.Position(1)
	assert.Equal(t, [3]float32{4, 5, 6}, [3]float32{x, y, z})

	_, err = FieldFromBuffers([]float32{1, 2}, []float32{1, 2})
	assert.Error(t, err)
	_, err = FieldFromBuffers([]float32{1, 2, 3}, nil)
	assert.Error(t, err)
}
