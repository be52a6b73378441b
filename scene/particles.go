package scene

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"galaxy-render/math"
)

// Mode selects the distribution a star field is generated with.
type Mode int

const (
	ModeDisc   Mode = iota + 1 // flattened circular cloud
	ModeSpiral                 // logarithmic spiral arm
)

var ErrUnknownMode = errors.New("unknown field mode")

func (m Mode) String() string {
	switch m {
	case ModeDisc:
		return "disc"
	case ModeSpiral:
		return "spiral"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a config name to a Mode. Unknown names are rejected here so
// the generator never sees them.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "disc":
		return ModeDisc, nil
	case "spiral":
		return ModeSpiral, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Field is a generated point cloud. Positions and Colors both hold Count
// xyz / rgb triples and are not modified after generation. Haze fields carry
// a zero Mode.
type Field struct {
	Count     int
	Mode      Mode
	Speed     float32
	Twist     float32
	Positions []float32
	Colors    []float32
}

func newField(count int) *Field {
	return &Field{
		Count:     count,
		Positions: make([]float32, count*3),
		Colors:    make([]float32, count*3),
	}
}

func (f *Field) set(i int, x, y, z, r, g, b float32) {
	f.Positions[i*3+0] = x
	f.Positions[i*3+1] = y
	f.Positions[i*3+2] = z
	f.Colors[i*3+0] = r
	f.Colors[i*3+1] = g
	f.Colors[i*3+2] = b
}

// Position returns the i-th particle position.
func (f *Field) Position(i int) (x, y, z float32) {
	return f.Positions[i*3], f.Positions[i*3+1], f.Positions[i*3+2]
}

// Color returns the i-th particle colour.
func (f *Field) Color(i int) (r, g, b float32) {
	return f.Colors[i*3], f.Colors[i*3+1], f.Colors[i*3+2]
}

// FieldFromBuffers wraps existing xyz/rgb buffers, e.g. read back from an
// exported file. Both must hold the same whole number of triples.
func FieldFromBuffers(positions, colors []float32) (*Field, error) {
	if len(positions)%3 != 0 || len(positions) != len(colors) {
		return nil, fmt.Errorf("field buffers: %d positions, %d colors", len(positions), len(colors))
	}
	return &Field{Count: len(positions) / 3, Positions: positions, Colors: colors}, nil
}

// ── Sequence partition ───────────────────────────────────────────────────────

// sequencePercent splits a field into five contiguous runs (sums to 100).
// Spiral arms use the run index to walk outward along the curve.
var sequencePercent = [...]int{5, 10, 15, 25, 45}

// SequenceCount is the number of partitions a field is split into.
const SequenceCount = len(sequencePercent)

// SequenceWeights returns the partition weights as fractions of 1.
func SequenceWeights() []float64 {
	w := make([]float64, len(sequencePercent))
	for i, p := range sequencePercent {
		w[i] = float64(p) / 100
	}
	return w
}

// Range is a half-open index range [Start, End).
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

// Partition splits [0, count) into SequenceCount contiguous ranges. Each
// boundary is count times the cumulative weight, truncated; the last range
// always ends at count.
func Partition(count int) []Range {
	if count < 0 {
		count = 0
	}
	ranges := make([]Range, len(sequencePercent))
	start, cum := 0, 0
	for j, p := range sequencePercent {
		cum += p
		end := count * cum / 100
		if j == len(sequencePercent)-1 {
			end = count
		}
		ranges[j] = Range{Start: start, End: end}
		start = end
	}
	return ranges
}

// ── Star field generator ─────────────────────────────────────────────────────

// FieldSpec describes one star field. Speed and Twist are carried through to
// the material and generator respectively.
type FieldSpec struct {
	Mode  Mode
	Count int
	Speed float32 // angular speed fed to the u_speed uniform
	Twist float32 // rotation of spiral arms about Y, radians
}

// Disc and spiral share one radial extent so the two modes line up.
const (
	discMinRadius = 0.01
	discMaxRadius = 2.8

	spiralA     = 1.0
	spiralB     = 0.2
	spiralScale = 0.05
	spiralMaxT  = 20.0

	bulgeHeight = 0.01
	bulgeGain   = 6.5
)

// GenerateField builds position and colour buffers for spec. Disc fields use
// polar placement with a smoothstep bulge; spiral fields sample a closed-form
// logarithmic spiral with scatter that widens towards the rim.
func GenerateField(rng math.Source, spec FieldSpec) *Field {
	count := spec.Count
	if count < 0 {
		count = 0
	}
	f := newField(count)
	f.Mode, f.Speed, f.Twist = spec.Mode, spec.Speed, spec.Twist

	for j, rg := range Partition(count) {
		for i := rg.Start; i < rg.End; i++ {
			switch spec.Mode {
			case ModeDisc:
				discParticle(rng, f, i)
			case ModeSpiral:
				spiralParticle(rng, f, i, j, spec.Twist)
			default:
				panic(fmt.Sprintf("scene: GenerateField with %v", spec.Mode))
			}
		}
	}
	return f
}

// bulge lifts particles near the centre more than those at the rim.
func bulge(rng math.Source, rPerc float32) float32 {
	s := math.Smoothstep(1-rPerc) * bulgeGain
	return (rng.Float32() - 0.5) * bulgeHeight * s * s
}

func discParticle(rng math.Source, f *Field, i int) {
	theta := rng.Float32() * 2 * math32.Pi
	rPerc := rng.Float32()
	r := math.Lerp(discMinRadius, discMaxRadius, rPerc)
	s, c := math32.Sincos(theta)

	x := r * c
	z := r * s
	y := bulge(rng, rPerc)

	f.set(i, x, y, z,
		rng.Float32()*0.5+0.5,
		rng.Float32()*0.5+0.5,
		rng.Float32()*0.5+0.5,
	)
}

func spiralParticle(rng math.Source, f *Field, i, j int, twist float32) {
	const band = spiralMaxT / SequenceCount
	t := float32(j)*band + rng.Float32()*band
	scatter := math.Lerp(0.1, 7.5, t/spiralMaxT)

	curve := spiralA * math32.Exp(spiralB*t)
	st, ct := math32.Sincos(t)
	ox := spiralScale * (curve*ct + rng.Float32()*scatter - scatter/2)
	oz := spiralScale * (curve*st + rng.Float32()*scatter - scatter/2)

	rPerc := math32.Sqrt(ox*ox+oz*oz) / discMaxRadius
	y := bulge(rng, rPerc)
	x, z := math.RotateY(ox, oz, twist)

	// Inner stars are white, outer stars shift to blue.
	p := math.Clamp01(rPerc)
	inner := (1 - p) * (1 - p)
	outer := math32.Sqrt(p)
	f.set(i, x, y, z,
		math.Clamp01(rng.Float32()*outer+inner),
		math.Clamp01(rng.Float32()*outer+inner),
		math.Clamp01(rng.Float32()*inner+outer),
	)
}
