package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"galaxy-render/math"
)

// FieldNodeSpec describes one star field node of a galaxy.
type FieldNodeSpec struct {
	Name     string
	Field    FieldSpec
	Layer    Layer
	Material *FieldMaterial // nil selects StarMaterial
}

// HazeNodeSpec describes the haze node. Scale maps haze units to world units.
type HazeNodeSpec struct {
	Haze     HazeSpec
	Scale    float32
	Layer    Layer
	Material *FieldMaterial // nil selects HazeMaterial
}

// GalaxySpec is the full set of nodes a galaxy is assembled from.
type GalaxySpec struct {
	Fields []FieldNodeSpec
	Haze   *HazeNodeSpec // nil disables the haze
}

// DefaultGalaxySpec is a disc of 10000 stars with three spiral arms of 4000
// spaced a third of a turn apart, all glowing, over a base-layer haze.
func DefaultGalaxySpec() GalaxySpec {
	arm := func(i int) FieldNodeSpec {
		return FieldNodeSpec{
			Name:  fmt.Sprintf("arm-%d", i),
			Field: FieldSpec{Mode: ModeSpiral, Count: 4000, Speed: 0.1, Twist: float32(i) * 2 * math32.Pi / 3},
			Layer: LayerBloom,
		}
	}
	return GalaxySpec{
		Fields: []FieldNodeSpec{
			{Name: "disc", Field: FieldSpec{Mode: ModeDisc, Count: 10000, Speed: 0.13}, Layer: LayerBloom},
			arm(0),
			arm(1),
			arm(2),
		},
		Haze: &HazeNodeSpec{
			Haze:  DefaultHazeSpec(),
			Scale: HazeScale,
			Layer: LayerBase,
		},
	}
}

// BuildGalaxy generates every field of spec under a new "Galaxy" group node
// and attaches the group once all fields are valid. Fields are generated in
// order from one rng so a fixed seed reproduces the same scene.
func BuildGalaxy(s *Scene, rng math.Source, spec GalaxySpec) (*Node, error) {
	group := NewNode("Galaxy")

	for _, fs := range spec.Fields {
		field := GenerateField(rng, fs.Field)
		mat := fs.Material
		if mat == nil {
			mat = StarMaterial(field)
		}
		if err := s.AddNode(group, NewFieldNode(fs.Name, field, mat, fs.Layer)); err != nil {
			return nil, err
		}
	}

	if spec.Haze != nil {
		field := GenerateHaze(rng, spec.Haze.Haze)
		mat := spec.Haze.Material
		if mat == nil {
			mat = HazeMaterial()
		}
		node := NewFieldNode("haze", field, mat, spec.Haze.Layer)
		node.SetScale(spec.Haze.Scale)
		if err := s.AddNode(group, node); err != nil {
			return nil, err
		}
	}

	if err := s.AddNode(nil, group); err != nil {
		return nil, err
	}
	return group, nil
}
