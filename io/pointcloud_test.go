package io

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galaxy-render/scene"
)

func smallScene(t *testing.T) *scene.Scene {
	t.Helper()
	spec := scene.DefaultGalaxySpec()
	for i := range spec.Fields {
		spec.Fields[i].Field.Count = 50
	}
	spec.Haze.Haze.CenterCount = 10
	spec.Haze.Haze.ArmCount = 20

	s := scene.NewScene()
	_, err := scene.BuildGalaxy(s, rand.New(rand.NewSource(11)), spec)
	require.NoError(t, err)
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	s := smallScene(t)
	path := filepath.Join(t.TempDir(), "galaxy.glb")
	require.NoError(t, ExportGLB(path, s))

	roots, err := ImportGLB(path)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	imported := scene.NewScene()
	require.NoError(t, imported.AddNode(nil, roots[0]))

	want := s.FieldNodes()
	got := imported.FieldNodes()
	require.Len(t, got, len(want))

	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.Name, g.Name)
		assert.Equal(t, w.Layer, g.Layer)
		assert.Equal(t, w.Field.Count, g.Field.Count)
		assert.Equal(t, w.Field.Mode, g.Field.Mode)
		assert.Equal(t, w.Field.Twist, g.Field.Twist)
		assert.Equal(t, w.Field.Positions, g.Field.Positions)
		assert.Equal(t, w.Field.Colors, g.Field.Colors)
		assert.Equal(t, *w.Material, *g.Material)
		assert.InDelta(t, w.Transform.Scale.X(), g.Transform.Scale.X(), 1e-6)
	}
}

func TestBuildDocumentUsesPoints(t *testing.T) {
	doc, err := BuildDocument(smallScene(t))
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 5)
	for _, m := range doc.Meshes {
		require.Len(t, m.Primitives, 1)
		prim := m.Primitives[0]
		assert.Contains(t, prim.Attributes, "POSITION")
		assert.Contains(t, prim.Attributes, "COLOR_0")
	}
}

func TestExportEmptyScene(t *testing.T) {
	err := ExportGLB(filepath.Join(t.TempDir(), "empty.glb"), scene.NewScene())
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestImportMissingFile(t *testing.T) {
	_, err := ImportGLB(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}

// pointsDoc returns a document with one POINTS mesh of two particles, using
// colors as its COLOR_0 data. Nodes are left to the caller.
func pointsDoc(colors any) *gltf.Document {
	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Mode: gltf.PrimitivePoints,
		Attributes: map[string]int{
			"POSITION": modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 2, 3}}),
			"COLOR_0":  modeler.WriteColor(doc, colors),
		},
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: "stars", Primitives: []*gltf.Primitive{prim}})
	return doc
}

func TestFromDocumentRejectsChildCycle(t *testing.T) {
	doc := pointsDoc([][3]float32{{1, 1, 1}, {1, 1, 1}})
	doc.Nodes = []*gltf.Node{
		{Name: "a", Mesh: gltf.Index(0), Children: []int{1}},
		{Name: "b", Children: []int{0}},
	}
	doc.Scenes[0].Nodes = []int{0}

	_, err := FromDocument(doc)
	assert.Error(t, err)
}

func TestFromDocumentRejectsSelfChild(t *testing.T) {
	doc := pointsDoc([][3]float32{{1, 1, 1}, {1, 1, 1}})
	doc.Nodes = []*gltf.Node{{Name: "a", Mesh: gltf.Index(0), Children: []int{0}}}

	_, err := FromDocument(doc)
	assert.Error(t, err)
}

func TestFromDocumentAccessorOutOfRange(t *testing.T) {
	for _, attr := range []string{"POSITION", "COLOR_0"} {
		t.Run(attr, func(t *testing.T) {
			doc := pointsDoc([][3]float32{{1, 1, 1}, {1, 1, 1}})
			doc.Meshes[0].Primitives[0].Attributes[attr] = 42
			doc.Nodes = []*gltf.Node{{Name: "a", Mesh: gltf.Index(0)}}

			_, err := FromDocument(doc)
			assert.ErrorContains(t, err, "out of range")
		})
	}
}

func TestFromDocumentIntegerColors(t *testing.T) {
	cases := map[string]any{
		"rgb8":   [][3]uint8{{255, 0, 0}, {0, 255, 255}},
		"rgba8":  [][4]uint8{{255, 0, 0, 255}, {0, 255, 255, 255}},
		"rgb16":  [][3]uint16{{65535, 0, 0}, {0, 65535, 65535}},
		"rgba16": [][4]uint16{{65535, 0, 0, 65535}, {0, 65535, 65535, 65535}},
	}
	for name, colors := range cases {
		t.Run(name, func(t *testing.T) {
			doc := pointsDoc(colors)
			doc.Nodes = []*gltf.Node{{Name: "a", Mesh: gltf.Index(0)}}
			doc.Scenes[0].Nodes = []int{0}

			roots, err := FromDocument(doc)
			require.NoError(t, err)
			require.Len(t, roots, 1)
			assert.InDeltaSlice(t, []float32{1, 0, 0, 0, 1, 1}, roots[0].Field.Colors, 1e-6)
		})
	}
}
