// Package io reads and writes generated galaxies as binary glTF point clouds.
//
// Every field node becomes a mesh with one POINTS primitive carrying
// POSITION and COLOR_0. Layer, generator settings and material live in the
// node extras so an exported file renders the same way after import.
package io

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"galaxy-render/scene"
)

var ErrNoFields = errors.New("no field nodes")

type nodeExtras struct {
	Layer    string          `json:"layer,omitempty"`
	Mode     string          `json:"mode,omitempty"`
	Speed    float32         `json:"speed,omitempty"`
	Twist    float32         `json:"twist,omitempty"`
	Material *materialExtras `json:"material,omitempty"`
}

type materialExtras struct {
	Speed    float32 `json:"speed"`
	DynTrail bool    `json:"dyn_trail"`
	SizeBase float32 `json:"size_base"`
	SizeMult float32 `json:"size_mult"`
	Opacity  float32 `json:"opacity"`
	Blend    string  `json:"blend"`
	Texture  string  `json:"texture,omitempty"`
}

// ExportGLB writes the scene graph below the root to path.
func ExportGLB(path string, s *scene.Scene) error {
	doc, err := BuildDocument(s)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save %q: %w", path, err)
	}
	return nil
}

// BuildDocument converts the scene graph below the root into a glTF document.
func BuildDocument(s *scene.Scene) (*gltf.Document, error) {
	if len(s.FieldNodes()) == 0 {
		return nil, ErrNoFields
	}
	doc := gltf.NewDocument()
	for _, child := range s.Root.Children {
		idx := writeNode(doc, child)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, idx)
	}
	return doc, nil
}

// writeNode appends n and its subtree, returning n's index.
func writeNode(doc *gltf.Document, n *scene.Node) int {
	t := n.Transform
	gn := &gltf.Node{
		Name:        n.Name,
		Translation: [3]float64{float64(t.Position.X()), float64(t.Position.Y()), float64(t.Position.Z())},
		Rotation:    [4]float64{float64(t.Rotation.V.X()), float64(t.Rotation.V.Y()), float64(t.Rotation.V.Z()), float64(t.Rotation.W)},
		Scale:       [3]float64{float64(t.Scale.X()), float64(t.Scale.Y()), float64(t.Scale.Z())},
	}
	idx := len(doc.Nodes)
	doc.Nodes = append(doc.Nodes, gn)

	if f := n.Field; f != nil {
		gn.Mesh = gltf.Index(writeField(doc, n.Name, f))
		gn.Extras = extrasFor(n)
	}
	for _, child := range n.Children {
		gn.Children = append(gn.Children, writeNode(doc, child))
	}
	return idx
}

func writeField(doc *gltf.Document, name string, f *scene.Field) int {
	positions := make([][3]float32, f.Count)
	colors := make([][3]float32, f.Count)
	for i := range positions {
		x, y, z := f.Position(i)
		r, g, b := f.Color(i)
		positions[i] = [3]float32{x, y, z}
		colors[i] = [3]float32{r, g, b}
	}

	prim := &gltf.Primitive{
		Mode: gltf.PrimitivePoints,
		Attributes: map[string]int{
			"POSITION": modeler.WritePosition(doc, positions),
			"COLOR_0":  modeler.WriteColor(doc, colors),
		},
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	return len(doc.Meshes) - 1
}

func extrasFor(n *scene.Node) *nodeExtras {
	ex := &nodeExtras{
		Layer: n.Layer.String(),
		Speed: n.Field.Speed,
		Twist: n.Field.Twist,
	}
	if n.Field.Mode != 0 {
		ex.Mode = n.Field.Mode.String()
	}
	if m := n.Material; m != nil {
		blend := "additive"
		if m.Blend == scene.BlendAlpha {
			blend = "alpha"
		}
		ex.Material = &materialExtras{
			Speed:    m.Speed,
			DynTrail: m.DynTrail,
			SizeBase: m.SizeBase,
			SizeMult: m.SizeMult,
			Opacity:  m.Opacity,
			Blend:    blend,
			Texture:  m.TextureKey,
		}
	}
	return ex
}

// ImportGLB reads a file written by ExportGLB and returns its root nodes,
// ready for Scene.AddNode.
func ImportGLB(path string) ([]*scene.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	roots, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", path, err)
	}
	return roots, nil
}

// FromDocument rebuilds the node graph of doc.
func FromDocument(doc *gltf.Document) ([]*scene.Node, error) {
	nodes := make([]*scene.Node, len(doc.Nodes))
	fields := 0
	for i, gn := range doc.Nodes {
		n, err := readNode(doc, i, gn)
		if err != nil {
			return nil, err
		}
		if n.Field != nil {
			fields++
		}
		nodes[i] = n
	}
	if fields == 0 {
		return nil, ErrNoFields
	}

	hasParent := make([]bool, len(nodes))
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < 0 || c >= len(nodes) || hasParent[c] || isAncestor(nodes[c], nodes[i]) {
				return nil, fmt.Errorf("node %d: bad child %d", i, c)
			}
			hasParent[c] = true
			nodes[i].AddChild(nodes[c])
		}
	}

	var roots []*scene.Node
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		for _, idx := range doc.Scenes[*doc.Scene].Nodes {
			if idx >= 0 && idx < len(nodes) {
				roots = append(roots, nodes[idx])
			}
		}
		return roots, nil
	}
	for i, n := range nodes {
		if !hasParent[i] {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

// isAncestor reports whether a is n or one of its parents.
func isAncestor(a, n *scene.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == a {
			return true
		}
	}
	return false
}

func readNode(doc *gltf.Document, i int, gn *gltf.Node) (*scene.Node, error) {
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", i)
	}
	n := scene.NewNode(name)

	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault() // [x, y, z, w]
	sc := gn.ScaleOrDefault()
	n.Transform.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
	n.Transform.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	n.Transform.Scale = mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])}

	if gn.Mesh == nil {
		return n, nil
	}
	if *gn.Mesh < 0 || *gn.Mesh >= len(doc.Meshes) {
		return nil, fmt.Errorf("node %q: mesh %d out of range", name, *gn.Mesh)
	}
	field, err := readField(doc, doc.Meshes[*gn.Mesh])
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}

	var ex nodeExtras
	if gn.Extras != nil {
		// Extras decode as generic JSON; round-trip them into the typed form.
		raw, err := json.Marshal(gn.Extras)
		if err == nil {
			err = json.Unmarshal(raw, &ex)
		}
		if err != nil {
			return nil, fmt.Errorf("node %q extras: %w", name, err)
		}
	}
	if err := applyExtras(n, field, ex); err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}
	return n, nil
}

func readField(doc *gltf.Document, mesh *gltf.Mesh) (*scene.Field, error) {
	if len(mesh.Primitives) != 1 || mesh.Primitives[0].Mode != gltf.PrimitivePoints {
		return nil, errors.New("expected a single POINTS primitive")
	}
	prim := mesh.Primitives[0]

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	if posIdx < 0 || posIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("POSITION accessor %d out of range", posIdx)
	}
	pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions := make([]float32, 0, len(pos)*3)
	for _, p := range pos {
		positions = append(positions, p[0], p[1], p[2])
	}

	colors := make([]float32, len(positions))
	if colIdx, ok := prim.Attributes["COLOR_0"]; ok {
		if colIdx < 0 || colIdx >= len(doc.Accessors) {
			return nil, fmt.Errorf("COLOR_0 accessor %d out of range", colIdx)
		}
		if err := readColors(doc, doc.Accessors[colIdx], colors); err != nil {
			return nil, err
		}
	} else {
		for i := range colors {
			colors[i] = 1
		}
	}
	return scene.FieldFromBuffers(positions, colors)
}

// readColors fills dst (rgb triples) from a float or normalised integer
// COLOR_0 accessor.
func readColors(doc *gltf.Document, acc *gltf.Accessor, dst []float32) error {
	data, err := modeler.ReadAccessor(doc, acc, nil)
	if err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	var n int
	put := func(i int, r, g, b float32) {
		if i*3 < len(dst) {
			dst[i*3], dst[i*3+1], dst[i*3+2] = r, g, b
		}
	}
	switch c := data.(type) {
	case [][3]float32:
		n = len(c)
		for i, v := range c {
			put(i, v[0], v[1], v[2])
		}
	case [][4]float32:
		n = len(c)
		for i, v := range c {
			put(i, v[0], v[1], v[2])
		}
	case [][3]uint8:
		n = len(c)
		for i, v := range c {
			put(i, float32(v[0])/255, float32(v[1])/255, float32(v[2])/255)
		}
	case [][4]uint8:
		n = len(c)
		for i, v := range c {
			put(i, float32(v[0])/255, float32(v[1])/255, float32(v[2])/255)
		}
	case [][3]uint16:
		n = len(c)
		for i, v := range c {
			put(i, float32(v[0])/65535, float32(v[1])/65535, float32(v[2])/65535)
		}
	case [][4]uint16:
		n = len(c)
		for i, v := range c {
			put(i, float32(v[0])/65535, float32(v[1])/65535, float32(v[2])/65535)
		}
	default:
		return fmt.Errorf("colors: unsupported accessor data %T", data)
	}
	if n*3 != len(dst) {
		return fmt.Errorf("colors: %d entries for %d positions", n, len(dst)/3)
	}
	return nil
}

func applyExtras(n *scene.Node, field *scene.Field, ex nodeExtras) error {
	layer := scene.LayerBloom
	if ex.Layer != "" {
		var err error
		if layer, err = scene.ParseLayer(ex.Layer); err != nil {
			return err
		}
	}
	if ex.Mode != "" {
		mode, err := scene.ParseMode(ex.Mode)
		if err != nil {
			return err
		}
		field.Mode = mode
	}
	field.Speed = ex.Speed
	field.Twist = ex.Twist

	var mat *scene.FieldMaterial
	if m := ex.Material; m != nil {
		mat = &scene.FieldMaterial{
			Speed:      m.Speed,
			DynTrail:   m.DynTrail,
			SizeBase:   m.SizeBase,
			SizeMult:   m.SizeMult,
			Opacity:    m.Opacity,
			TextureKey: m.Texture,
		}
		if m.Blend == "alpha" {
			mat.Blend = scene.BlendAlpha
		}
	} else {
		mat = scene.StarMaterial(field)
	}

	n.Field = field
	n.Material = mat
	n.Layer = layer
	return nil
}
