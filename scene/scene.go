package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"galaxy-render/core"
)

// BloomParams tunes the bloom pass. Values are read by the composer before
// every bloom render, so changes apply on the next frame.
type BloomParams struct {
	Strength  float32 // gain applied to the blurred highlights
	Radius    float32 // blur spread, 0..1
	Threshold float32 // luminance cut-off for the bright pass, 0..1
}

func DefaultBloomParams() BloomParams {
	return BloomParams{Strength: 1.2, Radius: 0.4, Threshold: 0.1}
}

// Clamp limits each parameter to its documented range.
func (p BloomParams) Clamp() BloomParams {
	p.Strength = mgl32.Clamp(p.Strength, 0, 3)
	p.Radius = mgl32.Clamp(p.Radius, 0, 1)
	p.Threshold = mgl32.Clamp(p.Threshold, 0, 1)
	return p
}

// Scene manages the node graph, the orbit camera and the pointer state that
// feeds the uMouse uniform.
type Scene struct {
	Root       *Node
	Camera     *OrbitCamera
	Pointer    *Pointer
	ClearColor core.Color
	Time       float32 // seconds of animation time, fed to uTime
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		Pointer:    NewPointer(),
		ClearColor: core.ColorBlack,
	}
}

func (s *Scene) SetCamera(camera *OrbitCamera) {
	s.Camera = camera
}

// AddNode attaches node under parent (the root when parent is nil). Field
// nodes must carry exactly one valid layer and a material.
func (s *Scene) AddNode(parent, node *Node) error {
	if node.Field != nil {
		if !node.Layer.Valid() {
			return fmt.Errorf("add node %q: %w: %v", node.Name, ErrInvalidLayer, node.Layer)
		}
		if node.Material == nil {
			return fmt.Errorf("add node %q: missing material", node.Name)
		}
	}
	if parent == nil {
		parent = s.Root
	}
	parent.AddChild(node)
	return nil
}

// Update advances animation time and camera damping.
func (s *Scene) Update(deltaTime float32) {
	s.Time += deltaTime
	if s.Camera != nil {
		s.Camera.Update(deltaTime)
	}
}

// NodesIn returns the visible field nodes whose layer is in mask, in graph
// order.
func (s *Scene) NodesIn(mask LayerMask) []*Node {
	var visible []*Node
	s.Root.Traverse(func(node *Node) {
		if node.Visible && node.Field != nil && mask.Has(node.Layer) {
			visible = append(visible, node)
		}
	})
	return visible
}

// FieldNodes returns every field node regardless of layer or visibility.
func (s *Scene) FieldNodes() []*Node {
	var out []*Node
	s.Root.Traverse(func(node *Node) {
		if node.Field != nil {
			out = append(out, node)
		}
	})
	return out
}
