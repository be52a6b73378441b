package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"galaxy-render/core"
)

// Node represents an object in the scene graph. Nodes with a Field are drawn
// as point-sprite clouds by the pass whose mask includes Layer; group nodes
// (Field == nil) only carry a transform.
type Node struct {
	ID        uuid.UUID
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Field     *Field
	Material  *FieldMaterial
	Layer     Layer
	Visible   bool

	// GPUData holds backend-specific buffers, set lazily by the renderer.
	GPUData interface{}

	// Cached world transform
	worldMatrixDirty bool
	worldMatrix      mgl32.Mat4
}

func NewNode(name string) *Node {
	return &Node{
		ID:               uuid.New(),
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Layer:            LayerBase,
		Visible:          true,
		worldMatrixDirty: true,
	}
}

// NewFieldNode wraps a generated field with its material on the given layer.
func NewFieldNode(name string, field *Field, material *FieldMaterial, layer Layer) *Node {
	n := NewNode(name)
	n.Field = field
	n.Material = material
	n.Layer = layer
	return n
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	child.MarkWorldMatrixDirty()
	n.Children = append(n.Children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

func (n *Node) GetWorldMatrix() mgl32.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.GetWorldMatrix().Mul4(localMatrix)
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetScale(s float32) {
	n.Transform.Scale = mgl32.Vec3{s, s, s}
	n.MarkWorldMatrixDirty()
}

// Traverse visits all nodes in the graph
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}
