package marionette

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TransformStack is the nested matrix stack used while walking a render
// tree. Every Push multiplies onto the current top so the top is always the
// fully composed transform. Callers take a Mark before pushing and Restore
// it when the scope ends, which unwinds any number of pushes made in
// between on every exit path.
type TransformStack struct {
	stack []mgl64.Mat3
}

// NewTransformStack creates a stack whose base is the given matrix.
func NewTransformStack(base mgl64.Mat3) *TransformStack {
	s := &TransformStack{stack: make([]mgl64.Mat3, 1, 16)}
	s.stack[0] = base
	return s
}

// Reset drops every pushed matrix and sets a new base.
func (s *TransformStack) Reset(base mgl64.Mat3) {
	s.stack = append(s.stack[:0], base)
}

// Push composes m onto the current top: top' = top * m.
func (s *TransformStack) Push(m mgl64.Mat3) {
	s.stack = append(s.stack, s.Top().Mul3(m))
}

// Pop removes the most recent Push. Panics when only the base remains.
func (s *TransformStack) Pop() {
	if len(s.stack) <= 1 {
		panic("marionette: transform stack underflow")
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// Top returns the composed transform.
func (s *TransformStack) Top() mgl64.Mat3 {
	return s.stack[len(s.stack)-1]
}

// Depth returns the number of matrices pushed above the base.
func (s *TransformStack) Depth() int {
	return len(s.stack) - 1
}

// StackMark records a stack depth for Restore.
type StackMark int

// Mark returns the current depth.
func (s *TransformStack) Mark() StackMark {
	return StackMark(s.Depth())
}

// Restore pops back to the depth recorded by m. Panics if the stack is
// already below m, which means some scope popped a matrix it did not push.
func (s *TransformStack) Restore(m StackMark) {
	if s.Depth() < int(m) {
		panic("marionette: transform stack popped below its mark")
	}
	s.stack = s.stack[:int(m)+1]
}

// NodeLocalMatrix returns the node's local transform. Scale is applied
// first, then rotation, then translation.
func NodeLocalMatrix(n *Node) mgl64.Mat3 {
	return mgl64.Translate2D(n.Position.X, n.Position.Y).
		Mul3(mgl64.HomogRotate2D(n.Rotation)).
		Mul3(mgl64.Scale2D(n.Scale.X, n.Scale.Y))
}

// ModelMatrix maps the unit shape [0,1]x[0,1] onto a box of the given size
// centered on the origin. With flip set the unit shape is mirrored
// horizontally first.
func ModelMatrix(size Vec2, flip bool) mgl64.Mat3 {
	m := mgl64.Translate2D(-size.X/2, -size.Y/2).Mul3(mgl64.Scale2D(size.X, size.Y))
	if flip {
		m = m.Mul3(mgl64.Translate2D(1, 0)).Mul3(mgl64.Scale2D(-1, 1))
	}
	return m
}

// nodeModelMatrix returns the model matrix for a drawable node.
func nodeModelMatrix(n *Node) mgl64.Mat3 {
	flip := n.Drawable != nil && n.Drawable.TestFlag(DrawableFlipHorizontally)
	return ModelMatrix(n.Size, flip)
}

// NodeTransform returns the transform from n's local space to tree space,
// composing every ancestor. A node that is not in the tree is treated as
// detached: only its own local transform is used.
func NodeTransform(tree *RenderTree[*Node], n *Node) mgl64.Mat3 {
	m := NodeLocalMatrix(n)
	for p, ok := tree.FindParent(n); ok; p, ok = tree.FindParent(p) {
		m = NodeLocalMatrix(p).Mul3(m)
	}
	return m
}

// NodeModelTransform returns the transform from n's unit shape space to
// tree space.
func NodeModelTransform(tree *RenderTree[*Node], n *Node) mgl64.Mat3 {
	return NodeTransform(tree, n).Mul3(nodeModelMatrix(n))
}

// MapPoint applies m to (x, y).
func MapPoint(m mgl64.Mat3, x, y float64) (float64, float64) {
	v := m.Mul3x1(mgl64.Vec3{x, y, 1})
	return v[0], v[1]
}

// Invert returns the inverse of m, or the identity if m is singular.
func Invert(m mgl64.Mat3) mgl64.Mat3 {
	det := m.Det()
	if det > -1e-12 && det < 1e-12 {
		return mgl64.Ident3()
	}
	return m.Inv()
}

// MapToNode converts a tree-space point into n's local space.
func MapToNode(tree *RenderTree[*Node], n *Node, x, y float64) (float64, float64) {
	return MapPoint(Invert(NodeTransform(tree, n)), x, y)
}

// MapFromNode converts a point in n's local space into tree space.
func MapFromNode(tree *RenderTree[*Node], n *Node, x, y float64) (float64, float64) {
	return MapPoint(NodeTransform(tree, n), x, y)
}

// transformedBounds returns the axis-aligned bounds of the unit square
// mapped through m.
func transformedBounds(m mgl64.Mat3) Rect {
	x0, y0 := MapPoint(m, 0, 0)
	x1, y1 := MapPoint(m, 1, 0)
	x2, y2 := MapPoint(m, 1, 1)
	x3, y3 := MapPoint(m, 0, 1)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// NodeBoundingRect returns the tree-space axis-aligned bounds of n's box.
func NodeBoundingRect(tree *RenderTree[*Node], n *Node) Rect {
	return transformedBounds(NodeModelTransform(tree, n))
}

// BoundingRect returns the union of the bounds of every node in the tree.
func BoundingRect(tree *RenderTree[*Node]) Rect {
	var r Rect
	tree.PreOrderTraverse(newTransformVisitor(mgl64.Ident3(), func(n *Node, m mgl64.Mat3) {
		r = r.Union(transformedBounds(m.Mul3(nodeModelMatrix(n))))
	}))
	return r
}

// HitTest returns every drawable node whose box contains the tree-space
// point (x, y), in traversal order.
func HitTest(tree *RenderTree[*Node], x, y float64) []*Node {
	var hits []*Node
	tree.PreOrderTraverse(newTransformVisitor(mgl64.Ident3(), func(n *Node, m mgl64.Mat3) {
		if n.Drawable == nil {
			return
		}
		lx, ly := MapPoint(Invert(m.Mul3(nodeModelMatrix(n))), x, y)
		if lx >= 0 && lx <= 1 && ly >= 0 && ly <= 1 {
			hits = append(hits, n)
		}
	}))
	return hits
}

// transformVisitor keeps a TransformStack in step with a traversal and
// hands each node its composed node transform.
type transformVisitor struct {
	stack *TransformStack
	marks []StackMark
	visit func(n *Node, m mgl64.Mat3)
}

func newTransformVisitor(base mgl64.Mat3, visit func(*Node, mgl64.Mat3)) *transformVisitor {
	return &transformVisitor{stack: NewTransformStack(base), visit: visit}
}

func (v *transformVisitor) EnterNode(n *Node) {
	v.marks = append(v.marks, v.stack.Mark())
	v.stack.Push(NodeLocalMatrix(n))
	v.visit(n, v.stack.Top())
}

func (v *transformVisitor) LeaveNode(*Node) {
	last := len(v.marks) - 1
	v.stack.Restore(v.marks[last])
	v.marks = v.marks[:last]
}
