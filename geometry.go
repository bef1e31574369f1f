package marionette

import (
	"fmt"
	"math"
)

// Shape selects the unit-space outline of a DrawableClass.
type Shape uint8

const (
	ShapeRectangle Shape = iota
	ShapeCircle
	ShapeIsoscelesTriangle
	ShapeRightTriangle
	ShapeTrapezoid
	ShapeParallelogram
)

var shapeNames = [...]string{
	ShapeRectangle:         "Rectangle",
	ShapeCircle:            "Circle",
	ShapeIsoscelesTriangle: "IsoscelesTriangle",
	ShapeRightTriangle:     "RightTriangle",
	ShapeTrapezoid:         "Trapezoid",
	ShapeParallelogram:     "Parallelogram",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", uint8(s))
}

// ParseShape returns the shape with the given name.
func ParseShape(name string) (Shape, bool) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), true
		}
	}
	return 0, false
}

const defaultCircleSegments = 32

// Geometry is a convex shape in unit space [0,1]x[0,1], fan triangulated
// around its first point.
type Geometry struct {
	Points  []Vec2
	Indices []uint16
}

// shapePoints returns the outline of s in unit space, counter-clockwise in
// screen coordinates (Y down).
func shapePoints(s Shape, segments int) []Vec2 {
	switch s {
	case ShapeCircle:
		if segments < 3 {
			segments = defaultCircleSegments
		}
		pts := make([]Vec2, segments)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(segments)
			pts[i] = Vec2{0.5 + 0.5*math.Cos(a), 0.5 + 0.5*math.Sin(a)}
		}
		return pts
	case ShapeIsoscelesTriangle:
		return []Vec2{{0.5, 0}, {1, 1}, {0, 1}}
	case ShapeRightTriangle:
		return []Vec2{{0, 0}, {1, 1}, {0, 1}}
	case ShapeTrapezoid:
		return []Vec2{{0.25, 0}, {0.75, 0}, {1, 1}, {0, 1}}
	case ShapeParallelogram:
		return []Vec2{{0.25, 0}, {1, 0}, {0.75, 1}, {0, 1}}
	default:
		return []Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	}
}

// buildGeometry fan triangulates the outline of s.
// N points, 3*(N-2) indices.
func buildGeometry(s Shape, segments int) Geometry {
	pts := shapePoints(s, segments)
	n := len(pts)
	inds := make([]uint16, (n-2)*3)
	for i := 0; i < n-2; i++ {
		inds[i*3+0] = 0
		inds[i*3+1] = uint16(i + 1)
		inds[i*3+2] = uint16(i + 2)
	}
	return Geometry{Points: pts, Indices: inds}
}

// Outline returns the perimeter edges as point index pairs.
func (g Geometry) Outline() [][2]uint16 {
	n := len(g.Points)
	edges := make([][2]uint16, n)
	for i := range edges {
		edges[i] = [2]uint16{uint16(i), uint16((i + 1) % n)}
	}
	return edges
}

// Wireframe returns every distinct triangle edge as point index pairs.
func (g Geometry) Wireframe() [][2]uint16 {
	seen := make(map[[2]uint16]bool, len(g.Indices))
	var edges [][2]uint16
	for t := 0; t+2 < len(g.Indices); t += 3 {
		tri := [3]uint16{g.Indices[t], g.Indices[t+1], g.Indices[t+2]}
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			e := [2]uint16{a, b}
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}
