package actor

import (
	"math"

	"github.com/akmonengine/planar/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeCircle ShapeType = iota
	ShapeRectangle
	ShapePolygon
	ShapePoint
)

const (
	// MinExtent is the floor every radius or side length is clamped to,
	// so shape extents stay strictly positive.
	MinExtent = 1e-6

	// PointTolerance is the half-extent of the expanded bounds a point
	// shape collides with. Points are never tested at zero size.
	PointTolerance = 0.5
)

// Shape is a closed tagged union over the four supported collision
// shapes. Only the fields of the tagged variant are meaningful:
// Radius for circles, Width/Height (plus derived corner Vertices) for
// rectangles, Vertices for polygons, nothing for points.
type Shape struct {
	Type     ShapeType
	Radius   float64
	Width    float64
	Height   float64
	Vertices []mgl64.Vec2
}

// NewCircle creates a circle shape, clamping the radius to MinExtent.
func NewCircle(radius float64) Shape {
	return Shape{Type: ShapeCircle, Radius: math.Max(radius, MinExtent)}
}

// NewRectangle creates a rectangle shape and derives its corner
// vertices in counter-clockwise order.
func NewRectangle(width, height float64) Shape {
	width = math.Max(width, MinExtent)
	height = math.Max(height, MinExtent)
	hw, hh := width/2, height/2

	return Shape{
		Type:   ShapeRectangle,
		Width:  width,
		Height: height,
		Vertices: []mgl64.Vec2{
			{-hw, -hh},
			{hw, -hh},
			{hw, hh},
			{-hw, hh},
		},
	}
}

// NewPolygon creates a convex polygon shape from local-space vertices.
// Clockwise input is reversed so the winding is always counter-clockwise.
func NewPolygon(vertices []mgl64.Vec2) Shape {
	verts := make([]mgl64.Vec2, len(vertices))
	copy(verts, vertices)

	if signedArea(verts) < 0 {
		for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
	}

	return Shape{Type: ShapePolygon, Vertices: verts}
}

// NewPoint creates a point shape.
func NewPoint() Shape {
	return Shape{Type: ShapePoint}
}

// signedArea is positive for counter-clockwise winding
func signedArea(verts []mgl64.Vec2) float64 {
	area := 0.0
	for i, v := range verts {
		next := verts[(i+1)%len(verts)]
		area += vmath.Cross(v, next)
	}
	return area / 2
}

// Validate reports whether the shape carries usable geometry. A polygon
// needs at least three vertices; every extent must be finite.
func (s Shape) Validate() bool {
	switch s.Type {
	case ShapeCircle:
		return s.Radius > 0 && !math.IsNaN(s.Radius) && !math.IsInf(s.Radius, 0)
	case ShapeRectangle:
		return s.Width > 0 && s.Height > 0 && len(s.Vertices) == 4
	case ShapePolygon:
		if len(s.Vertices) < 3 {
			return false
		}
		for _, v := range s.Vertices {
			if math.IsNaN(v.X()) || math.IsNaN(v.Y()) ||
				math.IsInf(v.X(), 0) || math.IsInf(v.Y(), 0) {
				return false
			}
		}
		return true
	case ShapePoint:
		return true
	}

	return false
}

// BoundingRadius returns a conservative radius enclosing the shape,
// used for broad-phase sizing and boundary clamping.
func (s Shape) BoundingRadius() float64 {
	switch s.Type {
	case ShapeCircle:
		return s.Radius
	case ShapeRectangle:
		return math.Hypot(s.Width/2, s.Height/2)
	case ShapePolygon:
		radius := 0.0
		for _, v := range s.Vertices {
			radius = math.Max(radius, v.Len())
		}
		return radius
	case ShapePoint:
		return PointTolerance
	}

	return 0
}

// Inertia calculates the moment of inertia about the shape's centroid
// for the given mass. Rotation is a single scalar about the simulation
// normal, so the result is a scalar too.
func (s Shape) Inertia(mass float64) float64 {
	if math.IsInf(mass, 1) {
		return math.Inf(1)
	}

	switch s.Type {
	case ShapeCircle:
		// Solid disc: I = m*r²/2
		return mass * s.Radius * s.Radius / 2
	case ShapeRectangle:
		// I = m*(w² + h²)/12
		return mass * (s.Width*s.Width + s.Height*s.Height) / 12
	case ShapePolygon:
		return polygonInertia(mass, s.Vertices)
	case ShapePoint:
		// Treated as a tiny disc of the tolerance radius
		return mass * PointTolerance * PointTolerance / 2
	}

	return 0
}

func polygonInertia(mass float64, verts []mgl64.Vec2) float64 {
	var sum1, sum2 float64
	for i, v1 := range verts {
		v2 := verts[(i+1)%len(verts)]
		a := vmath.Cross(v2, v1)
		b := v1.Dot(v1) + v1.Dot(v2) + v2.Dot(v2)
		sum1 += a * b
		sum2 += a
	}
	if sum2 == 0 {
		return 0
	}

	return math.Abs(mass * sum1 / (6 * sum2))
}

// LocalVertices returns the shape's untransformed vertices. Circles and
// points have none.
func (s Shape) LocalVertices() []mgl64.Vec2 {
	return s.Vertices
}

// WorldVertices returns the shape's vertices rotated by angle and
// translated to position.
func (s Shape) WorldVertices(position mgl64.Vec2, angle float64) []mgl64.Vec2 {
	world := make([]mgl64.Vec2, len(s.Vertices))
	rotation := mgl64.Rotate2D(angle)
	for i, v := range s.Vertices {
		world[i] = rotation.Mul2x1(v).Add(position)
	}

	return world
}

// AABB calculates the axis-aligned bounding box for the shape at the
// given position and angle.
func (s Shape) AABB(position mgl64.Vec2, angle float64) AABB {
	switch s.Type {
	case ShapeCircle:
		// Circle AABB is not affected by rotation, only by position
		radiusVec := mgl64.Vec2{s.Radius, s.Radius}
		return AABB{Min: position.Sub(radiusVec), Max: position.Add(radiusVec)}
	case ShapePoint:
		tol := mgl64.Vec2{PointTolerance, PointTolerance}
		return AABB{Min: position.Sub(tol), Max: position.Add(tol)}
	case ShapeRectangle:
		if angle == 0 {
			half := mgl64.Vec2{s.Width / 2, s.Height / 2}
			return AABB{Min: position.Sub(half), Max: position.Add(half)}
		}
	}

	// Rotated rectangles and polygons: extend over transformed vertices
	verts := s.WorldVertices(position, angle)
	if len(verts) == 0 {
		return AABB{Min: position, Max: position}
	}

	min, max := verts[0], verts[0]
	for _, v := range verts[1:] {
		min[0] = math.Min(min[0], v.X())
		min[1] = math.Min(min[1], v.Y())
		max[0] = math.Max(max[0], v.X())
		max[1] = math.Max(max[1], v.Y())
	}

	return AABB{Min: min, Max: max}
}
