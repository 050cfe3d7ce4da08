package planar

import (
	"log"
	"math"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/constraint"
	"github.com/akmonengine/planar/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// CanCollide runs the collision filter before any geometric test.
// Order: collision-enabled flags, group override (same nonzero group:
// positive always collides, negative never), legacy single-layer
// values, then the two-way category/mask test.
func CanCollide(a, b *actor.Body) bool {
	if !a.CollisionEnabled || !b.CollisionEnabled {
		return false
	}

	if a.Group != 0 && a.Group == b.Group {
		return a.Group > 0
	}

	if a.Layer != 0 && b.Layer != 0 && a.Layer != b.Layer {
		return false
	}

	return a.Category&b.Mask != 0 && b.Category&a.Mask != 0
}

// Collide filters then dispatches the shape pair to the matching
// narrow-phase test. The returned contact normal points from a to b.
// Malformed shapes are logged and treated as "no collision".
func Collide(a, b *actor.Body) (constraint.Contact, bool) {
	if !CanCollide(a, b) {
		return constraint.Contact{}, false
	}

	if !a.Shape.Validate() || !b.Shape.Validate() {
		log.Printf("planar: malformed shape on body %q or %q, treating as no collision", a.ID, b.ID)
		return constraint.Contact{}, false
	}

	contact, ok := collideShapes(a, b)
	if !ok {
		return constraint.Contact{}, false
	}

	contact.BodyA = a
	contact.BodyB = b
	contact.RelativeVelocity = b.VelocityAt(contact.Point).Sub(a.VelocityAt(contact.Point))

	return contact, true
}

// circular reports whether the shape is tested as a circle. Points use
// an expanded-bounds tolerance rather than a zero-size check.
func circular(t actor.ShapeType) bool {
	return t == actor.ShapeCircle || t == actor.ShapePoint
}

func circularRadius(s actor.Shape) float64 {
	if s.Type == actor.ShapePoint {
		return actor.PointTolerance
	}
	return s.Radius
}

func collideShapes(a, b *actor.Body) (constraint.Contact, bool) {
	circleA, circleB := circular(a.Shape.Type), circular(b.Shape.Type)

	switch {
	case circleA && circleB:
		return collideCircleCircle(a.Position, circularRadius(a.Shape), b.Position, circularRadius(b.Shape))
	case circleA:
		return collideCircleBody(a.Position, circularRadius(a.Shape), b)
	case circleB:
		contact, ok := collideCircleBody(b.Position, circularRadius(b.Shape), a)
		return flipContact(contact), ok
	case a.Shape.Type == actor.ShapeRectangle && b.Shape.Type == actor.ShapeRectangle &&
		a.Angle == 0 && b.Angle == 0:
		return collideAlignedRectangles(a, b)
	default:
		// Polygons and rotated rectangles share the SAT path
		return collidePolygons(a, b)
	}
}

// flipContact reverses the normal so it points from the other body.
func flipContact(c constraint.Contact) constraint.Contact {
	c.Normal = c.Normal.Mul(-1)
	return c
}

func collideCircleCircle(posA mgl64.Vec2, radiusA float64, posB mgl64.Vec2, radiusB float64) (constraint.Contact, bool) {
	delta := posB.Sub(posA)
	distSq := delta.Dot(delta)
	radiusSum := radiusA + radiusB
	if distSq >= radiusSum*radiusSum {
		return constraint.Contact{}, false
	}

	dist := math.Sqrt(distSq)
	normal := mgl64.Vec2{1, 0} // concentric circles: any axis works
	if dist > 1e-12 {
		normal = delta.Mul(1 / dist)
	}

	return constraint.Contact{
		Normal:      normal,
		Penetration: radiusSum - dist,
		Point:       posA.Add(normal.Mul(radiusA)),
	}, true
}

// collideCircleBody tests a circle against a rectangle or polygon body.
// The returned normal points from the circle toward the body.
func collideCircleBody(center mgl64.Vec2, radius float64, body *actor.Body) (constraint.Contact, bool) {
	if body.Shape.Type == actor.ShapeRectangle && body.Angle == 0 {
		return collideCircleAABB(center, radius, body.AABB())
	}
	return collideCirclePolygon(center, radius, body.Shape.WorldVertices(body.Position, body.Angle))
}

func collideCircleAABB(center mgl64.Vec2, radius float64, box actor.AABB) (constraint.Contact, bool) {
	closest := mgl64.Vec2{
		vmath.Clamp(center.X(), box.Min.X(), box.Max.X()),
		vmath.Clamp(center.Y(), box.Min.Y(), box.Max.Y()),
	}

	delta := closest.Sub(center)
	distSq := delta.Dot(delta)
	if distSq > radius*radius {
		return constraint.Contact{}, false
	}

	if distSq > 1e-24 {
		dist := math.Sqrt(distSq)
		return constraint.Contact{
			Normal:      delta.Mul(1 / dist),
			Penetration: radius - dist,
			Point:       closest,
		}, true
	}

	// Center inside the box: push out along the axis of least depth
	boxCenter := box.Center()
	half := box.Max.Sub(box.Min).Mul(0.5)
	offset := center.Sub(boxCenter)

	depthX := half.X() - math.Abs(offset.X())
	depthY := half.Y() - math.Abs(offset.Y())

	var normal mgl64.Vec2
	var penetration float64
	if depthX < depthY {
		normal = mgl64.Vec2{-math.Copysign(1, offset.X()), 0}
		penetration = radius + depthX
	} else {
		normal = mgl64.Vec2{0, -math.Copysign(1, offset.Y())}
		penetration = radius + depthY
	}

	return constraint.Contact{Normal: normal, Penetration: penetration, Point: center}, true
}

func collideCirclePolygon(center mgl64.Vec2, radius float64, verts []mgl64.Vec2) (constraint.Contact, bool) {
	// Find the face of maximum separation; bail as soon as one face
	// separates the circle from the polygon.
	separation := math.Inf(-1)
	faceIndex := 0
	for i, v1 := range verts {
		v2 := verts[(i+1)%len(verts)]
		s := outwardNormal(v1, v2).Dot(center.Sub(v1))
		if s > radius {
			return constraint.Contact{}, false
		}
		if s > separation {
			separation = s
			faceIndex = i
		}
	}

	v1 := verts[faceIndex]
	v2 := verts[(faceIndex+1)%len(verts)]
	faceNormal := outwardNormal(v1, v2)

	if separation < 1e-12 {
		// Center inside the polygon
		return constraint.Contact{
			Normal:      faceNormal.Mul(-1),
			Penetration: radius - separation,
			Point:       center.Sub(faceNormal.Mul(separation)),
		}, true
	}

	// Closest point on the reference edge (interior, or a vertex)
	edge := v2.Sub(v1)
	t := vmath.Clamp(center.Sub(v1).Dot(edge)/edge.Dot(edge), 0, 1)
	closest := v1.Add(edge.Mul(t))

	delta := closest.Sub(center)
	distSq := delta.Dot(delta)
	if distSq > radius*radius {
		return constraint.Contact{}, false
	}

	dist := math.Sqrt(distSq)
	normal := faceNormal.Mul(-1)
	if dist > 1e-12 {
		normal = delta.Mul(1 / dist)
	}

	return constraint.Contact{
		Normal:      normal,
		Penetration: radius - dist,
		Point:       closest,
	}, true
}

// collideAlignedRectangles is the axis-aligned fast path for two
// unrotated rectangles.
func collideAlignedRectangles(a, b *actor.Body) (constraint.Contact, bool) {
	boxA, boxB := a.AABB(), b.AABB()

	overlapX := math.Min(boxA.Max.X(), boxB.Max.X()) - math.Max(boxA.Min.X(), boxB.Min.X())
	overlapY := math.Min(boxA.Max.Y(), boxB.Max.Y()) - math.Max(boxA.Min.Y(), boxB.Min.Y())
	if overlapX <= 0 || overlapY <= 0 {
		return constraint.Contact{}, false
	}

	delta := b.Position.Sub(a.Position)

	var normal mgl64.Vec2
	var penetration float64
	if overlapX < overlapY {
		normal = mgl64.Vec2{math.Copysign(1, delta.X()), 0}
		penetration = overlapX
	} else {
		normal = mgl64.Vec2{0, math.Copysign(1, delta.Y())}
		penetration = overlapY
	}

	// Contact point approximated by the center of the overlap region
	point := mgl64.Vec2{
		(math.Max(boxA.Min.X(), boxB.Min.X()) + math.Min(boxA.Max.X(), boxB.Max.X())) / 2,
		(math.Max(boxA.Min.Y(), boxB.Min.Y()) + math.Min(boxA.Max.Y(), boxB.Max.Y())) / 2,
	}

	return constraint.Contact{Normal: normal, Penetration: penetration, Point: point}, true
}

// collidePolygons runs the Separating Axis Theorem over both shapes'
// edge normals. The axis of minimum overlap becomes the contact normal,
// flipped to point from a to b via the center-to-center direction.
func collidePolygons(a, b *actor.Body) (constraint.Contact, bool) {
	vertsA := a.Shape.WorldVertices(a.Position, a.Angle)
	vertsB := b.Shape.WorldVertices(b.Position, b.Angle)

	minOverlap := math.Inf(1)
	var axis mgl64.Vec2

	for _, verts := range [][]mgl64.Vec2{vertsA, vertsB} {
		for i, v1 := range verts {
			v2 := verts[(i+1)%len(verts)]
			normal := outwardNormal(v1, v2)

			minA, maxA := projectOntoAxis(vertsA, normal)
			minB, maxB := projectOntoAxis(vertsB, normal)

			overlap := math.Min(maxA, maxB) - math.Max(minA, minB)
			if overlap <= 0 {
				return constraint.Contact{}, false
			}
			if overlap < minOverlap {
				minOverlap = overlap
				axis = normal
			}
		}
	}

	if axis.Dot(b.Position.Sub(a.Position)) < 0 {
		axis = axis.Mul(-1)
	}

	// Contact point approximated as the midpoint between each shape's
	// support vertex toward the opposing body along the normal.
	supportA := supportPoint(vertsA, axis)
	supportB := supportPoint(vertsB, axis.Mul(-1))

	return constraint.Contact{
		Normal:      axis,
		Penetration: minOverlap,
		Point:       vmath.Lerp(supportA, supportB, 0.5),
	}, true
}

// outwardNormal returns the unit outward normal of the edge v1→v2 of a
// counter-clockwise polygon.
func outwardNormal(v1, v2 mgl64.Vec2) mgl64.Vec2 {
	edge := v2.Sub(v1)
	return vmath.SafeNormalize(mgl64.Vec2{edge.Y(), -edge.X()})
}

func projectOntoAxis(verts []mgl64.Vec2, axis mgl64.Vec2) (float64, float64) {
	min := axis.Dot(verts[0])
	max := min
	for _, v := range verts[1:] {
		p := axis.Dot(v)
		min = math.Min(min, p)
		max = math.Max(max, p)
	}
	return min, max
}

func supportPoint(verts []mgl64.Vec2, direction mgl64.Vec2) mgl64.Vec2 {
	best := verts[0]
	bestDot := direction.Dot(best)
	for _, v := range verts[1:] {
		if d := direction.Dot(v); d > bestDot {
			bestDot = d
			best = v
		}
	}
	return best
}
