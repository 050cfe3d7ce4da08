package constraint

import (
	"math"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// JointType represents the type of joint between two bodies.
type JointType int

const (
	// JointDistance holds the anchor separation at a target length.
	JointDistance JointType = iota
	// JointSpring pulls the anchors toward a rest length with a
	// stiffness and damping term.
	JointSpring
	// JointHinge pins the two anchors together (target separation 0).
	JointHinge
)

// SolverIterations is the fixed number of correction passes run per step.
const SolverIterations = 5

// Joint is a directed relationship between exactly two distinct bodies,
// referenced by id so a removed body never leaves a dangling pointer:
// the solver skips the joint when an id no longer resolves.
//
// Anchors are local (pre-rotation) points on each body; the world
// anchor is recomputed from the body's current angle every solve.
type Joint struct {
	ID     string
	Type   JointType
	BodyA  string
	BodyB  string
	AnchorA mgl64.Vec2
	AnchorB mgl64.Vec2

	// Length is the distance target, or the spring rest length.
	Length float64
	// Stiffness scales the positional correction for distance joints
	// (0..1, 1 = rigid) and is the per-reduced-mass spring constant
	// (1/s²) for spring joints.
	Stiffness float64
	// Damping attenuates the relative velocity along the spring axis.
	// The spring is solved at the velocity level rather than as a pure
	// positional nudge, so damping has a real, observable effect.
	Damping float64
}

// WorldAnchors returns both anchor points in world space, rotated by
// each body's current angle and translated by its position.
func (j *Joint) WorldAnchors(a, b *actor.Body) (mgl64.Vec2, mgl64.Vec2) {
	worldA := a.Position.Add(vmath.Rotate(j.AnchorA, a.Angle))
	worldB := b.Position.Add(vmath.Rotate(j.AnchorB, b.Angle))
	return worldA, worldB
}

// Solve runs one correction pass. Distance and hinge joints apply an
// instantaneous positional nudge split by inverse mass and inertia;
// spring joints apply a velocity-level impulse so stiffness and
// damping produce harmonic motion and decay.
func (j *Joint) Solve(a, b *actor.Body, dt float64) {
	if a.Static && b.Static {
		return
	}

	worldA, worldB := j.WorldAnchors(a, b)
	delta := worldB.Sub(worldA)
	dist := delta.Len()

	target := j.Length
	if j.Type == JointHinge {
		target = 0
	}

	normal := vmath.SafeNormalize(delta)
	if normal == (mgl64.Vec2{}) {
		if target == 0 {
			return // anchors coincide, nothing to correct
		}
		normal = mgl64.Vec2{1, 0}
	}

	rA := worldA.Sub(a.Position)
	rB := worldB.Sub(b.Position)
	rnA := vmath.Cross(rA, normal)
	rnB := vmath.Cross(rB, normal)

	// Effective mass along the separation normal, with both linear and
	// angular contributions.
	k := a.InverseMass + b.InverseMass +
		rnA*rnA*a.InverseInertia + rnB*rnB*b.InverseInertia
	if k == 0 {
		return
	}

	err := dist - target

	if j.Type == JointSpring {
		j.solveSpring(a, b, normal, rA, rB, err, k, dt)
		return
	}

	stiffness := j.Stiffness
	if stiffness <= 0 || stiffness > 1 {
		stiffness = 1
	}

	lambda := -err / k * stiffness
	if math.Abs(lambda) < 1e-12 {
		return
	}

	impulse := normal.Mul(lambda)
	if !a.Static {
		a.Position = a.Position.Sub(impulse.Mul(a.InverseMass))
		a.Angle += vmath.Cross(rA, impulse.Mul(-1)) * a.InverseInertia
		a.UpdateAABB()
	}
	if !b.Static {
		b.Position = b.Position.Add(impulse.Mul(b.InverseMass))
		b.Angle += vmath.Cross(rB, impulse) * b.InverseInertia
		b.UpdateAABB()
	}
}

func (j *Joint) solveSpring(a, b *actor.Body, normal, rA, rB mgl64.Vec2, err, k, dt float64) {
	worldA := a.Position.Add(rA)
	worldB := b.Position.Add(rB)
	relVel := b.VelocityAt(worldB).Sub(a.VelocityAt(worldA)).Dot(normal)

	// Hooke pull toward the rest length plus axial damping
	lambda := (-j.Stiffness*err*dt - j.Damping*relVel) / k
	if math.Abs(lambda) < 1e-12 {
		return
	}

	impulse := normal.Mul(lambda)
	if !a.Static {
		if a.Sleeping {
			a.Wake()
		}
		a.Velocity = a.Velocity.Sub(impulse.Mul(a.InverseMass))
		a.AngularVelocity -= vmath.Cross(rA, impulse) * a.InverseInertia
	}
	if !b.Static {
		if b.Sleeping {
			b.Wake()
		}
		b.Velocity = b.Velocity.Add(impulse.Mul(b.InverseMass))
		b.AngularVelocity += vmath.Cross(rB, impulse) * b.InverseInertia
	}
}
