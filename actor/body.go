package actor

import (
	"math"

	"github.com/akmonengine/planar/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// IntegrationMethod selects the kinematic integration scheme.
type IntegrationMethod int

const (
	// IntegrateSemiImplicit is the default velocity-form half-step
	// scheme, kept for its energy stability at a fixed dt.
	IntegrateSemiImplicit IntegrationMethod = iota
	// IntegrateEuler is a plain symplectic Euler step.
	IntegrateEuler
)

const (
	// MinMass is the floor every finite mass is clamped to.
	MinMass = 1e-9

	// AngularDamping is the fixed exponential damping applied to
	// angular velocity each step, analogous to per-body linear damping.
	AngularDamping = 0.01
)

// CollideAll is the default collision mask: a body may hit every category.
const CollideAll uint32 = 0xFFFFFFFF

// Body represents a simulation participant: a point or shape with mass,
// velocity and collision geometry, keyed by a unique id.
type Body struct {
	ID string

	// Kinematics
	Position         mgl64.Vec2
	PreviousPosition mgl64.Vec2
	Velocity         mgl64.Vec2
	Acceleration     mgl64.Vec2 // caller-set persistent acceleration (m/s²)
	Angle            float64
	AngularVelocity  float64

	// Mass data. InverseMass and InverseInertia are exactly 0 for
	// static or infinite-mass bodies.
	Mass           float64
	InverseMass    float64
	Inertia        float64
	InverseInertia float64

	// Material
	Restitution  float64 // 0 = no rebound, 1 = perfect restitution
	Friction     float64
	Damping      float64 // 0.0 - 1.0 exponential velocity damping
	GravityScale float64

	Static   bool
	Sleeping bool
	// SleepTime accumulates idle milliseconds while below the sleep
	// velocity thresholds.
	SleepTime float64

	// Collision filtering
	CollisionEnabled bool
	Layer            int // legacy single-layer filter, 0 = unset
	Category         uint32
	Mask             uint32
	// Group overrides category/mask when both bodies share the same
	// nonzero group: positive always collides, negative never does.
	Group int

	Shape          Shape
	BoundingRadius float64

	// Per-step accumulators, reset after each integration
	force  mgl64.Vec2
	torque float64

	// Opaque caller payload
	UserData any

	aabb AABB
}

// NewBody creates a body with construction defaults: unit mass,
// mild restitution and friction, gravity scale 1, colliding with every
// category. Callers override fields afterwards and call
// RecomputeMassData when mass, shape or the static flag changed.
func NewBody(id string, shape Shape) *Body {
	b := &Body{
		ID:               id,
		Mass:             1,
		Restitution:      0.2,
		Friction:         0.1,
		Damping:          0.01,
		GravityScale:     1,
		CollisionEnabled: true,
		Category:         1,
		Mask:             CollideAll,
		Shape:            shape,
	}
	b.RecomputeMassData()
	b.UpdateAABB()

	return b
}

// RecomputeMassData clamps the mass, derives the inverse mass, moment
// of inertia and bounding radius from the current shape, and zeroes the
// inverse terms for static or infinite-mass bodies.
func (b *Body) RecomputeMassData() {
	if !math.IsInf(b.Mass, 1) {
		b.Mass = math.Max(b.Mass, MinMass)
	}

	b.Inertia = b.Shape.Inertia(b.Mass)
	b.BoundingRadius = b.Shape.BoundingRadius()

	if b.Static || math.IsInf(b.Mass, 1) {
		b.InverseMass = 0
		b.InverseInertia = 0
		return
	}

	b.InverseMass = 1 / b.Mass
	if b.Inertia > 0 && !math.IsInf(b.Inertia, 1) {
		b.InverseInertia = 1 / b.Inertia
	} else {
		b.InverseInertia = 0
	}
}

// UpdateAABB refreshes the cached bounding box from the current transform.
func (b *Body) UpdateAABB() {
	b.aabb = b.Shape.AABB(b.Position, b.Angle)
}

// AABB returns the bounding box computed at the last transform change.
func (b *Body) AABB() AABB {
	return b.aabb
}

// Integrate advances the body's kinematics by a fixed timestep.
// Gravity is scaled by the body's gravity scale and mass, damping is
// applied exponentially, and the per-step force/torque accumulators are
// reset afterwards. Static and sleeping bodies are skipped.
func (b *Body) Integrate(dt float64, gravity mgl64.Vec2, method IntegrationMethod) {
	if b.Static || b.Sleeping {
		return
	}

	b.PreviousPosition = b.Position

	gravityForce := gravity.Mul(b.GravityScale * b.Mass)
	linearAccel := b.force.Add(gravityForce).Mul(b.InverseMass).Add(b.Acceleration)
	angularAccel := b.torque * b.InverseInertia

	switch method {
	case IntegrateEuler:
		b.Velocity = b.Velocity.Add(linearAccel.Mul(dt))
		b.AngularVelocity += angularAccel * dt
		b.applyDamping(dt)
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
		b.Angle += b.AngularVelocity * dt
	default:
		// Half-step the velocity, integrate the transform by the
		// half-stepped velocity, then complete the velocity update.
		b.Velocity = b.Velocity.Add(linearAccel.Mul(dt / 2))
		b.AngularVelocity += angularAccel * dt / 2
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
		b.Angle += b.AngularVelocity * dt
		b.applyDamping(dt)
		b.Velocity = b.Velocity.Add(linearAccel.Mul(dt / 2))
		b.AngularVelocity += angularAccel * dt / 2
	}

	b.ClearForces()
	b.UpdateAABB()
}

func (b *Body) applyDamping(dt float64) {
	b.Velocity = b.Velocity.Mul(math.Pow(1-vmath.Clamp(b.Damping, 0, 1), dt))
	b.AngularVelocity *= math.Pow(1-AngularDamping, dt)
}

// TrySleep accumulates idle time while the body stays below the linear
// and angular velocity thresholds, and puts it to sleep once the idle
// time exceeds timeThresholdMs milliseconds.
func (b *Body) TrySleep(dt, linearThreshold, angularThreshold, timeThresholdMs float64) {
	if b.Static || b.Sleeping {
		return
	}

	belowLinear := b.Velocity.Dot(b.Velocity) < linearThreshold*linearThreshold
	belowAngular := b.AngularVelocity*b.AngularVelocity < angularThreshold*angularThreshold

	if belowLinear && belowAngular {
		b.SleepTime += dt * 1000
		if b.SleepTime >= timeThresholdMs {
			b.Sleep()
		}
	} else {
		b.SleepTime = 0
	}
}

// Sleep puts the body to sleep, zeroing velocities and forces.
func (b *Body) Sleep() {
	b.Sleeping = true
	b.SleepTime = 0
	b.Velocity = mgl64.Vec2{}
	b.AngularVelocity = 0
	b.ClearForces()
	b.UpdateAABB()
}

// Wake clears the sleeping state and idle timer.
func (b *Body) Wake() {
	b.Sleeping = false
	b.SleepTime = 0
}

// ApplyForce accumulates a force through the center of mass for the
// next integration. Waking is immediate so the next step processes it.
func (b *Body) ApplyForce(force mgl64.Vec2) {
	if b.Static {
		return
	}
	b.Wake()
	b.force = b.force.Add(force)
}

// ApplyForceAt accumulates a force applied at a world-space point,
// adding the resulting torque r × F.
func (b *Body) ApplyForceAt(force, point mgl64.Vec2) {
	if b.Static {
		return
	}
	b.Wake()
	b.force = b.force.Add(force)
	b.torque += vmath.Cross(point.Sub(b.Position), force)
}

// ApplyImpulse changes the velocity instantly by impulse * inverseMass.
func (b *Body) ApplyImpulse(impulse mgl64.Vec2) {
	if b.Static {
		return
	}
	b.Wake()
	b.Velocity = b.Velocity.Add(impulse.Mul(b.InverseMass))
}

// ApplyImpulseAt applies an impulse at a world-space point, changing
// both linear and angular velocity.
func (b *Body) ApplyImpulseAt(impulse, point mgl64.Vec2) {
	if b.Static {
		return
	}
	b.Wake()
	b.Velocity = b.Velocity.Add(impulse.Mul(b.InverseMass))
	b.AngularVelocity += vmath.Cross(point.Sub(b.Position), impulse) * b.InverseInertia
}

// VelocityAt returns the velocity of the body's material point at a
// world-space location, including the angular contribution.
func (b *Body) VelocityAt(point mgl64.Vec2) mgl64.Vec2 {
	return b.Velocity.Add(vmath.CrossSV(b.AngularVelocity, point.Sub(b.Position)))
}

// ClearForces resets the per-step force and torque accumulators.
func (b *Body) ClearForces() {
	b.force = mgl64.Vec2{}
	b.torque = 0
}
