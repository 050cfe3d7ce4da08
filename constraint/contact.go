package constraint

import (
	"math"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// PenetrationSlop is the overlap tolerated before positional
	// correction kicks in, avoiding jitter on resting contacts.
	PenetrationSlop = 0.01

	// CorrectionPercent is the fraction of the remaining penetration
	// resolved per step. Partial correction keeps the solver from
	// reintroducing energy.
	CorrectionPercent = 0.4

	// wakeImpulseThreshold is the impulse magnitude above which a
	// sleeping participant is woken by the contact.
	wakeImpulseThreshold = 1e-3
)

// Contact is the transient result of a narrow-phase test between two
// bodies: the contact point, the unit normal pointing from BodyA to
// BodyB, the penetration depth and the relative velocity at the point.
type Contact struct {
	BodyA            *actor.Body
	BodyB            *actor.Body
	Point            mgl64.Vec2
	Normal           mgl64.Vec2
	Penetration      float64
	RelativeVelocity mgl64.Vec2
}

// Resolve converts the contact into a normal impulse (restitution), a
// tangential impulse clamped by Coulomb friction, and a soft positional
// correction. It returns the normal impulse magnitude for event
// payloads. Static pairs and separating contacts are skipped.
func (c *Contact) Resolve() float64 {
	a, b := c.BodyA, c.BodyB

	invMassSum := a.InverseMass + b.InverseMass
	if invMassSum == 0 {
		return 0
	}

	relVel := b.VelocityAt(c.Point).Sub(a.VelocityAt(c.Point))
	velAlongNormal := relVel.Dot(c.Normal)
	if velAlongNormal > 0 {
		// Bodies already separating
		return 0
	}

	restitution := math.Max(a.Restitution, b.Restitution)

	j := -(1 + restitution) * velAlongNormal / invMassSum
	impulse := c.Normal.Mul(j)
	a.Velocity = a.Velocity.Sub(impulse.Mul(a.InverseMass))
	b.Velocity = b.Velocity.Add(impulse.Mul(b.InverseMass))

	// Friction along the tangent, clamped to the Coulomb cone |j|*μ
	relVel = b.VelocityAt(c.Point).Sub(a.VelocityAt(c.Point))
	tangent := vmath.Perp(c.Normal)
	jt := -relVel.Dot(tangent) / invMassSum

	friction := (a.Friction + b.Friction) / 2
	maxFriction := math.Abs(j) * friction
	jt = vmath.Clamp(jt, -maxFriction, maxFriction)

	frictionImpulse := tangent.Mul(jt)
	a.Velocity = a.Velocity.Sub(frictionImpulse.Mul(a.InverseMass))
	b.Velocity = b.Velocity.Add(frictionImpulse.Mul(b.InverseMass))

	// Soft positional correction beyond the slop
	if c.Penetration > PenetrationSlop {
		correction := c.Normal.Mul((c.Penetration - PenetrationSlop) * CorrectionPercent / invMassSum)
		if !a.Static {
			a.Position = a.Position.Sub(correction.Mul(a.InverseMass))
			a.UpdateAABB()
		}
		if !b.Static {
			b.Position = b.Position.Add(correction.Mul(b.InverseMass))
			b.UpdateAABB()
		}
	}

	if math.Abs(j) > wakeImpulseThreshold {
		if a.Sleeping && !a.Static {
			a.Wake()
		}
		if b.Sleeping && !b.Static {
			b.Wake()
		}
	}

	return j
}
