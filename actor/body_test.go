package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// NewBody Tests
// =============================================================================

func TestNewBody_Defaults(t *testing.T) {
	body := NewBody("b", NewCircle(2))

	if body.ID != "b" {
		t.Errorf("ID = %q, want %q", body.ID, "b")
	}
	if body.Mass != 1 {
		t.Errorf("Mass = %v, want 1", body.Mass)
	}
	if body.InverseMass != 1 {
		t.Errorf("InverseMass = %v, want 1", body.InverseMass)
	}
	if body.GravityScale != 1 {
		t.Errorf("GravityScale = %v, want 1", body.GravityScale)
	}
	if !body.CollisionEnabled {
		t.Error("CollisionEnabled should default to true")
	}
	if body.Category != 1 {
		t.Errorf("Category = %v, want 1", body.Category)
	}
	// Default mask permits collision with every category
	if body.Mask != CollideAll {
		t.Errorf("Mask = %#x, want %#x", body.Mask, CollideAll)
	}
	if body.BoundingRadius != 2 {
		t.Errorf("BoundingRadius = %v, want 2", body.BoundingRadius)
	}
}

// =============================================================================
// Mass Data Tests
// =============================================================================

func TestRecomputeMassData(t *testing.T) {
	body := NewBody("b", NewCircle(1))

	// Zero mass is clamped to a small epsilon, never zero
	body.Mass = 0
	body.RecomputeMassData()
	if body.Mass < MinMass {
		t.Errorf("Mass = %v, want at least %v", body.Mass, MinMass)
	}
	if body.InverseMass == 0 {
		t.Error("clamped finite mass should have a nonzero inverse")
	}

	// Static: inverse mass and inertia exactly zero
	body.Static = true
	body.Mass = 5
	body.RecomputeMassData()
	if body.InverseMass != 0 || body.InverseInertia != 0 {
		t.Errorf("static body inverses = (%v, %v), want (0, 0)", body.InverseMass, body.InverseInertia)
	}

	// Infinite mass behaves like static
	body.Static = false
	body.Mass = math.Inf(1)
	body.RecomputeMassData()
	if body.InverseMass != 0 {
		t.Errorf("infinite mass InverseMass = %v, want 0", body.InverseMass)
	}
}

// =============================================================================
// Integrate Tests
// =============================================================================

func TestIntegrate_GravityStep(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.Damping = 0
	gravity := mgl64.Vec2{0, 10}
	dt := 1.0 / 60

	body.Integrate(dt, gravity, IntegrateSemiImplicit)

	// Half-step scheme: full velocity update, position by half-stepped velocity
	if !almostEqual(body.Velocity.Y(), 10*dt, 1e-12) {
		t.Errorf("Velocity.Y = %v, want %v", body.Velocity.Y(), 10*dt)
	}
	if !almostEqual(body.Position.Y(), 5*dt*dt, 1e-12) {
		t.Errorf("Position.Y = %v, want %v", body.Position.Y(), 5*dt*dt)
	}
	if body.PreviousPosition != (mgl64.Vec2{}) {
		t.Errorf("PreviousPosition = %v, want origin", body.PreviousPosition)
	}
}

func TestIntegrate_StaticAndSleepingSkipped(t *testing.T) {
	static := NewBody("s", NewCircle(1))
	static.Static = true
	static.RecomputeMassData()
	static.Integrate(1.0/60, mgl64.Vec2{0, 100}, IntegrateSemiImplicit)
	if static.Position != (mgl64.Vec2{}) || static.Velocity != (mgl64.Vec2{}) {
		t.Error("static body moved under gravity")
	}

	sleeping := NewBody("z", NewCircle(1))
	sleeping.Sleep()
	sleeping.Integrate(1.0/60, mgl64.Vec2{0, 100}, IntegrateSemiImplicit)
	if sleeping.Position != (mgl64.Vec2{}) {
		t.Error("sleeping body moved under gravity")
	}
}

func TestIntegrate_DampingDecaysVelocity(t *testing.T) {
	damped := NewBody("d", NewCircle(1))
	damped.Damping = 0.5
	damped.Velocity = mgl64.Vec2{10, 0}

	free := NewBody("f", NewCircle(1))
	free.Damping = 0
	free.Velocity = mgl64.Vec2{10, 0}

	for i := 0; i < 60; i++ {
		damped.Integrate(1.0/60, mgl64.Vec2{}, IntegrateSemiImplicit)
		free.Integrate(1.0/60, mgl64.Vec2{}, IntegrateSemiImplicit)
	}

	// velocity *= (1-damping)^dt each step: after one second the damped
	// body holds (1-0.5)^1 of its speed
	if !almostEqual(damped.Velocity.X(), 5, 1e-9) {
		t.Errorf("damped Velocity.X = %v, want 5", damped.Velocity.X())
	}
	if !almostEqual(free.Velocity.X(), 10, 1e-9) {
		t.Errorf("undamped Velocity.X = %v, want 10", free.Velocity.X())
	}
}

func TestIntegrate_ForceAccumulatorReset(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.Damping = 0
	body.ApplyForce(mgl64.Vec2{60, 0})

	body.Integrate(1.0/60, mgl64.Vec2{}, IntegrateSemiImplicit)
	first := body.Velocity.X()

	body.Integrate(1.0/60, mgl64.Vec2{}, IntegrateSemiImplicit)

	// Force acts for exactly one step
	if !almostEqual(body.Velocity.X(), first, 1e-12) {
		t.Errorf("velocity changed after accumulator reset: %v -> %v", first, body.Velocity.X())
	}
}

func TestIntegrate_Euler(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.Damping = 0
	dt := 1.0 / 60

	body.Integrate(dt, mgl64.Vec2{0, 10}, IntegrateEuler)

	// Symplectic Euler: position integrates the already-updated velocity
	if !almostEqual(body.Velocity.Y(), 10*dt, 1e-12) {
		t.Errorf("Velocity.Y = %v, want %v", body.Velocity.Y(), 10*dt)
	}
	if !almostEqual(body.Position.Y(), 10*dt*dt, 1e-12) {
		t.Errorf("Position.Y = %v, want %v", body.Position.Y(), 10*dt*dt)
	}
}

// =============================================================================
// Sleep Tests
// =============================================================================

func TestTrySleep_Transition(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.Velocity = mgl64.Vec2{0.01, 0}
	dt := 1.0 / 60

	// 100ms threshold needs 6 full steps of ~16.7ms
	for i := 0; i < 7; i++ {
		body.TrySleep(dt, 0.05, 0.05, 100)
	}

	if !body.Sleeping {
		t.Fatal("body should be asleep after exceeding the idle threshold")
	}
	if body.Velocity != (mgl64.Vec2{}) || body.AngularVelocity != 0 {
		t.Error("sleeping body should have zero velocities")
	}
}

func TestTrySleep_ResetOnMotion(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.Velocity = mgl64.Vec2{0.01, 0}
	dt := 1.0 / 60

	for i := 0; i < 5; i++ {
		body.TrySleep(dt, 0.05, 0.05, 100)
	}
	if body.SleepTime == 0 {
		t.Fatal("idle time should have accumulated")
	}

	body.Velocity = mgl64.Vec2{1, 0}
	body.TrySleep(dt, 0.05, 0.05, 100)
	if body.SleepTime != 0 {
		t.Errorf("SleepTime = %v, want 0 after motion", body.SleepTime)
	}
	if body.Sleeping {
		t.Error("moving body must not sleep")
	}
}

func TestWake_OnImpulse(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.Sleep()

	body.ApplyImpulse(mgl64.Vec2{1, 0})

	if body.Sleeping {
		t.Error("impulse should wake a sleeping body")
	}
	if body.Velocity.X() == 0 {
		t.Error("impulse should change velocity")
	}
}

// =============================================================================
// Force / Impulse Tests
// =============================================================================

func TestApplyForceAt_Torque(t *testing.T) {
	body := NewBody("b", NewRectangle(2, 2))
	body.Damping = 0

	// Upward force applied right of center spins counter-clockwise
	body.ApplyForceAt(mgl64.Vec2{0, 1}, mgl64.Vec2{1, 0})
	body.Integrate(1.0/60, mgl64.Vec2{}, IntegrateSemiImplicit)

	if body.AngularVelocity <= 0 {
		t.Errorf("AngularVelocity = %v, want positive", body.AngularVelocity)
	}
}

func TestApplyImpulseAt_AngularVelocity(t *testing.T) {
	body := NewBody("b", NewRectangle(2, 2))

	body.ApplyImpulseAt(mgl64.Vec2{0, 1}, mgl64.Vec2{1, 0})

	if body.AngularVelocity <= 0 {
		t.Errorf("AngularVelocity = %v, want positive", body.AngularVelocity)
	}
	if body.Velocity.Y() <= 0 {
		t.Errorf("Velocity.Y = %v, want positive", body.Velocity.Y())
	}
}

func TestApplyForce_StaticIgnored(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.Static = true
	body.RecomputeMassData()

	body.ApplyForce(mgl64.Vec2{100, 0})
	body.ApplyImpulse(mgl64.Vec2{100, 0})

	if body.Velocity != (mgl64.Vec2{}) {
		t.Error("static body gained velocity")
	}
}

func TestVelocityAt(t *testing.T) {
	body := NewBody("b", NewCircle(1))
	body.AngularVelocity = 1

	got := body.VelocityAt(mgl64.Vec2{1, 0})
	if !vecAlmostEqual(got, mgl64.Vec2{0, 1}, 1e-12) {
		t.Errorf("VelocityAt((1,0)) = %v, want (0,1)", got)
	}
}
