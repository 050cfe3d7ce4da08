// Package planar is a 2D physics substrate for UI-effect workloads:
// a body registry, fixed-step integrator, grid broad phase, shape-pair
// narrow phase, sequential-impulse resolver, positional constraint
// solver and a collision lifecycle tracker. Rendering, gestures and
// frame scheduling are external collaborators that only read body state
// and receive events.
package planar

import (
	"fmt"
	"log"
	"time"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/constraint"
	"github.com/akmonengine/planar/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyConfig describes a body to create. Pointer fields distinguish
// "unset, use the default" from an explicit zero.
type BodyConfig struct {
	// ID is the storage key; generated when empty. A duplicate id logs
	// a warning and replaces the stored body (last write wins).
	ID string

	Shape actor.Shape

	Position        mgl64.Vec2
	Velocity        mgl64.Vec2
	Acceleration    mgl64.Vec2
	Angle           float64
	AngularVelocity float64

	Mass         *float64 // default 1
	Restitution  *float64 // default 0.2, clamped to [0,1]
	Friction     *float64 // default 0.1
	Damping      *float64 // default: world config damping
	GravityScale *float64 // default 1

	Static bool

	CollisionEnabled *bool // default true
	Layer            int
	Category         *uint32 // default 1
	Mask             *uint32 // default: collide with everything
	Group            int

	UserData any
}

// BodyPatch merges present fields only into an existing body.
type BodyPatch struct {
	Position        *mgl64.Vec2
	Velocity        *mgl64.Vec2
	Acceleration    *mgl64.Vec2
	Angle           *float64
	AngularVelocity *float64

	Mass         *float64
	Restitution  *float64
	Friction     *float64
	Damping      *float64
	GravityScale *float64

	Static *bool
	Shape  *actor.Shape

	CollisionEnabled *bool
	Layer            *int
	Category         *uint32
	Mask             *uint32
	Group            *int

	UserData any
}

// ConstraintOptions describes a joint between two existing bodies.
type ConstraintOptions struct {
	ID      string
	Type    constraint.JointType
	BodyA   string
	BodyB   string
	AnchorA mgl64.Vec2
	AnchorB mgl64.Vec2

	// Length is the distance target or spring rest length
	Length    float64
	Stiffness float64 // 0 = type default
	Damping   float64 // springs only
}

// DefaultSpringStiffness is applied when a spring is created with
// stiffness 0.
const DefaultSpringStiffness = 30.0

// World owns all bodies and constraints and advances them in
// deterministic fixed steps. It is single-threaded: all storage is
// mutated only from within a step or from explicit caller calls between
// steps. Mutations requested by listeners during event dispatch are
// deferred until the dispatch completes.
type World struct {
	config Config

	bodies     []*actor.Body
	bodiesByID map[string]*actor.Body

	joints     []*constraint.Joint
	jointsByID map[string]*constraint.Joint

	grid   *SpatialGrid
	events Events

	time        float64
	accumulator float64

	bodySeq  int
	jointSeq int

	running bool
	stopCh  chan struct{}

	dispatching bool
	deferred    []func()
}

// NewWorld creates a world with the given configuration.
func NewWorld(config Config) *World {
	config.normalize()

	return &World{
		config:     config,
		bodiesByID: make(map[string]*actor.Body),
		jointsByID: make(map[string]*constraint.Joint),
		grid:       NewSpatialGrid(config.CellSize, config.GridCells),
		events:     NewEvents(),
	}
}

// mutate applies fn now, or defers it until event dispatch completes
// when called from a listener.
func (w *World) mutate(fn func()) {
	if w.dispatching {
		w.deferred = append(w.deferred, fn)
		return
	}
	fn()
}

func (w *World) applyDeferred() {
	for len(w.deferred) > 0 {
		pending := w.deferred
		w.deferred = nil
		for _, fn := range pending {
			fn()
		}
	}
}

// AddBody creates a body from the config, fills defaults, clamps
// numeric fields, derives inertia and bounding radius from the shape,
// stores it and emits a body-added event. Returns the storage id.
func (w *World) AddBody(config BodyConfig) string {
	id := config.ID
	if id == "" {
		w.bodySeq++
		id = fmt.Sprintf("body-%d", w.bodySeq)
	}

	if _, exists := w.bodiesByID[id]; exists {
		log.Printf("planar: duplicate body id %q, replacing existing body", id)
	}

	body := w.buildBody(id, config)

	w.mutate(func() {
		if old, exists := w.bodiesByID[id]; exists {
			// Last write wins; joints referencing the id now resolve
			// to the replacement body.
			w.removeFromList(old)
			w.events.purgeBody(id)
		}
		w.bodiesByID[id] = body
		w.bodies = append(w.bodies, body)
		w.events.dispatch(BodyAddedEvent{Body: id})
	})

	return id
}

func (w *World) buildBody(id string, config BodyConfig) *actor.Body {
	shape := config.Shape
	if shape.Type == actor.ShapeCircle && shape.Radius == 0 && shape.Vertices == nil {
		// Zero-value shape: default to a unit circle
		shape = actor.NewCircle(1)
	}

	body := actor.NewBody(id, shape)
	body.Position = config.Position
	body.Velocity = config.Velocity
	body.Acceleration = config.Acceleration
	body.Angle = config.Angle
	body.AngularVelocity = config.AngularVelocity
	body.Static = config.Static
	body.Layer = config.Layer
	body.Group = config.Group
	body.UserData = config.UserData
	body.Damping = w.config.Damping

	if config.Mass != nil {
		body.Mass = *config.Mass
	}
	if config.Restitution != nil {
		body.Restitution = vmath.Clamp(*config.Restitution, 0, 1)
	}
	if config.Friction != nil {
		body.Friction = max(*config.Friction, 0)
	}
	if config.Damping != nil {
		body.Damping = vmath.Clamp(*config.Damping, 0, 1)
	}
	if config.GravityScale != nil {
		body.GravityScale = *config.GravityScale
	}
	if config.CollisionEnabled != nil {
		body.CollisionEnabled = *config.CollisionEnabled
	}
	if config.Category != nil {
		body.Category = *config.Category
	}
	if config.Mask != nil {
		body.Mask = *config.Mask
	}

	body.RecomputeMassData()
	body.UpdateAABB()

	return body
}

func (w *World) removeFromList(body *actor.Body) {
	for i, b := range w.bodies {
		if b == body {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// detachBody removes a body from storage and purges it from collision
// records and any constraints referencing it.
func (w *World) detachBody(body *actor.Body) {
	delete(w.bodiesByID, body.ID)
	w.removeFromList(body)

	w.events.purgeBody(body.ID)

	kept := w.joints[:0]
	for _, joint := range w.joints {
		if joint.BodyA == body.ID || joint.BodyB == body.ID {
			delete(w.jointsByID, joint.ID)
			continue
		}
		kept = append(kept, joint)
	}
	w.joints = kept
}

// RemoveBody removes a body if present and emits a body-removed event.
func (w *World) RemoveBody(id string) bool {
	body, ok := w.bodiesByID[id]
	if !ok {
		return false
	}

	w.mutate(func() {
		w.detachBody(body)
		w.events.dispatch(BodyRemovedEvent{Body: id})
	})

	return true
}

// UpdateBody merges the present fields of the patch into the body.
// A sleeping body is woken when its velocity or acceleration becomes
// nonzero; inertia and bounding radius are re-derived when shape or
// mass fields change.
func (w *World) UpdateBody(id string, patch BodyPatch) bool {
	body, ok := w.bodiesByID[id]
	if !ok {
		return false
	}

	w.mutate(func() {
		massDataChanged := false
		transformChanged := false

		if patch.Position != nil {
			body.Position = *patch.Position
			transformChanged = true
		}
		if patch.Velocity != nil {
			body.Velocity = *patch.Velocity
			if body.Sleeping && *patch.Velocity != (mgl64.Vec2{}) {
				body.Wake()
			}
		}
		if patch.Acceleration != nil {
			body.Acceleration = *patch.Acceleration
			if body.Sleeping && *patch.Acceleration != (mgl64.Vec2{}) {
				body.Wake()
			}
		}
		if patch.Angle != nil {
			body.Angle = *patch.Angle
			transformChanged = true
		}
		if patch.AngularVelocity != nil {
			body.AngularVelocity = *patch.AngularVelocity
			if body.Sleeping && *patch.AngularVelocity != 0 {
				body.Wake()
			}
		}
		if patch.Mass != nil {
			body.Mass = *patch.Mass
			massDataChanged = true
		}
		if patch.Restitution != nil {
			body.Restitution = vmath.Clamp(*patch.Restitution, 0, 1)
		}
		if patch.Friction != nil {
			body.Friction = max(*patch.Friction, 0)
		}
		if patch.Damping != nil {
			body.Damping = vmath.Clamp(*patch.Damping, 0, 1)
		}
		if patch.GravityScale != nil {
			body.GravityScale = *patch.GravityScale
		}
		if patch.Static != nil {
			body.Static = *patch.Static
			massDataChanged = true
		}
		if patch.Shape != nil {
			body.Shape = *patch.Shape
			massDataChanged = true
			transformChanged = true
		}
		if patch.CollisionEnabled != nil {
			body.CollisionEnabled = *patch.CollisionEnabled
		}
		if patch.Layer != nil {
			body.Layer = *patch.Layer
		}
		if patch.Category != nil {
			body.Category = *patch.Category
		}
		if patch.Mask != nil {
			body.Mask = *patch.Mask
		}
		if patch.Group != nil {
			body.Group = *patch.Group
		}
		if patch.UserData != nil {
			body.UserData = patch.UserData
		}

		if massDataChanged {
			body.RecomputeMassData()
		}
		if massDataChanged || transformChanged {
			body.UpdateAABB()
		}
	})

	return true
}

// Body returns the body stored under id, or nil.
func (w *World) Body(id string) *actor.Body {
	return w.bodiesByID[id]
}

// Bodies returns a copy of the body list in insertion order.
func (w *World) Bodies() []*actor.Body {
	bodies := make([]*actor.Body, len(w.bodies))
	copy(bodies, w.bodies)
	return bodies
}

// ApplyForce accumulates a force through the body's center of mass.
// Returns false when the id does not resolve.
func (w *World) ApplyForce(id string, force mgl64.Vec2) bool {
	body, ok := w.bodiesByID[id]
	if !ok {
		return false
	}
	body.ApplyForce(force)
	return true
}

// ApplyForceAt accumulates a force applied at a world-space point.
func (w *World) ApplyForceAt(id string, force, point mgl64.Vec2) bool {
	body, ok := w.bodiesByID[id]
	if !ok {
		return false
	}
	body.ApplyForceAt(force, point)
	return true
}

// ApplyImpulse changes the body's velocity instantly.
func (w *World) ApplyImpulse(id string, impulse mgl64.Vec2) bool {
	body, ok := w.bodiesByID[id]
	if !ok {
		return false
	}
	body.ApplyImpulse(impulse)
	return true
}

// ApplyImpulseAt applies an impulse at a world-space point.
func (w *World) ApplyImpulseAt(id string, impulse, point mgl64.Vec2) bool {
	body, ok := w.bodiesByID[id]
	if !ok {
		return false
	}
	body.ApplyImpulseAt(impulse, point)
	return true
}

// AddConstraint creates a joint between two existing, distinct bodies.
// A missing body id or a self-constraint logs a warning and returns
// ("", false) instead of failing hard.
func (w *World) AddConstraint(options ConstraintOptions) (string, bool) {
	if options.BodyA == options.BodyB {
		log.Printf("planar: constraint must reference two distinct bodies, got %q twice", options.BodyA)
		return "", false
	}
	if _, ok := w.bodiesByID[options.BodyA]; !ok {
		log.Printf("planar: constraint references missing body %q", options.BodyA)
		return "", false
	}
	if _, ok := w.bodiesByID[options.BodyB]; !ok {
		log.Printf("planar: constraint references missing body %q", options.BodyB)
		return "", false
	}

	id := options.ID
	if id == "" {
		w.jointSeq++
		id = fmt.Sprintf("constraint-%d", w.jointSeq)
	}
	if _, exists := w.jointsByID[id]; exists {
		log.Printf("planar: duplicate constraint id %q, replacing existing constraint", id)
	}

	stiffness := options.Stiffness
	if stiffness == 0 {
		if options.Type == constraint.JointSpring {
			stiffness = DefaultSpringStiffness
		} else {
			stiffness = 1
		}
	}

	joint := &constraint.Joint{
		ID:        id,
		Type:      options.Type,
		BodyA:     options.BodyA,
		BodyB:     options.BodyB,
		AnchorA:   options.AnchorA,
		AnchorB:   options.AnchorB,
		Length:    options.Length,
		Stiffness: stiffness,
		Damping:   options.Damping,
	}

	w.mutate(func() {
		if old, exists := w.jointsByID[id]; exists {
			w.removeJoint(old)
		}
		w.jointsByID[id] = joint
		w.joints = append(w.joints, joint)
	})

	return id, true
}

func (w *World) removeJoint(joint *constraint.Joint) {
	delete(w.jointsByID, joint.ID)
	for i, j := range w.joints {
		if j == joint {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			break
		}
	}
}

// RemoveConstraint removes a joint by id; false if absent.
func (w *World) RemoveConstraint(id string) bool {
	joint, ok := w.jointsByID[id]
	if !ok {
		return false
	}

	w.mutate(func() {
		w.removeJoint(joint)
	})

	return true
}

// Constraint returns the joint stored under id, or nil.
func (w *World) Constraint(id string) *constraint.Joint {
	return w.jointsByID[id]
}

// Subscribe registers an event listener and returns a handle.
func (w *World) Subscribe(eventType EventType, listener Listener) int {
	return w.events.Subscribe(eventType, listener)
}

// Unsubscribe removes a listener by handle.
func (w *World) Unsubscribe(eventType EventType, handle int) bool {
	return w.events.Unsubscribe(eventType, handle)
}

// Step advances the simulation by one fixed timestep. The step is
// atomic and deterministic given identical input sequences and
// insertion order.
func (w *World) Step() {
	w.step(w.config.TimeStep)
}

func (w *World) step(dt float64) {
	if dt <= 0 {
		return
	}

	method := actor.IntegrateSemiImplicit
	if w.config.Integration == IntegrationEuler {
		method = actor.IntegrateEuler
	}

	// Phase 1: integrate kinematics
	for _, body := range w.bodies {
		body.Integrate(dt, w.config.Gravity, method)
	}

	// The step's contacts and lifecycle diff share the post-step time
	w.time += dt

	if w.config.Bounds != nil {
		w.enforceBounds()
	}

	// Phase 2: broad phase - rebuild the grid from current transforms
	w.grid.Clear()
	for i, body := range w.bodies {
		w.grid.Insert(i, body)
	}
	pairs := w.grid.FindPairs(w.bodies)

	// Phase 3: narrow phase + impulse resolution
	for _, pair := range pairs {
		contact, ok := Collide(pair.BodyA, pair.BodyB)
		if !ok {
			continue
		}
		impulse := contact.Resolve()
		w.events.recordContact(w.time, collisionInfo(contact, impulse))
	}

	// Phase 4: constraint solver, fixed iteration count. Joints whose
	// body ids no longer resolve are skipped.
	for i := 0; i < constraint.SolverIterations; i++ {
		for _, joint := range w.joints {
			bodyA := w.bodiesByID[joint.BodyA]
			bodyB := w.bodiesByID[joint.BodyB]
			if bodyA == nil || bodyB == nil {
				continue
			}
			joint.Solve(bodyA, bodyB, dt)
		}
	}

	// Phase 5: sleep transitions
	if w.config.EnableSleeping {
		for _, body := range w.bodies {
			body.TrySleep(dt,
				w.config.SleepVelocityThreshold,
				w.config.SleepAngularThreshold,
				w.config.SleepTimeThreshold)
		}
	}

	// Phase 6: lifecycle events
	w.events.trackSleepStates(w.bodies)
	w.events.finishStep(w.time, w.pairResting)
	w.events.push(StepEvent{DT: dt, Time: w.time})

	w.dispatching = true
	w.events.flush()
	w.dispatching = false
	w.applyDeferred()
}

func collisionInfo(contact constraint.Contact, impulse float64) CollisionInfo {
	return CollisionInfo{
		BodyA:            contact.BodyA.ID,
		BodyB:            contact.BodyB.ID,
		PayloadA:         contact.BodyA.UserData,
		PayloadB:         contact.BodyB.UserData,
		Point:            contact.Point,
		Normal:           contact.Normal,
		Penetration:      contact.Penetration,
		RelativeVelocity: contact.RelativeVelocity,
		Impulse:          impulse,
	}
}

// pairResting reports whether a recorded pair is presumed still in
// contact even though the broad phase skipped it: both participants are
// at rest and at least one is asleep.
func (w *World) pairResting(idA, idB string) bool {
	bodyA := w.bodiesByID[idA]
	bodyB := w.bodiesByID[idB]
	if bodyA == nil || bodyB == nil {
		return false
	}

	restingA := bodyA.Sleeping || bodyA.Static
	restingB := bodyB.Sleeping || bodyB.Static

	return restingA && restingB && (bodyA.Sleeping || bodyB.Sleeping)
}

// enforceBounds clamps non-static bodies inside the configured world
// bounds, reflecting the offending velocity component by the body's
// restitution, and buffers a boundary-contact event per body.
func (w *World) enforceBounds() {
	bounds := w.config.Bounds

	for _, body := range w.bodies {
		if body.Static {
			continue
		}

		r := body.BoundingRadius
		var normal mgl64.Vec2
		hit := false

		if body.Position.X()-r < bounds.Min.X() {
			body.Position[0] = bounds.Min.X() + r
			if body.Velocity.X() < 0 {
				body.Velocity[0] *= -body.Restitution
			}
			normal = normal.Add(mgl64.Vec2{1, 0})
			hit = true
		} else if body.Position.X()+r > bounds.Max.X() {
			body.Position[0] = bounds.Max.X() - r
			if body.Velocity.X() > 0 {
				body.Velocity[0] *= -body.Restitution
			}
			normal = normal.Add(mgl64.Vec2{-1, 0})
			hit = true
		}

		if body.Position.Y()-r < bounds.Min.Y() {
			body.Position[1] = bounds.Min.Y() + r
			if body.Velocity.Y() < 0 {
				body.Velocity[1] *= -body.Restitution
			}
			normal = normal.Add(mgl64.Vec2{0, 1})
			hit = true
		} else if body.Position.Y()+r > bounds.Max.Y() {
			body.Position[1] = bounds.Max.Y() - r
			if body.Velocity.Y() > 0 {
				body.Velocity[1] *= -body.Restitution
			}
			normal = normal.Add(mgl64.Vec2{0, -1})
			hit = true
		}

		if hit {
			body.UpdateAABB()
			w.events.push(BoundaryContactEvent{
				Body:   body.ID,
				Normal: vmath.SafeNormalize(normal),
			})
		}
	}
}

// Simulate accumulates elapsed wall-clock time and drains it in fixed
// steps, at most MaxSubSteps per call. Leftover time stays in the
// accumulator, so sustained lag makes the simulation fall behind real
// time instead of spiraling into unbounded catch-up work.
func (w *World) Simulate(elapsedSeconds float64) {
	if elapsedSeconds < 0 {
		return
	}

	w.accumulator += elapsedSeconds * w.config.TimeScale
	dt := w.config.TimeStep

	for steps := 0; w.accumulator >= dt && steps < w.config.MaxSubSteps; steps++ {
		w.step(dt)
		w.accumulator -= dt
	}
}

// Start schedules a ticker that feeds Simulate with elapsed wall time.
// It only toggles scheduling; body state is untouched. While running,
// the ticker goroutine is the sole mutator - callers must not mutate
// the world concurrently.
func (w *World) Start() {
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	go w.run(w.stopCh)
}

func (w *World) run(stop chan struct{}) {
	ticker := time.NewTicker(time.Duration(w.config.TimeStep * float64(time.Second)))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			w.Simulate(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Stop cancels the running ticker without altering body state.
func (w *World) Stop() {
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
}

// Running reports whether the continuous mode ticker is scheduled.
func (w *World) Running() bool {
	return w.running
}

// Reset removes every body and constraint and clears collision records
// and pending events. Configuration and listeners are kept.
func (w *World) Reset() {
	w.mutate(func() {
		w.bodies = nil
		clear(w.bodiesByID)
		w.joints = nil
		clear(w.jointsByID)
		w.grid.Clear()
		w.events.reset()
		w.time = 0
		w.accumulator = 0
	})
}

// Config returns a copy of the current configuration.
func (w *World) Config() Config {
	config := w.config
	if config.Bounds != nil {
		bounds := *config.Bounds
		config.Bounds = &bounds
	}
	return config
}

// UpdateConfig merges the present fields of the patch and resizes the
// broad-phase grid when its parameters changed.
func (w *World) UpdateConfig(patch ConfigPatch) {
	w.mutate(func() {
		w.config.Apply(patch)
		w.config.normalize()

		if patch.CellSize != nil || patch.GridCells != nil {
			w.grid = NewSpatialGrid(w.config.CellSize, w.config.GridCells)
		}
	})
}

// Time returns the accumulated simulation time in seconds.
func (w *World) Time() float64 {
	return w.time
}
