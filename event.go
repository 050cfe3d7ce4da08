package planar

import (
	"log"

	"github.com/akmonengine/planar/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCollisionStart EventType = iota
	EventCollisionActive
	EventCollisionEnd
	EventSleep
	EventWake
	EventBoundaryContact
	EventStep
	EventBodyAdded
	EventBodyRemoved
)

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// CollisionInfo is the payload shared by all collision events: both
// participant ids and user payloads, the contact point, the unit normal
// from BodyA to BodyB, penetration depth, relative velocity and the
// normal impulse magnitude applied by the resolver.
type CollisionInfo struct {
	BodyA            string
	BodyB            string
	PayloadA         any
	PayloadB         any
	Point            mgl64.Vec2
	Normal           mgl64.Vec2
	Penetration      float64
	RelativeVelocity mgl64.Vec2
	Impulse          float64
}

// CollisionStartEvent fires the first step an unordered pair overlaps.
type CollisionStartEvent struct {
	CollisionInfo
}

func (e CollisionStartEvent) Type() EventType { return EventCollisionStart }

// CollisionActiveEvent fires every subsequent step the pair stays in
// contact.
type CollisionActiveEvent struct {
	CollisionInfo
}

func (e CollisionActiveEvent) Type() EventType { return EventCollisionActive }

// CollisionEndEvent fires the step overlap ends, carrying the last
// recorded contact and the total contact duration in seconds.
type CollisionEndEvent struct {
	CollisionInfo
	Duration float64
}

func (e CollisionEndEvent) Type() EventType { return EventCollisionEnd }

type SleepEvent struct {
	Body string
}

func (e SleepEvent) Type() EventType { return EventSleep }

type WakeEvent struct {
	Body string
}

func (e WakeEvent) Type() EventType { return EventWake }

// BoundaryContactEvent fires when a body is clamped against the
// configured world bounds. Normal points back into the world.
type BoundaryContactEvent struct {
	Body   string
	Normal mgl64.Vec2
}

func (e BoundaryContactEvent) Type() EventType { return EventBoundaryContact }

type StepEvent struct {
	DT   float64
	Time float64
}

func (e StepEvent) Type() EventType { return EventStep }

type BodyAddedEvent struct {
	Body string
}

func (e BodyAddedEvent) Type() EventType { return EventBodyAdded }

type BodyRemovedEvent struct {
	Body string
}

func (e BodyRemovedEvent) Type() EventType { return EventBodyRemoved }

// Listener - callback for events
type Listener func(event Event)

type registration struct {
	id int
	fn Listener
}

// pairKey is the canonical (sorted) key of an unordered body pair.
type pairKey struct {
	a, b string
}

func makePairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// collisionRecord persists only while a specific unordered pair remains
// in contact; it exists solely to drive start/active/end semantics.
type collisionRecord struct {
	firstContact float64
	last         CollisionInfo
	seen         bool
}

// Events tracks active collision pairs across steps, diffs them into
// start/active/end notifications, and delivers buffered events to
// registered listeners after the step's mutation phases.
type Events struct {
	listeners map[EventType][]registration
	nextID    int

	buffer []Event

	records map[pairKey]*collisionRecord
	order   []pairKey

	sleepStates map[string]bool
}

func NewEvents() Events {
	return Events{
		listeners:   make(map[EventType][]registration),
		buffer:      make([]Event, 0, 256),
		records:     make(map[pairKey]*collisionRecord),
		sleepStates: make(map[string]bool),
	}
}

// Subscribe adds a listener for an event type and returns a handle
// usable with Unsubscribe.
func (e *Events) Subscribe(eventType EventType, listener Listener) int {
	e.nextID++
	e.listeners[eventType] = append(e.listeners[eventType], registration{id: e.nextID, fn: listener})
	return e.nextID
}

// Unsubscribe removes a previously registered listener by handle.
func (e *Events) Unsubscribe(eventType EventType, handle int) bool {
	regs := e.listeners[eventType]
	for i, reg := range regs {
		if reg.id == handle {
			e.listeners[eventType] = append(regs[:i], regs[i+1:]...)
			return true
		}
	}
	return false
}

// recordContact is called during a step for every positive contact.
func (e *Events) recordContact(now float64, info CollisionInfo) {
	key := makePairKey(info.BodyA, info.BodyB)

	rec, ok := e.records[key]
	if !ok {
		rec = &collisionRecord{firstContact: now}
		e.records[key] = rec
		e.order = append(e.order, key)
	}
	rec.last = info
	rec.seen = true
}

// finishStep diffs this step's contact set against the previous one and
// buffers start/active/end events. resting reports whether a pair is
// presumed still touching even though it was skipped this step (both
// participants asleep or asleep-on-static); such pairs neither spam
// active events nor end prematurely.
func (e *Events) finishStep(now float64, resting func(a, b string) bool) {
	kept := e.order[:0]

	for _, key := range e.order {
		rec := e.records[key]

		switch {
		case rec.seen && rec.firstContact == now:
			e.buffer = append(e.buffer, CollisionStartEvent{CollisionInfo: rec.last})
		case rec.seen:
			if !resting(key.a, key.b) {
				e.buffer = append(e.buffer, CollisionActiveEvent{CollisionInfo: rec.last})
			}
		case resting(key.a, key.b):
			// Pair skipped by the broad phase but still overlapping
		default:
			e.buffer = append(e.buffer, CollisionEndEvent{
				CollisionInfo: rec.last,
				Duration:      now - rec.firstContact,
			})
			delete(e.records, key)
			continue
		}

		rec.seen = false
		kept = append(kept, key)
	}

	e.order = kept
}

// trackSleepStates diffs each body's sleeping flag against the last
// known state and buffers sleep/wake events on transitions.
func (e *Events) trackSleepStates(bodies []*actor.Body) {
	for _, body := range bodies {
		tracked, exists := e.sleepStates[body.ID]
		if !exists {
			e.sleepStates[body.ID] = body.Sleeping
			continue
		}

		if !tracked && body.Sleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body.ID})
			e.sleepStates[body.ID] = true
		} else if tracked && !body.Sleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body.ID})
			e.sleepStates[body.ID] = false
		}
	}
}

// purgeBody drops every record and state referencing a removed body.
func (e *Events) purgeBody(id string) {
	kept := e.order[:0]
	for _, key := range e.order {
		if key.a == id || key.b == id {
			delete(e.records, key)
			continue
		}
		kept = append(kept, key)
	}
	e.order = kept

	delete(e.sleepStates, id)
}

// push buffers an event for the next flush.
func (e *Events) push(event Event) {
	e.buffer = append(e.buffer, event)
}

// flush delivers all buffered events and clears the buffer. Listener
// invocation is synchronous; a panicking listener is isolated and
// logged so it cannot suppress delivery to the remaining listeners or
// abort the step.
func (e *Events) flush() {
	for _, event := range e.buffer {
		e.dispatch(event)
	}
	e.buffer = e.buffer[:0]
}

func (e *Events) dispatch(event Event) {
	for _, reg := range e.listeners[event.Type()] {
		invoke(reg.fn, event)
	}
}

func invoke(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("planar: event listener panicked: %v", r)
		}
	}()
	listener(event)
}

// reset clears contact records, sleep states and pending events while
// keeping registered listeners.
func (e *Events) reset() {
	e.buffer = e.buffer[:0]
	e.order = e.order[:0]
	clear(e.records)
	clear(e.sleepStates)
}
