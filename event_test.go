package planar

import (
	"testing"

	"github.com/akmonengine/planar/actor"
)

func neverResting(a, b string) bool { return false }

func contactBetween(a, b string) CollisionInfo {
	return CollisionInfo{BodyA: a, BodyB: b, Penetration: 0.1}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestEvents_StartActiveEndSequence(t *testing.T) {
	events := NewEvents()

	var sequence []EventType
	for _, et := range []EventType{EventCollisionStart, EventCollisionActive, EventCollisionEnd} {
		eventType := et
		events.Subscribe(eventType, func(Event) {
			sequence = append(sequence, eventType)
		})
	}

	// Step 1: contact begins
	events.recordContact(1, contactBetween("a", "b"))
	events.finishStep(1, neverResting)
	events.flush()

	// Step 2: contact persists
	events.recordContact(2, contactBetween("a", "b"))
	events.finishStep(2, neverResting)
	events.flush()

	// Step 3: contact gone
	events.finishStep(3, neverResting)
	events.flush()

	want := []EventType{EventCollisionStart, EventCollisionActive, EventCollisionEnd}
	if len(sequence) != len(want) {
		t.Fatalf("event sequence = %v, want %v", sequence, want)
	}
	for i, et := range want {
		if sequence[i] != et {
			t.Errorf("sequence[%d] = %v, want %v", i, sequence[i], et)
		}
	}
}

func TestEvents_EndCarriesDuration(t *testing.T) {
	events := NewEvents()

	var end CollisionEndEvent
	events.Subscribe(EventCollisionEnd, func(ev Event) {
		end = ev.(CollisionEndEvent)
	})

	events.recordContact(1.0, contactBetween("a", "b"))
	events.finishStep(1.0, neverResting)
	events.recordContact(1.5, contactBetween("a", "b"))
	events.finishStep(1.5, neverResting)
	events.finishStep(2.0, neverResting)
	events.flush()

	if !almostEqual(end.Duration, 1.0, 1e-12) {
		t.Errorf("Duration = %v, want 1.0", end.Duration)
	}
	if end.BodyA != "a" || end.BodyB != "b" {
		t.Errorf("end event bodies = (%q, %q)", end.BodyA, end.BodyB)
	}
}

func TestEvents_UnorderedPairSingleRecord(t *testing.T) {
	events := NewEvents()

	starts := 0
	events.Subscribe(EventCollisionStart, func(Event) { starts++ })

	// Same unordered pair reported in both orders within one step
	events.recordContact(1, contactBetween("a", "b"))
	events.recordContact(1, contactBetween("b", "a"))
	events.finishStep(1, neverResting)
	events.flush()

	if starts != 1 {
		t.Errorf("start events = %d, want 1 for an unordered pair", starts)
	}
}

func TestEvents_RestingSuppressesActiveAndEnd(t *testing.T) {
	events := NewEvents()

	var got []EventType
	for _, et := range []EventType{EventCollisionStart, EventCollisionActive, EventCollisionEnd} {
		eventType := et
		events.Subscribe(eventType, func(Event) { got = append(got, eventType) })
	}

	resting := func(a, b string) bool { return true }

	// Contact starts normally
	events.recordContact(1, contactBetween("a", "b"))
	events.finishStep(1, neverResting)
	events.flush()

	// The pair goes quiet: broad phase skips it, but it still overlaps
	events.finishStep(2, resting)
	events.finishStep(3, resting)
	events.flush()

	// It wakes up and separates for real
	events.finishStep(4, neverResting)
	events.flush()

	want := []EventType{EventCollisionStart, EventCollisionEnd}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEvents_RestingActiveContactStillReports(t *testing.T) {
	events := NewEvents()

	active := 0
	events.Subscribe(EventCollisionActive, func(Event) { active++ })

	resting := func(a, b string) bool { return true }

	events.recordContact(1, contactBetween("a", "b"))
	events.finishStep(1, neverResting)

	// Seen again while flagged resting: active is suppressed
	events.recordContact(2, contactBetween("a", "b"))
	events.finishStep(2, resting)
	events.flush()

	if active != 0 {
		t.Errorf("active events = %d, want 0 while resting", active)
	}
}

// =============================================================================
// Subscription Tests
// =============================================================================

func TestEvents_Unsubscribe(t *testing.T) {
	events := NewEvents()

	first, second := 0, 0
	h1 := events.Subscribe(EventStep, func(Event) { first++ })
	events.Subscribe(EventStep, func(Event) { second++ })

	events.push(StepEvent{DT: 1})
	events.flush()

	if !events.Unsubscribe(EventStep, h1) {
		t.Fatal("Unsubscribe returned false for a live handle")
	}
	if events.Unsubscribe(EventStep, h1) {
		t.Error("double Unsubscribe should return false")
	}

	events.push(StepEvent{DT: 1})
	events.flush()

	if first != 1 {
		t.Errorf("unsubscribed listener fired %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining listener fired %d times, want 2", second)
	}
}

func TestEvents_PanickingListenerIsolated(t *testing.T) {
	events := NewEvents()

	delivered := false
	events.Subscribe(EventStep, func(Event) { panic("listener bug") })
	events.Subscribe(EventStep, func(Event) { delivered = true })

	events.push(StepEvent{DT: 1})
	events.flush()

	if !delivered {
		t.Error("panic in one listener suppressed delivery to the next")
	}
}

// =============================================================================
// Sleep Tracking Tests
// =============================================================================

func TestEvents_TrackSleepStates(t *testing.T) {
	events := NewEvents()

	var got []Event
	events.Subscribe(EventSleep, func(ev Event) { got = append(got, ev) })
	events.Subscribe(EventWake, func(ev Event) { got = append(got, ev) })

	body := actor.NewBody("b", actor.NewCircle(1))
	bodies := []*actor.Body{body}

	// First sighting establishes the baseline, no event
	events.trackSleepStates(bodies)
	events.flush()
	if len(got) != 0 {
		t.Fatalf("baseline sighting produced %d events", len(got))
	}

	body.Sleep()
	events.trackSleepStates(bodies)
	events.trackSleepStates(bodies) // no repeat while state is unchanged
	events.flush()

	body.Wake()
	events.trackSleepStates(bodies)
	events.flush()

	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 (one sleep, one wake)", len(got))
	}
	if _, ok := got[0].(SleepEvent); !ok {
		t.Errorf("first event = %T, want SleepEvent", got[0])
	}
	if _, ok := got[1].(WakeEvent); !ok {
		t.Errorf("second event = %T, want WakeEvent", got[1])
	}
}

// =============================================================================
// Housekeeping Tests
// =============================================================================

func TestEvents_PurgeBodySuppressesEnd(t *testing.T) {
	events := NewEvents()

	ends := 0
	events.Subscribe(EventCollisionEnd, func(Event) { ends++ })

	events.recordContact(1, contactBetween("a", "b"))
	events.recordContact(1, contactBetween("a", "c"))
	events.finishStep(1, neverResting)
	events.flush()

	events.purgeBody("b")

	// Only the (a, c) pair survives to end naturally
	events.finishStep(2, neverResting)
	events.flush()

	if ends != 1 {
		t.Errorf("end events = %d, want 1 after purge", ends)
	}
}

func TestEvents_ResetKeepsListeners(t *testing.T) {
	events := NewEvents()

	steps := 0
	events.Subscribe(EventStep, func(Event) { steps++ })

	events.recordContact(1, contactBetween("a", "b"))
	events.push(StepEvent{DT: 1})
	events.reset()

	events.flush() // nothing pending survives reset
	if steps != 0 {
		t.Errorf("reset leaked %d buffered events", steps)
	}

	events.push(StepEvent{DT: 1})
	events.flush()
	if steps != 1 {
		t.Error("listeners must survive reset")
	}

	// Contact records are gone: the pair starts fresh
	starts := 0
	events.Subscribe(EventCollisionStart, func(Event) { starts++ })
	events.recordContact(2, contactBetween("a", "b"))
	events.finishStep(2, neverResting)
	events.flush()
	if starts != 1 {
		t.Errorf("start events after reset = %d, want 1", starts)
	}
}

func TestMakePairKey_Canonical(t *testing.T) {
	if makePairKey("x", "a") != makePairKey("a", "x") {
		t.Error("pair key must be order independent")
	}
	key := makePairKey("b", "a")
	if key.a != "a" || key.b != "b" {
		t.Errorf("key = %+v, want sorted components", key)
	}
}
