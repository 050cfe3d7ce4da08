package main

import (
	"fmt"

	"github.com/akmonengine/planar"
	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	config := planar.DefaultConfig()
	config.Gravity = mgl64.Vec2{0, 50}
	config.Bounds = &planar.Bounds{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{800, 600}}
	world := planar.NewWorld(config)

	world.Subscribe(planar.EventCollisionStart, func(event planar.Event) {
		collision := event.(planar.CollisionStartEvent)
		fmt.Printf("collision start: %s <-> %s (impulse %.3f)\n",
			collision.BodyA, collision.BodyB, collision.Impulse)
	})
	world.Subscribe(planar.EventSleep, func(event planar.Event) {
		fmt.Printf("sleep: %s\n", event.(planar.SleepEvent).Body)
	})

	// Static floor
	world.AddBody(planar.BodyConfig{
		ID:       "floor",
		Shape:    actor.NewRectangle(800, 40),
		Position: mgl64.Vec2{400, 580},
		Static:   true,
	})

	// A few falling discs
	for i := 0; i < 5; i++ {
		world.AddBody(planar.BodyConfig{
			ID:          fmt.Sprintf("disc-%d", i),
			Shape:       actor.NewCircle(12),
			Position:    mgl64.Vec2{200 + float64(i)*90, 60 + float64(i)*25},
			Restitution: planar.Float(0.5),
		})
	}

	// Two boxes linked by a spring
	boxA := world.AddBody(planar.BodyConfig{
		Shape:    actor.NewRectangle(30, 30),
		Position: mgl64.Vec2{300, 200},
	})
	boxB := world.AddBody(planar.BodyConfig{
		Shape:    actor.NewRectangle(30, 30),
		Position: mgl64.Vec2{420, 200},
	})
	world.AddConstraint(planar.ConstraintOptions{
		Type:    constraint.JointSpring,
		BodyA:   boxA,
		BodyB:   boxB,
		Length:  80,
		Damping: 0.05,
	})

	for i := 0; i < 300; i++ {
		world.Step()
	}

	for _, body := range world.Bodies() {
		fmt.Printf("%-12s position=(%7.2f, %7.2f) sleeping=%v\n",
			body.ID, body.Position.X(), body.Position.Y(), body.Sleeping)
	}
}
