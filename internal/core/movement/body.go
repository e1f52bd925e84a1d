package movement

import (
	"fmt"

	"github.com/zeusync/arcade/internal/core/collide"
	"github.com/zeusync/arcade/internal/core/physics"
)

// Policy selects how a body's velocity responds to an impact.
type Policy uint8

const (
	// Slide removes the velocity component along the contact normal.
	Slide Policy = iota
	// Reflect mirrors the velocity and spends one bounce per impact.
	Reflect
)

func (p Policy) String() string {
	switch p {
	case Slide:
		return "slide"
	case Reflect:
		return "reflect"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// Body is the resolver's view of one dynamic entity.
type Body struct {
	Shape    physics.Shape
	Position physics.Position
	Velocity physics.Velocity
	Policy   Policy
	// Bounces left before a reflecting body is destroyed. Ignored by Slide.
	Bounces int
	// Margin is the clearance kept from any surface after a response.
	Margin float64
}

func (b *Body) mover() collide.Mover {
	return collide.Mover{Shape: b.Shape, Position: b.Position, Velocity: b.Velocity}
}

// exhausted reports whether the next impact destroys the body.
func (b *Body) exhausted() bool {
	return b.Policy == Reflect && b.Bounces <= 0
}

// respond applies the policy for an impact against n. Callers check
// exhausted first.
func (b *Body) respond(n physics.Vec2) {
	switch b.Policy {
	case Reflect:
		b.Bounces--
		b.Velocity.V = physics.Reflect(b.Velocity.V, n)
	default:
		b.Velocity.V = physics.Slide(b.Velocity.V, n)
	}
}
