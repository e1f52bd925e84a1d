package world

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/arcade/internal/core/movement"
	"github.com/zeusync/arcade/internal/core/physics"
	"github.com/zeusync/arcade/internal/core/tick"
)

// Input is one tick's worth of player intent.
type Input struct {
	// Dir is the movement direction; its length is clamped to 1.
	Dir physics.Vec2 `json:"dir"`
	// FaceTurns is the facing angle in full turns, counter-clockwise from +x.
	FaceTurns float64 `json:"face_turns"`
	// Primary holds the fire button.
	Primary bool `json:"primary"`
}

// Normalized returns a copy that is safe to apply: non-finite values are
// zeroed and Dir is clamped to unit length.
func (in Input) Normalized() Input {
	if !physics.Finite(in.Dir) {
		in.Dir = physics.Zero
	}
	if l := in.Dir.Len(); l > 1 {
		in.Dir = in.Dir.Mul(1 / l)
	}
	if math.IsNaN(in.FaceTurns) || math.IsInf(in.FaceTurns, 0) {
		in.FaceTurns = 0
	}
	return in
}

// Player is the single slide-policy body driven by input.
type Player struct {
	Body   movement.Body
	Facing float64 // radians

	// shots is nil while the fire button is up.
	shots *tick.Accumulator
}

func (p *Player) Transform() physics.Transform {
	t := p.Body.Position.Transform()
	t.Rotation = p.Facing
	return t
}

// Direction is the unit vector the player faces.
func (p *Player) Direction() physics.Vec2 {
	return physics.Vec2{math.Cos(p.Facing), math.Sin(p.Facing)}
}

// Firing reports whether the fire button is held.
func (p *Player) Firing() bool { return p.shots != nil }

func (p *Player) apply(in Input, speed float64, fireInterval time.Duration) {
	p.Body.Velocity.V = in.Dir.Mul(speed)
	p.Facing = in.FaceTurns * 2 * math.Pi

	switch {
	case in.Primary && p.shots == nil:
		acc := tick.NewReadyAccumulator(fireInterval)
		p.shots = &acc
	case !in.Primary && p.shots != nil:
		p.shots = nil
	}
}

// Projectile is a reflect-policy body with a bounce budget.
type Projectile struct {
	ID        uuid.UUID
	Body      movement.Body
	SpawnedAt uint64
	Impacts   int
}
