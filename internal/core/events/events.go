package events

import (
	"github.com/google/uuid"

	"github.com/zeusync/arcade/internal/core/physics"
)

// Event types published by the world.
const (
	TypeProjectileSpawned   = "projectile.spawned"
	TypeProjectileDestroyed = "projectile.destroyed"
	TypeTickResolved        = "tick.resolved"
)

// Event is an immutable simulation message.
type Event interface {
	Type() string
	// Tick is the simulation tick the event belongs to.
	Tick() uint64
}

type ProjectileSpawned struct {
	ID       uuid.UUID
	AtTick   uint64
	Position physics.Vec2
	Velocity physics.Vec2
}

func (ProjectileSpawned) Type() string   { return TypeProjectileSpawned }
func (e ProjectileSpawned) Tick() uint64 { return e.AtTick }

// ProjectileDestroyed is published once the tick that exhausted the
// projectile's bounce budget has fully resolved.
type ProjectileDestroyed struct {
	ID       uuid.UUID
	AtTick   uint64
	Position physics.Vec2
	Impacts  int
}

func (ProjectileDestroyed) Type() string   { return TypeProjectileDestroyed }
func (e ProjectileDestroyed) Tick() uint64 { return e.AtTick }

// TickResolved closes every tick.
type TickResolved struct {
	AtTick      uint64
	Checksum    uint64
	Projectiles int
	Truncated   int
}

func (TickResolved) Type() string   { return TypeTickResolved }
func (e TickResolved) Tick() uint64 { return e.AtTick }
