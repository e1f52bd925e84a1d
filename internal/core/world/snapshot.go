package world

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/zeusync/arcade/internal/core/physics"
)

// BodyState is the resolved state of one dynamic entity.
type BodyState struct {
	Position physics.Vec2
	Velocity physics.Vec2
}

type ProjectileState struct {
	ID uuid.UUID
	BodyState
	Bounces int
}

// Snapshot is what presentation reads after a frame: resolved positions of
// every dynamic entity as of the last executed tick.
type Snapshot struct {
	Tick        uint64
	HasPlayer   bool
	Player      BodyState
	Facing      float64
	Projectiles []ProjectileState
}

// Snapshot copies the current dynamic state.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{Tick: w.tick}
	if p := w.player; p != nil {
		s.HasPlayer = true
		s.Player = BodyState{Position: p.Body.Position.P, Velocity: p.Body.Velocity.V}
		s.Facing = p.Facing
	}
	s.Projectiles = make([]ProjectileState, 0, len(w.shots))
	for _, sh := range w.shots {
		s.Projectiles = append(s.Projectiles, ProjectileState{
			ID:        sh.ID,
			BodyState: BodyState{Position: sh.Body.Position.P, Velocity: sh.Body.Velocity.V},
			Bounces:   sh.Body.Bounces,
		})
	}
	return s
}

// Checksum hashes the tick number and every resolved position. Peers running
// the same inputs produce the same value; projectile ids are excluded since
// they are generated locally.
func (w *World) Checksum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putVec := func(v physics.Vec2) {
		put(math.Float64bits(v[0]))
		put(math.Float64bits(v[1]))
	}

	put(w.tick)
	if p := w.player; p != nil {
		putVec(p.Body.Position.P)
	}
	put(uint64(len(w.shots)))
	for _, s := range w.shots {
		putVec(s.Body.Position.P)
	}
	return d.Sum64()
}
