package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the 2D vector used across the simulation.
type Vec2 = mgl64.Vec2

// Zero is the zero vector.
var Zero = Vec2{0, 0}

// Position is a point in world space. It is owned by exactly one entity.
type Position struct{ P Vec2 }

// NewPosition returns a position at (x, y).
func NewPosition(x, y float64) Position { return Position{P: Vec2{x, y}} }

// Transform converts the position into a rigid transform with identity rotation.
func (p Position) Transform() Transform { return Transform{Translation: p.P} }

// Velocity is a displacement per second.
type Velocity struct{ V Vec2 }

// NewVelocity returns a velocity of (x, y) units per second.
func NewVelocity(x, y float64) Velocity { return Velocity{V: Vec2{x, y}} }

// IsZero reports the at-rest state. Only an exact zero counts.
func (v Velocity) IsZero() bool { return v.V[0] == 0 && v.V[1] == 0 }

// Transform is a translation plus rotation. Rotation is always zero for
// bodies in this simulation but is kept so callers can hand it to a renderer.
type Transform struct {
	Translation Vec2
	Rotation    float64
}

// Position2 returns the translation components.
func (t Transform) Position2() (x, y float64) { return t.Translation[0], t.Translation[1] }

// Reflect mirrors v across the plane with unit normal n.
func Reflect(v, n Vec2) Vec2 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// Slide removes the component of v along the unit normal n.
func Slide(v, n Vec2) Vec2 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// Finite reports whether both components are neither NaN nor infinite.
func Finite(v Vec2) bool {
	return isFinite(v[0]) && isFinite(v[1])
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
