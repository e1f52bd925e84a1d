package collide

import (
	"fmt"

	"github.com/zeusync/arcade/internal/core/physics"
	"github.com/zeusync/arcade/internal/core/spatial"
)

// Kind tags the variant of a Result. Callers switch on it exhaustively.
type Kind uint8

const (
	// Miss: nothing is touched within the interval.
	Miss Kind = iota
	// Contact: the mover already overlaps or touches an obstacle at the start
	// of the interval. No time elapses before the contact.
	Contact
	// Toi: the mover first touches an obstacle at Time, 0 < Time <= interval.
	Toi
)

func (k Kind) String() string {
	switch k {
	case Miss:
		return "miss"
	case Contact:
		return "contact"
	case Toi:
		return "toi"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Result is the outcome of a swept query.
type Result struct {
	Kind Kind
	// Handle of the obstacle hit. Unset for Miss.
	Handle spatial.Handle
	// Normal is a unit vector pointing from the obstacle towards the mover.
	Normal physics.Vec2
	// Point is the closest point on the obstacle surface (Contact only).
	Point physics.Vec2
	// Depth is how far the mover has to travel along Normal to just touch
	// the obstacle (Contact only, never negative).
	Depth float64
	// Time of impact in seconds (Toi only).
	Time float64
}

func MissResult() Result { return Result{Kind: Miss} }

func ContactResult(h spatial.Handle, point, normal physics.Vec2, depth float64) Result {
	return Result{Kind: Contact, Handle: h, Point: point, Normal: normal, Depth: depth}
}

func ToiResult(h spatial.Handle, normal physics.Vec2, t float64) Result {
	return Result{Kind: Toi, Handle: h, Normal: normal, Time: t}
}

func (r Result) String() string {
	switch r.Kind {
	case Contact:
		return fmt.Sprintf("contact(h=%d n=%v depth=%g)", r.Handle, r.Normal, r.Depth)
	case Toi:
		return fmt.Sprintf("toi(h=%d n=%v t=%g)", r.Handle, r.Normal, r.Time)
	default:
		return "miss"
	}
}
