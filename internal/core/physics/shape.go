package physics

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidExtent = errors.New("shape extent must be finite and positive")
	ErrUnknownShape  = errors.New("unknown shape kind")
)

// ShapeKind tags the variant held by a Shape.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota + 1
	ShapeRect
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapeRect:
		return "rect"
	default:
		return fmt.Sprintf("shape(%d)", uint8(k))
	}
}

// Shape is an axis-aligned collidable primitive: a circle or a rectangle.
// Values are immutable after construction and may be shared by readers.
type Shape struct {
	kind   ShapeKind
	radius float64
	half   Vec2
}

// Circle returns a circle of radius r.
func Circle(r float64) Shape {
	return Shape{kind: ShapeCircle, radius: r, half: Vec2{r, r}}
}

// Rect returns an axis-aligned rectangle with the given full width and height.
func Rect(w, h float64) Shape {
	return Shape{kind: ShapeRect, half: Vec2{w / 2, h / 2}}
}

// RectHalf returns an axis-aligned rectangle from half-extents.
func RectHalf(hx, hy float64) Shape {
	return Shape{kind: ShapeRect, half: Vec2{hx, hy}}
}

func (s Shape) Kind() ShapeKind { return s.kind }

// Radius is the circle radius, zero for rectangles.
func (s Shape) Radius() float64 {
	if s.kind == ShapeCircle {
		return s.radius
	}
	return 0
}

// HalfExtents of the shape's bounding box.
func (s Shape) HalfExtents() Vec2 { return s.half }

// Box returns the half-extents of the flat part of the shape, i.e. the
// rectangle left after removing the rounded radius. A circle has a zero box.
func (s Shape) Box() Vec2 {
	if s.kind == ShapeCircle {
		return Zero
	}
	return s.half
}

// AABB computes the bounding box of the shape placed at pos.
func (s Shape) AABB(pos Position) AABB {
	return AABB{Min: pos.P.Sub(s.half), Max: pos.P.Add(s.half)}
}

// Validate rejects degenerate geometry. Entity creation code calls this
// before a shape reaches the simulation; the core does not re-check.
// A zero-radius circle is accepted and behaves as a point.
func (s Shape) Validate() error {
	switch s.kind {
	case ShapeCircle:
		if !isFinite(s.radius) || s.radius < 0 {
			return fmt.Errorf("circle radius %v: %w", s.radius, ErrInvalidExtent)
		}
	case ShapeRect:
		if !Finite(s.half) || s.half[0] <= 0 || s.half[1] <= 0 {
			return fmt.Errorf("rect half-extents %v: %w", s.half, ErrInvalidExtent)
		}
	default:
		return ErrUnknownShape
	}
	return nil
}

func (s Shape) String() string {
	if s.kind == ShapeCircle {
		return fmt.Sprintf("circle(r=%g)", s.radius)
	}
	return fmt.Sprintf("rect(hx=%g, hy=%g)", s.half[0], s.half[1])
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec2
}

// EmptyAABB returns an inverted box that any Union will replace.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: Vec2{inf, inf}, Max: Vec2{-inf, -inf}}
}

func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vec2{math.Min(b.Min[0], o.Min[0]), math.Min(b.Min[1], o.Min[1])},
		Max: Vec2{math.Max(b.Max[0], o.Max[0]), math.Max(b.Max[1], o.Max[1])},
	}
}

func (b AABB) Center() Vec2 { return b.Min.Add(b.Max).Mul(0.5) }

func (b AABB) HalfExtents() Vec2 { return b.Max.Sub(b.Min).Mul(0.5) }

// SweepEntry returns the earliest time in [0, +inf) at which a box with
// half-extents half centered at p, moving with velocity v, starts to overlap b.
// It returns +inf if the two never meet. Used as a broad-phase lower bound.
func (b AABB) SweepEntry(p, half, v Vec2) float64 {
	enter, exit := 0.0, math.Inf(1)
	for axis := 0; axis < 2; axis++ {
		lo := b.Min[axis] - half[axis]
		hi := b.Max[axis] + half[axis]
		if v[axis] == 0 {
			if p[axis] < lo || p[axis] > hi {
				return math.Inf(1)
			}
			continue
		}
		t1 := (lo - p[axis]) / v[axis]
		t2 := (hi - p[axis]) / v[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		enter = math.Max(enter, t1)
		exit = math.Min(exit, t2)
		if enter > exit {
			return math.Inf(1)
		}
	}
	return enter
}
