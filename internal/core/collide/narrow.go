package collide

import (
	"math"

	"github.com/zeusync/arcade/internal/core/physics"
)

// roundedBox is the Minkowski sum of an axis-aligned box and a disk, centered
// on the obstacle. For two axis-aligned shapes, the set of mover centers that
// overlap the obstacle is always such a shape:
//
//	circle/circle  box 0,      radius r1+r2
//	circle/rect    box h,      radius r
//	rect/rect      box h1+h2,  radius 0
//	rect/circle    box h,      radius r
//
// so every pair is handled as a point against one roundedBox.
type roundedBox struct {
	half   physics.Vec2
	radius float64
}

func minkowski(mover, obstacle physics.Shape) roundedBox {
	return roundedBox{
		half:   mover.Box().Add(obstacle.Box()),
		radius: mover.Radius() + obstacle.Radius(),
	}
}

// distance returns the signed distance from q to the surface and the outward
// unit normal. Inside the shape the normal points along the axis of least
// penetration.
func (rb roundedBox) distance(q physics.Vec2) (float64, physics.Vec2) {
	sx := math.Abs(q[0]) - rb.half[0]
	sy := math.Abs(q[1]) - rb.half[1]
	gx, gy := sign(q[0]), sign(q[1])

	if sx > 0 && sy > 0 {
		l := math.Hypot(sx, sy)
		return l - rb.radius, physics.Vec2{gx * sx / l, gy * sy / l}
	}
	if sx >= sy {
		return sx - rb.radius, physics.Vec2{gx, 0}
	}
	return sy - rb.radius, physics.Vec2{0, gy}
}

// cast finds the first t in [0, maxTime] at which q+v*t reaches the surface.
// q must start outside the shape.
func (rb roundedBox) cast(q, v physics.Vec2, maxTime float64) (float64, physics.Vec2, bool) {
	ext := physics.Vec2{rb.half[0] + rb.radius, rb.half[1] + rb.radius}

	enter, exit := math.Inf(-1), math.Inf(1)
	axis := -1
	for a := 0; a < 2; a++ {
		if v[a] == 0 {
			if math.Abs(q[a]) > ext[a] {
				return 0, physics.Vec2{}, false
			}
			continue
		}
		t1 := (-ext[a] - q[a]) / v[a]
		t2 := (ext[a] - q[a]) / v[a]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > enter {
			enter, axis = t1, a
		}
		exit = math.Min(exit, t2)
	}
	if enter > exit || exit < 0 {
		return 0, physics.Vec2{}, false
	}
	if enter < 0 {
		// Already inside the expanded box, which for a point outside the
		// shape means a rounded corner region.
		enter, axis = 0, -1
	}
	if enter > maxTime {
		return 0, physics.Vec2{}, false
	}

	e := q.Add(v.Mul(enter))
	if rb.radius > 0 && math.Abs(e[0]) > rb.half[0] && math.Abs(e[1]) > rb.half[1] {
		corner := physics.Vec2{sign(e[0]) * rb.half[0], sign(e[1]) * rb.half[1]}
		t, ok := castCircle(q.Sub(corner), v, rb.radius)
		if !ok || t > maxTime {
			return 0, physics.Vec2{}, false
		}
		n := q.Add(v.Mul(t)).Sub(corner).Mul(1 / rb.radius)
		return t, n, true
	}

	if axis < 0 {
		_, n := rb.distance(e)
		return enter, n, true
	}
	var n physics.Vec2
	n[axis] = -sign(v[axis])
	return enter, n, true
}

// castCircle returns the smallest t >= 0 with |o + v*t| = r.
func castCircle(o, v physics.Vec2, r float64) (float64, bool) {
	c := o.Dot(o) - r*r
	if c <= 0 {
		return 0, true
	}
	a := v.Dot(v)
	if a == 0 {
		return 0, false
	}
	b := o.Dot(v)
	disc := b*b - a*c
	if disc < 0 || b >= 0 {
		return 0, false
	}
	return (-b - math.Sqrt(disc)) / a, true
}

// surfacePoint returns the point of the obstacle closest to a mover whose
// center is at q relative to the obstacle, given the separation normal n.
func surfacePoint(obstacle physics.Shape, q, n physics.Vec2) physics.Vec2 {
	if obstacle.Kind() == physics.ShapeCircle {
		return n.Mul(obstacle.Radius())
	}
	h := obstacle.HalfExtents()
	k := physics.Vec2{clamp(q[0], -h[0], h[0]), clamp(q[1], -h[1], h[1])}
	if k == q {
		switch {
		case n[1] == 0:
			k[0] = sign(n[0]) * h[0]
		case n[0] == 0:
			k[1] = sign(n[1]) * h[1]
		}
	}
	return k
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
