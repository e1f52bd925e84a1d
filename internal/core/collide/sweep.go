package collide

import (
	"math"
	"sync/atomic"

	"github.com/zeusync/arcade/internal/core/observability/log"
	"github.com/zeusync/arcade/internal/core/physics"
	"github.com/zeusync/arcade/internal/core/spatial"
)

// Mover is the moving side of a swept query.
type Mover struct {
	Shape    physics.Shape
	Position physics.Position
	Velocity physics.Velocity
}

// Sweeper runs swept queries against an indexed static set. It is safe for
// concurrent use once the set has been indexed.
type Sweeper struct {
	statics *Statics
	log     log.Log

	failures atomic.Uint64
}

func NewSweeper(statics *Statics, logger log.Log) *Sweeper {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Sweeper{statics: statics, log: logger}
}

// Failures counts narrow-phase evaluations that produced non-finite values
// and were treated as misses.
func (s *Sweeper) Failures() uint64 { return s.failures.Load() }

// Sweep returns the earliest interaction of m with the static set within
// [0, maxTime] seconds. Penetration at the start wins over any impact;
// among penetrations the deepest wins.
func (s *Sweeper) Sweep(m Mover, maxTime float64) Result {
	if maxTime < 0 {
		maxTime = 0
	}
	p, v := m.Position.P, m.Velocity.V
	if !physics.Finite(p) || !physics.Finite(v) || math.IsNaN(maxTime) {
		s.fail("non-finite mover, treating as miss", log.Stringer("shape", m.Shape))
		return MissResult()
	}
	half := m.Shape.HalfExtents()

	bound := func(box physics.AABB) float64 {
		return box.SweepEntry(p, half, v)
	}

	var current Result
	leaf := func(h spatial.Handle, best float64) (float64, Result, bool) {
		st, ok := s.statics.Get(h)
		if !ok {
			return 0, Result{}, false
		}
		res, ok := s.evaluate(m, st, h, maxTime)
		if !ok {
			return 0, Result{}, false
		}

		var cost float64
		switch res.Kind {
		case Miss:
			return 0, Result{}, false
		case Contact:
			cost = 0
		case Toi:
			cost = res.Time
		}

		better := false
		switch {
		case current.Kind == Miss:
			better = cost <= best
		case cost < best:
			better = true
		case cost == best && res.Kind == Contact && current.Kind == Contact:
			better = res.Depth > current.Depth
		}
		if better {
			current = res
		}
		return cost, res, better
	}

	_, res, found := spatial.Query(s.statics.Tree(), maxTime, bound, leaf)
	if !found {
		return MissResult()
	}
	return res
}

// evaluate runs the narrow phase for one obstacle. A computation that did
// not produce finite numbers is counted, logged and reported as not ok.
func (s *Sweeper) evaluate(m Mover, st Static, h spatial.Handle, maxTime float64) (Result, bool) {
	res, ok := s.pair(m, st, h, maxTime)
	if !ok {
		s.fail("narrow phase did not converge, treating as miss",
			log.Int64("handle", int64(h)),
			log.String("obstacle", st.Name),
			log.Stringer("shape", m.Shape),
		)
		return MissResult(), false
	}
	return res, true
}

func (s *Sweeper) fail(msg string, fields ...log.Field) {
	s.failures.Add(1)
	s.log.Debug(msg, fields...)
}

// pair computes the exact result for one obstacle. ok is false when the
// computation produced non-finite numbers.
func (s *Sweeper) pair(m Mover, st Static, h spatial.Handle, maxTime float64) (Result, bool) {
	rb := minkowski(m.Shape, st.Shape)
	q := m.Position.P.Sub(st.Position.P)

	d, n := rb.distance(q)
	if math.IsNaN(d) || !physics.Finite(n) {
		return Result{}, false
	}
	if d <= 0 {
		point := st.Position.P.Add(surfacePoint(st.Shape, q, n))
		return ContactResult(h, point, n, -d), true
	}
	if m.Velocity.IsZero() {
		return MissResult(), true
	}

	t, n, hit := rb.cast(q, m.Velocity.V, maxTime)
	if !hit {
		return MissResult(), true
	}
	if math.IsNaN(t) || !physics.Finite(n) {
		return Result{}, false
	}
	if t <= 0 {
		// Touching at the very start of the interval: reporting a zero-time
		// impact would let the resolver spin without making progress.
		point := st.Position.P.Add(surfacePoint(st.Shape, q, n))
		return ContactResult(h, point, n, 0), true
	}
	return ToiResult(h, n, t), true
}
