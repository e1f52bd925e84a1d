package movement

import (
	"sync/atomic"

	"github.com/zeusync/arcade/internal/core/collide"
	"github.com/zeusync/arcade/internal/core/observability/log"
)

// DefaultMaxIterations bounds the sweep/respond loop per body per tick.
const DefaultMaxIterations = 8

// Sweeper is the swept query the resolver consumes.
type Sweeper interface {
	Sweep(m collide.Mover, maxTime float64) collide.Result
}

// Outcome describes what one Resolve call did.
type Outcome struct {
	Iterations int
	// Consumed is the simulated time actually travelled, never more than dt.
	Consumed float64
	Impacts  int
	// Truncated is set when the iteration cap stopped the loop with time left.
	Truncated bool
	// Destroyed is set when a reflecting body ran out of bounces. The caller
	// removes the entity once every body of the tick has been resolved.
	Destroyed bool
}

// Resolver advances bodies through the static world one tick at a time.
// A single Resolver may be used from many goroutines; each Resolve call only
// touches the body it is given.
type Resolver struct {
	sweeper       Sweeper
	maxIterations int
	log           log.Log

	truncated atomic.Uint64
	destroyed atomic.Uint64
}

// NewResolver creates a resolver. maxIterations <= 0 selects DefaultMaxIterations.
func NewResolver(sweeper Sweeper, maxIterations int, logger log.Log) *Resolver {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Resolver{
		sweeper:       sweeper,
		maxIterations: maxIterations,
		log:           logger,
	}
}

func (r *Resolver) MaxIterations() int { return r.maxIterations }

// Truncations counts ticks cut short by the iteration cap.
func (r *Resolver) Truncations() uint64 { return r.truncated.Load() }

// Destructions counts bodies that exhausted their bounce budget.
func (r *Resolver) Destructions() uint64 { return r.destroyed.Load() }

// Resolve moves b through dt seconds, mutating its position and velocity in place.
func (r *Resolver) Resolve(b *Body, dt float64) Outcome {
	var out Outcome
	if b.Velocity.IsZero() || dt <= 0 {
		return out
	}

	remaining := dt
	for remaining > 0 && out.Iterations < r.maxIterations {
		out.Iterations++

		res := r.sweeper.Sweep(b.mover(), remaining)
		switch res.Kind {
		case collide.Miss:
			b.Position.P = b.Position.P.Add(b.Velocity.V.Mul(remaining))
			out.Consumed += remaining
			remaining = 0

		case collide.Contact:
			n := res.Normal
			// Separating or tangential motion is only corrected, not treated as an impact.
			impact := b.Velocity.V.Dot(n) < 0
			if impact && b.exhausted() {
				out.Impacts++
				out.Destroyed = true
				break
			}
			b.Position.P = b.Position.P.Add(n.Mul(res.Depth + b.Margin))
			if impact {
				out.Impacts++
				b.respond(n)
			}

		case collide.Toi:
			n := res.Normal
			out.Impacts++
			// A body removed on impact keeps the position it had before this sweep.
			if b.exhausted() {
				out.Destroyed = true
				break
			}
			b.Position.P = b.Position.P.Add(b.Velocity.V.Mul(res.Time)).Add(n.Mul(b.Margin))
			out.Consumed += res.Time
			remaining -= res.Time
			b.respond(n)
		}

		if out.Destroyed {
			r.destroyed.Add(1)
			return out
		}
		if b.Velocity.IsZero() {
			return out
		}
	}

	if remaining > 0 && out.Iterations >= r.maxIterations {
		out.Truncated = true
		r.truncated.Add(1)
		r.log.Debug("iteration cap reached, movement truncated",
			log.Int("iterations", out.Iterations),
			log.Float64("remaining", remaining),
			log.Stringer("policy", b.Policy),
		)
	}
	return out
}
