package tick

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeusync/arcade/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid tick config")

const (
	DefaultStep   = time.Second / 60
	DefaultBudget = 100 * time.Millisecond

	reportInterval = time.Second
)

// Config is fixed for the lifetime of a Scheduler.
type Config struct {
	// Step is the simulated duration of one tick.
	Step time.Duration `yaml:"step"`
	// Budget caps the wall-clock time spent stepping in one frame.
	Budget time.Duration `yaml:"budget"`
}

func DefaultConfig() Config {
	return Config{Step: DefaultStep, Budget: DefaultBudget}
}

func (c Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("%w: step %v must be positive", ErrInvalidConfig, c.Step)
	}
	if c.Budget < 0 {
		return fmt.Errorf("%w: budget %v must not be negative", ErrInvalidConfig, c.Budget)
	}
	return nil
}

// Simulation executes exactly one tick. n is the 1-based tick number and
// increases strictly across calls.
type Simulation interface {
	Tick(ctx context.Context, n uint64) error
}

// SimulationFunc adapts a function to Simulation.
type SimulationFunc func(ctx context.Context, n uint64) error

func (f SimulationFunc) Tick(ctx context.Context, n uint64) error { return f(ctx, n) }

// Phase is the scheduler's position within a frame.
type Phase uint32

const (
	PhaseAccumulating Phase = iota
	PhaseStepping
	PhaseDraining
)

func (p Phase) String() string {
	switch p {
	case PhaseAccumulating:
		return "accumulating"
	case PhaseStepping:
		return "stepping"
	case PhaseDraining:
		return "draining"
	default:
		return fmt.Sprintf("phase(%d)", uint32(p))
	}
}

// Scheduler turns variable frame time, or externally announced ticks, into
// a bounded number of fixed simulation ticks per frame.
//
// Frame, Drain and Reset must be called from one goroutine. NotifyTicks may
// be called from any goroutine.
type Scheduler struct {
	cfg   Config
	sim   Simulation
	clock Clock
	log   log.Log

	acc     time.Duration
	pending atomic.Int64
	ticks   atomic.Uint64
	phase   atomic.Uint32

	perFrame    Metric
	windowStart time.Time
}

func NewScheduler(cfg Config, sim Simulation, clock Clock, logger log.Log) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Scheduler{
		cfg:         cfg,
		sim:         sim,
		clock:       clock,
		log:         logger,
		perFrame:    NewMetric(),
		windowStart: clock.Now(),
	}, nil
}

func (s *Scheduler) Config() Config { return s.cfg }

// Phase reports the current frame phase.
func (s *Scheduler) Phase() Phase { return Phase(s.phase.Load()) }

// Accumulated is the simulated time waiting to be stepped.
func (s *Scheduler) Accumulated() time.Duration { return s.acc }

// Pending is the number of externally announced ticks not yet executed.
func (s *Scheduler) Pending() int64 { return s.pending.Load() }

// Ticks is the number of ticks executed so far.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Frame adds elapsed to the accumulator and runs due ticks until the
// accumulator drops below one step or the wall-clock budget is spent.
// Unrun steps stay in the accumulator. It returns the number of ticks run.
func (s *Scheduler) Frame(ctx context.Context, elapsed time.Duration) (int, error) {
	s.setPhase(PhaseAccumulating)
	if elapsed > 0 {
		s.acc += elapsed
	}

	s.setPhase(PhaseStepping)
	start := s.clock.Now()
	ran := 0
	for s.acc >= s.cfg.Step && s.clock.Now().Sub(start) <= s.cfg.Budget {
		if err := ctx.Err(); err != nil {
			s.setPhase(PhaseDraining)
			return ran, err
		}
		s.acc -= s.cfg.Step
		if err := s.step(ctx); err != nil {
			s.acc += s.cfg.Step
			s.setPhase(PhaseDraining)
			return ran, err
		}
		ran++
	}

	s.setPhase(PhaseDraining)
	s.observe(ran)
	return ran, nil
}

// NotifyTicks announces n more ticks to be run by Drain.
func (s *Scheduler) NotifyTicks(n int) {
	if n <= 0 {
		return
	}
	s.pending.Add(int64(n))
}

// Drain runs announced ticks under the same budget rule as Frame.
func (s *Scheduler) Drain(ctx context.Context) (int, error) {
	s.setPhase(PhaseStepping)
	start := s.clock.Now()
	ran := 0
	for s.pending.Load() > 0 && s.clock.Now().Sub(start) <= s.cfg.Budget {
		if err := ctx.Err(); err != nil {
			s.setPhase(PhaseDraining)
			return ran, err
		}
		s.pending.Add(-1)
		if err := s.step(ctx); err != nil {
			s.pending.Add(1)
			s.setPhase(PhaseDraining)
			return ran, err
		}
		ran++
	}

	s.setPhase(PhaseDraining)
	s.observe(ran)
	return ran, nil
}

// Reset clears the accumulator and pending ticks. The tick counter keeps counting.
func (s *Scheduler) Reset() {
	s.acc = 0
	s.pending.Store(0)
	s.setPhase(PhaseAccumulating)
}

func (s *Scheduler) step(ctx context.Context) error {
	n := s.ticks.Load() + 1
	if err := s.sim.Tick(ctx, n); err != nil {
		return fmt.Errorf("tick %d: %w", n, err)
	}
	s.ticks.Store(n)
	return nil
}

func (s *Scheduler) setPhase(p Phase) { s.phase.Store(uint32(p)) }

func (s *Scheduler) observe(ran int) {
	s.perFrame.Sample(float64(ran))

	now := s.clock.Now()
	window := now.Sub(s.windowStart)
	if window < reportInterval {
		return
	}
	if s.log.Enabled(log.LevelDebug) {
		s.log.Debug("tick rate",
			log.Float64("tps", s.perFrame.Total()/window.Seconds()),
			log.Float64("per_frame_min", s.perFrame.Min()),
			log.Float64("per_frame_max", s.perFrame.Max()),
			log.Float64("per_frame_avg", s.perFrame.Avg()),
			log.Duration("carried", s.acc),
			log.Int64("pending", s.pending.Load()),
		)
	}
	s.perFrame.Reset()
	s.windowStart = now
}
