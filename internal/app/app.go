package app

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/arcade/internal/core/events"
	"github.com/zeusync/arcade/internal/core/observability/log"
	"github.com/zeusync/arcade/internal/core/tick"
	"github.com/zeusync/arcade/internal/core/world"
)

const reportInterval = time.Second

// Pacing selects where ticks come from.
type Pacing uint8

const (
	// WallClock steps the world from frame time.
	WallClock Pacing = iota
	// Announced steps the world once per tick announced by a tick source.
	Announced
)

func (p Pacing) String() string {
	if p == Announced {
		return "announced"
	}
	return "wall_clock"
}

type Options struct {
	Pacing Pacing
	// Frame is the interval between frames in Run.
	Frame time.Duration
}

// App drives the frame loop: tick the world through the scheduler, then
// hand the resolved state to presentation.
type App struct {
	world *world.World
	sched *tick.Scheduler
	clock tick.Clock
	log   log.Log
	opts  Options

	fps    tick.Metric
	window time.Duration
	frames uint64

	subs []events.Subscription
}

func New(w *world.World, sched *tick.Scheduler, clock tick.Clock, logger log.Log, opts Options) *App {
	if clock == nil {
		clock = tick.NewSystemClock()
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.Frame <= 0 {
		opts.Frame = time.Second / 60
	}
	a := &App{
		world: w,
		sched: sched,
		clock: clock,
		log:   logger.Named("app"),
		opts:  opts,
		fps:   tick.NewMetric(),
	}
	a.subscribe()
	return a
}

func (a *App) subscribe() {
	bus := a.world.Bus()
	if sub, err := bus.Subscribe(events.TypeProjectileDestroyed, func(e events.Event) error {
		d := e.(events.ProjectileDestroyed)
		a.log.Debug("projectile destroyed",
			log.String("id", d.ID.String()),
			log.Uint64("tick", d.AtTick),
			log.Int("impacts", d.Impacts))
		return nil
	}); err == nil {
		a.subs = append(a.subs, sub)
	}
	if sub, err := bus.Subscribe(events.TypeTickResolved, func(e events.Event) error {
		r := e.(events.TickResolved)
		if r.Truncated > 0 {
			a.log.Debug("movement truncated", log.Uint64("tick", r.AtTick), log.Int("bodies", r.Truncated))
		}
		return nil
	}); err == nil {
		a.subs = append(a.subs, sub)
	}
}

func (a *App) World() *world.World { return a.world }

func (a *App) Scheduler() *tick.Scheduler { return a.sched }

// Frames is the number of frames run so far.
func (a *App) Frames() uint64 { return a.frames }

// Frame runs one frame and returns the state presentation should draw. On
// error the snapshot still reflects the last executed tick.
func (a *App) Frame(ctx context.Context, elapsed time.Duration) (world.Snapshot, error) {
	var err error
	if a.opts.Pacing == Announced {
		_, err = a.sched.Drain(ctx)
	} else {
		_, err = a.sched.Frame(ctx, elapsed)
	}
	a.frames++
	a.sampleFrame(elapsed)

	if err != nil {
		if errors.Is(err, world.ErrMissingPlayer) {
			a.log.Error("simulation halted", log.Error(err))
		}
		return a.world.Snapshot(), err
	}
	return a.world.Snapshot(), nil
}

func (a *App) sampleFrame(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	a.fps.Sample(1 / elapsed.Seconds())
	a.window += elapsed
	if a.window < reportInterval {
		return
	}
	a.log.Info("frame rate",
		log.Float64("fps_min", a.fps.Min()),
		log.Float64("fps_max", a.fps.Max()),
		log.Float64("fps_avg", a.fps.Avg()),
		log.Uint64("tick", a.world.LastTick()),
		log.Int("projectiles", len(a.world.Projectiles())))
	a.fps.Reset()
	a.window = 0
}

// Run calls Frame every opts.Frame until ctx is done or a frame fails.
// Presentation hooks receive each snapshot.
func (a *App) Run(ctx context.Context, present func(world.Snapshot)) error {
	ticker := time.NewTicker(a.opts.Frame)
	defer ticker.Stop()
	defer a.unsubscribe()

	a.log.Info("frame loop started", log.Stringer("pacing", a.opts.Pacing), log.Duration("frame", a.opts.Frame))
	last := a.clock.Now()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("frame loop stopped", log.Uint64("frames", a.frames), log.Uint64("ticks", a.sched.Ticks()))
			return nil
		case <-ticker.C:
			now := a.clock.Now()
			snap, err := a.Frame(ctx, now.Sub(last))
			last = now
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if present != nil {
				present(snap)
			}
		}
	}
}

func (a *App) unsubscribe() {
	for _, s := range a.subs {
		_ = s.Cancel()
	}
	a.subs = nil
}
