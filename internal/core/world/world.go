package world

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/arcade/internal/core/collide"
	"github.com/zeusync/arcade/internal/core/events"
	"github.com/zeusync/arcade/internal/core/movement"
	"github.com/zeusync/arcade/internal/core/observability/log"
	"github.com/zeusync/arcade/internal/core/physics"
	"github.com/zeusync/arcade/internal/core/tick"
	"github.com/zeusync/arcade/pkg/concurrent"
)

var (
	// ErrMissingPlayer is returned by Tick when no player has been spawned.
	// It signals a setup bug and aborts the frame.
	ErrMissingPlayer = errors.New("world has no player")
	ErrPlayerExists  = errors.New("player already spawned")
	ErrNotIndexed    = errors.New("static set must be indexed before the world runs")
)

// PlayerConfig holds the player's movement constants.
type PlayerConfig struct {
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed"`
	Margin float64 `yaml:"margin"`
}

// ShotConfig holds projectile constants.
type ShotConfig struct {
	Radius       float64       `yaml:"radius"`
	Speed        float64       `yaml:"speed"`
	Bounces      int           `yaml:"bounces"`
	Margin       float64       `yaml:"margin"`
	FireInterval time.Duration `yaml:"fire_interval"`
}

// Config is read-only once the world is built.
type Config struct {
	Step   time.Duration `yaml:"-"`
	Player PlayerConfig  `yaml:"player"`
	Shot   ShotConfig    `yaml:"shot"`
	// Workers caps the goroutines used to resolve bodies. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Chunk is the number of bodies resolved per goroutine.
	Chunk int `yaml:"chunk"`
}

const float32Epsilon = 1.1920929e-07

func DefaultConfig() Config {
	return Config{
		Step: time.Second / 60,
		Player: PlayerConfig{
			Radius: 96,
			Speed:  900,
			Margin: 8192 * float32Epsilon,
		},
		Shot: ShotConfig{
			Radius:       26,
			Speed:        2700,
			Bounces:      3,
			Margin:       1024 * float32Epsilon,
			FireInterval: 100 * time.Millisecond,
		},
		Chunk: 32,
	}
}

// RemoteInputs supplies input received from the network for a tick.
type RemoteInputs interface {
	InputFor(tick uint64) (Input, bool)
}

// InputPublisher receives the input applied in every executed tick.
type InputPublisher interface {
	PublishInput(tick uint64, in Input, checksum uint64) error
}

type Option func(*World)

func WithRemoteInputs(r RemoteInputs) Option { return func(w *World) { w.remote = r } }

func WithInputPublisher(p InputPublisher) Option { return func(w *World) { w.publisher = p } }

func WithBus(b events.Bus) Option { return func(w *World) { w.bus = b } }

// World owns every dynamic entity and runs one simulation tick at a time.
// Tick, Snapshot and the Spawn methods belong to the simulation goroutine;
// SetInput may be called from any goroutine.
type World struct {
	cfg      Config
	statics  *collide.Statics
	resolver *movement.Resolver
	bus      events.Bus
	log      log.Log

	remote    RemoteInputs
	publisher InputPublisher

	inputMu sync.Mutex
	local   Input

	player *Player
	shots  []*Projectile
	tick   uint64

	outcomes []movement.Outcome
	scratch  []movement.Body
	bodies   []*movement.Body
}

func New(cfg Config, statics *collide.Statics, resolver *movement.Resolver, logger log.Log, opts ...Option) (*World, error) {
	if !statics.Indexed() {
		return nil, ErrNotIndexed
	}
	if logger == nil {
		logger = log.NewNop()
	}
	w := &World{
		cfg:      cfg,
		statics:  statics,
		resolver: resolver,
		log:      logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.bus == nil {
		w.bus = events.NewBus()
	}
	return w, nil
}

func (w *World) Bus() events.Bus { return w.bus }

// LastTick is the number of the most recently executed tick.
func (w *World) LastTick() uint64 { return w.tick }

func (w *World) Player() (*Player, bool) { return w.player, w.player != nil }

func (w *World) Projectiles() []*Projectile { return w.shots }

// SetInput replaces the local input used by ticks with no remote input.
func (w *World) SetInput(in Input) {
	w.inputMu.Lock()
	w.local = in.Normalized()
	w.inputMu.Unlock()
}

func (w *World) localInput() Input {
	w.inputMu.Lock()
	defer w.inputMu.Unlock()
	return w.local
}

// SpawnPlayer places the player. Only one player may exist.
func (w *World) SpawnPlayer(pos physics.Position) error {
	if w.player != nil {
		return ErrPlayerExists
	}
	shape := physics.Circle(w.cfg.Player.Radius)
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("spawn player: %w", err)
	}
	if !physics.Finite(pos.P) {
		return fmt.Errorf("spawn player: position %v is not finite", pos.P)
	}
	w.player = &Player{Body: movement.Body{
		Shape:    shape,
		Position: pos,
		Policy:   movement.Slide,
		Margin:   w.cfg.Player.Margin,
	}}
	return nil
}

// SpawnProjectile adds a projectile with the configured bounce budget.
func (w *World) SpawnProjectile(pos physics.Position, vel physics.Velocity) (uuid.UUID, error) {
	shape := physics.Circle(w.cfg.Shot.Radius)
	if err := shape.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("spawn projectile: %w", err)
	}
	if !physics.Finite(pos.P) || !physics.Finite(vel.V) {
		return uuid.Nil, fmt.Errorf("spawn projectile: non-finite state %v %v", pos.P, vel.V)
	}
	p := &Projectile{
		ID:        uuid.New(),
		SpawnedAt: w.tick,
		Body: movement.Body{
			Shape:    shape,
			Position: pos,
			Velocity: vel,
			Policy:   movement.Reflect,
			Bounces:  w.cfg.Shot.Bounces,
			Margin:   w.cfg.Shot.Margin,
		},
	}
	w.shots = append(w.shots, p)
	return p.ID, nil
}

// Tick runs simulation tick n: input, shot spawning, concurrent movement
// resolution, then removal of destroyed projectiles and publication.
func (w *World) Tick(ctx context.Context, n uint64) error {
	if w.player == nil {
		return ErrMissingPlayer
	}

	in := w.localInput()
	if w.remote != nil {
		if r, ok := w.remote.InputFor(n); ok {
			in = r.Normalized()
		}
	}
	saved := w.checkpoint()
	w.player.apply(in, w.cfg.Player.Speed, w.cfg.Shot.FireInterval)

	var pending []events.Event
	pending = append(pending, w.spawnShots(n)...)

	// A failed tick leaves the world as it was, so the step can run again.
	if err := w.resolve(ctx); err != nil {
		w.rollback(saved)
		return err
	}
	pending = append(pending, w.removeDestroyed(n)...)
	w.tick = n

	sum := w.Checksum()
	if w.publisher != nil {
		if err := w.publisher.PublishInput(n, in, sum); err != nil {
			w.log.Warn("publish input failed", log.Uint64("tick", n), log.Error(err))
		}
	}

	truncated := 0
	for _, o := range w.outcomes {
		if o.Truncated {
			truncated++
		}
	}
	pending = append(pending, events.TickResolved{
		AtTick:      n,
		Checksum:    sum,
		Projectiles: len(w.shots),
		Truncated:   truncated,
	})
	if err := w.bus.PublishBatch(pending...); err != nil {
		w.log.Warn("event handler failed", log.Uint64("tick", n), log.Error(err))
	}
	return nil
}

func (w *World) spawnShots(n uint64) []events.Event {
	p := w.player
	if p.shots == nil {
		return nil
	}
	due := p.shots.Advance(w.cfg.Step)
	if due == 0 {
		return nil
	}

	dir := p.Direction()
	pos := p.Body.Position.P.Add(dir.Mul(w.cfg.Player.Radius + w.cfg.Shot.Radius))
	vel := dir.Mul(w.cfg.Shot.Speed)

	out := make([]events.Event, 0, due)
	for i := 0; i < due; i++ {
		id, err := w.SpawnProjectile(physics.Position{P: pos}, physics.Velocity{V: vel})
		if err != nil {
			w.log.Warn("spawn projectile failed", log.Uint64("tick", n), log.Error(err))
			continue
		}
		out = append(out, events.ProjectileSpawned{ID: id, AtTick: n, Position: pos, Velocity: vel})
	}
	return out
}

// checkpoint is the state Tick changes before movement is committed.
type checkpoint struct {
	player Player
	acc    tick.Accumulator
	shots  int
}

func (w *World) checkpoint() checkpoint {
	c := checkpoint{player: *w.player, shots: len(w.shots)}
	if w.player.shots != nil {
		c.acc = *w.player.shots
	}
	return c
}

func (w *World) rollback(c checkpoint) {
	*w.player = c.player
	if c.player.shots != nil {
		acc := c.acc
		w.player.shots = &acc
	}
	clear(w.shots[c.shots:])
	w.shots = w.shots[:c.shots]
}

// resolve moves copies of every body and writes them back only when all of
// them were resolved.
func (w *World) resolve(ctx context.Context) error {
	w.scratch = w.scratch[:0]
	w.scratch = append(w.scratch, w.player.Body)
	for _, s := range w.shots {
		w.scratch = append(w.scratch, s.Body)
	}
	w.bodies = w.bodies[:0]
	for i := range w.scratch {
		w.bodies = append(w.bodies, &w.scratch[i])
	}
	if cap(w.outcomes) < len(w.bodies) {
		w.outcomes = make([]movement.Outcome, len(w.bodies))
	}
	w.outcomes = w.outcomes[:len(w.bodies)]

	dt := w.cfg.Step.Seconds()
	opts := concurrent.Options{Limit: w.cfg.Workers, ChunkSize: w.cfg.Chunk}
	err := concurrent.ForEach(ctx, w.bodies, opts, func(_ context.Context, i int, b *movement.Body) error {
		w.outcomes[i] = w.resolver.Resolve(b, dt)
		return nil
	})
	if err != nil {
		return err
	}

	w.player.Body = w.scratch[0]
	for i, s := range w.shots {
		s.Body = w.scratch[i+1]
	}
	return nil
}

// removeDestroyed runs after every body of the tick has been resolved.
func (w *World) removeDestroyed(n uint64) []events.Event {
	var out []events.Event
	kept := w.shots[:0]
	for i, s := range w.shots {
		o := w.outcomes[i+1]
		s.Impacts += o.Impacts
		if !o.Destroyed {
			kept = append(kept, s)
			continue
		}
		out = append(out, events.ProjectileDestroyed{
			ID:       s.ID,
			AtTick:   n,
			Position: s.Body.Position.P,
			Impacts:  s.Impacts,
		})
	}
	for i := len(kept); i < len(w.shots); i++ {
		w.shots[i] = nil
	}
	w.shots = kept
	return out
}
