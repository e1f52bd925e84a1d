package world

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arcade/internal/core/collide"
	"github.com/zeusync/arcade/internal/core/events"
	"github.com/zeusync/arcade/internal/core/movement"
	"github.com/zeusync/arcade/internal/core/physics"
)

type remoteStub map[uint64]Input

func (r remoteStub) InputFor(tick uint64) (Input, bool) {
	in, ok := r[tick]
	return in, ok
}

type published struct {
	tick     uint64
	in       Input
	checksum uint64
}

type publisherStub struct {
	got []published
	err error
}

func (p *publisherStub) PublishInput(tick uint64, in Input, checksum uint64) error {
	p.got = append(p.got, published{tick, in, checksum})
	return p.err
}

func newWorld(t *testing.T, cfg Config, opts ...Option) *World {
	t.Helper()
	statics := collide.NewStatics()
	for _, s := range []collide.Static{
		{Name: "east", Shape: physics.Rect(100, 1000), Position: physics.NewPosition(250, 0)},
		{Name: "bush", Shape: physics.Circle(50), Position: physics.NewPosition(0, 400)},
	} {
		_, err := statics.Add(s)
		require.NoError(t, err)
	}
	require.NoError(t, statics.Index())

	resolver := movement.NewResolver(collide.NewSweeper(statics, nil), 0, nil)
	w, err := New(cfg, statics, resolver, nil, opts...)
	require.NoError(t, err)
	return w
}

func run(t *testing.T, w *World, from, to uint64) {
	t.Helper()
	for n := from; n <= to; n++ {
		require.NoError(t, w.Tick(context.Background(), n))
	}
}

func TestTickWithoutPlayerFails(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	err := w.Tick(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMissingPlayer)
	assert.Zero(t, w.LastTick())
}

func TestNewRequiresIndexedStatics(t *testing.T) {
	_, err := New(DefaultConfig(), collide.NewStatics(), nil, nil)
	assert.ErrorIs(t, err, ErrNotIndexed)
}

func TestSpawnPlayerOnce(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, 0)))
	assert.ErrorIs(t, w.SpawnPlayer(physics.NewPosition(1, 1)), ErrPlayerExists)

	cfg := DefaultConfig()
	cfg.Player.Radius = -1
	bad := newWorld(t, cfg)
	assert.ErrorIs(t, bad.SpawnPlayer(physics.NewPosition(0, 0)), physics.ErrInvalidExtent)
}

func TestPlayerMovesWithInput(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, 0)))

	w.SetInput(Input{Dir: physics.Vec2{0, -1}})
	run(t, w, 1, 1)

	p, ok := w.Player()
	require.True(t, ok)
	// one step is 16666666ns, a hair under 1/60s
	assert.InDelta(t, 0, p.Body.Position.P[0], 1e-9)
	assert.InDelta(t, -15, p.Body.Position.P[1], 1e-5)
	assert.Equal(t, uint64(1), w.LastTick())

	// over-long directions are clamped
	w.SetInput(Input{Dir: physics.Vec2{0, -10}})
	run(t, w, 2, 2)
	assert.InDelta(t, -30, p.Body.Position.P[1], 1e-5)
}

func TestPlayerSlidesAgainstWall(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, 0)))

	w.SetInput(Input{Dir: physics.Vec2{1, 0}})
	run(t, w, 1, 30)

	p, _ := w.Player()
	// wall face at x=200, radius 96
	assert.Less(t, p.Body.Position.P[0], 104.0)
	assert.InDelta(t, 104, p.Body.Position.P[0], 1e-2)
	assert.Equal(t, 0.0, p.Body.Position.P[1])
}

func TestFiringSpawnsShotsAtInterval(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, -300)))

	var spawned []events.ProjectileSpawned
	_, err := w.Bus().Subscribe(events.TypeProjectileSpawned, func(e events.Event) error {
		spawned = append(spawned, e.(events.ProjectileSpawned))
		return nil
	})
	require.NoError(t, err)

	// facing -y, away from every obstacle
	w.SetInput(Input{FaceTurns: 0.75, Primary: true})
	run(t, w, 1, 1)

	require.Len(t, w.Projectiles(), 1)
	require.Len(t, spawned, 1)
	assert.InDelta(t, 0, spawned[0].Position[0], 1e-9)
	assert.InDelta(t, -300-122, spawned[0].Position[1], 1e-9)
	// moved within its spawn tick
	shot := w.Projectiles()[0]
	assert.InDelta(t, -300-122-45, shot.Body.Position.P[1], 1e-4)
	assert.Equal(t, 3, shot.Body.Bounces)

	run(t, w, 2, 6)
	assert.Len(t, w.Projectiles(), 1)
	run(t, w, 7, 7)
	assert.Len(t, w.Projectiles(), 2)

	w.SetInput(Input{FaceTurns: 0.75})
	run(t, w, 8, 20)
	assert.Len(t, w.Projectiles(), 2)
	p, _ := w.Player()
	assert.False(t, p.Firing())
}

func TestDestroyedProjectilesAreRemovedAfterTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shot.Bounces = 0
	w := newWorld(t, cfg)
	require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, -1000)))

	id, err := w.SpawnProjectile(physics.NewPosition(100, 0), physics.NewVelocity(2700, 0))
	require.NoError(t, err)
	_, err = w.SpawnProjectile(physics.NewPosition(0, -200), physics.NewVelocity(-2700, 0))
	require.NoError(t, err)

	var destroyed []events.ProjectileDestroyed
	_, _ = w.Bus().Subscribe(events.TypeProjectileDestroyed, func(e events.Event) error {
		destroyed = append(destroyed, e.(events.ProjectileDestroyed))
		return nil
	})

	run(t, w, 1, 1)
	assert.Len(t, w.Projectiles(), 2)
	run(t, w, 2, 2)

	require.Len(t, destroyed, 1)
	assert.Equal(t, id, destroyed[0].ID)
	assert.Equal(t, uint64(2), destroyed[0].Tick())
	assert.Equal(t, 1, destroyed[0].Impacts)
	// removed where tick 2 started, short of the wall face at x=174
	assert.InDelta(t, 145, destroyed[0].Position[0], 1e-2)

	require.Len(t, w.Projectiles(), 1)
	assert.NotEqual(t, id, w.Projectiles()[0].ID)
}

func TestRemoteInputOverridesLocal(t *testing.T) {
	pub := &publisherStub{err: errors.New("peer gone")}
	remote := remoteStub{2: {Dir: physics.Vec2{-1, 0}}}
	w := newWorld(t, DefaultConfig(), WithRemoteInputs(remote), WithInputPublisher(pub))
	require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, -300)))

	w.SetInput(Input{Dir: physics.Vec2{0, -1}})
	run(t, w, 1, 3)

	p, _ := w.Player()
	assert.InDelta(t, -15, p.Body.Position.P[0], 1e-5)
	assert.InDelta(t, -330, p.Body.Position.P[1], 1e-5)

	require.Len(t, pub.got, 3)
	for i, g := range pub.got {
		assert.Equal(t, uint64(i+1), g.tick)
	}
	assert.Equal(t, physics.Vec2{-1, 0}, pub.got[1].in.Dir)
	assert.Equal(t, physics.Vec2{0, -1}, pub.got[2].in.Dir)
	assert.Equal(t, w.Checksum(), pub.got[2].checksum)
}

func TestChecksumIsDeterministic(t *testing.T) {
	inputs := []Input{
		{Dir: physics.Vec2{1, 0}, Primary: true},
		{Dir: physics.Vec2{0.6, 0.8}, FaceTurns: 0.1, Primary: true},
		{Dir: physics.Vec2{-1, 0}, FaceTurns: 0.3},
	}
	sums := func() []uint64 {
		w := newWorld(t, DefaultConfig())
		require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, 0)))
		var out []uint64
		var n uint64
		for _, in := range inputs {
			w.SetInput(in)
			for i := 0; i < 20; i++ {
				n++
				require.NoError(t, w.Tick(context.Background(), n))
				out = append(out, w.Checksum())
			}
		}
		return out
	}

	a, b := sums(), sums()
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0], a[1])
}

func TestSnapshot(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	assert.False(t, w.Snapshot().HasPlayer)

	require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, -300)))
	_, err := w.SpawnProjectile(physics.NewPosition(-100, -600), physics.NewVelocity(0, -60))
	require.NoError(t, err)
	w.SetInput(Input{Dir: physics.Vec2{-1, 0}, FaceTurns: 0.5})
	run(t, w, 1, 1)

	s := w.Snapshot()
	assert.Equal(t, uint64(1), s.Tick)
	assert.True(t, s.HasPlayer)
	assert.InDelta(t, -15, s.Player.Position[0], 1e-5)
	assert.InDelta(t, 3.141592653589793, s.Facing, 1e-12)
	require.Len(t, s.Projectiles, 1)
	assert.InDelta(t, -601, s.Projectiles[0].Position[1], 1e-5)

	p, _ := w.Player()
	x, y := p.Transform().Position2()
	assert.Equal(t, s.Player.Position[0], x)
	assert.Equal(t, s.Player.Position[1], y)
	assert.InDelta(t, -1, p.Direction()[0], 1e-12)
}

func TestInputNormalized(t *testing.T) {
	in := Input{Dir: physics.Vec2{3, 4}, FaceTurns: 0.25}.Normalized()
	assert.InDelta(t, 0.6, in.Dir[0], 1e-12)
	assert.InDelta(t, 0.8, in.Dir[1], 1e-12)

	nan := Input{Dir: physics.Vec2{nanValue(), 0}}.Normalized()
	assert.Equal(t, physics.Zero, nan.Dir)
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestCancelledTickLeavesWorldUnchanged(t *testing.T) {
	setup := func() *World {
		w := newWorld(t, DefaultConfig())
		require.NoError(t, w.SpawnPlayer(physics.NewPosition(0, -300)))
		_, err := w.SpawnProjectile(physics.NewPosition(100, 0), physics.NewVelocity(2700, 0))
		require.NoError(t, err)
		w.SetInput(Input{Dir: physics.Vec2{1, 0}, FaceTurns: 0.75, Primary: true})
		return w
	}
	w, reference := setup(), setup()
	before := w.Checksum()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Tick(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)

	assert.Zero(t, w.LastTick())
	assert.Equal(t, before, w.Checksum())
	p, _ := w.Player()
	assert.False(t, p.Firing())
	assert.True(t, p.Body.Velocity.IsZero())
	require.Len(t, w.Projectiles(), 1)
	assert.Equal(t, physics.Vec2{100, 0}, w.Projectiles()[0].Body.Position.P)

	// running the same tick again matches a world that never failed
	run(t, w, 1, 3)
	run(t, reference, 1, 3)
	assert.Equal(t, reference.Checksum(), w.Checksum())
	assert.Len(t, w.Projectiles(), len(reference.Projectiles()))
}
