package collide

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/arcade/internal/core/observability/log"
	"github.com/zeusync/arcade/internal/core/physics"
)

func newIndexed(t *testing.T, bodies ...Static) *Sweeper {
	t.Helper()
	statics := NewStatics()
	for _, b := range bodies {
		_, err := statics.Add(b)
		require.NoError(t, err)
	}
	require.NoError(t, statics.Index())
	return NewSweeper(statics, nil)
}

func rectSpanning(name string, x0, x1, y0, y1 float64) Static {
	return Static{
		Name:     name,
		Shape:    physics.Rect(x1-x0, y1-y0),
		Position: physics.NewPosition((x0+x1)/2, (y0+y1)/2),
	}
}

func circleAt(name string, x, y, r float64) Static {
	return Static{Name: name, Shape: physics.Circle(r), Position: physics.NewPosition(x, y)}
}

func assertVec(t *testing.T, want, got physics.Vec2) {
	t.Helper()
	assert.InDelta(t, want[0], got[0], 1e-9, "x of %v", got)
	assert.InDelta(t, want[1], got[1], 1e-9, "y of %v", got)
}

func TestSweepPointAgainstRectFace(t *testing.T) {
	s := newIndexed(t, rectSpanning("block", 5, 15, -5, 5))

	res := s.Sweep(Mover{
		Shape:    physics.Circle(0),
		Position: physics.NewPosition(0, 0),
		Velocity: physics.NewVelocity(100, 0),
	}, 1)

	require.Equal(t, Toi, res.Kind, res.String())
	assert.InDelta(t, 0.05, res.Time, 1e-12)
	assertVec(t, physics.Vec2{-1, 0}, res.Normal)
}

func TestSweepShapePairs(t *testing.T) {
	tests := []struct {
		name     string
		obstacle Static
		mover    Mover
		wantTime float64
		wantN    physics.Vec2
	}{
		{
			name:     "circle/circle",
			obstacle: circleAt("ball", 5, 0, 1),
			mover:    Mover{Shape: physics.Circle(1), Velocity: physics.NewVelocity(10, 0)},
			wantTime: 0.3,
			wantN:    physics.Vec2{-1, 0},
		},
		{
			name:     "circle/rect corner",
			obstacle: Static{Name: "box", Shape: physics.RectHalf(1, 1), Position: physics.NewPosition(5, 5)},
			mover:    Mover{Shape: physics.Circle(1), Velocity: physics.NewVelocity(10, 10)},
			wantTime: (4 - 1/math.Sqrt2) / 10,
			wantN:    physics.Vec2{-1 / math.Sqrt2, -1 / math.Sqrt2},
		},
		{
			name:     "rect/rect",
			obstacle: Static{Name: "floor", Shape: physics.RectHalf(10, 1), Position: physics.NewPosition(0, -5)},
			mover:    Mover{Shape: physics.RectHalf(1, 1), Velocity: physics.NewVelocity(0, -20)},
			wantTime: 0.15,
			wantN:    physics.Vec2{0, 1},
		},
		{
			name:     "rect/circle",
			obstacle: circleAt("bush", 6, 0, 2),
			mover:    Mover{Shape: physics.RectHalf(1, 1), Velocity: physics.NewVelocity(10, 0)},
			wantTime: 0.3,
			wantN:    physics.Vec2{-1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newIndexed(t, tt.obstacle)
			res := s.Sweep(tt.mover, 1)
			require.Equal(t, Toi, res.Kind, res.String())
			assert.InDelta(t, tt.wantTime, res.Time, 1e-9)
			assertVec(t, tt.wantN, res.Normal)
		})
	}
}

func TestSweepMissesInOpenSpace(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var bodies []Static
	for i := 0; i < 200; i++ {
		// obstacles live outside the [-100, 100] square
		x := 200 + rng.Float64()*800
		if rng.Intn(2) == 0 {
			x = -x
		}
		y := rng.Float64()*2000 - 1000
		if rng.Intn(2) == 0 {
			bodies = append(bodies, circleAt("c", x, y, 5+rng.Float64()*40))
		} else {
			bodies = append(bodies, Static{Name: "r", Shape: physics.RectHalf(5+rng.Float64()*40, 5+rng.Float64()*40), Position: physics.NewPosition(x, y)})
		}
	}
	s := newIndexed(t, bodies...)

	for i := 0; i < 100; i++ {
		m := Mover{
			Shape:    physics.Circle(1 + rng.Float64()*10),
			Position: physics.NewPosition(rng.Float64()*100-50, rng.Float64()*100-50),
			Velocity: physics.NewVelocity(rng.Float64()*60-30, rng.Float64()*60-30),
		}
		res := s.Sweep(m, rng.Float64())
		assert.Equal(t, Miss, res.Kind, res.String())
	}

	// at rest in open space
	assert.Equal(t, Miss, s.Sweep(Mover{Shape: physics.Circle(3)}, 10).Kind)
}

func TestSweepEmptyStaticSet(t *testing.T) {
	s := newIndexed(t)
	res := s.Sweep(Mover{Shape: physics.Circle(1), Velocity: physics.NewVelocity(1e6, 0)}, 1)
	assert.Equal(t, Miss, res.Kind)
}

func TestSweepReportsPenetrationAsContact(t *testing.T) {
	s := newIndexed(t, rectSpanning("wall", 1, 11, -5, 5))

	res := s.Sweep(Mover{
		Shape:    physics.Circle(2),
		Position: physics.NewPosition(0, 0),
		Velocity: physics.NewVelocity(100, 0),
	}, 1)

	require.Equal(t, Contact, res.Kind, res.String())
	assert.InDelta(t, 1, res.Depth, 1e-12)
	assertVec(t, physics.Vec2{-1, 0}, res.Normal)
	assertVec(t, physics.Vec2{1, 0}, res.Point)
}

func TestSweepTouchingIsContactNotZeroToi(t *testing.T) {
	s := newIndexed(t, rectSpanning("wall", 5, 15, -5, 5))

	res := s.Sweep(Mover{
		Shape:    physics.Circle(0),
		Position: physics.NewPosition(5, 0),
		Velocity: physics.NewVelocity(100, 0),
	}, 1)

	require.Equal(t, Contact, res.Kind)
	assert.Equal(t, 0.0, res.Depth)
}

func TestSweepPrefersDeepestContact(t *testing.T) {
	s := newIndexed(t,
		rectSpanning("shallow", -10, 10, 4, 10), // overlaps circle by 1
		rectSpanning("deep", 2, 10, -10, 10),    // overlaps circle by 3
	)

	res := s.Sweep(Mover{Shape: physics.Circle(5), Position: physics.NewPosition(0, 0)}, 1)
	require.Equal(t, Contact, res.Kind)
	assert.InDelta(t, 3, res.Depth, 1e-12)
	assertVec(t, physics.Vec2{-1, 0}, res.Normal)

	st, ok := s.statics.Get(res.Handle)
	require.True(t, ok)
	assert.Equal(t, "deep", st.Name)
}

func TestSweepPicksEarliestImpact(t *testing.T) {
	s := newIndexed(t,
		rectSpanning("far", 20, 21, -5, 5),
		rectSpanning("near", 10, 11, -5, 5),
		rectSpanning("behind", -30, -20, -5, 5),
	)

	res := s.Sweep(Mover{Shape: physics.Circle(1), Velocity: physics.NewVelocity(100, 0)}, 1)
	require.Equal(t, Toi, res.Kind)
	assert.InDelta(t, 0.09, res.Time, 1e-12)
	st, _ := s.statics.Get(res.Handle)
	assert.Equal(t, "near", st.Name)
}

func TestSweepIntervalIsInclusive(t *testing.T) {
	s := newIndexed(t, rectSpanning("wall", 5, 15, -5, 5))
	m := Mover{Shape: physics.Circle(0), Velocity: physics.NewVelocity(100, 0)}

	res := s.Sweep(m, 0.05)
	require.Equal(t, Toi, res.Kind)
	assert.InDelta(t, 0.05, res.Time, 1e-12)

	assert.Equal(t, Miss, s.Sweep(m, 0.049).Kind)
	assert.Equal(t, Miss, s.Sweep(m, 0).Kind)
}

func TestSweepDoesNotTunnelThroughThinWalls(t *testing.T) {
	s := newIndexed(t, rectSpanning("sheet", 50, 50.5, -100, 100))
	step := 1.0 / 60

	res := s.Sweep(Mover{
		Shape:    physics.Circle(0.1),
		Velocity: physics.NewVelocity(20000, 0),
	}, step)

	require.Equal(t, Toi, res.Kind, "fast mover passed through the wall")
	assert.Less(t, res.Time, step)
	assert.InDelta(t, (50-0.1)/20000, res.Time, 1e-12)
}

func TestSweepGrazingCornerMisses(t *testing.T) {
	s := newIndexed(t, Static{Name: "box", Shape: physics.RectHalf(1, 1), Position: physics.NewPosition(5, 5)})

	// passes the rounded corner at distance > radius
	res := s.Sweep(Mover{
		Shape:    physics.Circle(1),
		Position: physics.NewPosition(0, 3.6),
		Velocity: physics.NewVelocity(10, 10),
	}, 1)
	assert.Equal(t, Miss, res.Kind, res.String())
}

func observedSweeper(t *testing.T, bodies ...Static) (*Sweeper, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s := newIndexed(t, bodies...)
	s.log = log.FromZap(zap.New(core), log.LevelDebug)
	return s, logs
}

func TestSweepNonFiniteMoverIsMiss(t *testing.T) {
	s, logs := observedSweeper(t, rectSpanning("wall", 5, 15, -5, 5))
	res := s.Sweep(Mover{
		Shape:    physics.Circle(1),
		Position: physics.NewPosition(math.NaN(), 0),
		Velocity: physics.NewVelocity(100, 0),
	}, 1)
	assert.Equal(t, Miss, res.Kind)
	assert.Equal(t, uint64(1), s.Failures())
	assert.Equal(t, 1, logs.FilterMessage("non-finite mover, treating as miss").Len())

	res = s.Sweep(Mover{
		Shape:    physics.Circle(1),
		Position: physics.NewPosition(0, 0),
		Velocity: physics.NewVelocity(math.Inf(1), 0),
	}, 1)
	assert.Equal(t, Miss, res.Kind)
	assert.Equal(t, uint64(2), s.Failures())
}

func TestNarrowPhaseFailureIsCountedMiss(t *testing.T) {
	wall := rectSpanning("wall", 5, 15, -5, 5)
	s, logs := observedSweeper(t, wall)
	st, ok := s.statics.Get(0)
	require.True(t, ok)

	res, ok := s.evaluate(Mover{
		Shape:    physics.Circle(1),
		Position: physics.NewPosition(math.NaN(), math.NaN()),
		Velocity: physics.NewVelocity(100, 0),
	}, st, 0, 1)
	assert.False(t, ok)
	assert.Equal(t, Miss, res.Kind)
	assert.Equal(t, uint64(1), s.Failures())

	entries := logs.FilterMessage("narrow phase did not converge, treating as miss").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "wall", entries[0].ContextMap()["obstacle"])

	// a finite mover through the same path is unaffected
	res, ok = s.evaluate(Mover{
		Shape:    physics.Circle(1),
		Position: physics.NewPosition(0, 0),
		Velocity: physics.NewVelocity(100, 0),
	}, st, 0, 1)
	assert.True(t, ok)
	assert.Equal(t, Toi, res.Kind)
	assert.Equal(t, uint64(1), s.Failures())
}

func TestStaticsFreezeAfterIndex(t *testing.T) {
	statics := NewStatics()
	_, err := statics.Add(circleAt("a", 0, 0, 1))
	require.NoError(t, err)

	_, err = statics.Add(circleAt("bad", 0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidBody)
	assert.ErrorIs(t, err, physics.ErrInvalidExtent)

	require.NoError(t, statics.Index())
	assert.True(t, statics.Indexed())

	_, err = statics.Add(circleAt("late", 0, 0, 1))
	assert.ErrorIs(t, err, ErrFrozen)
	assert.ErrorIs(t, statics.Index(), ErrFrozen)
	assert.Equal(t, 1, statics.Tree().Len())
}
