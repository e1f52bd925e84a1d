package injector

import (
	"context"
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/arcade/internal/app"
	"github.com/zeusync/arcade/internal/config"
	"github.com/zeusync/arcade/internal/core/collide"
	"github.com/zeusync/arcade/internal/core/movement"
	"github.com/zeusync/arcade/internal/core/observability/log"
	"github.com/zeusync/arcade/internal/core/tick"
	"github.com/zeusync/arcade/internal/core/world"
	"github.com/zeusync/arcade/internal/netsync"
)

// WorldOptions are the extra options the world is built with. Networked
// builds attach the tick source client here.
type WorldOptions []world.Option

// ClientSession is a world following a remote tick source.
type ClientSession struct {
	App    *app.App
	Client *netsync.Client
}

var LogSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
)

var SimulationSet = wire.NewSet(
	LogSet,
	ProvideStatics,
	ProvideSweeper,
	wire.Bind(new(movement.Sweeper), new(*collide.Sweeper)),
	ProvideResolver,
	ProvideWorld,
	wire.Bind(new(tick.Simulation), new(*world.World)),
	ProvideClock,
	ProvideScheduler,
	ProvideApp,
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.NewWithOptions(log.Options{
		Level:    log.ParseLevel(cfg.Log.Level),
		Encoding: cfg.Log.Encoding,
		Sampling: true,
	})
}

// ProvideStatics adds the level geometry and freezes it.
func ProvideStatics(cfg config.Config) (*collide.Statics, error) {
	statics := collide.NewStatics()
	for _, s := range cfg.Level.Statics() {
		if _, err := statics.Add(s); err != nil {
			return nil, fmt.Errorf("level obstacle %q: %w", s.Name, err)
		}
	}
	if err := statics.Index(); err != nil {
		return nil, err
	}
	return statics, nil
}

// ProvideSweeper builds the sweeper and reports the shape of the static index.
func ProvideSweeper(statics *collide.Statics, logger log.Log) *collide.Sweeper {
	logger = logger.Named("collide")
	stats := statics.Tree().Statistics()
	fields := []log.Field{
		log.Int("obstacles", stats.EntryCount),
		log.Int("nodes", stats.NodeCount),
		log.Int("depth", stats.MaxDepth),
	}
	if bounds, ok := statics.Tree().Bounds(); ok {
		fields = append(fields, log.Any("min", bounds.Min), log.Any("max", bounds.Max))
	}
	logger.Info("static index built", fields...)
	return collide.NewSweeper(statics, logger)
}

func ProvideResolver(cfg config.Config, sweeper movement.Sweeper, logger log.Log) *movement.Resolver {
	return movement.NewResolver(sweeper, cfg.Resolver.MaxIterations, logger.Named("movement"))
}

// ProvideWorld builds the world and spawns the player at the level's spawn point.
func ProvideWorld(cfg config.Config, statics *collide.Statics, resolver *movement.Resolver, logger log.Log, opts WorldOptions) (*world.World, error) {
	w, err := world.New(cfg.World, statics, resolver, logger.Named("world"), opts...)
	if err != nil {
		return nil, err
	}
	if err := w.SpawnPlayer(cfg.Level.SpawnPosition()); err != nil {
		return nil, err
	}
	return w, nil
}

func ProvideClock() tick.Clock {
	return tick.NewSystemClock()
}

func ProvideScheduler(cfg config.Config, sim tick.Simulation, clock tick.Clock, logger log.Log) (*tick.Scheduler, error) {
	return tick.NewScheduler(cfg.Tick, sim, clock, logger.Named("tick"))
}

func ProvideApp(cfg config.Config, w *world.World, sched *tick.Scheduler, clock tick.Clock, logger log.Log) *app.App {
	pacing := app.WallClock
	if cfg.Mode == config.ModeClient {
		pacing = app.Announced
	}
	return app.New(w, sched, clock, logger, app.Options{Pacing: pacing, Frame: cfg.Frame})
}

func ProvideLocalOptions() WorldOptions {
	return nil
}

// ProvideClient dials the tick source. The cleanup closes the connection.
func ProvideClient(ctx context.Context, cfg config.Config, logger log.Log) (*netsync.Client, func(), error) {
	c, err := netsync.Dial(ctx, netsync.ClientConfig{
		URL:              cfg.Net.URL,
		HandshakeTimeout: cfg.Net.HandshakeTimeout,
		WriteTimeout:     cfg.Net.WriteTimeout,
		InputBuffer:      cfg.Net.InputBuffer,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

func ProvideNetworkOptions(c *netsync.Client) WorldOptions {
	return WorldOptions{world.WithRemoteInputs(c), world.WithInputPublisher(c)}
}

func ProvideServer(cfg config.Config, logger log.Log) (*netsync.Server, error) {
	return netsync.NewServer(netsync.ServerConfig{
		Listen:       cfg.Net.Listen,
		Path:         cfg.Net.Path,
		Step:         cfg.Tick.Step,
		WriteTimeout: cfg.Net.WriteTimeout,
	}, logger)
}
