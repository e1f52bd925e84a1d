package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/arcade/internal/app"
	"github.com/zeusync/arcade/internal/config"
	"github.com/zeusync/arcade/internal/core/physics"
	"github.com/zeusync/arcade/internal/core/world"
	"github.com/zeusync/arcade/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	mode := flag.String("mode", "", "override the configured mode: local, server or client")
	demo := flag.Bool("demo", false, "drive the player in a circle with fire held")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Mode = config.Mode(*mode)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Error in config:", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *demo); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, demo bool) error {
	switch cfg.Mode {
	case config.ModeServer:
		srv, err := injector.InitializeServer(cfg)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx)

	case config.ModeClient:
		session, cleanup, err := injector.InitializeClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return session.Client.Run(ctx, session.App.Scheduler())
		})
		g.Go(func() error {
			return session.App.Run(ctx, presenter(session.App, demo))
		})
		return g.Wait()

	default:
		a, err := injector.InitializeLocal(cfg)
		if err != nil {
			return err
		}
		return a.Run(ctx, presenter(a, demo))
	}
}

// presenter stands in for a renderer. In demo mode it feeds input back
// into the world from the last resolved tick.
func presenter(a *app.App, demo bool) func(world.Snapshot) {
	if !demo {
		return nil
	}
	return func(s world.Snapshot) {
		turns := float64(s.Tick%240) / 240
		angle := turns * 2 * math.Pi
		a.World().SetInput(world.Input{
			Dir:       physics.Vec2{math.Cos(angle), math.Sin(angle)},
			FaceTurns: turns + 0.25,
			Primary:   true,
		})
	}
}
