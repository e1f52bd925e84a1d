//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/arcade/internal/app"
	"github.com/zeusync/arcade/internal/config"
	"github.com/zeusync/arcade/internal/netsync"
)

// InitializeLocal builds a world paced by wall-clock frame time.
func InitializeLocal(cfg config.Config) (*app.App, error) {
	wire.Build(SimulationSet, ProvideLocalOptions)
	return nil, nil
}

// InitializeClient builds a world paced by a remote tick source.
func InitializeClient(ctx context.Context, cfg config.Config) (*ClientSession, func(), error) {
	wire.Build(SimulationSet, ProvideClient, ProvideNetworkOptions, wire.Struct(new(ClientSession), "*"))
	return nil, nil, nil
}

// InitializeServer builds the tick source.
func InitializeServer(cfg config.Config) (*netsync.Server, error) {
	wire.Build(LogSet, ProvideServer)
	return nil, nil
}
