package injector

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/arcade/internal/config"
	"github.com/zeusync/arcade/internal/core/observability/log"
)

func quietConfig() config.Config {
	cfg := config.Default()
	cfg.Log.Level = "error"
	return cfg
}

func TestInitializeLocal(t *testing.T) {
	a, err := InitializeLocal(quietConfig())
	require.NoError(t, err)

	snap, err := a.Frame(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), snap.Tick)
	assert.True(t, snap.HasPlayer)
}

func TestInitializeClientFollowsServer(t *testing.T) {
	cfg := quietConfig()
	cfg.Mode = config.ModeServer
	srv, err := InitializeServer(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	cfg.Mode = config.ModeClient
	cfg.Net.URL = "ws" + strings.TrimPrefix(ts.URL, "http") + cfg.Net.Path
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, cleanup, err := InitializeClient(ctx, cfg)
	require.NoError(t, err)
	defer cleanup()

	done := make(chan error, 1)
	go func() { done <- session.Client.Run(ctx, session.App.Scheduler()) }()
	require.Eventually(t, func() bool { return srv.Peers() == 1 }, 2*time.Second, 5*time.Millisecond)

	srv.Advance()
	srv.Advance()
	require.Eventually(t, func() bool { return session.App.Scheduler().Pending() == 2 }, 2*time.Second, 5*time.Millisecond)

	snap, err := session.App.Frame(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Tick)

	cancel()
	assert.NoError(t, <-done)
}

func TestInitializeRejectsBrokenLevel(t *testing.T) {
	cfg := quietConfig()
	cfg.Level.Walls = append(cfg.Level.Walls, config.Wall{Name: "flat", W: -1, H: 1})
	_, err := InitializeLocal(cfg)
	assert.Error(t, err)

	cfg = quietConfig()
	cfg.Net.URL = "ws://127.0.0.1:1/ticks"
	cfg.Net.HandshakeTimeout = 100 * time.Millisecond
	_, _, err = InitializeClient(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProvideSweeperLogsStaticIndex(t *testing.T) {
	cfg := quietConfig()
	statics, err := ProvideStatics(cfg)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	sweeper := ProvideSweeper(statics, log.FromZap(zap.New(core), log.LevelInfo))
	require.NotNil(t, sweeper)

	entries := logs.FilterMessage("static index built").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, len(cfg.Level.Statics()), fields["obstacles"])
	assert.EqualValues(t, statics.Tree().Statistics().NodeCount, fields["nodes"])
	assert.Contains(t, fields, "min")
	assert.Contains(t, fields, "max")
}
