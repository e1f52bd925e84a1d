package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/arcade/internal/core/movement"
	"github.com/zeusync/arcade/internal/core/tick"
	"github.com/zeusync/arcade/internal/core/world"
)

var ErrInvalid = errors.New("invalid config")

// Mode selects how ticks are paced.
type Mode string

const (
	// ModeLocal paces ticks from wall-clock frame time.
	ModeLocal Mode = "local"
	// ModeServer runs the tick source other processes follow.
	ModeServer Mode = "server"
	// ModeClient paces ticks from a server's notifications.
	ModeClient Mode = "client"
)

// Config is the whole process configuration. It is read once at startup and
// never mutated afterwards.
type Config struct {
	Mode     Mode           `yaml:"mode"`
	Tick     tick.Config    `yaml:"tick"`
	World    world.Config   `yaml:"world"`
	Resolver ResolverConfig `yaml:"resolver"`
	Level    Level          `yaml:"level"`
	Net      NetConfig      `yaml:"net"`
	Log      LogConfig      `yaml:"log"`
	// Frame is the presentation frame interval used by the local loop.
	Frame time.Duration `yaml:"frame"`
}

type ResolverConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

type NetConfig struct {
	// Listen is the server's bind address.
	Listen string `yaml:"listen"`
	// URL is the websocket endpoint a client dials.
	URL              string        `yaml:"url"`
	Path             string        `yaml:"path"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	// InputBuffer bounds the per-tick remote inputs kept by a client.
	InputBuffer int `yaml:"input_buffer"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

func Default() Config {
	return Config{
		Mode:     ModeLocal,
		Tick:     tick.DefaultConfig(),
		World:    world.DefaultConfig(),
		Resolver: ResolverConfig{MaxIterations: movement.DefaultMaxIterations},
		Level:    DefaultLevel(),
		Net: NetConfig{
			Listen:           ":7070",
			URL:              "ws://127.0.0.1:7070/ticks",
			Path:             "/ticks",
			HandshakeTimeout: 5 * time.Second,
			WriteTimeout:     time.Second,
			InputBuffer:      256,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Frame: time.Second / 60,
	}
}

// Load overlays YAML from r onto Default and validates the result. Empty
// input yields the defaults.
func Load(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.World.Step = c.Tick.Step
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile reads a YAML config file. An empty path yields the defaults.
func LoadFile(path string) (Config, error) {
	if path == "" {
		c := Default()
		return c, c.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeServer, ModeClient:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Mode)
	}
	if err := c.Tick.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.World.Step != c.Tick.Step {
		return fmt.Errorf("%w: world step %v differs from tick step %v", ErrInvalid, c.World.Step, c.Tick.Step)
	}

	p, s := c.World.Player, c.World.Shot
	switch {
	case p.Radius <= 0 || s.Radius <= 0:
		return fmt.Errorf("%w: radii must be positive", ErrInvalid)
	case p.Speed < 0 || s.Speed < 0:
		return fmt.Errorf("%w: speeds must not be negative", ErrInvalid)
	case p.Margin <= 0 || s.Margin <= 0:
		return fmt.Errorf("%w: collision margins must be positive", ErrInvalid)
	case s.Bounces < 0:
		return fmt.Errorf("%w: bounces must not be negative", ErrInvalid)
	case s.FireInterval <= 0:
		return fmt.Errorf("%w: fire interval must be positive", ErrInvalid)
	case c.World.Workers < 0 || c.World.Chunk < 0:
		return fmt.Errorf("%w: workers and chunk must not be negative", ErrInvalid)
	}

	if c.Resolver.MaxIterations <= 0 {
		return fmt.Errorf("%w: resolver max_iterations must be positive", ErrInvalid)
	}
	if c.Frame <= 0 {
		return fmt.Errorf("%w: frame interval must be positive", ErrInvalid)
	}
	if err := c.Level.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Mode {
	case ModeServer:
		if c.Net.Listen == "" {
			return fmt.Errorf("%w: server mode needs net.listen", ErrInvalid)
		}
	case ModeClient:
		if c.Net.URL == "" {
			return fmt.Errorf("%w: client mode needs net.url", ErrInvalid)
		}
		if c.Net.InputBuffer <= 0 {
			return fmt.Errorf("%w: net.input_buffer must be positive", ErrInvalid)
		}
	}
	return nil
}
