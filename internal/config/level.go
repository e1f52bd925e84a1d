package config

import (
	"errors"
	"fmt"

	"github.com/zeusync/arcade/internal/core/collide"
	"github.com/zeusync/arcade/internal/core/physics"
)

var ErrEmptyName = errors.New("obstacle name is required")

// Level is the static geometry plus the player's spawn point.
type Level struct {
	Spawn  [2]float64 `yaml:"spawn"`
	Walls  []Wall     `yaml:"walls"`
	Bushes []Bush     `yaml:"bushes"`
}

// Wall is an axis-aligned rectangle given by its center and full size.
type Wall struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	W    float64 `yaml:"w"`
	H    float64 `yaml:"h"`
}

// Bush is a circular obstacle.
type Bush struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	R    float64 `yaml:"r"`
}

func DefaultLevel() Level {
	bush := func(x, y float64) Bush {
		return Bush{Name: fmt.Sprintf("Bush (%g, %g)", x, y), X: x, Y: y, R: 128}
	}
	return Level{
		Walls: []Wall{
			{Name: "Wall - Left", X: -1184, Y: 0, W: 96, H: 3840},
			{Name: "Wall - Right", X: 1184, Y: 0, W: 96, H: 3840},
			{Name: "Wall - Top", X: 0, Y: 1824, W: 2560, H: 96},
			{Name: "Wall - Bottom", X: 0, Y: -1824, W: 2560, H: 96},
			{Name: "Wall - Horizontal", X: -196, Y: -1149.5, W: 1066, H: 299},
			{Name: "Wall - Vertical", X: 702, Y: 288.5, W: 296, H: 2465},
		},
		Bushes: []Bush{
			bush(-128, 1228),
			bush(128, 1100),
			bush(-512, 64),
			bush(192, -512),
			bush(64, -640),
			bush(760, -1400),
		},
	}
}

// Statics converts the level into obstacles in declaration order, walls first.
func (l Level) Statics() []collide.Static {
	out := make([]collide.Static, 0, len(l.Walls)+len(l.Bushes))
	for _, w := range l.Walls {
		out = append(out, collide.Static{Name: w.Name, Shape: physics.Rect(w.W, w.H), Position: physics.NewPosition(w.X, w.Y)})
	}
	for _, b := range l.Bushes {
		out = append(out, collide.Static{Name: b.Name, Shape: physics.Circle(b.R), Position: physics.NewPosition(b.X, b.Y)})
	}
	return out
}

func (l Level) SpawnPosition() physics.Position {
	return physics.NewPosition(l.Spawn[0], l.Spawn[1])
}

func (l Level) Validate() error {
	for _, s := range l.Statics() {
		if s.Name == "" {
			return ErrEmptyName
		}
		if err := s.Shape.Validate(); err != nil {
			return fmt.Errorf("level obstacle %q: %w", s.Name, err)
		}
	}
	if !physics.Finite(l.SpawnPosition().P) {
		return fmt.Errorf("level spawn %v is not finite", l.Spawn)
	}
	return nil
}
