package collide

import (
	"errors"
	"fmt"

	"github.com/zeusync/arcade/internal/core/physics"
	"github.com/zeusync/arcade/internal/core/spatial"
)

var (
	ErrFrozen      = errors.New("static set is already indexed")
	ErrNotIndexed  = errors.New("static set has not been indexed")
	ErrInvalidBody = errors.New("invalid static body")
)

// Static is one immovable obstacle.
type Static struct {
	Name     string
	Shape    physics.Shape
	Position physics.Position
}

// Statics is the dense arena of static obstacles plus the tree built over
// them. Obstacles get a stable handle at insertion; the tree indexes those
// handles and queries map them back through the arena.
//
// Add is only valid before Index. After Index the set is immutable and safe
// for concurrent readers for the rest of the process.
type Statics struct {
	bodies  []Static
	tree    *spatial.Tree
	indexed bool
}

func NewStatics() *Statics {
	return &Statics{tree: spatial.New()}
}

// Add validates and inserts an obstacle, returning its handle.
func (s *Statics) Add(body Static) (spatial.Handle, error) {
	if s.indexed {
		return 0, ErrFrozen
	}
	if err := body.Shape.Validate(); err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidBody, body.Name, err)
	}
	if !physics.Finite(body.Position.P) {
		return 0, fmt.Errorf("%w %q: position %v is not finite", ErrInvalidBody, body.Name, body.Position.P)
	}
	h := spatial.Handle(len(s.bodies))
	s.bodies = append(s.bodies, body)
	return h, nil
}

// Index builds the tree over every added obstacle and freezes the set.
func (s *Statics) Index() error {
	if s.indexed {
		return ErrFrozen
	}
	entries := make([]spatial.Entry, len(s.bodies))
	for i, b := range s.bodies {
		entries[i] = spatial.Entry{Handle: spatial.Handle(i), Box: b.Shape.AABB(b.Position)}
	}
	s.tree.Build(entries)
	s.indexed = true
	return nil
}

func (s *Statics) Indexed() bool { return s.indexed }

// Get returns the obstacle stored under h.
func (s *Statics) Get(h spatial.Handle) (Static, bool) {
	if int(h) >= len(s.bodies) {
		return Static{}, false
	}
	return s.bodies[h], true
}

func (s *Statics) Len() int { return len(s.bodies) }

// Tree exposes the built index for read-only use.
func (s *Statics) Tree() *spatial.Tree { return s.tree }
