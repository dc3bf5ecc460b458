// Package strategy chooses an agent's next shot from its view of the
// opponent's board.
package strategy

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
)

// ErrNoTargets is returned when the view has no untried cell left
var ErrNoTargets = errors.New("no untried cells")

// Kind selects one of the built-in strategies
type Kind int

const (
	KindRandom Kind = iota
	KindHunt
	KindSweep
)

func (k Kind) String() string {
	switch k {
	case KindRandom:
		return "random"
	case KindHunt:
		return "hunt"
	case KindSweep:
		return "sweep"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a strategy name as used in config and flags
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "random":
		return KindRandom, nil
	case "hunt":
		return KindHunt, nil
	case "sweep":
		return KindSweep, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", name)
	}
}

// Strategy picks guesses against a view of the opponent's board.
// Observe is called after the view has been updated with the outcome of
// the strategy's own guess.
type Strategy interface {
	Kind() Kind
	NextGuess(view *core.HitMap) (core.Position, error)
	Observe(view *core.HitMap, pos core.Position, result core.ShotResult)
}

// New creates a strategy of the given kind. rng is only used by the
// randomised strategies.
func New(kind Kind, rng *rand.Rand) (Strategy, error) {
	switch kind {
	case KindRandom:
		return NewRandomSearch(rng), nil
	case KindHunt:
		return NewHuntAndTarget(rng), nil
	case KindSweep:
		return NewSweep(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %v", kind)
	}
}

// RandomSearch draws uniformly random cells until it finds an untried one
type RandomSearch struct {
	rng *rand.Rand
}

// NewRandomSearch creates a random search strategy
func NewRandomSearch(rng *rand.Rand) *RandomSearch {
	return &RandomSearch{rng: rng}
}

func (s *RandomSearch) Kind() Kind { return KindRandom }

func (s *RandomSearch) NextGuess(view *core.HitMap) (core.Position, error) {
	if len(view.Untried()) == 0 {
		return core.Position{}, ErrNoTargets
	}
	for {
		pos := core.Position{Row: s.rng.Intn(view.Rows), Col: s.rng.Intn(view.Cols)}
		if view.IsUntried(pos) {
			return pos, nil
		}
	}
}

func (s *RandomSearch) Observe(*core.HitMap, core.Position, core.ShotResult) {}

// Sweep scans the board in a serpentine: the top-most row with an untried
// cell is taken left to right on even rows and right to left on odd rows
type Sweep struct{}

// NewSweep creates a sweep strategy
func NewSweep() *Sweep {
	return &Sweep{}
}

func (s *Sweep) Kind() Kind { return KindSweep }

func (s *Sweep) NextGuess(view *core.HitMap) (core.Position, error) {
	for row := 0; row < view.Rows; row++ {
		if row%2 == 0 {
			for col := 0; col < view.Cols; col++ {
				if pos := (core.Position{Row: row, Col: col}); view.IsUntried(pos) {
					return pos, nil
				}
			}
		} else {
			for col := view.Cols - 1; col >= 0; col-- {
				if pos := (core.Position{Row: row, Col: col}); view.IsUntried(pos) {
					return pos, nil
				}
			}
		}
	}
	return core.Position{}, ErrNoTargets
}

func (s *Sweep) Observe(*core.HitMap, core.Position, core.ShotResult) {}
