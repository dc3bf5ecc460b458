package mapgen

import (
	"errors"
	"math/rand"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
)

// ErrNoPlacement is returned when a ship cannot be fitted on the board
var ErrNoPlacement = errors.New("no room to place ship")

var placementDirections = []core.Direction{core.North, core.East, core.South, core.West}

// PlacementConfig holds configuration for fleet generation
type PlacementConfig struct {
	// MaxAttempts is the number of random anchors tried per ship before
	// falling back to a board scan
	MaxAttempts int
	// Spacing keeps ships from touching edge to edge when set
	Spacing bool
}

// DefaultPlacementConfig returns the configuration used by agents
func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		MaxAttempts: 200,
		Spacing:     false,
	}
}

// Generator places fleets with deterministic RNG
type Generator struct {
	rules  core.Rules
	config PlacementConfig
	rng    *rand.Rand
}

// NewGenerator creates a new fleet generator for the given rules
func NewGenerator(rules core.Rules, config PlacementConfig, rng *rand.Rand) *Generator {
	return &Generator{
		rules:  rules,
		config: config,
		rng:    rng,
	}
}

// GenerateFleet places one ship per declared length. The result always
// passes core.Validate for the generator's rules.
func (g *Generator) GenerateFleet() (*core.Fleet, error) {
	if err := g.rules.Validate(); err != nil {
		return nil, err
	}

	fleet := core.NewFleet(g.rules.NumShips)
	occupied := make(map[core.Position]struct{})

	for i, length := range g.rules.ShipLengths {
		ship, ok := g.placeRandom(length, occupied)
		if !ok {
			ship, ok = g.placeScan(length, occupied)
		}
		if !ok {
			return nil, &core.ValidationError{Kind: ErrNoPlacement, Ship: i + 1}
		}

		for _, cell := range ship.Cells() {
			occupied[cell] = struct{}{}
		}
		fleet.AddShip(ship)
	}

	fleet.Arm(g.rules)
	return fleet, nil
}

func (g *Generator) placeRandom(length int, occupied map[core.Position]struct{}) (core.Ship, bool) {
	for attempts := 0; attempts < g.config.MaxAttempts; attempts++ {
		pos := core.Position{Row: g.rng.Intn(g.rules.Rows), Col: g.rng.Intn(g.rules.Cols)}
		dir := placementDirections[g.rng.Intn(len(placementDirections))]

		ship := core.NewShip(length, pos, dir)
		if g.fits(&ship, occupied) {
			return ship, true
		}
	}
	return core.Ship{}, false
}

// placeScan tries every anchor and direction in board order
func (g *Generator) placeScan(length int, occupied map[core.Position]struct{}) (core.Ship, bool) {
	for idx := 0; idx < g.rules.Rows*g.rules.Cols; idx++ {
		pos := core.FromIndex(idx, g.rules.Cols)
		for _, dir := range placementDirections {
			ship := core.NewShip(length, pos, dir)
			if g.fits(&ship, occupied) {
				return ship, true
			}
		}
	}
	return core.Ship{}, false
}

func (g *Generator) fits(ship *core.Ship, occupied map[core.Position]struct{}) bool {
	for _, cell := range ship.Cells() {
		if !g.rules.Contains(cell) {
			return false
		}
		if _, taken := occupied[cell]; taken {
			return false
		}
		if g.config.Spacing {
			for _, n := range cell.Adjacent() {
				if _, taken := occupied[n]; taken {
					return false
				}
			}
		}
	}
	return true
}
