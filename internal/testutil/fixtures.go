package testutil

import (
	"github.com/mitchelldurbincs/navalhub/internal/game/core"
)

// TinyRules is an 8x8 board with a single ship of length 2
func TinyRules() core.Rules {
	return core.Rules{Rows: 8, Cols: 8, NumShips: 1, ShipLengths: []int{2}}
}

// CreateTestFleet builds a fleet from anchors such as "A1" and directions.
// It panics on a bad anchor, so only use it with literal fixtures.
func CreateTestFleet(placements ...string) *core.Fleet {
	fleet := core.NewFleet(len(placements) / 2)
	for i := 0; i+1 < len(placements); i += 2 {
		pos, err := core.ParsePosition(placements[i])
		if err != nil {
			panic(err)
		}
		dir, err := core.ParseDirection(placements[i+1][0])
		if err != nil {
			panic(err)
		}
		fleet.AddShip(core.Ship{Pos: pos, Dir: dir})
	}
	return fleet
}

// StandardFleet is a valid fleet for core.StandardRules with every ship
// laid east along the first five rows
func StandardFleet() *core.Fleet {
	return CreateTestFleet("A1", "E", "A2", "E", "A3", "E", "A4", "E", "A5", "E")
}

// StandardFleetCells lists every cell covered by StandardFleet
func StandardFleetCells() []string {
	return []string{
		"A1", "B1", "C1", "D1", "E1",
		"A2", "B2", "C2", "D2",
		"A3", "B3", "C3",
		"A4", "B4",
		"A5",
	}
}
