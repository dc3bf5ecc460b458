package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHitMap(t *testing.T) {
	hm := NewHitMap(3, 5)
	assert.Equal(t, 3, hm.Rows)
	assert.Equal(t, 5, hm.Cols)
	assert.Equal(t, 15, hm.Count(CellNone))
	assert.Len(t, hm.Untried(), 15)
}

func TestHitMap_RecordNeverResets(t *testing.T) {
	hm := NewHitMap(4, 4)
	pos := NewPosition('B', 2)

	assert.True(t, hm.Record(pos, CellHit))
	assert.Equal(t, CellHit, hm.Get(pos))
	assert.True(t, hm.IsResolved(pos))

	assert.False(t, hm.Record(pos, CellMiss), "resolved cells stay resolved")
	assert.False(t, hm.Record(pos, CellNone))
	assert.Equal(t, CellHit, hm.Get(pos))

	assert.False(t, hm.Record(Position{Row: 9, Col: 9}, CellMiss))
}

func TestHitMap_IsUntried(t *testing.T) {
	hm := NewHitMap(2, 2)
	hm.Record(Position{0, 0}, CellMiss)

	assert.False(t, hm.IsUntried(Position{0, 0}))
	assert.True(t, hm.IsUntried(Position{1, 1}))
	assert.False(t, hm.IsUntried(Position{2, 0}))
	assert.False(t, hm.IsUntried(Position{0, -1}))
}

func TestHitMap_MarkFleet(t *testing.T) {
	fleet := NewFleet(2)
	fleet.AddShip(NewShip(2, NewPosition('A', 1), East))
	fleet.AddShip(NewShip(3, NewPosition('D', 2), South))

	hm := NewHitMap(4, 4)
	hm.MarkFleet(fleet)

	assert.Equal(t, Cell('1'), hm.Get(NewPosition('A', 1)))
	assert.Equal(t, Cell('1'), hm.Get(NewPosition('B', 1)))
	assert.Equal(t, Cell('2'), hm.Get(NewPosition('D', 4)))
	assert.Equal(t, CellNone, hm.Get(NewPosition('C', 3)))

	// Ship marks are not shot outcomes.
	assert.True(t, hm.IsUntried(NewPosition('A', 1)))
	assert.True(t, hm.Record(NewPosition('A', 1), CellHit))
	assert.Equal(t, CellHit, hm.Get(NewPosition('A', 1)))
}

func TestShipMark(t *testing.T) {
	assert.Equal(t, Cell('1'), ShipMark(1))
	assert.Equal(t, Cell('9'), ShipMark(9))
	assert.Equal(t, Cell('A'), ShipMark(10))
	assert.Equal(t, Cell('F'), ShipMark(15))
	assert.Equal(t, Cell('G'), ShipMark(16))
	assert.Equal(t, Cell('Z'), ShipMark(35))
	assert.Equal(t, Cell('a'), ShipMark(36))
	assert.Equal(t, Cell('z'), ShipMark(61))
	assert.Equal(t, ShipMark(1), ShipMark(62))
	assert.Equal(t, CellNone, ShipMark(0))

	seen := make(map[Cell]int)
	for id := 1; id <= 61; id++ {
		mark := ShipMark(id)
		prev, dup := seen[mark]
		assert.False(t, dup, "ship %d shares mark %c with ship %d", id, mark, prev)
		assert.False(t, mark.IsResolved())
		assert.NotEqual(t, CellNone, mark)
		seen[mark] = id
	}
}

func TestHitMap_MarkFleetManyShips(t *testing.T) {
	// Seventeen single-cell ships along the first row of a wide board
	fleet := NewFleet(17)
	for i := 0; i < 17; i++ {
		fleet.AddShip(NewShip(1, Position{Row: 0, Col: i}, East))
	}
	hm := NewHitMap(1, 17)
	hm.MarkFleet(fleet)

	assert.NotEqual(t, hm.Get(Position{Row: 0, Col: 0}), hm.Get(Position{Row: 0, Col: 15}))
	assert.Equal(t, Cell('G'), hm.Get(Position{Row: 0, Col: 15}))
	assert.Equal(t, Cell('H'), hm.Get(Position{Row: 0, Col: 16}))
}

func TestHitMap_Render(t *testing.T) {
	hm := NewHitMap(3, 4)
	hm.Record(NewPosition('A', 1), CellHit)
	hm.Record(NewPosition('D', 3), CellMiss)

	expected := strings.Join([]string{
		"   ABCD",
		" 1 *...",
		" 2 ....",
		" 3 .../",
		"",
	}, "\n")
	assert.Equal(t, expected, hm.String())

	var sb strings.Builder
	assert.NoError(t, hm.Render(&sb, true))
	assert.Contains(t, sb.String(), " 3 ....\n")
}
