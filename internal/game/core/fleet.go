package core

// Ship is anchored at Pos and extends Length cells in Dir.
// hits[i] is set once when the i'th cell from the anchor is hit.
type Ship struct {
	Length int
	Pos    Position
	Dir    Direction
	hits   []bool
}

// NewShip creates an unhit ship
func NewShip(length int, pos Position, dir Direction) Ship {
	return Ship{Length: length, Pos: pos, Dir: dir, hits: make([]bool, length)}
}

// Cells returns every cell covered by the ship, anchor first
func (s *Ship) Cells() []Position {
	cells := make([]Position, 0, s.Length)
	pos := s.Pos
	for i := 0; i < s.Length; i++ {
		cells = append(cells, pos)
		pos = pos.Step(s.Dir)
	}
	return cells
}

// CellIndex returns the offset of pos along the ship, or -1 if the
// ship does not cover pos
func (s *Ship) CellIndex(pos Position) int {
	for i, cell := range s.Cells() {
		if cell == pos {
			return i
		}
	}
	return -1
}

// IsHit reports whether the i'th cell has been hit
func (s *Ship) IsHit(i int) bool {
	return i >= 0 && i < len(s.hits) && s.hits[i]
}

// IsSunk reports whether every cell of the ship has been hit
func (s *Ship) IsSunk() bool {
	for i := 0; i < s.Length; i++ {
		if !s.IsHit(i) {
			return false
		}
	}
	return true
}

func (s *Ship) markHit(i int) {
	if len(s.hits) != s.Length {
		s.hits = make([]bool, s.Length)
	}
	s.hits[i] = true
}

// Fleet is one player's ships in declaration order. The 1-based index of
// a ship is its id.
type Fleet struct {
	Ships []Ship
}

// NewFleet creates an empty fleet with room for capacity ships
func NewFleet(capacity int) *Fleet {
	return &Fleet{Ships: make([]Ship, 0, capacity)}
}

// AddShip appends a ship to the fleet
func (f *Fleet) AddShip(ship Ship) {
	f.Ships = append(f.Ships, ship)
}

// Arm assigns the lengths from the rules to the declared ships and resets
// their hits. Ships declared beyond rules.NumShips take no part in the game
// and are dropped. The fleet must already hold at least NumShips ships.
func (f *Fleet) Arm(rules Rules) {
	if len(f.Ships) > rules.NumShips {
		f.Ships = f.Ships[:rules.NumShips]
	}
	for i := range f.Ships {
		f.Ships[i].Length = rules.ShipLengths[i]
		f.Ships[i].hits = make([]bool, rules.ShipLengths[i])
	}
}

// Clone returns a deep copy of the fleet
func (f *Fleet) Clone() *Fleet {
	clone := NewFleet(len(f.Ships))
	for _, s := range f.Ships {
		c := s
		c.hits = append([]bool(nil), s.hits...)
		clone.Ships = append(clone.Ships, c)
	}
	return clone
}

// AllSunk reports whether every ship in the fleet has been sunk
func (f *Fleet) AllSunk() bool {
	for i := range f.Ships {
		if !f.Ships[i].IsSunk() {
			return false
		}
	}
	return true
}

// Remaining returns the number of ships not yet sunk
func (f *Fleet) Remaining() int {
	n := 0
	for i := range f.Ships {
		if !f.Ships[i].IsSunk() {
			n++
		}
	}
	return n
}

// Validate checks that fleet is playable under rules: enough ships, no two
// ships sharing a cell, and every ship cell on the board. Lengths come from
// the rules, so the fleet's own lengths are ignored.
func Validate(rules Rules, fleet *Fleet) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	if len(fleet.Ships) < rules.NumShips {
		return &ValidationError{Kind: ErrShipCount}
	}

	ships := make([]Ship, rules.NumShips)
	for i := range ships {
		ships[i] = fleet.Ships[i]
		ships[i].Length = rules.ShipLengths[i]
	}

	for i := 0; i < len(ships); i++ {
		for j := i + 1; j < len(ships); j++ {
			if shipsOverlap(&ships[i], &ships[j]) {
				return &ValidationError{Kind: ErrOverlap, Ship: i + 1, Other: j + 1}
			}
		}
	}

	for i := range ships {
		for _, cell := range ships[i].Cells() {
			if !rules.Contains(cell) {
				return &ValidationError{Kind: ErrOutOfBounds, Ship: i + 1}
			}
		}
	}
	return nil
}

func shipsOverlap(a, b *Ship) bool {
	occupied := make(map[Position]struct{}, a.Length)
	for _, cell := range a.Cells() {
		occupied[cell] = struct{}{}
	}
	for _, cell := range b.Cells() {
		if _, ok := occupied[cell]; ok {
			return true
		}
	}
	return false
}
