package core

import (
	"fmt"
	"strconv"
)

const (
	// MinDimension and MaxDimension bound the rows and columns of a board.
	// Columns are lettered A-Z, so a board can never be wider than 26.
	MinDimension = 1
	MaxDimension = 26
)

// Position is a zero-based cell on the board
type Position struct {
	Row, Col int
}

// NewPosition creates a position from a column letter and a one-based row,
// the way cells are written on the wire (e.g. 'C', 3 for C3)
func NewPosition(col byte, row int) Position {
	return Position{Row: row - 1, Col: int(col - 'A')}
}

// ParsePosition parses the textual form of a cell such as "A1" or "J10".
// Only the syntax is checked here: the column must be A-Z and the row
// 1-26. Board bounds are checked by the caller once the rules are known.
func ParsePosition(text string) (Position, error) {
	if len(text) < 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, text)
	}
	col := text[0]
	if col < 'A' || col > 'Z' {
		return Position{}, fmt.Errorf("%w: bad column in %q", ErrInvalidPosition, text)
	}
	digits := text[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Position{}, fmt.Errorf("%w: bad row in %q", ErrInvalidPosition, text)
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < MinDimension || row > MaxDimension {
		return Position{}, fmt.Errorf("%w: bad row in %q", ErrInvalidPosition, text)
	}
	return NewPosition(col, row), nil
}

// InBounds checks if the position lies on a rows x cols board
func (p Position) InBounds(rows, cols int) bool {
	return p.Row >= 0 && p.Row < rows && p.Col >= 0 && p.Col < cols
}

// ToIndex converts the position to a row-major index
func (p Position) ToIndex(cols int) int {
	return p.Row*cols + p.Col
}

// FromIndex creates a position from a row-major index
func FromIndex(idx, cols int) Position {
	return Position{Row: idx / cols, Col: idx % cols}
}

// Step returns the next position one cell away in the given direction
func (p Position) Step(dir Direction) Position {
	if offset, ok := DirectionVectors[dir]; ok {
		return Position{Row: p.Row + offset.Row, Col: p.Col + offset.Col}
	}
	return p
}

// Adjacent returns the four orthogonal neighbours in West, East, North,
// South order. Targeting relies on this order.
func (p Position) Adjacent() []Position {
	return []Position{
		{Row: p.Row, Col: p.Col - 1},
		{Row: p.Row, Col: p.Col + 1},
		{Row: p.Row - 1, Col: p.Col},
		{Row: p.Row + 1, Col: p.Col},
	}
}

// String returns the wire form of the position, e.g. "C3"
func (p Position) String() string {
	return fmt.Sprintf("%c%d", 'A'+p.Col, p.Row+1)
}

// Direction is the way a ship extends from its anchor cell
type Direction byte

const (
	North Direction = 'N'
	South Direction = 'S'
	East  Direction = 'E'
	West  Direction = 'W'
)

// DirectionVectors provides position offsets for each direction
var DirectionVectors = map[Direction]Position{
	North: {Row: -1, Col: 0},
	South: {Row: 1, Col: 0},
	East:  {Row: 0, Col: 1},
	West:  {Row: 0, Col: -1},
}

// ParseDirection converts a direction letter
func ParseDirection(b byte) (Direction, error) {
	d := Direction(b)
	if !d.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, string(b))
	}
	return d, nil
}

// IsValid reports whether d is one of the four compass directions
func (d Direction) IsValid() bool {
	_, ok := DirectionVectors[d]
	return ok
}

func (d Direction) String() string {
	return string(d)
}
