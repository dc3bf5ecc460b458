package core

import "fmt"

// Rules are shared by both players of a session and never change once sent.
// ShipLengths[i] is the length of the i'th declared ship of every fleet.
type Rules struct {
	Rows        int
	Cols        int
	NumShips    int
	ShipLengths []int
}

// StandardRules returns the rules of a standard game: an 8x8 board with
// ships of length 5, 4, 3, 2 and 1
func StandardRules() Rules {
	return Rules{
		Rows:        8,
		Cols:        8,
		NumShips:    5,
		ShipLengths: []int{5, 4, 3, 2, 1},
	}
}

// Validate checks the rules invariants
func (r Rules) Validate() error {
	if r.Rows < MinDimension || r.Rows > MaxDimension {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrInvalidRules, MinDimension, MaxDimension, r.Rows)
	}
	if r.Cols < MinDimension || r.Cols > MaxDimension {
		return fmt.Errorf("%w: columns must be between %d and %d, got %d", ErrInvalidRules, MinDimension, MaxDimension, r.Cols)
	}
	if r.NumShips < 1 {
		return fmt.Errorf("%w: at least one ship required", ErrInvalidRules)
	}
	if len(r.ShipLengths) != r.NumShips {
		return fmt.Errorf("%w: %d ship lengths for %d ships", ErrInvalidRules, len(r.ShipLengths), r.NumShips)
	}
	for i, length := range r.ShipLengths {
		if length < 1 {
			return fmt.Errorf("%w: ship %d has length %d", ErrInvalidRules, i+1, length)
		}
	}
	return nil
}

// Contains reports whether pos is on the board described by the rules
func (r Rules) Contains(pos Position) bool {
	return pos.InBounds(r.Rows, r.Cols)
}
