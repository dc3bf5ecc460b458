package core

import (
	"fmt"
	"io"
	"strings"
)

// Cell is what an observer knows about one cell of a board
type Cell byte

const (
	CellNone Cell = '.'
	CellMiss Cell = '/'
	CellHit  Cell = '*'
)

const shipMarks = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ShipMark returns the self-view mark for the ship with the given 1-based
// id. Ids 1 to 61 get distinct marks; larger ids wrap around.
func ShipMark(id int) Cell {
	if id < 1 {
		return CellNone
	}
	return Cell(shipMarks[(id-1)%len(shipMarks)])
}

// IsResolved reports whether a shot has already landed on the cell
func (c Cell) IsResolved() bool {
	return c == CellHit || c == CellMiss
}

// HitMap is an observer's grid over one board, stored row-major.
// Once a cell is resolved to HIT or MISS it never changes again.
type HitMap struct {
	Rows, Cols int
	data       []Cell
}

// NewHitMap creates a hit map with every cell untried
func NewHitMap(rows, cols int) *HitMap {
	hm := &HitMap{Rows: rows, Cols: cols, data: make([]Cell, rows*cols)}
	for i := range hm.data {
		hm.data[i] = CellNone
	}
	return hm
}

// Get returns the cell at pos. Positions off the board read as CellNone.
func (hm *HitMap) Get(pos Position) Cell {
	if !pos.InBounds(hm.Rows, hm.Cols) {
		return CellNone
	}
	return hm.data[pos.ToIndex(hm.Cols)]
}

// IsResolved reports whether a shot has already landed at pos
func (hm *HitMap) IsResolved(pos Position) bool {
	return hm.Get(pos).IsResolved()
}

// IsUntried reports whether pos is on the board and not yet resolved.
// Ship marks in a self view count as untried.
func (hm *HitMap) IsUntried(pos Position) bool {
	return pos.InBounds(hm.Rows, hm.Cols) && !hm.IsResolved(pos)
}

// Record stores the outcome of a shot at pos. Resolved cells are never
// overwritten; Record reports whether the cell changed.
func (hm *HitMap) Record(pos Position, outcome Cell) bool {
	if !pos.InBounds(hm.Rows, hm.Cols) || hm.IsResolved(pos) {
		return false
	}
	hm.data[pos.ToIndex(hm.Cols)] = outcome
	return true
}

// MarkFleet writes each ship's id mark over its cells. Used for the
// owner's view of its own board.
func (hm *HitMap) MarkFleet(fleet *Fleet) {
	for i := range fleet.Ships {
		mark := ShipMark(i + 1)
		for _, cell := range fleet.Ships[i].Cells() {
			if cell.InBounds(hm.Rows, hm.Cols) && !hm.IsResolved(cell) {
				hm.data[cell.ToIndex(hm.Cols)] = mark
			}
		}
	}
}

// Untried returns every unresolved position in row-major order
func (hm *HitMap) Untried() []Position {
	var out []Position
	for i, c := range hm.data {
		if !c.IsResolved() {
			out = append(out, FromIndex(i, hm.Cols))
		}
	}
	return out
}

// Count returns how many cells hold the given value
func (hm *HitMap) Count(c Cell) int {
	n := 0
	for _, v := range hm.data {
		if v == c {
			n++
		}
	}
	return n
}

// Render writes the map with lettered columns and numbered rows.
// With hideMisses set, misses are shown as untried.
func (hm *HitMap) Render(w io.Writer, hideMisses bool) error {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < hm.Cols; c++ {
		sb.WriteByte(byte('A' + c))
	}
	sb.WriteByte('\n')

	for r := 0; r < hm.Rows; r++ {
		fmt.Fprintf(&sb, "%2d ", r+1)
		for c := 0; c < hm.Cols; c++ {
			cell := hm.data[r*hm.Cols+c]
			if hideMisses && cell == CellMiss {
				cell = CellNone
			}
			sb.WriteByte(byte(cell))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (hm *HitMap) String() string {
	var sb strings.Builder
	hm.Render(&sb, false)
	return sb.String()
}
