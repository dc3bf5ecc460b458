package core

import "fmt"

// ShotResult is the outcome of resolving one guess
type ShotResult int

const (
	// ShotRehit means the cell was already resolved; nothing changed
	ShotRehit ShotResult = iota
	ShotMiss
	ShotHit
	ShotSunk
)

func (r ShotResult) String() string {
	switch r {
	case ShotRehit:
		return "REHIT"
	case ShotMiss:
		return "MISS"
	case ShotHit:
		return "HIT"
	case ShotSunk:
		return "SUNK"
	default:
		return fmt.Sprintf("ShotResult(%d)", int(r))
	}
}

// Cell returns the hit map value a resolved shot leaves behind
func (r ShotResult) Cell() Cell {
	switch r {
	case ShotHit, ShotSunk:
		return CellHit
	case ShotMiss:
		return CellMiss
	default:
		return CellNone
	}
}

// ResolveShot fires at pos on fleet and records the outcome in hm, the
// shooter's hit map over that fleet. A shot at an already resolved cell
// returns ShotRehit without touching either structure.
//
// The fleet must have passed Validate: a cell covered by more than one ship
// is a broken invariant and panics.
func ResolveShot(hm *HitMap, fleet *Fleet, pos Position) ShotResult {
	if hm.IsResolved(pos) {
		return ShotRehit
	}

	shipIdx, cellIdx := -1, -1
	for i := range fleet.Ships {
		if idx := fleet.Ships[i].CellIndex(pos); idx >= 0 {
			if shipIdx >= 0 {
				panic(fmt.Sprintf("core: cell %s covered by ship %d and ship %d", pos, shipIdx+1, i+1))
			}
			shipIdx, cellIdx = i, idx
		}
	}

	if shipIdx < 0 {
		hm.Record(pos, CellMiss)
		return ShotMiss
	}

	ship := &fleet.Ships[shipIdx]
	if ship.IsHit(cellIdx) {
		// The hit map and the ship disagree; keep them in step.
		hm.Record(pos, CellHit)
		return ShotRehit
	}
	ship.markHit(cellIdx)
	hm.Record(pos, CellHit)
	if ship.IsSunk() {
		return ShotSunk
	}
	return ShotHit
}
