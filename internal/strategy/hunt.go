package strategy

import (
	"math/rand"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
)

// Mode is the hunt-and-target search mode
type Mode int

const (
	ModeSearch Mode = iota
	ModeAttack
)

func (m Mode) String() string {
	if m == ModeAttack {
		return "ATTACK"
	}
	return "SEARCH"
}

// TargetQueue is a FIFO of candidate cells with a membership set, so a
// cell is queued at most once until the queue is reset
type TargetQueue struct {
	items []core.Position
	head  int
	seen  map[core.Position]struct{}
}

// NewTargetQueue creates an empty queue
func NewTargetQueue(capacity int) *TargetQueue {
	return &TargetQueue{
		items: make([]core.Position, 0, capacity),
		seen:  make(map[core.Position]struct{}, capacity),
	}
}

// Push appends pos unless it has been queued before. It reports whether
// pos was added.
func (q *TargetQueue) Push(pos core.Position) bool {
	if q.Seen(pos) {
		return false
	}
	q.seen[pos] = struct{}{}
	q.items = append(q.items, pos)
	return true
}

// Pop removes and returns the oldest queued cell
func (q *TargetQueue) Pop() (core.Position, bool) {
	if q.head >= len(q.items) {
		return core.Position{}, false
	}
	pos := q.items[q.head]
	q.head++
	if q.head > len(q.items)/2 {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return pos, true
}

// Seen reports whether pos has been queued since the last reset
func (q *TargetQueue) Seen(pos core.Position) bool {
	_, ok := q.seen[pos]
	return ok
}

// Len returns the number of cells still queued
func (q *TargetQueue) Len() int {
	return len(q.items) - q.head
}

// Pending returns a copy of the queued cells in pop order
func (q *TargetQueue) Pending() []core.Position {
	return append([]core.Position(nil), q.items[q.head:]...)
}

// Reset empties the queue and forgets every cell seen
func (q *TargetQueue) Reset() {
	q.items = q.items[:0]
	q.head = 0
	clear(q.seen)
}

// HuntAndTarget searches randomly until one of its guesses hits, then
// works through the neighbours of each hit breadth-first
type HuntAndTarget struct {
	search *RandomSearch
	mode   Mode
	queue  *TargetQueue
}

// NewHuntAndTarget creates a hunt-and-target strategy in search mode
func NewHuntAndTarget(rng *rand.Rand) *HuntAndTarget {
	return &HuntAndTarget{
		search: NewRandomSearch(rng),
		mode:   ModeSearch,
		queue:  NewTargetQueue(16),
	}
}

func (s *HuntAndTarget) Kind() Kind { return KindHunt }

// Mode returns the current search mode
func (s *HuntAndTarget) Mode() Mode { return s.mode }

// Queue returns the cells waiting to be attacked
func (s *HuntAndTarget) Queue() []core.Position { return s.queue.Pending() }

func (s *HuntAndTarget) NextGuess(view *core.HitMap) (core.Position, error) {
	if s.mode == ModeAttack {
		for s.queue.Len() > 0 {
			pos, _ := s.queue.Pop()
			if view.IsUntried(pos) {
				return pos, nil
			}
		}
		s.queue.Reset()
		s.mode = ModeSearch
	}
	return s.search.NextGuess(view)
}

func (s *HuntAndTarget) Observe(view *core.HitMap, pos core.Position, result core.ShotResult) {
	switch result {
	case core.ShotHit, core.ShotSunk:
		for _, next := range pos.Adjacent() {
			if view.IsUntried(next) {
				s.queue.Push(next)
			}
		}
	}

	if s.queue.Len() > 0 {
		s.mode = ModeAttack
		return
	}
	s.queue.Reset()
	s.mode = ModeSearch
}
