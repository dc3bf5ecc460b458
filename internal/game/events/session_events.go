package events

import (
	"time"
)

// Event type constants
const (
	TypeSessionStarted  = "session.started"
	TypeShotResolved    = "shot.resolved"
	TypeShotRepeated    = "shot.repeated"
	TypeGameEnded       = "game.ended"
	TypeSessionFailed   = "session.failed"
	TypeStateTransition = "state.transition"
)

// SessionStartedEvent is published once both fleets have been accepted
type SessionStartedEvent struct {
	BaseEvent
	Rows     int
	Cols     int
	NumShips int
	Agents   []string
}

// NewSessionStartedEvent creates a new SessionStartedEvent
func NewSessionStartedEvent(sessionID string, rows, cols, numShips int, agents []string) *SessionStartedEvent {
	return &SessionStartedEvent{
		BaseEvent: newBase(TypeSessionStarted, sessionID),
		Rows:      rows,
		Cols:      cols,
		NumShips:  numShips,
		Agents:    agents,
	}
}

// ShotResolvedEvent is published for every guess that changed a board
type ShotResolvedEvent struct {
	BaseEvent
	Player    int
	Turn      int
	Position  string
	Result    string
	Remaining int
}

// NewShotResolvedEvent creates a new ShotResolvedEvent. Remaining is the
// number of ships the target still has afloat.
func NewShotResolvedEvent(sessionID string, player, turn int, position, result string, remaining int) *ShotResolvedEvent {
	return &ShotResolvedEvent{
		BaseEvent: newBase(TypeShotResolved, sessionID),
		Player:    player,
		Turn:      turn,
		Position:  position,
		Result:    result,
		Remaining: remaining,
	}
}

// ShotRepeatedEvent is published when a player guesses a resolved cell
type ShotRepeatedEvent struct {
	BaseEvent
	Player   int
	Turn     int
	Position string
}

// NewShotRepeatedEvent creates a new ShotRepeatedEvent
func NewShotRepeatedEvent(sessionID string, player, turn int, position string) *ShotRepeatedEvent {
	return &ShotRepeatedEvent{
		BaseEvent: newBase(TypeShotRepeated, sessionID),
		Player:    player,
		Turn:      turn,
		Position:  position,
	}
}

// GameEndedEvent is published when one fleet has been sunk
type GameEndedEvent struct {
	BaseEvent
	Winner   int
	Turns    int
	Duration time.Duration
}

// NewGameEndedEvent creates a new GameEndedEvent
func NewGameEndedEvent(sessionID string, winner, turns int, duration time.Duration) *GameEndedEvent {
	return &GameEndedEvent{
		BaseEvent: newBase(TypeGameEnded, sessionID),
		Winner:    winner,
		Turns:     turns,
		Duration:  duration,
	}
}

// SessionFailedEvent is published when a session is aborted
type SessionFailedEvent struct {
	BaseEvent
	Code   string
	Reason string
	Turns  int
}

// NewSessionFailedEvent creates a new SessionFailedEvent
func NewSessionFailedEvent(sessionID, code, reason string, turns int) *SessionFailedEvent {
	return &SessionFailedEvent{
		BaseEvent: newBase(TypeSessionFailed, sessionID),
		Code:      code,
		Reason:    reason,
		Turns:     turns,
	}
}

// StateTransitionEvent is published when the session state machine transitions between phases
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(sessionID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, sessionID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
