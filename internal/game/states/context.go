package states

import (
	"time"

	"github.com/rs/zerolog"
)

// SessionContext provides session information to states for making decisions
type SessionContext struct {
	// SessionID uniquely identifies this session
	SessionID string

	// Logger for state-specific logging
	Logger zerolog.Logger

	// Side is the 1-based player whose turn it is, 0 before play starts
	Side int

	// Turns counts resolved guesses
	Turns int

	// Rehits counts repeated guesses
	Rehits int

	// StartTime is when the first turn began
	StartTime time.Time

	// Winner is the 1-based id of the winner, 0 until the game is done
	Winner int

	// Error holds the cause of a transition to PhaseError
	Error error
}

// NewSessionContext creates a new session context
func NewSessionContext(sessionID string, logger zerolog.Logger) *SessionContext {
	return &SessionContext{
		SessionID: sessionID,
		Logger:    logger.With().Str("session_id", sessionID).Logger(),
	}
}

// GetElapsedTime returns the time elapsed since the first turn
func (sc *SessionContext) GetElapsedTime() time.Duration {
	if sc.StartTime.IsZero() {
		return 0
	}
	return time.Since(sc.StartTime)
}
