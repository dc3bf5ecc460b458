package states

import (
	"fmt"
	"time"
)

// InitializingState is the state before any message is sent
type InitializingState struct{}

func NewInitializingState() State {
	return &InitializingState{}
}

func (s *InitializingState) Phase() SessionPhase {
	return PhaseInitializing
}

func (s *InitializingState) Enter(ctx *SessionContext) error {
	ctx.Logger.Debug().Msg("Entering Initializing state")
	return nil
}

func (s *InitializingState) Exit(ctx *SessionContext) error {
	return nil
}

func (s *InitializingState) Validate(ctx *SessionContext) error {
	return nil
}

// HandshakeState covers the RULES and MAP exchange
type HandshakeState struct{}

func NewHandshakeState() State {
	return &HandshakeState{}
}

func (s *HandshakeState) Phase() SessionPhase {
	return PhaseHandshake
}

func (s *HandshakeState) Enter(ctx *SessionContext) error {
	ctx.Logger.Debug().Msg("Sending rules to agents")
	return nil
}

func (s *HandshakeState) Exit(ctx *SessionContext) error {
	ctx.Logger.Debug().Msg("Handshake complete")
	return nil
}

func (s *HandshakeState) Validate(ctx *SessionContext) error {
	return nil
}

// TurnState is entered every time a player is prompted for a fresh guess
type TurnState struct{}

func NewTurnState() State {
	return &TurnState{}
}

func (s *TurnState) Phase() SessionPhase {
	return PhaseTurn
}

func (s *TurnState) Enter(ctx *SessionContext) error {
	if ctx.StartTime.IsZero() {
		ctx.StartTime = time.Now()
		ctx.Logger.Info().
			Time("start_time", ctx.StartTime).
			Msg("Game started")
	}
	return nil
}

func (s *TurnState) Exit(ctx *SessionContext) error {
	return nil
}

func (s *TurnState) Validate(ctx *SessionContext) error {
	if ctx.Side < 1 || ctx.Side > 2 {
		return fmt.Errorf("turn requires a player, got side %d", ctx.Side)
	}
	return nil
}

// RetryState is entered when a player repeats a resolved cell
type RetryState struct{}

func NewRetryState() State {
	return &RetryState{}
}

func (s *RetryState) Phase() SessionPhase {
	return PhaseRetry
}

func (s *RetryState) Enter(ctx *SessionContext) error {
	ctx.Rehits++
	ctx.Logger.Debug().
		Int("side", ctx.Side).
		Int("rehits", ctx.Rehits).
		Msg("Repeated guess, prompting again")
	return nil
}

func (s *RetryState) Exit(ctx *SessionContext) error {
	return nil
}

func (s *RetryState) Validate(ctx *SessionContext) error {
	if ctx.Side < 1 || ctx.Side > 2 {
		return fmt.Errorf("retry requires a player, got side %d", ctx.Side)
	}
	return nil
}

// DoneState represents a completed game
type DoneState struct{}

func NewDoneState() State {
	return &DoneState{}
}

func (s *DoneState) Phase() SessionPhase {
	return PhaseDone
}

func (s *DoneState) Enter(ctx *SessionContext) error {
	ctx.Logger.Info().
		Int("winner", ctx.Winner).
		Int("turns", ctx.Turns).
		Dur("game_duration", ctx.GetElapsedTime()).
		Msg("Game ended")
	return nil
}

func (s *DoneState) Exit(ctx *SessionContext) error {
	return nil
}

func (s *DoneState) Validate(ctx *SessionContext) error {
	if ctx.Winner < 1 || ctx.Winner > 2 {
		return fmt.Errorf("done state requires a winner, got %d", ctx.Winner)
	}
	return nil
}

// ErrorState represents an aborted session
type ErrorState struct{}

func NewErrorState() State {
	return &ErrorState{}
}

func (s *ErrorState) Phase() SessionPhase {
	return PhaseError
}

func (s *ErrorState) Enter(ctx *SessionContext) error {
	ctx.Logger.Error().
		Err(ctx.Error).
		Int("turns", ctx.Turns).
		Msg("Session entered error state")
	return nil
}

func (s *ErrorState) Exit(ctx *SessionContext) error {
	return nil
}

func (s *ErrorState) Validate(ctx *SessionContext) error {
	if ctx.Error == nil {
		return fmt.Errorf("error state requires an error in context")
	}
	return nil
}
