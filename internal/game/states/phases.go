package states

import "fmt"

// SessionPhase is the lifecycle phase of one refereed session
type SessionPhase int

const (
	// PhaseInitializing - peers spawned, nothing sent yet
	PhaseInitializing SessionPhase = iota

	// PhaseHandshake - rules sent, waiting for both maps
	PhaseHandshake

	// PhaseTurn - a player has been prompted for a guess
	PhaseTurn

	// PhaseRetry - the last guess repeated a resolved cell; same player again
	PhaseRetry

	// PhaseDone - a fleet has been sunk
	PhaseDone

	// PhaseError - the session was aborted
	PhaseError
)

// String returns the string representation of a SessionPhase
func (p SessionPhase) String() string {
	switch p {
	case PhaseInitializing:
		return "Initializing"
	case PhaseHandshake:
		return "Handshake"
	case PhaseTurn:
		return "Turn"
	case PhaseRetry:
		return "Retry"
	case PhaseDone:
		return "Done"
	case PhaseError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if the phase ends the session
func (p SessionPhase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseError
}

// AcceptsGuesses returns true if a player may be prompted in this phase
func (p SessionPhase) AcceptsGuesses() bool {
	return p == PhaseTurn || p == PhaseRetry
}

// AllowedTransitions returns the valid phases this phase can transition to
func (p SessionPhase) AllowedTransitions() []SessionPhase {
	switch p {
	case PhaseInitializing:
		return []SessionPhase{PhaseHandshake, PhaseError}
	case PhaseHandshake:
		return []SessionPhase{PhaseTurn, PhaseError}
	case PhaseTurn:
		return []SessionPhase{PhaseTurn, PhaseRetry, PhaseDone, PhaseError}
	case PhaseRetry:
		return []SessionPhase{PhaseRetry, PhaseTurn, PhaseDone, PhaseError}
	default:
		return []SessionPhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p SessionPhase) CanTransitionTo(target SessionPhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}
