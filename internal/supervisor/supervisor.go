// Package supervisor drives any number of referee sessions from a single
// control loop, one turn per session per pass.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/navalhub/internal/outcome"
	"github.com/mitchelldurbincs/navalhub/internal/referee"
)

// ErrAtCapacity is returned by Add when the session limit is reached
var ErrAtCapacity = errors.New("supervisor at capacity")

type entry struct {
	session    *referee.Session
	inProgress bool
	err        error
}

// Supervisor owns an ordered set of sessions
type Supervisor struct {
	mu          sync.RWMutex
	entries     []*entry
	maxSessions int
	logger      zerolog.Logger
}

// New creates a supervisor. maxSessions of 0 means unlimited.
func New(maxSessions int, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		maxSessions: maxSessions,
		logger:      logger.With().Str("component", "supervisor").Logger(),
	}
}

// Add appends a session to the run order
func (s *Supervisor) Add(session *referee.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.entries) >= s.maxSessions {
		s.logger.Warn().
			Int("current_sessions", len(s.entries)).
			Int("max_sessions", s.maxSessions).
			Msg("Rejecting session - supervisor at capacity")
		return fmt.Errorf("%w: %d/%d sessions", ErrAtCapacity, len(s.entries), s.maxSessions)
	}
	s.entries = append(s.entries, &entry{session: session, inProgress: true})
	return nil
}

// Len returns the number of sessions added
func (s *Supervisor) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Active returns how many sessions are still in progress
func (s *Supervisor) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.inProgress {
			n++
		}
	}
	return n
}

// Run handshakes every session in order and then plays them round-robin
// until none is in progress. A fatal error aborts only its own session.
// Cancelling ctx aborts every live session; the report then carries
// SignalTerminated.
func (s *Supervisor) Run(ctx context.Context) Report {
	start := time.Now()
	s.mu.RLock()
	entries := append([]*entry(nil), s.entries...)
	s.mu.RUnlock()

	s.logger.Info().Int("sessions", len(entries)).Msg("Starting sessions")

	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if err := e.session.Handshake(ctx); err != nil {
			s.fail(e, err)
		}
	}

	for ctx.Err() == nil && s.Active() > 0 {
		for _, e := range entries {
			if !s.live(e) {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			done, err := e.session.Step(ctx)
			if err != nil {
				s.fail(e, err)
				continue
			}
			if done {
				s.finish(e)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		s.shutdown(err)
	}

	report := s.Report()
	s.logger.Info().
		Int("sessions", len(report.Results)).
		Str("outcome", report.Outcome.String()).
		Dur("elapsed", time.Since(start)).
		Msg("All sessions finished")
	return report
}

func (s *Supervisor) live(e *entry) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return e.inProgress
}

func (s *Supervisor) finish(e *entry) {
	s.mu.Lock()
	e.inProgress = false
	s.mu.Unlock()

	e.session.Close()
	s.logger.Debug().
		Str("session_id", e.session.ID()).
		Int("winner", e.session.Winner()).
		Int("turns", e.session.Turns()).
		Msg("Session finished")
}

func (s *Supervisor) fail(e *entry, err error) {
	s.mu.Lock()
	e.inProgress = false
	e.err = err
	s.mu.Unlock()

	e.session.Abort(err)
	s.logger.Error().
		Err(err).
		Str("session_id", e.session.ID()).
		Str("code", outcome.CodeOf(err).String()).
		Msg("Session aborted")
}

// shutdown aborts every session still in progress after cancellation
func (s *Supervisor) shutdown(cause error) {
	s.mu.RLock()
	entries := append([]*entry(nil), s.entries...)
	s.mu.RUnlock()

	for _, e := range entries {
		if !s.live(e) {
			continue
		}
		s.fail(e, outcome.Wrap(outcome.SignalTerminated, fmt.Errorf("shutdown: %w", cause)))
	}
}
