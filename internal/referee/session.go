// Package referee runs one game between two agents: it owns both fleets,
// resolves every guess and tells both agents what happened.
package referee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
	"github.com/mitchelldurbincs/navalhub/internal/game/events"
	"github.com/mitchelldurbincs/navalhub/internal/game/states"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
	"github.com/mitchelldurbincs/navalhub/internal/peer"
	"github.com/mitchelldurbincs/navalhub/internal/protocol"
)

var (
	ErrOutOfTurn     = errors.New("guess from the wrong player")
	ErrTooManyRehits = errors.New("too many repeated guesses")
	ErrFinished      = errors.New("session already finished")
)

// NumPlayers is the number of agents in every session
const NumPlayers = 2

// Options configure a Session
type Options struct {
	// ID names the session in logs and events; a random UUID when empty
	ID string
	// Round is the 0-based position of the session in the roster
	Round int
	// Agents are display names for the two agents
	Agents [NumPlayers]string
	// MaxRehits bounds repeated guesses within one turn; zero is unbounded
	MaxRehits int
	// Output receives the shot lines, game over line and board snapshots
	Output io.Writer
	// ShowBoards enables a snapshot of both boards after every turn pair
	ShowBoards bool
	// Bus receives session events; may be nil
	Bus events.Publisher
	Logger zerolog.Logger
}

// Session is one game between two agents. It is driven one turn at a time
// by Step and is not safe for concurrent use.
type Session struct {
	id     string
	opts   Options
	rules  core.Rules
	peers  [NumPlayers]peer.Channel
	fleets [NumPlayers]*core.Fleet
	// boards[i] is player i's board as the referee sees it: ship marks
	// plus every shot fired at it
	boards    [NumPlayers]*core.HitMap
	remaining [NumPlayers]int
	side      int
	rehits    int

	machine *states.StateMachine
	state   *states.SessionContext
	logger  zerolog.Logger
	output  io.Writer
	closed  bool
}

// NewSession creates a session over two connected agents. Player 1 talks
// over peers[0].
func NewSession(rules core.Rules, peers [NumPlayers]peer.Channel, opts Options) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	logger := opts.Logger.With().
		Str("component", "referee").
		Int("round", opts.Round).
		Logger()

	output := opts.Output
	if output == nil {
		output = io.Discard
	}

	state := states.NewSessionContext(id, logger)
	return &Session{
		id:      id,
		opts:    opts,
		rules:   rules,
		peers:   peers,
		machine: states.NewStateMachine(state, opts.Bus),
		state:   state,
		logger:  state.Logger,
		output:  output,
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Round returns the session's roster position
func (s *Session) Round() int { return s.opts.Round }

// Phase returns the current lifecycle phase
func (s *Session) Phase() states.SessionPhase { return s.machine.CurrentPhase() }

// Turn returns the 1-based id of the player whose turn it is, or 0
// before play has started
func (s *Session) Turn() int { return s.state.Side }

// Turns returns the number of resolved guesses
func (s *Session) Turns() int { return s.state.Turns }

// Rehits returns the number of repeated guesses
func (s *Session) Rehits() int { return s.state.Rehits }

// Winner returns the winner's 1-based id, or 0 while no one has won
func (s *Session) Winner() int { return s.state.Winner }

// Remaining returns how many ships each player still has afloat
func (s *Session) Remaining() [NumPlayers]int { return s.remaining }

// Board returns player's board as the referee sees it, or nil before the
// handshake. player is 1-based.
func (s *Session) Board(player int) *core.HitMap {
	if player < 1 || player > NumPlayers {
		return nil
	}
	return s.boards[player-1]
}

// Err returns the error that aborted the session, if any
func (s *Session) Err() error { return s.state.Error }

// Handshake sends the rules to each agent in turn and reads back its map.
// A line that is not a MAP is a CommError; a map that does not fit the
// rules is an InvalidConfig.
func (s *Session) Handshake(ctx context.Context) error {
	if err := s.machine.TransitionTo(states.PhaseHandshake, "agents started"); err != nil {
		return outcome.Wrap(outcome.CommError, err)
	}

	rulesMsg := protocol.Rules{Rules: s.rules}
	for i := 0; i < NumPlayers; i++ {
		if err := s.send(i, rulesMsg); err != nil {
			return err
		}
		msg, err := s.receive(ctx, i, protocol.Expect(protocol.TagMap))
		if err != nil {
			return err
		}
		s.fleets[i] = msg.(protocol.Map).Fleet
	}

	for i := 0; i < NumPlayers; i++ {
		if err := core.Validate(s.rules, s.fleets[i]); err != nil {
			return outcome.Wrap(outcome.InvalidConfig, fmt.Errorf("player %d map: %w", i+1, err))
		}
	}

	for i := 0; i < NumPlayers; i++ {
		s.fleets[i].Arm(s.rules)
		s.boards[i] = core.NewHitMap(s.rules.Rows, s.rules.Cols)
		s.boards[i].MarkFleet(s.fleets[i])
		s.remaining[i] = s.rules.NumShips
	}

	s.side = 0
	s.state.Side = 1
	if err := s.machine.TransitionTo(states.PhaseTurn, "maps accepted"); err != nil {
		return outcome.Wrap(outcome.CommError, err)
	}

	s.publish(events.NewSessionStartedEvent(s.id, s.rules.Rows, s.rules.Cols, s.rules.NumShips, s.opts.Agents[:]))
	return nil
}

// Step plays one turn: it prompts the current player until it makes a
// guess that changes the opponent's board, then broadcasts the result.
// done is true once the game has been won.
func (s *Session) Step(ctx context.Context) (done bool, err error) {
	switch phase := s.machine.CurrentPhase(); {
	case phase == states.PhaseDone:
		return true, nil
	case phase.IsTerminal():
		return true, ErrFinished
	case !phase.AcceptsGuesses():
		return false, fmt.Errorf("cannot play a turn in phase %s", phase)
	}

	side, opp := s.side, 1-s.side
	player := side + 1
	s.rehits = 0

	for {
		if err := s.send(side, protocol.YourTurn{}); err != nil {
			return false, err
		}
		msg, err := s.receive(ctx, side, protocol.Expect(protocol.TagGuess))
		if err != nil {
			return false, err
		}
		guess := msg.(protocol.Guess)
		if guess.ID != 0 && guess.ID != player {
			return false, outcome.Wrap(outcome.CommError, fmt.Errorf("%w: player %d sent id %d", ErrOutOfTurn, player, guess.ID))
		}

		result := core.ResolveShot(s.boards[opp], s.fleets[opp], guess.Pos)
		if result != core.ShotRehit {
			return s.resolve(side, guess.Pos, result)
		}

		s.rehits++
		s.logger.Debug().
			Int("player", player).
			Str("position", guess.Pos.String()).
			Msg("Repeated guess")
		s.publish(events.NewShotRepeatedEvent(s.id, player, s.state.Turns+1, guess.Pos.String()))

		if err := s.send(side, protocol.OK{}); err != nil {
			return false, err
		}
		if err := s.machine.TransitionTo(states.PhaseRetry, "repeated guess"); err != nil {
			return false, outcome.Wrap(outcome.CommError, err)
		}
		if s.opts.MaxRehits > 0 && s.rehits > s.opts.MaxRehits {
			return false, outcome.Wrap(outcome.CommError, fmt.Errorf("%w: player %d", ErrTooManyRehits, player))
		}
	}
}

func (s *Session) resolve(side int, pos core.Position, result core.ShotResult) (bool, error) {
	opp := 1 - side
	player := side + 1

	if err := s.send(side, protocol.OK{}); err != nil {
		return false, err
	}
	if err := s.broadcast(protocol.Result{Outcome: result, ID: player, Pos: pos}); err != nil {
		return false, err
	}

	if result == core.ShotSunk {
		s.remaining[opp]--
		fmt.Fprintf(s.output, "SHIP %s player %d guessed %s\n", result, player, pos)
	} else {
		fmt.Fprintf(s.output, "%s player %d guessed %s\n", result, player, pos)
	}
	s.state.Turns++
	s.publish(events.NewShotResolvedEvent(s.id, player, s.state.Turns, pos.String(), result.String(), s.remaining[opp]))

	if side == NumPlayers-1 && s.opts.ShowBoards {
		s.writeBoards()
	}

	if s.fleets[opp].AllSunk() {
		return true, s.finish(player)
	}

	s.side = opp
	s.state.Side = opp + 1
	if err := s.machine.TransitionTo(states.PhaseTurn, "next player"); err != nil {
		return false, outcome.Wrap(outcome.CommError, err)
	}
	return false, nil
}

func (s *Session) finish(winner int) error {
	if err := s.broadcast(protocol.Done{ID: winner}); err != nil {
		return err
	}
	fmt.Fprintf(s.output, "GAME OVER - player %d wins\n", winner)

	s.state.Winner = winner
	duration := s.state.GetElapsedTime()
	if err := s.machine.TransitionTo(states.PhaseDone, "fleet destroyed"); err != nil {
		return outcome.Wrap(outcome.CommError, err)
	}
	s.publish(events.NewGameEndedEvent(s.id, winner, s.state.Turns, duration))

	loser := s.boards[2-winner]
	s.logger.Info().
		Int("winner", winner).
		Int("turns", s.state.Turns).
		Int("winning_hits", loser.Count(core.CellHit)).
		Int("winning_misses", loser.Count(core.CellMiss)).
		Dur("duration", duration).
		Msg("Game over")
	s.Close()
	return nil
}

// writeBoards prints both boards, player 1 first
func (s *Session) writeBoards() {
	fmt.Fprintf(s.output, "ROUND %d\n", s.opts.Round)
	s.boards[0].Render(s.output, false)
	fmt.Fprintln(s.output, "===")
	s.boards[1].Render(s.output, false)
}

// Abort ends the session after a fatal error: both agents are told EARLY
// on a best-effort basis and then stopped. Aborting a finished session
// only releases its peers.
func (s *Session) Abort(cause error) {
	if s.machine.CurrentPhase().IsTerminal() {
		s.Close()
		return
	}
	if cause == nil {
		cause = errors.New("aborted")
	}

	for i := 0; i < NumPlayers; i++ {
		if s.peers[i] == nil {
			continue
		}
		if err := s.peers[i].WriteLine(protocol.Early{}.String()); err != nil {
			s.logger.Debug().Err(err).Int("player", i+1).Msg("Could not send EARLY")
		}
	}
	s.Close()

	s.state.Error = cause
	if err := s.machine.TransitionTo(states.PhaseError, cause.Error()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to record session error")
	}
	s.publish(events.NewSessionFailedEvent(s.id, outcome.CodeOf(cause).String(), cause.Error(), s.state.Turns))
}

// Close terminates both agents. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := 0; i < NumPlayers; i++ {
		if s.peers[i] == nil {
			continue
		}
		if err := s.peers[i].Terminate(); err != nil {
			s.logger.Warn().Err(err).Int("player", i+1).Msg("Failed to terminate agent")
		}
	}
}

func (s *Session) send(i int, msg protocol.Message) error {
	if err := s.peers[i].WriteLine(msg.String()); err != nil {
		return outcome.Wrap(outcome.CommError, fmt.Errorf("sending %s to player %d: %w", msg.Tag(), i+1, err))
	}
	return nil
}

func (s *Session) broadcast(msg protocol.Message) error {
	for i := 0; i < NumPlayers; i++ {
		if err := s.send(i, msg); err != nil {
			return err
		}
	}
	return nil
}

// receive reads one line from player i and decodes it. Cancellation of
// ctx is reported as SignalTerminated, every other failure as CommError.
func (s *Session) receive(ctx context.Context, i int, expect protocol.TagSet) (protocol.Message, error) {
	start := time.Now()
	line, err := s.peers[i].ReadLine(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcome.Wrap(outcome.SignalTerminated, fmt.Errorf("reading from player %d: %w", i+1, ctx.Err()))
		}
		return nil, outcome.Wrap(outcome.CommError, fmt.Errorf("reading from player %d: %w", i+1, err))
	}

	msg, err := protocol.Decode(line, expect, &s.rules)
	if err != nil {
		return nil, outcome.Wrap(outcome.CommError, fmt.Errorf("player %d: %w", i+1, err))
	}
	s.logger.Trace().
		Int("player", i+1).
		Str("line", line).
		Dur("wait", time.Since(start)).
		Msg("Received")
	return msg, nil
}

func (s *Session) publish(event events.Event) {
	if s.opts.Bus != nil {
		s.opts.Bus.Publish(event)
	}
}
