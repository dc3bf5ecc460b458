// Package agent is the player side of the protocol: it answers the
// referee's prompts with a fleet and with guesses chosen by a targeting
// strategy, and tracks both boards from the broadcast results.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
	"github.com/mitchelldurbincs/navalhub/internal/game/mapgen"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
	"github.com/mitchelldurbincs/navalhub/internal/peer"
	"github.com/mitchelldurbincs/navalhub/internal/protocol"
	"github.com/mitchelldurbincs/navalhub/internal/strategy"
)

var (
	ErrEarly    = errors.New("game ended early")
	ErrFinished = errors.New("game already over")
	ErrNoGuess  = errors.New("OK without a pending guess")
	ErrPending  = errors.New("prompted while a guess is pending")
)

// Phase is where an agent is in its game
type Phase int

const (
	PhaseAwaitRules Phase = iota
	PhasePlaying
	PhaseFinished
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitRules:
		return "AwaitRules"
	case PhasePlaying:
		return "Playing"
	case PhaseFinished:
		return "Finished"
	case PhaseFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// IsTerminal reports whether the game is over for the agent
func (p Phase) IsTerminal() bool {
	return p == PhaseFinished || p == PhaseFailed
}

// FleetSource supplies the agent's fleet once the rules are known
type FleetSource func(rules core.Rules) (*core.Fleet, error)

// FixedFleet always places a copy of fleet
func FixedFleet(fleet *core.Fleet) FleetSource {
	return func(core.Rules) (*core.Fleet, error) {
		return fleet.Clone(), nil
	}
}

// RandomFleet places a fresh random fleet for the rules it is given
func RandomFleet(config mapgen.PlacementConfig, rng *rand.Rand) FleetSource {
	return func(rules core.Rules) (*core.Fleet, error) {
		return mapgen.NewGenerator(rules, config, rng).GenerateFleet()
	}
}

var (
	rulesTags   = protocol.Expect(protocol.TagRules, protocol.TagEarly)
	playingTags = protocol.Expect(protocol.TagYourTurn, protocol.TagOK, protocol.TagHit,
		protocol.TagMiss, protocol.TagSunk, protocol.TagDone, protocol.TagEarly)
)

// Engine is one agent's protocol state machine. Handle is a pure step
// over one line; Run drives it over a channel.
type Engine struct {
	id       int
	source   FleetSource
	strategy strategy.Strategy
	logger   zerolog.Logger

	phase    Phase
	rules    core.Rules
	fleet    *core.Fleet
	own      *core.HitMap
	opponent *core.HitMap
	// ships afloat, own first
	remaining [2]int
	pending   bool
	winner    int
}

// NewEngine creates an agent playing as player id (1 or 2)
func NewEngine(id int, source FleetSource, strat strategy.Strategy, logger zerolog.Logger) (*Engine, error) {
	if id < 1 || id > protocol.MaxPlayerID {
		return nil, outcome.Errorf(outcome.InvalidID, "player id %d", id)
	}
	if source == nil || strat == nil {
		return nil, errors.New("agent needs a fleet source and a strategy")
	}
	return &Engine{
		id:       id,
		source:   source,
		strategy: strat,
		logger: logger.With().
			Str("component", "agent").
			Int("player", id).
			Str("strategy", strat.Kind().String()).
			Logger(),
	}, nil
}

// ID returns the agent's player id
func (e *Engine) ID() int { return e.id }

// Phase returns the current phase
func (e *Engine) Phase() Phase { return e.phase }

// Winner returns the winner announced by DONE, or 0
func (e *Engine) Winner() int { return e.winner }

// OwnView returns the agent's own board: ship marks and incoming shots
func (e *Engine) OwnView() *core.HitMap { return e.own }

// OpponentView returns what the agent knows of the opponent's board
func (e *Engine) OpponentView() *core.HitMap { return e.opponent }

// Remaining returns the ships afloat for the agent and for its opponent
func (e *Engine) Remaining() (own, opponent int) {
	return e.remaining[0], e.remaining[1]
}

// Handle consumes one line from the referee and returns the lines to send
// back. A non-nil error ends the game for the agent; its outcome code is
// CommError unless the fleet source failed with a code of its own.
func (e *Engine) Handle(line string) ([]string, error) {
	switch e.phase {
	case PhaseAwaitRules:
		return e.handleRules(line)
	case PhasePlaying:
		return e.handlePlaying(line)
	default:
		return nil, outcome.Wrap(outcome.CommError, ErrFinished)
	}
}

func (e *Engine) handleRules(line string) ([]string, error) {
	msg, err := protocol.Decode(line, rulesTags, nil)
	if err != nil {
		return nil, e.fail(err)
	}
	if _, ok := msg.(protocol.Early); ok {
		return nil, e.fail(ErrEarly)
	}

	rules := msg.(protocol.Rules).Rules
	fleet, err := e.source(rules)
	if err != nil {
		return nil, e.fail(err)
	}
	fleet.Arm(rules)

	e.rules = rules
	e.fleet = fleet
	e.own = core.NewHitMap(rules.Rows, rules.Cols)
	e.own.MarkFleet(fleet)
	e.opponent = core.NewHitMap(rules.Rows, rules.Cols)
	e.remaining = [2]int{rules.NumShips, rules.NumShips}
	e.phase = PhasePlaying

	e.logger.Debug().
		Int("rows", rules.Rows).
		Int("cols", rules.Cols).
		Int("ships", rules.NumShips).
		Msg("Rules received")
	return []string{protocol.Map{Fleet: fleet}.String()}, nil
}

func (e *Engine) handlePlaying(line string) ([]string, error) {
	msg, err := protocol.Decode(line, playingTags, &e.rules)
	if err != nil {
		return nil, e.fail(err)
	}

	switch m := msg.(type) {
	case protocol.YourTurn:
		if e.pending {
			return nil, e.fail(ErrPending)
		}
		pos, err := e.strategy.NextGuess(e.opponent)
		if err != nil {
			return nil, e.fail(err)
		}
		e.pending = true
		return []string{protocol.Guess{Pos: pos}.String()}, nil

	case protocol.OK:
		if !e.pending {
			return nil, e.fail(ErrNoGuess)
		}
		e.pending = false

	case protocol.Result:
		e.record(m)

	case protocol.Done:
		e.winner = m.ID
		e.phase = PhaseFinished
		e.logger.Debug().Int("winner", m.ID).Msg("Game over")

	case protocol.Early:
		return nil, e.fail(ErrEarly)
	}
	return nil, nil
}

func (e *Engine) record(r protocol.Result) {
	if r.ID == e.id {
		e.opponent.Record(r.Pos, r.Outcome.Cell())
		e.strategy.Observe(e.opponent, r.Pos, r.Outcome)
		if r.Outcome == core.ShotSunk {
			e.remaining[1]--
		}
		return
	}
	e.own.Record(r.Pos, r.Outcome.Cell())
	if r.Outcome == core.ShotSunk {
		e.remaining[0]--
	}
}

func (e *Engine) fail(err error) error {
	e.phase = PhaseFailed
	return outcome.Wrap(outcome.CommError, err)
}

// Run plays a whole game over ch. It returns nil once DONE has been
// received.
func (e *Engine) Run(ctx context.Context, ch peer.Channel) error {
	for !e.phase.IsTerminal() {
		line, err := ch.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("referee closed the channel: %w", err)
			}
			return e.fail(err)
		}

		replies, err := e.Handle(line)
		if err != nil {
			e.logger.Debug().Err(err).Str("line", line).Msg("Game aborted")
			return err
		}
		for _, reply := range replies {
			if err := ch.WriteLine(reply); err != nil {
				return e.fail(err)
			}
		}
	}
	return nil
}

// Fleet returns the armed fleet sent to the referee, or nil before RULES
func (e *Engine) Fleet() *core.Fleet { return e.fleet }
