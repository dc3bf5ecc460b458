package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
	"github.com/mitchelldurbincs/navalhub/internal/game/mapgen"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
	"github.com/mitchelldurbincs/navalhub/internal/peer"
	"github.com/mitchelldurbincs/navalhub/internal/referee"
	"github.com/mitchelldurbincs/navalhub/internal/strategy"
	"github.com/mitchelldurbincs/navalhub/internal/testutil"
)

func newHuntEngine(t *testing.T, id int, fleet *core.Fleet) (*Engine, *strategy.HuntAndTarget) {
	t.Helper()
	hunt := strategy.NewHuntAndTarget(testutil.NewTestRNG(42))
	e, err := NewEngine(id, FixedFleet(fleet), hunt, testutil.NopLogger())
	require.NoError(t, err)
	return e, hunt
}

func handle(t *testing.T, e *Engine, line string) []string {
	t.Helper()
	replies, err := e.Handle(line)
	require.NoError(t, err, "line %q", line)
	return replies
}

func TestNewEngine_InvalidID(t *testing.T) {
	for _, id := range []int{0, 3, -1} {
		_, err := NewEngine(id, FixedFleet(testutil.StandardFleet()), strategy.NewSweep(), testutil.NopLogger())
		require.Error(t, err)
		assert.Equal(t, outcome.InvalidID, outcome.CodeOf(err))
	}
}

func TestEngine_Handshake(t *testing.T) {
	e, _ := newHuntEngine(t, 1, testutil.StandardFleet())
	assert.Equal(t, PhaseAwaitRules, e.Phase())

	replies := handle(t, e, "RULES 8,8,5,5,4,3,2,1")
	assert.Equal(t, []string{"MAP A1,E:A2,E:A3,E:A4,E:A5,E"}, replies)
	assert.Equal(t, PhasePlaying, e.Phase())

	own, opp := e.Remaining()
	assert.Equal(t, 5, own)
	assert.Equal(t, 5, opp)
	assert.Equal(t, core.ShipMark(1), e.OwnView().Get(core.Position{Row: 0, Col: 4}))
	assert.Equal(t, core.CellNone, e.OwnView().Get(core.Position{Row: 0, Col: 5}))
	assert.Equal(t, 5, e.Fleet().Ships[0].Length)
}

func TestEngine_HuntsAroundHit(t *testing.T) {
	e, hunt := newHuntEngine(t, 1, testutil.StandardFleet())
	handle(t, e, "RULES 8,8,5,5,4,3,2,1")

	handle(t, e, "HIT 1,C3")
	assert.Equal(t, core.CellHit, e.OpponentView().Get(core.Position{Row: 2, Col: 2}))
	assert.Equal(t, strategy.ModeAttack, hunt.Mode())
	assert.Equal(t, []core.Position{
		{Row: 2, Col: 1}, // B3
		{Row: 2, Col: 3}, // D3
		{Row: 1, Col: 2}, // C2
		{Row: 3, Col: 2}, // C4
	}, hunt.Queue())

	assert.Equal(t, []string{"GUESS B3"}, handle(t, e, "YT"))
	assert.Empty(t, handle(t, e, "OK"))
}

func TestEngine_TracksBothBoards(t *testing.T) {
	e, _ := newHuntEngine(t, 2, testutil.CreateTestFleet("A1", "E"))
	handle(t, e, "RULES 8,8,1,2")

	// Opponent shots land on the agent's own board
	handle(t, e, "HIT 1,A1")
	assert.Equal(t, core.CellHit, e.OwnView().Get(core.Position{Row: 0, Col: 0}))
	handle(t, e, "SUNK 1,B1")
	own, opp := e.Remaining()
	assert.Equal(t, 0, own)
	assert.Equal(t, 1, opp)

	// Own results land on the opponent view
	handle(t, e, "MISS 2,H8")
	assert.Equal(t, core.CellMiss, e.OpponentView().Get(core.Position{Row: 7, Col: 7}))
	handle(t, e, "SUNK 2,D4")
	_, opp = e.Remaining()
	assert.Equal(t, 0, opp)

	handle(t, e, "DONE 1")
	assert.Equal(t, PhaseFinished, e.Phase())
	assert.Equal(t, 1, e.Winner())

	_, err := e.Handle("YT")
	assert.ErrorIs(t, err, ErrFinished)
}

func TestEngine_Failures(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		target error
	}{
		{name: "early before rules", lines: []string{"EARLY"}, target: ErrEarly},
		{name: "map before rules", lines: []string{"YT"}},
		{name: "bad rules", lines: []string{"RULES 8,8,2,1"}},
		{name: "early in game", lines: []string{"RULES 8,8,1,2", "EARLY"}, target: ErrEarly},
		{name: "ok without guess", lines: []string{"RULES 8,8,1,2", "OK"}, target: ErrNoGuess},
		{name: "prompt while pending", lines: []string{"RULES 8,8,1,2", "YT", "YT"}, target: ErrPending},
		{name: "off the board", lines: []string{"RULES 8,8,1,2", "HIT 1,I1"}},
		{name: "bad player", lines: []string{"RULES 8,8,1,2", "MISS 3,A1"}},
		{name: "second rules", lines: []string{"RULES 8,8,1,2", "RULES 8,8,1,2"}},
		{name: "garbage", lines: []string{"RULES 8,8,1,2", "HELLO"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(1, FixedFleet(testutil.CreateTestFleet("A1", "E")), strategy.NewSweep(), testutil.NopLogger())
			require.NoError(t, err)

			var lastErr error
			for _, line := range tt.lines {
				if _, lastErr = e.Handle(line); lastErr != nil {
					break
				}
			}
			require.Error(t, lastErr)
			assert.Equal(t, outcome.CommError, outcome.CodeOf(lastErr))
			if tt.target != nil {
				assert.ErrorIs(t, lastErr, tt.target)
			}
			assert.Equal(t, PhaseFailed, e.Phase())
		})
	}
}

func TestEngine_RandomFleet(t *testing.T) {
	source := RandomFleet(mapgen.DefaultPlacementConfig(), testutil.NewTestRNG(3))
	e, err := NewEngine(1, source, strategy.NewRandomSearch(testutil.NewTestRNG(4)), testutil.NopLogger())
	require.NoError(t, err)

	replies := handle(t, e, "RULES 8,8,5,5,4,3,2,1")
	require.Len(t, replies, 1)
	assert.NoError(t, core.Validate(core.StandardRules(), e.Fleet()))
}

func TestEngine_RunEOF(t *testing.T) {
	e, _ := newHuntEngine(t, 1, testutil.StandardFleet())
	ch := testutil.NewScriptedPeer("RULES 8,8,5,5,4,3,2,1")

	err := e.Run(context.Background(), ch)
	require.Error(t, err)
	assert.Equal(t, outcome.CommError, outcome.CodeOf(err))
	assert.Equal(t, []string{"MAP A1,E:A2,E:A3,E:A4,E:A5,E"}, ch.Written())
}

func TestEngine_RunAgainstReferee(t *testing.T) {
	kinds := []strategy.Kind{strategy.KindSweep, strategy.KindHunt, strategy.KindRandom}

	for _, k1 := range kinds {
		for _, k2 := range kinds {
			t.Run(k1.String()+"_vs_"+k2.String(), func(t *testing.T) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				var hubEnds [2]peer.Channel
				var engines [2]*Engine
				g, gctx := errgroup.WithContext(ctx)

				for i, kind := range []strategy.Kind{k1, k2} {
					hubEnd, agentEnd := peer.NewPipe(peer.Options{Logger: testutil.NopLogger()})
					hubEnds[i] = hubEnd

					strat, err := strategy.New(kind, testutil.NewTestRNG(int64(10+i)))
					require.NoError(t, err)
					source := RandomFleet(mapgen.DefaultPlacementConfig(), testutil.NewTestRNG(int64(20+i)))
					e, err := NewEngine(i+1, source, strat, testutil.NopLogger())
					require.NoError(t, err)
					engines[i] = e

					g.Go(func() error {
						defer agentEnd.Terminate()
						return e.Run(gctx, agentEnd)
					})
				}

				session := referee.NewSession(core.StandardRules(), hubEnds, referee.Options{
					ID:     "pipe-game",
					Logger: testutil.NopLogger(),
				})
				g.Go(func() error {
					defer session.Close()
					if err := session.Handshake(gctx); err != nil {
						return err
					}
					for {
						done, err := session.Step(gctx)
						if err != nil || done {
							return err
						}
					}
				})

				require.NoError(t, g.Wait())

				winner := session.Winner()
				require.Contains(t, []int{1, 2}, winner)
				for _, e := range engines {
					assert.Equal(t, PhaseFinished, e.Phase())
					assert.Equal(t, winner, e.Winner())
				}

				// The winner's view of the loser matches the referee's board
				loser := 3 - winner
				_, opp := engines[winner-1].Remaining()
				assert.Equal(t, 0, opp)
				own, _ := engines[loser-1].Remaining()
				assert.Equal(t, 0, own)
				assert.Equal(t,
					session.Board(loser).Count(core.CellHit),
					engines[winner-1].OpponentView().Count(core.CellHit))
			})
		}
	}
}
